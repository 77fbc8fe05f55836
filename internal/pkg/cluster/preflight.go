/*
 * Copyright 2024 The Langstack Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cluster

import (
	"fmt"
	"os/exec"

	"github.com/langstack/langstack/internal/pkg/log"
)

// Error returned when a required external tool isn't on the PATH
type MissingToolError struct {
	Tool string
}

func (e MissingToolError) Error() string {
	return fmt.Sprintf("Required tool '%s' was not found on the PATH", e.Tool)
}

func checkToolPresent(tool string) error {
	path, err := exec.LookPath(tool)
	if err != nil {
		return MissingToolError{Tool: tool}
	}

	log.Logger.Debugf("Found '%s' at '%s'", tool, path)

	return nil
}
