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

package environment

import (
	"os"
	"strings"

	"github.com/langstack/langstack/internal/pkg/config"
	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/pkg/errors"
)

// Environment identifies where a run operates and who administers it. The
// namespace is derived from the local host so repeated runs on the same
// machine target the same namespace.
type Environment struct {
	Namespace  string
	AdminEmail string
	LicenseKey string
}

// DeriveNamespace converts a host identifier into a valid namespace name:
// lower-cased with each dot replaced by a hyphen.
func DeriveNamespace(hostname string) string {
	return strings.ReplaceAll(strings.ToLower(hostname), ".", "-")
}

// Resolve derives the environment for this run from the local hostname and
// the loaded configuration. It performs no cluster calls - the install path
// ensures the namespace exists before applying anything, while the teardown
// path must be able to observe that the namespace was never created.
func Resolve(conf *config.Conf) (*Environment, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.Wrap(err, "Error reading the local hostname")
	}

	namespace := DeriveNamespace(hostname)
	log.Logger.Debugf("Derived namespace '%s' from hostname '%s'", namespace, hostname)

	return &Environment{
		Namespace:  namespace,
		AdminEmail: conf.AdminEmail,
		LicenseKey: conf.LicenseKey,
	}, nil
}
