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

package install

import (
	"path/filepath"

	"github.com/langstack/langstack/internal/pkg/config"
	"github.com/langstack/langstack/internal/pkg/environment"
	"github.com/langstack/langstack/internal/pkg/overlay"
	"github.com/langstack/langstack/internal/pkg/secrets"
	"github.com/pkg/errors"
)

// RunContext carries the state shared by the steps of a single run: the
// resolved environment, the loaded configuration and the secret bundle.
// Secrets are generated lazily and at most once per run so every overlay
// built within the run carries identical values.
type RunContext struct {
	Env  *environment.Environment
	Conf *config.Conf

	bundle *secrets.Bundle
}

func NewRunContext(env *environment.Environment, conf *config.Conf) *RunContext {
	return &RunContext{
		Env:  env,
		Conf: conf,
	}
}

// Secrets returns the run's secret bundle, generating it on first use
func (r *RunContext) Secrets() (*secrets.Bundle, error) {
	if r.bundle != nil {
		return r.bundle, nil
	}

	bundle, err := secrets.Generate()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	r.bundle = bundle
	return r.bundle, nil
}

// CoreOverlayPath returns where the core service overlay is written
func (r *RunContext) CoreOverlayPath() string {
	return filepath.Join(r.Conf.OutputDir, overlay.CoreOverlayFile)
}

// PlatformOverlayPath returns where the platform runtime overlay is written
func (r *RunContext) PlatformOverlayPath() string {
	return filepath.Join(r.Conf.OutputDir, overlay.PlatformOverlayFile)
}
