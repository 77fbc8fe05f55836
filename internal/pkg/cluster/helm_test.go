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
	"bytes"
	"testing"

	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func init() {
	log.ConfigureLogger("fatal", false)
}

func TestNewHelmRunnerParsesCommand(t *testing.T) {
	runner, err := newHelmRunner("echo --kube-context staging")
	assert.Nil(t, err)

	assert.Equal(t, "echo", runner.command)
	assert.Equal(t, []string{"--kube-context", "staging"}, runner.baseArgs)
}

func TestNewHelmRunnerMissingTool(t *testing.T) {
	_, err := newHelmRunner("definitely-not-a-real-binary")
	assert.Error(t, err)

	missing, ok := errors.Cause(err).(MissingToolError)
	assert.True(t, ok)
	assert.Equal(t, "definitely-not-a-real-binary", missing.Tool)
}

func TestNewHelmRunnerEmptyCommand(t *testing.T) {
	_, err := newHelmRunner("")
	assert.Error(t, err)
}

func TestNewHelmRunnerUnparseableCommand(t *testing.T) {
	_, err := newHelmRunner(`helm "unterminated`)
	assert.Error(t, err)
}

func TestRunPrependsBaseArgs(t *testing.T) {
	runner, err := newHelmRunner("echo --kube-context staging")
	assert.Nil(t, err)

	var stdoutBuf bytes.Buffer
	err = runner.run(&stdoutBuf, 0, "list", "--all")
	assert.Nil(t, err)

	assert.Equal(t, "--kube-context staging list --all\n", stdoutBuf.String())
}

func TestReleaseListParsing(t *testing.T) {
	// the shape `helm list --output yaml` actually emits
	output := []byte(`- app_version: 0.7.31
  chart: langsmith-0.7.31
  name: langsmith
  namespace: test-host
  revision: "2"
  status: deployed
  updated: 2024-05-01 10:00:00.000000 +0000 UTC
`)

	releases := make([]Release, 0)
	err := yaml.Unmarshal(output, &releases)
	assert.Nil(t, err)

	assert.Equal(t, 1, len(releases))
	assert.Equal(t, "langsmith", releases[0].Name)
	assert.Equal(t, "deployed", releases[0].Status)
	assert.Equal(t, "0.7.31", releases[0].AppVersion)
	assert.Equal(t, "langsmith-0.7.31", releases[0].Chart)
}

func TestReleaseNotFoundError(t *testing.T) {
	err := ReleaseNotFoundError{Name: "langsmith"}
	assert.Contains(t, err.Error(), "langsmith")
}
