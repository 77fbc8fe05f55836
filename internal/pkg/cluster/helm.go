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
	"fmt"
	"strings"

	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/langstack/langstack/internal/pkg/utils"
	shellwords "github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const listTimeoutSeconds = 30

// Error returned when uninstalling a release helm doesn't know about. The
// teardown path treats this as a warning, not a failure.
type ReleaseNotFoundError struct {
	Name string
}

func (e ReleaseNotFoundError) Error() string {
	return fmt.Sprintf("Release '%s' is not installed", e.Name)
}

// helmRunner shells out to the helm binary. The command is configurable so
// operators can bake in extra args, e.g. `helm --kube-context staging`.
type helmRunner struct {
	command  string
	baseArgs []string
}

func newHelmRunner(helmCommand string) (*helmRunner, error) {
	words, err := shellwords.Parse(helmCommand)
	if err != nil {
		return nil, errors.Wrapf(err, "Error parsing helm command '%s'", helmCommand)
	}

	if len(words) == 0 {
		return nil, errors.New("The helm command can't be empty")
	}

	err = checkToolPresent(words[0])
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &helmRunner{
		command:  words[0],
		baseArgs: words[1:],
	}, nil
}

func (h *helmRunner) run(stdoutBuf *bytes.Buffer, timeoutSeconds int, args ...string) error {
	var stderrBuf bytes.Buffer

	allArgs := append(append([]string{}, h.baseArgs...), args...)

	err := utils.ExecCommand(h.command, allArgs, map[string]string{}, stdoutBuf,
		&stderrBuf, "", timeoutSeconds, false)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// ListReleases returns the releases helm reports in the namespace
func (c *client) ListReleases(namespace string) ([]Release, error) {
	var stdoutBuf bytes.Buffer

	err := c.helm.run(&stdoutBuf, listTimeoutSeconds, "list", "--all",
		"--namespace", namespace, "--output", "yaml")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	releases := make([]Release, 0)
	err = yaml.Unmarshal(stdoutBuf.Bytes(), &releases)
	if err != nil {
		return nil, errors.Wrapf(err, "Error parsing 'helm list' output: %s",
			stdoutBuf.String())
	}

	return releases, nil
}

// ApplyRelease installs or upgrades a release and blocks until helm reports
// its resources ready or the wait timeout expires. Any helm failure is
// surfaced verbatim.
func (c *client) ApplyRelease(opts ApplyOptions) error {
	args := []string{"upgrade", "--install", opts.Name, opts.Chart,
		"--namespace", opts.Namespace,
		"--values", opts.ValuesFile,
		"--wait", "--timeout", opts.WaitTimeout.String(),
	}

	if opts.Version != "" {
		args = append(args, "--version", opts.Version)
	}

	if opts.Debug {
		args = append(args, "--debug")
	}

	log.Logger.Infof("Applying release '%s' (chart '%s') in namespace '%s'... "+
		"this can take a while", opts.Name, opts.Chart, opts.Namespace)

	var stdoutBuf bytes.Buffer

	// give helm's own wait a minute of slack before killing the process
	timeoutSeconds := int(opts.WaitTimeout.Seconds()) + 60

	err := c.helm.run(&stdoutBuf, timeoutSeconds, args...)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Logger.Infof("Release '%s' converged", opts.Name)

	return nil
}

// UninstallRelease removes a release. Returns ReleaseNotFoundError if helm
// has no record of it.
func (c *client) UninstallRelease(name string, namespace string) error {
	var stdoutBuf bytes.Buffer

	err := c.helm.run(&stdoutBuf, 0, "uninstall", name, "--namespace", namespace)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return ReleaseNotFoundError{Name: name}
		}
		return errors.WithStack(err)
	}

	log.Logger.Infof("Uninstalled release '%s' from namespace '%s'", name, namespace)

	return nil
}
