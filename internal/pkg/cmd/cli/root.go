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

package cli

import (
	"io"

	"github.com/langstack/langstack/internal/pkg/cmd/version"
	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/spf13/cobra"
)

const longUsage = `Langstack installs the LangSmith core service and the LangGraph platform
runtime onto a Kubernetes cluster.

The target namespace is derived from the local hostname, so repeated runs on
the same machine converge on the same installation. Releases are applied with
Helm using a generated configuration overlay that layers your licence key,
admin identity and freshly generated secrets onto a base config template.

The platform runtime requires the core service: asking for the platform alone
will install the core service first if the cluster doesn't have it yet.

Configuration is read from a 'langstack.env' file in the current directory,
'~/.langstack' or '/etc/langstack'. It must supply ADMIN_EMAIL and
LICENSE_KEY.

Use 'langstack up' to install and 'langstack down' to remove everything
again, including persistent state and the namespace.
`

func NewCommand(name string) *cobra.Command {

	var verboseOutput bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   name,
		Short: "Install LangSmith and the LangGraph platform onto Kubernetes",
		Long:  longUsage,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !verboseOutput {
				log.Logger.Out = io.Discard
			} else {
				log.SetLevel(log.Logger, logLevel)
			}
		},
	}

	out := cmd.OutOrStdout()

	cmd.PersistentFlags().BoolVarP(&verboseOutput, "verbose", "v", false, "enable verbose output/logging")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level. One of debug|info|warn")

	cmd.AddCommand(
		version.NewCommand(),
		newUpCmd(out),
		newDownCmd(out),
	)

	return cmd
}
