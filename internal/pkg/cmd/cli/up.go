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

	"github.com/langstack/langstack/internal/pkg/cluster"
	"github.com/langstack/langstack/internal/pkg/config"
	"github.com/langstack/langstack/internal/pkg/environment"
	"github.com/langstack/langstack/internal/pkg/install"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type upCmd struct {
	out      io.Writer
	core     bool
	platform bool
	version  string
	debug    bool
	open     bool
}

func newUpCmd(out io.Writer) *cobra.Command {
	c := &upCmd{
		out: out,
	}

	cmd := &cobra.Command{
		Use:   "up [flags]",
		Short: "Install components into the cluster",
		Long: `Install the selected components into the cluster.

At least one of '--core' and '--platform' must be given. The platform runtime
depends on the core service, so '--platform' on its own will install the core
service first if the cluster doesn't already have it.

On a successful core service install the resolved endpoint, admin email and
generated admin password are printed once. The password isn't stored
anywhere, so note it down.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errors.New("too many arguments supplied")
			}

			if !c.core && !c.platform {
				return errors.New("at least one of '--core' and '--platform' is required")
			}

			return c.run()
		},
	}

	f := cmd.Flags()
	f.BoolVar(&c.core, "core", false, "install the core service")
	f.BoolVar(&c.platform, "platform", false, "install the platform runtime")
	f.StringVar(&c.version, "version", "", "pin the chart version to apply")
	f.BoolVar(&c.debug, "debug", false, "enable verbose output from the underlying apply")
	f.BoolVar(&c.open, "open", false, "open the endpoint in a browser once it resolves")

	return cmd
}

func (c *upCmd) run() error {
	err := config.Load(config.ViperConfig)
	if err != nil {
		return errors.WithStack(err)
	}

	client, err := cluster.New(config.Config)
	if err != nil {
		return errors.WithStack(err)
	}

	env, err := environment.Resolve(config.Config)
	if err != nil {
		return errors.WithStack(err)
	}

	components := make([]string, 0, 2)
	if c.core {
		components = append(components, install.CoreComponent)
	}
	if c.platform {
		components = append(components, install.PlatformComponent)
	}

	runCtx := install.NewRunContext(env, config.Config)

	orchestrator := install.New(client, runCtx)
	orchestrator.OpenBrowser = c.open

	err = orchestrator.Apply(&install.Request{
		Components: components,
		Version:    c.version,
		Debug:      c.debug,
	})

	return errors.WithStack(err)
}
