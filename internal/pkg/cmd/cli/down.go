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

type downCmd struct {
	out io.Writer

	// accepted for symmetry with 'up' but ignored: teardown always targets
	// both components
	core     bool
	platform bool
}

func newDownCmd(out io.Writer) *cobra.Command {
	c := &downCmd{
		out: out,
	}

	cmd := &cobra.Command{
		Use:   "down [flags]",
		Short: "Remove all components from the cluster",
		Long: `Remove both components from the cluster, along with their persistent
volume claims, the namespace and the generated overlay files.

Component flags are ignored: teardown always targets everything. Steps that
find nothing to remove are logged and skipped, so 'down' is safe to run
against a partially installed or already-removed namespace.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errors.New("too many arguments supplied")
			}

			return c.run()
		},
	}

	f := cmd.Flags()
	f.BoolVar(&c.core, "core", false, "ignored. 'down' always removes both components")
	f.BoolVar(&c.platform, "platform", false, "ignored. 'down' always removes both components")

	return cmd
}

func (c *downCmd) run() error {
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

	runCtx := install.NewRunContext(env, config.Config)

	return errors.WithStack(install.NewReconciler(client, runCtx).Reconcile())
}
