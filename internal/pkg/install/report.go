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
	"fmt"

	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/langstack/langstack/internal/pkg/printer"
	"github.com/langstack/langstack/internal/pkg/secrets"
	"github.com/pkg/errors"
	"github.com/skratchdot/open-golang/open"
)

// Prints the operator report after a successful core service install. This
// is the only place the generated admin password is surfaced, and it happens
// exactly once per run.
func (o *Orchestrator) report(endpoint string, bundle *secrets.Bundle) error {
	_, err := printer.Fprintf("\n[green]The core service is installed.\n\n"+
		"  Namespace:      [white]%s[reset]\n"+
		"  Endpoint:       [white]%s[reset]\n"+
		"  Admin email:    [white]%s[reset]\n"+
		"  Admin password: [white]%s[reset]\n\n"+
		"Store the admin password somewhere safe - it won't be shown again.\n",
		o.run.Env.Namespace, endpoint, o.run.Env.AdminEmail, bundle.AdminPassword)
	if err != nil {
		return errors.WithStack(err)
	}

	if endpoint == PendingEndpoint {
		_, err = printer.Fprintln("[yellow]The endpoint hasn't been assigned yet. " +
			"Query the cluster again in a few minutes.")
		return errors.WithStack(err)
	}

	if o.OpenBrowser {
		url := fmt.Sprintf("http://%s", endpoint)
		err = open.Start(url)
		if err != nil {
			// purely a convenience, don't fail the run over it
			log.Logger.Warnf("Couldn't open '%s' in a browser: %v", url, err)
		}
	}

	return nil
}
