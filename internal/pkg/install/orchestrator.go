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

	"github.com/langstack/langstack/internal/pkg/cluster"
	"github.com/langstack/langstack/internal/pkg/dag"
	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/langstack/langstack/internal/pkg/overlay"
	"github.com/pkg/errors"
)

// Request describes what the operator asked for. Immutable once built.
type Request struct {
	Components []string
	Version    string
	Debug      bool
}

// State of the installation state machine
type State string

const (
	NotStarted         State = "not-started"
	CoreInstalling     State = "core-installing"
	CoreReady          State = "core-ready"
	PlatformInstalling State = "platform-installing"
	Converged          State = "converged"
	Failed             State = "failed"
)

// Error returned when the package manager fails to apply or converge a
// release. The underlying error is surfaced verbatim and no retry is
// performed - the operator must re-invoke.
type ApplyError struct {
	Component string
	Err       error
}

func (e ApplyError) Error() string {
	return fmt.Sprintf("Failed to apply component '%s': %v", e.Component, e.Err)
}

func (e ApplyError) Cause() error {
	return e.Err
}

// Orchestrator drives component installs against the cluster. It keeps no
// persistent state of its own - the cluster is the source of truth for what
// is already installed.
type Orchestrator struct {
	client cluster.Client
	run    *RunContext
	state  State

	// Poller resolves the endpoint after the core service converges. Its
	// schedule can be tuned before calling Apply.
	Poller *Poller

	// OpenBrowser opens the reported endpoint in a browser after a
	// successful core install
	OpenBrowser bool
}

func New(client cluster.Client, run *RunContext) *Orchestrator {
	return &Orchestrator{
		client: client,
		run:    run,
		state:  NotStarted,
		Poller: NewPoller(client),
	}
}

// State returns the orchestrator's current state
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) transition(state State) {
	log.Logger.Debugf("Orchestrator transitioning from '%s' to '%s'", o.state, state)
	o.state = state
}

// Apply installs the requested components plus any requirements they pull
// in, in dependency order. Components that were only pulled in as
// requirements are skipped if the cluster already has them; explicitly
// requested components are always applied. The core service always
// converges before the platform runtime within a run.
func (o *Orchestrator) Apply(request *Request) error {
	namespace := o.run.Env.Namespace

	err := o.client.EnsureNamespace(namespace)
	if err != nil {
		o.transition(Failed)
		return errors.WithStack(err)
	}

	order, err := dag.SortedClosure(componentDescriptors, request.Components)
	if err != nil {
		o.transition(Failed)
		return errors.WithStack(err)
	}

	requested := make(map[string]bool, len(request.Components))
	for _, name := range request.Components {
		requested[name] = true
	}

	// the platform licence only goes into the core overlay when the
	// platform runtime is part of this run
	platformIncluded := false
	for _, name := range order {
		if name == PlatformComponent {
			platformIncluded = true
		}
	}

	for _, name := range order {
		if !requested[name] {
			installed, err := o.isInstalled(name, namespace)
			if err != nil {
				o.transition(Failed)
				return errors.WithStack(err)
			}

			if installed {
				log.Logger.Infof("Component '%s' is already installed... skipping", name)
				if name == CoreComponent {
					o.transition(CoreReady)
				}
				continue
			}

			log.Logger.Infof("Component '%s' is required by the requested set "+
				"but isn't installed... installing it first", name)
		}

		err = o.applyComponent(name, request, platformIncluded)
		if err != nil {
			o.transition(Failed)
			return errors.WithStack(err)
		}
	}

	o.transition(Converged)

	return nil
}

// Queries live cluster state for a successfully deployed release of the
// component. Point-in-time only - idempotent applies absorb any race.
func (o *Orchestrator) isInstalled(name string, namespace string) (bool, error) {
	releases, err := o.client.ListReleases(namespace)
	if err != nil {
		return false, errors.WithStack(err)
	}

	for _, release := range releases {
		if release.Name != name {
			continue
		}

		if release.Status == "deployed" {
			log.Logger.Debugf("Release '%s' is already deployed", name)
			return true, nil
		}

		log.Logger.Infof("Release '%s' exists but its status is '%s'... "+
			"will re-apply", name, release.Status)
		return false, nil
	}

	return false, nil
}

func (o *Orchestrator) applyComponent(name string, request *Request,
	platformIncluded bool) error {

	switch name {
	case CoreComponent:
		return o.applyCore(request, platformIncluded)
	case PlatformComponent:
		return o.applyPlatform(request)
	default:
		return fmt.Errorf("Unknown component '%s'", name)
	}
}

func (o *Orchestrator) applyCore(request *Request, platformIncluded bool) error {
	o.transition(CoreInstalling)

	bundle, err := o.run.Secrets()
	if err != nil {
		return errors.WithStack(err)
	}

	_, err = overlay.BuildCoreOverlay(o.run.Conf.BaseConfig, o.run.CoreOverlayPath(),
		o.run.Env, bundle, platformIncluded)
	if err != nil {
		return errors.WithStack(err)
	}

	err = o.client.ApplyRelease(cluster.ApplyOptions{
		Name:        CoreComponent,
		Chart:       coreChart,
		Namespace:   o.run.Env.Namespace,
		ValuesFile:  o.run.CoreOverlayPath(),
		Version:     request.Version,
		WaitTimeout: applyWaitTimeout,
		Debug:       request.Debug,
	})
	if err != nil {
		return ApplyError{Component: CoreComponent, Err: err}
	}

	o.transition(CoreReady)

	// readiness is advisory: the install already succeeded, polling only
	// improves the report
	endpoint := o.Poller.Poll(o.run.Env.Namespace)

	err = o.report(endpoint, bundle)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (o *Orchestrator) applyPlatform(request *Request) error {
	o.transition(PlatformInstalling)

	_, err := overlay.BuildPlatformOverlay(o.run.CoreOverlayPath(),
		o.run.PlatformOverlayPath(), o.run.Env)
	if err != nil {
		return errors.WithStack(err)
	}

	err = o.client.ApplyRelease(cluster.ApplyOptions{
		Name:        PlatformComponent,
		Chart:       platformChart,
		Namespace:   o.run.Env.Namespace,
		ValuesFile:  o.run.PlatformOverlayPath(),
		Version:     request.Version,
		WaitTimeout: applyWaitTimeout,
		Debug:       request.Debug,
	})
	if err != nil {
		return ApplyError{Component: PlatformComponent, Err: err}
	}

	return nil
}
