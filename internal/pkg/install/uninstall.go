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
	"os"
	"strings"

	"github.com/langstack/langstack/internal/pkg/cluster"
	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/langstack/langstack/internal/pkg/printer"
	"github.com/pkg/errors"
)

// Reconciler reverses the orchestrator's effects: releases, persistent
// state, the namespace and generated overlay artifacts. Each step tolerates
// missing resources so a partial or repeated teardown still succeeds.
type Reconciler struct {
	client cluster.Client
	run    *RunContext
}

func NewReconciler(client cluster.Client, run *RunContext) *Reconciler {
	return &Reconciler{
		client: client,
		run:    run,
	}
}

// Reconcile removes both components and their state. The dependent platform
// runtime is removed before the core service it points at. A namespace that
// was never created short-circuits the whole sequence.
func (r *Reconciler) Reconcile() error {
	namespace := r.run.Env.Namespace

	exists, err := r.client.NamespaceExists(namespace)
	if err != nil {
		return errors.WithStack(err)
	}

	if !exists {
		log.Logger.Infof("Namespace '%s' doesn't exist... nothing to remove", namespace)
		_, err = printer.Fprintf("[green]Namespace '%s' doesn't exist. Nothing to do.\n",
			namespace)
		return errors.WithStack(err)
	}

	// remove the dependent before the dependency
	r.uninstallRelease(PlatformComponent, namespace)
	r.uninstallRelease(CoreComponent, namespace)

	claims, err := r.client.ListPersistentClaims(namespace)
	if err != nil {
		log.Logger.Warnf("Couldn't list persistent volume claims in namespace "+
			"'%s': %v", namespace, err)
	} else if len(claims) > 0 {
		log.Logger.Infof("Persistent volume claims in namespace '%s': %s",
			namespace, strings.Join(claims, ", "))
	}

	err = r.client.DeletePersistentClaims(teardownClaims, namespace)
	if err != nil {
		log.Logger.Warnf("Couldn't delete persistent volume claims: %v", err)
	}

	err = r.client.DeleteNamespace(namespace)
	if err != nil {
		log.Logger.Warnf("Couldn't delete namespace '%s': %v", namespace, err)
	}

	r.removeArtifact(r.run.CoreOverlayPath())
	r.removeArtifact(r.run.PlatformOverlayPath())

	_, err = printer.Fprintf("[green]Removed all components from namespace '%s'.\n",
		namespace)

	return errors.WithStack(err)
}

func (r *Reconciler) uninstallRelease(name string, namespace string) {
	err := r.client.UninstallRelease(name, namespace)
	if err == nil {
		return
	}

	if notFound, ok := errors.Cause(err).(cluster.ReleaseNotFoundError); ok {
		log.Logger.Warnf("%s... skipping", notFound.Error())
		return
	}

	log.Logger.Warnf("Couldn't uninstall release '%s': %v", name, err)
}

func (r *Reconciler) removeArtifact(path string) {
	err := os.Remove(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		log.Logger.Warnf("Couldn't remove overlay artifact '%s': %v", path, err)
		return
	}

	log.Logger.Infof("Removed overlay artifact '%s'", path)
}
