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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/langstack/langstack/internal/pkg/cluster"
	"github.com/langstack/langstack/internal/pkg/config"
	"github.com/langstack/langstack/internal/pkg/environment"
	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/langstack/langstack/internal/pkg/mock"
	"github.com/langstack/langstack/internal/pkg/overlay"
	"github.com/langstack/langstack/internal/pkg/printer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

const testNamespace = "test-host"

func init() {
	log.ConfigureLogger("fatal", false)
	printer.SetOutput(&bytes.Buffer{})
}

// Builds a run context backed by a temp dir holding a minimal base config
func testRunContext(t *testing.T) *RunContext {
	dir := t.TempDir()

	basePath := filepath.Join(dir, "langsmith_base.yaml")
	err := os.WriteFile(basePath, []byte("licenseKey: \"\"\n"), 0644)
	assert.Nil(t, err)

	env := &environment.Environment{
		Namespace:  testNamespace,
		AdminEmail: "admin@example.com",
		LicenseKey: "test-license",
	}

	conf := &config.Conf{
		AdminEmail:  "admin@example.com",
		LicenseKey:  "test-license",
		BaseConfig:  basePath,
		OutputDir:   dir,
		HelmCommand: "helm",
	}

	return NewRunContext(env, conf)
}

func testOrchestrator(client *mock.ClusterClient, run *RunContext) *Orchestrator {
	orch := New(client, run)
	orch.Poller.InitialDelay = 0
	orch.Poller.Interval = time.Millisecond
	orch.Poller.MaxAttempts = 1
	return orch
}

func TestApplyCoreOnly(t *testing.T) {
	client := mock.NewClusterClient()
	run := testRunContext(t)
	orch := testOrchestrator(client, run)

	err := orch.Apply(&Request{Components: []string{CoreComponent}})
	assert.Nil(t, err)
	assert.Equal(t, Converged, orch.State())

	applies := client.CallsMatching("apply")
	assert.Equal(t, []string{"apply langsmith"}, applies)

	assert.True(t, client.Namespaces[testNamespace])

	// overlay was written, without the platform licence
	doc, err := overlay.Load(run.CoreOverlayPath())
	assert.Nil(t, err)
	assert.False(t, doc.Has("langgraphPlatformLicenseKey"))
}

func TestApplyPlatformPullsInCore(t *testing.T) {
	client := mock.NewClusterClient()
	run := testRunContext(t)
	orch := testOrchestrator(client, run)

	// platform requested alone on an empty cluster: core installs first
	err := orch.Apply(&Request{Components: []string{PlatformComponent}})
	assert.Nil(t, err)
	assert.Equal(t, Converged, orch.State())

	applies := client.CallsMatching("apply")
	assert.Equal(t, []string{"apply langsmith", "apply langgraph-platform"}, applies)

	// core was only a requirement, so its cluster state was checked first
	assert.Equal(t, []string{fmt.Sprintf("list-releases %s", testNamespace)},
		client.CallsMatching("list-releases"))
}

func TestApplyPlatformSkipsDeployedCore(t *testing.T) {
	client := mock.NewClusterClient()
	run := testRunContext(t)
	orch := testOrchestrator(client, run)

	client.Releases[testNamespace] = []cluster.Release{
		{Name: CoreComponent, Status: "deployed"},
	}

	err := orch.Apply(&Request{Components: []string{PlatformComponent}})
	assert.Nil(t, err)
	assert.Equal(t, Converged, orch.State())

	applies := client.CallsMatching("apply")
	assert.Equal(t, []string{"apply langgraph-platform"}, applies)
}

func TestApplyReAppliesFailedCore(t *testing.T) {
	client := mock.NewClusterClient()
	run := testRunContext(t)
	orch := testOrchestrator(client, run)

	// a release in any state other than deployed gets re-applied
	client.Releases[testNamespace] = []cluster.Release{
		{Name: CoreComponent, Status: "failed"},
	}

	err := orch.Apply(&Request{Components: []string{PlatformComponent}})
	assert.Nil(t, err)

	applies := client.CallsMatching("apply")
	assert.Equal(t, []string{"apply langsmith", "apply langgraph-platform"}, applies)
}

func TestApplyExplicitRequestAlwaysApplies(t *testing.T) {
	client := mock.NewClusterClient()
	run := testRunContext(t)
	orch := testOrchestrator(client, run)

	// core is deployed, but it's explicitly requested so it's applied anyway
	client.Releases[testNamespace] = []cluster.Release{
		{Name: CoreComponent, Status: "deployed"},
	}

	err := orch.Apply(&Request{Components: []string{CoreComponent, PlatformComponent}})
	assert.Nil(t, err)

	applies := client.CallsMatching("apply")
	assert.Equal(t, []string{"apply langsmith", "apply langgraph-platform"}, applies)

	// no cluster state was consulted - explicit requests skip the check
	assert.Equal(t, 0, len(client.CallsMatching("list-releases")))
}

func TestApplyBothSharesSecrets(t *testing.T) {
	client := mock.NewClusterClient()
	run := testRunContext(t)
	orch := testOrchestrator(client, run)

	err := orch.Apply(&Request{Components: []string{CoreComponent, PlatformComponent}})
	assert.Nil(t, err)

	coreDoc, err := overlay.Load(run.CoreOverlayPath())
	assert.Nil(t, err)
	platformDoc, err := overlay.Load(run.PlatformOverlayPath())
	assert.Nil(t, err)

	// both overlays carry the exact same secret material
	for _, key := range []string{"jwtSecret", "apiKeySalt", "adminPassword"} {
		coreValue, ok := coreDoc.Get(key)
		assert.True(t, ok, key)
		platformValue, ok := platformDoc.Get(key)
		assert.True(t, ok, key)
		assert.Equal(t, coreValue, platformValue, key)
	}

	// the platform licence went into the core overlay too
	license, ok := coreDoc.Get("langgraphPlatformLicenseKey")
	assert.True(t, ok)
	assert.Equal(t, "test-license", license)
}

func TestApplyPassesRequestOptions(t *testing.T) {
	client := mock.NewClusterClient()
	run := testRunContext(t)
	orch := testOrchestrator(client, run)

	err := orch.Apply(&Request{
		Components: []string{CoreComponent},
		Version:    "0.9.1",
		Debug:      true,
	})
	assert.Nil(t, err)

	assert.Equal(t, 1, len(client.Applies))
	opts := client.Applies[0]
	assert.Equal(t, CoreComponent, opts.Name)
	assert.Equal(t, "langchain/langsmith", opts.Chart)
	assert.Equal(t, testNamespace, opts.Namespace)
	assert.Equal(t, run.CoreOverlayPath(), opts.ValuesFile)
	assert.Equal(t, "0.9.1", opts.Version)
	assert.Equal(t, 30*time.Minute, opts.WaitTimeout)
	assert.True(t, opts.Debug)
}

func TestApplyFailureSurfacesVerbatim(t *testing.T) {
	client := mock.NewClusterClient()
	run := testRunContext(t)
	orch := testOrchestrator(client, run)

	helmErr := fmt.Errorf("context deadline exceeded")
	client.ApplyErrs[CoreComponent] = helmErr

	err := orch.Apply(&Request{Components: []string{CoreComponent}})
	assert.Error(t, err)
	assert.Equal(t, Failed, orch.State())

	applyErr, ok := errors.Cause(err).(ApplyError)
	assert.True(t, ok)
	assert.Equal(t, CoreComponent, applyErr.Component)
	assert.Equal(t, helmErr, applyErr.Cause())
}

func TestApplyCoreFailureStopsPlatform(t *testing.T) {
	client := mock.NewClusterClient()
	run := testRunContext(t)
	orch := testOrchestrator(client, run)

	client.ApplyErrs[CoreComponent] = fmt.Errorf("boom")

	err := orch.Apply(&Request{Components: []string{CoreComponent, PlatformComponent}})
	assert.Error(t, err)
	assert.Equal(t, Failed, orch.State())

	applies := client.CallsMatching("apply")
	assert.Equal(t, []string{"apply langsmith"}, applies)
}

func TestApplyUnknownComponent(t *testing.T) {
	client := mock.NewClusterClient()
	run := testRunContext(t)
	orch := testOrchestrator(client, run)

	err := orch.Apply(&Request{Components: []string{"mystery"}})
	assert.Error(t, err)
	assert.Equal(t, Failed, orch.State())

	assert.Equal(t, 0, len(client.CallsMatching("apply")))
}

func TestApplyMissingBaseConfig(t *testing.T) {
	client := mock.NewClusterClient()
	run := testRunContext(t)
	run.Conf.BaseConfig = filepath.Join(run.Conf.OutputDir, "missing.yaml")
	orch := testOrchestrator(client, run)

	err := orch.Apply(&Request{Components: []string{CoreComponent}})
	assert.Error(t, err)
	assert.Equal(t, Failed, orch.State())

	_, ok := errors.Cause(err).(overlay.MissingBaseConfigError)
	assert.True(t, ok)

	// nothing was applied to the cluster
	assert.Equal(t, 0, len(client.CallsMatching("apply")))
}

func TestRunContextSecretsMemoised(t *testing.T) {
	run := testRunContext(t)

	first, err := run.Secrets()
	assert.Nil(t, err)
	second, err := run.Secrets()
	assert.Nil(t, err)

	assert.Same(t, first, second)
}
