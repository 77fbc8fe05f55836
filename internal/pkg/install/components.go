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
	"time"

	"github.com/langstack/langstack/internal/pkg/dag"
)

// Component names double as helm release names
const (
	CoreComponent     = "langsmith"
	PlatformComponent = "langgraph-platform"
)

const (
	coreChart     = "langchain/langsmith"
	platformChart = "langchain/langgraph-platform"

	// helm's own converge-or-timeout bound on each apply
	applyWaitTimeout = 30 * time.Minute
)

// Components declare what they require; the orchestrator installs the
// closure in dependency order. The platform runtime can never be installed
// without the core service.
var componentDescriptors = []dag.Descriptor{
	{Name: CoreComponent},
	{Name: PlatformComponent, Requires: []string{CoreComponent}},
}

// Persistent volume claims left behind by the core service's stateful
// dependencies, removed by name during teardown
var teardownClaims = []string{
	"data-langsmith-postgres-0",
	"data-langsmith-redis-0",
	"data-langsmith-clickhouse-0",
}

// AllComponents returns the names of every known component
func AllComponents() []string {
	names := make([]string, 0, len(componentDescriptors))
	for _, descriptor := range componentDescriptors {
		names = append(names, descriptor.Name)
	}
	return names
}
