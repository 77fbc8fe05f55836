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

package mock

import (
	"fmt"

	"github.com/langstack/langstack/internal/pkg/cluster"
)

// ClusterClient is an in-memory implementation of cluster.Client that
// records every call so tests can assert on ordering.
type ClusterClient struct {
	Namespaces map[string]bool
	Releases   map[string][]cluster.Release
	Claims     map[string][]string

	// Endpoints are returned by successive IngressEndpoint calls; once
	// drained, subsequent calls return an empty endpoint
	Endpoints []string

	// ApplyErrs makes ApplyRelease fail for the named releases
	ApplyErrs map[string]error

	// Calls records each operation in invocation order, e.g. "apply langsmith"
	Calls []string

	// Applies records the options of each ApplyRelease call
	Applies []cluster.ApplyOptions

	endpointCalls int
}

func NewClusterClient() *ClusterClient {
	return &ClusterClient{
		Namespaces: map[string]bool{},
		Releases:   map[string][]cluster.Release{},
		Claims:     map[string][]string{},
		ApplyErrs:  map[string]error{},
	}
}

func (c *ClusterClient) record(format string, args ...interface{}) {
	c.Calls = append(c.Calls, fmt.Sprintf(format, args...))
}

// CallsMatching returns the recorded calls whose verb matches
func (c *ClusterClient) CallsMatching(verb string) []string {
	matches := make([]string, 0)
	for _, call := range c.Calls {
		if len(call) >= len(verb) && call[:len(verb)] == verb {
			matches = append(matches, call)
		}
	}
	return matches
}

func (c *ClusterClient) EnsureNamespace(namespace string) error {
	c.record("ensure-namespace %s", namespace)
	c.Namespaces[namespace] = true
	return nil
}

func (c *ClusterClient) NamespaceExists(namespace string) (bool, error) {
	c.record("namespace-exists %s", namespace)
	return c.Namespaces[namespace], nil
}

func (c *ClusterClient) DeleteNamespace(namespace string) error {
	c.record("delete-namespace %s", namespace)
	delete(c.Namespaces, namespace)
	return nil
}

func (c *ClusterClient) ListReleases(namespace string) ([]cluster.Release, error) {
	c.record("list-releases %s", namespace)
	return c.Releases[namespace], nil
}

func (c *ClusterClient) ApplyRelease(opts cluster.ApplyOptions) error {
	c.record("apply %s", opts.Name)
	c.Applies = append(c.Applies, opts)

	if err, ok := c.ApplyErrs[opts.Name]; ok {
		return err
	}

	c.Releases[opts.Namespace] = append(c.Releases[opts.Namespace], cluster.Release{
		Name:      opts.Name,
		Namespace: opts.Namespace,
		Chart:     opts.Chart,
		Status:    "deployed",
	})

	return nil
}

func (c *ClusterClient) UninstallRelease(name string, namespace string) error {
	c.record("uninstall %s", name)

	releases := c.Releases[namespace]
	for i, release := range releases {
		if release.Name == name {
			c.Releases[namespace] = append(releases[:i], releases[i+1:]...)
			return nil
		}
	}

	return cluster.ReleaseNotFoundError{Name: name}
}

func (c *ClusterClient) ListPersistentClaims(namespace string) ([]string, error) {
	c.record("list-claims %s", namespace)
	return c.Claims[namespace], nil
}

func (c *ClusterClient) DeletePersistentClaims(names []string, namespace string) error {
	c.record("delete-claims %s", namespace)

	remaining := make([]string, 0)
	for _, claim := range c.Claims[namespace] {
		keep := true
		for _, name := range names {
			if claim == name {
				keep = false
			}
		}
		if keep {
			remaining = append(remaining, claim)
		}
	}
	c.Claims[namespace] = remaining

	return nil
}

func (c *ClusterClient) IngressEndpoint(namespace string) (string, error) {
	c.record("endpoint %s", namespace)

	if c.endpointCalls < len(c.Endpoints) {
		endpoint := c.Endpoints[c.endpointCalls]
		c.endpointCalls++
		return endpoint, nil
	}

	return "", nil
}
