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

	"github.com/langstack/langstack/internal/pkg/cluster"
	"github.com/langstack/langstack/internal/pkg/log"
)

// PendingEndpoint is reported when no endpoint was assigned within the
// polling budget. Readiness is advisory so this never fails the run.
const PendingEndpoint = "pending"

const (
	defaultInitialDelay = 10 * time.Second
	defaultPollInterval = 10 * time.Second
	defaultMaxAttempts  = 30
)

// Poller waits for the cluster to assign an external endpoint to the core
// service. Every sleep is bounded by the attempt cap so the poll can never
// block indefinitely.
type Poller struct {
	client cluster.Client

	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
}

func NewPoller(client cluster.Client) *Poller {
	return &Poller{
		client:       client,
		InitialDelay: defaultInitialDelay,
		Interval:     defaultPollInterval,
		MaxAttempts:  defaultMaxAttempts,
	}
}

// Poll returns the first non-empty endpoint the cluster reports, or
// PendingEndpoint once the attempt budget is exhausted. Best effort: lookup
// errors are logged and count as attempts.
func (p *Poller) Poll(namespace string) string {
	log.Logger.Infof("Waiting for an external endpoint in namespace '%s'... "+
		"will try %d times at %s intervals", namespace, p.MaxAttempts, p.Interval)

	time.Sleep(p.InitialDelay)

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		endpoint, err := p.client.IngressEndpoint(namespace)
		if err != nil {
			log.Logger.Warnf("Error querying for an endpoint (attempt %d/%d): %v",
				attempt, p.MaxAttempts, err)
		} else if endpoint != "" {
			log.Logger.Infof("Resolved endpoint '%s' after %d attempt(s)",
				endpoint, attempt)
			return endpoint
		}

		if attempt < p.MaxAttempts {
			time.Sleep(p.Interval)
		}
	}

	log.Logger.Warnf("No endpoint was assigned within the polling budget. "+
		"The service may still be provisioning - check the namespace '%s' later",
		namespace)

	return PendingEndpoint
}
