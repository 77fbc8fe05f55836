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
	"testing"
	"time"

	"github.com/langstack/langstack/internal/pkg/mock"
	"github.com/stretchr/testify/assert"
)

func testPoller(client *mock.ClusterClient, maxAttempts int) *Poller {
	poller := NewPoller(client)
	poller.InitialDelay = 0
	poller.Interval = time.Millisecond
	poller.MaxAttempts = maxAttempts
	return poller
}

func TestPollImmediateEndpoint(t *testing.T) {
	client := mock.NewClusterClient()
	client.Endpoints = []string{"elb.example.com"}

	endpoint := testPoller(client, 5).Poll(testNamespace)

	assert.Equal(t, "elb.example.com", endpoint)
	assert.Equal(t, 1, len(client.CallsMatching("endpoint")))
}

func TestPollEventualEndpoint(t *testing.T) {
	client := mock.NewClusterClient()
	client.Endpoints = []string{"", "", "elb.example.com"}

	endpoint := testPoller(client, 5).Poll(testNamespace)

	// stops as soon as the endpoint appears, not after the full budget
	assert.Equal(t, "elb.example.com", endpoint)
	assert.Equal(t, 3, len(client.CallsMatching("endpoint")))
}

func TestPollExhaustsBudget(t *testing.T) {
	client := mock.NewClusterClient()

	endpoint := testPoller(client, 3).Poll(testNamespace)

	assert.Equal(t, PendingEndpoint, endpoint)
	assert.Equal(t, 3, len(client.CallsMatching("endpoint")))
}

func TestPollDefaults(t *testing.T) {
	poller := NewPoller(mock.NewClusterClient())

	assert.Equal(t, 10*time.Second, poller.InitialDelay)
	assert.Equal(t, 10*time.Second, poller.Interval)
	assert.Equal(t, 30, poller.MaxAttempts)
}
