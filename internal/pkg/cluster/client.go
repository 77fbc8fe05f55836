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

package cluster

import (
	"time"

	"github.com/langstack/langstack/internal/pkg/config"
	"github.com/pkg/errors"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// Release is a named, versioned deployment unit managed by the package
// manager within a namespace, as reported by `helm list`.
type Release struct {
	Name       string
	Namespace  string
	Revision   string
	Updated    string
	Status     string
	Chart      string
	AppVersion string `yaml:"app_version"`
}

// ApplyOptions describes a single release apply
type ApplyOptions struct {
	Name        string
	Chart       string
	Namespace   string
	ValuesFile  string
	Version     string
	WaitTimeout time.Duration
	Debug       bool
}

// Client is the capability surface the orchestrator needs from a cluster.
// Implementations decide the transport; the orchestrator only depends on
// these operations.
type Client interface {
	EnsureNamespace(namespace string) error
	NamespaceExists(namespace string) (bool, error)
	DeleteNamespace(namespace string) error

	ListReleases(namespace string) ([]Release, error)
	ApplyRelease(opts ApplyOptions) error
	UninstallRelease(name string, namespace string) error

	ListPersistentClaims(namespace string) ([]string, error)
	DeletePersistentClaims(names []string, namespace string) error

	IngressEndpoint(namespace string) (string, error)
}

// client talks to the cluster through the Kubernetes API for namespace, PVC
// and service operations and shells out to helm for release operations.
type client struct {
	kube kubernetes.Interface
	helm *helmRunner
}

// New builds a cluster client from the loaded configuration. The kubeconfig
// is resolved with the standard loading rules (KUBECONFIG, ~/.kube/config).
func New(conf *config.Conf) (Client, error) {
	helm, err := newHelmRunner(conf.HelmCommand)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules, &clientcmd.ConfigOverrides{})

	restConfig, err := kubeConfig.ClientConfig()
	if err != nil {
		return nil, errors.Wrap(err, "Error loading kubeconfig")
	}

	kube, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, errors.Wrap(err, "Error creating Kubernetes client")
	}

	return &client{
		kube: kube,
		helm: helm,
	}, nil
}
