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
	"context"

	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// EnsureNamespace creates the namespace if it doesn't exist yet. Safe to
// call repeatedly.
func (c *client) EnsureNamespace(namespace string) error {
	ctx := context.Background()

	_, err := c.kube.CoreV1().Namespaces().Get(ctx, namespace, metav1.GetOptions{})
	if err == nil {
		log.Logger.Debugf("Namespace '%s' already exists", namespace)
		return nil
	}

	if !apierrors.IsNotFound(err) {
		return errors.Wrapf(err, "Error getting namespace '%s'", namespace)
	}

	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: namespace,
		},
	}

	_, err = c.kube.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil {
		// another invocation may have created it in the meantime
		if apierrors.IsAlreadyExists(err) {
			return nil
		}
		return errors.Wrapf(err, "Error creating namespace '%s'", namespace)
	}

	log.Logger.Infof("Created namespace '%s'", namespace)

	return nil
}

// NamespaceExists returns whether the namespace exists
func (c *client) NamespaceExists(namespace string) (bool, error) {
	_, err := c.kube.CoreV1().Namespaces().Get(context.Background(), namespace,
		metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "Error getting namespace '%s'", namespace)
	}

	return true, nil
}

// DeleteNamespace removes the namespace. A missing namespace is not an error.
func (c *client) DeleteNamespace(namespace string) error {
	err := c.kube.CoreV1().Namespaces().Delete(context.Background(), namespace,
		metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			log.Logger.Debugf("Namespace '%s' already gone", namespace)
			return nil
		}
		return errors.Wrapf(err, "Error deleting namespace '%s'", namespace)
	}

	log.Logger.Infof("Deleted namespace '%s'", namespace)

	return nil
}

// ListPersistentClaims returns the names of all PVCs in the namespace
func (c *client) ListPersistentClaims(namespace string) ([]string, error) {
	claims, err := c.kube.CoreV1().PersistentVolumeClaims(namespace).List(
		context.Background(), metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "Error listing persistent volume claims "+
			"in namespace '%s'", namespace)
	}

	names := make([]string, 0, len(claims.Items))
	for _, claim := range claims.Items {
		names = append(names, claim.Name)
	}

	return names, nil
}

// DeletePersistentClaims deletes the named PVCs. Missing claims are logged
// and skipped so teardown can proceed past state that was never created.
func (c *client) DeletePersistentClaims(names []string, namespace string) error {
	ctx := context.Background()

	for _, name := range names {
		err := c.kube.CoreV1().PersistentVolumeClaims(namespace).Delete(ctx, name,
			metav1.DeleteOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				log.Logger.Warnf("Persistent volume claim '%s' not found in "+
					"namespace '%s'... skipping", name, namespace)
				continue
			}
			return errors.Wrapf(err, "Error deleting persistent volume claim "+
				"'%s' in namespace '%s'", name, namespace)
		}

		log.Logger.Infof("Deleted persistent volume claim '%s'", name)
	}

	return nil
}

// IngressEndpoint returns the externally assigned endpoint of the first
// load-balanced service in the namespace: the hostname if one has been
// assigned, otherwise the IP. Returns an empty string while the cloud
// provider hasn't assigned anything yet.
func (c *client) IngressEndpoint(namespace string) (string, error) {
	services, err := c.kube.CoreV1().Services(namespace).List(context.Background(),
		metav1.ListOptions{})
	if err != nil {
		return "", errors.Wrapf(err, "Error listing services in namespace '%s'",
			namespace)
	}

	for _, service := range services.Items {
		for _, ingress := range service.Status.LoadBalancer.Ingress {
			if ingress.Hostname != "" {
				return ingress.Hostname, nil
			}
			if ingress.IP != "" {
				return ingress.IP, nil
			}
		}
	}

	return "", nil
}
