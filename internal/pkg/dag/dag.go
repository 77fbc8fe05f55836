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

package dag

import (
	"fmt"

	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Descriptor declares a component and the components it requires to be
// installed first
type Descriptor struct {
	Name     string
	Requires []string
}

// A node in a graph that also has a string name
type namedNode struct {
	name string
	node graph.Node
}

func (n namedNode) ID() int64 {
	return n.node.ID()
}

// SortedClosure returns the requested components plus everything they
// require, transitively, in dependency order (requirements before
// dependents). An error is returned for unknown names or cyclical
// dependencies.
func SortedClosure(descriptors []Descriptor, requested []string) ([]string, error) {
	byName := make(map[string]Descriptor, len(descriptors))
	for _, descriptor := range descriptors {
		byName[descriptor.Name] = descriptor
	}

	graphObj, err := build(descriptors)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// expand the requested set to include all (transitive) requirements
	closure := make(map[string]bool)
	var expand func(name string) error
	expand = func(name string) error {
		descriptor, ok := byName[name]
		if !ok {
			return fmt.Errorf("Unknown component '%s'", name)
		}

		if closure[name] {
			return nil
		}
		closure[name] = true

		for _, requirement := range descriptor.Requires {
			err := expand(requirement)
			if err != nil {
				return err
			}
		}

		return nil
	}

	for _, name := range requested {
		err := expand(name)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	sorted, err := topo.Sort(graphObj)
	if err != nil {
		return nil, errors.Wrap(err, "Cyclical dependencies detected")
	}

	ordered := make([]string, 0, len(closure))
	for _, node := range sorted {
		named := node.(namedNode)
		if closure[named.name] {
			ordered = append(ordered, named.name)
		}
	}

	log.Logger.Debugf("Resolved install order %v for requested components %v",
		ordered, requested)

	return ordered, nil
}

// Builds a directed graph with an edge from each requirement to the
// component that requires it
func build(descriptors []Descriptor) (*simple.DirectedGraph, error) {
	graphObj := simple.NewDirectedGraph()
	nodesByName := make(map[string]namedNode, len(descriptors))

	for _, descriptor := range descriptors {
		addNode(graphObj, nodesByName, descriptor.Name)
	}

	for _, descriptor := range descriptors {
		descriptorNode := nodesByName[descriptor.Name]

		for _, requirement := range descriptor.Requires {
			requirementNode, ok := nodesByName[requirement]
			if !ok {
				return nil, fmt.Errorf("Component '%s' requires a component "+
					"that doesn't exist: %s", descriptor.Name, requirement)
			}

			if requirementNode.node == descriptorNode.node {
				return nil, fmt.Errorf("Component '%s' is not allowed to "+
					"require itself", descriptor.Name)
			}

			log.Logger.Tracef("Creating edge from '%s' to '%s'", requirement,
				descriptor.Name)

			edge := graphObj.NewEdge(requirementNode, descriptorNode)
			graphObj.SetEdge(edge)
		}
	}

	return graphObj, nil
}

// Adds a node to the graph if it isn't already in it
func addNode(graphObj *simple.DirectedGraph, nodes map[string]namedNode,
	nodeName string) namedNode {

	existing, ok := nodes[nodeName]
	if ok {
		return existing
	}

	node := namedNode{
		name: nodeName,
		node: graphObj.NewNode(),
	}
	graphObj.AddNode(node)
	nodes[nodeName] = node
	return node
}
