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

package overlay

import (
	"os"
	"path/filepath"

	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Document is an ordered tree of key/value nodes parsed from YAML. All
// mutations preserve the order of sibling keys, which is why this is built
// on yaml.v2's MapSlice instead of plain maps.
type Document struct {
	root yaml.MapSlice
}

// Parse builds a document from YAML bytes
func Parse(data []byte) (*Document, error) {
	root := yaml.MapSlice{}
	err := yaml.Unmarshal(data, &root)
	if err != nil {
		return nil, errors.Wrapf(err, "Error parsing YAML document")
	}

	return &Document{root: root}, nil
}

// Load reads and parses a YAML document from a file
func Load(path string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "Error reading YAML document %s", absPath)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Error loading YAML document %s", absPath)
	}

	log.Logger.Tracef("Loaded YAML document: %#v", doc.root)

	return doc, nil
}

// Bytes serialises the document back to YAML
func (d *Document) Bytes() ([]byte, error) {
	data, err := yaml.Marshal(d.root)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return data, nil
}

// Write serialises the document to a file. Overlays carry secrets so they're
// only readable by the owner.
func (d *Document) Write(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return errors.WithStack(err)
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		return errors.Wrapf(err, "Error writing YAML document %s", path)
	}

	log.Logger.Debugf("Wrote YAML document to '%s'", path)

	return nil
}

// Has returns whether the key occurs anywhere in the document
func (d *Document) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Get returns the value of the first occurrence of the key in document
// order, searching nested mappings depth-first.
func (d *Document) Get(key string) (interface{}, bool) {
	return getValue(d.root, key)
}

func getValue(node interface{}, key string) (interface{}, bool) {
	switch t := node.(type) {
	case yaml.MapSlice:
		for _, item := range t {
			if k, ok := item.Key.(string); ok && k == key {
				return item.Value, true
			}
		}
		for _, item := range t {
			if value, ok := getValue(item.Value, key); ok {
				return value, ok
			}
		}
	case []interface{}:
		for _, element := range t {
			if value, ok := getValue(element, key); ok {
				return value, ok
			}
		}
	}

	return nil, false
}

// Set upserts a key wherever it occurs in the document. The first occurrence
// in document order keeps its position and takes the new value; any later
// occurrences of the same key are removed so the document never carries
// duplicates. If the key doesn't occur at all it's appended at the top level.
func (d *Document) Set(key string, value interface{}) {
	replaced := false
	d.root = setInMapSlice(d.root, key, value, &replaced)

	if !replaced {
		d.root = append(d.root, yaml.MapItem{Key: key, Value: value})
	}
}

func setInMapSlice(ms yaml.MapSlice, key string, value interface{}, replaced *bool) yaml.MapSlice {
	out := make(yaml.MapSlice, 0, len(ms))

	for _, item := range ms {
		if k, ok := item.Key.(string); ok && k == key {
			if *replaced {
				// drop duplicate occurrences
				log.Logger.Debugf("Removing duplicate occurrence of key '%s'", key)
				continue
			}
			item.Value = value
			*replaced = true
			out = append(out, item)
			continue
		}

		item.Value = setInValue(item.Value, key, value, replaced)
		out = append(out, item)
	}

	return out
}

func setInValue(node interface{}, key string, value interface{}, replaced *bool) interface{} {
	switch t := node.(type) {
	case yaml.MapSlice:
		return setInMapSlice(t, key, value, replaced)
	case []interface{}:
		for i, element := range t {
			t[i] = setInValue(element, key, value, replaced)
		}
		return t
	}

	return node
}

// InsertAfter inserts a new key as the immediate sibling of `afterKey`,
// preserving the order of all other siblings. If `afterKey` doesn't occur in
// the document the new key is appended at the top level instead. Callers are
// expected to check Has() first - inserting a key that already exists would
// create a duplicate.
func (d *Document) InsertAfter(afterKey string, key string, value interface{}) {
	inserted := false
	d.root = insertAfterInMapSlice(d.root, afterKey, key, value, &inserted)

	if !inserted {
		d.root = append(d.root, yaml.MapItem{Key: key, Value: value})
	}
}

func insertAfterInMapSlice(ms yaml.MapSlice, afterKey string, key string,
	value interface{}, inserted *bool) yaml.MapSlice {

	out := make(yaml.MapSlice, 0, len(ms)+1)

	for _, item := range ms {
		if k, ok := item.Key.(string); ok && k == afterKey && !*inserted {
			out = append(out, item)
			out = append(out, yaml.MapItem{Key: key, Value: value})
			*inserted = true
			continue
		}

		if !*inserted {
			item.Value = insertAfterInValue(item.Value, afterKey, key, value, inserted)
		}
		out = append(out, item)
	}

	return out
}

func insertAfterInValue(node interface{}, afterKey string, key string,
	value interface{}, inserted *bool) interface{} {

	switch t := node.(type) {
	case yaml.MapSlice:
		return insertAfterInMapSlice(t, afterKey, key, value, inserted)
	case []interface{}:
		for i, element := range t {
			t[i] = insertAfterInValue(element, afterKey, key, value, inserted)
		}
		return t
	}

	return node
}
