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
	"bytes"
	"fmt"
	"os"

	"github.com/langstack/langstack/internal/pkg/environment"
	"github.com/langstack/langstack/internal/pkg/log"
	"github.com/langstack/langstack/internal/pkg/secrets"
	"github.com/langstack/langstack/internal/pkg/templater"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Overlay artifact file names, deterministic per component
const (
	CoreOverlayFile     = "langsmith_config.yaml"
	PlatformOverlayFile = "langgraph_config.yaml"
)

// Keys upserted into the core overlay
const (
	licenseKeyField         = "licenseKey"
	platformLicenseKeyField = "langgraphPlatformLicenseKey"
	apiKeySaltField         = "apiKeySalt"
	adminEmailField         = "adminEmail"
	adminPasswordField      = "adminPassword"
	jwtSecretField          = "jwtSecret"
)

// Keys making up the platform runtime's nested block
const (
	configSectionField = "config"
	platformBlockField = "langgraphPlatform"
	enabledField       = "enabled"
)

// Error returned when the base config template doesn't exist or is unreadable
type MissingBaseConfigError struct {
	Path string
}

func (e MissingBaseConfigError) Error() string {
	return fmt.Sprintf("Base config document '%s' doesn't exist or isn't readable", e.Path)
}

// Error returned when a platform overlay is requested before a core overlay
// has been materialised. Platform overlays are always derived from a core
// overlay so both carry identical secrets.
type MissingDependencyOverlayError struct {
	Path string
}

func (e MissingDependencyOverlayError) Error() string {
	return fmt.Sprintf("Core overlay '%s' doesn't exist - the platform overlay "+
		"can only be derived from it", e.Path)
}

// BuildCoreOverlay renders the base config template, layers the environment
// identity and secret material onto it and writes the result to outPath.
// Each field is upserted in place: a pre-existing key keeps its position and
// no key is ever duplicated. The platform licence key is only touched when
// includePlatformLicense is set; when absent it's inserted immediately after
// the core licence key to keep the two together.
func BuildCoreOverlay(basePath string, outPath string, env *environment.Environment,
	bundle *secrets.Bundle, includePlatformLicense bool) (*Document, error) {

	if _, err := os.Stat(basePath); err != nil {
		return nil, errors.WithStack(MissingBaseConfigError{Path: basePath})
	}

	templateVars := map[string]interface{}{
		"Namespace":  env.Namespace,
		"AdminEmail": env.AdminEmail,
	}

	rendered := bytes.NewBuffer(nil)
	err := templater.TemplateFile(basePath, rendered, templateVars)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	doc, err := Parse(rendered.Bytes())
	if err != nil {
		return nil, errors.WithStack(MissingBaseConfigError{Path: basePath})
	}

	doc.Set(licenseKeyField, env.LicenseKey)

	if includePlatformLicense {
		if doc.Has(platformLicenseKeyField) {
			doc.Set(platformLicenseKeyField, env.LicenseKey)
		} else {
			doc.InsertAfter(licenseKeyField, platformLicenseKeyField, env.LicenseKey)
		}
	}

	doc.Set(apiKeySaltField, bundle.APIKeySalt)
	doc.Set(adminEmailField, env.AdminEmail)
	doc.Set(adminPasswordField, bundle.AdminPassword)
	doc.Set(jwtSecretField, bundle.JWTSecret)

	err = doc.Write(outPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	log.Logger.Infof("Built core overlay at '%s'", outPath)

	return doc, nil
}

// BuildPlatformOverlay derives the platform runtime overlay from an already
// materialised core overlay, so the platform inherits the same secrets, and
// writes it to outPath. Fails without writing anything if no core overlay
// exists.
func BuildPlatformOverlay(coreOverlayPath string, outPath string,
	env *environment.Environment) (*Document, error) {

	if _, err := os.Stat(coreOverlayPath); err != nil {
		return nil, errors.WithStack(MissingDependencyOverlayError{Path: coreOverlayPath})
	}

	doc, err := Load(coreOverlayPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	patchPlatformBlock(doc, env.LicenseKey)

	err = doc.Write(outPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	log.Logger.Infof("Built platform overlay at '%s'", outPath)

	return doc, nil
}

// Upserts the nested config.langgraphPlatform block. Three shapes are
// handled: no config section at all, a config section without the block, and
// a pre-existing block. In the last case only the enabled flag and the
// licence key leaf are overwritten - any other fields under the block are
// preserved untouched.
func patchPlatformBlock(doc *Document, licenseKey string) {
	newBlock := yaml.MapSlice{
		{Key: enabledField, Value: true},
		{Key: licenseKeyField, Value: licenseKey},
	}

	for i, item := range doc.root {
		k, ok := item.Key.(string)
		if !ok || k != configSectionField {
			continue
		}

		section, ok := item.Value.(yaml.MapSlice)
		if !ok {
			// an empty `config:` key parses as nil
			section = yaml.MapSlice{}
		}

		for j, child := range section {
			ck, ok := child.Key.(string)
			if !ok || ck != platformBlockField {
				continue
			}

			block, ok := child.Value.(yaml.MapSlice)
			if !ok {
				block = yaml.MapSlice{}
			}

			upsertLeaf(&block, enabledField, true)
			upsertLeaf(&block, licenseKeyField, licenseKey)

			section[j].Value = block
			doc.root[i].Value = section
			return
		}

		// the section exists but the block doesn't: insert it as the
		// section's first child
		section = append(yaml.MapSlice{{Key: platformBlockField, Value: newBlock}},
			section...)
		doc.root[i].Value = section
		return
	}

	// no config section at all
	doc.root = append(doc.root, yaml.MapItem{
		Key:   configSectionField,
		Value: yaml.MapSlice{{Key: platformBlockField, Value: newBlock}},
	})
}

// Replaces a direct child of the given mapping, or appends it if absent.
// Unlike Document.Set this doesn't recurse.
func upsertLeaf(ms *yaml.MapSlice, key string, value interface{}) {
	for i, item := range *ms {
		if k, ok := item.Key.(string); ok && k == key {
			(*ms)[i].Value = value
			return
		}
	}

	*ms = append(*ms, yaml.MapItem{Key: key, Value: value})
}
