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
	"testing"

	"github.com/langstack/langstack/internal/pkg/environment"
	"github.com/langstack/langstack/internal/pkg/secrets"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func testEnv() *environment.Environment {
	return &environment.Environment{
		Namespace:  "test-host",
		AdminEmail: "admin@example.com",
		LicenseKey: "test-license",
	}
}

func testBundle() *secrets.Bundle {
	return &secrets.Bundle{
		APIKeySalt:    "salt-value",
		JWTSecret:     "jwt-value",
		AdminPassword: "password-value",
	}
}

func writeBaseConfig(t *testing.T, dir string, content string) string {
	basePath := filepath.Join(dir, "langsmith_base.yaml")
	err := os.WriteFile(basePath, []byte(content), 0644)
	assert.Nil(t, err)
	return basePath
}

func TestBuildCoreOverlay(t *testing.T) {
	dir := t.TempDir()
	basePath := writeBaseConfig(t, dir, `licenseKey: ""
images:
  tag: "0.7"
`)
	outPath := filepath.Join(dir, CoreOverlayFile)

	doc, err := BuildCoreOverlay(basePath, outPath, testEnv(), testBundle(), false)
	assert.Nil(t, err)

	// the file round-trips to the same document
	loaded, err := Load(outPath)
	assert.Nil(t, err)

	docBytes, err := doc.Bytes()
	assert.Nil(t, err)
	loadedBytes, err := loaded.Bytes()
	assert.Nil(t, err)
	assert.Equal(t, string(docBytes), string(loadedBytes))

	for key, expected := range map[string]string{
		"licenseKey":    "test-license",
		"apiKeySalt":    "salt-value",
		"adminEmail":    "admin@example.com",
		"adminPassword": "password-value",
		"jwtSecret":     "jwt-value",
	} {
		value, ok := loaded.Get(key)
		assert.True(t, ok, key)
		assert.Equal(t, expected, value, key)
	}

	// not requested, so not injected
	assert.False(t, loaded.Has("langgraphPlatformLicenseKey"))

	// base keys the builder doesn't manage survive untouched
	assert.True(t, loaded.Has("images"))
	assert.Equal(t, 1, countOccurrences(t, loaded, "licenseKey"))
}

func TestBuildCoreOverlayRendersTemplates(t *testing.T) {
	dir := t.TempDir()
	basePath := writeBaseConfig(t, dir, `hostname: "{{ .Namespace }}.example.com"
`)
	outPath := filepath.Join(dir, CoreOverlayFile)

	_, err := BuildCoreOverlay(basePath, outPath, testEnv(), testBundle(), false)
	assert.Nil(t, err)

	loaded, err := Load(outPath)
	assert.Nil(t, err)

	hostname, ok := loaded.Get("hostname")
	assert.True(t, ok)
	assert.Equal(t, "test-host.example.com", hostname)
}

func TestBuildCoreOverlayPlatformLicenseInsertedAfterCoreLicense(t *testing.T) {
	dir := t.TempDir()
	basePath := writeBaseConfig(t, dir, `first: one
licenseKey: ""
second: two
`)
	outPath := filepath.Join(dir, CoreOverlayFile)

	doc, err := BuildCoreOverlay(basePath, outPath, testEnv(), testBundle(), true)
	assert.Nil(t, err)

	data, err := doc.Bytes()
	assert.Nil(t, err)

	assert.Contains(t, string(data),
		"licenseKey: test-license\nlanggraphPlatformLicenseKey: test-license\n")
}

func TestBuildCoreOverlayPlatformLicenseUpsertedInPlace(t *testing.T) {
	dir := t.TempDir()
	basePath := writeBaseConfig(t, dir, `langgraphPlatformLicenseKey: "stale"
licenseKey: ""
`)
	outPath := filepath.Join(dir, CoreOverlayFile)

	doc, err := BuildCoreOverlay(basePath, outPath, testEnv(), testBundle(), true)
	assert.Nil(t, err)

	value, ok := doc.Get("langgraphPlatformLicenseKey")
	assert.True(t, ok)
	assert.Equal(t, "test-license", value)
	assert.Equal(t, 1, countOccurrences(t, doc, "langgraphPlatformLicenseKey"))
}

func TestBuildCoreOverlayIdempotent(t *testing.T) {
	dir := t.TempDir()
	basePath := writeBaseConfig(t, dir, `licenseKey: ""
`)
	outPath := filepath.Join(dir, CoreOverlayFile)

	first, err := BuildCoreOverlay(basePath, outPath, testEnv(), testBundle(), true)
	assert.Nil(t, err)
	second, err := BuildCoreOverlay(basePath, outPath, testEnv(), testBundle(), true)
	assert.Nil(t, err)

	firstBytes, err := first.Bytes()
	assert.Nil(t, err)
	secondBytes, err := second.Bytes()
	assert.Nil(t, err)

	assert.Equal(t, string(firstBytes), string(secondBytes))
}

func TestBuildCoreOverlayMissingBaseConfig(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, CoreOverlayFile)

	_, err := BuildCoreOverlay(filepath.Join(dir, "missing.yaml"), outPath,
		testEnv(), testBundle(), false)
	assert.Error(t, err)

	_, ok := errors.Cause(err).(MissingBaseConfigError)
	assert.True(t, ok)

	// nothing was written
	_, err = os.Stat(outPath)
	assert.True(t, os.IsNotExist(err))
}

func TestBuildPlatformOverlayRequiresCoreOverlay(t *testing.T) {
	dir := t.TempDir()
	corePath := filepath.Join(dir, CoreOverlayFile)
	outPath := filepath.Join(dir, PlatformOverlayFile)

	_, err := BuildPlatformOverlay(corePath, outPath, testEnv())
	assert.Error(t, err)

	_, ok := errors.Cause(err).(MissingDependencyOverlayError)
	assert.True(t, ok)

	// the failure must not leave a partial artifact behind
	_, err = os.Stat(outPath)
	assert.True(t, os.IsNotExist(err))
}

func buildBothOverlays(t *testing.T, baseContent string) *Document {
	dir := t.TempDir()
	basePath := writeBaseConfig(t, dir, baseContent)
	corePath := filepath.Join(dir, CoreOverlayFile)
	outPath := filepath.Join(dir, PlatformOverlayFile)

	_, err := BuildCoreOverlay(basePath, corePath, testEnv(), testBundle(), true)
	assert.Nil(t, err)

	doc, err := BuildPlatformOverlay(corePath, outPath, testEnv())
	assert.Nil(t, err)

	loaded, err := Load(outPath)
	assert.Nil(t, err)

	docBytes, err := doc.Bytes()
	assert.Nil(t, err)
	loadedBytes, err := loaded.Bytes()
	assert.Nil(t, err)
	assert.Equal(t, string(docBytes), string(loadedBytes))

	return loaded
}

func platformBlock(t *testing.T, doc *Document) yaml.MapSlice {
	section, ok := doc.Get("config")
	assert.True(t, ok)

	sectionSlice, ok := section.(yaml.MapSlice)
	assert.True(t, ok)

	for _, item := range sectionSlice {
		if key, ok := item.Key.(string); ok && key == "langgraphPlatform" {
			block, ok := item.Value.(yaml.MapSlice)
			assert.True(t, ok)
			return block
		}
	}

	t.Fatal("No langgraphPlatform block found under config")
	return nil
}

func blockValue(block yaml.MapSlice, key string) (interface{}, bool) {
	for _, item := range block {
		if k, ok := item.Key.(string); ok && k == key {
			return item.Value, true
		}
	}
	return nil, false
}

func TestBuildPlatformOverlayWithoutConfigSection(t *testing.T) {
	doc := buildBothOverlays(t, `licenseKey: ""
`)

	block := platformBlock(t, doc)

	enabled, ok := blockValue(block, "enabled")
	assert.True(t, ok)
	assert.Equal(t, true, enabled)

	license, ok := blockValue(block, "licenseKey")
	assert.True(t, ok)
	assert.Equal(t, "test-license", license)
}

func TestBuildPlatformOverlayWithEmptyConfigSection(t *testing.T) {
	doc := buildBothOverlays(t, `licenseKey: ""
config:
  otherSetting: kept
`)

	block := platformBlock(t, doc)

	enabled, ok := blockValue(block, "enabled")
	assert.True(t, ok)
	assert.Equal(t, true, enabled)

	// the sibling under config survives
	section, _ := doc.Get("config")
	sectionSlice := section.(yaml.MapSlice)
	other, ok := blockValue(sectionSlice, "otherSetting")
	assert.True(t, ok)
	assert.Equal(t, "kept", other)
}

func TestBuildPlatformOverlayWithExistingBlock(t *testing.T) {
	doc := buildBothOverlays(t, `licenseKey: ""
config:
  langgraphPlatform:
    enabled: false
    replicas: 3
`)

	block := platformBlock(t, doc)

	enabled, ok := blockValue(block, "enabled")
	assert.True(t, ok)
	assert.Equal(t, true, enabled)

	license, ok := blockValue(block, "licenseKey")
	assert.True(t, ok)
	assert.Equal(t, "test-license", license)

	// fields the builder doesn't manage are preserved
	replicas, ok := blockValue(block, "replicas")
	assert.True(t, ok)
	assert.Equal(t, 3, replicas)
}

func TestBuildPlatformOverlayInheritsCoreSecrets(t *testing.T) {
	doc := buildBothOverlays(t, `licenseKey: ""
`)

	jwtSecret, ok := doc.Get("jwtSecret")
	assert.True(t, ok)
	assert.Equal(t, "jwt-value", jwtSecret)

	salt, ok := doc.Get("apiKeySalt")
	assert.True(t, ok)
	assert.Equal(t, "salt-value", salt)
}
