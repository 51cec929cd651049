package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvbarbosa/docpipe/internal/provider"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProvidersSingle(t *testing.T) {
	path := writeManifest(t, `
providers:
  - name: gpt
    kind: openai
    model: gpt-4o
    api_key_env: OPENAI_API_KEY
`)

	cfgs, err := LoadProviders(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	assert.Equal(t, "gpt", cfgs[0].Name)
	assert.Equal(t, provider.KindOpenAI, cfgs[0].Kind)
	assert.Equal(t, "OPENAI_API_KEY", cfgs[0].APIKeyEnv)
}

func TestLoadProvidersDual(t *testing.T) {
	path := writeManifest(t, `
providers:
  - name: gpt
    kind: openai
    model: gpt-4o
    api_key: sk-test
    prompt_file: prompts/summary.txt
  - name: local
    kind: ollama
    model: llama3
    temperature: 0.2
`)

	cfgs, err := LoadProviders(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 2)
	assert.Equal(t, "prompts/summary.txt", cfgs[0].PromptFile)
	require.NotNil(t, cfgs[1].Temperature)
	assert.Equal(t, 0.2, *cfgs[1].Temperature)
}

func TestLoadProvidersRejectsMoreThanTwo(t *testing.T) {
	path := writeManifest(t, `
providers:
  - {name: a, kind: ollama, model: m}
  - {name: b, kind: ollama, model: m}
  - {name: c, kind: ollama, model: m}
`)

	_, err := LoadProviders(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid providers manifest")
}

func TestLoadProvidersRejectsEmpty(t *testing.T) {
	path := writeManifest(t, `providers: []`)

	_, err := LoadProviders(path)
	require.Error(t, err)
}

func TestLoadProvidersRejectsUnknownKind(t *testing.T) {
	path := writeManifest(t, `
providers:
  - name: x
    kind: carrier-pigeon
    model: m
`)

	_, err := LoadProviders(path)
	require.Error(t, err)
}

func TestLoadProvidersRejectsMissingModel(t *testing.T) {
	path := writeManifest(t, `
providers:
  - name: x
    kind: openai
`)

	_, err := LoadProviders(path)
	require.Error(t, err)
}

func TestLoadProvidersRejectsDuplicateNames(t *testing.T) {
	path := writeManifest(t, `
providers:
  - {name: same, kind: ollama, model: m}
  - {name: same, kind: ollama, model: m}
`)

	_, err := LoadProviders(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate provider name")
}

func TestLoadProvidersMissingFile(t *testing.T) {
	_, err := LoadProviders(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
