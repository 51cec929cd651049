package provider

import (
	"context"
	"os"
	"time"
)

// Provider is one analysis backend. Analyze sends the extracted text with the
// given instructions and returns the backend's textual analysis. An error
// covers any provider-side condition: auth, rate limit, network, or a
// malformed response.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, text, instructions string) (string, error)
}

// Kind selects the wire protocol a provider speaks.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAzure     Kind = "azure"
	KindAnthropic Kind = "anthropic"
	KindOllama    Kind = "ollama"
	KindGeneric   Kind = "generic"
)

// Config describes one configured provider. It is loaded from the provider
// manifest; the factory turns it into a concrete client exactly once at
// startup.
type Config struct {
	Name        string        `yaml:"name" validate:"required"`
	Kind        Kind          `yaml:"kind" validate:"required,oneof=openai azure anthropic ollama generic"`
	Model       string        `yaml:"model" validate:"required"`
	APIKey      string        `yaml:"api_key"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	BaseURL     string        `yaml:"base_url"`
	PromptFile  string        `yaml:"prompt_file"`
	Temperature *float64      `yaml:"temperature"`
	MaxTokens   *int          `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ResolveAPIKey prefers the literal key and falls back to the named
// environment variable, so manifests can avoid embedding secrets.
func (c Config) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.APIKeyEnv != "" {
		return os.Getenv(c.APIKeyEnv)
	}
	return ""
}
