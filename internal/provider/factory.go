package provider

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaBaseURL = "http://localhost:11434/v1"

// New builds the concrete client for a provider config. Selection happens
// here, once, at construction; nothing dispatches on the kind string per call.
func New(cfg Config, client *http.Client) (Provider, error) {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout > 0 {
		// Copy so a per-provider timeout does not leak into the shared client.
		clone := *client
		clone.Timeout = cfg.Timeout
		client = &clone
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	apiKey := cfg.ResolveAPIKey()

	switch cfg.Kind {
	case KindOpenAI:
		if baseURL == "" {
			baseURL = defaultOpenAIBaseURL
		}
		if apiKey == "" {
			return nil, fmt.Errorf("provider %s: api key is required for kind %q", cfg.Name, cfg.Kind)
		}
		return &openAIClient{
			name: cfg.Name, model: cfg.Model, baseURL: baseURL, apiKey: apiKey,
			temperature: cfg.Temperature, maxTokens: cfg.MaxTokens, http: client,
		}, nil

	case KindGeneric:
		if baseURL == "" {
			return nil, fmt.Errorf("provider %s: base_url is required for kind %q", cfg.Name, cfg.Kind)
		}
		// Some OpenAI-compatible endpoints reject an empty Authorization header.
		return &openAIClient{
			name: cfg.Name, model: cfg.Model, baseURL: baseURL, apiKey: apiKey,
			temperature: cfg.Temperature, maxTokens: cfg.MaxTokens, http: client,
		}, nil

	case KindOllama:
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		return &openAIClient{
			name: cfg.Name, model: cfg.Model, baseURL: baseURL, apiKey: apiKey,
			temperature: cfg.Temperature, maxTokens: cfg.MaxTokens, http: client,
		}, nil

	case KindAzure:
		if baseURL == "" {
			return nil, fmt.Errorf("provider %s: base_url is required for kind %q", cfg.Name, cfg.Kind)
		}
		if apiKey == "" {
			return nil, fmt.Errorf("provider %s: api key is required for kind %q", cfg.Name, cfg.Kind)
		}
		return &azureClient{
			name: cfg.Name, model: cfg.Model, baseURL: baseURL, apiKey: apiKey,
			temperature: cfg.Temperature, maxTokens: cfg.MaxTokens, http: client,
		}, nil

	case KindAnthropic:
		if baseURL == "" {
			baseURL = defaultAnthropicBaseURL
		}
		if apiKey == "" {
			return nil, fmt.Errorf("provider %s: api key is required for kind %q", cfg.Name, cfg.Kind)
		}
		return &anthropicClient{
			name: cfg.Name, model: cfg.Model, baseURL: baseURL, apiKey: apiKey,
			temperature: cfg.Temperature, maxTokens: cfg.MaxTokens, http: client,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported provider kind %q", cfg.Kind)
	}
}

// DefaultHTTPClient is the shared client handed to every provider that does
// not configure its own timeout.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 90 * time.Second}
}
