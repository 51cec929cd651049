package provider

import (
	"context"
	"fmt"
	"net/http"
)

const azureAPIVersion = "2024-02-01"

// azureClient speaks the Azure OpenAI dialect: deployment-scoped URL and an
// api-key header instead of a bearer token.
type azureClient struct {
	name        string
	model       string
	baseURL     string
	apiKey      string
	temperature *float64
	maxTokens   *int
	http        *http.Client
}

func (c *azureClient) Name() string { return c.name }

func (c *azureClient) Analyze(ctx context.Context, text, instructions string) (string, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.baseURL, c.model, azureAPIVersion)

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: instructions},
			{Role: "user", Content: text},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	headers := http.Header{"Api-Key": {c.apiKey}}
	return postChat(ctx, c.http, c.name, url, headers, body)
}
