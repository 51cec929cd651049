package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// chatRequest is the OpenAI-style chat completions request body, shared by
// the OpenAI, Azure, Ollama and generic clients.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// openAIClient speaks the OpenAI chat completions protocol. It also serves
// the ollama and generic kinds, which expose the same endpoint shape.
type openAIClient struct {
	name        string
	model       string
	baseURL     string
	apiKey      string
	temperature *float64
	maxTokens   *int
	http        *http.Client
}

func (c *openAIClient) Name() string { return c.name }

func (c *openAIClient) Analyze(ctx context.Context, text, instructions string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: instructions},
			{Role: "user", Content: text},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	var headers http.Header
	if c.apiKey != "" {
		headers = http.Header{"Authorization": {"Bearer " + c.apiKey}}
	}

	return postChat(ctx, c.http, c.name, c.baseURL+"/chat/completions", headers, body)
}

// postChat issues the request and extracts the first choice's content.
func postChat(ctx context.Context, client *http.Client, name, url string, headers http.Header, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("provider %s: encode request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("provider %s: build request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider %s: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("provider %s: read response: %w", name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("provider %s: status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("provider %s: decode response: %w", name, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("provider %s: %s", name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("provider %s: response contains no choices", name)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
