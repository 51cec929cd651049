package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClientAnalyze(t *testing.T) {
	var captured chatRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  the summary  "}}]}`))
	}))
	defer srv.Close()

	p, err := New(Config{
		Name: "gpt", Kind: KindOpenAI, Model: "gpt-4o",
		APIKey: "sk-test", BaseURL: srv.URL + "/v1",
	}, srv.Client())
	require.NoError(t, err)

	got, err := p.Analyze(context.Background(), "document text", "system instructions")
	require.NoError(t, err)
	assert.Equal(t, "the summary", got)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "system instructions", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "document text", captured.Messages[1].Content)
}

func TestOpenAIClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	p, err := New(Config{
		Name: "gpt", Kind: KindOpenAI, Model: "gpt-4o",
		APIKey: "sk-test", BaseURL: srv.URL,
	}, srv.Client())
	require.NoError(t, err)

	_, err = p.Analyze(context.Background(), "text", "instructions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestOpenAIClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p, err := New(Config{
		Name: "gpt", Kind: KindOpenAI, Model: "gpt-4o",
		APIKey: "sk-test", BaseURL: srv.URL,
	}, srv.Client())
	require.NoError(t, err)

	_, err = p.Analyze(context.Background(), "text", "instructions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOllamaClientSendsNoAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p, err := New(Config{Name: "local", Kind: KindOllama, Model: "llama3", BaseURL: srv.URL}, srv.Client())
	require.NoError(t, err)

	got, err := p.Analyze(context.Background(), "text", "instructions")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Empty(t, gotAuth)
}
