package aisummary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Errors(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OLLAMA_API_BASE", "")

	_, err := New(Options{Provider: "openai_compatible"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(Options{Provider: "anthropic"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(Options{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	b, err := New(Options{Provider: " Ollama "})
	require.NoError(t, err)
	assert.Equal(t, DefaultOllamaBase, b.(*OllamaBackend).BaseURL)
}

func TestNew_EnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OPENAI_API_BASE", "https://llm.example.org/v1/")

	b, err := New(Options{Provider: "openai_compatible", Model: "m"})
	require.NoError(t, err)
	ob := b.(*OpenAIBackend)
	assert.Equal(t, "env-key", ob.APIKey)
	assert.Equal(t, "https://llm.example.org/v1", ob.BaseURL)

	b, err = New(Options{Provider: "openai_compatible", APIKey: "flag-key", APIBase: "http://x"})
	require.NoError(t, err)
	assert.Equal(t, "flag-key", b.(*OpenAIBackend).APIKey)
	assert.Equal(t, "http://x", b.(*OpenAIBackend).BaseURL)
}

func TestOpenAIBackend(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		assert.Equal(t, "json_object", req.ResponseFormat["type"])
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"a\":1}"}}]}`))
	}))
	defer ts.Close()

	b := &OpenAIBackend{BaseURL: ts.URL, APIKey: "k", Model: "gpt-test", Client: ts.Client()}
	out, err := b.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
}

func TestAnthropicBackend(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sys", req.System)
		assert.Equal(t, 1000, req.MaxTokens)

		w.Write([]byte(`{"content":[{"type":"text","text":"part one"},{"type":"tool_use"},{"type":"text","text":"part two"}]}`))
	}))
	defer ts.Close()

	b := &AnthropicBackend{BaseURL: ts.URL, APIKey: "k", Model: "claude", Client: ts.Client()}
	out, err := b.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "part one\npart two", out)
}

func TestOllamaBackend(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "json", req.Format)
		assert.Equal(t, "sys\n\nuser", req.Prompt)

		w.Write([]byte(`{"response":"{}"}`))
	}))
	defer ts.Close()

	b := &OllamaBackend{BaseURL: ts.URL, Model: "llama3", Client: ts.Client()}
	out, err := b.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
}

func TestBackend_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer ts.Close()

	b := &OpenAIBackend{BaseURL: ts.URL, APIKey: "k", Client: ts.Client()}
	_, err := b.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestBackend_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	b := &OllamaBackend{BaseURL: ts.URL, Client: ts.Client()}
	_, err := b.Complete(ctx, "s", "u")
	assert.Error(t, err)
}
