package aisummary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/inodb/amr-fusion/internal/httputil"
)

// Provider names.
const (
	ProviderOpenAI    = "openai_compatible"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Default endpoints, overridable per provider through the environment.
const (
	DefaultOpenAIBase    = "https://api.openai.com/v1"
	DefaultAnthropicBase = "https://api.anthropic.com"
	DefaultOllamaBase    = "http://localhost:11434"
)

const (
	temperature        = 0.1
	anthropicMaxTokens = 1000
	anthropicVersion   = "2023-06-01"
	maxRateRetries     = 3
)

var (
	// ErrMissingAPIKey is returned when a keyed provider has no API key.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrUnsupportedProvider is returned for an unknown provider name.
	ErrUnsupportedProvider = errors.New("unsupported provider, use one of: openai_compatible, anthropic, ollama")
)

// Backend sends one system+user prompt pair to a model and returns the
// answer text.
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Options selects and configures a backend. Empty APIBase and APIKey fall
// back to the provider's environment variables.
type Options struct {
	Provider string
	Model    string
	APIBase  string
	APIKey   string
	Timeout  time.Duration
}

// New creates the backend for opts.Provider.
func New(opts Options) (Backend, error) {
	client := &http.Client{Timeout: opts.Timeout}

	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case ProviderOpenAI:
		key := firstNonEmpty(opts.APIKey, os.Getenv("OPENAI_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("%w: set OPENAI_API_KEY or pass --ai-api-key", ErrMissingAPIKey)
		}
		return &OpenAIBackend{
			BaseURL: baseURL(opts.APIBase, "OPENAI_API_BASE", DefaultOpenAIBase),
			APIKey:  key,
			Model:   opts.Model,
			Client:  client,
		}, nil
	case ProviderAnthropic:
		key := firstNonEmpty(opts.APIKey, os.Getenv("ANTHROPIC_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or pass --ai-api-key", ErrMissingAPIKey)
		}
		return &AnthropicBackend{
			BaseURL: baseURL(opts.APIBase, "ANTHROPIC_API_BASE", DefaultAnthropicBase),
			APIKey:  key,
			Model:   opts.Model,
			Client:  client,
		}, nil
	case ProviderOllama:
		return &OllamaBackend{
			BaseURL: baseURL(opts.APIBase, "OLLAMA_API_BASE", DefaultOllamaBase),
			Model:   opts.Model,
			Client:  client,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, opts.Provider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func baseURL(explicit, envVar, fallback string) string {
	return strings.TrimRight(firstNonEmpty(explicit, os.Getenv(envVar), fallback), "/")
}

// OpenAIBackend talks to any endpoint exposing /chat/completions.
type OpenAIBackend struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

type openAIResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements Backend.
func (b *OpenAIBackend) Complete(ctx context.Context, system, user string) (string, error) {
	body := openAIRequest{
		Model:       b.Model,
		Temperature: temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	headers := map[string]string{"Authorization": "Bearer " + b.APIKey}

	var resp openAIResponse
	if err := postJSON(ctx, b.Client, b.BaseURL+"/chat/completions", headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// AnthropicBackend talks to the Anthropic Messages API.
type AnthropicBackend struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete implements Backend. Text blocks are joined with newlines.
func (b *AnthropicBackend) Complete(ctx context.Context, system, user string) (string, error) {
	body := anthropicRequest{
		Model:       b.Model,
		MaxTokens:   anthropicMaxTokens,
		Temperature: temperature,
		System:      system,
		Messages:    []chatMessage{{Role: "user", Content: user}},
	}
	headers := map[string]string{
		"x-api-key":         b.APIKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := postJSON(ctx, b.Client, b.BaseURL+"/v1/messages", headers, body, &resp); err != nil {
		return "", err
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

// OllamaBackend talks to a local Ollama server. No key is needed.
type OllamaBackend struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

type ollamaRequest struct {
	Model   string             `json:"model"`
	Prompt  string             `json:"prompt"`
	Stream  bool               `json:"stream"`
	Format  string             `json:"format"`
	Options map[string]float64 `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Complete implements Backend. The system prompt is prepended to the user
// prompt.
func (b *OllamaBackend) Complete(ctx context.Context, system, user string) (string, error) {
	body := ollamaRequest{
		Model:   b.Model,
		Prompt:  system + "\n\n" + user,
		Format:  "json",
		Options: map[string]float64{"temperature": temperature},
	}

	var resp ollamaResponse
	if err := postJSON(ctx, b.Client, b.BaseURL+"/api/generate", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// postJSON posts body as JSON to url and decodes a 2xx answer into out.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, maxRateRetries)
	if err != nil {
		return fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}
