package assistant

import (
	"context"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-1.5-flash"
)

type GeminiConfig struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client // optional; no timeout is applied by default
}

// Gemini reaches Google's models through their OpenAI-compatible endpoint.
// The API key is per caller, so clients are built per key.
type Gemini struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Gemini{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: httpClient,
	}
}

func (g *Gemini) Model() string {
	return g.model
}

func (g *Gemini) client(apiKey string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = g.baseURL
	config.HTTPClient = g.httpClient
	return openai.NewClientWithConfig(config)
}

// ForKey returns a Generator authenticated with apiKey.
func (g *Gemini) ForKey(apiKey string) Generator {
	return &geminiGenerator{client: g.client(apiKey), model: g.model}
}

// ListModels returns the model ids visible to apiKey.
func (g *Gemini) ListModels(ctx context.Context, apiKey string) ([]string, error) {
	resp, err := g.client(apiKey).ListModels(ctx)
	if err != nil {
		return nil, &GenerationError{Op: "list models", Err: err}
	}
	ids := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

type geminiGenerator struct {
	client *openai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &GenerationError{Op: "generate", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Op: "generate", Err: ErrEmptyResponse}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &GenerationError{Op: "generate", Err: ErrEmptyResponse}
	}
	return text, nil
}
