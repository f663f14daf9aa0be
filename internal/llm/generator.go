// Package llm talks to the text generation API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fortuna/config"

	openai "github.com/sashabaranov/go-openai"
)

// Generator turns a prompt into text. Single shot, no streaming.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyResponse is returned when the API answers without any text.
var ErrEmptyResponse = errors.New("empty completion")

// OpenAIGenerator calls any OpenAI-compatible chat completions endpoint,
// including Gemini's compatibility layer.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(cfg config.GenerationConfig) *OpenAIGenerator {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.RequestTimeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &OpenAIGenerator{client: openai.NewClientWithConfig(oc), model: cfg.Model}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", g.model, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
