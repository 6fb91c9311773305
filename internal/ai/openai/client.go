// Package openai provides the OpenAI content generator built on the official
// Go SDK's responses API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const defaultModel = "gpt-4o-mini"

type Generator struct {
	client openai.Client
	model  string
}

// NewGenerator creates a generator. baseURL is optional and points the SDK at
// an OpenAI-compatible endpoint.
func NewGenerator(apiKey, model, baseURL string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Generator{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("prompt must not be empty")
	}

	params := responses.ResponseNewParams{
		Model: g.model,
		Input: responses.ResponseNewParamsInputUnion{OfString: openai.String(message)},
	}
	if system = strings.TrimSpace(system); system != "" {
		params.Instructions = openai.String(system)
	}

	resp, err := g.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai responses: %w", err)
	}

	return strings.TrimSpace(resp.OutputText()), nil
}

func (g *Generator) Model() string {
	return g.model
}
