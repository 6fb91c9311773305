// Package ollama provides a content generator backed by a local Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const (
	defaultHost  = "http://localhost:11434"
	defaultModel = "llama3.1"
)

type Generator struct {
	client *api.Client
	model  string
}

func NewGenerator(host, model string, httpClient *http.Client) (*Generator, error) {
	if host = strings.TrimSpace(host); host == "" {
		host = defaultHost
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", host, err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Generator{
		client: api.NewClient(parsed, httpClient),
		model:  model,
	}, nil
}

func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]api.Message, 0, 2)
	if system = strings.TrimSpace(system); system != "" {
		messages = append(messages, api.Message{Role: "system", Content: system})
	}
	messages = append(messages, api.Message{Role: "user", Content: message})

	stream := false
	req := &api.ChatRequest{
		Model:    g.model,
		Messages: messages,
		Stream:   &stream,
	}

	var builder strings.Builder
	err := g.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		builder.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	return strings.TrimSpace(builder.String()), nil
}

func (g *Generator) Model() string {
	return g.model
}
