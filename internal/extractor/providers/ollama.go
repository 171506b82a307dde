// File path: internal/extractor/providers/ollama.go
package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"github.com/nicodishanthj/flowforge/internal/common"
)

// OllamaProvider runs extraction prompts against a local Ollama server.
type OllamaProvider struct {
	llm   *ollama.LLM
	model string
}

// NewOllamaProvider connects to the Ollama server at baseURL using the
// given model. Both fall back to Ollama defaults when empty.
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	if model == "" {
		return nil, fmt.Errorf("providers: no ollama model configured")
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(strings.TrimRight(baseURL, "/")))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("providers: ollama init: %w", err)
	}
	common.Logger().Info("providers: Ollama provider configured", "model", model, "base_url", baseURL)
	return &OllamaProvider{llm: llm, model: model}, nil
}

func (o *OllamaProvider) Complete(ctx context.Context, system, user string) (string, error) {
	logger := common.Logger()
	logger.Debug("providers: sending ollama chat request", "model", o.model)

	resp, err := o.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, system),
			llms.TextParts(schema.ChatMessageTypeHuman, user),
		},
		llms.WithTemperature(0.1),
		llms.WithJSONMode(),
	)
	if err != nil {
		logger.Error("providers: ollama chat failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("providers: ollama returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func (o *OllamaProvider) Name() string {
	return "ollama"
}
