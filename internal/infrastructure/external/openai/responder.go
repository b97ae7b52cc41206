// Package openai answers chat questions with an OpenAI chat completion model.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/reply"
)

// Config holds OpenAI client settings
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Responder implements reply.Responder with CreateChatCompletion
type Responder struct {
	client  *openai.Client
	model   string
	prompts *PromptConfig
	system  string
	logger  *zap.Logger
}

// NewResponder creates a responder. The system prompt is rendered once from the canned summaries.
func NewResponder(cfg Config, prompts *PromptConfig, logger *zap.Logger) (*Responder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	system, err := prompts.RenderSystem(Facts{
		Anomalies:  reply.AnomalySummary,
		GST:        reply.GSTSummary,
		Accuracy:   reply.AccuracySummary,
		Comparison: reply.Comparison,
	})
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &Responder{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		prompts: prompts,
		system:  system,
		logger:  logger,
	}, nil
}

// Name identifies the responder in logs
func (r *Responder) Name() string {
	return "openai:" + r.model
}

// Reply asks the model. The caller bounds the call with ctx and falls back on error.
func (r *Responder) Reply(ctx context.Context, text string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: r.prompts.Chat.Temperature,
		MaxTokens:   r.prompts.Chat.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: r.system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		r.logger.Error("OpenAI API call failed", zap.Error(err))
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("empty response from OpenAI")
	}

	r.logger.Debug("Chat completion received",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return content, nil
}

var _ reply.Responder = (*Responder)(nil)
