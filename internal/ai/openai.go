package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"deck-server/internal/config"
	"deck-server/internal/metrics"
)

const clientOpenAI = "openai"

// openAIClient работает с любым OpenAI-совместимым API (OpenRouter, vLLM и т.п.).
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func newOpenAIClient(cfg config.AIConfig, logger *zap.Logger) *openAIClient {
	openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = cfg.BaseURL
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	logger.Info("OpenAI client created",
		zap.String("baseURL", openaiConfig.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)
	return &openAIClient{
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  cfg.Model,
		logger: logger.Named("openai"),
	}
}

func (c *openAIClient) Model() string { return c.model }

func (c *openAIClient) GenerateJSON(ctx context.Context, req Request) (string, Usage, error) {
	usage := Usage{}
	if err := validateRequest(req); err != nil {
		metrics.AIRequestsTotal.WithLabelValues(clientOpenAI, c.model, "error").Inc()
		return "", usage, err
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: req.System},
		userMessage(req),
	}

	startTime := time.Now()
	c.logger.Debug("Sending request",
		zap.String("model", c.model),
		zap.Int("systemBytes", len(req.System)),
		zap.Int("userBytes", len(req.User)),
		zap.Bool("attachment", req.Attachment != nil),
	)

	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32Val(req.Params.Temperature),
		MaxTokens:   intVal(req.Params.MaxTokens),
		TopP:        float32Val(req.Params.TopP),
		ResponseFormat: &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("AI API error", zap.Duration("duration", duration), zap.Error(err))
		metrics.AIRequestsTotal.WithLabelValues(clientOpenAI, c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Warn("AI API returned empty response", zap.Duration("duration", duration))
		metrics.AIRequestsTotal.WithLabelValues(clientOpenAI, c.model, "error_empty_response").Inc()
		return "", usage, fmt.Errorf("%w: empty response", ErrRequestFailed)
	}

	metrics.AIRequestsTotal.WithLabelValues(clientOpenAI, c.model, "success").Inc()
	metrics.AIRequestDuration.WithLabelValues(clientOpenAI, c.model).Observe(duration.Seconds())

	usage = Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.PromptTokens > 0 {
		metrics.AIPromptTokens.WithLabelValues(c.model).Observe(float64(usage.PromptTokens))
	}
	c.logger.Info("AI response received",
		zap.Duration("duration", duration),
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, usage, nil
}

// userMessage собирает сообщение пользователя; картинка передаётся как data URL.
func userMessage(req Request) openaigo.ChatCompletionMessage {
	if req.Attachment == nil || len(req.Attachment.Data) == 0 {
		return openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleUser, Content: req.User}
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", req.Attachment.MediaType, base64.StdEncoding.EncodeToString(req.Attachment.Data))
	return openaigo.ChatCompletionMessage{
		Role: openaigo.ChatMessageRoleUser,
		MultiContent: []openaigo.ChatMessagePart{
			{Type: openaigo.ChatMessagePartTypeText, Text: req.User},
			{Type: openaigo.ChatMessagePartTypeImageURL, ImageURL: &openaigo.ChatMessageImageURL{URL: dataURL}},
		},
	}
}
