package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"deck-server/internal/config"
	"deck-server/internal/metrics"
)

const clientOllama = "ollama"

// ollamaClient использует нативный API Ollama с форматом ответа json.
type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaClient(cfg config.AIConfig, logger *zap.Logger) (*ollamaClient, error) {
	// api.NewClient ожидает адрес без суффикса /v1
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/v1")
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Ollama base URL '%s': %w", baseURL, err)
	}

	logger.Info("Ollama client created",
		zap.String("baseURL", baseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)
	return &ollamaClient{
		client:  api.NewClient(parsedURL, &http.Client{Timeout: cfg.Timeout}),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.Named("ollama"),
	}, nil
}

func (c *ollamaClient) Model() string { return c.model }

func (c *ollamaClient) GenerateJSON(ctx context.Context, req Request) (string, Usage, error) {
	usage := Usage{}
	if err := validateRequest(req); err != nil {
		metrics.AIRequestsTotal.WithLabelValues(clientOllama, c.model, "error").Inc()
		return "", usage, err
	}

	user := api.Message{Role: "user", Content: req.User}
	if req.Attachment != nil && len(req.Attachment.Data) > 0 {
		user.Images = []api.ImageData{req.Attachment.Data}
	}

	options := map[string]interface{}{}
	if req.Params.Temperature != nil {
		options["temperature"] = *req.Params.Temperature
	}
	if req.Params.TopP != nil {
		options["top_p"] = *req.Params.TopP
	}
	if n := intVal(req.Params.MaxTokens); n > 0 {
		options["num_predict"] = n
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "system", Content: req.System}, user},
		Stream:   &stream,
		Format:   json.RawMessage(`"json"`),
		Options:  options,
	}

	requestCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, chatReq, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Error("Ollama API timeout", zap.Duration("timeout", c.timeout), zap.Duration("duration", duration), zap.Error(err))
		} else {
			c.logger.Error("Ollama API error", zap.Duration("duration", duration), zap.Error(err))
		}
		metrics.AIRequestsTotal.WithLabelValues(clientOllama, c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.Message.Content == "" {
		c.logger.Warn("Ollama API returned empty response", zap.Duration("duration", duration))
		metrics.AIRequestsTotal.WithLabelValues(clientOllama, c.model, "error_empty_response").Inc()
		return "", usage, fmt.Errorf("%w: empty response", ErrRequestFailed)
	}

	metrics.AIRequestsTotal.WithLabelValues(clientOllama, c.model, "success").Inc()
	metrics.AIRequestDuration.WithLabelValues(clientOllama, c.model).Observe(duration.Seconds())

	usage = Usage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	if usage.PromptTokens > 0 {
		metrics.AIPromptTokens.WithLabelValues(c.model).Observe(float64(usage.PromptTokens))
	}
	c.logger.Info("Ollama response received", zap.Duration("duration", duration), zap.Int("totalTokens", usage.TotalTokens))
	return resp.Message.Content, usage, nil
}
