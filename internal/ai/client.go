// Package ai содержит клиентов текстовых моделей, которые возвращают JSON.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"deck-server/internal/config"
)

// ErrRequestFailed - ошибка обращения к модели.
var ErrRequestFailed = errors.New("ai request failed")

// Params - параметры генерации. nil означает значение по умолчанию модели.
type Params struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// Attachment - двоичное вложение в пользовательское сообщение (картинка документа).
type Attachment struct {
	MediaType string
	Data      []byte
}

// Request - один запрос к модели.
type Request struct {
	System     string
	User       string
	Attachment *Attachment
	Params     Params
}

// Usage - расход токенов.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// TextClient генерирует ответ модели в формате JSON.
type TextClient interface {
	GenerateJSON(ctx context.Context, req Request) (string, Usage, error)
	Model() string
}

// NewTextClient выбирает реализацию по типу клиента из конфигурации.
func NewTextClient(cfg config.AIConfig, logger *zap.Logger) (TextClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(cfg.ClientType) {
	case "openai", "":
		return newOpenAIClient(cfg, logger), nil
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type: '%s'", cfg.ClientType)
	}
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.System) == "" {
		return fmt.Errorf("%w: system prompt is empty", ErrRequestFailed)
	}
	return nil
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func float32Val(f *float64) float32 {
	if f == nil {
		return 0
	}
	return float32(*f)
}
