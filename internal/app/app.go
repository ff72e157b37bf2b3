// Package app собирает ядро сервиса из конфигурации: хранилище, конвейер
// генерации и очередь иллюстраций. Используется сервером и CLI.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"deck-server/internal/ai"
	"deck-server/internal/config"
	"deck-server/internal/document"
	"deck-server/internal/generator"
	"deck-server/internal/pipeline"
	"deck-server/internal/store"
)

// Core - связанные между собой компоненты генерации.
type Core struct {
	Store    *store.Store
	Pipeline *pipeline.Pipeline
	Images   *pipeline.ImageQueue
}

// NewCore создаёт клиентов моделей и конвейер поверх нового хранилища.
func NewCore(cfg *config.Config, log *zap.Logger) (*Core, error) {
	textClient, err := ai.NewTextClient(cfg.AI, log)
	if err != nil {
		return nil, fmt.Errorf("create ai client: %w", err)
	}
	temperature := cfg.AI.Temperature
	maxTokens := cfg.AI.MaxTokens
	structure := generator.NewLLMStructureGenerator(
		textClient,
		ai.NewTokenCounter(cfg.AI.Model, log),
		generator.LLMOptions{
			Params:          ai.Params{Temperature: &temperature, MaxTokens: &maxTokens},
			MaxPromptTokens: cfg.AI.MaxPromptTokens,
		},
		log,
	)
	images := pipeline.NewImageQueue(generator.NewHTTPImageGenerator(cfg.ImageServer, log), log)

	st := store.New(log)
	p := pipeline.New(st, structure, images, document.Limits{
		MaxBytes:     cfg.Document.MaxBytes,
		MaxTextChars: cfg.Document.MaxTextChars,
	}, log)

	return &Core{Store: st, Pipeline: p, Images: images}, nil
}

// Close останавливает очередь иллюстраций.
func (c *Core) Close() {
	c.Images.Close()
}
