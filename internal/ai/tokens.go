package ai

import (
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// Запасная оценка, если словарь токенизатора недоступен.
const approxCharsPerToken = 4

// TokenCounter считает и обрезает текст по бюджету токенов промпта.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter подбирает кодировку для модели, для неизвестных моделей
// берёт cl100k_base. Если словарь не загрузился, считает приблизительно.
func NewTokenCounter(model string, logger *zap.Logger) *TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		if logger != nil {
			logger.Warn("Tokenizer unavailable, using approximate token counts", zap.String("model", model), zap.Error(err))
		}
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

// Count возвращает число токенов в тексте.
func (t *TokenCounter) Count(text string) int {
	if t == nil || t.enc == nil {
		n := len([]rune(text))
		return (n + approxCharsPerToken - 1) / approxCharsPerToken
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Truncate обрезает текст до maxTokens токенов. maxTokens <= 0 - без ограничения.
func (t *TokenCounter) Truncate(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 || text == "" {
		return text, false
	}
	if t == nil || t.enc == nil {
		runes := []rune(text)
		limit := maxTokens * approxCharsPerToken
		if len(runes) <= limit {
			return text, false
		}
		return string(runes[:limit]), true
	}
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, false
	}
	return t.enc.Decode(tokens[:maxTokens]), true
}
