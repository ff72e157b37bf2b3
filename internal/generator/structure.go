package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"deck-server/internal/ai"
	"deck-server/internal/document"
	"deck-server/internal/domain"
)

// StructureRequest - один запрос на генерацию структуры колоды.
type StructureRequest struct {
	Document    *document.Payload // nil, если документ не загружен
	Notes       string
	VisualStyle domain.VisualStyle
}

// SlideSpec - описание слайда в ответе модели.
type SlideSpec struct {
	ID           string   `json:"id"`
	Layout       string   `json:"layout" validate:"required"`
	Title        string   `json:"title"`
	Subtitle     *string  `json:"subtitle,omitempty"`
	Content      []string `json:"content"`
	VisualPrompt *string  `json:"visualPrompt,omitempty"`
	SpeakerNotes string   `json:"speakerNotes"`
}

// StructureResponse - ответ генератора структуры.
type StructureResponse struct {
	Title  string      `json:"title" validate:"required"`
	Theme  string      `json:"theme" validate:"required,oneof=modern elegant tech minimal"`
	Slides []SlideSpec `json:"slides" validate:"required,min=1,dive"`
}

// StructureGenerator превращает документ и заметки в структуру колоды.
type StructureGenerator interface {
	GenerateStructure(ctx context.Context, req StructureRequest) (StructureResponse, error)
}

// LLMStructureGenerator получает структуру от текстовой модели одним запросом.
type LLMStructureGenerator struct {
	client          ai.TextClient
	tokens          *ai.TokenCounter
	validate        *validator.Validate
	params          ai.Params
	maxPromptTokens int
	logger          *zap.Logger
}

// LLMOptions - параметры генератора структуры.
type LLMOptions struct {
	Params          ai.Params
	MaxPromptTokens int
}

// NewLLMStructureGenerator создаёт генератор поверх TextClient.
func NewLLMStructureGenerator(client ai.TextClient, tokens *ai.TokenCounter, opts LLMOptions, logger *zap.Logger) *LLMStructureGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMStructureGenerator{
		client:          client,
		tokens:          tokens,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		params:          opts.Params,
		maxPromptTokens: opts.MaxPromptTokens,
		logger:          logger.Named("structure"),
	}
}

func (g *LLMStructureGenerator) GenerateStructure(ctx context.Context, req StructureRequest) (StructureResponse, error) {
	aiReq := ai.Request{
		System: structureSystemPrompt(req.VisualStyle),
		User:   g.userMessage(req),
		Params: g.params,
	}
	if req.Document.IsImage() {
		aiReq.Attachment = &ai.Attachment{MediaType: req.Document.MediaType, Data: req.Document.Bytes}
	}

	raw, usage, err := g.client.GenerateJSON(ctx, aiReq)
	if err != nil {
		return StructureResponse{}, fmt.Errorf("%w: %v", domain.ErrStructureGeneration, err)
	}
	g.logger.Debug("Structure response received", zap.Int("bytes", len(raw)), zap.Int("totalTokens", usage.TotalTokens))

	resp, err := g.Parse(raw)
	if err != nil {
		g.logger.Warn("Structure response rejected", zap.Error(err))
		return StructureResponse{}, err
	}
	return resp, nil
}

// Parse разбирает и проверяет ответ модели.
func (g *LLMStructureGenerator) Parse(raw string) (StructureResponse, error) {
	var resp StructureResponse
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &resp); err != nil {
		return StructureResponse{}, fmt.Errorf("%w: %v", domain.ErrInvalidStructure, err)
	}
	resp.Theme = strings.ToLower(strings.TrimSpace(resp.Theme))
	for i := range resp.Slides {
		if resp.Slides[i].Content == nil {
			resp.Slides[i].Content = []string{}
		}
	}
	if err := g.validate.Struct(resp); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return StructureResponse{}, fmt.Errorf("%w: field %s failed '%s'", domain.ErrInvalidStructure, verrs[0].Namespace(), verrs[0].Tag())
		}
		return StructureResponse{}, fmt.Errorf("%w: %v", domain.ErrInvalidStructure, err)
	}
	return resp, nil
}

func (g *LLMStructureGenerator) userMessage(req StructureRequest) string {
	var b strings.Builder
	notes := strings.TrimSpace(req.Notes)
	if notes != "" {
		b.WriteString("Speaker notes and instructions:\n")
		b.WriteString(notes)
		b.WriteString("\n\n")
	}
	if req.Document != nil {
		switch {
		case req.Document.Text != "":
			text, truncated := g.tokens.Truncate(req.Document.Text, g.maxPromptTokens)
			if truncated {
				g.logger.Info("Document text truncated to prompt budget", zap.Int("maxTokens", g.maxPromptTokens))
			}
			fmt.Fprintf(&b, "Source document (%s):\n%s\n", req.Document.Filename, text)
		case req.Document.IsImage():
			fmt.Fprintf(&b, "The attached image (%s) is the source material.\n", req.Document.Filename)
		}
	}
	if b.Len() == 0 {
		return "Create a short general-purpose presentation."
	}
	return b.String()
}

// stripCodeFences убирает обёртку ```json ... ```, которую модели иногда добавляют.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func structureSystemPrompt(style domain.VisualStyle) string {
	layouts := make([]string, 0, len(domain.Layouts()))
	for _, l := range domain.Layouts() {
		layouts = append(layouts, string(l))
	}
	if !style.Valid() {
		style = domain.DefaultStyle().VisualStyle
	}
	return fmt.Sprintf(`You are an expert presentation designer. Turn the user's material into a clear, persuasive slide deck.

Respond with a single JSON object and nothing else:
{
  "title": string,
  "theme": one of "modern" | "elegant" | "tech" | "minimal",
  "slides": [{
    "id": string,
    "layout": one of %s,
    "title": string,
    "subtitle": string (optional; for QUOTE it is the attribution),
    "content": string[] (bullet points; for QUOTE the first item is the quote),
    "visualPrompt": string (a concrete visual subject for an illustration, or omit when the slide needs none),
    "speakerNotes": string
  }]
}

Rules:
- Start with a TITLE slide. Use 5 to 12 slides.
- Keep bullets short (under 12 words), at most 6 per slide.
- Alternate CONTENT_LEFT and CONTENT_RIGHT for slides with illustrations.
- Visual prompts describe subjects, not styles; the illustrations are rendered in a %s style.`,
		strings.Join(layouts, " | "), style)
}
