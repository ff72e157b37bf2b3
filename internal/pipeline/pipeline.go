// Package pipeline проводит цикл генерации колоды: разбор документа,
// структура от текстовой модели, затем иллюстрации слайдов по одной.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deck-server/internal/document"
	"deck-server/internal/domain"
	"deck-server/internal/generator"
	"deck-server/internal/layout"
	"deck-server/internal/metrics"
	"deck-server/internal/store"
)

// Границы прогресса по этапам.
const (
	progressStructureStart = 10
	progressStructureSent  = 30
	progressDeckPublished  = 40
	progressImagesSpan     = 60
	progressComplete       = 100
)

// Input - исходные данные цикла: документ, заметки или оба.
type Input struct {
	Document *document.Upload
	Notes    string
	// VisualStyle переопределяет стиль иллюстраций. Пустое значение -
	// стиль текущей колоды либо стиль по умолчанию.
	VisualStyle domain.VisualStyle
}

func (in Input) hasDocument() bool {
	return in.Document != nil && len(in.Document.Data) > 0
}

// Empty сообщает, что генерировать не из чего.
func (in Input) Empty() bool {
	return !in.hasDocument() && strings.TrimSpace(in.Notes) == ""
}

// Pipeline владеет циклами генерации. Одновременно идёт не больше одного цикла.
type Pipeline struct {
	store     *store.Store
	structure generator.StructureGenerator
	images    *ImageQueue
	limits    document.Limits
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// New создаёт конвейер поверх хранилища.
func New(st *store.Store, structure generator.StructureGenerator, images *ImageQueue, limits document.Limits, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:     st,
		structure: structure,
		images:    images,
		limits:    limits,
		logger:    logger.Named("Pipeline"),
	}
}

// Running сообщает, идёт ли сейчас цикл.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Run проводит цикл синхронно. Ошибка цикла также отражается в статусе хранилища.
func (p *Pipeline) Run(ctx context.Context, in Input) error {
	if in.Empty() {
		return domain.ErrEmptyInput
	}
	if !p.claim() {
		return domain.ErrGenerationInProgress
	}
	defer p.release()
	return p.run(ctx, uuid.NewString(), in)
}

// StartAsync занимает конвейер и запускает цикл в фоне.
// Отмена ctx после возврата цикл не прерывает.
func (p *Pipeline) StartAsync(ctx context.Context, in Input) (string, error) {
	if in.Empty() {
		return "", domain.ErrEmptyInput
	}
	if !p.claim() {
		return "", domain.ErrGenerationInProgress
	}
	cycleID := uuid.NewString()
	bg := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.release()
		_ = p.run(bg, cycleID, in)
	}()
	return cycleID, nil
}

// Wait ждёт завершения фоновых циклов и перегенераций.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) claim() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || !p.store.Status().Stage.CanStart() {
		return false
	}
	p.running = true
	return true
}

func (p *Pipeline) release() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

func (p *Pipeline) run(ctx context.Context, cycleID string, in Input) error {
	start := time.Now()
	log := p.logger.With(zap.String("cycleID", cycleID))
	log.Info("Generation cycle started",
		zap.Bool("hasDocument", in.hasDocument()),
		zap.Int("notesLength", len(in.Notes)),
	)

	style := p.cycleStyle(in.VisualStyle)

	p.setStatus(domain.StageAnalyzingDoc, "Analyzing document...", 0, nil, nil)
	var payload *document.Payload
	if in.hasDocument() {
		prepared, err := document.Prepare(*in.Document, p.limits)
		if err != nil {
			return p.fail(log, start, fmt.Errorf("prepare document: %w", err))
		}
		payload = prepared
		log.Debug("Document prepared",
			zap.String("mediaType", payload.MediaType),
			zap.Int("pages", payload.Pages),
			zap.Bool("truncated", payload.Truncated),
		)
	}

	p.setStatus(domain.StageGeneratingStructure, "Designing slide structure...", progressStructureStart, nil, nil)
	p.setStatus(domain.StageGeneratingStructure, "Writing slide content...", progressStructureSent, nil, nil)
	resp, err := p.structure.GenerateStructure(ctx, generator.StructureRequest{
		Document:    payload,
		Notes:       in.Notes,
		VisualStyle: style.VisualStyle,
	})
	if err != nil {
		return p.fail(log, start, err)
	}

	deck := BuildPresentation(resp, style)
	p.store.Replace(deck)
	log.Info("Presentation structure published",
		zap.String("title", deck.Title),
		zap.Int("slides", len(deck.Slides)),
	)

	var jobs []domain.Slide
	for _, s := range deck.Slides {
		if s.HasVisualPrompt() {
			jobs = append(jobs, s)
		}
	}
	total := len(jobs)
	p.setStatus(domain.StageGeneratingImages, "Generating visuals...", progressDeckPublished, nil, nil)

	for i, s := range jobs {
		if err := ctx.Err(); err != nil {
			return p.fail(log, start, fmt.Errorf("generation cancelled: %w", err))
		}
		current, n := i+1, total
		p.setStatus(domain.StageGeneratingImages,
			fmt.Sprintf("Generating visual %d of %d...", current, total),
			ImageProgress(i, total), &current, &n)

		p.generateSlideImage(ctx, log, s.ID, *s.VisualPrompt)

		done := i + 1
		p.setStatus(domain.StageGeneratingImages,
			fmt.Sprintf("Generating visual %d of %d...", current, total),
			ImageProgress(done, total), &done, &n)
	}

	p.setStatus(domain.StageComplete, "Presentation ready", progressComplete, nil, nil)
	metrics.GenerationCyclesTotal.WithLabelValues(string(domain.StageComplete)).Inc()
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	log.Info("Generation cycle completed",
		zap.Int("images", total),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// cycleStyle выбирает стиль новой колоды: стиль иллюстраций берётся из
// входа, затем из текущей колоды.
func (p *Pipeline) cycleStyle(override domain.VisualStyle) domain.PresentationStyle {
	style := domain.DefaultStyle()
	if cur := p.store.Presentation(); cur != nil {
		style.VisualStyle = cur.Style.VisualStyle
		style.FontScale = cur.Style.FontScale
	}
	if override != "" {
		style.VisualStyle = override
	}
	return style.Normalize()
}

// generateSlideImage выполняет одно задание конвейера. Ошибка не прерывает цикл:
// слайд остаётся без картинки.
func (p *Pipeline) generateSlideImage(ctx context.Context, log *zap.Logger, slideID, prompt string) {
	ref, err := p.images.Do(ctx, JobKindPipeline, p.imageRequest(prompt))
	if err != nil {
		log.Warn("Slide image generation failed, continuing",
			zap.String("slideID", slideID),
			zap.Error(err),
		)
		_, uerr := p.store.UpdateSlide(slideID, func(s domain.Slide) (domain.Slide, error) {
			// Готовую картинку и ожидающую ручную перегенерацию не трогаем
			if s.Image.Ready() || s.Image.IsPending() {
				return s, nil
			}
			s.Image = domain.ImageFailure()
			return s, nil
		})
		if uerr != nil {
			log.Warn("Failed to mark slide image as failed", zap.String("slideID", slideID), zap.Error(uerr))
		}
		return
	}

	if _, err := p.store.UpdateSlide(slideID, func(s domain.Slide) (domain.Slide, error) {
		return layout.ApplyImage(s, ref), nil
	}); err != nil {
		log.Warn("Generated image for a slide that no longer exists",
			zap.String("slideID", slideID),
			zap.Error(err),
		)
	}
}

// imageRequest собирает запрос с учётом актуального стиля колоды.
func (p *Pipeline) imageRequest(prompt string) generator.ImageRequest {
	style := domain.DefaultStyle().VisualStyle
	if cur := p.store.Presentation(); cur != nil {
		style = cur.Style.VisualStyle
	}
	return generator.ImageRequest{
		Subject:      prompt,
		ArtDirection: generator.ArtDirection(prompt, style),
		AspectRatio:  generator.DefaultAspectRatio,
	}
}

func (p *Pipeline) fail(log *zap.Logger, start time.Time, err error) error {
	log.Error("Generation cycle failed", zap.Error(err))
	p.setStatus(domain.StageError, userMessage(err), 0, nil, nil)
	metrics.GenerationCyclesTotal.WithLabelValues(string(domain.StageError)).Inc()
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	return err
}

func (p *Pipeline) setStatus(stage domain.Stage, message string, progress int, current, total *int) {
	p.store.SetStatus(domain.GenerationStatus{
		Stage:             stage,
		Message:           message,
		Progress:          progress,
		CurrentSlideIndex: current,
		TotalSlides:       total,
	})
}

// userMessage превращает ошибку в текст для статуса.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedMedia),
		errors.Is(err, domain.ErrDocumentTooLarge),
		errors.Is(err, domain.ErrDocumentEncoding):
		return "Could not read the document: " + err.Error()
	case errors.Is(err, domain.ErrInvalidStructure):
		return "The model returned an unusable slide structure. Please try again."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Generation was cancelled."
	default:
		return "Generation failed: " + err.Error()
	}
}

// ImageProgress - прогресс после завершения done заданий из total.
func ImageProgress(done, total int) int {
	if total <= 0 {
		return progressComplete
	}
	return progressDeckPublished + done*progressImagesSpan/total
}

// BuildPresentation превращает ответ модели в колоду без картинок.
// Пустые и повторяющиеся идентификаторы слайдов заменяются новыми.
func BuildPresentation(resp generator.StructureResponse, style domain.PresentationStyle) domain.Presentation {
	style.Theme = domain.Theme(resp.Theme)
	style = style.Normalize()

	seen := make(map[string]bool, len(resp.Slides))
	slides := make([]domain.Slide, 0, len(resp.Slides))
	for _, draft := range resp.Slides {
		id := strings.TrimSpace(draft.ID)
		if id == "" || seen[id] {
			id = uuid.NewString()
		}
		seen[id] = true

		content := make([]string, len(draft.Content))
		copy(content, draft.Content)

		var prompt *string
		if draft.VisualPrompt != nil && strings.TrimSpace(*draft.VisualPrompt) != "" {
			prompt = domain.StringPtr(strings.TrimSpace(*draft.VisualPrompt))
		}
		var subtitle *string
		if draft.Subtitle != nil {
			subtitle = domain.StringPtr(*draft.Subtitle)
		}

		slides = append(slides, domain.Slide{
			ID:           id,
			Layout:       domain.ParseLayout(draft.Layout),
			Title:        draft.Title,
			Subtitle:     subtitle,
			Content:      content,
			VisualPrompt: prompt,
			Image:        domain.ImageNone(),
			SpeakerNotes: draft.SpeakerNotes,
		})
	}

	return domain.Presentation{
		Title:  resp.Title,
		Slides: slides,
		Style:  style,
	}
}
