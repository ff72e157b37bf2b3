package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"deck-server/internal/domain"
	"deck-server/internal/layout"
)

// Regenerate заново генерирует картинку одного слайда и ждёт результата.
// prompt, если задан, заменяет visualPrompt слайда. При ошибке генератора
// слайд остаётся в состоянии ожидания.
func (p *Pipeline) Regenerate(ctx context.Context, slideID string, prompt *string) (domain.Slide, error) {
	pending, err := p.markPending(slideID, prompt)
	if err != nil {
		return domain.Slide{}, err
	}
	return p.finishRegeneration(ctx, pending)
}

// RegenerateAsync помечает слайд как ожидающий и возвращает его сразу,
// генерация идёт в фоне через ту же очередь.
func (p *Pipeline) RegenerateAsync(ctx context.Context, slideID string, prompt *string) (domain.Slide, error) {
	pending, err := p.markPending(slideID, prompt)
	if err != nil {
		return domain.Slide{}, err
	}
	bg := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_, _ = p.finishRegeneration(bg, pending)
	}()
	return pending, nil
}

func (p *Pipeline) markPending(slideID string, prompt *string) (domain.Slide, error) {
	return p.store.UpdateSlide(slideID, func(s domain.Slide) (domain.Slide, error) {
		if prompt != nil {
			trimmed := strings.TrimSpace(*prompt)
			if trimmed == "" {
				return s, fmt.Errorf("%w: empty visual prompt", domain.ErrInvalidArgument)
			}
			s.VisualPrompt = domain.StringPtr(trimmed)
		}
		if !s.HasVisualPrompt() {
			return s, domain.ErrNoVisualPrompt
		}
		s.Image = domain.ImageInFlight()
		return s, nil
	})
}

func (p *Pipeline) finishRegeneration(ctx context.Context, pending domain.Slide) (domain.Slide, error) {
	log := p.logger.With(zap.String("slideID", pending.ID))
	ref, err := p.images.Do(ctx, JobKindRegenerate, p.imageRequest(*pending.VisualPrompt))
	if err != nil {
		log.Warn("Slide image regeneration failed", zap.Error(err))
		return pending, fmt.Errorf("regenerate slide image: %w", err)
	}

	updated, err := p.store.UpdateSlide(pending.ID, func(s domain.Slide) (domain.Slide, error) {
		return layout.ApplyImage(s, ref), nil
	})
	if err != nil {
		log.Warn("Regenerated image for a slide that no longer exists", zap.Error(err))
		return domain.Slide{}, err
	}
	log.Info("Slide image regenerated")
	return updated, nil
}
