// Package notify рассылает события хранилища (статус генерации и новые
// версии колоды) браузерам по WebSocket и внешним подписчикам через Redis
// и RabbitMQ.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"deck-server/internal/domain"
	"deck-server/internal/metrics"
	"deck-server/internal/store"
)

// StatusPublisher отправляет событие хранилища во внешний канал.
type StatusPublisher interface {
	Publish(ctx context.Context, event store.Event) error
	Close() error
}

// Subscriber - источник событий (реализуется *store.Store).
type Subscriber interface {
	Subscribe() (<-chan store.Event, func())
}

// DeckSummary - сокращённое описание колоды для внешних шин.
type DeckSummary struct {
	Title         string `json:"title"`
	Slides        int    `json:"slides"`
	ImagesReady   int    `json:"imagesReady"`
	ImagesPending int    `json:"imagesPending"`
}

// Envelope - формат сообщения во всех каналах.
type Envelope struct {
	Kind         store.EventKind         `json:"kind"`
	Version      uint64                  `json:"version"`
	Status       domain.GenerationStatus `json:"status"`
	Presentation *domain.Presentation    `json:"presentation,omitempty"`
	Summary      *DeckSummary            `json:"summary,omitempty"`
	Timestamp    time.Time               `json:"timestamp"`
}

// NewEnvelope собирает сообщение. full=false заменяет колоду сводкой:
// картинки в data URL слишком велики для брокеров.
func NewEnvelope(ev store.Event, full bool) Envelope {
	env := Envelope{
		Kind:      ev.Kind,
		Version:   ev.Version,
		Status:    ev.Status,
		Timestamp: time.Now().UTC(),
	}
	if ev.Presentation == nil {
		return env
	}
	if full {
		env.Presentation = ev.Presentation
		return env
	}
	summary := &DeckSummary{Title: ev.Presentation.Title, Slides: len(ev.Presentation.Slides)}
	for _, s := range ev.Presentation.Slides {
		switch {
		case s.Image.Ready():
			summary.ImagesReady++
		case s.Image.IsPending():
			summary.ImagesPending++
		}
	}
	env.Summary = summary
	return env
}

func encode(ev store.Event, full bool) ([]byte, error) {
	return json.Marshal(NewEnvelope(ev, full))
}

// Named - издатель с именем для логов и метрик.
type Named struct {
	Name      string
	Publisher StatusPublisher
}

// Multi рассылает событие всем издателям. Ошибка одного не мешает остальным.
type Multi struct {
	publishers []Named
	logger     *zap.Logger
}

// NewMulti создаёт составного издателя.
func NewMulti(logger *zap.Logger, publishers ...Named) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{publishers: publishers, logger: logger.Named("notify")}
}

// Add подключает ещё одного издателя.
func (m *Multi) Add(name string, p StatusPublisher) {
	m.publishers = append(m.publishers, Named{Name: name, Publisher: p})
}

// Len - число подключённых издателей.
func (m *Multi) Len() int { return len(m.publishers) }

func (m *Multi) Publish(ctx context.Context, event store.Event) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publisher.Publish(ctx, event); err != nil {
			metrics.PublishErrorsTotal.WithLabelValues(p.Name).Inc()
			m.logger.Warn("Failed to publish event",
				zap.String("publisher", p.Name),
				zap.String("kind", string(event.Kind)),
				zap.Uint64("version", event.Version),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Forward перекачивает события хранилища в издателя, пока не отменён ctx.
func Forward(ctx context.Context, src Subscriber, pub StatusPublisher, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	events, cancel := src.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Event forwarding stopped")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := pub.Publish(ctx, ev); err != nil {
				logger.Debug("Forwarded event with errors", zap.Uint64("version", ev.Version), zap.Error(err))
			}
		}
	}
}
