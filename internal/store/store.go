// Package store хранит авторитетное значение колоды и статус генерации.
// Колода меняется только целиком: каждый писатель получает копию последнего
// значения и возвращает новое, которое публикуется атомарно.
package store

import (
	"sync"

	"go.uber.org/zap"

	"deck-server/internal/domain"
	"deck-server/internal/metrics"
)

// EventKind - тип изменения в хранилище.
type EventKind string

const (
	EventPresentation EventKind = "presentation"
	EventStatus       EventKind = "status"
)

// Event - уведомление подписчикам о зафиксированном изменении.
type Event struct {
	Kind         EventKind               `json:"kind"`
	Version      uint64                  `json:"version"`
	Presentation *domain.Presentation    `json:"presentation,omitempty"`
	Status       domain.GenerationStatus `json:"status"`
}

const defaultSubscriberBuffer = 64

// UpdateFunc получает копию текущей колоды и возвращает новое значение.
// Ошибка отменяет изменение.
type UpdateFunc func(current domain.Presentation) (domain.Presentation, error)

// Store - ячейка со значением колоды, версией и статусом.
// Запись выполняется одним писателем за раз, читатели получают копии.
type Store struct {
	mu      sync.RWMutex
	current *domain.Presentation
	version uint64
	status  domain.GenerationStatus

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int

	logger *zap.Logger
}

// New создаёт пустое хранилище (колоды нет, статус IDLE).
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		status: domain.IdleStatus(),
		subs:   make(map[int]chan Event),
		logger: logger.Named("store"),
	}
}

// Snapshot возвращает копию колоды, её версию и признак наличия.
func (s *Store) Snapshot() (domain.Presentation, uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.Presentation{}, s.version, false
	}
	return s.current.Clone(), s.version, true
}

// Presentation возвращает копию колоды или nil, если её ещё нет.
func (s *Store) Presentation() *domain.Presentation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	p := s.current.Clone()
	return &p
}

// Version - номер последнего зафиксированного значения.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Status возвращает текущий статус генерации.
func (s *Store) Status() domain.GenerationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Clone()
}

// Replace заменяет колоду целиком.
func (s *Store) Replace(p domain.Presentation) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := p.Clone()
	s.current = &next
	return s.commitLocked()
}

// Update применяет fn к последнему значению и фиксирует результат.
// Без колоды возвращает domain.ErrNoPresentation; ошибка fn оставляет
// хранилище без изменений.
func (s *Store) Update(fn UpdateFunc) (domain.Presentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.Presentation{}, domain.ErrNoPresentation
	}
	next, err := fn(s.current.Clone())
	if err != nil {
		return domain.Presentation{}, err
	}
	committed := next.Clone()
	s.current = &committed
	s.commitLocked()
	return committed.Clone(), nil
}

// UpdateSlide заменяет один слайд по идентификатору, применяя fn
// к его актуальной копии.
func (s *Store) UpdateSlide(slideID string, fn func(domain.Slide) (domain.Slide, error)) (domain.Slide, error) {
	var updated domain.Slide
	_, err := s.Update(func(p domain.Presentation) (domain.Presentation, error) {
		current, err := p.Slide(slideID)
		if err != nil {
			return p, err
		}
		next, err := fn(current)
		if err != nil {
			return p, err
		}
		next.ID = slideID
		updated = next
		return p.WithSlide(next)
	})
	if err != nil {
		return domain.Slide{}, err
	}
	return updated.Clone(), nil
}

// SetStatus публикует новый статус генерации.
func (s *Store) SetStatus(status domain.GenerationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status.Clone()
	s.broadcastLocked(Event{Kind: EventStatus, Version: s.version, Status: s.status.Clone()})
}

// Subscribe возвращает канал событий и функцию отписки.
// Медленный подписчик теряет самые старые события, писатель не блокируется.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, defaultSubscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

func (s *Store) commitLocked() uint64 {
	s.version++
	metrics.StoreVersion.Set(float64(s.version))
	p := s.current.Clone()
	s.broadcastLocked(Event{Kind: EventPresentation, Version: s.version, Presentation: &p, Status: s.status.Clone()})
	return s.version
}

func (s *Store) broadcastLocked(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		// Буфер полон: выбрасываем самое старое событие
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
			s.logger.Warn("Dropping store event for slow subscriber", zap.Int("subscriber", id), zap.Uint64("version", ev.Version))
		}
	}
}
