// Package canvas реализует редактирование элементов свободного холста:
// выделение, перетаскивание, изменение размера и удаление.
package canvas

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"deck-server/internal/domain"
	"deck-server/internal/geometry"
	"deck-server/internal/layout"
	"deck-server/internal/metrics"
)

// GestureState - состояние жеста указателя.
type GestureState string

const (
	StateIdle     GestureState = "idle"
	StateDragging GestureState = "dragging"
	StateResizing GestureState = "resizing"
)

// SlideUpdater - часть хранилища, через которую холст читает и меняет слайды.
// Реализуется *store.Store.
type SlideUpdater interface {
	Presentation() *domain.Presentation
	UpdateSlide(slideID string, fn func(domain.Slide) (domain.Slide, error)) (domain.Slide, error)
}

// Selection - выбранный элемент.
type Selection struct {
	SlideID   string `json:"slideId"`
	ElementID string `json:"elementId"`
}

// Snapshot - состояние движка для клиента.
type Snapshot struct {
	State     GestureState      `json:"state"`
	Selection *Selection        `json:"selection,omitempty"`
	Viewport  geometry.Viewport `json:"viewport"`
}

// anchor фиксирует геометрию элемента и позицию указателя в начале жеста.
type anchor struct {
	pointerX, pointerY float64
	x, y               float64
	width              float64
	height             domain.Dimension
}

// Engine хранит единственное выделение и активный жест.
// Каждое изменение элемента применяется к актуальному значению слайда в хранилище.
type Engine struct {
	mu        sync.Mutex
	slides    SlideUpdater
	viewport  geometry.Viewport
	state     GestureState
	selection *Selection
	anchor    anchor
	logger    *zap.Logger
}

// NewEngine создаёт движок холста.
func NewEngine(slides SlideUpdater, viewport geometry.Viewport, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !viewport.Valid() {
		viewport = geometry.DefaultViewport()
	}
	return &Engine{
		slides:   slides,
		viewport: viewport,
		state:    StateIdle,
		logger:   logger.Named("canvas"),
	}
}

// SetViewport обновляет измеренный размер холста.
func (e *Engine) SetViewport(v geometry.Viewport) error {
	if !v.Valid() {
		return fmt.Errorf("%w: %+v", domain.ErrInvalidViewport, v)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport = v
	return nil
}

// State возвращает текущее состояние движка.
func (e *Engine) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := Snapshot{State: e.state, Viewport: e.viewport}
	if e.selection != nil {
		sel := *e.selection
		snap.Selection = &sel
	}
	return snap
}

// Selected возвращает выделенный элемент.
func (e *Engine) Selected() (Selection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selection == nil {
		return Selection{}, false
	}
	return *e.selection, true
}

// Select выделяет элемент без начала жеста.
func (e *Engine) Select(slideID, elementID string) (domain.SlideElement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return domain.SlideElement{}, domain.ErrGestureConflict
	}
	el, err := e.locate(slideID, elementID)
	if err != nil {
		return domain.SlideElement{}, err
	}
	e.selection = &Selection{SlideID: slideID, ElementID: elementID}
	return el, nil
}

// ClearSelection - нажатие на пустое место холста.
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = nil
	e.state = StateIdle
}

// PointerDown выделяет элемент и начинает перетаскивание.
func (e *Engine) PointerDown(slideID, elementID string, x, y float64) (domain.SlideElement, error) {
	return e.begin(StateDragging, slideID, elementID, x, y)
}

// ResizeHandleDown выделяет элемент и начинает изменение размера
// за правый нижний маркер.
func (e *Engine) ResizeHandleDown(slideID, elementID string, x, y float64) (domain.SlideElement, error) {
	return e.begin(StateResizing, slideID, elementID, x, y)
}

func (e *Engine) begin(state GestureState, slideID, elementID string, x, y float64) (domain.SlideElement, error) {
	if !geometry.Finite(x) || !geometry.Finite(y) {
		return domain.SlideElement{}, fmt.Errorf("%w: pointer position", domain.ErrInvalidArgument)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return domain.SlideElement{}, domain.ErrGestureConflict
	}
	el, err := e.locate(slideID, elementID)
	if err != nil {
		return domain.SlideElement{}, err
	}
	e.selection = &Selection{SlideID: slideID, ElementID: elementID}
	e.state = state
	e.anchor = anchor{
		pointerX: x, pointerY: y,
		x: el.X, y: el.Y,
		width: el.Width, height: el.Height,
	}
	return el, nil
}

// PointerMove применяет смещение указателя от точки начала жеста.
// Перетаскивание не ограничивает позицию, изменение размера не даёт
// ширине и высоте стать меньше geometry.MinElementSize.
func (e *Engine) PointerMove(x, y float64) (domain.SlideElement, error) {
	if !geometry.Finite(x) || !geometry.Finite(y) {
		return domain.SlideElement{}, fmt.Errorf("%w: pointer position", domain.ErrInvalidArgument)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle || e.selection == nil {
		return domain.SlideElement{}, domain.ErrNoActiveGesture
	}

	dx, dy := e.viewport.ToPercentDelta(x-e.anchor.pointerX, y-e.anchor.pointerY)
	a := e.anchor
	state := e.state

	el, err := e.mutate(e.selection.SlideID, e.selection.ElementID, func(el *domain.SlideElement) {
		switch state {
		case StateDragging:
			el.X = a.x + dx
			el.Y = a.y + dy
		case StateResizing:
			el.Width = geometry.ClampMin(a.width+dx, geometry.MinElementSize)
			if !a.height.Auto {
				el.Height = domain.Percent(geometry.ClampMin(a.height.Value+dy, geometry.MinElementSize))
			}
		}
	})
	if err != nil {
		// Элемент или слайд исчез во время жеста
		e.logger.Warn("Canvas gesture target disappeared", zap.Error(err))
		e.state = StateIdle
		e.selection = nil
		return domain.SlideElement{}, err
	}
	return el, nil
}

// PointerUp завершает жест, выделение сохраняется.
func (e *Engine) PointerUp() GestureState {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.state
	switch prev {
	case StateDragging:
		metrics.CanvasGesturesTotal.WithLabelValues("drag").Inc()
	case StateResizing:
		metrics.CanvasGesturesTotal.WithLabelValues("resize").Inc()
	}
	e.state = StateIdle
	return prev
}

// Delete удаляет элемент со слайда. Если он был выделен, выделение снимается.
func (e *Engine) Delete(slideID, elementID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.slides.UpdateSlide(slideID, func(s domain.Slide) (domain.Slide, error) {
		s = layout.Ensure(s)
		idx := s.ElementIndex(elementID)
		if idx < 0 {
			return s, fmt.Errorf("%w: %s", domain.ErrElementNotFound, elementID)
		}
		s.Elements = append(s.Elements[:idx], s.Elements[idx+1:]...)
		return s, nil
	})
	if err != nil {
		return err
	}
	if e.selection != nil && e.selection.SlideID == slideID && e.selection.ElementID == elementID {
		e.selection = nil
		e.state = StateIdle
	}
	metrics.CanvasGesturesTotal.WithLabelValues("delete").Inc()
	e.logger.Debug("Element deleted", zap.String("slideID", slideID), zap.String("elementID", elementID))
	return nil
}

// Nudge сдвигает элемент на заданное число процентов (стрелки клавиатуры).
func (e *Engine) Nudge(slideID, elementID string, dxPct, dyPct float64) (domain.SlideElement, error) {
	if !geometry.Finite(dxPct) || !geometry.Finite(dyPct) {
		return domain.SlideElement{}, fmt.Errorf("%w: nudge delta", domain.ErrInvalidArgument)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	el, err := e.mutate(slideID, elementID, func(el *domain.SlideElement) {
		el.X += dxPct
		el.Y += dyPct
	})
	if err == nil {
		metrics.CanvasGesturesTotal.WithLabelValues("nudge").Inc()
	}
	return el, err
}

// SetContent заменяет текст элемента.
func (e *Engine) SetContent(slideID, elementID, content string) (domain.SlideElement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	el, err := e.mutate(slideID, elementID, func(el *domain.SlideElement) {
		el.Content = content
	})
	if err == nil {
		metrics.CanvasGesturesTotal.WithLabelValues("edit").Inc()
	}
	return el, err
}

// locate возвращает элемент. Слайд без холста гидратируется в хранилище,
// уже гидратированный читается из снимка без новой версии.
func (e *Engine) locate(slideID, elementID string) (domain.SlideElement, error) {
	p := e.slides.Presentation()
	if p == nil {
		return domain.SlideElement{}, domain.ErrNoPresentation
	}
	s, err := p.Slide(slideID)
	if err != nil {
		return domain.SlideElement{}, err
	}
	if !s.Hydrated() {
		return e.mutate(slideID, elementID, func(*domain.SlideElement) {})
	}
	idx := s.ElementIndex(elementID)
	if idx < 0 {
		return domain.SlideElement{}, fmt.Errorf("%w: %s", domain.ErrElementNotFound, elementID)
	}
	return s.Elements[idx], nil
}

// mutate применяет fn к элементу актуального слайда и сохраняет слайд.
// Вызывается под e.mu.
func (e *Engine) mutate(slideID, elementID string, fn func(*domain.SlideElement)) (domain.SlideElement, error) {
	var out domain.SlideElement
	_, err := e.slides.UpdateSlide(slideID, func(s domain.Slide) (domain.Slide, error) {
		s = layout.Ensure(s)
		idx := s.ElementIndex(elementID)
		if idx < 0 {
			return s, fmt.Errorf("%w: %s", domain.ErrElementNotFound, elementID)
		}
		fn(&s.Elements[idx])
		out = s.Elements[idx].Clone()
		return s, nil
	})
	if err != nil {
		return domain.SlideElement{}, err
	}
	return out, nil
}
