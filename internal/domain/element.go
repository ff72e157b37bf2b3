package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ElementType - вариант элемента свободного холста.
type ElementType string

const (
	ElementText  ElementType = "text"
	ElementImage ElementType = "image"
	ElementShape ElementType = "shape"
)

// Z-порядок, который проставляет гидратор.
const (
	ZIndexImage = 1
	ZIndexText  = 10
)

// Dimension - размер в процентах слайда либо "auto" (высота по содержимому).
type Dimension struct {
	Value float64
	Auto  bool
}

// Percent создаёт размер в процентах.
func Percent(v float64) Dimension { return Dimension{Value: v} }

// AutoHeight - размер по содержимому.
var AutoHeight = Dimension{Auto: true}

func (d Dimension) MarshalJSON() ([]byte, error) {
	if d.Auto {
		return []byte(`"auto"`), nil
	}
	return json.Marshal(d.Value)
}

func (d *Dimension) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte(`"auto"`)) {
		*d = AutoHeight
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fmt.Errorf("dimension must be a number or \"auto\": %w", err)
	}
	*d = Percent(v)
	return nil
}

// ElementStyle - необязательный набор свойств отрисовки элемента.
type ElementStyle struct {
	FontSize        float64 `json:"fontSize,omitempty"`
	FontWeight      string  `json:"fontWeight,omitempty"`
	Color           string  `json:"color,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	ZIndex          int     `json:"zIndex"`
	BorderRadius    float64 `json:"borderRadius,omitempty"`
	FontFamily      string  `json:"fontFamily,omitempty"`
	TextAlign       string  `json:"textAlign,omitempty"`
}

// SlideElement - позиционированный объект на холсте слайда.
// Координаты и размеры заданы в процентах ширины/высоты слайда.
type SlideElement struct {
	ID       string        `json:"id"`
	Type     ElementType   `json:"type"`
	Content  string        `json:"content"` // Текст для text, ссылка для image, не используется для shape
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	Width    float64       `json:"width"`
	Height   Dimension     `json:"height"`
	Rotation *float64      `json:"rotation,omitempty"` // Градусы
	Style    *ElementStyle `json:"style,omitempty"`
}

// Clone возвращает глубокую копию элемента.
func (e SlideElement) Clone() SlideElement {
	if e.Rotation != nil {
		r := *e.Rotation
		e.Rotation = &r
	}
	if e.Style != nil {
		st := *e.Style
		e.Style = &st
	}
	return e
}

// ZIndex возвращает порядок наложения (0, если стиль не задан).
func (e SlideElement) ZIndex() int {
	if e.Style == nil {
		return 0
	}
	return e.Style.ZIndex
}

func cloneElements(in []SlideElement) []SlideElement {
	if in == nil {
		return nil
	}
	out := make([]SlideElement, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
