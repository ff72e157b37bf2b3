package domain

import "strings"

// Theme - визуальная тема колоды.
type Theme string

const (
	ThemeModern  Theme = "modern"
	ThemeElegant Theme = "elegant"
	ThemeTech    Theme = "tech"
	ThemeMinimal Theme = "minimal"
)

// Valid проверяет, что тема входит в перечисление.
func (t Theme) Valid() bool {
	switch t {
	case ThemeModern, ThemeElegant, ThemeTech, ThemeMinimal:
		return true
	}
	return false
}

// VisualStyle управляет арт-дирекшеном запросов к генератору изображений.
type VisualStyle string

const (
	VisualPhotorealistic    VisualStyle = "photorealistic"
	VisualMinimalVector     VisualStyle = "minimal-vector"
	VisualHandDrawn         VisualStyle = "hand-drawn"
	VisualIsometric3D       VisualStyle = "isometric-3d"
	VisualAbstractGeometric VisualStyle = "abstract-geometric"
)

// Valid проверяет, что стиль входит в перечисление.
func (v VisualStyle) Valid() bool {
	switch v {
	case VisualPhotorealistic, VisualMinimalVector, VisualHandDrawn, VisualIsometric3D, VisualAbstractGeometric:
		return true
	}
	return false
}

const (
	MinFontScale     = 0.8
	MaxFontScale     = 1.2
	DefaultFontScale = 1.0
)

// PresentationStyle - настройки отрисовки всей колоды.
type PresentationStyle struct {
	Theme        Theme       `json:"theme"`
	PrimaryColor *string     `json:"primaryColor,omitempty"` // Переопределение основного цвета
	FontScale    float64     `json:"fontScale"`              // Множитель 0.8–1.2
	VisualStyle  VisualStyle `json:"visualStyle"`
}

// DefaultStyle возвращает стиль новой колоды.
func DefaultStyle() PresentationStyle {
	return PresentationStyle{
		Theme:       ThemeModern,
		FontScale:   DefaultFontScale,
		VisualStyle: VisualPhotorealistic,
	}
}

// Normalize приводит стиль к допустимым значениям.
func (s PresentationStyle) Normalize() PresentationStyle {
	s.Theme = Theme(strings.ToLower(strings.TrimSpace(string(s.Theme))))
	if !s.Theme.Valid() {
		s.Theme = ThemeModern
	}
	s.VisualStyle = VisualStyle(strings.ToLower(strings.TrimSpace(string(s.VisualStyle))))
	if !s.VisualStyle.Valid() {
		s.VisualStyle = VisualPhotorealistic
	}
	switch {
	case s.FontScale == 0:
		s.FontScale = DefaultFontScale
	case s.FontScale < MinFontScale:
		s.FontScale = MinFontScale
	case s.FontScale > MaxFontScale:
		s.FontScale = MaxFontScale
	}
	if s.PrimaryColor != nil {
		c := *s.PrimaryColor
		s.PrimaryColor = &c
	}
	return s
}
