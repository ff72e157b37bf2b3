// Package export сериализует колоду в переносимый JSON.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"deck-server/internal/domain"
)

const maxSlugLength = 60

// Options управляет составом выгрузки.
type Options struct {
	SlideIDs            []string // Пусто - все слайды в порядке колоды
	IncludeElements     bool
	IncludeSpeakerNotes bool
}

// Full - выгрузка со всеми полями.
func Full() Options {
	return Options{IncludeElements: true, IncludeSpeakerNotes: true}
}

// Select возвращает копию колоды с учётом opts.
// Неизвестный идентификатор слайда - domain.ErrSlideNotFound.
func Select(p domain.Presentation, opts Options) (domain.Presentation, error) {
	out := p.Clone()
	if len(opts.SlideIDs) > 0 {
		wanted := make(map[string]bool, len(opts.SlideIDs))
		for _, id := range opts.SlideIDs {
			if p.SlideIndex(id) < 0 {
				return domain.Presentation{}, fmt.Errorf("%w: %s", domain.ErrSlideNotFound, id)
			}
			wanted[id] = true
		}
		filtered := make([]domain.Slide, 0, len(wanted))
		for _, s := range out.Slides {
			if wanted[s.ID] {
				filtered = append(filtered, s)
			}
		}
		out.Slides = filtered
	}
	if out.Slides == nil {
		out.Slides = []domain.Slide{}
	}
	for i := range out.Slides {
		if !opts.IncludeElements {
			out.Slides[i].Elements = nil
		}
		if !opts.IncludeSpeakerNotes {
			out.Slides[i].SpeakerNotes = ""
		}
	}
	return out, nil
}

// JSON возвращает колоду в виде JSON с отступами.
func JSON(p domain.Presentation, opts Options) ([]byte, error) {
	selected, err := Select(p, opts)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(selected, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal presentation: %w", err)
	}
	return data, nil
}

// Parse читает ранее выгруженную колоду.
func Parse(data []byte) (domain.Presentation, error) {
	var p domain.Presentation
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Presentation{}, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	if p.Slides == nil {
		p.Slides = []domain.Slide{}
	}
	p.Style = p.Style.Normalize()
	return p, nil
}

// Slug превращает заголовок в имя файла: латиница и цифры в нижнем регистре,
// остальное схлопывается в дефисы.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= maxSlugLength {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "presentation"
	}
	return slug
}

// Filename - имя файла выгрузки с расширением ext (без точки).
func Filename(title, ext string) string {
	return Slug(title) + "." + strings.TrimPrefix(ext, ".")
}
