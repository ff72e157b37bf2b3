// Package render рисует превью слайда в PNG. Слайд при этом гидратируется
// только для отрисовки, колода не меняется.
package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	_ "golang.org/x/image/webp"

	"deck-server/internal/domain"
	"deck-server/internal/layout"
)

const (
	// DefaultWidth - ширина превью по умолчанию.
	DefaultWidth = 1280
	MinWidth     = 160
	MaxWidth     = 3840

	// Размеры шрифтов элементов заданы для слайда шириной 1920px.
	referenceWidth = 1920.0
	lineSpacing    = 1.25
)

// Palette - цвета темы.
type Palette struct {
	Background  string
	Text        string
	Accent      string
	Placeholder string
}

var palettes = map[domain.Theme]Palette{
	domain.ThemeModern:  {Background: "#ffffff", Text: "#1f2937", Accent: "#2563eb", Placeholder: "#e5e7eb"},
	domain.ThemeElegant: {Background: "#fdfaf5", Text: "#3b2f2f", Accent: "#a16207", Placeholder: "#eee4d6"},
	domain.ThemeTech:    {Background: "#0f172a", Text: "#e2e8f0", Accent: "#22d3ee", Placeholder: "#1e293b"},
	domain.ThemeMinimal: {Background: "#fafafa", Text: "#111111", Accent: "#111111", Placeholder: "#ededed"},
}

// PaletteFor возвращает палитру темы с учётом переопределения основного цвета.
func PaletteFor(style domain.PresentationStyle) Palette {
	p, ok := palettes[style.Theme]
	if !ok {
		p = palettes[domain.ThemeModern]
	}
	if style.PrimaryColor != nil && validHex(*style.PrimaryColor) {
		p.Accent = *style.PrimaryColor
	}
	return p
}

var (
	fontsOnce sync.Once
	regular   *truetype.Font
	bold      *truetype.Font
	fontsErr  error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regular, fontsErr = truetype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		bold, fontsErr = truetype.Parse(gobold.TTF)
	})
	return fontsErr
}

// SlidePNG рисует слайд шириной width пикселей (16:9).
func SlidePNG(slide domain.Slide, style domain.PresentationStyle, width int) ([]byte, error) {
	if width == 0 {
		width = DefaultWidth
	}
	if width < MinWidth || width > MaxWidth {
		return nil, fmt.Errorf("%w: width must be between %d and %d", domain.ErrInvalidArgument, MinWidth, MaxWidth)
	}
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	style = style.Normalize()
	palette := PaletteFor(style)
	height := width * 9 / 16
	dc := gg.NewContext(width, height)
	dc.SetHexColor(palette.Background)
	dc.Clear()

	hydrated := layout.Ensure(slide)
	elements := make([]domain.SlideElement, len(hydrated.Elements))
	copy(elements, hydrated.Elements)
	sort.SliceStable(elements, func(i, j int) bool { return elements[i].ZIndex() < elements[j].ZIndex() })

	r := renderer{
		dc:      dc,
		w:       float64(width),
		h:       float64(height),
		palette: palette,
		scale:   style.FontScale * float64(width) / referenceWidth,
	}
	for _, e := range elements {
		r.element(e)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

type renderer struct {
	dc      *gg.Context
	w, h    float64
	palette Palette
	scale   float64
}

func (r renderer) element(e domain.SlideElement) {
	x, y := e.X/100*r.w, e.Y/100*r.h
	w := e.Width / 100 * r.w
	h := e.Height.Value / 100 * r.h

	r.dc.Push()
	defer r.dc.Pop()
	if e.Rotation != nil && *e.Rotation != 0 {
		cx := x + w/2
		cy := y + h/2
		r.dc.RotateAbout(gg.Radians(*e.Rotation), cx, cy)
	}

	switch e.Type {
	case domain.ElementImage:
		r.image(e.Content, x, y, w, h)
	case domain.ElementShape:
		r.shape(e, x, y, w, h)
	default:
		r.text(e, x, y, w)
	}
}

func (r renderer) image(ref string, x, y, w, h float64) {
	img, err := DecodeDataURL(ref)
	if err != nil || w <= 0 || h <= 0 {
		r.dc.SetHexColor(r.palette.Placeholder)
		r.dc.DrawRectangle(x, y, w, h)
		r.dc.Fill()
		return
	}
	// Заполнение с обрезкой по центру, как object-fit: cover
	b := img.Bounds()
	sx := w / float64(b.Dx())
	sy := h / float64(b.Dy())
	s := sx
	if sy > s {
		s = sy
	}
	r.dc.DrawRectangle(x, y, w, h)
	r.dc.Clip()
	r.dc.Translate(x+w/2, y+h/2)
	r.dc.Scale(s, s)
	r.dc.DrawImageAnchored(img, 0, 0, 0.5, 0.5)
	r.dc.ResetClip()
}

func (r renderer) shape(e domain.SlideElement, x, y, w, h float64) {
	fill := r.palette.Accent
	radius := 0.0
	if e.Style != nil {
		if validHex(e.Style.BackgroundColor) {
			fill = e.Style.BackgroundColor
		}
		radius = e.Style.BorderRadius / 100 * r.w
	}
	r.dc.SetHexColor(fill)
	r.dc.DrawRoundedRectangle(x, y, w, h, radius)
	r.dc.Fill()
}

func (r renderer) text(e domain.SlideElement, x, y, w float64) {
	if strings.TrimSpace(e.Content) == "" {
		return
	}
	size := 20.0
	f := regular
	color := r.palette.Text
	align := gg.AlignLeft
	if e.Style != nil {
		if e.Style.FontSize > 0 {
			size = e.Style.FontSize
		}
		if e.Style.FontWeight == "bold" {
			f = bold
			color = r.palette.Accent
		}
		if validHex(e.Style.Color) {
			color = e.Style.Color
		}
		switch e.Style.TextAlign {
		case "center":
			align = gg.AlignCenter
		case "right":
			align = gg.AlignRight
		}
	}
	px := size * r.scale
	if px < 1 {
		px = 1
	}
	face := truetype.NewFace(f, &truetype.Options{Size: px, DPI: 72, Hinting: font.HintingFull})
	defer face.Close()

	r.dc.SetFontFace(face)
	r.dc.SetHexColor(color)
	r.dc.DrawStringWrapped(e.Content, x, y, 0, 0, w, lineSpacing, align)
}

// DecodeDataURL декодирует ссылку вида data:<mime>;base64,<data>.
func DecodeDataURL(ref string) (image.Image, error) {
	if !strings.HasPrefix(ref, "data:") {
		return nil, errors.New("not a data url")
	}
	comma := strings.IndexByte(ref, ',')
	if comma < 0 || !strings.HasSuffix(ref[:comma], ";base64") {
		return nil, errors.New("data url is not base64 encoded")
	}
	raw, err := base64.StdEncoding.DecodeString(ref[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func validHex(s string) bool {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 3 && len(s) != 6 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
