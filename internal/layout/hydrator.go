// Package layout разворачивает семантический слайд (шаблон + текст)
// в набор позиционированных элементов свободного холста.
package layout

import (
	"fmt"

	"deck-server/internal/domain"
)

// Параметры сетки в процентах слайда.
const (
	marginX       = 5.0
	titleY        = 8.0
	bodyTop       = 28.0
	halfWidth     = 42.0
	columnWidth   = 43.0
	columnBX      = 52.0
	bulletStep    = 10.0
	bulletRowStep = 16.0
	stackStep     = 8.0
	quoteMark     = "“"
	attribution   = "— "
)

// Hydrate возвращает элементы для слайда. Функция чистая: результат зависит
// только от аргумента, аргумент не изменяется, повторный вызов даёт
// равный по значению результат.
func Hydrate(slide domain.Slide) []domain.SlideElement {
	b := builder{slideID: slide.ID}

	switch slide.Layout {
	case domain.LayoutTitle:
		b.titleSlide(slide)
	case domain.LayoutContentLeft:
		b.contentSlide(slide, false)
	case domain.LayoutContentRight:
		b.contentSlide(slide, true)
	case domain.LayoutBullets:
		b.bulletsSlide(slide)
	case domain.LayoutQuote:
		b.quoteSlide(slide)
	case domain.LayoutData, domain.LayoutProcess:
		b.genericSlide(slide)
	default:
		// Неизвестный шаблон не должен ломать отрисовку
		b.genericSlide(slide)
	}
	return b.elements
}

// Ensure возвращает слайд со свободным холстом, гидратируя его при необходимости.
// Уже гидратированный слайд возвращается без изменений (копией).
func Ensure(slide domain.Slide) domain.Slide {
	out := slide.Clone()
	if !out.Hydrated() {
		out.Elements = Hydrate(slide)
	}
	return out
}

// Rehydrate заново строит холст слайда, отбрасывая ручные правки.
func Rehydrate(slide domain.Slide) domain.Slide {
	out := slide.Clone()
	out.Elements = Hydrate(slide)
	return out
}

// HydrateAll переводит всю колоду в свободный режим.
// Слайды, у которых холст уже есть, не трогаются.
func HydrateAll(p domain.Presentation) domain.Presentation {
	next := p.Clone()
	for i := range next.Slides {
		next.Slides[i] = Ensure(next.Slides[i])
	}
	return next
}

type builder struct {
	slideID  string
	elements []domain.SlideElement
}

func (b *builder) id(role string, idx int) string {
	if idx < 0 {
		return fmt.Sprintf("%s-%s", b.slideID, role)
	}
	return fmt.Sprintf("%s-%s-%d", b.slideID, role, idx)
}

func (b *builder) text(id, content string, x, y, w, fontSize float64, weight, align string) {
	b.elements = append(b.elements, domain.SlideElement{
		ID:      id,
		Type:    domain.ElementText,
		Content: content,
		X:       x,
		Y:       y,
		Width:   w,
		Height:  domain.AutoHeight,
		Style: &domain.ElementStyle{
			FontSize:   fontSize,
			FontWeight: weight,
			ZIndex:     domain.ZIndexText,
			TextAlign:  align,
		},
	})
}

// background - картинка на весь слайд под текстом.
func (b *builder) background(ref string) {
	b.image(b.id("background", -1), ref, 0, 0, 100, 100)
}

// figure - картинка по центру общего шаблона.
func (b *builder) figure(ref string) {
	b.image(b.id("image", -1), ref, 25, 22, 50, 40)
}

func (b *builder) image(id, ref string, x, y, w, h float64) {
	b.elements = append(b.elements, domain.SlideElement{
		ID:      id,
		Type:    domain.ElementImage,
		Content: ref,
		X:       x,
		Y:       y,
		Width:   w,
		Height:  domain.Percent(h),
		Style:   &domain.ElementStyle{ZIndex: domain.ZIndexImage},
	})
}

// titleSlide: фоновая картинка на весь слайд (если есть), заголовок по центру
// и подзаголовок под ним.
func (b *builder) titleSlide(s domain.Slide) {
	if ref, ok := s.Image.URL(); ok {
		b.background(ref)
	}
	b.text(b.id("title", -1), s.Title, 10, 35, 80, 56, "bold", "center")
	if sub := s.SubtitleText(); sub != "" {
		b.text(b.id("subtitle", -1), sub, 15, 55, 70, 24, "normal", "center")
	}
}

// contentSlide: текст в одной половине, картинка в другой.
// CONTENT_RIGHT - зеркальное отражение CONTENT_LEFT по горизонтали.
func (b *builder) contentSlide(s domain.Slide, mirrored bool) {
	place := func(x, w float64) float64 {
		if mirrored {
			return 100 - x - w
		}
		return x
	}
	ref, _ := s.Image.URL()
	b.image(b.id("image", -1), ref, place(52, 48), 0, 48, 100)
	b.text(b.id("title", -1), s.Title, place(marginX, halfWidth), titleY, halfWidth, 40, "bold", "left")
	for i, item := range s.Content {
		y := bodyTop + float64(i)*bulletStep
		b.text(b.id("bullet", i), item, place(marginX, halfWidth), y, halfWidth, 20, "normal", "left")
	}
}

// bulletsSlide: заголовок и пункты в две колонки; колонка по чётности
// индекса, новая строка через каждые два пункта.
func (b *builder) bulletsSlide(s domain.Slide) {
	b.text(b.id("title", -1), s.Title, marginX, titleY, 90, 40, "bold", "left")
	for i, item := range s.Content {
		x := marginX
		if i%2 == 1 {
			x = columnBX
		}
		y := bodyTop + float64(i/2)*bulletRowStep
		b.text(b.id("bullet", i), item, x, y, columnWidth, 20, "normal", "left")
	}
}

// quoteSlide: декоративная кавычка, текст цитаты (только первый пункт)
// и подпись из подзаголовка, выровненная вправо.
func (b *builder) quoteSlide(s domain.Slide) {
	b.text(b.id("quote-mark", -1), quoteMark, 8, 8, 15, 160, "bold", "left")
	quote := ""
	if len(s.Content) > 0 {
		quote = s.Content[0]
	}
	b.text(b.id("quote", -1), quote, 15, 30, 70, 36, "normal", "center")
	if sub := s.SubtitleText(); sub != "" {
		b.text(b.id("attribution", -1), attribution+sub, 15, 70, 70, 20, "normal", "right")
	}
}

// genericSlide: заголовок, картинка (если есть) и пункты столбиком под ней.
func (b *builder) genericSlide(s domain.Slide) {
	b.text(b.id("title", -1), s.Title, marginX, titleY, 90, 40, "bold", "left")
	top := 24.0
	if ref, ok := s.Image.URL(); ok {
		b.figure(ref)
		top = 66
	}
	for i, item := range s.Content {
		b.text(b.id("item", i), item, marginX, top+float64(i)*stackStep, 90, 18, "normal", "left")
	}
}

// ApplyImage записывает ссылку на картинку в слайд. Если холст уже создан,
// обновляются и его элементы-картинки, созданные гидратором. Холст шаблона,
// который рисует картинку только при её наличии (TITLE и общий шаблон),
// получает новый элемент в геометрии шаблона; остальные элементы не меняются.
func ApplyImage(slide domain.Slide, ref string) domain.Slide {
	out := slide.Clone()
	out.Image = domain.ImageAt(ref)
	if !out.Hydrated() {
		return out
	}
	b := builder{slideID: out.ID}
	roles := map[string]bool{b.id("image", -1): true, b.id("background", -1): true}
	found := false
	for i := range out.Elements {
		if out.Elements[i].Type == domain.ElementImage && roles[out.Elements[i].ID] {
			out.Elements[i].Content = ref
			found = true
		}
	}
	if !found {
		out.Elements = insertTemplateImage(out, ref)
	}
	return out
}

// insertTemplateImage добавляет картинку на холст, созданный до её появления.
// В CONTENT_* элемент картинки создаётся всегда, и его отсутствие значит,
// что пользователь его удалил.
func insertTemplateImage(s domain.Slide, ref string) []domain.SlideElement {
	b := builder{slideID: s.ID}
	at := 0
	switch s.Layout {
	case domain.LayoutTitle:
		b.background(ref)
	case domain.LayoutContentLeft, domain.LayoutContentRight, domain.LayoutBullets, domain.LayoutQuote:
		return s.Elements
	default:
		b.figure(ref)
		if idx := s.ElementIndex(b.id("title", -1)); idx >= 0 {
			at = idx + 1
		}
	}
	out := make([]domain.SlideElement, 0, len(s.Elements)+len(b.elements))
	out = append(out, s.Elements[:at]...)
	out = append(out, b.elements...)
	return append(out, s.Elements[at:]...)
}
