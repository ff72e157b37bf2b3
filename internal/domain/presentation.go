package domain

import (
	"encoding/json"
	"strings"
)

// ImageStatus - состояние иллюстрации слайда.
type ImageStatus string

const (
	ImageNotRequested ImageStatus = "not_requested"
	ImagePending      ImageStatus = "pending"
	ImageReady        ImageStatus = "ready"
	ImageFailed       ImageStatus = "failed"
)

// ImageState явно различает "не запрашивали", "в работе", "готово" и "ошибка".
// Во внешнем JSON сохраняется прежний контракт поля imageUrl:
// отсутствует для NotRequested/Failed, пустая строка для Pending, ссылка для Ready.
type ImageState struct {
	Status ImageStatus
	Ref    string
}

func ImageNone() ImageState            { return ImageState{Status: ImageNotRequested} }
func ImageInFlight() ImageState        { return ImageState{Status: ImagePending} }
func ImageFailure() ImageState         { return ImageState{Status: ImageFailed} }
func ImageAt(ref string) ImageState    { return ImageState{Status: ImageReady, Ref: ref} }
func (s ImageState) Ready() bool       { return s.Status == ImageReady && s.Ref != "" }
func (s ImageState) IsPending() bool   { return s.Status == ImagePending }
func (s ImageState) Requested() bool   { return s.Status != ImageNotRequested && s.Status != "" }
func (s ImageState) Unavailable() bool { return !s.Ready() }

// URL возвращает значение для поля imageUrl и признак его наличия.
func (s ImageState) URL() (string, bool) {
	switch s.Status {
	case ImageReady:
		return s.Ref, true
	case ImagePending:
		return "", true
	default:
		return "", false
	}
}

// Slide - одна страница колоды.
type Slide struct {
	ID           string
	Layout       Layout
	Title        string
	Subtitle     *string
	Content      []string
	VisualPrompt *string
	Image        ImageState
	SpeakerNotes string
	Elements     []SlideElement // nil - слайд ещё не переведён в свободный режим
}

// HasVisualPrompt сообщает, нужна ли слайду иллюстрация.
func (s Slide) HasVisualPrompt() bool {
	return s.VisualPrompt != nil && strings.TrimSpace(*s.VisualPrompt) != ""
}

// SubtitleText возвращает подзаголовок или пустую строку.
func (s Slide) SubtitleText() string {
	if s.Subtitle == nil {
		return ""
	}
	return *s.Subtitle
}

// Hydrated сообщает, есть ли у слайда свободный холст.
func (s Slide) Hydrated() bool { return s.Elements != nil }

// ElementIndex возвращает индекс элемента или -1.
func (s Slide) ElementIndex(id string) int {
	for i, e := range s.Elements {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Clone возвращает глубокую копию слайда.
func (s Slide) Clone() Slide {
	s.Subtitle = cloneString(s.Subtitle)
	s.VisualPrompt = cloneString(s.VisualPrompt)
	if s.Content != nil {
		content := make([]string, len(s.Content))
		copy(content, s.Content)
		s.Content = content
	} else {
		s.Content = []string{}
	}
	s.Elements = cloneElements(s.Elements)
	return s
}

type slideJSON struct {
	ID           string         `json:"id"`
	Layout       Layout         `json:"layout"`
	Title        string         `json:"title"`
	Subtitle     *string        `json:"subtitle,omitempty"`
	Content      []string       `json:"content"`
	VisualPrompt *string        `json:"visualPrompt,omitempty"`
	ImageURL     *string        `json:"imageUrl,omitempty"`
	ImageStatus  ImageStatus    `json:"imageStatus,omitempty"`
	SpeakerNotes string         `json:"speakerNotes"`
	Elements     []SlideElement `json:"elements,omitempty"`
}

func (s Slide) MarshalJSON() ([]byte, error) {
	out := slideJSON{
		ID:           s.ID,
		Layout:       s.Layout,
		Title:        s.Title,
		Subtitle:     s.Subtitle,
		Content:      s.Content,
		VisualPrompt: s.VisualPrompt,
		ImageStatus:  s.Image.Status,
		SpeakerNotes: s.SpeakerNotes,
		Elements:     s.Elements,
	}
	if out.Content == nil {
		out.Content = []string{}
	}
	if out.ImageStatus == "" {
		out.ImageStatus = ImageNotRequested
	}
	if url, ok := s.Image.URL(); ok {
		out.ImageURL = &url
	}
	return json.Marshal(out)
}

func (s *Slide) UnmarshalJSON(data []byte) error {
	var in slideJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Slide{
		ID:           in.ID,
		Layout:       ParseLayout(string(in.Layout)),
		Title:        in.Title,
		Subtitle:     in.Subtitle,
		Content:      in.Content,
		VisualPrompt: in.VisualPrompt,
		SpeakerNotes: in.SpeakerNotes,
		Elements:     in.Elements,
	}
	if s.Content == nil {
		s.Content = []string{}
	}
	switch {
	case in.ImageStatus == ImageReady && in.ImageURL != nil:
		s.Image = ImageAt(*in.ImageURL)
	case in.ImageStatus != "" && in.ImageStatus != ImageReady:
		s.Image = ImageState{Status: in.ImageStatus}
	case in.ImageURL == nil:
		s.Image = ImageNone()
	case *in.ImageURL == "":
		s.Image = ImageInFlight()
	default:
		s.Image = ImageAt(*in.ImageURL)
	}
	return nil
}

// Presentation - корневой агрегат колоды.
// Изменяется только заменой целого значения через хранилище.
type Presentation struct {
	Title  string            `json:"title"`
	Slides []Slide           `json:"slides"`
	Style  PresentationStyle `json:"style"`
}

// Clone возвращает глубокую копию колоды.
func (p Presentation) Clone() Presentation {
	if p.Slides != nil {
		slides := make([]Slide, len(p.Slides))
		for i, s := range p.Slides {
			slides[i] = s.Clone()
		}
		p.Slides = slides
	}
	p.Style.PrimaryColor = cloneString(p.Style.PrimaryColor)
	return p
}

// SlideIndex возвращает индекс слайда или -1.
func (p Presentation) SlideIndex(id string) int {
	for i, s := range p.Slides {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Slide возвращает копию слайда по идентификатору.
func (p Presentation) Slide(id string) (Slide, error) {
	idx := p.SlideIndex(id)
	if idx < 0 {
		return Slide{}, ErrSlideNotFound
	}
	return p.Slides[idx].Clone(), nil
}

// WithSlide возвращает новую колоду, в которой слайд с тем же ID заменён на s.
// Исходное значение не меняется.
func (p Presentation) WithSlide(s Slide) (Presentation, error) {
	idx := p.SlideIndex(s.ID)
	if idx < 0 {
		return p, ErrSlideNotFound
	}
	next := p.Clone()
	next.Slides[idx] = s.Clone()
	return next, nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr - вспомогательная функция для необязательных строк.
func StringPtr(s string) *string { return &s }
