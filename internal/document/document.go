// Package document готовит загруженный файл к передаче генератору структуры:
// определяет тип, извлекает текст из PDF и текстовых форматов, оставляет
// байты картинок для мультимодального запроса.
package document

import (
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"

	"deck-server/internal/domain"
)

// Upload - файл в том виде, в каком его прислал клиент.
type Upload struct {
	Filename  string
	MediaType string // Заявленный тип, может быть пустым
	Data      []byte
}

// Payload - подготовленный документ.
type Payload struct {
	Filename  string
	MediaType string
	Bytes     []byte
	Text      string // Пусто для картинок
	Pages     int    // Только для PDF
	Truncated bool
}

// IsImage - документ передаётся модели как картинка.
func (p *Payload) IsImage() bool {
	return p != nil && strings.HasPrefix(p.MediaType, "image/")
}

// Limits - ограничения на документ.
type Limits struct {
	MaxBytes     int64
	MaxTextChars int
}

const (
	mediaPDF         = "application/pdf"
	mediaOctetStream = "application/octet-stream"
)

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

var textTypes = map[string]bool{
	"application/json":     true,
	"application/xml":      true,
	"application/x-yaml":   true,
	"application/markdown": true,
}

// Prepare проверяет и преобразует загрузку.
func Prepare(upload Upload, limits Limits) (*Payload, error) {
	if len(upload.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file %q", domain.ErrDocumentEncoding, upload.Filename)
	}
	if limits.MaxBytes > 0 && int64(len(upload.Data)) > limits.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", domain.ErrDocumentTooLarge, len(upload.Data), limits.MaxBytes)
	}

	mediaType := DetectMediaType(upload.MediaType, upload.Data)
	payload := &Payload{Filename: upload.Filename, MediaType: mediaType, Bytes: upload.Data}

	switch {
	case mediaType == mediaPDF:
		text, pages, err := extractPDFText(upload.Data)
		if err != nil {
			return nil, err
		}
		payload.Text = text
		payload.Pages = pages
	case imageTypes[mediaType]:
		// Текста нет, модель получает картинку целиком
	case strings.HasPrefix(mediaType, "text/") || textTypes[mediaType]:
		if !utf8.Valid(upload.Data) {
			return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrDocumentEncoding, upload.Filename)
		}
		payload.Text = strings.TrimPrefix(string(upload.Data), "\ufeff")
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, mediaType)
	}

	payload.Text, payload.Truncated = truncateRunes(payload.Text, limits.MaxTextChars)
	return payload, nil
}

// DetectMediaType возвращает тип документа без параметров. Заявленный тип
// используется, если он конкретный, иначе тип определяется по содержимому.
func DetectMediaType(declared string, data []byte) string {
	if mt := baseMediaType(declared); mt != "" && mt != mediaOctetStream {
		return mt
	}
	return baseMediaType(mimetype.Detect(data).String())
}

func baseMediaType(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(s, ";", 2)[0]))
	}
	return mt
}

func extractPDFText(data []byte) (string, int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", 0, fmt.Errorf("%w: failed to open PDF: %v", domain.ErrDocumentEncoding, err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return "", 0, fmt.Errorf("%w: PDF has no pages", domain.ErrDocumentEncoding)
	}

	pages := make([]string, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", 0, fmt.Errorf("%w: failed to extract page %d: %v", domain.ErrDocumentEncoding, i+1, err)
		}
		if t := strings.TrimSpace(text); t != "" {
			pages = append(pages, t)
		}
	}
	return strings.Join(pages, "\n\n"), pageCount, nil
}

func truncateRunes(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:max]), true
}
