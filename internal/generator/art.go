package generator

import (
	"fmt"
	"regexp"
	"strings"

	"deck-server/internal/domain"
)

// Пресеты стиля иллюстраций.
var stylePresets = map[domain.VisualStyle]string{
	domain.VisualPhotorealistic:    "photorealistic, cinematic lighting, high detail, professional photography",
	domain.VisualMinimalVector:     "minimal flat vector illustration, clean shapes, limited color palette, plenty of negative space",
	domain.VisualHandDrawn:         "hand-drawn sketch illustration, ink and watercolor, organic lines, warm paper texture",
	domain.VisualIsometric3D:       "isometric 3D render, soft global illumination, clay materials, pastel colors",
	domain.VisualAbstractGeometric: "abstract geometric composition, bold shapes, gradients, modern art",
}

// Переопределения по ключевым словам в описании слайда.
const (
	directionUIMockup    = "high-fidelity UI mockup, clean modern interface on a device screen, crisp typography, flat design, soft shadows"
	directionInfographic = "clean infographic illustration, clear visual hierarchy, simple charts and icons, minimal labels"
	directionEditorial   = "editorial photograph, natural light, candid composition, shallow depth of field"
)

var (
	uiKeywords     = regexp.MustCompile(`\b(ui|ux|dashboard|dashboards|interface|interfaces|app|apps|screen|screens|website|wireframe)\b`)
	dataKeywords   = regexp.MustCompile(`\b(chart|charts|graph|graphs|data|metric|metrics|statistics|kpi|kpis)\b`)
	peopleKeywords = regexp.MustCompile(`\b(team|teams|people|person|portrait|customer|customers|founder|founders)\b`)
)

// ArtDirection выбирает указание стиля для иллюстрации. Ключевые слова
// в описании имеют приоритет над стилем колоды: интерфейсы всегда рисуются
// как макет UI, данные - как инфографика; люди в фотореалистичном стиле -
// как редакционное фото.
func ArtDirection(prompt string, style domain.VisualStyle) string {
	lower := strings.ToLower(prompt)
	switch {
	case uiKeywords.MatchString(lower):
		return directionUIMockup
	case dataKeywords.MatchString(lower):
		return directionInfographic
	case style == domain.VisualPhotorealistic && peopleKeywords.MatchString(lower):
		return directionEditorial
	}
	if preset, ok := stylePresets[style]; ok {
		return preset
	}
	return stylePresets[domain.DefaultStyle().VisualStyle]
}

// BuildImagePrompt собирает итоговый промпт для сервера изображений.
func BuildImagePrompt(subject, direction, ratio string) string {
	if ratio == "" {
		ratio = DefaultAspectRatio
	}
	subject = strings.TrimSpace(subject)
	if direction == "" {
		return fmt.Sprintf("%s. Aspect ratio %s. No text, no watermarks.", subject, ratio)
	}
	return fmt.Sprintf("%s. Style: %s. Aspect ratio %s. No text, no watermarks.", subject, direction, ratio)
}
