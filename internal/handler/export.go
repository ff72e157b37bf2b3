package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"deck-server/internal/domain"
	"deck-server/internal/export"
	"deck-server/internal/notify"
	"deck-server/internal/render"
	"deck-server/internal/store"
)

// exportJSON отдаёт колоду файлом. Параметры: slides=a,b (подмножество),
// elements=false (без холста), notes=false (без заметок докладчика).
func (h *DeckHandler) exportJSON(c *gin.Context) {
	p := h.store.Presentation()
	if p == nil {
		handleServiceError(c, domain.ErrNoPresentation)
		return
	}

	opts := export.Full()
	if ids := strings.TrimSpace(c.Query("slides")); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				opts.SlideIDs = append(opts.SlideIDs, id)
			}
		}
	}
	var err error
	if opts.IncludeElements, err = boolQuery(c, "elements", true); err != nil {
		handleServiceError(c, err)
		return
	}
	if opts.IncludeSpeakerNotes, err = boolQuery(c, "notes", true); err != nil {
		handleServiceError(c, err)
		return
	}

	data, err := export.JSON(*p, opts)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(p.Title, "json")))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// exportSlidePNG рисует превью слайда: /api/export/slides/<id>.png?width=1280.
func (h *DeckHandler) exportSlidePNG(c *gin.Context) {
	slideID := strings.TrimSuffix(c.Param("file"), ".png")
	p := h.store.Presentation()
	if p == nil {
		handleServiceError(c, domain.ErrNoPresentation)
		return
	}
	slide, err := p.Slide(slideID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	width := render.DefaultWidth
	if raw := c.Query("width"); raw != "" {
		if width, err = strconv.Atoi(raw); err != nil {
			badRequest(c, "width must be an integer")
			return
		}
	}

	data, err := render.SlidePNG(slide, p.Style, width)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	name := fmt.Sprintf("%s-%02d.png", export.Slug(p.Title), p.SlideIndex(slideID)+1)
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, name))
	c.Data(http.StatusOK, "image/png", data)
}

// serveWS подключает клиента к потоку событий. Первым сообщением клиент
// получает текущую колоду и статус.
func (h *DeckHandler) serveWS(c *gin.Context) {
	ev := store.Event{Kind: store.EventStatus, Version: h.store.Version(), Status: h.store.Status()}
	if p, version, ok := h.store.Snapshot(); ok {
		ev = store.Event{Kind: store.EventPresentation, Version: version, Presentation: &p, Status: h.store.Status()}
	}
	h.hub.ServeWS(c.Writer, c.Request, notify.InitialMessage(ev))
}

func boolQuery(c *gin.Context, key string, def bool) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidArgument, key)
	}
	return v, nil
}
