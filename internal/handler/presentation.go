package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"deck-server/internal/domain"
	"deck-server/internal/layout"
)

type presentationResponse struct {
	Presentation domain.Presentation `json:"presentation"`
	Version      uint64              `json:"version"`
}

type styleRequest struct {
	Theme        *string  `json:"theme"`
	FontScale    *float64 `json:"fontScale"`
	VisualStyle  *string  `json:"visualStyle"`
	PrimaryColor *string  `json:"primaryColor"` // Пустая строка сбрасывает переопределение
}

func (h *DeckHandler) getPresentation(c *gin.Context) {
	p, version, ok := h.store.Snapshot()
	if !ok {
		handleServiceError(c, domain.ErrNoPresentation)
		return
	}
	c.JSON(http.StatusOK, presentationResponse{Presentation: p, Version: version})
}

func (h *DeckHandler) getSlide(c *gin.Context) {
	p := h.store.Presentation()
	if p == nil {
		handleServiceError(c, domain.ErrNoPresentation)
		return
	}
	slide, err := p.Slide(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, slide)
}

// updateStyle меняет настройки отрисовки колоды. Масштаб шрифта
// приводится к допустимому диапазону.
func (h *DeckHandler) updateStyle(c *gin.Context) {
	var req styleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	p, err := h.store.Update(func(p domain.Presentation) (domain.Presentation, error) {
		style := p.Style
		if req.Theme != nil {
			theme := domain.Theme(strings.ToLower(strings.TrimSpace(*req.Theme)))
			if !theme.Valid() {
				return p, fmt.Errorf("%w: unknown theme %q", domain.ErrInvalidArgument, *req.Theme)
			}
			style.Theme = theme
		}
		if req.VisualStyle != nil {
			vs := domain.VisualStyle(strings.ToLower(strings.TrimSpace(*req.VisualStyle)))
			if !vs.Valid() {
				return p, fmt.Errorf("%w: unknown visualStyle %q", domain.ErrInvalidArgument, *req.VisualStyle)
			}
			style.VisualStyle = vs
		}
		if req.FontScale != nil {
			if *req.FontScale <= 0 {
				return p, fmt.Errorf("%w: fontScale must be positive", domain.ErrInvalidArgument)
			}
			style.FontScale = *req.FontScale
		}
		if req.PrimaryColor != nil {
			if color := strings.TrimSpace(*req.PrimaryColor); color == "" {
				style.PrimaryColor = nil
			} else {
				style.PrimaryColor = &color
			}
		}
		p.Style = style.Normalize()
		return p, nil
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, p.Style)
}

// hydrateSlide переводит слайд в свободный режим. С ?reset=true холст
// строится заново, ручные правки теряются.
func (h *DeckHandler) hydrateSlide(c *gin.Context) {
	hydrate := layout.Ensure
	if c.Query("reset") == "true" {
		hydrate = layout.Rehydrate
	}
	slide, err := h.store.UpdateSlide(c.Param("id"), func(s domain.Slide) (domain.Slide, error) {
		return hydrate(s), nil
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, slide)
}

func (h *DeckHandler) hydrateAll(c *gin.Context) {
	p, err := h.store.Update(func(p domain.Presentation) (domain.Presentation, error) {
		return layout.HydrateAll(p), nil
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentationResponse{Presentation: p, Version: h.store.Version()})
}
