// Package handler - HTTP API сервиса на gin.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deck-server/internal/canvas"
	"deck-server/internal/notify"
	"deck-server/internal/pipeline"
	"deck-server/internal/store"
)

// DeckHandler обрабатывает HTTP-запросы генерации и редактирования колоды.
type DeckHandler struct {
	pipeline       *pipeline.Pipeline
	store          *store.Store
	canvas         *canvas.Engine
	hub            *notify.Hub
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewDeckHandler создаёт обработчик. hub может быть nil - тогда /ws не регистрируется.
func NewDeckHandler(p *pipeline.Pipeline, st *store.Store, engine *canvas.Engine, hub *notify.Hub, maxUploadBytes int64, logger *zap.Logger) *DeckHandler {
	return &DeckHandler{
		pipeline:       p,
		store:          st,
		canvas:         engine,
		hub:            hub,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Named("DeckHandler"),
	}
}

// RegisterRoutes регистрирует маршруты API. generateLimit, если задан,
// ограничивает частоту запусков генерации.
func (h *DeckHandler) RegisterRoutes(router *gin.Engine, generateLimit gin.HandlerFunc) {
	api := router.Group("/api")
	{
		generate := []gin.HandlerFunc{h.generate}
		if generateLimit != nil {
			generate = append([]gin.HandlerFunc{generateLimit}, generate...)
		}
		api.POST("/generate", generate...)
		api.GET("/status", h.getStatus)

		api.GET("/presentation", h.getPresentation)
		api.PUT("/presentation/style", h.updateStyle)
		api.POST("/presentation/hydrate", h.hydrateAll)
	}

	slides := api.Group("/slides/:id")
	{
		slides.GET("", h.getSlide)
		slides.POST("/regenerate-image", h.regenerateImage)
		slides.POST("/hydrate", h.hydrateSlide)

		slides.POST("/elements/:eid/select", h.selectElement)
		slides.POST("/elements/:eid/drag", h.startDrag)
		slides.POST("/elements/:eid/resize", h.startResize)
		slides.PATCH("/elements/:eid", h.editElement)
		slides.DELETE("/elements/:eid", h.deleteElement)
	}

	canvasGroup := api.Group("/canvas")
	{
		canvasGroup.GET("", h.getCanvas)
		canvasGroup.POST("/viewport", h.setViewport)
		canvasGroup.POST("/pointer/move", h.pointerMove)
		canvasGroup.POST("/pointer/up", h.pointerUp)
		canvasGroup.DELETE("/selection", h.clearSelection)
	}

	exportGroup := api.Group("/export")
	{
		exportGroup.GET("", h.exportJSON)
		exportGroup.GET("/slides/:file", h.exportSlidePNG)
	}

	if h.hub != nil {
		router.GET("/ws", h.serveWS)
	}
}
