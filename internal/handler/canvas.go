package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"deck-server/internal/canvas"
	"deck-server/internal/domain"
	"deck-server/internal/geometry"
)

type pointerRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

type editElementRequest struct {
	Content *string  `json:"content"`
	DX      *float64 `json:"dx"` // Сдвиг в процентах слайда
	DY      *float64 `json:"dy"`
}

type gestureResponse struct {
	Element domain.SlideElement `json:"element"`
	Canvas  canvas.Snapshot     `json:"canvas"`
}

type pointerUpResponse struct {
	Finished canvas.GestureState `json:"finished"`
	Canvas   canvas.Snapshot     `json:"canvas"`
}

func (h *DeckHandler) getCanvas(c *gin.Context) {
	c.JSON(http.StatusOK, h.canvas.State())
}

func (h *DeckHandler) setViewport(c *gin.Context) {
	var v geometry.Viewport
	if err := c.ShouldBindJSON(&v); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	if err := h.canvas.SetViewport(v); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.canvas.State())
}

func (h *DeckHandler) selectElement(c *gin.Context) {
	el, err := h.canvas.Select(c.Param("id"), c.Param("eid"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, el)
}

func (h *DeckHandler) startDrag(c *gin.Context) {
	h.startGesture(c, h.canvas.PointerDown)
}

func (h *DeckHandler) startResize(c *gin.Context) {
	h.startGesture(c, h.canvas.ResizeHandleDown)
}

// startGesture начинает перетаскивание или изменение размера из точки
// указателя в экранных пикселях.
func (h *DeckHandler) startGesture(c *gin.Context, begin func(slideID, elementID string, x, y float64) (domain.SlideElement, error)) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	el, err := begin(c.Param("id"), c.Param("eid"), *req.X, *req.Y)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gestureResponse{Element: el, Canvas: h.canvas.State()})
}

func (h *DeckHandler) pointerMove(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	el, err := h.canvas.PointerMove(*req.X, *req.Y)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, el)
}

func (h *DeckHandler) pointerUp(c *gin.Context) {
	finished := h.canvas.PointerUp()
	c.JSON(http.StatusOK, pointerUpResponse{Finished: finished, Canvas: h.canvas.State()})
}

func (h *DeckHandler) clearSelection(c *gin.Context) {
	h.canvas.ClearSelection()
	c.Status(http.StatusNoContent)
}

func (h *DeckHandler) deleteElement(c *gin.Context) {
	if err := h.canvas.Delete(c.Param("id"), c.Param("eid")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// editElement меняет текст элемента и/или сдвигает его на заданное число процентов.
func (h *DeckHandler) editElement(c *gin.Context) {
	var req editElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	if req.Content == nil && req.DX == nil && req.DY == nil {
		badRequest(c, "Nothing to change: provide content, dx or dy")
		return
	}
	slideID, elementID := c.Param("id"), c.Param("eid")

	var (
		el  domain.SlideElement
		err error
	)
	if req.Content != nil {
		el, err = h.canvas.SetContent(slideID, elementID, *req.Content)
		if err != nil {
			handleServiceError(c, err)
			return
		}
	}
	if req.DX != nil || req.DY != nil {
		var dx, dy float64
		if req.DX != nil {
			dx = *req.DX
		}
		if req.DY != nil {
			dy = *req.DY
		}
		el, err = h.canvas.Nudge(slideID, elementID, dx, dy)
		if err != nil {
			handleServiceError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, el)
}
