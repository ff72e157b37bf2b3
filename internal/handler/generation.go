package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deck-server/internal/document"
	"deck-server/internal/domain"
	"deck-server/internal/pipeline"
)

type generateRequest struct {
	Notes       string `json:"notes" form:"notes"`
	VisualStyle string `json:"visualStyle" form:"visualStyle"`
}

type generateResponse struct {
	CycleID string                  `json:"cycleId"`
	Status  domain.GenerationStatus `json:"status"`
}

type statusResponse struct {
	Status  domain.GenerationStatus `json:"status"`
	Version uint64                  `json:"version"`
	Running bool                    `json:"running"`
}

type regenerateRequest struct {
	Prompt *string `json:"prompt"`
}

// generate запускает цикл генерации. Принимает multipart (file + notes)
// или JSON без файла. Ответ 202 с идентификатором цикла, ход виден в /api/status и /ws.
func (h *DeckHandler) generate(c *gin.Context) {
	log := requestLogger(c, h.logger)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	var req generateRequest
	in := pipeline.Input{}

	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request data: "+err.Error())
			return
		}
	} else {
		upload, err := h.readUpload(c)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				handleServiceError(c, fmt.Errorf("%w: request exceeds %d bytes", domain.ErrDocumentTooLarge, tooLarge.Limit))
				return
			}
			badRequest(c, "Invalid upload: "+err.Error())
			return
		}
		in.Document = upload
		req.Notes = c.PostForm("notes")
		req.VisualStyle = c.PostForm("visualStyle")
	}

	in.Notes = req.Notes
	if req.VisualStyle != "" {
		style := domain.VisualStyle(strings.ToLower(strings.TrimSpace(req.VisualStyle)))
		if !style.Valid() {
			badRequest(c, fmt.Sprintf("Unknown visualStyle %q", req.VisualStyle))
			return
		}
		in.VisualStyle = style
	}

	cycleID, err := h.pipeline.StartAsync(c.Request.Context(), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	log.Info("Generation started",
		zap.String("cycleID", cycleID),
		zap.Bool("hasDocument", in.Document != nil),
	)
	c.JSON(http.StatusAccepted, generateResponse{CycleID: cycleID, Status: h.store.Status()})
}

// readUpload читает необязательный файл из поля file.
func (h *DeckHandler) readUpload(c *gin.Context) (*document.Upload, error) {
	fh, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return readFileHeader(fh)
}

func readFileHeader(fh *multipart.FileHeader) (*document.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}
	return &document.Upload{
		Filename:  fh.Filename,
		MediaType: fh.Header.Get("Content-Type"),
		Data:      data,
	}, nil
}

func (h *DeckHandler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		Status:  h.store.Status(),
		Version: h.store.Version(),
		Running: h.pipeline.Running(),
	})
}

// regenerateImage перегенерирует картинку слайда. По умолчанию отвечает 202
// со слайдом в состоянии ожидания; с ?wait=true ждёт результата.
func (h *DeckHandler) regenerateImage(c *gin.Context) {
	var req regenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "Invalid request data: "+err.Error())
			return
		}
	}
	slideID := c.Param("id")

	if c.Query("wait") == "true" {
		slide, err := h.pipeline.Regenerate(c.Request.Context(), slideID, req.Prompt)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, slide)
		return
	}

	slide, err := h.pipeline.RegenerateAsync(c.Request.Context(), slideID, req.Prompt)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, slide)
}
