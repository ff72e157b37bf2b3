package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deck-server/internal/domain"
)

// Коды ошибок API.
const (
	ErrCodeBadRequest           = "BAD_REQUEST"
	ErrCodeEmptyInput           = "EMPTY_INPUT"
	ErrCodeUnsupportedMedia     = "UNSUPPORTED_MEDIA"
	ErrCodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	ErrCodeGenerationInProgress = "GENERATION_IN_PROGRESS"
	ErrCodeGestureConflict      = "GESTURE_CONFLICT"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeUpstream             = "UPSTREAM_FAILED"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// ErrorResponse - стандартный ответ об ошибке.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: ErrCodeBadRequest, Message: message})
}

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp ErrorResponse

	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		statusCode = http.StatusBadRequest
		errResp = ErrorResponse{Code: ErrCodeEmptyInput, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidViewport),
		errors.Is(err, domain.ErrNoVisualPrompt),
		errors.Is(err, domain.ErrDocumentEncoding):
		statusCode = http.StatusBadRequest
		errResp = ErrorResponse{Code: ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, domain.ErrUnsupportedMedia):
		statusCode = http.StatusUnsupportedMediaType
		errResp = ErrorResponse{Code: ErrCodeUnsupportedMedia, Message: err.Error()}
	case errors.Is(err, domain.ErrDocumentTooLarge):
		statusCode = http.StatusRequestEntityTooLarge
		errResp = ErrorResponse{Code: ErrCodePayloadTooLarge, Message: err.Error()}
	case errors.Is(err, domain.ErrGenerationInProgress):
		statusCode = http.StatusConflict
		errResp = ErrorResponse{Code: ErrCodeGenerationInProgress, Message: err.Error()}
	case errors.Is(err, domain.ErrGestureConflict), errors.Is(err, domain.ErrNoActiveGesture):
		statusCode = http.StatusConflict
		errResp = ErrorResponse{Code: ErrCodeGestureConflict, Message: err.Error()}
	case errors.Is(err, domain.ErrNoPresentation),
		errors.Is(err, domain.ErrSlideNotFound),
		errors.Is(err, domain.ErrElementNotFound):
		statusCode = http.StatusNotFound
		errResp = ErrorResponse{Code: ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrImageGeneration),
		errors.Is(err, domain.ErrEmptyImage),
		errors.Is(err, domain.ErrStructureGeneration):
		statusCode = http.StatusBadGateway
		errResp = ErrorResponse{Code: ErrCodeUpstream, Message: err.Error()}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = ErrorResponse{Code: ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(statusCode, errResp)
}
