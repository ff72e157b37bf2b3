package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// GinZapLogger логирует запросы через zap. /health и /metrics не логируются.
// Request ID берётся из заголовка или генерируется и возвращается клиенту.
func GinZapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		if rawQuery := c.Request.URL.RawQuery; rawQuery != "" {
			path = path + "?" + rawQuery
		}
		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("request_id", requestID),
		}

		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			for _, ginErr := range c.Errors.ByType(gin.ErrorTypeAny) {
				fields = append(fields, zap.NamedError("handler_error", ginErr.Err))
			}
			log.Error("Server error", fields...)
		case status >= http.StatusBadRequest:
			if len(c.Errors) > 0 {
				fields = append(fields, zap.String("errors", c.Errors.String()))
			}
			log.Warn("Client error", fields...)
		default:
			log.Info("Request completed", fields...)
		}
	}
}

// requestLogger возвращает логгер с request ID текущего запроса.
func requestLogger(c *gin.Context, base *zap.Logger) *zap.Logger {
	if id := c.GetString(requestIDKey); id != "" {
		return base.With(zap.String("request_id", id))
	}
	return base
}
