package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"deck-server/internal/config"
	"deck-server/internal/domain"
)

// DefaultAspectRatio - соотношение сторон слайда.
const DefaultAspectRatio = "16:9"

// ImageRequest - запрос одной иллюстрации.
type ImageRequest struct {
	Subject      string
	ArtDirection string
	AspectRatio  string
}

// ImageGenerator возвращает ссылку на картинку (URL или data URL).
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// imageServerRequest - тело запроса к серверу генерации.
type imageServerRequest struct {
	Prompt string `json:"prompt"`
	Ratio  string `json:"ratio"`
}

// HTTPImageGenerator обращается к серверу генерации изображений (POST /generate)
// и возвращает картинку как data URL.
type HTTPImageGenerator struct {
	baseURL      string
	defaultRatio string
	client       *http.Client
	logger       *zap.Logger
}

// NewHTTPImageGenerator создаёт клиента сервера изображений.
func NewHTTPImageGenerator(cfg config.ImageServerConfig, logger *zap.Logger) *HTTPImageGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	ratio := cfg.Ratio
	if ratio == "" {
		ratio = DefaultAspectRatio
	}
	return &HTTPImageGenerator{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		defaultRatio: ratio,
		client:       &http.Client{Timeout: timeout},
		logger:       logger.Named("image"),
	}
}

func (g *HTTPImageGenerator) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	ratio := req.AspectRatio
	if ratio == "" {
		ratio = g.defaultRatio
	}
	prompt := BuildImagePrompt(req.Subject, req.ArtDirection, ratio)
	log := g.logger.With(zap.String("ratio", ratio), zap.Int("promptLength", len(prompt)))

	body, err := json.Marshal(imageServerRequest{Prompt: prompt, Ratio: ratio})
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal request: %v", domain.ErrImageGeneration, err)
	}

	endpointURL := g.baseURL + "/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", domain.ErrImageGeneration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/*")

	log.Debug("Sending request to image server", zap.String("url", endpointURL))
	resp, err := g.client.Do(httpReq)
	if err != nil {
		log.Error("Image server request failed", zap.Error(err))
		return "", fmt.Errorf("%w: http request failed: %v", domain.ErrImageGeneration, err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error("Image server returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", truncateBytes(data, 512)),
		)
		return "", fmt.Errorf("%w: server returned status %d", domain.ErrImageGeneration, resp.StatusCode)
	}
	if readErr != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", domain.ErrImageGeneration, readErr)
	}
	if len(data) == 0 {
		log.Warn("Image server returned empty body")
		return "", domain.ErrEmptyImage
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		log.Error("Image server returned non-image payload", zap.String("mime", mt.String()))
		return "", fmt.Errorf("%w: unexpected payload type %s", domain.ErrImageGeneration, mt.String())
	}

	log.Info("Image received", zap.Int("size_bytes", len(data)), zap.String("mime", mt.String()))
	return DataURL(mt.String(), data), nil
}

// DataURL кодирует байты картинки в data URL.
func DataURL(mediaType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}

func truncateBytes(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
