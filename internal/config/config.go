package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"deck-server/internal/logger"
)

// SecretsDir - каталог Docker Secrets.
var SecretsDir = "/run/secrets"

// Config - вся конфигурация сервиса.
type Config struct {
	AppEnv      string `env:"APP_ENV" env-default:"development"`
	Server      ServerConfig
	Logger      logger.Config
	AI          AIConfig
	ImageServer ImageServerConfig
	Document    DocumentConfig
	Notify      NotifyConfig
	CORS        CORSConfig
}

// ServerConfig - HTTP-сервер.
type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
	MaxUploadBytes  int64         `env:"SERVER_MAX_UPLOAD_BYTES" env-default:"20971520"` // 20 МБ
	// Запусков генерации в минуту с одного IP; 0 отключает ограничение
	GenerateRateLimit uint `env:"SERVER_GENERATE_RATE_LIMIT" env-default:"10"`
}

// AIConfig - модель, генерирующая структуру колоды.
type AIConfig struct {
	ClientType      string        `env:"AI_CLIENT_TYPE" env-default:"openai"` // openai | ollama
	BaseURL         string        `env:"AI_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	Model           string        `env:"AI_MODEL" env-default:"google/gemini-2.5-flash"`
	Timeout         time.Duration `env:"AI_TIMEOUT" env-default:"120s"`
	MaxTokens       int           `env:"AI_MAX_TOKENS" env-default:"8192"`
	Temperature     float64       `env:"AI_TEMPERATURE" env-default:"0.7"`
	MaxPromptTokens int           `env:"AI_MAX_PROMPT_TOKENS" env-default:"24000"`
	// Секрет, без env-тега: читается из файла или AI_API_KEY
	APIKey string
}

// ImageServerConfig - сервер генерации иллюстраций.
type ImageServerConfig struct {
	BaseURL string        `env:"IMAGE_SERVER_BASE_URL" env-default:"http://localhost:8000"`
	Timeout time.Duration `env:"IMAGE_SERVER_TIMEOUT" env-default:"120s"`
	Ratio   string        `env:"IMAGE_SERVER_RATIO" env-default:"16:9"`
}

// DocumentConfig - ограничения на загружаемые документы.
type DocumentConfig struct {
	MaxBytes     int64 `env:"DOCUMENT_MAX_BYTES" env-default:"20971520"`
	MaxTextChars int   `env:"DOCUMENT_MAX_TEXT_CHARS" env-default:"200000"`
}

// NotifyConfig - внешняя рассылка событий. Пустой URL отключает канал.
type NotifyConfig struct {
	RedisURL       string `env:"REDIS_URL" env-default:""`
	RedisChannel   string `env:"REDIS_STATUS_CHANNEL" env-default:"deck:status"`
	RabbitMQURL    string `env:"RABBITMQ_URL" env-default:""`
	RabbitExchange string `env:"RABBITMQ_DECK_EXCHANGE" env-default:"deck_events"`
}

// CORSConfig - разрешённые источники браузерного клиента.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:5173"`
}

// Load загружает .env (если есть), переменные окружения и секреты.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	key, err := ReadSecretOrEnv("ai_api_key", "AI_API_KEY")
	if err != nil && cfg.AI.ClientType != "ollama" {
		return nil, err
	}
	cfg.AI.APIKey = key

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет значения, которые нельзя выразить тегами.
func (c *Config) Validate() error {
	switch c.AI.ClientType {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unsupported AI_CLIENT_TYPE %q", c.AI.ClientType)
	}
	if c.AI.Timeout <= 0 || c.ImageServer.Timeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.Document.MaxBytes <= 0 {
		return errors.New("DOCUMENT_MAX_BYTES must be positive")
	}
	return nil
}

// IsProduction - окружение prod.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// ReadSecret читает секрет из файла в каталоге Docker Secrets.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// ReadSecretOrEnv читает секрет из файла, при его отсутствии - из переменной
// окружения (локальная разработка без Docker).
func ReadSecretOrEnv(secretName, envName string) (string, error) {
	secret, fileErr := ReadSecret(secretName)
	if fileErr == nil {
		return secret, nil
	}
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w (and %s is not set)", fileErr, envName)
}
