// Package logger собирает zap.Logger сервиса и CLI из переменных окружения.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config содержит настройки логгера.
type Config struct {
	Level       string `env:"LOG_LEVEL" env-default:"info"`   // debug, info, warn, error
	Encoding    string `env:"LOG_ENCODING" env-default:""`    // json или console; пусто - по режиму
	OutputPath  string `env:"LOG_OUTPUT_PATH" env-default:""` // Пусто - stdout
	Development bool   `env:"LOG_DEVELOPMENT" env-default:"false"`
	Caller      bool   `env:"LOG_CALLER" env-default:"false"`
}

// New создаёт zap.Logger по конфигурации.
//
// Production: JSON, ключ времени "timestamp" в ISO8601, уровни заглавными,
// без стектрейсов. Development: консольный вывод с цветными уровнями,
// стектрейсы начиная с Warn, DPanic паникует.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		// Логгера ещё нет, пишем в stderr
		fmt.Fprintf(os.Stderr, "Invalid log level %q, using info: %v\n", cfg.Level, err)
	}

	output := cfg.OutputPath
	if output == "" {
		output = "stdout"
	}

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		DisableCaller:     !cfg.Caller,
		DisableStacktrace: !cfg.Development,
		Encoding:          encoding(cfg),
		EncoderConfig:     encoderConfig(cfg.Development),
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
	}
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func parseLevel(raw string) (zapcore.Level, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return zapcore.InfoLevel, err
	}
	return lvl, nil
}

func encoding(cfg Config) string {
	switch strings.ToLower(cfg.Encoding) {
	case "json":
		return "json"
	case "console":
		return "console"
	}
	if cfg.Development {
		return "console"
	}
	return "json"
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	if development {
		ec = zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return ec
}
