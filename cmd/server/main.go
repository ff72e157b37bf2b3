package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"deck-server/internal/app"
	"deck-server/internal/canvas"
	"deck-server/internal/config"
	"deck-server/internal/geometry"
	"deck-server/internal/handler"
	"deck-server/internal/logger"
	"deck-server/internal/notify"
)

const (
	connectAttempts = 10
	connectDelay    = 3 * time.Second
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	log.Info("Configuration loaded",
		zap.String("env", cfg.AppEnv),
		zap.String("aiClient", cfg.AI.ClientType),
		zap.String("aiModel", cfg.AI.Model),
		zap.String("imageServer", cfg.ImageServer.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Core ---
	core, err := app.NewCore(cfg, log)
	if err != nil {
		log.Fatal("Failed to build generation core", zap.Error(err))
	}
	defer core.Close()
	deckStore := core.Store
	deckPipeline := core.Pipeline
	engine := canvas.NewEngine(deckStore, geometry.DefaultViewport(), log)

	// --- Status fan-out ---
	hub := notify.NewHub(cfg.CORS.AllowedOrigins, log)
	go hub.Run(ctx)

	publishers := notify.NewMulti(log, notify.Named{Name: "websocket", Publisher: hub})
	var redisClient *redis.Client
	if cfg.Notify.RedisURL != "" {
		redisPub, err := connectWithRetry(ctx, log, "Redis", func() (*notify.RedisPublisher, error) {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return notify.NewRedisPublisher(pingCtx, cfg.Notify.RedisURL, cfg.Notify.RedisChannel, log)
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		publishers.Add("redis", redisPub)
		redisClient = redisPub.Client()
	}
	if cfg.Notify.RabbitMQURL != "" {
		rabbitPub, err := connectWithRetry(ctx, log, "RabbitMQ", func() (*notify.RabbitPublisher, error) {
			return notify.NewRabbitPublisher(cfg.Notify.RabbitMQURL, cfg.Notify.RabbitExchange, log)
		})
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		publishers.Add("rabbitmq", rabbitPub)
	}
	defer func() { _ = publishers.Close() }()

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		notify.Forward(ctx, deckStore, publishers, log)
	}()
	log.Info("Status fan-out started", zap.Int("publishers", publishers.Len()))

	// --- HTTP Server (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if !cfg.IsProduction() {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(handler.GinZapLogger(log))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "stage": deckStore.Status().Stage})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	var generateLimit gin.HandlerFunc
	if cfg.Server.GenerateRateLimit > 0 {
		generateLimit = handler.GenerateRateLimiter(handler.NewRateLimitStore(redisClient, cfg.Server.GenerateRateLimit), log)
	}
	handler.NewDeckHandler(deckPipeline, deckStore, engine, hub, cfg.Server.MaxUploadBytes, log).
		RegisterRoutes(router, generateLimit)

	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	core.Close()
	<-forwardDone
	log.Info("Server exiting")
}

// connectWithRetry повторяет подключение к внешнему брокеру, пока он поднимается.
func connectWithRetry[T any](ctx context.Context, log *zap.Logger, name string, connect func() (T, error)) (T, error) {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		v, err := connect()
		if err == nil {
			log.Info("Connected", zap.String("target", name), zap.Int("attempt", attempt))
			return v, nil
		}
		lastErr = err
		log.Warn("Connection failed, retrying...",
			zap.String("target", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", connectAttempts),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(connectDelay):
		}
	}
	var zero T
	return zero, fmt.Errorf("%s unavailable after %d attempts: %w", name, connectAttempts, lastErr)
}
