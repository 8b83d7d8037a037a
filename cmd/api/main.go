package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/fortuna/fortuna-import/internal/config"
	"github.com/dafibh/fortuna/fortuna-import/internal/domain"
	"github.com/dafibh/fortuna/fortuna-import/internal/handler"
	"github.com/dafibh/fortuna/fortuna-import/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-import/internal/repository/postgres"
	"github.com/dafibh/fortuna/fortuna-import/internal/repository/storage"
	"github.com/dafibh/fortuna/fortuna-import/internal/service"
	"github.com/dafibh/fortuna/fortuna-import/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	if err := postgres.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare database schema")
	}

	if err := os.MkdirAll(cfg.Import.Dir, 0o750); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Import.Dir).Msg("Failed to create import directory")
	}

	// Optional source archive
	var archive domain.SourceArchive
	if cfg.S3.Enabled() {
		s3Archive, err := storage.NewS3SourceArchive(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 archive")
		}
		archive = s3Archive
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Archiving imported files to S3")
	} else {
		log.Warn().Msg("S3_BUCKET not set, imported files will not be archived")
	}

	// Initialize repositories
	categoryRepo := postgres.NewCategoryRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	transactor := postgres.NewTransactor(pool)

	hub := websocket.NewHubWithLogger(log.Logger)

	// Initialize services
	importService := service.NewImportService(categoryRepo, transactionRepo, transactor, archive, hub, log.Logger)
	transactionService := service.NewTransactionService(transactionRepo, categoryRepo)

	// Initialize handlers
	importHandler := handler.NewImportHandler(importService, cfg.Import.Dir, cfg.Import.MaxUploadBytes)
	transactionHandler := handler.NewTransactionHandler(transactionService)
	wsHandler := handler.NewWebSocketHandler(hub, cfg.CORSOrigins)

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.Import.RateLimitPerMin, cfg.Import.RateLimitBurst)
	defer rateLimiter.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = !cfg.IsProduction()

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(middleware.RequestLogger(log.Logger))
	e.Use(echomiddleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Multipart framing adds a little on top of the file itself
	uploadLimit := fmt.Sprintf("%dK", cfg.Import.MaxUploadBytes/1024+64)
	handler.RegisterRoutes(e, rateLimiter, uploadLimit, importHandler, transactionHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
