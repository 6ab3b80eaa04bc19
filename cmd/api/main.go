package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/johnquangdev/meeting-digest/internal/adapter/handler"
	"github.com/johnquangdev/meeting-digest/internal/infrastructure/ledger"
	"github.com/johnquangdev/meeting-digest/internal/usecase/pipeline"
	"github.com/johnquangdev/meeting-digest/pkg/ai"
	"github.com/johnquangdev/meeting-digest/pkg/config"
	"github.com/johnquangdev/meeting-digest/pkg/slack"
	pkgvalidator "github.com/johnquangdev/meeting-digest/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())

	// Delivery ledger: Redis when configured, in-memory otherwise.
	var deliveryLedger ledger.DeliveryLedger
	if cfg.Redis.Addr != "" {
		log.Println("Connecting to Redis...")
		redisClient, err := ledger.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		deliveryLedger = ledger.NewRedisLedger(redisClient, cfg.Redis.LedgerTTL)
	} else {
		log.Println("REDIS_ADDR not set; delivery ledger is in-memory and resets on restart")
		deliveryLedger = ledger.NewMemoryLedger(cfg.Redis.LedgerTTL)
	}

	// Outbound clients
	anthropicClient := ai.NewAnthropicClient(&cfg.Anthropic)
	slackClient := slack.NewClient(&cfg.Slack)

	// Pipeline stages
	extractor := pipeline.NewExtractor()
	summarizer := pipeline.NewSummarizer(anthropicClient, &cfg.Pipeline, logger)
	formatter := pipeline.NewFormatter(&cfg.Slack)
	publisher := pipeline.NewPublisher(slackClient, &cfg.Pipeline, logger)

	service := pipeline.NewService(extractor, summarizer, formatter, publisher, deliveryLedger, cfg, logger)
	if err := service.Start(cfg.Pipeline.Workers); err != nil {
		log.Fatalf("Failed to start worker pool: %v", err)
	}

	webhookHandler := handler.NewWebhookHandler(service, logger)
	router := handler.NewRouter(cfg, webhookHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := cfg.GetServerAddr()
		log.Printf("Starting server on %s", addr)
		log.Printf("Environment: %s", cfg.Server.Environment)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Let in-flight events finish before exiting.
	if err := service.Stop(); err != nil {
		log.Printf("Worker pool stop: %v", err)
	}

	log.Println("Server stopped gracefully")
}
