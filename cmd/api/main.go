package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skriba-app/skriba-api/internal/config"
	"github.com/skriba-app/skriba-api/internal/document"
	"github.com/skriba-app/skriba-api/internal/handler"
	"github.com/skriba-app/skriba-api/internal/middleware"
	"github.com/skriba-app/skriba-api/internal/notify"
	"github.com/skriba-app/skriba-api/internal/router"
	"github.com/skriba-app/skriba-api/internal/scorer"
	"github.com/skriba-app/skriba-api/internal/session"
	"github.com/skriba-app/skriba-api/internal/share"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	essayScorer, err := scorer.New(scorer.Config{
		Provider:  cfg.ScorerProvider,
		APIKey:    cfg.OpenAIAPIKey,
		Model:     cfg.OpenAIModel,
		MaxTokens: cfg.ScorerMaxTokens,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("failed to create scorer: %v", err)
	}

	hub := notify.NewHub(logger)
	notifier := notify.NewFanout(notify.NewLogNotifier(logger), hub)

	sessions := session.NewManager(essayScorer, notifier, logger, cfg.SessionIdleTTL)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sessions.StartSweeper(sweepCtx, cfg.SweepInterval)

	validate := validator.New(validator.WithRequiredStructEnabled())
	intake := document.NewIntake()
	shareService := share.NewService(share.NopClipboard{}, notifier, cfg.ShareSuffix, logger)

	sessionHandler := handler.NewSessionHandler(sessions, intake, shareService, notifier, validate, logger)
	eventsHandler := handler.NewEventsHandler(sessions, hub, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SessionHandler: sessionHandler,
		EventsHandler:  eventsHandler,
		SubmitLimiter:  middleware.RateLimit("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
