package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/cloud-ru/loan-calculator-bot/internal/api"
	"github.com/cloud-ru/loan-calculator-bot/internal/config"
	"github.com/cloud-ru/loan-calculator-bot/internal/conversation"
	"github.com/cloud-ru/loan-calculator-bot/internal/logging"
	"github.com/cloud-ru/loan-calculator-bot/internal/session"
	"github.com/cloud-ru/loan-calculator-bot/internal/tools"
	"github.com/cloud-ru/loan-calculator-bot/internal/tracing"
	"github.com/cloud-ru/loan-calculator-bot/internal/transport/telegram"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("loanbot stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, shutdownTracing, err := tracing.Init(ctx, logger, cfg.OTELServiceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	store, closeStore, err := session.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("session store close failed", zap.Error(err))
		}
	}()

	flow := conversation.NewFlow(cfg, store, logger, conversation.WithTracer(tracer))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewServer(tools.Registry(cfg, tracer), flow, logger).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 2)
	go func() {
		logger.Info("http server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server: %w", err)
		}
	}()

	if cfg.TelegramToken != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		logger.Info("telegram bot authorized", zap.String("username", botAPI.Self.UserName))

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := botAPI.GetUpdatesChan(u)
		defer botAPI.StopReceivingUpdates()

		bot := telegram.NewBot(botAPI, flow, logger)
		go func() {
			if err := bot.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("telegram bot: %w", err)
			}
		}()
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN is not set, only HTTP API is available")
	}

	var runErr error
	select {
	case runErr = <-errs:
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}

	return runErr
}
