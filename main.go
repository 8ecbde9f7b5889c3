package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"sheet_entry_bot/internal/app"
	"sheet_entry_bot/internal/config"
	"sheet_entry_bot/internal/processing"
	"sheet_entry_bot/internal/sheets"
	"sheet_entry_bot/internal/telegram"
	"sheet_entry_bot/internal/webhook"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.Debug().Msg("Starting application")
	setupEnvironment()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	sheetsClient, err := sheets.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}
	botClient := telegram.NewClient(cfg.BotToken)
	log.Debug().Msg("Clients initialized successfully")

	handler := processing.NewHandler(cfg, sheetsClient, botClient, config.DefaultResilienceConfig)
	server := webhook.NewServer(cfg.ListenAddr, cfg.WebhookSecret, handler)

	log.Info().
		Str("sheet", cfg.SheetName).
		Str("addr", cfg.ListenAddr).
		Msg("Starting sheet entry bot")

	group, ctx := errgroup.WithContext(ctx)
	group.Go(server.Run)
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server terminated")
	}

	log.Info().Msg("Shutdown complete")
}
