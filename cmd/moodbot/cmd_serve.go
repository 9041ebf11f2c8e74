package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glebk/moodbot/internal/bot"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.TelegramToken == "" {
				return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
			}

			telegramBot, err := bot.New(a.cfg.TelegramToken, a.moodLog, a.engine, a.cfg, a.logger)
			if err != nil {
				return err
			}

			// Handle graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("Bot started. Press Ctrl+C to stop.")
			if err := telegramBot.Start(ctx); err != nil {
				return fmt.Errorf("bot stopped with error: %w", err)
			}

			a.logger.Info("Shutting down gracefully...")
			return nil
		},
	}
}
