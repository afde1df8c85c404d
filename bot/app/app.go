// Package app assembles the bot: configuration, storage, the builder engine,
// and the Telegram transport.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/halvden/scribebot/bot/bridge"
	"github.com/halvden/scribebot/bot/character"
	"github.com/halvden/scribebot/bot/profile"
	"github.com/halvden/scribebot/bot/wizard"
	"github.com/halvden/scribebot/core/config"
	"github.com/halvden/scribebot/core/database"
	"github.com/halvden/scribebot/core/logger"
	tgcore "github.com/halvden/scribebot/core/telegram"
	tgsender "github.com/halvden/scribebot/core/telegram/sender"
)

// Run loads configuration, prepares storage, and serves Telegram updates
// until ctx is cancelled.
func Run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Dir:     cfg.Logging.Dir,
		File:    cfg.Logging.BotFile,
		Profile: cfg.Logging.Profile,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := database.RunMigrations(cfg.Database); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error(ctx, "app", "db.close", slog.Any("error", err))
		}
	}()

	characters := character.NewRepo(db)
	engine := wizard.NewEngine(
		wizard.NewSessionStore(),
		wizard.NewCatalog(),
		characters,
	)

	reg := tgcore.NewRegistry()
	if err := bridge.New(engine, profile.NewRepo(db), characters).Register(reg); err != nil {
		return fmt.Errorf("register handlers: %w", err)
	}

	return tgcore.RunTelegram(ctx, tgcore.RunOptions{
		Config:   cfg,
		Registry: reg,
		// Delivery failures surface to the user instead of being retried.
		DispatcherOptions: tgsender.Options{MaxRetries: 0},
	})
}
