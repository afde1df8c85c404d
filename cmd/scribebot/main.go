package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/halvden/scribebot/bot/app"
	"github.com/halvden/scribebot/core/logger"
)

const defaultConfigPath = "config.yml"

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.Run(ctx, configPath)
	if shutdownErr := logger.Shutdown(); shutdownErr != nil {
		fmt.Fprintln(os.Stderr, "logger shutdown:", shutdownErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
