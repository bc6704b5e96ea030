package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ohmynofan/tipverse/internal/app"
	"github.com/ohmynofan/tipverse/internal/config"
	"github.com/ohmynofan/tipverse/internal/platform/logger"
	"github.com/ohmynofan/tipverse/internal/platform/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	if err := logger.Init(cfg.LogPath); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
	}
	defer logger.Close()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.StartUISystem()
	defer ui.StopUISystem()

	if err := app.New(cfg).Run(ctx, os.Args[1:]); err != nil {
		ui.StopUISystem()
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}
