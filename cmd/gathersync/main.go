package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/gathersync/internal/commands"
	"github.com/mmynk/gathersync/internal/config"
	"github.com/mmynk/gathersync/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "Config file (default: <user config dir>/gathersync/config.yaml)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gathersync [-config FILE] <command> [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Run \"gathersync help\" for the list of commands.\n")
	}
	flag.Parse()

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultClientPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.LoadClient(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := commands.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	runErr := app.Run(ctx, flag.Args())
	if err := app.Close(); err != nil {
		logger.Warn("Failed to close store", "error", err)
	}
	if runErr != nil {
		if len(flag.Args()) > 0 {
			fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		}
		if errors.Is(runErr, commands.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
