package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

const defaultConfigPath = "config.yaml"

// Run is the CLI entrypoint used by cmd/walrus. The only CLI input is an
// optional path to the config file.
func Run() error {
	path := defaultConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	log := NewLogger(cfg.Log.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}

	return a.Run(ctx)
}
