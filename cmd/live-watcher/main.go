package main

import (
	"fmt"
	"os"

	"live-watcher/internal/bootstrap"
	"live-watcher/internal/cli"
	"live-watcher/internal/config"
	"live-watcher/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	application, err := bootstrap.New(cfg, os.Stderr)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}
	defer application.Shutdown()

	deps := &cli.Dependencies{
		App:    application,
		Config: cfg,
	}

	return cli.NewRootCmd(deps).Execute()
}
