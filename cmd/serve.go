package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"polyglot/internal/config"
	"polyglot/internal/logging"
	providerfactory "polyglot/internal/provider/factory"
	"polyglot/internal/server"
	"polyglot/internal/translation"
)

const serveUsage = `Usage:
  polyglot serve [--config <path>] [--port <port>]

Flags:
  --config string   Path to YAML configuration file (optional; defaults and environment otherwise)
  --port   int      Override server port from configuration

Environment (read from .env when present):
  OPENAI_API_KEY, OPENAI_MODEL, OPENAI_BASE_URL, ANTHROPIC_API_KEY, POLYGLOT_PORT`

func serve(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overridePort int
	flags.StringVar(&cfgPath, "config", "", "path to configuration file")
	flags.IntVar(&overridePort, "port", 0, "override server port")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	if err := loadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if overridePort != 0 {
		if overridePort <= 0 || overridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		cfg.Server.Port = overridePort
	}

	logger, closer := logging.New(cfg.Log)
	defer closer.Close()
	slog.SetDefault(logger)

	backend, err := providerfactory.New(cfg.Backend)
	if err != nil {
		return err
	}

	svc, err := translation.NewService(backend, translation.Options{
		Model:       cfg.Backend.Model,
		MaxTokens:   cfg.Backend.MaxTokens,
		Temperature: *cfg.Backend.Temperature,
	}, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, svc)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}

// loadDotEnv loads path into the environment without overriding variables that are already set.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
