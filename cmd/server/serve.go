package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/surepay/surepay-api/internal/config"
	"github.com/surepay/surepay-api/internal/logging"
	"github.com/surepay/surepay-api/internal/server"
)

func newServeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "env-file",
			Usage:   "Dotenv file loaded before reading the environment; a missing file is ignored",
			Value:   ".env",
			Sources: cli.EnvVars("ENV_FILE"),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Override LOG_LEVEL (trace, debug, info, warn, error)",
		},
	}
}

// loadEnvFile applies a dotenv file without overriding variables that are
// already set in the process environment.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadConfig resolves the process configuration from the dotenv file, the
// environment, and the command line, in increasing order of precedence.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	if err := loadEnvFile(cmd.String("env-file")); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to load config: %w", err), 1)
	}

	logger := logging.SetupLogger(cfg.LogLevel)

	opts := []server.Option{server.WithLogger(logger)}
	rdb, err := config.NewRedisClient(ctx)
	switch {
	case err != nil:
		logger.Warn("rate limiting disabled", "error", err)
	case rdb != nil:
		defer func() { _ = rdb.Close() }()
		opts = append(opts, server.WithRedis(rdb))
	}

	if err := server.New(cfg, opts...).Run(ctx); err != nil {
		return cli.Exit(fmt.Errorf("failed to run server: %w", err), 1)
	}
	return nil
}
