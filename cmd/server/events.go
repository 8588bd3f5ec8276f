package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/surepay/surepay-api/internal/logging"
	"github.com/surepay/surepay-api/internal/queue"
)

// newEventsCmd tails the lifecycle queue, printing each startup announcement.
// Deploy scripts use it to confirm a rollout reached every host.
func newEventsCmd() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Print service startup announcements from the lifecycle queue",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return cli.Exit(fmt.Errorf("failed to load config: %w", err), 1)
			}
			logger := logging.SetupLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.Root().Writer
			err = queue.Consume(ctx, cfg.Broker, logger, func(ev queue.ServiceStartedEvent) error {
				_, err := fmt.Fprintf(out, "%s %s version=%s env=%s host=%s port=%d\n",
					ev.StartedAt, ev.Service, ev.Version, ev.Environment, ev.Hostname, ev.Port)
				return err
			})
			if err != nil {
				return cli.Exit(fmt.Errorf("failed to consume events: %w", err), 1)
			}
			return nil
		},
	}
}
