package main // Entry point package

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// Version is set during build using ldflags
var Version = "dev"

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "surepay",
		Version: Version,
		Usage:   "SurePay API status service",
		Flags:   newServeFlags(),
		Action:  serveAction,
		Commands: []*cli.Command{
			newVersionCmd(),
			newEventsCmd(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
