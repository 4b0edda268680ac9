package main

import (
	"context"
	"os"

	"github.com/desertthunder/musicagent/internal/shared"
	"github.com/urfave/cli/v3"
)

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "musicagent",
		Usage:    "Link Spotify accounts and capture listening snapshots",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Commands: r.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)
	app := newApp(NewRunner(RunnerOpts{Logger: logger}))

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
