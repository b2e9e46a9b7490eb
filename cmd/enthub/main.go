// Command enthub is a terminal client for the EntHub API.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/enthub-api/internal/config"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	runner := NewRunner(RunnerOpts{})
	app := newApp(runner, cfg.LiveDebounce)

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, errNotSignedIn) {
			runner.logger.Warn(err.Error())
			os.Exit(2)
		}
		runner.logger.Fatal("command failed", "err", err)
	}
}

func newApp(r *Runner, debounce time.Duration) *cli.Command {
	return &cli.Command{
		Name:    "enthub",
		Usage:   "Track what you want to watch and what you have watched",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "EntHub API base URL",
				Value:   "http://localhost:3000",
				Sources: cli.EnvVars("ENTHUB_SERVER"),
			},
			&cli.StringFlag{
				Name:    "state",
				Usage:   "Session file (default: <user config dir>/enthub/session.json)",
				Sources: cli.EnvVars("ENTHUB_STATE"),
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "How long identity changes settle before --follow re-subscribes",
				Value: debounce,
			},
			&cli.BoolFlag{Name: "debug", Usage: "Verbose logging"},
		},
		Before:   r.Setup,
		Commands: r.register(),
	}
}
