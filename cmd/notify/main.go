package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/saransh1220/portal-notify/internal/commands"
	"github.com/saransh1220/portal-notify/internal/shared/infrastructure/config"
	"github.com/saransh1220/portal-notify/internal/shared/infrastructure/credential"
	"github.com/saransh1220/portal-notify/internal/shared/logger"
)

// Populated at build-time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; flag env sources below read whatever it sets.
	_ = godotenv.Load()

	var logCloser func()
	flags := &commands.Flags{Out: os.Stdout}

	app := &cli.Command{
		Name:      "notify",
		Usage:     "Follow job application notifications from the student portal",
		UsageText: "notify [global options] command [command options]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("NOTIFY_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "write logs to this file instead of stderr",
				Sources:     cli.EnvVars("NOTIFY_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "api-url",
				Usage:       "base URL of the portal API",
				Sources:     cli.EnvVars("NOTIFY_API_URL"),
				Destination: &flags.APIURL,
			},
			&cli.StringFlag{
				Name:        "token",
				Usage:       "bearer token (overrides the keyring)",
				Sources:     cli.EnvVars("NOTIFY_TOKEN"),
				Destination: &flags.Token,
			},
			&cli.StringFlag{
				Name:        "transport",
				Usage:       "push transport (sse, websocket)",
				Sources:     cli.EnvVars("NOTIFY_TRANSPORT"),
				Destination: &flags.Transport,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			l, closer, err := logger.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			logCloser = closer
			flags.Logger = l

			cfg := config.Load()
			if flags.APIURL != "" {
				cfg.API.BaseURL = flags.APIURL
			}
			if flags.Token != "" {
				cfg.API.Token = flags.Token
			}
			if flags.Transport != "" {
				cfg.Stream.Transport = flags.Transport
			}
			flags.Config = cfg

			ring, err := credential.OpenKeyring(credential.KeyringConfig{
				Service: cfg.Keyring.Service,
				Key:     cfg.Keyring.Key,
				FileDir: cfg.Keyring.FileDir,
			})
			if err != nil {
				l.Warn().Err(err).Msg("keyring unavailable, only --token will be used")
			} else {
				flags.Keyring = ring
			}

			chain := credential.Chain{credential.Static(cfg.API.Token)}
			if flags.Keyring != nil {
				chain = append(chain, flags.Keyring)
			}
			flags.Tokens = chain

			if tok, err := chain.Token(); err == nil && credential.Expired(tok, time.Now()) {
				l.Warn().Msg("session token has expired, run 'notify login' with a fresh one")
			}

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewWatchCmd(flags).Register(app)
	app = commands.NewListCmd(flags).Register(app)
	app = commands.NewReadCmd(flags).Register(app)
	app = commands.NewLoginCmd(flags).Register(app)

	exitCode := 0
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
