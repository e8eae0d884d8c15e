package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/saransh1220/portal-notify/internal/gateway"
	"github.com/saransh1220/portal-notify/internal/gateway/middleware"
	"github.com/saransh1220/portal-notify/internal/modules/feed"
	"github.com/saransh1220/portal-notify/internal/modules/feed/domain"
	"github.com/saransh1220/portal-notify/internal/modules/feed/infrastructure/memory"
	"github.com/saransh1220/portal-notify/internal/modules/feed/infrastructure/postgres"
	"github.com/saransh1220/portal-notify/internal/shared/infrastructure/config"
	"github.com/saransh1220/portal-notify/internal/shared/infrastructure/database"
	"github.com/saransh1220/portal-notify/internal/shared/logger"
	"github.com/saransh1220/portal-notify/internal/shared/utils"
	"github.com/saransh1220/portal-notify/pkg/migration"
)

type app struct {
	out      io.Writer
	cfg      config.Config
	log      zerolog.Logger
	closeLog func()

	logLevel string
	port     string
	storage  string
}

func newApp(out io.Writer) *cli.Command {
	a := &app{out: out, closeLog: func() {}}

	return &cli.Command{
		Name:  "devserver",
		Usage: "Serve the student notification feed for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Sources:     cli.EnvVars("NOTIFY_LOG_LEVEL"),
				Value:       "info",
				Destination: &a.logLevel,
			},
			&cli.StringFlag{
				Name:        "port",
				Usage:       "listen port (overrides PORT)",
				Destination: &a.port,
			},
			&cli.StringFlag{
				Name:        "storage",
				Usage:       "feed storage (memory, postgres)",
				Destination: &a.storage,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			l, closer, err := logger.New(a.logLevel, "")
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			a.log, a.closeLog = l, closer

			a.cfg = config.Load()
			if a.port != "" {
				a.cfg.Server.Port = a.port
			}
			if a.storage != "" {
				a.cfg.Feed.Storage = a.storage
			}
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			a.closeLog()
			return nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
		Commands: []*cli.Command{
			a.tokenCmd(),
			a.pushCmd(),
			a.migrateCmd(),
		},
	}
}

func (a *app) newRepository() (domain.Repository, func(), error) {
	switch a.cfg.Feed.Storage {
	case config.StorageMemory, "":
		return memory.NewEntryRepository(), func() {}, nil
	case config.StoragePostgres:
		db, err := database.NewPostgresDB(a.cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := migration.AutoMigrate(a.cfg.Database.URL(), a.cfg.Feed.MigrationsPath, logger.Component(a.log, "migrate")); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.NewPgEntryRepository(db), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown feed storage %q", a.cfg.Feed.Storage)
	}
}

func (a *app) serve(ctx context.Context) error {
	repo, closeRepo, err := a.newRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	mod := feed.NewModule(repo, a.cfg.Feed.Heartbeat, a.log)

	handler := gateway.SetupRoutes(gateway.RouterConfig{
		AuthMiddleware: middleware.NewAuthMiddleware(a.cfg.JWT.Secret),
		FeedHandler:    mod.HTTPHandler(),
		Metrics:        middleware.NewHTTPMetrics(reg),
		Gatherer:       reg,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
	})

	a.log.Info().Str("storage", a.cfg.Feed.Storage).Msg("feed server configured")

	server := gateway.NewServer(a.cfg.Server.Port, handler, logger.Component(a.log, "server"))
	server.OnShutdown(mod.Shutdown)
	defer mod.Shutdown()

	return server.Start(ctx)
}

func (a *app) tokenCmd() *cli.Command {
	var userID, role string
	return &cli.Command{
		Name:  "token",
		Usage: "Mint a development bearer token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Destination: &userID},
			&cli.StringFlag{Name: "role", Value: "student", Destination: &role},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			tok, err := utils.GenerateToken(userID, role, a.cfg.JWT.Secret, a.cfg.JWT.Expiry)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, tok)
			return nil
		},
	}
}

func (a *app) pushCmd() *cli.Command {
	var change domain.StatusChange
	var baseURL string
	return &cli.Command{
		Name:  "push",
		Usage: "Create an application status notification on a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Destination: &change.UserID},
			&cli.StringFlag{Name: "status", Required: true, Destination: &change.NewStatus},
			&cli.StringFlag{Name: "job", Required: true, Destination: &change.JobTitle},
			&cli.StringFlag{Name: "company", Destination: &change.CompanyName},
			&cli.StringFlag{Name: "application", Destination: &change.ApplicationID},
			&cli.StringFlag{Name: "reason", Destination: &change.HRReason},
			&cli.StringFlag{
				Name:        "url",
				Usage:       "base URL of the feed server",
				Sources:     cli.EnvVars("NOTIFY_API_URL"),
				Value:       "http://localhost:8000",
				Destination: &baseURL,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return a.push(ctx, baseURL, change)
		},
	}
}

func (a *app) push(ctx context.Context, baseURL string, change domain.StatusChange) error {
	tok, err := utils.GenerateToken("hr-dev", "hr", a.cfg.JWT.Secret, time.Minute)
	if err != nil {
		return err
	}

	body, err := json.Marshal(change)
	if err != nil {
		return err
	}

	url := strings.TrimRight(baseURL, "/") + "/api/student/notifications"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: a.cfg.API.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("push: server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	fmt.Fprintln(a.out, strings.TrimSpace(string(raw)))
	return nil
}

func (a *app) migrationRunner() *migration.Runner {
	l := logger.Component(a.log, "migrate")
	return migration.NewRunner(&migration.Config{
		MigrationsPath: a.cfg.Feed.MigrationsPath,
		DatabaseURL:    a.cfg.Database.URL(),
		Logger:         &l,
	})
}

func (a *app) migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the postgres feed schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply pending migrations",
				Action: func(ctx context.Context, c *cli.Command) error {
					return a.migrationRunner().Up()
				},
			},
			{
				Name:  "down",
				Usage: "Roll back the last migration",
				Action: func(ctx context.Context, c *cli.Command) error {
					return a.migrationRunner().Down()
				},
			},
			{
				Name:      "force",
				Usage:     "Set the schema version without running migrations",
				ArgsUsage: "<version>",
				Action: func(ctx context.Context, c *cli.Command) error {
					version, err := parseVersion(c.Args().First())
					if err != nil {
						return err
					}
					return a.migrationRunner().Force(version)
				},
			},
			{
				Name:  "version",
				Usage: "Print the current schema version",
				Action: func(ctx context.Context, c *cli.Command) error {
					version, dirty, err := a.migrationRunner().Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "version %d dirty=%t\n", version, dirty)
					return nil
				},
			},
		},
	}
}

func parseVersion(arg string) (int, error) {
	if arg == "" {
		return 0, fmt.Errorf("migration version is required")
	}
	v, err := strconv.Atoi(arg)
	if err != nil || v < -1 {
		return 0, fmt.Errorf("invalid migration version %q", arg)
	}
	return v, nil
}
