package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saransh1220/portal-notify/internal/modules/notification"
	"github.com/saransh1220/portal-notify/internal/modules/notification/domain"
	"github.com/saransh1220/portal-notify/internal/modules/notification/infrastructure/metrics"
	"github.com/saransh1220/portal-notify/internal/shared/infrastructure/database"
	"github.com/urfave/cli/v3"
)

type WatchCmd struct {
	flags *Flags

	// flags
	jsonOutput  bool
	metricsAddr string
	relay       bool
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Print the feed, then stream new notifications",
		UsageText: "notify watch [--json] [--metrics-addr :9090] [--relay]",
		Description: `Starts a notification session: the feed is fetched, the push stream is
opened and every pushed notification is printed as it arrives.

The stream reconnects with exponential backoff until interrupted.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print each notification as a JSON line",
				Destination: &cmd.jsonOutput,
			},
			&cli.StringFlag{
				Name:        "metrics-addr",
				Usage:       "serve Prometheus metrics on this address",
				Sources:     cli.EnvVars("NOTIFY_METRICS_ADDR"),
				Destination: &cmd.metricsAddr,
			},
			&cli.BoolFlag{
				Name:        "relay",
				Usage:       "republish pushed notifications on Redis",
				Sources:     cli.EnvVars("NOTIFY_RELAY_ENABLED"),
				Destination: &cmd.relay,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	deps := notification.Deps{Metrics: metrics.New(reg)}

	if cmd.relay {
		client, err := database.NewRedis(ctx, cmd.flags.Config.Relay.Redis)
		if err != nil {
			return fmt.Errorf("relay: %w", err)
		}
		defer client.Close()
		deps.Relay = client
	}

	m, err := cmd.flags.newModule(deps)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	if cmd.metricsAddr != "" {
		shutdown := cmd.serveMetrics(reg)
		defer shutdown()
	}

	var mu sync.Mutex
	show := func(n domain.Notification) {
		mu.Lock()
		defer mu.Unlock()
		if cmd.jsonOutput {
			_ = printJSONLine(cmd.flags.Out, n)
			return
		}
		printNotification(cmd.flags.Out, n)
		fmt.Fprintf(cmd.flags.Out, "%d unread\n", m.Sync().UnreadCount())
	}

	feed := m.Start(ctx)
	defer m.Shutdown()

	// Subscribed after Start so the store has already counted a push
	// when show runs.
	unsubscribe := m.Session().Subscribe(show)
	defer unsubscribe()

	mu.Lock()
	if cmd.jsonOutput {
		err = printJSONLine(cmd.flags.Out, feed)
	} else {
		err = printFeed(cmd.flags.Out, feed)
	}
	mu.Unlock()
	if err != nil {
		return err
	}

	<-ctx.Done()
	cmd.flags.Logger.Info().Msg("watch stopped")
	return nil
}

func (cmd *WatchCmd) serveMetrics(reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cmd.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		cmd.flags.Logger.Info().Str("addr", cmd.metricsAddr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cmd.flags.Logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
