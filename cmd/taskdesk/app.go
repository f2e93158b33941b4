package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-taskdesk"
	"github.com/goliatone/go-taskdesk/actions"
	"github.com/goliatone/go-taskdesk/pendingredis"
	"github.com/goliatone/go-taskdesk/repository"
	"github.com/goliatone/go-taskdesk/server"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const shutdownTimeout = 10 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "taskdesk",
		Usage:   "Multi-tenant task manager",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv files loaded before the environment is read",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.BoolFlag{
				Name:    "json-logs",
				Usage:   "Emit logs as JSON",
				EnvVars: []string{"LOG_JSON"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serve,
			},
			{
				Name:   "schema",
				Usage:  "Create missing database tables",
				Action: schema,
			},
		},
	}
}

func loadConfig(c *cli.Context) (*taskdesk.EnvConfig, hclog.Logger, error) {
	cfg, err := taskdesk.LoadConfig(c.StringSlice("env-file")...)
	if err != nil {
		return nil, nil, cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 2)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "taskdesk",
		Level:      hclog.LevelFromString(cfg.LogLevel),
		JSONFormat: c.Bool("json-logs"),
		Output:     os.Stderr,
	})

	return cfg, logger, nil
}

func schema(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := repository.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.EnsureSchema(c.Context, db); err != nil {
		return err
	}

	logger.Info("schema ready", "tables", repository.TableNames())
	return nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		return err
	}
	store := repository.NewStore(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := taskdesk.NewMetrics(reg)

	tokens, err := taskdesk.NewTokenServiceFromConfig(cfg, logger.Named("tokens"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("token service: %v", err), 2)
	}

	pending, pendingCheck, err := pendingStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	throttle := taskdesk.NewLoginThrottle(cfg.LoginRate, cfg.LoginBurst)
	go pruneEvery(ctx, time.Minute, throttle.Prune)

	handlers := actions.New(store, actions.WithLogger(logger.Named("actions")))

	activityLogger := logger.Named("activity")
	bridge := taskdesk.NewBridge(tokens, handlers.GateHandlers(),
		taskdesk.WithBridgeLogger(logger.Named("bridge")),
		taskdesk.WithLoginThrottle(throttle),
		taskdesk.WithBridgeMetrics(metrics),
		taskdesk.WithRedirectPaths(cfg.LandingPath, cfg.PublicRoot),
		taskdesk.WithActivitySink(taskdesk.ActivitySinkFunc(func(_ context.Context, e taskdesk.ActivityEvent) error {
			activityLogger.Info(string(e.EventType), "user_id", e.UserID, "metadata", e.Metadata)
			return nil
		})),
	)

	gate := taskdesk.NewGate(tokens,
		taskdesk.WithBridge(bridge),
		taskdesk.WithPendingStore(pending, cfg.PendingTTL),
		taskdesk.WithGatePaths(cfg.LandingPath, cfg.LoginPath),
		taskdesk.WithReturnToTTL(cfg.ReturnToTTL),
		taskdesk.WithSecureCookies(cfg.CookieSecure),
		taskdesk.WithGateMetrics(metrics),
		taskdesk.WithGateLogger(logger.Named("gate")),
	)

	srv, err := server.New(gate, handlers.JSONActions(),
		server.WithLogger(logger.Named("http")),
		server.WithDashboard(store),
		server.WithGatherer(reg),
		server.WithHealthCheck("database", store.Ping),
		server.WithHealthCheck("pending", pendingCheck),
	)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	if err := srv.Listen(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// pendingStore uses Redis when REDIS_URL is set and an in process store
// otherwise.
func pendingStore(ctx context.Context, cfg *taskdesk.EnvConfig, logger hclog.Logger) (taskdesk.PendingStore, server.HealthCheck, error) {
	if cfg.RedisURL == "" {
		store := taskdesk.NewMemoryPendingStore(cfg.PendingTTL)
		go store.Run(ctx, cfg.PendingTTL)
		logger.Info("pending payloads kept in memory", "ttl", cfg.PendingTTL)
		return store, nil, nil
	}

	client, err := pendingredis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("pending store: %w", err)
	}
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()

	store := pendingredis.New(client, cfg.PendingTTL)
	logger.Info("pending payloads kept in redis", "ttl", cfg.PendingTTL)
	return store, store.Healthcheck, nil
}

func pruneEvery(ctx context.Context, interval time.Duration, prune func() int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
