package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lai/logistics/dashboard/config"
	"github.com/lai/logistics/dashboard/db"
	"github.com/lai/logistics/dashboard/service"
	"github.com/lai/logistics/dashboard/web"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	loc, _ := cfg.Location()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := service.NewBackendClient(cfg.BackendURL, cfg.RequestTimeout)
	hub := service.NewHub()
	listeners := []service.CycleListener{hub}

	opts := web.Options{Hub: hub, Location: loc}

	// Lookup history
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		queries := db.New(pool)
		if err := queries.CreateLookupsTable(ctx); err != nil {
			slog.Error("create lookups table failed", "error", err)
			os.Exit(1)
		}
		history := service.NewHistory(queries)
		listeners = append(listeners, history)
		opts.History = history
		opts.Health = pool.Ping
	}

	// Kafka: live positions in, cycle events out
	var consumer *service.TelemetryConsumer
	var producer *service.EventProducer
	if cfg.Kafka.Enabled() {
		producer = service.NewEventProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		listeners = append(listeners, producer)

		consumer = service.NewTelemetryConsumer(service.TelemetryConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.TelemetryTopic,
			GroupID: cfg.Kafka.GroupID,
		}, hub.PublishPosition)
		go consumer.Run(ctx)
	}

	if cfg.Alerts.Enabled() {
		listeners = append(listeners, service.NewRiskAlerter(
			cfg.Alerts.Risk,
			cfg.Alerts.SMTPHost, cfg.Alerts.SMTPPort,
			cfg.Alerts.SMTPUser, cfg.Alerts.SMTPPassword,
			cfg.Alerts.Recipients,
		))
	}

	sessions := service.NewSessions(cfg.SessionTTL, func() *service.Dashboard {
		return service.NewDashboard(backend, cfg.DefaultContainerID, listeners...)
	})
	go sessions.Run(ctx, time.Minute)
	opts.Sessions = sessions

	if cfg.ProxyEnabled {
		proxy, err := service.NewBackendProxy(cfg.BackendURL)
		if err != nil {
			slog.Error("backend proxy setup failed", "error", err)
			os.Exit(1)
		}
		opts.Proxy = proxy
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           web.NewServer(opts).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout(),
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		srv.Shutdown(shutdownCtx)
		// Let history, events and alerts of the last cycles land before
		// their sinks close.
		sessions.Wait()
		if consumer != nil {
			consumer.Close()
		}
		if producer != nil {
			producer.Close()
		}
		hub.CloseAll()
		close(done)
	}()

	slog.Info("dashboard service listening",
		"addr", cfg.ListenAddr,
		"backend", cfg.BackendURL,
		"proxy", cfg.ProxyEnabled,
		"history", pool != nil,
		"kafka", cfg.Kafka.Enabled(),
		"alerts", cfg.Alerts.Enabled(),
	)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("shutdown complete")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
