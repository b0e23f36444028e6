package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/activity/internal/api"
	"github.com/gyaneshwarpardhi/activity/internal/config"
	"github.com/gyaneshwarpardhi/activity/internal/engine"
	"github.com/gyaneshwarpardhi/activity/internal/logging"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/activity.yaml", "Path to activity YAML config")
	jsonLogs := flag.Bool("json-logs", false, "Emit logs as JSON")
	flag.Parse()

	logging.Init(os.Stdout, *jsonLogs, slog.LevelInfo)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	logging.Init(os.Stdout, *jsonLogs, logging.ParseLevel(cfg.LogLevel))

	settings, err := engine.SettingsFromConfig(cfg)
	if err != nil {
		slog.Error("invalid engine settings", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"user", cfg.User,
		"tracked_sources", len(cfg.TrackedSources),
		"daily_cap_hours", cfg.DailyCapHours,
	)

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, settings, cfg.Engine)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		s, err := engine.SettingsFromConfig(newCfg)
		if err != nil {
			slog.Warn("hot-reload skipped: settings invalid", "err", err)
			return
		}
		eng.SwapSettings(s)
		slog.Info("settings hot-reloaded",
			"tracked_sources", len(newCfg.TrackedSources),
			"daily_cap_hours", newCfg.DailyCapHours,
		)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.New(eng, loader),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel()
	eng.Shutdown()
	slog.Info("goodbye")
}
