// Command flightdesk serves the flight-booking dialog engine over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/flightdesk/internal/api"
	"github.com/MrWong99/flightdesk/internal/config"
	"github.com/MrWong99/flightdesk/internal/health"
	"github.com/MrWong99/flightdesk/internal/ledger"
	"github.com/MrWong99/flightdesk/internal/observe"
	"github.com/MrWong99/flightdesk/internal/session"
)

// version is set at build time via -ldflags.
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	watch := flag.Bool("watch", true, "reload log level and dialog settings when the config file changes")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "flightdesk: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "flightdesk: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	level.Set(observe.ParseLevel(string(cfg.Server.LogLevel)))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	slog.Info("flightdesk starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Classifier ────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	provider, chain, err := buildLLM(cfg, reg)
	if err != nil {
		slog.Error("failed to build LLM provider", "err", err)
		return 1
	}

	// ── City catalog ──────────────────────────────────────────────────────────
	cat, err := buildCatalog(ctx, cfg.Catalog)
	if err != nil {
		slog.Error("failed to load city catalog", "err", err)
		return 1
	}

	// ── Sessions ──────────────────────────────────────────────────────────────
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	var recorder session.BookingRecorder
	if path := cfg.Session.LedgerFile; path != "" {
		recorder = ledger.NewFileStore(path)
	}

	w := newWiring(cat, provider, cfg.Classifier, metrics)
	sessions, err := session.NewManager(session.Config{
		NewEngine:     w.engineFactory(current.Load),
		Recorder:      recorder,
		IdleTimeout:   cfg.Session.IdleTimeout,
		SweepInterval: cfg.Session.SweepInterval,
		Metrics:       metrics,
	})
	if err != nil {
		slog.Error("failed to create session manager", "err", err)
		return 1
	}
	sessions.Start(ctx)
	defer sessions.Stop()

	// ── Hot reload ────────────────────────────────────────────────────────────
	if *watch {
		watcher, err := config.NewWatcher(*configPath, func(_, updated *config.Config, diff config.ConfigDiff) {
			if diff.LogLevelChanged {
				level.Set(observe.ParseLevel(string(diff.NewLogLevel)))
			}
			current.Store(updated)
		})
		if err != nil {
			slog.Warn("config watcher disabled", "err", err)
		} else {
			defer watcher.Stop()
		}
	}

	printStartupSummary(cfg, chain, cat.Len())

	// ── HTTP server ───────────────────────────────────────────────────────────
	checks := []health.Checker{health.CatalogLoaded(cat)}
	if w.breaker != nil {
		checks = append(checks, health.BreakerClosed("llm_classifier", w.breaker))
	}

	mux := http.NewServeMux()
	api.New(sessions).Register(mux)
	health.New(checks...).Register(mux)
	mux.Handle("GET /metrics", observe.MetricsHandler())

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server ready, press Ctrl+C to shut down", "addr", srv.Addr)
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, chain []string, cities int) {
	llmName := "(rules only)"
	if len(chain) > 0 {
		llmName = chain[0]
		if len(chain) > 1 {
			llmName = fmt.Sprintf("%s +%d", chain[0], len(chain)-1)
		}
	}
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       flightdesk, startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("LLM", llmName)
	printRow("Model", cfg.Providers.LLM.Model)
	printRow("Cities", fmt.Sprint(cities))
	printRow("Listen addr", cfg.Server.ListenAddr)
	printRow("Idle timeout", cfg.Session.IdleTimeout.String())
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(label, value string) {
	if value == "" {
		value = "(not configured)"
	}
	if r := []rune(value); len(r) > 18 {
		value = string(r[:17]) + "…"
	}
	fmt.Printf("║  %-14s  : %-18s ║\n", label, value)
}
