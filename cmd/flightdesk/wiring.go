package main

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/flightdesk/internal/catalog"
	"github.com/MrWong99/flightdesk/internal/catalog/postgres"
	"github.com/MrWong99/flightdesk/internal/config"
	"github.com/MrWong99/flightdesk/internal/contentfilter"
	"github.com/MrWong99/flightdesk/internal/dialog"
	"github.com/MrWong99/flightdesk/internal/intent"
	"github.com/MrWong99/flightdesk/internal/observe"
	"github.com/MrWong99/flightdesk/internal/resilience"
	"github.com/MrWong99/flightdesk/internal/session"
	"github.com/MrWong99/flightdesk/internal/validate"
	"github.com/MrWong99/flightdesk/pkg/provider/llm"
)

// buildCatalog merges the built-in city table with the optional YAML file
// and PostgreSQL sources. The external sources load concurrently.
func buildCatalog(ctx context.Context, cfg config.CatalogConfig) (*catalog.Catalog, error) {
	var fromFile, fromDB []catalog.City

	g, gctx := errgroup.WithContext(ctx)
	if cfg.File != "" {
		g.Go(func() error {
			cities, err := catalog.LoadFile(cfg.File)
			if err != nil {
				return fmt.Errorf("catalog.file: %w", err)
			}
			fromFile = cities
			return nil
		})
	}
	if cfg.PostgresDSN != "" {
		g.Go(func() error {
			cities, err := postgres.Load(gctx, cfg.PostgresDSN)
			if err != nil {
				return fmt.Errorf("catalog.postgres_dsn: %w", err)
			}
			fromDB = cities
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cat, err := catalog.New(catalog.Merge(catalog.Defaults(), fromFile, fromDB))
	if err != nil {
		return nil, err
	}
	slog.Info("city catalog loaded", "cities", cat.Len(), "from_file", len(fromFile), "from_postgres", len(fromDB))
	return cat, nil
}

// wiring holds the process-wide collaborators shared by every session.
type wiring struct {
	extractor *intent.Extractor
	validator *validate.Validator
	metrics   *observe.Metrics

	// primary is nil when no LLM is configured.
	primary intent.Classifier
	breaker *resilience.CircuitBreaker
}

func newWiring(cat *catalog.Catalog, p llm.Provider, cc config.ClassifierConfig, m *observe.Metrics) *wiring {
	w := &wiring{
		extractor: intent.NewExtractor(cat),
		validator: validate.New(cat),
		metrics:   m,
	}
	if p == nil {
		return w
	}

	w.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:         "llm-classifier",
		MaxFailures:  cc.BreakerFailures,
		ResetTimeout: cc.BreakerReset,
	})
	w.primary = intent.NewRemoteLLMClassifier(p,
		intent.WithRetry(resilience.RetryConfig{
			Name:           "llm-classifier",
			MaxAttempts:    cc.MaxAttempts,
			BaseDelay:      cc.BaseBackoff,
			AttemptTimeout: cc.AttemptTimeout,
		}),
		intent.WithBreaker(w.breaker),
		intent.WithSnapshotLimit(cc.SnapshotLimit),
		intent.WithMetrics(m),
	)
	return w
}

// engineFactory returns a [session.EngineFactory] that reads the dialog and
// content-filter settings from current at session creation, so reloaded
// values reach new sessions without touching running ones.
func (w *wiring) engineFactory(current func() *config.Config) session.EngineFactory {
	return func(sessionID string) (*dialog.Engine, error) {
		cfg := current()

		filter := contentfilter.New(contentfilter.WithContactDetails(cfg.ContentFilter.AllowContactDetails))
		classifier := intent.NewFallbackClassifier(w.primary, intent.NewRuleBasedClassifier(w.extractor), w.metrics)

		return dialog.New(dialog.Config{
			Recognizer:            intent.NewRecognizer(filter, classifier, w.extractor, w.metrics),
			Validator:             w.validator,
			SessionID:             sessionID,
			MaxValidationFailures: cfg.Dialog.MaxValidationFailures,
			TurnLogSize:           cfg.Dialog.TurnLogSize,
			PresentedOptions:      cfg.Dialog.PresentedOptions,
			FlexibleDays:          cfg.Dialog.FlexibleDays,
			Metrics:               w.metrics,
		})
	}
}
