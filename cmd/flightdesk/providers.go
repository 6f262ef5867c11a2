package main

import (
	"fmt"
	"log/slog"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/flightdesk/internal/config"
	"github.com/MrWong99/flightdesk/internal/resilience"
	"github.com/MrWong99/flightdesk/pkg/provider/llm"
	"github.com/MrWong99/flightdesk/pkg/provider/llm/anyllm"
	"github.com/MrWong99/flightdesk/pkg/provider/llm/openai"
)

// registerBuiltinProviders wires every compiled-in LLM backend into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// openai goes through the official SDK so organization and timeout
	// options are honoured.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, openai.WithOrganization(org))
		}
		if raw := optString(entry.Options, "timeout"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("openai: options.timeout: %w", err)
			}
			opts = append(opts, openai.WithTimeout(d))
		}
		p, err := openai.New(entry.APIKey, entry.Model, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	})

	// The remaining hosted backends share the same pattern: optional APIKey
	// + optional BaseURL.
	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			p, err := anyllm.New(providerName, entry.Model, opts...)
			if err != nil {
				return nil, err
			}
			return p, nil
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		p, err := anyllm.New("ollama", entry.Model, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

// buildLLM instantiates the configured primary LLM and its fallbacks. It
// returns a nil provider when no LLM is configured, in which case the
// classifier runs on rules alone. chain lists the backend names in failover
// order.
func buildLLM(cfg *config.Config, reg *config.Registry) (p llm.Provider, chain []string, err error) {
	entry := cfg.Providers.LLM
	if entry.Name == "" {
		slog.Warn("no LLM provider configured, using rule-based classification only")
		return nil, nil, nil
	}

	primary, err := reg.CreateLLM(entry)
	if err != nil {
		return nil, nil, fmt.Errorf("providers.llm: %w", err)
	}
	if len(cfg.Providers.LLMFallbacks) == 0 {
		return primary, []string{providerLabel(entry)}, nil
	}

	group := resilience.NewLLMFallback(primary, providerLabel(entry), resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.Classifier.BreakerFailures,
			ResetTimeout: cfg.Classifier.BreakerReset,
		},
	})
	for i, fb := range cfg.Providers.LLMFallbacks {
		p, err := reg.CreateLLM(fb)
		if err != nil {
			return nil, nil, fmt.Errorf("providers.llm_fallbacks[%d]: %w", i, err)
		}
		group.AddFallback(providerLabel(fb), p)
	}
	return group, group.Providers(), nil
}

func providerLabel(e config.ProviderEntry) string {
	if e.Model == "" {
		return e.Name
	}
	return e.Name + "/" + e.Model
}

// optString extracts a string value from a provider options map.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
