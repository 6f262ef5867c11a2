package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// KnownLLMProviders lists the provider names [Validate] accepts without a
// warning.
var KnownLLMProviders = []string{"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. Unknown keys are rejected. An empty document yields
// the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills every unset field of cfg.
func ApplyDefaults(cfg *Config) {
	setDefault(&cfg.Server.ListenAddr, DefaultListenAddr)
	setDefault(&cfg.Server.LogLevel, LogInfo)

	c := &cfg.Classifier
	setDefault(&c.MaxAttempts, DefaultMaxAttempts)
	setDefault(&c.BaseBackoff, DefaultBaseBackoff)
	setDefault(&c.AttemptTimeout, DefaultAttemptTimeout)
	setDefault(&c.SnapshotLimit, DefaultSnapshotLimit)
	setDefault(&c.BreakerFailures, DefaultBreakerFailures)
	setDefault(&c.BreakerReset, DefaultBreakerReset)

	d := &cfg.Dialog
	setDefault(&d.MaxValidationFailures, DefaultMaxValidationFailures)
	setDefault(&d.TurnLogSize, DefaultTurnLogSize)
	setDefault(&d.PresentedOptions, DefaultPresentedOptions)
	setDefault(&d.FlexibleDays, DefaultFlexibleDays)

	setDefault(&cfg.Session.IdleTimeout, DefaultIdleTimeout)
	setDefault(&cfg.Session.SweepInterval, DefaultSweepInterval)
}

func setDefault[T comparable](field *T, def T) {
	var zero T
	if *field == zero {
		*field = def
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every problem found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Providers
	if cfg.Providers.LLM.Name == "" {
		if len(cfg.Providers.LLMFallbacks) > 0 {
			errs = append(errs, errors.New("providers.llm_fallbacks requires providers.llm"))
		}
		slog.Warn("no LLM provider configured; intents are classified by rules only")
	}
	warnUnknownProvider("providers.llm", cfg.Providers.LLM.Name)
	seen := map[string]string{cfg.Providers.LLM.Name + "/" + cfg.Providers.LLM.Model: "providers.llm"}
	for i, fb := range cfg.Providers.LLMFallbacks {
		prefix := fmt.Sprintf("providers.llm_fallbacks[%d]", i)
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		warnUnknownProvider(prefix, fb.Name)
		key := fb.Name + "/" + fb.Model
		if prev, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("%s duplicates %s (%s)", prefix, prev, key))
		}
		seen[key] = prefix
	}

	// Classifier
	c := cfg.Classifier
	if c.MaxAttempts < 1 || c.MaxAttempts > 10 {
		errs = append(errs, fmt.Errorf("classifier.max_attempts %d is out of range [1, 10]", c.MaxAttempts))
	}
	if c.BaseBackoff < 0 || c.AttemptTimeout < 0 || c.BreakerReset < 0 {
		errs = append(errs, errors.New("classifier durations must not be negative"))
	}
	if c.SnapshotLimit < 100 {
		errs = append(errs, fmt.Errorf("classifier.snapshot_limit %d is below the minimum of 100", c.SnapshotLimit))
	}
	if c.BreakerFailures < 1 {
		errs = append(errs, fmt.Errorf("classifier.breaker_failures %d must be at least 1", c.BreakerFailures))
	}

	// Dialog
	d := cfg.Dialog
	if d.MaxValidationFailures < 1 {
		errs = append(errs, fmt.Errorf("dialog.max_validation_failures %d must be at least 1", d.MaxValidationFailures))
	}
	if d.TurnLogSize < 2 {
		errs = append(errs, fmt.Errorf("dialog.turn_log_size %d must be at least 2", d.TurnLogSize))
	}
	if d.PresentedOptions < 1 || d.PresentedOptions > 10 {
		errs = append(errs, fmt.Errorf("dialog.presented_options %d is out of range [1, 10]", d.PresentedOptions))
	}
	if d.FlexibleDays < 1 || d.FlexibleDays > 14 {
		errs = append(errs, fmt.Errorf("dialog.flexible_days %d is out of range [1, 14]", d.FlexibleDays))
	}

	// Session
	s := cfg.Session
	if s.IdleTimeout < 0 || s.SweepInterval < 0 {
		errs = append(errs, errors.New("session durations must not be negative"))
	}
	if s.SweepInterval > s.IdleTimeout {
		slog.Warn("session.sweep_interval exceeds session.idle_timeout; idle sessions will linger",
			"sweep_interval", s.SweepInterval, "idle_timeout", s.IdleTimeout)
	}

	return errors.Join(errs...)
}

// warnUnknownProvider logs a warning if name is set but not in
// [KnownLLMProviders].
func warnUnknownProvider(field, name string) {
	if name == "" || slices.Contains(KnownLLMProviders, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"field", field,
		"name", name,
		"known", KnownLLMProviders,
	)
}
