// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Defaults live in the embedded defaults.yaml and are loaded first.
//   - Program rules are converted to a policy.Policy via Config.Policy.
//   - External errors are wrapped with this package's sentinel errors.
package config

import (
	_ "embed"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/okian/arcadepoints/internal/domain/catalog"
	"github.com/okian/arcadepoints/internal/domain/model"
	"github.com/okian/arcadepoints/internal/domain/policy"
	"github.com/okian/arcadepoints/pkg/metrics"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BatchConcurrency bounds the goroutines scoring one batch request.
	BatchConcurrency int `koanf:"batch_concurrency"`

	// MaxBatchSize caps the participants accepted by POST /v1/score/batch.
	MaxBatchSize int `koanf:"max_batch_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// RateLimitRPS is the per-client request rate; zero disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed browser origins. Empty disables CORS headers.
	CORSOrigins []string `koanf:"cors_origins"`

	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
	// header is honoured by the rate limiter. Empty keys clients on the
	// connection address alone.
	TrustedProxies []string `koanf:"trusted_proxies"`

	// Metrics configures the Prometheus manager.
	Metrics MetricsConfig `koanf:"metrics"`

	// Program holds the scoring rules.
	Program Program `koanf:"program"`
}

// MetricsConfig maps onto metrics.Option values.
type MetricsConfig struct {
	Enabled          bool              `koanf:"enabled"`
	Namespace        string            `koanf:"namespace"`
	Subsystem        string            `koanf:"subsystem"`
	Prefix           string            `koanf:"prefix"`
	RefreshInterval  time.Duration     `koanf:"refresh_interval"`
	LatencyBucketsMs []float64         `koanf:"latency_buckets_ms"`
	ConstLabels      map[string]string `koanf:"const_labels"`
}

// Options returns the manager options for this section.
func (m MetricsConfig) Options() []metrics.Option {
	return []metrics.Option{
		metrics.WithMetricsEnabled(m.Enabled),
		metrics.WithNamespace(m.Namespace),
		metrics.WithSubsystem(m.Subsystem),
		metrics.WithMetricPrefix(m.Prefix),
		metrics.WithRefreshInterval(m.RefreshInterval),
		metrics.WithLatencyBuckets(m.LatencyBucketsMs),
		metrics.WithConstLabels(m.ConstLabels),
	}
}

// Program is the configurable rule set for one program season.
type Program struct {
	StartDate         string       `koanf:"start_date"`
	FacilitatorWindow WindowConfig `koanf:"facilitator_window"`
	Milestones        []TierConfig `koanf:"milestones"`
	Bonuses           []float64    `koanf:"bonuses"`
	Points            PointsConfig `koanf:"points"`
	Fuzzy             FuzzyConfig  `koanf:"fuzzy"`
	CatalogFile       string       `koanf:"catalog_file"`
}

// WindowConfig is an inclusive date range. A date-only End covers the whole day.
type WindowConfig struct {
	Start string `koanf:"start"`
	End   string `koanf:"end"`
}

// TierConfig is one milestone threshold.
type TierConfig struct {
	Game    int `koanf:"game"`
	Trivia  int `koanf:"trivia"`
	Skill   int `koanf:"skill"`
	LabFree int `koanf:"lab_free"`
}

// PointsConfig holds the category rates and ordered game overrides.
type PointsConfig struct {
	Game          float64          `koanf:"game"`
	Trivia        float64          `koanf:"trivia"`
	Skill         float64          `koanf:"skill"`
	GameOverrides []OverrideConfig `koanf:"game_overrides"`
}

// OverrideConfig awards Points to game badges matching any keyword.
type OverrideConfig struct {
	Points   float64  `koanf:"points"`
	Keywords []string `koanf:"keywords"`
}

// FuzzyConfig holds the skill-badge matching tolerances.
type FuzzyConfig struct {
	LengthRatio      float64 `koanf:"length_ratio"`
	WordOverlapRatio float64 `koanf:"word_overlap_ratio"`
	MinOverlapLength int     `koanf:"min_overlap_length"`
	MinWordLength    int     `koanf:"min_word_length"`
}

// New returns a Config holding the built-in defaults.
func New() *Config {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		panic(err)
	}
	var c Config
	if err := k.UnmarshalWithConf("", &c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return &c
}

func loadDefaults(k *koanf.Koanf) error {
	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return fmt.Errorf("%w: embedded defaults: %w", ErrLoadConfig, err)
	}
	return nil
}

// Validate checks server settings and program rules.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.BatchConcurrency <= 0:
		return fmt.Errorf("%w: batch_concurrency must be positive", ErrInvalidConfig)
	case c.MaxBatchSize <= 0:
		return fmt.Errorf("%w: max_batch_size must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.RateLimitRPS < 0:
		return fmt.Errorf("%w: rate_limit_rps must not be negative", ErrInvalidConfig)
	case c.RateLimitRPS > 0 && c.RateLimitBurst < 1:
		return fmt.Errorf("%w: rate_limit_burst must be at least 1", ErrInvalidConfig)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	case c.Metrics.RefreshInterval <= 0:
		return fmt.Errorf("%w: metrics.refresh_interval must be positive", ErrInvalidConfig)
	}
	for _, p := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return fmt.Errorf("%w: trusted_proxies: %q is not an address or CIDR", ErrInvalidConfig, p)
		}
	}
	p, err := c.Policy()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Policy converts the program section. Only date parsing is checked here;
// call policy.Policy.Validate for the rule checks.
func (c *Config) Policy() (policy.Policy, error) {
	pr := c.Program
	start, err := parseDate("program.start_date", pr.StartDate, false)
	if err != nil {
		return policy.Policy{}, err
	}
	wStart, err := parseDate("program.facilitator_window.start", pr.FacilitatorWindow.Start, false)
	if err != nil {
		return policy.Policy{}, err
	}
	wEnd, err := parseDate("program.facilitator_window.end", pr.FacilitatorWindow.End, true)
	if err != nil {
		return policy.Policy{}, err
	}

	p := policy.Policy{
		ProgramStart:      start,
		FacilitatorWindow: model.Window{Start: wStart, End: wEnd},
		Milestones:        make([]model.Threshold, 0, len(pr.Milestones)),
		Bonuses:           append([]float64(nil), pr.Bonuses...),
		Points: policy.Points{
			Game:   pr.Points.Game,
			Trivia: pr.Points.Trivia,
			Skill:  pr.Points.Skill,
		},
		Fuzzy: policy.Fuzzy{
			LengthRatio:      pr.Fuzzy.LengthRatio,
			WordOverlapRatio: pr.Fuzzy.WordOverlapRatio,
			MinOverlapLength: pr.Fuzzy.MinOverlapLength,
			MinWordLength:    pr.Fuzzy.MinWordLength,
		},
	}
	for _, t := range pr.Milestones {
		p.Milestones = append(p.Milestones, model.Threshold{
			Game: t.Game, Trivia: t.Trivia, Skill: t.Skill, LabFree: t.LabFree,
		})
	}
	for _, o := range pr.Points.GameOverrides {
		p.Points.GameOverrides = append(p.Points.GameOverrides, policy.KeywordRule{
			Points:   o.Points,
			Keywords: append([]string(nil), o.Keywords...),
		})
	}
	return p, nil
}

// Catalog returns the embedded catalog, or the one at program.catalog_file.
func (c *Config) Catalog() (catalog.Catalog, error) {
	if c.Program.CatalogFile == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(c.Program.CatalogFile)
	if err != nil {
		return catalog.Catalog{}, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return cat, nil
}

const dateOnly = "2006-01-02"

// parseDate accepts RFC3339 or a plain date. A plain date is midnight UTC,
// or the last instant of that day when endOfDay is set.
func parseDate(key, raw string, endOfDay bool) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse(dateOnly, s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %q is not a date", ErrInvalidConfig, key, raw)
	}
	return t, nil
}
