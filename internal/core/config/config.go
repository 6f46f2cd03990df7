package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aevon-lab/statsum/internal/aggregation"
	coreagg "github.com/aevon-lab/statsum/internal/core/aggregation"
	staterr "github.com/aevon-lab/statsum/internal/core/errors"
	"github.com/aevon-lab/statsum/internal/projection"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STATSUM_"

// Config represents the top-level application config plus resolved rule-loading config.
type Config struct {
	Log         LogConfig         `koanf:"log"`
	Input       InputConfig       `koanf:"input"`
	Aggregation AggregationConfig `koanf:"aggregation"`
	Report      ReportConfig      `koanf:"report"`

	// RuleLoading is populated by Load after parsing rule files.
	RuleLoading RuleLoadingConfig `koanf:"-"`
}

type LogConfig struct {
	Level string `koanf:"level"` // debug | info | warn | error
}

type InputConfig struct {
	Path        string `koanf:"path"` // "-" reads stdin
	MaxLineKB   int    `koanf:"max_line_kb"`
	SkipInvalid bool   `koanf:"skip_invalid"`
}

type AggregationConfig struct {
	ConfigDir    string `koanf:"config_dir"`
	RequireRules bool   `koanf:"require_rules"`
	Shards       int    `koanf:"shards"`
	WorkerCount  int    `koanf:"worker_count"`
	Reduce       string `koanf:"reduce"`       // fold | tree
	Partitioning string `koanf:"partitioning"` // key | round_robin
}

type ReportConfig struct {
	Granularity string `koanf:"granularity"` // window | total | Go duration
}

type RuleLoadingConfig struct {
	ConfigDir string
	Rules     []coreagg.AggregationRule
}

// Options maps the aggregation section onto runner options.
func (c AggregationConfig) Options() aggregation.Options {
	return aggregation.Options{
		Shards:       c.Shards,
		WorkerCount:  c.WorkerCount,
		Reduce:       c.Reduce,
		Partitioning: c.Partitioning,
	}
}

// SlogLevel returns the configured log level.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", staterr.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (c *Config) Validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return invalid("invalid log.level %q", c.Log.Level)
	}

	if strings.TrimSpace(c.Input.Path) == "" {
		return invalid("input.path is required")
	}
	if c.Input.MaxLineKB <= 0 {
		return invalid("input.max_line_kb must be > 0")
	}

	if strings.TrimSpace(c.Aggregation.ConfigDir) == "" {
		return invalid("aggregation.config_dir is required")
	}
	if c.Aggregation.Shards <= 0 {
		return invalid("aggregation.shards must be > 0")
	}
	if c.Aggregation.WorkerCount <= 0 {
		return invalid("aggregation.worker_count must be > 0")
	}
	if err := c.Aggregation.Options().Validate(); err != nil {
		return invalid("aggregation: %v", err)
	}

	if _, err := projection.ParseGranularity(c.Report.Granularity); err != nil {
		return invalid("report.granularity: %v", err)
	}

	return nil
}

// Load parses config from file + env, validates it, then loads and validates aggregation rules.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"log.level":                 "info",
		"input.path":                "-",
		"input.max_line_kb":         1024,
		"input.skip_invalid":        false,
		"aggregation.config_dir":    "./config/aggregations",
		"aggregation.require_rules": true,
		"aggregation.shards":        16,
		"aggregation.worker_count":  4,
		"aggregation.reduce":        aggregation.ReduceFold,
		"aggregation.partitioning":  aggregation.PartitionByKey,
		"report.granularity":        projection.GranularityWindow,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := coreagg.NewFileSystemRuleRepository(cfg.Aggregation.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load aggregation rules: %w", err)
	}
	rules := repo.GetRules()
	if cfg.Aggregation.RequireRules && len(rules) == 0 {
		return nil, fmt.Errorf("no aggregation rules found in %q", cfg.Aggregation.ConfigDir)
	}

	cfg.RuleLoading = RuleLoadingConfig{
		ConfigDir: cfg.Aggregation.ConfigDir,
		Rules:     rules,
	}

	return &cfg, nil
}
