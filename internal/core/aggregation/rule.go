package aggregation

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AggregationRule defines a single aggregation rule.
// Rules are loaded at startup from YAML files and fingerprinted so a report
// can be traced back to the exact rule text that produced it.
type AggregationRule struct {
	Name        string
	SourceEvent string        // record type to match; "*" matches every record
	Operator    string        // see Operators
	Field       string        // record data field to aggregate; empty for count
	Window      time.Duration // zero aggregates the whole stream
	Quantile    float64       // quantile and quantile_dd only
	GroupByKey  bool          // one aggregate per record key
	Fingerprint string        // SHA-256 of the raw YAML file
}

// Matches reports whether the rule applies to records of eventType.
func (r AggregationRule) Matches(eventType string) bool {
	return r.SourceEvent == MatchAll || r.SourceEvent == eventType
}

// NeedsField reports whether records without a numeric Field value are
// skipped by the rule.
func (r AggregationRule) NeedsField() bool {
	return r.Operator != OpCount
}

// MatchAll as source_event applies a rule to every record type.
const MatchAll = "*"

// rawRule is the on-disk YAML shape.
type rawRule struct {
	Name        string  `yaml:"name"`
	SourceEvent string  `yaml:"source_event"`
	Operator    string  `yaml:"operator"`
	Field       string  `yaml:"field"`
	WindowSize  string  `yaml:"window_size"` // optional; Go duration or "Nd"
	Quantile    float64 `yaml:"quantile"`
	GroupByKey  bool    `yaml:"group_by_key"`
}

// RuleRepository defines the interface for loading aggregation rules.
type RuleRepository interface {
	// Get returns the rule with the given name, or an error if not found.
	Get(ctx context.Context, name string) (*AggregationRule, error)

	// List returns all loaded rules, optionally filtered by source event type.
	List(ctx context.Context, sourceEvent string) ([]AggregationRule, error)

	// GetRules returns all rules sorted by name.
	GetRules() []AggregationRule
}

// FileSystemRuleRepository loads aggregation rules from *.yaml files in a directory.
// Each file contains exactly one rule at the top level. Rules are loaded once
// and cached in memory.
type FileSystemRuleRepository struct {
	dir   string
	rules map[string]AggregationRule // keyed by Name
}

// NewFileSystemRuleRepository creates a new repository and eagerly loads all rules
// from dir. Returns an error if any rule file is malformed or invalid.
func NewFileSystemRuleRepository(dir string) (*FileSystemRuleRepository, error) {
	repo := &FileSystemRuleRepository{
		dir:   dir,
		rules: make(map[string]AggregationRule),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRuleRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil // no rules directory is valid (zero rules configured)
	}
	if err != nil {
		return fmt.Errorf("aggregation rule dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("aggregation rule path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading aggregation rule dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading rule file %s: %w", path, err)
		}

		rule, err := ParseRule(data)
		if err != nil {
			return fmt.Errorf("rule file %s: %w", path, err)
		}
		if rule.Name == "" {
			continue // skip empty / comment-only files
		}

		if _, exists := r.rules[rule.Name]; exists {
			return fmt.Errorf("rule %q: duplicate rule name (check multiple YAML files)", rule.Name)
		}
		r.rules[rule.Name] = rule
	}
	return nil
}

// ParseRule decodes and validates one rule document. A document without a
// name yields a zero rule and no error.
func ParseRule(data []byte) (AggregationRule, error) {
	var raw rawRule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return AggregationRule{}, fmt.Errorf("parsing rule: %w", err)
	}
	if raw.Name == "" {
		return AggregationRule{}, nil
	}

	if raw.SourceEvent == "" {
		return AggregationRule{}, fmt.Errorf("rule %q: source_event must not be empty", raw.Name)
	}
	if !ValidOperator(raw.Operator) {
		return AggregationRule{}, fmt.Errorf("rule %q: %w %q", raw.Name, ErrUnknownOperator, raw.Operator)
	}
	if raw.Operator != OpCount && raw.Field == "" {
		return AggregationRule{}, fmt.Errorf("rule %q: operator %s requires a field", raw.Name, raw.Operator)
	}
	if raw.Operator == OpQuantile || raw.Operator == OpQuantileDD {
		if raw.Quantile <= 0 || raw.Quantile >= 1 {
			return AggregationRule{}, fmt.Errorf("rule %q: quantile must be in (0, 1), got %v", raw.Name, raw.Quantile)
		}
	}

	var window time.Duration
	if raw.WindowSize != "" {
		spec, err := ParseWindowSize(raw.WindowSize)
		if err != nil {
			return AggregationRule{}, fmt.Errorf("rule %q: %w", raw.Name, err)
		}
		window = spec.Size
	}

	return AggregationRule{
		Name:        raw.Name,
		SourceEvent: raw.SourceEvent,
		Operator:    raw.Operator,
		Field:       raw.Field,
		Window:      window,
		Quantile:    raw.Quantile,
		GroupByKey:  raw.GroupByKey,
		Fingerprint: fmt.Sprintf("%x", sha256.Sum256(data)),
	}, nil
}

// Get returns the rule with the given name, or an error if not found.
func (r *FileSystemRuleRepository) Get(_ context.Context, name string) (*AggregationRule, error) {
	rule, ok := r.rules[name]
	if !ok {
		return nil, fmt.Errorf("aggregation rule %q not found", name)
	}
	return &rule, nil
}

// List returns all loaded rules, optionally filtered by source event type.
func (r *FileSystemRuleRepository) List(_ context.Context, sourceEvent string) ([]AggregationRule, error) {
	var out []AggregationRule
	for _, rule := range r.GetRules() {
		if sourceEvent != "" && rule.SourceEvent != sourceEvent {
			continue
		}
		out = append(out, rule)
	}
	return out, nil
}

// GetRules returns all rules sorted by name.
func (r *FileSystemRuleRepository) GetRules() []AggregationRule {
	rules := make([]AggregationRule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Name < rules[j].Name })
	return rules
}
