package projection

import (
	"errors"
	"time"
)

const (
	// GranularityWindow keeps every rule's own window buckets.
	GranularityWindow = "window"

	// GranularityTotal collapses all windows of an aggregate into one.
	GranularityTotal = "total"
)

// ErrInvalidGranularity marks a report granularity that cannot be parsed.
var ErrInvalidGranularity = errors.New("invalid granularity")

// Row is one flattened aggregate in a report.
type Row struct {
	Rule        string     `yaml:"rule"`
	Operator    string     `yaml:"operator"`
	Key         string     `yaml:"key,omitempty"`
	WindowStart *time.Time `yaml:"window_start,omitempty"`
	Value       *float64   `yaml:"value"`
	Count       uint64     `yaml:"count"`
}
