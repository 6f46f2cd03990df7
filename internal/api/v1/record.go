package v1

import (
	"fmt"
	"time"
)

// Record is one input observation: an envelope of system attributes plus a
// schemaless data payload from which rules extract numeric fields.
type Record struct {
	// ID identifies the record in error reports. Assigned on decode when
	// the input omits it.
	ID string `json:"id"`

	// Key is the sharding and grouping dimension (e.g. a principal, host or
	// device). Records with equal keys always land in the same shard.
	Key string `json:"key"`

	// Type selects which rules apply (e.g. "api.request").
	Type string `json:"type"`

	// OccurredAt places the record in a time window. Only required by
	// windowed rules; records without it are skipped by those rules.
	OccurredAt time.Time `json:"occurred_at"`

	// Metadata is a generic key-value store for context (e.g. source, region).
	Metadata map[string]string `json:"metadata,omitempty"`

	// Data is the domain-specific payload.
	Data map[string]interface{} `json:"data"`
}

// Validate ensures the record has all required attributes.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.Type == "" {
		return fmt.Errorf("type is required")
	}
	return nil
}
