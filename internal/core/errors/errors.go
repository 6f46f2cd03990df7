package errors

import (
	"errors"
	"fmt"
)

// Error types reported for rejected input records.
const (
	InvalidJSONError   = "invalid_json"
	InvalidRecordError = "invalid_record"
	LineTooLongError   = "line_too_long"
)

var (
	ErrInvalidRecord = errors.New("invalid record")
	ErrInvalidConfig = errors.New("invalid config")
)

// RecordError describes why one input line was rejected.
type RecordError struct {
	Line      int    `json:"line" yaml:"line"`
	ErrorType string `json:"error_type" yaml:"error_type"`
	Message   string `json:"message" yaml:"message"`
	Err       error  `json:"-" yaml:"-"`
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.ErrorType, e.Message)
}

func (e *RecordError) Unwrap() error { return e.Err }
