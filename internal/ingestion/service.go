package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	v1 "github.com/aevon-lab/statsum/internal/api/v1"
	inerr "github.com/aevon-lab/statsum/internal/core/errors"
	"github.com/google/uuid"
)

const defaultMaxLineBytes = 1024 * 1024

// Service decodes JSON-lines input into records.
type Service struct {
	maxLineBytes int
	skipInvalid  bool
	newID        func() string
}

// NewService builds a decoder. Lines longer than maxLineKB are rejected.
// With skipInvalid, rejected lines are reported and decoding continues;
// otherwise the first rejected line stops decoding.
func NewService(maxLineKB int, skipInvalid bool) *Service {
	maxLineBytes := maxLineKB * 1024
	if maxLineBytes <= 0 {
		maxLineBytes = defaultMaxLineBytes // default to 1MB
	}
	return &Service{
		maxLineBytes: maxLineBytes,
		skipInvalid:  skipInvalid,
		newID:        uuid.NewString,
	}
}

// Result holds the decoded records and the lines that were rejected.
type Result struct {
	Records  []*v1.Record
	Rejected []*inerr.RecordError
}

// Decode reads one JSON record per line. Blank lines are ignored.
func (s *Service) Decode(ctx context.Context, r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, s.maxLineBytes)), s.maxLineBytes)

	res := &Result{}
	line := 0
	for scanner.Scan() {
		line++
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		rec, recErr := s.parseRecord(line, raw)
		if recErr != nil {
			if !s.skipInvalid {
				return nil, recErr
			}
			slog.Warn("[Ingestion] Skipping invalid record",
				"line", recErr.Line,
				"error_type", recErr.ErrorType,
				"message", recErr.Message,
			)
			res.Rejected = append(res.Rejected, recErr)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &inerr.RecordError{
				Line:      line + 1,
				ErrorType: inerr.LineTooLongError,
				Message:   fmt.Sprintf("line exceeds %d bytes", s.maxLineBytes),
				Err:       err,
			}
		}
		return nil, fmt.Errorf("read input: %w", err)
	}

	slog.Info("[Ingestion] Decoded input",
		"records", len(res.Records),
		"rejected", len(res.Rejected),
	)
	return res, nil
}

// parseRecord unmarshals and validates one line. Numbers in Data keep their
// exact text as json.Number.
func (s *Service) parseRecord(line int, raw []byte) (*v1.Record, *inerr.RecordError) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rec v1.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, &inerr.RecordError{
			Line:      line,
			ErrorType: inerr.InvalidJSONError,
			Message:   err.Error(),
			Err:       err,
		}
	}

	if rec.ID == "" {
		rec.ID = s.newID()
	}
	if err := rec.Validate(); err != nil {
		return nil, &inerr.RecordError{
			Line:      line,
			ErrorType: inerr.InvalidRecordError,
			Message:   err.Error(),
			Err:       fmt.Errorf("%w: %v", inerr.ErrInvalidRecord, err),
		}
	}
	return &rec, nil
}
