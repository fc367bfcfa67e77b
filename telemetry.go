package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// TickRecord is one telemetry row.
type TickRecord struct {
	Tick        uint64  `csv:"tick"`
	Players     int     `csv:"players"`
	Alive       int     `csv:"alive"`
	Projectiles int     `csv:"projectiles"`
	Observers   int     `csv:"observers"`
	TickMs      float64 `csv:"tick_ms"`
}

// Telemetry appends TickRecords to a CSV stream.
type Telemetry struct {
	w             io.Writer
	closer        io.Closer
	headerWritten bool
}

// OpenTelemetry creates (truncating) the CSV file at path.
func OpenTelemetry(path string) (*Telemetry, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry file: %w", err)
	}
	return &Telemetry{w: f, closer: f}, nil
}

// NewTelemetry writes to w; used by tests.
func NewTelemetry(w io.Writer) *Telemetry {
	return &Telemetry{w: w}
}

// Write appends one row, writing the header before the first.
func (t *Telemetry) Write(rec TickRecord) error {
	if t == nil {
		return nil
	}
	records := []TickRecord{rec}
	if !t.headerWritten {
		if err := gocsv.Marshal(records, t.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		t.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, t.w); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any.
func (t *Telemetry) Close() error {
	if t == nil || t.closer == nil {
		return nil
	}
	return t.closer.Close()
}
