// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mmichal10/open-cas-linux/lib/codec"
	"github.com/mmichal10/open-cas-linux/lib/phase"
)

// Record is the persisted outcome of one verification run.
type Record struct {
	RunID      string        `cbor:"run_id"`
	Mode       string        `cbor:"mode,omitempty"`
	LogPath    string        `cbor:"log_path"`
	StartedAt  time.Time     `cbor:"started_at"`
	FinishedAt time.Time     `cbor:"finished_at"`
	Phases     []PhaseRecord `cbor:"phases"`

	// Error is the operational failure that ended the run early, if
	// any.
	Error string `cbor:"error,omitempty"`
}

// PhaseRecord is one phase of a Record.
type PhaseRecord struct {
	Name        string             `cbor:"name"`
	Reached     string             `cbor:"reached"`
	CursorStart int                `cbor:"cursor_start"`
	CursorEnd   int                `cbor:"cursor_end"`
	Lines       int                `cbor:"lines"`
	Digest      string             `cbor:"digest,omitempty"`
	DurationMS  int64              `cbor:"duration_ms"`
	Signals     []DiagnosticRecord `cbor:"signals,omitempty"`
}

// DiagnosticRecord is one signal verdict of a PhaseRecord.
type DiagnosticRecord struct {
	Signal   string `cbor:"signal"`
	Count    int    `cbor:"count"`
	Verdict  string `cbor:"verdict"`
	Severity string `cbor:"severity"`
	Message  string `cbor:"message"`
}

// NewRecord starts a record with a fresh run identifier.
func NewRecord(mode, logPath string, startedAt time.Time) *Record {
	return &Record{
		RunID:     uuid.NewString(),
		Mode:      mode,
		LogPath:   logPath,
		StartedAt: startedAt.UTC(),
	}
}

// AddResults appends phase results to the record.
func (r *Record) AddResults(results []phase.Result) {
	for _, result := range results {
		entry := PhaseRecord{
			Name:        result.Name,
			Reached:     string(result.Reached),
			CursorStart: result.CursorStart,
			CursorEnd:   result.CursorEnd,
			Lines:       result.Lines,
			DurationMS:  result.Duration.Milliseconds(),
		}
		if result.Reached == phase.StateVerified {
			entry.Digest = result.Digest.String()
		}
		for _, diagnostic := range result.Diagnostics {
			entry.Signals = append(entry.Signals, DiagnosticRecord{
				Signal:   diagnostic.Signal,
				Count:    diagnostic.Count,
				Verdict:  string(diagnostic.Verdict),
				Severity: string(diagnostic.Severity),
				Message:  diagnostic.Message,
			})
		}
		r.Phases = append(r.Phases, entry)
	}
}

// WriteRecords encodes records as a CBOR sequence (one item per run),
// compresses according to the extension of path, and writes the file.
func WriteRecords(path string, records []*Record) error {
	var data []byte
	for _, record := range records {
		encoded, err := codec.Marshal(record)
		if err != nil {
			return fmt.Errorf("encoding record %s: %w", record.RunID, err)
		}
		data = append(data, encoded...)
	}
	compressed, err := codec.Compress(data, codec.CompressionForPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, compressed, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadRecordData reads a record file and returns the decompressed
// CBOR sequence.
func ReadRecordData(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	decompressed, err := codec.Decompress(data, codec.CompressionForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return decompressed, nil
}

// DiagnoseRecords returns one line of CBOR diagnostic notation per
// record in data.
func DiagnoseRecords(data []byte) ([]string, error) {
	var notations []string
	for len(data) > 0 {
		notation, rest, err := codec.DiagnoseFirst(data)
		if err != nil {
			return notations, err
		}
		notations = append(notations, notation)
		data = rest
	}
	return notations, nil
}

// DecodeRecords decodes a CBOR sequence of records.
func DecodeRecords(data []byte) ([]*Record, error) {
	var records []*Record
	for len(data) > 0 {
		record := &Record{}
		rest, err := codec.UnmarshalFirst(data, record)
		if err != nil {
			return records, fmt.Errorf("decoding record %d: %w", len(records), err)
		}
		records = append(records, record)
		data = rest
	}
	return records, nil
}
