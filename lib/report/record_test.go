// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmichal10/open-cas-linux/lib/logtail"
	"github.com/mmichal10/open-cas-linux/lib/phase"
	"github.com/mmichal10/open-cas-linux/lib/signal"
)

func sampleResults() []phase.Result {
	return []phase.Result{
		{
			Name:        "flush cache",
			Reached:     phase.StateVerified,
			CursorStart: 10,
			CursorEnd:   14,
			Lines:       4,
			Counts:      signal.Counts{"FLUSH": 3, "FUA": 0},
			Digest:      logtail.DigestLines([]string{"a", "b", "c", "d"}),
			Duration:    1500 * time.Millisecond,
			Diagnostics: []phase.Diagnostic{
				diagnostic("flush cache", "FLUSH", 3, signal.Critical),
				diagnostic("flush cache", "FUA", 0, signal.Advisory),
			},
		},
		{
			Name:        "flush core",
			Reached:     phase.StateSynced,
			CursorStart: 14,
			CursorEnd:   14,
		},
	}
}

func sampleRecord() *Record {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := NewRecord("wb", "/var/log/messages", started)
	record.AddResults(sampleResults())
	record.FinishedAt = started.Add(time.Minute)
	record.Error = `phase "flush core": read failed after SYNCED: resource unavailable`
	return record
}

func TestAddResults(t *testing.T) {
	t.Parallel()

	record := sampleRecord()
	if record.RunID == "" {
		t.Fatal("NewRecord did not assign a run id")
	}
	if len(record.Phases) != 2 {
		t.Fatalf("got %d phases, want 2", len(record.Phases))
	}

	verified := record.Phases[0]
	if verified.DurationMS != 1500 {
		t.Errorf("DurationMS = %d, want 1500", verified.DurationMS)
	}
	if verified.Digest != logtail.DigestLines([]string{"a", "b", "c", "d"}).String() {
		t.Errorf("Digest = %q", verified.Digest)
	}
	if len(verified.Signals) != 2 || verified.Signals[1].Verdict != "NONE_FOUND" || verified.Signals[1].Severity != "warning" {
		t.Errorf("Signals = %+v", verified.Signals)
	}

	failed := record.Phases[1]
	if failed.Reached != "SYNCED" {
		t.Errorf("Reached = %q, want SYNCED", failed.Reached)
	}
	if failed.Digest != "" {
		t.Errorf("unverified phase carries digest %q", failed.Digest)
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"run.cbor", "run.cbor.zst", "run.cbor.lz4"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)
			first := sampleRecord()
			second := NewRecord("wo", "/var/log/messages", first.StartedAt)
			if err := WriteRecords(path, []*Record{first, second}); err != nil {
				t.Fatalf("WriteRecords: %v", err)
			}

			data, err := ReadRecordData(path)
			if err != nil {
				t.Fatalf("ReadRecordData: %v", err)
			}
			records, err := DecodeRecords(data)
			if err != nil {
				t.Fatalf("DecodeRecords: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("decoded %d records, want 2", len(records))
			}
			if records[0].RunID != first.RunID || records[1].Mode != "wo" {
				t.Errorf("decoded records do not match: %+v %+v", records[0], records[1])
			}
			if !records[0].StartedAt.Equal(first.StartedAt) {
				t.Errorf("StartedAt = %v, want %v", records[0].StartedAt, first.StartedAt)
			}
			if got := records[0].Phases[0].Signals[0].Count; got != 3 {
				t.Errorf("FLUSH count = %d, want 3", got)
			}

			notations, err := DiagnoseRecords(data)
			if err != nil {
				t.Fatalf("DiagnoseRecords: %v", err)
			}
			if len(notations) != 2 {
				t.Fatalf("got %d notations, want 2", len(notations))
			}
			if !strings.Contains(notations[0], first.RunID) {
				t.Errorf("notation missing run id:\n%s", notations[0])
			}
		})
	}
}

func TestReadRecordDataMissing(t *testing.T) {
	t.Parallel()

	if _, err := ReadRecordData(filepath.Join(t.TempDir(), "absent.cbor")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	if err := Render(&buffer, []*Record{sampleRecord()}, ColorNever); err != nil {
		t.Fatalf("Render: %v", err)
	}
	output := buffer.String()
	for _, want := range []string{
		"cache mode wb",
		"flush cache lines 10-13 (VERIFIED)",
		"flush core no new lines (SYNCED)",
		"FLUSH signal observed 3 times",
		"FUA signal not observed",
		"aborted:",
		"PASS  0 error(s), 1 warning(s), 1 info",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("ColorNever output contains escape sequences:\n%q", output)
	}
}

func TestRenderFailure(t *testing.T) {
	t.Parallel()

	record := NewRecord("", "/var/log/messages", time.Now())
	record.AddResults([]phase.Result{{
		Name:        "verify",
		Reached:     phase.StateVerified,
		CursorStart: 1,
		CursorEnd:   1,
		Diagnostics: []phase.Diagnostic{diagnostic("verify", "FLUSH", 0, signal.Critical)},
	}})

	var buffer bytes.Buffer
	if err := Render(&buffer, []*Record{record}, ColorNever); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buffer.String(), "FAIL  1 error(s)") {
		t.Errorf("output missing failure summary:\n%s", buffer.String())
	}
}

func TestParseColorMode(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"auto", "always", "never"} {
		if _, err := ParseColorMode(value); err != nil {
			t.Errorf("ParseColorMode(%q): %v", value, err)
		}
	}
	if _, err := ParseColorMode("sometimes"); err == nil {
		t.Error("ParseColorMode accepted an invalid value")
	}
}
