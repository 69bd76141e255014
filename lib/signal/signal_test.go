// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signal

import (
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

const (
	flushLine = "Mar  1 12:00:01 dut kernel: scsi_debug: [sdb] cmd 35 00 00 00 00 00 00 00 00 00"
	fuaLine   = "Mar  1 12:00:02 dut kernel: scsi_debug: [sdb] cmd 2a 08 00 01 00 00 00 00 08 00"
	plainLine = "Mar  1 12:00:03 dut systemd[1]: Started Session 4 of user root."
)

func defaultTable(t *testing.T) Table {
	t.Helper()
	table, err := Compile(DefaultDefinitions())
	if err != nil {
		t.Fatalf("Compile(DefaultDefinitions()): %v", err)
	}
	return table
}

func TestMatches(t *testing.T) {
	t.Parallel()

	table := defaultTable(t)
	flush, fua := table[0], table[1]

	tests := []struct {
		name string
		line string
		rule Rule
		want bool
	}{
		{"flush line", flushLine, flush, true},
		{"fua line is not a flush", fuaLine, flush, false},
		{"fua line", fuaLine, fua, true},
		{"unrelated", plainLine, flush, false},
		{"empty line", "", flush, false},
		{"invalid utf-8", "scsi_debug: \xff\xfe cmd 35", flush, true},
		{"ansi coloured", "\x1b[1;31mscsi_debug:\x1b[0m [sdb] cmd 35", flush, true},
		{"nil pattern", flushLine, Rule{Name: "EMPTY"}, false},
	}
	for _, test := range tests {
		if got := Matches(test.line, test.rule); got != test.want {
			t.Errorf("%s: Matches(%q, %s) = %v, want %v", test.name, test.line, test.rule.Name, got, test.want)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	table := defaultTable(t)
	lines := []string{flushLine, plainLine, flushLine, "kernel: sd 2:0:0:0: [sdb] Attached SCSI disk"}

	counts := Classify(lines, table)
	want := Counts{"FLUSH": 2, "FUA": 0}
	if !maps.Equal(counts, want) {
		t.Errorf("Classify = %v, want %v", counts, want)
	}
}

func TestClassifyOverlappingRules(t *testing.T) {
	t.Parallel()

	table, err := Compile([]Definition{
		{Name: "ANY_SCSI", Pattern: `scsi_debug:`},
		{Name: "FLUSH", Pattern: `cmd 35`, Criticality: Critical},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	counts := Classify([]string{flushLine, fuaLine}, table)
	if counts["ANY_SCSI"] != 2 || counts["FLUSH"] != 1 {
		t.Errorf("Classify = %v, want ANY_SCSI=2 FLUSH=1", counts)
	}
}

func TestClassifyIsAdditive(t *testing.T) {
	t.Parallel()

	table := defaultTable(t)
	lines := []string{flushLine, fuaLine, plainLine, flushLine, fuaLine, fuaLine, plainLine}

	whole := Classify(lines, table)
	for split := 0; split <= len(lines); split++ {
		sum := Classify(lines[:split], table).Add(Classify(lines[split:], table))
		if !maps.Equal(sum, whole) {
			t.Errorf("split at %d: %v + ... = %v, want %v", split, Classify(lines[:split], table), sum, whole)
		}
	}
}

func TestClassifyEmptyBatch(t *testing.T) {
	t.Parallel()

	counts := Classify(nil, defaultTable(t))
	if !maps.Equal(counts, Counts{"FLUSH": 0, "FUA": 0}) {
		t.Errorf("Classify(nil) = %v, want zero for every rule", counts)
	}
}

func TestEvaluateBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count       int
		criticality Criticality
		verdict     Verdict
		severity    Severity
	}{
		{0, Critical, NoneFound, SeverityError},
		{0, Advisory, NoneFound, SeverityWarning},
		{-1, Critical, NoneFound, SeverityError},
		{1, Critical, FoundOnce, SeverityWarning},
		{1, Advisory, FoundOnce, SeverityWarning},
		{2, Critical, FoundMultiple, SeverityInfo},
		{2, Advisory, FoundMultiple, SeverityInfo},
		{1000, Critical, FoundMultiple, SeverityInfo},
	}
	for _, test := range tests {
		evaluation := Evaluate("FLUSH", test.count, test.criticality)
		if evaluation.Verdict != test.verdict || evaluation.Severity != test.severity {
			t.Errorf("Evaluate(%d, %s) = %s/%s, want %s/%s", test.count, test.criticality,
				evaluation.Verdict, evaluation.Severity, test.verdict, test.severity)
		}
		if !strings.HasPrefix(evaluation.Message, "FLUSH ") {
			t.Errorf("Evaluate(%d, %s) message %q does not name the signal", test.count, test.criticality, evaluation.Message)
		}
	}
}

func TestEvaluateMonotonicInCount(t *testing.T) {
	t.Parallel()

	for _, criticality := range []Criticality{Critical, Advisory} {
		previous := Evaluate("X", 0, criticality).Severity.Rank()
		for count := 1; count <= 50; count++ {
			rank := Evaluate("X", count, criticality).Severity.Rank()
			if rank > previous {
				t.Fatalf("%s: severity rank rose from %d to %d at count %d", criticality, previous, rank, count)
			}
			previous = rank
		}
	}
}

func TestEvaluateCriticalFlushAbsentThenOnce(t *testing.T) {
	t.Parallel()

	absent := Evaluate("FLUSH", 0, Critical)
	if absent.Verdict != NoneFound || absent.Severity != SeverityError {
		t.Errorf("absent = %+v, want NONE_FOUND/error", absent)
	}
	once := Evaluate("FLUSH", 1, Critical)
	if once.Verdict != FoundOnce || once.Severity != SeverityWarning {
		t.Errorf("once = %+v, want FOUND_ONCE/warning", once)
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	_, err := Compile([]Definition{
		{Name: "", Pattern: "x"},
		{Name: "A", Pattern: "("},
		{Name: "B", Pattern: "x", Criticality: "fatal"},
		{Name: "C"},
		{Name: "D", Pattern: "d"},
		{Name: "D", Pattern: "d"},
	})
	if err == nil {
		t.Fatal("Compile accepted invalid definitions")
	}
	for _, want := range []string{"rule 0: name is required", `rule "A"`, `rule "B": criticality`, `rule "C": pattern is required`, `rule "D": duplicate name`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}

	if _, err := Compile(nil); err == nil {
		t.Error("Compile(nil) should fail")
	}
}

func TestCompileDefaultsToAdvisory(t *testing.T) {
	t.Parallel()

	table, err := Compile([]Definition{{Name: "SYNC", Pattern: "cmd 91"}})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if table[0].Criticality != Advisory {
		t.Errorf("Criticality = %q, want advisory", table[0].Criticality)
	}
	if got := table.Names(); len(got) != 1 || got[0] != "SYNC" {
		t.Errorf("Names() = %q", got)
	}
}

func TestReadRulesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.jsonc")
	content := `{
  // SYNCHRONIZE CACHE(10)
  "rules": [
    {"name": "FLUSH", "pattern": "scsi_debug:[\\s\\S]*cmd 35", "criticality": "critical"},
    /* WRITE(10) with FUA */
    {"name": "FUA", "pattern": "scsi_debug:[\\s\\S]*cmd 2a 08", "criticality": "advisory"},
  ],
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	definitions, err := ReadRulesFile(path)
	if err != nil {
		t.Fatalf("ReadRulesFile: %v", err)
	}
	table, err := Compile(definitions)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(table) != 2 || table[0].Criticality != Critical {
		t.Fatalf("table = %+v", table)
	}
	if !regexp.MustCompile(table[0].Pattern.String()).MatchString(flushLine) {
		t.Error("FLUSH rule from file does not match a flush line")
	}
}
