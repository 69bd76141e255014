// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtail

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mmichal10/open-cas-linux/lib/testutil"
)

func newLogFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "messages")
	testutil.AppendLines(t, path, lines...)
	return path
}

func numbered(prefix string, from, count int) []string {
	lines := make([]string, count)
	for i := range lines {
		lines[i] = fmt.Sprintf("%s line %d", prefix, from+i)
	}
	return lines
}

func TestReaderAppendedLinesOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	initial := numbered("boot", 1, 5)
	path := newLogFile(t, initial...)
	reader := NewReader(&FileSource{Path: path})

	if reader.Cursor() != 1 {
		t.Fatalf("initial Cursor() = %d, want 1", reader.Cursor())
	}

	lines, err := reader.ReadNewLines(ctx)
	if err != nil {
		t.Fatalf("ReadNewLines: %v", err)
	}
	if !slices.Equal(lines, initial) {
		t.Errorf("first read = %q, want %q", lines, initial)
	}
	if reader.Cursor() != 6 {
		t.Errorf("Cursor() after first read = %d, want 6", reader.Cursor())
	}

	appended := numbered("kernel", 6, 3)
	testutil.AppendLines(t, path, appended...)

	lines, err = reader.ReadNewLines(ctx)
	if err != nil {
		t.Fatalf("ReadNewLines: %v", err)
	}
	if !slices.Equal(lines, appended) {
		t.Errorf("second read = %q, want %q", lines, appended)
	}
	if reader.Cursor() != 9 {
		t.Errorf("Cursor() after second read = %d, want 9", reader.Cursor())
	}
}

func TestReaderEmptyReadIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := newLogFile(t, numbered("boot", 1, 4)...)
	reader := NewReader(&FileSource{Path: path})
	if _, err := reader.ReadNewLines(ctx); err != nil {
		t.Fatalf("ReadNewLines: %v", err)
	}

	for range 3 {
		lines, err := reader.ReadNewLines(ctx)
		if err != nil {
			t.Fatalf("ReadNewLines: %v", err)
		}
		if len(lines) != 0 {
			t.Errorf("read with nothing appended returned %q", lines)
		}
		if reader.Cursor() != 5 {
			t.Errorf("Cursor() = %d, want 5", reader.Cursor())
		}
	}
}

func TestReaderPartitionsGrowingLog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := newLogFile(t)
	reader := NewReader(&FileSource{Path: path})

	var written, delivered []string
	previousCursor := reader.Cursor()
	for batch, size := range []int{3, 0, 1, 7, 0, 0, 2} {
		lines := numbered(fmt.Sprintf("batch%d", batch), len(written)+1, size)
		testutil.AppendLines(t, path, lines...)
		written = append(written, lines...)

		got, err := reader.ReadNewLines(ctx)
		if err != nil {
			t.Fatalf("batch %d: ReadNewLines: %v", batch, err)
		}
		if !slices.Equal(got, lines) {
			t.Errorf("batch %d: read %q, want %q", batch, got, lines)
		}
		if reader.Cursor() < previousCursor {
			t.Errorf("batch %d: cursor moved backwards from %d to %d", batch, previousCursor, reader.Cursor())
		}
		previousCursor = reader.Cursor()
		delivered = append(delivered, got...)
	}

	if !slices.Equal(delivered, written) {
		t.Errorf("delivered %d lines, want every written line exactly once (%d)", len(delivered), len(written))
	}
}

func TestReaderMarkSkipsExistingLines(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := newLogFile(t, numbered("old", 1, 10)...)
	reader := NewReader(&FileSource{Path: path})

	skipped, err := reader.Mark(ctx)
	if err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if skipped != 10 {
		t.Errorf("Mark skipped %d lines, want 10", skipped)
	}

	testutil.AppendLines(t, path, "new line")
	lines, err := reader.ReadNewLines(ctx)
	if err != nil {
		t.Fatalf("ReadNewLines: %v", err)
	}
	if !slices.Equal(lines, []string{"new line"}) {
		t.Errorf("read after Mark = %q, want only the new line", lines)
	}
}

type failingSource struct {
	err   error
	calls int
}

func (s *failingSource) LinesFrom(context.Context, int) ([]string, error) {
	s.calls++
	return nil, s.err
}

func TestReaderErrorLeavesCursor(t *testing.T) {
	t.Parallel()

	source := &failingSource{err: fmt.Errorf("%w: permission denied", ErrResourceUnavailable)}
	reader := NewReader(source)

	_, err := reader.ReadNewLines(context.Background())
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Fatalf("ReadNewLines error = %v, want ErrResourceUnavailable", err)
	}
	if reader.Cursor() != 1 {
		t.Errorf("Cursor() after failed read = %d, want 1", reader.Cursor())
	}
	if source.calls != 1 {
		t.Errorf("source called %d times, want 1 (no internal retry)", source.calls)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	t.Parallel()

	source := &FileSource{Path: filepath.Join(t.TempDir(), "absent")}
	_, err := source.LinesFrom(context.Background(), 1)
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Fatalf("LinesFrom error = %v, want ErrResourceUnavailable", err)
	}
}

func TestFileSourcePastEnd(t *testing.T) {
	t.Parallel()

	path := newLogFile(t, "one", "two")
	lines, err := (&FileSource{Path: path}).LinesFrom(context.Background(), 50)
	if err != nil {
		t.Fatalf("LinesFrom: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("LinesFrom past end = %q, want none", lines)
	}
}

func TestDigestLines(t *testing.T) {
	t.Parallel()

	first := DigestLines([]string{"a", "b"})
	if first != DigestLines([]string{"a", "b"}) {
		t.Error("DigestLines is not deterministic")
	}
	if first == DigestLines([]string{"ab"}) {
		t.Error("DigestLines ignores line boundaries")
	}
	if len(first.String()) != 64 {
		t.Errorf("String() = %q, want 64 hex characters", first.String())
	}
}

func TestNewReaderAt(t *testing.T) {
	t.Parallel()

	path := newLogFile(t, numbered("boot", 1, 5)...)
	reader := NewReaderAt(&FileSource{Path: path}, 4)
	lines, err := reader.ReadNewLines(context.Background())
	if err != nil {
		t.Fatalf("ReadNewLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "boot line 4" {
		t.Errorf("lines = %q, want lines 4 and 5", lines)
	}
	if reader.Cursor() != 6 {
		t.Errorf("cursor = %d, want 6", reader.Cursor())
	}

	if got := NewReaderAt(&FileSource{Path: path}, 0).Cursor(); got != 1 {
		t.Errorf("NewReaderAt(0).Cursor() = %d, want 1", got)
	}
}
