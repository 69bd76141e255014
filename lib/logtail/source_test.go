// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtail

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mmichal10/open-cas-linux/lib/remote"
	"github.com/mmichal10/open-cas-linux/lib/remote/remotetest"
	"github.com/mmichal10/open-cas-linux/lib/testutil"
)

func TestSplitLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{"empty", "", nil},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"blank line kept", "a\n\nb\n", []string{"a", "", "b"}},
		{"single newline", "\n", []string{""}},
	}
	for _, test := range tests {
		if got := SplitLines(test.output); !slices.Equal(got, test.want) {
			t.Errorf("%s: SplitLines(%q) = %q, want %q", test.name, test.output, got, test.want)
		}
	}
}

func TestCommandSourceRunsTail(t *testing.T) {
	t.Parallel()

	script := &remotetest.Script{}
	script.Reply("tail ", "Jan 1 kernel: scsi_debug: cmd 35\nJan 1 kernel: other\n")
	source := &CommandSource{Executor: script, Path: "/var/log/messages"}

	lines, err := source.LinesFrom(context.Background(), 42)
	if err != nil {
		t.Fatalf("LinesFrom: %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("LinesFrom returned %d lines, want 2", len(lines))
	}
	if got, want := script.Commands(), []string{"tail -qn +42 /var/log/messages"}; !slices.Equal(got, want) {
		t.Errorf("commands = %q, want %q", got, want)
	}
}

func TestCommandSourceFailure(t *testing.T) {
	t.Parallel()

	script := &remotetest.Script{}
	script.Fail("tail ", 1, "tail: cannot open '/var/log/messages' for reading: Permission denied")
	reader := NewReader(&CommandSource{Executor: script, Path: "/var/log/messages"})

	_, err := reader.ReadNewLines(context.Background())
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Fatalf("error = %v, want ErrResourceUnavailable", err)
	}
	if !errors.Is(err, remote.ErrCommandFailed) {
		t.Errorf("error = %v, want it to wrap remote.ErrCommandFailed", err)
	}
	if reader.Cursor() != 1 {
		t.Errorf("Cursor() = %d after failure, want 1", reader.Cursor())
	}
}

func TestCommandSourceWithLocalTail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "syslog with space")
	testutil.AppendLines(t, path, "one", "two", "three", "four", "five")

	reader := NewReader(&CommandSource{Executor: &remote.Local{}, Path: path})
	lines, err := reader.ReadNewLines(ctx)
	if err != nil {
		t.Fatalf("ReadNewLines: %v", err)
	}
	if len(lines) != 5 || reader.Cursor() != 6 {
		t.Fatalf("first read: %d lines, cursor %d; want 5 lines, cursor 6", len(lines), reader.Cursor())
	}

	testutil.AppendLines(t, path, "six", "seven", "eight")
	lines, err = reader.ReadNewLines(ctx)
	if err != nil {
		t.Fatalf("ReadNewLines: %v", err)
	}
	if want := []string{"six", "seven", "eight"}; !slices.Equal(lines, want) {
		t.Errorf("second read = %q, want %q", lines, want)
	}
	if reader.Cursor() != 9 {
		t.Errorf("Cursor() = %d, want 9", reader.Cursor())
	}

	lines, err = reader.ReadNewLines(ctx)
	if err != nil {
		t.Fatalf("ReadNewLines: %v", err)
	}
	if len(lines) != 0 || reader.Cursor() != 9 {
		t.Errorf("empty read returned %q with cursor %d", lines, reader.Cursor())
	}
}
