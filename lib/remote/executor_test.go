// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"/var/log/messages", "/var/log/messages"},
		{"", "''"},
		{"/mnt/cas/tmp file", "'/mnt/cas/tmp file'"},
		{"it's", `'it'\''s'`},
		{"$(reboot)", "'$(reboot)'"},
	}
	for _, test := range tests {
		if got := Quote(test.input); got != test.want {
			t.Errorf("Quote(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestLocalRun(t *testing.T) {
	t.Parallel()

	executor := &Local{}
	result, err := executor.Run(context.Background(), "echo out; echo err >&2; exit 3")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if result.Stdout != "out\n" {
		t.Errorf("Stdout = %q, want %q", result.Stdout, "out\n")
	}
	if result.Stderr != "err\n" {
		t.Errorf("Stderr = %q, want %q", result.Stderr, "err\n")
	}
}

func TestLocalRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := (&Local{}).Run(ctx, "sleep 30 & wait")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Run returned after %v; process group was not killed", elapsed)
	}
}

func TestExpect(t *testing.T) {
	t.Parallel()

	executor := &Local{}
	if _, err := Expect(context.Background(), executor, "true"); err != nil {
		t.Fatalf("Expect(true): %v", err)
	}

	_, err := Expect(context.Background(), executor, "echo 'no such cache' >&2; exit 2")
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("Expect error = %v, want ErrCommandFailed", err)
	}
	var commandError *CommandError
	if !errors.As(err, &commandError) {
		t.Fatalf("Expect error %T is not *CommandError", err)
	}
	if commandError.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", commandError.ExitCode)
	}
	if !strings.Contains(err.Error(), "no such cache") {
		t.Errorf("error %q does not carry stderr", err)
	}
}
