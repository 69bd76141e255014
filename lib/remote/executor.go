// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCommandFailed is matched (errors.Is) by every *CommandError.
var ErrCommandFailed = errors.New("command failed")

// Executor runs a shell command line and waits for it to finish.
//
// A nil error means the command ran to completion; its exit status is
// in Result.ExitCode. A non-nil error means the command could not be
// run or waited for (connection lost, context cancelled).
type Executor interface {
	Run(ctx context.Context, command string) (Result, error)
}

// Result is the outcome of one command.
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandError reports a command that exited non-zero where success
// was required.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("%q exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%q exited with code %d: %s", e.Command, e.ExitCode, stderr)
}

// Is lets errors.Is(err, ErrCommandFailed) match any CommandError.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}

// Expect runs command and returns its result, or an error if it could
// not run or exited non-zero.
func Expect(ctx context.Context, executor Executor, command string) (Result, error) {
	result, err := executor.Run(ctx, command)
	if err != nil {
		return result, fmt.Errorf("running %q: %w", command, err)
	}
	if result.ExitCode != 0 {
		return result, &CommandError{
			Command:  command,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return result, nil
}

// Quote returns s quoted for a POSIX shell. Strings made only of safe
// characters are returned unchanged.
func Quote(s string) string {
	safe := s != ""
	for _, char := range s {
		if !isShellSafe(char) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(char rune) bool {
	switch {
	case char >= 'a' && char <= 'z', char >= 'A' && char <= 'Z', char >= '0' && char <= '9':
		return true
	}
	switch char {
	case '-', '_', '.', '/', ':', '=', '+', ',', '@', '%':
		return true
	}
	return false
}
