// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mmichal10/open-cas-linux/lib/remote"
)

// ErrResourceUnavailable is wrapped by every error caused by failing to
// fetch the log (connectivity, permissions, missing file).
var ErrResourceUnavailable = errors.New("log resource unavailable")

// Source returns every line of a log from a 1-based line number to the
// current end, in order. Lines past the end yield an empty slice, not
// an error.
type Source interface {
	LinesFrom(ctx context.Context, line int) ([]string, error)
}

// CommandSource reads a log on the machine under test with tail.
type CommandSource struct {
	Executor remote.Executor
	Path     string
}

// LinesFrom runs "tail -qn +line path" and splits its output.
func (s *CommandSource) LinesFrom(ctx context.Context, line int) ([]string, error) {
	if line < 1 {
		line = 1
	}
	command := fmt.Sprintf("tail -qn +%d %s", line, remote.Quote(s.Path))
	result, err := remote.Expect(ctx, s.Executor, command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceUnavailable, s.Path, err)
	}
	return SplitLines(result.Stdout), nil
}

// maxLineSize bounds a single log line. Kernel and syslog lines are
// far shorter; the limit only guards against a runaway binary log.
const maxLineSize = 1 << 20

// FileSource reads a log file on this machine.
type FileSource struct {
	Path string
}

// LinesFrom scans the file from the beginning, discarding lines before
// line.
func (s *FileSource) LinesFrom(ctx context.Context, line int) ([]string, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	number := 0
	for scanner.Scan() {
		number++
		if number < line {
			continue
		}
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
		if number%4096 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrResourceUnavailable, s.Path, err)
	}
	return lines, nil
}

// SplitLines splits command output into lines. A trailing newline does
// not produce an empty final line; "\r\n" endings are accepted.
func SplitLines(output string) []string {
	if output == "" {
		return nil
	}
	output = strings.TrimSuffix(output, "\n")
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
