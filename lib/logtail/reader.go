// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtail

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// Reader consumes a Source incrementally. It is not safe for concurrent
// use; verification phases run strictly one after another.
type Reader struct {
	source Source
	cursor int
}

// NewReader returns a Reader whose cursor is at line 1, the start of
// the log.
func NewReader(source Source) *Reader {
	return &Reader{source: source, cursor: 1}
}

// NewReaderAt returns a Reader whose next read starts at line. Values
// below 1 mean 1.
func NewReaderAt(source Source, line int) *Reader {
	if line < 1 {
		line = 1
	}
	return &Reader{source: source, cursor: line}
}

// Cursor returns the 1-based number of the next unread line.
func (r *Reader) Cursor() int {
	return r.cursor
}

// ReadNewLines returns the lines appended since the previous call and
// advances the cursor past them. On error the cursor is unchanged.
func (r *Reader) ReadNewLines(ctx context.Context) ([]string, error) {
	lines, err := r.source.LinesFrom(ctx, r.cursor)
	if err != nil {
		return nil, err
	}
	r.cursor += len(lines)
	return lines, nil
}

// Mark consumes everything currently in the log without returning it,
// so later reads only see lines written from now on. It returns the
// number of lines skipped.
func (r *Reader) Mark(ctx context.Context) (int, error) {
	lines, err := r.ReadNewLines(ctx)
	return len(lines), err
}

// Digest is a BLAKE3 digest of a window of lines, recorded with each
// verification so windows can be correlated with a saved copy of the
// log.
type Digest [32]byte

// DigestLines hashes lines joined with "\n".
func DigestLines(lines []string) Digest {
	return Digest(blake3.Sum256([]byte(strings.Join(lines, "\n"))))
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
