// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logtail reads an append-only, externally growing text log
// incrementally.
//
// A [Reader] owns a cursor: the 1-based number of the first line it
// has not yet returned. Each [Reader.ReadNewLines] asks its [Source]
// for every line from the cursor to the current end of the log,
// returns them in log order, and advances the cursor by exactly the
// number of lines returned. Consecutive reads therefore partition the
// log: no line is returned twice and no line appended between reads is
// skipped. A read with nothing new returns an empty slice and leaves
// the cursor where it was.
//
// Sources have no random access. [CommandSource] runs
// "tail -qn +N <path>" on the machine under test and [FileSource] reads
// a local file; both rescan from the requested line on every call.
//
// # Limitations
//
// Log rotation or truncation between reads is not detected. If the log
// shrinks below the cursor, later reads return nothing until the new
// file grows past the old cursor, and lines written in between are
// never seen. A final line without a trailing newline is returned as a
// line and counted; if the producer later completes it, the remainder
// is not re-read.
//
// A failed fetch returns an error wrapping [ErrResourceUnavailable] and
// leaves the cursor unchanged. The Reader does not retry; retry policy
// belongs to the caller.
package logtail
