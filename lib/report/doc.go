// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package report collects verification diagnostics, aggregates them
// into a run outcome, and persists or renders them.
//
// [Collector] is the phase.Sink used by the CLI: every diagnostic is
// logged through slog at the level matching its severity and kept for
// the [Summary]. The run failed if any diagnostic has error severity;
// warnings (a signal seen only once, an advisory signal missing) are
// surfaced but do not fail the run.
//
// A [Record] is the durable form of a run: one entry per phase with its
// window bounds, counts, verdicts and the BLAKE3 digest of the lines it
// classified. Records are CBOR (see lib/codec), compressed according to
// the file extension.
package report
