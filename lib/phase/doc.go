// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package phase sequences verification phases over a shared log
// reader.
//
// Each [Phase] moves through four states:
//
//	MARKED → ACTION_PERFORMED → SYNCED → VERIFIED
//
// MARKED records the reader's cursor. There is no explicit reset: a
// phase's window starts exactly where the previous phase's read
// stopped, because every phase of a run shares one [logtail.Reader].
// ACTION_PERFORMED runs the phase's action (write a file, flush the
// cache) and waits for it to return. SYNCED waits on the phase's
// [Barrier], giving the kernel time to emit log output. VERIFIED reads
// the new lines once, classifies them against every rule and emits one
// [Diagnostic] per rule to the [Sink]. Phase.After then runs cleanup.
//
// Phases run strictly one at a time. A failing action, barrier or read
// ends the phase with a *[Error] naming the phase and the state it had
// reached; [Orchestrator.Run] stops at the first such failure.
// Diagnostics never produce Go errors: an error-severity diagnostic is
// information for the caller, not a failure of the orchestrator.
package phase
