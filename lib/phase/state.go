// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package phase

import (
	"fmt"

	"github.com/mmichal10/open-cas-linux/lib/signal"
)

// State is the last step a phase completed.
type State string

const (
	StateMarked          State = "MARKED"
	StateActionPerformed State = "ACTION_PERFORMED"
	StateSynced          State = "SYNCED"
	StateVerified        State = "VERIFIED"
)

// Diagnostic is the verdict for one signal in one phase.
type Diagnostic struct {
	Phase  string
	Signal string
	Count  int
	signal.Evaluation
}

// Error reports a phase that could not complete.
type Error struct {
	Phase string

	// Reached is the last state the phase completed before failing.
	Reached State

	// Step names what failed: "action", "barrier", "read" or "after".
	Step string

	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("phase %q: %s failed after %s: %v", e.Phase, e.Step, e.Reached, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
