// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package phase

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmichal10/open-cas-linux/lib/clock"
	"github.com/mmichal10/open-cas-linux/lib/logtail"
	"github.com/mmichal10/open-cas-linux/lib/signal"
)

// Action is an externally observable operation performed by a phase.
type Action func(ctx context.Context) error

// Phase is one mark → act → sync → verify cycle.
type Phase struct {
	Name string

	// Action is run and waited for. Nil means no action.
	Action Action

	// Barrier is waited on after the action. Nil means verify
	// immediately.
	Barrier Barrier

	// After runs once the phase is verified, for cleanup that must not
	// land in this phase's window (removing the test file). Its log
	// output belongs to the next phase.
	After Action
}

// Sink receives diagnostics as they are produced.
type Sink interface {
	Emit(ctx context.Context, diagnostic Diagnostic)
}

// Result describes a completed (or failed) phase.
type Result struct {
	Name    string
	Reached State

	// CursorStart and CursorEnd bound the verification window: lines
	// CursorStart through CursorEnd-1.
	CursorStart int
	CursorEnd   int

	Lines       int
	Counts      signal.Counts
	Diagnostics []Diagnostic
	Digest      logtail.Digest
	Duration    time.Duration
}

// Config holds the orchestrator's collaborators.
type Config struct {
	Reader *logtail.Reader
	Rules  signal.Table
	Sink   Sink

	// Clock drives retry delays. Defaults to clock.Real().
	Clock clock.Clock

	// ReadAttempts is how many times a failed log read is attempted
	// before the phase fails. Values below 1 mean 1.
	ReadAttempts int

	// RetryDelay separates read attempts.
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Orchestrator runs phases against one shared reader.
type Orchestrator struct {
	reader       *logtail.Reader
	rules        signal.Table
	sink         Sink
	clock        clock.Clock
	readAttempts int
	retryDelay   time.Duration
	logger       *slog.Logger
}

// New returns an Orchestrator. Reader, Rules and Sink are required.
func New(config Config) *Orchestrator {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.ReadAttempts < 1 {
		config.ReadAttempts = 1
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		reader:       config.Reader,
		rules:        config.Rules,
		sink:         config.Sink,
		clock:        config.Clock,
		readAttempts: config.ReadAttempts,
		retryDelay:   config.RetryDelay,
		logger:       config.Logger,
	}
}

// Cursor returns the shared reader's cursor.
func (o *Orchestrator) Cursor() int {
	return o.reader.Cursor()
}

// Mark discards everything already in the log, so the first phase only
// sees lines written after this call.
func (o *Orchestrator) Mark(ctx context.Context) error {
	skipped, err := o.readWithRetry(ctx, "mark")
	if err != nil {
		return err
	}
	o.logger.Info("log marked", "skipped_lines", len(skipped), "cursor", o.reader.Cursor())
	return nil
}

// Run executes phases in order and returns the result of every phase
// attempted. It stops at the first phase that fails.
func (o *Orchestrator) Run(ctx context.Context, phases []Phase) ([]Result, error) {
	results := make([]Result, 0, len(phases))
	for _, phase := range phases {
		result, err := o.RunPhase(ctx, phase)
		results = append(results, result)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// RunPhase executes one phase. The returned Result is populated up to
// the state reached even when an error is returned.
func (o *Orchestrator) RunPhase(ctx context.Context, phase Phase) (Result, error) {
	start := o.clock.Now()
	logger := o.logger.With("phase", phase.Name)

	result := Result{
		Name:        phase.Name,
		Reached:     StateMarked,
		CursorStart: o.reader.Cursor(),
	}
	result.CursorEnd = result.CursorStart
	finish := func(err error) (Result, error) {
		result.Duration = o.clock.Now().Sub(start)
		return result, err
	}
	logger.Debug("phase marked", "cursor", result.CursorStart)

	if phase.Action != nil {
		if err := phase.Action(ctx); err != nil {
			return finish(&Error{Phase: phase.Name, Reached: result.Reached, Step: "action", Err: err})
		}
	}
	result.Reached = StateActionPerformed

	if phase.Barrier != nil {
		if err := phase.Barrier.Wait(ctx); err != nil {
			return finish(&Error{Phase: phase.Name, Reached: result.Reached, Step: "barrier", Err: err})
		}
	}
	result.Reached = StateSynced

	lines, err := o.readWithRetry(ctx, phase.Name)
	if err != nil {
		return finish(&Error{Phase: phase.Name, Reached: result.Reached, Step: "read", Err: err})
	}
	result.CursorEnd = o.reader.Cursor()
	result.Lines = len(lines)
	result.Digest = logtail.DigestLines(lines)
	result.Counts = signal.Classify(lines, o.rules)

	for _, rule := range o.rules {
		count := result.Counts[rule.Name]
		diagnostic := Diagnostic{
			Phase:      phase.Name,
			Signal:     rule.Name,
			Count:      count,
			Evaluation: signal.Evaluate(rule.Name, count, rule.Criticality),
		}
		result.Diagnostics = append(result.Diagnostics, diagnostic)
		o.sink.Emit(ctx, diagnostic)
	}
	result.Reached = StateVerified
	logger.Info("phase verified",
		"window_start", result.CursorStart,
		"window_end", result.CursorEnd,
		"lines", result.Lines,
	)

	if phase.After != nil {
		if err := phase.After(ctx); err != nil {
			return finish(&Error{Phase: phase.Name, Reached: result.Reached, Step: "after", Err: err})
		}
	}
	return finish(nil)
}

// readWithRetry reads new lines, retrying failed reads. The reader's
// cursor only moves on success, so a retry neither skips nor repeats
// lines.
func (o *Orchestrator) readWithRetry(ctx context.Context, name string) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= o.readAttempts; attempt++ {
		lines, err := o.reader.ReadNewLines(ctx)
		if err == nil {
			return lines, nil
		}
		lastErr = err
		if attempt == o.readAttempts || ctx.Err() != nil {
			break
		}
		o.logger.Warn("log read failed, retrying",
			"phase", name,
			"attempt", attempt,
			"error", err,
		)
		if err := sleepContext(ctx, o.clock, o.retryDelay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}
