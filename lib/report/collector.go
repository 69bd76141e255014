// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"
	"log/slog"

	"github.com/mmichal10/open-cas-linux/lib/phase"
	"github.com/mmichal10/open-cas-linux/lib/signal"
)

// Collector logs diagnostics and keeps them for the summary. It
// implements phase.Sink.
type Collector struct {
	logger      *slog.Logger
	diagnostics []phase.Diagnostic
}

// NewCollector returns a Collector logging through logger.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collector{logger: logger}
}

// Emit logs diagnostic at the slog level of its severity.
func (c *Collector) Emit(ctx context.Context, diagnostic phase.Diagnostic) {
	c.diagnostics = append(c.diagnostics, diagnostic)
	c.logger.Log(ctx, Level(diagnostic.Severity), diagnostic.Message,
		"phase", diagnostic.Phase,
		"signal", diagnostic.Signal,
		"count", diagnostic.Count,
		"verdict", string(diagnostic.Verdict),
	)
}

// Diagnostics returns everything emitted so far, in order.
func (c *Collector) Diagnostics() []phase.Diagnostic {
	return append([]phase.Diagnostic(nil), c.diagnostics...)
}

// Summary aggregates the diagnostics emitted so far.
func (c *Collector) Summary() Summary {
	return Summarize(c.diagnostics)
}

// Level maps a severity to its slog level.
func Level(severity signal.Severity) slog.Level {
	switch severity {
	case signal.SeverityError:
		return slog.LevelError
	case signal.SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Summary counts diagnostics per severity.
type Summary struct {
	Errors   int
	Warnings int
	Infos    int
}

// Summarize counts diagnostics per severity.
func Summarize(diagnostics []phase.Diagnostic) Summary {
	var summary Summary
	for _, diagnostic := range diagnostics {
		switch diagnostic.Severity {
		case signal.SeverityError:
			summary.Errors++
		case signal.SeverityWarning:
			summary.Warnings++
		default:
			summary.Infos++
		}
	}
	return summary
}

// Failed reports whether any diagnostic had error severity.
func (s Summary) Failed() bool {
	return s.Errors > 0
}
