// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/mmichal10/open-cas-linux/lib/signal"
)

// ColorMode selects whether the rendered summary uses colour.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color value.
func ParseColorMode(value string) (ColorMode, error) {
	switch mode := ColorMode(value); mode {
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("color must be auto, always or never, got %q", value)
	}
}

// maxMessageWidth truncates long diagnostic messages in the table.
const maxMessageWidth = 60

// Render writes a human-readable table of records to w.
func Render(w io.Writer, records []*Record, mode ColorMode) error {
	renderer := lipgloss.NewRenderer(w)
	switch mode {
	case ColorAlways:
		renderer.SetColorProfile(termenv.ANSI256)
	case ColorNever:
		renderer.SetColorProfile(termenv.Ascii)
	default:
		renderer.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
	}

	styles := newStyles(renderer)
	var builder strings.Builder
	var total Summary

	for _, record := range records {
		title := fmt.Sprintf("run %s", record.RunID)
		if record.Mode != "" {
			title = fmt.Sprintf("cache mode %s: %s", record.Mode, title)
		}
		builder.WriteString(styles.title.Render(title))
		builder.WriteString("\n")

		for _, entry := range record.Phases {
			window := fmt.Sprintf("lines %d-%d", entry.CursorStart, entry.CursorEnd-1)
			if entry.CursorEnd <= entry.CursorStart {
				window = "no new lines"
			}
			builder.WriteString(styles.phase.Render(entry.Name))
			builder.WriteString(styles.dim.Render(fmt.Sprintf(" %s (%s)", window, entry.Reached)))
			builder.WriteString("\n")

			for _, diagnostic := range entry.Signals {
				severity := signal.Severity(diagnostic.Severity)
				builder.WriteString("  ")
				builder.WriteString(styles.severity(severity).Render(fmt.Sprintf("%-7s", severity)))
				builder.WriteString(" ")
				builder.WriteString(styles.signal.Render(diagnostic.Signal))
				builder.WriteString(" ")
				builder.WriteString(ansi.Truncate(diagnostic.Message, maxMessageWidth, "…"))
				builder.WriteString("\n")

				switch severity {
				case signal.SeverityError:
					total.Errors++
				case signal.SeverityWarning:
					total.Warnings++
				default:
					total.Infos++
				}
			}
		}
		if record.Error != "" {
			builder.WriteString(styles.severity(signal.SeverityError).Render("aborted: "))
			builder.WriteString(record.Error)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	outcome := styles.severity(signal.SeverityInfo).Render("PASS")
	if total.Failed() {
		outcome = styles.severity(signal.SeverityError).Render("FAIL")
	}
	fmt.Fprintf(&builder, "%s  %d error(s), %d warning(s), %d info\n", outcome, total.Errors, total.Warnings, total.Infos)

	_, err := io.WriteString(w, builder.String())
	return err
}

type styles struct {
	title   lipgloss.Style
	phase   lipgloss.Style
	signal  lipgloss.Style
	dim     lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
}

func newStyles(renderer *lipgloss.Renderer) styles {
	return styles{
		title:   renderer.NewStyle().Bold(true).Underline(true),
		phase:   renderer.NewStyle().Bold(true),
		signal:  renderer.NewStyle().Width(6),
		dim:     renderer.NewStyle().Foreground(lipgloss.Color("245")),
		failure: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		warning: renderer.NewStyle().Foreground(lipgloss.Color("214")),
		info:    renderer.NewStyle().Foreground(lipgloss.Color("70")),
	}
}

func (s styles) severity(severity signal.Severity) lipgloss.Style {
	switch severity {
	case signal.SeverityError:
		return s.failure
	case signal.SeverityWarning:
		return s.warning
	default:
		return s.info
	}
}
