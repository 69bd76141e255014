// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signal

import "fmt"

// Verdict classifies the number of occurrences of a signal within one
// verification window.
type Verdict string

const (
	NoneFound     Verdict = "NONE_FOUND"
	FoundOnce     Verdict = "FOUND_ONCE"
	FoundMultiple Verdict = "FOUND_MULTIPLE"
)

// Severity is the reporting level of a verdict.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Rank orders severities: info < warning < error.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	default:
		return -1
	}
}

// Evaluation is the policy outcome for one signal in one window.
type Evaluation struct {
	Verdict  Verdict
	Severity Severity
	Message  string
}

// Evaluate maps an occurrence count and criticality to a verdict. It
// never fails; negative counts are treated as zero.
func Evaluate(name string, count int, criticality Criticality) Evaluation {
	switch {
	case count <= 0:
		severity := SeverityWarning
		if criticality == Critical {
			severity = SeverityError
		}
		return Evaluation{
			Verdict:  NoneFound,
			Severity: severity,
			Message:  fmt.Sprintf("%s signal not observed", name),
		}
	case count == 1:
		return Evaluation{
			Verdict:  FoundOnce,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%s signal observed only once", name),
		}
	default:
		return Evaluation{
			Verdict:  FoundMultiple,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("%s signal observed %d times", name, count),
		}
	}
}
