// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signal

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Matches reports whether rule's pattern occurs anywhere in line. Log
// lines carry timestamp, host and tag prefixes, so this is a search,
// not a full-line match. ANSI escape sequences (journalctl colouring)
// are removed first. A rule without a pattern matches nothing.
func Matches(line string, rule Rule) bool {
	if rule.Pattern == nil {
		return false
	}
	if strings.IndexByte(line, '\x1b') >= 0 {
		line = ansi.Strip(line)
	}
	return rule.Pattern.MatchString(line)
}
