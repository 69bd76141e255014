// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/tidwall/jsonc"
)

// Criticality decides how the absence of a signal is reported.
type Criticality string

const (
	// Critical signals must appear in every verification window;
	// absence is an error.
	Critical Criticality = "critical"

	// Advisory signals are expected but their absence is only a
	// warning.
	Advisory Criticality = "advisory"
)

// Definition is the declarative form of a rule as it appears in
// configuration files.
type Definition struct {
	Name        string      `yaml:"name" json:"name"`
	Pattern     string      `yaml:"pattern" json:"pattern"`
	Criticality Criticality `yaml:"criticality" json:"criticality"`
}

// Rule is a compiled, immutable signal rule.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Criticality Criticality
}

// Table is an ordered set of rules with unique names. Diagnostics are
// emitted in table order.
type Table []Rule

// Names returns the rule names in table order.
func (t Table) Names() []string {
	names := make([]string, len(t))
	for i, rule := range t {
		names[i] = rule.Name
	}
	return names
}

// DefaultDefinitions returns the FLUSH and FUA rules for scsi_debug
// command tracing (scsi_debug loaded with opts=1 logs every CDB).
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "FLUSH", Pattern: `scsi_debug:[\s\S]*cmd 35`, Criticality: Critical},
		{Name: "FUA", Pattern: `scsi_debug:[\s\S]*cmd 2a 08`, Criticality: Advisory},
	}
}

// Compile validates definitions and compiles them into a Table. Every
// problem is reported, not just the first.
func Compile(definitions []Definition) (Table, error) {
	if len(definitions) == 0 {
		return nil, errors.New("signal: no rules defined")
	}

	var errs []error
	seen := make(map[string]bool, len(definitions))
	table := make(Table, 0, len(definitions))
	for i, definition := range definitions {
		if definition.Name == "" {
			errs = append(errs, fmt.Errorf("rule %d: name is required", i))
			continue
		}
		if seen[definition.Name] {
			errs = append(errs, fmt.Errorf("rule %q: duplicate name", definition.Name))
			continue
		}
		seen[definition.Name] = true

		criticality := definition.Criticality
		switch criticality {
		case "":
			criticality = Advisory
		case Critical, Advisory:
		default:
			errs = append(errs, fmt.Errorf("rule %q: criticality must be %q or %q, got %q",
				definition.Name, Critical, Advisory, criticality))
			continue
		}

		if definition.Pattern == "" {
			errs = append(errs, fmt.Errorf("rule %q: pattern is required", definition.Name))
			continue
		}
		pattern, err := regexp.Compile(definition.Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %q: %w", definition.Name, err))
			continue
		}

		table = append(table, Rule{
			Name:        definition.Name,
			Pattern:     pattern,
			Criticality: criticality,
		})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return table, nil
}

// rulesFile is the top-level shape of a JSONC rules file.
type rulesFile struct {
	Rules []Definition `json:"rules"`
}

// ParseRules parses JSONC (JSON with comments and trailing commas)
// holding {"rules": [...]}.
func ParseRules(data []byte) ([]Definition, error) {
	var file rulesFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return file.Rules, nil
}

// ReadRulesFile reads and parses a JSONC rules file.
func ReadRulesFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	definitions, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return definitions, nil
}
