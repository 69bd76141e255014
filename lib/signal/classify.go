// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signal

// Counts maps rule name to the number of matching lines.
type Counts map[string]int

// Add returns the per-rule sum of c and other. Classifying two
// consecutive batches and adding the results equals classifying their
// concatenation.
func (c Counts) Add(other Counts) Counts {
	sum := make(Counts, len(c))
	for name, count := range c {
		sum[name] = count
	}
	for name, count := range other {
		sum[name] += count
	}
	return sum
}

// Classify counts the lines matching each rule. Rules are independent:
// one line may count toward several of them. Every rule in table has
// an entry, zero included.
func Classify(lines []string, table Table) Counts {
	counts := make(Counts, len(table))
	for _, rule := range table {
		counts[rule.Name] = 0
	}
	for _, line := range lines {
		for _, rule := range table {
			if Matches(line, rule) {
				counts[rule.Name]++
			}
		}
	}
	return counts
}
