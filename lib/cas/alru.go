// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// AlruParams are the tunables of the ALRU cleaning policy.
type AlruParams struct {
	WakeUp            time.Duration
	StalenessTime     time.Duration
	FlushMaxBuffers   int
	ActivityThreshold time.Duration
}

// WaitTime is how long to wait after a write for ALRU to clean it:
// staleness time plus activity threshold plus wake-up interval, each
// truncated to whole seconds, plus margin.
func (p AlruParams) WaitTime(margin time.Duration) time.Duration {
	whole := func(d time.Duration) time.Duration { return d.Truncate(time.Second) }
	return whole(p.StalenessTime) + whole(p.ActivityThreshold) + whole(p.WakeUp) + margin
}

func (p AlruParams) String() string {
	return fmt.Sprintf("wake-up %s, staleness %s, flush max buffers %d, activity threshold %s",
		p.WakeUp, p.StalenessTime, p.FlushMaxBuffers, p.ActivityThreshold)
}

// ParseAlruParams parses the CSV output of
// "casadm --get-param --name cleaning-alru --output-format csv".
//
// Rows are "name,value[,unit]". The unit is taken from a bracketed
// suffix of the name ("Wake up time [s]") or the third column; times
// without a unit are seconds. Unknown rows are ignored; all four
// parameters must be present.
func ParseAlruParams(output string) (AlruParams, error) {
	reader := csv.NewReader(strings.NewReader(output))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var params AlruParams
	var seen struct{ wakeUp, staleness, buffers, activity bool }

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return AlruParams{}, fmt.Errorf("parsing ALRU parameters: %w", err)
		}
		if len(record) < 2 {
			continue
		}

		name, unit := splitUnit(record[0])
		if unit == "" && len(record) > 2 {
			unit = strings.TrimSpace(record[2])
		}
		value := strings.TrimSpace(record[1])
		key := strings.ToLower(name)

		switch {
		case strings.HasPrefix(key, "wake up"):
			params.WakeUp, err = parseTime(value, unit)
			seen.wakeUp = true
		case strings.HasPrefix(key, "stale"):
			params.StalenessTime, err = parseTime(value, unit)
			seen.staleness = true
		case strings.HasPrefix(key, "flush max buffers"):
			params.FlushMaxBuffers, err = strconv.Atoi(value)
			seen.buffers = true
		case strings.HasPrefix(key, "activity threshold"):
			params.ActivityThreshold, err = parseTime(value, unit)
			seen.activity = true
		default:
			continue
		}
		if err != nil {
			return AlruParams{}, fmt.Errorf("parsing ALRU parameter %q: %w", name, err)
		}
	}

	var errs []error
	if !seen.wakeUp {
		errs = append(errs, errors.New("wake up time missing"))
	}
	if !seen.staleness {
		errs = append(errs, errors.New("stale buffer time missing"))
	}
	if !seen.buffers {
		errs = append(errs, errors.New("flush max buffers missing"))
	}
	if !seen.activity {
		errs = append(errs, errors.New("activity threshold missing"))
	}
	if len(errs) > 0 {
		return AlruParams{}, fmt.Errorf("parsing ALRU parameters: %w", errors.Join(errs...))
	}
	return params, nil
}

// splitUnit separates "Wake up time [s]" into "Wake up time" and "s".
func splitUnit(field string) (string, string) {
	field = strings.TrimSpace(field)
	open := strings.LastIndex(field, "[")
	if open < 0 || !strings.HasSuffix(field, "]") {
		return field, ""
	}
	return strings.TrimSpace(field[:open]), strings.TrimSpace(field[open+1 : len(field)-1])
}

func parseTime(value, unit string) (time.Duration, error) {
	amount, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	switch strings.ToLower(unit) {
	case "", "s", "sec", "seconds":
		return time.Duration(amount) * time.Second, nil
	case "ms", "milliseconds":
		return time.Duration(amount) * time.Millisecond, nil
	default:
		return 0, fmt.Errorf("unknown time unit %q", unit)
	}
}
