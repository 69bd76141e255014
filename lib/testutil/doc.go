// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] wraps the select-with-timeout pattern so tests that
// drive goroutines through a fake clock never need their own
// time.After calls. [AppendLines] grows a log file on disk the way an
// external producer (syslogd, journald) would, for tests of the
// incremental reader.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
