// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// cas-signals verifies that Open CAS Linux forwards FLUSH and FUA
// requests to the core device when the cache runs in a lazy-write mode.
//
// The core device is a scsi_debug disk loaded with opts=1, so the
// kernel logs every command it receives. The verifier drives the cache
// through a sequence of phases and, after each one, classifies only the
// log lines written since the previous phase.
//
// Commands:
//
//	cas-signals run      run the lazy-writes scenario in every configured mode
//	cas-signals verify   classify a window of the log once, from a given line
//	cas-signals decode   print a saved run record
//
// Exit status is 0 when every critical signal was observed, 1 when a
// diagnostic had error severity, and 2 when the run could not complete.
package main
