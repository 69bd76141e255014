// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scenario builds the lazy-writes verification run: it prepares
// a cache in a lazy-write mode on top of a scsi_debug core, then drives
// four phases that must each make the core device receive FLUSH (and,
// ideally, FUA) requests:
//
//  1. flush cache: write a file, sync, flush the whole cache
//  2. flush core: write a file, sync, flush the single core
//  3. alru cleaning: switch to ALRU, write a large file, wait for the
//     policy to clean it on its own
//  4. remove core: write a file, unmount, remove the core
//
// Each phase is a phase.Phase; the orchestrator in lib/phase owns the
// verification windows. [LazyWrites.Run] adds setup before the phases
// and a best-effort teardown after them, also when a phase fails.
package scenario
