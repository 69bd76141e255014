// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package signal classifies log lines against a declarative table of
// named patterns and turns occurrence counts into verdicts.
//
// A [Table] is built once from [Definition] values (name, regular
// expression, criticality), usually loaded from the YAML config or a
// JSONC rules file, and is read-only afterwards. [DefaultDefinitions]
// describes the two block-layer commands the lazy-write tests look for
// in scsi_debug's kernel log output:
//
//   - FLUSH (SYNCHRONIZE CACHE, opcode 0x35), critical
//   - FUA (WRITE(10) with the FUA bit, "cmd 2a 08"), advisory
//
// [Classify] counts, for every rule, how many lines of a batch match
// it. [Evaluate] applies the occurrence policy:
//
//	count 0, critical  → NONE_FOUND,     error
//	count 0, advisory  → NONE_FOUND,     warning
//	count 1            → FOUND_ONCE,     warning
//	count > 1          → FOUND_MULTIPLE, info
//
// A single occurrence is a warning rather than a pass because, under
// write-back cleaning, one flush may be incidental; repeated flushes
// are the steady state. Severity is advisory: deciding whether an
// error fails the run is left to the caller.
package signal
