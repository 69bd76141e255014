// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote runs shell commands on the machine under test.
//
// Everything the verifier does to the system (casadm calls, mounts,
// dd, sync, and reading the system log with tail) goes through an
// [Executor]. Two implementations exist:
//
//   - [Local] runs "sh -c" on this machine. Each command gets its own
//     process group so a cancelled context kills the shell and every
//     child it spawned.
//   - [SSH] runs the command in a session on a remote host, verifying
//     the host key against a known_hosts file.
//
// Executors return a [Result] for any command that ran to completion,
// whatever its exit status. [Expect] converts a non-zero exit into a
// *[CommandError] so callers that need success can write one line.
package remote
