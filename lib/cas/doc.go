// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cas drives Open CAS Linux and the host around it through a
// remote.Executor.
//
// [CasAdm] wraps the casadm administration utility: starting and
// stopping caches, adding and removing cores, flushing, and reading and
// writing cleaning policy parameters. [Host] performs the filesystem
// operations the lazy-writes scenario needs on the exported object
// (mkfs, mount, file creation, sync).
//
// Every command is a single shell line built from quoted arguments, so
// the same code runs locally and over SSH. A command that exits
// non-zero is returned as a *remote.CommandError.
package cas
