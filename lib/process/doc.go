// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the binary entrypoint helper used before the
// structured logger exists: reporting a fatal error to stderr and
// exiting.
package process
