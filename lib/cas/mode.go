// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import "fmt"

// CacheMode is a casadm cache mode.
type CacheMode string

const (
	WriteThrough CacheMode = "wt"
	WriteBack    CacheMode = "wb"
	WriteAround  CacheMode = "wa"
	PassThrough  CacheMode = "pt"
	WriteOnly    CacheMode = "wo"
)

// ParseCacheMode validates a cache mode name.
func ParseCacheMode(value string) (CacheMode, error) {
	switch mode := CacheMode(value); mode {
	case WriteThrough, WriteBack, WriteAround, PassThrough, WriteOnly:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown cache mode %q", value)
	}
}

// LazyWrites reports whether the mode acknowledges writes before they
// reach the core device. Only these modes have to forward FLUSH and
// FUA on their own.
func (m CacheMode) LazyWrites() bool {
	return m == WriteBack || m == WriteOnly
}

// LazyWriteModes returns every mode with lazy writes.
func LazyWriteModes() []CacheMode {
	return []CacheMode{WriteBack, WriteOnly}
}

// CleaningPolicy is a casadm cleaning policy.
type CleaningPolicy string

const (
	CleaningNop  CleaningPolicy = "nop"
	CleaningAlru CleaningPolicy = "alru"
	CleaningAcp  CleaningPolicy = "acp"
)
