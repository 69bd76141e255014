// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Verification phases wait on computed delays (for example the ALRU
// cleaning interval plus a safety margin) before reading the system
// log. Those waits go through a Clock so tests can drive them with
// Fake instead of sleeping for real:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { done <- barrier.Wait(ctx) }()
//	c.WaitForTimers(1)         // the barrier registered its timer
//	c.Advance(30 * time.Second) // fire it
//
// WaitForTimers removes the race between a goroutine registering a
// timer and the test advancing time.
package clock
