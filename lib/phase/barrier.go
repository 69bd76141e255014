// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package phase

import (
	"context"
	"fmt"
	"time"

	"github.com/mmichal10/open-cas-linux/lib/clock"
)

// Barrier blocks until asynchronous effects of an action have had a
// chance to reach the log.
type Barrier interface {
	Wait(ctx context.Context) error
}

// BarrierFunc adapts a function to Barrier.
type BarrierFunc func(ctx context.Context) error

func (f BarrierFunc) Wait(ctx context.Context) error { return f(ctx) }

// Sleep waits for a duration computed when the barrier is reached, so
// timing parameters can be read back from the system after the action
// changed them.
type Sleep struct {
	Clock clock.Clock

	// Duration returns how long to wait.
	Duration func(ctx context.Context) (time.Duration, error)

	// OnWait, when set, is called with the computed duration before
	// waiting.
	OnWait func(time.Duration)
}

// Wait computes the delay and waits for it on the clock.
func (s *Sleep) Wait(ctx context.Context) error {
	delay, err := s.Duration(ctx)
	if err != nil {
		return fmt.Errorf("computing wait: %w", err)
	}
	if s.OnWait != nil {
		s.OnWait(delay)
	}
	return sleepContext(ctx, s.Clock, delay)
}

// FixedSleep returns a Sleep barrier with a constant delay.
func FixedSleep(c clock.Clock, delay time.Duration) *Sleep {
	return &Sleep{
		Clock:    c,
		Duration: func(context.Context) (time.Duration, error) { return delay, nil },
	}
}

// Chain waits on each barrier in order.
type Chain []Barrier

func (c Chain) Wait(ctx context.Context) error {
	for _, barrier := range c {
		if err := barrier.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// sleepContext waits for delay on c or until ctx is done.
func sleepContext(ctx context.Context, c clock.Clock, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-c.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
