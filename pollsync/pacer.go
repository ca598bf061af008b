// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pollsync

import (
	"context"
	"time"
)

const (
	DefaultTick          = time.Second
	DefaultBackoffFactor = 3
)

// Pacer decides when the sync loop fetches next.
// failed reports whether the previous fetch failed.
type Pacer interface {
	Wait(ctx context.Context, failed bool) error
}

// IntervalPacer fetches on a fixed tick and backs off after a failure
type IntervalPacer struct {
	Tick          time.Duration
	BackoffFactor int
}

func NewIntervalPacer(tick time.Duration, backoffFactor int) *IntervalPacer {
	if tick <= 0 {
		tick = DefaultTick
	}
	if backoffFactor < 1 {
		backoffFactor = DefaultBackoffFactor
	}
	return &IntervalPacer{Tick: tick, BackoffFactor: backoffFactor}
}

// Delay returns how long Wait sleeps
func (p *IntervalPacer) Delay(failed bool) time.Duration {
	if failed {
		return p.Tick * time.Duration(p.BackoffFactor)
	}
	return p.Tick
}

func (p *IntervalPacer) Wait(ctx context.Context, failed bool) error {
	t := time.NewTimer(p.Delay(failed))
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
