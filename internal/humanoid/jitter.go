// File: internal/humanoid/jitter.go

// Package humanoid supplies human-like randomized timing around discrete UI
// actions: pauses between clicks, per-keystroke delays while typing. The
// completion oracle's poll interval is deliberately NOT jittered; only the
// interactive steps are.
package humanoid

import (
	"context"
	"math/rand"
	"time"
)

// Jitter produces randomized, context-aware delays. Not safe for concurrent
// use; each research request owns its own instance.
type Jitter struct {
	enabled     bool
	keyDelayMin time.Duration
	keyDelayMax time.Duration
	rng         *rand.Rand
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option customizes a Jitter. Used by tests to stub out real sleeping.
type Option func(*Jitter)

// WithSleeper replaces the sleep implementation.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(j *Jitter) { j.sleep = fn }
}

// New creates a Jitter. A zero seed means seed from the clock.
func New(enabled bool, keyDelayMin, keyDelayMax time.Duration, seed int64, opts ...Option) *Jitter {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if keyDelayMax < keyDelayMin {
		keyDelayMax = keyDelayMin
	}
	j := &Jitter{
		enabled:     enabled,
		keyDelayMin: keyDelayMin,
		keyDelayMax: keyDelayMax,
		rng:         rand.New(rand.NewSource(seed)),
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Delay pauses for a uniformly random duration in [min, max). When the
// jitter is disabled it returns immediately, which keeps automated tests
// fast without changing call sites.
func (j *Jitter) Delay(ctx context.Context, min, max time.Duration) error {
	if !j.enabled {
		return nil
	}
	return j.sleep(ctx, j.between(min, max))
}

// KeyDelay returns the pause to insert after a single keystroke.
func (j *Jitter) KeyDelay() time.Duration {
	if !j.enabled {
		return 0
	}
	return j.between(j.keyDelayMin, j.keyDelayMax)
}

// TypeDelays returns one delay per rune of text, precomputed so the caller
// can interleave them with key dispatches.
func (j *Jitter) TypeDelays(text string) []time.Duration {
	runes := []rune(text)
	delays := make([]time.Duration, len(runes))
	for i := range runes {
		delays[i] = j.KeyDelay()
	}
	return delays
}

func (j *Jitter) between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(j.rng.Int63n(int64(max-min)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
