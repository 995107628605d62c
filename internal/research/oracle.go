// File: internal/research/oracle.go
package research

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// State is the oracle's state machine position.
type State int

const (
	// Running means no termination rule has fired yet.
	Running State = iota
	// Complete means a completion rule fired.
	Complete
	// TimedOut means the deadline passed with no completion rule satisfied.
	TimedOut
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Complete:
		return "COMPLETE"
	case TimedOut:
		return "TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Sample is one polling tick's observation of the page. CountOK marks
// whether the item count was readable this tick; a failed read is a
// first-class "no signal" outcome, not an error.
type Sample struct {
	Taken         time.Time
	ItemCount     int
	CountOK       bool
	Busy          bool
	MarkerVisible bool
}

// Sampler observes the page once per tick. Implementations absorb their own
// transient failures: a query that throws mid-read yields CountOK=false (or
// Busy/MarkerVisible=false), never an error that would abort the loop.
type Sampler interface {
	Sample(ctx context.Context) Sample
}

// Policy holds the oracle's termination thresholds. These are empirically
// tuned constants carried through config; none of them is derived.
type Policy struct {
	Interval            time.Duration
	Timeout             time.Duration
	StableTicks         int
	FallbackStableTicks int
	FallbackMinElapsed  time.Duration
}

// WaitResult is the oracle's terminal report for one request.
type WaitResult struct {
	State      State
	Reason     string
	NewItems   int
	TotalItems int
	Elapsed    time.Duration
	Ticks      int
}

// Oracle infers completion of a background research task from indirect page
// signals. There is no deterministic end event; instead two OR'd heuristic
// rules plus a hard deadline decide when to stop polling:
//
//   - primary: the source count has been stable for StableTicks consecutive
//     ticks, nothing is loading, and at least one new source appeared since
//     the baseline;
//   - fallback: the count has been stable for FallbackStableTicks ticks,
//     nothing is loading, and more than FallbackMinElapsed has passed
//     (covers research that merges into existing content);
//   - deadline: Timeout elapsed with neither rule satisfied.
//
// A visible completion marker is an explicit positive signal that overrides
// the stability heuristic and completes within the same tick.
//
// All state lives on the stack of Wait for the duration of one request;
// Oracle instances hold only configuration and are not shared across
// concurrent requests.
type Oracle struct {
	policy  Policy
	sampler Sampler
	logger  *zap.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// OracleOption customizes an Oracle; used by tests to control time.
type OracleOption func(*Oracle)

// WithOracleClock replaces the clock and sleeper.
func WithOracleClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) OracleOption {
	return func(o *Oracle) {
		o.now = now
		o.sleep = sleep
	}
}

// NewOracle creates an Oracle with the given termination policy.
func NewOracle(policy Policy, sampler Sampler, logger *zap.Logger, opts ...OracleOption) *Oracle {
	o := &Oracle{
		policy:  policy,
		sampler: sampler,
		logger:  logger.Named("oracle"),
		now:     time.Now,
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Wait polls until a completion rule fires, the deadline passes, or ctx is
// canceled. It always terminates in bounded time and never returns an
// error: cancellation and deadline both surface as TimedOut so the caller
// still gets whatever telemetry was gathered.
func (o *Oracle) Wait(ctx context.Context) WaitResult {
	start := o.now()
	deadline := start.Add(o.policy.Timeout)

	// Baseline the source count before the first tick. A failed read
	// baselines at zero; the fallback rule still covers completion.
	baseline := 0
	if s := o.sampler.Sample(ctx); s.CountOK {
		baseline = s.ItemCount
	}
	o.logger.Info("Polling for completion.",
		zap.Int("baseline_sources", baseline),
		zap.Duration("timeout", o.policy.Timeout),
		zap.Duration("interval", o.policy.Interval))

	lastCount := baseline
	stable := 0
	ticks := 0

	for o.now().Before(deadline) {
		ticks++
		sample := o.sampler.Sample(ctx)
		elapsed := o.now().Sub(start)

		// 1. Stability bookkeeping. An unreadable count is "no signal this
		// tick": neither a change nor evidence of stability.
		if sample.CountOK {
			if sample.ItemCount != lastCount {
				o.logger.Info("Source count changed.",
					zap.Int("sources", sample.ItemCount),
					zap.Int("new", sample.ItemCount-baseline),
					zap.Duration("elapsed", elapsed.Round(time.Second)))
				lastCount = sample.ItemCount
				stable = 0
			} else {
				stable++
			}
		}

		busy := sample.Busy

		// 2. The completion marker overrides the heuristic: force not-busy
		// and saturate the stability counter.
		if sample.MarkerVisible {
			o.logger.Info("Completion marker visible.",
				zap.Duration("elapsed", elapsed.Round(time.Second)))
			busy = false
			if stable < o.policy.FallbackStableTicks {
				stable = o.policy.FallbackStableTicks
			}
		}

		// 3. Termination rules.
		state, reason := o.policy.evaluate(tickState{
			newItems: lastCount - baseline,
			stable:   stable,
			busy:     busy,
			marker:   sample.MarkerVisible,
			elapsed:  elapsed,
		})
		if state == Complete {
			o.logger.Info("Research complete.",
				zap.String("reason", reason),
				zap.Int("new_sources", lastCount-baseline),
				zap.Duration("elapsed", elapsed.Round(time.Second)))
			return WaitResult{
				State:      Complete,
				Reason:     reason,
				NewItems:   lastCount - baseline,
				TotalItems: lastCount,
				Elapsed:    elapsed,
				Ticks:      ticks,
			}
		}

		// Periodic status line, matching the poll cadence users expect to
		// watch during a multi-minute run.
		if ticks%3 == 0 {
			o.logger.Info("Still waiting.",
				zap.Bool("busy", busy),
				zap.Int("sources", lastCount),
				zap.Int("stable_ticks", stable),
				zap.Duration("elapsed", elapsed.Round(time.Second)),
				zap.Duration("remaining", deadline.Sub(o.now()).Round(time.Second)))
		}

		if err := o.sleep(ctx, o.policy.Interval); err != nil {
			o.logger.Warn("Polling canceled.", zap.Error(err))
			break
		}
	}

	elapsed := o.now().Sub(start)
	if elapsed > o.policy.Timeout {
		elapsed = o.policy.Timeout
	}
	o.logger.Warn("Polling deadline reached without completion signal.",
		zap.Int("new_sources", lastCount-baseline),
		zap.Duration("elapsed", elapsed.Round(time.Second)))
	return WaitResult{
		State:      TimedOut,
		Reason:     "deadline reached",
		NewItems:   lastCount - baseline,
		TotalItems: lastCount,
		Elapsed:    elapsed,
		Ticks:      ticks,
	}
}

// tickState is the input to one termination evaluation.
type tickState struct {
	newItems int
	stable   int
	busy     bool
	marker   bool
	elapsed  time.Duration
}

// evaluate applies the termination predicates in order. Kept pure so each
// rule is independently testable.
func (p Policy) evaluate(s tickState) (State, string) {
	if s.marker && !s.busy {
		return Complete, "completion marker"
	}
	if s.stable >= p.StableTicks && !s.busy && s.newItems > 0 {
		return Complete, "stable with new sources"
	}
	if s.stable >= p.FallbackStableTicks && !s.busy && s.elapsed > p.FallbackMinElapsed {
		return Complete, "long stability"
	}
	return Running, ""
}
