// File: internal/research/locator.go
package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound reports that no candidate selector resolved to a visible
// element. It is recoverable; callers decide whether to escalate.
var ErrNotFound = errors.New("no candidate selector resolved")

// Candidates names a logical UI element together with the ordered selector
// list that can locate it. Order is priority: the first selector that
// resolves to a visible element wins, regardless of which one would have
// matched faster.
type Candidates struct {
	Name      string
	Selectors []string
}

// Resolver finds UI elements across the multiple DOM shapes NotebookLM has
// shipped. It is the one place selector fallback logic lives; everything
// above it deals in logical element names.
type Resolver struct {
	page   Page
	wait   time.Duration
	probe  time.Duration
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// ResolverOption customizes a Resolver; used by tests to control time.
type ResolverOption func(*Resolver)

// WithResolverClock replaces the clock and sleeper.
func WithResolverClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) ResolverOption {
	return func(r *Resolver) {
		r.now = now
		r.sleep = sleep
	}
}

// NewResolver creates a Resolver. wait bounds how long Resolve blocks per
// candidate selector before moving to the next one.
func NewResolver(page Page, wait time.Duration, logger *zap.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		page:   page,
		wait:   wait,
		probe:  250 * time.Millisecond,
		logger: logger.Named("locator"),
		sleep:  sleepCtx,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve tries each candidate selector in order, waiting up to the
// per-candidate timeout for a visible match before falling through to the
// next. Returns the matched element and the selector that found it.
func (r *Resolver) Resolve(ctx context.Context, c Candidates) (Element, string, error) {
	for _, sel := range c.Selectors {
		el, err := r.awaitVisible(ctx, sel)
		if err == nil {
			r.logger.Debug("Resolved element.",
				zap.String("element", c.Name), zap.String("selector", sel))
			return el, sel, nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
	}
	return nil, "", fmt.Errorf("%s: %w", c.Name, ErrNotFound)
}

// ResolveNow performs a zero-wait check across the candidate list, for
// elements the caller knows must already be on screen. Query errors on one
// candidate are swallowed; the next candidate is tried.
func (r *Resolver) ResolveNow(ctx context.Context, c Candidates) (Element, string, error) {
	for _, sel := range c.Selectors {
		els, err := r.page.QueryAll(ctx, sel)
		if err != nil {
			r.logger.Debug("Candidate query failed, trying next.",
				zap.String("element", c.Name), zap.String("selector", sel), zap.Error(err))
			continue
		}
		for _, el := range els {
			if el.Visible() {
				r.logger.Debug("Resolved element (no wait).",
					zap.String("element", c.Name), zap.String("selector", sel))
				return el, sel, nil
			}
		}
	}
	return nil, "", fmt.Errorf("%s: %w", c.Name, ErrNotFound)
}

// awaitVisible polls one selector until a visible match appears or the
// per-candidate wait elapses.
func (r *Resolver) awaitVisible(ctx context.Context, selector string) (Element, error) {
	deadline := r.now().Add(r.wait)
	for {
		els, err := r.page.QueryAll(ctx, selector)
		if err == nil {
			for _, el := range els {
				if el.Visible() {
					return el, nil
				}
			}
		}
		if !r.now().Add(r.probe).Before(deadline) {
			return nil, ErrNotFound
		}
		if err := r.sleep(ctx, r.probe); err != nil {
			return nil, err
		}
	}
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
