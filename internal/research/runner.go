// File: internal/research/runner.go
package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xkilldash9x/nlm-research/internal/config"
	"go.uber.org/zap"
)

// Mode selects the research depth NotebookLM runs with.
type Mode string

const (
	// ModeDeep is the multi-minute Deep Research flow.
	ModeDeep Mode = "deep"
	// ModeFast leaves the default fast mode selected.
	ModeFast Mode = "fast"
)

// Request describes one research run.
type Request struct {
	ID          string
	Topic       string
	NotebookURL string
	Mode        Mode
	// Timeout overrides the configured oracle deadline when positive.
	Timeout time.Duration
}

// SessionProvider answers the authentication precondition. Session setup and
// credential persistence live outside this package.
type SessionProvider interface {
	Authenticated(ctx context.Context) (bool, error)
}

// Driver performs the UI actions that start a research request: open the
// notebook, open the sources modal, select the mode, enter the topic, and
// submit. This package only supplies the payload and consumes the page
// afterward.
type Driver interface {
	Submit(ctx context.Context, notebookURL, topic string, mode Mode) error
}

// Runner composes the session precondition, the action driver, the
// completion oracle, and the extraction chain into one request execution.
type Runner struct {
	cfg     *config.Config
	session SessionProvider
	driver  Driver
	page    Page
	logger  *zap.Logger
	opts    []OracleOption
}

// NewRunner wires a Runner. Oracle options are forwarded so tests can run
// the whole pipeline on a fake clock.
func NewRunner(cfg *config.Config, session SessionProvider, driver Driver, page Page, logger *zap.Logger, opts ...OracleOption) *Runner {
	return &Runner{
		cfg:     cfg,
		session: session,
		driver:  driver,
		page:    page,
		logger:  logger.Named("research"),
		opts:    opts,
	}
}

// Run executes one research request end to end and always returns a
// structured outcome; no error from inside the pipeline escapes as a panic
// or aborts the caller.
func (r *Runner) Run(ctx context.Context, req Request) Outcome {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Mode == "" {
		req.Mode = ModeDeep
	}
	timeout := r.cfg.Research.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	logger := r.logger.With(zap.String("request_id", req.ID))
	logger.Info("Starting research request.",
		zap.String("topic", req.Topic),
		zap.String("notebook", req.NotebookURL),
		zap.String("mode", string(req.Mode)),
		zap.Duration("timeout", timeout))

	start := time.Now()
	fail := func(kind ErrorKind, err error) Outcome {
		return Outcome{
			RequestID:      req.ID,
			Success:        false,
			ElapsedSeconds: int(time.Since(start).Seconds()),
			ErrorKind:      kind,
			Error:          err.Error(),
		}
	}

	// Precondition: a usable authenticated session, checked before any UI
	// work happens.
	authed, err := r.session.Authenticated(ctx)
	if err != nil {
		return fail(ErrNotAuthenticated, fmt.Errorf("authentication check failed: %w", err))
	}
	if !authed {
		return fail(ErrNotAuthenticated, errors.New("no authenticated session; run `nlm-research setup` first"))
	}

	// UI submission. A control that never resolves is fatal for this
	// request; the error names which one.
	if err := r.driver.Submit(ctx, req.NotebookURL, req.Topic, req.Mode); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(ErrElementNotFound, err)
		}
		return fail(ErrElementNotFound, fmt.Errorf("submitting research request: %w", err))
	}

	// Poll until a completion rule fires or the deadline passes.
	resolver := NewResolver(r.page, r.cfg.Research.CandidateWait, logger)
	sampler, err := NewPageSampler(r.page, resolver, r.cfg.Selectors, logger)
	if err != nil {
		return fail(ErrElementNotFound, fmt.Errorf("building sampler: %w", err))
	}
	oracle := NewOracle(Policy{
		Interval:            r.cfg.Research.PollInterval,
		Timeout:             timeout,
		StableTicks:         r.cfg.Research.StableTicks,
		FallbackStableTicks: r.cfg.Research.FallbackStableTicks,
		FallbackMinElapsed:  r.cfg.Research.FallbackMinElapsed,
	}, sampler, logger, r.opts...)
	wait := oracle.Wait(ctx)

	// Extraction runs exactly once, best-effort even after a timeout.
	chain, err := NewChain(r.page, r.cfg.Selectors, r.cfg.Research, logger)
	if err != nil {
		return fail(ErrExtractionFailed, fmt.Errorf("building extraction chain: %w", err))
	}
	report, strategy, exErr := chain.Extract(ctx)

	outcome := Outcome{
		RequestID:      req.ID,
		NewSourceCount: wait.NewItems,
		TotalSources:   wait.TotalItems,
		ElapsedSeconds: int(wait.Elapsed.Seconds()),
		TimedOut:       wait.State == TimedOut,
	}
	if exErr != nil {
		outcome.ErrorKind = ErrExtractionFailed
		outcome.Error = "could not capture research results"
		if wait.State == TimedOut {
			outcome.ErrorKind = ErrTimeout
			outcome.Error = "research did not complete before the deadline"
		}
		return outcome
	}
	outcome.Report = report
	outcome.Strategy = strategy
	if wait.State == TimedOut {
		// The deadline fired, but extraction still found text; report the
		// partial capture as a timeout failure with the text attached.
		outcome.ErrorKind = ErrTimeout
		outcome.Error = "research did not complete before the deadline"
		return outcome
	}
	outcome.Success = true
	return outcome
}
