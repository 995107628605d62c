// File: internal/browser/actions.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/nlm-research/internal/config"
	"github.com/xkilldash9x/nlm-research/internal/humanoid"
	"github.com/xkilldash9x/nlm-research/internal/research"
	"go.uber.org/zap"
)

// ActionDriver implements research.Driver: the UI choreography that starts a
// Deep Research request. Flow, from live UI inspection of NotebookLM:
//
//  1. open the notebook URL
//  2. click "+ Add sources" to open the sources modal (it may already be open)
//  3. find the "Search the web" input, preferring the modal-scoped one
//  4. switch the mode dropdown Fast -> Deep
//  5. clear the field and type the topic with human cadence
//  6. click the submit arrow, or press Enter if it never resolves
type ActionDriver struct {
	sess     *Session
	page     *Page
	resolver *research.Resolver
	jitter   *humanoid.Jitter
	cfg      *config.Config
	logger   *zap.Logger
}

var _ research.Driver = (*ActionDriver)(nil)

// NewActionDriver wires a driver over the session's page.
func NewActionDriver(sess *Session, cfg *config.Config, jitter *humanoid.Jitter, logger *zap.Logger) *ActionDriver {
	page := sess.Page()
	return &ActionDriver{
		sess:     sess,
		page:     page,
		resolver: research.NewResolver(page, cfg.Research.CandidateWait, logger),
		jitter:   jitter,
		cfg:      cfg,
		logger:   logger.Named("driver"),
	}
}

// Page exposes the driver's page for the oracle and extraction chain.
func (d *ActionDriver) Page() *Page { return d.page }

// Submit performs the full submission choreography.
func (d *ActionDriver) Submit(ctx context.Context, notebookURL, topic string, mode research.Mode) error {
	if err := d.sess.Navigate(ctx, notebookURL); err != nil {
		return err
	}
	if err := d.jitter.Delay(ctx, time.Second, 2*time.Second); err != nil {
		return err
	}

	if err := d.openSourcesModal(ctx); err != nil {
		return err
	}

	input, err := d.findSearchInput(ctx)
	if err != nil {
		return err
	}

	if mode == research.ModeDeep {
		d.switchToDeepMode(ctx)
	}

	if err := d.enterTopic(ctx, input, topic); err != nil {
		return err
	}

	if err := d.submit(ctx); err != nil {
		return err
	}

	// Give the app a beat to register the request before polling starts.
	if err := d.jitter.Delay(ctx, 2*time.Second, 3*time.Second); err != nil {
		return err
	}
	d.logger.Info("Research request submitted.")
	return nil
}

// openSourcesModal clicks "+ Add sources". Its absence is not fatal: on a
// fresh notebook the search bar is already on screen.
func (d *ActionDriver) openSourcesModal(ctx context.Context) error {
	btn, sel, err := d.resolver.Resolve(ctx, research.Candidates{
		Name:      "add sources button",
		Selectors: d.cfg.Selectors.AddSources,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.logger.Info("Add-sources button not found; assuming search bar is already visible.")
		return nil
	}
	if err := btn.Click(ctx); err != nil {
		return fmt.Errorf("opening sources modal: %w", err)
	}
	d.logger.Debug("Sources modal opened.", zap.String("selector", sel))
	return d.jitter.Delay(ctx, time.Second, 2*time.Second)
}

// findSearchInput locates the web-search input: modal-scoped candidates
// first, then the general configured list, then a placeholder scan of every
// visible input. Failing all three is fatal for the request.
func (d *ActionDriver) findSearchInput(ctx context.Context) (*Element, error) {
	if el, sel, err := d.resolver.Resolve(ctx, research.Candidates{
		Name:      "modal search input",
		Selectors: d.cfg.Selectors.ModalInput,
	}); err == nil {
		d.logger.Debug("Found modal search input.", zap.String("selector", sel))
		return el.(*Element), nil
	}

	if el, sel, err := d.resolver.Resolve(ctx, research.Candidates{
		Name:      "search input",
		Selectors: d.cfg.Selectors.Input,
	}); err == nil {
		d.logger.Debug("Found search input.", zap.String("selector", sel))
		return el.(*Element), nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	d.logger.Info("Configured input selectors missed; scanning placeholders.")
	sel, err := d.page.ScanSearchInput(ctx)
	if err == nil && sel != "" {
		els, qerr := d.page.queryAll(ctx, sel)
		if qerr == nil {
			for _, el := range els {
				if el.Visible() {
					d.logger.Debug("Placeholder scan found input.", zap.String("selector", sel))
					return el, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("search input in sources modal: %w", research.ErrNotFound)
}

// switchToDeepMode flips the mode dropdown from "Fast research" to "Deep
// research". Failure is logged, not fatal: research still runs, just in
// the wrong mode, which beats aborting a request the user is watching.
func (d *ActionDriver) switchToDeepMode(ctx context.Context) {
	toggle := d.findModeToggle(ctx)
	if toggle == nil {
		d.logger.Warn("Mode dropdown not found; continuing with current mode.")
		return
	}

	text := strings.ToLower(toggle.Text())
	if strings.Contains(text, "deep") {
		d.logger.Debug("Already in deep research mode.")
		return
	}
	if err := toggle.Click(ctx); err != nil {
		d.logger.Warn("Could not open mode dropdown.", zap.Error(err))
		return
	}
	_ = d.jitter.Delay(ctx, 500*time.Millisecond, time.Second)

	item, _, err := d.resolver.Resolve(ctx, research.Candidates{
		Name:      "deep research menu item",
		Selectors: d.cfg.Selectors.DeepMenuItem,
	})
	if err != nil {
		d.logger.Warn("Deep research menu item not found; continuing with fast mode.")
		return
	}
	if err := item.Click(ctx); err != nil {
		d.logger.Warn("Could not select deep research.", zap.Error(err))
		return
	}
	_ = d.jitter.Delay(ctx, 300*time.Millisecond, 600*time.Millisecond)
	d.logger.Info("Switched to deep research mode.")
}

// findModeToggle returns the mode dropdown. When sidebar and modal both
// render one, the last visible match wins: the modal is rendered after the
// sidebar.
func (d *ActionDriver) findModeToggle(ctx context.Context) *Element {
	for _, sel := range d.cfg.Selectors.ModeToggle {
		els, err := d.page.queryAll(ctx, sel)
		if err != nil {
			continue
		}
		var last *Element
		for _, el := range els {
			if el.Visible() {
				last = el
			}
		}
		if last != nil {
			return last
		}
	}
	return nil
}

// enterTopic clears any stale text and types the topic with human cadence.
func (d *ActionDriver) enterTopic(ctx context.Context, input *Element, topic string) error {
	if err := input.Click(ctx); err != nil {
		return fmt.Errorf("focusing search input: %w", err)
	}
	if err := d.jitter.Delay(ctx, 200*time.Millisecond, 500*time.Millisecond); err != nil {
		return err
	}
	if err := d.page.ClearInput(ctx, input); err != nil {
		return fmt.Errorf("clearing search input: %w", err)
	}
	if err := d.page.TypeInto(ctx, input, topic, d.jitter); err != nil {
		return fmt.Errorf("typing topic: %w", err)
	}
	return d.jitter.Delay(ctx, 500*time.Millisecond, time.Second)
}

// submit clicks the arrow button, or falls back to Enter on the focused
// input when no submit control resolves.
func (d *ActionDriver) submit(ctx context.Context) error {
	btn, sel, err := d.resolver.ResolveNow(ctx, research.Candidates{
		Name:      "submit button",
		Selectors: d.cfg.Selectors.Submit,
	})
	if err == nil {
		d.logger.Debug("Clicking submit.", zap.String("selector", sel))
		return btn.Click(ctx)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	d.logger.Info("Submit button not found; pressing Enter.")
	return d.page.PressEnter(ctx)
}
