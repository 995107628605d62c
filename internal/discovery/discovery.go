// File: internal/discovery/discovery.go

// Package discovery implements the diagnostic introspection mode used to
// re-tune candidate selectors after a NotebookLM UI change. It dumps the
// page's interactive elements and reports which configured descriptor lists
// still resolve. Not part of the steady-state research contract.
package discovery

import (
	"context"

	"github.com/xkilldash9x/nlm-research/internal/config"
	"github.com/xkilldash9x/nlm-research/internal/research"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ElementInfo describes one interactive element on the page.
type ElementInfo struct {
	Tag         string `json:"tag"`
	Text        string `json:"text,omitempty"`
	AriaLabel   string `json:"aria_label,omitempty"`
	Class       string `json:"class,omitempty"`
	Role        string `json:"role,omitempty"`
	Type        string `json:"type,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Visible     bool   `json:"visible"`
}

// SelectorCheck records whether one configured candidate list currently
// resolves, and which selector won.
type SelectorCheck struct {
	Element  string `json:"element"`
	Found    bool   `json:"found"`
	Selector string `json:"selector,omitempty"`
}

// Dump is the full diagnostic report.
type Dump struct {
	Buttons   []ElementInfo   `json:"buttons"`
	Inputs    []ElementInfo   `json:"inputs"`
	Dropdowns []ElementInfo   `json:"dropdowns"`
	Selectors []SelectorCheck `json:"selectors"`
}

// Surface is what discovery needs from the page: the research query surface
// plus an attribute-level dump of the interactive elements.
type Surface interface {
	research.Page
	Interactives(ctx context.Context) (buttons, inputs, dropdowns []ElementInfo, err error)
}

// Run produces a Dump for the currently loaded notebook page.
func Run(ctx context.Context, surface Surface, sel config.SelectorsConfig, logger *zap.Logger) (*Dump, error) {
	log := logger.Named("discovery")

	buttons, inputs, dropdowns, err := surface.Interactives(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Dumped interactive elements.",
		zap.Int("buttons", len(buttons)),
		zap.Int("inputs", len(inputs)),
		zap.Int("dropdowns", len(dropdowns)))

	dump := &Dump{Buttons: buttons, Inputs: inputs, Dropdowns: dropdowns}

	// Probe every configured candidate list. Probes are independent
	// zero-wait checks, so they can run concurrently.
	candidates := []research.Candidates{
		{Name: "add sources button", Selectors: sel.AddSources},
		{Name: "modal search input", Selectors: sel.ModalInput},
		{Name: "search input", Selectors: sel.Input},
		{Name: "mode dropdown", Selectors: sel.ModeToggle},
		{Name: "deep research menu item", Selectors: sel.DeepMenuItem},
		{Name: "submit button", Selectors: sel.Submit},
		{Name: "loading indicator", Selectors: sel.Loading},
		{Name: "source items", Selectors: sel.SourceItems},
	}
	checks := make([]SelectorCheck, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		g.Go(func() error {
			resolver := research.NewResolver(surface, 0, log)
			check := SelectorCheck{Element: c.Name}
			if _, matched, err := resolver.ResolveNow(gctx, c); err == nil {
				check.Found = true
				check.Selector = matched
			}
			checks[i] = check
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, check := range checks {
		if check.Found {
			log.Info("Selector resolves.",
				zap.String("element", check.Element), zap.String("selector", check.Selector))
		} else {
			log.Warn("No configured selector matched.", zap.String("element", check.Element))
		}
	}
	dump.Selectors = checks
	return dump, nil
}
