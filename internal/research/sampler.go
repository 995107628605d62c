// File: internal/research/sampler.go
package research

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/xkilldash9x/nlm-research/internal/config"
	"go.uber.org/zap"
)

// PageSampler produces one Sample per oracle tick by querying the live page.
// Every query failure is absorbed into the sample as "no signal"; the poll
// loop must never die because an element detached mid-read.
type PageSampler struct {
	page     Page
	resolver *Resolver
	sel      config.SelectorsConfig
	markerRe *regexp.Regexp
	itemSel  string
	logger   *zap.Logger
	now      func() time.Time
}

// NewPageSampler builds a sampler over the configured descriptor lists. The
// marker pattern must compile; config validation catches bad patterns before
// a request starts.
func NewPageSampler(page Page, resolver *Resolver, sel config.SelectorsConfig, logger *zap.Logger) (*PageSampler, error) {
	re, err := regexp.Compile(sel.MarkerPattern)
	if err != nil {
		return nil, err
	}
	return &PageSampler{
		page:     page,
		resolver: resolver,
		sel:      sel,
		markerRe: re,
		itemSel:  strings.Join(sel.SourceItems, ", "),
		logger:   logger.Named("sampler"),
		now:      time.Now,
	}, nil
}

// Sample observes the auxiliary-item count, the busy indicators, and the
// completion marker. Each signal degrades independently.
func (s *PageSampler) Sample(ctx context.Context) Sample {
	sample := Sample{Taken: s.now()}

	// Auxiliary items: count of rendered source elements.
	if els, err := s.page.QueryAll(ctx, s.itemSel); err == nil {
		sample.ItemCount = len(els)
		sample.CountOK = true
	} else {
		s.logger.Debug("Source count unreadable this tick.", zap.Error(err))
	}

	// Busy: any visible loading indicator, then the broader spinner probe.
	if _, _, err := s.resolver.ResolveNow(ctx, Candidates{Name: "loading indicator", Selectors: s.sel.Loading}); err == nil {
		sample.Busy = true
	} else if _, _, err := s.resolver.ResolveNow(ctx, Candidates{Name: "spinner probe", Selectors: s.sel.SpinnerProbe}); err == nil {
		sample.Busy = true
	}

	// Completion marker: a source whose text names the finished report.
	sample.MarkerVisible = s.markerVisible(ctx)

	return sample
}

func (s *PageSampler) markerVisible(ctx context.Context) bool {
	for _, sel := range s.sel.MarkerHosts {
		els, err := s.page.QueryAll(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if el.Visible() && s.markerRe.MatchString(el.Text()) {
				return true
			}
		}
	}
	return false
}
