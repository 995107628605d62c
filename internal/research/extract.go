// File: internal/research/extract.go
package research

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/xkilldash9x/nlm-research/internal/config"
	"go.uber.org/zap"
)

// Chain pulls the research report out of whichever UI shape actually
// rendered. Strategies run in fixed priority order, most specific first;
// each one failing (no match, or matches below its minimum length) is
// non-fatal and falls through to the next. Only exhausting all five yields
// ErrNotFound.
type Chain struct {
	page     Page
	sel      config.SelectorsConfig
	cfg      config.ResearchConfig
	markerRe *regexp.Regexp
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewChain builds the extraction chain. The marker pattern must compile.
func NewChain(page Page, sel config.SelectorsConfig, cfg config.ResearchConfig, logger *zap.Logger) (*Chain, error) {
	re, err := regexp.Compile(sel.MarkerPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid marker pattern: %w", err)
	}
	return &Chain{
		page:     page,
		sel:      sel,
		cfg:      cfg,
		markerRe: re,
		logger:   logger.Named("extract"),
		sleep:    sleepCtx,
	}, nil
}

// Extract runs the chain once and returns the report text plus the name of
// the strategy that produced it.
func (c *Chain) Extract(ctx context.Context) (string, string, error) {
	strategies := []struct {
		name string
		run  func(context.Context) string
	}{
		{"chat", c.fromChat},
		{"report-containers", c.fromReportContainers},
		{"click-through", c.fromClickThrough},
		{"sources-panel", c.fromSourcesPanel},
		{"body", c.fromBody},
	}

	for _, s := range strategies {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		text := s.run(ctx)
		if text == "" {
			c.logger.Debug("Extraction strategy yielded nothing, falling through.",
				zap.String("strategy", s.name))
			continue
		}
		c.logger.Info("Captured report.",
			zap.String("strategy", s.name), zap.Int("chars", len(text)))
		return text, s.name, nil
	}
	return "", "", fmt.Errorf("report text: %w", ErrNotFound)
}

// fromChat scans the conversational response area. Partial or loading
// fragments can render briefly alongside the final answer, so the longest
// qualifying text wins, not the first.
func (c *Chain) fromChat(ctx context.Context) string {
	for _, sel := range c.sel.Chat {
		els, err := c.page.QueryAll(ctx, sel)
		if err != nil {
			continue
		}
		var texts []string
		for _, el := range els {
			if !el.Visible() {
				continue
			}
			text := strings.TrimSpace(el.Text())
			if len(text) > c.cfg.MinChatChars {
				texts = append(texts, text)
			}
		}
		if len(texts) > 0 {
			sort.Slice(texts, func(i, j int) bool { return len(texts[i]) > len(texts[j]) })
			return texts[0]
		}
	}
	return ""
}

// fromReportContainers reads the report-specific containers, concatenating
// multiple matches with a blank-line separator.
func (c *Chain) fromReportContainers(ctx context.Context) string {
	for _, sel := range c.sel.Report {
		els, err := c.page.QueryAll(ctx, sel)
		if err != nil {
			continue
		}
		var texts []string
		for _, el := range els {
			if !el.Visible() {
				continue
			}
			text := strings.TrimSpace(el.Text())
			if len(text) > c.cfg.MinReportChars {
				texts = append(texts, text)
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n\n")
		}
	}
	return ""
}

// fromClickThrough opens the finished report by clicking the element whose
// text matches the completion-marker pattern, waits for it to render, then
// re-scans the generic content containers.
func (c *Chain) fromClickThrough(ctx context.Context) string {
	var link Element
	for _, sel := range c.sel.MarkerHosts {
		els, err := c.page.QueryAll(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if el.Visible() && c.markerRe.MatchString(el.Text()) {
				link = el
				break
			}
		}
		if link != nil {
			break
		}
	}
	if link == nil {
		return ""
	}

	if err := link.Click(ctx); err != nil {
		c.logger.Debug("Report link click failed.", zap.Error(err))
		return ""
	}
	if err := c.sleep(ctx, c.cfg.ClickThroughWait); err != nil {
		return ""
	}

	for _, sel := range c.sel.Opened {
		els, err := c.page.QueryAll(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if !el.Visible() {
				continue
			}
			text := strings.TrimSpace(el.Text())
			if len(text) > c.cfg.MinOpenedChars {
				return text
			}
		}
	}
	return ""
}

// fromSourcesPanel falls back to the raw text of the first source element.
func (c *Chain) fromSourcesPanel(ctx context.Context) string {
	for _, sel := range c.sel.SourcesPanel {
		els, err := c.page.QueryAll(ctx, sel)
		if err != nil || len(els) == 0 {
			continue
		}
		text := strings.TrimSpace(els[0].Text())
		if len(text) > c.cfg.MinSourcesChars {
			return text
		}
	}
	return ""
}

// fromBody is the last resort: the full rendered document text, regardless
// of length.
func (c *Chain) fromBody(ctx context.Context) string {
	els, err := c.page.QueryAll(ctx, "body")
	if err != nil || len(els) == 0 {
		return ""
	}
	return strings.TrimSpace(els[0].Text())
}
