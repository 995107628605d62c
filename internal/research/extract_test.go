// File: internal/research/extract_test.go
package research

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/nlm-research/internal/config"
)

func testSelectors() config.SelectorsConfig {
	return config.SelectorsConfig{
		Chat:          []string{".chat-message"},
		Report:        []string{".report-panel"},
		MarkerHosts:   []string{".artifact-title"},
		MarkerPattern: `(?i)deep\s*research\s*report`,
		Opened:        []string{".opened-doc"},
		SourcesPanel:  []string{".source-list"},
	}
}

func testResearchCfg() config.ResearchConfig {
	return config.ResearchConfig{
		ClickThroughWait: 2500 * time.Millisecond,
		MinChatChars:     100,
		MinReportChars:   50,
		MinOpenedChars:   200,
		MinSourcesChars:  50,
	}
}

func newTestChain(t *testing.T, page Page) *Chain {
	t.Helper()
	chain, err := NewChain(page, testSelectors(), testResearchCfg(), testLogger())
	require.NoError(t, err)
	// No real sleeping in tests.
	chain.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return chain
}

func TestNewChainRejectsBadMarkerPattern(t *testing.T) {
	sel := testSelectors()
	sel.MarkerPattern = `(?i)[unclosed`
	_, err := NewChain(newStubPage(), sel, testResearchCfg(), testLogger())
	assert.Error(t, err)
}

func TestExtractFromChat(t *testing.T) {
	long := strings.Repeat("report body ", 20) // well past 100 chars

	t.Run("longest qualifying message wins", func(t *testing.T) {
		page := newStubPage()
		page.set(".chat-message",
			&stubElement{visible: true, text: long + "short"},
			&stubElement{visible: true, text: long + long},
			&stubElement{visible: true, text: "Thinking..."},
		)

		text, strategy, err := newTestChain(t, page).Extract(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "chat", strategy)
		assert.Equal(t, strings.TrimSpace(long+long), text)
	})

	t.Run("hidden messages are ignored", func(t *testing.T) {
		page := newStubPage()
		page.set(".chat-message",
			&stubElement{visible: false, text: long + long},
			&stubElement{visible: true, text: long},
		)

		text, _, err := newTestChain(t, page).Extract(context.Background())
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(long), text)
	})

	t.Run("text at exactly the minimum length falls through", func(t *testing.T) {
		page := newStubPage()
		page.set(".chat-message", &stubElement{visible: true, text: strings.Repeat("x", 100)})
		page.set("body", &stubElement{visible: true, text: "fallback body"})

		text, strategy, err := newTestChain(t, page).Extract(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "body", strategy)
		assert.Equal(t, "fallback body", text)
	})
}

func TestExtractFromReportContainers(t *testing.T) {
	section := strings.Repeat("findings ", 10) // past 50 chars

	page := newStubPage()
	page.set(".report-panel",
		&stubElement{visible: true, text: section + "one"},
		&stubElement{visible: false, text: section + "hidden"},
		&stubElement{visible: true, text: section + "two"},
	)

	text, strategy, err := newTestChain(t, page).Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "report-containers", strategy)
	assert.Equal(t, section+"one\n\n"+section+"two", text)
}

func TestExtractClickThrough(t *testing.T) {
	opened := strings.Repeat("opened report content ", 15) // past 200 chars

	t.Run("clicking the marker link reveals the document", func(t *testing.T) {
		page := newStubPage()
		page.set(".artifact-title",
			&stubElement{visible: true, text: "Meeting notes"},
			&stubElement{
				visible: true,
				text:    "Deep Research Report",
				clickFn: func(ctx context.Context) error {
					// The document renders only after the click.
					page.set(".opened-doc", &stubElement{visible: true, text: opened})
					return nil
				},
			},
		)

		text, strategy, err := newTestChain(t, page).Extract(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "click-through", strategy)
		assert.Equal(t, strings.TrimSpace(opened), text)
	})

	t.Run("marker match is case-insensitive", func(t *testing.T) {
		page := newStubPage()
		page.set(".artifact-title", &stubElement{
			visible: true,
			text:    "deep  research report (draft)",
			clickFn: func(ctx context.Context) error {
				page.set(".opened-doc", &stubElement{visible: true, text: opened})
				return nil
			},
		})

		_, strategy, err := newTestChain(t, page).Extract(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "click-through", strategy)
	})

	t.Run("failed click falls through", func(t *testing.T) {
		page := newStubPage()
		page.set(".artifact-title", &stubElement{
			visible: true,
			text:    "Deep Research Report",
			clickFn: func(ctx context.Context) error { return context.DeadlineExceeded },
		})
		page.set("body", &stubElement{visible: true, text: "whole page"})

		_, strategy, err := newTestChain(t, page).Extract(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "body", strategy)
	})
}

func TestExtractFromSourcesPanel(t *testing.T) {
	page := newStubPage()
	listing := strings.Repeat("source entry ", 6) // past 50 chars
	page.set(".source-list", &stubElement{visible: true, text: listing})

	text, strategy, err := newTestChain(t, page).Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sources-panel", strategy)
	assert.Equal(t, strings.TrimSpace(listing), text)
}

func TestExtractFromBodyIgnoresLength(t *testing.T) {
	page := newStubPage()
	page.set("body", &stubElement{visible: true, text: "tiny"})

	text, strategy, err := newTestChain(t, page).Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "body", strategy)
	assert.Equal(t, "tiny", text)
}

func TestExtractExhaustionIsNotFound(t *testing.T) {
	// Nothing on the page at all, not even a body snapshot.
	_, _, err := newTestChain(t, newStubPage()).Extract(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExtractHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := newStubPage()
	page.set("body", &stubElement{visible: true, text: "never read"})

	_, _, err := newTestChain(t, page).Extract(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
