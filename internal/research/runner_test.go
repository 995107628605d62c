// File: internal/research/runner_test.go
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/nlm-research/internal/config"
)

type stubSession struct {
	authed bool
	err    error
}

func (s *stubSession) Authenticated(ctx context.Context) (bool, error) {
	return s.authed, s.err
}

type stubDriver struct {
	mu    sync.Mutex
	err   error
	calls int

	notebookURL string
	topic       string
	mode        Mode
}

func (d *stubDriver) Submit(ctx context.Context, notebookURL, topic string, mode Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.notebookURL = notebookURL
	d.topic = topic
	d.mode = mode
	return d.err
}

func testRunnerConfig() *config.Config {
	sel := testSelectors()
	sel.SourceItems = []string{".source-item"}
	sel.Loading = []string{".loading"}
	sel.SpinnerProbe = []string{"mat-spinner"}

	research := testResearchCfg()
	research.Timeout = 600 * time.Second
	research.PollInterval = 10 * time.Second
	research.StableTicks = 5
	research.FallbackStableTicks = 12
	research.FallbackMinElapsed = 60 * time.Second
	research.ClickThroughWait = 0

	return &config.Config{Research: research, Selectors: sel}
}

func newTestRunner(session SessionProvider, driver Driver, page Page, clock *fakeClock) *Runner {
	return NewRunner(testRunnerConfig(), session, driver, page, testLogger(),
		WithOracleClock(clock.Now, clock.Sleep))
}

func sourceItems(n int) []Element {
	els := make([]Element, n)
	for i := range els {
		els[i] = &stubElement{visible: true, text: fmt.Sprintf("source %d", i)}
	}
	return els
}

func TestRunEndToEndSuccess(t *testing.T) {
	// The completion marker is visible from the first tick and the chat area
	// holds the report, so the run completes without a single sleep.
	report := strings.Repeat("deep research findings ", 10)

	page := newStubPage()
	page.set(".source-item", sourceItems(3)...)
	page.set(".artifact-title", &stubElement{visible: true, text: "Deep Research Report"})
	page.set(".chat-message", &stubElement{visible: true, text: report})

	driver := &stubDriver{}
	clock := newFakeClock()
	outcome := newTestRunner(&stubSession{authed: true}, driver, page, clock).
		Run(context.Background(), Request{
			ID:          "req-1",
			Topic:       "quantum error correction",
			NotebookURL: "https://notebooklm.google.com/notebook/abc",
		})

	assert.True(t, outcome.Success)
	assert.Equal(t, "req-1", outcome.RequestID)
	assert.Equal(t, "chat", outcome.Strategy)
	assert.Equal(t, strings.TrimSpace(report), outcome.Report)
	assert.Equal(t, 3, outcome.TotalSources)
	assert.False(t, outcome.TimedOut)
	assert.Equal(t, ErrNone, outcome.ErrorKind)

	require.Equal(t, 1, driver.calls)
	assert.Equal(t, "quantum error correction", driver.topic)
	assert.Equal(t, "https://notebooklm.google.com/notebook/abc", driver.notebookURL)
	assert.Equal(t, ModeDeep, driver.mode, "mode defaults to deep")
}

func TestRunAssignsRequestID(t *testing.T) {
	page := newStubPage()
	page.set(".artifact-title", &stubElement{visible: true, text: "Deep Research Report"})
	page.set("body", &stubElement{visible: true, text: "anything"})

	outcome := newTestRunner(&stubSession{authed: true}, &stubDriver{}, page, newFakeClock()).
		Run(context.Background(), Request{Topic: "x"})
	assert.NotEmpty(t, outcome.RequestID)
}

func TestRunRequiresAuthentication(t *testing.T) {
	t.Run("unauthenticated session fails fast", func(t *testing.T) {
		driver := &stubDriver{}
		outcome := newTestRunner(&stubSession{authed: false}, driver, newStubPage(), newFakeClock()).
			Run(context.Background(), Request{Topic: "x"})

		assert.False(t, outcome.Success)
		assert.Equal(t, ErrNotAuthenticated, outcome.ErrorKind)
		assert.Contains(t, outcome.Error, "setup")
		assert.Zero(t, driver.calls, "no UI work before the auth precondition passes")
	})

	t.Run("auth check error is reported", func(t *testing.T) {
		session := &stubSession{err: errors.New("browser gone")}
		outcome := newTestRunner(session, &stubDriver{}, newStubPage(), newFakeClock()).
			Run(context.Background(), Request{Topic: "x"})

		assert.False(t, outcome.Success)
		assert.Equal(t, ErrNotAuthenticated, outcome.ErrorKind)
		assert.Contains(t, outcome.Error, "browser gone")
	})
}

func TestRunSurfacesMissingControls(t *testing.T) {
	driver := &stubDriver{err: fmt.Errorf("search input in sources modal: %w", ErrNotFound)}
	outcome := newTestRunner(&stubSession{authed: true}, driver, newStubPage(), newFakeClock()).
		Run(context.Background(), Request{Topic: "x"})

	assert.False(t, outcome.Success)
	assert.Equal(t, ErrElementNotFound, outcome.ErrorKind)
	assert.Contains(t, outcome.Error, "search input")
}

func TestRunTimeoutWithPartialCapture(t *testing.T) {
	// A spinner that never goes away forces the deadline; extraction still
	// salvages the page body, which rides along on the failure outcome.
	page := newStubPage()
	page.set(".source-item", sourceItems(2)...)
	page.set(".loading", &stubElement{visible: true})
	page.set("body", &stubElement{visible: true, text: "partial page text"})

	clock := newFakeClock()
	outcome := newTestRunner(&stubSession{authed: true}, &stubDriver{}, page, clock).
		Run(context.Background(), Request{Topic: "x", Timeout: 60 * time.Second})

	assert.False(t, outcome.Success)
	assert.True(t, outcome.TimedOut)
	assert.Equal(t, ErrTimeout, outcome.ErrorKind)
	assert.Equal(t, 60, outcome.ElapsedSeconds)
	assert.Equal(t, "partial page text", outcome.Report)
	assert.Equal(t, "body", outcome.Strategy)
}

func TestRunTimeoutWithNothingToCapture(t *testing.T) {
	page := newStubPage()
	page.set(".loading", &stubElement{visible: true})

	outcome := newTestRunner(&stubSession{authed: true}, &stubDriver{}, page, newFakeClock()).
		Run(context.Background(), Request{Topic: "x", Timeout: 60 * time.Second})

	assert.False(t, outcome.Success)
	assert.True(t, outcome.TimedOut)
	assert.Equal(t, ErrTimeout, outcome.ErrorKind)
	assert.Empty(t, outcome.Report)
}

func TestRunExtractionFailureAfterCompletion(t *testing.T) {
	// The marker completes the wait, but nothing on the page passes any
	// extraction threshold and there is no body text to fall back to.
	page := newStubPage()
	page.set(".artifact-title", &stubElement{visible: true, text: "Deep Research Report"})

	outcome := newTestRunner(&stubSession{authed: true}, &stubDriver{}, page, newFakeClock()).
		Run(context.Background(), Request{Topic: "x"})

	assert.False(t, outcome.Success)
	assert.False(t, outcome.TimedOut)
	assert.Equal(t, ErrExtractionFailed, outcome.ErrorKind)
	assert.Empty(t, outcome.Report)
}
