// File: internal/browser/session.go

// Package browser owns the Chrome side of a research run: launching a
// persistent-profile session, proving there is a usable authenticated
// Google session, implementing the research.Page query surface, and driving
// the NotebookLM UI to submit a request.
package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/xkilldash9x/nlm-research/internal/config"
	"go.uber.org/zap"
)

const notebookLMOrigin = "https://notebooklm.google.com/"

// Session is one exclusive browser session. The underlying tab is owned by a
// single research request at a time; nothing here is safe for concurrent
// requests sharing one Session.
type Session struct {
	id     string
	cfg    *config.Config
	logger *zap.Logger

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
}

// NewSession launches Chrome with the persistent profile directory so the
// Google login survives between runs. Deep Research takes minutes, so the
// browser is visible by default and the user can watch progress.
func NewSession(parent context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	if err := os.MkdirAll(cfg.Browser.ProfileDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating profile dir: %w", err)
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserDataDir(cfg.Browser.ProfileDir),
		chromedp.Flag("headless", cfg.Browser.Headless),
	}
	if cfg.Browser.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.Browser.UserAgent))
	}
	for _, arg := range cfg.Browser.Args {
		name, value := splitFlag(arg)
		if name == "" {
			continue
		}
		opts = append(opts, chromedp.Flag(name, value))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)

	sessionID := uuid.New().String()
	log := logger.Named("session").With(zap.String("session_id", sessionID))

	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			log.Debug(fmt.Sprintf(format, args...))
		}))

	s := &Session{
		id:          sessionID,
		cfg:         cfg,
		logger:      log,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}

	// Start the browser and pin the viewport; element detection depends on
	// a predictable layout.
	width := cfg.Browser.Viewport["width"]
	height := cfg.Browser.Viewport["height"]
	if width <= 0 || height <= 0 {
		width, height = 1920, 1080
	}
	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(int64(width), int64(height))); err != nil {
		s.Close()
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	log.Info("Browser session started.",
		zap.String("profile", cfg.Browser.ProfileDir),
		zap.Bool("headless", cfg.Browser.Headless))
	return s, nil
}

// ID returns the session's identifier, carried in log fields.
func (s *Session) ID() string { return s.id }

// Page returns the query surface bound to this session's tab.
func (s *Session) Page() *Page {
	return &Page{sess: s, logger: s.logger.Named("page")}
}

// Navigate loads the URL and waits for the page to settle. NotebookLM is a
// dynamically rendered app, so "loaded" is followed by a fixed settle wait
// before anything is queried.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	navCtx, cancel := context.WithTimeout(s.tabCtx, s.cfg.Browser.NavigationTimeout)
	defer cancel()

	s.logger.Info("Navigating.", zap.String("url", url))
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	if wait := s.cfg.Browser.SettleWait; wait > 0 {
		if err := s.settle(wait); err != nil {
			return fmt.Errorf("post-navigation settle: %w", err)
		}
	}
	return nil
}

// CurrentURL reports the tab's current location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var href string
	if err := chromedp.Run(s.tabCtx, chromedp.Evaluate("window.location.href", &href)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return href, nil
}

// Authenticated implements research.SessionProvider. It navigates to the
// NotebookLM origin and checks whether Google bounced the session to a
// sign-in page. The persistent profile holds the credentials; this only
// verifies they are still usable.
func (s *Session) Authenticated(ctx context.Context) (bool, error) {
	if err := s.Navigate(ctx, notebookLMOrigin); err != nil {
		return false, err
	}
	href, err := s.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	if strings.Contains(href, "accounts.google.com") {
		s.logger.Warn("Session redirected to Google sign-in; not authenticated.")
		return false, nil
	}
	return strings.HasPrefix(href, notebookLMOrigin), nil
}

// Close tears down the tab and the browser process.
func (s *Session) Close() {
	s.tabCancel()
	s.allocCancel()
	s.logger.Info("Browser session closed.")
}

// settle is a fixed wait inside the session's tab.
func (s *Session) settle(d time.Duration) error {
	return chromedp.Run(s.tabCtx, chromedp.Sleep(d))
}

// splitFlag turns "--name=value" / "--name" into a chromedp flag pair.
func splitFlag(arg string) (string, interface{}) {
	arg = strings.TrimLeft(arg, "-")
	if arg == "" {
		return "", nil
	}
	if name, value, found := strings.Cut(arg, "="); found {
		return name, value
	}
	return arg, true
}
