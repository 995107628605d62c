// File: internal/browser/page.go
package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/xkilldash9x/nlm-research/internal/discovery"
	"github.com/xkilldash9x/nlm-research/internal/humanoid"
	"github.com/xkilldash9x/nlm-research/internal/research"
	"go.uber.org/zap"
)

// hasTextRe recognizes the one selector extension this tool supports: a
// trailing `:has-text("...")` that filters matches by case-insensitive
// substring of the rendered text. Everything before it is plain CSS.
var hasTextRe = regexp.MustCompile(`^(.*?):has-text\("([^"]*)"\)$`)

// querySnapshotJS snapshots all matches of a CSS selector in one pass:
// visibility from the box model and computed style, text from innerText.
// Running it as a single evaluation keeps visibility and text consistent
// with each other even while the page mutates.
const querySnapshotJS = `(function(selector, filter) {
	let els;
	try {
		els = Array.from(document.querySelectorAll(selector));
	} catch (e) {
		return { error: String(e) };
	}
	if (filter) {
		const needle = filter.toLowerCase();
		els = els.filter(el => ((el.innerText || el.textContent || '').toLowerCase().includes(needle)));
	}
	return { items: els.map(el => {
		const r = el.getBoundingClientRect();
		let visible = r.width > 0 && r.height > 0;
		if (visible) {
			const cs = window.getComputedStyle(el);
			visible = cs.visibility !== 'hidden' && cs.display !== 'none';
		}
		return { visible: visible, text: el.innerText || '' };
	}) };
})(%q, %q)`

// nthMatchJS re-resolves the nth match of a query and applies an action to
// it. Matches are re-resolved rather than held, because NotebookLM rebuilds
// DOM subtrees freely; an element handle can go stale between snapshot and
// action.
const nthMatchJS = `(function(selector, filter, index, action) {
	let els;
	try {
		els = Array.from(document.querySelectorAll(selector));
	} catch (e) {
		return false;
	}
	if (filter) {
		const needle = filter.toLowerCase();
		els = els.filter(el => ((el.innerText || el.textContent || '').toLowerCase().includes(needle)));
	}
	const el = els[index];
	if (!el) { return false; }
	if (action === 'click') {
		el.click();
	} else if (action === 'focus') {
		el.focus();
	} else if (action === 'clear') {
		el.focus();
		if ('value' in el) {
			el.value = '';
			el.dispatchEvent(new Event('input', { bubbles: true }));
		}
	}
	return true;
})(%q, %q, %d, %q)`

// scanSearchInputJS is the last-resort input finder: scan every visible
// input/textarea for a placeholder mentioning a web search and return a
// selector pinned to that exact placeholder.
const scanSearchInputJS = `(function() {
	const els = Array.from(document.querySelectorAll('input, textarea'));
	for (const el of els) {
		const r = el.getBoundingClientRect();
		if (r.width <= 0 || r.height <= 0) { continue; }
		const ph = (el.getAttribute('placeholder') || '').toLowerCase();
		if (ph.includes('search') && ph.includes('web')) {
			return el.tagName.toLowerCase() + '[placeholder="' + el.getAttribute('placeholder') + '"]';
		}
	}
	return '';
})()`

type snapshotItem struct {
	Visible bool   `json:"visible"`
	Text    string `json:"text"`
}

type snapshotResult struct {
	Error string         `json:"error"`
	Items []snapshotItem `json:"items"`
}

// Page implements research.Page over the session's tab.
type Page struct {
	sess   *Session
	logger *zap.Logger
}

var _ research.Page = (*Page)(nil)

// Element is one matched element from a Page snapshot. Actions re-resolve
// by (selector, filter, index) instead of holding a node handle.
type Element struct {
	page    *Page
	css     string
	filter  string
	index   int
	visible bool
	text    string
}

var _ research.Element = (*Element)(nil)

// Visible reports whether the element was visible at snapshot time.
func (e *Element) Visible() bool { return e.visible }

// Text returns the element's rendered text at snapshot time.
func (e *Element) Text() string { return e.text }

// Click dispatches a click to the element.
func (e *Element) Click(ctx context.Context) error {
	return e.page.act(ctx, e, "click")
}

// QueryAll implements research.Page.
func (p *Page) QueryAll(ctx context.Context, selector string) ([]research.Element, error) {
	els, err := p.queryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	out := make([]research.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

// queryAll is the concrete-typed snapshot query used inside this package.
func (p *Page) queryAll(ctx context.Context, selector string) ([]*Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	css, filter := splitHasText(selector)

	var res snapshotResult
	script := fmt.Sprintf(querySnapshotJS, css, filter)
	if err := chromedp.Run(p.sess.tabCtx, chromedp.Evaluate(script, &res)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("query %q: %s", selector, res.Error)
	}

	els := make([]*Element, len(res.Items))
	for i, item := range res.Items {
		els[i] = &Element{
			page:    p,
			css:     css,
			filter:  filter,
			index:   i,
			visible: item.Visible,
			text:    item.Text,
		}
	}
	return els, nil
}

// act re-resolves the element and applies a named action to it.
func (p *Page) act(ctx context.Context, e *Element, action string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var ok bool
	script := fmt.Sprintf(nthMatchJS, e.css, e.filter, e.index, action)
	if err := chromedp.Run(p.sess.tabCtx, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("%s on %q[%d]: %w", action, e.css, e.index, err)
	}
	if !ok {
		return fmt.Errorf("%s on %q[%d]: element no longer present", action, e.css, e.index)
	}
	return nil
}

// ClearInput focuses the element and empties its value, firing an input
// event so the app's bindings notice.
func (p *Page) ClearInput(ctx context.Context, e *Element) error {
	return p.act(ctx, e, "clear")
}

// TypeInto focuses the element and types text one key at a time, pausing
// per keystroke with the jitter's cadence.
func (p *Page) TypeInto(ctx context.Context, e *Element, text string, jitter *humanoid.Jitter) error {
	if err := p.act(ctx, e, "focus"); err != nil {
		return err
	}
	delays := jitter.TypeDelays(text)
	for i, r := range []rune(text) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := chromedp.Run(p.sess.tabCtx, chromedp.KeyEvent(string(r))); err != nil {
			return fmt.Errorf("typing: %w", err)
		}
		if d := delays[i]; d > 0 {
			if err := chromedp.Run(p.sess.tabCtx, chromedp.Sleep(d)); err != nil {
				return fmt.Errorf("typing pause: %w", err)
			}
		}
	}
	return nil
}

// PressEnter sends an Enter key to the focused element.
func (p *Page) PressEnter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(p.sess.tabCtx, chromedp.KeyEvent(kb.Enter))
}

// ScanSearchInput is the placeholder-based fallback for the web-search
// input. It returns a selector pinned to the exact placeholder, or "" when
// nothing matched.
func (p *Page) ScanSearchInput(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var sel string
	if err := chromedp.Run(p.sess.tabCtx, chromedp.Evaluate(scanSearchInputJS, &sel)); err != nil {
		return "", fmt.Errorf("scanning inputs: %w", err)
	}
	return sel, nil
}

// interactivesJS dumps every button, input, and dropdown surface with the
// attributes needed to write new selectors.
const interactivesJS = `(function() {
	const info = el => {
		const r = el.getBoundingClientRect();
		return {
			tag: el.tagName.toLowerCase(),
			text: (el.innerText || '').trim().slice(0, 80),
			aria_label: el.getAttribute('aria-label') || '',
			class: (el.getAttribute('class') || '').slice(0, 60),
			role: el.getAttribute('role') || '',
			type: el.getAttribute('type') || '',
			placeholder: el.getAttribute('placeholder') || '',
			visible: r.width > 0 && r.height > 0
		};
	};
	return {
		buttons: Array.from(document.querySelectorAll('button')).map(info),
		inputs: Array.from(document.querySelectorAll('input, textarea')).map(info),
		dropdowns: Array.from(document.querySelectorAll(
			'select, [role="listbox"], [role="combobox"], [role="menu"]')).map(info)
	};
})()`

// Interactives implements discovery.Surface.
func (p *Page) Interactives(ctx context.Context) (buttons, inputs, dropdowns []discovery.ElementInfo, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}
	var out struct {
		Buttons   []discovery.ElementInfo `json:"buttons"`
		Inputs    []discovery.ElementInfo `json:"inputs"`
		Dropdowns []discovery.ElementInfo `json:"dropdowns"`
	}
	if err := chromedp.Run(p.sess.tabCtx, chromedp.Evaluate(interactivesJS, &out)); err != nil {
		return nil, nil, nil, fmt.Errorf("dumping interactive elements: %w", err)
	}
	return out.Buttons, out.Inputs, out.Dropdowns, nil
}

// splitHasText separates the optional `:has-text("...")` suffix from the
// CSS part of a selector.
func splitHasText(selector string) (css, filter string) {
	if m := hasTextRe.FindStringSubmatch(selector); m != nil {
		css = strings.TrimSpace(m[1])
		if css == "" {
			css = "*"
		}
		return css, m[2]
	}
	return selector, ""
}
