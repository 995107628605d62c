// File: internal/research/locator_test.go
package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(page Page, wait time.Duration, clock *fakeClock) *Resolver {
	return NewResolver(page, wait, testLogger(),
		WithResolverClock(clock.Now, clock.Sleep))
}

func TestResolvePriorityOrder(t *testing.T) {
	candidates := Candidates{
		Name:      "search input",
		Selectors: []string{"#decoy-a", "#decoy-b", "#real", "#also-visible"},
	}

	t.Run("first visible match wins", func(t *testing.T) {
		page := newStubPage()
		page.set("#decoy-a") // matches nothing
		page.set("#decoy-b", &stubElement{visible: false, text: "hidden"})
		page.set("#real", &stubElement{visible: true, text: "the one"})
		page.set("#also-visible", &stubElement{visible: true, text: "too late"})

		el, matched, err := newTestResolver(page, 0, newFakeClock()).Resolve(context.Background(), candidates)
		require.NoError(t, err)
		assert.Equal(t, "#real", matched)
		assert.Equal(t, "the one", el.Text())
	})

	t.Run("priority is positional, not speed-based", func(t *testing.T) {
		// #decoy-a only becomes visible after two probe cycles, while a
		// later candidate is visible immediately. The earlier candidate
		// must still win.
		page := newStubPage()
		page.script("#decoy-a",
			[]Element{},
			[]Element{},
			[]Element{&stubElement{visible: true, text: "slow but first"}},
		)
		page.set("#real", &stubElement{visible: true, text: "fast but later"})

		el, matched, err := newTestResolver(page, 2*time.Second, newFakeClock()).
			Resolve(context.Background(), Candidates{Name: "x", Selectors: []string{"#decoy-a", "#real"}})
		require.NoError(t, err)
		assert.Equal(t, "#decoy-a", matched)
		assert.Equal(t, "slow but first", el.Text())
	})

	t.Run("exhausting the list is a recoverable NotFound", func(t *testing.T) {
		page := newStubPage()
		page.set("#decoy-b", &stubElement{visible: false})

		_, _, err := newTestResolver(page, 0, newFakeClock()).Resolve(context.Background(), candidates)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "search input")
	})
}

func TestResolveWaitsPerCandidate(t *testing.T) {
	page := newStubPage()
	// Visible only from the third probe onward.
	page.script("#late",
		[]Element{&stubElement{visible: false}},
		[]Element{&stubElement{visible: false}},
		[]Element{&stubElement{visible: true, text: "appeared"}},
	)

	t.Run("match appearing within the wait window resolves", func(t *testing.T) {
		clock := newFakeClock()
		el, matched, err := newTestResolver(page, time.Second, clock).
			Resolve(context.Background(), Candidates{Name: "late", Selectors: []string{"#late"}})
		require.NoError(t, err)
		assert.Equal(t, "#late", matched)
		assert.Equal(t, "appeared", el.Text())
	})

	t.Run("wait is bounded", func(t *testing.T) {
		clock := newFakeClock()
		start := clock.Now()
		page := newStubPage()
		page.set("#never", &stubElement{visible: false})

		_, _, err := newTestResolver(page, time.Second, clock).
			Resolve(context.Background(), Candidates{Name: "never", Selectors: []string{"#never"}})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.LessOrEqual(t, clock.Now().Sub(start), 2*time.Second)
	})
}

func TestResolveNow(t *testing.T) {
	t.Run("returns an already-visible match without waiting", func(t *testing.T) {
		page := newStubPage()
		page.set(".spinner", &stubElement{visible: true, text: "..."})

		clock := newFakeClock()
		start := clock.Now()
		_, matched, err := newTestResolver(page, 10*time.Second, clock).
			ResolveNow(context.Background(), Candidates{Name: "spinner", Selectors: []string{".spinner"}})
		require.NoError(t, err)
		assert.Equal(t, ".spinner", matched)
		assert.Equal(t, start, clock.Now(), "zero-wait mode must not sleep")
	})

	t.Run("query errors fall through to the next candidate", func(t *testing.T) {
		page := newStubPage()
		page.fail(".bad", errors.New("node detached"))
		page.set(".good", &stubElement{visible: true})

		_, matched, err := newTestResolver(page, 0, newFakeClock()).
			ResolveNow(context.Background(), Candidates{Name: "x", Selectors: []string{".bad", ".good"}})
		require.NoError(t, err)
		assert.Equal(t, ".good", matched)
	})

	t.Run("invisible matches do not resolve", func(t *testing.T) {
		page := newStubPage()
		page.set(".hidden", &stubElement{visible: false})

		_, _, err := newTestResolver(page, 0, newFakeClock()).
			ResolveNow(context.Background(), Candidates{Name: "x", Selectors: []string{".hidden"}})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestResolveHonorsCancellation(t *testing.T) {
	page := newStubPage()
	page.set("#never", &stubElement{visible: false})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clock := newFakeClock()
	_, _, err := newTestResolver(page, time.Minute, clock).
		Resolve(ctx, Candidates{Name: "never", Selectors: []string{"#never", "#other"}})
	assert.ErrorIs(t, err, context.Canceled)
}
