// File: internal/research/stubs_test.go
package research

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// stubElement is an in-memory Element snapshot.
type stubElement struct {
	visible bool
	text    string
	clickFn func(ctx context.Context) error
}

func (e *stubElement) Visible() bool { return e.visible }
func (e *stubElement) Text() string  { return e.text }
func (e *stubElement) Click(ctx context.Context) error {
	if e.clickFn != nil {
		return e.clickFn(ctx)
	}
	return nil
}

// stubPage serves scripted snapshots per selector. Each selector maps to a
// sequence of snapshots; the last one repeats once the sequence is
// exhausted, so tests can model elements that appear over time.
type stubPage struct {
	mu      sync.Mutex
	shots   map[string][][]Element
	errs    map[string]error
	hits    map[string]int
	queries []string
}

func newStubPage() *stubPage {
	return &stubPage{
		shots: map[string][][]Element{},
		errs:  map[string]error{},
		hits:  map[string]int{},
	}
}

// set registers a single repeating snapshot for a selector.
func (p *stubPage) set(selector string, els ...Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shots[selector] = [][]Element{els}
}

// script registers a snapshot sequence for a selector.
func (p *stubPage) script(selector string, seq ...[]Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shots[selector] = seq
}

func (p *stubPage) fail(selector string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[selector] = err
}

func (p *stubPage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, selector)
	if err := p.errs[selector]; err != nil {
		return nil, err
	}
	seq, ok := p.shots[selector]
	if !ok || len(seq) == 0 {
		return nil, nil
	}
	i := p.hits[selector]
	p.hits[selector]++
	if i >= len(seq) {
		i = len(seq) - 1
	}
	return seq[i], nil
}

// fakeClock drives the resolver and oracle without real sleeping: every
// Sleep advances the clock instead of blocking.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
	return ctx.Err()
}

// scriptedSampler replays a fixed sample sequence, repeating the last
// sample once exhausted.
type scriptedSampler struct {
	mu      sync.Mutex
	samples []Sample
	i       int
}

func (s *scriptedSampler) Sample(ctx context.Context) Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) == 0 {
		return Sample{}
	}
	i := s.i
	s.i++
	if i >= len(s.samples) {
		i = len(s.samples) - 1
	}
	return s.samples[i]
}

func testLogger() *zap.Logger { return zap.NewNop() }

// okCount is shorthand for a readable item-count sample.
func okCount(n int) Sample { return Sample{ItemCount: n, CountOK: true} }

// repeat appends n copies of a sample.
func repeat(samples []Sample, s Sample, n int) []Sample {
	for i := 0; i < n; i++ {
		samples = append(samples, s)
	}
	return samples
}
