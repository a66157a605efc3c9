package influence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible/core/internal/crucible/glyph"
)

type testArena struct {
	glyphs map[int64]*glyph.Glyph
}

func newTestArena(gs ...*glyph.Glyph) *testArena {
	a := &testArena{glyphs: make(map[int64]*glyph.Glyph)}
	for _, g := range gs {
		a.glyphs[g.ID] = g
	}
	return a
}

func (a *testArena) Get(id int64) (*glyph.Glyph, bool) { g, ok := a.glyphs[id]; return g, ok }
func (a *testArena) All() []*glyph.Glyph {
	out := make([]*glyph.Glyph, 0, len(a.glyphs))
	for _, g := range a.glyphs {
		out = append(out, g)
	}
	return out
}

func TestRunPromotesLivingParentAtThreshold(t *testing.T) {
	parent := &glyph.Glyph{ID: 1}
	children := []*glyph.Glyph{
		{ID: 2, Ancestry: []int64{1}},
		{ID: 3, Ancestry: []int64{1}},
		{ID: 4, Ancestry: []int64{1}},
	}
	a := newTestArena(append([]*glyph.Glyph{parent}, children...)...)

	d := NewDetector()
	d.Run(a, 10)

	assert.True(t, parent.IsAttractor)
	require.Contains(t, d.Attractors, int64(1))
	assert.Equal(t, int64(10), d.Attractors[1].Discovered)
	assert.False(t, d.Attractors[1].IsProxy)
}

func TestRunDoesNotPromoteBelowThreshold(t *testing.T) {
	parent := &glyph.Glyph{ID: 1}
	children := []*glyph.Glyph{
		{ID: 2, Ancestry: []int64{1}},
	}
	a := newTestArena(append([]*glyph.Glyph{parent}, children...)...)

	d := NewDetector()
	d.Run(a, 10)
	assert.False(t, parent.IsAttractor)
	assert.Empty(t, d.Attractors)
}

func TestRunPromotesRediscoveryAsEpisode(t *testing.T) {
	parent := &glyph.Glyph{ID: 1}
	children := []*glyph.Glyph{
		{ID: 2, Ancestry: []int64{1}},
		{ID: 3, Ancestry: []int64{1}},
		{ID: 4, Ancestry: []int64{1}},
	}
	a := newTestArena(append([]*glyph.Glyph{parent}, children...)...)

	d := NewDetector()
	d.Run(a, 10)
	d.Run(a, 20)

	assert.Equal(t, int64(2), d.Attractors[1].Episodes)
	assert.Equal(t, int64(10), d.Attractors[1].Discovered, "discovered gen must not change on rediscovery")
}

func TestRunPromotesProxyWhenProgenitorCulled(t *testing.T) {
	// originalID 1 is not present in the arena (culled); glyphs 10..13 each cite
	// it directly (ProxyThreshold citations), and 99 descends from 10, which
	// makes 10 the most influential citer and so the proxy.
	var children []*glyph.Glyph
	for i := int64(0); i < ProxyThreshold; i++ {
		children = append(children, &glyph.Glyph{ID: 10 + i, Ancestry: []int64{1}})
	}
	descendant := &glyph.Glyph{ID: 99, Ancestry: []int64{10}}
	a := newTestArena(append(children, descendant)...)

	d := NewDetector()
	d.Run(a, 5)

	require.Contains(t, d.Attractors, int64(10))
	assert.True(t, d.Attractors[10].IsProxy)
	assert.Equal(t, int64(1), d.Attractors[10].ProxyFor)
}

func TestCascadeDepthCapsAtMax(t *testing.T) {
	children := map[int64][]*glyph.Glyph{
		1: {{ID: 2}},
		2: {{ID: 3}},
		3: {{ID: 4}},
		4: {{ID: 5}},
		5: {{ID: 6}},
	}
	depth := cascadeDepth(1, children, map[int64]bool{1: true}, 0)
	assert.LessOrEqual(t, depth, MaxCascadeDepth)
}

func TestScoreZeroForNoChildren(t *testing.T) {
	assert.Equal(t, 0.0, score(1, nil, nil, 10))
}
