package singularity

import (
	"math/rand"
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

func (a *testArena) All() []*glyph.Glyph {
	out := make([]*glyph.Glyph, 0, len(a.glyphs))
	for _, g := range a.glyphs {
		out = append(out, g)
	}
	return out
}
func (a *testArena) Delete(id int64) { delete(a.glyphs, id) }

func identicalGlyph(id int64, entropy float64) *glyph.Glyph {
	g := &glyph.Glyph{ID: id, Thermo: &glyph.ThermodynamicState{H: 100, DHDt: 0, Tau: 1, Phi: 0.5}}
	g.AppendEntropy(entropy)
	g.X, g.Y = 50, 50
	return g
}

func TestScanSkipsBelowMinPopulation(t *testing.T) {
	s := NewScanner()
	a := newTestArena(identicalGlyph(1, 10))
	culled := s.Scan(a, 100, 100, rand.New(rand.NewSource(1)))
	assert.Equal(t, 0, culled)
}

func TestExactCullKeepsTopTwoByEntropy(t *testing.T) {
	s := NewScanner()
	members := []*glyph.Glyph{
		identicalGlyph(1, 5),
		identicalGlyph(2, 7),
		identicalGlyph(3, 9),
		identicalGlyph(4, 11),
	}
	culled := s.exactCull(members, 100, 100, make(map[int64]bool))
	assert.True(t, culled[1])
	assert.True(t, culled[2])
	assert.False(t, culled[3])
	assert.False(t, culled[4])
}

func TestExactCullLeavesSmallClustersAlone(t *testing.T) {
	s := NewScanner()
	members := []*glyph.Glyph{identicalGlyph(1, 10), identicalGlyph(2, 20)}
	culled := s.exactCull(members, 100, 100, make(map[int64]bool))
	assert.Empty(t, culled)
}

func TestExactCullProtectsConceptsAndAttractors(t *testing.T) {
	s := NewScanner()
	protectedG := identicalGlyph(1, 5)
	protectedG.IsConcept = true
	members := []*glyph.Glyph{
		protectedG,
		identicalGlyph(2, 10),
		identicalGlyph(3, 20),
		identicalGlyph(4, 30),
	}
	culled := s.exactCull(members, 100, 100, make(map[int64]bool))
	assert.False(t, culled[1], "protected glyph must never be culled")
}

func TestNearCloneCullCullsLowerEntropyDuplicate(t *testing.T) {
	s := NewScanner()
	a := identicalGlyph(1, 50)
	b := identicalGlyph(2, 10)
	culled := s.nearCloneCull([]*glyph.Glyph{a, b}, 100, 100, rand.New(rand.NewSource(1)), make(map[int64]bool))
	require.True(t, culled[2])
	assert.False(t, culled[1])
}

func TestSignatureDeterministicForSameFeatures(t *testing.T) {
	s := NewScanner()
	f := feature(identicalGlyph(1, 10), 100, 100)
	sig1 := s.signature(f)
	sig2 := s.signature(f)
	assert.Equal(t, sig1, sig2)
}

func TestCosineIdenticalVectorsIsOne(t *testing.T) {
	f := feature(identicalGlyph(1, 10), 100, 100)
	assert.InDelta(t, 1.0, cosine(f, f), 1e-9)
}

func TestCosineZeroVectorIsZero(t *testing.T) {
	var zero [featureDims]float64
	f := feature(identicalGlyph(1, 10), 100, 100)
	assert.Equal(t, 0.0, cosine(zero, f))
}
