package coordinate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible/core/internal/crucible/glyph"
	"github.com/crucible/core/internal/crucible/resonance"
)

// testArena is a minimal Arena backed by a map, enough to exercise Collide
// without pulling in the full glyph.Arena cull/signature machinery.
type testArena struct {
	glyphs map[int64]*glyph.Glyph
	nextID int64
}

func newTestArena() *testArena {
	return &testArena{glyphs: make(map[int64]*glyph.Glyph)}
}

func (a *testArena) Get(id int64) (*glyph.Glyph, bool) { g, ok := a.glyphs[id]; return g, ok }
func (a *testArena) Create(gen int64, tags []string, ancestry []int64) *glyph.Glyph {
	g := &glyph.Glyph{ID: a.nextID, Tags: tags, Ancestry: ancestry, Generation: gen, MutationRate: glyph.DefaultMutationRate}
	a.nextID++
	a.glyphs[g.ID] = g
	return g
}

func withThermo(g *glyph.Glyph, h float64) *glyph.Glyph {
	g.Thermo = &glyph.ThermodynamicState{H: h, Phi: 0.5, Tau: 1.0}
	g.AppendEntropy(h)
	return g
}

func TestEligibleRejectsSameID(t *testing.T) {
	a := &glyph.Glyph{ID: 1}
	field := resonance.NewField(nil)
	assert.False(t, eligible(a, a, 100, field))
}

func TestEligibleRejectsAncestry(t *testing.T) {
	a := &glyph.Glyph{ID: 1}
	b := &glyph.Glyph{ID: 2, Ancestry: []int64{1}}
	field := resonance.NewField(nil)
	assert.False(t, eligible(a, b, 100, field))
}

func TestEligibleRejectsOpenPipe(t *testing.T) {
	a := &glyph.Glyph{ID: 1}
	b := &glyph.Glyph{ID: 2}
	field := resonance.NewField(nil)
	field.OpenPipe(1, 2, 100)
	assert.False(t, eligible(a, b, 100, field))
}

func TestEligibleRejectsRefractoryWindow(t *testing.T) {
	a := &glyph.Glyph{ID: 1, LastCollisionGen: 95}
	b := &glyph.Glyph{ID: 2, LastCollisionGen: 0}
	field := resonance.NewField(nil)
	assert.False(t, eligible(a, b, 100, field))
}

func TestCollideProducesOffspringAndMarksRefractory(t *testing.T) {
	arena := newTestArena()
	a := withThermo(arena.Create(0, []string{"wild"}, nil), 100)
	b := withThermo(arena.Create(0, []string{"ghost"}, nil), 110)

	field := resonance.NewField(nil)
	field.Matrix = []resonance.Pair{{A: a.ID, B: b.ID, Score: 0.9}}

	season := Season{Name: "exploration", EntropyMod: 1.0, ThresholdMod: 0}
	rng := rand.New(rand.NewSource(3))

	results, phaseT, critE := Collide(arena, field, 50, season, 0.5, 0.99, rng, nil)
	require.Len(t, results, 1)
	assert.NotNil(t, results[0].Offspring)
	assert.Equal(t, int64(50), a.LastCollisionGen)
	assert.Equal(t, int64(50), b.LastCollisionGen)
	assert.True(t, field.HasOpenPipe(a.ID, b.ID))
	assert.Equal(t, 1, phaseT)
	assert.Equal(t, 0, critE)
}

func TestCollideSkipsIneligiblePairs(t *testing.T) {
	arena := newTestArena()
	a := withThermo(arena.Create(0, []string{"wild"}, nil), 100)
	b := withThermo(arena.Create(0, []string{"ghost"}, nil), 110)
	a.LastCollisionGen = 45

	field := resonance.NewField(nil)
	field.Matrix = []resonance.Pair{{A: a.ID, B: b.ID, Score: 0.9}}
	season := Season{Name: "exploration"}
	rng := rand.New(rand.NewSource(3))

	results, _, _ := Collide(arena, field, 50, season, 0.5, 0.99, rng, nil)
	assert.Empty(t, results)
}

func TestSynthesizeUnionsAndMarksConceptCross(t *testing.T) {
	arena := newTestArena()
	pa := &glyph.Glyph{ID: 1, Tags: []string{"wild"}, IsConcept: true, MutationRate: 0.1}
	pb := &glyph.Glyph{ID: 2, Tags: []string{"ghost"}, MutationRate: 0.1}
	season := Season{Name: "consolidation"}
	rng := rand.New(rand.NewSource(1))

	offspring := synthesize(arena, pa, pb, 10, season, 0.8, 0.5, rng)
	require.NotNil(t, offspring)
	assert.Contains(t, offspring.Tags, "synthesis")
	assert.ElementsMatch(t, []int64{1, 2}, offspring.Ancestry)
}

func TestSeasonMutantSeparators(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a, b := []string{"a"}, []string{"b"}
	assert.Equal(t, "a→b", seasonMutant(a, b, "exploration", rng))
	assert.Equal(t, "a∧b", seasonMutant(a, b, "consolidation", rng))
	assert.Equal(t, "a×b", seasonMutant(a, b, "dormancy", rng))
}

func TestPickMutantEmptyInputsYieldEmptyString(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, "", pickMutant(nil, []string{"b"}, "→", rng))
}
