package reflex

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible/core/internal/crucible/glyph"
)

type testArena struct {
	glyphs []*glyph.Glyph
	nextID int64
}

func (a *testArena) All() []*glyph.Glyph { return a.glyphs }
func (a *testArena) Create(gen int64, tags []string, ancestry []int64) *glyph.Glyph {
	g := &glyph.Glyph{ID: a.nextID, Tags: tags, Ancestry: ancestry, Generation: gen}
	a.nextID++
	a.glyphs = append(a.glyphs, g)
	return g
}

func TestTriggersStagnant(t *testing.T) {
	g := &glyph.Glyph{StagnantCount: StagnantThreshold + 1}
	assert.True(t, triggers(g, 0))
}

func TestTriggersLowEntropy(t *testing.T) {
	g := &glyph.Glyph{}
	g.AppendEntropy(1)
	assert.True(t, triggers(g, 100))
}

func TestTriggersUnknownTag(t *testing.T) {
	g := &glyph.Glyph{Tags: []string{"unknown"}}
	assert.True(t, triggers(g, 0))
}

func TestTriggersFalseOtherwise(t *testing.T) {
	g := &glyph.Glyph{Tags: []string{"wild"}}
	g.AppendEntropy(100)
	assert.False(t, triggers(g, 100))
}

func TestClassifyDefensive(t *testing.T) {
	g := &glyph.Glyph{Tags: []string{"a"}}
	g.AppendEntropy(1)
	assert.Equal(t, glyph.ReflexDefensive, classify(g, 100, "exploration"))
}

func TestClassifyConsolidativeForAttractor(t *testing.T) {
	g := &glyph.Glyph{Tags: []string{"a", "b", "c", "d", "e"}, IsAttractor: true}
	g.AppendEntropy(100)
	assert.Equal(t, glyph.ReflexConsolidative, classify(g, 100, "dormancy"))
}

func TestRunSpawnsUpToMaxPerCycle(t *testing.T) {
	a := &testArena{}
	for i := 0; i < 10; i++ {
		g := a.Create(0, []string{"unknown"}, nil)
		g.ID = int64(i)
	}
	rng := rand.New(rand.NewSource(1))
	spawned := Run(a, 5, "exploration", rng)
	assert.LessOrEqual(t, len(spawned), MaxPerCycle)
	for _, s := range spawned {
		assert.True(t, s.IsReflex)
	}
}

func TestRunSkipsReflexAndConceptGlyphs(t *testing.T) {
	a := &testArena{}
	reflexG := a.Create(0, []string{"unknown"}, nil)
	reflexG.IsReflex = true
	conceptG := a.Create(0, []string{"unknown"}, nil)
	conceptG.IsConcept = true

	spawned := Run(a, 5, "exploration", rand.New(rand.NewSource(1)))
	assert.Empty(t, spawned)
}

func TestRecipeMetamorphicUsesFirstTwoTags(t *testing.T) {
	g := &glyph.Glyph{Tags: []string{"wild", "ghost"}}
	tags := recipe(g, glyph.ReflexMetamorphic, nil, rand.New(rand.NewSource(1)))
	require.NotEmpty(t, tags)
	assert.Equal(t, "wild⇌ghost", tags[0])
}

func TestLeastOverlappingPrefersDistinctTags(t *testing.T) {
	g := &glyph.Glyph{ID: 1, Tags: []string{"a", "b"}}
	same := &glyph.Glyph{ID: 2, Tags: []string{"a", "b"}}
	distant := &glyph.Glyph{ID: 3, Tags: []string{"x", "y"}}
	pool := []*glyph.Glyph{g, same, distant}

	got := leastOverlapping(g, pool, rand.New(rand.NewSource(1)))
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.ID)
}
