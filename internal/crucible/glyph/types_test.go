package glyph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlyphEntropyBeforeFirstSample(t *testing.T) {
	g := &Glyph{}
	assert.Equal(t, 0.0, g.Entropy())
}

func TestGlyphAppendEntropyCapsHistory(t *testing.T) {
	g := &Glyph{}
	for i := 0; i < MaxEntropyHistory+10; i++ {
		g.AppendEntropy(float64(i))
	}
	assert.Len(t, g.EntropyHistory, MaxEntropyHistory)
	assert.Equal(t, float64(MaxEntropyHistory+9), g.Entropy())
}

func TestGlyphHasCognitiveTag(t *testing.T) {
	g := &Glyph{Tags: []string{"wild", "memory"}}
	assert.True(t, g.HasCognitiveTag())
	g2 := &Glyph{Tags: []string{"wild"}}
	assert.False(t, g2.HasCognitiveTag())
}

func TestGlyphInAncestryOf(t *testing.T) {
	g := &Glyph{Ancestry: []int64{3, 7}}
	assert.True(t, g.InAncestryOf(7))
	assert.False(t, g.InAncestryOf(9))
}
