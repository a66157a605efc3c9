package resonance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible/core/internal/crucible/glyph"
)

func thermoGlyph(id int64, h, dhdt, phi, tau float64) *glyph.Glyph {
	return &glyph.Glyph{
		ID:     id,
		Thermo: &glyph.ThermodynamicState{H: h, DHDt: dhdt, Phi: phi, Tau: tau},
	}
}

func TestScoreIdenticalGlyphsIsHigh(t *testing.T) {
	a := thermoGlyph(1, 100, 0, 0.5, 2.0)
	b := thermoGlyph(2, 100, 0, 0.5, 2.0)
	got := Score(a, b)
	assert.Greater(t, got, 0.5)
	assert.LessOrEqual(t, got, 1.0)
}

func TestScoreMissingThermoIsZero(t *testing.T) {
	a := &glyph.Glyph{ID: 1}
	b := thermoGlyph(2, 100, 0, 0.5, 2.0)
	assert.Equal(t, 0.0, Score(a, b))
}

func TestPipeRefractoryWindow(t *testing.T) {
	f := NewField(nil)
	f.OpenPipe(1, 2, 10)
	assert.True(t, f.HasOpenPipe(1, 2))
	assert.True(t, f.HasOpenPipe(2, 1), "pipe lookup must be direction-independent")

	f.ExpirePipes(14)
	assert.True(t, f.HasOpenPipe(1, 2))
	f.ExpirePipes(16)
	assert.False(t, f.HasOpenPipe(1, 2))
}

func TestRebuildCapsAtMatrixCapAndSortsDescending(t *testing.T) {
	f := NewField(nil)
	rng := rand.New(rand.NewSource(7))

	glyphs := make([]*glyph.Glyph, 0, 60)
	for i := int64(0); i < 60; i++ {
		g := thermoGlyph(i, float64(i)*10, 0, 0, 1.0)
		g.X = float64(i % 10 * 20)
		g.Y = float64(i / 10 * 20)
		glyphs = append(glyphs, g)
	}

	f.Rebuild(glyphs, 0.0, rng)
	require.NotEmpty(t, f.Matrix)
	assert.LessOrEqual(t, len(f.Matrix), MatrixCap)
	for i := 1; i < len(f.Matrix); i++ {
		assert.GreaterOrEqual(t, f.Matrix[i-1].Score, f.Matrix[i].Score)
	}
}

func TestRebuildSkipsGlyphsWithoutThermo(t *testing.T) {
	f := NewField(nil)
	rng := rand.New(rand.NewSource(1))
	glyphs := []*glyph.Glyph{{ID: 1}, {ID: 2}}
	f.Rebuild(glyphs, 0.0, rng)
	assert.Empty(t, f.Matrix)
}

func TestMeanScoreEmptyMatrixIsZero(t *testing.T) {
	f := NewField(nil)
	assert.Equal(t, 0.0, f.MeanScore())
}
