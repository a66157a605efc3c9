package observe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crucible/core/internal/crucible/glyph"
	"github.com/crucible/core/internal/crucible/resonance"
	"github.com/crucible/core/internal/crucible/xmath"
)

func thermoGlyph(id int64, h, dhdt, x, y float64) *glyph.Glyph {
	return &glyph.Glyph{ID: id, X: x, Y: y, Thermo: &glyph.ThermodynamicState{H: h, DHDt: dhdt}}
}

func TestComputeMeanAndSigma(t *testing.T) {
	glyphs := []*glyph.Glyph{
		thermoGlyph(1, 100, 0, 0, 0),
		thermoGlyph(2, 300, 0, 0, 0),
	}
	field := resonance.NewField(nil)
	snap := Compute(glyphs, field, 10, 0, 0)
	assert.InDelta(t, 200, snap.MeanH, 1e-9)
	assert.InDelta(t, 100, snap.SigmaH, 1e-9)
}

func TestComputeCountsNonFiniteAsSingularities(t *testing.T) {
	bad := thermoGlyph(1, math.Inf(1), 0, 0, 0)
	good := thermoGlyph(2, 100, 0, 0, 0)
	glyphs := []*glyph.Glyph{bad, good}
	field := resonance.NewField(nil)
	snap := Compute(glyphs, field, 10, 0, 0)
	assert.Equal(t, 1, snap.SingularityCount)
	assert.InDelta(t, 0.5, snap.SingularityFrac, 1e-9)
	assert.InDelta(t, 100, snap.MeanH, 1e-9, "non-finite glyph must not pollute the mean")
}

func TestComputePassesThroughLifetimeCounters(t *testing.T) {
	field := resonance.NewField(nil)
	snap := Compute(nil, field, 10, 7, 3)
	assert.Equal(t, int64(7), snap.PhaseTransitions)
	assert.Equal(t, int64(3), snap.CriticalEvents)
}

func TestCurrentJHSumsWeightedByInverseDistance(t *testing.T) {
	a := thermoGlyph(1, 100, 0, 0, 0)
	b := thermoGlyph(2, 300, 0, 10, 0)
	field := resonance.NewField(nil)
	field.Matrix = []resonance.Pair{{A: 1, B: 2, Score: 0.9}}

	jh := currentJH([]*glyph.Glyph{a, b}, field)
	assert.InDelta(t, 200.0/(10.0+xmath.Epsilon), jh, 1e-6)
}

func TestComputeOnEmptyPopulation(t *testing.T) {
	field := resonance.NewField(nil)
	snap := Compute(nil, field, 10, 0, 0)
	assert.Equal(t, 0.0, snap.MeanH)
	assert.Equal(t, 0.0, snap.SigmaH)
	assert.Equal(t, 0.0, snap.SingularityFrac)
}
