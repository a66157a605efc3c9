package helix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSetsFixedConstants(t *testing.T) {
	s := New()
	assert.Equal(t, 1.0, s.Alpha)
	assert.Equal(t, 0.824, s.Beta)
	assert.Equal(t, 1.618, s.Phi)
	assert.Equal(t, 141.0, s.Omega)
	assert.Equal(t, 1.0, s.A)
}

func TestStepAdvancesTimeAndCapsHistory(t *testing.T) {
	s := New()
	for i := 0; i < MaxHistory+50; i++ {
		s.Step(int64(i), nil)
	}
	assert.Len(t, s.RHistory, MaxHistory)
	assert.Len(t, s.AHistory, MaxHistory)
	assert.Len(t, s.ThetaHistory, MaxHistory)
	assert.InDelta(t, float64(MaxHistory+50)*s.Dt, s.T, 1e-9)
}

func TestThresholdDerivesFromAmplitude(t *testing.T) {
	s := New()
	s.A = 0.5
	assert.InDelta(t, 0.45-0.08*0.5, s.Threshold(0.45), 1e-9)
}

func TestBreathScaleDerivesFromR(t *testing.T) {
	s := New()
	s.R = 0.2
	assert.InDelta(t, 1+0.1*0.2, s.BreathScale(), 1e-9)
}

func TestRAvgDeltaBelowRequiresMinSamples(t *testing.T) {
	assert.False(t, rAvgDeltaBelow([]float64{1.0}, 20, 0.15))
}

func TestRAvgDeltaBelowDetectsLowVariance(t *testing.T) {
	hist := make([]float64, 25)
	for i := range hist {
		hist[i] = 1.0
	}
	assert.True(t, rAvgDeltaBelow(hist, 20, 0.15))
}

func TestASpreadBelowDetectsTightWindow(t *testing.T) {
	assert.True(t, aSpreadBelow([]float64{1.0, 1.01}, 10, 0.05))
	assert.False(t, aSpreadBelow([]float64{1.0, 2.0}, 10, 0.05))
}

func TestUpdateStabilityCountsStableSteps(t *testing.T) {
	s := New()
	for i := 0; i < 25; i++ {
		s.RHistory = append(s.RHistory, 1.0)
		s.AHistory = append(s.AHistory, 1.0)
	}
	s.updateStability(1, nil)
	assert.True(t, s.Stable())
	assert.Equal(t, int64(1), s.StableFor())
}
