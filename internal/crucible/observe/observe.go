// Package observe implements the Observables (spec §4.13): the
// population-level statistics recomputed every thermo pass, plus the two
// lifetime counters the coordinator increments.
package observe

import (
	"math"

	"github.com/crucible/core/internal/crucible/glyph"
	"github.com/crucible/core/internal/crucible/resonance"
	"github.com/crucible/core/internal/crucible/xmath"
)

// Snapshot is one computed observables block (spec §3: "observables
// block").
type Snapshot struct {
	MeanH            float64 // ⟨H⟩
	SigmaH           float64 // σ_H
	Psi              float64 // ψ = ⟨ρ⟩ over the resonance matrix
	MeanVelocity     float64 // ⟨vₚ⟩ = ⟨|dH/dt|⟩
	CurrentJH        float64 // J_H
	SingularityCount int     // N_Ξ
	SingularityFrac  float64 // f_Ξ
	FreeEnergy       float64 // F

	PhaseTransitions int64 // lifetime counter, incremented by coordinate
	CriticalEvents   int64 // lifetime counter, incremented by coordinate
}

// Compute derives a fresh observables snapshot from the current
// population and resonance field (spec §4.13).
func Compute(glyphs []*glyph.Glyph, field *resonance.Field, vocabSize int, phaseTransitions, criticalEvents int64) Snapshot {
	var meanH, meanVelocity float64
	var singularityCount int
	finiteCount := 0

	for _, g := range glyphs {
		if g.Thermo == nil || !xmath.Finite(g.Thermo.H) || !xmath.Finite(g.Entropy()) {
			singularityCount++
			continue
		}
		meanH += g.Thermo.H
		meanVelocity += math.Abs(g.Thermo.DHDt)
		finiteCount++
	}
	if finiteCount > 0 {
		meanH /= float64(finiteCount)
		meanVelocity /= float64(finiteCount)
	}

	var sigmaSq float64
	for _, g := range glyphs {
		if g.Thermo == nil || !xmath.Finite(g.Thermo.H) {
			continue
		}
		d := g.Thermo.H - meanH
		sigmaSq += d * d
	}
	sigmaH := 0.0
	if finiteCount > 0 {
		sigmaH = math.Sqrt(sigmaSq / float64(finiteCount))
	}

	jh := currentJH(glyphs, field)

	n := len(glyphs)
	fXi := 0.0
	if n > 0 {
		fXi = float64(singularityCount) / float64(n)
	}

	freeEnergy := meanH - (sigmaH/100)*(math.Log(float64(vocabSize)+1)+math.Log(float64(n)+1))

	return Snapshot{
		MeanH:            meanH,
		SigmaH:           sigmaH,
		Psi:              field.MeanScore(),
		MeanVelocity:      meanVelocity,
		CurrentJH:        jh,
		SingularityCount: singularityCount,
		SingularityFrac:  fXi,
		FreeEnergy:       freeEnergy,
		PhaseTransitions: phaseTransitions,
		CriticalEvents:   criticalEvents,
	}
}

// currentJH sums |Ha−Hb|/dist over every resonance-matrix edge (spec
// §4.13).
func currentJH(glyphs []*glyph.Glyph, field *resonance.Field) float64 {
	byID := make(map[int64]*glyph.Glyph, len(glyphs))
	for _, g := range glyphs {
		byID[g.ID] = g
	}
	var sum float64
	for _, p := range field.Matrix {
		a, okA := byID[p.A]
		b, okB := byID[p.B]
		if !okA || !okB || a.Thermo == nil || b.Thermo == nil {
			continue
		}
		dx, dy := a.X-b.X, a.Y-b.Y
		dist := math.Sqrt(dx*dx + dy*dy)
		sum += math.Abs(a.Thermo.H-b.Thermo.H) / (dist + xmath.Epsilon)
	}
	return sum
}
