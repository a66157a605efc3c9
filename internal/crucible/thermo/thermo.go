// Package thermo implements the Entropy & Thermo Calculator (spec §4.3):
// per-glyph entropy sampling and the rolling derived thermodynamic state
// (H, dH/dt, τ_coherence, φ_phase).
package thermo

import (
	"math/rand"

	"github.com/crucible/core/internal/crucible/glyph"
	"github.com/crucible/core/internal/crucible/xmath"
)

// OrganicClamp is the entropy ceiling for ordinarily-born glyphs (spec §4.3).
const OrganicClamp = 8000.0

// RenaissanceBoost is the multiplier applied to renaissance-born entropy
// before re-clamping to OrganicClamp (spec §4.3).
const RenaissanceBoost = 1.1

// ConceptClamp is the entropy ceiling for concept glyphs (spec §4.3).
const ConceptClamp = 10000.0

// CalcEntropy computes a fresh entropy sample for g (spec §4.3).
//
//	(tags.len*42 + uniform_int[0,58) + min(gen,100)*10) × seasonMod × operatorProduct
//
// clamped per glyph role.
func CalcEntropy(g *glyph.Glyph, gen int64, seasonMod float64, rng *rand.Rand) float64 {
	genFactor := gen
	if genFactor > 100 {
		genFactor = 100
	}
	base := float64(len(g.Tags))*42 + float64(rng.Intn(58)) + float64(genFactor)*10
	op := glyph.OperatorProduct(g.Tags)
	value := base * seasonMod * op

	switch {
	case g.IsConcept:
		confidence := 0.0
		if g.ConceptData != nil {
			confidence = g.ConceptData.Confidence
		}
		value = value + confidence*500
		if value > ConceptClamp {
			value = ConceptClamp
		}
	case g.SeasonBorn == "renaissance":
		value = xmath.Clamp(value*RenaissanceBoost, 0, OrganicClamp)
	default:
		value = xmath.Clamp(value, 0, OrganicClamp)
	}
	return value
}

// UpdateThermodynamics performs one thermo pass on g: samples a fresh
// entropy value, appends it to the rolling history, and re-derives the
// (H, dH/dt, τ, φ) quadruple (spec §4.3). Called once per thermo pass
// (every BEACON_UPDATE_INTERVAL gens) by the step orchestrator.
func UpdateThermodynamics(g *glyph.Glyph, gen int64, seasonMod float64, rng *rand.Rand) {
	sample := CalcEntropy(g, gen, seasonMod, rng)
	g.AppendEntropy(sample)

	hist := g.EntropyHistory
	last := hist[len(hist)-1]

	window := 10
	if len(hist) < window {
		window = len(hist)
	}
	var dhdt float64
	if window > 0 {
		prior := hist[len(hist)-window]
		dhdt = (last - prior) / float64(window)
	}

	tau := tauCoherence(hist)
	phi := phiPhase(hist)

	g.Thermo = &glyph.ThermodynamicState{
		H:          last,
		DHDt:       dhdt,
		Tau:        tau,
		Phi:        phi,
		Generation: gen,
	}
	g.StagnantCount++
}

// tauCoherence computes 1/(σ(Δ)+ε) over up to 20 recent pairwise
// differences, falling back to 1.0 when fewer than 6 samples exist
// (spec §4.3).
func tauCoherence(hist []float64) float64 {
	if len(hist) < 6 {
		return 1.0
	}
	window := hist
	if len(window) > 21 {
		window = window[len(window)-21:]
	}
	diffs := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		diffs = append(diffs, window[i]-window[i-1])
	}
	if len(diffs) > 20 {
		diffs = diffs[len(diffs)-20:]
	}
	sigma := xmath.StdDev(diffs)
	return 1.0 / (sigma + xmath.Epsilon)
}

// phiPhase normalizes the latest sample's position within the min-max of
// the last 10 samples, falling back to 0.5 when degenerate (spec §4.3).
func phiPhase(hist []float64) float64 {
	window := hist
	if len(window) > 10 {
		window = window[len(window)-10:]
	}
	if len(window) < 2 {
		return 0.5
	}
	lo, hi := window[0], window[0]
	for _, v := range window {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return 0.5
	}
	last := window[len(window)-1]
	return xmath.Clamp01((last - lo) / (hi - lo))
}
