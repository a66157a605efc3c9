// Package entrain implements the Entrainment Propagator (spec §4.6):
// downhill transfer of tags, entropy, and mutation-rate across resonant
// edges, followed by a priority/mutation-rate decay pass.
package entrain

import (
	"math"
	"math/rand"

	"github.com/crucible/core/internal/crucible/glyph"
	"github.com/crucible/core/internal/crucible/resonance"
)

// MinStrength is the floor below which an edge contributes nothing (spec
// §4.6: "Drop strengths < 0.05").
const MinStrength = 0.05

// Arena is the subset of *glyph.Arena entrainment needs.
type Arena interface {
	Get(id int64) (*glyph.Glyph, bool)
	All() []*glyph.Glyph
}

// edge is one downhill entrainment candidate: source outranks target in H.
type edge struct {
	source, target *glyph.Glyph
	strength        float64
}

// Run performs one entrainment cycle (spec §4.6): clears every glyph's
// Entrained flag, computes a downhill strength per resonant edge, groups
// by target, and transfers tags/entropy/mutation-rate/priority to each
// non-concept target with at least one source.
func Run(a Arena, field *resonance.Field, gen int64, rng *rand.Rand) {
	for _, g := range a.All() {
		g.Entrained = false
	}

	byTarget := make(map[int64][]edge)

	for _, p := range field.Matrix {
		ga, okA := a.Get(p.A)
		gb, okB := a.Get(p.B)
		if !okA || !okB || ga.Thermo == nil || gb.Thermo == nil {
			continue
		}
		src, tgt := ga, gb
		if gb.Thermo.H > ga.Thermo.H {
			src, tgt = gb, ga
		}

		phaseTerm := 0.5
		if src.Thermo != nil && tgt.Thermo != nil {
			phaseTerm = math.Max(0, math.Cos(math.Pi*math.Abs(src.Thermo.Phi-tgt.Thermo.Phi)))
		}
		strength := p.Score * math.Max(0, (src.Thermo.H-tgt.Thermo.H)/8000) * phaseTerm
		if strength < MinStrength {
			continue
		}
		byTarget[tgt.ID] = append(byTarget[tgt.ID], edge{source: src, target: tgt, strength: strength})
	}

	for _, edges := range byTarget {
		tgt := edges[0].target
		if tgt.IsConcept {
			continue
		}

		var total float64
		for _, e := range edges {
			total += e.strength
		}

		novel := collectNovelTags(tgt, edges, 4)
		quota := int(math.Ceil(total * 3))
		if quota > len(novel) {
			quota = len(novel)
		}
		transferred := append(append([]string(nil), tgt.Tags...), novel[:quota]...)
		tgt.Tags = glyph.Compress(transferred)

		var avgSourceEntropy float64
		for _, e := range edges {
			avgSourceEntropy += e.source.Entropy()
		}
		avgSourceEntropy /= float64(len(edges))
		tgt.AppendEntropy(tgt.Entropy() + avgSourceEntropy*total*0.12)

		if tgt.IsAttractor || hasAttractorAncestor(a, tgt, 4) {
			tgt.MutationRate = math.Min(0.6, tgt.MutationRate+total*0.1)
		}

		if tgt.Thermo != nil {
			if tgt.Thermo.Tau > 2.0 {
				tgt.Priority += 0.8 * total
			}
			if tgt.Thermo.DHDt < -5 {
				tgt.Priority += 0.5 * total
			}
			if tgt.Thermo.Phi > 0.7 && tgt.Thermo.Tau > 1.5 {
				tgt.Priority += 0.6 * total
			}
		}

		tgt.Entrained = true
		tgt.EntrainmentGen = gen
	}

	for _, g := range a.All() {
		g.Priority *= 0.95
		g.MutationRate = glyph.DefaultMutationRate + (g.MutationRate-glyph.DefaultMutationRate)*0.98
	}
}

// collectNovelTags gathers up to cap deduplicated tags from edges' sources
// that tgt does not already carry.
func collectNovelTags(tgt *glyph.Glyph, edges []edge, cap int) []string {
	existing := make(map[string]bool, len(tgt.Tags))
	for _, t := range tgt.Tags {
		existing[t] = true
	}
	var out []string
	for _, e := range edges {
		for _, t := range e.source.Tags {
			if existing[t] {
				continue
			}
			existing[t] = true
			out = append(out, t)
			if len(out) >= cap {
				return out
			}
		}
	}
	return out
}

// hasAttractorAncestor reports whether tgt descends from an attractor
// within the given depth (used for the mutation-rate bump rule).
func hasAttractorAncestor(a Arena, g *glyph.Glyph, depth int) bool {
	if depth <= 0 {
		return false
	}
	for _, pid := range g.Ancestry {
		p, ok := a.Get(pid)
		if !ok {
			continue
		}
		if p.IsAttractor {
			return true
		}
		if hasAttractorAncestor(a, p, depth-1) {
			return true
		}
	}
	return false
}
