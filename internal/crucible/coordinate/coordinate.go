// Package coordinate implements the Coordinator (spec §4.5): mass-weighted
// pair selection over the resonance matrix, collision eligibility filters,
// and offspring synthesis with amplification.
package coordinate

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/crucible/core/internal/crucible/glyph"
	"github.com/crucible/core/internal/crucible/resonance"
	"github.com/crucible/core/internal/crucible/xmath"
)

// Season is the subset of season state the coordinator needs without
// importing the season package directly (avoids an import cycle — season
// modifiers feed entropy/mutation synthesis here, and season itself has no
// reason to know about collisions).
type Season struct {
	Name         string // "exploration", "consolidation", "dormancy", "renaissance"
	EntropyMod   float64
	ThresholdMod float64
}

// Result describes one accepted collision: both parents (by id, already
// updated), the freshly created offspring, and the resonance score that
// produced it (spec §4.5).
type Result struct {
	ParentA, ParentB int64
	Offspring        *glyph.Glyph
	Score            float64
}

// Arena is the subset of *glyph.Arena the coordinator needs.
type Arena interface {
	Get(id int64) (*glyph.Glyph, bool)
	Create(gen int64, tags []string, ancestry []int64) *glyph.Glyph
}

// Mass computes the pair-selection priority weight (spec §4.5):
// (entropy+300)·(1+ln(1+ancestry_depth)), ×1.6 for a cognitive-tagged
// glyph. Exported so other sub-phases sharing the same weighting (the
// pressure event's mass sum) don't re-derive a truncated copy.
func Mass(g *glyph.Glyph) float64 {
	m := (g.Entropy() + 300) * (1 + math.Log(1+float64(len(g.Ancestry))))
	if g.HasCognitiveTag() {
		m *= 1.6
	}
	return m
}

// eligible reports whether a and b may collide (spec §4.5 rejection
// rules): not the same id, neither in the other's ancestry, no open pipe,
// no collision within the last 10 gens.
func eligible(a, b *glyph.Glyph, gen int64, field *resonance.Field) bool {
	if a.ID == b.ID {
		return false
	}
	if a.InAncestryOf(b.ID) || b.InAncestryOf(a.ID) {
		return false
	}
	if field.HasOpenPipe(a.ID, b.ID) {
		return false
	}
	if gen-a.LastCollisionGen < 10 || gen-b.LastCollisionGen < 10 {
		return false
	}
	return true
}

// Collide selects the top-5 eligible pairs from the resonance matrix by
// mass-weighted priority, then performs every accepted collision (spec
// §4.5). Returns one Result per accepted pair, plus counts of how many
// exceeded the phase-transition and critical-point thresholds.
func Collide(
	a Arena,
	field *resonance.Field,
	gen int64,
	season Season,
	phaseThreshold, criticalThreshold float64,
	rng *rand.Rand,
	log *slog.Logger,
) (results []Result, phaseTransitions, criticalEvents int) {
	if log == nil {
		log = slog.Default()
	}

	type candidate struct {
		pair     resonance.Pair
		priority float64
	}
	candidates := make([]candidate, 0, len(field.Matrix))
	for _, p := range field.Matrix {
		ga, okA := a.Get(p.A)
		gb, okB := a.Get(p.B)
		if !okA || !okB || !eligible(ga, gb, gen, field) {
			continue
		}
		priority := p.Score * math.Sqrt((Mass(ga)+Mass(gb))/2000)
		candidates = append(candidates, candidate{pair: p, priority: priority})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].priority > candidates[j].priority })
	if len(candidates) > 5 {
		candidates = candidates[:5]
	}

	for _, c := range candidates {
		ga, _ := a.Get(c.pair.A)
		gb, _ := a.Get(c.pair.B)
		if ga == nil || gb == nil {
			continue
		}

		field.OpenPipe(ga.ID, gb.ID, gen)
		offspring := synthesize(a, ga, gb, gen, season, c.pair.Score, criticalThreshold, rng)
		ga.LastCollisionGen = gen
		gb.LastCollisionGen = gen
		ga.StagnantCount = 0
		gb.StagnantCount = 0

		results = append(results, Result{ParentA: ga.ID, ParentB: gb.ID, Offspring: offspring, Score: c.pair.Score})
		if c.pair.Score > phaseThreshold {
			phaseTransitions++
		}
		if c.pair.Score > criticalThreshold {
			criticalEvents++
		}
		log.Debug("collision", "a", ga.ID, "b", gb.ID, "offspring", offspring.ID, "score", c.pair.Score)
	}
	return results, phaseTransitions, criticalEvents
}

// synthesize builds one offspring glyph from two parents (spec §4.5).
func synthesize(a Arena, pa, pb *glyph.Glyph, gen int64, season Season, score, criticalThreshold float64, rng *rand.Rand) *glyph.Glyph {
	cleanA := glyph.StripAdministrative(pa.Tags)
	cleanB := glyph.StripAdministrative(pb.Tags)

	union := unionTags(cleanA, cleanB)

	effMutRate := (pa.MutationRate + pb.MutationRate) / 2

	if mutant := seasonMutant(cleanA, cleanB, season.Name, rng); mutant != "" {
		union = append(union, mutant)
	}
	if rng.Float64() < effMutRate-0.1 {
		if alt := pickMutant(cleanB, cleanA, "⊕", rng); alt != "" {
			union = append(union, alt)
		}
	}

	crossType := pa.IsConcept != pb.IsConcept
	bothConcept := pa.IsConcept && pb.IsConcept
	if crossType {
		union = append(union, "synthesis")
	}
	if bothConcept {
		union = append(union, "semantic-fusion")
	}

	tags := glyph.Compress(union)
	ancestry := []int64{pa.ID, pb.ID}

	offspring := a.Create(gen, tags, ancestry)
	offspring.IsConcept = bothConcept
	offspring.CrossType = crossType
	offspring.SeasonBorn = season.Name
	offspring.X = (pa.X+pb.X)/2 + (rng.Float64()-0.5)*20
	offspring.Y = (pa.Y+pb.Y)/2 + (rng.Float64()-0.5)*20
	offspring.MutationRate = 0.1 + (effMutRate-0.1)*0.7
	offspring.Priority = (pa.Priority + pb.Priority) * 0.3
	offspring.BirthTime = pa.BirthTime

	base := (pa.Entropy() + pb.Entropy()) / 2
	sample := base
	if score > 0 {
		sample = xmath.Clamp(base*(1+0.28*(score-criticalThreshold)), 0, 10000)
	}
	offspring.AppendEntropy(sample)

	return offspring
}

// unionTags merges two cleaned tag slices, deduplicating.
func unionTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, t := range append(append([]string(nil), a...), b...) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// seasonMutant picks the season-dependent crossover mutant (spec §4.5):
// Exploration uses a→b, Consolidation uses a∧b, else a×b.
func seasonMutant(a, b []string, season string, rng *rand.Rand) string {
	var sep string
	switch season {
	case "exploration":
		sep = "→"
	case "consolidation":
		sep = "∧"
	default:
		sep = "×"
	}
	return pickMutant(a, b, sep, rng)
}

func pickMutant(a, b []string, sep string, rng *rand.Rand) string {
	if len(a) == 0 || len(b) == 0 {
		return ""
	}
	return fmt.Sprintf("%s%s%s", a[rng.Intn(len(a))], sep, b[rng.Intn(len(b))])
}
