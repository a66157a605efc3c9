// Package reflex implements the Reflex Spawner (spec §4.7): typed
// response glyphs triggered by stagnation, low entropy, or an unresolved
// "unknown" tag.
package reflex

import (
	"fmt"
	"math/rand"

	"github.com/crucible/core/internal/crucible/glyph"
)

// MaxPerCycle caps how many reflexes a single cycle may spawn (spec §4.7).
const MaxPerCycle = 3

// StagnantThreshold is the tick count past which a glyph is stagnant
// (spec §4.7).
const StagnantThreshold = 40

// Arena is the subset of *glyph.Arena the reflex spawner needs.
type Arena interface {
	All() []*glyph.Glyph
	Create(gen int64, tags []string, ancestry []int64) *glyph.Glyph
}

// Run performs one reflex cycle (spec §4.7): at most MaxPerCycle
// non-reflex, non-concept glyphs meeting a trigger condition each spawn a
// typed reflex glyph rooted at themselves.
func Run(a Arena, gen int64, season string, rng *rand.Rand) []*glyph.Glyph {
	candidates := a.All()
	mean := meanEntropy(candidates)

	var spawned []*glyph.Glyph
	for _, g := range candidates {
		if len(spawned) >= MaxPerCycle {
			break
		}
		if g.IsReflex || g.IsConcept {
			continue
		}
		if !triggers(g, mean) {
			continue
		}

		rt := classify(g, mean, season)
		tags := recipe(g, rt, candidates, rng)

		child := a.Create(gen, tags, []int64{g.ID})
		child.IsReflex = true
		child.ReflexType = rt
		child.SeasonBorn = season
		child.X, child.Y = g.X, g.Y
		spawned = append(spawned, child)
	}
	return spawned
}

func meanEntropy(glyphs []*glyph.Glyph) float64 {
	if len(glyphs) == 0 {
		return 0
	}
	var sum float64
	for _, g := range glyphs {
		sum += g.Entropy()
	}
	return sum / float64(len(glyphs))
}

func hasTag(g *glyph.Glyph, tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// triggers reports whether g qualifies for a reflex this cycle (spec
// §4.7): stagnant, low-entropy relative to the population mean, or still
// carrying the unknown tag.
func triggers(g *glyph.Glyph, mean float64) bool {
	if g.StagnantCount > StagnantThreshold {
		return true
	}
	if mean > 0 && g.Entropy() < 0.6*mean {
		return true
	}
	return hasTag(g, "unknown")
}

// classify picks the reflex type (spec §4.7).
func classify(g *glyph.Glyph, mean float64, season string) glyph.ReflexType {
	ratio := 1.0
	if mean > 0 {
		ratio = g.Entropy() / mean
	}
	switch {
	case ratio < 0.5 && len(g.Tags) < 3:
		return glyph.ReflexDefensive
	case len(g.Tags) > 4 && ratio > 1.2:
		return glyph.ReflexCollaborative
	case g.IsAttractor:
		return glyph.ReflexConsolidative
	case season == "exploration":
		return glyph.ReflexExploratory
	default:
		return glyph.ReflexMetamorphic
	}
}

// recipe builds the tag set for a freshly spawned reflex glyph (spec
// §4.7). Every recipe carries the "reflex" marker.
func recipe(g *glyph.Glyph, rt glyph.ReflexType, pool []*glyph.Glyph, rng *rand.Rand) []string {
	base := []string{"reflex"}
	switch rt {
	case glyph.ReflexDefensive:
		return append(base, "preserve", "stable")
	case glyph.ReflexExploratory:
		return append(base, "seek", "novel", fmt.Sprintf("r%d", rng.Int63()))
	case glyph.ReflexCollaborative:
		distant := leastOverlapping(g, pool, rng)
		if distant == nil {
			return append(base, "bridge")
		}
		tags := append(base, firstN(distant.Tags, 2)...)
		return append(tags, "bridge")
	case glyph.ReflexConsolidative:
		return append(base, "strengthen", "anchor")
	case glyph.ReflexMetamorphic:
		a, b := "a", "b"
		if len(g.Tags) > 0 {
			a = g.Tags[0]
		}
		if len(g.Tags) > 1 {
			b = g.Tags[1]
		}
		return []string{fmt.Sprintf("%s⇌%s", a, b), "reflex", "transform", "evolve"}
	default:
		return base
	}
}

// leastOverlapping samples up to 30 glyphs and returns the one sharing the
// fewest tags with g (spec §4.7: "distant is chosen by lowest tag-overlap
// from a 30-glyph sample").
func leastOverlapping(g *glyph.Glyph, pool []*glyph.Glyph, rng *rand.Rand) *glyph.Glyph {
	sampleSize := 30
	if sampleSize > len(pool) {
		sampleSize = len(pool)
	}
	if sampleSize == 0 {
		return nil
	}
	perm := rng.Perm(len(pool))[:sampleSize]

	var best *glyph.Glyph
	bestOverlap := 1 << 30
	own := make(map[string]bool, len(g.Tags))
	for _, t := range g.Tags {
		own[t] = true
	}
	for _, idx := range perm {
		candidate := pool[idx]
		if candidate.ID == g.ID {
			continue
		}
		overlap := 0
		for _, t := range candidate.Tags {
			if own[t] {
				overlap++
			}
		}
		if overlap < bestOverlap {
			bestOverlap = overlap
			best = candidate
		}
	}
	return best
}

func firstN(s []string, n int) []string {
	if len(s) < n {
		n = len(s)
	}
	return append([]string(nil), s[:n]...)
}
