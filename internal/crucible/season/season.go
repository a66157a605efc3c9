// Package season implements the Seasonal Scheduler (spec §4.11): the
// four-phase engine-wide cycle and its per-phase entropy/resonance
// modifiers, dormancy and renaissance sweeps.
package season

import (
	"math/rand"

	"github.com/crucible/core/internal/crucible/glyph"
	"github.com/crucible/core/internal/crucible/thermo"
)

// Name identifies one of the four cycling phases.
type Name string

const (
	Exploration   Name = "exploration"
	Consolidation Name = "consolidation"
	Dormancy      Name = "dormancy"
	Renaissance   Name = "renaissance"
)

// order is the fixed cycle (spec §4.11).
var order = []Name{Exploration, Consolidation, Dormancy, Renaissance}

// Modifier is one season's effect on entropy scale, resonance-threshold
// delta, and shockwave color (spec §6).
type Modifier struct {
	EntropyMod   float64
	ThresholdMod float64
	Color        string
}

// Modifiers is the fixed per-season modifier table (spec §6).
var Modifiers = map[Name]Modifier{
	Exploration:   {EntropyMod: 1.2, ThresholdMod: -0.05, Color: "#16C0FF"},
	Consolidation: {EntropyMod: 0.8, ThresholdMod: 0.03, Color: "#00FF96"},
	Dormancy:      {EntropyMod: 0.6, ThresholdMod: 0.06, Color: "#8F7FFF"},
	Renaissance:   {EntropyMod: 1.5, ThresholdMod: -0.08, Color: "#FF6B6B"},
}

// DormantStagnantThreshold and DormantEntropyCeiling gate dormancy tag
// assignment (spec §4.11; flagged in spec §9 as possibly too low to
// trigger often — preserved for behavioral parity, see DESIGN.md).
const (
	DormantStagnantThreshold = 80
	DormantEntropyCeiling    = 2000.0
	RenaissanceProbability   = 0.30
)

// DefaultDuration is SEASON_DURATION (spec §6).
const DefaultDuration = 200

// Scheduler owns the current season and its tick counter (spec §3).
type Scheduler struct {
	Current Name
	Counter int64
	Duration int64
}

// NewScheduler returns a scheduler starting at Exploration (spec §8,
// scenario 1: "reset() seeds ... season=Exploration, seasonCounter=0").
func NewScheduler(duration int64) *Scheduler {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Scheduler{Current: Exploration, Counter: 0, Duration: duration}
}

// Arena is the subset of *glyph.Arena the scheduler needs for its sweeps.
type Arena interface {
	All() []*glyph.Glyph
}

// Advance ticks the season counter and, on a phase boundary, transitions
// to the next season, running the dormancy or renaissance sweep and
// reporting whether a transition (and its shockwave) occurred (spec
// §4.11).
func (s *Scheduler) Advance(a Arena, gen int64, rng *rand.Rand) (transitioned bool, newSeason Name, color string) {
	s.Counter++
	if s.Counter < s.Duration {
		return false, s.Current, ""
	}

	s.Counter = 0
	s.Current = next(s.Current)

	switch s.Current {
	case Dormancy:
		sweepDormancy(a)
	case Renaissance:
		sweepRenaissance(a, gen, Modifiers[Renaissance].EntropyMod, rng)
	}

	return true, s.Current, Modifiers[s.Current].Color
}

func next(n Name) Name {
	for i, v := range order {
		if v == n {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// sweepDormancy tags qualifying glyphs as dormant on entering Dormancy
// (spec §4.11).
func sweepDormancy(a Arena) {
	for _, g := range a.All() {
		if g.IsConcept || g.IsAttractor {
			continue
		}
		if g.StagnantCount > DormantStagnantThreshold && g.Entropy() < DormantEntropyCeiling {
			g.Tags = append(g.Tags, "dormant")
		}
	}
}

// sweepRenaissance gives each dormant glyph a chance to wake on entering
// Renaissance (spec §4.11). A waking glyph resamples entropy through the
// real calculator rather than repeating its last sample.
func sweepRenaissance(a Arena, gen int64, seasonMod float64, rng *rand.Rand) {
	for _, g := range a.All() {
		if !hasTag(g, "dormant") {
			continue
		}
		if rng.Float64() >= RenaissanceProbability {
			continue
		}
		g.Tags = removeTag(g.Tags, "dormant")
		g.Tags = append(g.Tags, "renaissance")
		g.StagnantCount = 0
		g.AppendEntropy(thermo.CalcEntropy(g, gen, seasonMod, rng))
	}
}

func hasTag(g *glyph.Glyph, tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func removeTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}
