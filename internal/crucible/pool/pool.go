// Package pool implements the Pool/Shortcut System (spec §4.10): greedy
// spatial clustering, a 2×2 real-matrix commutator activation test, and
// the permanent gravity edges activated pools emit.
package pool

import (
	"math"
	"math/rand"

	"github.com/crucible/core/internal/crucible/glyph"
)

// MinGen is the generation floor before pool scanning starts (spec §4.10).
const MinGen = 50

// MinPopulation is the population floor with thermo state required (spec §4.10).
const MinPopulation = 15

// Radius is the spatial clustering radius in canvas pixels (spec §4.10).
const Radius = 120.0

// MaxMembers caps a single pool's membership (spec §4.10).
const MaxMembers = 5

// MinMembers is the smallest valid pool (spec §4.10).
const MinMembers = 3

// MaxPoolsPerCycle caps how many pools a single scan may form (spec §4.10).
const MaxPoolsPerCycle = 6

// SampleCap is the maximum number of glyphs considered per scan (spec §4.10).
const SampleCap = 200

// ActivationNorm is the Frobenius-norm floor for commutator activation
// (spec §4.10).
const ActivationNorm = 0.001

// ActivationTrace is the half-ℏ analogue trace floor (spec §6, §4.10).
const ActivationTrace = 0.527

// MaxShortcuts caps the total number of live shortcuts (spec §6).
const MaxShortcuts = 80

// mat2 is a 2×2 real matrix.
type mat2 [2][2]float64

func (m mat2) mul(o mat2) mat2 {
	return mat2{
		{m[0][0]*o[0][0] + m[0][1]*o[1][0], m[0][0]*o[0][1] + m[0][1]*o[1][1]},
		{m[1][0]*o[0][0] + m[1][1]*o[1][0], m[1][0]*o[0][1] + m[1][1]*o[1][1]},
	}
}

func (m mat2) sub(o mat2) mat2 {
	return mat2{
		{m[0][0] - o[0][0], m[0][1] - o[0][1]},
		{m[1][0] - o[1][0], m[1][1] - o[1][1]},
	}
}

func (m mat2) frobenius() float64 {
	var sum float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			sum += m[i][j] * m[i][j]
		}
	}
	return math.Sqrt(sum)
}

func (m mat2) trace() float64 { return m[0][0] + m[1][1] }

// Shortcut is an undirected gravity edge between two glyph ids. It has no
// age-based expiry; ApplyGravity drops it once either endpoint is no longer
// in the arena (spec §4.10).
type Shortcut struct {
	A, B int64
	Pull float64 // ‖[g,g']‖, reused each tick to scale gravity
}

// Pool is one formed spatial cluster of the last scan (spec §3).
type Pool struct {
	Members   []int64
	Activated bool
}

// Arena is the subset of *glyph.Arena pool scanning needs.
type Arena interface {
	All() []*glyph.Glyph
	Get(id int64) (*glyph.Glyph, bool)
}

// commutatorMatrices builds the g and g' matrices from two members'
// thermo state (spec §4.10).
func commutatorMatrices(a, b *glyph.Glyph) (mat2, mat2) {
	ta, tb := a.Thermo, b.Thermo
	g := mat2{
		{ta.Phi * ta.Tau, ta.Phi * tb.Tau},
		{tb.Phi * ta.Tau, tb.Phi * tb.Tau},
	}
	gp := mat2{
		{ta.H/8000 + math.Abs(ta.DHDt)/50, (ta.H - tb.H) / 16000},
		{(tb.H - ta.H) / 16000, tb.H/8000 + math.Abs(tb.DHDt)/50},
	}
	return g, gp
}

// activation returns whether (a, b) satisfy the non-commuting activation
// condition, and the commutator norm used to scale gravity (spec §4.10).
func activation(a, b *glyph.Glyph) (bool, float64) {
	g, gp := commutatorMatrices(a, b)
	commutator := g.mul(gp).sub(gp.mul(g))
	norm := commutator.frobenius()
	trace1 := g.mul(gp).trace()
	trace2 := gp.mul(g).trace()
	maxTrace := math.Max(trace1, trace2)
	return norm > ActivationNorm && maxTrace >= ActivationTrace, norm
}

// Scan performs one pool-detection cycle (spec §4.10): greedy spatial
// clustering with a resonance gate, then a commutator activation test on
// each pool's two highest-entropy members. Returns the formed pools (for
// observability) and any newly activated shortcuts.
func Scan(a Arena, gen int64, resonanceFn func(a, b *glyph.Glyph) float64, phaseThreshold float64, rng *rand.Rand) ([]Pool, []Shortcut) {
	if gen < MinGen {
		return nil, nil
	}
	glyphs := make([]*glyph.Glyph, 0)
	for _, g := range a.All() {
		if g.Thermo != nil {
			glyphs = append(glyphs, g)
		}
	}
	if len(glyphs) < MinPopulation {
		return nil, nil
	}

	if len(glyphs) > SampleCap {
		perm := rng.Perm(len(glyphs))[:SampleCap]
		sampled := make([]*glyph.Glyph, SampleCap)
		for i, idx := range perm {
			sampled[i] = glyphs[idx]
		}
		glyphs = sampled
	}

	used := make(map[int64]bool)
	var pools []Pool
	var shortcuts []Shortcut

	for _, seed := range glyphs {
		if len(pools) >= MaxPoolsPerCycle {
			break
		}
		if used[seed.ID] {
			continue
		}
		members := []*glyph.Glyph{seed}
		used[seed.ID] = true

		for _, cand := range glyphs {
			if len(members) >= MaxMembers {
				break
			}
			if used[cand.ID] {
				continue
			}
			if dist(seed, cand) > Radius {
				continue
			}
			if resonanceFn(seed, cand) <= phaseThreshold {
				continue
			}
			members = append(members, cand)
			used[cand.ID] = true
		}

		if len(members) < MinMembers {
			for _, m := range members {
				delete(used, m.ID)
			}
			continue
		}

		p := Pool{Members: idsOf(members)}
		hi1, hi2 := topTwoByEntropy(members)
		activated, norm := activation(hi1, hi2)
		p.Activated = activated
		pools = append(pools, p)

		if activated {
			for i := 0; i < len(members); i++ {
				for j := i + 1; j < len(members); j++ {
					shortcuts = append(shortcuts, Shortcut{A: members[i].ID, B: members[j].ID, Pull: norm})
				}
			}
		}
	}

	return pools, shortcuts
}

func dist(a, b *glyph.Glyph) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func idsOf(members []*glyph.Glyph) []int64 {
	out := make([]int64, len(members))
	for i, m := range members {
		out[i] = m.ID
	}
	return out
}

func topTwoByEntropy(members []*glyph.Glyph) (*glyph.Glyph, *glyph.Glyph) {
	best1, best2 := members[0], members[0]
	for _, m := range members[1:] {
		if m.Entropy() > best1.Entropy() {
			best2 = best1
			best1 = m
		} else if m.Entropy() > best2.Entropy() {
			best2 = m
		}
	}
	if best1.ID == best2.ID && len(members) > 1 {
		best2 = members[1]
	}
	return best1, best2
}

// ApplyGravity pulls both endpoints of every live shortcut toward each
// other along the connecting line (spec §4.10). Dead endpoints are
// dropped and the surviving shortcut list returned.
func ApplyGravity(a Arena, shortcuts []Shortcut) []Shortcut {
	alive := shortcuts[:0]
	for _, sc := range shortcuts {
		ga, okA := a.Get(sc.A)
		gb, okB := a.Get(sc.B)
		if !okA || !okB {
			continue
		}
		dx, dy := gb.X-ga.X, gb.Y-ga.Y
		d := math.Sqrt(dx*dx + dy*dy)
		if d < 1e-6 {
			alive = append(alive, sc)
			continue
		}
		pull := math.Min(0.3, 0.8*sc.Pull/d)
		ux, uy := dx/d, dy/d
		ga.VX += ux * pull
		ga.VY += uy * pull
		gb.VX -= ux * pull
		gb.VY -= uy * pull
		alive = append(alive, sc)
	}
	if len(alive) > MaxShortcuts {
		// Cap at MaxShortcuts, dropping the newest over the limit (spec §4.10) —
		// the list is chronological, oldest first.
		alive = alive[:MaxShortcuts]
	}
	return alive
}
