// Package singularity implements the Singularity Scanner (spec §4.9): an
// exact-hash cull pass followed by a sign-LSH near-clone cull pass over
// an 8-dim per-glyph feature vector.
package singularity

import (
	"fmt"
	"math"

	"github.com/crucible/core/internal/crucible/glyph"
)

// MinPopulation is the population floor below which a scan does not run
// (spec §4.9).
const MinPopulation = 20

const featureDims = 8

// lshBits is the signature width (spec §4.9: "12-bit sign-LSH").
const lshBits = 12

// Arena is the subset of *glyph.Arena the scanner needs.
type Arena interface {
	All() []*glyph.Glyph
	Delete(id int64)
}

// Scanner owns the lazily-initialized LSH projection table (spec §5:
// "lazily initialized on first singularity scan with a fixed LCG seed").
type Scanner struct {
	projections [][featureDims]float64
}

// NewScanner returns a scanner with no projection table yet built.
func NewScanner() *Scanner {
	return &Scanner{}
}

func protected(g *glyph.Glyph) bool {
	return g.IsConcept || g.IsAttractor || g.IsReflex
}

func feature(g *glyph.Glyph, canvasW, canvasH float64) [featureDims]float64 {
	t := g.Thermo
	tau := math.Min(t.Tau, 10) / 10
	return [featureDims]float64{
		t.H / 8000,
		t.DHDt / 50,
		tau,
		t.Phi,
		g.Entropy() / 8000,
		float64(len(g.Tags)) / 10,
		g.X / canvasW,
		g.Y / canvasH,
	}
}

// lcg is the deterministic linear congruential generator used only for
// the LSH projection table (spec §5, §9: "a deterministic LCG only for
// the LSH projection table"). Numerical Recipes constants.
type lcg struct{ state uint64 }

func newLCG(seed int64) *lcg { return &lcg{state: uint64(seed)} }

func (l *lcg) next() float64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return float64(l.state>>40) / float64(1<<24)
}

func (l *lcg) sign() float64 {
	if l.next() < 0.5 {
		return -1
	}
	return 1
}

func (s *Scanner) ensureProjections() {
	if s.projections != nil {
		return
	}
	rng := newLCG(47)
	s.projections = make([][featureDims]float64, lshBits)
	for i := range s.projections {
		var v [featureDims]float64
		for j := range v {
			v[j] = rng.sign()
		}
		s.projections[i] = v
	}
}

func (s *Scanner) signature(f [featureDims]float64) uint16 {
	var sig uint16
	for i, proj := range s.projections {
		var dot float64
		for j := 0; j < featureDims; j++ {
			dot += proj[j] * f[j]
		}
		if dot >= 0 {
			sig |= 1 << uint(i)
		}
	}
	return sig
}

func cosine(a, b [featureDims]float64) float64 {
	var dot, na, nb float64
	for i := 0; i < featureDims; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Scan performs one singularity scan (spec §4.9): runs only when the
// population is at least MinPopulation. Returns the number of glyphs
// culled.
func (s *Scanner) Scan(a Arena, canvasW, canvasH float64, rng interface{ Intn(int) int }) int {
	glyphs := a.All()
	if len(glyphs) < MinPopulation {
		return 0
	}

	withThermo := make([]*glyph.Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.Thermo != nil {
			withThermo = append(withThermo, g)
		}
	}

	culled := make(map[int64]bool)
	culled = s.exactCull(withThermo, canvasW, canvasH, culled)
	culled = s.nearCloneCull(withThermo, canvasW, canvasH, rng, culled)

	for id := range culled {
		a.Delete(id)
	}
	return len(culled)
}

// exactCull buckets glyphs by their feature vector stringified at
// 3-decimal precision; clusters of ≥3 keep only the top-2 by entropy
// (spec §4.9).
func (s *Scanner) exactCull(glyphs []*glyph.Glyph, canvasW, canvasH float64, culled map[int64]bool) map[int64]bool {
	buckets := make(map[string][]*glyph.Glyph)
	for _, g := range glyphs {
		f := feature(g, canvasW, canvasH)
		key := fmt.Sprintf("%.3f|%.3f|%.3f|%.3f|%.3f|%.3f|%.3f|%.3f", f[0], f[1], f[2], f[3], f[4], f[5], f[6], f[7])
		buckets[key] = append(buckets[key], g)
	}
	for _, members := range buckets {
		if len(members) < 3 {
			continue
		}
		keepTop2ByEntropy(members, culled)
	}
	return culled
}

func keepTop2ByEntropy(members []*glyph.Glyph, culled map[int64]bool) {
	survivable := make([]*glyph.Glyph, 0, len(members))
	for _, g := range members {
		if !protected(g) {
			survivable = append(survivable, g)
		}
	}
	if len(survivable) <= 2 {
		return
	}
	// simple selection of the two highest-entropy survivors
	best1, best2 := survivable[0], survivable[1]
	if best2.Entropy() > best1.Entropy() {
		best1, best2 = best2, best1
	}
	for _, g := range survivable[2:] {
		e := g.Entropy()
		switch {
		case e > best1.Entropy():
			best1, best2 = g, best1
		case e > best2.Entropy():
			best2 = g
		}
	}
	for _, g := range survivable {
		if g.ID != best1.ID && g.ID != best2.ID {
			culled[g.ID] = true
		}
	}
}

// nearCloneCull buckets glyphs by LSH signature, samples ≤50 buckets with
// an inner loop capped at 20 members, and culls the lower-entropy member
// of any pair with cosine similarity ≥0.999 (spec §4.9).
func (s *Scanner) nearCloneCull(glyphs []*glyph.Glyph, canvasW, canvasH float64, rng interface{ Intn(int) int }, culled map[int64]bool) map[int64]bool {
	s.ensureProjections()

	type member struct {
		g *glyph.Glyph
		f [featureDims]float64
	}
	buckets := make(map[uint16][]member)
	order := make([]uint16, 0)
	for _, g := range glyphs {
		if culled[g.ID] {
			continue
		}
		f := feature(g, canvasW, canvasH)
		sig := s.signature(f)
		if _, ok := buckets[sig]; !ok {
			order = append(order, sig)
		}
		buckets[sig] = append(buckets[sig], member{g: g, f: f})
	}

	sampleCount := len(order)
	if sampleCount > 50 {
		sampleCount = 50
	}
	for i := 0; i < sampleCount; i++ {
		idx := i
		if rng != nil && len(order) > 0 {
			idx = rng.Intn(len(order))
		}
		sig := order[idx]
		members := buckets[sig]
		limit := len(members)
		if limit > 20 {
			limit = 20
		}
		for a := 0; a < limit; a++ {
			if culled[members[a].g.ID] || protected(members[a].g) {
				continue
			}
			for b := a + 1; b < limit; b++ {
				if culled[members[b].g.ID] || protected(members[b].g) {
					continue
				}
				if cosine(members[a].f, members[b].f) >= 0.999 {
					loser := members[a].g
					if members[b].g.Entropy() < loser.Entropy() {
						loser = members[b].g
					}
					culled[loser.ID] = true
				}
			}
		}
	}
	return culled
}
