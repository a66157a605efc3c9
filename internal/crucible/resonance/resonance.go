// Package resonance implements the Resonance Field (spec §4.4): the
// pairwise compatibility score between two glyphs, and the periodic
// rebuild that keeps a capped top-scoring matrix fed from both a spatial
// grid pass and a stochastic long-range sample.
package resonance

import (
	"container/heap"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/crucible/core/internal/crucible/glyph"
	"github.com/crucible/core/internal/crucible/xmath"
)

// GridCellSize is the spatial hash bucket size used for the local pass
// (spec §4.4: "120-px square grid").
const GridCellSize = 120.0

// SampleSize is the cap on stochastic long-range pair samples (spec §6).
const SampleSize = 3000

// MatrixCap is the maximum number of retained pairs (spec §6).
const MatrixCap = 200

// Pair is one scored edge of the resonance matrix (spec §3: "resonance
// matrix (bounded)").
type Pair struct {
	A, B  int64
	Score float64
}

// Field owns the bounded resonance matrix and the open-pipe refractory
// map (spec §3, §4.5).
type Field struct {
	Matrix    []Pair
	openPipes map[pairKey]int64 // pair -> expiry gen (spec §4.4, §4.5)
	log       *slog.Logger
}

// pairHeap is a bounded min-heap over Pair.Score, used by Rebuild to keep
// only the top MatrixCap-scoring pairs without sorting the full candidate
// set (same shape as the teacher's SequenceQueue priority queue, inverted
// to a min-heap since we evict the lowest score on overflow).
type pairHeap []Pair

func (h pairHeap) Len() int            { return len(h) }
func (h pairHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h pairHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pairHeap) Push(x interface{}) { *h = append(*h, x.(Pair)) }
func (h *pairHeap) Pop() interface{} {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}

type pairKey struct{ a, b int64 }

func newPairKey(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// NewField returns an empty resonance field.
func NewField(log *slog.Logger) *Field {
	if log == nil {
		log = slog.Default()
	}
	return &Field{openPipes: make(map[pairKey]int64), log: log}
}

// HasOpenPipe reports whether a and b are currently refractory (spec §4.5:
// "Reject pair if: open pipe exists in either direction").
func (f *Field) HasOpenPipe(a, b int64) bool {
	_, ok := f.openPipes[newPairKey(a, b)]
	return ok
}

// OpenPipe records a's and b's refractory window, expiring at gen+5 (spec
// §4.5).
func (f *Field) OpenPipe(a, b int64, gen int64) {
	f.openPipes[newPairKey(a, b)] = gen + 5
}

// ExpirePipes drops every open pipe whose expiry has passed (spec §4.4:
// "Expire openPipes whose expiry < current gen").
func (f *Field) ExpirePipes(gen int64) {
	for k, expiry := range f.openPipes {
		if expiry < gen {
			delete(f.openPipes, k)
		}
	}
}

// Score computes resonanceWith(a, b) (spec §4.4). Both glyphs must carry a
// thermodynamic state; callers filter beforehand (glyphs without thermo
// never enter the matrix).
func Score(a, b *glyph.Glyph) float64 {
	ta, tb := a.Thermo, b.Thermo
	if ta == nil || tb == nil {
		return 0
	}

	rhoH := 1.0 / (1.0 + math.Abs(ta.H-tb.H)/600.0)
	rhoV := xmath.Clamp01(-(ta.DHDt * tb.DHDt) / 5000.0)
	rhoPhi := math.Cos(math.Pi * math.Abs(ta.Phi-tb.Phi))
	maxTau, minTau := ta.Tau, tb.Tau
	if minTau > maxTau {
		minTau, maxTau = maxTau, minTau
	}
	rhoTau := xmath.SafeDiv(minTau, maxTau)

	base := 0.35*rhoH + 0.30*rhoV + 0.20*rhoPhi + 0.15*rhoTau

	switch {
	case a.IsConcept && b.IsConcept:
		base *= 1.15
	case a.IsConcept != b.IsConcept:
		base *= 1.08
	}
	if a.IsAttractor || b.IsAttractor {
		base *= 1.12
	}
	if a.IsReflex != b.IsReflex {
		base *= 1.05
	}

	return xmath.Clamp01(base)
}

// Rebuild recomputes the matrix from scratch (spec §4.4): a spatial-grid
// local pass over every 3×3 neighborhood, then a stochastic long-range
// sample, filtered at threshold and capped at MatrixCap.
func (f *Field) Rebuild(glyphs []*glyph.Glyph, threshold float64, rng *rand.Rand) {
	f.Matrix = f.Matrix[:0]

	withThermo := make([]*glyph.Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.Thermo != nil {
			withThermo = append(withThermo, g)
		}
	}
	n := len(withThermo)
	if n < 2 {
		return
	}

	seen := make(map[pairKey]bool)
	top := &pairHeap{}
	heap.Init(top)

	consider := func(a, b *glyph.Glyph) {
		key := newPairKey(a.ID, b.ID)
		if seen[key] {
			return
		}
		seen[key] = true
		score := Score(a, b)
		if score <= threshold {
			return
		}
		if top.Len() < MatrixCap {
			heap.Push(top, Pair{A: a.ID, B: b.ID, Score: score})
			return
		}
		if score > (*top)[0].Score {
			heap.Pop(top)
			heap.Push(top, Pair{A: a.ID, B: b.ID, Score: score})
		}
	}

	// Phase 1: spatial grid, 3×3 neighborhood (spec §4.4).
	grid := make(map[[2]int][]*glyph.Glyph, n)
	cellOf := func(g *glyph.Glyph) [2]int {
		return [2]int{int(math.Floor(g.X / GridCellSize)), int(math.Floor(g.Y / GridCellSize))}
	}
	for _, g := range withThermo {
		c := cellOf(g)
		grid[c] = append(grid[c], g)
	}
	for _, g := range withThermo {
		c := cellOf(g)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, other := range grid[[2]int{c[0] + dx, c[1] + dy}] {
					if other.ID == g.ID {
						continue
					}
					consider(g, other)
				}
			}
		}
	}

	// Phase 2: stochastic long-range sampling (spec §4.4).
	maxPairs := n * (n - 1) / 2
	samples := SampleSize
	if maxPairs < samples {
		samples = maxPairs
	}
	for i := 0; i < samples; i++ {
		a := withThermo[rng.Intn(n)]
		b := withThermo[rng.Intn(n)]
		if a.ID == b.ID {
			continue
		}
		consider(a, b)
	}

	result := make([]Pair, top.Len())
	copy(result, *top)
	sort.Slice(result, func(i, j int) bool { return result[i].Score > result[j].Score })
	f.Matrix = result

	f.log.Debug("resonance field rebuilt", "pairs", len(f.Matrix))
}

// MeanScore returns ψ = mean(matrix.scores), the order parameter (spec
// §4.13, P8). Returns 0 for an empty matrix.
func (f *Field) MeanScore() float64 {
	if len(f.Matrix) == 0 {
		return 0
	}
	var sum float64
	for _, p := range f.Matrix {
		sum += p.Score
	}
	return sum / float64(len(f.Matrix))
}
