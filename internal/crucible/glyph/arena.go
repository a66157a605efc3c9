package glyph

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
)

// Arena owns every live glyph: it is the sole authority permitted to
// mutate glyphs (spec §5) and enforces the tag-signature dedup index and
// the MAX_GLYPHS cap (spec §4.1).
type Arena struct {
	glyphs    map[int64]*Glyph
	sigIndex  map[string]int64 // tag-signature -> glyph id (spec §3, I1)
	nextID    int64
	maxGlyphs int
	rng       *rand.Rand
	log       *slog.Logger
}

// NewArena creates an empty arena with the given MAX_GLYPHS cap.
func NewArena(maxGlyphs int, rng *rand.Rand, log *slog.Logger) *Arena {
	if log == nil {
		log = slog.Default()
	}
	return &Arena{
		glyphs:    make(map[int64]*Glyph),
		sigIndex:  make(map[string]int64),
		maxGlyphs: maxGlyphs,
		rng:       rng,
		log:       log,
	}
}

// Len returns the number of live glyphs.
func (a *Arena) Len() int { return len(a.glyphs) }

// Get returns the glyph for id, or (nil, false) if it has been culled —
// callers must tolerate a dangling ancestry reference (spec §9).
func (a *Arena) Get(id int64) (*Glyph, bool) {
	g, ok := a.glyphs[id]
	return g, ok
}

// All returns a read-only snapshot slice of every live glyph. Callers must
// not mutate the returned glyphs directly (spec §5).
func (a *Arena) All() []*Glyph {
	out := make([]*Glyph, 0, len(a.glyphs))
	for _, g := range a.glyphs {
		out = append(out, g)
	}
	return out
}

// Create assembles a new glyph with the given tags and ancestry, resolving
// tag-signature collisions by retrying up to 20 times (appending a unique
// mutant marker on the final retry), then stores it (spec §4.1).
func (a *Arena) Create(gen int64, tags []string, ancestry []int64) *Glyph {
	if len(ancestry) > MaxAncestry {
		ancestry = ancestry[:MaxAncestry]
	}
	tags = a.resolveSignatureCollision(tags)

	id := a.nextID
	a.nextID++

	g := &Glyph{
		ID:           id,
		Tags:         tags,
		Ancestry:     ancestry,
		Generation:   gen,
		MutationRate: DefaultMutationRate,
	}
	a.store(g)
	return g
}

// resolveSignatureCollision retries ≤20 times against the signature index,
// using a cheap Levenshtein pre-check to log near-duplicate tag-sets (not
// just exact collisions) before falling back to exact-match retry logic
// (spec §4.1).
func (a *Arena) resolveSignatureCollision(tags []string) []string {
	for attempt := 0; attempt < 20; attempt++ {
		sig := TagSignature(tags)
		if _, exists := a.sigIndex[sig]; !exists {
			if near := a.nearestSignature(sig); near != "" {
				a.log.Debug("near-duplicate tag signature admitted", "signature", sig, "nearest", near)
			}
			return tags
		}
		if attempt == 19 {
			tags = append(tags, fmt.Sprintf("μ%d", a.rng.Int63()))
		} else {
			tags = append(tags, fmt.Sprintf("μr%d", attempt))
		}
	}
	return tags
}

// nearestSignature returns the closest existing signature by Levenshtein
// distance when it is within a small edit budget, else "".
func (a *Arena) nearestSignature(sig string) string {
	best := ""
	bestDist := 1 << 30
	for existing := range a.sigIndex {
		d := levenshteinDistance(sig, existing)
		if d < bestDist {
			bestDist = d
			best = existing
		}
	}
	maxLen := len(sig)
	if maxLen == 0 || bestDist > maxLen/4 {
		return ""
	}
	return best
}

// levenshteinDistance computes the edit distance between two strings with a
// single rolling row, rather than pulling in an external package for it.
func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// store registers g in the arena and its signature index, evicting the
// lowest-scoring cullable glyphs if MAX_GLYPHS is exceeded (spec §4.1).
func (a *Arena) store(g *Glyph) {
	sig := TagSignature(g.Tags)
	a.sigIndex[sig] = g.ID
	a.glyphs[g.ID] = g

	if len(a.glyphs) > a.maxGlyphs {
		a.cull()
	}
}

// Delete removes id from the arena and its signature index.
func (a *Arena) Delete(id int64) {
	g, ok := a.glyphs[id]
	if !ok {
		return
	}
	delete(a.sigIndex, TagSignature(g.Tags))
	delete(a.glyphs, id)
}

// cull removes min(excess+5, 25) of the lowest-scoring cullable glyphs
// (spec §4.1). Concepts, attractors, and reflexes are never culled (I5).
func (a *Arena) cull() {
	excess := len(a.glyphs) - a.maxGlyphs
	n := excess + 5
	if n > 25 {
		n = 25
	}

	children := a.childrenCount()

	type scored struct {
		g     *Glyph
		score float64
	}
	candidates := make([]scored, 0, len(a.glyphs))
	for _, g := range a.glyphs {
		if g.IsConcept || g.IsAttractor || g.IsReflex {
			continue
		}
		stagnant := g.StagnantCount
		if stagnant > 60 {
			stagnant = 60
		}
		score := g.Entropy()*0.3 + float64(60-stagnant)*20 + float64(children[g.ID])*500 + g.Stability*1000
		candidates = append(candidates, scored{g, score})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score < candidates[j].score })

	removed := 0
	for _, c := range candidates {
		if removed >= n {
			break
		}
		a.Delete(c.g.ID)
		removed++
	}
	a.log.Info("arena cull", "removed", removed, "remaining", len(a.glyphs))
}

// childrenCount computes, in one pass over every glyph's ancestry edges,
// how many children each glyph id has (spec §4.1).
func (a *Arena) childrenCount() map[int64]int {
	out := make(map[int64]int, len(a.glyphs))
	for _, g := range a.glyphs {
		for _, parent := range g.Ancestry {
			out[parent]++
		}
	}
	return out
}

// Restore inserts a fully-formed glyph (from snapshot deserialization)
// directly into the arena, bypassing signature-collision resolution —
// the snapshot already reflects a consistent prior state (spec §4.15).
func (a *Arena) Restore(g *Glyph) {
	a.store(g)
}

// NextID previews the id the next Create call will assign, without
// consuming it (used by snapshot restore to reconstruct nextID).
func (a *Arena) NextID() int64 { return a.nextID }

// SetNextID is used by snapshot restore to reconstruct the id counter.
func (a *Arena) SetNextID(id int64) { a.nextID = id }
