// Package influence implements the Influence & Attractor Detector (spec
// §4.8): a cascade/ancestry-indexed influence score per glyph with
// children, and promotion of frequently-cited parents (living or
// proxied) to permanent attractor status.
package influence

import (
	"math"

	"github.com/crucible/core/internal/crucible/glyph"
)

// Threshold is the ancestry-citation count at which a living parent is
// promoted to attractor (spec §6).
const Threshold = 3

// ProxyThreshold is the citation count required to promote a proxy when
// the original progenitor has been culled (spec §6).
const ProxyThreshold = 4

// MaxCascadeDepth bounds the recursive descendant walk (spec §4.8).
const MaxCascadeDepth = 4

// Record is one entry of the engine's conceptualAttractors map (spec §3).
type Record struct {
	Discovered int64
	Episodes   int64
	ProxyFor   int64 // 0 when this is not a proxy
	IsProxy    bool
}

// Arena is the subset of *glyph.Arena the detector needs.
type Arena interface {
	Get(id int64) (*glyph.Glyph, bool)
	All() []*glyph.Glyph
}

// Detector owns the attractor registry (spec §3: "conceptual-attractors
// map (id -> {discovered, episodes, proxyFor?})").
type Detector struct {
	Attractors map[int64]*Record
}

// NewDetector returns an empty detector.
func NewDetector() *Detector {
	return &Detector{Attractors: make(map[int64]*Record)}
}

// childIndex maps parent id -> direct children, built in one pass (spec
// §4.8: "build a single parent->children index in one pass").
func childIndex(glyphs []*glyph.Glyph) map[int64][]*glyph.Glyph {
	out := make(map[int64][]*glyph.Glyph)
	for _, g := range glyphs {
		for _, p := range g.Ancestry {
			out[p] = append(out[p], g)
		}
	}
	return out
}

// cascadeDepth computes the recursive max descendant depth, cut off at
// MaxCascadeDepth. It intentionally shares one `visited` set across
// sibling branches rather than cloning it per branch — a faithfully
// reproduced quirk (spec §9 open question) that under-reports depth when
// ancestry forms a DAG rather than a tree. Kept for behavioral parity;
// see DESIGN.md.
func cascadeDepth(id int64, children map[int64][]*glyph.Glyph, visited map[int64]bool, depth int) int {
	if depth >= MaxCascadeDepth {
		return depth
	}
	best := depth
	for _, child := range children[id] {
		if visited[child.ID] {
			continue
		}
		visited[child.ID] = true
		d := cascadeDepth(child.ID, children, visited, depth+1)
		if d > best {
			best = d
		}
	}
	return best
}

// Run performs one influence cycle (spec §4.8): compute an influence
// score for every glyph with children, tally ancestry citations, and
// promote attractors (living parents at ≥Threshold hits, or the
// highest-influence living descendant as a proxy when a culled
// progenitor has ≥ProxyThreshold hits).
func (d *Detector) Run(a Arena, gen int64) {
	glyphs := a.All()
	children := childIndex(glyphs)

	total := len(glyphs)
	hits := make(map[int64]int)
	for _, g := range glyphs {
		for _, p := range g.Ancestry {
			hits[p]++
		}
	}

	influenceByID := make(map[int64]float64, len(children))
	for pid, kids := range children {
		influenceByID[pid] = score(pid, kids, children, total)
	}

	for pid, count := range hits {
		if count < Threshold {
			continue
		}
		if parent, ok := a.Get(pid); ok {
			parent.IsAttractor = true
			d.promote(pid, gen, false, 0)
			continue
		}
		if count >= ProxyThreshold {
			d.promoteProxy(a, pid, gen, influenceByID)
		}
	}
}

// score computes the influence formula (spec §4.8).
func score(id int64, kids []*glyph.Glyph, children map[int64][]*glyph.Glyph, total int) float64 {
	if total == 0 || len(kids) == 0 {
		return 0
	}

	tagSet := make(map[string]bool)
	var sumH float64
	var crossType int
	for _, k := range kids {
		for _, t := range k.Tags {
			tagSet[t] = true
		}
		if k.Thermo != nil {
			sumH += k.Thermo.H
		}
		if k.CrossType {
			crossType++
		}
	}
	avgH := sumH / float64(len(kids))
	depth := cascadeDepth(id, children, map[int64]bool{id: true}, 0)

	return 0.35*(float64(len(kids))/float64(total)) +
		0.25*(math.Min(float64(len(tagSet)), 10)/10) +
		0.15*(float64(depth)/4) +
		0.15*(avgH/8000) +
		0.10*(float64(crossType)/float64(len(kids)))
}

// promote upgrades id to a permanent attractor, appending an episode on
// rediscovery (spec §4.8, §3 I4: "Attractor status is permanent").
func (d *Detector) promote(id, gen int64, proxy bool, proxyFor int64) {
	if rec, ok := d.Attractors[id]; ok {
		rec.Episodes++
		return
	}
	d.Attractors[id] = &Record{Discovered: gen, Episodes: 1, ProxyFor: proxyFor, IsProxy: proxy}
}

// promoteProxy promotes the highest-influence living descendant of a
// culled progenitor (spec §4.8: "promote the highest-influence living
// descendant as a proxy attractor").
func (d *Detector) promoteProxy(a Arena, originalID, gen int64, influenceByID map[int64]float64) {
	var best *glyph.Glyph
	var bestScore float64
	for _, g := range a.All() {
		if !descendsFrom(a, g, originalID, MaxCascadeDepth) {
			continue
		}
		s := influenceByID[g.ID]
		if best == nil || s > bestScore {
			best, bestScore = g, s
		}
	}
	if best == nil {
		return
	}
	best.IsAttractor = true
	d.promote(best.ID, gen, true, originalID)
}

// descendsFrom reports whether g traces back to ancestorID within depth.
func descendsFrom(a Arena, g *glyph.Glyph, ancestorID int64, depth int) bool {
	if depth <= 0 {
		return false
	}
	for _, pid := range g.Ancestry {
		if pid == ancestorID {
			return true
		}
		if p, ok := a.Get(pid); ok && descendsFrom(a, p, ancestorID, depth-1) {
			return true
		}
	}
	return false
}
