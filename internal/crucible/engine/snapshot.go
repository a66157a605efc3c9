package engine

import (
	"github.com/crucible/core/internal/crucible/glyph"
	"github.com/crucible/core/internal/crucible/helix"
	"github.com/crucible/core/internal/crucible/influence"
	"github.com/crucible/core/internal/crucible/resonance"
	"github.com/crucible/core/internal/crucible/season"
	"github.com/crucible/core/internal/crucible/singularity"
	"github.com/crucible/core/internal/crucible/thermo"
	"github.com/crucible/core/internal/crucible/xerrors"
	"github.com/crucible/core/internal/crucible/xmath"
)

// GlyphSnapshot is the serialized form of one glyph (spec §4.15).
type GlyphSnapshot struct {
	ID               int64
	Tags             []string
	Ancestry         []int64
	Generation       int64
	EntropyHistory   []float64 // last 20 samples (spec §4.15)
	X, Y, VX, VY     float64
	LastCollisionGen int64
	IsConcept        bool
	IsReflex         bool
	ReflexType       glyph.ReflexType
	IsAttractor      bool
	CrossType        bool
	SeasonBorn       string
	StagnantCount    int
	InfluenceScore   float64
	Priority         float64
	MutationRate     float64
	Stability        float64
	ConceptData      *glyph.ConceptData
}

// AttractorSnapshot is one serialized conceptualAttractors entry (spec §4.15).
type AttractorSnapshot struct {
	ID         int64
	Discovered int64
	Episodes   int64
	ProxyFor   int64
	IsProxy    bool
}

// HelixSnapshot is the serialized helix block, with histories capped to
// the last 100 samples (spec §4.15).
type HelixSnapshot struct {
	Alpha, Beta, Phi, Omega, Dt               float64
	Gamma0, Epsilon, Lambda, Eta, A0          float64
	T, R, RPrev, A, Theta, ThetaPrev, Z, HRV, R2 float64
	RHistory, AHistory, ThetaHistory          []float64
}

// Snapshot is the full engine snapshot (spec §4.15).
type Snapshot struct {
	Glyphs []GlyphSnapshot

	NextID           int64
	Generation       int64
	CollisionLog     []string // last 50
	EventLog         []string // newest 30, newest first
	ConceptCount     int64
	EvolvedTags      []string // last 100
	TagSignatures    []string // last 500

	Season        season.Name
	SeasonCounter int64
	Attractors    []AttractorSnapshot

	Helix HelixSnapshot
}

func lastN[T any](s []T, n int) []T {
	if len(s) <= n {
		return append([]T(nil), s...)
	}
	return append([]T(nil), s[len(s)-n:]...)
}

// Serialize captures the engine's stable snapshot schema (spec §4.15).
func (e *Engine) Serialize() Snapshot {
	glyphs := e.arena.All()
	gs := make([]GlyphSnapshot, 0, len(glyphs))
	var tagSigs []string
	for _, g := range glyphs {
		gs = append(gs, GlyphSnapshot{
			ID:               g.ID,
			Tags:             append([]string(nil), g.Tags...),
			Ancestry:         append([]int64(nil), g.Ancestry...),
			Generation:       g.Generation,
			EntropyHistory:   lastN(g.EntropyHistory, 20),
			X:                g.X,
			Y:                g.Y,
			VX:               g.VX,
			VY:               g.VY,
			LastCollisionGen: g.LastCollisionGen,
			IsConcept:        g.IsConcept,
			IsReflex:         g.IsReflex,
			ReflexType:       g.ReflexType,
			IsAttractor:      g.IsAttractor,
			CrossType:        g.CrossType,
			SeasonBorn:       g.SeasonBorn,
			StagnantCount:    g.StagnantCount,
			InfluenceScore:   g.InfluenceScore,
			Priority:         g.Priority,
			MutationRate:     g.MutationRate,
			Stability:        g.Stability,
			ConceptData:      g.ConceptData,
		})
		tagSigs = append(tagSigs, glyph.TagSignature(g.Tags))
	}

	attractors := make([]AttractorSnapshot, 0, len(e.detector.Attractors))
	for id, rec := range e.detector.Attractors {
		attractors = append(attractors, AttractorSnapshot{
			ID: id, Discovered: rec.Discovered, Episodes: rec.Episodes,
			ProxyFor: rec.ProxyFor, IsProxy: rec.IsProxy,
		})
	}

	// The event log is kept newest-first, so the most recent entries are its head.
	eventLog := e.eventLog
	if len(eventLog) > 30 {
		eventLog = eventLog[:30]
	}

	h := e.helixSt
	return Snapshot{
		Glyphs:        gs,
		NextID:        e.arena.NextID(),
		Generation:    e.generation,
		CollisionLog:  lastN(e.collisionLog, 50),
		EventLog:      append([]string(nil), eventLog...),
		ConceptCount:  e.conceptCount,
		EvolvedTags:   lastN(e.evolvedTags, 100),
		TagSignatures: lastN(tagSigs, 500),
		Season:        e.scheduler.Current,
		SeasonCounter: e.scheduler.Counter,
		Attractors:    attractors,
		Helix: HelixSnapshot{
			Alpha: h.Alpha, Beta: h.Beta, Phi: h.Phi, Omega: h.Omega, Dt: h.Dt,
			Gamma0: h.Gamma0, Epsilon: h.Epsilon, Lambda: h.Lambda, Eta: h.Eta, A0: h.A0,
			T: h.T, R: h.R, RPrev: h.RPrev, A: h.A, Theta: h.Theta, ThetaPrev: h.ThetaPrev,
			Z: h.Z, HRV: h.HRV, R2: h.R2,
			RHistory: lastN(h.RHistory, 100), AHistory: lastN(h.AHistory, 100), ThetaHistory: lastN(h.ThetaHistory, 100),
		},
	}
}

// Deserialize restores the engine from snap (spec §4.15). On any
// malformed field the engine is left untouched and an error is returned
// (spec §7: "Engine remains in the pre-call state; no partial restore").
func (e *Engine) Deserialize(snap Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}

	arena := glyph.NewArena(e.cfg.MaxGlyphs, e.rng, e.log)
	for _, gs := range snap.Glyphs {
		g := &glyph.Glyph{
			ID: gs.ID, Tags: append([]string(nil), gs.Tags...), Ancestry: append([]int64(nil), gs.Ancestry...),
			Generation: gs.Generation, EntropyHistory: append([]float64(nil), gs.EntropyHistory...),
			X: gs.X, Y: gs.Y, VX: gs.VX, VY: gs.VY,
			LastCollisionGen: gs.LastCollisionGen,
			IsConcept: gs.IsConcept, IsReflex: gs.IsReflex, ReflexType: gs.ReflexType, IsAttractor: gs.IsAttractor,
			CrossType: gs.CrossType,
			SeasonBorn: gs.SeasonBorn, StagnantCount: gs.StagnantCount,
			InfluenceScore: gs.InfluenceScore, Priority: gs.Priority, MutationRate: gs.MutationRate, Stability: gs.Stability,
			ConceptData: gs.ConceptData,
		}
		arena.Restore(g)
	}
	arena.SetNextID(snap.NextID)

	detector := influence.NewDetector()
	for _, as := range snap.Attractors {
		detector.Attractors[as.ID] = &influence.Record{Discovered: as.Discovered, Episodes: as.Episodes, ProxyFor: as.ProxyFor, IsProxy: as.IsProxy}
	}

	h := helix.New()
	hs := snap.Helix
	h.Alpha, h.Beta, h.Phi, h.Omega, h.Dt = hs.Alpha, hs.Beta, hs.Phi, hs.Omega, hs.Dt
	h.Gamma0, h.Epsilon, h.Lambda, h.Eta, h.A0 = hs.Gamma0, hs.Epsilon, hs.Lambda, hs.Eta, hs.A0
	h.T, h.R, h.RPrev, h.A, h.Theta, h.ThetaPrev, h.Z, h.HRV, h.R2 = hs.T, hs.R, hs.RPrev, hs.A, hs.Theta, hs.ThetaPrev, hs.Z, hs.HRV, hs.R2
	h.RHistory = append([]float64(nil), hs.RHistory...)
	h.AHistory = append([]float64(nil), hs.AHistory...)
	h.ThetaHistory = append([]float64(nil), hs.ThetaHistory...)

	e.arena = arena
	e.detector = detector
	e.helixSt = h
	e.generation = snap.Generation
	e.collisionLog = append([]string(nil), snap.CollisionLog...)
	e.eventLog = append([]string(nil), snap.EventLog...)
	e.conceptCount = snap.ConceptCount
	e.evolvedTags = append([]string(nil), snap.EvolvedTags...)
	e.scheduler = &season.Scheduler{Current: snap.Season, Counter: snap.SeasonCounter, Duration: e.cfg.SeasonDuration}
	e.field = resonance.NewField(e.log)
	e.scanner = singularity.NewScanner() // LSH table is process-local, not part of the stable schema

	// Replay a thermo and resonance pass to reconstitute derived state
	// (spec §4.15: "On restore: replay a thermo and resonance pass").
	seasonMod := season.Modifiers[e.scheduler.Current].EntropyMod
	for _, g := range e.arena.All() {
		if len(g.EntropyHistory) > 0 {
			thermo.UpdateThermodynamics(g, e.generation, seasonMod, e.rng)
		}
	}
	e.field.Rebuild(e.arena.All(), e.resonanceThreshold, e.rng)

	return nil
}

func validate(snap Snapshot) error {
	seen := make(map[int64]bool, len(snap.Glyphs))
	for _, gs := range snap.Glyphs {
		if seen[gs.ID] {
			return xerrors.InvalidSnapshot("glyphs[].id", "duplicate id")
		}
		seen[gs.ID] = true
		if len(gs.Ancestry) > glyph.MaxAncestry {
			return xerrors.InvalidSnapshot("glyphs[].ancestry", "exceeds max ancestry")
		}
		if !xmath.Finite(gs.X) || !xmath.Finite(gs.Y) || !xmath.Finite(gs.VX) || !xmath.Finite(gs.VY) {
			return xerrors.InvalidSnapshot("glyphs[].position", "non-finite kinematic field")
		}
		for _, e := range gs.EntropyHistory {
			if !xmath.Finite(e) {
				return xerrors.InvalidSnapshot("glyphs[].entropyHistory", "non-finite sample")
			}
		}
	}
	if snap.NextID < 0 {
		return xerrors.InvalidSnapshot("nextId", "negative")
	}
	if !xmath.Finite(snap.Helix.R) || !xmath.Finite(snap.Helix.A) {
		return xerrors.InvalidSnapshot("helix", "non-finite scalar")
	}
	return nil
}
