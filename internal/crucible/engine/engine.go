// Package engine implements the Step Orchestrator (spec §4.14), the
// Public Interface (spec §6), and Snapshot I/O (spec §4.15). It is the
// only package callers outside internal/crucible need to import.
package engine

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/crucible/core/internal/crucible/config"
	"github.com/crucible/core/internal/crucible/coordinate"
	"github.com/crucible/core/internal/crucible/entrain"
	"github.com/crucible/core/internal/crucible/glyph"
	"github.com/crucible/core/internal/crucible/helix"
	"github.com/crucible/core/internal/crucible/influence"
	"github.com/crucible/core/internal/crucible/observe"
	"github.com/crucible/core/internal/crucible/pool"
	"github.com/crucible/core/internal/crucible/reflex"
	"github.com/crucible/core/internal/crucible/resonance"
	"github.com/crucible/core/internal/crucible/season"
	"github.com/crucible/core/internal/crucible/singularity"
	"github.com/crucible/core/internal/crucible/thermo"
	"github.com/crucible/core/internal/crucible/xmath"
)

var baseTags = []string{"wild", "ghost", "beacon", "fractal", "mirror", "flex", "resonant", "unknown", "stable", "phase", "origin"}

var seasonalTags = map[season.Name][]string{
	season.Exploration:   {"seeking", "uncharted", "drift"},
	season.Consolidation: {"anchor", "binding", "settle"},
	season.Dormancy:      {"quiet", "hibernate", "still"},
	season.Renaissance:   {"rebirth", "bloom", "awaken"},
}

// ConceptInput is the payload passed to InjectConcept (spec §6).
type ConceptInput struct {
	ID         int64
	Technical  string
	Plain      string
	Confidence float64
	Keywords   []string
}

// Shockwave is a transient expanding ring (spec §3, glossary).
type Shockwave struct {
	X, Y   float64
	Color  string
	Radius float64
	Active bool
}

// Stats is the aggregate result of GetStats (spec §6).
type Stats struct {
	Generation       int64
	Population       int
	ConceptCount     int64
	Season           season.Name
	SeasonCounter    int64
	Observables      observe.Snapshot
	HelixStable      bool
	HelixStableFor   int64
	AttractorCount   int
	ActiveShortcuts  int
}

// Engine is process-wide simulation state (spec §3). The sole public
// contract is the method set below — no field is exported because no
// external caller may mutate a glyph outside a step sub-phase (spec §5).
type Engine struct {
	cfg *config.Config
	rng *rand.Rand
	log *slog.Logger

	arena     *glyph.Arena
	field     *resonance.Field
	scheduler *season.Scheduler
	helixSt   *helix.State
	scanner   *singularity.Scanner
	detector  *influence.Detector

	pools     []pool.Pool
	shortcuts []pool.Shortcut

	generation       int64
	conceptCount     int64
	phaseTransitions int64
	criticalEvents   int64

	resonanceThreshold float64 // written by helix modulation at end-of-tick, read by coordinate next tick (spec §9)

	collisionLog []string
	eventLog     []string
	evolvedTags  []string

	observables observe.Snapshot
	shockwave   *Shockwave

	canvasW, canvasH float64
}

// New returns an empty, unseeded engine (spec §6: "new() -> Empty engine").
func New(cfg *config.Config, seed int64, log *slog.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
		log:      log,
		canvasW:  cfg.CanvasWidth,
		canvasH:  cfg.CanvasHeight,
		scanner:  singularity.NewScanner(),
		detector: influence.NewDetector(),
	}
	e.arena = glyph.NewArena(cfg.MaxGlyphs, e.rng, log)
	e.field = resonance.NewField(log)
	e.scheduler = season.NewScheduler(cfg.SeasonDuration)
	e.helixSt = helix.New()
	e.resonanceThreshold = cfg.ResonanceThresholdBase
	return e
}

// Reset clears all state and seeds 8 random glyphs (spec §6, §8 scenario 1).
func (e *Engine) Reset() {
	e.arena = glyph.NewArena(e.cfg.MaxGlyphs, e.rng, e.log)
	e.field = resonance.NewField(e.log)
	e.scheduler = season.NewScheduler(e.cfg.SeasonDuration)
	e.helixSt = helix.New()
	e.scanner = singularity.NewScanner()
	e.detector = influence.NewDetector()
	e.pools = nil
	e.shortcuts = nil
	e.generation = 0
	e.conceptCount = 0
	e.phaseTransitions = 0
	e.criticalEvents = 0
	e.resonanceThreshold = e.cfg.ResonanceThresholdBase
	e.collisionLog = nil
	e.eventLog = nil
	e.evolvedTags = nil
	e.observables = observe.Snapshot{}
	e.shockwave = nil

	for i := 0; i < 8; i++ {
		e.birthGlyph()
	}
	e.logEvent("reset: seeded 8 glyphs")
}

// vocabulary returns the size of the currently reachable tag alphabet
// (base tags plus the current season's seasonal tags), spec §8 scenario 1.
func (e *Engine) vocabulary() int {
	return len(baseTags) + len(seasonalTags[e.scheduler.Current])
}

func (e *Engine) birthGlyph() *glyph.Glyph {
	pool := append(append([]string(nil), baseTags...), seasonalTags[e.scheduler.Current]...)
	k := 1 + e.rng.Intn(3)
	if k > len(pool) {
		k = len(pool)
	}
	perm := e.rng.Perm(len(pool))[:k]
	tags := make([]string, k)
	for i, idx := range perm {
		tags[i] = pool[idx]
	}
	g := e.arena.Create(e.generation, tags, nil)
	g.SeasonBorn = string(e.scheduler.Current)
	g.X = e.rng.Float64() * e.canvasW
	g.Y = e.rng.Float64() * e.canvasH
	g.VX = (e.rng.Float64() - 0.5) * 2
	g.VY = (e.rng.Float64() - 0.5) * 2
	g.MutationRate = glyph.DefaultMutationRate
	return g
}

// InjectConcept spawns one concept glyph on a golden-angle spiral around
// the canvas center (spec §6). Confidence is clamped to [0,1]; missing
// keywords are treated as empty — neither raises an error (spec §7).
func (e *Engine) InjectConcept(c ConceptInput) {
	confidence := xmath.Clamp01(c.Confidence)

	const goldenAngle = 2.39996323 // radians, (3 - sqrt5) * pi
	n := float64(e.conceptCount)
	angle := n * goldenAngle
	radius := 10 * math.Sqrt(n+1)

	tags := append([]string{"concept"}, c.Keywords...)
	tags = append(tags, "c#"+itoa(c.ID))
	tags = glyph.Compress(tags)

	g := e.arena.Create(e.generation, tags, nil)
	g.IsConcept = true
	g.SeasonBorn = string(e.scheduler.Current)
	g.X = e.canvasW/2 + radius*math.Cos(angle)
	g.Y = e.canvasH/2 + radius*math.Sin(angle)
	g.ConceptData = &glyph.ConceptData{Technical: c.Technical, Confidence: confidence, Keywords: c.Keywords}
	g.AppendEntropy(thermo.CalcEntropy(g, e.generation, season.Modifiers[e.scheduler.Current].EntropyMod, e.rng))

	e.conceptCount++
	e.logEvent("concept injected: " + itoa(c.ID))
}

// TriggerShockwave starts a 400-px expanding ring and pushes every glyph
// radially outward (spec §6).
func (e *Engine) TriggerShockwave(x, y float64, color string) {
	e.shockwave = &Shockwave{X: x, Y: y, Color: color, Radius: 0, Active: true}
	for _, g := range e.arena.All() {
		dx, dy := g.X-x, g.Y-y
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist < 1e-6 {
			dist = 1e-6
		}
		force := math.Min(5, 200/dist)
		g.VX += (dx / dist) * force
		g.VY += (dy / dist) * force
	}
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (e *Engine) logEvent(msg string) {
	e.eventLog = append([]string{msg}, e.eventLog...)
	if len(e.eventLog) > e.cfg.EventLogCap {
		e.eventLog = e.eventLog[:e.cfg.EventLogCap]
	}
}

func (e *Engine) logCollision(msg string) {
	e.collisionLog = append(e.collisionLog, msg)
	if len(e.collisionLog) > e.cfg.CollisionLogCap {
		e.collisionLog = e.collisionLog[len(e.collisionLog)-e.cfg.CollisionLogCap:]
	}
}

// Step advances the simulation by one generation (spec §4.14). The
// sub-phase order is fixed and must not be reordered.
func (e *Engine) Step() {
	e.generation++

	// 1. Season advance.
	transitioned, newSeason, color := e.scheduler.Advance(e.arena, e.generation, e.rng)
	if transitioned {
		e.TriggerShockwave(e.canvasW/2, e.canvasH/2, color)
		e.logEvent("season transition: " + string(newSeason))
	}

	// 2. Birth.
	e.birthGlyph()

	// 3. Thermo + resonance + observables (every BEACON_UPDATE_INTERVAL).
	if e.generation%e.cfg.BeaconUpdateInterval == 0 {
		seasonMod := season.Modifiers[e.scheduler.Current].EntropyMod
		for _, g := range e.arena.All() {
			thermo.UpdateThermodynamics(g, e.generation, seasonMod, e.rng)
		}
		e.field.Rebuild(e.arena.All(), e.resonanceThreshold+season.Modifiers[e.scheduler.Current].ThresholdMod, e.rng)
		e.field.ExpirePipes(e.generation)
		e.observables = observe.Compute(e.arena.All(), e.field, e.vocabulary(), e.phaseTransitions, e.criticalEvents)
	}

	// 4. Coordinate.
	results, phaseT, critE := coordinate.Collide(
		arenaAdapter{e.arena}, e.field, e.generation,
		coordinate.Season{
			Name:         string(e.scheduler.Current),
			EntropyMod:   season.Modifiers[e.scheduler.Current].EntropyMod,
			ThresholdMod: season.Modifiers[e.scheduler.Current].ThresholdMod,
		},
		e.cfg.PhaseTransitionRho, e.cfg.CriticalPointRho, e.rng, e.log,
	)
	e.phaseTransitions += int64(phaseT)
	e.criticalEvents += int64(critE)
	for _, r := range results {
		e.logCollision("collide " + itoa(r.ParentA) + "+" + itoa(r.ParentB) + "->" + itoa(r.Offspring.ID))
		e.recordEvolvedTags(r.Offspring.Tags)
	}

	// 5. Reflex (every REFLEX_INTERVAL).
	if e.generation%e.cfg.ReflexInterval == 0 {
		spawned := reflex.Run(arenaAdapter{e.arena}, e.generation, string(e.scheduler.Current), e.rng)
		if len(spawned) > 0 {
			e.logEvent("reflex cycle: " + itoa(int64(len(spawned))) + " spawned")
		}
	}

	// 6. Entrainment (every 10 gens).
	if e.generation%10 == 0 && len(e.field.Matrix) >= 3 {
		entrain.Run(arenaAdapter{e.arena}, e.field, e.generation, e.rng)
	}

	// 7. Pressure check (every PRESSURE_INTERVAL).
	if e.generation%e.cfg.PressureInterval == 0 {
		e.pressureCheck()
	}

	// 8. Influence & attractor detection (every INFLUENCE_INTERVAL).
	if e.generation%e.cfg.InfluenceInterval == 0 {
		e.detector.Run(arenaAdapter{e.arena}, e.generation)
	}

	// 9. Deep analysis snapshot (every DEEP_ANALYSIS_INTERVAL, when >=20).
	if e.generation%e.cfg.DeepAnalysisInterval == 0 && e.arena.Len() >= 20 {
		e.observables = observe.Compute(e.arena.All(), e.field, e.vocabulary(), e.phaseTransitions, e.criticalEvents)
		e.logEvent("deep analysis snapshot at gen " + itoa(e.generation))
	}

	// 10. Singularity scan (every 40 gens, when >=20).
	if e.generation%40 == 0 && e.arena.Len() >= singularity.MinPopulation {
		culled := e.scanner.Scan(arenaAdapter{e.arena}, e.canvasW, e.canvasH, e.rng)
		if culled > 0 {
			e.logEvent("singularity scan culled " + itoa(int64(culled)))
		}
	}

	// 11. Pool detection + activation (every POOL_SCAN_INTERVAL).
	if e.generation%e.cfg.PoolScanInterval == 0 {
		pools, newShortcuts := pool.Scan(arenaAdapter{e.arena}, e.generation, resonance.Score, e.cfg.PhaseTransitionRho, e.rng)
		e.pools = pools
		if len(newShortcuts) > 0 {
			e.shortcuts = append(e.shortcuts, newShortcuts...)
			e.logEvent("pools activated " + itoa(int64(len(newShortcuts))) + " shortcuts")
		}
	}

	// 12. Shortcut gravity.
	e.shortcuts = pool.ApplyGravity(arenaAdapter{e.arena}, e.shortcuts)

	// 13. Helix step.
	e.helixSt.Step(e.generation, e.log)

	// 14. Helix modulation.
	breathScale := e.helixSt.BreathScale()
	e.resonanceThreshold = e.helixSt.Threshold(e.cfg.ResonanceThresholdBase)
	cx, cy := e.canvasW/2, e.canvasH/2
	for _, g := range e.arena.All() {
		g.VX *= breathScale
		g.VY *= breathScale
		dx, dy := g.X-cx, g.Y-cy
		g.VX += -dy * e.helixSt.HRV * 0.15
		g.VY += dx * e.helixSt.HRV * 0.15
	}

	// 15. Per-glyph coherence sync + kinematic update.
	for _, g := range e.arena.All() {
		g.X += g.VX
		g.Y += g.VY
		g.VX *= 0.998
		g.VY *= 0.998
		if g.X < 0 || g.X > e.canvasW {
			g.VX = -g.VX
			g.X = xmath.Clamp(g.X, 0, e.canvasW)
		}
		if g.Y < 0 || g.Y > e.canvasH {
			g.VY = -g.VY
			g.Y = xmath.Clamp(g.Y, 0, e.canvasH)
		}
		g.PulsePhase += 0.05
	}

	// 16. Shockwave decay.
	if e.shockwave != nil && e.shockwave.Active {
		e.shockwave.Radius += 8
		if e.shockwave.Radius > 400 {
			e.shockwave.Active = false
		}
	}
}

// pressureCheck implements the pressure event (spec §4.14, sub-step 7).
func (e *Engine) pressureCheck() {
	all := e.arena.All()
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	window := 400
	if window > len(all) {
		window = len(all)
	}
	var totalMass float64
	for _, g := range all[:window] {
		totalMass += coordinate.Mass(g)
	}
	if totalMass <= e.cfg.PressureThreshold {
		return
	}

	tagWindow := 100
	if tagWindow > len(all) {
		tagWindow = len(all)
	}
	var union []string
	for _, g := range all[:tagWindow] {
		union = append(union, glyph.StripAdministrative(g.Tags)...)
	}
	union = append(union, "purpose", "synthesis")
	anchor := e.arena.Create(e.generation, glyph.Compress(union), nil)
	anchor.X, anchor.Y = e.canvasW/2, e.canvasH/2

	for i := 0; i < 3; i++ {
		e.birthGlyph()
	}
	e.logEvent("pressure event: anchor " + itoa(anchor.ID) + " spawned")
}

// recordEvolvedTags appends tags not in the base alphabet to the capped
// evolved-tags ring (spec §3).
func (e *Engine) recordEvolvedTags(tags []string) {
	baseSet := make(map[string]bool, len(baseTags))
	for _, t := range baseTags {
		baseSet[t] = true
	}
	for _, t := range tags {
		if baseSet[t] || glyph.IsProtectedTag(t) {
			continue
		}
		e.evolvedTags = append(e.evolvedTags, t)
	}
	if len(e.evolvedTags) > e.cfg.EvolvedTagsCap {
		e.evolvedTags = e.evolvedTags[len(e.evolvedTags)-e.cfg.EvolvedTagsCap:]
	}
}

// GetStats returns the aggregate counters, observables, and helix block
// (spec §6).
func (e *Engine) GetStats() Stats {
	return Stats{
		Generation:      e.generation,
		Population:      e.arena.Len(),
		ConceptCount:    e.conceptCount,
		Season:          e.scheduler.Current,
		SeasonCounter:   e.scheduler.Counter,
		Observables:     e.observables,
		HelixStable:     e.helixSt.Stable(),
		HelixStableFor:  e.helixSt.StableFor(),
		AttractorCount:  len(e.detector.Attractors),
		ActiveShortcuts: len(e.shortcuts),
	}
}

// Glyphs returns a read-only snapshot of every live glyph (spec §6:
// "iterators ... read-only views").
func (e *Engine) Glyphs() []*glyph.Glyph { return e.arena.All() }

// Matrix returns a read-only view of the current resonance matrix.
func (e *Engine) Matrix() []resonance.Pair { return e.field.Matrix }

// Pools returns a read-only view of the last pool-detection cycle.
func (e *Engine) Pools() []pool.Pool { return e.pools }

// Shortcuts returns a read-only view of every active shortcut.
func (e *Engine) Shortcuts() []pool.Shortcut { return e.shortcuts }

// EventLog returns the newest-first capped event log.
func (e *Engine) EventLog() []string { return e.eventLog }

// Generation returns the current tick count.
func (e *Engine) Generation() int64 { return e.generation }

// arenaAdapter narrows *glyph.Arena to the small interfaces each
// subsystem package declares for itself, keeping those packages free of
// a dependency on the concrete arena type.
type arenaAdapter struct{ a *glyph.Arena }

func (aa arenaAdapter) Get(id int64) (*glyph.Glyph, bool)                { return aa.a.Get(id) }
func (aa arenaAdapter) All() []*glyph.Glyph                              { return aa.a.All() }
func (aa arenaAdapter) Delete(id int64)                                  { aa.a.Delete(id) }
func (aa arenaAdapter) Create(gen int64, tags []string, anc []int64) *glyph.Glyph {
	return aa.a.Create(gen, tags, anc)
}
