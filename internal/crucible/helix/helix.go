// Package helix implements the Helix Integrator (spec §4.12): a
// self-coupled damped oscillator whose output feeds back into the
// resonance threshold and every glyph's velocity.
package helix

import (
	"log/slog"
	"math"
)

// MaxHistory bounds the retained R/A/θ sample rings (spec §6).
const MaxHistory = 200

// State is the full helix state block (spec §4.12). Field names match
// the spec's scalar names directly — this is a numerical integrator
// ledger, not a domain model, so terse names are clearer than verbose
// English synonyms.
type State struct {
	Alpha, Beta, Phi, Omega, Dt float64
	Gamma0, Epsilon, Lambda, Eta, A0 float64

	T, R, RPrev, A, Theta, ThetaPrev, Z, HRV, R2 float64

	RHistory     []float64
	AHistory     []float64
	ThetaHistory []float64

	stableFor      int64
	lastTransition int64
	stable         bool
}

// New returns a helix initialized to the spec's fixed constants (spec
// §4.12).
func New() *State {
	return &State{
		Alpha: 1, Beta: 0.824, Phi: 1.618, Omega: 141, Dt: 0.01,
		Gamma0: 0.5, Epsilon: 0.1, Lambda: 0.5, Eta: 0.02, A0: 1,
		A: 1,
	}
}

// Step advances the integrator by one dt (spec §4.12).
func (s *State) Step(gen int64, log *slog.Logger) {
	s.T += s.Dt
	s.HRV = 0.5*math.Sin(2*math.Pi*0.2*s.T) + 0.3*math.Sin(2*math.Pi*0.05*s.T)
	gamma := s.Gamma0 + s.Epsilon*s.HRV

	rawR := s.Alpha * math.Exp(s.Beta*s.T/s.Phi) * math.Cos(s.Omega*s.T+gamma*s.RPrev)

	s.R2 = s.R*s.R + s.RPrev*s.RPrev
	s.A = s.A0 / (1 + s.Lambda*s.R2)
	s.RPrev = s.R
	s.R = s.A * math.Tanh(rawR)

	dTheta := s.Omega * s.Dt
	grad := s.R - s.RPrev
	s.ThetaPrev = s.Theta
	s.Theta += dTheta - s.Eta*grad

	accel := math.Abs(s.Theta - 2*s.ThetaPrev + (s.ThetaPrev - dTheta))
	s.Z = s.Theta / (1 + 10*accel)

	s.RHistory = appendCapped(s.RHistory, s.R, MaxHistory)
	s.AHistory = appendCapped(s.AHistory, s.A, MaxHistory)
	s.ThetaHistory = appendCapped(s.ThetaHistory, math.Mod(s.Theta, 2*math.Pi), MaxHistory)

	s.updateStability(gen, log)
}

func appendCapped(hist []float64, v float64, cap int) []float64 {
	hist = append(hist, v)
	if len(hist) > cap {
		hist = hist[len(hist)-cap:]
	}
	return hist
}

// updateStability recomputes the stability flag and logs transitions at
// most once per 10 gens (spec §4.12).
func (s *State) updateStability(gen int64, log *slog.Logger) {
	stableNow := rAvgDeltaBelow(s.RHistory, 20, 0.15) && aSpreadBelow(s.AHistory, 10, 0.05)

	if stableNow {
		s.stableFor++
	} else {
		s.stableFor = 0
	}

	if stableNow != s.stable {
		if log != nil && gen-s.lastTransition >= 10 {
			log.Info("helix stability transition", "gen", gen, "stable", stableNow)
			s.lastTransition = gen
		}
		s.stable = stableNow
	}
}

func rAvgDeltaBelow(hist []float64, window int, limit float64) bool {
	if len(hist) > window {
		hist = hist[len(hist)-window:]
	}
	if len(hist) < 2 {
		return false
	}
	var sum float64
	for i := 1; i < len(hist); i++ {
		sum += math.Abs(hist[i] - hist[i-1])
	}
	avg := sum / float64(len(hist)-1)
	return avg < limit
}

func aSpreadBelow(hist []float64, window int, limit float64) bool {
	if len(hist) > window {
		hist = hist[len(hist)-window:]
	}
	if len(hist) < 2 {
		return false
	}
	return math.Abs(hist[0]-hist[len(hist)-1]) < limit
}

// Stable reports the current stability flag (spec §4.12).
func (s *State) Stable() bool { return s.stable }

// StableFor reports the number of consecutive stable steps.
func (s *State) StableFor() int64 { return s.stableFor }

// Threshold derives RESONANCE_THRESHOLD from the integrator's current
// amplitude (spec §4.12, §6: base 0.45 − 0.08·A).
func (s *State) Threshold(base float64) float64 {
	return base - 0.08*s.A
}

// BreathScale is the velocity multiplier applied to every glyph each
// tick (spec §4.12).
func (s *State) BreathScale() float64 {
	return 1 + 0.1*s.R
}
