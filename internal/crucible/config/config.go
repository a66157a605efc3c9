// Package config holds the tunable named constants from spec §6. All
// values default to the spec's literal numbers. The engine reads the
// resonance and phase thresholds, the step intervals, PressureThreshold,
// SeasonDuration, MaxGlyphs, the canvas size and the collision, event and
// evolved-tag log caps from the *Config it is given. AttractorThreshold,
// ProxyThreshold, HbarOver2, MaxTagsPerGlyph, CompressSimThreshold,
// ResonanceSampleSize, ResonanceMatrixCap, ShortcutCap, HelixHistoryCap and
// TagSignatureCap are decoded but not read by the engine; the subsystem
// packages use their own fixed constants for those. Loadable from TOML via
// github.com/BurntSushi/toml for the CLI (SPEC_FULL.md §10.3) — the library
// itself never touches a filesystem.
package config

import "github.com/BurntSushi/toml"

// Config collects the constants named in spec §6; the package doc lists
// which of them the engine reads.
type Config struct {
	ResonanceThresholdBase float64 `toml:"resonance_threshold_base"`
	PhaseTransitionRho     float64 `toml:"phase_transition_rho"`
	CriticalPointRho       float64 `toml:"critical_point_rho"`

	BeaconUpdateInterval int64 `toml:"beacon_update_interval"`
	ReflexInterval       int64 `toml:"reflex_interval"`
	InfluenceInterval    int64 `toml:"influence_interval"`
	DeepAnalysisInterval int64 `toml:"deep_analysis_interval"`
	PoolScanInterval     int64 `toml:"pool_scan_interval"`
	PressureInterval     int64 `toml:"pressure_interval"`

	PressureThreshold  float64 `toml:"pressure_threshold"`
	AttractorThreshold int     `toml:"attractor_threshold"`
	ProxyThreshold     int     `toml:"proxy_threshold"`
	HbarOver2          float64 `toml:"hbar_over_2"`

	SeasonDuration int64 `toml:"season_duration"`

	MaxTagsPerGlyph      int     `toml:"max_tags_per_glyph"`
	CompressSimThreshold float64 `toml:"compress_sim_threshold"`

	ResonanceSampleSize int `toml:"resonance_sample_size"`
	ResonanceMatrixCap  int `toml:"resonance_matrix_cap"`
	MaxGlyphs           int `toml:"max_glyphs"`

	CanvasWidth  float64 `toml:"canvas_width"`
	CanvasHeight float64 `toml:"canvas_height"`

	CollisionLogCap int `toml:"collision_log_cap"`
	EventLogCap     int `toml:"event_log_cap"`
	EvolvedTagsCap  int `toml:"evolved_tags_cap"`
	ShortcutCap     int `toml:"shortcut_cap"`
	HelixHistoryCap int `toml:"helix_history_cap"`
	TagSignatureCap int `toml:"tag_signature_cap"`
}

// Default returns the spec's literal defaults (spec §6).
func Default() *Config {
	return &Config{
		ResonanceThresholdBase: 0.45,
		PhaseTransitionRho:     0.93,
		CriticalPointRho:       0.997,

		BeaconUpdateInterval: 8,
		ReflexInterval:       25,
		InfluenceInterval:    50,
		DeepAnalysisInterval: 100,
		PoolScanInterval:     20,
		PressureInterval:     30,

		PressureThreshold:  1.5e6,
		AttractorThreshold: 3,
		ProxyThreshold:      4,
		HbarOver2:          0.527,

		SeasonDuration: 200,

		MaxTagsPerGlyph:      8,
		CompressSimThreshold: 0.82,

		ResonanceSampleSize: 3000,
		ResonanceMatrixCap:  200,
		MaxGlyphs:           1000,

		CanvasWidth:  1200,
		CanvasHeight: 600,

		CollisionLogCap: 500,
		EventLogCap:     50,
		EvolvedTagsCap:  500,
		ShortcutCap:     80,
		HelixHistoryCap: 200,
		TagSignatureCap: 500,
	}
}

// Load reads a TOML file at path into a copy of Default, so an omitted
// field keeps its spec default rather than zeroing out (CLI --config,
// SPEC_FULL.md §10.3).
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
