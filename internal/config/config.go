// Package config centralises every heuristic threshold used by the
// positional analytics engine.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all engine tunables.
type Config struct {
	// TickRate converts tick deltas into seconds.
	TickRate float64 `yaml:"tick_rate"`

	Zones   Zones   `yaml:"zones"`
	Roles   Roles   `yaml:"roles"`
	Team    Team    `yaml:"team"`
	Utility Utility `yaml:"utility"`
	Outcome Outcome `yaml:"outcome"`
}

// Zones configures the zone generator.
type Zones struct {
	TargetCount       int     `yaml:"target_count"`
	PaddingMargin     float64 `yaml:"padding_margin"`
	DownsampleStride  int     `yaml:"downsample_stride"` // 0 derives the stride from MaxClusterSamples
	MaxClusterSamples int     `yaml:"max_cluster_samples"`
	SpawnDominance    float64 `yaml:"spawn_dominance"`
}

// Roles configures the heuristic role gates.
type Roles struct {
	SampleStride          int     `yaml:"sample_stride"`
	ConsistencyScale      float64 `yaml:"consistency_scale"`
	RotationDistanceScale float64 `yaml:"rotation_distance_scale"`

	HolderMaxSpeed     float64 `yaml:"holder_max_speed"`
	HolderMaxRotations int     `yaml:"holder_max_rotations"`
	DominanceThreshold float64 `yaml:"dominance_threshold"`

	EntryMinSpeed     float64 `yaml:"entry_min_speed"`
	EntryMinRotations int     `yaml:"entry_min_rotations"`

	SupportMinDistance float64 `yaml:"support_min_distance"`
	SupportMaxDistance float64 `yaml:"support_max_distance"`
	SupportMinSpeed    float64 `yaml:"support_min_speed"`
	SupportMaxSpeed    float64 `yaml:"support_max_speed"`

	LurkMinDistance  float64 `yaml:"lurk_min_distance"`
	LurkMaxRotations int     `yaml:"lurk_max_rotations"`
}

// Team configures the team tactical aggregator.
type Team struct {
	SampleStride int `yaml:"sample_stride"`

	AttackCohesionMin  float64 `yaml:"attack_cohesion_min"`
	AttackCohesionMax  float64 `yaml:"attack_cohesion_max"`
	DefenseCohesionMin float64 `yaml:"defense_cohesion_min"`
	DefenseCohesionMax float64 `yaml:"defense_cohesion_max"`

	TradeMinDistance float64 `yaml:"trade_min_distance"`
	TradeMaxDistance float64 `yaml:"trade_max_distance"`

	MinMoveDistance     float64 `yaml:"min_move_distance"`
	RotationWindowTicks int     `yaml:"rotation_window_ticks"`
	OccupancyThreshold  float64 `yaml:"occupancy_threshold"`

	// Zone declarations refer to generated labels. Empty lists fall back
	// to every non-spawn zone of the round.
	PowerZones     []string `yaml:"power_zones"`
	EntryZones     []string `yaml:"entry_zones"`
	DefensiveZones []string `yaml:"defensive_zones"`
}

// Utility configures the utility impact estimator.
type Utility struct {
	Radius              float64  `yaml:"radius"`
	WindowTicks         int      `yaml:"window_ticks"`
	DisplacementSpeed   float64  `yaml:"displacement_speed"`
	MinMovingSpeed      float64  `yaml:"min_moving_speed"`
	FlashFullDuration   float64  `yaml:"flash_full_duration"`
	ExplosiveFullDamage float64  `yaml:"explosive_full_damage"`
	EnemyBonus          float64  `yaml:"enemy_bonus"`
	HighValueBonus      float64  `yaml:"high_value_bonus"`
	MaxBonus            float64  `yaml:"max_bonus"`
	FloorValue          float64  `yaml:"floor_value"`
	HighValueZones      []string `yaml:"high_value_zones"`
}

// Outcome configures the round outcome predictor.
type Outcome struct {
	ZoneControlWeight float64 `yaml:"zone_control_weight"`
	ZoneControlCap    float64 `yaml:"zone_control_cap"`
	CohesionWeight    float64 `yaml:"cohesion_weight"`
	CohesionCap       float64 `yaml:"cohesion_cap"`
	TradeWeight       float64 `yaml:"trade_weight"`
	TradeCap          float64 `yaml:"trade_cap"`
	SideScoreWeight   float64 `yaml:"side_score_weight"`
	SideScoreCap      float64 `yaml:"side_score_cap"`
	TotalCap          float64 `yaml:"total_cap"`
	ReportThreshold   float64 `yaml:"report_threshold"`
}

// Default returns the stock tunables. Distances are Hammer units, speeds are
// units per second.
func Default() Config {
	return Config{
		TickRate: 64,
		Zones: Zones{
			TargetCount:       6,
			PaddingMargin:     50,
			MaxClusterSamples: 5000,
			SpawnDominance:    0.9,
		},
		Roles: Roles{
			SampleStride:          4,
			ConsistencyScale:      500,
			RotationDistanceScale: 1000,
			HolderMaxSpeed:        80,
			HolderMaxRotations:    1,
			DominanceThreshold:    0.6,
			EntryMinSpeed:         160,
			EntryMinRotations:     4,
			SupportMinDistance:    300,
			SupportMaxDistance:    1200,
			SupportMinSpeed:       60,
			SupportMaxSpeed:       180,
			LurkMinDistance:       1500,
			LurkMaxRotations:      0,
		},
		Team: Team{
			SampleStride:        4,
			AttackCohesionMin:   150,
			AttackCohesionMax:   800,
			DefenseCohesionMin:  500,
			DefenseCohesionMax:  2000,
			TradeMinDistance:    100,
			TradeMaxDistance:    700,
			MinMoveDistance:     1,
			RotationWindowTicks: 320,
			OccupancyThreshold:  0.1,
		},
		Utility: Utility{
			Radius:              400,
			WindowTicks:         192,
			DisplacementSpeed:   350,
			MinMovingSpeed:      50,
			FlashFullDuration:   3,
			ExplosiveFullDamage: 80,
			EnemyBonus:          0.1,
			HighValueBonus:      0.05,
			MaxBonus:            0.15,
			FloorValue:          0.1,
		},
		Outcome: Outcome{
			ZoneControlWeight: 0.2,
			ZoneControlCap:    0.1,
			CohesionWeight:    0.1,
			CohesionCap:       0.06,
			TradeWeight:       0.12,
			TradeCap:          0.08,
			SideScoreWeight:   0.15,
			SideScoreCap:      0.1,
			TotalCap:          0.25,
			ReportThreshold:   0.02,
		},
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot work with.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.TickRate > 0, "tick_rate must be positive, got %v", c.TickRate)

	check(c.Zones.TargetCount >= 1, "zones.target_count must be >= 1, got %d", c.Zones.TargetCount)
	check(c.Zones.PaddingMargin >= 0, "zones.padding_margin must be >= 0")
	check(c.Zones.DownsampleStride >= 0, "zones.downsample_stride must be >= 0")
	check(c.Zones.MaxClusterSamples >= 1, "zones.max_cluster_samples must be >= 1")
	check(c.Zones.SpawnDominance > 0.5 && c.Zones.SpawnDominance <= 1, "zones.spawn_dominance must be in (0.5,1]")

	check(c.Roles.SampleStride >= 1, "roles.sample_stride must be >= 1")
	check(c.Roles.ConsistencyScale > 0, "roles.consistency_scale must be positive")
	check(c.Roles.RotationDistanceScale > 0, "roles.rotation_distance_scale must be positive")
	check(c.Roles.SupportMinDistance <= c.Roles.SupportMaxDistance, "roles support distance band is inverted")
	check(c.Roles.SupportMinSpeed <= c.Roles.SupportMaxSpeed, "roles support speed band is inverted")

	check(c.Team.SampleStride >= 1, "team.sample_stride must be >= 1")
	check(c.Team.AttackCohesionMin <= c.Team.AttackCohesionMax, "team attack cohesion band is inverted")
	check(c.Team.DefenseCohesionMin <= c.Team.DefenseCohesionMax, "team defense cohesion band is inverted")
	check(c.Team.TradeMinDistance <= c.Team.TradeMaxDistance, "team trade band is inverted")
	check(c.Team.RotationWindowTicks >= 1, "team.rotation_window_ticks must be >= 1")

	check(c.Utility.Radius > 0, "utility.radius must be positive")
	check(c.Utility.WindowTicks >= 1, "utility.window_ticks must be >= 1")
	check(c.Utility.FlashFullDuration > 0, "utility.flash_full_duration must be positive")
	check(c.Utility.ExplosiveFullDamage > 0, "utility.explosive_full_damage must be positive")
	check(c.Utility.FloorValue > 0 && c.Utility.FloorValue <= 0.2, "utility.floor_value must be in (0,0.2]")
	check(c.Utility.MaxBonus >= 0 && c.Utility.MaxBonus <= 0.5, "utility.max_bonus must be in [0,0.5]")

	caps := []struct {
		name string
		v    float64
	}{
		{"zone_control_cap", c.Outcome.ZoneControlCap},
		{"cohesion_cap", c.Outcome.CohesionCap},
		{"trade_cap", c.Outcome.TradeCap},
		{"side_score_cap", c.Outcome.SideScoreCap},
		{"total_cap", c.Outcome.TotalCap},
	}
	for _, cp := range caps {
		check(cp.v >= 0 && cp.v <= 0.45, "outcome.%s must be in [0,0.45], got %v", cp.name, cp.v)
	}
	check(c.Outcome.ReportThreshold >= 0, "outcome.report_threshold must be >= 0")

	return errors.Join(errs...)
}
