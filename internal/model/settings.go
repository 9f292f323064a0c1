package model

import (
	"errors"
	"fmt"
)

// Algorithm selects how the item order fed to the scheduler is chosen.
type Algorithm string

const (
	AlgorithmGreedy  Algorithm = "greedy"  // fixed sort order, single run
	AlgorithmGenetic Algorithm = "genetic" // evolved order, best run kept
)

// GapTier awards Bonus for a positive leftover gap strictly below Below.
type GapTier struct {
	Below int     `json:"below"`
	Bonus float64 `json:"bonus"`
}

// EdgeTier awards Bonus when the distance to a boundary is at most Within.
type EdgeTier struct {
	Within int     `json:"within"`
	Bonus  float64 `json:"bonus"`
}

// ScoreProfile holds the weights of one scoring variant.
// Tier lists are evaluated in order and the first matching tier wins.
type ScoreProfile struct {
	Name string `json:"name"`

	GravityX float64 `json:"gravity_x"`
	GravityY float64 `json:"gravity_y"`
	GravityZ float64 `json:"gravity_z"`

	SpaceWeight     float64   `json:"space_weight"`
	GapTiers        []GapTier `json:"gap_tiers"`
	LargeGap        int       `json:"large_gap"` // 0 disables the penalty
	LargeGapPenalty float64   `json:"large_gap_penalty"`

	VolumeWeight float64 `json:"volume_weight"`

	EdgeWeight    float64    `json:"edge_weight"`
	NearEdgeTiers []EdgeTier `json:"near_edge_tiers"`
	FarEdgeTiers  []EdgeTier `json:"far_edge_tiers"`

	ContactWeight    float64 `json:"contact_weight"`
	NearWallContact  float64 `json:"near_wall_contact"`
	FarWallContact   float64 `json:"far_wall_contact"`
	FarWallTolerance int     `json:"far_wall_tolerance"`

	CompactnessWeight float64 `json:"compactness_weight"`

	// WallTouchBonus is multiplied by the number of touched walls. TightFitBonus is
	// added once when the caller asks for a tight fit.
	WallTouchBonus float64 `json:"wall_touch_bonus"`
	TightFitBonus  float64 `json:"tight_fit_bonus"`

	SeedDistanceWeight float64 `json:"seed_distance_weight"`
}

// DefaultLargeProfile scores large items: strong gravity, wide gap tiers, compact shapes.
func DefaultLargeProfile() ScoreProfile {
	return ScoreProfile{
		Name:              "large",
		GravityX:          5,
		GravityY:          10,
		GravityZ:          20,
		SpaceWeight:       100,
		GapTiers:          []GapTier{{Below: 5, Bonus: 2}, {Below: 10, Bonus: 1}},
		LargeGap:          15,
		LargeGapPenalty:   1,
		VolumeWeight:      0.002,
		EdgeWeight:        50,
		NearEdgeTiers:     []EdgeTier{{Within: 2, Bonus: 2}, {Within: 5, Bonus: 1}, {Within: 10, Bonus: 0.5}},
		FarEdgeTiers:      []EdgeTier{{Within: 2, Bonus: 1}, {Within: 5, Bonus: 0.5}},
		ContactWeight:     30,
		NearWallContact:   1,
		FarWallContact:    0.5,
		FarWallTolerance:  1,
		CompactnessWeight: 200,
	}
}

// DefaultSmallProfile scores small items: gap filling and wall contact dominate.
func DefaultSmallProfile() ScoreProfile {
	return ScoreProfile{
		Name:             "small",
		GravityX:         2,
		GravityY:         5,
		GravityZ:         10,
		SpaceWeight:      200,
		GapTiers:         []GapTier{{Below: 3, Bonus: 3}, {Below: 5, Bonus: 2}},
		ContactWeight:    80,
		NearWallContact:  1,
		FarWallContact:   0.5,
		FarWallTolerance: 1,
		WallTouchBonus:   5000,
		TightFitBonus:    500,
	}
}

// DefaultPredictedProfile scores candidates around an externally predicted seed.
func DefaultPredictedProfile() ScoreProfile {
	return ScoreProfile{
		Name:               "predicted",
		GravityX:           3,
		GravityY:           8,
		GravityZ:           15,
		SpaceWeight:        50,
		GapTiers:           []GapTier{{Below: 10, Bonus: 1}},
		LargeGap:           20,
		LargeGapPenalty:    0.5,
		VolumeWeight:       0.001,
		EdgeWeight:         20,
		NearEdgeTiers:      []EdgeTier{{Within: 5, Bonus: 1}, {Within: 10, Bonus: 0.5}},
		FarEdgeTiers:       []EdgeTier{{Within: 5, Bonus: 0.5}},
		ContactWeight:      10,
		NearWallContact:    0.5,
		SeedDistanceWeight: 0.1,
	}
}

// Profiles groups the three scoring variants used by the scheduler.
type Profiles struct {
	Large     ScoreProfile `json:"large"`
	Small     ScoreProfile `json:"small"`
	Predicted ScoreProfile `json:"predicted"`
}

func DefaultProfiles() Profiles {
	return Profiles{
		Large:     DefaultLargeProfile(),
		Small:     DefaultSmallProfile(),
		Predicted: DefaultPredictedProfile(),
	}
}

// PackSettings controls the multi-pass scheduler.
type PackSettings struct {
	LargeVolume int `json:"large_volume"` // items above this volume go to the large pass
	TinyVolume  int `json:"tiny_volume"`  // small items up to this volume get a tight-fit retry

	LargeMargin int `json:"large_margin"`
	SmallMargin int `json:"small_margin"`
	TinyMargin  int `json:"tiny_margin"`
	SeedMargin  int `json:"seed_margin"`

	SmallStride int `json:"small_stride"`
	SeedRadius  int `json:"seed_radius"`

	// SearchBudget caps feasibility probes per search; 0 means unlimited.
	SearchBudget int  `json:"search_budget"`
	Parallel     bool `json:"parallel"`

	Algorithm Algorithm     `json:"algorithm"`
	Genetic   GeneticConfig `json:"genetic"`
	Profiles  Profiles      `json:"profiles"`
}

// DefaultPackSettings returns the tuned scheduler defaults.
func DefaultPackSettings() PackSettings {
	return PackSettings{
		LargeVolume: 200,
		TinyVolume:  300,
		LargeMargin: 1,
		SmallMargin: 1,
		TinyMargin:  0,
		SeedMargin:  0,
		SmallStride: 1,
		SeedRadius:  10,
		Algorithm:   AlgorithmGreedy,
		Genetic:     DefaultGeneticConfig(),
		Profiles:    DefaultProfiles(),
	}
}

func (s PackSettings) Validate() error {
	var errs []error
	if s.LargeVolume < 0 || s.TinyVolume < 0 {
		errs = append(errs, errors.New("volume thresholds must not be negative"))
	}
	if s.LargeMargin < 0 || s.SmallMargin < 0 || s.TinyMargin < 0 || s.SeedMargin < 0 {
		errs = append(errs, errors.New("margins must not be negative"))
	}
	if s.SmallStride < 1 {
		errs = append(errs, fmt.Errorf("small_stride must be at least 1, got %d", s.SmallStride))
	}
	if s.SeedRadius < 0 {
		errs = append(errs, fmt.Errorf("seed_radius must not be negative, got %d", s.SeedRadius))
	}
	if s.SearchBudget < 0 {
		errs = append(errs, fmt.Errorf("search_budget must not be negative, got %d", s.SearchBudget))
	}
	switch s.Algorithm {
	case AlgorithmGreedy, AlgorithmGenetic, "":
	default:
		errs = append(errs, fmt.Errorf("unknown algorithm %q", s.Algorithm))
	}
	return errors.Join(errs...)
}

// GeneticConfig holds the order-search parameters.
type GeneticConfig struct {
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutation_rate"`
	CrossoverRate  float64 `json:"crossover_rate"`
	TournamentSize int     `json:"tournament_size"`
	EliteCount     int     `json:"elite_count"`
	Seed           int64   `json:"seed"`
}

// DefaultGeneticConfig returns sensible defaults for the genetic order search.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 20,
		Generations:    30,
		MutationRate:   0.15,
		CrossoverRate:  0.8,
		TournamentSize: 3,
		EliteCount:     2,
		Seed:           42,
	}
}

// RLSettings holds the learning hyperparameters of the tabular agent.
type RLSettings struct {
	LearningRate   float64 `json:"learning_rate"`
	Discount       float64 `json:"discount"`
	EpsilonStart   float64 `json:"epsilon_start"`
	EpsilonMin     float64 `json:"epsilon_min"`
	EpsilonDecay   float64 `json:"epsilon_decay"` // subtracted per episode
	ExploitStride  int     `json:"exploit_stride"`
	FailurePenalty float64 `json:"failure_penalty"`
	Episodes       int     `json:"episodes"`
	LogEvery       int     `json:"log_every"`
	Seed           int64   `json:"seed"` // 0 picks a time based seed
	Reward         Reward  `json:"reward"`
}

// Reward holds the placement reward weights.
type Reward struct {
	Base          float64    `json:"base"`
	FillTiers     []FillTier `json:"fill_tiers"`
	PerPlaced     float64    `json:"per_placed"`
	EdgeTolerance int        `json:"edge_tolerance"`
	EdgeBonus     float64    `json:"edge_bonus"`
	GravityX      float64    `json:"gravity_x"`
	GravityY      float64    `json:"gravity_y"`
	GravityZ      float64    `json:"gravity_z"`
	SmallGap      int        `json:"small_gap"`
	SmallGapBonus float64    `json:"small_gap_bonus"`
	NearWallBonus float64    `json:"near_wall_bonus"`
}

// FillTier awards Bonus once the fill rate percentage exceeds Above.
type FillTier struct {
	Above float64 `json:"above"`
	Bonus float64 `json:"bonus"`
}

func DefaultReward() Reward {
	return Reward{
		Base: 2000,
		FillTiers: []FillTier{
			{Above: 95, Bonus: 1000},
			{Above: 90, Bonus: 800},
			{Above: 85, Bonus: 600},
			{Above: 80, Bonus: 400},
			{Above: 75, Bonus: 200},
			{Above: 70, Bonus: 100},
		},
		PerPlaced:     50,
		EdgeTolerance: 2,
		EdgeBonus:     300,
		GravityX:      1,
		GravityY:      2,
		GravityZ:      5,
		SmallGap:      5,
		SmallGapBonus: 200,
		NearWallBonus: 150,
	}
}

// DefaultRLSettings returns the tuned Q-learning defaults.
func DefaultRLSettings() RLSettings {
	return RLSettings{
		LearningRate:   0.2,
		Discount:       0.95,
		EpsilonStart:   0.30,
		EpsilonMin:     0.05,
		EpsilonDecay:   0.0001,
		ExploitStride:  2,
		FailurePenalty: -1000,
		Episodes:       500,
		LogEvery:       50,
		Reward:         DefaultReward(),
	}
}

func (s RLSettings) Validate() error {
	var errs []error
	if s.LearningRate <= 0 || s.LearningRate > 1 {
		errs = append(errs, fmt.Errorf("learning_rate must be in (0,1], got %g", s.LearningRate))
	}
	if s.Discount < 0 || s.Discount > 1 {
		errs = append(errs, fmt.Errorf("discount must be in [0,1], got %g", s.Discount))
	}
	if s.EpsilonMin < 0 || s.EpsilonStart > 1 || s.EpsilonMin > s.EpsilonStart {
		errs = append(errs, fmt.Errorf("epsilon range invalid: start %g min %g", s.EpsilonStart, s.EpsilonMin))
	}
	if s.ExploitStride < 1 {
		errs = append(errs, fmt.Errorf("exploit_stride must be at least 1, got %d", s.ExploitStride))
	}
	if s.Episodes < 0 {
		errs = append(errs, fmt.Errorf("episodes must not be negative, got %d", s.Episodes))
	}
	return errors.Join(errs...)
}
