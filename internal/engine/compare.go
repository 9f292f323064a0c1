package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/CrateStack/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.PackSettings
}

// ComparisonResult holds the packing result and summary figures for one scenario.
type ComparisonResult struct {
	Scenario      ComparisonScenario
	Result        model.PackResult
	PlacedCount   int
	UnplacedCount int
	FillRate      float64
}

// CompareScenarios packs the same items once per scenario, in scenario order.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, spec model.ContainerSpec,
	items []model.Item, opts ...Option) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		opt := New(scenario.Settings, opts...)
		result, err := opt.Optimize(ctx, spec, items)
		if err != nil {
			return results, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}

		results = append(results, ComparisonResult{
			Scenario:      scenario,
			Result:        result,
			PlacedCount:   len(result.Placements),
			UnplacedCount: len(result.Unplaced),
			FillRate:      result.FillRate(),
		})
	}

	return results, nil
}

// BuildDefaultScenarios derives what-if variants from the base settings.
func BuildDefaultScenarios(base model.PackSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Settings: base},
	}

	altAlgo := base
	if base.Algorithm == model.AlgorithmGenetic {
		altAlgo.Algorithm = model.AlgorithmGreedy
		scenarios = append(scenarios, ComparisonScenario{Name: "Greedy Order", Settings: altAlgo})
	} else {
		altAlgo.Algorithm = model.AlgorithmGenetic
		scenarios = append(scenarios, ComparisonScenario{Name: "Genetic Order", Settings: altAlgo})
	}

	if base.LargeMargin > 0 || base.SmallMargin > 0 {
		noMargin := base
		noMargin.LargeMargin = 0
		noMargin.SmallMargin = 0
		scenarios = append(scenarios, ComparisonScenario{Name: "No Clearance", Settings: noMargin})
	}

	if base.LargeVolume > 0 {
		wider := base
		wider.LargeVolume = base.LargeVolume * 2
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Large Above %d", wider.LargeVolume),
			Settings: wider,
		})
	}

	return scenarios
}
