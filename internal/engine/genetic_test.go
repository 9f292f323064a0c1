package engine

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CrateStack/internal/model"
)

func geneticSettings() model.PackSettings {
	s := model.DefaultPackSettings()
	s.Algorithm = model.AlgorithmGenetic
	s.Genetic.PopulationSize = 6
	s.Genetic.Generations = 4
	return s
}

func fitnessOf(res model.PackResult, n int) float64 {
	return max(res.FillRate()/100.0-0.1*float64(len(res.Unplaced))/float64(n), 0)
}

func TestGenetic_NeverWorseThanGreedy(t *testing.T) {
	items := randomItems(3, 18, 6)
	spec := model.ContainerSpec{Width: 12, Height: 12, Depth: 12}

	greedy, err := New(model.DefaultPackSettings()).Optimize(context.Background(), spec, items)
	require.NoError(t, err)
	evolved, err := New(geneticSettings()).Optimize(context.Background(), spec, items)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, fitnessOf(evolved, len(items)), fitnessOf(greedy, len(items))-1e-9)
	assert.Equal(t, len(items), len(evolved.Placements)+len(evolved.Unplaced))
	assertNoOverlapInBounds(t, evolved)
}

func TestGenetic_DeterministicForSeed(t *testing.T) {
	items := randomItems(9, 12, 6)
	spec := model.ContainerSpec{Width: 10, Height: 10, Depth: 10}

	first, err := New(geneticSettings()).Optimize(context.Background(), spec, items)
	require.NoError(t, err)
	second, err := New(geneticSettings()).Optimize(context.Background(), spec, items)
	require.NoError(t, err)

	assert.Equal(t, first.Placements, second.Placements)
}

func TestGenetic_EmptyInput(t *testing.T) {
	res, err := New(geneticSettings()).Optimize(context.Background(), spec10, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Placements)
	assert.Empty(t, res.Unplaced)
}

func isPermutation(genes []int) bool {
	sorted := append([]int(nil), genes...)
	sort.Ints(sorted)
	for i, g := range sorted {
		if g != i {
			return false
		}
	}
	return true
}

func TestGenetic_OperatorsKeepPermutations(t *testing.T) {
	g := &geneticOptimizer{
		config: model.GeneticConfig{MutationRate: 1},
		rng:    rand.New(rand.NewSource(1)),
	}
	for i := 0; i < 50; i++ {
		p1 := chromosome{genes: g.rng.Perm(9)}
		p2 := chromosome{genes: g.rng.Perm(9)}
		child := g.orderCrossover(p1, p2)
		require.True(t, isPermutation(child.genes), "crossover: %v", child.genes)
		g.mutate(&child)
		require.True(t, isPermutation(child.genes), "mutation: %v", child.genes)
	}
}

func TestGenetic_GreedyChromosomeMatchesSortOrder(t *testing.T) {
	items := randomItems(4, 10, 5)
	g := &geneticOptimizer{items: items}

	sorted := SortItems(items)
	for i, idx := range g.greedyChromosome().genes {
		assert.Equal(t, sorted[i].ID, items[idx].ID)
	}
}
