package engine

import (
	"context"
	"math/rand"
	"sort"

	"github.com/piwi3910/CrateStack/internal/logging"
	"github.com/piwi3910/CrateStack/internal/model"
)

// chromosome is a candidate item order. genes holds indices into the item slice.
type chromosome struct {
	genes   []int
	fitness float64
}

// geneticOptimizer evolves the order in which items are fed to the scheduler.
type geneticOptimizer struct {
	opt    *Optimizer
	log    logging.Logger
	config model.GeneticConfig
	spec   model.ContainerSpec
	items  []model.Item
	rng    *rand.Rand
}

func newGeneticOptimizer(opt *Optimizer, spec model.ContainerSpec, items []model.Item) *geneticOptimizer {
	config := opt.Settings.Genetic
	if config.PopulationSize < 1 {
		config.PopulationSize = 1
	}
	if config.TournamentSize < 1 {
		config.TournamentSize = 1
	}
	// Decoding runs quietly and never recurses into the genetic path.
	settings := opt.Settings
	settings.Algorithm = model.AlgorithmGreedy
	return &geneticOptimizer{
		opt:    New(settings),
		log:    opt.log,
		config: config,
		spec:   spec,
		items:  items,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// optimize runs the genetic algorithm and returns the best decoded result.
func (g *geneticOptimizer) optimize(ctx context.Context) (model.PackResult, error) {
	population := g.initPopulation()
	for i := range population {
		f, err := g.evaluate(ctx, population[i])
		if err != nil {
			return model.PackResult{}, err
		}
		population[i].fitness = f
	}

	for gen := 0; gen < g.config.Generations; gen++ {
		sortByFitness(population)

		newPop := make([]chromosome, 0, g.config.PopulationSize)

		// Elitism: carry over the best individuals unchanged
		eliteCount := min(g.config.EliteCount, len(population))
		for i := 0; i < eliteCount; i++ {
			newPop = append(newPop, copyChromosome(population[i]))
		}

		for len(newPop) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)

			child := parent1
			if g.rng.Float64() < g.config.CrossoverRate {
				child = g.orderCrossover(parent1, parent2)
			}
			g.mutate(&child)

			f, err := g.evaluate(ctx, child)
			if err != nil {
				return model.PackResult{}, err
			}
			child.fitness = f
			newPop = append(newPop, child)
		}

		population = newPop
		g.log.Debugf("generation %d best fitness %.4f", gen, population[0].fitness)
	}

	sortByFitness(population)
	return g.decode(ctx, population[0])
}

func sortByFitness(population []chromosome) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
}

// initPopulation creates random orders plus one greedy order in slot 0.
func (g *geneticOptimizer) initPopulation() []chromosome {
	n := len(g.items)
	population := make([]chromosome, g.config.PopulationSize)
	for i := range population {
		population[i] = chromosome{genes: g.rng.Perm(n)}
	}
	population[0] = g.greedyChromosome()
	return population
}

// greedyChromosome encodes the scheduler's own sort order.
func (g *geneticOptimizer) greedyChromosome() chromosome {
	indices := make([]int, len(g.items))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return itemBefore(g.items[indices[i]], g.items[indices[j]])
	})
	return chromosome{genes: indices}
}

// evaluate scores a chromosome as fill fraction minus an unplaced-share penalty.
func (g *geneticOptimizer) evaluate(ctx context.Context, c chromosome) (float64, error) {
	result, err := g.decode(ctx, c)
	if err != nil {
		return 0, err
	}
	fill := result.FillRate() / 100.0
	penalty := 0.0
	if len(g.items) > 0 {
		penalty = 0.1 * float64(len(result.Unplaced)) / float64(len(g.items))
	}
	return max(fill-penalty, 0), nil
}

// decode packs the items in chromosome order.
func (g *geneticOptimizer) decode(ctx context.Context, c chromosome) (model.PackResult, error) {
	ordered := make([]model.Item, len(c.genes))
	for i, idx := range c.genes {
		ordered[i] = g.items[idx]
	}
	return g.opt.optimizeGreedy(ctx, g.spec, ordered)
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return copyChromosome(best)
}

// orderCrossover implements OX1: a segment of parent1 is kept in place and the
// remaining slots are filled with parent2's genes in parent2's order.
func (g *geneticOptimizer) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.genes)
	if n <= 2 {
		return copyChromosome(parent1)
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{genes: make([]int, n)}
	inSegment := make(map[int]bool, point2-point1+1)
	for i := point1; i <= point2; i++ {
		child.genes[i] = parent1.genes[i]
		inSegment[parent1.genes[i]] = true
	}

	childIdx := (point2 + 1) % n
	for _, gene := range parent2.genes {
		if !inSegment[gene] {
			child.genes[childIdx] = gene
			childIdx = (childIdx + 1) % n
		}
	}
	return child
}

// mutate applies swap and inversion mutations.
func (g *geneticOptimizer) mutate(c *chromosome) {
	n := len(c.genes)
	if n < 2 {
		return
	}

	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
	}

	// Inversion is less frequent
	if g.rng.Float64() < g.config.MutationRate*0.5 {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for i < j {
			c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
			i++
			j--
		}
	}
}

func copyChromosome(c chromosome) chromosome {
	genes := make([]int, len(c.genes))
	copy(genes, c.genes)
	return chromosome{genes: genes, fitness: c.fitness}
}

// optimizeGenetic searches item orders with the genetic algorithm. Larger
// inputs get more generations.
func (o *Optimizer) optimizeGenetic(ctx context.Context, spec model.ContainerSpec, items []model.Item) (model.PackResult, error) {
	if len(items) == 0 {
		return o.optimizeGreedy(ctx, spec, nil)
	}
	ga := newGeneticOptimizer(o, spec, items)
	if len(items) > 50 {
		ga.config.Generations = max(ga.config.Generations, 60)
	}
	return ga.optimize(ctx)
}
