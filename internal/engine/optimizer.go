package engine

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/CrateStack/internal/logging"
	"github.com/piwi3910/CrateStack/internal/metrics"
	"github.com/piwi3910/CrateStack/internal/model"
)

// SeedOracle predicts an approximate position for an item. Predictions are
// hints: they may be missing, out of bounds or infeasible.
type SeedOracle interface {
	PredictSeed(item model.Item) (model.Position, bool)
}

// Advisor proposes a placement before the heuristic search runs. A proposal
// that is not feasible is ignored.
type Advisor interface {
	Suggest(c *Container, item model.Item) (model.Orientation, model.Position, bool)
}

// Optimizer runs the multi-pass 3-D loading heuristic.
type Optimizer struct {
	Settings model.PackSettings

	log     logging.Logger
	metrics metrics.Sink
	advisor Advisor
}

// Option configures an Optimizer.
type Option func(*Optimizer)

func WithLogger(l logging.Logger) Option {
	return func(o *Optimizer) { o.log = l }
}

func WithMetrics(m metrics.Sink) Option {
	return func(o *Optimizer) { o.metrics = m }
}

// WithAdvisor lets a learned policy propose placements ahead of the heuristic.
func WithAdvisor(a Advisor) Option {
	return func(o *Optimizer) { o.advisor = a }
}

func New(settings model.PackSettings, opts ...Option) *Optimizer {
	o := &Optimizer{
		Settings: settings,
		log:      logging.Nop{},
		metrics:  metrics.NopSink{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize packs items into a fresh container and returns the placements plus
// the items that did not fit. Items that cannot be placed are reported in the
// result, never as an error; an error is only returned for invalid dimensions
// or a cancelled context.
func (o *Optimizer) Optimize(ctx context.Context, spec model.ContainerSpec, items []model.Item) (model.PackResult, error) {
	var (
		result model.PackResult
		err    error
	)
	if o.Settings.Algorithm == model.AlgorithmGenetic {
		result, err = o.optimizeGenetic(ctx, spec, items)
	} else {
		result, err = o.optimizeGreedy(ctx, spec, SortItems(items))
	}
	if err != nil {
		return result, err
	}

	o.metrics.RecordRun(result.FillRate(), len(result.Placements), len(result.Unplaced))
	o.log.Infof("packed %d of %d items, fill rate %.2f%%",
		len(result.Placements), len(items), result.FillRate())
	return result, nil
}

// optimizeGreedy runs the three passes once over items in the given order.
func (o *Optimizer) optimizeGreedy(ctx context.Context, spec model.ContainerSpec, items []model.Item) (model.PackResult, error) {
	p, err := o.NewPacking(spec)
	if err != nil {
		return model.PackResult{}, err
	}
	err = p.PackAll(ctx, items)
	return p.Result(), err
}

// SortItems returns a copy ordered by volume, longest edge, weight and
// compactness, all descending. Equal items keep their input order.
func SortItems(items []model.Item) []model.Item {
	sorted := make([]model.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return itemBefore(sorted[i], sorted[j])
	})
	return sorted
}

func itemBefore(x, y model.Item) bool {
	a, b := x.Box(), y.Box()
	if a.Volume() != b.Volume() {
		return a.Volume() > b.Volume()
	}
	if a.LongestEdge() != b.LongestEdge() {
		return a.LongestEdge() > b.LongestEdge()
	}
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	return a.Compactness() > b.Compactness()
}

// Packing is one in-progress run over a single container. It is the only
// writer of its container.
type Packing struct {
	opt       *Optimizer
	container *Container
	unplaced  []model.UnplacedItem
}

// NewPacking starts a run on an empty container.
func (o *Optimizer) NewPacking(spec model.ContainerSpec) (*Packing, error) {
	c, err := NewContainer(spec)
	if err != nil {
		return nil, err
	}
	return &Packing{opt: o, container: c}, nil
}

// Resume continues a run on an existing container, e.g. one rebuilt with Restore.
func (o *Optimizer) Resume(c *Container) *Packing {
	return &Packing{opt: o, container: c}
}

func (p *Packing) Container() *Container { return p.container }

// Result snapshots placements and unplaced items.
func (p *Packing) Result() model.PackResult {
	res := p.container.Result()
	res.Unplaced = make([]model.UnplacedItem, len(p.unplaced))
	copy(res.Unplaced, p.unplaced)
	return res
}

type failedItem struct {
	item    model.Item
	outcome model.Outcome
}

// PackAll runs the large, small and tiny passes over items in the given order.
// Items above the large threshold go through the adaptive scan; the rest
// through the stride scan. Small items still unplaced afterwards that are no
// larger than the tiny threshold get a last tight-fit attempt without clearance.
func (p *Packing) PackAll(ctx context.Context, items []model.Item) error {
	s := p.opt.Settings
	var large, small []model.Item
	for _, it := range items {
		if it.Volume() > s.LargeVolume {
			large = append(large, it)
		} else {
			small = append(small, it)
		}
	}
	p.opt.log.Debugf("scheduling %d large and %d small items", len(large), len(small))

	for _, it := range large {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, out := p.place(ctx, it, model.PassLarge); out != model.OutcomePlaced {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.markUnplaced(it, out, model.PassLarge)
		}
	}

	var leftover []failedItem
	for _, it := range small {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, out := p.place(ctx, it, model.PassSmall); out != model.OutcomePlaced {
			if err := ctx.Err(); err != nil {
				return err
			}
			leftover = append(leftover, failedItem{item: it, outcome: out})
		}
	}

	var tiny []model.Item
	for _, f := range leftover {
		if f.item.Volume() <= s.TinyVolume {
			tiny = append(tiny, f.item)
		} else {
			p.markUnplaced(f.item, f.outcome, model.PassSmall)
		}
	}
	sort.SliceStable(tiny, func(i, j int) bool {
		return tiny[i].Volume() < tiny[j].Volume()
	})

	for _, it := range tiny {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, out := p.place(ctx, it, model.PassTiny); out != model.OutcomePlaced {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.markUnplaced(it, out, model.PassTiny)
		}
	}
	return nil
}

// PlaceSeeded places a single item near a predicted position. Without a usable
// prediction it falls back to a full stride-1 scan.
func (p *Packing) PlaceSeeded(ctx context.Context, item model.Item, oracle SeedOracle) (model.PlacedItem, model.Outcome) {
	s := p.opt.Settings
	var search Search = GridScan{Stride: 1, Margin: s.SeedMargin, Budget: s.SearchBudget}
	opts := ScoreOptions{}
	if oracle != nil {
		if seed, ok := oracle.PredictSeed(item); ok && p.insideContainer(seed) {
			search = SeedScan{Seed: seed, Radius: s.SeedRadius, Margin: s.SeedMargin, Budget: s.SearchBudget}
			opts.Seed = &seed
		} else {
			p.opt.log.Debugf("no usable seed for item %s, scanning the full container", item.ID)
		}
	}

	placed, out := p.placeWith(ctx, item, model.PassSeeded, search, s.Profiles.Predicted, opts, s.SeedMargin)
	if out != model.OutcomePlaced {
		p.markUnplaced(item, out, model.PassSeeded)
	}
	return placed, out
}

func (p *Packing) insideContainer(pos model.Position) bool {
	spec := p.container.Spec()
	return pos.X >= 0 && pos.Y >= 0 && pos.Z >= 0 &&
		pos.X < spec.Width && pos.Y < spec.Height && pos.Z < spec.Depth
}

func (p *Packing) markUnplaced(item model.Item, out model.Outcome, pass model.Pass) {
	p.unplaced = append(p.unplaced, model.UnplacedItem{Item: item, Outcome: out, Pass: pass})
}

// place runs one scheduler pass for a single item.
func (p *Packing) place(ctx context.Context, item model.Item, pass model.Pass) (model.PlacedItem, model.Outcome) {
	s := p.opt.Settings
	var (
		search  Search
		profile model.ScoreProfile
		opts    ScoreOptions
		margin  int
	)
	switch pass {
	case model.PassLarge:
		margin = s.LargeMargin
		search = AdaptiveScan{Margin: margin, Budget: s.SearchBudget}
		profile = s.Profiles.Large
	case model.PassSmall:
		margin = s.SmallMargin
		search = GridScan{Stride: s.SmallStride, Margin: margin, Budget: s.SearchBudget}
		profile = s.Profiles.Small
	default:
		margin = s.TinyMargin
		search = GridScan{Stride: 1, TightFitOnly: true, Margin: margin, Budget: s.SearchBudget}
		profile = s.Profiles.Small
		opts.TightFit = true
	}

	if p.opt.advisor != nil && pass != model.PassTiny {
		if placed, ok := p.tryAdvisor(item, margin); ok {
			return placed, model.OutcomePlaced
		}
	}
	return p.placeWith(ctx, item, pass, search, profile, opts, margin)
}

// tryAdvisor commits the advisor's proposal when it is feasible.
func (p *Packing) tryAdvisor(item model.Item, margin int) (model.PlacedItem, bool) {
	o, pos, ok := p.opt.advisor.Suggest(p.container, item)
	if !ok || !o.Valid() {
		return model.PlacedItem{}, false
	}
	placed := model.NewPlacedItem(item, o, pos)
	placed.Pass = model.PassPolicy
	if !p.container.Feasible(pos, placed.Box, margin) {
		p.opt.log.Debugf("advisor proposal for %s at %s is infeasible, using heuristic", item.ID, pos)
		return model.PlacedItem{}, false
	}
	_, out := p.commit(placed, margin)
	return placed, out == model.OutcomePlaced
}

type candidate struct {
	pos   model.Position
	score float64
	found bool
}

// placeWith evaluates all six orientations with search, keeps the best score
// and commits it. Ties go to the earlier orientation.
func (p *Packing) placeWith(ctx context.Context, item model.Item, pass model.Pass, search Search,
	profile model.ScoreProfile, opts ScoreOptions, margin int) (model.PlacedItem, model.Outcome) {
	start := time.Now()
	rots := Rotations(item.Box())
	cands := p.evaluate(ctx, rots, search, profile, opts)
	p.opt.metrics.RecordSearch(string(pass), time.Since(start))

	best := -1
	bestScore := math.Inf(-1)
	for i, c := range cands {
		if c.found && c.score > bestScore {
			best = i
			bestScore = c.score
		}
	}

	if best < 0 {
		p.opt.log.Infof("no position for item %s (%s) in %s pass", item.ID, item.Box(), pass)
		p.opt.metrics.RecordPlacement(string(pass), model.OutcomeNotFound.String())
		return model.PlacedItem{}, model.OutcomeNotFound
	}

	placed := model.NewPlacedItem(item, rots[best].Orientation, cands[best].pos)
	placed.Pass = pass
	return p.commit(placed, margin)
}

// evaluate runs the search for every rotation. In parallel mode the searches
// share the container read-only; selection happens afterwards in order, so
// both modes give the same answer.
func (p *Packing) evaluate(ctx context.Context, rots []Rotation, search Search,
	profile model.ScoreProfile, opts ScoreOptions) []candidate {
	cands := make([]candidate, len(rots))
	spec := p.container.Spec()
	run := func(ctx context.Context, i int) {
		pos, ok := search.Find(ctx, p.container, rots[i].Box)
		if !ok {
			return
		}
		cands[i] = candidate{pos: pos, score: Score(profile, pos, rots[i].Box, spec, opts), found: true}
	}

	if !p.opt.Settings.Parallel {
		for i := range rots {
			run(ctx, i)
		}
		return cands
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range rots {
		g.Go(func() error {
			run(gctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return cands
}

func (p *Packing) commit(placed model.PlacedItem, margin int) (model.PlacedItem, model.Outcome) {
	if err := p.container.Commit(placed, margin); err != nil {
		if errors.Is(err, ErrCommitRejected) {
			p.opt.log.Warnf("item %s rejected in %s pass: %v", placed.ItemID, placed.Pass, err)
		} else {
			p.opt.log.Errorf("item %s failed in %s pass: %v", placed.ItemID, placed.Pass, err)
		}
		p.opt.metrics.RecordPlacement(string(placed.Pass), model.OutcomeRejected.String())
		return placed, model.OutcomeRejected
	}
	p.opt.log.Debugw("placed item", map[string]any{
		"item":        placed.ItemID,
		"pass":        string(placed.Pass),
		"orientation": string(placed.Orientation),
		"x":           placed.Position.X,
		"y":           placed.Position.Y,
		"z":           placed.Position.Z,
		"box":         placed.Box.String(),
	})
	p.opt.metrics.RecordPlacement(string(placed.Pass), model.OutcomePlaced.String())
	return placed, model.OutcomePlaced
}
