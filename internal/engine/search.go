package engine

import (
	"context"

	"github.com/piwi3910/CrateStack/internal/model"
)

// Search finds a feasible position for an already rotated box. Every strategy
// is first-fit: it returns the first position its scan order reaches.
type Search interface {
	Find(ctx context.Context, c *Container, box model.Box) (model.Position, bool)
}

// AdaptiveStride is the scan step used for large items: a fifth of the
// shortest edge, clamped to [1,3].
func AdaptiveStride(b model.Box) int {
	return min(max(b.ShortestEdge()/5, 1), 3)
}

// IsTightFit reports whether box at pos touches the near or far wall exactly on
// at least one axis.
func IsTightFit(spec model.ContainerSpec, pos model.Position, box model.Box) bool {
	return pos.X == 0 || pos.X+box.Width == spec.Width ||
		pos.Y == 0 || pos.Y+box.Height == spec.Height ||
		pos.Z == 0 || pos.Z+box.Depth == spec.Depth
}

// prober counts feasibility checks against an optional budget.
type prober struct {
	c      *Container
	box    model.Box
	margin int
	budget int // 0 = unlimited
	probes int
}

// try reports feasibility of pos. exhausted is set once the budget is spent.
func (p *prober) try(pos model.Position) (ok, exhausted bool) {
	if p.budget > 0 && p.probes >= p.budget {
		return false, true
	}
	p.probes++
	return p.c.Feasible(pos, p.box, p.margin), false
}

// rasterScan walks z ascending, then y, then x with the given stride and
// returns the first position accepted by both filter and the prober.
func rasterScan(ctx context.Context, p *prober, stride int, filter func(model.Position) bool) (model.Position, bool) {
	if stride < 1 {
		stride = 1
	}
	spec := p.c.Spec()
	for z := 0; z <= spec.Depth-p.box.Depth; z += stride {
		if ctx.Err() != nil {
			return model.Position{}, false
		}
		for y := 0; y <= spec.Height-p.box.Height; y += stride {
			for x := 0; x <= spec.Width-p.box.Width; x += stride {
				pos := model.Position{X: x, Y: y, Z: z}
				if filter != nil && !filter(pos) {
					continue
				}
				ok, exhausted := p.try(pos)
				if exhausted {
					return model.Position{}, false
				}
				if ok {
					return pos, true
				}
			}
		}
	}
	return model.Position{}, false
}

// AdaptiveScan is the large item search: a raster scan whose stride grows with
// the box.
type AdaptiveScan struct {
	Margin int
	Budget int
}

func (s AdaptiveScan) Find(ctx context.Context, c *Container, box model.Box) (model.Position, bool) {
	p := &prober{c: c, box: box, margin: s.Margin, budget: s.Budget}
	return rasterScan(ctx, p, AdaptiveStride(box), nil)
}

// GridScan is a raster scan with a fixed stride. With TightFitOnly set it only
// accepts positions touching a container wall.
type GridScan struct {
	Stride       int
	TightFitOnly bool
	Margin       int
	Budget       int
}

func (s GridScan) Find(ctx context.Context, c *Container, box model.Box) (model.Position, bool) {
	p := &prober{c: c, box: box, margin: s.Margin, budget: s.Budget}
	var filter func(model.Position) bool
	if s.TightFitOnly {
		spec := c.Spec()
		filter = func(pos model.Position) bool { return IsTightFit(spec, pos, box) }
	}
	return rasterScan(ctx, p, s.Stride, filter)
}

// SeedScan probes the offset cube around Seed (dx outer, dy, dz inner, each in
// [-Radius,Radius]) and falls back to a full stride-1 raster scan. The offset
// cube is walked in raster order, so the hit returned is not necessarily the
// one nearest to the seed.
type SeedScan struct {
	Seed   model.Position
	Radius int
	Margin int
	Budget int
}

func (s SeedScan) Find(ctx context.Context, c *Container, box model.Box) (model.Position, bool) {
	p := &prober{c: c, box: box, margin: s.Margin, budget: s.Budget}
	for dx := -s.Radius; dx <= s.Radius; dx++ {
		if ctx.Err() != nil {
			return model.Position{}, false
		}
		for dy := -s.Radius; dy <= s.Radius; dy++ {
			for dz := -s.Radius; dz <= s.Radius; dz++ {
				pos := model.Position{X: s.Seed.X + dx, Y: s.Seed.Y + dy, Z: s.Seed.Z + dz}
				if !c.InBounds(pos, box) {
					continue
				}
				ok, exhausted := p.try(pos)
				if exhausted {
					return model.Position{}, false
				}
				if ok {
					return pos, true
				}
			}
		}
	}
	return rasterScan(ctx, p, 1, nil)
}
