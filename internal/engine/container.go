package engine

import (
	"errors"
	"fmt"

	"github.com/piwi3910/CrateStack/internal/model"
)

// ErrCommitRejected is returned when a placement fails re-validation at commit time.
var ErrCommitRejected = errors.New("commit rejected")

// Container is the occupancy model of one packing run. It keeps a dense
// per-cell bitmap and the ordered list of placed items; both are consulted on
// every feasibility check and must always describe the same volume.
//
// A Container is not safe for concurrent writers. Concurrent Feasible calls
// are fine as long as no Commit runs at the same time.
type Container struct {
	spec   model.ContainerSpec
	cells  []bool
	placed []model.PlacedItem
	used   int
}

// NewContainer allocates an empty container.
func NewContainer(spec model.ContainerSpec) (*Container, error) {
	if !spec.Valid() {
		return nil, fmt.Errorf("invalid container dimensions %dx%dx%d (extents must be positive, at most %d cells)",
			spec.Width, spec.Height, spec.Depth, model.MaxContainerCells)
	}
	return &Container{
		spec:  spec,
		cells: make([]bool, spec.Volume()),
	}, nil
}

// Restore rebuilds a container from a saved packing result. Every placement is
// committed without clearance; an overlapping or out-of-bounds document fails.
func Restore(result model.PackResult) (*Container, error) {
	c, err := NewContainer(result.Container)
	if err != nil {
		return nil, err
	}
	for i, p := range result.Placements {
		if p.Volume == 0 {
			p.Volume = p.Box.Volume()
		}
		if err := c.Commit(p, 0); err != nil {
			return nil, fmt.Errorf("failed to restore placement %d (%s): %w", i, p.ItemID, err)
		}
	}
	return c, nil
}

func (c *Container) Spec() model.ContainerSpec { return c.spec }

func (c *Container) index(x, y, z int) int {
	return (x*c.spec.Height+y)*c.spec.Depth + z
}

// Occupied reports whether the unit cell at (x,y,z) is filled. Out-of-range
// cells report false.
func (c *Container) Occupied(x, y, z int) bool {
	if x < 0 || y < 0 || z < 0 || x >= c.spec.Width || y >= c.spec.Height || z >= c.spec.Depth {
		return false
	}
	return c.cells[c.index(x, y, z)]
}

// InBounds reports whether box at pos lies fully inside the container.
// Comparisons are done as remaining extent so huge coordinates cannot wrap.
func (c *Container) InBounds(pos model.Position, box model.Box) bool {
	if box.Width <= 0 || box.Height <= 0 || box.Depth <= 0 {
		return false
	}
	if pos.X < 0 || pos.Y < 0 || pos.Z < 0 {
		return false
	}
	return box.Width <= c.spec.Width-pos.X &&
		box.Height <= c.spec.Height-pos.Y &&
		box.Depth <= c.spec.Depth-pos.Z
}

// region is a half-open cell range [x0,x1)x[y0,y1)x[z0,z1).
type region struct {
	x0, y0, z0, x1, y1, z1 int
}

// clearance returns the box grown by margin on every side and clipped to the
// container walls.
func (c *Container) clearance(pos model.Position, box model.Box, margin int) region {
	// Anything wider than the container clips to the walls anyway.
	margin = min(max(margin, 0), max(c.spec.Width, c.spec.Height, c.spec.Depth))
	return region{
		x0: max(pos.X-margin, 0),
		y0: max(pos.Y-margin, 0),
		z0: max(pos.Z-margin, 0),
		x1: min(pos.X+box.Width+margin, c.spec.Width),
		y1: min(pos.Y+box.Height+margin, c.spec.Height),
		z1: min(pos.Z+box.Depth+margin, c.spec.Depth),
	}
}

func (r region) overlaps(p model.PlacedItem) bool {
	m := p.Max()
	return r.x0 < m.X && r.x1 > p.Position.X &&
		r.y0 < m.Y && r.y1 > p.Position.Y &&
		r.z0 < m.Z && r.z1 > p.Position.Z
}

// Feasible reports whether box can sit at pos with margin cells of free space
// around it. The box itself must be in bounds; the clearance stops at the walls.
// Both the cell bitmap and the placed-item list must agree the space is free.
func (c *Container) Feasible(pos model.Position, box model.Box, margin int) bool {
	if !c.InBounds(pos, box) {
		return false
	}
	r := c.clearance(pos, box, margin)
	for x := r.x0; x < r.x1; x++ {
		for y := r.y0; y < r.y1; y++ {
			base := c.index(x, y, 0)
			for z := r.z0; z < r.z1; z++ {
				if c.cells[base+z] {
					return false
				}
			}
		}
	}
	return !c.overlapsPlaced(r)
}

func (c *Container) overlapsPlaced(r region) bool {
	for _, p := range c.placed {
		if r.overlaps(p) {
			return true
		}
	}
	return false
}

// Commit re-validates p against the current state and records it. Only the
// item's own cells are marked; the margin is checked, not reserved.
// A failed re-validation returns an error wrapping ErrCommitRejected and leaves
// the container unchanged.
func (c *Container) Commit(p model.PlacedItem, margin int) error {
	if !c.InBounds(p.Position, p.Box) {
		return fmt.Errorf("%w: %s at %s outside %dx%dx%d", ErrCommitRejected,
			p.Box, p.Position, c.spec.Width, c.spec.Height, c.spec.Depth)
	}
	if c.overlapsPlaced(c.clearance(p.Position, p.Box, margin)) {
		return fmt.Errorf("%w: %s at %s overlaps a placed item", ErrCommitRejected, p.Box, p.Position)
	}
	if !c.Feasible(p.Position, p.Box, margin) {
		return fmt.Errorf("%w: %s at %s hits occupied cells", ErrCommitRejected, p.Box, p.Position)
	}

	m := p.Max()
	for x := p.Position.X; x < m.X; x++ {
		for y := p.Position.Y; y < m.Y; y++ {
			base := c.index(x, y, 0)
			for z := p.Position.Z; z < m.Z; z++ {
				c.cells[base+z] = true
			}
		}
	}
	p.Volume = p.Box.Volume()
	c.placed = append(c.placed, p)
	c.used += p.Volume
	return nil
}

// PlacedCount returns the number of committed items.
func (c *Container) PlacedCount() int { return len(c.placed) }

// PlacedItems returns a copy of the placed list.
func (c *Container) PlacedItems() []model.PlacedItem {
	out := make([]model.PlacedItem, len(c.placed))
	copy(out, c.placed)
	return out
}

// UsedVolume returns the summed volume of all committed items.
func (c *Container) UsedVolume() int { return c.used }

// RemainingVolume returns the free capacity in unit cells.
func (c *Container) RemainingVolume() int { return c.spec.Volume() - c.used }

// FillRate returns the occupied share in percent.
func (c *Container) FillRate() float64 {
	return float64(c.used) / float64(c.spec.Volume()) * 100.0
}

// Clone returns an independent deep copy.
func (c *Container) Clone() *Container {
	cells := make([]bool, len(c.cells))
	copy(cells, c.cells)
	return &Container{
		spec:   c.spec,
		cells:  cells,
		placed: c.PlacedItems(),
		used:   c.used,
	}
}

// Validate checks that the bitmap and the placed list describe the same volume:
// items are in bounds and pairwise disjoint, and the marked cells are exactly
// their union.
func (c *Container) Validate() error {
	marked := 0
	for _, v := range c.cells {
		if v {
			marked++
		}
	}
	total := 0
	for i, p := range c.placed {
		if !c.InBounds(p.Position, p.Box) {
			return fmt.Errorf("placement %d (%s) out of bounds", i, p.ItemID)
		}
		r := c.clearance(p.Position, p.Box, 0)
		for j := i + 1; j < len(c.placed); j++ {
			if r.overlaps(c.placed[j]) {
				return fmt.Errorf("placements %d and %d overlap", i, j)
			}
		}
		m := p.Max()
		for x := p.Position.X; x < m.X; x++ {
			for y := p.Position.Y; y < m.Y; y++ {
				for z := p.Position.Z; z < m.Z; z++ {
					if !c.cells[c.index(x, y, z)] {
						return fmt.Errorf("placement %d (%s) has unmarked cell (%d,%d,%d)", i, p.ItemID, x, y, z)
					}
				}
			}
		}
		total += p.Box.Volume()
	}
	if marked != total {
		return fmt.Errorf("bitmap marks %d cells but placements cover %d", marked, total)
	}
	if total != c.used {
		return fmt.Errorf("used volume %d does not match placements %d", c.used, total)
	}
	return nil
}

// Result snapshots the container into a result document.
func (c *Container) Result() model.PackResult {
	return model.PackResult{
		Container:  c.spec,
		Placements: c.PlacedItems(),
	}
}
