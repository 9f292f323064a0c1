package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CrateStack/internal/model"
)

func cube(n int) model.Box {
	return model.Box{Width: n, Height: n, Depth: n, Weight: 1}
}

func newTestContainer(t *testing.T, w, h, d int) *Container {
	t.Helper()
	c, err := NewContainer(model.ContainerSpec{Width: w, Height: h, Depth: d})
	require.NoError(t, err)
	return c
}

func placeAt(t *testing.T, c *Container, box model.Box, pos model.Position) model.PlacedItem {
	t.Helper()
	p := model.PlacedItem{ItemID: pos.String(), Box: box, Position: pos, Orientation: model.OrientXYZ, Volume: box.Volume()}
	require.NoError(t, c.Commit(p, 0))
	return p
}

func TestNewContainer_RejectsInvalidDims(t *testing.T) {
	_, err := NewContainer(model.ContainerSpec{Width: 10, Height: 0, Depth: 10})
	assert.Error(t, err)
}

func TestNewContainer_RejectsOverflowingDims(t *testing.T) {
	for _, spec := range []model.ContainerSpec{
		{Width: 1 << 21, Height: 1 << 21, Depth: 1 << 22}, // product wraps to 0
		{Width: math.MaxInt, Height: 3, Depth: 1},
		{Width: 1 << 11, Height: 1 << 10, Depth: 1 << 10},
	} {
		c, err := NewContainer(spec)
		assert.Error(t, err, "spec %dx%dx%d", spec.Width, spec.Height, spec.Depth)
		assert.Nil(t, c)
	}
}

func TestFeasible_HugeCoordinatesAreOutOfBounds(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)
	box := model.Box{Width: 5, Height: 1, Depth: 1}

	for _, pos := range []model.Position{
		{X: math.MaxInt - 2},
		{Y: math.MaxInt},
		{Z: math.MaxInt - 4},
		{X: math.MinInt},
	} {
		assert.False(t, c.InBounds(pos, box), "pos %s", pos)
		assert.False(t, c.Feasible(pos, box, 0), "pos %s", pos)
		assert.False(t, c.Feasible(pos, box, math.MaxInt), "pos %s", pos)
	}
	assert.False(t, c.InBounds(model.Position{X: 1}, model.Box{Width: math.MaxInt, Height: 1, Depth: 1}))

	// A huge margin clips to the walls instead of wrapping.
	assert.True(t, c.Feasible(model.Position{X: 2, Y: 2, Z: 2}, cube(2), math.MaxInt))
}

func TestFeasible_Bounds(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)

	assert.True(t, c.Feasible(model.Position{}, cube(10), 0))
	assert.False(t, c.Feasible(model.Position{X: 1}, cube(10), 0))
	assert.False(t, c.Feasible(model.Position{X: -1}, cube(2), 0))
	assert.False(t, c.Feasible(model.Position{}, model.Box{Width: 0, Height: 1, Depth: 1}, 0))
	assert.False(t, c.Feasible(model.Position{}, model.Box{Width: 10, Height: 10, Depth: 11}, 0))
}

func TestFeasible_MarginClippedAtWalls(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)

	// The clearance stops at the walls, so a box in the corner is fine.
	assert.True(t, c.Feasible(model.Position{}, cube(4), 1))
	assert.True(t, c.Feasible(model.Position{X: 6, Y: 6, Z: 6}, cube(4), 3))
}

func TestFeasible_MarginKeepsClearance(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)
	placeAt(t, c, cube(2), model.Position{})

	assert.True(t, c.Feasible(model.Position{X: 2}, cube(2), 0))
	assert.False(t, c.Feasible(model.Position{X: 2}, cube(2), 1))
	assert.True(t, c.Feasible(model.Position{X: 3}, cube(2), 1))
	assert.False(t, c.Feasible(model.Position{X: 3}, cube(2), 2))
}

func TestCommit_Monotonicity(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)
	pos := model.Position{X: 2, Y: 3, Z: 4}
	box := model.Box{Width: 3, Height: 2, Depth: 5}

	require.True(t, c.Feasible(pos, box, 0))
	before := c.PlacedCount()
	placeAt(t, c, box, pos)

	assert.Equal(t, before+1, c.PlacedCount())
	assert.False(t, c.Feasible(pos, box, 0))
	assert.Equal(t, 30, c.UsedVolume())
	assert.Equal(t, 970, c.RemainingVolume())
	assert.InDelta(t, 3.0, c.FillRate(), 1e-9)
	assert.True(t, c.Occupied(2, 3, 4))
	assert.True(t, c.Occupied(4, 4, 8))
	assert.False(t, c.Occupied(5, 3, 4))
	assert.NoError(t, c.Validate())
}

func TestCommit_RejectsOverlap(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)
	placeAt(t, c, cube(4), model.Position{})

	err := c.Commit(model.PlacedItem{ItemID: "x", Box: cube(4), Position: model.Position{X: 2, Y: 2, Z: 2}}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommitRejected))
	assert.Equal(t, 1, c.PlacedCount())
	assert.Equal(t, 64, c.UsedVolume())
	assert.NoError(t, c.Validate())
}

func TestCommit_RejectsOutOfBounds(t *testing.T) {
	c := newTestContainer(t, 5, 5, 5)
	err := c.Commit(model.PlacedItem{ItemID: "x", Box: cube(4), Position: model.Position{X: 2}}, 0)
	assert.ErrorIs(t, err, ErrCommitRejected)
	assert.Equal(t, 0, c.PlacedCount())
}

func TestCommit_RejectsMarginViolation(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)
	placeAt(t, c, cube(2), model.Position{})

	err := c.Commit(model.PlacedItem{ItemID: "x", Box: cube(2), Position: model.Position{X: 2}}, 1)
	assert.ErrorIs(t, err, ErrCommitRejected)
	assert.Equal(t, 1, c.PlacedCount())
}

func TestMarginMonotonicity(t *testing.T) {
	c := newTestContainer(t, 12, 12, 12)
	placeAt(t, c, cube(3), model.Position{X: 4, Y: 4, Z: 4})
	placeAt(t, c, model.Box{Width: 2, Height: 5, Depth: 1}, model.Position{X: 9, Y: 0, Z: 10})

	box := model.Box{Width: 2, Height: 3, Depth: 2}
	for x := 0; x < 12; x++ {
		for y := 0; y < 12; y++ {
			for z := 0; z < 12; z++ {
				pos := model.Position{X: x, Y: y, Z: z}
				for m := 0; m < 3; m++ {
					if c.Feasible(pos, box, m+1) {
						assert.True(t, c.Feasible(pos, box, m), "margin %d feasible at %s but %d not", m+1, pos, m)
					}
				}
			}
		}
	}
}

func TestPlacedItems_ReturnsCopy(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)
	placeAt(t, c, cube(2), model.Position{})

	items := c.PlacedItems()
	items[0].Position = model.Position{X: 8}

	assert.Equal(t, model.Position{}, c.PlacedItems()[0].Position)
	assert.Equal(t, 1, c.PlacedCount())
}

func TestRestore_RoundTrip(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)
	placeAt(t, c, cube(3), model.Position{})
	placeAt(t, c, model.Box{Width: 2, Height: 4, Depth: 6}, model.Position{X: 5, Y: 1, Z: 2})

	restored, err := Restore(c.Result())
	require.NoError(t, err)
	assert.Equal(t, c.PlacedItems(), restored.PlacedItems())
	assert.Equal(t, c.UsedVolume(), restored.UsedVolume())
	assert.NoError(t, restored.Validate())
}

func TestRestore_RejectsOverlappingDocument(t *testing.T) {
	doc := model.PackResult{
		Container: model.ContainerSpec{Width: 10, Height: 10, Depth: 10},
		Placements: []model.PlacedItem{
			{ItemID: "a", Box: cube(4), Position: model.Position{}},
			{ItemID: "b", Box: cube(4), Position: model.Position{X: 3}},
		},
	}
	_, err := Restore(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommitRejected)
}

func TestRestore_RejectsWrappingPosition(t *testing.T) {
	doc := model.PackResult{
		Container: model.ContainerSpec{Width: 10, Height: 10, Depth: 10},
		Placements: []model.PlacedItem{
			{ItemID: "far", Box: model.Box{Width: 5, Height: 1, Depth: 1}, Position: model.Position{X: math.MaxInt - 2}},
		},
	}
	c, err := Restore(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommitRejected)
	assert.Nil(t, c)
}

func TestRestore_RejectsOverflowingContainer(t *testing.T) {
	_, err := Restore(model.PackResult{Container: model.ContainerSpec{Width: 1 << 21, Height: 1 << 21, Depth: 1 << 22}})
	assert.Error(t, err)
}

func TestFeasible_FalseWhenBitmapAndListDisagree(t *testing.T) {
	t.Run("marked cell without a placed item", func(t *testing.T) {
		c := newTestContainer(t, 10, 10, 10)
		c.cells[c.index(2, 2, 2)] = true

		assert.False(t, c.Feasible(model.Position{X: 2, Y: 2, Z: 2}, cube(1), 0))
		assert.False(t, c.Feasible(model.Position{}, cube(4), 0))
		assert.True(t, c.Feasible(model.Position{X: 5}, cube(4), 0))
		assert.Error(t, c.Validate())
	})

	t.Run("placed item without marked cells", func(t *testing.T) {
		c := newTestContainer(t, 10, 10, 10)
		ghost := model.PlacedItem{ItemID: "ghost", Box: cube(2), Position: model.Position{X: 6, Y: 6, Z: 6}, Volume: 8}
		c.placed = append(c.placed, ghost)
		c.used += ghost.Volume

		assert.False(t, c.Occupied(6, 6, 6))
		assert.False(t, c.Feasible(model.Position{X: 6, Y: 6, Z: 6}, cube(1), 0))
		assert.False(t, c.Feasible(model.Position{X: 5, Y: 5, Z: 5}, cube(3), 0))
		assert.True(t, c.Feasible(model.Position{}, cube(4), 0))
		assert.Error(t, c.Validate())
	})

	t.Run("consistent state validates", func(t *testing.T) {
		c := newTestContainer(t, 10, 10, 10)
		placeAt(t, c, cube(2), model.Position{X: 6, Y: 6, Z: 6})
		assert.NoError(t, c.Validate())
	})
}

func TestClone_IsIndependent(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)
	placeAt(t, c, cube(2), model.Position{})

	clone := c.Clone()
	placeAt(t, clone, cube(2), model.Position{X: 5})

	assert.Equal(t, 1, c.PlacedCount())
	assert.Equal(t, 2, clone.PlacedCount())
	assert.False(t, c.Occupied(5, 0, 0))
}
