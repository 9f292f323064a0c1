package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CrateStack/internal/model"
)

func TestAdaptiveStride(t *testing.T) {
	assert.Equal(t, 1, AdaptiveStride(cube(4)))
	assert.Equal(t, 2, AdaptiveStride(cube(10)))
	assert.Equal(t, 3, AdaptiveStride(cube(20)))
	assert.Equal(t, 1, AdaptiveStride(model.Box{Width: 30, Height: 30, Depth: 2}))
}

func TestRotations_SixPermutations(t *testing.T) {
	rots := Rotations(model.Box{Width: 1, Height: 2, Depth: 3, Weight: 7})
	require.Len(t, rots, 6)
	for i, r := range rots {
		assert.Equal(t, model.Orientations[i], r.Orientation)
		assert.Equal(t, 6, r.Box.Volume())
		assert.Equal(t, 7.0, r.Box.Weight)
	}
	assert.Equal(t, model.Box{Width: 3, Height: 2, Depth: 1, Weight: 7}, rots[2].Box)
}

func TestAdaptiveScan_FirstFitInRasterOrder(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t, 10, 10, 10)

	pos, ok := AdaptiveScan{}.Find(ctx, c, cube(5))
	require.True(t, ok)
	assert.Equal(t, model.Position{}, pos)

	placeAt(t, c, model.Box{Width: 5, Height: 10, Depth: 10}, model.Position{})
	pos, ok = AdaptiveScan{}.Find(ctx, c, cube(5))
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 5}, pos)

	_, ok = AdaptiveScan{Margin: 1}.Find(ctx, c, cube(5))
	assert.False(t, ok, "no room for clearance next to the wall block")
}

func TestAdaptiveScan_PrefersLowZ(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)
	placeAt(t, c, model.Box{Width: 10, Height: 10, Depth: 3}, model.Position{})

	pos, ok := AdaptiveScan{}.Find(context.Background(), c, cube(2))
	require.True(t, ok)
	assert.Equal(t, model.Position{Z: 3}, pos)
}

// stepped builds a 6x6x6 container whose floor, front row and left column are
// filled, so the first free 2x2x2 position does not touch any wall.
func stepped(t *testing.T) *Container {
	c := newTestContainer(t, 6, 6, 6)
	placeAt(t, c, model.Box{Width: 6, Height: 6, Depth: 1}, model.Position{})
	placeAt(t, c, model.Box{Width: 6, Height: 1, Depth: 5}, model.Position{Z: 1})
	placeAt(t, c, model.Box{Width: 1, Height: 5, Depth: 5}, model.Position{Y: 1, Z: 1})
	return c
}

func TestGridScan_TightFitOnly(t *testing.T) {
	ctx := context.Background()
	c := stepped(t)

	pos, ok := GridScan{Stride: 1}.Find(ctx, c, cube(2))
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 1, Y: 1, Z: 1}, pos)
	assert.False(t, IsTightFit(c.Spec(), pos, cube(2)))

	pos, ok = GridScan{Stride: 1, TightFitOnly: true}.Find(ctx, c, cube(2))
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 4, Y: 1, Z: 1}, pos)
	assert.True(t, IsTightFit(c.Spec(), pos, cube(2)))
}

func TestGridScan_Stride(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)
	placeAt(t, c, model.Box{Width: 3, Height: 10, Depth: 10}, model.Position{})

	pos, ok := GridScan{Stride: 2}.Find(context.Background(), c, cube(2))
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 4}, pos)
}

func TestGridScan_Budget(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t, 10, 10, 10)
	placeAt(t, c, cube(1), model.Position{})

	_, ok := GridScan{Stride: 1, Budget: 1}.Find(ctx, c, cube(1))
	assert.False(t, ok)

	pos, ok := GridScan{Stride: 1, Budget: 2}.Find(ctx, c, cube(1))
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 1}, pos)
}

func TestGridScan_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestContainer(t, 10, 10, 10)

	_, ok := GridScan{Stride: 1}.Find(ctx, c, cube(2))
	assert.False(t, ok)
}

func TestSeedScan_RasterOrderInsideRadius(t *testing.T) {
	c := newTestContainer(t, 10, 10, 10)

	pos, ok := SeedScan{Seed: model.Position{X: 5, Y: 5, Z: 5}, Radius: 1}.Find(context.Background(), c, cube(2))
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 4, Y: 4, Z: 4}, pos)
}

func TestSeedScan_FallsBackToFullScan(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t, 10, 10, 10)
	placeAt(t, c, cube(5), model.Position{X: 3, Y: 3, Z: 3})

	pos, ok := SeedScan{Seed: model.Position{X: 5, Y: 5, Z: 5}, Radius: 1}.Find(ctx, c, cube(2))
	require.True(t, ok)
	assert.Equal(t, model.Position{}, pos)

	pos, ok = SeedScan{Seed: model.Position{X: 50, Y: -40, Z: 50}, Radius: 10}.Find(ctx, c, cube(2))
	require.True(t, ok)
	assert.Equal(t, model.Position{}, pos)
}

func TestSeedScan_NothingFits(t *testing.T) {
	c := newTestContainer(t, 4, 4, 4)
	placeAt(t, c, cube(3), model.Position{})

	_, ok := SeedScan{Seed: model.Position{X: 1, Y: 1, Z: 1}, Radius: 10}.Find(context.Background(), c, cube(2))
	assert.False(t, ok)
}
