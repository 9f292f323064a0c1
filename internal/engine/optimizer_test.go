package engine

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CrateStack/internal/model"
)

func item(id string, x, y, z int, weight float64) model.Item {
	return model.Item{ID: id, Label: id, LengthX: x, LengthY: y, LengthZ: z, Weight: weight}
}

func randomItems(seed int64, n, maxEdge int) []model.Item {
	rng := rand.New(rand.NewSource(seed))
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{
			ID:      string(rune('a'+i%26)) + string(rune('0'+i/26)),
			LengthX: 1 + rng.Intn(maxEdge),
			LengthY: 1 + rng.Intn(maxEdge),
			LengthZ: 1 + rng.Intn(maxEdge),
			Weight:  float64(rng.Intn(20)),
		}
	}
	return items
}

func assertNoOverlapInBounds(t *testing.T, res model.PackResult) {
	t.Helper()
	for i, a := range res.Placements {
		am := a.Max()
		assert.GreaterOrEqual(t, a.Position.X, 0)
		assert.GreaterOrEqual(t, a.Position.Y, 0)
		assert.GreaterOrEqual(t, a.Position.Z, 0)
		assert.LessOrEqual(t, am.X, res.Container.Width)
		assert.LessOrEqual(t, am.Y, res.Container.Height)
		assert.LessOrEqual(t, am.Z, res.Container.Depth)
		for _, b := range res.Placements[i+1:] {
			bm := b.Max()
			overlap := a.Position.X < bm.X && am.X > b.Position.X &&
				a.Position.Y < bm.Y && am.Y > b.Position.Y &&
				a.Position.Z < bm.Z && am.Z > b.Position.Z
			assert.False(t, overlap, "%s and %s overlap", a.ItemID, b.ItemID)
		}
	}
}

func TestOptimize_SingleCubeAtOrigin(t *testing.T) {
	opt := New(model.DefaultPackSettings())
	res, err := opt.Optimize(context.Background(), spec10, []model.Item{item("a", 4, 4, 4, 1)})
	require.NoError(t, err)

	require.Len(t, res.Placements, 1)
	assert.Empty(t, res.Unplaced)
	p := res.Placements[0]
	assert.Equal(t, model.Position{}, p.Position)
	assert.Equal(t, model.OrientXYZ, p.Orientation)
	assert.Equal(t, model.PassSmall, p.Pass)
	assert.Equal(t, 64, p.Volume)
}

func TestOptimize_ItemTooBigIsReported(t *testing.T) {
	opt := New(model.DefaultPackSettings())
	spec := model.ContainerSpec{Width: 10, Height: 10, Depth: 9}
	res, err := opt.Optimize(context.Background(), spec, []model.Item{item("big", 10, 10, 10, 1)})
	require.NoError(t, err)

	assert.Empty(t, res.Placements)
	require.Len(t, res.Unplaced, 1)
	assert.Equal(t, model.OutcomeNotFound, res.Unplaced[0].Outcome)
	assert.Equal(t, model.PassLarge, res.Unplaced[0].Pass)
}

func TestOptimize_LargerItemCommittedFirst(t *testing.T) {
	opt := New(model.DefaultPackSettings())
	items := []model.Item{item("five", 5, 5, 5, 1), item("six", 6, 6, 6, 1)}
	res, err := opt.Optimize(context.Background(), spec10, items)
	require.NoError(t, err)

	require.NotEmpty(t, res.Placements)
	assert.Equal(t, "six", res.Placements[0].ItemID)
	assert.Equal(t, model.Position{}, res.Placements[0].Position)
	assert.Equal(t, model.PassLarge, res.Placements[0].Pass)

	// A 5-cube cannot share a 10-cube with a 6-cube on any axis.
	require.Len(t, res.Unplaced, 1)
	assert.Equal(t, "five", res.Unplaced[0].Item.ID)
	assert.Equal(t, model.PassTiny, res.Unplaced[0].Pass)
}

func TestOptimize_TinyPassSqueezesWithoutClearance(t *testing.T) {
	opt := New(model.DefaultPackSettings())
	spec := model.ContainerSpec{Width: 5, Height: 5, Depth: 10}
	items := []model.Item{item("slab", 5, 5, 1, 1), item("block", 5, 5, 9, 1)}

	res, err := opt.Optimize(context.Background(), spec, items)
	require.NoError(t, err)

	require.Len(t, res.Placements, 2)
	assert.Empty(t, res.Unplaced)
	assert.Equal(t, "block", res.Placements[0].ItemID)
	assert.Equal(t, model.PassLarge, res.Placements[0].Pass)
	slab := res.Placements[1]
	assert.Equal(t, "slab", slab.ItemID)
	assert.Equal(t, model.PassTiny, slab.Pass)
	assert.Equal(t, model.Position{Z: 9}, slab.Position)
	assert.Equal(t, model.OrientXYZ, slab.Orientation)
	assert.InDelta(t, 100.0, res.FillRate(), 1e-9)
}

func TestOptimize_Deterministic(t *testing.T) {
	items := randomItems(11, 30, 7)
	spec := model.ContainerSpec{Width: 16, Height: 16, Depth: 16}

	first, err := New(model.DefaultPackSettings()).Optimize(context.Background(), spec, items)
	require.NoError(t, err)
	second, err := New(model.DefaultPackSettings()).Optimize(context.Background(), spec, items)
	require.NoError(t, err)

	assert.Equal(t, first.Placements, second.Placements)
	assert.Equal(t, first.Unplaced, second.Unplaced)
}

func TestOptimize_ParallelMatchesSequential(t *testing.T) {
	items := randomItems(5, 25, 8)
	spec := model.ContainerSpec{Width: 16, Height: 16, Depth: 16}

	seq, err := New(model.DefaultPackSettings()).Optimize(context.Background(), spec, items)
	require.NoError(t, err)

	settings := model.DefaultPackSettings()
	settings.Parallel = true
	par, err := New(settings).Optimize(context.Background(), spec, items)
	require.NoError(t, err)

	assert.Equal(t, seq.Placements, par.Placements)
}

func TestOptimize_NoOverlapAndBounds(t *testing.T) {
	items := randomItems(7, 40, 8)
	spec := model.ContainerSpec{Width: 20, Height: 20, Depth: 20}

	res, err := New(model.DefaultPackSettings()).Optimize(context.Background(), spec, items)
	require.NoError(t, err)

	assert.Equal(t, len(items), len(res.Placements)+len(res.Unplaced))
	assertNoOverlapInBounds(t, res)

	restored, err := Restore(res)
	require.NoError(t, err)
	assert.NoError(t, restored.Validate())
}

func TestOptimize_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(model.DefaultPackSettings()).Optimize(ctx, spec10, []model.Item{item("a", 2, 2, 2, 1)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptimize_InvalidContainer(t *testing.T) {
	_, err := New(model.DefaultPackSettings()).Optimize(context.Background(), model.ContainerSpec{}, nil)
	assert.Error(t, err)
}

func TestSortItems(t *testing.T) {
	items := []model.Item{
		item("small", 1, 1, 1, 0),
		item("flat", 1, 6, 6, 1),
		item("block", 6, 3, 2, 1),
		item("light", 2, 2, 6, 1),
		item("heavy", 2, 2, 6, 5),
		item("squat", 2, 3, 4, 9),
		item("big", 5, 5, 5, 0),
	}
	sorted := SortItems(items)

	ids := make([]string, len(sorted))
	for i, it := range sorted {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"big", "block", "flat", "heavy", "light", "squat", "small"}, ids)
	assert.Equal(t, "small", items[0].ID, "input must not be reordered")
}

type fixedSeed struct {
	pos model.Position
	ok  bool
}

func (f fixedSeed) PredictSeed(model.Item) (model.Position, bool) { return f.pos, f.ok }

func TestPlaceSeeded(t *testing.T) {
	settings := model.DefaultPackSettings()
	opt := New(settings)

	oracles := map[string]SeedOracle{
		"near seed":    fixedSeed{pos: model.Position{X: 4, Y: 4, Z: 6}, ok: true},
		"no oracle":    nil,
		"no seed":      fixedSeed{ok: false},
		"out of range": fixedSeed{pos: model.Position{X: -20, Y: 99, Z: 3}, ok: true},
	}
	for name, oracle := range oracles {
		t.Run(name, func(t *testing.T) {
			p, err := opt.NewPacking(spec10)
			require.NoError(t, err)
			require.NoError(t, p.Container().Commit(model.PlacedItem{
				ItemID: "floor", Box: model.Box{Width: 10, Height: 10, Depth: 5}, Orientation: model.OrientXYZ,
			}, 0))

			placed, out := p.PlaceSeeded(context.Background(), item("new", 2, 2, 2, 1), oracle)
			require.Equal(t, model.OutcomePlaced, out)
			assert.Equal(t, model.Position{Z: 5}, placed.Position)
			assert.Equal(t, model.PassSeeded, placed.Pass)
			assert.Equal(t, 2, p.Container().PlacedCount())
		})
	}
}

func TestPlaceSeeded_FullContainer(t *testing.T) {
	p, err := New(model.DefaultPackSettings()).NewPacking(model.ContainerSpec{Width: 2, Height: 2, Depth: 2})
	require.NoError(t, err)
	require.NoError(t, p.Container().Commit(model.PlacedItem{ItemID: "fill", Box: cube(2)}, 0))

	_, out := p.PlaceSeeded(context.Background(), item("late", 1, 1, 1, 1), fixedSeed{ok: true})
	assert.Equal(t, model.OutcomeNotFound, out)
	require.Len(t, p.Result().Unplaced, 1)
	assert.Equal(t, model.PassSeeded, p.Result().Unplaced[0].Pass)
}

// occupiedSearch always answers with the origin, even when it is taken.
type occupiedSearch struct{}

func (occupiedSearch) Find(context.Context, *Container, model.Box) (model.Position, bool) {
	return model.Position{}, true
}

func TestPlaceWith_RejectionIsDistinctFromNotFound(t *testing.T) {
	p, err := New(model.DefaultPackSettings()).NewPacking(spec10)
	require.NoError(t, err)
	require.NoError(t, p.Container().Commit(model.PlacedItem{ItemID: "first", Box: cube(3)}, 0))

	_, out := p.placeWith(context.Background(), item("second", 2, 2, 2, 1), model.PassSmall,
		occupiedSearch{}, model.DefaultSmallProfile(), ScoreOptions{}, 1)
	assert.Equal(t, model.OutcomeRejected, out)
	assert.Equal(t, 1, p.Container().PlacedCount())
	assert.NoError(t, p.Container().Validate())
}

type stubAdvisor struct {
	o   model.Orientation
	pos model.Position
}

func (a stubAdvisor) Suggest(*Container, model.Item) (model.Orientation, model.Position, bool) {
	return a.o, a.pos, true
}

func TestOptimize_AdvisorProposalUsedWhenFeasible(t *testing.T) {
	opt := New(model.DefaultPackSettings(), WithAdvisor(stubAdvisor{o: model.OrientZYX, pos: model.Position{X: 5, Y: 5, Z: 5}}))
	res, err := opt.Optimize(context.Background(), spec10, []model.Item{item("a", 1, 2, 3, 1)})
	require.NoError(t, err)

	require.Len(t, res.Placements, 1)
	assert.Equal(t, model.PassPolicy, res.Placements[0].Pass)
	assert.Equal(t, model.Position{X: 5, Y: 5, Z: 5}, res.Placements[0].Position)
	assert.Equal(t, model.Box{Width: 3, Height: 2, Depth: 1, Weight: 1}, res.Placements[0].Box)
}

func TestOptimize_AdvisorFallsBackWhenInfeasible(t *testing.T) {
	opt := New(model.DefaultPackSettings(), WithAdvisor(stubAdvisor{o: model.OrientXYZ, pos: model.Position{X: 9, Y: 9, Z: 9}}))
	res, err := opt.Optimize(context.Background(), spec10, []model.Item{item("a", 4, 4, 4, 1)})
	require.NoError(t, err)

	require.Len(t, res.Placements, 1)
	assert.Equal(t, model.PassSmall, res.Placements[0].Pass)
	assert.Equal(t, model.Position{}, res.Placements[0].Position)
}
