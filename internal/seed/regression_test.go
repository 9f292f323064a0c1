package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CrateStack/internal/engine"
	"github.com/piwi3910/CrateStack/internal/model"
)

func linearPlacements() []model.PlacedItem {
	boxes := []model.Box{
		{Width: 1, Height: 2, Depth: 3, Weight: 1},
		{Width: 4, Height: 1, Depth: 2, Weight: 5},
		{Width: 2, Height: 5, Depth: 1, Weight: 2},
		{Width: 3, Height: 3, Depth: 4, Weight: 0},
		{Width: 5, Height: 2, Depth: 2, Weight: 3},
		{Width: 2, Height: 4, Depth: 5, Weight: 4},
		{Width: 6, Height: 1, Depth: 3, Weight: 2},
	}
	out := make([]model.PlacedItem, len(boxes))
	for i, b := range boxes {
		out[i] = model.PlacedItem{
			Box: b,
			// x = 2w, y = w+h, z = 3
			Position: model.Position{X: 2 * b.Width, Y: b.Width + b.Height, Z: 3},
		}
	}
	return out
}

func TestFit_RecoversLinearLayout(t *testing.T) {
	r, err := Fit(linearPlacements())
	require.NoError(t, err)
	assert.Equal(t, 7, r.Samples())

	pos, ok := r.PredictSeed(model.Item{LengthX: 7, LengthY: 2, LengthZ: 6, Weight: 1})
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 14, Y: 9, Z: 3}, pos)
}

func TestFit_NoData(t *testing.T) {
	_, err := Fit(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFit_RepeatedInputsStillSolve(t *testing.T) {
	p := model.PlacedItem{Box: model.Box{Width: 2, Height: 2, Depth: 2, Weight: 1}, Position: model.Position{X: 4}}
	r, err := Fit([]model.PlacedItem{p, p, p})
	require.NoError(t, err)

	pos, ok := r.PredictSeed(model.Item{LengthX: 2, LengthY: 2, LengthZ: 2, Weight: 1})
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 4}, pos)
}

func TestPredictSeed_NilModel(t *testing.T) {
	var r *Regression
	_, ok := r.PredictSeed(model.Item{LengthX: 1, LengthY: 1, LengthZ: 1})
	assert.False(t, ok)
}

func TestRegression_IsASeedOracle(t *testing.T) {
	r, err := Fit(linearPlacements())
	require.NoError(t, err)

	opt := engine.New(model.DefaultPackSettings())
	p, err := opt.NewPacking(model.ContainerSpec{Width: 20, Height: 20, Depth: 20})
	require.NoError(t, err)

	placed, out := p.PlaceSeeded(context.Background(), model.Item{ID: "n", LengthX: 2, LengthY: 2, LengthZ: 2}, r)
	require.Equal(t, model.OutcomePlaced, out)
	assert.Equal(t, model.PassSeeded, placed.Pass)
	assert.True(t, p.Container().InBounds(placed.Position, placed.Box))
}
