package rl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CrateStack/internal/engine"
	"github.com/piwi3910/CrateStack/internal/model"
)

func newEnv(t *testing.T) *Environment {
	t.Helper()
	c, err := engine.NewContainer(spec10)
	require.NoError(t, err)
	return NewEnvironment(c, model.DefaultRLSettings())
}

func TestReward_CornerPlacement(t *testing.T) {
	p := model.PlacedItem{Box: model.Box{Width: 4, Height: 4, Depth: 4}}
	// base 2000, one placed 50, three edge axes 900, near wall 150
	assert.InDelta(t, 3100.0, Reward(model.DefaultReward(), p, spec10, 64, 1), 1e-9)
}

func TestReward_FillTierAndGravity(t *testing.T) {
	p := model.PlacedItem{Box: model.Box{Width: 9, Height: 9, Depth: 9}, Position: model.Position{X: 1, Y: 1, Z: 1}}
	// fill 72.9% earns 100, gravity costs 5+2+1, no wall is touched
	assert.InDelta(t, 3042.0, Reward(model.DefaultReward(), p, spec10, 729, 1), 1e-9)
}

func TestReward_SmallGaps(t *testing.T) {
	p := model.PlacedItem{Box: model.Box{Width: 3, Height: 3, Depth: 3}, Position: model.Position{X: 4, Y: 4, Z: 4}}
	// gaps of 3 on every axis earn 600; no edge within 2; gravity 20+8+4
	assert.InDelta(t, 2000.0+50+600-32, Reward(model.DefaultReward(), p, spec10, 27, 1), 1e-9)
}

func TestResolve_ClampsIntoBounds(t *testing.T) {
	it := model.Item{ID: "a", LengthX: 4, LengthY: 2, LengthZ: 1}
	placed, ok := Resolve(spec10, it, Action{Position: model.Position{X: 9, Y: -3, Z: 20}, Orientation: model.OrientZYX})
	require.True(t, ok)
	assert.Equal(t, model.Box{Width: 1, Height: 2, Depth: 4}, placed.Box)
	assert.Equal(t, model.Position{X: 9, Y: 0, Z: 6}, placed.Position)
	assert.Equal(t, model.PassPolicy, placed.Pass)

	_, ok = Resolve(spec10, it, Action{Orientation: "QQQ"})
	assert.False(t, ok)
}

func TestStep_SuccessAndFailure(t *testing.T) {
	env := newEnv(t)
	it := model.Item{ID: "a", LengthX: 4, LengthY: 4, LengthZ: 4, Weight: 1}

	reward, placed, ok := env.Step(it, DefaultAction)
	require.True(t, ok)
	assert.InDelta(t, 3100.0, reward, 1e-9)
	assert.Equal(t, model.Position{}, placed.Position)
	assert.Equal(t, 1, env.Container().PlacedCount())

	reward, _, ok = env.Step(model.Item{ID: "b", LengthX: 2, LengthY: 2, LengthZ: 2}, Action{Position: model.Position{X: 1, Y: 1, Z: 1}, Orientation: model.OrientXYZ})
	assert.False(t, ok)
	assert.Equal(t, -1000.0, reward)
	assert.Equal(t, 1, env.Container().PlacedCount())
}

func TestStep_TooLargeNeverPlaces(t *testing.T) {
	env := newEnv(t)
	reward, _, ok := env.Step(model.Item{ID: "big", LengthX: 11, LengthY: 1, LengthZ: 1}, DefaultAction)
	assert.False(t, ok)
	assert.Equal(t, -1000.0, reward)
}
