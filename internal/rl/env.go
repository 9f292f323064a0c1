package rl

import (
	"github.com/piwi3910/CrateStack/internal/engine"
	"github.com/piwi3910/CrateStack/internal/model"
)

// Environment executes agent actions against one container.
type Environment struct {
	container *engine.Container
	reward    model.Reward
	penalty   float64
}

func NewEnvironment(c *engine.Container, settings model.RLSettings) *Environment {
	return &Environment{container: c, reward: settings.Reward, penalty: settings.FailurePenalty}
}

func (e *Environment) Container() *engine.Container { return e.container }

func (e *Environment) State() State { return StateOf(e.container) }

// Resolve turns an action into a concrete placement: the box is rotated and the
// position clamped so the rotated box stays inside the container where possible.
func Resolve(spec model.ContainerSpec, item model.Item, a Action) (model.PlacedItem, bool) {
	if !a.Orientation.Valid() {
		return model.PlacedItem{}, false
	}
	rb := a.Orientation.Apply(item.Box())
	pos := model.Position{
		X: max(0, min(spec.Width-rb.Width, a.Position.X)),
		Y: max(0, min(spec.Height-rb.Height, a.Position.Y)),
		Z: max(0, min(spec.Depth-rb.Depth, a.Position.Z)),
	}
	placed := model.NewPlacedItem(item, a.Orientation, pos)
	placed.Pass = model.PassPolicy
	return placed, true
}

// Execute resolves the action and commits it without clearance. It reports
// false when the resolved placement is not feasible.
func (e *Environment) Execute(item model.Item, a Action) (model.PlacedItem, bool) {
	placed, ok := Resolve(e.container.Spec(), item, a)
	if !ok || !e.container.Feasible(placed.Position, placed.Box, 0) {
		return model.PlacedItem{}, false
	}
	if err := e.container.Commit(placed, 0); err != nil {
		return model.PlacedItem{}, false
	}
	return placed, true
}

// Step executes the action and returns its reward. Failed actions earn the
// failure penalty.
func (e *Environment) Step(item model.Item, a Action) (float64, model.PlacedItem, bool) {
	placed, ok := e.Execute(item, a)
	if !ok {
		return e.penalty, model.PlacedItem{}, false
	}
	c := e.container
	return Reward(e.reward, placed, c.Spec(), c.UsedVolume(), c.PlacedCount()), placed, true
}

// Reward scores a committed placement given the container totals after the
// commit.
func Reward(r model.Reward, p model.PlacedItem, spec model.ContainerSpec, usedVolume, placedCount int) float64 {
	reward := r.Base

	fill := float64(usedVolume) / float64(spec.Volume()) * 100
	for _, t := range r.FillTiers {
		if fill > t.Above {
			reward += t.Bonus
			break
		}
	}

	reward += float64(placedCount) * r.PerPlaced

	near := [3]int{p.Position.X, p.Position.Y, p.Position.Z}
	far := [3]int{p.Position.X + p.Box.Width, p.Position.Y + p.Box.Height, p.Position.Z + p.Box.Depth}
	limit := [3]int{spec.Width, spec.Height, spec.Depth}
	for axis := 0; axis < 3; axis++ {
		if near[axis] <= r.EdgeTolerance || far[axis] >= limit[axis]-r.EdgeTolerance {
			reward += r.EdgeBonus
		}
		if gap := limit[axis] - far[axis]; gap > 0 && gap < r.SmallGap {
			reward += r.SmallGapBonus
		}
	}

	reward -= r.GravityZ*float64(p.Position.Z) + r.GravityY*float64(p.Position.Y) + r.GravityX*float64(p.Position.X)

	if p.Position.X == 0 || p.Position.Y == 0 || p.Position.Z == 0 {
		reward += r.NearWallBonus
	}
	return reward
}
