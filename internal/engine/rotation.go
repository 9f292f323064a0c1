package engine

import "github.com/piwi3910/CrateStack/internal/model"

// Rotation pairs an orientation label with the box it produces.
type Rotation struct {
	Orientation model.Orientation
	Box         model.Box
}

// Rotations returns the six axis permutations of b in evaluation order.
// Reflections are not modelled, so a cube yields six identical boxes.
func Rotations(b model.Box) []Rotation {
	out := make([]Rotation, len(model.Orientations))
	for i, o := range model.Orientations {
		out[i] = Rotation{Orientation: o, Box: o.Apply(b)}
	}
	return out
}
