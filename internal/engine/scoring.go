package engine

import (
	"gonum.org/v1/gonum/floats"

	"github.com/piwi3910/CrateStack/internal/model"
)

// ScoreOptions carries the per-call inputs of a scoring run.
type ScoreOptions struct {
	TightFit bool            // add the profile's tight-fit bonus
	Seed     *model.Position // predicted position, nil when absent
}

// Score rates box at pos inside a container of the given size under profile p.
// Higher is better. Contact terms only look at the six container walls, never
// at neighbouring items.
func Score(p model.ScoreProfile, pos model.Position, box model.Box, spec model.ContainerSpec, opts ScoreOptions) float64 {
	score := -gravityPenalty(p, pos)
	score += spaceEfficiency(p, pos, box, spec) * p.SpaceWeight
	if opts.Seed != nil && p.SeedDistanceWeight != 0 {
		score -= seedDistance(pos, *opts.Seed) * p.SeedDistanceWeight
	}
	score += float64(box.Volume()) * p.VolumeWeight
	score += edgeAlignment(p, pos, box, spec) * p.EdgeWeight
	score += wallContact(p, pos, box, spec) * p.ContactWeight
	score += box.Compactness() * p.CompactnessWeight
	if p.WallTouchBonus != 0 {
		score += float64(touchedWalls(pos, box, spec, p.FarWallTolerance)) * p.WallTouchBonus
	}
	if opts.TightFit {
		score += p.TightFitBonus
	}
	return score
}

func gravityPenalty(p model.ScoreProfile, pos model.Position) float64 {
	return p.GravityZ*float64(pos.Z) + p.GravityY*float64(pos.Y) + p.GravityX*float64(pos.X)
}

// farGaps returns the free distance between the box and the far wall per axis.
func farGaps(pos model.Position, box model.Box, spec model.ContainerSpec) [3]int {
	return [3]int{
		spec.Width - (pos.X + box.Width),
		spec.Height - (pos.Y + box.Height),
		spec.Depth - (pos.Z + box.Depth),
	}
}

func spaceEfficiency(p model.ScoreProfile, pos model.Position, box model.Box, spec model.ContainerSpec) float64 {
	var eff float64
	for _, gap := range farGaps(pos, box, spec) {
		if gap > 0 {
			for _, t := range p.GapTiers {
				if gap < t.Below {
					eff += t.Bonus
					break
				}
			}
		}
		if p.LargeGap > 0 && gap > p.LargeGap {
			eff -= p.LargeGapPenalty
		}
	}
	return eff
}

func edgeAlignment(p model.ScoreProfile, pos model.Position, box model.Box, spec model.ContainerSpec) float64 {
	near := [3]int{pos.X, pos.Y, pos.Z}
	far := [3]int{pos.X + box.Width, pos.Y + box.Height, pos.Z + box.Depth}
	limit := [3]int{spec.Width, spec.Height, spec.Depth}

	var align float64
	for axis := 0; axis < 3; axis++ {
		for _, t := range p.NearEdgeTiers {
			if near[axis] <= t.Within {
				align += t.Bonus
				break
			}
		}
		for _, t := range p.FarEdgeTiers {
			if far[axis] >= limit[axis]-t.Within {
				align += t.Bonus
				break
			}
		}
	}
	return align
}

func wallContact(p model.ScoreProfile, pos model.Position, box model.Box, spec model.ContainerSpec) float64 {
	near := [3]int{pos.X, pos.Y, pos.Z}
	far := [3]int{pos.X + box.Width, pos.Y + box.Height, pos.Z + box.Depth}
	limit := [3]int{spec.Width, spec.Height, spec.Depth}

	var contact float64
	for axis := 0; axis < 3; axis++ {
		if near[axis] == 0 {
			contact += p.NearWallContact
		}
		if p.FarWallContact != 0 && far[axis] >= limit[axis]-p.FarWallTolerance {
			contact += p.FarWallContact
		}
	}
	return contact
}

// touchedWalls counts the container walls the box touches; far walls count
// within tolerance cells.
func touchedWalls(pos model.Position, box model.Box, spec model.ContainerSpec, tolerance int) int {
	n := 0
	if pos.X == 0 {
		n++
	}
	if pos.Y == 0 {
		n++
	}
	if pos.Z == 0 {
		n++
	}
	if pos.X+box.Width >= spec.Width-tolerance {
		n++
	}
	if pos.Y+box.Height >= spec.Height-tolerance {
		n++
	}
	if pos.Z+box.Depth >= spec.Depth-tolerance {
		n++
	}
	return n
}

func seedDistance(pos, seed model.Position) float64 {
	a := []float64{float64(pos.X), float64(pos.Y), float64(pos.Z)}
	b := []float64{float64(seed.X), float64(seed.Y), float64(seed.Z)}
	return floats.Distance(a, b, 2)
}
