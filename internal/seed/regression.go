// Package seed predicts approximate positions for new items from earlier
// placements. Predictions are hints for the seeded search, never placements.
package seed

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/piwi3910/CrateStack/internal/model"
)

// ErrNoData is returned when there is nothing to fit.
var ErrNoData = errors.New("no placements to fit")

// ridge keeps the normal equations solvable when inputs repeat.
const ridge = 1e-6

const features = 5 // width, height, depth, weight, intercept

// Regression maps item dimensions and weight to a position by ordinary least
// squares, one output column per axis.
type Regression struct {
	coef *mat.Dense // features x 3
	n    int
}

// Fit learns position ~ (width, height, depth, weight, 1) from placements.
func Fit(placements []model.PlacedItem) (*Regression, error) {
	n := len(placements)
	if n == 0 {
		return nil, ErrNoData
	}
	x := mat.NewDense(n, features, nil)
	y := mat.NewDense(n, 3, nil)
	for i, p := range placements {
		x.SetRow(i, featureRow(p.Box))
		y.SetRow(i, []float64{float64(p.Position.X), float64(p.Position.Y), float64(p.Position.Z)})
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	for i := 0; i < features; i++ {
		xtx.SetSym(i, i, xtx.At(i, i)+ridge)
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, errors.New("normal equations are not positive definite")
	}

	var xty, coef mat.Dense
	xty.Mul(x.T(), y)
	if err := chol.SolveTo(&coef, &xty); err != nil {
		return nil, err
	}
	return &Regression{coef: &coef, n: n}, nil
}

func featureRow(b model.Box) []float64 {
	return []float64{float64(b.Width), float64(b.Height), float64(b.Depth), b.Weight, 1}
}

// Samples returns the number of placements the model was fitted on.
func (r *Regression) Samples() int { return r.n }

// PredictSeed returns the rounded predicted position for item in its input
// orientation. The result may lie outside any container.
func (r *Regression) PredictSeed(item model.Item) (model.Position, bool) {
	if r == nil || r.coef == nil {
		return model.Position{}, false
	}
	f := mat.NewVecDense(features, featureRow(item.Box()))
	var out mat.VecDense
	out.MulVec(r.coef.T(), f)
	for i := 0; i < 3; i++ {
		if math.IsNaN(out.AtVec(i)) || math.IsInf(out.AtVec(i), 0) {
			return model.Position{}, false
		}
	}
	return model.Position{
		X: int(math.Round(out.AtVec(0))),
		Y: int(math.Round(out.AtVec(1))),
		Z: int(math.Round(out.AtVec(2))),
	}, true
}
