package ops

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var errSingularSystem = errors.New("singular least-squares system")

// savGol fits a polynomial of the given order to every window of odd size
// and evaluates it at the window centre. The first and last half-windows are
// taken from the polynomial fitted to the first and last full window.
func savGol(values []float64, window, order int) ([]float64, error) {
	n := len(values)
	if window <= order {
		return nil, fmt.Errorf("%w: size %d must exceed polynomial order %d", ErrInvalidWindow, window, order)
	}
	if window > n {
		return nil, fmt.Errorf("%w: size %d exceeds the %d available samples", ErrInvalidWindow, window, n)
	}

	half := window / 2
	out := make([]float64, n)

	centre, err := savGolWeights(window, order, 0)
	if err != nil {
		return nil, err
	}
	for i := half; i < n-half; i++ {
		out[i] = floats.Dot(centre, values[i-half:i+half+1])
	}

	first := values[:window]
	last := values[n-window:]
	for i := 0; i < half; i++ {
		w, err := savGolWeights(window, order, float64(i-half))
		if err != nil {
			return nil, err
		}
		out[i] = floats.Dot(w, first)

		w, err = savGolWeights(window, order, float64(half-i))
		if err != nil {
			return nil, err
		}
		out[n-1-i] = floats.Dot(w, last)
	}

	return out, nil
}

// savGolWeights returns the weights that evaluate the least-squares
// polynomial through a window (sample offsets -half..half) at offset t.
// Offsets are scaled by half to keep the normal equations well conditioned.
func savGolWeights(window, order int, t float64) ([]float64, error) {
	half := float64(window / 2)
	terms := order + 1

	// design matrix A[j][k] = u_j^k
	design := mat.NewDense(window, terms, nil)
	for j := range window {
		u := (float64(j) - half) / half
		for k := range terms {
			design.Set(j, k, math.Pow(u, float64(k)))
		}
	}

	var normal mat.SymDense
	normal.SymOuterK(1, design.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&normal); !ok {
		return nil, errSingularSystem
	}

	// solve (AᵀA) b = v(t), then weights = A b
	basis := mat.NewVecDense(terms, nil)
	for k := range terms {
		basis.SetVec(k, math.Pow(t/half, float64(k)))
	}
	var coef mat.VecDense
	if err := chol.SolveVecTo(&coef, basis); err != nil {
		return nil, fmt.Errorf("%w: %w", errSingularSystem, err)
	}

	var weights mat.VecDense
	weights.MulVec(design, &coef)
	return mat.Col(nil, 0, &weights), nil
}
