// Package quest implements the QUEST algorithm (Shuster's closed-form
// solution to Wahba's problem): given a set of weighted direction
// matches, it returns the quaternion rotating catalog vectors onto
// observed vectors.
package quest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/lodestar-space/startracker/pkg/triangle"
	"github.com/lodestar-space/startracker/pkg/units"
	"github.com/lodestar-space/startracker/pkg/xerrors"
)

/*****************************************************************************************************************/

// Estimate computes the attitude quaternion from a set of matches
// between observed directions (Match.Input) and catalog directions
// (Match.Output), each carrying a confidence Weight. Weights need not
// already sum to one; Estimate normalises them internally.
func Estimate(matches []triangle.Match[units.Vector3]) (units.Quaternion, error) {
	if len(matches) == 0 {
		return units.Quaternion{}, fmt.Errorf("quest requires at least one match: %w", xerrors.ErrInvalidSize)
	}

	totalWeight := 0.0
	for _, m := range matches {
		totalWeight += m.Weight
	}
	if totalWeight <= 0 {
		return units.Quaternion{}, fmt.Errorf("quest requires a positive total weight: %w", xerrors.ErrInvalidValue)
	}

	b := attitudeProfileMatrix(matches, totalWeight)

	var s mat.Dense
	s.Add(b, b.T())

	z := units.Vector3{
		X: b.At(1, 2) - b.At(2, 1),
		Y: b.At(2, 0) - b.At(0, 2),
		Z: b.At(0, 1) - b.At(1, 0),
	}
	sigma := mat.Trace(b)

	lambda, err := maxEigenvalue(&s, z, sigma)
	if err != nil {
		return units.Quaternion{}, err
	}

	y, err := classicalRodriguesParameter(&s, z, sigma, lambda)
	if err != nil {
		return units.Quaternion{}, err
	}

	norm := math.Sqrt(1 + y.Dot(y))
	if norm == 0 || math.IsNaN(norm) {
		return units.Quaternion{}, fmt.Errorf("quest produced a degenerate Rodrigues vector: %w", xerrors.ErrNaN)
	}

	return units.Quaternion{W: 1 / norm, X: y.X / norm, Y: y.Y / norm, Z: y.Z / norm}, nil
}

/*****************************************************************************************************************/

// attitudeProfileMatrix builds B = Sum(w_i * catalog_i * observed_i^T).
func attitudeProfileMatrix(matches []triangle.Match[units.Vector3], totalWeight float64) *mat.Dense {
	b := mat.NewDense(3, 3, nil)
	for _, m := range matches {
		w := m.Weight / totalWeight
		cat := m.Output
		obs := m.Input

		row := [3]float64{cat.X, cat.Y, cat.Z}
		col := [3]float64{obs.X, obs.Y, obs.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				b.Set(r, c, b.At(r, c)+w*row[r]*col[c])
			}
		}
	}
	return b
}

/*****************************************************************************************************************/

// maxEigenvalue returns the largest eigenvalue of the 4x4 K-matrix
//
//	K = [ sigma  z^T ]
//	    [ z      S - sigma*I ]
//
// via a full symmetric eigendecomposition. The initial guess mentioned
// in the closed-form description (lambda_0 = sum of weights, which is 1
// once normalised) is not needed: gonum's EigenSym is direct and exact
// for a 4x4 matrix, so there is no Newton iteration to seed.
func maxEigenvalue(s *mat.Dense, z units.Vector3, sigma float64) (float64, error) {
	k := mat.NewSymDense(4, nil)
	k.SetSym(0, 0, sigma)
	k.SetSym(0, 1, z.X)
	k.SetSym(0, 2, z.Y)
	k.SetSym(0, 3, z.Z)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			v := s.At(i, j)
			if i == j {
				v -= sigma
			}
			k.SetSym(1+i, 1+j, v)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(k, false) {
		return 0, fmt.Errorf("quest eigendecomposition of the K-matrix failed: %w", xerrors.ErrNaN)
	}

	values := eig.Values(nil)
	lambda := values[0]
	for _, v := range values {
		if v > lambda {
			lambda = v
		}
	}
	return lambda, nil
}

/*****************************************************************************************************************/

// classicalRodriguesParameter computes Y = ((lambda+sigma)*I - S)^-1 * z.
func classicalRodriguesParameter(s *mat.Dense, z units.Vector3, sigma, lambda float64) (units.Vector3, error) {
	m := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := -s.At(i, j)
			if i == j {
				v += lambda + sigma
			}
			m.Set(i, j, v)
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return units.Vector3{}, fmt.Errorf("quest matrix (lambda+sigma)I-S is singular: %w", xerrors.ErrInvalidValue)
	}

	zVec := mat.NewVecDense(3, []float64{z.X, z.Y, z.Z})
	var yVec mat.VecDense
	yVec.MulVec(&inv, zVec)

	return units.Vector3{X: yVec.AtVec(0), Y: yVec.AtVec(1), Z: yVec.AtVec(2)}, nil
}

/*****************************************************************************************************************/
