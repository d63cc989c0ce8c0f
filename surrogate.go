/*
Copyright © 2021 the WISPER authors.
This file is part of WISPER.

WISPER is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

WISPER is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with WISPER.  If not, see <http://www.gnu.org/licenses/>.
*/

package wisper

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// surrogateTerms is the number of terms in the uncertainty surrogate model:
// a constant, four powers of log-humidity, and a linear isotope-ratio term.
const surrogateTerms = 6

// SurrogateCoefficients is the fitted closed-form stand-in for a Monte
// Carlo uncertainty surface:
//
//	sigma(q, d) = Alpha[0] + Alpha[1]*ln(q) + Alpha[2]*ln(q)^2 +
//	              Alpha[3]*ln(q)^3 + Alpha[4]*ln(q)^4 + Alpha[5]*d
//
// RSquared is the coefficient of determination of the fit, reported as a
// quality signal for human review; no threshold is enforced.
type SurrogateCoefficients struct {
	Alpha    [surrogateTerms]float64
	RSquared float64
}

// Sigma evaluates the surrogate model at one (humidity, isotope-ratio)
// point.
func (c SurrogateCoefficients) Sigma(q, d float64) float64 {
	lq := math.Log(q)
	return c.Alpha[0] + c.Alpha[1]*lq + c.Alpha[2]*lq*lq +
		c.Alpha[3]*lq*lq*lq + c.Alpha[4]*lq*lq*lq*lq + c.Alpha[5]*d
}

// FitSurrogate fits the six-term surrogate model to a per-point standard-
// deviation surface by ordinary least squares. q, delta and sigma are
// parallel arrays over the grid points. Rows where any input or the target
// is non-finite are dropped before fitting, mirroring the exclusion of
// out-of-domain grid points from the Monte Carlo aggregate.
func FitSurrogate(q, delta, sigma []float64) (SurrogateCoefficients, error) {
	if len(delta) != len(q) || len(sigma) != len(q) {
		return SurrogateCoefficients{}, fmt.Errorf(
			"wisper: surrogate fit: mismatched lengths %d, %d, %d",
			len(q), len(delta), len(sigma))
	}

	var rows []int
	for i := range q {
		if isFinite(q[i]) && q[i] > 0 && isFinite(delta[i]) && isFinite(sigma[i]) {
			rows = append(rows, i)
		}
	}
	if len(rows) < surrogateTerms {
		return SurrogateCoefficients{}, fmt.Errorf(
			"wisper: surrogate fit: only %d finite grid points, need at least %d",
			len(rows), surrogateTerms)
	}

	x := mat.NewDense(len(rows), surrogateTerms, nil)
	y := mat.NewVecDense(len(rows), nil)
	for j, i := range rows {
		lq := math.Log(q[i])
		x.Set(j, 0, 1)
		x.Set(j, 1, lq)
		x.Set(j, 2, lq*lq)
		x.Set(j, 3, lq*lq*lq)
		x.Set(j, 4, lq*lq*lq*lq)
		x.Set(j, 5, delta[i])
		y.SetVec(j, sigma[i])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return SurrogateCoefficients{}, fmt.Errorf("wisper: surrogate fit: %v", err)
	}

	var c SurrogateCoefficients
	for i := 0; i < surrogateTerms; i++ {
		c.Alpha[i] = beta.AtVec(i)
	}

	predicted := make([]float64, len(rows))
	observed := make([]float64, len(rows))
	for j, i := range rows {
		predicted[j] = c.Sigma(q[i], delta[i])
		observed[j] = sigma[i]
	}
	c.RSquared = stat.RSquaredFrom(predicted, observed, nil)
	return c, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
