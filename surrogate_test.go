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
	"math"
	"testing"
)

// TestFitSurrogateRecovers: a surface generated from known coefficients is
// recovered exactly (up to least-squares conditioning) and reports an
// essentially perfect fit.
func TestFitSurrogateRecovers(t *testing.T) {
	truth := SurrogateCoefficients{
		Alpha: [surrogateTerms]float64{120.3, -47.6, 7.08, -0.468, 0.0116, -0.0794},
	}
	q, delta := UncertaintyGrid(IsoD)
	sigma := make([]float64, len(q))
	for i := range q {
		sigma[i] = truth.Sigma(q[i], delta[i])
	}

	c, err := FitSurrogate(q, delta, sigma)
	if err != nil {
		t.Fatal(err)
	}
	// The Vandermonde-like design matrix is poorly conditioned, so compare
	// predictions rather than coefficients.
	for _, pt := range []struct{ q, d float64 }{
		{1500, -300}, {8000, -150}, {22000, -60},
	} {
		got, want := c.Sigma(pt.q, pt.d), truth.Sigma(pt.q, pt.d)
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("sigma(%g, %g) = %g, want %g", pt.q, pt.d, got, want)
		}
	}
	if c.RSquared < 0.999999 {
		t.Errorf("R2 = %g, want about 1", c.RSquared)
	}
}

// TestFitSurrogateDropsNonFinite: NaN targets (e.g. grid points the Monte
// Carlo could not aggregate) are excluded without poisoning the fit.
func TestFitSurrogateDropsNonFinite(t *testing.T) {
	truth := SurrogateCoefficients{
		Alpha: [surrogateTerms]float64{2, 0.5, 0, 0, 0, -0.01},
	}
	q, delta := UncertaintyGrid(IsoD)
	sigma := make([]float64, len(q))
	for i := range q {
		sigma[i] = truth.Sigma(q[i], delta[i])
	}
	// Knock out a band of targets and one humidity value.
	for i := 0; i < 500; i++ {
		sigma[i] = math.NaN()
	}
	q[600] = math.Inf(1)

	c, err := FitSurrogate(q, delta, sigma)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := c.Sigma(8000, -150), truth.Sigma(8000, -150); math.Abs(got-want) > 1e-6 {
		t.Errorf("sigma(8000, -150) = %g, want %g", got, want)
	}
}

func TestFitSurrogateErrors(t *testing.T) {
	if _, err := FitSurrogate([]float64{1, 2}, []float64{1}, []float64{1, 2}); err == nil {
		t.Error("mismatched lengths accepted")
	}
	// Fewer finite rows than model terms.
	nan := math.NaN()
	q := []float64{1000, 2000, 3000, nan, nan, nan, nan}
	d := []float64{-70, -70, -70, -70, -70, -70, -70}
	s := []float64{1, 1, 1, 1, 1, 1, 1}
	if _, err := FitSurrogate(q, d, s); err == nil {
		t.Error("underdetermined fit accepted")
	}
}
