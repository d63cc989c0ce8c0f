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
	"math/rand"
	"testing"
)

// TestMonteCarloZeroSigma: with all parameter sigmas zero and no input
// noise, every trial is identical and the standard-deviation surface is
// numerically zero wherever the formula is finite.
func TestMonteCarloZeroSigma(t *testing.T) {
	delta := []float64{-300, -150, -70}
	q := []float64{1500, 8000, 21000}
	params := []float64{-0.365, 3.031, 1.056412, -5.957469}
	sigs := []float64{0, 0, 0, 0}

	mc := &MonteCarlo{Trials: 200, Rand: rand.New(rand.NewSource(1))}
	res, err := mc.Propagate(IsotopeCalibrationSurface, delta, q, params, sigs, nil, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	want := FullCalibration(delta, q, IsotopeCalibration{
		A: params[0], B: params[1], Slope: params[2], Intercept: params[3]})
	for i := range delta {
		if res.Sigma[i] != 0 {
			t.Errorf("point %d: sigma %g, want 0", i, res.Sigma[i])
		}
		if math.Abs(res.Mean[i]-want[i]) > 1e-12 {
			t.Errorf("point %d: mean %g, want %g", i, res.Mean[i], want[i])
		}
	}
}

// TestMonteCarloMonotonicInSigma: the output standard deviation must not
// decrease as any one parameter sigma grows.
func TestMonteCarloMonotonicInSigma(t *testing.T) {
	delta := []float64{-100}
	q := []float64{8000}
	// a=0, b=0, slope=1: the surface reduces to delta + intercept, so the
	// output sigma tracks the intercept sigma directly.
	params := []float64{0, 0, 1, 0}

	var prev float64
	for _, sigK := range []float64{0, 0.5, 1, 2, 4} {
		mc := &MonteCarlo{Trials: 4000, Rand: rand.New(rand.NewSource(42))}
		res, err := mc.Propagate(IsotopeCalibrationSurface, delta, q,
			params, []float64{0, 0, 0, sigK}, nil, nil, true)
		if err != nil {
			t.Fatal(err)
		}
		if res.Sigma[0] < prev {
			t.Errorf("sigma_k=%g: output sigma %g decreased from %g", sigK, res.Sigma[0], prev)
		}
		// With 4000 trials the sample deviation should sit close to the
		// injected one.
		if sigK > 0 && math.Abs(res.Sigma[0]-sigK)/sigK > 0.1 {
			t.Errorf("sigma_k=%g: output sigma %g out of range", sigK, res.Sigma[0])
		}
		prev = res.Sigma[0]
	}
}

// TestMonteCarloSeededReproducible: two engines with equal seeds produce
// identical surfaces.
func TestMonteCarloSeededReproducible(t *testing.T) {
	delta := []float64{-150, -70}
	q := []float64{3000, 15000}
	params := []float64{-0.365, 3.031, 1.056412, -5.957469}
	sigs := []float64{0.03, 0.1, 0.0282, 1}

	run := func(seed int64) *MonteCarloResult {
		mc := &MonteCarlo{Trials: 500, Rand: rand.New(rand.NewSource(seed))}
		res, err := mc.Propagate(IsotopeCalibrationSurface, delta, q, params, sigs, nil, nil, true)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}
	a, b := run(7), run(7)
	for i := range delta {
		if a.Sigma[i] != b.Sigma[i] || a.Mean[i] != b.Mean[i] {
			t.Errorf("point %d: equal seeds diverged: %g vs %g", i, a.Sigma[i], b.Sigma[i])
		}
	}
	if c := run(8); c.Sigma[0] == a.Sigma[0] {
		t.Error("different seeds produced identical sigma (suspicious)")
	}
}

// TestMonteCarloInputNoise: with zero parameter sigmas, input noise alone
// drives the output spread through the (unit-slope) calibration line.
func TestMonteCarloInputNoise(t *testing.T) {
	delta := []float64{-100, -100}
	q := []float64{8000, 8000}
	params := []float64{0, 0, 1, 0}
	sigs := []float64{0, 0, 0, 0}
	sigDelta := []float64{2, 0}
	sigQ := []float64{0, 0}

	mc := &MonteCarlo{Trials: 4000, Rand: rand.New(rand.NewSource(3))}
	res, err := mc.Propagate(IsotopeCalibrationSurface, delta, q, params, sigs, sigDelta, sigQ, true)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Sigma[0]-2)/2 > 0.1 {
		t.Errorf("noisy point: sigma %g, want about 2", res.Sigma[0])
	}
	if res.Sigma[1] != 0 {
		t.Errorf("noise-free point: sigma %g, want 0", res.Sigma[1])
	}
}

// TestMonteCarloExcludesNonFinite: grid points whose evaluations are NaN in
// every trial carry NaN aggregates instead of failing the run.
func TestMonteCarloExcludesNonFinite(t *testing.T) {
	// 60000 ppmv is above the humidity-dependence reference, so the
	// correction is NaN there in every trial.
	delta := []float64{-70, -70}
	q := []float64{15000, 60000}
	params := []float64{-0.365, 3.031, 1.056412, -5.957469}
	sigs := []float64{0.01, 0.01, 0.01, 0.5}

	mc := &MonteCarlo{Trials: 200, Rand: rand.New(rand.NewSource(5))}
	res, err := mc.Propagate(IsotopeCalibrationSurface, delta, q, params, sigs, nil, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(res.Sigma[0]) {
		t.Error("in-domain point aggregated to NaN")
	}
	if !math.IsNaN(res.Sigma[1]) {
		t.Errorf("out-of-domain point: sigma %g, want NaN", res.Sigma[1])
	}
}

func TestMonteCarloRawSamples(t *testing.T) {
	delta := []float64{-70}
	q := []float64{15000}
	params := []float64{0, 0, 1, 0}
	mc := &MonteCarlo{Trials: 10, Rand: rand.New(rand.NewSource(1))}
	res, err := mc.Propagate(IsotopeCalibrationSurface, delta, q,
		params, []float64{0, 0, 0, 0}, nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Samples) != 10 {
		t.Fatalf("got %d trials, want 10", len(res.Samples))
	}
	if res.Mean != nil || res.Sigma != nil {
		t.Error("raw-sample mode also returned aggregates")
	}
	for _, s := range res.Samples {
		if s[0] != -70 {
			t.Errorf("deterministic trial: got %g, want -70", s[0])
		}
	}
}

func TestMonteCarloLengthChecks(t *testing.T) {
	mc := &MonteCarlo{Trials: 1, Rand: rand.New(rand.NewSource(1))}
	if _, err := mc.Propagate(IsotopeCalibrationSurface,
		[]float64{1, 2}, []float64{1}, nil, nil, nil, nil, true); err == nil {
		t.Error("mismatched input lengths accepted")
	}
	if _, err := mc.Propagate(IsotopeCalibrationSurface,
		[]float64{1}, []float64{1}, []float64{0}, []float64{0, 0}, nil, nil, true); err == nil {
		t.Error("mismatched parameter lengths accepted")
	}
}
