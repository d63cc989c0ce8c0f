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
	"math/rand"
	"time"

	"github.com/GaryBoone/GoStats/stats"
)

// DefaultTrials is the number of Monte Carlo trials used when a MonteCarlo
// engine does not specify one.
const DefaultTrials = 6000

// A CalibrationSurface is a deterministic calibration model evaluated over
// parallel isotope-ratio and humidity arrays with a flat parameter vector.
// The Monte Carlo engine perturbs the parameter vector and, optionally, the
// inputs, and calls the surface once per trial.
type CalibrationSurface func(delta, q, params []float64) []float64

// IsotopeCalibrationSurface adapts FullCalibration to the CalibrationSurface
// signature with the parameter vector [a, b, slope, intercept].
func IsotopeCalibrationSurface(delta, q, params []float64) []float64 {
	return FullCalibration(delta, q, IsotopeCalibration{
		A: params[0], B: params[1],
		Slope: params[2], Intercept: params[3],
	})
}

// A MonteCarlo engine propagates calibration-parameter uncertainty (and
// optionally measurement-precision uncertainty) through a calibration
// surface by repeated randomized resampling.
type MonteCarlo struct {
	// Trials is the number of random trials per run. Zero means
	// DefaultTrials.
	Trials int
	// Rand is the source of all randomness used by the engine. Seed it for
	// reproducible runs. If nil, a time-seeded source is created on first
	// use.
	Rand *rand.Rand
}

// A MonteCarloResult holds the output of one Monte Carlo run over a set of
// grid points. When the run was aggregated, Mean and Sigma hold the
// per-point mean and sample standard deviation across trials, with
// non-finite trial values excluded; otherwise Samples holds the raw
// per-trial realizations, indexed [trial][point].
type MonteCarloResult struct {
	Samples     [][]float64
	Mean, Sigma []float64
}

func (m *MonteCarlo) rng() *rand.Rand {
	if m.Rand == nil {
		m.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m.Rand
}

// Propagate runs the Monte Carlo propagation of parameter uncertainty
// through f over the grid points (delta, q). In each trial every parameter
// is drawn independently from Normal(params[i], sigParams[i]); parameters
// are treated as uncorrelated, a stated simplification of the calibration
// fits. If sigDelta or sigQ is non-nil, the corresponding input is
// additionally perturbed per point with Normal(0, sig) noise. When
// aggregate is true only the per-point mean and standard deviation are
// returned; otherwise the raw trial samples are.
func (m *MonteCarlo) Propagate(f CalibrationSurface, delta, q []float64,
	params, sigParams []float64, sigDelta, sigQ []float64, aggregate bool) (*MonteCarloResult, error) {

	if len(delta) != len(q) {
		return nil, fmt.Errorf("wisper: monte carlo: %d isotope values but %d humidity values",
			len(delta), len(q))
	}
	if len(params) != len(sigParams) {
		return nil, fmt.Errorf("wisper: monte carlo: %d parameters but %d parameter sigmas",
			len(params), len(sigParams))
	}
	if sigDelta != nil && len(sigDelta) != len(delta) {
		return nil, fmt.Errorf("wisper: monte carlo: input noise length %d, want %d",
			len(sigDelta), len(delta))
	}
	if sigQ != nil && len(sigQ) != len(q) {
		return nil, fmt.Errorf("wisper: monte carlo: humidity noise length %d, want %d",
			len(sigQ), len(q))
	}

	trials := m.Trials
	if trials == 0 {
		trials = DefaultTrials
	}
	rng := m.rng()

	n := len(delta)
	pTrial := make([]float64, len(params))
	dTrial := delta
	qTrial := q
	if sigDelta != nil {
		dTrial = make([]float64, n)
	}
	if sigQ != nil {
		qTrial = make([]float64, n)
	}

	var agg []stats.Stats
	var samples [][]float64
	if aggregate {
		agg = make([]stats.Stats, n)
	} else {
		samples = make([][]float64, trials)
	}

	for t := 0; t < trials; t++ {
		for i, p := range params {
			pTrial[i] = p + rng.NormFloat64()*sigParams[i]
		}
		if sigDelta != nil {
			for i, d := range delta {
				dTrial[i] = d + rng.NormFloat64()*sigDelta[i]
			}
		}
		if sigQ != nil {
			for i, v := range q {
				qTrial[i] = v + rng.NormFloat64()*sigQ[i]
			}
		}
		out := f(dTrial, qTrial, pTrial)
		if aggregate {
			for i, v := range out {
				if !math.IsNaN(v) && !math.IsInf(v, 0) {
					agg[i].Update(v)
				}
			}
		} else {
			samples[t] = out
		}
	}

	if !aggregate {
		return &MonteCarloResult{Samples: samples}, nil
	}
	res := &MonteCarloResult{
		Mean:  make([]float64, n),
		Sigma: make([]float64, n),
	}
	for i := range agg {
		if agg[i].Count() < 2 {
			res.Mean[i] = math.NaN()
			res.Sigma[i] = math.NaN()
			continue
		}
		res.Mean[i] = agg[i].Mean()
		res.Sigma[i] = agg[i].SampleStandardDeviation()
	}
	return res, nil
}
