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

import "math"

// qRef is the reference humidity (ppmv) that anchors the humidity-dependence
// correction. The correction vanishes as q approaches this value; above it
// the log difference goes negative and a non-integer exponent yields NaN,
// which is the documented out-of-range behavior rather than an error.
const qRef = 50000.

// HumidityDependenceCorrection removes the humidity-dependent bias from an
// isotope-ratio channel: each delta value has a*(ln(50000)-ln(q))^b
// subtracted from it. NaN in either input, or q outside (0, 50000), produces
// NaN at that sample.
func HumidityDependenceCorrection(delta, q []float64, a, b float64) []float64 {
	out := make([]float64, len(delta))
	for i, d := range delta {
		out[i] = d - a*math.Pow(math.Log(qRef)-math.Log(q[i]), b)
	}
	return out
}

// AbsoluteCalibration maps a raw channel onto its reference-traceable scale
// with a fitted line. It applies equally to humidity, dD, and d18O.
func AbsoluteCalibration(x []float64, slope, intercept float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = slope*v + intercept
	}
	return out
}

// FullCalibration applies the complete 2016-style calibration to an isotope
// channel: the humidity-dependence correction first, then the absolute
// calibration line. The order is fixed; the absolute calibration was fit
// against humidity-corrected deltas.
func FullCalibration(delta, q []float64, p IsotopeCalibration) []float64 {
	return AbsoluteCalibration(
		HumidityDependenceCorrection(delta, q, p.A, p.B),
		p.Slope, p.Intercept)
}

// CrossCalibrateHumidity maps Pic2 humidity onto the Pic1 frame. The fitted
// model is a line through the origin with a single slope.
func CrossCalibrateHumidity(q []float64, slope float64) []float64 {
	out := make([]float64, len(q))
	for i, v := range q {
		out[i] = slope * v
	}
	return out
}

// CrossCalibrateIsotopeRatio maps a Pic2 isotope-ratio channel onto the Pic1
// frame by evaluating the fitted cubic polynomial in log-humidity, the
// (smoothed) isotope ratio, and their product. The caller is responsible for
// smoothing delta with TrailingMean first; this function is pure evaluation.
func CrossCalibrateIsotopeRatio(logq, delta []float64, p IsotopeCrossCal) []float64 {
	out := make([]float64, len(delta))
	for i, d := range delta {
		lq := logq[i]
		dlq := d * lq
		out[i] = p.LogQ3*lq*lq*lq + p.LogQ2*lq*lq + p.LogQ1*lq +
			p.Delta1*d + p.Delta2*d*d + p.Delta3*d*d*d +
			p.Cross1*dlq + p.Cross2*dlq*dlq + p.Cross3*dlq*dlq*dlq +
			p.Const
	}
	return out
}

// Log returns the elementwise natural logarithm of q. Non-positive humidity
// produces NaN or -Inf, which propagates downstream as invalid.
func Log(q []float64) []float64 {
	out := make([]float64, len(q))
	for i, v := range q {
		out[i] = math.Log(v)
	}
	return out
}
