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

// Empirical 1 Hz measurement precision for the Pic1 analyzer as a function
// of humidity, from lab characterization with dry-air isotope standards.
// Precision degrades with decreasing cavity water concentration; humidity
// itself is measured precisely enough that its noise is ignored.
const (
	precCoeffDD   = 350. // permil * sqrt(ppmv)
	precCoeffD18O = 120. // permil * sqrt(ppmv)
)

// DDPrecisionPic1 returns the 1 Hz dD measurement precision (one standard
// deviation, permil) at each humidity in ppmv.
func DDPrecisionPic1(q []float64) []float64 {
	return precision(q, precCoeffDD)
}

// D18OPrecisionPic1 returns the 1 Hz d18O measurement precision (one
// standard deviation, permil) at each humidity in ppmv.
func D18OPrecisionPic1(q []float64) []float64 {
	return precision(q, precCoeffD18O)
}

// IsotopePrecisionPic1 returns the precision model for the requested
// isotope channel.
func IsotopePrecisionPic1(iso Isotope, q []float64) []float64 {
	if iso == IsoD {
		return DDPrecisionPic1(q)
	}
	return D18OPrecisionPic1(q)
}

func precision(q []float64, coeff float64) []float64 {
	out := make([]float64, len(q))
	for i, v := range q {
		out[i] = coeff / math.Sqrt(v)
	}
	return out
}
