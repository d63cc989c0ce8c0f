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

package merge

const (
	// molar masses of water and dry air [g/mol].
	molarMassWater  = 18.015
	molarMassDryAir = 28.9647

	// specific gas constant for dry air [J/(kg K)].
	gasConstantDryAir = 287.05
)

// PPMVToGramsPerKilogram converts a water concentration from ppmv to a
// mass mixing ratio in g/kg of dry air. NaN propagates.
func PPMVToGramsPerKilogram(ppmv []float64) []float64 {
	const factor = molarMassWater / molarMassDryAir * 1e-3
	out := make([]float64, len(ppmv))
	for i, v := range ppmv {
		out[i] = v * factor
	}
	return out
}

// CloudWaterContent converts a CVI cloud-water mixing ratio to an
// enhancement-corrected cloud water content in g/m3. qCld is the cloud
// water mixing ratio in g/kg, tK the static air temperature in K, pPa the
// static pressure in Pa, and enhance the CVI inlet enhancement factor.
// The mixing ratio is divided by the enhancement factor and scaled by the
// dry-air density from the ideal gas law.
func CloudWaterContent(qCld, tK, pPa, enhance []float64) []float64 {
	out := make([]float64, len(qCld))
	for i := range qCld {
		rho := pPa[i] / (gasConstantDryAir * tK[i])
		out[i] = qCld[i] / enhance[i] * rho
	}
	return out
}
