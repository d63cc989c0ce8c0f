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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// A UseCase names one of the three uncertainty estimates produced per
// isotope. The use-cases differ only in which uncertainty terms feed the
// Monte Carlo run; the fitting procedure is identical.
type UseCase int

const (
	// UseCaseHighRate is for relative comparisons of the raw 1 Hz data and
	// includes the instrument measurement precision.
	UseCaseHighRate UseCase = iota + 1
	// UseCaseAveraged is for data averaged to 0.1 Hz or lower, or for
	// comparing PDFs; measurement precision averages out and is excluded.
	UseCaseAveraged
	// UseCaseAbsolute is for comparisons against other datasets or
	// theoretical values, where the absolute-calibration offset matters;
	// its uncertainty is widened accordingly.
	UseCaseAbsolute
)

func (u UseCase) String() string {
	switch u {
	case UseCaseHighRate:
		return "1"
	case UseCaseAveraged:
		return "2"
	case UseCaseAbsolute:
		return "3"
	default:
		return fmt.Sprintf("UseCase(%d)", int(u))
	}
}

// UseCases lists the three use-cases in output order.
var UseCases = []UseCase{UseCaseHighRate, UseCaseAveraged, UseCaseAbsolute}

// Fixed operating ranges of the uncertainty grids. Values outside these
// ranges indicate domain misuse rather than engine defects.
const (
	gridQMin, gridQMax       = 1500., 22000.
	gridDDMin, gridDDMax     = -300., -60.
	gridD18OMin, gridD18OMax = -30., -8.
	gridQPoints              = 100
	gridDeltaPoints          = 150
)

// UncertaintyGrid returns the flattened (humidity, isotope-ratio) grid over
// which uncertainties are estimated for the given isotope: 100 humidity
// points spanning 1500-22000 ppmv crossed with 150 isotope-ratio points
// spanning -300 to -60 permil (dD) or -30 to -8 permil (d18O).
func UncertaintyGrid(iso Isotope) (q, delta []float64) {
	qAxis := floats.Span(make([]float64, gridQPoints), gridQMin, gridQMax)
	dMin, dMax := gridDDMin, gridDDMax
	if iso == Iso18O {
		dMin, dMax = gridD18OMin, gridD18OMax
	}
	dAxis := floats.Span(make([]float64, gridDeltaPoints), dMin, dMax)

	n := gridQPoints * gridDeltaPoints
	q = make([]float64, 0, n)
	delta = make([]float64, 0, n)
	for _, d := range dAxis {
		for _, qv := range qAxis {
			q = append(q, qv)
			delta = append(delta, d)
		}
	}
	return q, delta
}

// Absolute-calibration parameters used for the uncertainty estimates. The
// 2016 Mako calibration is used; the resulting uncertainties are taken as
// representative for all sampling years.
const (
	uncertSlopeDD       = 1.0564
	uncertInterceptDD   = -5.957469671
	uncertSlopeD18O     = 1.051851852
	uncertInterceptD18O = -1.041851852

	// Slope standard deviations: half the deviation of the slope from one.
	sigSlopeDD   = 0.0564 / 2
	sigSlopeD18O = 0.05185 / 2

	// Intercept standard deviations. The baseline values apply to relative
	// comparisons; the absolute use-case widens them because the absolute
	// offset then matters (d18O carries a baseline offset term due to
	// drift).
	sigInterceptDD           = 1.
	sigInterceptD18O         = 0.5
	sigInterceptDDAbsolute   = 4.
	sigInterceptD18OAbsolute = 1.
)

// An UncertaintyModeler produces the surrogate uncertainty models for all
// (use-case, isotope) combinations from Monte Carlo runs over the fixed
// grids.
type UncertaintyModeler struct {
	// Engine runs the Monte Carlo propagation.
	Engine *MonteCarlo
	// Fits holds the humidity-dependence calibration fits; the Mako 2016
	// row supplies the a and b parameter means and standard deviations.
	Fits []HumidityDependenceFit
	// Log, if non-nil, receives the fit-quality report for each surrogate
	// fit. Low R-squared is advisory; it never blocks output.
	Log *logrus.Logger
}

// calParams assembles the parameter vector [a, b, slope, intercept] and its
// standard deviations for one isotope and use-case.
func (m *UncertaintyModeler) calParams(iso Isotope, uc UseCase) (pars, sigs []float64, err error) {
	fit, err := LookupHumidityDependenceFit(m.Fits, Mako, 2016)
	if err != nil {
		return nil, nil, err
	}
	a, b, sigA, sigB := fit.Isotope(iso)

	slope, intercept := uncertSlopeDD, uncertInterceptDD
	sigSlope, sigIntercept := sigSlopeDD, sigInterceptDD
	if iso == Iso18O {
		slope, intercept = uncertSlopeD18O, uncertInterceptD18O
		sigSlope, sigIntercept = sigSlopeD18O, sigInterceptD18O
	}
	if uc == UseCaseAbsolute {
		sigIntercept = sigInterceptDDAbsolute
		if iso == Iso18O {
			sigIntercept = sigInterceptD18OAbsolute
		}
	}
	return []float64{a, b, slope, intercept},
		[]float64{sigA, sigB, sigSlope, sigIntercept}, nil
}

// FitUseCase runs the Monte Carlo estimate for one isotope and use-case and
// fits the surrogate model to the resulting standard-deviation surface.
func (m *UncertaintyModeler) FitUseCase(iso Isotope, uc UseCase) (SurrogateCoefficients, error) {
	pars, sigs, err := m.calParams(iso, uc)
	if err != nil {
		return SurrogateCoefficients{}, err
	}
	q, delta := UncertaintyGrid(iso)

	// Only the 1 Hz use-case carries measurement-precision noise. Humidity
	// is measured precisely enough that its noise is zero even then.
	var sigDelta, sigQ []float64
	if uc == UseCaseHighRate {
		sigDelta = IsotopePrecisionPic1(iso, q)
		sigQ = make([]float64, len(q))
	}

	res, err := m.Engine.Propagate(IsotopeCalibrationSurface, delta, q,
		pars, sigs, sigDelta, sigQ, true)
	if err != nil {
		return SurrogateCoefficients{}, err
	}

	c, err := FitSurrogate(q, delta, res.Sigma)
	if err != nil {
		return SurrogateCoefficients{}, err
	}
	if m.Log != nil {
		m.Log.WithFields(logrus.Fields{
			"isotope":  iso.String(),
			"use_case": uc.String(),
			"r2":       c.RSquared,
		}).Info("uncertainty surrogate fit")
	}
	return c, nil
}

// A SurrogateRow is one persisted surrogate model, keyed by use-case and
// isotope.
type SurrogateRow struct {
	UseCase UseCase
	Isotope Isotope
	Coeffs  SurrogateCoefficients
}

// FitAll produces the surrogate models for every use-case and isotope, in
// output order.
func (m *UncertaintyModeler) FitAll() ([]SurrogateRow, error) {
	var rows []SurrogateRow
	for _, uc := range UseCases {
		for _, iso := range []Isotope{IsoD, Iso18O} {
			c, err := m.FitUseCase(iso, uc)
			if err != nil {
				return nil, fmt.Errorf("wisper: uncertainty use-case %v, %v: %v", uc, iso, err)
			}
			rows = append(rows, SurrogateRow{UseCase: uc, Isotope: iso, Coeffs: c})
		}
	}
	return rows, nil
}

// surrogateDecimals gives the number of decimal places each coefficient
// column is rounded to when persisted.
var surrogateDecimals = [surrogateTerms]int{1, 1, 2, 3, 4, 4}

// WriteSurrogateTable persists the surrogate coefficient table as CSV with
// one row per (use-case, isotope) and columns alph0 through alph5, rounded
// per column.
func WriteSurrogateTable(w io.Writer, rows []SurrogateRow) error {
	cw := csv.NewWriter(w)
	header := []string{"use case", "isotope"}
	for i := 0; i < surrogateTerms; i++ {
		header = append(header, fmt.Sprintf("alph%d", i))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("wisper: writing surrogate table: %v", err)
	}
	for _, row := range rows {
		rec := []string{row.UseCase.String(), row.Isotope.String()}
		for i, a := range row.Coeffs.Alpha {
			rec = append(rec, strconv.FormatFloat(roundTo(a, surrogateDecimals[i]), 'f', surrogateDecimals[i], 64))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("wisper: writing surrogate table: %v", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("wisper: writing surrogate table: %v", err)
	}
	return nil
}

// ReadSurrogateTable loads a persisted surrogate coefficient table.
func ReadSurrogateTable(r io.Reader) ([]SurrogateRow, error) {
	recs, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("wisper: reading surrogate table: %v", err)
	}
	if len(recs) < 1 {
		return nil, fmt.Errorf("wisper: surrogate table is empty")
	}
	var rows []SurrogateRow
	for _, rec := range recs[1:] {
		if len(rec) != 2+surrogateTerms {
			return nil, fmt.Errorf("wisper: surrogate table row has %d fields, want %d",
				len(rec), 2+surrogateTerms)
		}
		var row SurrogateRow
		switch rec[0] {
		case "1":
			row.UseCase = UseCaseHighRate
		case "2":
			row.UseCase = UseCaseAveraged
		case "3":
			row.UseCase = UseCaseAbsolute
		default:
			return nil, fmt.Errorf("wisper: surrogate table: unknown use case %q", rec[0])
		}
		switch rec[1] {
		case "dD":
			row.Isotope = IsoD
		case "d18O":
			row.Isotope = Iso18O
		default:
			return nil, fmt.Errorf("wisper: surrogate table: unknown isotope %q", rec[1])
		}
		for i := 0; i < surrogateTerms; i++ {
			v, err := strconv.ParseFloat(rec[2+i], 64)
			if err != nil {
				return nil, fmt.Errorf("wisper: surrogate table: %v", err)
			}
			row.Coeffs.Alpha[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
