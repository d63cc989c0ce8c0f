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

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wisper-isotope/wisper"
)

// Output column names of the level-3 vapor product.
const (
	ColH2OGKG     = "h2o_gkg"
	ColDDPermil   = "dD_permil"
	ColD18OPermil = "d18O_permil"

	colCWC        = "cwc"
	colDDCld      = "dD_cld"
	colD18OCld    = "d18O_cld"
	colCVIEnhance = "cvi_enhance"

	colHeight   = "height_m"
	colLat      = "lat"
	colLon      = "lon"
	colTempK    = "T_K"
	colPressHPa = "P_hPa"
)

// VaporProduct collapses a calibrated two-analyzer flight record into one
// column per vapor variable. For 2017 and 2018, Pic1 values are used where
// finite and Pic2 values fill the gaps; 2016 flights carry Pic2 data only.
// Water concentration is converted from ppmv to g/kg. For 2017 and 2018 the
// cloud channels (cloud water in g/kg, cloud isotope ratios, CVI enhancement
// factor) are carried through as well.
func VaporProduct(ts *wisper.FlightTimeSeries) (*wisper.FlightTimeSeries, error) {
	year, err := flightYear(ts.Date)
	if err != nil {
		return nil, err
	}

	var h2o, dD, d18O []float64
	switch year {
	case 2016:
		h2o = ts.Vapor(wisper.Pic2, wisper.ChanH2O)
		dD = ts.Vapor(wisper.Pic2, wisper.ChanDD)
		d18O = ts.Vapor(wisper.Pic2, wisper.ChanD18O)
	case 2017, 2018:
		h2o = fillFromSecond(ts.Vapor(wisper.Pic1, wisper.ChanH2O), ts.Vapor(wisper.Pic2, wisper.ChanH2O))
		dD = fillFromSecond(ts.Vapor(wisper.Pic1, wisper.ChanDD), ts.Vapor(wisper.Pic2, wisper.ChanDD))
		d18O = fillFromSecond(ts.Vapor(wisper.Pic1, wisper.ChanD18O), ts.Vapor(wisper.Pic2, wisper.ChanD18O))
	default:
		return nil, fmt.Errorf("merge: flight %s: no vapor product defined for %d", ts.Date, year)
	}
	if h2o == nil || dD == nil || d18O == nil {
		return nil, fmt.Errorf("merge: flight %s is missing vapor columns", ts.Date)
	}

	out := wisper.NewFlightTimeSeries(ts.Date, ts.Time)
	if err := out.SetColumn(ColH2OGKG, PPMVToGramsPerKilogram(h2o)); err != nil {
		return nil, err
	}
	if err := out.SetColumn(ColDDPermil, dD); err != nil {
		return nil, err
	}
	if err := out.SetColumn(ColD18OPermil, d18O); err != nil {
		return nil, err
	}

	if year == 2017 || year == 2018 {
		for _, name := range []string{colDDCld, colD18OCld, colCVIEnhance} {
			col := ts.Column(name)
			if col == nil {
				return nil, fmt.Errorf("merge: flight %s is missing cloud column %s", ts.Date, name)
			}
			if err := out.SetColumn(name, col); err != nil {
				return nil, err
			}
		}
		cld := ts.Column("h2o_cld")
		if cld == nil {
			return nil, fmt.Errorf("merge: flight %s is missing cloud column h2o_cld", ts.Date)
		}
		if err := out.SetColumn("h2o_cld_gkg", PPMVToGramsPerKilogram(cld)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// fillFromSecond returns primary with NaN samples replaced by the
// corresponding secondary values. Nil inputs pass through as nil.
func fillFromSecond(primary, secondary []float64) []float64 {
	if primary == nil || secondary == nil {
		return nil
	}
	out := make([]float64, len(primary))
	for i, v := range primary {
		if math.IsNaN(v) {
			out[i] = secondary[i]
		} else {
			out[i] = v
		}
	}
	return out
}

// AddFlightVariables joins the ancillary flight variables for the given
// flight into the vapor product: position, static air temperature
// (converted to K), and static pressure. For 2017 and 2018 the cloud water
// column is additionally replaced by the enhancement-corrected cloud water
// content in g/m3.
func AddFlightVariables(ts *wisper.FlightTimeSeries, store *ProductStore) (*wisper.FlightTimeSeries, error) {
	year, err := flightYear(ts.Date)
	if err != nil {
		return nil, err
	}
	revision, ok := Revisions[year]
	if !ok {
		return nil, fmt.Errorf("merge: no merge-product revision for %d", year)
	}

	// The altitude variable was renamed in the 2018 product revision.
	altitudeKey := "MSL_GPS_Altitude"
	if year == 2018 {
		altitudeKey = "GPS_Altitude"
	}
	varNames := []string{altitudeKey, "Latitude", "Longitude", "Static_Air_Temp", "Static_Pressure"}
	rename := map[string]string{
		altitudeKey:       colHeight,
		"Latitude":        colLat,
		"Longitude":       colLon,
		"Static_Air_Temp": colTempK, // converted below
		"Static_Pressure": colPressHPa,
	}

	p, err := store.Read(ts.Date, revision, varNames)
	if err != nil {
		return nil, err
	}
	out, err := InnerJoin(ts, p, rename)
	if err != nil {
		return nil, err
	}

	// Static_Air_Temp arrives in degrees C.
	tK := out.Column(colTempK)
	for i, v := range tK {
		tK[i] = v + 273.
	}

	if year == 2017 || year == 2018 {
		qCld := out.Column("h2o_cld_gkg")
		enhance := out.Column(colCVIEnhance)
		pHPa := out.Column(colPressHPa)
		if qCld != nil && enhance != nil && pHPa != nil {
			pPa := make([]float64, len(pHPa))
			for i, v := range pHPa {
				pPa[i] = v * 100
			}
			if err := out.SetColumn(colCWC, CloudWaterContent(qCld, tK, pPa, enhance)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func flightYear(date string) (int, error) {
	if len(date) < 4 {
		return 0, fmt.Errorf("merge: bad flight date %q", date)
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, fmt.Errorf("merge: bad flight date %q: %v", date, err)
	}
	return year, nil
}
