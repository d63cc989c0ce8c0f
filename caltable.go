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
	"strconv"

	"github.com/tealeg/xlsx"
)

// Sheet names in the calibration-fits workbook holding the Pic2-onto-Pic1
// cross-calibration coefficients, one row per sampling year.
const (
	sheetXCalH2O  = "pic2pic1_xcal_h2o"
	sheetXCalDD   = "pic2pic1_xcal_dD"
	sheetXCalD18O = "pic2pic1_xcal_d18O"
)

// ReadCrossCalibration loads the cross-calibration parameter sets for the
// given year from the calibration-fits workbook. A missing sheet, missing
// year row, or missing coefficient column is a configuration error.
func ReadCrossCalibration(fileName string, year int) (CrossCalibration, error) {
	f, err := xlsx.OpenFile(fileName)
	if err != nil {
		return CrossCalibration{}, fmt.Errorf("wisper: opening calibration workbook: %v", err)
	}
	return crossCalibrationFromWorkbook(f, year)
}

func crossCalibrationFromWorkbook(f *xlsx.File, year int) (CrossCalibration, error) {
	out := CrossCalibration{Year: year}

	h2o, err := sheetRowForYear(f, sheetXCalH2O, year)
	if err != nil {
		return out, err
	}
	if out.H2O.Slope, err = h2o.coeff("h2o_tot2"); err != nil {
		return out, err
	}

	for _, iso := range []Isotope{IsoD, Iso18O} {
		sheet := sheetXCalDD
		d := "dD"
		if iso == Iso18O {
			sheet = sheetXCalD18O
			d = "d18O"
		}
		row, err := sheetRowForYear(f, sheet, year)
		if err != nil {
			return out, err
		}
		var p IsotopeCrossCal
		for _, c := range []struct {
			name string
			dst  *float64
		}{
			{"logq^1", &p.LogQ1},
			{"logq^2", &p.LogQ2},
			{"logq^3", &p.LogQ3},
			{d + "^1", &p.Delta1},
			{d + "^2", &p.Delta2},
			{d + "^3", &p.Delta3},
			{"(" + d + "*logq)^1", &p.Cross1},
			{"(" + d + "*logq)^2", &p.Cross2},
			{"(" + d + "*logq)^3", &p.Cross3},
			{"const", &p.Const},
		} {
			if *c.dst, err = row.coeff(c.name); err != nil {
				return out, err
			}
		}
		if iso == IsoD {
			out.DD = p
		} else {
			out.D18O = p
		}
	}
	return out, nil
}

// A coeffRow is one year's row of named coefficients from a workbook sheet.
type coeffRow struct {
	sheet  string
	values map[string]float64
}

func (r coeffRow) coeff(name string) (float64, error) {
	v, ok := r.values[name]
	if !ok {
		return 0, fmt.Errorf("wisper: sheet %s has no column %q", r.sheet, name)
	}
	return v, nil
}

// sheetRowForYear locates the row for the given year in the named sheet and
// returns its cells keyed by the header row.
func sheetRowForYear(f *xlsx.File, sheet string, year int) (coeffRow, error) {
	s, ok := f.Sheet[sheet]
	if !ok {
		return coeffRow{}, fmt.Errorf("wisper: calibration workbook has no sheet %s", sheet)
	}
	if s.MaxRow < 2 {
		return coeffRow{}, fmt.Errorf("wisper: sheet %s has no data rows", sheet)
	}
	header := make([]string, s.MaxCol)
	yearCol := -1
	for i := 0; i < s.MaxCol; i++ {
		header[i] = s.Cell(0, i).Value
		if header[i] == "year" {
			yearCol = i
		}
	}
	if yearCol < 0 {
		return coeffRow{}, fmt.Errorf("wisper: sheet %s has no year column", sheet)
	}
	for j := 1; j < s.MaxRow; j++ {
		y, err := s.Cell(j, yearCol).Int()
		if err != nil || y != year {
			continue
		}
		row := coeffRow{sheet: sheet, values: make(map[string]float64)}
		for i := 0; i < s.MaxCol; i++ {
			if i == yearCol || header[i] == "" {
				continue
			}
			v, err := strconv.ParseFloat(s.Cell(j, i).Value, 64)
			if err != nil {
				return coeffRow{}, fmt.Errorf("wisper: sheet %s, year %d, column %q: %v",
					sheet, year, header[i], err)
			}
			row.values[header[i]] = v
		}
		return row, nil
	}
	return coeffRow{}, fmt.Errorf("wisper: sheet %s has no row for year %d", sheet, year)
}

// A HumidityDependenceFit holds the fitted humidity-dependence correction
// parameters and their standard errors for one analyzer and year, as read
// from the humidity-dependence fit-results table.
type HumidityDependenceFit struct {
	Instrument Instrument
	Year       int

	ADD, BDD       float64
	SigADD, SigBDD float64

	A18O, B18O       float64
	SigA18O, SigB18O float64
}

// Isotope returns the (a, b) parameter means and standard deviations for the
// requested isotope channel.
func (f HumidityDependenceFit) Isotope(iso Isotope) (a, b, sigA, sigB float64) {
	if iso == IsoD {
		return f.ADD, f.BDD, f.SigADD, f.SigBDD
	}
	return f.A18O, f.B18O, f.SigA18O, f.SigB18O
}

// ReadHumidityDependenceFits parses the humidity-dependence fit-results
// table (CSV with a header row naming at least the columns picarro, year,
// aD, bD, a18O, b18O and their sig_ counterparts).
func ReadHumidityDependenceFits(r io.Reader) ([]HumidityDependenceFit, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("wisper: reading humidity-dependence fits: %v", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("wisper: humidity-dependence fit table is empty")
	}
	col := make(map[string]int)
	for i, name := range rows[0] {
		col[name] = i
	}
	field := func(row []string, name string) (float64, error) {
		i, ok := col[name]
		if !ok {
			return 0, fmt.Errorf("wisper: humidity-dependence fit table has no column %q", name)
		}
		return strconv.ParseFloat(row[i], 64)
	}
	var fits []HumidityDependenceFit
	for _, row := range rows[1:] {
		var f HumidityDependenceFit
		switch name := row[col["picarro"]]; name {
		case "Mako":
			f.Instrument = Mako
		case "Gulper":
			f.Instrument = Gulper
		default:
			return nil, fmt.Errorf("wisper: unknown analyzer %q in humidity-dependence fit table", name)
		}
		y, err := strconv.Atoi(row[col["year"]])
		if err != nil {
			return nil, fmt.Errorf("wisper: humidity-dependence fit table: bad year: %v", err)
		}
		f.Year = y
		for _, c := range []struct {
			name string
			dst  *float64
		}{
			{"aD", &f.ADD}, {"bD", &f.BDD},
			{"sig_aD", &f.SigADD}, {"sig_bD", &f.SigBDD},
			{"a18O", &f.A18O}, {"b18O", &f.B18O},
			{"sig_a18O", &f.SigA18O}, {"sig_b18O", &f.SigB18O},
		} {
			if *c.dst, err = field(row, c.name); err != nil {
				return nil, fmt.Errorf("wisper: humidity-dependence fit table: %v", err)
			}
		}
		fits = append(fits, f)
	}
	return fits, nil
}

// LookupHumidityDependenceFit returns the fit for the given analyzer and
// year, or a configuration error if the table has none.
func LookupHumidityDependenceFit(fits []HumidityDependenceFit, inst Instrument, year int) (HumidityDependenceFit, error) {
	for _, f := range fits {
		if f.Instrument == inst && f.Year == year {
			return f, nil
		}
	}
	return HumidityDependenceFit{}, &ConfigError{
		Year: year, Instrument: inst,
		Detail: "no humidity-dependence fit in table",
	}
}
