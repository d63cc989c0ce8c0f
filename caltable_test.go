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
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/tealeg/xlsx"
)

// testWorkbook builds an in-memory calibration-fits workbook with one year
// row per sheet.
func testWorkbook(t *testing.T) *xlsx.File {
	t.Helper()
	f := xlsx.NewFile()

	h2o, err := f.AddSheet(sheetXCalH2O)
	if err != nil {
		t.Fatal(err)
	}
	addRow(h2o, "year", "h2o_tot2")
	addRow(h2o, 2017, 0.972)

	for _, d := range []string{"dD", "d18O"} {
		s, err := f.AddSheet("pic2pic1_xcal_" + d)
		if err != nil {
			t.Fatal(err)
		}
		addRow(s, "year", "logq^3", "logq^2", "logq^1",
			d+"^1", d+"^2", d+"^3",
			"("+d+"*logq)^1", "("+d+"*logq)^2", "("+d+"*logq)^3", "const")
		addRow(s, 2017, 0.001, -0.02, 0.5, 1.1, 0.003, -0.0001,
			0.01, -0.0004, 0.00001, 2.5)
	}
	return f
}

func addRow(s *xlsx.Sheet, values ...interface{}) {
	row := s.AddRow()
	for _, v := range values {
		row.AddCell().SetValue(v)
	}
}

func TestReadCrossCalibration(t *testing.T) {
	const tolerance = 1e-12
	c, err := crossCalibrationFromWorkbook(testWorkbook(t), 2017)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.H2O.Slope-0.972) > tolerance {
		t.Errorf("humidity slope: got %g, want 0.972", c.H2O.Slope)
	}
	if c.DD.LogQ1 != 0.5 || c.DD.Delta3 != -0.0001 || c.DD.Cross2 != -0.0004 || c.DD.Const != 2.5 {
		t.Errorf("dD coefficients: got %+v", c.DD)
	}
	// The d18O sheet is read with the same layout.
	if c.D18O.LogQ3 != 0.001 || c.D18O.Cross3 != 0.00001 {
		t.Errorf("d18O coefficients: got %+v", c.D18O)
	}
}

func TestReadCrossCalibrationMissingYear(t *testing.T) {
	if _, err := crossCalibrationFromWorkbook(testWorkbook(t), 2018); err == nil {
		t.Error("missing year row accepted")
	}
}

const qdepCSV = `picarro,year,aD,sig_aD,bD,sig_bD,a18O,sig_a18O,b18O,sig_b18O
Mako,2016,-0.365,0.03,3.031,0.1,-0.00581,0.0006,4.961,0.2
Gulper,2016,0.035,0.01,4.456,0.3,0.06707,0.005,1.889,0.15
`

func TestReadHumidityDependenceFits(t *testing.T) {
	fits, err := ReadHumidityDependenceFits(strings.NewReader(qdepCSV))
	if err != nil {
		t.Fatal(err)
	}
	if len(fits) != 2 {
		t.Fatalf("got %d fits, want 2", len(fits))
	}
	f, err := LookupHumidityDependenceFit(fits, Mako, 2016)
	if err != nil {
		t.Fatal(err)
	}
	a, b, sigA, sigB := f.Isotope(IsoD)
	if a != -0.365 || b != 3.031 || sigA != 0.03 || sigB != 0.1 {
		t.Errorf("Mako dD fit: got %g %g %g %g", a, b, sigA, sigB)
	}
	a, _, _, sigB = f.Isotope(Iso18O)
	if a != -0.00581 || sigB != 0.2 {
		t.Errorf("Mako d18O fit: got a=%g sigB=%g", a, sigB)
	}
}

func TestLookupHumidityDependenceFitMissing(t *testing.T) {
	fits, err := ReadHumidityDependenceFits(strings.NewReader(qdepCSV))
	if err != nil {
		t.Fatal(err)
	}
	_, err = LookupHumidityDependenceFit(fits, Mako, 2017)
	if err == nil {
		t.Fatal("missing year accepted")
	}
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Errorf("got %T, want *ConfigError", err)
	}
}
