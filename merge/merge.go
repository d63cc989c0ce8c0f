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

// Package merge joins calibrated WISPER records with ancillary flight
// variables (position, temperature, pressure) from the independently
// produced P-3 merge data product, and builds the single-column level-3
// vapor product.
package merge

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"

	"github.com/wisper-isotope/wisper"
)

// Revisions gives the merge-product revision number for each sampling year.
var Revisions = map[int]string{
	2016: "R25",
	2017: "R18",
	2018: "R8",
}

// A ProductStore reads the NetCDF P-3 merge files for single flights,
// keyed by flight date and product revision.
type ProductStore struct {
	// Dir is the directory holding the merge files.
	Dir string
}

func (s *ProductStore) path(date, revision string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("mrg1_P3_%s_%s.nc", date, revision))
}

// A Product holds the time coordinate and a set of named ancillary
// variables from one merge file, with the missing-value sentinel
// normalized to NaN.
type Product struct {
	Time []float64
	// Names holds the variable names in the order they were requested, so
	// joined output columns have a deterministic order.
	Names []string
	Vars  map[string][]float64
}

// Read loads the time coordinate and the named variables from the merge
// file for the given flight date and revision. Variable values equal to the
// missing-value sentinel are replaced with NaN.
func (s *ProductStore) Read(date, revision string, varNames []string) (*Product, error) {
	f, err := os.Open(s.path(date, revision))
	if err != nil {
		return nil, fmt.Errorf("merge: opening merge file: %v", err)
	}
	defer f.Close()
	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("merge: reading merge file for %s: %v", date, err)
	}

	p := &Product{Vars: make(map[string][]float64)}
	if p.Time, err = readVar64(cf, wisper.TimeColumn); err != nil {
		return nil, fmt.Errorf("merge: flight %s: %v", date, err)
	}
	for _, name := range varNames {
		v, err := readVar64(cf, name)
		if err != nil {
			return nil, fmt.Errorf("merge: flight %s: %v", date, err)
		}
		if len(v) != len(p.Time) {
			return nil, fmt.Errorf("merge: flight %s: variable %s has %d values but %d time steps",
				date, name, len(v), len(p.Time))
		}
		for i, x := range v {
			if x == wisper.MissingValue {
				v[i] = math.NaN()
			}
		}
		p.Names = append(p.Names, name)
		p.Vars[name] = v
	}
	return p, nil
}

// readVar64 reads a full variable from the NetCDF file as float64.
func readVar64(cf *cdf.File, name string) ([]float64, error) {
	r := cf.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %s: %v", name, err)
	}
	switch v := buf.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("variable %s has unsupported type %T", name, buf)
	}
}

// InnerJoin adds the product's variables to the flight record, keeping only
// the samples whose time values match exactly in both. Columns are added
// under the names given by rename, which maps product variable names to
// output column names. The join emits one row per matching flight sample;
// if the product repeats a time value, the first product row for that time
// is used.
func InnerJoin(ts *wisper.FlightTimeSeries, p *Product, rename map[string]string) (*wisper.FlightTimeSeries, error) {
	prodIdx := make(map[float64]int, len(p.Time))
	for i, t := range p.Time {
		if _, ok := prodIdx[t]; !ok {
			prodIdx[t] = i
		}
	}

	var keep []int
	prodRows := make([]int, 0, len(ts.Time))
	for i, t := range ts.Time {
		if j, ok := prodIdx[t]; ok {
			keep = append(keep, i)
			prodRows = append(prodRows, j)
		}
	}

	out := wisper.NewFlightTimeSeries(ts.Date, index(ts.Time, keep))
	for _, name := range ts.ColumnNames() {
		if err := out.SetColumn(name, index(ts.Column(name), keep)); err != nil {
			return nil, err
		}
	}
	for _, name := range p.Names {
		newName, ok := rename[name]
		if !ok {
			newName = name
		}
		if err := out.SetColumn(newName, index(p.Vars[name], prodRows)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func index(x []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}
