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
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Processing stages of a flight file. The stage appears in the file name:
// WISPER_<date>_<stage>.ict.
const (
	StageTimeSync = "time-sync"
	StagePic1Cal  = "pic1-cal"
	StagePic2Cal  = "pic2-cal"
)

// A FlightStore reads and writes per-flight delimited data files in a
// directory, keyed by flight date and processing stage. Files are comma
// delimited with an optional fixed-height descriptive header followed by a
// column-name row; missing values are stored as the -9999 sentinel.
type FlightStore struct {
	// Dir is the directory holding the flight files.
	Dir string
	// HeaderLines is the number of descriptive header lines preceding the
	// column-name row. Zero for the intermediate calibration files; the
	// published data product uses a year-dependent height.
	HeaderLines int
}

func (s *FlightStore) path(date, stage string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("WISPER_%s_%s.ict", date, stage))
}

// Read loads the flight record for the given date and processing stage and
// normalizes the missing-value sentinel to NaN. It verifies that the time
// coordinate is non-decreasing.
func (s *FlightStore) Read(date, stage string) (*FlightTimeSeries, error) {
	f, err := os.Open(s.path(date, stage))
	if err != nil {
		return nil, fmt.Errorf("wisper: opening flight file: %v", err)
	}
	defer f.Close()
	ts, err := ReadFlightTimeSeries(f, date, s.HeaderLines)
	if err != nil {
		return nil, fmt.Errorf("wisper: reading flight %s (%s): %v", date, stage, err)
	}
	return ts, nil
}

// Write persists the flight record under the given processing stage,
// rendering NaN as the missing-value sentinel.
func (s *FlightStore) Write(ts *FlightTimeSeries, stage string, header []string) error {
	if err := os.MkdirAll(s.Dir, os.ModePerm); err != nil {
		return fmt.Errorf("wisper: creating output directory: %v", err)
	}
	f, err := os.Create(s.path(ts.Date, stage))
	if err != nil {
		return fmt.Errorf("wisper: creating flight file: %v", err)
	}
	if err := WriteFlightTimeSeries(f, ts, header); err != nil {
		f.Close()
		return fmt.Errorf("wisper: writing flight %s (%s): %v", ts.Date, stage, err)
	}
	return f.Close()
}

// ReadFlightTimeSeries parses a flight record from r, skipping headerLines
// descriptive lines before the column-name row. The first column must be
// the Start_UTC time coordinate.
func ReadFlightTimeSeries(r io.Reader, date string, headerLines int) (*FlightTimeSeries, error) {
	br := bufio.NewReader(r)
	for i := 0; i < headerLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("skipping header: %v", err)
		}
	}
	rows, err := csv.NewReader(br).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no column-name row")
	}
	names := rows[0]
	if len(names) == 0 || strings.TrimSpace(names[0]) != TimeColumn {
		return nil, fmt.Errorf("first column is %q, want %s", names[0], TimeColumn)
	}
	n := len(rows) - 1
	cols := make([][]float64, len(names))
	for i := range cols {
		cols[i] = make([]float64, n)
	}
	for j, row := range rows[1:] {
		if len(row) != len(names) {
			return nil, fmt.Errorf("row %d has %d fields, want %d", j+1, len(row), len(names))
		}
		for i, field := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %v", j+1, names[i], err)
			}
			cols[i][j] = v
		}
	}
	ts := NewFlightTimeSeries(date, cols[0])
	for i := 1; i < len(names); i++ {
		if err := ts.SetColumn(strings.TrimSpace(names[i]), cols[i]); err != nil {
			return nil, err
		}
	}
	ts.NormalizeMissing()
	if err := ts.CheckTime(); err != nil {
		return nil, err
	}
	return ts, nil
}

// WriteFlightTimeSeries writes the record to w: the given descriptive header
// lines, the column-name row, then one row per sample with NaN rendered as
// the missing-value sentinel. Output is deterministic: columns appear in
// insertion order and values are formatted with strconv.FormatFloat 'g'.
func WriteFlightTimeSeries(w io.Writer, ts *FlightTimeSeries, header []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range header {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	names := ts.ColumnNames()
	cw := csv.NewWriter(bw)
	if err := cw.Write(append([]string{TimeColumn}, names...)); err != nil {
		return err
	}
	row := make([]string, len(names)+1)
	for j := range ts.Time {
		row[0] = formatValue(ts.Time[j])
		for i, name := range names {
			row[i+1] = formatValue(ts.Column(name)[j])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return strconv.FormatFloat(MissingValue, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
