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
)

// MissingValue is the sentinel used for missing data in WISPER flight files.
// It is replaced with NaN on load so that it can never take part in
// arithmetic, and written back out in its place when a record is persisted.
const MissingValue = -9999.

// TimeColumn is the name of the time coordinate shared by the flight files
// and the merge product, in seconds from midnight UTC.
const TimeColumn = "Start_UTC"

// A FlightTimeSeries holds the 1 Hz record for one flight day: the time
// coordinate plus named data columns of equal length. Missing values are
// represented as NaN internally.
type FlightTimeSeries struct {
	// Date is the flight date, formatted yyyymmdd.
	Date string
	// Time is the Start_UTC coordinate in seconds.
	Time []float64

	names []string
	cols  map[string][]float64
}

// NewFlightTimeSeries creates an empty record for the given flight date and
// time coordinate.
func NewFlightTimeSeries(date string, time []float64) *FlightTimeSeries {
	return &FlightTimeSeries{
		Date: date,
		Time: time,
		cols: make(map[string][]float64),
	}
}

// Len returns the number of samples in the record.
func (ts *FlightTimeSeries) Len() int { return len(ts.Time) }

// ColumnNames returns the data column names in insertion order, not
// including the time coordinate.
func (ts *FlightTimeSeries) ColumnNames() []string {
	names := make([]string, len(ts.names))
	copy(names, ts.names)
	return names
}

// Column returns the named data column, or nil if it does not exist.
func (ts *FlightTimeSeries) Column(name string) []float64 {
	return ts.cols[name]
}

// SetColumn adds or replaces the named data column. It is an error for the
// column length to differ from the time coordinate length.
func (ts *FlightTimeSeries) SetColumn(name string, data []float64) error {
	if len(data) != len(ts.Time) {
		return fmt.Errorf("wisper: column %s has %d samples but flight %s has %d time steps",
			name, len(data), ts.Date, len(ts.Time))
	}
	if _, ok := ts.cols[name]; !ok {
		ts.names = append(ts.names, name)
	}
	ts.cols[name] = data
	return nil
}

// Vapor returns the vapor column for the given channel and analyzer
// position, or nil if the record does not carry it.
func (ts *FlightTimeSeries) Vapor(p Pic, c Channel) []float64 {
	return ts.Column(c.ColumnName(p))
}

// SetVapor replaces the vapor column for the given channel and analyzer
// position.
func (ts *FlightTimeSeries) SetVapor(p Pic, c Channel, data []float64) error {
	return ts.SetColumn(c.ColumnName(p), data)
}

// NormalizeMissing replaces the missing-value sentinel with NaN in every
// data column so that missing samples propagate through arithmetic instead
// of polluting it.
func (ts *FlightTimeSeries) NormalizeMissing() {
	for _, name := range ts.names {
		col := ts.cols[name]
		for i, v := range col {
			if v == MissingValue {
				col[i] = math.NaN()
			}
		}
	}
}

// CheckTime verifies that the time coordinate is strictly non-decreasing.
func (ts *FlightTimeSeries) CheckTime() error {
	for i := 1; i < len(ts.Time); i++ {
		if ts.Time[i] < ts.Time[i-1] {
			return fmt.Errorf("wisper: flight %s: time decreases at sample %d (%g after %g)",
				ts.Date, i, ts.Time[i], ts.Time[i-1])
		}
	}
	return nil
}

// TrailingMean smooths x with a trailing moving average of the given window.
// Output sample i is the mean of input samples i-window+1 through i; the
// leading window-1 samples are NaN, and any window containing a NaN yields
// NaN. This reproduces the smoothing applied to the isotope channels before
// cross-calibration, so the window handling must not change.
func TrailingMean(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.
		for j := i - window + 1; j <= i; j++ {
			sum += x[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}
