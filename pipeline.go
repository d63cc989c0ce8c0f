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

	"github.com/sirupsen/logrus"
)

// A ParameterSource supplies calibration parameter sets to the pipeline.
// Calibration2016 covers the per-instrument 2016 calibrations; CrossCal
// covers the 2017/2018 Pic2-onto-Pic1 cross-calibrations.
type ParameterSource interface {
	Calibration2016(inst Instrument) (InstrumentCalibration, error)
	CrossCal(year int) (CrossCalibration, error)
}

// smoothingWindow is the trailing moving-average window, in 1 Hz samples,
// applied to the isotope channels before cross-calibration. The cross-
// calibration polynomials were fit against deltas smoothed with exactly this
// window, so it must match for reproducible output.
const smoothingWindow = 10

// A Pipeline calibrates the Pic2 channels of per-flight WISPER records.
// Each flight is processed independently: a failed flight is reported and
// the remaining flights continue.
type Pipeline struct {
	// TimeSync is the store holding the time-synchronized records, the
	// input for the 2016 calibrations.
	TimeSync *FlightStore
	// Pic1Cal is the store holding the Pic1-calibrated records, the input
	// for the 2017/2018 cross-calibrations.
	Pic1Cal *FlightStore
	// Out is the store that receives calibrated records.
	Out *FlightStore
	// Params supplies the calibration parameter sets.
	Params ParameterSource
	// Log receives per-flight progress and failure reports. If nil, the
	// standard logger is used.
	Log *logrus.Logger
}

func (p *Pipeline) logger() *logrus.Logger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}

// A Flight names one flight day to be calibrated: the date, the sampling
// year, and, for 2016 flights, which analyzer occupied the Pic2 position.
type Flight struct {
	Date       string
	Year       int
	Instrument Instrument // used for 2016 only
}

// Run calibrates each flight in sequence. Errors are reported per flight;
// processing continues with the remaining flights. The returned count is the
// number of flights that failed.
func (p *Pipeline) Run(flights []Flight) int {
	log := p.logger()
	failed := 0
	for _, fl := range flights {
		log.WithFields(logrus.Fields{"date": fl.Date, "year": fl.Year}).
			Info("calibrating flight")
		if err := p.CalibrateFlight(fl); err != nil {
			log.WithFields(logrus.Fields{"date": fl.Date}).
				WithError(err).Error("flight calibration failed")
			failed++
		}
	}
	return failed
}

// CalibrateFlight runs the full calibration for one flight day. For 2016 it
// applies the per-instrument humidity-dependence and absolute calibrations;
// for 2017 and 2018 it cross-calibrates Pic2 onto Pic1.
func (p *Pipeline) CalibrateFlight(fl Flight) error {
	switch fl.Year {
	case 2016:
		return p.calibrate2016(fl)
	case 2017, 2018:
		return p.crossCalibrate(fl)
	default:
		return &ConfigError{Year: fl.Year, Instrument: fl.Instrument,
			Detail: "sampling year outside 2016-2018"}
	}
}

// calibrate2016 applies the three-channel 2016 calibration: the humidity-
// dependence correction followed by the absolute-calibration line for each
// isotope channel, then the absolute-calibration line for humidity. The
// isotope corrections read the uncalibrated humidity, so humidity must be
// overwritten last.
func (p *Pipeline) calibrate2016(fl Flight) error {
	params, err := p.Params.Calibration2016(fl.Instrument)
	if err != nil {
		return err
	}
	ts, err := p.TimeSync.Read(fl.Date, StageTimeSync)
	if err != nil {
		return err
	}

	q := ts.Vapor(Pic2, ChanH2O)
	if q == nil {
		return fmt.Errorf("wisper: flight %s has no %s column", fl.Date, ChanH2O.ColumnName(Pic2))
	}
	for _, iso := range []Isotope{IsoD, Iso18O} {
		ch := ChanDD
		if iso == Iso18O {
			ch = ChanD18O
		}
		delta := ts.Vapor(Pic2, ch)
		if delta == nil {
			return fmt.Errorf("wisper: flight %s has no %s column", fl.Date, ch.ColumnName(Pic2))
		}
		if err := ts.SetVapor(Pic2, ch, FullCalibration(delta, q, params.Isotope(iso))); err != nil {
			return err
		}
	}
	if err := ts.SetVapor(Pic2, ChanH2O,
		AbsoluteCalibration(q, params.H2O.Slope, params.H2O.Intercept)); err != nil {
		return err
	}

	return p.Out.Write(ts, StagePic2Cal, nil)
}

// crossCalibrate maps the Pic2 channels onto the Pic1 reference frame using
// the fitted polynomial models for the flight's sampling year. The isotope
// polynomials are evaluated on log raw humidity and the smoothed raw
// isotope channel.
func (p *Pipeline) crossCalibrate(fl Flight) error {
	params, err := p.Params.CrossCal(fl.Year)
	if err != nil {
		return err
	}
	ts, err := p.Pic1Cal.Read(fl.Date, StagePic1Cal)
	if err != nil {
		return err
	}

	q := ts.Vapor(Pic2, ChanH2O)
	if q == nil {
		return fmt.Errorf("wisper: flight %s has no %s column", fl.Date, ChanH2O.ColumnName(Pic2))
	}
	logq := Log(q)

	for _, iso := range []Isotope{IsoD, Iso18O} {
		ch := ChanDD
		if iso == Iso18O {
			ch = ChanD18O
		}
		delta := ts.Vapor(Pic2, ch)
		if delta == nil {
			return fmt.Errorf("wisper: flight %s has no %s column", fl.Date, ch.ColumnName(Pic2))
		}
		smoothed := TrailingMean(delta, smoothingWindow)
		if err := ts.SetVapor(Pic2, ch,
			CrossCalibrateIsotopeRatio(logq, smoothed, params.Isotope(iso))); err != nil {
			return err
		}
	}
	if err := ts.SetVapor(Pic2, ChanH2O, CrossCalibrateHumidity(q, params.H2O.Slope)); err != nil {
		return err
	}

	return p.Out.Write(ts, StagePic2Cal, nil)
}

// A TableParameterSource reads calibration parameters from the external
// tables: cross-calibration coefficients from the calibration-fits workbook
// and the built-in 2016 constants. Cross-calibrations are loaded lazily and
// cached per year.
type TableParameterSource struct {
	// WorkbookPath locates the calibration-fits workbook.
	WorkbookPath string

	xcal map[int]CrossCalibration
}

// Calibration2016 implements ParameterSource using the built-in 2016
// parameter sets.
func (s *TableParameterSource) Calibration2016(inst Instrument) (InstrumentCalibration, error) {
	return Calibration2016(inst)
}

// CrossCal implements ParameterSource by reading the workbook row for the
// given year.
func (s *TableParameterSource) CrossCal(year int) (CrossCalibration, error) {
	if c, ok := s.xcal[year]; ok {
		return c, nil
	}
	c, err := ReadCrossCalibration(s.WorkbookPath, year)
	if err != nil {
		return CrossCalibration{}, err
	}
	if s.xcal == nil {
		s.xcal = make(map[int]CrossCalibration)
	}
	s.xcal[year] = c
	return c, nil
}
