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

// Package wisper post-processes airborne measurements from the WISPER
// water-isotope spectrometer system flown during the 2016-2018 ORACLES
// campaigns. Two Picarro analyzers sampled in parallel ("Pic1" and "Pic2");
// this package applies empirical humidity-dependence and absolute
// calibrations to their humidity and isotope-ratio channels, cross-calibrates
// Pic2 onto Pic1 for the 2017 and 2018 sampling periods, and estimates
// measurement uncertainty by Monte Carlo propagation of the calibration
// parameter errors.
package wisper

import "fmt"

// An Instrument is one of the two physical Picarro analyzers flown as the
// WISPER "Pic2" unit. Which analyzer occupied the Pic2 position changed
// between flights during 2016.
type Instrument int

const (
	// Mako is the analyzer flown as Pic2 for the early 2016 flights and as
	// Pic1 in 2017 and 2018.
	Mako Instrument = iota
	// Gulper is the analyzer flown as Pic2 for the later 2016 flights.
	Gulper
)

func (i Instrument) String() string {
	switch i {
	case Mako:
		return "Mako"
	case Gulper:
		return "Gulper"
	default:
		return fmt.Sprintf("Instrument(%d)", int(i))
	}
}

// A Pic identifies one of the two analyzer positions in the WISPER rack.
type Pic int

const (
	// Pic1 sampled through the SDI inlet and serves as the calibration
	// reference frame for 2017 and 2018.
	Pic1 Pic = 1
	// Pic2 sampled total water and is cross-calibrated onto Pic1.
	Pic2 Pic = 2
)

// An Isotope identifies one of the two measured water isotopologue ratios.
type Isotope int

const (
	// IsoD is the HDO/H2O ratio deviation dD, in permil.
	IsoD Isotope = iota
	// Iso18O is the H2(18O)/H2O ratio deviation d18O, in permil.
	Iso18O
)

func (iso Isotope) String() string {
	switch iso {
	case IsoD:
		return "dD"
	case Iso18O:
		return "d18O"
	default:
		return fmt.Sprintf("Isotope(%d)", int(iso))
	}
}

// A Channel identifies one measured quantity on an analyzer. Column names in
// the flight files are derived from the channel and analyzer position by the
// typed accessors on FlightTimeSeries; no string manipulation of column
// names happens anywhere downstream.
type Channel int

const (
	// ChanH2O is water vapor concentration in ppmv.
	ChanH2O Channel = iota
	// ChanDD is the deuterium ratio deviation in permil.
	ChanDD
	// ChanD18O is the oxygen-18 ratio deviation in permil.
	ChanD18O
)

func (c Channel) String() string {
	switch c {
	case ChanH2O:
		return "h2o"
	case ChanDD:
		return "dD"
	case ChanD18O:
		return "d18O"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// ColumnName returns the flight-file column name for channel c measured by
// the analyzer in position p, for example "h2o_tot2".
func (c Channel) ColumnName(p Pic) string {
	return fmt.Sprintf("%s_tot%d", c, p)
}

// A ConfigError reports a request for a calibration parameter set that does
// not exist, such as an unknown instrument and year combination. It is fatal
// for the flight being processed but does not stop other flights.
type ConfigError struct {
	Year       int
	Instrument Instrument
	Detail     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("wisper: no calibration for %v in %d: %s",
		e.Instrument, e.Year, e.Detail)
}
