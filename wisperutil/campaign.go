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

package wisperutil

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/wisper-isotope/wisper"
)

// A Campaign is the manifest of flight days to process, decoded from a TOML
// file. The 2016 flights are split by which analyzer occupied the Pic2
// position.
type Campaign struct {
	// Mako2016 and Gulper2016 list the 2016 flight dates (yyyymmdd) flown
	// with the respective analyzer as Pic2.
	Mako2016   []string
	Gulper2016 []string
	// Flights2017 and Flights2018 list the cross-calibrated flight dates.
	Flights2017 []string
	Flights2018 []string
}

// ReadCampaign decodes a campaign manifest from a TOML file.
func ReadCampaign(path string) (*Campaign, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wisperutil: opening campaign manifest: %v", err)
	}
	defer f.Close()
	c := new(Campaign)
	if _, err := toml.NewDecoder(f).Decode(c); err != nil {
		return nil, fmt.Errorf("wisperutil: decoding campaign manifest: %v", err)
	}
	return c, nil
}

// Flights expands the manifest into the flight list consumed by the
// calibration pipeline, in campaign order.
func (c *Campaign) Flights() []wisper.Flight {
	var flights []wisper.Flight
	for _, date := range c.Mako2016 {
		flights = append(flights, wisper.Flight{Date: date, Year: 2016, Instrument: wisper.Mako})
	}
	for _, date := range c.Gulper2016 {
		flights = append(flights, wisper.Flight{Date: date, Year: 2016, Instrument: wisper.Gulper})
	}
	for _, date := range c.Flights2017 {
		flights = append(flights, wisper.Flight{Date: date, Year: 2017})
	}
	for _, date := range c.Flights2018 {
		flights = append(flights, wisper.Flight{Date: date, Year: 2018})
	}
	return flights
}
