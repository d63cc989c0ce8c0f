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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"

	"github.com/wisper-isotope/wisper"
)

// getPath returns the named configuration option with environment variables
// expanded.
func getPath(varName string, cfg *viper.Viper) string {
	return os.ExpandEnv(cfg.GetString(varName))
}

// getStringSlice returns a []string from a viper configuration, accounting
// for the fact that it might be a json array or a comma-separated string if
// it was set from a command line argument.
func getStringSlice(varName string, cfg *viper.Viper) ([]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []interface{}:
		return cast.ToStringSliceE(v)
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		if strings.HasPrefix(v, "[") {
			var o []string
			if err := json.Unmarshal([]byte(v), &o); err != nil {
				return nil, fmt.Errorf("wisperutil: parsing config variable %s: %v", varName, err)
			}
			return o, nil
		}
		return strings.Split(v, ","), nil
	default:
		return nil, fmt.Errorf("wisperutil: invalid type for config variable %s: %#v", varName, i)
	}
}

// selectFlights expands the campaign manifest into the flight list, applying
// the flights configuration option if one is set.
func selectFlights(campaign *Campaign) ([]wisper.Flight, error) {
	dates, err := getStringSlice("flights", Cfg)
	if err != nil {
		return nil, err
	}
	return filterFlights(campaign.Flights(), dates)
}

// filterFlights keeps only the flights whose dates appear in dates. An empty
// date list keeps every flight. A date that matches no flight is an error, to
// catch typos before a run silently does nothing.
func filterFlights(flights []wisper.Flight, dates []string) ([]wisper.Flight, error) {
	if len(dates) == 0 {
		return flights, nil
	}
	byDate := make(map[string]wisper.Flight, len(flights))
	for _, fl := range flights {
		byDate[fl.Date] = fl
	}
	out := make([]wisper.Flight, 0, len(dates))
	for _, date := range dates {
		fl, ok := byDate[date]
		if !ok {
			return nil, fmt.Errorf("wisperutil: flight date %s is not in the campaign manifest", date)
		}
		out = append(out, fl)
	}
	return out, nil
}
