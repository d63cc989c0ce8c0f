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

// Package wisperutil holds the WISPER command-line interface and its
// configuration handling.
package wisperutil

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wisper-isotope/wisper"
	"github.com/wisper-isotope/wisper/merge"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log is the logger shared by the commands.
var Log *logrus.Logger

func init() {
	Log = logrus.StandardLogger()
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})
}

var options []struct {
	name, usage string
	defaultVal  interface{}
	flagsets    []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to the WISPER
	// commands.
	options = []struct {
		name, usage string
		defaultVal  interface{}
		flagsets    []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "campaign",
			usage: `
              campaign specifies the TOML manifest listing the flight dates
              to process, split by sampling year and 2016 analyzer.`,
			defaultVal: "campaign.toml",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "flights",
			usage: `
              flights optionally restricts processing to the listed flight
              dates (comma-separated, or a JSON array when set from the
              command line). An empty list processes the whole campaign.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{calibrateCmd.Flags(), mergeCmd.Flags()},
		},
		{
			name: "data.timesync",
			usage: `
              data.timesync is the directory holding the time-synchronized
              input flight files.`,
			defaultVal: "WISPER_data/time_sync",
			flagsets:   []*pflag.FlagSet{calibrateCmd.Flags()},
		},
		{
			name: "data.pic1cal",
			usage: `
              data.pic1cal is the directory holding the Pic1-calibrated
              flight files used as cross-calibration input.`,
			defaultVal: "WISPER_data/pic1_cal",
			flagsets:   []*pflag.FlagSet{calibrateCmd.Flags(), mergeCmd.Flags()},
		},
		{
			name: "data.pic2cal",
			usage: `
              data.pic2cal is the directory that receives the calibrated
              output flight files.`,
			defaultVal: "WISPER_data/pic2_cal",
			flagsets:   []*pflag.FlagSet{calibrateCmd.Flags(), mergeCmd.Flags()},
		},
		{
			name: "data.mergedir",
			usage: `
              data.mergedir is the directory holding the P-3 merge data
              product files.`,
			defaultVal: "P3_merge_data",
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "data.level3",
			usage: `
              data.level3 is the directory that receives the level-3 vapor
              product files.`,
			defaultVal: "WISPER_level3",
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "caltable.workbook",
			usage: `
              caltable.workbook locates the calibration-fits workbook holding
              the Pic2-onto-Pic1 cross-calibration coefficients.`,
			defaultVal: "Calibration_Data/calibration_fits.xlsx",
			flagsets:   []*pflag.FlagSet{calibrateCmd.Flags()},
		},
		{
			name: "caltable.qdep",
			usage: `
              caltable.qdep locates the humidity-dependence fit-results table
              used by the uncertainty estimation.`,
			defaultVal: "Calibration_Data/qdependence_fit_results.csv",
			flagsets:   []*pflag.FlagSet{uncertaintyCmd.Flags()},
		},
		{
			name: "uncertainty.output",
			usage: `
              uncertainty.output is the file that receives the fitted
              uncertainty-model coefficient table.`,
			defaultVal: "uncertainty_params.csv",
			flagsets:   []*pflag.FlagSet{uncertaintyCmd.Flags()},
		},
		{
			name: "uncertainty.trials",
			usage: `
              uncertainty.trials is the number of Monte Carlo trials per
              uncertainty run.`,
			defaultVal: wisper.DefaultTrials,
			flagsets:   []*pflag.FlagSet{uncertaintyCmd.Flags()},
		},
		{
			name: "uncertainty.seed",
			usage: `
              uncertainty.seed seeds the Monte Carlo random source for
              reproducible runs. Zero means seed from the clock.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{uncertaintyCmd.Flags()},
		},
	}

	Cfg = viper.New()
	for _, option := range options {
		for _, set := range option.flagsets {
			switch option.defaultVal.(type) {
			case string:
				set.String(option.name, option.defaultVal.(string), option.usage)
			case int:
				set.Int(option.name, option.defaultVal.(int), option.usage)
			case bool:
				set.Bool(option.name, option.defaultVal.(bool), option.usage)
			case float64:
				set.Float64(option.name, option.defaultVal.(float64), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(calibrateCmd)
	Root.AddCommand(uncertaintyCmd)
	Root.AddCommand(mergeCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("wisperutil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "wisper",
	Short: "Calibration and post-processing for WISPER aircraft data.",
	Long: `wisper applies the empirical calibrations to the WISPER water-isotope
measurements from the 2016-2018 ORACLES deployments, estimates the
measurement uncertainties, and merges the calibrated data with ancillary
flight variables.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag) or by using command-line
arguments.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate the Pic2 channels for all campaign flights.",
	Long: `calibrate applies the full Pic2 calibration to every flight in the
campaign manifest: the per-instrument humidity-dependence and absolute
calibrations for 2016, and the Pic2-onto-Pic1 cross-calibration for 2017
and 2018. Each flight is processed independently; a failed flight is
reported and the remaining flights continue.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		campaign, err := ReadCampaign(getPath("campaign", Cfg))
		if err != nil {
			return err
		}
		flights, err := selectFlights(campaign)
		if err != nil {
			return err
		}
		p := &wisper.Pipeline{
			TimeSync: &wisper.FlightStore{Dir: getPath("data.timesync", Cfg)},
			Pic1Cal:  &wisper.FlightStore{Dir: getPath("data.pic1cal", Cfg)},
			Out:      &wisper.FlightStore{Dir: getPath("data.pic2cal", Cfg)},
			Params:   &wisper.TableParameterSource{WorkbookPath: getPath("caltable.workbook", Cfg)},
			Log:      Log,
		}
		if failed := p.Run(flights); failed > 0 {
			return fmt.Errorf("wisperutil: %d of %d flights failed", failed, len(flights))
		}
		return nil
	},
}

var uncertaintyCmd = &cobra.Command{
	Use:   "uncertainty",
	Short: "Fit the uncertainty-lookup models by Monte Carlo propagation.",
	Long: `uncertainty propagates the calibration-parameter uncertainties through
the full calibration formula by Monte Carlo sampling over the operating
humidity and isotope-ratio ranges, fits the closed-form surrogate model to
each resulting standard-deviation surface, and writes the coefficient
table keyed by use-case and isotope.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(getPath("caltable.qdep", Cfg))
		if err != nil {
			return fmt.Errorf("wisperutil: opening humidity-dependence fit table: %v", err)
		}
		fits, err := wisper.ReadHumidityDependenceFits(f)
		f.Close()
		if err != nil {
			return err
		}

		engine := &wisper.MonteCarlo{Trials: Cfg.GetInt("uncertainty.trials")}
		if seed := Cfg.GetInt("uncertainty.seed"); seed != 0 {
			engine.Rand = rand.New(rand.NewSource(int64(seed)))
		}
		m := &wisper.UncertaintyModeler{Engine: engine, Fits: fits, Log: Log}
		rows, err := m.FitAll()
		if err != nil {
			return err
		}

		out, err := os.Create(getPath("uncertainty.output", Cfg))
		if err != nil {
			return fmt.Errorf("wisperutil: creating uncertainty output: %v", err)
		}
		if err := wisper.WriteSurrogateTable(out, rows); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Build the level-3 vapor product with ancillary flight variables.",
	Long: `merge collapses each calibrated flight record into single vapor columns
(Pic1 where available, Pic2 otherwise), converts water concentrations to
g/kg, and joins position, temperature, and pressure from the P-3 merge
data product by inner join on the shared time coordinate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		campaign, err := ReadCampaign(getPath("campaign", Cfg))
		if err != nil {
			return err
		}
		flights, err := selectFlights(campaign)
		if err != nil {
			return err
		}
		in := &wisper.FlightStore{Dir: getPath("data.pic2cal", Cfg)}
		out := &wisper.FlightStore{Dir: getPath("data.level3", Cfg)}
		products := &merge.ProductStore{Dir: getPath("data.mergedir", Cfg)}

		failed := 0
		for _, fl := range flights {
			log := Log.WithFields(logrus.Fields{"date": fl.Date})
			log.Info("building level-3 product")
			if err := mergeFlight(in, out, products, fl.Date); err != nil {
				log.WithError(err).Error("level-3 product failed")
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("wisperutil: %d of %d flights failed", failed, len(flights))
		}
		return nil
	},
}

func mergeFlight(in, out *wisper.FlightStore, products *merge.ProductStore, date string) error {
	ts, err := in.Read(date, wisper.StagePic2Cal)
	if err != nil {
		return err
	}
	vapor, err := merge.VaporProduct(ts)
	if err != nil {
		return err
	}
	joined, err := merge.AddFlightVariables(vapor, products)
	if err != nil {
		return err
	}
	return out.Write(joined, "level3", nil)
}
