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
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"
)

func TestUncertaintyGrid(t *testing.T) {
	q, delta := UncertaintyGrid(IsoD)
	if len(q) != 15000 || len(delta) != 15000 {
		t.Fatalf("grid has %d x %d points, want 15000 each", len(q), len(delta))
	}
	if q[0] != 1500 || q[99] != 22000 {
		t.Errorf("humidity axis spans [%g, %g], want [1500, 22000]", q[0], q[99])
	}
	if delta[0] != -300 || delta[len(delta)-1] != -60 {
		t.Errorf("dD axis spans [%g, %g], want [-300, -60]", delta[0], delta[len(delta)-1])
	}

	_, d18O := UncertaintyGrid(Iso18O)
	if d18O[0] != -30 || d18O[len(d18O)-1] != -8 {
		t.Errorf("d18O axis spans [%g, %g], want [-30, -8]", d18O[0], d18O[len(d18O)-1])
	}
}

func uncertaintyTestFits() []HumidityDependenceFit {
	return []HumidityDependenceFit{{
		Instrument: Mako, Year: 2016,
		ADD: -0.365, BDD: 3.031, SigADD: 0.01, SigBDD: 0.01,
		A18O: -0.1, B18O: 2.5, SigA18O: 0.01, SigB18O: 0.01,
	}}
}

func TestCalParams(t *testing.T) {
	m := &UncertaintyModeler{Fits: uncertaintyTestFits()}

	pars, sigs, err := m.calParams(IsoD, UseCaseHighRate)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{-0.365, 3.031, 1.0564, -5.957469671}
	for i := range want {
		if pars[i] != want[i] {
			t.Errorf("dD parameter %d: %g, want %g", i, pars[i], want[i])
		}
	}
	if sigs[3] != 1 {
		t.Errorf("relative dD intercept sigma %g, want 1", sigs[3])
	}

	// The absolute use-case widens only the intercept sigma.
	_, sigsAbs, err := m.calParams(IsoD, UseCaseAbsolute)
	if err != nil {
		t.Fatal(err)
	}
	if sigsAbs[3] != 4 {
		t.Errorf("absolute dD intercept sigma %g, want 4", sigsAbs[3])
	}
	if sigsAbs[2] != sigs[2] {
		t.Errorf("absolute use-case changed slope sigma: %g vs %g", sigsAbs[2], sigs[2])
	}

	_, sigs18O, err := m.calParams(Iso18O, UseCaseAbsolute)
	if err != nil {
		t.Fatal(err)
	}
	if sigs18O[3] != 1 {
		t.Errorf("absolute d18O intercept sigma %g, want 1", sigs18O[3])
	}
}

func TestCalParamsMissingFit(t *testing.T) {
	m := &UncertaintyModeler{Fits: nil}
	if _, _, err := m.calParams(IsoD, UseCaseHighRate); err == nil {
		t.Error("missing Mako 2016 fit accepted")
	}
}

// TestFitUseCase runs one small seeded Monte Carlo end to end. With zero
// sigma on the humidity-dependence parameters, the output spread at a grid
// point comes from the slope and intercept draws alone, so the surrogate
// should land near the analytic sqrt((sigSlope*dCorr)^2 + sigIntercept^2).
func TestFitUseCase(t *testing.T) {
	m := &UncertaintyModeler{
		Engine: &MonteCarlo{Trials: 300, Rand: rand.New(rand.NewSource(11))},
		Fits: []HumidityDependenceFit{{
			Instrument: Mako, Year: 2016,
			ADD: -0.365, BDD: 3.031,
		}},
	}
	c, err := m.FitUseCase(IsoD, UseCaseAveraged)
	if err != nil {
		t.Fatal(err)
	}
	// Spot-check in the grid interior. The slope draw scales with the
	// humidity-corrected delta, which dominates the intercept sigma here.
	dCorr := -150 - (-0.365)*math.Pow(math.Log(50000)-math.Log(10000), 3.031)
	want := math.Sqrt(math.Pow(sigSlopeDD*dCorr, 2) + sigInterceptDD*sigInterceptDD)
	got := c.Sigma(10000, -150)
	if math.Abs(got-want)/want > 0.15 {
		t.Errorf("surrogate sigma(10000, -150) = %g, want near %g", got, want)
	}
}

func TestSurrogateTableRoundTrip(t *testing.T) {
	rows := []SurrogateRow{
		{UseCase: UseCaseHighRate, Isotope: IsoD,
			Coeffs: SurrogateCoefficients{Alpha: [surrogateTerms]float64{120.34, -47.61, 7.084, -0.4683, 0.01159, -0.07937}}},
		{UseCase: UseCaseAbsolute, Isotope: Iso18O,
			Coeffs: SurrogateCoefficients{Alpha: [surrogateTerms]float64{-3.1, 1.2, -0.15, 0.008, -0.0002, 0.0041}}},
	}

	var buf bytes.Buffer
	if err := WriteSurrogateTable(&buf, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows", len(lines))
	}
	if lines[0] != "use case,isotope,alph0,alph1,alph2,alph3,alph4,alph5" {
		t.Errorf("header = %q", lines[0])
	}
	// Per-column rounding: 1, 1, 2, 3, 4, 4 decimal places.
	if lines[1] != "1,dD,120.3,-47.6,7.08,-0.468,0.0116,-0.0794" {
		t.Errorf("dD row = %q", lines[1])
	}

	got, err := ReadSurrogateTable(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].UseCase != UseCaseHighRate || got[0].Isotope != IsoD {
		t.Errorf("row 0 keys: %v, %v", got[0].UseCase, got[0].Isotope)
	}
	if got[1].UseCase != UseCaseAbsolute || got[1].Isotope != Iso18O {
		t.Errorf("row 1 keys: %v, %v", got[1].UseCase, got[1].Isotope)
	}
	if math.Abs(got[0].Coeffs.Alpha[4]-0.0116) > 1e-12 {
		t.Errorf("alph4 = %g, want 0.0116", got[0].Coeffs.Alpha[4])
	}
}

func TestReadSurrogateTableErrors(t *testing.T) {
	bad := []string{
		"use case,isotope,alph0,alph1,alph2,alph3,alph4,alph5\n9,dD,0,0,0,0,0,0\n",
		"use case,isotope,alph0,alph1,alph2,alph3,alph4,alph5\n1,dX,0,0,0,0,0,0\n",
		"use case,isotope,alph0,alph1,alph2,alph3,alph4,alph5\n1,dD,zero,0,0,0,0,0\n",
	}
	for i, s := range bad {
		if _, err := ReadSurrogateTable(strings.NewReader(s)); err == nil {
			t.Errorf("case %d: malformed table accepted", i)
		}
	}
}
