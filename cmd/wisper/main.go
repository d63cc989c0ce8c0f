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

// Command wisper is the command-line interface for the WISPER calibration
// and post-processing pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/wisper-isotope/wisper/wisperutil"
)

func main() {
	if err := wisperutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
