// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package winograd

import (
	"fmt"
	"strconv"
	"strings"
)

// Geometry is a Winograd tile geometry F(OutputTileRows×OutputTileCols,
// KernelRows×KernelCols). The four integers select the transform matrices
// and the tile dispatch tables.
type Geometry struct {
	OutputTileRows int
	OutputTileCols int
	KernelRows     int
	KernelCols     int
}

// Supported geometries.
var (
	F2x2_3x3 = Geometry{2, 2, 3, 3}
	F4x4_3x3 = Geometry{4, 4, 3, 3}
	F2x2_5x5 = Geometry{2, 2, 5, 5}
	F1x6_1x3 = Geometry{1, 6, 1, 3}
	F6x1_3x1 = Geometry{6, 1, 3, 1}
	F1x4_1x5 = Geometry{1, 4, 1, 5}
	F4x1_5x1 = Geometry{4, 1, 5, 1}
	F1x2_1x7 = Geometry{1, 2, 1, 7}
	F2x1_7x1 = Geometry{2, 1, 7, 1}
)

// SupportedGeometries returns every geometry with registered tile functions.
func SupportedGeometries() []Geometry {
	return []Geometry{
		F2x2_3x3, F4x4_3x3, F2x2_5x5,
		F1x6_1x3, F6x1_3x1,
		F1x4_1x5, F4x1_5x1,
		F1x2_1x7, F2x1_7x1,
	}
}

// InnerTileRows returns the transform-domain tile height.
func (g Geometry) InnerTileRows() int {
	return g.OutputTileRows + g.KernelRows - 1
}

// InnerTileCols returns the transform-domain tile width.
func (g Geometry) InnerTileCols() int {
	return g.OutputTileCols + g.KernelCols - 1
}

// NGemms returns the number of transform cells, one GEMM each.
func (g Geometry) NGemms() int {
	return g.InnerTileRows() * g.InnerTileCols()
}

// Supported reports whether g has registered tile functions.
func (g Geometry) Supported() bool {
	for _, s := range SupportedGeometries() {
		if s == g {
			return true
		}
	}
	return false
}

func (g Geometry) String() string {
	return fmt.Sprintf("F(%dx%d,%dx%d)", g.OutputTileRows, g.OutputTileCols, g.KernelRows, g.KernelCols)
}

// ParseGeometry parses "4x4_3x3" or "F(4x4,3x3)".
func ParseGeometry(s string) (Geometry, error) {
	in := strings.TrimSpace(s)
	if strings.HasPrefix(in, "F(") && strings.HasSuffix(in, ")") {
		in = strings.Replace(in[2:len(in)-1], ",", "_", 1)
	} else {
		in = strings.TrimPrefix(in, "F")
	}
	tile, kernel, ok := strings.Cut(in, "_")
	if !ok {
		return Geometry{}, fmt.Errorf("winograd: cannot parse geometry %q", s)
	}
	var g Geometry
	var err1, err2 error
	g.OutputTileRows, g.OutputTileCols, err1 = parseDims(tile)
	g.KernelRows, g.KernelCols, err2 = parseDims(kernel)
	if err1 != nil || err2 != nil {
		return Geometry{}, fmt.Errorf("winograd: cannot parse geometry %q", s)
	}
	if !g.Supported() {
		return Geometry{}, fmt.Errorf("%w: %v", ErrUnsupportedGeometry, g)
	}
	return g, nil
}

// parseDims parses "RxC".
func parseDims(s string) (rows, cols int, err error) {
	r, c, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("missing x in %q", s)
	}
	if rows, err = strconv.Atoi(r); err != nil {
		return 0, 0, err
	}
	if cols, err = strconv.Atoi(c); err != nil {
		return 0, 0, err
	}
	return rows, cols, nil
}
