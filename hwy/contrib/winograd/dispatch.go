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
	"sync"
)

// axisPadding returns the padding before and after tile t along one axis:
// the tile covers positions [t*step-padBefore, t*step-padBefore+inner) of an
// axis of length n.
func axisPadding(t, step, inner, padBefore, n int) (before, after int) {
	start := t*step - padBefore
	return max(0, -start), max(0, start+inner-n)
}

// tileCount returns the number of tiles of size step covering an axis of
// length n that produces out outputs.
func tileCount(out, step int) int {
	return (out + step - 1) / step
}

// axisOutputs returns the output extent of an axis of length n.
func axisOutputs(n, kernel int, padding PaddingType) int {
	if padding == PaddingSame {
		return n
	}
	return n - kernel + 1
}

// axisPadBefore returns the zero padding before the first position.
func axisPadBefore(kernel int, padding PaddingType) int {
	if padding == PaddingSame {
		return (kernel - 1) / 2
	}
	return 0
}

// maxProbeExtent bounds the axis lengths enumerated when populating the
// tables. Padding patterns repeat with period OutputTile once an axis
// spans more than a few tiles, so this covers every reachable pattern.
const maxProbeExtent = 64

// reachableAxisPads returns every (before, after) padding pair the tiling
// produces along one axis, for either padding type.
func reachableAxisPads(output, kernel int) map[[2]int]bool {
	inner := output + kernel - 1
	pads := make(map[[2]int]bool)
	for _, padding := range []PaddingType{PaddingSame, PaddingValid} {
		padBefore := axisPadBefore(kernel, padding)
		for n := 1; n <= maxProbeExtent; n++ {
			out := axisOutputs(n, kernel, padding)
			for t := range tileCount(out, output) {
				before, after := axisPadding(t, output, inner, padBefore, n)
				pads[[2]int{before, after}] = true
			}
		}
	}
	return pads
}

// inputTable is the tile dispatch table of an input transform, indexed
// [padTop][padLeft][padBottom][padRight].
type inputTable[T Float] struct {
	geometry Geometry
	tiles    *inputTiles[T]
	dims     [4]int
	fns      []inputTileFunc[T]
}

func newInputTable[T Float](g Geometry) *inputTable[T] {
	t := &inputTable[T]{
		geometry: g,
		tiles:    newInputTiles[T](g),
		dims: [4]int{
			g.KernelRows/2 + 1,
			g.KernelCols/2 + 1,
			g.InnerTileRows(),
			g.InnerTileCols(),
		},
	}
	t.fns = make([]inputTileFunc[T], t.dims[0]*t.dims[1]*t.dims[2]*t.dims[3])

	rowPads := reachableAxisPads(g.OutputTileRows, g.KernelRows)
	colPads := reachableAxisPads(g.OutputTileCols, g.KernelCols)
	for rp := range rowPads {
		for cp := range colPads {
			pad := Padding{Top: rp[0], Left: cp[0], Bottom: rp[1], Right: cp[1]}
			if pad == (Padding{}) {
				t.fns[t.index(pad)] = t.unpadded
				continue
			}
			t.fns[t.index(pad)] = t.tiles.specialize(pad)
		}
	}
	return t
}

// unpadded is the interior tile function: no clearing, every cell loaded.
func (t *inputTable[T]) unpadded(ws *workspace[T], nChannels int, in []T, rowStride, colStride int, out []T, matrixStride int, _ Padding) {
	t.tiles.generic(ws, nChannels, in, rowStride, colStride, out, matrixStride, Padding{})
}

func (t *inputTable[T]) inRange(p Padding) bool {
	return p.Top >= 0 && p.Top < t.dims[0] &&
		p.Left >= 0 && p.Left < t.dims[1] &&
		p.Bottom >= 0 && p.Bottom < t.dims[2] &&
		p.Right >= 0 && p.Right < t.dims[3]
}

func (t *inputTable[T]) index(p Padding) int {
	return ((p.Top*t.dims[1]+p.Left)*t.dims[2]+p.Bottom)*t.dims[3] + p.Right
}

// specialized reports whether p has a registered specialization.
func (t *inputTable[T]) specialized(p Padding) bool {
	return t.inRange(p) && t.fns[t.index(p)] != nil
}

// TileSpecialization returns the tile function for p: the registered
// specialization, or the generic function for an in-range combination
// without one. A combination outside the table is a configuration error
// and panics.
func (t *inputTable[T]) TileSpecialization(p Padding) inputTileFunc[T] {
	if !t.inRange(p) {
		panic(fmt.Sprintf("winograd: %v input padding %+v outside dispatch table %v", t.geometry, p, t.dims))
	}
	if fn := t.fns[t.index(p)]; fn != nil {
		return fn
	}
	return t.tiles.generic
}

// outputTable is the tile dispatch table of an output transform, indexed
// [padBottom][padRight].
type outputTable[T Float] struct {
	geometry Geometry
	tiles    *outputTiles[T]
	dims     [2]int
	fns      []outputTileFunc[T]
}

func newOutputTable[T Float](g Geometry) *outputTable[T] {
	t := &outputTable[T]{
		geometry: g,
		tiles:    newOutputTiles[T](g),
		dims:     [2]int{g.OutputTileRows, g.OutputTileCols},
	}
	t.fns = make([]outputTileFunc[T], t.dims[0]*t.dims[1])
	for pb := range t.dims[0] {
		for pr := range t.dims[1] {
			t.fns[pb*t.dims[1]+pr] = t.tiles.specialize(pb, pr)
		}
	}
	return t
}

func (t *outputTable[T]) inRange(padBottom, padRight int) bool {
	return padBottom >= 0 && padBottom < t.dims[0] && padRight >= 0 && padRight < t.dims[1]
}

// TileSpecialization returns the output tile function for the padding.
func (t *outputTable[T]) TileSpecialization(padBottom, padRight int) outputTileFunc[T] {
	if !t.inRange(padBottom, padRight) {
		panic(fmt.Sprintf("winograd: %v output padding (%d, %d) outside dispatch table %v", t.geometry, padBottom, padRight, t.dims))
	}
	if fn := t.fns[padBottom*t.dims[1]+padRight]; fn != nil {
		return fn
	}
	return t.tiles.generic
}

// geometryKernels holds everything built for one geometry and element type.
type geometryKernels[T Float] struct {
	geometry Geometry
	input    *inputTable[T]
	output   *outputTable[T]
	weights  *weightsTiles[T]
	scratch  sync.Pool
}

func newGeometryKernels[T Float](g Geometry) *geometryKernels[T] {
	k := &geometryKernels[T]{
		geometry: g,
		input:    newInputTable[T](g),
		output:   newOutputTable[T](g),
		weights:  newWeightsTiles[T](g),
	}
	k.scratch.New = func() any { return newWorkspace[T](defaultLanes[T]()) }
	return k
}

func (k *geometryKernels[T]) getWorkspace() *workspace[T] {
	return k.scratch.Get().(*workspace[T])
}

func (k *geometryKernels[T]) putWorkspace(ws *workspace[T]) {
	k.scratch.Put(ws)
}

// checkCoverage walks every tile of every probe shape through the same
// padding arithmetic the engines use and fails if a reachable padding has
// no specialization.
func (k *geometryKernels[T]) checkCoverage() error {
	g := k.geometry
	for _, padding := range []PaddingType{PaddingSame, PaddingValid} {
		padTop := axisPadBefore(g.KernelRows, padding)
		padLeft := axisPadBefore(g.KernelCols, padding)
		for n := 1; n <= maxProbeExtent; n++ {
			outRows := axisOutputs(n, g.KernelRows, padding)
			outCols := axisOutputs(n, g.KernelCols, padding)
			for ti := range tileCount(outRows, g.OutputTileRows) {
				pt, pb := axisPadding(ti, g.OutputTileRows, g.InnerTileRows(), padTop, n)
				for tj := range tileCount(outCols, g.OutputTileCols) {
					pl, pr := axisPadding(tj, g.OutputTileCols, g.InnerTileCols(), padLeft, n)
					p := Padding{Top: pt, Left: pl, Bottom: pb, Right: pr}
					if !k.input.specialized(p) {
						return fmt.Errorf("%v %v input padding %+v has no specialization", g, padding, p)
					}
				}
			}
			for ti := range tileCount(outRows, g.OutputTileRows) {
				pb := max(0, (ti+1)*g.OutputTileRows-outRows)
				for tj := range tileCount(outCols, g.OutputTileCols) {
					pr := max(0, (tj+1)*g.OutputTileCols-outCols)
					if !k.output.inRange(pb, pr) || k.output.fns[pb*k.output.dims[1]+pr] == nil {
						return fmt.Errorf("%v %v output padding (%d, %d) has no specialization", g, padding, pb, pr)
					}
				}
			}
		}
	}
	return nil
}

var (
	kernels32 = buildKernels[float32]()
	kernels64 = buildKernels[float64]()
)

// buildKernels builds and checks the tables of every supported geometry.
// A geometry with a reachable but unregistered tile configuration is a
// startup error.
func buildKernels[T Float]() map[Geometry]*geometryKernels[T] {
	m := make(map[Geometry]*geometryKernels[T])
	for _, g := range SupportedGeometries() {
		k := newGeometryKernels[T](g)
		if err := k.checkCoverage(); err != nil {
			panic("winograd: " + err.Error())
		}
		m[g] = k
	}
	return m
}

// kernelsFor returns the tables of g for element type T.
func kernelsFor[T Float](g Geometry) (*geometryKernels[T], bool) {
	var k any
	switch any(*new(T)).(type) {
	case float32:
		k = kernels32[g]
	case float64:
		k = kernels64[g]
	}
	gk, ok := k.(*geometryKernels[T])
	return gk, ok && gk != nil
}

// mustKernelsFor is kernelsFor for callers that validated g.
func mustKernelsFor[T Float](g Geometry) *geometryKernels[T] {
	k, ok := kernelsFor[T](g)
	if !ok {
		panic(fmt.Sprintf("winograd: %v: %v", ErrUnsupportedGeometry, g))
	}
	return k
}

// TableStats summarizes the dispatch tables of a geometry.
type TableStats struct {
	Geometry            Geometry
	InputEntries        int
	InputSpecialized    int
	OutputEntries       int
	OutputSpecialized   int
	InputTableDims      [4]int
	OutputTableDims     [2]int
	InputOpsPerTile     int
	OutputOpsPerTile    int
	WeightsOpsPerKernel int
}

// DispatchStats reports the table coverage of a supported geometry.
func DispatchStats(g Geometry) (TableStats, error) {
	k, ok := kernelsFor[float32](g)
	if !ok {
		return TableStats{}, fmt.Errorf("%w: %v", ErrUnsupportedGeometry, g)
	}
	s := TableStats{
		Geometry:            g,
		InputEntries:        len(k.input.fns),
		OutputEntries:       len(k.output.fns),
		InputTableDims:      k.input.dims,
		OutputTableDims:     k.output.dims,
		InputOpsPerTile:     k.input.tiles.tt.ops(),
		OutputOpsPerTile:    k.output.tiles.tt.ops(),
		WeightsOpsPerKernel: k.weights.tt.ops(),
	}
	for _, fn := range k.input.fns {
		if fn != nil {
			s.InputSpecialized++
		}
	}
	for _, fn := range k.output.fns {
		if fn != nil {
			s.OutputSpecialized++
		}
	}
	return s, nil
}
