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

import "github.com/ajroetker/go-winograd/hwy"

// Padding is the number of rows or columns of a tile that fall outside the
// tensor on each side.
type Padding struct {
	Top, Left, Bottom, Right int
}

// maxInnerCells bounds the cell count of any supported inner tile.
const maxInnerCells = 8 * 8

// workspace is per-goroutine scratch for the tile functions: the gathered
// tile, the half-transformed tile and the result, each lane-interleaved.
type workspace[T Float] struct {
	lanes     int
	x, tmp, y []T
}

func newWorkspace[T Float](lanes int) *workspace[T] {
	return &workspace[T]{
		lanes: lanes,
		x:     make([]T, maxInnerCells*lanes),
		tmp:   make([]T, maxInnerCells*lanes),
		y:     make([]T, maxInnerCells*lanes),
	}
}

func defaultLanes[T Float]() int {
	return max(1, hwy.MaxLanes[T]())
}

// Tile functions process the channels of one tile in lane batches of
// ws.lanes, then halve the batch down to a single channel for the
// remainder. Every batch width runs the same formula.

// inputTileFunc transforms one input tile. in holds the first in-bounds
// element of the tile and out the tile's row of matrix 0. Specialized
// functions ignore pad.
type inputTileFunc[T Float] func(ws *workspace[T], nChannels int, in []T, rowStride, colStride int, out []T, matrixStride int, pad Padding)

// outputTileFunc transforms one output tile, adding bias when it is not nil.
// Specialized functions ignore padBottom and padRight.
type outputTileFunc[T Float] func(ws *workspace[T], nChannels int, in []T, matrixStride int, bias, out []T, rowStride, colStride int, padBottom, padRight int)

// inputTiles holds the input transform of one geometry.
type inputTiles[T Float] struct {
	innerRows, innerCols int
	tt                   tileTransform[T]
}

func newInputTiles[T Float](g Geometry) *inputTiles[T] {
	return &inputTiles[T]{
		innerRows: g.InnerTileRows(),
		innerCols: g.InnerTileCols(),
		tt: tileTransform[T]{
			rows: inputAxis[T](g.InnerTileRows()),
			cols: inputAxis[T](g.InnerTileCols()),
		},
	}
}

// generic is the input tile function for runtime padding. Cells outside
// [pad.Top, inner-pad.Bottom) × [pad.Left, inner-pad.Right) read as zero.
func (k *inputTiles[T]) generic(ws *workspace[T], nChannels int, in []T, rowStride, colStride int, out []T, matrixStride int, pad Padding) {
	rows := k.innerRows - pad.Top - pad.Bottom
	cols := k.innerCols - pad.Left - pad.Right
	cells := k.innerRows * k.innerCols
	padded := pad != Padding{}

	c := 0
	for lanes := ws.lanes; lanes > 0; lanes /= 2 {
		for ; c+lanes <= nChannels; c += lanes {
			x := ws.x[:cells*lanes]
			if padded {
				clear(x)
			}
			for i := range rows {
				src := in[i*rowStride+c:]
				dst := x[((pad.Top+i)*k.innerCols+pad.Left)*lanes:]
				for j := range cols {
					copy(dst[j*lanes:(j+1)*lanes], src[j*colStride:])
				}
			}
			y := ws.y[:cells*lanes]
			k.tt.apply(x, ws.tmp, y, lanes)
			for m := range cells {
				copy(out[m*matrixStride+c:][:lanes], y[m*lanes:])
			}
		}
	}
}

// specialize binds pad into a tile function.
func (k *inputTiles[T]) specialize(pad Padding) inputTileFunc[T] {
	return func(ws *workspace[T], nChannels int, in []T, rowStride, colStride int, out []T, matrixStride int, _ Padding) {
		k.generic(ws, nChannels, in, rowStride, colStride, out, matrixStride, pad)
	}
}

// outputTiles holds the output transform of one geometry.
type outputTiles[T Float] struct {
	innerRows, innerCols   int
	outputRows, outputCols int
	tt                     tileTransform[T]
}

func newOutputTiles[T Float](g Geometry) *outputTiles[T] {
	return &outputTiles[T]{
		innerRows:  g.InnerTileRows(),
		innerCols:  g.InnerTileCols(),
		outputRows: g.OutputTileRows,
		outputCols: g.OutputTileCols,
		tt: tileTransform[T]{
			rows: outputAxis[T](g.OutputTileRows, g.KernelRows),
			cols: outputAxis[T](g.OutputTileCols, g.KernelCols),
		},
	}
}

// generic is the output tile function for runtime padding. in holds the
// tile's row of matrix 0; only the first outputRows-padBottom rows and
// outputCols-padRight columns are written.
func (k *outputTiles[T]) generic(ws *workspace[T], nChannels int, in []T, matrixStride int, bias, out []T, rowStride, colStride int, padBottom, padRight int) {
	cells := k.innerRows * k.innerCols
	rows := k.outputRows - padBottom
	cols := k.outputCols - padRight

	c := 0
	for lanes := ws.lanes; lanes > 0; lanes /= 2 {
		for ; c+lanes <= nChannels; c += lanes {
			x := ws.x[:cells*lanes]
			for m := range cells {
				copy(x[m*lanes:(m+1)*lanes], in[m*matrixStride+c:])
			}
			y := ws.y[:k.outputRows*k.outputCols*lanes]
			k.tt.apply(x, ws.tmp, y, lanes)
			for i := range rows {
				for j := range cols {
					v := y[(i*k.outputCols+j)*lanes:][:lanes]
					dst := out[i*rowStride+j*colStride+c:][:lanes]
					if bias == nil {
						copy(dst, v)
						continue
					}
					b := bias[c : c+lanes]
					for off := 0; off < lanes; off += hwy.MaxLanes[T]() {
						hwy.Store(hwy.Add(hwy.Load(v[off:]), hwy.Load(b[off:])), dst[off:])
					}
				}
			}
		}
	}
}

// specialize binds the padding into a tile function.
func (k *outputTiles[T]) specialize(padBottom, padRight int) outputTileFunc[T] {
	return func(ws *workspace[T], nChannels int, in []T, matrixStride int, bias, out []T, rowStride, colStride int, _, _ int) {
		k.generic(ws, nChannels, in, matrixStride, bias, out, rowStride, colStride, padBottom, padRight)
	}
}

// weightsTiles holds the kernel transform of one geometry.
type weightsTiles[T Float] struct {
	kernelRows, kernelCols int
	innerRows, innerCols   int
	tt                     tileTransform[T]
}

func newWeightsTiles[T Float](g Geometry) *weightsTiles[T] {
	return &weightsTiles[T]{
		kernelRows: g.KernelRows,
		kernelCols: g.KernelCols,
		innerRows:  g.InnerTileRows(),
		innerCols:  g.InnerTileCols(),
		tt: tileTransform[T]{
			rows: weightAxis[T](g.OutputTileRows, g.KernelRows),
			cols: weightAxis[T](g.OutputTileCols, g.KernelCols),
		},
	}
}

// run transforms the kernels of one input channel for nChannels output
// channels. Tap (i, j) of the kernel is read from in[(i*kernelCols+j)*cellStride].
func (k *weightsTiles[T]) run(ws *workspace[T], nChannels int, in []T, cellStride int, out []T, matrixStride int) {
	taps := k.kernelRows * k.kernelCols
	cells := k.innerRows * k.innerCols

	c := 0
	for lanes := ws.lanes; lanes > 0; lanes /= 2 {
		for ; c+lanes <= nChannels; c += lanes {
			x := ws.x[:taps*lanes]
			for t := range taps {
				copy(x[t*lanes:(t+1)*lanes], in[t*cellStride+c:])
			}
			y := ws.y[:cells*lanes]
			k.tt.apply(x, ws.tmp, y, lanes)
			for m := range cells {
				copy(out[m*matrixStride+c:][:lanes], y[m*lanes:])
			}
		}
	}
}
