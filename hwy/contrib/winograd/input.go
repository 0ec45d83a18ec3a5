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

// WindowBlock is the number of channels in one window unit.
const WindowBlock = 16

// windowCount returns ceil(nChannels / WindowBlock).
func windowCount(nChannels int) uint {
	return uint((nChannels + WindowBlock - 1) / WindowBlock)
}

// channelRange maps the window range [start, stop) to channels, clamped to
// nChannels. ok is false when the range is empty.
func channelRange(start, stop uint, nChannels int) (c0, c1 int, ok bool) {
	window := windowCount(nChannels)
	if start >= window {
		return 0, 0, false
	}
	stop = min(stop, window)
	if stop <= start {
		return 0, 0, false
	}
	return int(start) * WindowBlock, min(int(stop)*WindowBlock, nChannels), true
}

// InputTransform converts a spatial NHWC tensor into the Winograd-domain
// input matrices, one matrix per inner tile cell. Row r of every matrix is
// tile r, counted over batches, tile rows and tile columns; its columns are
// the input channels.
type InputTransform[T Float] struct {
	kernels *geometryKernels[T]

	input   []T
	shape   Tensor4DShape
	strides Strides
	padding PaddingType

	matrices        []T
	matrixStride    int
	matrixRowStride int

	tilesM, tilesN int
}

// NewInputTransform binds an input transform to its buffers. shape gives the
// input extents; zero strides are dense NHWC. matrixStride separates the
// matrices and matrixRowStride the tiles within a matrix. The caller sizes
// matrices with GEMM.InputStorageSize.
func NewInputTransform[T Float](
	g Geometry,
	input []T, shape Tensor4DShape, strides Strides, padding PaddingType,
	matrices []T, matrixStride, matrixRowStride int,
) *InputTransform[T] {
	return &InputTransform[T]{
		kernels:         mustKernelsFor[T](g),
		input:           input,
		shape:           shape,
		strides:         strides.resolve(shape),
		padding:         padding,
		matrices:        matrices,
		matrixStride:    matrixStride,
		matrixRowStride: matrixRowStride,
		tilesM:          tileCount(axisOutputs(shape.NRows, g.KernelRows, padding), g.OutputTileRows),
		tilesN:          tileCount(axisOutputs(shape.NCols, g.KernelCols, padding), g.OutputTileCols),
	}
}

// Tiles returns the number of tile rows and tile columns per batch.
func (t *InputTransform[T]) Tiles() (rows, cols int) {
	return t.tilesM, t.tilesN
}

// Window returns the number of channel blocks.
func (t *InputTransform[T]) Window() uint {
	return windowCount(t.shape.NChannels)
}

// Run transforms the channels of window blocks [start, stop). It is a no-op
// when start is past the window. Concurrent calls must use disjoint ranges.
func (t *InputTransform[T]) Run(start, stop uint) {
	c0, c1, ok := channelRange(start, stop, t.shape.NChannels)
	if !ok {
		return
	}
	ws := t.kernels.getWorkspace()
	defer t.kernels.putWorkspace(ws)
	executeInput(t.kernels.input, ws,
		t.input[c0:], t.shape, t.strides, c1-c0, t.padding,
		t.matrices[c0:], t.matrixStride, t.matrixRowStride)
}

// executeInput transforms nChannels channels of every tile. input and
// matrices start at the first channel to process; nothing else is read
// from the engine.
func executeInput[T Float](
	table *inputTable[T], ws *workspace[T],
	input []T, shape Tensor4DShape, strides Strides, nChannels int, padding PaddingType,
	matrices []T, matrixStride, matrixRowStride int,
) {
	g := table.geometry
	innerRows, innerCols := g.InnerTileRows(), g.InnerTileCols()
	padTop := axisPadBefore(g.KernelRows, padding)
	padLeft := axisPadBefore(g.KernelCols, padding)
	tilesM := tileCount(axisOutputs(shape.NRows, g.KernelRows, padding), g.OutputTileRows)
	tilesN := tileCount(axisOutputs(shape.NCols, g.KernelCols, padding), g.OutputTileCols)

	tile := 0
	for b := range shape.NBatches {
		batchIn := input[b*strides.Batch:]
		for ti := range tilesM {
			pt, pb := axisPadding(ti, g.OutputTileRows, innerRows, padTop, shape.NRows)
			rowIn := batchIn[max(0, ti*g.OutputTileRows-padTop)*strides.Row:]
			for tj := range tilesN {
				pl, pr := axisPadding(tj, g.OutputTileCols, innerCols, padLeft, shape.NCols)
				pad := Padding{Top: pt, Left: pl, Bottom: pb, Right: pr}
				fn := table.TileSpecialization(pad)
				in := rowIn[max(0, tj*g.OutputTileCols-padLeft)*strides.Col:]
				fn(ws, nChannels, in, strides.Row, strides.Col, matrices[tile*matrixRowStride:], matrixStride, pad)
				tile++
			}
		}
	}
}

// BytesRead estimates the bytes of input read by a full run.
func (t *InputTransform[T]) BytesRead() int {
	return t.shape.Size() * elemSize[T]()
}

// BytesWritten estimates the bytes of matrices written by a full run.
func (t *InputTransform[T]) BytesWritten() int {
	tiles := t.shape.NBatches * t.tilesM * t.tilesN
	return tiles * t.kernels.geometry.NGemms() * t.shape.NChannels * elemSize[T]()
}

// OpsPerformed estimates the floating point operations of a full run.
func (t *InputTransform[T]) OpsPerformed() int {
	tiles := t.shape.NBatches * t.tilesM * t.tilesN
	return tiles * t.shape.NChannels * t.kernels.input.tiles.tt.ops()
}
