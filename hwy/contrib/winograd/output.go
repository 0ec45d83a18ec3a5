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

// OutputTransform converts the Winograd-domain output matrices back into a
// spatial NHWC tensor, adding an optional per-channel bias.
type OutputTransform[T Float] struct {
	kernels *geometryKernels[T]

	matrices        []T
	matrixStride    int
	matrixRowStride int

	bias    []T
	output  []T
	shape   Tensor4DShape
	strides Strides

	tilesM, tilesN int
}

// NewOutputTransform binds an output transform to its buffers. shape gives
// the output extents (see GEMM.OutputShape); zero strides are dense NHWC.
// An empty bias means none.
func NewOutputTransform[T Float](
	g Geometry,
	matrices []T, matrixStride, matrixRowStride int,
	bias []T,
	output []T, shape Tensor4DShape, strides Strides,
) *OutputTransform[T] {
	if len(bias) == 0 {
		bias = nil
	}
	return &OutputTransform[T]{
		kernels:         mustKernelsFor[T](g),
		matrices:        matrices,
		matrixStride:    matrixStride,
		matrixRowStride: matrixRowStride,
		bias:            bias,
		output:          output,
		shape:           shape,
		strides:         strides.resolve(shape),
		tilesM:          tileCount(shape.NRows, g.OutputTileRows),
		tilesN:          tileCount(shape.NCols, g.OutputTileCols),
	}
}

// Window returns the number of output channel blocks.
func (t *OutputTransform[T]) Window() uint {
	return windowCount(t.shape.NChannels)
}

// Run transforms the channels of window blocks [start, stop).
func (t *OutputTransform[T]) Run(start, stop uint) {
	c0, c1, ok := channelRange(start, stop, t.shape.NChannels)
	if !ok {
		return
	}
	var bias []T
	if t.bias != nil {
		bias = t.bias[c0:c1]
	}
	ws := t.kernels.getWorkspace()
	defer t.kernels.putWorkspace(ws)
	executeOutput(t.kernels.output, ws,
		t.matrices[c0:], t.matrixStride, t.matrixRowStride,
		bias, t.output[c0:], t.shape, t.strides, c1-c0)
}

func executeOutput[T Float](
	table *outputTable[T], ws *workspace[T],
	matrices []T, matrixStride, matrixRowStride int,
	bias, output []T, shape Tensor4DShape, strides Strides, nChannels int,
) {
	g := table.geometry
	tilesM := tileCount(shape.NRows, g.OutputTileRows)
	tilesN := tileCount(shape.NCols, g.OutputTileCols)

	tile := 0
	for b := range shape.NBatches {
		batchOut := output[b*strides.Batch:]
		for ti := range tilesM {
			pb := max(0, (ti+1)*g.OutputTileRows-shape.NRows)
			rowOut := batchOut[ti*g.OutputTileRows*strides.Row:]
			for tj := range tilesN {
				pr := max(0, (tj+1)*g.OutputTileCols-shape.NCols)
				fn := table.TileSpecialization(pb, pr)
				out := rowOut[tj*g.OutputTileCols*strides.Col:]
				fn(ws, nChannels, matrices[tile*matrixRowStride:], matrixStride, bias, out, strides.Row, strides.Col, pb, pr)
				tile++
			}
		}
	}
}

// BytesRead estimates the bytes of matrices and bias read by a full run.
func (t *OutputTransform[T]) BytesRead() int {
	tiles := t.shape.NBatches * t.tilesM * t.tilesN
	n := tiles * t.kernels.geometry.NGemms() * t.shape.NChannels
	if t.bias != nil {
		n += t.shape.NChannels
	}
	return n * elemSize[T]()
}

// BytesWritten estimates the bytes of output written by a full run.
func (t *OutputTransform[T]) BytesWritten() int {
	return t.shape.Size() * elemSize[T]()
}

// OpsPerformed estimates the floating point operations of a full run.
func (t *OutputTransform[T]) OpsPerformed() int {
	g := t.kernels.geometry
	tiles := t.shape.NBatches * t.tilesM * t.tilesN
	perTile := t.kernels.output.tiles.tt.ops()
	if t.bias != nil {
		perTile += g.OutputTileRows * g.OutputTileCols
	}
	return tiles * t.shape.NChannels * perTile
}
