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

// WeightsTransform converts an HWIO kernel into the Winograd-domain kernel
// matrices, one K × N matrix per inner tile cell (K input channels, N output
// channels).
type WeightsTransform[T Float] struct {
	kernels *geometryKernels[T]

	weights []T
	shape   KernelShape

	matrices        []T
	matrixStride    int
	matrixRowStride int
}

// NewWeightsTransform binds a weights transform to its buffers. The caller
// sizes matrices with GEMM.KernelStorageSize.
func NewWeightsTransform[T Float](
	g Geometry,
	weights []T, shape KernelShape,
	matrices []T, matrixStride, matrixRowStride int,
) *WeightsTransform[T] {
	return &WeightsTransform[T]{
		kernels:         mustKernelsFor[T](g),
		weights:         weights,
		shape:           shape,
		matrices:        matrices,
		matrixStride:    matrixStride,
		matrixRowStride: matrixRowStride,
	}
}

// Window returns the number of output channel blocks.
func (t *WeightsTransform[T]) Window() uint {
	return windowCount(t.shape.NOutputChannels)
}

// Run transforms the output channels of window blocks [start, stop).
func (t *WeightsTransform[T]) Run(start, stop uint) {
	c0, c1, ok := channelRange(start, stop, t.shape.NOutputChannels)
	if !ok {
		return
	}
	ws := t.kernels.getWorkspace()
	defer t.kernels.putWorkspace(ws)
	executeWeights(t.kernels.weights, ws, t.weights[c0:], t.shape, c1-c0,
		t.matrices[c0:], t.matrixStride, t.matrixRowStride)
}

// executeWeights transforms nChannels output channels for every input
// channel. weights and matrices start at the first output channel.
func executeWeights[T Float](
	tiles *weightsTiles[T], ws *workspace[T],
	weights []T, shape KernelShape, nChannels int,
	matrices []T, matrixStride, matrixRowStride int,
) {
	cellStride := shape.NInputChannels * shape.NOutputChannels
	for ic := range shape.NInputChannels {
		tiles.run(ws, nChannels,
			weights[ic*shape.NOutputChannels:], cellStride,
			matrices[ic*matrixRowStride:], matrixStride)
	}
}

// BytesRead estimates the bytes of weights read by a full run.
func (t *WeightsTransform[T]) BytesRead() int {
	return t.shape.Size() * elemSize[T]()
}

// BytesWritten estimates the bytes of matrices written by a full run.
func (t *WeightsTransform[T]) BytesWritten() int {
	n := t.kernels.geometry.NGemms() * t.shape.NInputChannels * t.shape.NOutputChannels
	return n * elemSize[T]()
}

// OpsPerformed estimates the floating point operations of a full run.
func (t *WeightsTransform[T]) OpsPerformed() int {
	return t.shape.NInputChannels * t.shape.NOutputChannels * t.kernels.weights.tt.ops()
}
