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

import "fmt"

// GEMM blocking of the batched matrix products. Input matrix rows are padded
// to a multiple of MBlock and kernel/output matrix columns to a multiple of
// NBlock.
const (
	MBlock = 4
	NBlock = 16
)

func roundUp(n, block int) int {
	return (n + block - 1) / block * block
}

// GEMM binds a Winograd geometry to its transforms and computes the buffer
// sizes and strides of a convolution. The sizing methods are pure functions
// of the shapes and the padding; callers use them to allocate every
// transform-domain buffer. Sizes are in bytes, strides in elements.
type GEMM[T Float] struct {
	geometry Geometry
}

// NewGEMM returns the facade for g.
func NewGEMM[T Float](g Geometry) (*GEMM[T], error) {
	if _, ok := kernelsFor[T](g); !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedGeometry, g)
	}
	return &GEMM[T]{geometry: g}, nil
}

// MustGEMM is NewGEMM for geometries known to be supported.
func MustGEMM[T Float](g Geometry) *GEMM[T] {
	gm, err := NewGEMM[T](g)
	if err != nil {
		panic(err)
	}
	return gm
}

// Geometry returns the bound geometry.
func (gm *GEMM[T]) Geometry() Geometry {
	return gm.geometry
}

// NGemms returns the number of matrix products, one per inner tile cell.
func (gm *GEMM[T]) NGemms() int {
	return gm.geometry.NGemms()
}

// OutputShape returns the shape of the convolution result.
func (gm *GEMM[T]) OutputShape(kernel KernelShape, input Tensor4DShape, padding PaddingType) Tensor4DShape {
	return Tensor4DShape{
		NBatches:  input.NBatches,
		NRows:     axisOutputs(input.NRows, kernel.NRows, padding),
		NCols:     axisOutputs(input.NCols, kernel.NCols, padding),
		NChannels: kernel.NOutputChannels,
		Ordering:  input.Ordering,
	}
}

// TileRows returns the number of tile rows per batch.
func (gm *GEMM[T]) TileRows(kernel KernelShape, input Tensor4DShape, padding PaddingType) int {
	return tileCount(gm.OutputShape(kernel, input, padding).NRows, gm.geometry.OutputTileRows)
}

// TileCols returns the number of tile columns per batch.
func (gm *GEMM[T]) TileCols(kernel KernelShape, input Tensor4DShape, padding PaddingType) int {
	return tileCount(gm.OutputShape(kernel, input, padding).NCols, gm.geometry.OutputTileCols)
}

// KernelTransformWorkingSize returns the scratch needed to reorder a kernel
// into HWIO before transforming it.
func (gm *GEMM[T]) KernelTransformWorkingSize(kernel KernelShape) int {
	if kernel.Ordering == HWIO {
		return 0
	}
	return elemSize[T]() * kernel.Size()
}

// KernelMatrixRowStride returns the element distance between rows (input
// channels) of a kernel matrix.
func (gm *GEMM[T]) KernelMatrixRowStride(kernel KernelShape) int {
	return roundUp(kernel.NOutputChannels, NBlock)
}

// KernelMatrixStride returns the element distance between kernel matrices.
func (gm *GEMM[T]) KernelMatrixStride(kernel KernelShape) int {
	return kernel.NInputChannels * gm.KernelMatrixRowStride(kernel)
}

// KernelMatrixSize returns the bytes of one kernel matrix.
func (gm *GEMM[T]) KernelMatrixSize(kernel KernelShape) int {
	return elemSize[T]() * gm.KernelMatrixStride(kernel)
}

// KernelStorageSize returns the bytes of all kernel matrices.
func (gm *GEMM[T]) KernelStorageSize(kernel KernelShape) int {
	return gm.NGemms() * gm.KernelMatrixSize(kernel)
}

// InputMatrixRowStride returns the element distance between tiles of an
// input matrix.
func (gm *GEMM[T]) InputMatrixRowStride(kernel KernelShape) int {
	return kernel.NInputChannels
}

// InputMatrixStride returns the element distance between input matrices.
func (gm *GEMM[T]) InputMatrixStride(kernel KernelShape, input Tensor4DShape, padding PaddingType) int {
	tiles := gm.TileRows(kernel, input, padding) * gm.TileCols(kernel, input, padding)
	m := roundUp(input.NBatches*tiles, MBlock)
	return m * kernel.NInputChannels
}

// InputMatrixSize returns the bytes of one input matrix.
func (gm *GEMM[T]) InputMatrixSize(kernel KernelShape, input Tensor4DShape, padding PaddingType) int {
	return elemSize[T]() * gm.InputMatrixStride(kernel, input, padding)
}

// InputStorageSize returns the bytes of all input matrices.
func (gm *GEMM[T]) InputStorageSize(kernel KernelShape, input Tensor4DShape, padding PaddingType) int {
	return gm.NGemms() * gm.InputMatrixSize(kernel, input, padding)
}

// OutputMatrixRowStride returns the element distance between tiles of an
// output matrix.
func (gm *GEMM[T]) OutputMatrixRowStride(kernel KernelShape) int {
	return gm.KernelMatrixRowStride(kernel)
}

// OutputMatrixStride returns the element distance between output matrices.
func (gm *GEMM[T]) OutputMatrixStride(kernel KernelShape, input Tensor4DShape, padding PaddingType) int {
	tiles := gm.TileRows(kernel, input, padding) * gm.TileCols(kernel, input, padding)
	m := roundUp(tiles, MBlock)
	n := roundUp(kernel.NOutputChannels, NBlock)
	return input.NBatches * m * n
}

// OutputMatrixSize returns the bytes of one output matrix.
func (gm *GEMM[T]) OutputMatrixSize(kernel KernelShape, input Tensor4DShape, padding PaddingType) int {
	return elemSize[T]() * gm.OutputMatrixStride(kernel, input, padding)
}

// OutputStorageSize returns the bytes of all output matrices.
func (gm *GEMM[T]) OutputStorageSize(kernel KernelShape, input Tensor4DShape, padding PaddingType) int {
	return gm.NGemms() * gm.OutputMatrixSize(kernel, input, padding)
}

// WorkingSpaceSize returns the bytes of scratch a convolution needs: the
// input and output matrices, plus room to reorder an NCHW tensor.
func (gm *GEMM[T]) WorkingSpaceSize(kernel KernelShape, input Tensor4DShape, padding PaddingType) int {
	size := gm.NGemms() * (gm.InputMatrixSize(kernel, input, padding) + gm.OutputMatrixSize(kernel, input, padding))
	if input.Ordering == NHWC {
		return size
	}
	output := gm.OutputShape(kernel, input, padding)
	return size + elemSize[T]()*max(input.Size(), output.Size())
}

// NewInputTransform constructs an input transform with the strides of this
// convolution.
func (gm *GEMM[T]) NewInputTransform(kernel KernelShape, input []T, shape Tensor4DShape, padding PaddingType, matrices []T) *InputTransform[T] {
	return NewInputTransform(gm.geometry, input, shape, Strides{}, padding,
		matrices, gm.InputMatrixStride(kernel, shape, padding), gm.InputMatrixRowStride(kernel))
}

// NewWeightsTransform constructs a weights transform with the strides of
// this convolution.
func (gm *GEMM[T]) NewWeightsTransform(kernel KernelShape, weights, matrices []T) *WeightsTransform[T] {
	return NewWeightsTransform(gm.geometry, weights, kernel,
		matrices, gm.KernelMatrixStride(kernel), gm.KernelMatrixRowStride(kernel))
}

// NewOutputTransform constructs an output transform with the strides of
// this convolution. input is the shape of the convolution input.
func (gm *GEMM[T]) NewOutputTransform(kernel KernelShape, input Tensor4DShape, padding PaddingType, matrices, bias, output []T) *OutputTransform[T] {
	return NewOutputTransform(gm.geometry,
		matrices, gm.OutputMatrixStride(kernel, input, padding), gm.OutputMatrixRowStride(kernel),
		bias, output, gm.OutputShape(kernel, input, padding), Strides{})
}
