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
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	guard    = 64
	sentinel = 1234.5
)

// guarded returns a buffer of n elements followed by a sentinel guard band.
func guarded[T Float](n int) []T {
	buf := make([]T, n+guard)
	for i := range buf[n:] {
		buf[n+i] = sentinel
	}
	return buf
}

func requireGuard[T Float](t *testing.T, buf []T, n int, what string) {
	t.Helper()
	for i, v := range buf[n:] {
		require.Equal(t, T(sentinel), v, "%s: guard element %d overwritten", what, i)
	}
}

type engineCase struct {
	g       Geometry
	input   Tensor4DShape
	kernel  KernelShape
	padding PaddingType
}

func engineCases() []engineCase {
	var cases []engineCase
	for _, g := range SupportedGeometries() {
		for _, padding := range []PaddingType{PaddingSame, PaddingValid} {
			cases = append(cases, engineCase{
				g:       g,
				input:   Tensor4DShape{NBatches: 2, NRows: 11, NCols: 9, NChannels: 37, Ordering: NHWC},
				kernel:  KernelShape{NOutputChannels: 19, NRows: g.KernelRows, NCols: g.KernelCols, NInputChannels: 37, Ordering: HWIO},
				padding: padding,
			})
		}
	}
	return cases
}

func (c engineCase) name() string {
	return c.g.String() + "/" + c.padding.String()
}

func TestEnginesStorageAndWindows(t *testing.T) {
	r := rand.New(rand.NewPCG(31, 37))
	for _, tc := range engineCases() {
		t.Run(tc.name(), func(t *testing.T) {
			gm := MustGEMM[float32](tc.g)
			elem := elemSize[float32]()
			input := randomSlice[float32](r, tc.input.Size())
			weights := randomSlice[float32](r, tc.kernel.Size())
			outShape := gm.OutputShape(tc.kernel, tc.input, tc.padding)

			// Weights: whole window at once and one unit at a time in reverse.
			kn := gm.KernelStorageSize(tc.kernel) / elem
			kWhole := guarded[float32](kn)
			wt := gm.NewWeightsTransform(tc.kernel, weights, kWhole)
			wt.Run(0, wt.Window())
			requireGuard(t, kWhole, kn, "kernel matrices")
			kUnits := guarded[float32](kn)
			wu := gm.NewWeightsTransform(tc.kernel, weights, kUnits)
			for w := wu.Window(); w > 0; w-- {
				wu.Run(w-1, w)
			}
			require.Equal(t, kWhole, kUnits)

			// Input.
			in := gm.InputStorageSize(tc.kernel, tc.input, tc.padding) / elem
			iWhole := guarded[float32](in)
			it := gm.NewInputTransform(tc.kernel, input, tc.input, tc.padding, iWhole)
			require.Equal(t, uint(3), it.Window())
			it.Run(0, it.Window()+5)
			requireGuard(t, iWhole, in, "input matrices")
			iUnits := guarded[float32](in)
			iu := gm.NewInputTransform(tc.kernel, input, tc.input, tc.padding, iUnits)
			iu.Run(2, 3)
			iu.Run(0, 2)
			iu.Run(3, 10)
			require.Equal(t, iWhole, iUnits)

			// Output, from arbitrary matrices.
			on := gm.OutputStorageSize(tc.kernel, tc.input, tc.padding) / elem
			matrices := randomSlice[float32](r, on)
			bias := randomSlice[float32](r, tc.kernel.NOutputChannels)
			oWhole := guarded[float32](outShape.Size())
			for i := range outShape.Size() {
				oWhole[i] = float32(math.NaN())
			}
			ot := gm.NewOutputTransform(tc.kernel, tc.input, tc.padding, matrices, bias, oWhole)
			ot.Run(0, ot.Window())
			requireGuard(t, oWhole, outShape.Size(), "output")
			for i, v := range oWhole[:outShape.Size()] {
				require.False(t, math.IsNaN(float64(v)), "output element %d not written", i)
			}
			oUnits := guarded[float32](outShape.Size())
			ou := gm.NewOutputTransform(tc.kernel, tc.input, tc.padding, matrices, bias, oUnits)
			ou.Run(1, 2)
			ou.Run(0, 1)
			require.Equal(t, oWhole, oUnits)

			assert.Positive(t, it.BytesRead())
			assert.Positive(t, it.BytesWritten())
			assert.Positive(t, it.OpsPerformed())
			assert.Positive(t, ot.OpsPerformed())
			assert.Positive(t, wt.OpsPerformed())
			assert.Equal(t, tc.kernel.Size()*elem, wt.BytesRead())
		})
	}
}

func TestRunPastWindow(t *testing.T) {
	g := F2x2_3x3
	shape := Tensor4DShape{NBatches: 1, NRows: 4, NCols: 4, NChannels: 3}
	matrices := guarded[float64](0)
	it := NewInputTransform(g, make([]float64, shape.Size()), shape, Strides{}, PaddingSame, matrices, 0, 0)
	require.Equal(t, uint(1), it.Window())
	it.Run(1, 5)
	it.Run(3, 2)
	requireGuard(t, matrices, 0, "matrices")
}

func TestOutputEmptyBias(t *testing.T) {
	r := rand.New(rand.NewPCG(47, 53))
	g := F2x2_3x3
	kernel := KernelShape{NOutputChannels: 21, NRows: 3, NCols: 3, NInputChannels: 4, Ordering: HWIO}
	input := Tensor4DShape{NBatches: 1, NRows: 5, NCols: 6, NChannels: 4, Ordering: NHWC}
	gm := MustGEMM[float64](g)
	outShape := gm.OutputShape(kernel, input, PaddingSame)
	matrices := randomSlice[float64](r, gm.OutputStorageSize(kernel, input, PaddingSame)/8)

	want := make([]float64, outShape.Size())
	ot := gm.NewOutputTransform(kernel, input, PaddingSame, matrices, nil, want)
	ot.Run(0, ot.Window())
	got := make([]float64, outShape.Size())
	ou := gm.NewOutputTransform(kernel, input, PaddingSame, matrices, []float64{}, got)
	require.NotPanics(t, func() { ou.Run(0, ou.Window()) })
	assert.Equal(t, want, got)
}

func TestStridedInput(t *testing.T) {
	r := rand.New(rand.NewPCG(41, 43))
	g := F4x4_3x3
	shape := Tensor4DShape{NBatches: 1, NRows: 9, NCols: 7, NChannels: 5}
	dense := randomSlice[float64](r, shape.Size())

	// The same tensor with every pixel padded to 8 channels and every row
	// to 10 pixels.
	strides := Strides{Batch: 9 * 10 * 8, Row: 10 * 8, Col: 8}
	sparse := make([]float64, strides.Batch)
	for i := range shape.NRows {
		for j := range shape.NCols {
			copy(sparse[i*strides.Row+j*strides.Col:][:5], dense[(i*7+j)*5:])
		}
	}

	kernel := KernelShape{NOutputChannels: 1, NRows: 3, NCols: 3, NInputChannels: 5}
	gm := MustGEMM[float64](g)
	n := gm.InputStorageSize(kernel, shape, PaddingSame) / 8
	stride, rowStride := gm.InputMatrixStride(kernel, shape, PaddingSame), gm.InputMatrixRowStride(kernel)

	want := make([]float64, n)
	NewInputTransform(g, dense, shape, Strides{}, PaddingSame, want, stride, rowStride).Run(0, 1)
	got := make([]float64, n)
	NewInputTransform(g, sparse, shape, strides, PaddingSame, got, stride, rowStride).Run(0, 1)
	assert.Equal(t, want, got)
}

// TestTilingCoverage checks that the tiles of every shape cover each output
// position exactly once.
func TestTilingCoverage(t *testing.T) {
	for _, g := range SupportedGeometries() {
		for _, padding := range []PaddingType{PaddingSame, PaddingValid} {
			for n := max(g.KernelRows, g.KernelCols); n <= 20; n++ {
				outRows := axisOutputs(n, g.KernelRows, padding)
				outCols := axisOutputs(n, g.KernelCols, padding)
				hits := make([]int, outRows*outCols)
				for ti := range tileCount(outRows, g.OutputTileRows) {
					pb := max(0, (ti+1)*g.OutputTileRows-outRows)
					for tj := range tileCount(outCols, g.OutputTileCols) {
						pr := max(0, (tj+1)*g.OutputTileCols-outCols)
						for i := range g.OutputTileRows - pb {
							for j := range g.OutputTileCols - pr {
								hits[(ti*g.OutputTileRows+i)*outCols+tj*g.OutputTileCols+j]++
							}
						}
					}
				}
				for i, h := range hits {
					require.Equal(t, 1, h, "%v %v n=%d position %d", g, padding, n, i)
				}
			}
		}
	}
}
