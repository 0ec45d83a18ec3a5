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
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registeredInputPads lists every padding the tiling can produce for g.
func registeredInputPads(g Geometry) []Padding {
	var pads []Padding
	for rp := range reachableAxisPads(g.OutputTileRows, g.KernelRows) {
		for cp := range reachableAxisPads(g.OutputTileCols, g.KernelCols) {
			pads = append(pads, Padding{Top: rp[0], Left: cp[0], Bottom: rp[1], Right: cp[1]})
		}
	}
	return pads
}

func testInputTiles[T Float](t *testing.T, g Geometry) {
	const nChannels = 7
	r := rand.New(rand.NewPCG(uint64(g.NGemms()), 11))
	k := mustKernelsFor[T](g)
	innerRows, innerCols := g.InnerTileRows(), g.InnerTileCols()
	cells := innerRows * innerCols
	rowStride, colStride := innerCols*nChannels, nChannels
	ws := newWorkspace[T](defaultLanes[T]())

	for _, pad := range registeredInputPads(g) {
		// full holds the tile with its padded cells materialized as zeros.
		full := randomSlice[T](r, cells*nChannels)
		for i := range innerRows {
			for j := range innerCols {
				if i < pad.Top || i >= innerRows-pad.Bottom || j < pad.Left || j >= innerCols-pad.Right {
					clear(full[i*rowStride+j*colStride:][:nChannels])
				}
			}
		}
		in := full[pad.Top*rowStride+pad.Left*colStride:]

		generic := make([]T, cells*nChannels)
		k.input.tiles.generic(ws, nChannels, in, rowStride, colStride, generic, nChannels, pad)

		require.True(t, k.input.specialized(pad), "%+v", pad)
		specialized := make([]T, cells*nChannels)
		k.input.TileSpecialization(pad)(ws, nChannels, in, rowStride, colStride, specialized, nChannels, Padding{})
		require.Equal(t, generic, specialized, "specialized %+v", pad)

		substituted := make([]T, cells*nChannels)
		k.input.TileSpecialization(Padding{})(ws, nChannels, full, rowStride, colStride, substituted, nChannels, Padding{})
		require.Equal(t, generic, substituted, "zero substitution %+v", pad)
	}
}

func testOutputTiles[T Float](t *testing.T, g Geometry) {
	const nChannels = 5
	r := rand.New(rand.NewPCG(uint64(g.NGemms()), 13))
	k := mustKernelsFor[T](g)
	cells := g.NGemms()
	otr, otc := g.OutputTileRows, g.OutputTileCols
	rowStride, colStride := otc*nChannels, nChannels
	ws := newWorkspace[T](defaultLanes[T]())
	in := randomSlice[T](r, cells*nChannels)
	bias := randomSlice[T](r, nChannels)

	full := make([]T, otr*otc*nChannels)
	k.output.tiles.generic(ws, nChannels, in, nChannels, bias, full, rowStride, colStride, 0, 0)

	for pb := range otr {
		for pr := range otc {
			const sentinel = 4242
			out := make([]T, otr*otc*nChannels)
			for i := range out {
				out[i] = sentinel
			}
			k.output.TileSpecialization(pb, pr)(ws, nChannels, in, nChannels, bias, out, rowStride, colStride, 0, 0)
			for i := range otr {
				for j := range otc {
					for c := range nChannels {
						idx := i*rowStride + j*colStride + c
						if i < otr-pb && j < otc-pr {
							require.Equal(t, full[idx], out[idx])
						} else {
							require.Equal(t, T(sentinel), out[idx], "padded cell (%d, %d) written", i, j)
						}
					}
				}
			}
		}
	}
}

func TestTileFunctions(t *testing.T) {
	for _, g := range SupportedGeometries() {
		t.Run(g.String(), func(t *testing.T) {
			t.Run("input/float32", func(t *testing.T) { testInputTiles[float32](t, g) })
			t.Run("input/float64", func(t *testing.T) { testInputTiles[float64](t, g) })
			t.Run("output/float32", func(t *testing.T) { testOutputTiles[float32](t, g) })
			t.Run("output/float64", func(t *testing.T) { testOutputTiles[float64](t, g) })
		})
	}
}

// TestLaneWidthsAgree runs the same tiles at every batch width.
func TestLaneWidthsAgree(t *testing.T) {
	const nChannels = 23
	r := rand.New(rand.NewPCG(17, 19))
	for _, g := range SupportedGeometries() {
		t.Run(g.String(), func(t *testing.T) {
			k := mustKernelsFor[float32](g)
			cells := g.NGemms()
			in := randomSlice[float32](r, cells*nChannels)
			pad := Padding{Top: axisPadBefore(g.KernelRows, PaddingSame)}
			var want []float32
			for _, lanes := range []int{1, 2, 4, 8, 16} {
				out := make([]float32, cells*nChannels)
				ws := newWorkspace[float32](lanes)
				k.input.tiles.generic(ws, nChannels, in, g.InnerTileCols()*nChannels, nChannels, out, nChannels, pad)
				if want == nil {
					want = out
					continue
				}
				require.Equal(t, want, out, "lanes=%d", lanes)
			}
		})
	}
}

func TestWeightsTilesLanes(t *testing.T) {
	r := rand.New(rand.NewPCG(23, 29))
	g := F4x4_3x3
	k := mustKernelsFor[float64](g)
	const nOut = 21
	taps := g.KernelRows * g.KernelCols
	in := randomSlice[float64](r, taps*nOut)
	var want []float64
	for _, lanes := range []int{1, 4, defaultLanes[float64]()} {
		out := make([]float64, g.NGemms()*nOut)
		k.weights.run(newWorkspace[float64](lanes), nOut, in, nOut, out, nOut)
		if want == nil {
			want = out
			continue
		}
		assert.Equal(t, want, out, "lanes=%d", lanes)
	}
}

func TestTileSpecializationRange(t *testing.T) {
	k := mustKernelsFor[float32](F2x2_3x3)
	assert.Equal(t, [4]int{2, 2, 4, 4}, k.input.dims)

	// In range but never produced by the tiling: generic fallback.
	odd := Padding{Top: 1, Left: 1, Bottom: 3, Right: 3}
	assert.False(t, k.input.specialized(odd))
	assert.NotNil(t, k.input.TileSpecialization(odd))

	for _, p := range []Padding{{Top: 2}, {Left: -1}, {Bottom: 4}, {Right: 9}} {
		assert.Panics(t, func() { k.input.TileSpecialization(p) }, fmt.Sprintf("%+v", p))
	}
	assert.Panics(t, func() { k.output.TileSpecialization(2, 0) })
}
