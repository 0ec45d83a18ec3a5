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

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-winograd/hwy"
)

// expect1x8 evaluates the 1x8 input transform term by term, each product
// rounded before it is added.
func expect1x8[T Float](x []T) []T {
	u := make([]T, 8)
	u[0] = T(x[0] * -36)
	u[0] += T(x[2] * 49)
	u[0] += T(x[4] * -14)
	u[0] += T(x[6] * 1)

	u[1] = T(x[1] * 36)
	u[1] += T(x[2] * 36)
	u[1] += T(x[3] * -13)
	u[1] += T(x[4] * -13)
	u[1] += T(x[5] * 1)
	u[1] += T(x[6] * 1)

	u[2] = T(x[1] * -36)
	u[2] += T(x[2] * 36)
	u[2] += T(x[3] * 13)
	u[2] += T(x[4] * -13)
	u[2] += T(x[5] * -1)
	u[2] += T(x[6] * 1)

	u[3] = T(x[1] * 18)
	u[3] += T(x[2] * 9)
	u[3] += T(x[3] * -20)
	u[3] += T(x[4] * -10)
	u[3] += T(x[5] * 2)
	u[3] += T(x[6] * 1)

	u[4] = T(x[1] * -18)
	u[4] += T(x[2] * 9)
	u[4] += T(x[3] * 20)
	u[4] += T(x[4] * -10)
	u[4] += T(x[5] * -2)
	u[4] += T(x[6] * 1)

	u[5] = T(x[1] * 12)
	u[5] += T(x[2] * 4)
	u[5] += T(x[3] * -15)
	u[5] += T(x[4] * -5)
	u[5] += T(x[5] * 3)
	u[5] += T(x[6] * 1)

	u[6] = T(x[1] * -12)
	u[6] += T(x[2] * 4)
	u[6] += T(x[3] * 15)
	u[6] += T(x[4] * -5)
	u[6] += T(x[5] * -3)
	u[6] += T(x[6] * 1)

	u[7] = T(x[1] * -36)
	u[7] += T(x[3] * 49)
	u[7] += T(x[5] * -14)
	u[7] += T(x[7] * 1)
	return u
}

func randomSlice[T Float](r *rand.Rand, n int) []T {
	s := make([]T, n)
	for i := range s {
		s[i] = T(r.Float64()*2 - 1)
	}
	return s
}

func testInput1x8[T Float](t *testing.T) {
	r := rand.New(rand.NewPCG(1, 8))
	k := mustKernelsFor[T](F1x6_1x3)

	// 19 channels run a full batch at every lane width down to one.
	const nChannels = 19
	in := randomSlice[T](r, 8*nChannels)
	for _, lanes := range []int{1, 2, 4, defaultLanes[T]()} {
		t.Run(fmt.Sprintf("lanes=%d", lanes), func(t *testing.T) {
			ws := newWorkspace[T](lanes)
			out := make([]T, 8*nChannels)
			fn := k.input.TileSpecialization(Padding{})
			fn(ws, nChannels, in, 8*nChannels, nChannels, out, nChannels, Padding{})

			for c := range nChannels {
				x := make([]T, 8)
				for j := range x {
					x[j] = in[j*nChannels+c]
				}
				want := expect1x8(x)
				for m := range 8 {
					require.Equal(t, want[m], out[m*nChannels+c], "channel %d cell %d", c, m)
				}
			}
		})
	}
}

func TestInputTransform1x8(t *testing.T) {
	t.Run("float32", testInput1x8[float32])
	t.Run("float64", testInput1x8[float64])
}

// TestToomCookIdentity checks Aᵀ[(G g) ⊙ (Bᵀ d)] against the direct
// correlation of d with g for every one-dimensional transform.
func TestToomCookIdentity(t *testing.T) {
	r := rand.New(rand.NewPCG(2, 3))
	for tk := range weightTransformMatrices {
		t.Run(fmt.Sprintf("F(%d,%d)", tk.output, tk.kernel), func(t *testing.T) {
			inner := tk.output + tk.kernel - 1
			in := inputAxis[float64](inner)
			w := weightAxis[float64](tk.output, tk.kernel)
			out := outputAxis[float64](tk.output, tk.kernel)
			require.Equal(t, inner, in.out())
			require.Equal(t, inner, w.out())
			require.Equal(t, tk.output, out.out())

			d := randomSlice[float64](r, inner)
			g := randomSlice[float64](r, tk.kernel)
			u := make([]float64, inner)
			v := make([]float64, inner)
			for i := range inner {
				combine(u[i:], d, in.rows[i], 1, 1)
				combine(v[i:], g, w.rows[i], 1, 1)
				u[i] *= v[i]
			}
			got := make([]float64, tk.output)
			for i := range tk.output {
				combine(got[i:], u, out.rows[i], 1, 1)
			}

			want := make([]float64, tk.output)
			for i := range want {
				for j := range tk.kernel {
					want[i] += d[i+j] * g[j]
				}
			}
			if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransformOps(t *testing.T) {
	k := mustKernelsFor[float32](F2x2_3x3)
	tt := k.input.tiles.tt
	assert.Equal(t, 16, tt.inCells())
	assert.Equal(t, 16, tt.outCells())
	// Every Bᵀ row of size 4 has two terms: two products and one add per
	// value, 16 values per pass.
	assert.Equal(t, 2*16*3, tt.ops())

	oneD := mustKernelsFor[float32](F1x6_1x3).input.tiles.tt
	assert.True(t, oneD.rows.isIdentity())
	assert.False(t, oneD.cols.isIdentity())
}

func TestCombineIgnoresLaneCount(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 5))
	terms := []term[float32]{newTerm[float32](0, 0.25), newTerm[float32](1, -1.0/6), newTerm[float32](2, 1.0/24)}
	const lanes = 8
	src := randomSlice[float32](r, 3*lanes)
	wide := make([]float32, lanes)
	combine(wide, src, terms, lanes, lanes)
	for l := range lanes {
		one := make([]float32, 1)
		combine(one, src[l:], terms, lanes, 1)
		assert.Equal(t, wide[l], one[0])
	}
}

func TestCombineSpansVectors(t *testing.T) {
	r := rand.New(rand.NewPCG(6, 6))
	terms := []term[float64]{newTerm(0, -36.0), newTerm(2, 49.0), newTerm(4, -14.0), newTerm(6, 1.0)}
	lanes := 3*hwy.MaxLanes[float64]() + 1
	src := randomSlice[float64](r, 7*lanes)
	dst := make([]float64, lanes+1)
	dst[lanes] = 1234.5
	combine(dst, src, terms, lanes, lanes)
	for l := range lanes {
		want := float64(src[l] * -36)
		want += float64(src[2*lanes+l] * 49)
		want += float64(src[4*lanes+l] * -14)
		want += float64(src[6*lanes+l] * 1)
		assert.Equal(t, want, dst[l], "lane %d", l)
	}
	assert.Equal(t, 1234.5, dst[lanes])
}
