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

	"github.com/ajroetker/go-winograd/hwy"
)

// ratio is an exact matrix coefficient num/den.
type ratio struct {
	num, den int64
}

// ratMatrix is a dense matrix of exact coefficients, row-major.
type ratMatrix [][]ratio

// tileKernel keys the weight and output matrices of one axis.
type tileKernel struct {
	output, kernel int
}

// term is one nonzero coefficient of a transform row. vcoef holds coef in
// every lane.
type term[T Float] struct {
	index int
	coef  T
	vcoef hwy.Vec[T]
}

func newTerm[T Float](index int, coef T) term[T] {
	return term[T]{index: index, coef: coef, vcoef: hwy.Set(coef)}
}

// transform1D is a sparse linear map from in values to len(rows) values.
type transform1D[T Float] struct {
	in   int
	rows [][]term[T]
}

// compile1D drops the zero coefficients of m and converts the rest to T
// with a single rounding each.
func compile1D[T Float](m ratMatrix) transform1D[T] {
	t := transform1D[T]{in: len(m[0]), rows: make([][]term[T], len(m))}
	for i, row := range m {
		for k, r := range row {
			if r.num != 0 {
				t.rows[i] = append(t.rows[i], newTerm(k, T(r.num)/T(r.den)))
			}
		}
		if len(t.rows[i]) == 0 {
			panic(fmt.Sprintf("winograd: transform row %d is zero", i))
		}
	}
	return t
}

func identity1D[T Float]() transform1D[T] {
	return transform1D[T]{in: 1, rows: [][]term[T]{{newTerm[T](0, 1)}}}
}

func (t *transform1D[T]) out() int {
	return len(t.rows)
}

func (t *transform1D[T]) isIdentity() bool {
	return t.in == 1 && len(t.rows) == 1
}

// nnz returns the number of nonzero coefficients.
func (t *transform1D[T]) nnz() int {
	n := 0
	for _, r := range t.rows {
		n += len(r)
	}
	return n
}

// Axis transforms. An axis with a single tap and a single output (the
// untransformed axis of a 1D geometry) is the identity.

func inputAxis[T Float](inner int) transform1D[T] {
	if inner == 1 {
		return identity1D[T]()
	}
	return compile1D[T](inputTransformMatrices[inner])
}

func weightAxis[T Float](output, kernel int) transform1D[T] {
	if output+kernel-1 == 1 {
		return identity1D[T]()
	}
	return compile1D[T](weightTransformMatrices[tileKernel{output, kernel}])
}

func outputAxis[T Float](output, kernel int) transform1D[T] {
	if output+kernel-1 == 1 {
		return identity1D[T]()
	}
	return compile1D[T](outputTransformMatrices[tileKernel{output, kernel}])
}

// tileTransform computes Y = R · X · Cᵀ for one tile, R acting on rows and
// C on columns.
type tileTransform[T Float] struct {
	rows, cols transform1D[T]
}

func (tt *tileTransform[T]) inCells() int {
	return tt.rows.in * tt.cols.in
}

func (tt *tileTransform[T]) outCells() int {
	return tt.rows.out() * tt.cols.out()
}

// ops returns the floating point operations for one tile of one channel.
func (tt *tileTransform[T]) ops() int {
	n := 0
	if !tt.rows.isIdentity() {
		n += tt.cols.in * (2*tt.rows.nnz() - tt.rows.out())
	}
	if !tt.cols.isIdentity() {
		n += tt.rows.out() * (2*tt.cols.nnz() - tt.cols.out())
	}
	return n
}

// apply transforms x into y for lanes interleaved channels: cell c of the
// tile holds lanes consecutive values starting at c*lanes. tmp needs
// rows.out()*cols.in cells.
func (tt *tileTransform[T]) apply(x, tmp, y []T, lanes int) {
	inCols := tt.cols.in
	outRows, outCols := tt.rows.out(), tt.cols.out()

	mid := x
	if !tt.rows.isIdentity() {
		mid = tmp
		for i, terms := range tt.rows.rows {
			for j := range inCols {
				combine(mid[(i*inCols+j)*lanes:], x[j*lanes:], terms, inCols*lanes, lanes)
			}
		}
	}

	if tt.cols.isIdentity() {
		copy(y[:outRows*lanes], mid[:outRows*lanes])
		return
	}
	for i := range outRows {
		src := mid[i*inCols*lanes:]
		for j, terms := range tt.cols.rows {
			combine(y[(i*outCols+j)*lanes:], src, terms, lanes, lanes)
		}
	}
}

// combine sets dst[l] = Σ src[t.index*stride+l] * t.coef for l < lanes.
// Terms are summed in order and every product is rounded to T before it is
// added, so any lane count gives the same bits.
func combine[T Float](dst, src []T, terms []term[T], stride, lanes int) {
	first := terms[0]
	step := first.vcoef.NumLanes()
	for off := 0; off < lanes; off += step {
		n := lanes - off
		acc := hwy.Mul(hwy.Load(src[first.index*stride+off:][:n]), first.vcoef)
		for _, t := range terms[1:] {
			acc = hwy.Add(acc, hwy.Mul(hwy.Load(src[t.index*stride+off:][:n]), t.vcoef))
		}
		hwy.Store(acc, dst[off:lanes])
	}
}
