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

package matmul

import "github.com/ajroetker/go-winograd/hwy"

// matmulScalar is the pure Go scalar implementation over strided operands.
// C[i,j] = sum(A[i,p] * B[p,j]) for p in 0..K-1
// It is kept as the reference for tests.
func matmulScalar[T hwy.Floats](a, b, c []T, m, n, k, lda, ldb, ldc int) {
	for i := range m {
		cRow := c[i*ldc : i*ldc+n]
		clear(cRow)
		for p := range k {
			aip := a[i*lda+p]
			for j := range n {
				cRow[j] += aip * b[p*ldb+j]
			}
		}
	}
}

// BaseMatMul computes C = A * B where:
//   - A is M x K (row-major)
//   - B is K x N (row-major)
//   - C is M x N (row-major)
func BaseMatMul[T hwy.Floats](a, b, c []T, m, n, k int) {
	BaseMatMulStrided(a, b, c, m, n, k, k, n, n)
}

// BaseMatMulStrided computes C = A * B on row-strided operands: row i of A
// starts at a[i*lda], row p of B at b[p*ldb] and row i of C at c[i*ldc].
//
// Uses register-blocked accumulators: the J dimension is tiled into groups
// of 4 vector widths, with accumulators held across the full K loop, then
// single vector strips, then a scalar tail.
func BaseMatMulStrided[T hwy.Floats](a, b, c []T, m, n, k, lda, ldb, ldc int) {
	if m == 0 || n == 0 {
		return
	}
	if len(a) < (m-1)*lda+k {
		panic("matmul: A slice too short")
	}
	if k > 0 && len(b) < (k-1)*ldb+n {
		panic("matmul: B slice too short")
	}
	if len(c) < (m-1)*ldc+n {
		panic("matmul: C slice too short")
	}

	lanes := hwy.Zero[T]().NumLanes()
	tileJ := 4 * lanes

	for i := range m {
		aRow := a[i*lda : i*lda+k]
		cRow := c[i*ldc : i*ldc+n]

		// Tiled J loop: 4 accumulators held across the full K loop
		var j int
		for j = 0; j+tileJ <= n; j += tileJ {
			acc0 := hwy.Zero[T]()
			acc1 := hwy.Zero[T]()
			acc2 := hwy.Zero[T]()
			acc3 := hwy.Zero[T]()
			for p, ap := range aRow {
				vA := hwy.Set(ap)
				bRow := b[p*ldb:]
				acc0 = hwy.MulAdd(vA, hwy.Load(bRow[j:]), acc0)
				acc1 = hwy.MulAdd(vA, hwy.Load(bRow[j+lanes:]), acc1)
				acc2 = hwy.MulAdd(vA, hwy.Load(bRow[j+2*lanes:]), acc2)
				acc3 = hwy.MulAdd(vA, hwy.Load(bRow[j+3*lanes:]), acc3)
			}
			hwy.Store(acc0, cRow[j:])
			hwy.Store(acc1, cRow[j+lanes:])
			hwy.Store(acc2, cRow[j+2*lanes:])
			hwy.Store(acc3, cRow[j+3*lanes:])
		}

		// Remainder: single accumulator per remaining vector strip
		for ; j+lanes <= n; j += lanes {
			acc := hwy.Zero[T]()
			for p, ap := range aRow {
				acc = hwy.MulAdd(hwy.Set(ap), hwy.Load(b[p*ldb+j:]), acc)
			}
			hwy.Store(acc, cRow[j:])
		}

		// Scalar tail
		for ; j < n; j++ {
			var sum T
			for p, ap := range aRow {
				sum += ap * b[p*ldb+j]
			}
			cRow[j] = sum
		}
	}
}
