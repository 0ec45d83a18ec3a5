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

// BlockedMatMulStrided computes C = A * B on row-strided operands using
// TileDim × TileDim output blocks. Each block is accumulated in a hwy.Tile
// through one outer product per k (a column of A against a row of B).
// Rows and columns that do not fill a whole block go through
// BaseMatMulStrided.
func BlockedMatMulStrided[T hwy.Floats](a, b, c []T, m, n, k, lda, ldb, ldc int) {
	dim := hwy.TileDim[T]()
	mFull := m - m%dim
	nFull := n - n%dim

	if mFull > 0 && nFull > 0 {
		tile := hwy.NewTile[T]()
		col := make([]T, dim)
		for i0 := 0; i0 < mFull; i0 += dim {
			for j0 := 0; j0 < nFull; j0 += dim {
				hwy.TileZero(&tile)
				for p := range k {
					for r := range dim {
						col[r] = a[(i0+r)*lda+p]
					}
					hwy.OuterProductAdd(&tile, hwy.Load(col), hwy.Load(b[p*ldb+j0:]))
				}
				for r := range dim {
					hwy.TileStoreRow(&tile, r, c[(i0+r)*ldc+j0:])
				}
			}
		}
	}

	// Right edge of the block rows, then the bottom rows in full.
	if nFull < n && mFull > 0 {
		BaseMatMulStrided(a, b[nFull:], c[nFull:], mFull, n-nFull, k, lda, ldb, ldc)
	}
	if mFull < m {
		BaseMatMulStrided(a[mFull*lda:], b, c[mFull*ldc:], m-mFull, n, k, lda, ldb, ldc)
	}
}
