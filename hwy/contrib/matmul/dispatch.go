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

// MatMulStrided computes C = A * B on row-strided operands, selecting the
// kernel by shape:
//
//  1. Fewer rows or columns than one tile: BaseMatMulStrided, whose
//     vector strips and scalar tail handle narrow matrices without
//     wasting tile work.
//  2. Otherwise: BlockedMatMulStrided, accumulating whole tiles with
//     outer products and finishing the edges with BaseMatMulStrided.
func MatMulStrided[T hwy.Floats](a, b, c []T, m, n, k, lda, ldb, ldc int) {
	dim := hwy.TileDim[T]()
	if m < dim || n < dim {
		BaseMatMulStrided(a, b, c, m, n, k, lda, ldb, ldc)
		return
	}
	BlockedMatMulStrided(a, b, c, m, n, k, lda, ldb, ldc)
}
