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

import (
	"fmt"

	"github.com/ajroetker/go-winograd/hwy"
)

// BatchedBlockedGemm multiplies nGemms independent matrix pairs laid out at
// fixed strides in three flat buffers:
//
//	C[g] = A[g] * B[g]   for g in [0, nGemms)
//
// A[g] is M x K starting at a[g*aMatrixStride] with rows aRowStride apart,
// B[g] is K x N at b[g*bMatrixStride] with rows bRowStride apart and C[g]
// is M x N at c[g*cMatrixStride] with rows cRowStride apart. The batch index
// is the unit of parallel work: Run(start, stop) computes products
// [start, stop) and touches no other part of C.
type BatchedBlockedGemm[T hwy.Floats] struct {
	nGemms  int
	m, k, n int

	aMatrixStride, aRowStride int
	bMatrixStride, bRowStride int
	cMatrixStride, cRowStride int

	a, b, c []T
}

// NewBatchedBlockedGemm binds a batched GEMM to its buffers and strides.
// It panics when a buffer cannot hold the last product, the same contract
// as BaseMatMul.
func NewBatchedBlockedGemm[T hwy.Floats](
	nGemms, m, k, n int,
	aMatrixStride, aRowStride int,
	bMatrixStride, bRowStride int,
	cMatrixStride, cRowStride int,
	a, b, c []T,
) *BatchedBlockedGemm[T] {
	g := &BatchedBlockedGemm[T]{
		nGemms: nGemms, m: m, k: k, n: n,
		aMatrixStride: aMatrixStride, aRowStride: aRowStride,
		bMatrixStride: bMatrixStride, bRowStride: bRowStride,
		cMatrixStride: cMatrixStride, cRowStride: cRowStride,
		a: a, b: b, c: c,
	}
	if nGemms > 0 && m > 0 && n > 0 {
		last := nGemms - 1
		if need := last*aMatrixStride + (m-1)*aRowStride + k; len(a) < need {
			panic(fmt.Sprintf("matmul: batched A slice too short: %d < %d", len(a), need))
		}
		if need := last*bMatrixStride + max(k-1, 0)*bRowStride + n; k > 0 && len(b) < need {
			panic(fmt.Sprintf("matmul: batched B slice too short: %d < %d", len(b), need))
		}
		if need := last*cMatrixStride + (m-1)*cRowStride + n; len(c) < need {
			panic(fmt.Sprintf("matmul: batched C slice too short: %d < %d", len(c), need))
		}
	}
	return g
}

// Window returns the number of independent products.
func (g *BatchedBlockedGemm[T]) Window() uint {
	return uint(g.nGemms)
}

// Run computes the products in [start, stop), with stop clamped to Window.
func (g *BatchedBlockedGemm[T]) Run(start, stop uint) {
	stop = min(stop, g.Window())
	for i := int(start); i < int(stop); i++ {
		MatMulStrided(
			g.a[i*g.aMatrixStride:],
			g.b[i*g.bMatrixStride:],
			g.c[i*g.cMatrixStride:],
			g.m, g.n, g.k,
			g.aRowStride, g.bRowStride, g.cRowStride,
		)
	}
}

// Ops returns the multiply-accumulate count of the whole batch.
func (g *BatchedBlockedGemm[T]) Ops() int {
	return g.nGemms * g.m * g.n * g.k
}
