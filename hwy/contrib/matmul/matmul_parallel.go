// Copyright 2024 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package matmul

import (
	"github.com/ajroetker/go-winograd/hwy"
	"github.com/ajroetker/go-winograd/hwy/contrib/workerpool"
)

// MinParallelOps is the minimum number of multiply-accumulates before a
// batched GEMM is spread across the pool.
const MinParallelOps = 64 * 64 * 64

// ParallelBatchedGemm runs every product of g on the pool. Products are
// handed out one at a time through ParallelForAtomic since the batch is
// small (one product per transform cell) and uniform.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	matmul.ParallelBatchedGemm(pool, gemm)
func ParallelBatchedGemm[T hwy.Floats](pool workerpool.Executor, g *BatchedBlockedGemm[T]) {
	// For small batches, use the single-threaded version
	if pool == nil || g.Ops() < MinParallelOps || pool.NumWorkers() == 1 {
		g.Run(0, g.Window())
		return
	}
	pool.ParallelForAtomic(g.nGemms, func(i int) {
		g.Run(uint(i), uint(i+1))
	})
}
