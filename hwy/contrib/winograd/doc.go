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

// Package winograd implements Winograd convolution on the CPU: tile-based
// input, weight and output transforms around a batched GEMM.
//
// A geometry F(m×n, r×s) computes an m×n output tile of an r×s kernel from an
// (m+r-1)×(n+s-1) inner tile. The three transforms are fixed rational
// matrices (see z_matrices.go, generated by cmd/wingen) applied separably to
// each tile:
//
//	U = Bᵀ x B        input tile to the Winograd domain
//	V = G w Gᵀ        kernel to the Winograd domain
//	Y = Aᵀ (U ⊙ V) A  element-wise product back to an output tile
//
// Summed over input channels, the element-wise products become one GEMM per
// inner tile cell, which is how the transforms lay out their results: one
// [tile, channel] matrix per cell.
//
// Each transform engine is bound to its buffers at construction and exposes
// a window of independent channel blocks. Run(start, stop) processes a
// sub-range of blocks and may be called concurrently for disjoint ranges.
// Engines do not validate their arguments; callers check shapes with the
// Validate functions and size buffers with GEMM before constructing them.
// Convolution wires everything together.
package winograd

//go:generate go run ../../../cmd/wingen -output z_matrices.go
