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

package hwy

// Tile is a 2D matrix accumulator of size TileDim × TileDim backed by a flat
// slice. The batched GEMM micro-kernel accumulates one block of C in a Tile
// through outer products of a column of A and a row of B.
//
// Tile instances should be created with NewTile and zeroed with TileZero.
type Tile[T Lanes] struct {
	data []T
	dim  int
}

// TileDim returns the tile dimension for type T with the current vector
// width. For example, with AVX2 (256 bits):
//   - float32: 8 (8×8 tile)
//   - float64: 4 (4×4 tile)
func TileDim[T Lanes]() int {
	return MaxLanes[T]()
}

// NewTile creates a zero-initialized tile of size TileDim × TileDim.
func NewTile[T Lanes]() Tile[T] {
	dim := TileDim[T]()
	return Tile[T]{data: make([]T, dim*dim), dim: dim}
}

// TileZero zeroes all elements of the tile.
func TileZero[T Lanes](tile *Tile[T]) {
	clear(tile.data)
}

// OuterProductAdd accumulates an outer product into the tile:
//
//	tile[i][j] += row[i] * col[j]
//
// PRECONDITION: row and col hold at least TileDim lanes.
func OuterProductAdd[T Floats](tile *Tile[T], row, col Vec[T]) {
	dim := tile.dim
	for i := range dim {
		ri := row.data[i]
		rowStart := i * dim
		acc := tile.data[rowStart : rowStart+dim]
		for j, cj := range col.data[:dim] {
			acc[j] += ri * cj
		}
	}
}

// TileStoreRow copies tile row rowIdx to dst.
// PRECONDITION: len(dst) >= TileDim[T]().
func TileStoreRow[T Lanes](tile *Tile[T], rowIdx int, dst []T) {
	dim := tile.dim
	copy(dst[:dim], tile.data[rowIdx*dim:(rowIdx+1)*dim])
}
