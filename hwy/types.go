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

// Package hwy provides the portable lane abstraction used by the contrib
// packages. In base mode a Vec wraps a slice of MaxLanes[T]() elements; the
// lane count follows the widest vector unit detected at startup so that
// lane-batched loops are sized like their SIMD counterparts.
package hwy

import "unsafe"

// Floats is the set of floating-point element types.
type Floats interface {
	~float32 | ~float64
}

// Lanes is the set of element types that can be held in a Vec.
type Lanes interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint32 | ~uint64
}

// Vec is a vector of lanes of type T.
type Vec[T Lanes] struct {
	data []T
}

// NumLanes returns the number of lanes held by v.
func (v Vec[T]) NumLanes() int {
	return len(v.data)
}

// MaxLanes returns the number of T lanes in one vector at the current
// dispatch width.
func MaxLanes[T Lanes]() int {
	var zero T
	return currentWidth / int(unsafe.Sizeof(zero))
}
