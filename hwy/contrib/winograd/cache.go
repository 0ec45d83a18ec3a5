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
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// WeightCache stores transformed kernel matrices across Convolution
// instances. Keys come from weightCacheKey; values are the raw bytes of the
// kernel storage. weightcache.Store implements it.
type WeightCache interface {
	Get(key uint64) ([]byte, bool, error)
	Put(key uint64, value []byte) error
}

// weightCacheKey hashes everything the kernel matrices depend on.
func weightCacheKey[T Float](g Geometry, shape KernelShape, weights []T) uint64 {
	d := xxhash.New()
	fmt.Fprintf(d, "%v|%v|%v|", g, shape, DataTypeOf[T]())
	d.Write(asBytes(weights[:shape.Size()]))
	return d.Sum64()
}

// asBytes views s as its in-memory bytes.
func asBytes[T Float](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*elemSize[T]())
}
