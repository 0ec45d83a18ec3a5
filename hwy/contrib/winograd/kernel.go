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

import "github.com/ajroetker/go-winograd/hwy/contrib/matmul"

// Window is a range [Start, Stop) of window units.
type Window struct {
	Start, Stop uint
}

// ThreadInfo identifies the worker running a unit of work.
type ThreadInfo struct {
	ThreadID   int
	NumThreads int
}

// Kernel is a schedulable unit of work split along a window.
type Kernel interface {
	Name() string
	Window() uint
	Run(w Window, info ThreadInfo)
}

// windowed is the Window/Run protocol of the engines and the batched GEMM.
type windowed interface {
	Window() uint
	Run(start, stop uint)
}

type windowedKernel struct {
	name string
	w    windowed
}

func (k *windowedKernel) Name() string { return k.name }
func (k *windowedKernel) Window() uint { return k.w.Window() }
func (k *windowedKernel) Run(w Window, _ ThreadInfo) { k.w.Run(w.Start, w.Stop) }

// InputTransformKernel wraps an input transform for a Scheduler.
func InputTransformKernel[T Float](t *InputTransform[T]) Kernel {
	return &windowedKernel{name: "InputTransform", w: t}
}

// OutputTransformKernel wraps an output transform for a Scheduler.
func OutputTransformKernel[T Float](t *OutputTransform[T]) Kernel {
	return &windowedKernel{name: "OutputTransform", w: t}
}

// WeightsTransformKernel wraps a weights transform for a Scheduler.
func WeightsTransformKernel[T Float](t *WeightsTransform[T]) Kernel {
	return &windowedKernel{name: "WeightsTransform", w: t}
}

// BatchedGemmKernel wraps the batched matrix products for a Scheduler. The
// window is the number of products.
func BatchedGemmKernel[T Float](g *matmul.BatchedBlockedGemm[T]) Kernel {
	return &windowedKernel{name: "BatchedGemm", w: g}
}
