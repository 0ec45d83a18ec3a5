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
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-winograd/hwy/contrib/workerpool"
)

// Scheduler runs a Kernel by splitting its window across workers. A panic
// inside a unit of work is returned as a *WorkerPanicError from Schedule on
// the calling goroutine. The context is checked before work starts; units
// already running complete.
type Scheduler interface {
	NumThreads() int
	Schedule(ctx context.Context, k Kernel) error
}

// WorkerPanicError reports a panic inside a scheduled unit of work.
type WorkerPanicError struct {
	Kernel string
	Window Window
	Value  any
	Stack  []byte
}

func (e *WorkerPanicError) Error() string {
	return fmt.Sprintf("winograd: %s window [%d, %d) panicked: %v", e.Kernel, e.Window.Start, e.Window.Stop, e.Value)
}

// splitWindow returns the t-th of n contiguous parts of [0, window).
func splitWindow(window, n, t uint) Window {
	return Window{Start: t * window / n, Stop: (t + 1) * window / n}
}

// GroupScheduler starts one goroutine per part of the window and joins them
// with an errgroup.
type GroupScheduler struct {
	numThreads int
	log        logr.Logger
}

var _ Scheduler = (*GroupScheduler)(nil)

// NewScheduler returns a GroupScheduler. A non-positive thread count uses
// runtime.GOMAXPROCS(0).
func NewScheduler(numThreads int, log logr.Logger) *GroupScheduler {
	if numThreads <= 0 {
		numThreads = runtime.GOMAXPROCS(0)
	}
	return &GroupScheduler{numThreads: numThreads, log: log}
}

// NumThreads returns the maximum number of concurrent units.
func (s *GroupScheduler) NumThreads() int {
	return s.numThreads
}

// Schedule runs k over its whole window and waits for every unit.
func (s *GroupScheduler) Schedule(ctx context.Context, k Kernel) error {
	window := k.Window()
	if window == 0 {
		return ctx.Err()
	}
	n := min(uint(s.numThreads), window)
	s.log.V(2).Info("schedule", "kernel", k.Name(), "window", window, "threads", n)

	g, gctx := errgroup.WithContext(ctx)
	for t := range n {
		w := splitWindow(window, n, t)
		info := ThreadInfo{ThreadID: int(t), NumThreads: int(n)}
		g.Go(func() (err error) {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer func() {
				if r := recover(); r != nil {
					err = &WorkerPanicError{Kernel: k.Name(), Window: w, Value: r, Stack: debug.Stack()}
				}
			}()
			k.Run(w, info)
			return nil
		})
	}
	return g.Wait()
}

// PoolScheduler runs kernels on a persistent worker pool.
type PoolScheduler struct {
	pool workerpool.Executor
	log  logr.Logger
}

var _ Scheduler = (*PoolScheduler)(nil)

// NewPoolScheduler returns a Scheduler backed by pool. The pool stays owned
// by the caller.
func NewPoolScheduler(pool workerpool.Executor, log logr.Logger) *PoolScheduler {
	return &PoolScheduler{pool: pool, log: log}
}

// NumThreads returns the number of pool workers.
func (s *PoolScheduler) NumThreads() int {
	return s.pool.NumWorkers()
}

// Schedule runs k over its whole window and waits for every unit.
func (s *PoolScheduler) Schedule(ctx context.Context, k Kernel) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	window := k.Window()
	if window == 0 {
		return nil
	}
	n := min(uint(max(1, s.pool.NumWorkers())), window)
	s.log.V(2).Info("schedule", "kernel", k.Name(), "window", window, "threads", n)

	defer func() {
		if r := recover(); r != nil {
			perr := &WorkerPanicError{Kernel: k.Name(), Window: Window{Stop: window}, Value: r}
			if pe, ok := r.(*workerpool.PanicError); ok {
				perr.Value, perr.Stack = pe.Value, pe.Stack
			}
			err = perr
		}
	}()
	s.pool.ParallelFor(int(n), func(start, end int) {
		for t := start; t < end; t++ {
			k.Run(splitWindow(window, n, uint(t)), ThreadInfo{ThreadID: t, NumThreads: int(n)})
		}
	})
	return nil
}
