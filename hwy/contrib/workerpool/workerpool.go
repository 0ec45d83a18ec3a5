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

// Package workerpool provides a persistent pool of goroutines for
// data-parallel loops. Creating goroutines per call costs more than the
// small transforms and GEMMs it is used for, so callers create one pool and
// reuse it:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	pool.ParallelFor(n, func(start, end int) { ... })
package workerpool

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Executor runs data-parallel loops.
type Executor interface {
	// NumWorkers returns the number of goroutines work is spread across.
	NumWorkers() int

	// ParallelFor splits [0, n) into contiguous ranges, one per worker, and
	// calls fn once per range. It returns when every call has returned.
	ParallelFor(n int, fn func(start, end int))

	// ParallelForAtomic calls fn(i) for every i in [0, n), handing out
	// indices through a shared counter so uneven items balance out.
	ParallelForAtomic(n int, fn func(i int))
}

// PanicError is re-panicked on the calling goroutine when a worker panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("workerpool: worker panicked: %v\n%s", e.Value, e.Stack)
}

// Pool is a fixed set of goroutines fed through a task channel.
type Pool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup

	// mu orders sends on tasks against close(tasks).
	mu     sync.RWMutex
	closed bool
}

var _ Executor = (*Pool)(nil)

// New starts a pool with the given number of workers. A non-positive count
// uses runtime.GOMAXPROCS(0).
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan func()),
	}
	for range workers {
		p.wg.Go(func() {
			for task := range p.tasks {
				task()
			}
		})
	}
	return p
}

// NumWorkers returns the number of workers.
func (p *Pool) NumWorkers() int {
	return p.workers
}

// Close stops the workers. Loops submitted after Close run on the caller.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// ParallelFor splits [0, n) into at most NumWorkers contiguous ranges.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	chunks := min(p.workers, n)
	p.run(chunks, func(c int) {
		start := c * n / chunks
		end := (c + 1) * n / chunks
		if start < end {
			fn(start, end)
		}
	})
}

// ParallelForAtomic calls fn(i) for each i in [0, n) with work stealing.
func (p *Pool) ParallelForAtomic(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	var next atomic.Int64
	p.run(min(p.workers, n), func(int) {
		for {
			i := int(next.Add(1) - 1)
			if i >= n {
				return
			}
			fn(i)
		}
	})
}

// run executes body(0..tasks-1) on the pool and waits. A task that cannot be
// handed to an idle worker runs on the caller, so nested loops never
// deadlock. The first worker panic is re-raised here.
func (p *Pool) run(tasks int, body func(task int)) {
	var (
		wg    sync.WaitGroup
		once  sync.Once
		first *PanicError
	)
	wg.Add(tasks)
	for t := range tasks {
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() {
						first = &PanicError{Value: r, Stack: debug.Stack()}
					})
				}
			}()
			body(t)
		}
		if !p.submit(task) {
			task()
		}
	}
	wg.Wait()
	if first != nil {
		panic(first)
	}
}

// submit hands task to an idle worker. It reports false when every worker is
// busy or the pool is closed.
func (p *Pool) submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}
