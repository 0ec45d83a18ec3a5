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
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ajroetker/go-winograd/hwy/contrib/matmul"
	"github.com/ajroetker/go-winograd/hwy/contrib/workerpool"
)

// ErrWeightsNotTransformed is returned by Execute before TransformWeights.
var ErrWeightsNotTransformed = errors.New("winograd: weights not transformed")

type config struct {
	scheduler Scheduler
	pool      workerpool.Executor
	threads   int
	log       logr.Logger
	cache     WeightCache
	tracer    trace.TracerProvider
	meter     metric.MeterProvider
}

// Option configures a Convolution.
type Option func(*config)

// WithScheduler runs every stage on s.
func WithScheduler(s Scheduler) Option {
	return func(c *config) { c.scheduler = s }
}

// WithThreads sets the thread count of the default scheduler.
func WithThreads(n int) Option {
	return func(c *config) { c.threads = n }
}

// WithPool runs the batched GEMM on pool instead of the scheduler.
func WithPool(pool workerpool.Executor) Option {
	return func(c *config) { c.pool = pool }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logr.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithWeightCache looks transformed weights up in cache before computing
// them, and stores them after.
func WithWeightCache(cache WeightCache) Option {
	return func(c *config) { c.cache = cache }
}

// WithTracerProvider sets the provider of the per-stage spans. The default
// is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.tracer = tp }
}

// WithMeterProvider sets the provider of the per-stage counters. The
// default is the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) { c.meter = mp }
}

// Convolution is a Winograd convolution of fixed shapes. Weights are
// transformed once with TransformWeights; Execute then runs the input
// transform, the batched GEMM and the output transform.
//
// Execute may be called concurrently once the weights are transformed.
type Convolution[T Float] struct {
	gemm    *GEMM[T]
	kernel  KernelShape
	input   Tensor4DShape
	output  Tensor4DShape
	padding PaddingType

	cfg  config
	prof *profiler

	mu             sync.RWMutex
	kernelMatrices []T
}

// NewConvolution validates the shapes and binds the convolution to g. The
// weights are supplied later through TransformWeights.
func NewConvolution[T Float](g Geometry, kernel KernelShape, input Tensor4DShape, padding PaddingType, opts ...Option) (*Convolution[T], error) {
	if err := ValidateConvolution(DataTypeOf[T](), g, kernel, input, padding, 0); err != nil {
		return nil, err
	}
	cfg := config{log: logr.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.scheduler == nil {
		cfg.scheduler = NewScheduler(cfg.threads, cfg.log)
	}
	prof, err := newProfiler(cfg.tracer, cfg.meter, cfg.log)
	if err != nil {
		return nil, fmt.Errorf("winograd: profiler: %w", err)
	}
	gm := MustGEMM[T](g)
	c := &Convolution[T]{
		gemm:    gm,
		kernel:  kernel,
		input:   input,
		output:  gm.OutputShape(kernel, input, padding),
		padding: padding,
		cfg:     cfg,
		prof:    prof,
	}
	c.cfg.log = cfg.log.WithValues("geometry", g.String())
	c.cfg.log.V(1).Info("convolution",
		"kernel", kernel, "input", input, "output", c.output, "padding", padding,
		"tiles", c.gemm.TileRows(kernel, input, padding)*c.gemm.TileCols(kernel, input, padding))
	return c, nil
}

// GEMM returns the sizing facade of the convolution.
func (c *Convolution[T]) GEMM() *GEMM[T] {
	return c.gemm
}

// OutputShape returns the shape Execute writes.
func (c *Convolution[T]) OutputShape() Tensor4DShape {
	return c.output
}

// WorkingSpaceLen returns the number of elements ExecuteWithWorkspace needs.
func (c *Convolution[T]) WorkingSpaceLen() int {
	return c.gemm.WorkingSpaceSize(c.kernel, c.input, c.padding) / elemSize[T]()
}

// TransformWeights transforms HWIO weights into the kernel matrices used by
// every later Execute.
func (c *Convolution[T]) TransformWeights(ctx context.Context, weights []T) error {
	if len(weights) < c.kernel.Size() {
		return fmt.Errorf("%w: %d weights for %v", ErrShapeMismatch, len(weights), c.kernel)
	}
	g := c.gemm.Geometry()
	matrices := make([]T, c.gemm.KernelStorageSize(c.kernel)/elemSize[T]())

	var key uint64
	if c.cfg.cache != nil {
		key = weightCacheKey(g, c.kernel, weights)
		data, ok, err := c.cfg.cache.Get(key)
		switch {
		case err != nil:
			c.cfg.log.Error(err, "weight cache lookup failed", "key", key)
		case ok && len(data) == len(matrices)*elemSize[T]():
			copy(asBytes(matrices), data)
			c.cfg.log.V(1).Info("weight cache hit", "key", key)
			c.setKernelMatrices(matrices)
			return nil
		case ok:
			c.cfg.log.Info("ignoring weight cache entry of wrong size", "key", key, "size", len(data))
		}
	}

	wt := c.gemm.NewWeightsTransform(c.kernel, weights, matrices)
	cost := stageCost{bytesRead: wt.BytesRead(), bytesWritten: wt.BytesWritten(), ops: wt.OpsPerformed()}
	err := c.prof.stage(ctx, StageKernelPrep, g, cost, func(ctx context.Context) error {
		return c.cfg.scheduler.Schedule(ctx, WeightsTransformKernel(wt))
	})
	if err != nil {
		return err
	}
	c.setKernelMatrices(matrices)

	if c.cfg.cache != nil {
		if err := c.cfg.cache.Put(key, asBytes(matrices)); err != nil {
			c.cfg.log.Error(err, "weight cache store failed", "key", key)
		}
	}
	return nil
}

func (c *Convolution[T]) setKernelMatrices(m []T) {
	c.mu.Lock()
	c.kernelMatrices = m
	c.mu.Unlock()
}

// Execute convolves input into output, adding bias when it is not nil. It
// allocates the working space on every call; see ExecuteWithWorkspace.
func (c *Convolution[T]) Execute(ctx context.Context, output, input, bias []T) error {
	return c.ExecuteWithWorkspace(ctx, output, input, bias, make([]T, c.WorkingSpaceLen()))
}

// ExecuteWithWorkspace is Execute with caller-provided scratch of at least
// WorkingSpaceLen elements. Concurrent calls need distinct workspaces.
func (c *Convolution[T]) ExecuteWithWorkspace(ctx context.Context, output, input, bias, workspace []T) error {
	c.mu.RLock()
	kernelMatrices := c.kernelMatrices
	c.mu.RUnlock()
	if kernelMatrices == nil {
		return ErrWeightsNotTransformed
	}
	switch {
	case len(input) < c.input.Size():
		return fmt.Errorf("%w: %d input values for %v", ErrShapeMismatch, len(input), c.input)
	case len(output) < c.output.Size():
		return fmt.Errorf("%w: %d output values for %v", ErrShapeMismatch, len(output), c.output)
	case len(workspace) < c.WorkingSpaceLen():
		return fmt.Errorf("%w: workspace has %d values, need %d", ErrShapeMismatch, len(workspace), c.WorkingSpaceLen())
	}
	if len(bias) == 0 {
		bias = nil
	} else if err := ValidateOutputTransform(DataTypeOf[T](), c.gemm.Geometry(), c.output, len(bias)); err != nil {
		return err
	}

	gm, g := c.gemm, c.gemm.Geometry()
	nGemms := gm.NGemms()
	inStride := gm.InputMatrixStride(c.kernel, c.input, c.padding)
	outStride := gm.OutputMatrixStride(c.kernel, c.input, c.padding)
	inputMatrices := workspace[:nGemms*inStride]
	outputMatrices := workspace[nGemms*inStride : nGemms*(inStride+outStride)]

	it := gm.NewInputTransform(c.kernel, input, c.input, c.padding, inputMatrices)
	cost := stageCost{bytesRead: it.BytesRead(), bytesWritten: it.BytesWritten(), ops: it.OpsPerformed()}
	if err := c.prof.stage(ctx, StageInputPrep, g, cost, func(ctx context.Context) error {
		return c.cfg.scheduler.Schedule(ctx, InputTransformKernel(it))
	}); err != nil {
		return err
	}

	tilesM, tilesN := it.Tiles()
	m := c.input.NBatches * tilesM * tilesN
	k, n := c.kernel.NInputChannels, c.kernel.NOutputChannels
	if err := ValidateBatchedGemm(DataTypeOf[T](), nGemms, m, k, n); err != nil {
		return err
	}
	bg := matmul.NewBatchedBlockedGemm(nGemms, m, k, n,
		inStride, gm.InputMatrixRowStride(c.kernel),
		gm.KernelMatrixStride(c.kernel), gm.KernelMatrixRowStride(c.kernel),
		outStride, gm.OutputMatrixRowStride(c.kernel),
		inputMatrices, kernelMatrices, outputMatrices)
	elem := elemSize[T]()
	cost = stageCost{
		bytesRead:    nGemms * (m*k + k*n) * elem,
		bytesWritten: nGemms * m * n * elem,
		ops:          2 * bg.Ops(),
	}
	if err := c.prof.stage(ctx, StageGEMM, g, cost, func(ctx context.Context) error {
		if c.cfg.pool != nil {
			return runPooled(ctx, c.cfg.pool, bg)
		}
		return c.cfg.scheduler.Schedule(ctx, BatchedGemmKernel(bg))
	}); err != nil {
		return err
	}

	ot := gm.NewOutputTransform(c.kernel, c.input, c.padding, outputMatrices, bias, output)
	cost = stageCost{bytesRead: ot.BytesRead(), bytesWritten: ot.BytesWritten(), ops: ot.OpsPerformed()}
	return c.prof.stage(ctx, StageOutputComp, g, cost, func(ctx context.Context) error {
		return c.cfg.scheduler.Schedule(ctx, OutputTransformKernel(ot))
	})
}

// runPooled runs the batched GEMM on pool, returning a worker panic as a
// *WorkerPanicError.
func runPooled[T Float](ctx context.Context, pool workerpool.Executor, bg *matmul.BatchedBlockedGemm[T]) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			perr := &WorkerPanicError{Kernel: "BatchedGemm", Window: Window{Stop: bg.Window()}, Value: r}
			if pe, ok := r.(*workerpool.PanicError); ok {
				perr.Value, perr.Stack = pe.Value, pe.Stack
			}
			err = perr
		}
	}()
	matmul.ParallelBatchedGemm(pool, bg)
	return nil
}
