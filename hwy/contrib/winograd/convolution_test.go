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
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ajroetker/go-winograd/hwy/contrib/winograd/weightcache"
	"github.com/ajroetker/go-winograd/hwy/contrib/workerpool"
)

type convProblem[T Float] struct {
	g       Geometry
	kernel  KernelShape
	input   Tensor4DShape
	padding PaddingType

	in, weights, bias []T
}

func newConvProblem[T Float](r *rand.Rand, g Geometry, padding PaddingType, batches, rows, cols, nIn, nOut int) *convProblem[T] {
	p := &convProblem[T]{
		g:       g,
		kernel:  KernelShape{NOutputChannels: nOut, NRows: g.KernelRows, NCols: g.KernelCols, NInputChannels: nIn, Ordering: HWIO},
		input:   Tensor4DShape{NBatches: batches, NRows: rows, NCols: cols, NChannels: nIn, Ordering: NHWC},
		padding: padding,
	}
	p.in = randomSlice[T](r, p.input.Size())
	p.weights = randomSlice[T](r, p.kernel.Size())
	p.bias = randomSlice[T](r, nOut)
	return p
}

func (p *convProblem[T]) direct(t *testing.T, out Tensor4DShape) []T {
	t.Helper()
	want := make([]T, out.Size())
	require.NoError(t, DirectConvolution(p.in, p.input, p.weights, p.kernel, p.padding, p.bias, want))
	return want
}

func (p *convProblem[T]) winograd(t *testing.T, opts ...Option) []T {
	t.Helper()
	ctx := context.Background()
	conv, err := NewConvolution[T](p.g, p.kernel, p.input, p.padding, opts...)
	require.NoError(t, err)
	require.NoError(t, conv.TransformWeights(ctx, p.weights))
	out := make([]T, conv.OutputShape().Size())
	require.NoError(t, conv.Execute(ctx, out, p.in, p.bias))
	return out
}

func tolerance[T Float]() cmp.Option {
	if DataTypeOf[T]() == DataTypeFloat32 {
		return cmpopts.EquateApprox(1e-3, 1e-2)
	}
	return cmpopts.EquateApprox(1e-9, 1e-9)
}

func testMatchesDirect[T Float](t *testing.T) {
	r := rand.New(rand.NewPCG(47, 53))
	shapes := []struct{ batches, rows, cols, nIn, nOut int }{
		{1, 8, 8, 1, 1},
		{2, 9, 10, 5, 6},
		{1, 13, 7, 20, 33},
	}
	for _, g := range SupportedGeometries() {
		for _, padding := range []PaddingType{PaddingSame, PaddingValid} {
			for _, s := range shapes {
				name := fmt.Sprintf("%v/%v/%dx%dx%dx%d-%d", g, padding, s.batches, s.rows, s.cols, s.nIn, s.nOut)
				t.Run(name, func(t *testing.T) {
					p := newConvProblem[T](r, g, padding, s.batches, s.rows, s.cols, s.nIn, s.nOut)
					got := p.winograd(t, WithThreads(3))
					want := p.direct(t, MustGEMM[T](g).OutputShape(p.kernel, p.input, padding))
					if diff := cmp.Diff(want, got, tolerance[T]()); diff != "" {
						t.Errorf("mismatch (-direct +winograd):\n%s", diff)
					}
				})
			}
		}
	}
}

func TestConvolutionMatchesDirect(t *testing.T) {
	t.Run("float32", testMatchesDirect[float32])
	t.Run("float64", testMatchesDirect[float64])
}

func TestConvolutionSchedulersAgree(t *testing.T) {
	r := rand.New(rand.NewPCG(59, 61))
	p := newConvProblem[float32](r, F4x4_3x3, PaddingSame, 2, 17, 15, 40, 35)
	pool := workerpool.New(3)
	defer pool.Close()

	want := p.winograd(t, WithThreads(1))
	variants := map[string][]Option{
		"threads":   {WithThreads(8)},
		"scheduler": {WithScheduler(NewPoolScheduler(pool, testr.New(t)))},
		"pool":      {WithThreads(2), WithPool(pool)},
		"logger":    {WithLogger(testr.NewWithOptions(t, testr.Options{Verbosity: 2}))},
	}
	for name, opts := range variants {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, p.winograd(t, opts...))
		})
	}
}

func TestExecuteWithWorkspace(t *testing.T) {
	r := rand.New(rand.NewPCG(67, 71))
	p := newConvProblem[float64](r, F2x2_5x5, PaddingValid, 1, 12, 12, 3, 4)
	ctx := context.Background()
	conv, err := NewConvolution[float64](p.g, p.kernel, p.input, p.padding)
	require.NoError(t, err)
	require.NoError(t, conv.TransformWeights(ctx, p.weights))

	ws := randomSlice[float64](r, conv.WorkingSpaceLen())
	first := make([]float64, conv.OutputShape().Size())
	require.NoError(t, conv.ExecuteWithWorkspace(ctx, first, p.in, p.bias, ws))
	second := make([]float64, len(first))
	require.NoError(t, conv.ExecuteWithWorkspace(ctx, second, p.in, p.bias, ws))
	assert.Equal(t, first, second)

	err = conv.ExecuteWithWorkspace(ctx, second, p.in, p.bias, ws[:10])
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestConvolutionErrors(t *testing.T) {
	r := rand.New(rand.NewPCG(73, 79))
	p := newConvProblem[float32](r, F2x2_3x3, PaddingSame, 1, 6, 6, 2, 3)
	ctx := context.Background()

	_, err := NewConvolution[float32](F4x4_3x3, p.kernel, Tensor4DShape{NBatches: 1, NRows: 6, NCols: 6, NChannels: 5}, PaddingSame)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	conv, err := NewConvolution[float32](p.g, p.kernel, p.input, p.padding)
	require.NoError(t, err)
	out := make([]float32, conv.OutputShape().Size())
	assert.ErrorIs(t, conv.Execute(ctx, out, p.in, nil), ErrWeightsNotTransformed)
	assert.ErrorIs(t, conv.TransformWeights(ctx, p.weights[:5]), ErrShapeMismatch)

	require.NoError(t, conv.TransformWeights(ctx, p.weights))
	assert.ErrorIs(t, conv.Execute(ctx, out, p.in[:3], nil), ErrShapeMismatch)
	assert.ErrorIs(t, conv.Execute(ctx, out[:3], p.in, nil), ErrShapeMismatch)
	assert.ErrorIs(t, conv.Execute(ctx, out, p.in, p.bias[:2]), ErrShapeMismatch)
	assert.NoError(t, conv.Execute(ctx, out, p.in, nil))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, conv.Execute(canceled, out, p.in, nil), context.Canceled)
}

// mapCache is an in-process WeightCache.
type mapCache struct {
	mu         sync.Mutex
	m          map[uint64][]byte
	gets, hits int
	puts       int
}

func (c *mapCache) Get(key uint64) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.m[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *mapCache) Put(key uint64, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.m[key] = append([]byte(nil), value...)
	return nil
}

func TestConvolutionWeightCache(t *testing.T) {
	r := rand.New(rand.NewPCG(83, 89))
	p := newConvProblem[float32](r, F1x6_1x3, PaddingSame, 1, 4, 20, 6, 18)

	cache := &mapCache{m: make(map[uint64][]byte)}
	want := p.winograd(t, WithWeightCache(cache))
	got := p.winograd(t, WithWeightCache(cache))
	assert.Equal(t, want, got)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, cache.puts)

	// Different weights miss.
	p.weights[0]++
	p.winograd(t, WithWeightCache(cache))
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 2, cache.puts)
}

func TestConvolutionPersistentCache(t *testing.T) {
	r := rand.New(rand.NewPCG(97, 101))
	p := newConvProblem[float64](r, F4x1_5x1, PaddingValid, 2, 12, 3, 4, 5)
	store, err := weightcache.Open(weightcache.Options{InMemory: true, Logger: testr.New(t)})
	require.NoError(t, err)
	defer store.Close()

	want := p.winograd(t)
	assert.Equal(t, want, p.winograd(t, WithWeightCache(store)))
	assert.Equal(t, want, p.winograd(t, WithWeightCache(store)))
	_, ok, err := store.Get(weightCacheKey(p.g, p.kernel, p.weights))
	require.NoError(t, err)
	assert.True(t, ok)
}

// recordingProvider records the names of started spans.
type recordingProvider struct {
	noop.TracerProvider
	mu    sync.Mutex
	spans []string
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return recordingTracer{p: p}
}

type recordingTracer struct {
	noop.Tracer
	p *recordingProvider
}

func (t recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	t.p.mu.Lock()
	t.p.spans = append(t.p.spans, name)
	t.p.mu.Unlock()
	return t.Tracer.Start(ctx, name, opts...)
}

func TestConvolutionStages(t *testing.T) {
	r := rand.New(rand.NewPCG(103, 107))
	p := newConvProblem[float32](r, F2x2_3x3, PaddingSame, 1, 5, 5, 2, 2)
	tp := &recordingProvider{}
	p.winograd(t, WithTracerProvider(tp), WithMeterProvider(metricnoop.NewMeterProvider()))
	assert.Equal(t, []string{StageKernelPrep, StageInputPrep, StageGEMM, StageOutputComp}, tp.spans)
}

func TestDirectConvolutionErrors(t *testing.T) {
	kernel := KernelShape{NOutputChannels: 1, NRows: 3, NCols: 3, NInputChannels: 2}
	shape := Tensor4DShape{NBatches: 1, NRows: 2, NCols: 2, NChannels: 2}
	err := DirectConvolution[float32](nil, shape, nil, kernel, PaddingValid, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidShape)
	shape.NChannels = 1
	err = DirectConvolution[float32](nil, shape, nil, kernel, PaddingSame, nil, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDirectConvolutionIdentity(t *testing.T) {
	// A centered one-hot 3x3 kernel copies the input under SAME padding.
	shape := Tensor4DShape{NBatches: 1, NRows: 3, NCols: 4, NChannels: 1}
	kernel := KernelShape{NOutputChannels: 1, NRows: 3, NCols: 3, NInputChannels: 1}
	in := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	w := make([]float64, 9)
	w[4] = 1
	out := make([]float64, len(in))
	require.NoError(t, DirectConvolution(in, shape, w, kernel, PaddingSame, nil, out))
	assert.Equal(t, in, out)
}
