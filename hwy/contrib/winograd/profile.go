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
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajroetker/go-winograd/hwy/contrib/winograd"

// Profiled stages of a convolution.
const (
	StageKernelPrep = "Kernel Prep"
	StageInputPrep  = "Input Prep"
	StageGEMM       = "GEMM"
	StageOutputComp = "Output Comp"
)

// stageCost is the estimated work of one stage.
type stageCost struct {
	bytesRead, bytesWritten, ops int
}

// profiler wraps each stage in a span and records its cost counters.
type profiler struct {
	tracer trace.Tracer
	log    logr.Logger

	bytesRead    metric.Int64Counter
	bytesWritten metric.Int64Counter
	ops          metric.Int64Counter
	duration     metric.Float64Histogram
}

func newProfiler(tp trace.TracerProvider, mp metric.MeterProvider, log logr.Logger) (*profiler, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	p := &profiler{tracer: tp.Tracer(instrumentationName), log: log}

	var err error
	if p.bytesRead, err = meter.Int64Counter("winograd.bytes_read",
		metric.WithDescription("Estimated bytes read by convolution stages."),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if p.bytesWritten, err = meter.Int64Counter("winograd.bytes_written",
		metric.WithDescription("Estimated bytes written by convolution stages."),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if p.ops, err = meter.Int64Counter("winograd.ops",
		metric.WithDescription("Estimated floating point operations of convolution stages.")); err != nil {
		return nil, err
	}
	if p.duration, err = meter.Float64Histogram("winograd.stage.duration",
		metric.WithDescription("Wall time of convolution stages."),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return p, nil
}

// stage runs fn inside a span named name and records cost once fn returns
// without error.
func (p *profiler) stage(ctx context.Context, name string, g Geometry, cost stageCost, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("winograd.geometry", g.String()),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	attrs := metric.WithAttributes(
		attribute.String("stage", name),
		attribute.String("geometry", g.String()),
	)
	p.bytesRead.Add(ctx, int64(cost.bytesRead), attrs)
	p.bytesWritten.Add(ctx, int64(cost.bytesWritten), attrs)
	p.ops.Add(ctx, int64(cost.ops), attrs)
	p.duration.Record(ctx, elapsed.Seconds(), attrs)
	span.SetAttributes(
		attribute.Int("winograd.bytes_read", cost.bytesRead),
		attribute.Int("winograd.bytes_written", cost.bytesWritten),
		attribute.Int("winograd.ops", cost.ops),
	)
	p.log.V(1).Info("stage done", "stage", name, "geometry", g, "elapsed", elapsed, "ops", cost.ops)
	return nil
}
