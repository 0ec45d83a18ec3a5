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

package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-winograd/hwy/contrib/winograd"
	"github.com/ajroetker/go-winograd/hwy/contrib/winograd/weightcache"
	"github.com/ajroetker/go-winograd/hwy/contrib/workerpool"
)

type convOptions struct {
	convFlags
	threads    int
	pool       bool
	cacheDir   string
	iterations int
	seed       uint64
	verify     bool
}

func newConvCommand(root *rootOptions) *cobra.Command {
	opts := &convOptions{}
	cmd := &cobra.Command{
		Use:   "conv",
		Short: "Run a convolution on random data and check it against the direct method",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cs, err := opts.parse()
			if err != nil {
				return err
			}
			if cs.dtype == winograd.DataTypeFloat64 {
				return runConv[float64](cmd.Context(), cmd.OutOrStdout(), root.log, opts, cs)
			}
			return runConv[float32](cmd.Context(), cmd.OutOrStdout(), root.log, opts, cs)
		},
	}
	opts.register(cmd.Flags())
	cmd.Flags().IntVarP(&opts.threads, "threads", "t", 0, "worker threads (0: GOMAXPROCS)")
	cmd.Flags().BoolVar(&opts.pool, "pool", false, "run the batched GEMM on a persistent worker pool")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "directory of the transformed weight cache")
	cmd.Flags().IntVarP(&opts.iterations, "iterations", "n", 1, "number of timed executions")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "random seed")
	cmd.Flags().BoolVar(&opts.verify, "verify", true, "compare with the direct convolution")
	return cmd
}

func runConv[T winograd.Float](ctx context.Context, w io.Writer, log logr.Logger, opts *convOptions, cs convSpec) error {
	if ctx == nil {
		ctx = context.Background()
	}
	convOpts := []winograd.Option{winograd.WithLogger(log), winograd.WithThreads(opts.threads)}
	if opts.pool {
		pool := workerpool.New(opts.threads)
		defer pool.Close()
		convOpts = append(convOpts, winograd.WithPool(pool))
	}
	if opts.cacheDir != "" {
		store, err := weightcache.Open(weightcache.Options{Dir: opts.cacheDir, Logger: log.WithName("weightcache")})
		if err != nil {
			return err
		}
		defer store.Close()
		convOpts = append(convOpts, winograd.WithWeightCache(store))
	}

	conv, err := winograd.NewConvolution[T](cs.geometry, cs.kernel, cs.input, cs.padding, convOpts...)
	if err != nil {
		return err
	}
	r := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	random := func(n int) []T {
		s := make([]T, n)
		for i := range s {
			s[i] = T(r.Float64()*2 - 1)
		}
		return s
	}
	input := random(cs.input.Size())
	weights := random(cs.kernel.Size())
	bias := random(cs.kernel.NOutputChannels)
	output := make([]T, conv.OutputShape().Size())

	start := time.Now()
	if err := conv.TransformWeights(ctx, weights); err != nil {
		return err
	}
	fmt.Fprintf(w, "weights transformed in %v\n", time.Since(start))

	workspace := make([]T, conv.WorkingSpaceLen())
	fmt.Fprintf(w, "working space %s\n", humanize.IBytes(uint64(len(workspace)*elemBytes[T]())))
	times := make([]time.Duration, 0, max(1, opts.iterations))
	for range max(1, opts.iterations) {
		start := time.Now()
		if err := conv.ExecuteWithWorkspace(ctx, output, input, bias, workspace); err != nil {
			return err
		}
		times = append(times, time.Since(start))
	}
	best := lo.Min(times)
	ops := 2 * conv.OutputShape().Size() * cs.kernel.NRows * cs.kernel.NCols * cs.kernel.NInputChannels
	fmt.Fprintf(w, "execute: best %v of %d, %s direct-equivalent GFLOP/s\n",
		best, len(times), humanize.FormatFloat("#,###.##", float64(ops)/best.Seconds()/1e9))

	if !opts.verify {
		return nil
	}
	want := make([]T, len(output))
	if err := winograd.DirectConvolution(input, cs.input, weights, cs.kernel, cs.padding, bias, want); err != nil {
		return err
	}
	maxErr := lo.Max(lo.Map(want, func(v T, i int) float64 {
		return math.Abs(float64(v - output[i]))
	}))
	fmt.Fprintf(w, "max abs error vs direct: %.3g\n", maxErr)
	if maxErr > tolerance[T]() {
		return fmt.Errorf("max abs error %.3g exceeds %.3g", maxErr, tolerance[T]())
	}
	return nil
}

func tolerance[T winograd.Float]() float64 {
	if winograd.DataTypeOf[T]() == winograd.DataTypeFloat32 {
		return 1e-2
	}
	return 1e-8
}

func elemBytes[T winograd.Float]() int {
	if winograd.DataTypeOf[T]() == winograd.DataTypeFloat32 {
		return 4
	}
	return 8
}
