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
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-winograd/hwy/contrib/winograd"
	"github.com/ajroetker/go-winograd/internal/cpuinfo"
)

func newGeometriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "geometries",
		Short: "List the supported tile geometries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GEOMETRY\tKERNEL\tOUTPUT TILE\tINNER TILE\tGEMMS")
			for _, g := range winograd.SupportedGeometries() {
				fmt.Fprintf(tw, "%v\t%dx%d\t%dx%d\t%dx%d\t%d\n", g,
					g.KernelRows, g.KernelCols,
					g.OutputTileRows, g.OutputTileCols,
					g.InnerTileRows(), g.InnerTileCols(),
					g.NGemms())
			}
			return tw.Flush()
		},
	}
}

func newSizesCommand() *cobra.Command {
	var flags convFlags
	cmd := &cobra.Command{
		Use:   "sizes",
		Short: "Print the buffer sizes and strides of a convolution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cs, err := flags.parse()
			if err != nil {
				return err
			}
			if cs.dtype == winograd.DataTypeFloat64 {
				return printSizes(cmd.OutOrStdout(), winograd.MustGEMM[float64](cs.geometry), cs)
			}
			return printSizes(cmd.OutOrStdout(), winograd.MustGEMM[float32](cs.geometry), cs)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

type sizeRow struct {
	name  string
	value int
	bytes bool
}

func printSizes[T winograd.Float](w io.Writer, gm *winograd.GEMM[T], s convSpec) error {
	k, in, p := s.kernel, s.input, s.padding
	rows := []sizeRow{
		{"tiles", gm.TileRows(k, in, p) * gm.TileCols(k, in, p), false},
		{"gemms", gm.NGemms(), false},
		{"kernel matrix stride", gm.KernelMatrixStride(k), false},
		{"kernel matrix row stride", gm.KernelMatrixRowStride(k), false},
		{"kernel storage", gm.KernelStorageSize(k), true},
		{"kernel transform working space", gm.KernelTransformWorkingSize(k), true},
		{"input matrix stride", gm.InputMatrixStride(k, in, p), false},
		{"input matrix row stride", gm.InputMatrixRowStride(k), false},
		{"input storage", gm.InputStorageSize(k, in, p), true},
		{"output matrix stride", gm.OutputMatrixStride(k, in, p), false},
		{"output matrix row stride", gm.OutputMatrixRowStride(k), false},
		{"output storage", gm.OutputStorageSize(k, in, p), true},
		{"working space", gm.WorkingSpaceSize(k, in, p), true},
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "geometry\t%v\n", gm.Geometry())
	fmt.Fprintf(tw, "input\t%v\n", in)
	fmt.Fprintf(tw, "kernel\t%v\n", k)
	fmt.Fprintf(tw, "padding\t%v\n", p)
	fmt.Fprintf(tw, "output\t%v\n", gm.OutputShape(k, in, p))
	for _, r := range rows {
		if r.bytes {
			fmt.Fprintf(tw, "%s\t%s (%s bytes)\n", r.name, humanize.IBytes(uint64(r.value)), humanize.Comma(int64(r.value)))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", r.name, humanize.Comma(int64(r.value)))
	}
	total := lo.SumBy(lo.Filter(rows, func(r sizeRow, _ int) bool {
		return r.bytes && r.name != "working space" && r.name != "kernel transform working space"
	}), func(r sizeRow) int { return r.value })
	fmt.Fprintf(tw, "transform-domain total\t%s\n", humanize.IBytes(uint64(total)))
	return tw.Flush()
}

func newTablesCommand() *cobra.Command {
	var geometry string
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Report the tile dispatch tables of each geometry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			geometries := winograd.SupportedGeometries()
			if geometry != "" {
				g, err := winograd.ParseGeometry(geometry)
				if err != nil {
					return err
				}
				geometries = []winograd.Geometry{g}
			}
			stats, err := collectStats(geometries)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GEOMETRY\tINPUT TABLE\tSPECIALIZED\tOUTPUT TABLE\tSPECIALIZED\tOPS/TILE (IN, OUT, W)")
			for _, s := range stats {
				fmt.Fprintf(tw, "%v\t%v\t%d/%d\t%v\t%d/%d\t%d, %d, %d\n", s.Geometry,
					s.InputTableDims, s.InputSpecialized, s.InputEntries,
					s.OutputTableDims, s.OutputSpecialized, s.OutputEntries,
					s.InputOpsPerTile, s.OutputOpsPerTile, s.WeightsOpsPerKernel)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			total := lo.SumBy(stats, func(s winograd.TableStats) int { return s.InputSpecialized + s.OutputSpecialized })
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d specialized tile functions\n", total)
			return err
		},
	}
	cmd.Flags().StringVarP(&geometry, "geometry", "g", "", "only this geometry")
	return cmd
}

func collectStats(geometries []winograd.Geometry) ([]winograd.TableStats, error) {
	stats := make([]winograd.TableStats, 0, len(geometries))
	for _, g := range geometries {
		s, err := winograd.DispatchStats(g)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func newCPUCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cpu",
		Short: "Print the detected CPU features and dispatch level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cpuinfo.Report(cmd.OutOrStdout())
		},
	}
}
