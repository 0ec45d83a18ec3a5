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
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ajroetker/go-winograd/hwy/contrib/winograd"
)

// convFlags are the flags describing one convolution.
type convFlags struct {
	geometry    string
	input       string
	outChannels int
	padding     string
	dtype       string
}

func (f *convFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.geometry, "geometry", "g", "2x2_3x3", "tile geometry, e.g. 4x4_3x3 or F(4x4,3x3)")
	fs.StringVarP(&f.input, "input", "i", "1x32x32x16", "input shape NxHxWxC (NHWC)")
	fs.IntVarP(&f.outChannels, "out-channels", "o", 16, "number of output channels")
	fs.StringVarP(&f.padding, "padding", "p", "same", "padding: same or valid")
	fs.StringVar(&f.dtype, "dtype", "f32", "element type: f32 or f64")
}

// convSpec is a parsed convFlags.
type convSpec struct {
	geometry winograd.Geometry
	input    winograd.Tensor4DShape
	kernel   winograd.KernelShape
	padding  winograd.PaddingType
	dtype    winograd.DataType
}

func (f *convFlags) parse() (convSpec, error) {
	var s convSpec
	var err error
	if s.geometry, err = winograd.ParseGeometry(f.geometry); err != nil {
		return s, err
	}
	if s.input, err = parseShape(f.input); err != nil {
		return s, err
	}
	if s.padding, err = winograd.ParsePadding(f.padding); err != nil {
		return s, err
	}
	if s.dtype, err = parseDataType(f.dtype); err != nil {
		return s, err
	}
	s.kernel = winograd.KernelShape{
		NOutputChannels: f.outChannels,
		NRows:           s.geometry.KernelRows,
		NCols:           s.geometry.KernelCols,
		NInputChannels:  s.input.NChannels,
		Ordering:        winograd.HWIO,
	}
	return s, winograd.ValidateConvolution(s.dtype, s.geometry, s.kernel, s.input, s.padding, 0)
}

// parseShape parses "NxHxWxC".
func parseShape(s string) (winograd.Tensor4DShape, error) {
	parts := strings.Split(s, "x")
	if len(parts) != 4 {
		return winograd.Tensor4DShape{}, fmt.Errorf("shape %q: want NxHxWxC", s)
	}
	var dims [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v <= 0 {
			return winograd.Tensor4DShape{}, fmt.Errorf("shape %q: bad extent %q", s, p)
		}
		dims[i] = v
	}
	return winograd.Tensor4DShape{
		NBatches:  dims[0],
		NRows:     dims[1],
		NCols:     dims[2],
		NChannels: dims[3],
		Ordering:  winograd.NHWC,
	}, nil
}

func parseDataType(s string) (winograd.DataType, error) {
	switch strings.ToLower(s) {
	case "f32", "float32":
		return winograd.DataTypeFloat32, nil
	case "f64", "float64":
		return winograd.DataTypeFloat64, nil
	}
	return winograd.DataTypeUnknown, fmt.Errorf("unknown data type %q", s)
}
