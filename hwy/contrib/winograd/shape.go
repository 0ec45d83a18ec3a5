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
	"strings"
)

// TensorOrdering is the memory order of a spatial tensor.
type TensorOrdering int

const (
	NHWC TensorOrdering = iota
	NCHW
)

func (o TensorOrdering) String() string {
	if o == NCHW {
		return "NCHW"
	}
	return "NHWC"
}

// KernelOrdering is the memory order of a convolution kernel.
type KernelOrdering int

const (
	HWIO KernelOrdering = iota
	OIHW
)

func (o KernelOrdering) String() string {
	if o == OIHW {
		return "OIHW"
	}
	return "HWIO"
}

// Tensor4DShape is the logical shape of a spatial tensor.
type Tensor4DShape struct {
	NBatches  int
	NRows     int
	NCols     int
	NChannels int
	Ordering  TensorOrdering
}

// Size returns the number of elements.
func (s Tensor4DShape) Size() int {
	return s.NBatches * s.NRows * s.NCols * s.NChannels
}

// Equal compares the four extents; the ordering is ignored.
func (s Tensor4DShape) Equal(o Tensor4DShape) bool {
	return s.NBatches == o.NBatches && s.NRows == o.NRows &&
		s.NCols == o.NCols && s.NChannels == o.NChannels
}

func (s Tensor4DShape) String() string {
	return fmt.Sprintf("%dx%dx%dx%d %s", s.NBatches, s.NRows, s.NCols, s.NChannels, s.Ordering)
}

// KernelShape is the shape of a convolution kernel.
type KernelShape struct {
	NOutputChannels int
	NRows           int
	NCols           int
	NInputChannels  int
	Ordering        KernelOrdering
}

// Size returns the number of elements.
func (s KernelShape) Size() int {
	return s.NOutputChannels * s.NRows * s.NCols * s.NInputChannels
}

// Equal compares the four extents; the ordering is ignored.
func (s KernelShape) Equal(o KernelShape) bool {
	return s.NOutputChannels == o.NOutputChannels && s.NRows == o.NRows &&
		s.NCols == o.NCols && s.NInputChannels == o.NInputChannels
}

func (s KernelShape) String() string {
	return fmt.Sprintf("%dx%dx%dx%d %s", s.NRows, s.NCols, s.NInputChannels, s.NOutputChannels, s.Ordering)
}

// PaddingType selects how the input is padded before tiling.
type PaddingType int

const (
	// PaddingSame pads (k-1)/2 zeros before the first row and column and
	// keeps the spatial extent of the input.
	PaddingSame PaddingType = 0
	// PaddingValid does not pad.
	PaddingValid PaddingType = 1
)

func (p PaddingType) String() string {
	switch p {
	case PaddingSame:
		return "SAME"
	case PaddingValid:
		return "VALID"
	default:
		return fmt.Sprintf("PaddingType(%d)", int(p))
	}
}

// ParsePadding parses "same" or "valid", case-insensitively.
func ParsePadding(s string) (PaddingType, error) {
	switch strings.ToLower(s) {
	case "same":
		return PaddingSame, nil
	case "valid":
		return PaddingValid, nil
	}
	return 0, fmt.Errorf("winograd: unknown padding %q", s)
}

// Strides are element distances in a spatial tensor. Channels are always
// contiguous. A zero field takes the dense NHWC value.
type Strides struct {
	Batch int
	Row   int
	Col   int
}

// resolve fills zero strides with dense NHWC values for shape.
func (s Strides) resolve(shape Tensor4DShape) Strides {
	if s.Col == 0 {
		s.Col = shape.NChannels
	}
	if s.Row == 0 {
		s.Row = shape.NCols * s.Col
	}
	if s.Batch == 0 {
		s.Batch = shape.NRows * s.Row
	}
	return s
}

// DataType identifies an element type.
type DataType int

const (
	DataTypeUnknown DataType = iota
	DataTypeFloat32
	DataTypeFloat64
	DataTypeFloat16
	DataTypeQASYMM8
)

func (d DataType) String() string {
	switch d {
	case DataTypeFloat32:
		return "F32"
	case DataTypeFloat64:
		return "F64"
	case DataTypeFloat16:
		return "F16"
	case DataTypeQASYMM8:
		return "QASYMM8"
	default:
		return "UNKNOWN"
	}
}

// Float is the set of element types the transforms are built for.
type Float interface {
	float32 | float64
}

// DataTypeOf returns the DataType of T.
func DataTypeOf[T Float]() DataType {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return DataTypeFloat32
	}
	return DataTypeFloat64
}

// elemSize returns the size of T in bytes.
func elemSize[T Float]() int {
	if DataTypeOf[T]() == DataTypeFloat32 {
		return 4
	}
	return 8
}
