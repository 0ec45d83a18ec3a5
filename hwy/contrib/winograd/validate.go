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
	"errors"
	"fmt"
)

// Validation errors. Validate functions wrap one of these with details.
var (
	ErrUnsupportedDataType = errors.New("winograd: unsupported data type")
	ErrUnsupportedGeometry = errors.New("winograd: unsupported geometry")
	ErrUnsupportedLayout   = errors.New("winograd: unsupported data layout")
	ErrShapeMismatch       = errors.New("winograd: shape mismatch")
	ErrInvalidShape        = errors.New("winograd: invalid shape")
)

func validateDataType(dt DataType) error {
	if dt != DataTypeFloat32 && dt != DataTypeFloat64 {
		return fmt.Errorf("%w: %v", ErrUnsupportedDataType, dt)
	}
	return nil
}

func validateGeometry(g Geometry) error {
	if !g.Supported() {
		return fmt.Errorf("%w: %v", ErrUnsupportedGeometry, g)
	}
	return nil
}

func validateTensor(name string, s Tensor4DShape) error {
	if s.NBatches <= 0 || s.NRows <= 0 || s.NCols <= 0 || s.NChannels <= 0 {
		return fmt.Errorf("%w: %s %v", ErrInvalidShape, name, s)
	}
	if s.Ordering != NHWC {
		return fmt.Errorf("%w: %s is %v, want NHWC", ErrUnsupportedLayout, name, s.Ordering)
	}
	return nil
}

func validateKernel(g Geometry, k KernelShape) error {
	if k.NOutputChannels <= 0 || k.NInputChannels <= 0 {
		return fmt.Errorf("%w: kernel %v", ErrInvalidShape, k)
	}
	if k.Ordering != HWIO {
		return fmt.Errorf("%w: kernel is %v, want HWIO", ErrUnsupportedLayout, k.Ordering)
	}
	if k.NRows != g.KernelRows || k.NCols != g.KernelCols {
		return fmt.Errorf("%w: %dx%d kernel for %v", ErrShapeMismatch, k.NRows, k.NCols, g)
	}
	return nil
}

// ValidateWeightsTransform checks that a kernel can be transformed with g.
func ValidateWeightsTransform(dt DataType, g Geometry, kernel KernelShape) error {
	if err := validateDataType(dt); err != nil {
		return err
	}
	if err := validateGeometry(g); err != nil {
		return err
	}
	return validateKernel(g, kernel)
}

// ValidateInputTransform checks that an input tensor can be transformed
// for a convolution with kernel.
func ValidateInputTransform(dt DataType, g Geometry, input Tensor4DShape, kernel KernelShape, padding PaddingType) error {
	if err := ValidateWeightsTransform(dt, g, kernel); err != nil {
		return err
	}
	if err := validateTensor("input", input); err != nil {
		return err
	}
	if padding != PaddingSame && padding != PaddingValid {
		return fmt.Errorf("%w: padding %v", ErrInvalidShape, padding)
	}
	if input.NChannels != kernel.NInputChannels {
		return fmt.Errorf("%w: input has %d channels, kernel expects %d",
			ErrShapeMismatch, input.NChannels, kernel.NInputChannels)
	}
	if padding == PaddingValid && (input.NRows < kernel.NRows || input.NCols < kernel.NCols) {
		return fmt.Errorf("%w: %dx%d input is smaller than the %dx%d kernel",
			ErrInvalidShape, input.NRows, input.NCols, kernel.NRows, kernel.NCols)
	}
	return nil
}

// ValidateOutputTransform checks an output tensor and its bias. A biasLen
// of zero means no bias.
func ValidateOutputTransform(dt DataType, g Geometry, output Tensor4DShape, biasLen int) error {
	if err := validateDataType(dt); err != nil {
		return err
	}
	if err := validateGeometry(g); err != nil {
		return err
	}
	if err := validateTensor("output", output); err != nil {
		return err
	}
	if biasLen != 0 && biasLen != output.NChannels {
		return fmt.Errorf("%w: bias has %d values for %d channels", ErrShapeMismatch, biasLen, output.NChannels)
	}
	return nil
}

// ValidateBatchedGemm checks the operands of the batched matrix products.
func ValidateBatchedGemm(dt DataType, nGemms, m, k, n int) error {
	if err := validateDataType(dt); err != nil {
		return err
	}
	if nGemms <= 0 || m <= 0 || k <= 0 || n <= 0 {
		return fmt.Errorf("%w: batched GEMM %d x (%dx%d * %dx%d)", ErrInvalidShape, nGemms, m, k, k, n)
	}
	return nil
}

// ValidateConvolution checks a whole convolution: kernel, input and the
// output it implies.
func ValidateConvolution(dt DataType, g Geometry, kernel KernelShape, input Tensor4DShape, padding PaddingType, biasLen int) error {
	if err := ValidateInputTransform(dt, g, input, kernel, padding); err != nil {
		return err
	}
	output := Tensor4DShape{
		NBatches:  input.NBatches,
		NRows:     axisOutputs(input.NRows, kernel.NRows, padding),
		NCols:     axisOutputs(input.NCols, kernel.NCols, padding),
		NChannels: kernel.NOutputChannels,
		Ordering:  input.Ordering,
	}
	return ValidateOutputTransform(dt, g, output, biasLen)
}
