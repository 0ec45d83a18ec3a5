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

import "fmt"

// DirectConvolution computes the convolution by its definition, one output
// value at a time, accumulating in float64. input is NHWC, weights HWIO and
// output NHWC with the shape GEMM.OutputShape gives. bias may be nil. It is
// the reference the Winograd path is checked against.
func DirectConvolution[T Float](input []T, shape Tensor4DShape, weights []T, kernel KernelShape, padding PaddingType, bias, output []T) error {
	if shape.NChannels != kernel.NInputChannels {
		return fmt.Errorf("%w: input has %d channels, kernel expects %d",
			ErrShapeMismatch, shape.NChannels, kernel.NInputChannels)
	}
	outRows := axisOutputs(shape.NRows, kernel.NRows, padding)
	outCols := axisOutputs(shape.NCols, kernel.NCols, padding)
	if outRows <= 0 || outCols <= 0 {
		return fmt.Errorf("%w: empty output for %v", ErrInvalidShape, shape)
	}
	padTop := axisPadBefore(kernel.NRows, padding)
	padLeft := axisPadBefore(kernel.NCols, padding)
	nIn, nOut := kernel.NInputChannels, kernel.NOutputChannels

	for b := range shape.NBatches {
		for i := range outRows {
			for j := range outCols {
				o := ((b*outRows+i)*outCols + j) * nOut
				for oc := range nOut {
					var sum float64
					if bias != nil {
						sum = float64(bias[oc])
					}
					for ki := range kernel.NRows {
						r := i + ki - padTop
						if r < 0 || r >= shape.NRows {
							continue
						}
						for kj := range kernel.NCols {
							c := j + kj - padLeft
							if c < 0 || c >= shape.NCols {
								continue
							}
							in := ((b*shape.NRows+r)*shape.NCols + c) * nIn
							w := (ki*kernel.NCols + kj) * nIn * nOut
							for ic := range nIn {
								sum += float64(input[in+ic]) * float64(weights[w+ic*nOut+oc])
							}
						}
					}
					output[o+oc] = T(sum)
				}
			}
		}
	}
	return nil
}
