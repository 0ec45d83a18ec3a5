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

// Package cpuinfo reports the CPU features detected by Go and the lane
// width the Winograd tile functions run at.
package cpuinfo

import (
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/ajroetker/go-winograd/hwy"
)

// Feature is one named CPU capability.
type Feature struct {
	Name    string
	Present bool
	Note    string
}

// Features returns the features relevant to the dispatch levels of the
// current architecture.
func Features() []Feature {
	switch runtime.GOARCH {
	case "arm64":
		return []Feature{
			{"ASIMD", cpu.ARM64.HasASIMD, "NEON baseline"},
			{"FP", cpu.ARM64.HasFP, "Floating point"},
			{"FPHP", cpu.ARM64.HasFPHP, "FP16 scalar, ARMv8.2-A"},
			{"ASIMDHP", cpu.ARM64.HasASIMDHP, "FP16 NEON, ARMv8.2-A"},
			{"ASIMDFHM", cpu.ARM64.HasASIMDFHM, "FP16 FMA, ARMv8.4-A"},
			{"SVE", cpu.ARM64.HasSVE, "Scalable Vector Extension"},
			{"SVE2", cpu.ARM64.HasSVE2, ""},
		}
	case "amd64":
		return []Feature{
			{"SSE2", cpu.X86.HasSSE2, ""},
			{"SSE41", cpu.X86.HasSSE41, ""},
			{"SSE42", cpu.X86.HasSSE42, ""},
			{"AVX", cpu.X86.HasAVX, ""},
			{"AVX2", cpu.X86.HasAVX2, ""},
			{"FMA", cpu.X86.HasFMA, ""},
			{"AVX512F", cpu.X86.HasAVX512F, ""},
			{"AVX512BW", cpu.X86.HasAVX512BW, ""},
			{"AVX512VL", cpu.X86.HasAVX512VL, ""},
		}
	}
	return nil
}

// Report writes the platform, the dispatch level and the CPU features to w.
func Report(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("GOOS: %s\n", runtime.GOOS)
	ew.printf("GOARCH: %s\n", runtime.GOARCH)
	ew.printf("NumCPU: %d\n", runtime.NumCPU())
	ew.printf("\n")

	ew.printf("Highway dispatch level: %s\n", hwy.CurrentLevel())
	ew.printf("Highway dispatch width: %d bytes\n", hwy.CurrentWidth())
	ew.printf("Highway dispatch name: %s\n", hwy.CurrentName())
	ew.printf("Lanes: float32=%d float64=%d\n", hwy.MaxLanes[float32](), hwy.MaxLanes[float64]())
	if hwy.NoSimdEnv() {
		ew.printf("HWY_NO_SIMD is set: scalar mode forced\n")
	}

	features := Features()
	if len(features) == 0 {
		return ew.err
	}
	ew.printf("\n=== golang.org/x/sys/cpu (%s) ===\n", runtime.GOARCH)
	for _, f := range features {
		if f.Note != "" {
			ew.printf("  Has%-9s %v (%s)\n", f.Name+":", f.Present, f.Note)
		} else {
			ew.printf("  Has%-9s %v\n", f.Name+":", f.Present)
		}
	}
	return ew.err
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
