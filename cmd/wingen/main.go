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

// Command wingen derives the Winograd transform matrices from Toom-Cook
// interpolation points and writes them as Go tables of exact ratios.
//
// Usage (from a go:generate directive in hwy/contrib/winograd):
//
//	go run ../../../cmd/wingen -output z_matrices.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

var (
	output  = flag.String("output", "z_matrices.go", "output file")
	pkgName = flag.String("package", "winograd", "package name of the generated file")
)

// innerSizes are the inner tile sizes of the supported geometries, per axis.
// A size of 1 (the untransformed axis of a 1D geometry) needs no table.
var innerSizes = []int{4, 6, 8}

// tileKernels are the (output tile, kernel) sizes of the supported
// geometries, per axis.
var tileKernels = []tileKernel{
	{2, 3}, {4, 3}, {6, 3},
	{2, 5}, {4, 5},
	{2, 7},
}

func main() {
	flag.Parse()

	src, err := generate(*pkgName, *output)
	if err != nil {
		log.Fatalf("wingen: %v", err)
	}
	if err := os.WriteFile(*output, src, 0o644); err != nil {
		log.Fatalf("wingen: write %s: %v", *output, err)
	}
	fmt.Printf("Generated: %s\n", *output)
}
