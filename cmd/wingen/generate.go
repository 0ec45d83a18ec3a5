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
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"
)

const licenseHeader = `// Copyright 2025 go-highway Authors
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
`

// generate renders the matrix tables of every supported size.
func generate(pkg, filename string) ([]byte, error) {
	for _, tk := range tileKernels {
		if err := verify(tk); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n// Code generated by wingen. DO NOT EDIT.\n\npackage %s\n\n", licenseHeader, pkg)

	fmt.Fprintf(&buf, "// interpolationPoints lists the finite Toom-Cook points of each inner tile\n")
	fmt.Fprintf(&buf, "// size. The point at infinity is always the last.\n")
	fmt.Fprintf(&buf, "var interpolationPoints = map[int][]int64{\n")
	for _, n := range innerSizes {
		p := points(n)
		parts := make([]string, len(p))
		for i, v := range p {
			parts[i] = fmt.Sprint(v)
		}
		fmt.Fprintf(&buf, "\t%d: {%s},\n", n, strings.Join(parts, ", "))
	}
	fmt.Fprintf(&buf, "}\n")

	title := cases.Title(language.English)

	writeHeader := func(kind, symbol, keyDoc, keyType string) {
		fmt.Fprintf(&buf, "\n// %sTransformMatrices holds the %s transform matrices (%s), keyed by\n", kind, kind, symbol)
		fmt.Fprintf(&buf, "// %s.\n", keyDoc)
		fmt.Fprintf(&buf, "var %sTransformMatrices = map[%s]ratMatrix{\n", kind, keyType)
	}

	writeHeader("input", "Bᵀ", "inner tile size", "int")
	for _, n := range innerSizes {
		fmt.Fprintf(&buf, "\t%d: {\n", n)
		writeRows(&buf, inputMatrix(n))
		fmt.Fprintf(&buf, "\t},\n")
	}
	fmt.Fprintf(&buf, "}\n")

	for _, kind := range []string{"weight", "output"} {
		symbol, build := "G", weightMatrix
		if kind == "output" {
			symbol, build = "Aᵀ", outputMatrix
		}
		writeHeader(kind, symbol, "output tile and kernel size", "tileKernel")
		for _, tk := range tileKernels {
			fmt.Fprintf(&buf, "\t// %s F(%d,%d)\n", title.String(kind), tk.output, tk.kernel)
			fmt.Fprintf(&buf, "\t{%d, %d}: {\n", tk.output, tk.kernel)
			writeRows(&buf, build(tk))
			fmt.Fprintf(&buf, "\t},\n")
		}
		fmt.Fprintf(&buf, "}\n")
	}

	return imports.Process(filename, buf.Bytes(), nil)
}

func writeRows(buf *bytes.Buffer, m ratMatrix) {
	for _, row := range m {
		parts := make([]string, len(row))
		for i, r := range row {
			parts[i] = ratioLiteral(r)
		}
		fmt.Fprintf(buf, "\t\t{%s},\n", strings.Join(parts, ", "))
	}
}

// ratioLiteral renders r as a {num, den} ratio literal.
func ratioLiteral(r *big.Rat) string {
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		panic("wingen: coefficient does not fit int64: " + r.String())
	}
	return fmt.Sprintf("{%d, %d}", r.Num().Int64(), r.Denom().Int64())
}
