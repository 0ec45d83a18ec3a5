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
	"math/big"
)

type tileKernel struct {
	output, kernel int
}

func (tk tileKernel) inner() int {
	return tk.output + tk.kernel - 1
}

// ratMatrix is a dense matrix of exact rationals.
type ratMatrix [][]*big.Rat

func newRatMatrix(rows, cols int) ratMatrix {
	m := make(ratMatrix, rows)
	for i := range m {
		m[i] = make([]*big.Rat, cols)
		for j := range m[i] {
			m[i][j] = new(big.Rat)
		}
	}
	return m
}

// points returns the n-1 finite interpolation points 0, 1, -1, 2, -2, ...
// used for an inner tile of size n. The n-th point is infinity.
func points(n int) []int64 {
	p := []int64{0}
	for k := int64(1); len(p) < n-1; k++ {
		p = append(p, k, -k)
	}
	return p[:n-1]
}

// polyMul multiplies two polynomials given in ascending coefficients.
func polyMul(a, b []*big.Rat) []*big.Rat {
	r := make([]*big.Rat, len(a)+len(b)-1)
	for i := range r {
		r[i] = new(big.Rat)
	}
	for i, x := range a {
		for j, y := range b {
			r[i+j].Add(r[i+j], new(big.Rat).Mul(x, y))
		}
	}
	return r
}

// nodePoly returns prod (t - p_l) over l != skip, ascending coefficients.
// A skip of -1 keeps every point.
func nodePoly(p []int64, skip int) []*big.Rat {
	poly := []*big.Rat{big.NewRat(1, 1)}
	for l, pl := range p {
		if l == skip {
			continue
		}
		poly = polyMul(poly, []*big.Rat{big.NewRat(-pl, 1), big.NewRat(1, 1)})
	}
	return poly
}

// inputMatrix returns Bᵀ for inner size n: row j < n-1 holds M(t)/(t-p_j)
// and the last row holds M(t), where M(t) = prod (t - p_l).
func inputMatrix(n int) ratMatrix {
	p := points(n)
	m := newRatMatrix(n, n)
	for j := range n {
		skip := j
		if j == n-1 {
			skip = -1
		}
		for k, c := range nodePoly(p, skip) {
			m[j][k].Set(c)
		}
	}
	return m
}

// weightMatrix returns G for output size mOut and kernel size r:
// G[j][k] = p_j^k / prod_{l != j} (p_j - p_l), and the infinity row picks
// the highest kernel tap.
func weightMatrix(tk tileKernel) ratMatrix {
	n := tk.inner()
	p := points(n)
	g := newRatMatrix(n, tk.kernel)
	for j := range n - 1 {
		den := big.NewRat(1, 1)
		for l, pl := range p {
			if l != j {
				den.Mul(den, big.NewRat(p[j]-pl, 1))
			}
		}
		pow := big.NewRat(1, 1)
		for k := range tk.kernel {
			g[j][k].Quo(pow, den)
			pow = new(big.Rat).Mul(pow, big.NewRat(p[j], 1))
		}
	}
	g[n-1][tk.kernel-1].SetInt64(1)
	return g
}

// outputMatrix returns Aᵀ: Aᵀ[i][j] = p_j^i, and the infinity column
// contributes only to the last output.
func outputMatrix(tk tileKernel) ratMatrix {
	n := tk.inner()
	p := points(n)
	a := newRatMatrix(tk.output, n)
	for j, pj := range p {
		pow := big.NewRat(1, 1)
		for i := range tk.output {
			a[i][j].Set(pow)
			pow = new(big.Rat).Mul(pow, big.NewRat(pj, 1))
		}
	}
	a[tk.output-1][n-1].SetInt64(1)
	return a
}

// verify checks Aᵀ[(G w) ⊙ (Bᵀ x)] against direct correlation for a set of
// integer probes, exactly.
func verify(tk tileKernel) error {
	n := tk.inner()
	bt, g, at := inputMatrix(n), weightMatrix(tk), outputMatrix(tk)
	for probe := range 3 {
		x := make([]*big.Rat, n)
		for i := range x {
			x[i] = big.NewRat(int64((i*5+probe*3)%9-4), 1)
		}
		w := make([]*big.Rat, tk.kernel)
		for i := range w {
			w[i] = big.NewRat(int64((i*7+probe)%5-2), 1)
		}
		u, v := mulVec(bt, x), mulVec(g, w)
		for i := range u {
			u[i].Mul(u[i], v[i])
		}
		y := mulVec(at, u)
		for i := range tk.output {
			want := new(big.Rat)
			for k := range tk.kernel {
				want.Add(want, new(big.Rat).Mul(x[i+k], w[k]))
			}
			if y[i].Cmp(want) != 0 {
				return fmt.Errorf("F(%d,%d): output %d = %s, want %s", tk.output, tk.kernel, i, y[i].RatString(), want.RatString())
			}
		}
	}
	return nil
}

func mulVec(m ratMatrix, x []*big.Rat) []*big.Rat {
	y := make([]*big.Rat, len(m))
	for i, row := range m {
		y[i] = new(big.Rat)
		for k, c := range row {
			y[i].Add(y[i], new(big.Rat).Mul(c, x[k]))
		}
	}
	return y
}
