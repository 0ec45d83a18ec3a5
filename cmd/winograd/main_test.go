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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-winograd/hwy/contrib/winograd"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseShape(t *testing.T) {
	s, err := parseShape("2x28x30x16")
	require.NoError(t, err)
	assert.Equal(t, winograd.Tensor4DShape{NBatches: 2, NRows: 28, NCols: 30, NChannels: 16, Ordering: winograd.NHWC}, s)

	for _, bad := range []string{"", "2x28x30", "2x28x30x0", "axbxcxd", "1x2x3x4x5"} {
		_, err := parseShape(bad)
		assert.Error(t, err, bad)
	}
}

func TestGeometriesCommand(t *testing.T) {
	out, err := run(t, "geometries")
	require.NoError(t, err)
	for _, g := range winograd.SupportedGeometries() {
		assert.Contains(t, out, g.String())
	}
}

func TestSizesCommand(t *testing.T) {
	out, err := run(t, "sizes", "-g", "2x2_3x3", "-i", "1x8x8x3", "-o", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "working space")
	assert.Contains(t, out, "19,456 bytes")

	_, err = run(t, "sizes", "-g", "2x2_3x3", "-i", "1x8x8x3", "--padding", "full")
	assert.Error(t, err)
	_, err = run(t, "sizes", "--dtype", "f16")
	assert.Error(t, err)
}

func TestConvCommand(t *testing.T) {
	for _, args := range [][]string{
		{"conv", "-g", "4x4_3x3", "-i", "1x9x9x5", "-o", "6"},
		{"conv", "-g", "1x6_1x3", "-i", "2x3x17x4", "-o", "3", "--padding", "valid", "--dtype", "f64", "--pool", "-t", "2"},
		{"conv", "-g", "F(2x1,7x1)", "-i", "1x12x4x2", "-o", "2", "-n", "2", "--cache-dir", t.TempDir()},
	} {
		out, err := run(t, args...)
		require.NoError(t, err, out)
		assert.Contains(t, out, "max abs error")
	}
}

func TestTablesCommand(t *testing.T) {
	out, err := run(t, "tables", "-g", "6x1_3x1")
	require.NoError(t, err)
	assert.Contains(t, out, "F(6x1,3x1)")
	assert.Contains(t, out, "specialized tile functions")
}

func TestCPUCommand(t *testing.T) {
	out, err := run(t, "cpu")
	require.NoError(t, err)
	assert.Contains(t, out, "Highway dispatch level")
}
