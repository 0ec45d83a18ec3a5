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

package weightcache

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func TestGetMissing(t *testing.T) {
	s := openMemory(t)
	v, ok, err := s.Get(42)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestPutGet(t *testing.T) {
	s := openMemory(t)
	value := bytes.Repeat([]byte{1, 2, 3, 4, 0, 0, 0, 0}, 512)
	require.NoError(t, s.Put(7, value))

	got, ok, err := s.Get(7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value, got)

	// The stored value is a copy.
	value[0] = 99
	got, _, _ = s.Get(7)
	assert.Equal(t, byte(1), got[0])
}

func TestGetFromDisk(t *testing.T) {
	s := openMemory(t)
	value := []byte("kernel matrices")
	require.NoError(t, s.Put(1, value))
	s.mem.Clear()

	got, ok, err := s.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value, got)
}

func TestDelete(t *testing.T) {
	s := openMemory(t)
	require.NoError(t, s.Put(3, []byte("x")))
	require.NoError(t, s.Delete(3))
	_, ok, err := s.Get(3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.Put(11, []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Get(11)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("persisted"), got)
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}
