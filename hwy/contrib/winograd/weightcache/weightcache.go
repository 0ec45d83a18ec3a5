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

// Package weightcache keeps transformed Winograd kernel matrices across
// runs. Values live zstd-compressed in a badger database and decompressed
// in a ristretto cache in front of it.
//
//	store, err := weightcache.Open(weightcache.Options{Dir: dir})
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	conv, err := winograd.NewConvolution[float32](g, kernel, input, padding,
//		winograd.WithWeightCache(store))
package weightcache

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-logr/logr"
	"github.com/klauspost/compress/zstd"
)

// DefaultMaxCost is the in-memory budget in bytes when Options.MaxCost is
// zero.
const DefaultMaxCost = 64 << 20

var keyPrefix = []byte("winograd/weights/")

// Options configures a Store.
type Options struct {
	// Dir is the badger directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps the badger tier in memory, for tests and one-shot runs.
	InMemory bool
	// MaxCost bounds the decompressed bytes held by the memory tier.
	MaxCost int64
	// Logger receives badger's messages and cache events.
	Logger logr.Logger
}

// Store is a two-tier cache of kernel matrices keyed by a 64-bit hash.
// It is safe for concurrent use.
type Store struct {
	db  *badger.DB
	mem *ristretto.Cache[uint64, []byte]
	enc *zstd.Encoder
	dec *zstd.Decoder
	log logr.Logger
}

// Open opens or creates a store.
func Open(opts Options) (*Store, error) {
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.MaxCost <= 0 {
		opts.MaxCost = DefaultMaxCost
	}
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("weightcache: Dir is required unless InMemory is set")
	}

	bopts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = badgerLogger{opts.Logger.WithName("badger")}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("weightcache: open badger: %w", err)
	}
	mem, err := ristretto.NewCache(&ristretto.Config[uint64, []byte]{
		NumCounters: 1 << 14,
		MaxCost:     opts.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("weightcache: memory tier: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		mem.Close()
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		mem.Close()
		db.Close()
		return nil, err
	}
	return &Store{db: db, mem: mem, enc: enc, dec: dec, log: opts.Logger}, nil
}

func dbKey(key uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte(nil), keyPrefix...), key)
}

// Get returns the value stored under key. The returned slice is shared with
// the cache and must not be modified.
func (s *Store) Get(key uint64) ([]byte, bool, error) {
	if v, ok := s.mem.Get(key); ok {
		return v, true, nil
	}

	var compressed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(key))
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("weightcache: get %016x: %w", key, err)
	}

	v, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("weightcache: decode %016x: %w", key, err)
	}
	s.mem.Set(key, v, int64(len(v)))
	s.log.V(2).Info("loaded from disk", "key", key, "compressed", len(compressed), "size", len(v))
	return v, true, nil
}

// Put stores a copy of value under key.
func (s *Store) Put(key uint64, value []byte) error {
	compressed := s.enc.EncodeAll(value, nil)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dbKey(key), compressed)
	})
	if err != nil {
		return fmt.Errorf("weightcache: put %016x: %w", key, err)
	}
	s.mem.Set(key, append([]byte(nil), value...), int64(len(value)))
	s.mem.Wait()
	s.log.V(2).Info("stored", "key", key, "compressed", len(compressed), "size", len(value))
	return nil
}

// Delete removes key from both tiers.
func (s *Store) Delete(key uint64) error {
	s.mem.Del(key)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(dbKey(key))
	})
}

// Close releases the store.
func (s *Store) Close() error {
	s.mem.Close()
	s.dec.Close()
	if err := s.enc.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

// badgerLogger adapts logr to badger.Logger. Badger's info and debug chatter
// goes to higher verbosity levels.
type badgerLogger struct {
	log logr.Logger
}

var _ badger.Logger = badgerLogger{}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(nil, fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.V(2).Info(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.V(4).Info(fmt.Sprintf(format, args...))
}
