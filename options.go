// Copyright 2024 The Cockroach Authors
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

package swiss

import (
	"github.com/dolthub/maphash"
	"go.uber.org/zap"
)

// HashFunc computes a 64-bit digest of a key. The seed is per-map and must be
// mixed into the digest.
type HashFunc[K comparable] func(key *K, seed uint64) uint64

// defaultHash returns the hash function used by Go's builtin map[K]V, mixed
// with the map seed.
func defaultHash[K comparable]() HashFunc[K] {
	h := maphash.NewHasher[K]()
	return func(key *K, seed uint64) uint64 {
		return h.Hash(*key) ^ seed
	}
}

// Option configures a Map while it is being created.
type Option[K comparable, V any] interface {
	apply(m *Map[K, V])
}

type hashOption[K comparable, V any] struct {
	hash HashFunc[K]
}

func (op hashOption[K, V]) apply(m *Map[K, V]) {
	m.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a Map[K,V].
func WithHash[K comparable, V any](hash HashFunc[K]) Option[K, V] {
	return hashOption[K, V]{hash}
}

type seedOption[K comparable, V any] struct {
	seed uint64
}

func (op seedOption[K, V]) apply(m *Map[K, V]) {
	m.seed = op.seed
}

// WithSeed is an option to fix the seed passed to the hash function. The
// default seed is random. Iteration order still varies between tables since
// the probe start is salted with the address of the control bytes.
func WithSeed[K comparable, V any](seed uint64) Option[K, V] {
	return seedOption[K, V]{seed}
}

type allocatorOption[K comparable, V any] struct {
	allocator Allocator[K, V]
}

func (op allocatorOption[K, V]) apply(m *Map[K, V]) {
	m.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a Map[K,V].
func WithAllocator[K comparable, V any](allocator Allocator[K, V]) Option[K, V] {
	return allocatorOption[K, V]{allocator}
}

type loggerOption[K comparable, V any] struct {
	logger *zap.Logger
}

func (op loggerOption[K, V]) apply(m *Map[K, V]) {
	if op.logger != nil {
		m.logger = op.logger
	}
}

// WithLogger is an option to receive debug events about resizes and
// tombstone compaction.
func WithLogger[K comparable, V any](logger *zap.Logger) Option[K, V] {
	return loggerOption[K, V]{logger}
}

type groupOpsOption[K comparable, V any] struct {
	ops groupOps
}

func (op groupOpsOption[K, V]) apply(m *Map[K, V]) {
	m.ops = op.ops
}

func withGroupOps[K comparable, V any](ops groupOps) Option[K, V] {
	return groupOpsOption[K, V]{ops}
}
