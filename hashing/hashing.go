// Copyright 2024 The Airengine Authors
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

// Package hashing computes seeded 64-bit digests of names and byte strings.
// Digests are stable across runs for a given seed, unlike the runtime hash
// used by default in swiss.Map, so they can key tables that are rebuilt from
// persisted names.
package hashing

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Bytes returns the digest of b.
func Bytes(b []byte, seed uint64) uint64 {
	if seed == 0 {
		return xxhash.Sum64(b)
	}
	d := xxhash.NewWithSeed(seed)
	_, _ = d.Write(b)
	return d.Sum64()
}

// String returns the digest of s. It equals Bytes([]byte(s), seed).
func String(s string, seed uint64) uint64 {
	if seed == 0 {
		return xxhash.Sum64String(s)
	}
	d := xxhash.NewWithSeed(seed)
	_, _ = d.WriteString(s)
	return d.Sum64()
}

// Uint64 returns the digest of the little-endian encoding of v.
func Uint64(v, seed uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return Bytes(buf[:], seed)
}

// StringKey adapts String to the signature of swiss.HashFunc[string].
func StringKey(key *string, seed uint64) uint64 {
	return String(*key, seed)
}

// Uint64Key adapts Uint64 to the signature of swiss.HashFunc[uint64].
func Uint64Key(key *uint64, seed uint64) uint64 {
	return Uint64(*key, seed)
}
