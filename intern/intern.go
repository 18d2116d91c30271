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

// Package intern stores each distinct string once in a fixed-size buffer.
package intern

import (
	"bytes"
	"math"
	"strings"
	"unsafe"

	"github.com/airengine/swiss"
	"github.com/airengine/swiss/hashing"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// NoIndex is the offset reported for strings that are not interned.
const NoIndex = math.MaxUint32

const seed = 0xF2EA4FFAD

var (
	// ErrFull is returned when the buffer has no room for another string.
	ErrFull = errors.New("intern: buffer full")
	// ErrCollision is returned when two distinct strings share a digest.
	ErrCollision = errors.New("intern: digest collision")
)

// Table interns strings. Interned strings are NUL terminated in the buffer,
// which is never rewritten. A Table is not safe for concurrent use.
type Table struct {
	logger  *zap.Logger
	data    []byte
	offsets swiss.Map[uint64, uint32]
}

// New returns a Table whose buffer holds size bytes.
func New(size uint32, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Table{
		logger: logger.Named("intern"),
		data:   make([]byte, 0, size),
	}
	t.offsets.Init(8, swiss.WithLogger[uint64, uint32](t.logger))
	t.offsets.SetDefault(NoIndex)
	return t
}

// Intern returns the interned copy of s, adding it if needed.
func (t *Table) Intern(s string) (string, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return "", errors.Newf("intern: %q contains a NUL byte", s)
	}
	h := hashing.String(s, seed)
	if offset := *t.offsets.Get(h); offset != NoIndex {
		interned, _ := t.String(offset)
		if interned != s {
			return "", errors.Wrapf(ErrCollision, "%q and %q", s, interned)
		}
		return interned, nil
	}

	if len(t.data)+len(s)+1 > cap(t.data) {
		t.logger.Warn("buffer full",
			zap.Int("size", cap(t.data)), zap.Int("used", len(t.data)), zap.Int("requested", len(s)+1))
		return "", errors.Wrapf(ErrFull, "interning %d bytes with %d of %d in use", len(s)+1, len(t.data), cap(t.data))
	}
	offset := uint32(len(t.data))
	t.data = append(t.data, s...)
	t.data = append(t.data, 0)
	t.offsets.Put(h, offset)
	return t.at(offset, len(s)), nil
}

// Offset returns the buffer offset of s, or NoIndex if it is not interned.
func (t *Table) Offset(s string) uint32 {
	return *t.offsets.Get(hashing.String(s, seed))
}

// String returns the interned string at offset.
func (t *Table) String(offset uint32) (string, bool) {
	if offset >= uint32(len(t.data)) {
		return "", false
	}
	n := bytes.IndexByte(t.data[offset:], 0)
	return t.at(offset, n), true
}

func (t *Table) at(offset uint32, n int) string {
	if n == 0 {
		return ""
	}
	return unsafe.String(&t.data[offset], n)
}

// Len returns the number of interned strings.
func (t *Table) Len() int {
	return t.offsets.Len()
}

// Size returns the number of buffer bytes in use.
func (t *Table) Size() int {
	return len(t.data)
}

// Clear forgets every interned string. Strings returned earlier keep their
// value: the table moves to a new buffer of the same size.
func (t *Table) Clear() {
	t.data = make([]byte, 0, cap(t.data))
	t.offsets.Clear()
}

// All calls yield for each interned string in unspecified order.
func (t *Table) All(yield func(offset uint32, s string) bool) {
	for it := t.offsets.Begin(); it.Valid(); t.offsets.Advance(&it) {
		offset := *t.offsets.Value(it)
		s, _ := t.String(offset)
		if !yield(offset, s) {
			return
		}
	}
}
