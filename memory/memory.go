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

// Package memory provides allocators that hand out raw byte regions with a
// requested alignment. They back tables whose slots hold no pointers, where
// one region per table generation keeps control bytes and slots adjacent.
//
// None of the allocators are safe for concurrent use.
package memory

import (
	"math/bits"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// ErrOutOfMemory is returned when an allocator cannot satisfy a request
// within its size limit.
var ErrOutOfMemory = errors.New("memory: out of memory")

// Allocator hands out byte regions.
type Allocator interface {
	// Allocate returns a region of size bytes whose first byte is aligned
	// to alignment, which must be a power of two.
	Allocate(size, alignment uintptr) ([]byte, error)
	// Deallocate releases a region returned by Allocate.
	Deallocate(b []byte)
}

// Statistics describes the occupancy of an allocator.
type Statistics struct {
	// AllocatedBytes is the number of bytes currently handed out.
	AllocatedBytes uint64
	// TotalBytes is the size limit of the allocator.
	TotalBytes uint64
	// AllocationCount is the number of live allocations.
	AllocationCount int
}

func (s *Statistics) add(n uintptr) {
	if n != 0 {
		s.AllocatedBytes += uint64(n)
		s.AllocationCount++
	}
}

func (s *Statistics) remove(n uintptr) {
	if n != 0 {
		s.AllocatedBytes -= uint64(n)
		s.AllocationCount--
	}
}

// Align rounds size up to a multiple of alignment, which must be a power of
// two.
func Align(size, alignment uintptr) uintptr {
	mask := alignment - 1
	return (size + mask) &^ mask
}

func checkAlignment(alignment uintptr) error {
	if alignment == 0 || bits.OnesCount64(uint64(alignment)) != 1 {
		return errors.Newf("memory: alignment %d is not a power of two", alignment)
	}
	return nil
}

// alignedRegion returns size bytes of buf starting at the first address
// aligned to alignment. buf must have room for the padding.
func alignedRegion(buf []byte, offset, size, alignment uintptr) (region []byte, end uintptr) {
	base := addr(buf)
	start := Align(base+offset, alignment) - base
	end = start + size
	return buf[start:end:end], end
}

func addr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
