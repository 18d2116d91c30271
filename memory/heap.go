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

package memory

import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

// HeapAllocator allocates from the Go heap while enforcing a byte budget and
// tracking every live allocation.
type HeapAllocator struct {
	maxSize uintptr
	stats   Statistics
	live    map[*byte]uintptr
}

// NewHeapAllocator returns a HeapAllocator that refuses to hand out more than
// maxSize bytes at once.
func NewHeapAllocator(maxSize uintptr) *HeapAllocator {
	return &HeapAllocator{
		maxSize: maxSize,
		stats:   Statistics{TotalBytes: uint64(maxSize)},
		live:    make(map[*byte]uintptr),
	}
}

// Allocate implements Allocator.
func (a *HeapAllocator) Allocate(size, alignment uintptr) ([]byte, error) {
	if err := checkAlignment(alignment); err != nil {
		return nil, err
	}
	if size == 0 {
		return []byte{}, nil
	}
	if a.stats.AllocatedBytes+uint64(size) > uint64(a.maxSize) {
		return nil, errors.Wrapf(ErrOutOfMemory, "requested %d bytes with %d of %d in use",
			size, a.stats.AllocatedBytes, a.maxSize)
	}
	b, _ := alignedRegion(make([]byte, size+alignment-1), 0, size, alignment)
	a.live[unsafe.SliceData(b)] = size
	a.stats.add(size)
	return b, nil
}

// Deallocate implements Allocator. Releasing a region this allocator did not
// hand out is ignored.
func (a *HeapAllocator) Deallocate(b []byte) {
	p := unsafe.SliceData(b)
	size, ok := a.live[p]
	if !ok {
		return
	}
	delete(a.live, p)
	a.stats.remove(size)
}

// Statistics returns the current occupancy.
func (a *HeapAllocator) Statistics() Statistics {
	return a.stats
}

// Close reports allocations that were never released.
func (a *HeapAllocator) Close() error {
	if a.stats.AllocationCount != 0 {
		return errors.Newf("memory: %d allocations (%d bytes) still live at shutdown",
			a.stats.AllocationCount, a.stats.AllocatedBytes)
	}
	return nil
}
