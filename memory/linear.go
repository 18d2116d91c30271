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

import "github.com/cockroachdb/errors"

// LinearAllocator carves allocations out of a fixed arena by bumping an
// offset. Individual regions cannot be released; Clear releases them all.
type LinearAllocator struct {
	arena     []byte
	allocated uintptr
	count     int
}

// NewLinearAllocator returns a LinearAllocator with an arena of size bytes.
func NewLinearAllocator(size uintptr) *LinearAllocator {
	return &LinearAllocator{arena: make([]byte, size)}
}

// Allocate implements Allocator.
func (a *LinearAllocator) Allocate(size, alignment uintptr) ([]byte, error) {
	if err := checkAlignment(alignment); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, errors.New("memory: zero sized linear allocation")
	}
	total := uintptr(len(a.arena))
	start := Align(addr(a.arena)+a.allocated, alignment) - addr(a.arena)
	if start+size > total {
		return nil, errors.Wrapf(ErrOutOfMemory, "requested %d bytes with %d of %d in use",
			size, a.allocated, total)
	}
	b, end := alignedRegion(a.arena, a.allocated, size, alignment)
	a.allocated = end
	a.count++
	return b, nil
}

// Deallocate implements Allocator. It is a no-op.
func (a *LinearAllocator) Deallocate([]byte) {}

// Clear releases every allocation. Regions handed out earlier are reused by
// later allocations.
func (a *LinearAllocator) Clear() {
	a.allocated = 0
	a.count = 0
}

// Statistics returns the current occupancy.
func (a *LinearAllocator) Statistics() Statistics {
	return Statistics{
		AllocatedBytes:  uint64(a.allocated),
		TotalBytes:      uint64(len(a.arena)),
		AllocationCount: a.count,
	}
}
