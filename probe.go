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
	"fmt"
	"math/bits"
)

// probeSeq maintains the state for a probe sequence. The sequence is a
// triangular progression of the form
//
//	p(i) := groupSize * (i^2 + i)/2 + hash (mod mask+1)
//
// The use of groupSize ensures that each probe step does not overlap groups;
// the sequence effectively outputs the addresses of *groups* (although not
// necessarily aligned to any boundary). The group machinery allows us to
// check an entire group with minimal branching.
//
// Wrapping around at mask+1 is important, but not for the obvious reason. As
// described above, the first few entries of the control byte array are
// mirrored at the end of the array, which group will find and use for
// selecting candidates. However, when those candidates' slots are actually
// inspected, there are no corresponding slots for the cloned bytes, so we
// need to make sure we've treated those offsets as "wrapping around".
//
// This probe sequence visits every group exactly once if the number of groups
// is a power of two, since (i^2+i)/2 is a bijection in Z/(2^m). See
// https://en.wikipedia.org/wiki/Quadratic_probing
type probeSeq struct {
	mask   uintptr
	offset uintptr
	index  uintptr
}

func makeProbeSeq(hash, mask uintptr) probeSeq {
	return probeSeq{
		mask:   mask,
		offset: hash & mask,
		index:  0,
	}
}

func (s probeSeq) next() probeSeq {
	s.index += groupSize
	s.offset = (s.offset + s.index) & s.mask
	return s
}

func (s probeSeq) offsetAt(i uintptr) uintptr {
	return (s.offset + i) & s.mask
}

func (s probeSeq) String() string {
	return fmt.Sprintf("mask=%d offset=%d index=%d", s.mask, s.offset, s.index)
}

// findInfo is the result of findFirstNonFull: the index of the chosen slot
// and the distance travelled along the probe sequence to reach it.
type findInfo struct {
	offset      uintptr
	probeLength uintptr
}

// ctrlSeed derives per-table salt from the location of the control bytes.
// The low bits of the address carry no entropy because of alignment, so the
// address is shifted by the page size.
func ctrlSeed(ctrls unsafeSlice[ctrl]) uintptr {
	return uintptr(ctrls.ptr) >> 12
}

// Extracts the H1 portion of a hash: the 57 upper bits, salted with the
// table's control byte address. The salt randomizes iteration order between
// tables and between runs.
func h1(h uint64, ctrls unsafeSlice[ctrl]) uintptr {
	return uintptr(h>>7) ^ ctrlSeed(ctrls)
}

// Extracts the H2 portion of a hash: the 7 bits not used for h1.
//
// These are used as an occupied control byte.
func h2(h uint64) ctrl {
	return ctrl(h & 0x7f)
}

// mirrorIndex returns the index of the control byte at i and, when i falls
// within the first groupSize bytes, the index of its copy at the end of the
// control bytes. The copies let a group be loaded at any offset up to the
// sentinel without wrapping.
func mirrorIndex(i, capacity uintptr) (primary, mirror uintptr, mirrored bool) {
	if i < groupSize {
		return i, capacity + 1 + i, true
	}
	return i, 0, false
}

// ctrlLen returns the number of control bytes backing a table of the given
// capacity: one per slot, the sentinel, and the mirrored head.
func ctrlLen(capacity uintptr) uintptr {
	return capacity + 1 + groupSize
}

// capacityToGrowth returns the number of full slots a table of the given
// capacity may hold before it must grow. The load factor is 7/8. Tables
// smaller than a group may fill every slot: they never probe past their
// first group and the mirrored tail always supplies an empty byte.
func capacityToGrowth(capacity uintptr) uintptr {
	return capacity - capacity/8
}

// growthToLowerBound is the inverse of capacityToGrowth: the smallest
// capacity that can hold growth full slots.
func growthToLowerBound(growth uintptr) uintptr {
	return growth + (growth-1)/7
}

// normalizeCapacity rounds n up to the next value of the form 2^k-1, with a
// minimum of minCapacity.
func normalizeCapacity(n uintptr) uintptr {
	if n <= minCapacity {
		return minCapacity
	}
	return ^uintptr(0) >> bits.LeadingZeros(uint(n))
}

// initialCapacity maps a capacity hint to the capacity allocated by Init:
// the slot count of the smallest power of two table that has hint control
// bytes including the sentinel.
func initialCapacity(hint int) uintptr {
	if hint < minInitialHint {
		hint = minInitialHint
	}
	return (uintptr(1) << bits.Len(uint(hint-1))) - 1
}
