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
	"math/bits"
	"strings"
)

const (
	groupSize = 16

	ctrlEmpty    ctrl = -128 // 0b10000000
	ctrlDeleted  ctrl = -2   // 0b11111110
	ctrlSentinel ctrl = -1   // 0b11111111
)

// Each slot in the hash table has a control byte which can have one of four
// states: empty, deleted, full and the sentinel. They have the following bit
// patterns:
//
//	   empty: 1 0 0 0 0 0 0 0
//	 deleted: 1 1 1 1 1 1 1 0
//	    full: 0 h h h h h h h  // h represents the H2 hash bits
//	sentinel: 1 1 1 1 1 1 1 1
//
// Interpreted as a signed byte, every special state is negative and every
// full state is non-negative. Empty and deleted are both less than the
// sentinel.
type ctrl int8

// group is a window of groupSize consecutive control bytes. Windows are not
// aligned to a groupSize boundary and they overlap.
type group [groupSize]ctrl

// emptyGroup is shared by every Map with zero capacity. It is never written.
// The leading sentinel stops iteration immediately and the empty bytes stop
// probing after the first group.
var emptyGroup = group{
	ctrlSentinel,
	ctrlEmpty, ctrlEmpty, ctrlEmpty,
	ctrlEmpty, ctrlEmpty, ctrlEmpty, ctrlEmpty,
	ctrlEmpty, ctrlEmpty, ctrlEmpty, ctrlEmpty,
	ctrlEmpty, ctrlEmpty, ctrlEmpty, ctrlEmpty,
}

var emptyCtrls = makeUnsafeSlice(emptyGroup[:])

// bitset represents a set of positions within a group. Bit i is set if
// position i is part of the set.
type bitset uint16

// first returns the position of the lowest set bit. Returns groupSize if the
// bitset is empty.
func (b bitset) first() uintptr {
	return uintptr(bits.TrailingZeros16(uint16(b)))
}

// removeFirst clears the lowest set bit.
func (b bitset) removeFirst() bitset {
	return b & (b - 1)
}

// leadingZeros is the number of unset positions at the end of the group.
func (b bitset) leadingZeros() uintptr {
	return uintptr(bits.LeadingZeros16(uint16(b)))
}

// trailingZeros is the number of unset positions at the start of the group.
func (b bitset) trailingZeros() uintptr {
	return uintptr(bits.TrailingZeros16(uint16(b)))
}

func (b bitset) String() string {
	var buf strings.Builder
	buf.Grow(groupSize)
	for i := 0; i < groupSize; i++ {
		if (b & (1 << i)) != 0 {
			buf.WriteString("1")
		} else {
			buf.WriteString("0")
		}
	}
	return buf.String()
}

// groupOps performs batched analysis of the groupSize control bytes of a
// group. Every implementation must produce identical bitsets for every valid
// group so that the table behaves the same regardless of which one is in
// use.
type groupOps interface {
	// match returns the positions whose control byte equals h.
	match(g *group, h ctrl) bitset
	// matchEmpty returns the positions holding ctrlEmpty.
	matchEmpty(g *group) bitset
	// matchEmptyOrDeleted returns the positions holding ctrlEmpty or
	// ctrlDeleted.
	matchEmptyOrDeleted(g *group) bitset
	// countLeadingEmptyOrDeleted returns the number of consecutive empty or
	// deleted control bytes starting at position 0.
	countLeadingEmptyOrDeleted(g *group) uint32
	// convertSpecialToEmptyAndFullToDeleted rewrites the group in place:
	// full bytes become ctrlDeleted and every other byte becomes ctrlEmpty.
	convertSpecialToEmptyAndFullToDeleted(g *group)

	String() string
}

// defaultGroupOps is the implementation used by new maps. It is replaced by
// a vectorized implementation during package initialization when the CPU
// supports one.
var defaultGroupOps groupOps = scalarGroup{}

// GroupImpl returns the name of the group implementation used by new maps.
func GroupImpl() string {
	return defaultGroupOps.String()
}

// scalarGroup is the portable implementation. It examines one control byte
// at a time.
type scalarGroup struct{}

func (scalarGroup) match(g *group, h ctrl) bitset {
	var b bitset
	for i, c := range g {
		if c == h {
			b |= 1 << i
		}
	}
	return b
}

func (scalarGroup) matchEmpty(g *group) bitset {
	var b bitset
	for i, c := range g {
		if c == ctrlEmpty {
			b |= 1 << i
		}
	}
	return b
}

func (scalarGroup) matchEmptyOrDeleted(g *group) bitset {
	var b bitset
	for i, c := range g {
		if c < ctrlSentinel {
			b |= 1 << i
		}
	}
	return b
}

func (scalarGroup) countLeadingEmptyOrDeleted(g *group) uint32 {
	var n uint32
	for _, c := range g {
		if c >= ctrlSentinel {
			break
		}
		n++
	}
	return n
}

func (scalarGroup) convertSpecialToEmptyAndFullToDeleted(g *group) {
	for i, c := range g {
		if c < 0 {
			g[i] = ctrlEmpty
		} else {
			g[i] = ctrlDeleted
		}
	}
}

func (scalarGroup) String() string {
	return "scalar"
}
