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

//go:build amd64 && !nosimd

package swiss

import (
	"math/bits"
	"os"
	"strings"
	"unsafe"

	"github.com/dolthub/swiss/simd"
	"golang.org/x/sys/cpu"
)

const (
	bitsetLSB = 0x0101010101010101
	bitsetMSB = 0x8080808080808080
)

func init() {
	// SWISS_GROUP=scalar forces the portable implementation, which is
	// useful when chasing a suspected miscompare in the vectorized path.
	if strings.EqualFold(os.Getenv("SWISS_GROUP"), "scalar") {
		return
	}
	if cpu.X86.HasSSE2 {
		defaultGroupOps = simdGroup{}
	}
}

// simdGroup compares all 16 control bytes of a group with a single SSE2
// compare and movemask.
type simdGroup struct{}

func metadata(g *group) *[groupSize]int8 {
	return (*[groupSize]int8)(unsafe.Pointer(g))
}

func (simdGroup) match(g *group, h ctrl) bitset {
	return bitset(simd.MatchMetadata(metadata(g), int8(h)))
}

func (simdGroup) matchEmpty(g *group) bitset {
	return bitset(simd.MatchMetadata(metadata(g), int8(ctrlEmpty)))
}

func (simdGroup) matchEmptyOrDeleted(g *group) bitset {
	m := metadata(g)
	return bitset(simd.MatchMetadata(m, int8(ctrlEmpty)) | simd.MatchMetadata(m, int8(ctrlDeleted)))
}

func (s simdGroup) countLeadingEmptyOrDeleted(g *group) uint32 {
	return uint32(bits.TrailingZeros16(^uint16(s.matchEmptyOrDeleted(g))))
}

func (simdGroup) convertSpecialToEmptyAndFullToDeleted(g *group) {
	// An empty slot is     1000 0000
	// A deleted slot is    1111 1110
	// The sentinel slot is 1111 1111
	// A full slot is       0??? ????
	//
	// We select the MSB, invert, add 1 if the MSB was set and zero out the low
	// bit. The addition never carries across bytes.
	//
	//  - if the MSB was set (i.e. slot was empty, deleted, or sentinel):
	//     v:             1000 0000
	//     ^v:            0111 1111
	//     ^v + (v >> 7): 1000 0000
	//     &^ bitsetLSB:  1000 0000  = empty slot.
	//
	// - if the MSB was not set (i.e. full slot):
	//     v:             0000 0000
	//     ^v:            1111 1111
	//     ^v + (v >> 7): 1111 1111
	//     &^ bitsetLSB:  1111 1110 = deleted slot.
	words := (*[2]uint64)(unsafe.Pointer(g))
	for i := range words {
		v := words[i] & bitsetMSB
		words[i] = (^v + (v >> 7)) &^ bitsetLSB
	}
}

func (simdGroup) String() string {
	return "sse2"
}
