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

// Package swiss is a Go implementation of Swiss Tables as described in
// https://abseil.io/about/design/swisstables. See also:
// https://faultlore.com/blah/hashbrown-tldr/.
//
// Google's C++ implementation:
//
//	https://github.com/abseil/abseil-cpp/blob/master/absl/container/internal/raw_hash_set.h
//
// # Swiss Tables
//
// Swiss tables are hash tables that map keys to values using open-addressing.
// Probing is linear within a group of 16 control bytes and quadratic across
// groups. Each slot has one control byte in a separate metadata array: 7 bits
// of the byte are taken from hash(key) and the remaining bit indicates whether
// the slot is empty, deleted, full or the sentinel. A lookup compares all 16
// control bytes of a group against the 7 hash bits at once and only compares
// keys for the candidates that survive. On amd64 the comparison is a single
// SSE2 instruction; elsewhere a portable byte loop produces the same result.
//
// A table has capacity slots where capacity+1 is a power of 2 and
// capacity+1+groupSize control bytes. Control byte [capacity] is always the
// sentinel, which terminates iteration. The bytes after the sentinel mirror
// the first groupSize control bytes so that a group can be loaded at any
// offset up to the sentinel without wrapping.
//
// Deletion is performed using tombstones (ctrlDeleted) with an optimization
// to mark a slot as empty if we can prove that doing so would not violate the
// probing behavior that a group of full slots causes probing to continue. We
// prove a slot was never part of a full group by looking at the groupSize
// neighbors to the left and right of the deleted slot.
//
// When the table runs out of growth budget and at least half of that budget
// is held by tombstones, the tombstones are dropped in place rather than
// growing the table.
//
// A Map is NOT goroutine-safe.
package swiss

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unsafe"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	// minCapacity is the smallest capacity of an allocated table.
	minCapacity = 3
	// minInitialHint is the smallest capacity hint honored by Init.
	minInitialHint = 4
)

// Slot holds a key and value.
type Slot[K comparable, V any] struct {
	key   K
	value V
}

// Map is an unordered map from keys to values with Put, Get, Delete, and
// iteration operations. It is inspired by Google's Swiss Tables design as
// implemented in Abseil's flat_hash_map. By default, a Map[K,V] uses the same
// hash function as Go's builtin map[K]V, though a different hash function can
// be specified using the WithHash option.
type Map[K comparable, V any] struct {
	hash HashFunc[K]
	seed uint64
	// The allocator to use for the backing block.
	allocator Allocator[K, V]
	logger    *zap.Logger
	ops       groupOps
	// block is the allocation currently backing ctrls and slots. It is empty
	// while capacity is 0.
	block Block[K, V]
	// ctrls is ctrlLen(capacity) in length. ctrls[capacity] is always
	// ctrlSentinel. When the map has no capacity ctrls points to emptyCtrls
	// which is never modified.
	ctrls unsafeSlice[ctrl]
	// slots is capacity in length.
	slots unsafeSlice[Slot[K, V]]
	// The total number slots (always 2^N-1). The capacity is used as a mask
	// to quickly compute i%N using a bitwise & operation.
	capacity uintptr
	// The number of filled slots.
	used int
	// The number of slots we can still fill without needing to rehash.
	//
	// Tombstones are not included in the growth budget: we'd like to rehash
	// when the table is filled with tombstones as otherwise probe sequences
	// might get unacceptably long without triggering a rehash.
	growthLeft int
	// defaultValue is returned by Get for missing keys.
	defaultValue V

	resizes     int
	dropDeletes int
}

// New constructs a new Map with the specified initial capacity hint. If
// hint is 0 the map starts out with zero capacity and allocates on
// the first insert.
func New[K comparable, V any](hint int, options ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{}
	m.Init(hint, options...)
	return m
}

// Init initializes a Map with the specified initial capacity hint. Init can
// be invoked on a zero-value Map, which is otherwise unusable for mutation.
// A positive hint is raised to at least 4 and the initial capacity is one
// less than the next power of two at or above the hint.
func (m *Map[K, V]) Init(hint int, options ...Option[K, V]) {
	*m = Map[K, V]{
		seed:      rand.Uint64(),
		allocator: heapAllocator[K, V]{},
		logger:    zap.NewNop(),
		ops:       defaultGroupOps,
		ctrls:     emptyCtrls,
	}

	for _, op := range options {
		op.apply(m)
	}
	if m.hash == nil {
		m.hash = defaultHash[K]()
	}

	if hint > 0 {
		m.resize(initialCapacity(hint))
	}
	m.checkInvariants()
}

// Close releases the backing storage to the configured allocator. It is
// unnecessary to close a map using the default allocator. It is invalid to
// mutate a Map after it has been closed, though Close itself is idempotent
// and lookups on a closed Map find nothing.
func (m *Map[K, V]) Close() {
	if m.capacity > 0 {
		m.allocator.Free(m.block)
	}
	m.block = Block[K, V]{}
	m.ctrls = emptyCtrls
	m.slots = unsafeSlice[Slot[K, V]]{}
	m.capacity = 0
	m.used = 0
	m.growthLeft = 0
	m.allocator = nil
}

// Put inserts an entry into the map, overwriting an existing value if an
// entry with the same key already exists.
func (m *Map[K, V]) Put(key K, value V) {
	m.mustBeInitialized("Put")

	i, inserted := m.findOrPrepareInsert(key)
	slot := m.slots.At(i)
	if inserted {
		slot.key = key
	}
	slot.value = value
	m.checkInvariants()
}

// Find returns an iterator positioned at key, or End if the key is not
// present.
func (m *Map[K, V]) Find(key K) Iterator {
	if i, ok := m.find(key); ok {
		return Iterator{index: i}
	}
	return End
}

// Get returns a pointer to the value stored for key. If the key is not
// present Get returns a pointer to the map's default value (see SetDefault).
// The pointer is invalidated by the next mutation of the map.
func (m *Map[K, V]) Get(key K) *V {
	if i, ok := m.find(key); ok {
		return &m.slots.At(i).value
	}
	return &m.defaultValue
}

// Lookup retrieves the value from the map for the specified key, returning
// ok=false if the key is not present.
func (m *Map[K, V]) Lookup(key K) (value V, ok bool) {
	if i, ok := m.find(key); ok {
		return m.slots.At(i).value, true
	}
	return value, false
}

// Has reports whether key is present.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.find(key)
	return ok
}

// Delete deletes the entry corresponding to the specified key from the map,
// returning the number of entries removed (0 or 1).
func (m *Map[K, V]) Delete(key K) int {
	m.mustBeInitialized("Delete")

	i, ok := m.find(key)
	if !ok {
		return 0
	}
	m.erase(i)
	m.checkInvariants()
	return 1
}

// DeleteAt deletes the entry the iterator is positioned at, returning the
// number of entries removed (0 for End).
func (m *Map[K, V]) DeleteAt(it Iterator) int {
	m.mustBeInitialized("DeleteAt")

	if !it.Valid() {
		return 0
	}
	m.mustBeFull("DeleteAt", it)
	m.erase(it.index)
	m.checkInvariants()
	return 1
}

// SetDefault sets the value Get returns for missing keys.
func (m *Map[K, V]) SetDefault(value V) {
	m.defaultValue = value
}

// Clear removes all entries from the map. The backing storage is retained.
func (m *Map[K, V]) Clear() {
	m.mustBeInitialized("Clear")

	if m.capacity > 0 {
		clear(m.slots.Slice(0, m.capacity))
		m.resetCtrls()
	}
	m.used = 0
	m.resetGrowthLeft()
	m.checkInvariants()
}

// Reserve makes room for n entries without further rehashing.
func (m *Map[K, V]) Reserve(n int) {
	m.mustBeInitialized("Reserve")

	if n > m.used+m.growthLeft {
		m.resize(normalizeCapacity(growthToLowerBound(uintptr(n))))
	}
	m.checkInvariants()
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.used
}

// Cap returns the number of slots in the map. Cap()+1 is zero or a power of
// two.
func (m *Map[K, V]) Cap() int {
	return int(m.capacity)
}

// Stats describes the occupancy of a Map.
type Stats struct {
	Len        int
	Capacity   int
	GrowthLeft int
	Tombstones int
	// Resizes counts the allocations of a new table.
	Resizes int
	// DropDeletes counts the in-place rehashes that reclaimed tombstones.
	DropDeletes int
}

// Stats returns the current occupancy of the map. Counting tombstones scans
// the control bytes.
func (m *Map[K, V]) Stats() Stats {
	s := Stats{
		Len:         m.used,
		Capacity:    int(m.capacity),
		GrowthLeft:  m.growthLeft,
		Resizes:     m.resizes,
		DropDeletes: m.dropDeletes,
	}
	for i := uintptr(0); i < m.capacity; i++ {
		if *m.ctrls.At(i) == ctrlDeleted {
			s.Tombstones++
		}
	}
	return s
}

func (m *Map[K, V]) mustBeInitialized(op string) {
	if m.allocator == nil {
		panic(errors.AssertionFailedf("swiss: %s called on an uninitialized or closed Map", errors.Safe(op)))
	}
}

func (m *Map[K, V]) groupAt(i uintptr) *group {
	return (*group)(unsafe.Pointer(m.ctrls.At(i)))
}

func (m *Map[K, V]) probe(h uint64) probeSeq {
	return makeProbeSeq(h1(h, m.ctrls), m.capacity)
}

// find returns the index of the slot holding key.
//
// To find the location of a key in the table, we compute hash(key). From
// h1(hash(key)) and the capacity, we construct a probeSeq that visits every
// group of slots in some interesting order.
//
// We walk through these indices. At each index, we select the entire group
// starting with that index and extract potential candidates: occupied slots
// with a control byte equal to h2(hash(key)). The key at each candidate slot
// is compared with key; if they are equal we are done. If the group has an
// empty slot we stop: the key would have been placed no further than that
// slot. Tombstones (ctrlDeleted) effectively behave like full slots that
// never match the value we're looking for.
//
// The h2 bits ensure when we compare a key we are likely to have actually
// found the object. The expected number of false h2 matches for k "wrong"
// objects along the probe sequence is k/128.
func (m *Map[K, V]) find(key K) (uintptr, bool) {
	if m.hash == nil {
		// Zero-value Map.
		return 0, false
	}
	h := m.hash(noescape(&key), m.seed)
	return m.findWithHash(key, h)
}

func (m *Map[K, V]) findWithHash(key K, h uint64) (uintptr, bool) {
	seq := m.probe(h)
	for ; ; seq = seq.next() {
		g := m.groupAt(seq.offset)
		match := m.ops.match(g, h2(h))
		for match != 0 {
			i := seq.offsetAt(match.first())
			if key == m.slots.At(i).key {
				return i, true
			}
			match = match.removeFirst()
		}

		if m.ops.matchEmpty(g) != 0 {
			return 0, false
		}
	}
}

// findOrPrepareInsert returns the index of the slot holding key. If the key
// is not present a slot is claimed for it and inserted is true; the caller
// must store the key in that slot.
func (m *Map[K, V]) findOrPrepareInsert(key K) (i uintptr, inserted bool) {
	h := m.hash(noescape(&key), m.seed)
	if i, ok := m.findWithHash(key, h); ok {
		return i, false
	}
	return m.prepareInsert(h), true
}

// findFirstNonFull returns the first empty or deleted slot along the probe
// sequence for h. The table must contain at least one empty slot.
func (m *Map[K, V]) findFirstNonFull(h uint64) findInfo {
	seq := m.probe(h)
	for ; ; seq = seq.next() {
		if match := m.ops.matchEmptyOrDeleted(m.groupAt(seq.offset)); match != 0 {
			return findInfo{offset: seq.offsetAt(match.first()), probeLength: seq.index}
		}
	}
}

// prepareInsert claims a slot for a key with hash h that is known not to be
// in the table, growing or rehashing the table if it has no growth left.
func (m *Map[K, V]) prepareInsert(h uint64) uintptr {
	target := m.findFirstNonFull(h)
	// Reusing a tombstone does not consume growth, so only an insert into an
	// empty slot can force a rehash.
	if m.growthLeft == 0 && *m.ctrls.At(target.offset) != ctrlDeleted {
		m.rehashAndGrowIfNecessary()
		target = m.findFirstNonFull(h)
	}
	m.used++
	if *m.ctrls.At(target.offset) == ctrlEmpty {
		m.growthLeft--
	}
	m.setCtrl(target.offset, h2(h))
	return target.offset
}

// erase removes the entry at index i.
func (m *Map[K, V]) erase(i uintptr) {
	m.used--
	*m.slots.At(i) = Slot[K, V]{}

	// Given an offset to delete we simply create a tombstone and destroy its
	// contents and mark the ctrl as deleted. If we can prove that the slot
	// would not appear in a probe sequence we can mark the slot as empty
	// instead. We can prove this by checking to see if the slot is part of
	// any group that could have been full (assuming we never create an empty
	// slot in a group with no empties which this heuristic guarantees we
	// never do). If the slot is always parts of groups that could never have
	// been full then find would stop at this slot since we do not probe
	// beyond groups with empties.
	if m.wasNeverFull(i) {
		m.setCtrl(i, ctrlEmpty)
		m.growthLeft++
	} else {
		m.setCtrl(i, ctrlDeleted)
	}
}

// wasNeverFull returns true if index i was never part a full group. This
// check allows an optimization during deletion whereby a deleted slot can be
// converted to empty rather than a tombstone.
func (m *Map[K, V]) wasNeverFull(i uintptr) bool {
	if m.capacity < groupSize {
		// The table fits entirely in a single group so we will never probe
		// beyond this group.
		return true
	}

	indexBefore := (i - groupSize) & m.capacity
	emptyAfter := m.ops.matchEmpty(m.groupAt(i))
	emptyBefore := m.ops.matchEmpty(m.groupAt(indexBefore))

	// We count how many consecutive non empties we have to the right and to
	// the left of i. If the sum is >= groupSize then there is at least one
	// probe window that might have seen a full group.
	//
	//   xx xx xx xx xx xx xx xx xx xx xx xx xx xx xx xx  xx xx ...
	//   ^                                                ^
	//   indexBefore                                      i
	//
	// The leading zeros of emptyBefore are the non-empty bytes immediately to
	// the left of i and the trailing zeros of emptyAfter are the non-empty
	// bytes starting at i. A window that wraps past the end of the table
	// includes the sentinel, which is never empty, so the count can only err
	// towards leaving a tombstone.
	return emptyBefore != 0 && emptyAfter != 0 &&
		emptyAfter.trailingZeros()+emptyBefore.leadingZeros() < groupSize
}

// setCtrl sets the control byte at index i, taking care to mirror the byte to
// the end of the control bytes if i<groupSize.
func (m *Map[K, V]) setCtrl(i uintptr, v ctrl) {
	primary, mirror, mirrored := mirrorIndex(i, m.capacity)
	*m.ctrls.At(primary) = v
	if mirrored {
		*m.ctrls.At(mirror) = v
	}
}

// resetCtrls marks every slot empty and restores the sentinel.
func (m *Map[K, V]) resetCtrls() {
	ctrls := m.ctrls.Slice(0, ctrlLen(m.capacity))
	for i := range ctrls {
		ctrls[i] = ctrlEmpty
	}
	ctrls[m.capacity] = ctrlSentinel
}

func (m *Map[K, V]) resetGrowthLeft() {
	m.growthLeft = int(capacityToGrowth(m.capacity)) - m.used
}

// rehashAndGrowIfNecessary is called when an insert needs an empty slot but
// the growth budget is exhausted.
func (m *Map[K, V]) rehashAndGrowIfNecessary() {
	switch {
	case m.capacity == 0:
		m.resize(normalizeCapacity(1))
	case uintptr(m.used) <= capacityToGrowth(m.capacity)/2:
		// At least half of the budget is held by tombstones. Squash them
		// without growing.
		m.dropDeletesWithoutResize()
	default:
		m.resize(2*m.capacity + 1)
	}
}

// resize resizes the capacity of the table by allocating a bigger block and
// inserting each element of the table into the new block (we know that no
// insertion here will Put an already-present value), and discards the old
// block once every element has been copied.
func (m *Map[K, V]) resize(newCapacity uintptr) {
	oldBlock, oldCtrls, oldSlots, oldCapacity := m.block, m.ctrls, m.slots, m.capacity

	block, err := m.allocator.Alloc(int(ctrlLen(newCapacity)), int(newCapacity))
	if err != nil {
		panic(errors.Wrapf(err, "swiss: unable to allocate table with capacity %d", newCapacity))
	}
	m.block = block
	m.ctrls = makeUnsafeSlice(unsafeConvertSlice[ctrl](block.Ctrls))
	m.slots = makeUnsafeSlice(block.Slots)
	m.capacity = newCapacity
	m.resetCtrls()
	m.resetGrowthLeft()
	m.resizes++

	var totalProbeLength uintptr
	for i := uintptr(0); i < oldCapacity; i++ {
		if *oldCtrls.At(i) < 0 {
			continue
		}
		slot := oldSlots.At(i)
		h := m.hash(noescape(&slot.key), m.seed)
		target := m.findFirstNonFull(h)
		totalProbeLength += target.probeLength
		m.setCtrl(target.offset, h2(h))
		*m.slots.At(target.offset) = *slot
	}

	if oldCapacity > 0 {
		m.allocator.Free(oldBlock)
	}

	if ce := m.logger.Check(zap.DebugLevel, "swiss: resize"); ce != nil {
		ce.Write(
			zap.Uint64("old-capacity", uint64(oldCapacity)),
			zap.Uint64("new-capacity", uint64(newCapacity)),
			zap.Int("used", m.used),
			zap.Int("growth-left", m.growthLeft),
			zap.Uint64("total-probe-length", uint64(totalProbeLength)),
		)
	}
}

// dropDeletesWithoutResize rehashes the table in place, turning every
// tombstone back into an empty slot.
func (m *Map[K, V]) dropDeletesWithoutResize() {
	// We want to drop all of the deletes in place. We first walk over the
	// control bytes and mark every DELETED slot as EMPTY and every FULL slot
	// as DELETED. Marking the DELETED slots as EMPTY has effectively dropped
	// the tombstones, but we fouled up the probe invariant. Marking the FULL
	// slots as DELETED gives us a marker to locate the previously FULL slots.
	for i := uintptr(0); i < m.capacity+1; i += groupSize {
		m.ops.convertSpecialToEmptyAndFullToDeleted(m.groupAt(i))
	}

	// Fixup the mirrored control bytes and the sentinel.
	for i := uintptr(0); i < groupSize && i < m.capacity; i++ {
		_, mirror, _ := mirrorIndex(i, m.capacity)
		*m.ctrls.At(mirror) = *m.ctrls.At(i)
	}
	*m.ctrls.At(m.capacity) = ctrlSentinel

	// Now we walk over all of the DELETED slots (a.k.a. the previously FULL
	// slots). For each slot we find the first probe group we can place the
	// element in which reestablishes the probe invariant. Note that as this
	// loop proceeds we have the invariant that there are no DELETED slots in
	// the range [0, i). We may move the element at i to the range [0, i) if
	// that is where the first group with an empty slot in its probe chain
	// resides, but we never set a slot in [0, i) to DELETED.
	var totalProbeLength uintptr
	for i := uintptr(0); i < m.capacity; i++ {
		if *m.ctrls.At(i) != ctrlDeleted {
			continue
		}

		s := m.slots.At(i)
		h := m.hash(noescape(&s.key), m.seed)
		desired := m.probe(h)
		target := m.findFirstNonFull(h)
		totalProbeLength += target.probeLength

		probeIndex := func(pos uintptr) uintptr {
			return ((pos - desired.offset) & m.capacity) / groupSize
		}

		if i == target.offset || probeIndex(i) == probeIndex(target.offset) {
			// If the target index falls within the same probe group as i
			// then we don't need to move the element as it already falls in
			// the best probe position.
			m.setCtrl(i, h2(h))
			continue
		}

		switch *m.ctrls.At(target.offset) {
		case ctrlEmpty:
			// The target slot is empty. Transfer the element to the empty
			// slot and mark the slot at index i as empty.
			m.setCtrl(target.offset, h2(h))
			*m.slots.At(target.offset) = *s
			*s = Slot[K, V]{}
			m.setCtrl(i, ctrlEmpty)

		case ctrlDeleted:
			// The slot at target has an element (i.e. it was FULL). We're
			// going to swap our current element with that element and then
			// repeat processing of index i which now holds the element which
			// was at target.
			m.setCtrl(target.offset, h2(h))
			t := m.slots.At(target.offset)
			*s, *t = *t, *s
			i--

		default:
			panic(errors.AssertionFailedf("swiss: ctrl at position %d (%02x) should be empty or deleted",
				target.offset, uint8(*m.ctrls.At(target.offset))))
		}
	}

	m.resetGrowthLeft()
	m.dropDeletes++

	if ce := m.logger.Check(zap.DebugLevel, "swiss: drop deletes"); ce != nil {
		ce.Write(
			zap.Uint64("capacity", uint64(m.capacity)),
			zap.Int("used", m.used),
			zap.Int("growth-left", m.growthLeft),
			zap.Uint64("total-probe-length", uint64(totalProbeLength)),
		)
	}
}

func (m *Map[K, V]) checkInvariants() {
	if invariants {
		if m.capacity > 0 {
			if (m.capacity+1)&m.capacity != 0 || m.capacity < minCapacity {
				panic(errors.AssertionFailedf("invariant failed: capacity %d is not of the form 2^n-1", m.capacity))
			}
			// Verify the mirrored control bytes are good.
			for i := uintptr(0); i < groupSize && i < m.capacity; i++ {
				_, j, _ := mirrorIndex(i, m.capacity)
				ci := *m.ctrls.At(i)
				cj := *m.ctrls.At(j)
				if ci != cj {
					panic(errors.AssertionFailedf("invariant failed: ctrl(%d)=%02x != ctrl(%d)=%02x\n%s",
						i, uint8(ci), j, uint8(cj), errors.Safe(m.debugString())))
				}
			}
			// Verify the sentinel is good.
			if c := *m.ctrls.At(m.capacity); c != ctrlSentinel {
				panic(errors.AssertionFailedf("invariant failed: ctrl(%d): expected sentinel, but found %02x\n%s",
					m.capacity, uint8(c), errors.Safe(m.debugString())))
			}
		}

		// For every non-empty slot, verify we can retrieve the key using
		// find. Count the number of used and deleted slots.
		var used int
		var deleted int
		for i := uintptr(0); i < m.capacity; i++ {
			c := *m.ctrls.At(i)
			switch {
			case c == ctrlDeleted:
				deleted++
			case c == ctrlEmpty:
			case c == ctrlSentinel:
				panic(errors.AssertionFailedf("invariant failed: ctrl(%d): unexpected sentinel", i))
			default:
				s := m.slots.At(i)
				h := m.hash(noescape(&s.key), m.seed)
				if c != h2(h) {
					panic(errors.AssertionFailedf("invariant failed: ctrl(%d)=%02x does not match h2=%02x",
						i, uint8(c), uint8(h2(h))))
				}
				if j, ok := m.find(s.key); !ok || j != i {
					panic(errors.AssertionFailedf("invariant failed: slot(%d): %v not found [h2=%02x h1=%07x]\n%s",
						i, s.key, uint8(h2(h)), h1(h, m.ctrls), errors.Safe(m.debugString())))
				}
				used++
			}
		}

		if used != m.used {
			panic(errors.AssertionFailedf("invariant failed: found %d used slots, but used count is %d\n%s",
				used, m.used, errors.Safe(m.debugString())))
		}

		growthLeft := int(capacityToGrowth(m.capacity)) - m.used - deleted
		if growthLeft != m.growthLeft {
			panic(errors.AssertionFailedf("invariant failed: found %d growthLeft, but expected %d\n%s",
				m.growthLeft, growthLeft, errors.Safe(m.debugString())))
		}
	}
}

func (m *Map[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d  growth-left=%d  group=%s\n",
		m.capacity, m.used, m.growthLeft, m.ops)
	if m.capacity == 0 {
		return buf.String()
	}
	for i := uintptr(0); i < ctrlLen(m.capacity); i++ {
		switch c := *m.ctrls.At(i); c {
		case ctrlEmpty:
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
		case ctrlDeleted:
			fmt.Fprintf(&buf, "  %4d: deleted\n", i)
		case ctrlSentinel:
			fmt.Fprintf(&buf, "  %4d: sentinel\n", i)
		default:
			if i < m.capacity {
				s := m.slots.At(i)
				h := m.hash(noescape(&s.key), m.seed)
				fmt.Fprintf(&buf, "  %4d: %v [ctrl=%02x h2=%02x]\n", i, s.key, uint8(c), uint8(h2(h)))
			} else {
				fmt.Fprintf(&buf, "  %4d: [ctrl=%02x]\n", i, uint8(c))
			}
		}
	}
	return buf.String()
}
