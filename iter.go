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

import "github.com/cockroachdb/errors"

// Iterator is a cursor over the full slots of a Map. It is invalidated by
// any mutation other than DeleteAt of the slot it is positioned at.
type Iterator struct {
	index uintptr
}

// End is the iterator returned by Find for a missing key and by Begin and
// Advance once the sentinel is reached.
var End = Iterator{index: ^uintptr(0)}

// Valid reports whether the iterator is positioned at a slot.
func (it Iterator) Valid() bool {
	return it != End
}

// Index returns the slot index the iterator is positioned at.
func (it Iterator) Index() int {
	return int(it.index)
}

// Begin returns an iterator positioned at the first full slot, or End if the
// map is empty.
func (m *Map[K, V]) Begin() Iterator {
	if m.ctrls.ptr == nil {
		// Zero-value Map.
		return End
	}
	return m.skipEmptyOrDeleted(0)
}

// Advance moves the iterator to the next full slot. The slots are visited in
// index order, which is unrelated to insertion order.
func (m *Map[K, V]) Advance(it *Iterator) {
	if !it.Valid() {
		return
	}
	*it = m.skipEmptyOrDeleted(it.index + 1)
}

// Key returns the key of the slot the iterator is positioned at.
func (m *Map[K, V]) Key(it Iterator) K {
	m.mustBeFull("Key", it)
	return m.slots.At(it.index).key
}

// Value returns a pointer to the value of the slot the iterator is positioned
// at.
func (m *Map[K, V]) Value(it Iterator) *V {
	m.mustBeFull("Value", it)
	return &m.slots.At(it.index).value
}

// mustBeFull panics unless it is positioned at a full slot of m.
func (m *Map[K, V]) mustBeFull(op string, it Iterator) {
	if !it.Valid() || it.index >= m.capacity || *m.ctrls.At(it.index) < 0 {
		panic(errors.AssertionFailedf("swiss: %s(%d) does not reference a full slot", errors.Safe(op), it.index))
	}
}

// skipEmptyOrDeleted returns an iterator positioned at the first full slot at
// or after i. Runs of empty and deleted slots are skipped a group at a time.
// The walk ends at the sentinel.
func (m *Map[K, V]) skipEmptyOrDeleted(i uintptr) Iterator {
	for {
		c := *m.ctrls.At(i)
		switch {
		case c >= 0:
			return Iterator{index: i}
		case c == ctrlSentinel:
			return End
		}
		i += uintptr(m.ops.countLeadingEmptyOrDeleted(m.groupAt(i)))
	}
}

// All calls yield sequentially for each key and value present in the map. If
// yield returns false, range stops the iteration. The map can be mutated
// during iteration, though there is no guarantee that the mutations will be
// visible to the iteration.
//
//	for k, v := range m.All {
//	  fmt.Printf("%v: %v\n", k, v)
//	}
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	// Snapshot the capacity, controls, and slots so that iteration remains
	// valid if the map is resized during iteration.
	capacity := m.capacity
	ctrls := m.ctrls
	slots := m.slots

	for i := uintptr(0); i < capacity; i++ {
		// Match full entries which have a high-bit of zero.
		if *ctrls.At(i) >= 0 {
			s := slots.At(i)
			if !yield(s.key, s.value) {
				return
			}
		}
	}
}
