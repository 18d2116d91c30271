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
	"reflect"
	"unsafe"

	"github.com/airengine/swiss/memory"
	"github.com/cockroachdb/errors"
)

// Block is the backing storage for one generation of a table: the control
// bytes and the slots.
type Block[K comparable, V any] struct {
	Ctrls []int8
	Slots []Slot[K, V]
	// raw is the single allocation Ctrls and Slots were carved from, if any.
	raw []byte
}

// Allocator specifies an interface for allocating and releasing the storage
// used by a Map. The default allocator utilizes Go's builtin make() and allows
// the GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that blocks be
// freed then Map.Close must be called in order to ensure Free is called for
// the last block.
type Allocator[K comparable, V any] interface {
	// Alloc returns a block with ctrlLen control bytes and slotLen zeroed
	// slots.
	Alloc(ctrlLen, slotLen int) (Block[K, V], error)

	// Free releases a block previously returned by Alloc. The Map never
	// touches a block after freeing it.
	Free(b Block[K, V])
}

type heapAllocator[K comparable, V any] struct{}

func (heapAllocator[K, V]) Alloc(ctrlLen, slotLen int) (Block[K, V], error) {
	return Block[K, V]{
		Ctrls: make([]int8, ctrlLen),
		Slots: make([]Slot[K, V], slotLen),
	}, nil
}

func (heapAllocator[K, V]) Free(Block[K, V]) {
}

// blockAllocator places the control bytes and the slots of a table in one
// contiguous region obtained from a memory.Allocator.
type blockAllocator[K comparable, V any] struct {
	mem memory.Allocator
}

// NewBlockAllocator returns an Allocator that draws one region per table
// generation from mem. The garbage collector does not scan memory handed out
// by a memory.Allocator, so the slot type must be free of pointers.
func NewBlockAllocator[K comparable, V any](mem memory.Allocator) (Allocator[K, V], error) {
	if t := reflect.TypeFor[Slot[K, V]](); hasPointers(t) {
		return nil, errors.Newf("swiss: %s holds pointers and cannot be placed in raw memory", errors.Safe(t.String()))
	}
	return &blockAllocator[K, V]{mem: mem}, nil
}

func (a *blockAllocator[K, V]) Alloc(ctrlLen, slotLen int) (Block[K, V], error) {
	var s Slot[K, V]
	slotsOffset := memory.Align(uintptr(ctrlLen), unsafe.Alignof(s))
	size := slotsOffset + unsafe.Sizeof(s)*uintptr(slotLen)

	raw, err := a.mem.Allocate(size, unsafe.Alignof(s))
	if err != nil {
		return Block[K, V]{}, errors.Wrapf(err, "swiss: allocating %d bytes", size)
	}
	clear(raw)

	base := unsafe.Pointer(unsafe.SliceData(raw))
	return Block[K, V]{
		Ctrls: unsafe.Slice((*int8)(base), ctrlLen),
		Slots: unsafe.Slice((*Slot[K, V])(unsafe.Add(base, slotsOffset)), slotLen),
		raw:   raw,
	}, nil
}

func (a *blockAllocator[K, V]) Free(b Block[K, V]) {
	a.mem.Deallocate(b.raw)
}

// hasPointers reports whether values of type t contain pointers the garbage
// collector would need to see.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
