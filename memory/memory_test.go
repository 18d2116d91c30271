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
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestAlign(t *testing.T) {
	testCases := []struct {
		size, alignment, expected uintptr
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{17, 1, 17},
		{17, 16, 32},
	}
	for _, c := range testCases {
		require.Equal(t, c.expected, Align(c.size, c.alignment), "Align(%d, %d)", c.size, c.alignment)
	}
}

func TestHeapAllocator(t *testing.T) {
	a := NewHeapAllocator(1024)

	b1, err := a.Allocate(100, 64)
	require.NoError(t, err)
	require.Len(t, b1, 100)
	require.Zero(t, uintptr(unsafe.Pointer(unsafe.SliceData(b1)))%64)

	b2, err := a.Allocate(200, 8)
	require.NoError(t, err)
	require.Equal(t, Statistics{AllocatedBytes: 300, TotalBytes: 1024, AllocationCount: 2}, a.Statistics())

	_, err = a.Allocate(800, 8)
	require.True(t, errors.Is(err, ErrOutOfMemory), "%v", err)

	_, err = a.Allocate(8, 3)
	require.Error(t, err)

	require.Error(t, a.Close())

	a.Deallocate(b1)
	// Releasing twice or releasing foreign memory is ignored.
	a.Deallocate(b1)
	a.Deallocate(make([]byte, 10))
	require.Equal(t, Statistics{AllocatedBytes: 200, TotalBytes: 1024, AllocationCount: 1}, a.Statistics())

	a.Deallocate(b2)
	require.NoError(t, a.Close())
}

func TestLinearAllocator(t *testing.T) {
	a := NewLinearAllocator(256)

	b1, err := a.Allocate(3, 1)
	require.NoError(t, err)
	require.Len(t, b1, 3)

	b2, err := a.Allocate(16, 16)
	require.NoError(t, err)
	require.Zero(t, uintptr(unsafe.Pointer(unsafe.SliceData(b2)))%16)
	require.Equal(t, 2, a.Statistics().AllocationCount)

	// Regions never overlap.
	b1[0], b1[1], b1[2] = 1, 2, 3
	for i := range b2 {
		b2[i] = 0xff
	}
	require.Equal(t, []byte{1, 2, 3}, b1)

	_, err = a.Allocate(1024, 8)
	require.True(t, errors.Is(err, ErrOutOfMemory), "%v", err)

	_, err = a.Allocate(0, 8)
	require.Error(t, err)

	a.Deallocate(b1)
	require.Equal(t, 2, a.Statistics().AllocationCount)

	a.Clear()
	require.Equal(t, Statistics{TotalBytes: 256}, a.Statistics())
	b3, err := a.Allocate(256, 1)
	require.NoError(t, err)
	require.Len(t, b3, 256)
}
