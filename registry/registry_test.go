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

package registry

import (
	"strconv"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeService struct {
	config   any
	shutdown int
	initErr  error
	downErr  error
}

func (s *fakeService) Init(config any) error {
	s.config = config
	return s.initErr
}

func (s *fakeService) Shutdown() error {
	s.shutdown++
	return s.downErr
}

type otherService struct{ fakeService }

func TestRegistry(t *testing.T) {
	r := New(zaptest.NewLogger(t))
	input := &fakeService{}
	render := &fakeService{}

	require.NoError(t, r.Add("input", input))
	require.NoError(t, r.Add("render", render))
	require.Equal(t, 2, r.Len())

	err := r.Add("input", &fakeService{})
	require.True(t, errors.Is(err, ErrExists), "%v", err)

	require.Same(t, input, r.Get("input"))
	require.Nil(t, r.Get("audio"))

	s, ok := Lookup[*fakeService](r, "render")
	require.True(t, ok)
	require.Same(t, render, s)
	_, ok = Lookup[*otherService](r, "render")
	require.False(t, ok)

	require.True(t, r.Remove("input"))
	require.False(t, r.Remove("input"))
	require.Nil(t, r.Get("input"))
	require.Equal(t, 0, input.shutdown)

	require.NoError(t, r.Shutdown())
	require.Equal(t, 1, render.shutdown)
	require.Equal(t, 0, r.Len())
}

func TestGetOrAdd(t *testing.T) {
	r := New(nil)
	created := 0
	create := func() *fakeService {
		created++
		return &fakeService{}
	}

	s1, err := GetOrAdd(r, "memory", "cfg", create)
	require.NoError(t, err)
	require.Equal(t, "cfg", s1.config)
	s2, err := GetOrAdd(r, "memory", "ignored", create)
	require.NoError(t, err)
	require.Same(t, s1, s2)
	require.Equal(t, 1, created)

	_, err = GetOrAdd(r, "memory", nil, func() *otherService { return &otherService{} })
	require.Error(t, err)

	_, err = GetOrAdd(r, "broken", nil, func() *fakeService {
		return &fakeService{initErr: errors.New("boom")}
	})
	require.ErrorContains(t, err, "boom")
	require.Nil(t, r.Get("broken"))
}

func TestShutdownCombinesErrors(t *testing.T) {
	r := New(nil)
	var services []*fakeService
	for _, name := range []string{"a", "b", "c"} {
		s := &fakeService{}
		if name != "b" {
			s.downErr = errors.Newf("%s failed", name)
		}
		services = append(services, s)
		require.NoError(t, r.Add(name, s))
	}

	err := r.Shutdown()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed")
	for _, s := range services {
		require.Equal(t, 1, s.shutdown)
	}
	require.Equal(t, 0, r.Len())
}

func TestManyServices(t *testing.T) {
	r := New(nil)
	names := make([]string, 500)
	for i := range names {
		names[i] = "service-" + strconv.Itoa(i)
		require.NoError(t, r.Add(names[i], &fakeService{}))
	}
	for i := 0; i < len(names); i += 2 {
		require.True(t, r.Remove(names[i]))
	}
	for i, name := range names {
		require.Equal(t, i%2 == 1, r.Get(name) != nil, name)
	}
}

func TestDigestCollision(t *testing.T) {
	r := New(nil)
	r.digest = func(string) uint64 { return 42 }

	input := &fakeService{}
	require.NoError(t, r.Add("input", input))
	err := r.Add("render", &fakeService{})
	require.True(t, errors.Is(err, ErrCollision), "%v", err)
	require.Nil(t, r.Get("render"))
	require.False(t, r.Remove("render"))
	require.Same(t, input, r.Get("input"))

	_, err = GetOrAdd(r, "render", nil, func() *fakeService { return &fakeService{} })
	require.True(t, errors.Is(err, ErrCollision), "%v", err)
	require.Equal(t, 1, r.Len())
}
