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

// Package resource tracks named, reference counted resources.
package resource

import (
	"io"

	"github.com/airengine/swiss"
	"github.com/airengine/swiss/hashing"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ErrNotFound is returned when releasing a resource that is not loaded.
var ErrNotFound = errors.New("resource: not found")

// ErrCollision is returned when a name shares its digest with the name of a
// loaded resource.
var ErrCollision = errors.New("resource: name digest collision")

// Resource is a loaded resource.
type Resource struct {
	Name  string
	Value any

	references uint64
}

// References returns the number of outstanding references.
func (r *Resource) References() uint64 {
	return r.references
}

// Loader produces the value of the named resource.
type Loader func(name string) (any, error)

// Manager loads each resource once and keeps it until the last reference is
// released. It is not safe for concurrent use.
type Manager struct {
	logger    *zap.Logger
	digest    func(name string) uint64
	resources swiss.Map[uint64, *Resource]
}

func digest(name string) uint64 {
	return hashing.String(name, 0)
}

// NewManager returns an empty Manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{logger: logger.Named("resource"), digest: digest}
	m.resources.Init(0, swiss.WithLogger[uint64, *Resource](m.logger))
	return m
}

// Load returns the named resource with an added reference, loading it on
// first use.
func (m *Manager) Load(name string, loader Loader) (*Resource, error) {
	k := m.digest(name)
	if r := *m.resources.Get(k); r != nil {
		if r.Name != name {
			return nil, errors.Wrapf(ErrCollision, "%q and %q", name, r.Name)
		}
		r.references++
		return r, nil
	}

	v, err := loader(name)
	if err != nil {
		return nil, errors.Wrapf(err, "resource: loading %q", name)
	}
	r := &Resource{Name: name, Value: v, references: 1}
	m.resources.Put(k, r)
	m.logger.Debug("loaded", zap.String("name", name))
	return r, nil
}

// Get returns the named resource without adding a reference, or nil.
func (m *Manager) Get(name string) *Resource {
	if r := *m.resources.Get(m.digest(name)); r != nil && r.Name == name {
		return r
	}
	return nil
}

// Release drops a reference to the named resource. When the last reference
// is dropped the resource is forgotten and, if its value is an io.Closer,
// closed. Release reports whether the resource was unloaded.
func (m *Manager) Release(name string) (bool, error) {
	it := m.resources.Find(m.digest(name))
	if !it.Valid() || (*m.resources.Value(it)).Name != name {
		return false, errors.Wrapf(ErrNotFound, "%q", name)
	}
	r := *m.resources.Value(it)
	r.references--
	if r.references > 0 {
		return false, nil
	}

	m.resources.DeleteAt(it)
	m.logger.Debug("unloaded", zap.String("name", name))
	if c, ok := r.Value.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return true, errors.Wrapf(err, "resource: closing %q", name)
		}
	}
	return true, nil
}

// Len returns the number of loaded resources.
func (m *Manager) Len() int {
	return m.resources.Len()
}
