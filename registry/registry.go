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

// Package registry keeps the named services of an engine. Services are
// looked up by a digest of their name.
package registry

import (
	"github.com/airengine/swiss"
	"github.com/airengine/swiss/hashing"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ErrExists is returned when a service is registered under a name that is
// already taken.
var ErrExists = errors.New("registry: service already registered")

// ErrCollision is returned when a name shares its digest with the name of a
// registered service.
var ErrCollision = errors.New("registry: name digest collision")

// Service is a long-lived engine component.
type Service interface {
	Init(config any) error
	Shutdown() error
}

type entry struct {
	name    string
	service Service
}

// Registry maps service names to services. It is not safe for concurrent use.
type Registry struct {
	logger   *zap.Logger
	digest   func(name string) uint64
	services swiss.Map[uint64, entry]
}

// digest keys are already well mixed.
func digestHash(key *uint64, seed uint64) uint64 {
	return *key ^ seed
}

// New returns an empty registry.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{logger: logger.Named("registry"), digest: key}
	r.services.Init(8,
		swiss.WithHash[uint64, entry](digestHash),
		swiss.WithLogger[uint64, entry](r.logger))
	return r
}

func key(name string) uint64 {
	return hashing.String(name, 0)
}

// Add registers service under name.
func (r *Registry) Add(name string, service Service) error {
	k := r.digest(name)
	if it := r.services.Find(k); it.Valid() {
		if other := r.services.Value(it).name; other != name {
			return errors.Wrapf(ErrCollision, "%q and %q", name, other)
		}
		return errors.Wrapf(ErrExists, "%q", name)
	}
	r.services.Put(k, entry{name: name, service: service})
	r.logger.Debug("service added", zap.String("name", name))
	return nil
}

// Remove unregisters the service registered under name and reports whether
// there was one. The service is not shut down.
func (r *Registry) Remove(name string) bool {
	it := r.find(name)
	if !it.Valid() {
		return false
	}
	r.services.DeleteAt(it)
	r.logger.Debug("service removed", zap.String("name", name))
	return true
}

// Get returns the service registered under name, or nil.
func (r *Registry) Get(name string) Service {
	it := r.find(name)
	if !it.Valid() {
		return nil
	}
	return r.services.Value(it).service
}

// find returns the position of the service registered under name. A
// different name with the same digest is not a match.
func (r *Registry) find(name string) swiss.Iterator {
	it := r.services.Find(r.digest(name))
	if it.Valid() && r.services.Value(it).name != name {
		return swiss.End
	}
	return it
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	return r.services.Len()
}

// Lookup returns the service registered under name if it has type T.
func Lookup[T Service](r *Registry, name string) (T, bool) {
	t, ok := r.Get(name).(T)
	return t, ok
}

// GetOrAdd returns the service registered under name. If there is none, a
// service is created, initialized with config and registered.
func GetOrAdd[T Service](r *Registry, name string, config any, create func() T) (T, error) {
	if s := r.Get(name); s != nil {
		t, ok := s.(T)
		if !ok {
			var zero T
			return zero, errors.Newf("registry: %q is a %T", name, s)
		}
		return t, nil
	}
	t := create()
	if err := t.Init(config); err != nil {
		var zero T
		return zero, errors.Wrapf(err, "registry: initializing %q", name)
	}
	if err := r.Add(name, t); err != nil {
		var zero T
		return zero, err
	}
	return t, nil
}

// Shutdown shuts every service down and empties the registry. Every service
// is shut down even if some fail; the failures are combined.
func (r *Registry) Shutdown() error {
	var err error
	for it := r.services.Begin(); it.Valid(); r.services.Advance(&it) {
		e := r.services.Value(it)
		if serr := e.service.Shutdown(); serr != nil {
			err = errors.CombineErrors(err, errors.Wrapf(serr, "shutting down %q", e.name))
		}
	}
	n := r.services.Len()
	r.services.Clear()
	r.logger.Info("services shut down", zap.Int("count", n), zap.Error(err))
	return err
}
