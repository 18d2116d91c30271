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

package main

import (
	"math/rand/v2"
	"time"

	"github.com/airengine/swiss"
	"github.com/airengine/swiss/hashing"
	"github.com/airengine/swiss/memory"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Result summarizes a workload run.
type Result struct {
	Puts    int
	Gets    int
	Hits    int
	Deletes int
	Removed int
	Elapsed time.Duration
	Stats   swiss.Stats
}

type statser interface {
	Statistics() memory.Statistics
}

func mapOptions(
	w WorkloadConfig, logger *zap.Logger,
) ([]swiss.Option[uint64, uint64], statser, error) {
	opts := []swiss.Option[uint64, uint64]{
		swiss.WithSeed[uint64, uint64](w.Seed),
		swiss.WithLogger[uint64, uint64](logger),
	}
	if w.Hash == "xxhash" {
		opts = append(opts, swiss.WithHash[uint64, uint64](hashing.Uint64Key))
	}

	var mem interface {
		memory.Allocator
		statser
	}
	switch w.Allocator {
	case "heap":
		return opts, nil, nil
	case "block":
		mem = memory.NewHeapAllocator(uintptr(w.MemoryLimit))
	case "linear":
		mem = memory.NewLinearAllocator(uintptr(w.MemoryLimit))
	}
	a, err := swiss.NewBlockAllocator[uint64, uint64](mem)
	if err != nil {
		return nil, nil, err
	}
	return append(opts, swiss.WithAllocator[uint64, uint64](a)), mem, nil
}

// run executes the workload. A failed allocation surfaces as an error rather
// than a crash.
func run(w WorkloadConfig, logger *zap.Logger) (res Result, err error) {
	opts, mem, err := mapOptions(w, logger)
	if err != nil {
		return res, err
	}

	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = errors.Wrap(rerr, "workload aborted")
		}
	}()

	m := swiss.New[uint64, uint64](w.Hint, opts...)
	defer m.Close()

	var shadow map[uint64]uint64
	if w.Verify {
		shadow = make(map[uint64]uint64)
	}

	rng := rand.New(rand.NewPCG(w.Seed, w.Seed^0x9e3779b97f4a7c15))
	total := w.Mix.total()
	start := time.Now()
	for i := 0; i < w.Ops; i++ {
		k := rng.Uint64N(uint64(w.Keys))
		switch r := rng.IntN(total); {
		case r < w.Mix.Put:
			res.Puts++
			v := rng.Uint64()
			m.Put(k, v)
			if shadow != nil {
				shadow[k] = v
			}
		case r < w.Mix.Put+w.Mix.Get:
			res.Gets++
			v, ok := m.Lookup(k)
			if ok {
				res.Hits++
			}
			if shadow != nil {
				if e, eok := shadow[k]; eok != ok || e != v {
					return res, errors.Newf("op %d: get(%d) = (%d, %t), expected (%d, %t)", i, k, v, ok, e, eok)
				}
			}
		default:
			res.Deletes++
			n := m.Delete(k)
			res.Removed += n
			if shadow != nil {
				_, ok := shadow[k]
				if ok != (n == 1) {
					return res, errors.Newf("op %d: delete(%d) = %d, expected present=%t", i, k, n, ok)
				}
				delete(shadow, k)
			}
		}
	}
	res.Elapsed = time.Since(start)
	res.Stats = m.Stats()

	if shadow != nil {
		if m.Len() != len(shadow) {
			return res, errors.Newf("len = %d, expected %d", m.Len(), len(shadow))
		}
		for it := m.Begin(); it.Valid(); m.Advance(&it) {
			if e, ok := shadow[m.Key(it)]; !ok || e != *m.Value(it) {
				return res, errors.Newf("iteration yielded unexpected entry %d=%d", m.Key(it), *m.Value(it))
			}
		}
	}

	if mem != nil {
		s := mem.Statistics()
		logger.Info("allocator",
			zap.Uint64("allocated-bytes", s.AllocatedBytes),
			zap.Uint64("total-bytes", s.TotalBytes),
			zap.Int("allocations", s.AllocationCount))
	}
	return res, nil
}
