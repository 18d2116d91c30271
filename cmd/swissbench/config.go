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
	"github.com/BurntSushi/toml"
	"github.com/airengine/swiss/internal/logutil"
	"github.com/cockroachdb/errors"
)

// Config is the swissbench configuration file.
type Config struct {
	Workload WorkloadConfig    `toml:"workload"`
	Log      logutil.LogConfig `toml:"log"`
	// Profile is one of "", "cpu", "mem" or "allocs".
	Profile string `toml:"profile"`
	// ProfilePath is the directory profiles are written to.
	ProfilePath string `toml:"profile-path"`
}

// WorkloadConfig describes the operation mix run against the map.
type WorkloadConfig struct {
	// Keys is the size of the key space.
	Keys int `toml:"keys"`
	// Ops is the number of operations to run.
	Ops int `toml:"ops"`
	// Mix holds the relative weights of puts, gets and deletes.
	Mix  Mix    `toml:"mix"`
	Seed uint64 `toml:"seed"`
	// Hint is the initial capacity hint.
	Hint int `toml:"hint"`
	// Hash is "runtime" or "xxhash".
	Hash string `toml:"hash"`
	// Allocator is "heap", "block" or "linear".
	Allocator string `toml:"allocator"`
	// MemoryLimit bounds the block and linear allocators, in bytes.
	MemoryLimit uint64 `toml:"memory-limit"`
	// Verify cross-checks every operation against a builtin map.
	Verify bool `toml:"verify"`
}

// Mix holds operation weights.
type Mix struct {
	Put    int `toml:"put"`
	Get    int `toml:"get"`
	Delete int `toml:"delete"`
}

func (m Mix) total() int {
	return m.Put + m.Get + m.Delete
}

func defaultConfig() Config {
	return Config{
		Workload: WorkloadConfig{
			Keys:        1 << 16,
			Ops:         1 << 20,
			Mix:         Mix{Put: 50, Get: 35, Delete: 15},
			Seed:        1,
			Hash:        "runtime",
			Allocator:   "heap",
			MemoryLimit: 256 << 20,
			Verify:      true,
		},
		Log:         logutil.Default(),
		ProfilePath: ".",
	}
}

func parseConfigFromFile(file string) (*Config, error) {
	cfg := defaultConfig()
	if file == "" {
		return &cfg, cfg.validate()
	}
	md, err := toml.DecodeFile(file, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", file)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Newf("unknown configuration keys in %s: %v", file, undecoded)
	}
	return &cfg, cfg.validate()
}

func (cfg *Config) validate() error {
	w := &cfg.Workload
	if w.Keys <= 0 {
		return errors.Newf("workload.keys must be positive, got %d", w.Keys)
	}
	if w.Ops < 0 {
		return errors.Newf("workload.ops must not be negative, got %d", w.Ops)
	}
	if w.Mix.Put < 0 || w.Mix.Get < 0 || w.Mix.Delete < 0 || w.Mix.total() == 0 {
		return errors.Newf("workload.mix weights must be non-negative and not all zero: %+v", w.Mix)
	}
	switch w.Hash {
	case "runtime", "xxhash":
	default:
		return errors.Newf("unknown workload.hash %q", w.Hash)
	}
	switch w.Allocator {
	case "heap", "block", "linear":
	default:
		return errors.Newf("unknown workload.allocator %q", w.Allocator)
	}
	switch cfg.Profile {
	case "", "cpu", "mem", "allocs":
	default:
		return errors.Newf("unknown profile %q", cfg.Profile)
	}
	return nil
}
