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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfigFromFile("")
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), *cfg)

	file := filepath.Join(t.TempDir(), "bench.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
profile = "cpu"

[workload]
keys = 1000
ops = 5000
hash = "xxhash"
allocator = "block"

[workload.mix]
put = 1
get = 1
delete = 1

[log]
level = "debug"
format = "json"
`), 0o644))

	cfg, err = parseConfigFromFile(file)
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.Workload.Keys)
	require.Equal(t, 5000, cfg.Workload.Ops)
	require.Equal(t, "xxhash", cfg.Workload.Hash)
	require.Equal(t, "block", cfg.Workload.Allocator)
	require.Equal(t, Mix{Put: 1, Get: 1, Delete: 1}, cfg.Workload.Mix)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, "cpu", cfg.Profile)
	// Unset keys keep their defaults.
	require.True(t, cfg.Workload.Verify)
	require.EqualValues(t, 1, cfg.Workload.Seed)
}

func TestParseConfigErrors(t *testing.T) {
	for name, body := range map[string]string{
		"unknown-key":   "[workload]\nkeyz = 10\n",
		"bad-hash":      "[workload]\nhash = \"md5\"\n",
		"bad-allocator": "[workload]\nallocator = \"mmap\"\n",
		"no-mix":        "[workload.mix]\nput = 0\nget = 0\ndelete = 0\n",
		"bad-keys":      "[workload]\nkeys = 0\n",
		"bad-profile":   "profile = \"trace\"\n",
		"syntax":        "[workload\n",
	} {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "bench.toml")
			require.NoError(t, os.WriteFile(file, []byte(body), 0o644))
			_, err := parseConfigFromFile(file)
			require.Error(t, err)
		})
	}
}

func TestRun(t *testing.T) {
	for _, hash := range []string{"runtime", "xxhash"} {
		for _, alloc := range []string{"heap", "block", "linear"} {
			t.Run(hash+"/"+alloc, func(t *testing.T) {
				w := defaultConfig().Workload
				w.Keys = 2000
				w.Ops = 20000
				w.Hash = hash
				w.Allocator = alloc
				w.MemoryLimit = 16 << 20

				res, err := run(w, zaptest.NewLogger(t))
				require.NoError(t, err)
				require.Equal(t, w.Ops, res.Puts+res.Gets+res.Deletes)
				require.LessOrEqual(t, res.Stats.Len, w.Keys)
				require.Greater(t, res.Stats.Resizes, 0)
			})
		}
	}
}

func TestRunOutOfMemory(t *testing.T) {
	w := defaultConfig().Workload
	w.Keys = 10000
	w.Ops = 10000
	w.Mix = Mix{Put: 1}
	w.Allocator = "block"
	w.MemoryLimit = 4096

	_, err := run(w, zaptest.NewLogger(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of memory")
}
