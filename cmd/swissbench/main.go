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

// Command swissbench runs a randomized put/get/delete workload against a
// swiss.Map and reports the table statistics.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/airengine/swiss"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("cfg", "", "toml configuration for the workload; defaults apply when empty")
	opsFlag    = flag.Int("ops", 0, "override workload.ops")
)

func main() {
	flag.Parse()

	cfg, err := parseConfigFromFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swissbench: %v\n", err)
		os.Exit(2)
	}
	if *opsFlag > 0 {
		cfg.Workload.Ops = *opsFlag
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "swissbench: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if p := startProfile(cfg); p != nil {
		defer p.Stop()
	}

	logger.Info("starting",
		zap.String("group", swiss.GroupImpl()),
		zap.Int("keys", cfg.Workload.Keys),
		zap.Int("ops", cfg.Workload.Ops),
		zap.String("hash", cfg.Workload.Hash),
		zap.String("allocator", cfg.Workload.Allocator))

	res, err := run(cfg.Workload, logger)
	if err != nil {
		logger.Error("workload failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("done",
		zap.Duration("elapsed", res.Elapsed),
		zap.Int("puts", res.Puts),
		zap.Int("gets", res.Gets),
		zap.Int("hits", res.Hits),
		zap.Int("deletes", res.Deletes),
		zap.Int("removed", res.Removed),
		zap.Int("len", res.Stats.Len),
		zap.Int("capacity", res.Stats.Capacity),
		zap.Int("growth-left", res.Stats.GrowthLeft),
		zap.Int("tombstones", res.Stats.Tombstones),
		zap.Int("resizes", res.Stats.Resizes),
		zap.Int("drop-deletes", res.Stats.DropDeletes))
}

func startProfile(cfg *Config) interface{ Stop() } {
	var mode func(*profile.Profile)
	switch cfg.Profile {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "allocs":
		mode = profile.MemProfileAllocs
	default:
		return nil
	}
	return profile.Start(mode, profile.ProfilePath(cfg.ProfilePath), profile.NoShutdownHook, profile.Quiet)
}
