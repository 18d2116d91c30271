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

// Package logutil builds zap loggers from configuration.
package logutil

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig configures a logger.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `toml:"level"`
	// Format is console or json.
	Format string `toml:"format"`
	// Filename enables rolling file output. Empty means stderr.
	Filename string `toml:"filename"`
	// MaxSize is the size in megabytes at which the file is rotated.
	MaxSize int `toml:"max-size"`
	// MaxDays is the number of days rotated files are kept.
	MaxDays int `toml:"max-days"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `toml:"max-backups"`
}

// Default returns the configuration used when none is supplied.
func Default() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     "console",
		MaxSize:    512,
		MaxBackups: 8,
	}
}

func (cfg *LogConfig) getLevel() (zap.AtomicLevel, error) {
	if cfg.Level == "" {
		return zap.NewAtomicLevelAt(zap.InfoLevel), nil
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return level, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}
	return level, nil
}

func (cfg *LogConfig) getEncoder() (zapcore.Encoder, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	switch cfg.Format {
	case "", "console":
		return zapcore.NewConsoleEncoder(encoderConfig), nil
	case "json":
		return zapcore.NewJSONEncoder(encoderConfig), nil
	default:
		return nil, errors.Newf("unsupported log format: %s", cfg.Format)
	}
}

func (cfg *LogConfig) getSyncer() zapcore.WriteSyncer {
	if cfg.Filename == "" {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxDays,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	})
}

// Build returns a logger for the configuration.
func (cfg *LogConfig) Build(opts ...zap.Option) (*zap.Logger, error) {
	level, err := cfg.getLevel()
	if err != nil {
		return nil, err
	}
	encoder, err := cfg.getEncoder()
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoder, cfg.getSyncer(), level)
	opts = append([]zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel)}, opts...)
	return zap.New(core, opts...), nil
}
