/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package config

import (
	"dirpx.dev/rtti/apis"
	"dirpx.dev/rtti/meta"
)

const (
	// DefaultMaxLevels is the deepest pointer chain mirrors follow.
	DefaultMaxLevels = meta.MaxLevels
	// DefaultExportedOnly restricts mirrors to exported members.
	DefaultExportedOnly = true
	// DefaultStepBufferSize is the per-step destination size of WriteTo.
	DefaultStepBufferSize = 4096
	// DefaultSplitUnits lets oversized units span steps.
	DefaultSplitUnits = true
	// DefaultTypeCacheSize bounds the parsed qualified-type cache.
	DefaultTypeCacheSize = 256
	// DefaultLogLevel is the level of loggers built by NewLogger.
	DefaultLogLevel = "info"
)

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return Normalize(cfg)
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		MaxLevels:      DefaultMaxLevels,
		ExportedOnly:   DefaultExportedOnly,
		StepBufferSize: DefaultStepBufferSize,
		SplitUnits:     DefaultSplitUnits,
		TypeCacheSize:  DefaultTypeCacheSize,
		LogLevel:       DefaultLogLevel,
	}
}

// Normalize clamps out-of-range values back to their defaults.
func Normalize(cfg apis.Config) apis.Config {
	if cfg.MaxLevels < 0 || cfg.MaxLevels > meta.MaxLevels {
		cfg.MaxLevels = DefaultMaxLevels
	}
	if cfg.StepBufferSize <= 0 {
		cfg.StepBufferSize = DefaultStepBufferSize
	}
	if cfg.TypeCacheSize <= 0 {
		cfg.TypeCacheSize = DefaultTypeCacheSize
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	return cfg
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithMaxLevels sets the MaxLevels option.
// A negative value or one above meta.MaxLevels resets to the default.
func WithMaxLevels(n int) Option {
	return func(c *apis.Config) {
		c.MaxLevels = n
	}
}

// WithExportedOnly sets the ExportedOnly option.
func WithExportedOnly(only bool) Option {
	return func(c *apis.Config) {
		c.ExportedOnly = only
	}
}

// WithStepBufferSize sets the StepBufferSize option.
// A non-positive value resets to the default.
func WithStepBufferSize(n int) Option {
	return func(c *apis.Config) {
		c.StepBufferSize = n
	}
}

// WithSplitUnits sets the SplitUnits option.
func WithSplitUnits(split bool) Option {
	return func(c *apis.Config) {
		c.SplitUnits = split
	}
}

// WithTypeCacheSize sets the TypeCacheSize option.
// A non-positive value resets to the default.
func WithTypeCacheSize(n int) Option {
	return func(c *apis.Config) {
		c.TypeCacheSize = n
	}
}

// WithLogLevel sets the LogLevel option.
func WithLogLevel(level string) Option {
	return func(c *apis.Config) {
		c.LogLevel = level
	}
}
