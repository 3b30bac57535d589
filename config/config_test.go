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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"dirpx.dev/rtti/config"
	"dirpx.dev/rtti/meta"
)

func TestDefaultConfigValues(t *testing.T) {
	got := config.DefaultConfig()

	if got.MaxLevels != config.DefaultMaxLevels {
		t.Fatalf("MaxLevels = %d, want %d", got.MaxLevels, config.DefaultMaxLevels)
	}
	if got.ExportedOnly != config.DefaultExportedOnly {
		t.Fatalf("ExportedOnly = %v, want %v", got.ExportedOnly, config.DefaultExportedOnly)
	}
	if got.StepBufferSize != config.DefaultStepBufferSize {
		t.Fatalf("StepBufferSize = %d, want %d", got.StepBufferSize, config.DefaultStepBufferSize)
	}
	if got.SplitUnits != config.DefaultSplitUnits {
		t.Fatalf("SplitUnits = %v, want %v", got.SplitUnits, config.DefaultSplitUnits)
	}
	if got.TypeCacheSize != config.DefaultTypeCacheSize {
		t.Fatalf("TypeCacheSize = %d, want %d", got.TypeCacheSize, config.DefaultTypeCacheSize)
	}
	if got.LogLevel != config.DefaultLogLevel {
		t.Fatalf("LogLevel = %q, want %q", got.LogLevel, config.DefaultLogLevel)
	}
}

func TestNewConfig_NoOptions_EqualsDefault(t *testing.T) {
	def := config.DefaultConfig()
	got := config.NewConfig()
	if got != def {
		t.Fatalf("NewConfig() = %+v, want default %+v", got, def)
	}
}

func TestWithExportedOnly(t *testing.T) {
	c := config.NewConfig(config.WithExportedOnly(false))
	if c.ExportedOnly {
		t.Fatalf("ExportedOnly = %v, want false", c.ExportedOnly)
	}
}

func TestWithSplitUnits(t *testing.T) {
	c := config.NewConfig(config.WithSplitUnits(false))
	if c.SplitUnits {
		t.Fatalf("SplitUnits = %v, want false", c.SplitUnits)
	}
}

func TestWithMaxLevels_OutOfRange_ResetsToDefault(t *testing.T) {
	for _, n := range []int{-1, meta.MaxLevels + 1} {
		c := config.NewConfig(config.WithMaxLevels(n))
		if c.MaxLevels != config.DefaultMaxLevels {
			t.Fatalf("WithMaxLevels(%d): MaxLevels = %d, want default %d", n, c.MaxLevels, config.DefaultMaxLevels)
		}
	}
	// Zero is allowed: mirrors then reject every pointer member.
	if c := config.NewConfig(config.WithMaxLevels(0)); c.MaxLevels != 0 {
		t.Fatalf("MaxLevels = %d, want 0", c.MaxLevels)
	}
}

func TestWithSizes_NonPositive_ResetsToDefault(t *testing.T) {
	c := config.NewConfig(config.WithStepBufferSize(0), config.WithTypeCacheSize(-3))
	if c.StepBufferSize != config.DefaultStepBufferSize {
		t.Fatalf("StepBufferSize = %d, want default %d", c.StepBufferSize, config.DefaultStepBufferSize)
	}
	if c.TypeCacheSize != config.DefaultTypeCacheSize {
		t.Fatalf("TypeCacheSize = %d, want default %d", c.TypeCacheSize, config.DefaultTypeCacheSize)
	}
}

func TestOptionsOrder_LastWins(t *testing.T) {
	c := config.NewConfig(
		config.WithStepBufferSize(16),
		config.WithStepBufferSize(64),
		config.WithMaxLevels(2),
		config.WithMaxLevels(5),
		config.WithLogLevel("warn"),
		config.WithLogLevel("debug"),
	)

	if c.StepBufferSize != 64 {
		t.Errorf("StepBufferSize = %d, want 64 (last option wins)", c.StepBufferSize)
	}
	if c.MaxLevels != 5 {
		t.Errorf("MaxLevels = %d, want 5 (last option wins)", c.MaxLevels)
	}
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug (last option wins)", c.LogLevel)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtti.yaml")
	data := []byte("max_levels: 4\nstep_buffer_size: 128\nsplit_units: false\nlog_level: debug\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MaxLevels != 4 || c.StepBufferSize != 128 || c.SplitUnits || c.LogLevel != "debug" {
		t.Fatalf("Load = %+v, want file values", c)
	}
	// Keys absent from the file keep their defaults.
	if c.TypeCacheSize != config.DefaultTypeCacheSize || !c.ExportedOnly {
		t.Fatalf("Load = %+v, want defaults for absent keys", c)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c != config.DefaultConfig() {
		t.Fatalf("Load = %+v, want defaults %+v", c, config.DefaultConfig())
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RTTI_TYPE_CACHE_SIZE", "32")

	c, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.TypeCacheSize != 32 {
		t.Fatalf("TypeCacheSize = %d, want 32 from environment", c.TypeCacheSize)
	}
}

func TestNewLogger(t *testing.T) {
	l, err := config.NewLogger(config.NewConfig(config.WithLogLevel("debug")))
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if l == nil {
		t.Fatal("NewLogger returned nil logger")
	}
	if _, err := config.NewLogger(config.NewConfig(config.WithLogLevel("loud"))); err == nil {
		t.Fatal("NewLogger(loud): expected error, got nil")
	}
}
