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

package apis

// Config is the immutable configuration read by every layer. Zero fields are
// replaced with defaults by config.Normalize.
type Config struct {
	// MaxLevels limits how many pointer levels reflection mirrors follow before
	// giving up on a field or parameter type. Never above meta.MaxLevels.
	MaxLevels int `mapstructure:"max_levels"`

	// ExportedOnly restricts reflection mirrors to exported fields and methods.
	ExportedOnly bool `mapstructure:"exported_only"`

	// StepBufferSize is the destination size used by Writer.WriteTo for each step.
	StepBufferSize int `mapstructure:"step_buffer_size"`

	// SplitUnits lets the writer split a unit that is larger than a whole fresh
	// destination buffer across steps. If false, such a step fails.
	SplitUnits bool `mapstructure:"split_units"`

	// TypeCacheSize bounds the cache of parsed qualified-type strings.
	TypeCacheSize int `mapstructure:"type_cache_size"`

	// LogLevel is the zap level name used by config.NewLogger.
	LogLevel string `mapstructure:"log_level"`
}
