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
	"io/fs"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"dirpx.dev/rtti/apis"
)

// EnvPrefix is the prefix of environment variables read by Load
// (RTTI_MAX_LEVELS, RTTI_LOG_LEVEL, ...).
const EnvPrefix = "RTTI"

// Load reads a configuration from the YAML file at path, overlaid with RTTI_*
// environment variables. An empty path, or a missing file, yields the
// defaults plus the environment.
func Load(path string) (apis.Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("max_levels", def.MaxLevels)
	v.SetDefault("exported_only", def.ExportedOnly)
	v.SetDefault("step_buffer_size", def.StepBufferSize)
	v.SetDefault("split_units", def.SplitUnits)
	v.SetDefault("type_cache_size", def.TypeCacheSize)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isNotExist(err) {
				return apis.Config{}, errors.Wrapf(err, "rtti(config): read %s", path)
			}
		}
	}

	var cfg apis.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return apis.Config{}, errors.Wrap(err, "rtti(config): unmarshal")
	}
	return Normalize(cfg), nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
