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

package serialize

import (
	"go.uber.org/zap"

	"dirpx.dev/rtti/apis"
	"dirpx.dev/rtti/config"
)

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger used for session events.
func WithLogger(l *zap.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// WithConfig sets the configuration; StepBufferSize and SplitUnits are used.
func WithConfig(cfg apis.Config) Option {
	return func(w *Writer) {
		w.cfg = config.Normalize(cfg)
	}
}

// WithSplitUnits overrides whether oversized units may be split across steps.
func WithSplitUnits(split bool) Option {
	return func(w *Writer) {
		w.split = &split
	}
}
