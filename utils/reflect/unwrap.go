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

package reflect

import (
	"reflect"

	"github.com/pkg/errors"
)

var (
	// ErrReflectNilType is returned when a nil reflect.Type is provided.
	ErrReflectNilType = errors.New("reflect: nil reflect.Type provided")
	// ErrReflectTooDeep indicates that a pointer chain is longer than allowed.
	ErrReflectTooDeep = errors.New("reflect: pointer chain exceeds the level limit")
)

// Unwrap strips pointer levels from t and returns the pointee type and the
// number of levels removed. It fails if more than maxLevels levels are found.
//
//	Unwrap(**T, 8) -> (T, 2, nil)
//	Unwrap([]*T, 8) -> ([]*T, 0, nil) // only the outer chain counts
func Unwrap(t reflect.Type, maxLevels int) (reflect.Type, int, error) {
	if t == nil {
		return nil, 0, ErrReflectNilType
	}
	levels := 0
	for t.Kind() == reflect.Pointer {
		if levels == maxLevels {
			return nil, 0, errors.Wrapf(ErrReflectTooDeep, "%s: limit %d", t, maxLevels)
		}
		t = t.Elem()
		levels++
	}
	return t, levels, nil
}
