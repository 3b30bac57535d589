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

package strategy

import (
	"reflect"

	"dirpx.dev/rtti/apis"
	uref "dirpx.dev/rtti/utils/reflect"
)

var namerType = reflect.TypeFor[apis.Namer]()

// NewNamerStrategy creates an apis.Strategy that uses apis.Namer.
func NewNamerStrategy() apis.Strategy {
	return &namerStrategy{}
}

// namerStrategy is a zero-cost fast path: if v implements apis.Namer,
// return its RTTIName() and stop the chain.
type namerStrategy struct{}

// Ensure namerStrategy implements apis.Strategy.
var _ apis.Strategy = (*namerStrategy)(nil)

// TryResolve checks if v implements apis.Namer and returns its RTTIName().
func (*namerStrategy) TryResolve(v any, _ apis.Config) (string, bool) {
	if v == nil {
		return "", false
	}
	if n, ok := v.(apis.Namer); ok {
		return n.RTTIName(), true
	}
	return "", false
}

// TryResolveType asks a zero value of t (pointers stripped) for its name.
// Mirrors only have types, so this is how a Go struct names its class.
func (*namerStrategy) TryResolveType(t reflect.Type, cfg apis.Config) (name string, ok bool) {
	if t == nil {
		return "", false
	}
	base, _, err := uref.Unwrap(t, cfg.MaxLevels)
	if err != nil || base.Kind() == reflect.Interface {
		return "", false
	}
	var n apis.Namer
	switch {
	case base.Implements(namerType):
		n = reflect.Zero(base).Interface().(apis.Namer)
	case reflect.PointerTo(base).Implements(namerType):
		n = reflect.New(base).Interface().(apis.Namer)
	default:
		return "", false
	}
	defer func() {
		// A Namer that cannot cope with a zero value falls through.
		if recover() != nil {
			name, ok = "", false
		}
	}()
	return n.RTTIName(), true
}
