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
)

// aliasLookup adapts a name lookup keyed by reflect.Type to apis.Strategy.
type aliasLookup func(reflect.Type) (string, bool)

var _ apis.Strategy = aliasLookup(nil)

// NewRegistryStrategy names types by their registry alias. Pointers are
// looked through, so *T resolves like T. A nil registry never resolves.
func NewRegistryStrategy(reg apis.Registry) apis.Strategy {
	if reg == nil {
		return aliasLookup(nil)
	}
	return aliasLookup(reg.LookupName)
}

func (f aliasLookup) TryResolve(v any, cfg apis.Config) (string, bool) {
	if v == nil {
		return "", false
	}
	return f.TryResolveType(reflect.TypeOf(v), cfg)
}

func (f aliasLookup) TryResolveType(t reflect.Type, _ apis.Config) (string, bool) {
	if f == nil || t == nil {
		return "", false
	}
	return f(t)
}
