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
	"path"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"dirpx.dev/rtti/apis"
	uref "dirpx.dev/rtti/utils/reflect"
)

// NewReflectStrategy creates an apis.Strategy that derives names from the Go
// type itself, with memoization.
func NewReflectStrategy() apis.Strategy {
	return reflectStrategy{}
}

// reflectStrategy is the universal fallback that computes a stable "pkg.Type".
// Pointers are looked through, slices and arrays keep their shape
// ("[]pkg.Type", "[4]pkg.Type"), generic instantiation parameters are
// stripped and builtins keep their Go name. Anonymous, map, chan, func and
// interface types have no name.
type reflectStrategy struct{}

// Ensure reflectStrategy implements apis.Strategy.
var _ apis.Strategy = (*reflectStrategy)(nil)

// cacheKey ensures memoization respects all config knobs that affect resolution.
type cacheKey struct {
	t         reflect.Type
	maxLevels int16
}

// typeNameCache caches resolved type names by (type, config knobs).
var typeNameCache sync.Map // key: cacheKey, val: string

// TryResolve computes the name of v's type.
func (reflectStrategy) TryResolve(v any, cfg apis.Config) (string, bool) {
	if v == nil {
		return "", false
	}
	return byType(reflect.TypeOf(v), cfg), true
}

// TryResolveType computes the name of t.
func (reflectStrategy) TryResolveType(t reflect.Type, cfg apis.Config) (string, bool) {
	if t == nil {
		return "", false
	}
	return byType(t, cfg), true
}

// byType resolves the name for t with memoization.
func byType(t reflect.Type, cfg apis.Config) string {
	key := cacheKey{t: t, maxLevels: int16(cfg.MaxLevels)}
	if v, ok := typeNameCache.Load(key); ok {
		return v.(string)
	}
	name := compute(t, cfg.MaxLevels)
	typeNameCache.Store(key, name)
	return name
}

func compute(t reflect.Type, maxLevels int) string {
	base, _, err := uref.Unwrap(t, maxLevels)
	if err != nil {
		return ""
	}
	switch base.Kind() {
	case reflect.Slice:
		if elem := compute(base.Elem(), maxLevels); elem != "" {
			return "[]" + elem
		}
		return ""
	case reflect.Array:
		if elem := compute(base.Elem(), maxLevels); elem != "" {
			return "[" + strconv.Itoa(base.Len()) + "]" + elem
		}
		return ""
	case reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return ""
	}
	if base.Name() == "" {
		return ""
	}
	name := stripTypeParams(base.Name())
	if p := base.PkgPath(); p != "" {
		name = path.Base(p) + "." + name
	}
	return name
}

// stripTypeParams removes generic type instantiation suffix: "T[int,string]" -> "T".
func stripTypeParams(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}
