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

import (
	"reflect"
)

// Namer is implemented by types that choose their own descriptor name.
// Resolvers consult it before any registry alias or reflection fallback.
type Namer interface {
	RTTIName() string
}

// Strategy is one naming step of a Resolver. A strategy that cannot name a
// type reports handled=false so the next one is tried.
type Strategy interface {
	// TryResolve names the type of v.
	TryResolve(v any, cfg Config) (name string, handled bool)
	// TryResolveType names t.
	TryResolveType(t reflect.Type, cfg Config) (name string, handled bool)
}

// Resolver picks the name a mirrored class is published under. Names must be
// stable for a given type: descriptors are write-once.
type Resolver interface {
	// Resolve returns the name for the type of v, or "" if no strategy handles it.
	Resolve(v any, cfg Config) string
	// ResolveType returns the name for t, or "" if no strategy handles it.
	ResolveType(t reflect.Type, cfg Config) string
}
