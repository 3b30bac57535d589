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

package registry

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"

	"dirpx.dev/rtti/meta"
)

// typeCache memoizes parsed qualified-type strings.
type typeCache struct {
	c *lru.Cache[string, meta.QualType]
}

func newTypeCache(size int) *typeCache {
	c, err := lru.New[string, meta.QualType](size)
	if err != nil {
		// Only a non-positive size fails, and config.Normalize rules that out.
		panic(err)
	}
	return &typeCache{c: c}
}

func (tc *typeCache) get(text string) (meta.QualType, bool) { return tc.c.Get(text) }

func (tc *typeCache) add(text string, q meta.QualType) { tc.c.Add(text, q) }

func (tc *typeCache) purge() { tc.c.Purge() }

// ResolveQualType parses text against the descriptor table. Final type names
// may also be registry aliases; an aliased Go type is mirrored on first use.
// Successful parses are cached.
func (r *registry) ResolveQualType(text string) (meta.QualType, error) {
	if q, ok := r.cache.get(text); ok {
		return q, nil
	}
	q, err := meta.ParseQualType(text, r.lookupFinal)
	if err != nil {
		return meta.QualType{}, err
	}
	r.cache.add(text, q)
	return q, nil
}

func (r *registry) lookupFinal(name string) (*meta.Descriptor, bool) {
	if t, ok := r.names.Load(name); ok {
		if d, err := r.Reflect(t.(reflect.Type), nil); err == nil {
			return d, true
		}
	}
	return meta.Lookup(name)
}
