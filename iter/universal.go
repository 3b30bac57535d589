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

package iter

import (
	"unsafe"

	"github.com/pkg/errors"

	"dirpx.dev/rtti/meta"
	"dirpx.dev/rtti/object"
)

// ErrNotContainer is returned when a universal iterator is requested for a
// type without container capability.
var ErrNotContainer = errors.New("rtti(iter): type has no container capability")

// Universal adapts any container capability to a uniform protocol: a
// sequence of segments of same-typed elements, visited one element at a time.
// Close must be called to release the element cursor.
type Universal struct {
	cursor meta.ElementCursor
	elem   meta.QualType
	seg    meta.Segment
	idx    int
	done   bool
}

// NewUniversal opens a container iterator over obj, an instance of desc,
// positioned at the first element.
func NewUniversal(desc *meta.Descriptor, obj unsafe.Pointer) (u *Universal, err error) {
	if desc == nil || desc.Class() == nil || desc.Class().Container() == nil {
		name := "<nil>"
		if desc != nil {
			name = desc.Name()
		}
		return nil, errors.Wrapf(ErrNotContainer, "type %s", name)
	}
	c := desc.Class().Container()
	cur := c.Open(obj)
	defer func() {
		if r := recover(); r != nil {
			cur.Close()
			panic(r)
		}
	}()
	u = &Universal{cursor: cur, elem: c.Elem()}
	u.fetch()
	return u, nil
}

func (u *Universal) fetch() {
	for {
		seg, ok := u.cursor.Next()
		if !ok {
			u.done = true
			return
		}
		if seg.Count > 0 {
			u.seg, u.idx = seg, 0
			return
		}
	}
}

// Done reports whether every element has been visited.
func (u *Universal) Done() bool { return u.done }

// Elem returns the element type.
func (u *Universal) Elem() meta.QualType { return u.elem }

// Current returns a handle on the current element.
func (u *Universal) Current() object.Ptr {
	if u.done {
		return object.Ptr{}
	}
	return object.RawPtr(u.seg.At(u.idx), u.elem)
}

// Segment returns the current segment and the position inside it.
func (u *Universal) Segment() (meta.Segment, int) { return u.seg, u.idx }

// Advance moves to the next element, requesting the next segment once the
// current one is exhausted.
func (u *Universal) Advance() {
	if u.done {
		return
	}
	u.idx++
	if u.idx >= u.seg.Count {
		u.fetch()
	}
}

// Close releases the element cursor.
func (u *Universal) Close() {
	if u.cursor != nil {
		u.cursor.Close()
	}
	u.done = true
}
