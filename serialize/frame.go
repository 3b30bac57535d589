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
	"unsafe"

	"dirpx.dev/rtti/iter"
	"dirpx.dev/rtti/meta"
	"dirpx.dev/rtti/object"
)

// frame is one open composite: its property cursor first, then its
// element cursor, opened on first use.
type frame struct {
	desc *meta.Descriptor
	obj  unsafe.Pointer

	props     *iter.Properties
	propsDone bool
	elems     *iter.Universal

	// owned keeps a materialized accessor value alive while the frame is open.
	owned *object.Value
}

func newFrame(desc *meta.Descriptor, obj unsafe.Pointer, owned *object.Value) *frame {
	return &frame{desc: desc, obj: obj, props: iter.NewProperties(desc, obj), owned: owned}
}

// container reports whether the frame still has an element cursor to drain.
func (f *frame) container() bool {
	c := f.desc.Class()
	return c != nil && c.Container() != nil
}

func (f *frame) close() {
	if f.elems != nil {
		f.elems.Close()
		f.elems = nil
	}
	if f.owned != nil {
		f.owned.Reset()
		f.owned = nil
	}
}
