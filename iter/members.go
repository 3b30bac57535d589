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

	"dirpx.dev/rtti/meta"
	"dirpx.dev/rtti/object"
)

// level is one class of the hierarchy being walked.
type level struct {
	class    *meta.Class
	obj      unsafe.Pointer
	next     int
	nextBase int
}

// cursor walks members of a class hierarchy in pre-order: own members in
// declaration order, then each base (and its bases) in declaration order.
type cursor[M any] struct {
	stack  []level
	count  func(*meta.Class) int
	member func(*meta.Class, int) M
	cur    M
	obj    unsafe.Pointer
	owner  *meta.Descriptor
}

func newCursor[M any](desc *meta.Descriptor, obj unsafe.Pointer, count func(*meta.Class) int, member func(*meta.Class, int) M) cursor[M] {
	c := cursor[M]{count: count, member: member}
	if desc != nil && desc.Class() != nil {
		c.stack = append(c.stack, level{class: desc.Class(), obj: obj})
	}
	return c
}

func (c *cursor[M]) next() bool {
	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		if top.next < c.count(top.class) {
			c.cur = c.member(top.class, top.next)
			c.obj = top.obj
			c.owner = top.class.Descriptor()
			top.next++
			return true
		}
		if top.nextBase < top.class.NumBase() {
			b := top.class.Base(top.nextBase)
			top.nextBase++
			sub := b.Upcast(top.obj)
			if sub == nil && top.obj != nil {
				// Absent shared base: nothing to visit.
				continue
			}
			c.stack = append(c.stack, level{class: b.Class().Class(), obj: sub})
			continue
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
	var zero M
	c.cur, c.obj, c.owner = zero, nil, nil
	return false
}

// Properties iterates the properties of a class and all of its bases.
//
//	it := iter.NewProperties(desc, obj)
//	for it.Next() {
//		p := it.Property()
//		...
//	}
type Properties struct {
	c cursor[*meta.Property]
}

// NewProperties returns a property iterator over obj, an instance of desc.
// obj may be nil to list the members without reading them.
func NewProperties(desc *meta.Descriptor, obj unsafe.Pointer) *Properties {
	return &Properties{c: newCursor(desc, obj, (*meta.Class).NumProperty, (*meta.Class).Property)}
}

// Next advances to the next property.
func (it *Properties) Next() bool { return it.c.next() }

// Property returns the current property.
func (it *Properties) Property() *meta.Property { return it.c.cur }

// Object returns the address of the (sub-)object owning the current property.
func (it *Properties) Object() unsafe.Pointer { return it.c.obj }

// Owner returns the class declaring the current property.
func (it *Properties) Owner() *meta.Descriptor { return it.c.owner }

// Value returns a handle on the current in-place property, or an empty
// handle for accessor-based properties.
func (it *Properties) Value() object.Ptr {
	p := it.c.cur
	if p == nil || !p.InPlace() || it.c.obj == nil {
		return object.Ptr{}
	}
	return object.RawPtr(p.Addr(it.c.obj), p.Type())
}

// Functions iterates the functions of a class and all of its bases.
type Functions struct {
	c cursor[*meta.Function]
}

// NewFunctions returns a function iterator over obj, an instance of desc.
func NewFunctions(desc *meta.Descriptor, obj unsafe.Pointer) *Functions {
	return &Functions{c: newCursor(desc, obj, (*meta.Class).NumFunction, (*meta.Class).Function)}
}

// Next advances to the next function.
func (it *Functions) Next() bool { return it.c.next() }

// Function returns the current function.
func (it *Functions) Function() *meta.Function { return it.c.cur }

// Object returns the address of the (sub-)object owning the current function.
func (it *Functions) Object() unsafe.Pointer { return it.c.obj }

// Owner returns the class declaring the current function.
func (it *Functions) Owner() *meta.Descriptor { return it.c.owner }

// FindProperty returns the property called name and the address of the
// sub-object that owns it.
func FindProperty(desc *meta.Descriptor, obj unsafe.Pointer, name string) (*meta.Property, unsafe.Pointer, bool) {
	it := NewProperties(desc, obj)
	for it.Next() {
		if it.Property().Name() == name {
			return it.Property(), it.Object(), true
		}
	}
	return nil, nil, false
}

// FindFunction returns the function called name and the address of the
// sub-object it must be invoked on.
func FindFunction(desc *meta.Descriptor, obj unsafe.Pointer, name string) (*meta.Function, unsafe.Pointer, bool) {
	it := NewFunctions(desc, obj)
	for it.Next() {
		if it.Function().Name() == name {
			return it.Function(), it.Object(), true
		}
	}
	return nil, nil, false
}
