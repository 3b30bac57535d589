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

package meta

import "unsafe"

// Segment is a run of same-typed elements. Contiguous containers yield one
// segment with Count > 1; node-based containers typically yield Count == 1.
type Segment struct {
	// Data addresses the first element.
	Data unsafe.Pointer
	// Count is the number of elements in the run.
	Count int
	// Stride is the distance in bytes between consecutive elements.
	Stride uintptr
}

// At returns the address of element i of the segment.
func (s Segment) At(i int) unsafe.Pointer {
	return unsafe.Add(s.Data, uintptr(i)*s.Stride)
}

// ElementCursor walks a container one segment at a time.
type ElementCursor interface {
	// Next returns the next segment, or false once the container is exhausted.
	Next() (Segment, bool)
	// Close releases the cursor state. It is safe to call more than once.
	Close()
}

// Container is the container capability of a class: its element type and a
// way to open a cursor over an instance.
type Container struct {
	elem QualType
	open func(obj unsafe.Pointer) ElementCursor
}

// NewContainer creates a container capability with element type elem.
func NewContainer(elem QualType, open func(obj unsafe.Pointer) ElementCursor) *Container {
	return &Container{elem: elem, open: open}
}

// Elem returns the element type.
func (c *Container) Elem() QualType { return c.elem }

// Open returns a cursor positioned before the first segment of obj.
func (c *Container) Open(obj unsafe.Pointer) ElementCursor { return c.open(obj) }

// SliceContainer returns the container capability of []E.
func SliceContainer[E any]() *Container {
	return sliceContainer(QualOf[E]())
}

type sliceHeader struct {
	data unsafe.Pointer
	len  int
	cap  int
}

func sliceContainer(elem QualType) *Container {
	stride := elem.PrimaryType().Size()
	return NewContainer(elem, func(obj unsafe.Pointer) ElementCursor {
		h := (*sliceHeader)(obj)
		return &onceCursor{seg: Segment{Data: h.data, Count: h.len, Stride: stride}}
	})
}

// ArrayContainer returns the container capability of a fixed array of n elements.
func ArrayContainer(elem QualType, n int) *Container {
	stride := elem.PrimaryType().Size()
	return NewContainer(elem, func(obj unsafe.Pointer) ElementCursor {
		return &onceCursor{seg: Segment{Data: obj, Count: n, Stride: stride}}
	})
}

// StringContainer returns the container capability of a Go string: its bytes.
func StringContainer() *Container {
	return NewContainer(Direct(Uint8()), func(obj unsafe.Pointer) ElementCursor {
		s := *(*string)(obj)
		return &onceCursor{seg: Segment{Data: unsafe.Pointer(unsafe.StringData(s)), Count: len(s), Stride: 1}}
	})
}

// onceCursor yields a single segment.
type onceCursor struct {
	seg  Segment
	done bool
}

func (c *onceCursor) Next() (Segment, bool) {
	if c.done {
		return Segment{}, false
	}
	c.done = true
	return c.seg, true
}

func (c *onceCursor) Close() { c.done = true }

// CursorContainer returns the container capability of a node-based container.
// open returns a function yielding one element address per call until it
// reports false; each element becomes a segment of one.
func CursorContainer(elem QualType, open func(obj unsafe.Pointer) func() (unsafe.Pointer, bool)) *Container {
	return NewContainer(elem, func(obj unsafe.Pointer) ElementCursor {
		return &nodeCursor{next: open(obj)}
	})
}

type nodeCursor struct {
	next func() (unsafe.Pointer, bool)
}

func (c *nodeCursor) Next() (Segment, bool) {
	if c.next == nil {
		return Segment{}, false
	}
	p, ok := c.next()
	if !ok {
		c.next = nil
		return Segment{}, false
	}
	return Segment{Data: p, Count: 1}, true
}

func (c *nodeCursor) Close() { c.next = nil }
