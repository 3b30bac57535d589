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

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// Descriptor is the immutable, process-lifetime record describing one type.
// Descriptors are compared by identity; names are unique within the process.
// The one exception to immutability is a provisional struct class, whose
// members are filled in once by Complete.
type Descriptor struct {
	name        string
	size        uintptr
	align       uintptr
	kind        Kind
	ops         Ops
	caps        Capability
	goType      reflect.Type
	pointerFree bool
	class       *Class
	enum        *EnumInfo
	// provisional marks a struct class published with no members yet.
	provisional atomic.Bool
}

// Name returns the unique descriptor name.
func (d *Descriptor) Name() string { return d.name }

// Size returns the value size in bytes.
func (d *Descriptor) Size() uintptr { return d.size }

// Align returns the value alignment in bytes.
func (d *Descriptor) Align() uintptr { return d.align }

// Kind returns the descriptor kind.
func (d *Descriptor) Kind() Kind { return d.kind }

// Ops returns a copy of the operation table.
func (d *Descriptor) Ops() Ops { return d.ops }

// Capabilities returns the operations the table supports.
func (d *Descriptor) Capabilities() Capability { return d.caps }

// Supports returns nil if every capability in c is present, otherwise an
// ErrUnsupportedOperation error naming the type and the first missing entry.
func (d *Descriptor) Supports(c Capability) error {
	if d == nil {
		return ErrNilDescriptor
	}
	missing := c &^ d.caps
	if missing == 0 {
		return nil
	}
	return unsupported(d, missing&-missing)
}

// GoType returns the Go type the descriptor was built from, or nil for
// hand-built descriptors.
func (d *Descriptor) GoType() reflect.Type { return d.goType }

// PointerFree reports whether values hold no Go pointers and may live in raw memory.
func (d *Descriptor) PointerFree() bool { return d.pointerFree }

// Class returns the class information, or nil if the kind is not KindClass.
func (d *Descriptor) Class() *Class { return d.class }

// Provisional reports whether d is a struct class that was described before
// its members were known. Complete fills in the members of the same descriptor.
func (d *Descriptor) Provisional() bool { return d.provisional.Load() }

// Enum returns the enumeration information, or nil if the kind is not KindEnum.
func (d *Descriptor) Enum() *EnumInfo { return d.enum }

// IsScalar reports whether values are written as raw bytes (scalars and enums).
func (d *Descriptor) IsScalar() bool { return d.kind != KindClass }

// String returns the descriptor name.
func (d *Descriptor) String() string { return d.name }

// Allocate returns zeroed storage suitable for one value. Pointer-bearing Go
// types get GC-typed memory; everything else gets word-aligned raw memory.
func (d *Descriptor) Allocate() unsafe.Pointer {
	if d.goType != nil && !d.pointerFree {
		return reflect.New(d.goType).UnsafePointer()
	}
	if d.size == 0 {
		return unsafe.Pointer(&zeroBlock)
	}
	const word = unsafe.Sizeof(uint64(0))
	align := d.align
	if align < word {
		align = word
	}
	words := make([]uint64, (d.size+align-1)/word+1)
	p := unsafe.Pointer(unsafe.SliceData(words))
	if off := uintptr(p) % align; off != 0 {
		p = unsafe.Add(p, align-off)
	}
	return p
}

var zeroBlock uint64

// table is the process-wide descriptor table. Reads are lock-free; creation
// is serialized by mu so recursive descriptor construction stays consistent.
var table struct {
	mu     sync.Mutex
	byType sync.Map // map[reflect.Type]*Descriptor
	byName sync.Map // map[string]*Descriptor
}

// Lookup returns the descriptor registered under name.
func Lookup(name string) (*Descriptor, bool) {
	if v, ok := table.byName.Load(name); ok {
		return v.(*Descriptor), true
	}
	return nil, false
}

// LookupType returns the descriptor already built for rt, if any.
func LookupType(rt reflect.Type) (*Descriptor, bool) {
	if rt == nil {
		return nil, false
	}
	if v, ok := table.byType.Load(rt); ok {
		return v.(*Descriptor), true
	}
	return nil, false
}

// For returns the canonical descriptor for T. It panics if T cannot be described.
func For[T any]() *Descriptor {
	return MustForType(reflect.TypeFor[T]())
}

// MustForType is like ForType but panics on error.
func MustForType(rt reflect.Type) *Descriptor {
	d, err := ForType(rt)
	if err != nil {
		panic(err)
	}
	return d
}

// ForType returns the canonical descriptor for rt, building it on first use.
// Pointer types resolve to the address descriptor; use QualOf to keep the
// indirection chain.
func ForType(rt reflect.Type) (*Descriptor, error) {
	if rt == nil {
		return nil, ErrNilDescriptor
	}
	if d, ok := LookupType(rt); ok {
		return d, nil
	}
	table.mu.Lock()
	defer table.mu.Unlock()
	return forTypeLocked(rt)
}

func forTypeLocked(rt reflect.Type) (*Descriptor, error) {
	if d, ok := LookupType(rt); ok {
		return d, nil
	}
	switch rt.Kind() {
	case reflect.Pointer, reflect.UnsafePointer:
		return Address(), nil
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		// Named scalar: reuse the builtin table, the memory layout is identical.
		base := builtinByKind[rt.Kind()]
		d := newGoDescriptor(rt, rt.String(), KindScalar, base.ops)
		return d, publishLocked(d)
	case reflect.String:
		d := newGoDescriptor(rt, rt.String(), KindClass, stringOps())
		d.class = &Class{desc: d, container: StringContainer()}
		return d, publishLocked(d)
	case reflect.Slice, reflect.Array:
		d := newGoDescriptor(rt, rt.String(), KindClass, ReflectOps(rt))
		d.class = &Class{desc: d}
		// Publish before resolving the element so self-referential slices terminate.
		if err := publishLocked(d); err != nil {
			return nil, err
		}
		elem, err := qualOfLocked(rt.Elem())
		if err != nil {
			unpublishLocked(d)
			return nil, err
		}
		if rt.Kind() == reflect.Slice {
			d.class.container = sliceContainer(elem)
		} else {
			d.class.container = ArrayContainer(elem, rt.Len())
		}
		return d, nil
	case reflect.Struct:
		d := newGoDescriptor(rt, rt.String(), KindClass, ReflectOps(rt))
		d.class = &Class{desc: d}
		d.provisional.Store(true)
		return d, publishLocked(d)
	}
	return nil, errors.Wrapf(ErrUnsupportedType, "cannot describe %s", rt)
}

// Define publishes a hand-built descriptor with no Go type behind it. Its
// values are treated as pointer-free raw memory.
func Define(name string, size, align uintptr, kind Kind, ops Ops) (*Descriptor, error) {
	if name == "" {
		return nil, errors.New("rtti(meta): empty descriptor name")
	}
	if align == 0 || align&(align-1) != 0 {
		return nil, errors.Errorf("rtti(meta): invalid alignment %d for %s", align, name)
	}
	d := &Descriptor{
		name:        name,
		size:        size,
		align:       align,
		kind:        kind,
		ops:         ops,
		caps:        ops.Capabilities(),
		pointerFree: true,
	}
	if kind == KindClass {
		d.class = &Class{desc: d}
	}
	table.mu.Lock()
	defer table.mu.Unlock()
	return d, publishLocked(d)
}

// MustDefine is like Define but panics on error.
func MustDefine(name string, size, align uintptr, kind Kind, ops Ops) *Descriptor {
	d, err := Define(name, size, align, kind, ops)
	if err != nil {
		panic(err)
	}
	return d
}

// DefineType publishes a descriptor for rt under an explicit name and table.
func DefineType(rt reflect.Type, name string, kind Kind, ops Ops) (*Descriptor, error) {
	if rt == nil {
		return nil, ErrNilDescriptor
	}
	d := newGoDescriptor(rt, name, kind, ops)
	if kind == KindClass {
		d.class = &Class{desc: d}
	}
	table.mu.Lock()
	defer table.mu.Unlock()
	return d, publishLocked(d)
}

func newGoDescriptor(rt reflect.Type, name string, kind Kind, ops Ops) *Descriptor {
	return &Descriptor{
		name:        name,
		size:        rt.Size(),
		align:       uintptr(rt.Align()),
		kind:        kind,
		ops:         ops,
		caps:        ops.Capabilities(),
		goType:      rt,
		pointerFree: isPointerFree(rt),
	}
}

func publishLocked(d *Descriptor) error {
	if _, ok := table.byName.Load(d.name); ok {
		return errors.Wrapf(ErrAlreadyDefined, "name %q", d.name)
	}
	if d.goType != nil {
		if old, ok := table.byType.Load(d.goType); ok {
			return errors.Wrapf(ErrAlreadyDefined, "go type %s is already described as %q",
				d.goType, old.(*Descriptor).name)
		}
		table.byType.Store(d.goType, d)
	}
	table.byName.Store(d.name, d)
	return nil
}

func unpublishLocked(d *Descriptor) {
	table.byName.Delete(d.name)
	if d.goType != nil {
		table.byType.Delete(d.goType)
	}
}

func isPointerFree(rt reflect.Type) bool {
	switch rt.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return rt.Len() == 0 || isPointerFree(rt.Elem())
	case reflect.Struct:
		for i := range rt.NumField() {
			if !isPointerFree(rt.Field(i).Type) {
				return false
			}
		}
		return true
	}
	return false
}

// mustPublish is used for builtin descriptors created during package init.
func mustPublish(d *Descriptor) *Descriptor {
	table.mu.Lock()
	defer table.mu.Unlock()
	if err := publishLocked(d); err != nil {
		panic(fmt.Sprintf("rtti(meta): builtin %s: %v", d.name, err))
	}
	return d
}
