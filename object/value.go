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

package object

import (
	"reflect"
	"unsafe"

	"github.com/pkg/errors"

	"dirpx.dev/rtti/meta"
)

// Value is an owning, type-erased value. It allocates storage for its type,
// constructs and destroys through the operation table, and reuses its block
// when reassigned to a layout-compatible type. A Value is exclusively owned;
// Clone produces an independent copy and MoveFrom transfers ownership.
type Value struct {
	block unsafe.Pointer
	typ   meta.QualType
	live  bool
}

// NewValue allocates and default-constructs a value of typ.
func NewValue(typ meta.QualType) (*Value, error) {
	v := &Value{}
	if err := v.Assign(typ); err != nil {
		return nil, err
	}
	return v, nil
}

// Copy allocates a value and copy-constructs it from src.
func Copy(src Ptr) (*Value, error) {
	v := &Value{}
	if err := v.CopyFrom(src); err != nil {
		return nil, err
	}
	return v, nil
}

// ValueOf returns an owning copy of x.
func ValueOf[T any](x T) (*Value, error) {
	return Copy(PtrTo(&x))
}

// Assign replaces the held value with a default-constructed value of typ.
func (v *Value) Assign(typ meta.QualType) error {
	d, err := holdable(typ)
	if err != nil {
		return err
	}
	if err := d.Supports(meta.CanConstruct); err != nil {
		return err
	}
	v.prepare(d)
	d.Ops().Construct(v.block)
	v.typ, v.live = typ, true
	return nil
}

// CopyFrom replaces the held value with a copy of the value src refers to.
func (v *Value) CopyFrom(src Ptr) error {
	d, err := holdable(src.typ)
	if err != nil {
		return err
	}
	if src.addr == nil {
		return ErrNilAddress
	}
	if err := d.Supports(meta.CanCopyConstruct); err != nil {
		return err
	}
	if v.inside(src.addr) {
		if src.addr == v.block && src.typ.Equal(v.typ) {
			return nil
		}
		// The source lives in the held value: copy out before destroying it.
		block := d.Allocate()
		d.Ops().CopyConstruct(block, src.addr)
		v.destroy()
		v.block, v.typ, v.live = block, src.typ, true
		return nil
	}
	v.prepare(d)
	d.Ops().CopyConstruct(v.block, src.addr)
	v.typ, v.live = src.typ, true
	return nil
}

// inside reports whether p points into the storage of the held value.
func (v *Value) inside(p unsafe.Pointer) bool {
	if !v.live || v.block == nil {
		return false
	}
	size := v.typ.FinalType().Size()
	if size == 0 {
		return p == v.block
	}
	off := uintptr(p) - uintptr(v.block)
	return uintptr(p) >= uintptr(v.block) && off < size
}

// MoveFrom takes ownership of o's value, leaving o empty.
func (v *Value) MoveFrom(o *Value) {
	if o == v {
		return
	}
	v.Reset()
	v.block, v.typ, v.live = o.block, o.typ, o.live
	o.block, o.typ, o.live = nil, meta.QualType{}, false
}

// Clone returns an independent copy.
func (v *Value) Clone() (*Value, error) {
	if !v.live {
		return &Value{}, nil
	}
	return Copy(v.Ptr())
}

// Equal compares the held value with o; both must share an identical QualType
// and the type must support equality.
func (v *Value) Equal(o Ptr) (bool, error) {
	if !v.live {
		return false, ErrEmpty
	}
	return v.Ptr().Equal(o)
}

// Ptr returns a non-owning view of the held value.
func (v *Value) Ptr() Ptr {
	if !v.live {
		return Ptr{}
	}
	return Ptr{addr: v.block, typ: v.typ}
}

// Addr returns the storage address, or nil when empty.
func (v *Value) Addr() unsafe.Pointer {
	if !v.live {
		return nil
	}
	return v.block
}

// Type returns the held QualType.
func (v *Value) Type() meta.QualType { return v.typ }

// Empty reports whether no value is held.
func (v *Value) Empty() bool { return !v.live }

// Format renders the held value.
func (v *Value) Format() (string, error) { return v.Ptr().Format() }

// Parse replaces the held value with one parsed from the start of text and
// returns the number of bytes consumed.
func (v *Value) Parse(text string) (int, error) {
	if !v.live {
		return 0, ErrEmpty
	}
	d := v.typ.FinalType()
	if d.Ops().Parse == nil {
		return 0, errors.Wrapf(meta.ErrNoParser, "type %s", d.Name())
	}
	return d.Ops().Parse(v.block, text)
}

// Reset destroys the held value and releases the storage.
func (v *Value) Reset() {
	v.destroy()
	v.block, v.typ = nil, meta.QualType{}
}

// Close is Reset; it lets a Value be released with defer.
func (v *Value) Close() error {
	v.Reset()
	return nil
}

// As returns the held value as T when the value was built from the Go type T.
func As[T any](v *Value) (T, bool) {
	var zero T
	if !v.live || v.typ.FinalType().GoType() != reflect.TypeFor[T]() {
		return zero, false
	}
	return *(*T)(v.block), true
}

// prepare destroys the current value and leaves v.block pointing at storage
// for d, reusing the old block when the layout allows it.
func (v *Value) prepare(d *meta.Descriptor) {
	var old *meta.Descriptor
	if !v.typ.IsEmpty() {
		old = v.typ.FinalType()
	}
	v.destroy()
	if v.block != nil && reusable(old, d) {
		return
	}
	v.block = d.Allocate()
}

func (v *Value) destroy() {
	if !v.live {
		return
	}
	if destroy := v.typ.FinalType().Ops().Destroy; destroy != nil {
		destroy(v.block)
	}
	v.live = false
}

// reusable reports whether a block allocated for old can hold a value of d.
// GC-typed storage is only reused for the same descriptor.
func reusable(old, d *meta.Descriptor) bool {
	if old == nil {
		return false
	}
	if old == d {
		return true
	}
	return old.Size() == d.Size() && old.Align() == d.Align() && old.PointerFree() && d.PointerFree()
}

func holdable(typ meta.QualType) (*meta.Descriptor, error) {
	if typ.IsEmpty() {
		return nil, ErrEmpty
	}
	if typ.IsPointer() {
		return nil, errors.Wrapf(ErrIndirection, "type %s", typ)
	}
	return typ.FinalType(), nil
}
