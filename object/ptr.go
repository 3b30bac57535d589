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
	"unsafe"

	"github.com/pkg/errors"

	"dirpx.dev/rtti/meta"
)

var (
	// ErrIndirection is returned when an owning value is asked to hold a pointer type.
	ErrIndirection = errors.New("rtti(object): indirection types cannot be held by value")
	// ErrEmpty is returned when an operation needs a type or a value and has none.
	ErrEmpty = errors.New("rtti(object): empty handle")
	// ErrNilAddress is returned when a handle with a nil address is dereferenced.
	ErrNilAddress = errors.New("rtti(object): nil address")
)

// Ptr is a non-owning handle: an address and the QualType stored there. It
// never allocates or frees and is only valid while the storage is.
type Ptr struct {
	addr unsafe.Pointer
	typ  meta.QualType
}

// Ensure Ptr can be passed as a function argument.
var _ meta.Addressable = Ptr{}

// RawPtr returns a view of addr typed as typ.
func RawPtr(addr unsafe.Pointer, typ meta.QualType) Ptr {
	return Ptr{addr: addr, typ: typ}
}

// PtrTo returns a view of *v typed by T.
func PtrTo[T any](v *T) Ptr {
	return Ptr{addr: unsafe.Pointer(v), typ: meta.QualOf[T]()}
}

// Addr returns the address of the level 0 slot.
func (p Ptr) Addr() unsafe.Pointer { return p.addr }

// Type returns the QualType of the slot.
func (p Ptr) Type() meta.QualType { return p.typ }

// IsNil reports whether the address is nil.
func (p Ptr) IsNil() bool { return p.addr == nil }

// IsEmpty reports whether the handle has no type.
func (p Ptr) IsEmpty() bool { return p.typ.IsEmpty() }

// FullIndirection follows every indirection level down to the final value.
// If a pointer along the chain is nil the walk stops there and the result
// has a nil address and the QualType of the level that could not be reached.
func (p Ptr) FullIndirection() Ptr {
	for p.typ.IndirectionLevels() > 0 {
		if p.addr == nil {
			return p
		}
		p = Ptr{addr: *(*unsafe.Pointer)(p.addr), typ: p.typ.Deref()}
	}
	return p
}

// Format renders the value with its primary type's stringify entry.
func (p Ptr) Format() (string, error) {
	if p.typ.IsEmpty() {
		return "", ErrEmpty
	}
	if p.addr == nil {
		return "", ErrNilAddress
	}
	d := p.typ.PrimaryType()
	if err := d.Supports(meta.CanFormat); err != nil {
		return "", err
	}
	return d.Ops().Format(p.addr), nil
}

// Equal compares two handles of identical QualType through the Equal entry.
func (p Ptr) Equal(o Ptr) (bool, error) {
	d, err := comparableDesc(p, o, meta.CanEqual)
	if err != nil {
		return false, err
	}
	return d.Ops().Equal(p.addr, o.addr), nil
}

// Compare orders two handles of identical QualType through the Compare entry.
func (p Ptr) Compare(o Ptr) (int, error) {
	d, err := comparableDesc(p, o, meta.CanCompare)
	if err != nil {
		return 0, err
	}
	return d.Ops().Compare(p.addr, o.addr), nil
}

func comparableDesc(p, o Ptr, c meta.Capability) (*meta.Descriptor, error) {
	if p.typ.IsEmpty() || o.typ.IsEmpty() {
		return nil, ErrEmpty
	}
	if !p.typ.Equal(o.typ) {
		return nil, errors.Wrapf(meta.ErrUnsupportedOperation, "cannot compare %s with %s", p.typ, o.typ)
	}
	if p.addr == nil || o.addr == nil {
		return nil, ErrNilAddress
	}
	d := p.typ.PrimaryType()
	return d, d.Supports(c)
}

// Class returns the class of the final type, or nil.
func (p Ptr) Class() *meta.Class {
	if p.typ.IsEmpty() {
		return nil
	}
	return p.typ.FinalType().Class()
}
