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
	"unsafe"

	"github.com/pkg/errors"
)

// Property is a type-erased accessor over one member of a class. It is either
// in-place (the value lives at a fixed offset inside the object) or
// accessor-based (the value is produced and consumed by get/set functions).
type Property struct {
	name    string
	typ     QualType
	inPlace bool
	offset  uintptr
	get     func(obj, dst unsafe.Pointer) error
	set     func(obj, src unsafe.Pointer) error
}

// FieldProperty describes a value stored at offset inside the object.
func FieldProperty(name string, offset uintptr, typ QualType) *Property {
	return &Property{name: name, typ: typ, inPlace: true, offset: offset}
}

// AccessorProperty describes a value produced by get and consumed by set.
// get writes into uninitialized storage of typ's primary type. A nil set
// makes the property read-only.
func AccessorProperty(name string, typ QualType, get, set func(obj, p unsafe.Pointer) error) *Property {
	return &Property{name: name, typ: typ, get: get, set: set}
}

// Field is FieldProperty with the type taken from F.
func Field[F any](name string, offset uintptr) *Property {
	return FieldProperty(name, offset, QualOf[F]())
}

// Accessor is AccessorProperty over typed getter and setter functions.
// set may be nil.
func Accessor[T, F any](name string, get func(*T) F, set func(*T, F)) *Property {
	p := &Property{
		name: name,
		typ:  QualOf[F](),
		get: func(obj, dst unsafe.Pointer) error {
			*(*F)(dst) = get((*T)(obj))
			return nil
		},
	}
	if set != nil {
		p.set = func(obj, src unsafe.Pointer) error {
			set((*T)(obj), *(*F)(src))
			return nil
		}
	}
	return p
}

// Name returns the property name.
func (p *Property) Name() string { return p.name }

// Type returns the declared type.
func (p *Property) Type() QualType { return p.typ }

// InPlace reports whether the value lives inside the object.
func (p *Property) InPlace() bool { return p.inPlace }

// Offset returns the byte offset of an in-place property.
func (p *Property) Offset() uintptr { return p.offset }

// Settable reports whether Set can succeed: an in-place property whose type is
// not top-level const, or an accessor property with a setter.
func (p *Property) Settable() bool {
	if p.inPlace {
		return !p.typ.IsConst(0)
	}
	return p.set != nil
}

// Addr returns the address of an in-place value inside obj, or nil for
// accessor-based properties.
func (p *Property) Addr(obj unsafe.Pointer) unsafe.Pointer {
	if !p.inPlace {
		return nil
	}
	return unsafe.Add(obj, p.offset)
}

// Get materializes the value of the property of obj into dst, which must be
// uninitialized storage of the property's primary type.
func (p *Property) Get(obj, dst unsafe.Pointer) error {
	if p.inPlace {
		d := p.typ.PrimaryType()
		if d.ops.CopyConstruct == nil {
			return errors.Wrapf(unsupported(d, CanCopyConstruct), "get property %s", p.name)
		}
		d.ops.CopyConstruct(dst, unsafe.Add(obj, p.offset))
		return nil
	}
	if err := p.get(obj, dst); err != nil {
		return errors.Wrapf(err, "get property %s", p.name)
	}
	return nil
}

// Set stores the value at src into the property of obj.
func (p *Property) Set(obj, src unsafe.Pointer) error {
	if !p.Settable() {
		return errors.Wrapf(ErrNotSettable, "property %s of type %s", p.name, p.typ)
	}
	if p.inPlace {
		d := p.typ.PrimaryType()
		if d.ops.CopyAssign == nil {
			return errors.Wrapf(unsupported(d, CanCopyAssign), "set property %s", p.name)
		}
		d.ops.CopyAssign(unsafe.Add(obj, p.offset), src)
		return nil
	}
	if err := p.set(obj, src); err != nil {
		return errors.Wrapf(err, "set property %s", p.name)
	}
	return nil
}
