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

package inspect

import (
	"strings"
	"unsafe"

	"github.com/pkg/errors"

	"dirpx.dev/rtti/iter"
	"dirpx.dev/rtti/meta"
	"dirpx.dev/rtti/object"
)

var (
	// ErrNoSuchProperty is returned when no property of the class hierarchy has the name.
	ErrNoSuchProperty = errors.New("rtti(inspect): no such property")
	// ErrNoSuchFunction is returned when no function of the class hierarchy has the name.
	ErrNoSuchFunction = errors.New("rtti(inspect): no such function")
	// ErrTypeMismatch is returned when a value does not have the property's type.
	ErrTypeMismatch = errors.New("rtti(inspect): value type does not match")
)

// GetPropertyValue returns an owning copy of the property called name.
func GetPropertyValue(obj object.Ptr, name string) (*object.Value, error) {
	p, sub, err := property(obj, name)
	if err != nil {
		return nil, err
	}
	v, err := object.NewValue(p.Type())
	if err != nil {
		return nil, errors.Wrapf(err, "property %s", name)
	}
	if err := p.Get(sub, v.Addr()); err != nil {
		v.Reset()
		return nil, err
	}
	return v, nil
}

// SetPropertyValue stores the value val refers to into the property called
// name. val must have the property's final type and indirection depth.
func SetPropertyValue(obj object.Ptr, name string, val meta.Addressable) error {
	p, sub, err := property(obj, name)
	if err != nil {
		return err
	}
	want, got := p.Type(), val.Type()
	if got.FinalType() != want.FinalType() || got.IndirectionLevels() != want.IndirectionLevels() {
		return errors.Wrapf(ErrTypeMismatch, "property %s expects %s, provided %s", name, want, got)
	}
	if val.Addr() == nil {
		return errors.Wrapf(object.ErrNilAddress, "value for property %s", name)
	}
	return p.Set(sub, val.Addr())
}

// SetPropertyText parses text with the property type's parser and stores the
// result. Surrounding spaces are ignored; anything else left over is an error.
func SetPropertyText(obj object.Ptr, name, text string) error {
	p, _, err := property(obj, name)
	if err != nil {
		return err
	}
	v, err := object.NewValue(p.Type())
	if err != nil {
		return errors.Wrapf(err, "property %s", name)
	}
	defer v.Reset()

	trimmed := strings.TrimSpace(text)
	n, err := v.Parse(trimmed)
	if err != nil {
		return errors.Wrapf(err, "property %s", name)
	}
	if n != len(trimmed) {
		return errors.Wrapf(&meta.ParseError{Code: meta.ErrTrailingChars, Pos: n, Input: trimmed}, "property %s", name)
	}
	return SetPropertyValue(obj, name, v.Ptr())
}

// FormatPropertyValue renders the property called name as text.
func FormatPropertyValue(obj object.Ptr, name string) (string, error) {
	v, err := GetPropertyValue(obj, name)
	if err != nil {
		return "", err
	}
	defer v.Reset()
	return v.Format()
}

// Properties lists the property names of obj's class in iteration order.
func Properties(obj object.Ptr) ([]string, error) {
	d, err := classOf(obj)
	if err != nil {
		return nil, err
	}
	var out []string
	it := iter.NewProperties(d, nil)
	for it.Next() {
		out = append(out, it.Property().Name())
	}
	return out, nil
}

func property(obj object.Ptr, name string) (*meta.Property, unsafe.Pointer, error) {
	if err := checkIdentifier(name); err != nil {
		return nil, nil, err
	}
	d, err := classOf(obj)
	if err != nil {
		return nil, nil, err
	}
	if obj.IsNil() {
		return nil, nil, object.ErrNilAddress
	}
	p, sub, ok := iter.FindProperty(d, obj.Addr(), name)
	if !ok {
		return nil, nil, errors.Wrapf(ErrNoSuchProperty, "%s in class %s", name, d.Name())
	}
	return p, sub, nil
}

// classOf returns the class descriptor obj refers to, looking through
// indirections.
func classOf(obj object.Ptr) (*meta.Descriptor, error) {
	if obj.IsEmpty() {
		return nil, object.ErrEmpty
	}
	if obj.Type().IsPointer() {
		return nil, errors.Wrapf(meta.ErrNotClass, "%s is an indirection", obj.Type())
	}
	d := obj.Type().FinalType()
	if d.Class() == nil {
		return nil, errors.Wrapf(meta.ErrNotClass, "type %s", d.Name())
	}
	return d, nil
}
