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
	"reflect"
	"strconv"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// EnumValue is one named enumeration constant.
type EnumValue struct {
	Name  string
	Value int64
}

// EnumInfo lists the constants of an enumeration descriptor.
type EnumInfo struct {
	values []EnumValue
}

// Values returns the constants in declaration order.
func (e *EnumInfo) Values() []EnumValue { return append([]EnumValue(nil), e.values...) }

// NameOf returns the name of v, if v is a declared constant.
func (e *EnumInfo) NameOf(v int64) (string, bool) {
	for _, ev := range e.values {
		if ev.Value == v {
			return ev.Name, true
		}
	}
	return "", false
}

// ValueOf returns the value of the constant called name.
func (e *EnumInfo) ValueOf(name string) (int64, bool) {
	for _, ev := range e.values {
		if ev.Name == name {
			return ev.Value, true
		}
	}
	return 0, false
}

// DefineEnum publishes an enumeration descriptor for the integer type T.
// Values stringify by name and parse from either a name or a number.
func DefineEnum[T constraints.Integer](name string, values ...EnumValue) (*Descriptor, error) {
	info := &EnumInfo{values: append([]EnumValue(nil), values...)}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v.Name] {
			return nil, errors.Wrapf(ErrDuplicateMember, "enum %s declares %q twice", name, v.Name)
		}
		seen[v.Name] = true
	}
	ops := OrderedOps[T]()
	ops.Format = func(p unsafe.Pointer) string {
		v := int64(*(*T)(p))
		if n, ok := info.NameOf(v); ok {
			return n
		}
		return strconv.FormatInt(v, 10)
	}
	ops.Parse = func(dst unsafe.Pointer, text string) (int, error) {
		i := 0
		for i < len(text) && isNameChar(text[i]) && text[i] != '.' {
			i++
		}
		if i > 0 && isLetter(text[0]) {
			v, ok := info.ValueOf(text[:i])
			if !ok {
				return 0, parseErr(ErrUnexpectedChar, 0, text)
			}
			*(*T)(dst) = T(v)
			return i, nil
		}
		n := scanInteger(text, true)
		if err := scanErr(text, n); err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(text[:n], 10, 64)
		if err != nil {
			return 0, parseErr(ErrInternalLimit, 0, text)
		}
		*(*T)(dst) = T(v)
		return n, nil
	}
	d := newGoDescriptor(reflect.TypeFor[T](), name, KindEnum, ops)
	d.enum = info
	table.mu.Lock()
	defer table.mu.Unlock()
	if err := publishLocked(d); err != nil {
		return nil, err
	}
	return d, nil
}
