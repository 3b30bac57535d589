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
	"strings"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Ops is a per-type operation table. Every entry is optional; a nil entry
// means the operation is unsupported and callers must check before use.
type Ops struct {
	// Construct default-constructs a value in uninitialized storage.
	Construct func(p unsafe.Pointer)
	// CopyConstruct constructs dst as a copy of src.
	CopyConstruct func(dst, src unsafe.Pointer)
	// MoveConstruct constructs dst from src, leaving src in its default state.
	MoveConstruct func(dst, src unsafe.Pointer)
	// CopyAssign overwrites a constructed dst with a copy of src.
	CopyAssign func(dst, src unsafe.Pointer)
	// MoveAssign overwrites a constructed dst with src, leaving src default.
	MoveAssign func(dst, src unsafe.Pointer)
	// Destroy releases whatever a constructed value holds.
	Destroy func(p unsafe.Pointer)
	// Equal reports whether two values are equal.
	Equal func(a, b unsafe.Pointer) bool
	// Compare orders two values (-1, 0, +1).
	Compare func(a, b unsafe.Pointer) int
	// Format renders a value as text.
	Format func(p unsafe.Pointer) string
	// Parse reads a value from the start of text into constructed storage and
	// returns the number of bytes consumed.
	Parse func(dst unsafe.Pointer, text string) (int, error)
}

// Capabilities returns the set of entries present in the table.
func (o *Ops) Capabilities() Capability {
	var c Capability
	set := func(ok bool, f Capability) {
		if ok {
			c |= f
		}
	}
	set(o.Construct != nil, CanConstruct)
	set(o.CopyConstruct != nil, CanCopyConstruct)
	set(o.MoveConstruct != nil, CanMoveConstruct)
	set(o.CopyAssign != nil, CanCopyAssign)
	set(o.MoveAssign != nil, CanMoveAssign)
	set(o.Destroy != nil, CanDestroy)
	set(o.Equal != nil, CanEqual)
	set(o.Compare != nil, CanCompare)
	set(o.Format != nil, CanFormat)
	set(o.Parse != nil, CanParse)
	return c
}

// ValueOps returns the construct/copy/move/destroy entries for a plain Go type.
func ValueOps[T any]() Ops {
	zero := func(p unsafe.Pointer) {
		var z T
		*(*T)(p) = z
	}
	cp := func(dst, src unsafe.Pointer) { *(*T)(dst) = *(*T)(src) }
	mv := func(dst, src unsafe.Pointer) {
		*(*T)(dst) = *(*T)(src)
		zero(src)
	}
	return Ops{
		Construct:     zero,
		CopyConstruct: cp,
		MoveConstruct: mv,
		CopyAssign:    cp,
		MoveAssign:    mv,
		Destroy:       zero,
	}
}

// ComparableOps extends ValueOps with Equal.
func ComparableOps[T comparable]() Ops {
	o := ValueOps[T]()
	o.Equal = func(a, b unsafe.Pointer) bool { return *(*T)(a) == *(*T)(b) }
	return o
}

// OrderedOps extends ComparableOps with Compare.
func OrderedOps[T constraints.Ordered]() Ops {
	o := ComparableOps[T]()
	o.Compare = func(a, b unsafe.Pointer) int {
		x, y := *(*T)(a), *(*T)(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return o
}

func signedOps[T constraints.Signed](bits int) Ops {
	o := OrderedOps[T]()
	o.Format = func(p unsafe.Pointer) string { return strconv.FormatInt(int64(*(*T)(p)), 10) }
	o.Parse = func(dst unsafe.Pointer, text string) (int, error) {
		n := scanInteger(text, true)
		if err := scanErr(text, n); err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(text[:n], 10, bits)
		if err != nil {
			return 0, parseErr(ErrInternalLimit, 0, text)
		}
		*(*T)(dst) = T(v)
		return n, nil
	}
	return o
}

func unsignedOps[T constraints.Unsigned](bits int) Ops {
	o := OrderedOps[T]()
	o.Format = func(p unsafe.Pointer) string { return strconv.FormatUint(uint64(*(*T)(p)), 10) }
	o.Parse = func(dst unsafe.Pointer, text string) (int, error) {
		n := scanInteger(text, false)
		if err := scanErr(text, n); err != nil {
			return 0, err
		}
		v, err := strconv.ParseUint(text[:n], 10, bits)
		if err != nil {
			return 0, parseErr(ErrInternalLimit, 0, text)
		}
		*(*T)(dst) = T(v)
		return n, nil
	}
	return o
}

func floatOps[T constraints.Float](bits int) Ops {
	o := OrderedOps[T]()
	o.Format = func(p unsafe.Pointer) string { return strconv.FormatFloat(float64(*(*T)(p)), 'g', -1, bits) }
	o.Parse = func(dst unsafe.Pointer, text string) (int, error) {
		n := scanFloat(text)
		if err := scanErr(text, n); err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(text[:n], bits)
		if err != nil {
			return 0, parseErr(ErrUnexpectedChar, 0, text)
		}
		*(*T)(dst) = T(v)
		return n, nil
	}
	return o
}

func boolOps() Ops {
	o := ComparableOps[bool]()
	o.Format = func(p unsafe.Pointer) string { return strconv.FormatBool(*(*bool)(p)) }
	o.Parse = func(dst unsafe.Pointer, text string) (int, error) {
		switch {
		case strings.HasPrefix(text, "true"):
			*(*bool)(dst) = true
			return 4, nil
		case strings.HasPrefix(text, "false"):
			*(*bool)(dst) = false
			return 5, nil
		case text == "":
			return 0, parseErr(ErrMissingExpectedChars, 0, text)
		}
		return 0, parseErr(ErrUnexpectedChar, 0, text)
	}
	return o
}

func stringOps() Ops {
	o := OrderedOps[string]()
	o.Format = func(p unsafe.Pointer) string { return strconv.Quote(*(*string)(p)) }
	o.Parse = func(dst unsafe.Pointer, text string) (int, error) {
		if text == "" {
			return 0, parseErr(ErrMissingExpectedChars, 0, text)
		}
		q, err := strconv.QuotedPrefix(text)
		if err != nil {
			return 0, parseErr(ErrUnexpectedChar, 0, text)
		}
		s, err := strconv.Unquote(q)
		if err != nil {
			return 0, parseErr(ErrUnexpectedChar, 0, text)
		}
		*(*string)(dst) = s
		return len(q), nil
	}
	return o
}

// ReflectOps builds an operation table for an arbitrary Go type using reflect.
// Equal uses reflect.DeepEqual.
func ReflectOps(rt reflect.Type) Ops {
	at := func(p unsafe.Pointer) reflect.Value { return reflect.NewAt(rt, p).Elem() }
	zero := func(p unsafe.Pointer) { at(p).SetZero() }
	cp := func(dst, src unsafe.Pointer) { at(dst).Set(at(src)) }
	mv := func(dst, src unsafe.Pointer) {
		at(dst).Set(at(src))
		zero(src)
	}
	return Ops{
		Construct:     zero,
		CopyConstruct: cp,
		MoveConstruct: mv,
		CopyAssign:    cp,
		MoveAssign:    mv,
		Destroy:       zero,
		Equal: func(a, b unsafe.Pointer) bool {
			return reflect.DeepEqual(at(a).Interface(), at(b).Interface())
		},
	}
}

// scanInteger returns the length of the decimal integer prefix of text.
func scanInteger(text string, signed bool) int {
	i := 0
	if signed && i < len(text) && (text[i] == '-' || text[i] == '+') {
		i++
	}
	start := i
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == start {
		return 0
	}
	return i
}

func scanFloat(text string) int {
	i := scanInteger(text, true)
	if i == 0 && (len(text) == 0 || (text[0] != '.' && text[0] != '-' && text[0] != '+')) {
		return 0
	}
	if i == 0 && len(text) > 0 && (text[0] == '-' || text[0] == '+') {
		i = 1
	}
	if i < len(text) && text[i] == '.' {
		i++
		for i < len(text) && text[i] >= '0' && text[i] <= '9' {
			i++
		}
	}
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		if j := scanInteger(text[i+1:], true); j > 0 {
			i += 1 + j
		}
	}
	return i
}

func scanErr(text string, n int) error {
	if n > 0 {
		return nil
	}
	if text == "" {
		return parseErr(ErrMissingExpectedChars, 0, text)
	}
	return parseErr(ErrUnexpectedChar, 0, text)
}
