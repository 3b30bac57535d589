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
	"github.com/pkg/errors"

	"dirpx.dev/rtti/iter"
	"dirpx.dev/rtti/meta"
	"dirpx.dev/rtti/object"
)

// InvokeFunction parses call as "name(arg, arg, ...)", parses each argument
// with its parameter type's parser and invokes the function on obj. The
// result is empty for void functions. Results of pointer type cannot be held
// by value: the function is still invoked, its result is discarded and the
// returned Value is empty.
func InvokeFunction(obj object.Ptr, call string) (*object.Value, error) {
	name, pos, err := scanIdentifier(call, skipSpaces(call, 0))
	if err != nil {
		return nil, err
	}
	d, err := classOf(obj)
	if err != nil {
		return nil, err
	}
	if obj.IsNil() {
		return nil, object.ErrNilAddress
	}
	f, sub, ok := iter.FindFunction(d, obj.Addr(), name)
	if !ok {
		return nil, errors.Wrapf(ErrNoSuchFunction, "%s in class %s", name, d.Name())
	}

	pos = skipSpaces(call, pos)
	if pos >= len(call) {
		return nil, &meta.ParseError{Code: meta.ErrMissingExpectedChars, Pos: pos, Input: call}
	}
	if call[pos] != '(' {
		return nil, &meta.ParseError{Code: meta.ErrUnexpectedChar, Pos: pos, Input: call}
	}
	pos++

	args, pos, err := parseArguments(f, call, pos)
	defer func() {
		for _, a := range args {
			a.Reset()
		}
	}()
	if err != nil {
		return nil, err
	}
	if pos = skipSpaces(call, pos); pos != len(call) {
		return nil, &meta.ParseError{Code: meta.ErrTrailingChars, Pos: pos, Input: call}
	}

	addrs := make([]meta.Addressable, len(args))
	for i, a := range args {
		addrs[i] = a.Ptr()
	}
	ret := &object.Value{}
	if !f.IsVoid() && !f.Return().IsPointer() {
		if err := ret.Assign(f.Return()); err != nil {
			return nil, errors.Wrapf(err, "result of %s", f.Name())
		}
	}
	if err := f.Invoke(sub, ret.Addr(), addrs...); err != nil {
		ret.Reset()
		return nil, err
	}
	return ret, nil
}

// parseArguments reads the argument list up to and including ')'.
func parseArguments(f *meta.Function, call string, pos int) ([]*object.Value, int, error) {
	var args []*object.Value
	pos = skipSpaces(call, pos)
	if pos < len(call) && call[pos] == ')' {
		if f.NumParam() != 0 {
			return args, pos, argCount(f, 0)
		}
		return args, pos + 1, nil
	}
	for i := 0; ; i++ {
		if i >= f.NumParam() {
			return args, pos, argCount(f, i+countRemaining(call, pos))
		}
		v, err := object.NewValue(f.Param(i).Type())
		if err != nil {
			return args, pos, errors.Wrapf(err, "function %s parameter %d (%s)", f.Name(), i, f.Param(i).Name())
		}
		args = append(args, v)

		pos = skipSpaces(call, pos)
		n, err := v.Parse(call[pos:])
		if err != nil {
			return args, pos, errors.Wrapf(shift(err, pos, call), "function %s parameter %d (%s)", f.Name(), i, f.Param(i).Name())
		}
		pos = skipSpaces(call, pos+n)
		if pos >= len(call) {
			return args, pos, &meta.ParseError{Code: meta.ErrMissingExpectedChars, Pos: pos, Input: call}
		}
		switch call[pos] {
		case ')':
			if i+1 != f.NumParam() {
				return args, pos, argCount(f, i+1)
			}
			return args, pos + 1, nil
		case ',':
			pos++
		default:
			return args, pos, &meta.ParseError{Code: meta.ErrUnexpectedChar, Pos: pos, Input: call}
		}
	}
}

func argCount(f *meta.Function, got int) error {
	return errors.Wrapf(meta.ErrMismatchingArguments, "function %s expects %d arguments, got %d",
		f.Name(), f.NumParam(), got)
}

// countRemaining counts the comma-separated arguments left before the
// closing parenthesis, skipping over quoted text.
func countRemaining(call string, pos int) int {
	n := 1
	quoted := false
	for i := pos; i < len(call); i++ {
		switch c := call[i]; {
		case quoted && c == '\\':
			i++
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == ',':
			n++
		case c == ')':
			return n
		}
	}
	return n
}

// shift rebases a parse error from an argument onto the whole call text.
func shift(err error, pos int, call string) error {
	var pe *meta.ParseError
	if errors.As(err, &pe) {
		return &meta.ParseError{Code: pe.Code, Pos: pos + pe.Pos, Input: call}
	}
	return err
}

func scanIdentifier(s string, i int) (string, int, error) {
	start := i
	if i >= len(s) {
		return "", i, &meta.ParseError{Code: meta.ErrMissingExpectedChars, Pos: i, Input: s}
	}
	if !identStart(s[i]) {
		return "", i, &meta.ParseError{Code: meta.ErrUnexpectedChar, Pos: i, Input: s}
	}
	for i < len(s) && identChar(s[i]) {
		i++
	}
	return s[start:i], i, nil
}

// checkIdentifier accepts exactly [A-Za-z_][A-Za-z0-9_]*.
func checkIdentifier(name string) error {
	_, n, err := scanIdentifier(name, 0)
	if err != nil {
		return err
	}
	if n != len(name) {
		return &meta.ParseError{Code: meta.ErrUnexpectedChar, Pos: n, Input: name}
	}
	return nil
}

func identStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func identChar(c byte) bool {
	return identStart(c) || (c >= '0' && c <= '9')
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
