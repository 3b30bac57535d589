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

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedOperation is returned when an operation table lacks the entry
	// a caller needs (construct, copy, compare, stringify, parse, ...).
	ErrUnsupportedOperation = errors.New("rtti(meta): unsupported operation")
	// ErrUnsupportedType is returned when a Go type cannot be described
	// (maps, channels, funcs, interfaces).
	ErrUnsupportedType = errors.New("rtti(meta): unsupported type")
	// ErrAlreadyDefined is returned when a descriptor name or Go type is defined twice.
	ErrAlreadyDefined = errors.New("rtti(meta): descriptor already defined")
	// ErrDuplicateMember is returned when a class hierarchy declares the same
	// property or function name twice.
	ErrDuplicateMember = errors.New("rtti(meta): duplicate member name")
	// ErrParameterNames is returned when a function's parameter name list does not
	// match its parameter count.
	ErrParameterNames = errors.New("rtti(meta): parameter name count mismatch")
	// ErrMismatchingArguments is returned when a function is invoked with the wrong
	// number or types of arguments.
	ErrMismatchingArguments = errors.New("rtti(meta): mismatching arguments")
	// ErrNotSettable is returned when a property has no setter or is const-qualified.
	ErrNotSettable = errors.New("rtti(meta): property not settable")
	// ErrInternalLimit is returned when the indirection level count exceeds MaxLevels.
	ErrInternalLimit = errors.New("rtti(meta): internal limit exceeded")
	// ErrNilDescriptor is returned when a nil descriptor is provided.
	ErrNilDescriptor = errors.New("rtti(meta): nil descriptor provided")
	// ErrNotClass is returned when a class-only operation is applied to another kind.
	ErrNotClass = errors.New("rtti(meta): descriptor is not a class")
)

// Parse error sentinels. ParseError unwraps to one of these.
var (
	ErrUnexpectedChar       = errors.New("rtti(meta): unexpected character")
	ErrMissingExpectedChars = errors.New("rtti(meta): missing expected characters")
	ErrTrailingChars        = errors.New("rtti(meta): trailing characters after value")
	ErrNoParser             = errors.New("rtti(meta): no parser registered")
	ErrOutOfMemory          = errors.New("rtti(meta): out of memory")
	ErrUnknownType          = errors.New("rtti(meta): unknown type name")
)

// ParseError reports where parsing stopped and why.
type ParseError struct {
	// Code is one of the parse error sentinels.
	Code error
	// Pos is the byte offset into Input at which the error was detected.
	Pos int
	// Input is the text being parsed.
	Input string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at offset %d in %q", e.Code, e.Pos, e.Input)
}

// Unwrap returns the sentinel code so errors.Is works.
func (e *ParseError) Unwrap() error { return e.Code }

func parseErr(code error, pos int, input string) error {
	return &ParseError{Code: code, Pos: pos, Input: input}
}

// unsupported wraps ErrUnsupportedOperation naming the type and the missing capability.
func unsupported(d *Descriptor, c Capability) error {
	name := "<nil>"
	if d != nil {
		name = d.Name()
	}
	return errors.Wrapf(ErrUnsupportedOperation, "type %s is not %s", name, c)
}
