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
	"strings"
	"unsafe"

	"github.com/pkg/errors"
)

// Addressable is a typed slot: an address and the QualType stored there.
type Addressable interface {
	Addr() unsafe.Pointer
	Type() QualType
}

// CallFunc is the single type-erased entry point of a Function. ret is nil
// for void calls or when the caller discards the result; args holds one
// address per declared parameter.
type CallFunc func(obj, ret unsafe.Pointer, args []unsafe.Pointer) error

// Parameter is one declared function parameter.
type Parameter struct {
	name  string
	typ   QualType
	index int
}

// Name returns the parameter name.
func (p Parameter) Name() string { return p.name }

// Type returns the declared parameter type.
func (p Parameter) Type() QualType { return p.typ }

// Index returns the zero-based parameter position.
func (p Parameter) Index() int { return p.index }

// Function is a type-erased member function.
type Function struct {
	name   string
	ret    QualType
	params []Parameter
	call   CallFunc
}

// NewFunction describes a member function. names is the comma-separated list
// of parameter names and must have one entry per parameter. An empty ret
// declares a void function.
func NewFunction(name string, ret QualType, params []QualType, names string, call CallFunc) (*Function, error) {
	var list []string
	if strings.TrimSpace(names) != "" {
		list = strings.Split(names, ",")
	}
	if len(list) != len(params) {
		return nil, errors.Wrapf(ErrParameterNames, "function %s declares %d parameters but %d names (%q)",
			name, len(params), len(list), names)
	}
	f := &Function{name: name, ret: ret, call: call, params: make([]Parameter, len(params))}
	for i, q := range params {
		f.params[i] = Parameter{name: strings.TrimSpace(list[i]), typ: q, index: i}
	}
	return f, nil
}

// MustFunction is like NewFunction but panics on error.
func MustFunction(name string, ret QualType, params []QualType, names string, call CallFunc) *Function {
	f, err := NewFunction(name, ret, params, names, call)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the function name.
func (f *Function) Name() string { return f.name }

// Return returns the declared return type; empty for void functions.
func (f *Function) Return() QualType { return f.ret }

// IsVoid reports whether the function returns nothing.
func (f *Function) IsVoid() bool { return f.ret.IsEmpty() }

// NumParam returns the number of declared parameters.
func (f *Function) NumParam() int { return len(f.params) }

// Param returns parameter i.
func (f *Function) Param(i int) Parameter { return f.params[i] }

// Invoke calls the function on obj. Every argument must match its declared
// parameter type exactly. ret receives the result when non-nil.
func (f *Function) Invoke(obj, ret unsafe.Pointer, args ...Addressable) error {
	if len(args) != len(f.params) {
		return errors.Wrapf(ErrMismatchingArguments, "function %s expects %d arguments, got %d",
			f.name, len(f.params), len(args))
	}
	addrs := make([]unsafe.Pointer, len(args))
	for i, a := range args {
		p := f.params[i]
		if !a.Type().Equal(p.typ) {
			return errors.Wrapf(ErrMismatchingArguments, "function %s parameter %d (%s): expected %s, provided %s",
				f.name, i, p.name, p.typ, a.Type())
		}
		addrs[i] = a.Addr()
	}
	if err := f.call(obj, ret, addrs); err != nil {
		return errors.Wrapf(err, "invoke %s", f.name)
	}
	return nil
}

// Method0 describes func(*T) R.
func Method0[T, R any](name string, fn func(*T) R) *Function {
	return MustFunction(name, QualOf[R](), nil, "", func(obj, ret unsafe.Pointer, _ []unsafe.Pointer) error {
		r := fn((*T)(obj))
		if ret != nil {
			*(*R)(ret) = r
		}
		return nil
	})
}

// Method1 describes func(*T, A) R.
func Method1[T, A, R any](name, paramNames string, fn func(*T, A) R) *Function {
	return MustFunction(name, QualOf[R](), []QualType{QualOf[A]()}, paramNames,
		func(obj, ret unsafe.Pointer, args []unsafe.Pointer) error {
			r := fn((*T)(obj), *(*A)(args[0]))
			if ret != nil {
				*(*R)(ret) = r
			}
			return nil
		})
}

// Method2 describes func(*T, A, B) R.
func Method2[T, A, B, R any](name, paramNames string, fn func(*T, A, B) R) *Function {
	return MustFunction(name, QualOf[R](), []QualType{QualOf[A](), QualOf[B]()}, paramNames,
		func(obj, ret unsafe.Pointer, args []unsafe.Pointer) error {
			r := fn((*T)(obj), *(*A)(args[0]), *(*B)(args[1]))
			if ret != nil {
				*(*R)(ret) = r
			}
			return nil
		})
}

// Action1 describes the void func(*T, A).
func Action1[T, A any](name, paramNames string, fn func(*T, A)) *Function {
	return MustFunction(name, QualType{}, []QualType{QualOf[A]()}, paramNames,
		func(obj, _ unsafe.Pointer, args []unsafe.Pointer) error {
			fn((*T)(obj), *(*A)(args[0]))
			return nil
		})
}

// Action2 describes the void func(*T, A, B).
func Action2[T, A, B any](name, paramNames string, fn func(*T, A, B)) *Function {
	return MustFunction(name, QualType{}, []QualType{QualOf[A](), QualOf[B]()}, paramNames,
		func(obj, _ unsafe.Pointer, args []unsafe.Pointer) error {
			fn((*T)(obj), *(*A)(args[0]), *(*B)(args[1]))
			return nil
		})
}
