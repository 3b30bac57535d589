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

package registry

import (
	"reflect"
	"strconv"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dirpx.dev/rtti/apis"
	"dirpx.dev/rtti/meta"
	uref "dirpx.dev/rtti/utils/reflect"
)

// mirrorMu serializes mirroring process-wide: descriptors live in one table
// shared by every registry.
var mirrorMu sync.Mutex

var errorType = reflect.TypeFor[error]()

// Reflect returns the descriptor of t, looking through pointers. Go structs
// not yet described become classes: embedded structs become bases, fields
// become in-place properties and methods on *T with describable signatures
// become functions. Fields and methods whose types cannot be described are
// left out.
func (r *registry) Reflect(t reflect.Type, res apis.Resolver) (*meta.Descriptor, error) {
	if t == nil {
		return nil, ErrNilType
	}
	base, _, err := uref.Unwrap(t, r.cfg.MaxLevels)
	if err != nil {
		return nil, err
	}
	if d, ok := meta.LookupType(base); ok && !d.Provisional() {
		return d, nil
	}
	mirrorMu.Lock()
	defer mirrorMu.Unlock()
	return r.newMirror(res).describe(base)
}

// complete mirrors the members of a provisional class reached while
// registering. Aliases name nothing here: the descriptor is already named.
func (r *registry) complete(d *meta.Descriptor) error {
	if d.GoType() == nil {
		return nil
	}
	mirrorMu.Lock()
	defer mirrorMu.Unlock()
	_, err := r.newMirror(nil).describe(d.GoType())
	return err
}

// mirror is one mirroring pass.
type mirror struct {
	reg *registry
	res apis.Resolver
	// open holds the provisional classes being completed by this pass.
	open map[*meta.Descriptor]bool
}

func (r *registry) newMirror(res apis.Resolver) *mirror {
	return &mirror{reg: r, res: res, open: make(map[*meta.Descriptor]bool)}
}

func (m *mirror) describe(rt reflect.Type) (*meta.Descriptor, error) {
	if d, ok := meta.LookupType(rt); ok {
		if !d.Provisional() || m.open[d] || rt.Kind() != reflect.Struct {
			return d, nil
		}
		return m.populate(rt, meta.Complete(d))
	}
	switch rt.Kind() {
	case reflect.Struct:
		return m.class(rt)
	case reflect.Slice, reflect.Array:
		// Mirror the element first so the container refers to a full class.
		if _, err := m.qual(rt.Elem()); err != nil {
			return nil, err
		}
	}
	return meta.ForType(rt)
}

// qual returns the QualType of rt, mirroring its final type.
func (m *mirror) qual(rt reflect.Type) (meta.QualType, error) {
	base, levels, err := uref.Unwrap(rt, m.reg.cfg.MaxLevels)
	if err != nil {
		return meta.QualType{}, err
	}
	d, err := m.describe(base)
	if err != nil {
		return meta.QualType{}, err
	}
	return meta.MakeQualType(d, make([]meta.Qualifier, levels+1)...)
}

// name picks the class name: the resolver's answer, else the registry alias.
func (m *mirror) name(rt reflect.Type) string {
	if m.res != nil {
		if n := m.res.ResolveType(rt, m.reg.cfg); n != "" {
			return n
		}
	}
	if n, ok := m.reg.LookupName(rt); ok {
		return n
	}
	return ""
}

// reserve publishes the class descriptor under the first free candidate
// name. If the type got described concurrently outside any registry, that
// descriptor is returned instead of a builder.
func (m *mirror) reserve(rt reflect.Type) (*meta.ClassBuilder, *meta.Descriptor, error) {
	candidates := []string{m.name(rt)}
	if rt.PkgPath() != "" {
		candidates = append(candidates, rt.PkgPath()+"."+rt.Name())
	}
	candidates = append(candidates, rt.String())

	ops := meta.ReflectOps(rt)
	var err error
	for _, n := range candidates {
		if n == "" {
			continue
		}
		b := meta.DefineClassType(rt, n, ops)
		if b.Descriptor() != nil {
			return b, nil, nil
		}
		if d, ok := meta.LookupType(rt); ok {
			return nil, d, nil
		}
		_, err = b.Build()
	}
	return nil, nil, err
}

func (m *mirror) class(rt reflect.Type) (*meta.Descriptor, error) {
	b, d, err := m.reserve(rt)
	if b == nil {
		if d != nil && d.Provisional() && !m.open[d] {
			return m.populate(rt, meta.Complete(d))
		}
		return d, err
	}
	return m.populate(rt, b)
}

// populate declares the bases, properties and functions of rt on b and
// builds the class.
func (m *mirror) populate(rt reflect.Type, b *meta.ClassBuilder) (*meta.Descriptor, error) {
	if d := b.Descriptor(); d != nil && d.Provisional() {
		m.open[d] = true
		defer delete(m.open, d)
	}
	cfg := m.reg.cfg
	promoted := make(map[string]bool)
	props := 0
	for i := range rt.NumField() {
		f := rt.Field(i)
		if f.Anonymous {
			if bt, up := embeddedBase(f); bt != nil {
				bd, err := m.describe(bt)
				if err != nil {
					return m.fail(b, err)
				}
				b.Base(bd, up)
				pt := reflect.PointerTo(bt)
				for j := range pt.NumMethod() {
					promoted[pt.Method(j).Name] = true
				}
				continue
			}
		}
		if f.Name == "_" || (cfg.ExportedOnly && !f.IsExported()) {
			continue
		}
		q, err := m.qual(f.Type)
		if err != nil {
			if skippable(err) {
				m.reg.log.Debug("field left out of mirror",
					zap.String("type", rt.String()), zap.String("field", f.Name), zap.Error(err))
				continue
			}
			return m.fail(b, err)
		}
		b.Property(meta.FieldProperty(f.Name, f.Offset, q))
		props++
	}

	pt := reflect.PointerTo(rt)
	funcs := 0
	for i := range pt.NumMethod() {
		meth := pt.Method(i)
		if promoted[meth.Name] {
			continue
		}
		fn, err := m.function(rt, meth)
		if err != nil {
			if skippable(err) {
				m.reg.log.Debug("method left out of mirror",
					zap.String("type", rt.String()), zap.String("method", meth.Name), zap.Error(err))
				continue
			}
			return m.fail(b, err)
		}
		if fn != nil {
			b.Function(fn)
			funcs++
		}
	}

	d, err := b.Build()
	if err != nil {
		return nil, err
	}
	m.reg.log.Debug("mirrored class",
		zap.String("type", rt.String()), zap.String("name", d.Name()),
		zap.Int("properties", props), zap.Int("functions", funcs), zap.Int("bases", d.Class().NumBase()))
	return d, nil
}

// fail releases the reserved name and reports err.
func (m *mirror) fail(b *meta.ClassBuilder, err error) (*meta.Descriptor, error) {
	b.Abort()
	return nil, err
}

// embeddedBase returns the base class type of an embedded field and how to
// reach it, or nil if the field is not an embedded struct.
func embeddedBase(f reflect.StructField) (reflect.Type, meta.Upcast) {
	switch {
	case f.Type.Kind() == reflect.Struct:
		return f.Type, meta.OffsetUpcast(f.Offset)
	case f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct:
		return f.Type.Elem(), meta.IndirectUpcast(f.Offset)
	}
	return nil, nil
}

func skippable(err error) bool {
	return errors.Is(err, meta.ErrUnsupportedType) || errors.Is(err, uref.ErrReflectTooDeep) ||
		errors.Is(err, meta.ErrInternalLimit)
}

// function mirrors a method of *T. Supported shapes return nothing, one
// value, an error, or a value and an error. Variadic methods are skipped.
func (m *mirror) function(rt reflect.Type, meth reflect.Method) (*meta.Function, error) {
	mt := meth.Type
	if mt.IsVariadic() {
		return nil, nil
	}
	retIdx, errIdx := -1, -1
	switch mt.NumOut() {
	case 0:
	case 1:
		if mt.Out(0) == errorType {
			errIdx = 0
		} else {
			retIdx = 0
		}
	case 2:
		if mt.Out(1) != errorType {
			return nil, nil
		}
		retIdx, errIdx = 0, 1
	default:
		return nil, nil
	}

	var ret meta.QualType
	if retIdx >= 0 {
		q, err := m.qual(mt.Out(retIdx))
		if err != nil {
			return nil, err
		}
		ret = q
	}
	nargs := mt.NumIn() - 1
	params := make([]meta.QualType, nargs)
	names := make([]byte, 0, nargs*5)
	for i := range nargs {
		q, err := m.qual(mt.In(i + 1))
		if err != nil {
			return nil, err
		}
		params[i] = q
		if i > 0 {
			names = append(names, ',')
		}
		names = append(names, "arg"...)
		names = strconv.AppendInt(names, int64(i), 10)
	}

	fn := meth.Func
	call := func(obj, out unsafe.Pointer, args []unsafe.Pointer) error {
		in := make([]reflect.Value, len(args)+1)
		in[0] = reflect.NewAt(rt, obj)
		for i, a := range args {
			in[i+1] = reflect.NewAt(mt.In(i+1), a).Elem()
		}
		res := fn.Call(in)
		if errIdx >= 0 {
			if e, _ := res[errIdx].Interface().(error); e != nil {
				return e
			}
		}
		if retIdx >= 0 && out != nil {
			reflect.NewAt(mt.Out(retIdx), out).Elem().Set(res[retIdx])
		}
		return nil
	}
	return meta.NewFunction(meth.Name, ret, params, string(names), call)
}
