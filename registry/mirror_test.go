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

package registry_test

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/rtti/config"
	"dirpx.dev/rtti/meta"
	"dirpx.dev/rtti/object"
	"dirpx.dev/rtti/registry"
	"dirpx.dev/rtti/resolver"
	"dirpx.dev/rtti/strategy"
)

func TestReflect_PlainStruct(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	d, err := reg.Reflect(reflect.TypeOf(&Point{}), nil)
	require.NoError(t, err)
	require.Equal(t, meta.KindClass, d.Kind())
	assert.Equal(t, unsafe.Sizeof(Point{}), d.Size())

	c := d.Class()
	require.Equal(t, 2, c.NumProperty())
	assert.Equal(t, "X", c.Property(0).Name())
	assert.Equal(t, "Y", c.Property(1).Name())
	assert.True(t, c.Property(1).Type().Equal(meta.Direct(meta.Int32())))
	assert.Equal(t, unsafe.Offsetof(Point{}.Y), c.Property(1).Offset())

	again, err := reg.Reflect(reflect.TypeOf(Point{}), nil)
	require.NoError(t, err)
	assert.Same(t, d, again, "mirroring is done once per type")
}

func TestReflect_BasesFieldsAndMethods(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	d, err := reg.Reflect(reflect.TypeOf(Derived{}), nil)
	require.NoError(t, err)
	c := d.Class()

	require.Equal(t, 1, c.NumBase())
	entity := c.Base(0).Class()
	assert.Equal(t, 1, entity.Class().NumProperty())
	assert.Equal(t, 1, entity.Class().NumFunction(), "Describe belongs to the base")

	// hidden is unexported, Callback has an unsupported type.
	require.Equal(t, 1, c.NumProperty())
	assert.Equal(t, "Label", c.Property(0).Name())

	// Describe is promoted and stays on the base; Many is variadic.
	names := map[string]bool{}
	for i := range c.NumFunction() {
		names[c.Function(i).Name()] = true
	}
	assert.Equal(t, map[string]bool{"Check": true, "Scale": true}, names)

	v := Derived{Entity: Entity{ID: 6}}
	obj := unsafe.Pointer(&v)
	assert.Equal(t, unsafe.Pointer(&v.Entity), c.Base(0).Upcast(obj))

	var scale *meta.Function
	for i := range c.NumFunction() {
		if c.Function(i).Name() == "Scale" {
			scale = c.Function(i)
		}
	}
	require.NotNil(t, scale)
	assert.Equal(t, "arg0", scale.Param(0).Name())
	f := int32(7)
	var out int32
	require.NoError(t, scale.Invoke(obj, unsafe.Pointer(&out), object.PtrTo(&f)))
	assert.Equal(t, int32(42), out)
}

func TestReflect_MethodErrorsSurface(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	d, err := reg.Reflect(reflect.TypeOf(Derived{}), nil)
	require.NoError(t, err)

	var check *meta.Function
	c := d.Class()
	for i := range c.NumFunction() {
		if c.Function(i).Name() == "Check" {
			check = c.Function(i)
		}
	}
	require.NotNil(t, check)

	v := Derived{Entity: Entity{ID: 10}}
	limit := int64(3)
	var ok bool
	err = check.Invoke(unsafe.Pointer(&v), unsafe.Pointer(&ok), object.PtrTo(&limit))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id 10 above 3")

	limit = 20
	require.NoError(t, check.Invoke(unsafe.Pointer(&v), unsafe.Pointer(&ok), object.PtrTo(&limit)))
	assert.True(t, ok)
}

func TestReflect_SharedBase(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	d, err := reg.Reflect(reflect.TypeOf(Shared{}), nil)
	require.NoError(t, err)
	c := d.Class()
	require.Equal(t, 1, c.NumBase())

	e := &Entity{ID: 1}
	v := Shared{Entity: e}
	assert.Equal(t, unsafe.Pointer(e), c.Base(0).Upcast(unsafe.Pointer(&v)))

	empty := Shared{}
	assert.Nil(t, c.Base(0).Upcast(unsafe.Pointer(&empty)))
}

func TestReflect_SelfReference(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	d, err := reg.Reflect(reflect.TypeOf(Node{}), nil)
	require.NoError(t, err)
	c := d.Class()
	require.Equal(t, 3, c.NumProperty())

	next := c.Property(1).Type()
	assert.Equal(t, 1, next.IndirectionLevels())
	assert.Same(t, d, next.FinalType())

	children := c.Property(2).Type().FinalType()
	require.NotNil(t, children.Class().Container())
	assert.Same(t, d, children.Class().Container().Elem().FinalType())
}

func TestReflect_ResolverNames(t *testing.T) {
	type named struct{ A int8 }
	reg := registry.New(config.DefaultConfig())
	require.NoError(t, reg.Alias(reflect.TypeOf(named{}), "custom.Named"))

	res := resolver.New(strategy.NewNamerStrategy(), strategy.NewRegistryStrategy(reg), strategy.NewReflectStrategy())
	d, err := reg.Reflect(reflect.TypeOf(named{}), res)
	require.NoError(t, err)
	assert.Equal(t, "custom.Named", d.Name())

	got, ok := meta.Lookup("custom.Named")
	require.True(t, ok)
	assert.Same(t, d, got)
}

func TestReflect_Unsupported(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	_, err := reg.Reflect(reflect.TypeOf(map[string]int{}), nil)
	assert.ErrorIs(t, err, meta.ErrUnsupportedType)

	_, err = reg.Reflect(nil, nil)
	assert.ErrorIs(t, err, registry.ErrNilType)
}

func TestReflect_CompletesEarlierDescription(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	root := object.PtrTo(&lateSegment{1, 2})
	early := root.Type().FinalType()
	require.True(t, early.Provisional())

	d, err := reg.Reflect(reflect.TypeOf(lateSegment{}), nil)
	require.NoError(t, err)
	assert.Same(t, early, d)
	assert.False(t, d.Provisional())
	require.Equal(t, 2, d.Class().NumProperty())
	assert.Equal(t, "A", d.Class().Property(0).Name())
	assert.Equal(t, "B", d.Class().Property(1).Name())
}

func TestReflect_CompletesNestedDescription(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	inner := meta.For[lateInner]()
	require.True(t, inner.Provisional())

	outer, err := reg.Reflect(reflect.TypeOf(lateOuter{}), nil)
	require.NoError(t, err)
	require.Equal(t, 2, outer.Class().NumProperty())
	assert.Same(t, inner, outer.Class().Property(0).Type().FinalType())
	assert.False(t, inner.Provisional())
	assert.Equal(t, 1, inner.Class().NumProperty())
}

func TestRegister_CompletesEarlierDescription(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	d := meta.For[lateChain]()
	require.True(t, d.Provisional())

	_, err := reg.Register(d)
	require.NoError(t, err)
	assert.False(t, d.Provisional())
	require.Equal(t, 2, d.Class().NumProperty())
	next := d.Class().Property(1).Type()
	assert.True(t, next.IsPointer())
	assert.Same(t, d, next.FinalType(), "the self reference resolves to the same class")
}
