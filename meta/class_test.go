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

package meta_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/rtti/meta"
)

type dupBase struct {
	X int32
}

type dupDerived struct {
	dupBase
	Y int32
}

func TestClassBuilder_BasePropertyCollision(t *testing.T) {
	base := meta.DefineClass[dupBase]("meta_test.dupBase").
		Property(meta.Field[int32]("x", unsafe.Offsetof(dupBase{}.X))).
		MustBuild()

	_, err := meta.DefineClass[dupDerived]("meta_test.dupDerived").
		Base(base, meta.OffsetUpcast(0)).
		Property(meta.Field[int32]("x", unsafe.Offsetof(dupDerived{}.Y))).
		Build()
	require.ErrorIs(t, err, meta.ErrDuplicateMember)
	assert.Contains(t, err.Error(), "meta_test.dupDerived")
	assert.Contains(t, err.Error(), "meta_test.dupBase")
	assert.Contains(t, err.Error(), `"x"`)

	// The failed class released its name and Go type.
	_, ok := meta.Lookup("meta_test.dupDerived")
	assert.False(t, ok)
	d, err := meta.DefineClass[dupDerived]("meta_test.dupDerived").
		Base(base, meta.OffsetUpcast(0)).
		Property(meta.Field[int32]("y", unsafe.Offsetof(dupDerived{}.Y))).
		Build()
	require.NoError(t, err)
	assert.Equal(t, 1, d.Class().NumBase())
}

func TestClassBuilder_OwnDuplicates(t *testing.T) {
	_, err := meta.NewClass("meta_test.twiceProp", 8, 4, meta.Ops{}).
		Property(meta.Field[int32]("a", 0), meta.Field[int32]("a", 4)).
		Build()
	require.ErrorIs(t, err, meta.ErrDuplicateMember)
	assert.Contains(t, err.Error(), `class meta_test.twiceProp declares property "a" twice`)

	noop := func(unsafe.Pointer, unsafe.Pointer, []unsafe.Pointer) error { return nil }
	f := meta.MustFunction("Run", meta.QualType{}, nil, "", noop)
	base := meta.NewClass("meta_test.fnBase", 1, 1, meta.Ops{}).Function(f).MustBuild()
	_, err = meta.NewClass("meta_test.fnDerived", 1, 1, meta.Ops{}).
		Base(base, meta.OffsetUpcast(0)).
		Function(meta.MustFunction("Run", meta.QualType{}, nil, "", noop)).
		Build()
	require.ErrorIs(t, err, meta.ErrDuplicateMember)
	assert.Contains(t, err.Error(), "function")
}

func TestClassBuilder_DiamondBasesDoNotCollide(t *testing.T) {
	top := meta.NewClass("meta_test.top", 4, 4, meta.Ops{}).
		Property(meta.Field[int32]("t", 0)).MustBuild()
	left := meta.NewClass("meta_test.left", 8, 4, meta.Ops{}).
		Base(top, meta.OffsetUpcast(0)).
		Property(meta.Field[int32]("l", 4)).MustBuild()
	right := meta.NewClass("meta_test.right", 8, 4, meta.Ops{}).
		Base(top, meta.OffsetUpcast(0)).
		Property(meta.Field[int32]("r", 4)).MustBuild()

	bottom, err := meta.NewClass("meta_test.bottom", 20, 4, meta.Ops{}).
		Base(left, meta.OffsetUpcast(0)).
		Base(right, meta.OffsetUpcast(8)).
		Property(meta.Field[int32]("b", 16)).
		Build()
	require.NoError(t, err)
	assert.Equal(t, 2, bottom.Class().NumBase())

	_, err = meta.NewClass("meta_test.bottom2", 24, 4, meta.Ops{}).
		Base(left, meta.OffsetUpcast(0)).
		Property(meta.Field[int32]("t", 16)).
		Build()
	assert.ErrorIs(t, err, meta.ErrDuplicateMember, "a name inherited from a shared base still collides with a new one")
}

func TestClassBuilder_BaseErrors(t *testing.T) {
	_, err := meta.NewClass("meta_test.badBase", 4, 4, meta.Ops{}).
		Base(meta.Int32(), meta.OffsetUpcast(0)).
		Build()
	assert.ErrorIs(t, err, meta.ErrNotClass)

	_, err = meta.NewClass("meta_test.nilBase", 4, 4, meta.Ops{}).
		Base(nil, meta.OffsetUpcast(0)).
		Build()
	assert.ErrorIs(t, err, meta.ErrNilDescriptor)

	b := meta.NewClass("meta_test.once", 4, 4, meta.Ops{})
	_, err = b.Build()
	require.NoError(t, err)
	_, err = b.Build()
	assert.ErrorIs(t, err, meta.ErrAlreadyDefined)
}

func TestClassBuilder_Abort(t *testing.T) {
	b := meta.NewClass("meta_test.aborted", 4, 4, meta.Ops{})
	_, ok := meta.Lookup("meta_test.aborted")
	require.True(t, ok, "the name is reserved while building")
	b.Abort()
	_, ok = meta.Lookup("meta_test.aborted")
	assert.False(t, ok)
}

func TestUpcasts(t *testing.T) {
	type inner struct{ V int64 }
	type outer struct {
		Pad int32
		In  inner
		Ref *inner
	}
	o := &outer{Ref: &inner{V: 9}}

	up := meta.OffsetUpcast(unsafe.Offsetof(o.In))
	assert.Equal(t, unsafe.Pointer(&o.In), up(unsafe.Pointer(o)))

	ind := meta.IndirectUpcast(unsafe.Offsetof(o.Ref))
	assert.Equal(t, unsafe.Pointer(o.Ref), ind(unsafe.Pointer(o)))

	o.Ref = nil
	assert.Nil(t, ind(unsafe.Pointer(o)))
}

type settings struct {
	Level int32
	name  string
}

func TestProperties(t *testing.T) {
	s := &settings{Level: 3, name: "a"}
	obj := unsafe.Pointer(s)

	field := meta.Field[int32]("Level", unsafe.Offsetof(s.Level))
	assert.True(t, field.InPlace())
	assert.True(t, field.Settable())
	assert.Equal(t, unsafe.Pointer(&s.Level), field.Addr(obj))

	var got int32
	require.NoError(t, field.Get(obj, unsafe.Pointer(&got)))
	assert.Equal(t, int32(3), got)
	v := int32(11)
	require.NoError(t, field.Set(obj, unsafe.Pointer(&v)))
	assert.Equal(t, int32(11), s.Level)

	frozen := meta.FieldProperty("Frozen", unsafe.Offsetof(s.Level), meta.Qual(meta.Int32()).Const().MustBuild())
	assert.False(t, frozen.Settable())
	assert.ErrorIs(t, frozen.Set(obj, unsafe.Pointer(&v)), meta.ErrNotSettable)

	name := meta.Accessor("Name", func(s *settings) string { return s.name }, func(s *settings, n string) { s.name = n })
	assert.False(t, name.InPlace())
	assert.Nil(t, name.Addr(obj))
	n := "b"
	require.NoError(t, name.Set(obj, unsafe.Pointer(&n)))
	var out string
	require.NoError(t, name.Get(obj, unsafe.Pointer(&out)))
	assert.Equal(t, "b", out)

	ro := meta.Accessor[settings, string]("RO", func(s *settings) string { return s.name }, nil)
	assert.False(t, ro.Settable())
	assert.ErrorIs(t, ro.Set(obj, unsafe.Pointer(&n)), meta.ErrNotSettable)
}

type laterFilled struct {
	X int32
	Y int32
}

func TestComplete_ProvisionalStructClass(t *testing.T) {
	d := meta.For[laterFilled]()
	require.NotNil(t, d.Class())
	assert.True(t, d.Provisional())
	assert.Zero(t, d.Class().NumProperty())
	name := d.Name()

	// A failed completion leaves the class provisional and published.
	_, err := meta.Complete(d).
		Property(meta.Field[int32]("X", 0), meta.Field[int32]("X", 4)).
		Build()
	require.ErrorIs(t, err, meta.ErrDuplicateMember)
	assert.True(t, d.Provisional())
	got, ok := meta.Lookup(name)
	require.True(t, ok)
	assert.Same(t, d, got)

	done, err := meta.Complete(d).
		Property(
			meta.Field[int32]("X", unsafe.Offsetof(laterFilled{}.X)),
			meta.Field[int32]("Y", unsafe.Offsetof(laterFilled{}.Y)),
		).
		Build()
	require.NoError(t, err)
	assert.Same(t, d, done)
	assert.False(t, d.Provisional())
	assert.Equal(t, 2, d.Class().NumProperty())
	assert.Equal(t, name, d.Name())

	_, err = meta.Complete(d).Build()
	assert.ErrorIs(t, err, meta.ErrAlreadyDefined)
	_, err = meta.Complete(nil).Build()
	assert.ErrorIs(t, err, meta.ErrNilDescriptor)
}
