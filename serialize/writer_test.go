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

package serialize_test

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"dirpx.dev/rtti/apis"
	"dirpx.dev/rtti/config"
	"dirpx.dev/rtti/meta"
	"dirpx.dev/rtti/object"
	"dirpx.dev/rtti/registry"
	"dirpx.dev/rtti/serialize"
)

type Point struct {
	X, Y int32
}

type Line struct {
	A, B Point
}

type Poly struct {
	Pts []Point
	N   uint16
}

type Linked struct {
	N int8
	P *Point
}

type gauge struct {
	v      int32
	origin Point
}

var (
	mirrorOnce sync.Once
	gaugeDesc  *meta.Descriptor
)

// newRegistry returns a fresh registry with the test types mirrored.
func newRegistry(t *testing.T) apis.Registry {
	t.Helper()
	reg := registry.New(config.DefaultConfig())
	for _, v := range []any{Line{}, Poly{}, Linked{}} {
		_, err := reg.Reflect(reflect.TypeOf(v), nil)
		require.NoError(t, err)
	}
	mirrorOnce.Do(func() {
		gaugeDesc = meta.DefineClass[gauge]("serialize_test.gauge").
			Property(
				meta.Accessor("Value", func(g *gauge) int32 { return g.v }, nil),
				meta.Accessor("Origin", func(g *gauge) Point { return g.origin }, nil),
			).
			MustBuild()
	})
	return reg
}

func descOf(t *testing.T, reg apis.Registry, v any) *meta.Descriptor {
	t.Helper()
	d, err := reg.Reflect(reflect.TypeOf(v), nil)
	require.NoError(t, err)
	return d
}

func marker(id uint32) []byte {
	b := make([]byte, serialize.MarkerSize)
	binary.NativeEndian.PutUint32(b[0:4], id)
	binary.NativeEndian.PutUint32(b[4:8], 1)
	return b
}

func i32(v int32) []byte {
	b := make([]byte, 4)
	binary.NativeEndian.PutUint32(b, uint32(v))
	return b
}

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// drain runs w to completion with destinations of size bytes.
func drain(t *testing.T, w *serialize.Writer, size int) []byte {
	t.Helper()
	var out []byte
	for i := 0; i < 1<<16; i++ {
		dst := make([]byte, size)
		n, st, err := w.Step(dst)
		require.NoError(t, err)
		require.LessOrEqual(t, n, size)
		out = append(out, dst[:n]...)
		if st == serialize.Finished {
			return out
		}
	}
	t.Fatal("writer did not finish")
	return nil
}

func TestWriter_LineExample(t *testing.T) {
	reg := newRegistry(t)
	line := Line{A: Point{1, 2}, B: Point{3, 4}}

	w, err := serialize.NewWriter(reg, object.PtrTo(&line))
	require.NoError(t, err)

	pointID, ok := reg.Lookup(descOf(t, reg, Point{}))
	require.True(t, ok, "root registration covers reachable types")

	dst := make([]byte, 64)
	n, st, err := w.Step(dst)
	require.NoError(t, err)
	assert.Equal(t, serialize.Finished, st)

	want := cat(marker(pointID), i32(1), i32(2), marker(pointID), i32(3), i32(4))
	assert.Equal(t, want, dst[:n])
	assert.Equal(t, int64(len(want)), w.Written())
}

type unmirrored struct{ A, B int32 }

func TestWriter_RootDescribedBeforeMirroring(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	v := unmirrored{A: 1, B: 2}

	// PtrTo describes the struct before the registry has mirrored it.
	w, err := serialize.NewWriter(reg, object.PtrTo(&v))
	require.NoError(t, err)

	out := drain(t, w, 64)
	assert.Equal(t, cat(i32(1), i32(2)), out)
	assert.Len(t, out, 8)
}

func TestWriter_SuspendResumeDeterminism(t *testing.T) {
	reg := newRegistry(t)
	line := Line{A: Point{1, 2}, B: Point{3, 4}}
	poly := Poly{Pts: []Point{{5, 6}, {7, 8}, {-1, -2}}, N: 3}
	g := gauge{v: 7, origin: Point{9, 10}}

	roots := map[string]object.Ptr{
		"line":  object.PtrTo(&line),
		"poly":  object.PtrTo(&poly),
		"gauge": object.RawPtr(unsafePtr(&g), meta.Direct(gaugeDesc)),
	}
	for name, root := range roots {
		t.Run(name, func(t *testing.T) {
			w, err := serialize.NewWriter(reg, root)
			require.NoError(t, err)
			want := drain(t, w, 1<<12)
			require.NotEmpty(t, want)

			for _, size := range []int{1, 2, 3, 5, 6, 7, 11, 13} {
				w, err := serialize.NewWriter(reg, root)
				require.NoError(t, err)
				assert.Equal(t, want, drain(t, w, size), "step size %d", size)
			}
		})
	}
}

func TestWriter_SixByteSteps(t *testing.T) {
	reg := newRegistry(t)
	line := Line{A: Point{1, 2}, B: Point{3, 4}}

	w, err := serialize.NewWriter(reg, object.PtrTo(&line))
	require.NoError(t, err)
	big := drain(t, w, 64)

	w, err = serialize.NewWriter(reg, object.PtrTo(&line))
	require.NoError(t, err)
	var out []byte
	steps := 0
	for {
		dst := make([]byte, 6)
		n, st, err := w.Step(dst)
		require.NoError(t, err)
		out = append(out, dst[:n]...)
		steps++
		if st == serialize.Finished {
			break
		}
	}
	assert.Equal(t, big, out)
	assert.Greater(t, steps, 5)
}

func TestWriter_PolyContainer(t *testing.T) {
	reg := newRegistry(t)
	poly := Poly{Pts: []Point{{5, 6}, {7, 8}}, N: 2}

	w, err := serialize.NewWriter(reg, object.PtrTo(&poly))
	require.NoError(t, err)
	got := drain(t, w, 256)

	sliceID, ok := reg.Lookup(meta.MustForType(reflect.TypeOf([]Point{})))
	require.True(t, ok)
	pointID, ok := reg.Lookup(descOf(t, reg, Point{}))
	require.True(t, ok)

	n := make([]byte, 2)
	binary.NativeEndian.PutUint16(n, 2)
	want := cat(
		marker(sliceID),
		marker(pointID), i32(5), i32(6),
		marker(pointID), i32(7), i32(8),
		n,
	)
	assert.Equal(t, want, got)
}

func TestWriter_AccessorProperties(t *testing.T) {
	reg := newRegistry(t)
	g := gauge{v: 7, origin: Point{9, 10}}

	w, err := serialize.NewWriter(reg, object.RawPtr(unsafePtr(&g), meta.Direct(gaugeDesc)))
	require.NoError(t, err)
	got := drain(t, w, 64)

	pointID, ok := reg.Lookup(descOf(t, reg, Point{}))
	require.True(t, ok)
	assert.Equal(t, cat(i32(7), marker(pointID), i32(9), i32(10)), got)
}

func TestWriter_UnitsAreAtomic(t *testing.T) {
	reg := newRegistry(t)
	xs := []int32{5, 6}

	w, err := serialize.NewWriter(reg, object.PtrTo(&xs))
	require.NoError(t, err)

	// Marker and payload of each element travel together.
	dst := make([]byte, 20)
	n, st, err := w.Step(dst)
	require.NoError(t, err)
	assert.Equal(t, serialize.MoreSpaceNeeded, st)
	assert.Equal(t, 12, n)
	assert.Equal(t, make([]byte, 8), dst[12:], "nothing of the second unit is written")

	n, st, err = w.Step(make([]byte, 12))
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, serialize.Finished, st)
}

func TestWriter_NoSplit(t *testing.T) {
	reg := newRegistry(t)
	x := int32(42)

	w, err := serialize.NewWriter(reg, object.PtrTo(&x), serialize.WithSplitUnits(false))
	require.NoError(t, err)

	n, _, err := w.Step(make([]byte, 11))
	assert.ErrorIs(t, err, serialize.ErrBufferTooSmall)
	assert.Zero(t, n)

	dst := make([]byte, 12)
	n, st, err := w.Step(dst)
	require.NoError(t, err, "a too-small destination is not fatal")
	assert.Equal(t, serialize.Finished, st)

	id, ok := reg.Lookup(meta.Int32())
	require.True(t, ok)
	assert.Equal(t, cat(marker(id), i32(42)), dst[:n])
}

func TestWriter_SplitScalarRoot(t *testing.T) {
	reg := newRegistry(t)
	x := int32(42)

	w, err := serialize.NewWriter(reg, object.PtrTo(&x))
	require.NoError(t, err)
	assert.Equal(t, cat(marker(2), i32(42)), drain(t, w, 1))
}

func TestWriter_PointerRejection(t *testing.T) {
	reg := newRegistry(t)

	t.Run("root", func(t *testing.T) {
		p := &Point{1, 2}
		typ, err := meta.QualOfType(reflect.TypeOf(p))
		require.NoError(t, err)
		require.Equal(t, 1, typ.IndirectionLevels())

		_, err = serialize.NewWriter(reg, object.RawPtr(unsafePtr(&p), typ))
		assert.ErrorIs(t, err, serialize.ErrPointerSerialization)
	})

	t.Run("property", func(t *testing.T) {
		l := Linked{N: 1, P: &Point{1, 2}}
		w, err := serialize.NewWriter(reg, object.PtrTo(&l))
		require.NoError(t, err)

		n, _, err := w.Step(make([]byte, 64))
		assert.ErrorIs(t, err, serialize.ErrPointerSerialization)
		assert.Equal(t, 1, n, "bytes before the pointer are reported")

		_, _, again := w.Step(make([]byte, 64))
		assert.ErrorIs(t, again, serialize.ErrPointerSerialization, "errors are sticky")
	})
}

func TestWriter_WriteTo(t *testing.T) {
	reg := newRegistry(t)
	line := Line{A: Point{1, 2}, B: Point{3, 4}}

	w, err := serialize.NewWriter(reg, object.PtrTo(&line))
	require.NoError(t, err)
	want := drain(t, w, 64)

	w, err = serialize.NewWriter(reg, object.PtrTo(&line),
		serialize.WithConfig(config.NewConfig(config.WithStepBufferSize(5))))
	require.NoError(t, err)
	var buf bytes.Buffer
	n, err := w.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(want)), n)
	assert.Equal(t, want, buf.Bytes())
}

func TestWriter_Lifecycle(t *testing.T) {
	reg := newRegistry(t)
	line := Line{}

	_, err := serialize.NewWriter(nil, object.PtrTo(&line))
	assert.ErrorIs(t, err, serialize.ErrNilRegistry)
	_, err = serialize.NewWriter(reg, object.Ptr{})
	assert.ErrorIs(t, err, serialize.ErrNilObject)

	w, err := serialize.NewWriter(reg, object.PtrTo(&line))
	require.NoError(t, err)
	assert.NotEqual(t, [16]byte{}, [16]byte(w.ID()))

	_, st, err := w.Step(make([]byte, 3))
	require.NoError(t, err)
	assert.Equal(t, serialize.MoreSpaceNeeded, st)
	require.NoError(t, w.Close())
	_, _, err = w.Step(make([]byte, 64))
	assert.ErrorIs(t, err, serialize.ErrClosed)

	w, err = serialize.NewWriter(reg, object.PtrTo(&line))
	require.NoError(t, err)
	_ = drain(t, w, 64)
	n, st, err := w.Step(make([]byte, 64))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, serialize.Finished, st)
	require.NoError(t, w.Close())
}

func TestWriter_Logging(t *testing.T) {
	reg := newRegistry(t)
	core, logs := observer.New(zap.DebugLevel)
	line := Line{}

	w, err := serialize.NewWriter(reg, object.PtrTo(&line), serialize.WithLogger(zap.New(core)))
	require.NoError(t, err)
	_ = drain(t, w, 64)

	done := logs.FilterMessage("serialization finished").All()
	require.Len(t, done, 1)
	fields := done[0].ContextMap()
	assert.Equal(t, w.ID().String(), fields["session"])
	assert.Equal(t, "32 B", fields["written"])
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "finished", serialize.Finished.String())
	assert.Equal(t, "more-space-needed", serialize.MoreSpaceNeeded.String())
}
