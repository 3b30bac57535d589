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

package iter_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/rtti/iter"
	"dirpx.dev/rtti/meta"
)

func collect(t *testing.T, u *iter.Universal) []int32 {
	t.Helper()
	var out []int32
	for !u.Done() {
		out = append(out, *(*int32)(u.Current().Addr()))
		u.Advance()
	}
	return out
}

func TestUniversal_Slice(t *testing.T) {
	s := []int32{4, 5, 6}
	u, err := iter.NewUniversal(meta.For[[]int32](), unsafe.Pointer(&s))
	require.NoError(t, err)
	defer u.Close()
	assert.Same(t, meta.Int32(), u.Elem().FinalType())

	u.Advance()
	seg, idx := u.Segment()
	assert.Equal(t, 3, seg.Count)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []int32{5, 6}, collect(t, u))
	assert.True(t, u.Current().IsEmpty())

	var empty []int32
	u2, err := iter.NewUniversal(meta.For[[]int32](), unsafe.Pointer(&empty))
	require.NoError(t, err)
	assert.True(t, u2.Done())
	u2.Close()
}

func TestUniversal_Array(t *testing.T) {
	a := [2]int32{7, 8}
	u, err := iter.NewUniversal(meta.For[[2]int32](), unsafe.Pointer(&a))
	require.NoError(t, err)
	defer u.Close()
	assert.Equal(t, []int32{7, 8}, collect(t, u))
}

type node struct {
	v    int32
	next *node
}

type list struct{ head *node }

func TestUniversal_NodeCursor(t *testing.T) {
	c := meta.CursorContainer(meta.QualOf[int32](), func(obj unsafe.Pointer) func() (unsafe.Pointer, bool) {
		n := (*list)(obj).head
		return func() (unsafe.Pointer, bool) {
			if n == nil {
				return nil, false
			}
			p := unsafe.Pointer(&n.v)
			n = n.next
			return p, true
		}
	})
	d := meta.NewClass("iter_test.list", unsafe.Sizeof(list{}), unsafe.Alignof(list{}), meta.Ops{}).
		Container(c).MustBuild()

	l := &list{head: &node{v: 1, next: &node{v: 2, next: &node{v: 3}}}}
	u, err := iter.NewUniversal(d, unsafe.Pointer(l))
	require.NoError(t, err)
	defer u.Close()
	seg, _ := u.Segment()
	assert.Equal(t, 1, seg.Count)
	assert.Equal(t, []int32{1, 2, 3}, collect(t, u))
}

// chunked yields fixed segments, some of them empty, and records Close.
type chunked struct {
	segs   []meta.Segment
	closed int
}

func (c *chunked) Next() (meta.Segment, bool) {
	if len(c.segs) == 0 {
		return meta.Segment{}, false
	}
	s := c.segs[0]
	c.segs = c.segs[1:]
	return s, true
}

func (c *chunked) Close() { c.closed++ }

func TestUniversal_SkipsEmptySegmentsAndCloses(t *testing.T) {
	data := []int32{1, 2, 3}
	stride := unsafe.Sizeof(int32(0))
	cur := &chunked{segs: []meta.Segment{
		{Count: 0},
		{Data: unsafe.Pointer(&data[0]), Count: 2, Stride: stride},
		{Count: 0},
		{Count: 0},
		{Data: unsafe.Pointer(&data[2]), Count: 1, Stride: stride},
		{Count: 0},
	}}
	c := meta.NewContainer(meta.QualOf[int32](), func(unsafe.Pointer) meta.ElementCursor { return cur })
	d := meta.NewClass("iter_test.chunked", 1, 1, meta.Ops{}).Container(c).MustBuild()

	u, err := iter.NewUniversal(d, nil)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, collect(t, u))
	u.Advance()
	assert.True(t, u.Done())
	u.Close()
	assert.Equal(t, 1, cur.closed)
}

func TestUniversal_NotContainer(t *testing.T) {
	_, err := iter.NewUniversal(meta.Int32(), nil)
	require.ErrorIs(t, err, iter.ErrNotContainer)
	assert.Contains(t, err.Error(), "type int32")
	_, err = iter.NewUniversal(nil, nil)
	assert.ErrorIs(t, err, iter.ErrNotContainer)
}
