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
)

var (
	int8Desc    = builtin[int8]("int8", signedOps[int8](8))
	int16Desc   = builtin[int16]("int16", signedOps[int16](16))
	int32Desc   = builtin[int32]("int32", signedOps[int32](32))
	int64Desc   = builtin[int64]("int64", signedOps[int64](64))
	uint8Desc   = builtin[uint8]("uint8", unsignedOps[uint8](8))
	uint16Desc  = builtin[uint16]("uint16", unsignedOps[uint16](16))
	uint32Desc  = builtin[uint32]("uint32", unsignedOps[uint32](32))
	uint64Desc  = builtin[uint64]("uint64", unsignedOps[uint64](64))
	intDesc     = builtin[int]("int", signedOps[int](strconv.IntSize))
	uintDesc    = builtin[uint]("uint", unsignedOps[uint](strconv.IntSize))
	uintptrDesc = builtin[uintptr]("uintptr", unsignedOps[uintptr](strconv.IntSize))
	float32Desc = builtin[float32]("float32", floatOps[float32](32))
	float64Desc = builtin[float64]("float64", floatOps[float64](64))
	boolDesc    = builtin[bool]("bool", boolOps())
	addressDesc = builtin[unsafe.Pointer]("address", addressOps())
	stringDesc  = builtinString()
)

var builtinByKind = map[reflect.Kind]*Descriptor{
	reflect.Int8:    int8Desc,
	reflect.Int16:   int16Desc,
	reflect.Int32:   int32Desc,
	reflect.Int64:   int64Desc,
	reflect.Uint8:   uint8Desc,
	reflect.Uint16:  uint16Desc,
	reflect.Uint32:  uint32Desc,
	reflect.Uint64:  uint64Desc,
	reflect.Int:     intDesc,
	reflect.Uint:    uintDesc,
	reflect.Uintptr: uintptrDesc,
	reflect.Float32: float32Desc,
	reflect.Float64: float64Desc,
	reflect.Bool:    boolDesc,
}

func builtin[T any](name string, ops Ops) *Descriptor {
	return mustPublish(newGoDescriptor(reflect.TypeFor[T](), name, KindScalar, ops))
}

func builtinString() *Descriptor {
	d := newGoDescriptor(reflect.TypeFor[string](), "string", KindClass, stringOps())
	d.class = &Class{desc: d, container: StringContainer()}
	return mustPublish(d)
}

func addressOps() Ops {
	o := ComparableOps[unsafe.Pointer]()
	o.Format = func(p unsafe.Pointer) string {
		return "0x" + strconv.FormatUint(uint64(uintptr(*(*unsafe.Pointer)(p))), 16)
	}
	return o
}

func Int8() *Descriptor    { return int8Desc }
func Int16() *Descriptor   { return int16Desc }
func Int32() *Descriptor   { return int32Desc }
func Int64() *Descriptor   { return int64Desc }
func Uint8() *Descriptor   { return uint8Desc }
func Uint16() *Descriptor  { return uint16Desc }
func Uint32() *Descriptor  { return uint32Desc }
func Uint64() *Descriptor  { return uint64Desc }
func Int() *Descriptor     { return intDesc }
func Uint() *Descriptor    { return uintDesc }
func Uintptr() *Descriptor { return uintptrDesc }
func Float32() *Descriptor { return float32Desc }
func Float64() *Descriptor { return float64Desc }
func Bool() *Descriptor    { return boolDesc }
func String() *Descriptor  { return stringDesc }

// Address returns the generic address descriptor: the primary type of every
// qualified type with at least one indirection level.
func Address() *Descriptor { return addressDesc }

// Fundamentals returns the fixed-width integer descriptors in wire id order:
// int8, int16, int32, int64, uint8, uint16, uint32, uint64.
func Fundamentals() []*Descriptor {
	return []*Descriptor{
		int8Desc, int16Desc, int32Desc, int64Desc,
		uint8Desc, uint16Desc, uint32Desc, uint64Desc,
	}
}
