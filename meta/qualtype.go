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
	"strings"

	"github.com/pkg/errors"
)

// MaxLevels is the deepest indirection chain a QualType can encode.
const MaxLevels = 28

const (
	levelBits     = 5
	levelMask     = 1<<levelBits - 1
	constShift    = levelBits
	volatileShift = constShift + MaxLevels + 1
	qualMask      = 1<<(MaxLevels+1) - 1
)

// Qualifier is the set of qualifiers applied to one indirection level.
type Qualifier uint8

const (
	// QualNone applies no qualifier.
	QualNone Qualifier = 0
	// QualConst marks the level immutable.
	QualConst Qualifier = 1
	// QualVolatile marks the level externally visible.
	QualVolatile Qualifier = 2
)

// String renders the qualifier keywords in canonical order.
func (q Qualifier) String() string {
	var parts []string
	if q&QualConst != 0 {
		parts = append(parts, "const")
	}
	if q&QualVolatile != 0 {
		parts = append(parts, "volatile")
	}
	return strings.Join(parts, " ")
}

// QualType describes a typed slot: a chain of indirection levels ending at a
// final descriptor, with const/volatile qualifiers per level. Level 0 is the
// slot itself; level IndirectionLevels() is the final value.
//
// The zero QualType is empty.
type QualType struct {
	final *Descriptor
	// bits packs the level count and both qualifier bit sets.
	bits uint64
}

// Direct returns the unqualified, non-indirect QualType of d.
func Direct(d *Descriptor) QualType { return QualType{final: d} }

// MakeQualType builds a QualType from per-level qualifiers, outermost first.
// len(quals)-1 is the number of indirection levels; no quals means a direct,
// unqualified value.
func MakeQualType(final *Descriptor, quals ...Qualifier) (QualType, error) {
	if final == nil {
		return QualType{}, ErrNilDescriptor
	}
	levels := 0
	if len(quals) > 0 {
		levels = len(quals) - 1
	}
	if levels > MaxLevels {
		return QualType{}, errors.Wrapf(ErrInternalLimit, "%d indirection levels exceed the maximum of %d", levels, MaxLevels)
	}
	q := QualType{final: final, bits: uint64(levels)}
	for i, ql := range quals {
		q = q.withQualifiers(i, ql)
	}
	return q, nil
}

// IndirectionLevels returns the number of indirections before the final type.
func (q QualType) IndirectionLevels() int { return int(q.bits & levelMask) }

// FinalType returns the descriptor reached after every indirection.
func (q QualType) FinalType() *Descriptor { return q.final }

// PrimaryType returns the type of level 0: the address descriptor for
// indirect slots, the final type otherwise.
func (q QualType) PrimaryType() *Descriptor {
	if q.IndirectionLevels() > 0 {
		return Address()
	}
	return q.final
}

// IsConst reports whether level is const-qualified.
func (q QualType) IsConst(level int) bool {
	return q.validLevel(level) && q.bits>>(constShift+level)&1 != 0
}

// IsVolatile reports whether level is volatile-qualified.
func (q QualType) IsVolatile(level int) bool {
	return q.validLevel(level) && q.bits>>(volatileShift+level)&1 != 0
}

// Qualifiers returns the qualifier set of level.
func (q QualType) Qualifiers(level int) Qualifier {
	var ql Qualifier
	if q.IsConst(level) {
		ql |= QualConst
	}
	if q.IsVolatile(level) {
		ql |= QualVolatile
	}
	return ql
}

// IsEmpty reports whether q has no final type.
func (q QualType) IsEmpty() bool { return q.final == nil }

// IsPointer reports whether q has at least one indirection level.
func (q QualType) IsPointer() bool { return q.IndirectionLevels() > 0 }

// Equal compares final type name, level count and both qualifier sets.
func (q QualType) Equal(o QualType) bool {
	if q.bits != o.bits {
		return false
	}
	if q.final == nil || o.final == nil {
		return q.final == o.final
	}
	return q.final == o.final || q.final.name == o.final.name
}

// Deref drops the outermost level. It returns q unchanged if q is direct.
func (q QualType) Deref() QualType {
	levels := q.IndirectionLevels()
	if levels == 0 {
		return q
	}
	consts := (q.bits >> constShift & qualMask) >> 1
	vols := (q.bits >> volatileShift & qualMask) >> 1
	return QualType{final: q.final, bits: uint64(levels-1) | consts<<constShift | vols<<volatileShift}
}

// AddressOf wraps q in one more outer indirection level carrying quals.
func (q QualType) AddressOf(quals Qualifier) (QualType, error) {
	levels := q.IndirectionLevels()
	if levels+1 > MaxLevels {
		return QualType{}, errors.Wrapf(ErrInternalLimit, "%d indirection levels exceed the maximum of %d", levels+1, MaxLevels)
	}
	consts := (q.bits >> constShift & qualMask) << 1 & qualMask
	vols := (q.bits >> volatileShift & qualMask) << 1 & qualMask
	out := QualType{final: q.final, bits: uint64(levels+1) | consts<<constShift | vols<<volatileShift}
	return out.withQualifiers(0, quals), nil
}

// WithQualifiers returns q with the qualifiers of level replaced.
func (q QualType) WithQualifiers(level int, quals Qualifier) QualType {
	if !q.validLevel(level) {
		return q
	}
	q.bits &^= 1<<(constShift+level) | 1<<(volatileShift+level)
	return q.withQualifiers(level, quals)
}

func (q QualType) withQualifiers(level int, quals Qualifier) QualType {
	if quals&QualConst != 0 {
		q.bits |= 1 << (constShift + level)
	}
	if quals&QualVolatile != 0 {
		q.bits |= 1 << (volatileShift + level)
	}
	return q
}

func (q QualType) validLevel(level int) bool {
	return level >= 0 && level <= q.IndirectionLevels()
}

// String renders "final [quals] ('*' [quals])*" from the final type outward.
func (q QualType) String() string {
	if q.final == nil {
		return "<empty>"
	}
	var b strings.Builder
	b.WriteString(q.final.name)
	levels := q.IndirectionLevels()
	writeQuals := func(level int) {
		if ql := q.Qualifiers(level); ql != QualNone {
			b.WriteByte(' ')
			b.WriteString(ql.String())
		}
	}
	writeQuals(levels)
	for l := levels - 1; l >= 0; l-- {
		b.WriteString(" *")
		writeQuals(l)
	}
	return b.String()
}

// QualBuilder assembles a QualType level by level, from the final type outward.
// The first error sticks and is reported by Build.
type QualBuilder struct {
	q   QualType
	err error
}

// Qual starts a builder at the final type.
func Qual(final *Descriptor) *QualBuilder {
	b := &QualBuilder{q: Direct(final)}
	if final == nil {
		b.err = ErrNilDescriptor
	}
	return b
}

// Const qualifies the current outermost level.
func (b *QualBuilder) Const() *QualBuilder {
	b.q = b.q.withQualifiers(0, QualConst)
	return b
}

// Volatile qualifies the current outermost level.
func (b *QualBuilder) Volatile() *QualBuilder {
	b.q = b.q.withQualifiers(0, QualVolatile)
	return b
}

// Ptr adds one indirection level.
func (b *QualBuilder) Ptr() *QualBuilder {
	if b.err != nil {
		return b
	}
	b.q, b.err = b.q.AddressOf(QualNone)
	return b
}

// Ref adds one const indirection level, the reference form.
func (b *QualBuilder) Ref() *QualBuilder {
	return b.Ptr().Const()
}

// Build returns the assembled QualType.
func (b *QualBuilder) Build() (QualType, error) {
	if b.err != nil {
		return QualType{}, b.err
	}
	return b.q, nil
}

// MustBuild is like Build but panics on error.
func (b *QualBuilder) MustBuild() QualType {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}

// QualOf returns the QualType of T, one level per Go pointer. It panics if
// the chain is too deep or the final type cannot be described.
func QualOf[T any]() QualType {
	q, err := QualOfType(reflect.TypeFor[T]())
	if err != nil {
		panic(err)
	}
	return q
}

// QualOfType returns the QualType of rt, one level per Go pointer.
func QualOfType(rt reflect.Type) (QualType, error) {
	return qualOfWith(rt, ForType)
}

func qualOfLocked(rt reflect.Type) (QualType, error) {
	return qualOfWith(rt, forTypeLocked)
}

func qualOfWith(rt reflect.Type, resolve func(reflect.Type) (*Descriptor, error)) (QualType, error) {
	if rt == nil {
		return QualType{}, ErrNilDescriptor
	}
	levels := 0
	for rt.Kind() == reflect.Pointer {
		levels++
		rt = rt.Elem()
	}
	if levels > MaxLevels {
		return QualType{}, errors.Wrapf(ErrInternalLimit, "%d indirection levels exceed the maximum of %d", levels, MaxLevels)
	}
	d, err := resolve(rt)
	if err != nil {
		return QualType{}, err
	}
	return QualType{final: d, bits: uint64(levels)}, nil
}
