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
	"slices"
	"unsafe"

	"github.com/pkg/errors"
)

// Upcast maps the address of a derived object to the address of one of its
// base sub-objects. It is the only place base layout knowledge lives.
type Upcast func(derived unsafe.Pointer) unsafe.Pointer

// OffsetUpcast returns an Upcast for a base stored at a fixed offset.
func OffsetUpcast(offset uintptr) Upcast {
	return func(derived unsafe.Pointer) unsafe.Pointer { return unsafe.Add(derived, offset) }
}

// IndirectUpcast returns an Upcast for a base reached through a pointer stored
// at offset (a shared base). A nil pointer yields a nil base address.
func IndirectUpcast(offset uintptr) Upcast {
	return func(derived unsafe.Pointer) unsafe.Pointer {
		return *(*unsafe.Pointer)(unsafe.Add(derived, offset))
	}
}

// Base is one base-class relation.
type Base struct {
	class  *Descriptor
	upcast Upcast
}

// Class returns the base class descriptor.
func (b Base) Class() *Descriptor { return b.class }

// Upcast returns the base sub-object address of derived.
func (b Base) Upcast(derived unsafe.Pointer) unsafe.Pointer {
	if derived == nil {
		return nil
	}
	return b.upcast(derived)
}

// Class holds the members of a class descriptor.
type Class struct {
	desc      *Descriptor
	bases     []Base
	props     []*Property
	funcs     []*Function
	container *Container
}

// Descriptor returns the owning descriptor.
func (c *Class) Descriptor() *Descriptor { return c.desc }

// NumBase returns the number of declared bases.
func (c *Class) NumBase() int { return len(c.bases) }

// Base returns base i in declaration order.
func (c *Class) Base(i int) Base { return c.bases[i] }

// NumProperty returns the number of properties declared by this class itself.
func (c *Class) NumProperty() int { return len(c.props) }

// Property returns own property i in declaration order.
func (c *Class) Property(i int) *Property { return c.props[i] }

// NumFunction returns the number of functions declared by this class itself.
func (c *Class) NumFunction() int { return len(c.funcs) }

// Function returns own function i in declaration order.
func (c *Class) Function(i int) *Function { return c.funcs[i] }

// Container returns the container capability, or nil.
func (c *Class) Container() *Container { return c.container }

// ClassBuilder assembles a class descriptor. The descriptor is reserved in
// the process-wide table as soon as the builder is created so members may
// refer to it; Build completes it and a failed Build releases the name.
// The first error sticks and is reported by Build.
type ClassBuilder struct {
	desc      *Descriptor
	bases     []Base
	props     []*Property
	funcs     []*Function
	container *Container
	err       error
	done      bool
	// reopened builders complete a provisional descriptor and never release it.
	reopened bool
}

// NewClass starts a hand-built class with no Go type behind it.
func NewClass(name string, size, align uintptr, ops Ops) *ClassBuilder {
	d, err := Define(name, size, align, KindClass, ops)
	return &ClassBuilder{desc: d, err: err}
}

// DefineClass starts the class descriptor of the Go type T.
func DefineClass[T any](name string) *ClassBuilder {
	ops := ValueOps[T]()
	ops.Equal = ReflectOps(reflect.TypeFor[T]()).Equal
	return DefineClassType(reflect.TypeFor[T](), name, ops)
}

// DefineClassType starts the class descriptor of rt with an explicit table.
func DefineClassType(rt reflect.Type, name string, ops Ops) *ClassBuilder {
	d, err := DefineType(rt, name, KindClass, ops)
	return &ClassBuilder{desc: d, err: err}
}

// Complete starts a builder that fills in the members of the provisional
// struct class d. The descriptor keeps its name and identity; a failed Build
// leaves it provisional.
func Complete(d *Descriptor) *ClassBuilder {
	switch {
	case d == nil:
		return &ClassBuilder{err: ErrNilDescriptor, done: true}
	case !d.Provisional():
		return &ClassBuilder{desc: d, err: errors.Wrapf(ErrAlreadyDefined, "class %s is complete", d.name), done: true}
	}
	return &ClassBuilder{desc: d, reopened: true}
}

// Descriptor returns the reserved descriptor, or nil if reservation failed.
func (b *ClassBuilder) Descriptor() *Descriptor { return b.desc }

// Ops edits the operation table before the class is built.
func (b *ClassBuilder) Ops(edit func(*Ops)) *ClassBuilder {
	if b.desc != nil && !b.done {
		edit(&b.desc.ops)
		b.desc.caps = b.desc.ops.Capabilities()
	}
	return b
}

// Base declares a base class reached through up.
func (b *ClassBuilder) Base(base *Descriptor, up Upcast) *ClassBuilder {
	switch {
	case b.err != nil:
	case base == nil || up == nil:
		b.err = errors.Wrapf(ErrNilDescriptor, "base of class %s", b.desc.name)
	case base.class == nil:
		b.err = errors.Wrapf(ErrNotClass, "base %s of class %s", base.name, b.desc.name)
	default:
		b.bases = append(b.bases, Base{class: base, upcast: up})
	}
	return b
}

// Property declares properties in order.
func (b *ClassBuilder) Property(props ...*Property) *ClassBuilder {
	b.props = append(b.props, props...)
	return b
}

// Function declares functions in order.
func (b *ClassBuilder) Function(funcs ...*Function) *ClassBuilder {
	b.funcs = append(b.funcs, funcs...)
	return b
}

// Container declares the container capability.
func (b *ClassBuilder) Container(c *Container) *ClassBuilder {
	b.container = c
	return b
}

// Build validates member names across the hierarchy and completes the descriptor.
func (b *ClassBuilder) Build() (*Descriptor, error) {
	if b.done {
		if b.err != nil {
			return nil, b.err
		}
		return nil, errors.Wrapf(ErrAlreadyDefined, "class %s already built", b.desc.name)
	}
	if b.err == nil {
		b.err = checkMembers(b.desc, b.props, b.funcs, b.bases)
	}
	if b.err != nil {
		b.release()
		return nil, b.err
	}
	c := b.desc.class
	c.bases = slices.Clip(b.bases)
	c.props = slices.Clip(b.props)
	c.funcs = slices.Clip(b.funcs)
	c.container = b.container
	b.done = true
	if b.reopened {
		b.desc.provisional.Store(false)
	}
	return b.desc, nil
}

// Abort releases the reserved descriptor without building the class.
func (b *ClassBuilder) Abort() {
	if b.done {
		return
	}
	b.release()
	b.done = true
}

func (b *ClassBuilder) release() {
	if b.reopened || b.desc == nil || b.desc.class == nil {
		return
	}
	table.mu.Lock()
	defer table.mu.Unlock()
	if cur, ok := table.byName.Load(b.desc.name); ok && cur == b.desc {
		unpublishLocked(b.desc)
	}
}

// MustBuild is like Build but panics on error.
func (b *ClassBuilder) MustBuild() *Descriptor {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

// checkMembers rejects a property or function name declared twice in the
// hierarchy. Members of one base reached through several paths are the same
// members and do not collide.
func checkMembers(d *Descriptor, props []*Property, funcs []*Function, bases []Base) error {
	propOwner := make(map[string]*Descriptor)
	funcOwner := make(map[string]*Descriptor)
	claim := func(owners map[string]*Descriptor, what, name string, owner *Descriptor) error {
		prev, ok := owners[name]
		switch {
		case !ok:
			owners[name] = owner
			return nil
		case prev == owner && owner == d:
			return errors.Wrapf(ErrDuplicateMember, "class %s declares %s %q twice", d.name, what, name)
		case prev == owner:
			return nil
		}
		return errors.Wrapf(ErrDuplicateMember, "%s %q of class %s collides with %s of base class %s",
			what, name, prev.name, what, owner.name)
	}
	for _, p := range props {
		if err := claim(propOwner, "property", p.name, d); err != nil {
			return err
		}
	}
	for _, f := range funcs {
		if err := claim(funcOwner, "function", f.name, d); err != nil {
			return err
		}
	}
	visited := make(map[*Descriptor]bool)
	stack := make([]*Descriptor, 0, len(bases))
	for i := len(bases) - 1; i >= 0; i-- {
		stack = append(stack, bases[i].class)
	}
	for len(stack) > 0 {
		base := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if base == d {
			return errors.Wrapf(ErrDuplicateMember, "class %s derives from itself", d.name)
		}
		if visited[base] {
			continue
		}
		visited[base] = true
		c := base.class
		for _, p := range c.props {
			if err := claim(propOwner, "property", p.name, base); err != nil {
				return err
			}
		}
		for _, f := range c.funcs {
			if err := claim(funcOwner, "function", f.name, base); err != nil {
				return err
			}
		}
		for i := len(c.bases) - 1; i >= 0; i-- {
			stack = append(stack, c.bases[i].class)
		}
	}
	return nil
}
