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

package apis

import (
	"reflect"

	"dirpx.dev/rtti/meta"
)

// Registry owns the wire ids of descriptors, the explicit type aliases and
// the mirroring of Go types into class descriptors.
type Registry interface {
	// Register assigns a wire id to d and, recursively, to every type reachable
	// from it (property final types, container element types, bases).
	// Re-registering returns the existing id.
	Register(d *meta.Descriptor) (uint32, error)
	// Lookup returns the wire id of d if it has one.
	Lookup(d *meta.Descriptor) (id uint32, ok bool)
	// ByID returns the descriptor with the given wire id.
	ByID(id uint32) (*meta.Descriptor, bool)
	// Entries returns a snapshot of all id assignments in id order.
	Entries() []Entry
	// Count returns the number of assigned ids.
	Count() int

	// Alias associates a Go type (pointers stripped) with a fixed name.
	// Idempotent for the same pair; a different name is a conflict.
	Alias(t reflect.Type, name string) error
	// LookupName returns the alias of t if present.
	LookupName(t reflect.Type) (name string, ok bool)
	// Aliases returns a snapshot of all aliases (order is unspecified).
	Aliases() []Alias

	// Reflect returns the descriptor of t, mirroring Go structs into classes on
	// first use. res names mirrored classes; nil falls back to t.String().
	Reflect(t reflect.Type, res Resolver) (*meta.Descriptor, error)
	// ResolveQualType parses the textual form of a qualified type. Aliases are
	// accepted as final type names.
	ResolveQualType(text string) (meta.QualType, error)

	// Reset clears ids (except the fundamental ones), aliases and caches.
	Reset()
}

// Entry is one wire id assignment.
type Entry struct {
	// ID is the wire id.
	ID uint32
	// Descriptor is the type it identifies.
	Descriptor *meta.Descriptor
}

// Alias is one explicit type name.
type Alias struct {
	// Type is the aliased reflect.Type.
	Type reflect.Type
	// Name is the associated name.
	Name string
}
