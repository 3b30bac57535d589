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

// Package rtti provides runtime type information for Go values: type and
// class descriptors, qualified types, type-erased handles, member
// introspection and a resumable binary writer.
//
// # Layers
//
// The module is split by concern:
//
//   - meta: descriptors (name, size, alignment, kind, operation table),
//     classes with bases, properties, functions and containers, and
//     QualType, a two word encoding of an indirection chain with per level
//     const and volatile qualifiers.
//
//   - object: Ptr, a non-owning (address, QualType) handle, and Value, an
//     owning type-erased value that constructs, copies and destroys through
//     the operation table.
//
//   - iter: pre-order property and function cursors over a class and its
//     bases, and Universal, a segment based container iterator.
//
//   - registry: wire type ids, Go struct mirroring, explicit aliases,
//     qualified type parsing and schema export.
//
//   - serialize: a step driven writer over an object graph.
//
//   - inspect: property access and function invocation by name.
//
//   - resolver, strategy, builder: the naming chain used to pick class
//     names when mirroring.
//
// # Global state
//
// This package keeps a read-mostly snapshot of Config, Registry, Resolver
// and Builder behind an atomic pointer. Readers load the snapshot without
// locking:
//
//	d, err := rtti.Reflect(Line{})
//	w, err := rtti.NewWriter(&line)
//	name := rtti.Name(v)
//
// Writers (SetConfig, SetBuilder, SetRegistry, SetResolver, SetAll) take a
// short build lock, derive a new snapshot and publish it. Layers that are
// not pinned are rebuilt through the Builder; a rebuilt registry keeps the
// type ids and aliases of the previous one, so markers written before and
// after a reconfiguration agree.
//
// # Pinning
//
// SetRegistry and SetResolver install an exact instance and pin it: later
// reconfigurations leave it alone until UnpinRegistry or UnpinResolver.
//
// # Wire format
//
// A marker is {type id uint32, count uint32} in host byte order; the writer
// always emits count 1. Scalars are written as their raw bytes. A composite
// root gets no marker; a composite property or element is written as a
// marker followed by its properties and then its container elements; a
// scalar property carries its payload only; a container element always has
// a marker. There is no embedded schema: readers must know the descriptor
// set and ids in advance (see registry.MarshalSchema).
package rtti
