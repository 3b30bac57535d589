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

// Package meta is the reflection object model: type descriptors with their
// operation tables, qualified type pointers, class descriptors with bases,
// properties, functions and container capabilities.
//
// Descriptors live in a process-wide table keyed by Go type and by name. The
// table is write-once per type: build every descriptor during program start
// (package init or before spawning workers) and treat it as read-only after.
//
//	type Point struct{ X, Y int32 }
//
//	var pointDesc = meta.DefineClass[Point]("Point").
//		Property(
//			meta.Field[int32]("x", unsafe.Offsetof(Point{}.X)),
//			meta.Field[int32]("y", unsafe.Offsetof(Point{}.Y)),
//		).
//		MustBuild()
//
// Addresses are passed as unsafe.Pointer throughout; they must point at live
// Go memory of the described type.
package meta
