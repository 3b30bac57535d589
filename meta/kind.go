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

import "strings"

// Kind classifies a Descriptor.
type Kind uint8

const (
	// KindScalar is a fixed-size value written as raw bytes.
	KindScalar Kind = iota
	// KindClass is a composite with properties, functions, bases and an optional container.
	KindClass
	// KindEnum is a scalar restricted to a named set of integer constants.
	KindEnum
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindClass:
		return "class"
	case KindEnum:
		return "enum"
	default:
		return "invalid"
	}
}

// Capability is a set of operation table entries.
type Capability uint16

const (
	CanConstruct Capability = 1 << iota
	CanCopyConstruct
	CanMoveConstruct
	CanCopyAssign
	CanMoveAssign
	CanDestroy
	CanEqual
	CanCompare
	CanFormat
	CanParse
)

var capabilityNames = [...]string{
	"default-constructible",
	"copy-constructible",
	"move-constructible",
	"copy-assignable",
	"move-assignable",
	"destructible",
	"equality-comparable",
	"ordered",
	"stringifiable",
	"parsable",
}

// Has reports whether every capability in o is present in c.
func (c Capability) Has(o Capability) bool { return c&o == o }

// String renders the capability set, e.g. "copy-constructible|destructible".
func (c Capability) String() string {
	if c == 0 {
		return "<none>"
	}
	var parts []string
	for i, n := range capabilityNames {
		if c&(1<<i) != 0 {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "|")
}
