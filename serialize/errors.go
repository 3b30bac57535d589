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

package serialize

import "github.com/pkg/errors"

var (
	// ErrPointerSerialization is returned when a value is reached through an
	// indirection. Addresses carry no meaning on the wire.
	ErrPointerSerialization = errors.New("rtti(serialize): cannot serialize through a pointer")
	// ErrBufferTooSmall is returned by Step when unit splitting is disabled and
	// a single unit does not fit into an empty destination.
	ErrBufferTooSmall = errors.New("rtti(serialize): destination smaller than one unit")
	// ErrNilObject is returned when the root handle is empty or has no address.
	ErrNilObject = errors.New("rtti(serialize): nil root object")
	// ErrClosed is returned by Step after Close abandoned an unfinished writer.
	ErrClosed = errors.New("rtti(serialize): writer closed")
	// ErrNilRegistry is returned when no registry is provided for type ids.
	ErrNilRegistry = errors.New("rtti(serialize): nil registry provided")
)
