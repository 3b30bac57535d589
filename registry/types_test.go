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

package registry_test

import "fmt"

type Point struct{ X, Y int32 }

type Line struct{ P1, P2 Point }

type Shape struct {
	Name string
	Tags []string
}

type Entity struct{ ID int64 }

func (e *Entity) Describe() string { return fmt.Sprintf("entity %d", e.ID) }

type Derived struct {
	Entity
	Label    string
	hidden   int
	Callback func()
}

func (d *Derived) Scale(f int32) int32 { return int32(d.ID) * f }

func (d *Derived) Check(limit int64) (bool, error) {
	if d.ID > limit {
		return false, fmt.Errorf("id %d above %d", d.ID, limit)
	}
	return true, nil
}

func (d *Derived) Many(xs ...int) {}

type Shared struct {
	*Entity
	N int8
}

type Node struct {
	Value    int16
	Next     *Node
	Children []Node
}

type lateSegment struct{ A, B int32 }

type lateInner struct{ V int32 }

type lateOuter struct {
	In lateInner
	N  int32
}

type lateChain struct {
	V    int32
	Next *lateChain
}
