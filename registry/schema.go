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

package registry

import (
	jsoniter "github.com/json-iterator/go"

	"dirpx.dev/rtti/apis"
	"dirpx.dev/rtti/meta"
)

// Schema describes every type with a wire id, in id order. It is what a
// reader of a serialized stream needs to know about the writer's types.
type Schema struct {
	Types []TypeSchema `json:"types"`
}

// TypeSchema describes one descriptor.
type TypeSchema struct {
	ID           uint32           `json:"id"`
	Name         string           `json:"name"`
	Kind         string           `json:"kind"`
	Size         uintptr          `json:"size"`
	Align        uintptr          `json:"align"`
	Capabilities string           `json:"capabilities"`
	Bases        []string         `json:"bases,omitempty"`
	Properties   []PropertySchema `json:"properties,omitempty"`
	Functions    []FunctionSchema `json:"functions,omitempty"`
	Elem         string           `json:"elem,omitempty"`
	Enum         []EnumSchema     `json:"enum,omitempty"`
}

// PropertySchema describes one declared property.
type PropertySchema struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	InPlace bool   `json:"in_place"`
}

// FunctionSchema describes one declared function.
type FunctionSchema struct {
	Name   string   `json:"name"`
	Return string   `json:"return,omitempty"`
	Params []string `json:"params,omitempty"`
}

// EnumSchema is one enumerator.
type EnumSchema struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BuildSchema snapshots the types registered in reg.
func BuildSchema(reg apis.Registry) Schema {
	entries := reg.Entries()
	s := Schema{Types: make([]TypeSchema, 0, len(entries))}
	for _, e := range entries {
		s.Types = append(s.Types, typeSchema(e.ID, e.Descriptor))
	}
	return s
}

// MarshalSchema encodes the schema of reg as indented JSON.
func MarshalSchema(reg apis.Registry) ([]byte, error) {
	return json.MarshalIndent(BuildSchema(reg), "", "  ")
}

// UnmarshalSchema decodes a schema produced by MarshalSchema.
func UnmarshalSchema(data []byte) (Schema, error) {
	var s Schema
	err := json.Unmarshal(data, &s)
	return s, err
}

func typeSchema(id uint32, d *meta.Descriptor) TypeSchema {
	ts := TypeSchema{
		ID:           id,
		Name:         d.Name(),
		Kind:         d.Kind().String(),
		Size:         d.Size(),
		Align:        d.Align(),
		Capabilities: d.Capabilities().String(),
	}
	if e := d.Enum(); e != nil {
		for _, v := range e.Values() {
			ts.Enum = append(ts.Enum, EnumSchema{Name: v.Name, Value: v.Value})
		}
	}
	c := d.Class()
	if c == nil {
		return ts
	}
	for i := range c.NumBase() {
		ts.Bases = append(ts.Bases, c.Base(i).Class().Name())
	}
	for i := range c.NumProperty() {
		p := c.Property(i)
		ts.Properties = append(ts.Properties, PropertySchema{Name: p.Name(), Type: p.Type().String(), InPlace: p.InPlace()})
	}
	for i := range c.NumFunction() {
		f := c.Function(i)
		fs := FunctionSchema{Name: f.Name()}
		if !f.IsVoid() {
			fs.Return = f.Return().String()
		}
		for j := range f.NumParam() {
			fs.Params = append(fs.Params, f.Param(j).Type().String())
		}
		ts.Functions = append(ts.Functions, fs)
	}
	if ct := c.Container(); ct != nil {
		ts.Elem = ct.Elem().String()
	}
	return ts
}
