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

package resolver

import (
	"reflect"

	"go.uber.org/zap"

	"dirpx.dev/rtti/apis"
)

// Chain is an immutable, order-preserving resolver over a set of strategies.
// It is safe for concurrent use provided the strategies are.
type Chain struct {
	strats []apis.Strategy
	log    *zap.Logger
}

// Ensure Chain implements apis.Resolver.
var _ apis.Resolver = (*Chain)(nil)

// New constructs a Chain that tries the given strategies in order.
// Nil strategies are ignored.
func New(strategies ...apis.Strategy) *Chain {
	return &Chain{strats: compact(nil, strategies), log: zap.NewNop()}
}

func compact(dst, src []apis.Strategy) []apis.Strategy {
	out := make([]apis.Strategy, 0, len(dst)+len(src))
	out = append(out, dst...)
	for _, s := range src {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// WithLogger returns a copy of c reporting unresolved types to l at debug level.
func (c *Chain) WithLogger(l *zap.Logger) *Chain {
	if l == nil {
		l = zap.NewNop()
	}
	return &Chain{strats: c.strats, log: l}
}

// Prepend returns a copy of c that consults strategies before its own.
func (c *Chain) Prepend(strategies ...apis.Strategy) *Chain {
	return &Chain{strats: compact(compact(nil, strategies), c.strats), log: c.log}
}

// Len reports the number of strategies.
func (c *Chain) Len() int { return len(c.strats) }

// Resolve returns the first name produced for v, or "".
func (c *Chain) Resolve(v any, cfg apis.Config) string {
	name, _ := c.ResolveIndex(v, cfg)
	return name
}

// ResolveIndex is Resolve that also reports the index of the strategy that
// handled v, or -1.
func (c *Chain) ResolveIndex(v any, cfg apis.Config) (string, int) {
	for i, s := range c.strats {
		if name, ok := s.TryResolve(v, cfg); ok {
			return name, i
		}
	}
	c.log.Debug("no strategy resolved value", zap.String("type", typeString(reflect.TypeOf(v))))
	return "", -1
}

// ResolveType returns the first name produced for t, or "".
func (c *Chain) ResolveType(t reflect.Type, cfg apis.Config) string {
	for _, s := range c.strats {
		if name, ok := s.TryResolveType(t, cfg); ok {
			return name
		}
	}
	c.log.Debug("no strategy resolved type", zap.String("type", typeString(t)))
	return ""
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
