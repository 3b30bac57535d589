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

package rtti

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dirpx.dev/rtti/apis"
	"dirpx.dev/rtti/builder"
	"dirpx.dev/rtti/config"
	"dirpx.dev/rtti/meta"
	"dirpx.dev/rtti/object"
	"dirpx.dev/rtti/serialize"
)

func init() {
	cfg := config.DefaultConfig()
	b := builder.New()
	reg := b.BuildRegistry(cfg, nil)
	st.Store(&state{cfg: cfg, reg: reg, res: b.BuildResolver(cfg, reg, nil), bld: b, log: newLogger(cfg)})
}

var (
	// ErrNilRegistry is returned when a builder returns a nil registry.
	ErrNilRegistry = errors.New("rtti: builder returned nil registry")
	// ErrNilResolver is returned when a builder returns a nil resolver.
	ErrNilResolver = errors.New("rtti: builder returned nil resolver")
	// ErrNotPointer is returned when a root value is not a non-nil pointer.
	ErrNotPointer = errors.New("rtti: value must be a non-nil pointer")
)

// Name resolves the name of v with the global resolver.
func Name(v any) string {
	s := st.Load()
	return s.res.Resolve(v, s.cfg)
}

// NameOfType resolves the name of t with the global resolver.
func NameOfType(t reflect.Type) string {
	s := st.Load()
	return s.res.ResolveType(t, s.cfg)
}

// Alias gives t an explicit name in the global registry.
func Alias(t reflect.Type, name string) error {
	return st.Load().reg.Alias(t, name)
}

// Reflect returns the descriptor of v's type, looking through pointers, and
// mirrors Go structs on first use. Class names come from the global resolver.
func Reflect(v any) (*meta.Descriptor, error) {
	return ReflectType(reflect.TypeOf(v))
}

// ReflectType is Reflect for a reflect.Type.
func ReflectType(t reflect.Type) (*meta.Descriptor, error) {
	s := st.Load()
	return s.reg.Reflect(t, s.res)
}

// ResolveQualType parses a qualified type against the global registry.
func ResolveQualType(text string) (meta.QualType, error) {
	return st.Load().reg.ResolveQualType(text)
}

// NewWriter returns a serializer over the value v points to, using the global
// registry for type ids, the global config for buffering and the global
// logger.
//
//	w, err := rtti.NewWriter(&line)
//	_, err = w.WriteTo(conn)
func NewWriter(v any, opts ...serialize.Option) (*serialize.Writer, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, errors.Wrapf(ErrNotPointer, "got %T", v)
	}
	s := st.Load()
	if _, err := s.reg.Reflect(rv.Type().Elem(), s.res); err != nil {
		return nil, err
	}
	typ, err := meta.QualOfType(rv.Type().Elem())
	if err != nil {
		return nil, err
	}
	opts = append([]serialize.Option{serialize.WithConfig(s.cfg), serialize.WithLogger(s.log)}, opts...)
	return serialize.NewWriter(s.reg, object.RawPtr(rv.UnsafePointer(), typ), opts...)
}

// Configure loads the configuration file at path (see config.Load) and
// applies it with SetConfig.
func Configure(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	SetConfig(cfg)
	return nil
}

// Config returns the global configuration.
func Config() apis.Config {
	return st.Load().cfg
}

// SetConfig replaces the global configuration and rebuilds every layer that
// is not pinned. Rebuilt registries keep their type ids and aliases.
func SetConfig(cfg apis.Config) {
	update(func(old, next *state) {
		next.cfg = cfg
		rebuild(old, next)
	})
}

// Logger returns the global logger, built at Config().LogLevel. An invalid
// level yields a no-op logger.
func Logger() *zap.Logger {
	return st.Load().log
}

// Registry returns the global registry.
func Registry() apis.Registry {
	return st.Load().reg
}

// SetRegistry installs reg and pins it. An unpinned resolver is rebuilt on top.
func SetRegistry(reg apis.Registry) {
	if reg == nil {
		return
	}
	update(func(old, next *state) {
		next.reg, next.preg = reg, true
		rebuild(old, next)
	})
}

// Resolver returns the global resolver.
func Resolver() apis.Resolver {
	return st.Load().res
}

// SetResolver installs res and pins it.
func SetResolver(res apis.Resolver) {
	if res == nil {
		return
	}
	update(func(_, next *state) {
		next.res, next.pres = res, true
	})
}

// Builder returns the global builder.
func Builder() apis.Builder {
	return st.Load().bld
}

// SetBuilder installs b and rebuilds the unpinned layers with it.
func SetBuilder(b apis.Builder) {
	if b == nil {
		return
	}
	update(func(old, next *state) {
		next.bld = b
		rebuild(old, next)
	})
}

// SetAll replaces several components at once. Nil arguments keep the current
// component; a nil reg or res is rebuilt and unpinned, a non-nil one is pinned.
func SetAll(cfg *apis.Config, reg apis.Registry, res apis.Resolver, bld apis.Builder) {
	update(func(old, next *state) {
		if cfg != nil {
			next.cfg = *cfg
		}
		if bld != nil {
			next.bld = bld
		}
		next.preg, next.pres = false, false
		if reg != nil {
			next.reg, next.preg = reg, true
		}
		if res != nil {
			next.res, next.pres = res, true
		}
		rebuild(old, next)
	})
}

// IsRegistryPinned reports whether the global registry is pinned.
func IsRegistryPinned() bool { return st.Load().preg }

// PinRegistry stops automatic rebuilds of the global registry.
func PinRegistry() { update(func(_, next *state) { next.preg = true }) }

// UnpinRegistry lets the next reconfiguration rebuild the global registry.
func UnpinRegistry() { update(func(_, next *state) { next.preg = false }) }

// IsResolverPinned reports whether the global resolver is pinned.
func IsResolverPinned() bool { return st.Load().pres }

// PinResolver stops automatic rebuilds of the global resolver.
func PinResolver() { update(func(_, next *state) { next.pres = true }) }

// UnpinResolver lets the next reconfiguration rebuild the global resolver.
func UnpinResolver() { update(func(_, next *state) { next.pres = false }) }

// update derives a new snapshot from the current one under buildMu and
// publishes it.
func update(edit func(old, next *state)) {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	next := *old
	edit(old, &next)
	if next.log == nil || next.cfg.LogLevel != old.cfg.LogLevel {
		next.log = newLogger(next.cfg)
	}

	if next.reg == nil {
		panic(ErrNilRegistry)
	}
	if next.res == nil {
		panic(ErrNilResolver)
	}
	st.Store(&next)
}

// rebuild builds the unpinned layers of next with next's builder. The
// resolver is migrated from the old one and bound to next's registry.
func rebuild(old, next *state) {
	if !next.preg {
		next.reg = next.bld.BuildRegistry(next.cfg, old.reg)
	}
	if !next.pres {
		next.res = next.bld.BuildResolver(next.cfg, next.reg, old.res)
	}
}

func newLogger(cfg apis.Config) *zap.Logger {
	l, err := config.NewLogger(cfg)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// buildMu serializes writers so a partially built snapshot is never published.
var buildMu sync.Mutex

// st holds the current snapshot.
var st atomic.Pointer[state]

// state is an immutable snapshot; writers copy, edit and swap it.
type state struct {
	cfg apis.Config
	reg apis.Registry
	res apis.Resolver
	bld apis.Builder
	log *zap.Logger
	// preg and pres mark the registry and the resolver as pinned.
	preg bool
	pres bool
}
