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
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dirpx.dev/rtti/apis"
	"dirpx.dev/rtti/config"
	"dirpx.dev/rtti/meta"
	uref "dirpx.dev/rtti/utils/reflect"
)

var (
	// ErrNilType is returned when a nil reflect.Type is provided.
	ErrNilType = errors.New("rtti(registry): nil reflect.Type provided")
	// ErrEmptyName is returned when an empty name is provided.
	ErrEmptyName = errors.New("rtti(registry): empty name provided")
	// ErrConflictingRegistration indicates an attempt to re-register
	// a type with a different name, or a name with a different type.
	ErrConflictingRegistration = errors.New("rtti(registry): conflicting type registration")
	// ErrNilDescriptor is returned when a nil descriptor is registered.
	ErrNilDescriptor = errors.New("rtti(registry): nil descriptor provided")
	// ErrIDSpaceExhausted is returned when every uint32 id is taken.
	ErrIDSpaceExhausted = errors.New("rtti(registry): type id space exhausted")
)

// Option configures a registry.
type Option func(*registry)

// WithLogger sets the logger used for id assignment and mirroring events.
func WithLogger(l *zap.Logger) Option {
	return func(r *registry) {
		if l != nil {
			r.log = l
		}
	}
}

// New constructs a Registry. The fundamental integer types always hold ids
// 0..7 in the order int8, int16, int32, int64, uint8, uint16, uint32, uint64.
func New(cfg apis.Config, opts ...Option) apis.Registry {
	if cfg.MaxLevels <= 0 {
		cfg.MaxLevels = config.DefaultMaxLevels
	}
	cfg = config.Normalize(cfg)
	r := &registry{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.cache = newTypeCache(cfg.TypeCacheSize)
	r.seed()
	return r
}

// registry is the Registry implementation: wire ids backed by sync.Map for
// lock-free reads, with writes serialized by mu.
type registry struct {
	// cfg is the configuration used for mirroring and caching.
	cfg apis.Config
	log *zap.Logger

	// mu guards write-side consistency, byID and aliasCount.
	mu sync.Mutex
	// ids maps *meta.Descriptor to its wire id.
	ids sync.Map
	// byID lists descriptors in id order.
	byID []*meta.Descriptor

	// aliases maps reflect.Type to registered name; names is the reverse.
	aliases    sync.Map
	names      sync.Map
	aliasCount int

	cache *typeCache
}

// Ensure registry implements apis.Registry.
var _ apis.Registry = (*registry)(nil)

func (r *registry) seed() {
	for _, d := range meta.Fundamentals() {
		r.ids.Store(d, uint32(len(r.byID)))
		r.byID = append(r.byID, d)
	}
}

// Register assigns wire ids to d and every type reachable from it, in
// first-seen order. It is idempotent.
func (r *registry) Register(d *meta.Descriptor) (uint32, error) {
	if d == nil {
		return 0, ErrNilDescriptor
	}
	// Fast read path: already assigned.
	if id, ok := r.ids.Load(d); ok {
		return id.(uint32), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(d)
}

func (r *registry) registerLocked(root *meta.Descriptor) (uint32, error) {
	if id, ok := r.ids.Load(root); ok {
		return id.(uint32), nil
	}
	stack := []*meta.Descriptor{root}
	for len(stack) > 0 {
		d := stack[0]
		stack = stack[1:]
		if _, ok := r.ids.Load(d); ok {
			continue
		}
		if d.Provisional() {
			// Described before it was mirrored: fill in the members so
			// the walk sees them.
			if err := r.complete(d); err != nil {
				return 0, errors.Wrapf(err, "complete class %s", d.Name())
			}
		}
		if uint64(len(r.byID)) > uint64(^uint32(0)) {
			return 0, ErrIDSpaceExhausted
		}
		id := uint32(len(r.byID))
		r.ids.Store(d, id)
		r.byID = append(r.byID, d)
		r.log.Debug("assigned type id", zap.Uint32("id", id), zap.String("type", d.Name()))

		// Visit reachable types depth-first in declaration order.
		stack = append(reachable(d), stack...)
	}
	id, _ := r.ids.Load(root)
	return id.(uint32), nil
}

// reachable lists the final types of d's properties, its container element
// type and its bases.
func reachable(d *meta.Descriptor) []*meta.Descriptor {
	c := d.Class()
	if c == nil {
		return nil
	}
	out := make([]*meta.Descriptor, 0, c.NumProperty()+c.NumBase()+1)
	for i := range c.NumProperty() {
		out = append(out, c.Property(i).Type().FinalType())
	}
	if ct := c.Container(); ct != nil {
		out = append(out, ct.Elem().FinalType())
	}
	for i := range c.NumBase() {
		out = append(out, c.Base(i).Class())
	}
	return out
}

// Lookup returns the wire id of d if one was assigned.
func (r *registry) Lookup(d *meta.Descriptor) (uint32, bool) {
	if d == nil {
		return 0, false
	}
	if id, ok := r.ids.Load(d); ok {
		return id.(uint32), true
	}
	return 0, false
}

// ByID returns the descriptor with wire id id.
func (r *registry) ByID(id uint32) (*meta.Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if uint64(id) >= uint64(len(r.byID)) {
		return nil, false
	}
	return r.byID[id], true
}

// Entries returns a snapshot of all id assignments in id order.
func (r *registry) Entries() []apis.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]apis.Entry, len(r.byID))
	for i, d := range r.byID {
		entries[i] = apis.Entry{ID: uint32(i), Descriptor: d}
	}
	return entries
}

// Count returns the number of assigned ids.
func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Alias associates the pointee of t with the given name.
// It is idempotent for the same (type,name) pair.
func (r *registry) Alias(t reflect.Type, name string) error {
	// Validate inputs early.
	if t == nil {
		return ErrNilType
	}
	if name == "" {
		return ErrEmptyName
	}
	b, _, err := uref.Unwrap(t, meta.MaxLevels)
	if err != nil {
		return err
	}

	// Fast read path: idempotency / conflict check without locking.
	if old, ok := r.aliases.Load(b); ok {
		if old.(string) == name {
			return nil // idempotent re-registration
		}
		return errors.Wrapf(ErrConflictingRegistration, "%s is already %q", b, old)
	}

	// Write path: guard with a mutex to keep counter consistent and avoid ABA.
	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if old, ok := r.aliases.Load(b); ok {
		if old.(string) == name {
			return nil
		}
		return errors.Wrapf(ErrConflictingRegistration, "%s is already %q", b, old)
	}
	if other, ok := r.names.Load(name); ok {
		return errors.Wrapf(ErrConflictingRegistration, "name %q already names %s", name, other)
	}

	r.aliases.Store(b, name)
	r.names.Store(name, b)
	r.aliasCount++
	return nil
}

// LookupName returns the alias of t (pointers stripped) if present.
func (r *registry) LookupName(t reflect.Type) (string, bool) {
	if t == nil {
		return "", false
	}
	b, _, err := uref.Unwrap(t, meta.MaxLevels)
	if err != nil {
		return "", false
	}
	if v, ok := r.aliases.Load(b); ok {
		return v.(string), true
	}
	return "", false
}

// Aliases returns a snapshot of all aliases (order is unspecified).
func (r *registry) Aliases() []apis.Alias {
	r.mu.Lock()
	out := make([]apis.Alias, 0, r.aliasCount)
	r.mu.Unlock()
	r.aliases.Range(func(key, value any) bool {
		out = append(out, apis.Alias{
			Type: key.(reflect.Type),
			Name: value.(string),
		})
		return true
	})
	return out
}

// Reset clears ids (keeping the fundamental ones), aliases and caches.
func (r *registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = sync.Map{}
	r.byID = nil
	r.aliases = sync.Map{}
	r.names = sync.Map{}
	r.aliasCount = 0
	r.cache.purge()
	r.seed()
}
