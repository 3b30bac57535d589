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

package builder

import (
	"go.uber.org/zap"

	"dirpx.dev/rtti/apis"
	"dirpx.dev/rtti/config"
	"dirpx.dev/rtti/registry"
	"dirpx.dev/rtti/resolver"
	"dirpx.dev/rtti/strategy"
)

// Option configures a builder.
type Option func(*builder)

// LoggerFactory builds the logger for a configuration.
type LoggerFactory func(cfg apis.Config) (*zap.Logger, error)

// WithLogger sets the logger handed to built registries and resolvers.
// It takes precedence over the logger factory.
func WithLogger(l *zap.Logger) Option {
	return func(b *builder) {
		if l != nil {
			b.log = l
		}
	}
}

// WithLoggerFactory replaces config.NewLogger as the source of loggers
// derived from Config.LogLevel.
func WithLoggerFactory(f LoggerFactory) Option {
	return func(b *builder) {
		if f != nil {
			b.newLog = f
		}
	}
}

// WithStrategies adds strategies consulted after the Namer strategy and
// before the registry and reflect fallbacks.
func WithStrategies(s ...apis.Strategy) Option {
	return func(b *builder) {
		b.extra = append(b.extra, s...)
	}
}

// New creates and returns a new instance of an apis.Builder.
func New(opts ...Option) apis.Builder {
	b := &builder{newLog: config.NewLogger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type builder struct {
	log    *zap.Logger
	newLog LoggerFactory
	extra  []apis.Strategy
}

// logger returns the explicit logger, or one built for cfg. A factory
// error yields a no-op logger.
func (b *builder) logger(cfg apis.Config) *zap.Logger {
	if b.log != nil {
		return b.log
	}
	l, err := b.newLog(cfg)
	if err != nil || l == nil {
		return zap.NewNop()
	}
	return l
}

// BuildRegistry builds a registry for cfg. Entries of prev are registered
// again in id order, which reproduces every id because assignment order is
// deterministic. Aliases of prev are carried over.
func (b *builder) BuildRegistry(cfg apis.Config, prev apis.Registry) apis.Registry {
	log := b.logger(cfg)
	nreg := registry.New(cfg, registry.WithLogger(log))
	if prev == nil {
		return nreg
	}
	for _, e := range prev.Entries() {
		id, err := nreg.Register(e.Descriptor)
		if err != nil || id != e.ID {
			log.Warn("type id not preserved",
				zap.String("type", e.Descriptor.Name()),
				zap.Uint32("was", e.ID),
				zap.Uint32("now", id),
				zap.Error(err))
		}
	}
	for _, a := range prev.Aliases() {
		if err := nreg.Alias(a.Type, a.Name); err != nil {
			log.Warn("alias not carried over", zap.String("name", a.Name), zap.Error(err))
		}
	}
	return nreg
}

// BuildResolver builds a resolver consulting, in order: apis.Namer, any
// extra strategies, registry aliases, then reflection.
func (b *builder) BuildResolver(cfg apis.Config, reg apis.Registry, _ apis.Resolver) apis.Resolver {
	chain := resolver.New(
		strategy.NewRegistryStrategy(reg),
		strategy.NewReflectStrategy(),
	).Prepend(b.extra...).Prepend(strategy.NewNamerStrategy())
	return chain.WithLogger(b.logger(cfg))
}
