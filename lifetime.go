package figh

// Lifetime represents the lifecycle strategy for a registered implementation.
type Lifetime string

const (
	// LifetimeTransient constructs a fresh instance at every injection site.
	// This is the default lifetime for Register() operations.
	LifetimeTransient Lifetime = "transient"

	// LifetimeSingleton constructs a single instance that is shared by every
	// injection site and every top-level resolution. The instance is created
	// lazily on first construction and stored once.
	LifetimeSingleton Lifetime = "singleton"

	// LifetimeInjected marks a late-bound singleton: the value is supplied
	// externally when the container is materialized, not at registration time.
	LifetimeInjected Lifetime = "injected"
)

// String returns the string representation of the lifetime.
func (l Lifetime) String() string {
	return string(l)
}

// FactoryFunc documents the delegate shapes accepted by Builder.Factory.
// Supported signatures:
//   - func() *T
//   - func() (*T, error)
//   - func(*ResolveContext) *T
//   - func(*ResolveContext) (*T, error)
//
// A factory is treated as opaque by the engine: its internals are never
// expanded into the graph, which also makes it a valid cycle breaker.
//
// Example:
//
//	builder.Factory((*Connection)(nil), func(ctx *figh.ResolveContext) (*Connection, error) {
//	    dsn, _ := ctx.Extra("dsn").(string)
//	    return Dial(dsn)
//	})
type FactoryFunc interface{}

// ConstructorFunc documents the constructor shapes accepted by
// Builder.Constructor. Supported signatures:
//   - func() *T
//   - func() (*T, error)
//   - func(Dep1) *T
//   - func(Dep1, Dep2, ...) (*T, error)
//
// Parameters may be registered service types, slices of a registered service
// type (collection injection), zero-argument functions returning a registered
// service type (lazy edges), or *ResolveContext.
type ConstructorFunc interface{}
