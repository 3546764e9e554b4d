package figh

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/toutaio/toutago-figh-composition-engine/registry"
)

// Builder accumulates registrations and turns them into a finalized
// composition container. The registration model freezes when Build is
// called; no further registrations are accepted afterwards.
type Builder struct {
	model *registry.Model
	log   *zap.Logger

	pkgName       string
	containerName string

	providerSeen map[reflect.Type]bool
}

// New creates a new Builder. Options can be provided to configure the
// engine's behavior.
//
// Example:
//
//	builder := figh.New()
//	// or with options:
//	builder := figh.New(figh.WithLogger(logger))
func New(options ...Option) *Builder {
	b := &Builder{
		model:         registry.New(),
		log:           zap.NewNop(),
		pkgName:       "container",
		containerName: "Container",
		providerSeen:  make(map[reflect.Type]bool),
	}

	for _, opt := range options {
		if err := opt(b); err != nil {
			panic(fmt.Sprintf("failed to apply option: %v", err))
		}
	}
	return b
}

// tokenType extracts the service type from an interface pointer token like
// (*Logger)(nil). Concrete pointer tokens identify themselves.
func tokenType(token interface{}) (reflect.Type, error) {
	if token == nil {
		return nil, fmt.Errorf("service token cannot be nil")
	}
	t := reflect.TypeOf(token)
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		return t.Elem(), nil
	}
	return t, nil
}

// implPointerType validates an implementation token and returns its
// pointer-to-struct type.
func implPointerType(impl interface{}) (reflect.Type, error) {
	if impl == nil {
		return nil, fmt.Errorf("implementation cannot be nil")
	}
	t := reflect.TypeOf(impl)
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("implementation must be a pointer to struct, got %v", t)
	}
	return t, nil
}

// checkAssignable verifies that an implementation type satisfies the service
// contract it is registered against.
func checkAssignable(svc, impl reflect.Type) error {
	if svc.Kind() == reflect.Interface {
		if !impl.Implements(svc) {
			return fmt.Errorf("%v does not implement %v", impl, svc)
		}
		return nil
	}
	if !impl.AssignableTo(svc) {
		return fmt.Errorf("%v is not assignable to %v", impl, svc)
	}
	return nil
}

// Register declares a transient binding from a service type to a concrete
// implementation constructed from its zero value, with inject-tagged fields
// satisfied from the graph.
//
// Example:
//
//	builder.Register((*Logger)(nil), &ConsoleLogger{})
func (b *Builder) Register(service, impl interface{}) error {
	return b.registerStruct(service, impl, LifetimeTransient, false)
}

// RegisterSingleton declares a singleton binding: one shared instance,
// created lazily on first construction.
//
// Example:
//
//	builder.RegisterSingleton((*Cache)(nil), &MemoryCache{})
func (b *Builder) RegisterSingleton(service, impl interface{}) error {
	return b.registerStruct(service, impl, LifetimeSingleton, false)
}

// RegisterInternal declares a transient binding that participates in the
// graph and in collection injection but stays out of the externally visible
// service table. Use it to contribute a collection member without exposing a
// duplicate top-level entry.
func (b *Builder) RegisterInternal(service, impl interface{}) error {
	return b.registerStruct(service, impl, LifetimeTransient, true)
}

func (b *Builder) registerStruct(service, impl interface{}, life Lifetime, internal bool) error {
	svc, err := tokenType(service)
	if err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}
	implT, err := implPointerType(impl)
	if err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}
	if err := checkAssignable(svc, implT); err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}

	return b.add(&registry.Registration{
		ServiceType: svc,
		ImplType:    implT,
		Kind:        registry.KindStruct,
		Lifetime:    string(life),
		Internal:    internal,
	})
}

// Constructor declares a binding composed through one of the supplied
// candidate constructor functions. The resolver selects the candidate with
// the most parameters satisfiable by the graph; ties keep declaration order.
// All candidates must return the same implementation type.
//
// Example:
//
//	builder.Constructor((*UserService)(nil), NewUserService)
//	// Where: func NewUserService(logger Logger, db Database) (*UserService, error)
func (b *Builder) Constructor(service interface{}, ctors ...ConstructorFunc) error {
	return b.registerConstructor(service, ctors, LifetimeTransient, false)
}

// SingletonConstructor declares a singleton binding composed through a
// constructor function.
func (b *Builder) SingletonConstructor(service interface{}, ctors ...ConstructorFunc) error {
	return b.registerConstructor(service, ctors, LifetimeSingleton, false)
}

// InternalConstructor declares a constructor binding excluded from the
// externally visible service table.
func (b *Builder) InternalConstructor(service interface{}, ctors ...ConstructorFunc) error {
	return b.registerConstructor(service, ctors, LifetimeTransient, true)
}

func (b *Builder) registerConstructor(service interface{}, ctors []ConstructorFunc, life Lifetime, internal bool) error {
	svc, err := tokenType(service)
	if err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}
	if len(ctors) == 0 {
		return &InvalidRegistrationError{Reason: fmt.Sprintf("no constructor supplied for %v", svc)}
	}

	var implT reflect.Type
	raw := make([]interface{}, 0, len(ctors))
	for _, ctor := range ctors {
		info, err := parseConstructor(ctor)
		if err != nil {
			return &InvalidRegistrationError{Reason: fmt.Sprintf("invalid constructor for %v: %v", svc, err)}
		}
		if implT == nil {
			implT = info.returnType
		} else if info.returnType != implT {
			return &InvalidRegistrationError{Reason: fmt.Sprintf(
				"constructor candidates for %v disagree on result type: %v vs %v", svc, implT, info.returnType)}
		}
		raw = append(raw, ctor)
	}
	if err := checkAssignable(svc, implT); err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}

	return b.add(&registry.Registration{
		ServiceType:  svc,
		ImplType:     implT,
		Kind:         registry.KindConstructor,
		Constructors: raw,
		Lifetime:     string(life),
		Internal:     internal,
	})
}

// Factory declares a binding composed through an opaque delegate, called at
// every resolution. The delegate's internals are never expanded into the
// graph, which also makes a factory edge a valid cycle breaker.
//
// Example:
//
//	builder.Factory((*Connection)(nil), func(ctx *figh.ResolveContext) (*Connection, error) {
//	    return Dial(ctx.Extra("dsn").(string))
//	})
func (b *Builder) Factory(service interface{}, factory FactoryFunc) error {
	svc, err := tokenType(service)
	if err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}
	info, err := parseFactory(factory)
	if err != nil {
		return &InvalidRegistrationError{Reason: fmt.Sprintf("invalid factory for %v: %v", svc, err)}
	}
	if err := checkAssignable(svc, info.returnType); err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}

	return b.add(&registry.Registration{
		ServiceType: svc,
		ImplType:    info.returnType,
		Kind:        registry.KindFactory,
		Factory:     factory,
		Lifetime:    string(LifetimeTransient),
	})
}

// Instance declares a prebuilt singleton: the supplied value is stored in a
// container field and shared by every injection site for the container's
// lifetime.
//
// Example:
//
//	builder.Instance((*Config)(nil), loadedConfig)
func (b *Builder) Instance(service, value interface{}) error {
	svc, err := tokenType(service)
	if err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}
	if value == nil {
		return &InvalidRegistrationError{Reason: fmt.Sprintf("instance for %v cannot be nil", svc)}
	}
	implT := reflect.TypeOf(value)
	if err := checkAssignable(svc, implT); err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}

	return b.add(&registry.Registration{
		ServiceType: svc,
		ImplType:    implT,
		Kind:        registry.KindValue,
		Value:       value,
		Lifetime:    string(LifetimeSingleton),
	})
}

// Injected declares a late-bound singleton: the value is supplied through
// Provide when the container is materialized rather than at registration
// time.
//
// Example:
//
//	builder.Injected((*Clock)(nil), (*SystemClock)(nil))
//	...
//	rt, err := container.Materialize(figh.Provide((*Clock)(nil), clock))
func (b *Builder) Injected(service, implToken interface{}) error {
	svc, err := tokenType(service)
	if err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}
	if implToken == nil {
		return &InvalidRegistrationError{Reason: fmt.Sprintf("implementation token for %v cannot be nil", svc)}
	}
	implT := reflect.TypeOf(implToken)
	if implT.Kind() != reflect.Ptr || implT.Elem().Kind() != reflect.Struct {
		return &InvalidRegistrationError{Reason: fmt.Sprintf(
			"implementation token for %v must be a pointer to struct, got %v", svc, implT)}
	}
	if err := checkAssignable(svc, implT); err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}

	return b.add(&registry.Registration{
		ServiceType: svc,
		ImplType:    implT,
		Kind:        registry.KindInjected,
		Lifetime:    string(LifetimeInjected),
	})
}

func (b *Builder) add(reg *registry.Registration) error {
	if err := b.model.Add(reg); err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}
	return nil
}

// Model exposes the registration model, frozen or not. Intended for
// introspection and tests.
func (b *Builder) Model() *registry.Model {
	return b.model
}

// Build freezes the registration model, resolves the composition graph, and
// returns the finalized container. After Build, further registrations are
// rejected.
func (b *Builder) Build() (*Container, error) {
	b.model.Freeze()

	r := newResolver(b.model, b.log)
	if err := r.run(); err != nil {
		return nil, err
	}

	c := newContainer(b.model, r, b.pkgName, b.containerName, b.log)
	b.log.Info("composition graph built",
		zap.Int("registrations", b.model.Len()),
		zap.Int("nodes", c.NodeCount()),
		zap.Bool("needs_context", c.NeedsContext()))
	return c, nil
}
