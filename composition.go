package figh

import (
	"fmt"
	"reflect"
)

// Strategy names, used in plans and diagnostics.
const (
	strategyConstructor = "constructor"
	strategyFactory     = "factory"
	strategyValue       = "prebuilt"
	strategyInjected    = "injected"
	strategyProperty    = "property"
)

// depKind classifies a dependency edge.
type depKind int

const (
	// depDirect is a direct reference to another composition node.
	depDirect depKind = iota

	// depCollection is an ordered enumeration over every node registered
	// against an element service type.
	depCollection

	// depLazy is a deferred reference resolved through a zero-argument
	// callable. Lazy edges break construction cycles.
	depLazy

	// depContext is the per-resolution context payload.
	depContext
)

// dependency is one edge of a composition node: a reference to another node,
// a collection placeholder, a lazy reference, or the resolve context.
type dependency struct {
	kind    depKind
	site    string       // "parameter 2" or a property name
	service reflect.Type // requested service (direct, lazy) or element service (collection)

	target    composition   // resolved node (direct and lazy edges)
	members   []composition // resolved nodes in registration order (collection edges)
	sliceType reflect.Type  // static slice type (collection edges)
	funcType  reflect.Type  // static func type (lazy edges)
}

// composition is the resolved construction strategy for one implementation
// type. At most one composition exists per implementation type; the resolver
// reuses nodes so that shared dependencies are composed once.
//
// The capability set covers both halves of the engine: construct() serves
// the in-memory loader, while instanceExpr/postStatements/containerFields
// serve the code synthesizer.
type composition interface {
	implType() reflect.Type
	strategy() string
	lifetime() Lifetime
	dependencies() []*dependency

	// directRequiresContext reports whether this node's own instantiation
	// logic needs the per-resolution context, ignoring dependencies.
	directRequiresContext() bool

	// construct builds one instance for a materialized runtime.
	construct(rt *Runtime, ctx *ResolveContext) (interface{}, error)

	// instanceExpr renders the instantiation expression. fallible reports
	// whether the expression also yields an error value.
	instanceExpr(g *generator) (expr string, fallible bool, err error)

	// postStatements renders statements executed after instantiation, in
	// declared order.
	postStatements(g *generator) ([]string, error)

	// containerFields declares the container fields this node stores.
	containerFields(g *generator) []fieldDecl
}

// fieldDecl is one field of the synthesized container struct.
type fieldDecl struct {
	name string
	typ  string
	// param marks fields supplied through the generated constructor, in
	// declared order (the contract with the external loader).
	param bool
}

// baseComposition carries the state shared by every strategy variant.
type baseComposition struct {
	impl reflect.Type
	life Lifetime
	deps []*dependency
}

func (b *baseComposition) implType() reflect.Type      { return b.impl }
func (b *baseComposition) lifetime() Lifetime          { return b.life }
func (b *baseComposition) dependencies() []*dependency { return b.deps }

// factoryComposition wraps an opaque caller-supplied delegate. Its internals
// are never expanded into the graph.
type factoryComposition struct {
	baseComposition
	fn *factoryInfo
}

func (f *factoryComposition) strategy() string            { return strategyFactory }
func (f *factoryComposition) directRequiresContext() bool { return f.fn.wantsContext }

func (f *factoryComposition) construct(rt *Runtime, ctx *ResolveContext) (interface{}, error) {
	var args []reflect.Value
	if f.fn.wantsContext {
		args = []reflect.Value{reflect.ValueOf(ctx)}
	}

	results := f.fn.fn.Call(args)
	if f.fn.returnsError {
		if errV := results[1]; !errV.IsNil() {
			return nil, fmt.Errorf("factory for %v returned error: %w", f.impl, errV.Interface().(error))
		}
	}
	return results[0].Interface(), nil
}

func (f *factoryComposition) instanceExpr(g *generator) (string, bool, error) {
	call := "c." + g.delegateField(f) + "("
	if f.fn.wantsContext {
		call += "ctx"
	}
	call += ")"
	return call, f.fn.returnsError, nil
}

func (f *factoryComposition) postStatements(g *generator) ([]string, error) {
	return nil, nil
}

func (f *factoryComposition) containerFields(g *generator) []fieldDecl {
	return []fieldDecl{{
		name:  g.delegateField(f),
		typ:   g.factoryType(f.fn),
		param: true,
	}}
}

// valueComposition wraps a pre-constructed instance supplied at registration
// time. It has no dependencies and never requires context.
type valueComposition struct {
	baseComposition
	value interface{}
}

func (v *valueComposition) strategy() string            { return strategyValue }
func (v *valueComposition) directRequiresContext() bool { return false }

func (v *valueComposition) construct(rt *Runtime, ctx *ResolveContext) (interface{}, error) {
	return v.value, nil
}

func (v *valueComposition) instanceExpr(g *generator) (string, bool, error) {
	return "c." + g.storageField("val", v), false, nil
}

func (v *valueComposition) postStatements(g *generator) ([]string, error) {
	return nil, nil
}

func (v *valueComposition) containerFields(g *generator) []fieldDecl {
	return []fieldDecl{{
		name:  g.storageField("val", v),
		typ:   g.typeRef(v.impl),
		param: true,
	}}
}

// injectedComposition is a late-bound singleton: semantically a prebuilt
// value whose instance arrives when the container is materialized.
type injectedComposition struct {
	baseComposition
}

func (i *injectedComposition) strategy() string            { return strategyInjected }
func (i *injectedComposition) directRequiresContext() bool { return false }

func (i *injectedComposition) construct(rt *Runtime, ctx *ResolveContext) (interface{}, error) {
	val, ok := rt.injected[i.impl]
	if !ok {
		// Materialize validates injected values up front; reaching this
		// point means a node reference escaped that check.
		return nil, &SynthesisError{Reason: fmt.Sprintf("no injected value for %v", i.impl)}
	}
	return val, nil
}

func (i *injectedComposition) instanceExpr(g *generator) (string, bool, error) {
	return "c." + g.storageField("inj", i), false, nil
}

func (i *injectedComposition) postStatements(g *generator) ([]string, error) {
	return nil, nil
}

func (i *injectedComposition) containerFields(g *generator) []fieldDecl {
	return []fieldDecl{{
		name:  g.storageField("inj", i),
		typ:   g.typeRef(i.impl),
		param: true,
	}}
}
