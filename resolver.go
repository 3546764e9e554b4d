package figh

import (
	"fmt"
	"reflect"
	"sort"

	"go.uber.org/zap"

	"github.com/toutaio/toutago-figh-composition-engine/registry"
)

// compositionBuilder builds the composition node for one registration kind.
// Dispatch is capability-based: the resolver asks each builder in turn, so a
// new registration kind only needs a new builder appended to the set, never a
// change to existing strategy code.
type compositionBuilder interface {
	canBuild(reg *registry.Registration) bool
	build(reg *registry.Registration, r *resolver) (composition, error)
}

// resolver walks the frozen registration model and produces one composition
// node per implementation type, recursively resolving dependencies.
type resolver struct {
	model    *registry.Model
	builders []compositionBuilder

	nodes map[reflect.Type]composition
	order []composition // completion order; dependencies complete first

	inProgress map[reflect.Type]bool
	path       []string

	// lazy edges are filled after the main walk so a deferred reference to
	// an in-progress node never recurses.
	lazy []*dependency

	fields *fieldCache
	log    *zap.Logger
}

func newResolver(model *registry.Model, log *zap.Logger) *resolver {
	return &resolver{
		model: model,
		builders: []compositionBuilder{
			structBuilder{},
			constructorBuilder{},
			factoryBuilder{},
			valueBuilder{},
			injectedBuilder{},
		},
		nodes:      make(map[reflect.Type]composition),
		inProgress: make(map[reflect.Type]bool),
		fields:     newFieldCache(),
		log:        log,
	}
}

// run resolves every registration and fills deferred lazy edges.
func (r *resolver) run() error {
	for _, reg := range r.model.All() {
		if _, err := r.resolveRegistration(reg); err != nil {
			return err
		}
	}
	return r.finishLazy()
}

// resolveRegistration builds (or reuses, by implementation type identity) the
// composition node for a registration. Visiting the same implementation type
// twice returns the same node.
func (r *resolver) resolveRegistration(reg *registry.Registration) (composition, error) {
	impl := reg.ImplType
	if node, ok := r.nodes[impl]; ok {
		return node, nil
	}
	if r.inProgress[impl] {
		cycle := append(append([]string(nil), r.path...), impl.String())
		return nil, &CircularDependencyError{Path: cycle}
	}

	var builder compositionBuilder
	for _, cand := range r.builders {
		if cand.canBuild(reg) {
			builder = cand
			break
		}
	}
	if builder == nil {
		return nil, &InvalidRegistrationError{Reason: fmt.Sprintf("no builder handles registration kind %q", reg.Kind)}
	}

	r.inProgress[impl] = true
	r.path = append(r.path, impl.String())

	node, err := builder.build(reg, r)

	r.path = r.path[:len(r.path)-1]
	delete(r.inProgress, impl)

	if err != nil {
		return nil, err
	}

	r.nodes[impl] = node
	r.order = append(r.order, node)
	r.log.Debug("composition resolved",
		zap.String("type", impl.String()),
		zap.String("strategy", node.strategy()),
		zap.Int("dependencies", len(node.dependencies())))
	return node, nil
}

// dependencyFor resolves one constructor parameter or property into a
// dependency edge.
func (r *resolver) dependencyFor(t reflect.Type, site string, owner reflect.Type) (*dependency, error) {
	switch {
	case t == resolveContextType:
		return &dependency{kind: depContext, site: site}, nil

	case t.Kind() == reflect.Slice:
		elem := t.Elem()
		regs := r.model.ForService(elem)
		members := make([]composition, 0, len(regs))
		for _, reg := range regs {
			node, err := r.resolveRegistration(reg)
			if err != nil {
				return nil, err
			}
			members = append(members, node)
		}
		return &dependency{kind: depCollection, site: site, service: elem, members: members, sliceType: t}, nil

	case isLazyShape(t):
		svc := t.Out(0)
		if !r.model.Has(svc) {
			return nil, &UnresolvedDependencyError{Requested: svc, Owner: owner, Site: site}
		}
		dep := &dependency{kind: depLazy, site: site, service: svc, funcType: t}
		r.lazy = append(r.lazy, dep)
		return dep, nil

	default:
		regs := r.model.ForService(t)
		if len(regs) == 0 {
			return nil, &UnresolvedDependencyError{Requested: t, Owner: owner, Site: site}
		}
		node, err := r.resolveRegistration(regs[0])
		if err != nil {
			return nil, err
		}
		return &dependency{kind: depDirect, site: site, service: t, target: node}, nil
	}
}

// finishLazy resolves the target node of every deferred edge. By now the
// resolution stack has unwound, so resolving a lazy target cannot report a
// spurious cycle. New lazy edges discovered along the way are appended and
// handled in the same loop.
func (r *resolver) finishLazy() error {
	for i := 0; i < len(r.lazy); i++ {
		dep := r.lazy[i]
		regs := r.model.ForService(dep.service)
		if len(regs) == 0 {
			return &SynthesisError{Reason: fmt.Sprintf("lazy edge target %v lost its registration", dep.service)}
		}
		node, err := r.resolveRegistration(regs[0])
		if err != nil {
			return err
		}
		dep.target = node
	}
	return nil
}

// satisfiable reports whether a parameter or property of type t can be
// served by the graph: registered directly, a collection shape (always
// satisfiable, possibly empty), a lazy shape over a registered service, or
// the resolve context.
func (r *resolver) satisfiable(t reflect.Type) bool {
	switch {
	case t == resolveContextType:
		return true
	case t.Kind() == reflect.Slice:
		return true
	case isLazyShape(t):
		return r.model.Has(t.Out(0))
	default:
		return r.model.Has(t)
	}
}

// propertyWrap decorates a composition with property assignments for the
// implementation's inject-tagged fields, if it has any.
func (r *resolver) propertyWrap(inner composition) (composition, error) {
	impl := inner.implType()
	fields := r.fields.getFieldInfo(impl)

	var props []propertyInjection
	for _, f := range fields {
		if !f.isInjectable {
			continue
		}
		if f.options.optional && !r.satisfiable(f.typ) {
			continue
		}

		dep, err := r.dependencyFor(f.typ, f.name, impl)
		if err != nil {
			return nil, err
		}
		props = append(props, propertyInjection{name: f.name, dep: dep})
	}

	if len(props) == 0 {
		return inner, nil
	}
	return &propertyComposition{inner: inner, props: props}, nil
}

// isLazyShape reports whether t is a zero-argument callable returning a
// single value, the shape of a deferred dependency edge.
func isLazyShape(t reflect.Type) bool {
	return t.Kind() == reflect.Func && t.NumIn() == 0 && t.NumOut() == 1
}

// structBuilder composes zero-value struct registrations.
type structBuilder struct{}

func (structBuilder) canBuild(reg *registry.Registration) bool {
	return reg.Kind == registry.KindStruct
}

func (structBuilder) build(reg *registry.Registration, r *resolver) (composition, error) {
	inner := &constructorComposition{
		baseComposition: baseComposition{impl: reg.ImplType, life: Lifetime(reg.Lifetime)},
	}
	return r.propertyWrap(inner)
}

// constructorBuilder composes constructor-function registrations, selecting
// the candidate with the most satisfiable parameters.
type constructorBuilder struct{}

func (constructorBuilder) canBuild(reg *registry.Registration) bool {
	return reg.Kind == registry.KindConstructor
}

func (constructorBuilder) build(reg *registry.Registration, r *resolver) (composition, error) {
	impl := reg.ImplType

	infos := make([]*constructorInfo, 0, len(reg.Constructors))
	for _, ctor := range reg.Constructors {
		info, err := parseConstructor(ctor)
		if err != nil {
			return nil, &InvalidRegistrationError{Reason: fmt.Sprintf("invalid constructor for %v: %v", impl, err)}
		}
		infos = append(infos, info)
	}
	if len(infos) == 0 {
		// Reachable through registrations added to the model directly,
		// bypassing the builder's candidate check.
		return nil, &InvalidRegistrationError{Reason: fmt.Sprintf("no constructor supplied for %v", impl)}
	}

	// Most parameters first; ties keep declaration order.
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].numParams > infos[j].numParams
	})

	var chosen *constructorInfo
	for _, info := range infos {
		ok := true
		for _, p := range info.paramTypes {
			if !r.satisfiable(p) {
				ok = false
				break
			}
		}
		if ok {
			chosen = info
			break
		}
	}

	if chosen == nil {
		best := infos[0]
		for i, p := range best.paramTypes {
			if !r.satisfiable(p) {
				requested := p
				if isLazyShape(p) {
					requested = p.Out(0)
				}
				return nil, &UnresolvedDependencyError{
					Requested: requested,
					Owner:     impl,
					Site:      fmt.Sprintf("parameter %d", i),
				}
			}
		}
		return nil, &SynthesisError{Reason: fmt.Sprintf("no constructor selected for %v", impl)}
	}

	deps := make([]*dependency, 0, chosen.numParams)
	for i, p := range chosen.paramTypes {
		dep, err := r.dependencyFor(p, fmt.Sprintf("parameter %d", i), impl)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}

	inner := &constructorComposition{
		baseComposition: baseComposition{impl: impl, life: Lifetime(reg.Lifetime), deps: deps},
		ctor:            chosen,
	}
	return r.propertyWrap(inner)
}

// factoryBuilder composes opaque factory registrations.
type factoryBuilder struct{}

func (factoryBuilder) canBuild(reg *registry.Registration) bool {
	return reg.Kind == registry.KindFactory
}

func (factoryBuilder) build(reg *registry.Registration, r *resolver) (composition, error) {
	info, err := parseFactory(reg.Factory)
	if err != nil {
		return nil, &InvalidRegistrationError{Reason: fmt.Sprintf("invalid factory for %v: %v", reg.ImplType, err)}
	}
	return &factoryComposition{
		baseComposition: baseComposition{impl: reg.ImplType, life: Lifetime(reg.Lifetime)},
		fn:              info,
	}, nil
}

// valueBuilder composes prebuilt singleton registrations.
type valueBuilder struct{}

func (valueBuilder) canBuild(reg *registry.Registration) bool {
	return reg.Kind == registry.KindValue
}

func (valueBuilder) build(reg *registry.Registration, r *resolver) (composition, error) {
	return &valueComposition{
		baseComposition: baseComposition{impl: reg.ImplType, life: LifetimeSingleton},
		value:           reg.Value,
	}, nil
}

// injectedBuilder composes late-bound singleton registrations.
type injectedBuilder struct{}

func (injectedBuilder) canBuild(reg *registry.Registration) bool {
	return reg.Kind == registry.KindInjected
}

func (injectedBuilder) build(reg *registry.Registration, r *resolver) (composition, error) {
	return &injectedComposition{
		baseComposition: baseComposition{impl: reg.ImplType, life: LifetimeInjected},
	}, nil
}
