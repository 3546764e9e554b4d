package figh

import (
	"crypto/sha256"
	"fmt"
	"reflect"
	"sync"

	"github.com/toutaio/toutago-figh-composition-engine/registry"
)

// Initializable represents a service that requires initialization.
// Engine-constructed instances implementing this interface have Initialize
// called after construction and property assignment.
//
// Example:
//
//	type Service struct {}
//	func (s *Service) Initialize() error {
//	    return s.setup()
//	}
type Initializable interface {
	Initialize() error
}

// Disposable represents a service that requires cleanup. Singleton instances
// implementing this interface have Dispose called when the runtime closes.
//
// Example:
//
//	type DatabaseConnection struct {}
//	func (d *DatabaseConnection) Dispose() error {
//	    return d.connection.Close()
//	}
type Disposable interface {
	Dispose() error
}

var initializableType = reflect.TypeOf((*Initializable)(nil)).Elem()

// InjectedValue supplies a late-bound singleton when the container is
// materialized. Create one with Provide.
type InjectedValue struct {
	token interface{}
	value interface{}
}

// Provide pairs a service token with the instance that satisfies its
// injected registration.
//
// Example:
//
//	rt, err := container.Materialize(figh.Provide((*Clock)(nil), systemClock))
func Provide(token, value interface{}) InjectedValue {
	return InjectedValue{token: token, value: value}
}

// blueprint is the loaded artifact for one synthesized program text.
// Blueprints carry no container state: prebuilt values, factory delegates,
// and constructor closures never appear in the text, so containers sharing
// identical text must never share them through the cache.
type blueprint struct {
	source string
}

// compileEntry guards a single blueprint load.
type compileEntry struct {
	bp   *blueprint
	once sync.Once
}

// compileCache is the process-wide loader cache, keyed by the SHA-256 of the
// synthesized text: identical generated programs are loaded at most once even
// under concurrent first use. Entries are immutable and retained for the
// process lifetime.
type compileCache struct {
	mu      sync.RWMutex
	entries map[[sha256.Size]byte]*compileEntry
}

func newCompileCache() *compileCache {
	return &compileCache{
		entries: make(map[[sha256.Size]byte]*compileEntry),
	}
}

// loadCache is shared by all containers in the process.
var loadCache = newCompileCache()

// getOrLoad returns the blueprint for a synthesized program, loading it at
// most once per distinct text.
func (cc *compileCache) getOrLoad(source string) *blueprint {
	key := sha256.Sum256([]byte(source))

	cc.mu.RLock()
	entry, exists := cc.entries[key]
	cc.mu.RUnlock()

	if !exists {
		cc.mu.Lock()
		entry, exists = cc.entries[key]
		if !exists {
			entry = &compileEntry{}
			cc.entries[key] = entry
		}
		cc.mu.Unlock()
	}

	entry.once.Do(func() {
		entry.bp = &blueprint{source: source}
	})
	return entry.bp
}

// len reports the number of cached blueprints.
func (cc *compileCache) len() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.entries)
}

// Runtime is an invokable container: the in-memory loading of a synthesized
// program, instantiated with the declared field values of one container.
// Construction at resolve time walks pre-resolved composition nodes; no
// registration lookup or type analysis happens on this path.
type Runtime struct {
	c          *Container
	bp         *blueprint
	injected   map[reflect.Type]interface{}
	singletons *singletonCache
}

// Materialize loads the composition graph into an invokable runtime,
// supplying the declared injected values. It fails with a CompileError
// carrying the full generated source when a declared injected value is
// missing or of the wrong type.
func (c *Container) Materialize(values ...InjectedValue) (*Runtime, error) {
	source, err := c.Synthesize()
	if err != nil {
		return nil, err
	}
	bp := loadCache.getOrLoad(source)

	injected := make(map[reflect.Type]interface{})
	var diags []string
	for _, v := range values {
		svc, err := tokenType(v.token)
		if err != nil {
			diags = append(diags, fmt.Sprintf("invalid injected token: %v", err))
			continue
		}
		reg := c.injectedRegistration(svc)
		if reg == nil {
			diags = append(diags, fmt.Sprintf("no injected registration for %v", svc))
			continue
		}
		if v.value == nil || !reflect.TypeOf(v.value).AssignableTo(reg.ImplType) {
			diags = append(diags, fmt.Sprintf("value for %v is not assignable to %v", svc, reg.ImplType))
			continue
		}
		injected[reg.ImplType] = v.value
	}

	for _, node := range c.order {
		if node.strategy() != strategyInjected {
			continue
		}
		if _, ok := injected[node.implType()]; !ok {
			diags = append(diags, fmt.Sprintf("missing injected value for %v", node.implType()))
		}
	}

	if len(diags) > 0 {
		return nil, &CompileError{Diagnostics: diags, Source: source}
	}

	return &Runtime{
		c:          c,
		bp:         bp,
		injected:   injected,
		singletons: newSingletonCache(),
	}, nil
}

// injectedRegistration finds the injected registration declared for a
// service type, if any.
func (c *Container) injectedRegistration(svc reflect.Type) *registry.Registration {
	for _, reg := range c.model.ForService(svc) {
		if node, ok := c.nodes[reg.ImplType]; ok && node.strategy() == strategyInjected {
			return reg
		}
	}
	return nil
}

// Source returns the synthesized program this runtime was loaded from.
func (r *Runtime) Source() string {
	return r.bp.source
}

// Resolve returns the first registered instance for the service token, using
// a fresh resolution context.
//
// Example:
//
//	svc, err := rt.Resolve((*Logger)(nil))
func (r *Runtime) Resolve(token interface{}) (interface{}, error) {
	return r.ResolveWithContext(NewResolveContext(), token)
}

// ResolveWithContext resolves the first registered instance for the service
// token, threading the supplied context into every context-aware
// construction on the path.
func (r *Runtime) ResolveWithContext(ctx *ResolveContext, token interface{}) (interface{}, error) {
	svc, entries, err := r.entries(token)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = NewResolveContext()
	}

	inst, err := r.construct(entries[0], ctx)
	if err != nil {
		return nil, &ResolutionError{Type: svc, Cause: err}
	}
	return inst, nil
}

// ResolveAll returns every registered instance for the service token, in
// registration order.
func (r *Runtime) ResolveAll(token interface{}) ([]interface{}, error) {
	return r.ResolveAllWithContext(NewResolveContext(), token)
}

// ResolveAllWithContext resolves every registered instance for the service
// token with the supplied context.
func (r *Runtime) ResolveAllWithContext(ctx *ResolveContext, token interface{}) ([]interface{}, error) {
	svc, entries, err := r.entries(token)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = NewResolveContext()
	}

	instances := make([]interface{}, 0, len(entries))
	for _, node := range entries {
		inst, err := r.construct(node, ctx)
		if err != nil {
			return nil, &ResolutionError{Type: svc, Cause: err}
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

func (r *Runtime) entries(token interface{}) (reflect.Type, []composition, error) {
	svc, err := tokenType(token)
	if err != nil {
		return nil, nil, &ResolutionError{Type: nil, Cause: err}
	}
	entries := r.c.lookup[svc]
	if len(entries) == 0 {
		return nil, nil, &ResolutionError{Type: svc, Context: "service is not registered"}
	}
	return svc, entries, nil
}

// construct builds one instance of a node, honoring its lifetime.
func (r *Runtime) construct(node composition, ctx *ResolveContext) (interface{}, error) {
	impl := node.implType()
	ctx.push(impl.String())
	defer ctx.pop()

	if node.lifetime() == LifetimeSingleton && storesSingleton(node) {
		return r.singletons.getOrCreate(impl, func() (interface{}, error) {
			return r.buildInstance(node, ctx)
		})
	}
	return r.buildInstance(node, ctx)
}

func (r *Runtime) buildInstance(node composition, ctx *ResolveContext) (interface{}, error) {
	inst, err := node.construct(r, ctx)
	if err != nil {
		return nil, err
	}

	s := node.strategy()
	if s == strategyConstructor || s == strategyProperty {
		if initializable, ok := inst.(Initializable); ok {
			if err := initializable.Initialize(); err != nil {
				return nil, fmt.Errorf("failed to initialize %v: %w", node.implType(), err)
			}
		}
	}
	return inst, nil
}

// depValue materializes the value for one dependency edge.
func (r *Runtime) depValue(dep *dependency, ctx *ResolveContext) (reflect.Value, error) {
	switch dep.kind {
	case depContext:
		return reflect.ValueOf(ctx), nil

	case depDirect:
		inst, err := r.construct(dep.target, ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(inst), nil

	case depCollection:
		slice := reflect.MakeSlice(dep.sliceType, 0, len(dep.members))
		for _, m := range dep.members {
			inst, err := r.construct(m, ctx)
			if err != nil {
				return reflect.Value{}, err
			}
			slice = reflect.Append(slice, reflect.ValueOf(inst))
		}
		return slice, nil

	case depLazy:
		target := dep.target
		snapshot := ctx.fork()
		fn := reflect.MakeFunc(dep.funcType, func([]reflect.Value) []reflect.Value {
			// Each invocation gets its own fork: the deferred call may fire
			// after the originating resolution completed, or concurrently.
			inst, err := r.construct(target, snapshot.fork())
			if err != nil {
				panic(&ResolutionError{Type: dep.service, Cause: err})
			}
			return []reflect.Value{reflect.ValueOf(inst)}
		})
		return fn, nil
	}
	return reflect.Value{}, &SynthesisError{Reason: fmt.Sprintf("unknown dependency kind %d at %s", dep.kind, dep.site)}
}

// Close disposes singleton instances implementing Disposable, in reverse
// creation order. The runtime must not be used afterwards.
func (r *Runtime) Close() error {
	errs := r.singletons.dispose()
	if len(errs) > 0 {
		return fmt.Errorf("runtime close encountered %d error(s): %v", len(errs), errs)
	}
	return nil
}
