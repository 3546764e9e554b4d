package figh

import (
	"path"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/toutaio/toutago-figh-composition-engine/registry"
)

// Container is the finalized composition graph: one node per implementation
// type, the service lookup table, the context-requirement flags, and the
// naming metadata used for synthesis. It is immutable once built and safe for
// concurrent read-only use.
type Container struct {
	model *registry.Model

	nodes map[reflect.Type]composition
	order []composition // dependency order; a node's dependencies precede it

	lookup       map[reflect.Type][]composition
	serviceOrder []reflect.Type

	names     map[reflect.Type]string
	ctxNeeded map[reflect.Type]bool
	needsCtx  bool

	pkgName       string
	containerName string
	log           *zap.Logger
}

// newContainer finalizes a resolved graph. All derived metadata is computed
// here, before any synthesis or materialization can observe the container.
func newContainer(model *registry.Model, r *resolver, pkgName, containerName string, log *zap.Logger) *Container {
	c := &Container{
		model:         model,
		nodes:         r.nodes,
		order:         r.order,
		lookup:        make(map[reflect.Type][]composition),
		names:         make(map[reflect.Type]string),
		ctxNeeded:     make(map[reflect.Type]bool),
		pkgName:       pkgName,
		containerName: containerName,
		log:           log,
	}
	c.computeLookup()
	c.computeContext()
	c.computeNames()

	c.log.Debug("composition container finalized",
		zap.Int("nodes", len(c.order)),
		zap.Int("services", len(c.serviceOrder)),
		zap.Bool("needs_context", c.needsCtx))
	return c
}

// computeLookup builds the externally visible service table: for each
// requested service type, the ordered entry-point nodes. Internal
// registrations stay out of the table while remaining reachable through the
// graph and through collection injection.
func (c *Container) computeLookup() {
	for _, reg := range c.model.All() {
		if reg.Internal {
			continue
		}
		if _, seen := c.lookup[reg.ServiceType]; !seen {
			c.serviceOrder = append(c.serviceOrder, reg.ServiceType)
		}
		c.lookup[reg.ServiceType] = append(c.lookup[reg.ServiceType], c.nodes[reg.ImplType])
	}
}

// computeContext computes the least fixed point of the context requirement:
// a node needs context if its own instantiation logic does, or if any
// dependency reached through a direct, collection, or lazy edge does. The
// flag contaminates the generated method signature of every dependent, so it
// must be final before synthesis starts.
func (c *Container) computeContext() {
	for _, node := range c.order {
		c.ctxNeeded[node.implType()] = node.directRequiresContext()
	}

	for changed := true; changed; {
		changed = false
		for _, node := range c.order {
			impl := node.implType()
			if c.ctxNeeded[impl] {
				continue
			}
			for _, dep := range node.dependencies() {
				if c.depNeedsContext(dep) {
					c.ctxNeeded[impl] = true
					changed = true
					break
				}
			}
		}
	}

	for _, node := range c.order {
		if c.ctxNeeded[node.implType()] {
			c.needsCtx = true
			break
		}
	}
}

func (c *Container) depNeedsContext(dep *dependency) bool {
	switch dep.kind {
	case depContext:
		return true
	case depDirect, depLazy:
		return dep.target != nil && c.ctxNeeded[dep.target.implType()]
	case depCollection:
		for _, m := range dep.members {
			if c.ctxNeeded[m.implType()] {
				return true
			}
		}
	}
	return false
}

// computeNames assigns each node a deterministic, collision-free generated
// identifier: the short type name when unique, a package-qualified form when
// two implementation types share a simple name.
func (c *Container) computeNames() {
	counts := make(map[string]int)
	for _, node := range c.order {
		counts[simpleName(node.implType())]++
	}

	used := make(map[string]bool)
	for _, node := range c.order {
		impl := node.implType()
		simple := simpleName(impl)

		name := exportIdent(simple)
		if counts[simple] > 1 {
			name = qualifiedIdent(impl)
		}
		for i := 2; used[name]; i++ {
			name = qualifiedIdent(impl) + strconv.Itoa(i)
		}
		used[name] = true
		c.names[impl] = name
	}
}

// NeedsContext reports whether any node in the graph, directly or
// transitively, requires the per-resolution context.
func (c *Container) NeedsContext() bool {
	return c.needsCtx
}

// NodeCount returns the number of composition nodes in the graph.
func (c *Container) NodeCount() int {
	return len(c.order)
}

// Services returns the externally visible service types in first-registration
// order.
func (c *Container) Services() []reflect.Type {
	cp := make([]reflect.Type, len(c.serviceOrder))
	copy(cp, c.serviceOrder)
	return cp
}

// identifierFor returns the generated identifier for an implementation type,
// or "" when the type is not part of the graph.
func (c *Container) identifierFor(impl reflect.Type) string {
	return c.names[impl]
}

// simpleName returns the short type name of an implementation type.
func simpleName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// qualifiedIdent derives a package-qualified identifier, e.g. Ns1MyClass1
// for ns1.MyClass1.
func qualifiedIdent(t reflect.Type) string {
	elem := t
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	base := path.Base(elem.PkgPath())
	return exportIdent(base) + exportIdent(elem.Name())
}

// exportIdent turns a name into an exported Go identifier fragment.
func exportIdent(s string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// serviceKey renders the stable string key for a service type in the
// generated lookup table.
func serviceKey(t reflect.Type) string {
	elem := t
	prefix := ""
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
		prefix += "*"
	}
	if elem.PkgPath() != "" {
		return prefix + elem.PkgPath() + "." + elem.Name()
	}
	return t.String()
}
