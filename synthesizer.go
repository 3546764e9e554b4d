package figh

import (
	"fmt"
	"path"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Synthesize renders the composition graph into a single deterministic Go
// source text: container struct, one construction method per node in
// dependency order, and the service lookup table. Re-running synthesis on an
// unchanged registration model produces byte-identical output, which is what
// makes the text usable as a compile-cache key.
func (c *Container) Synthesize() (string, error) {
	g := newGenerator(c)
	src, err := g.render()
	if err != nil {
		return "", err
	}
	c.log.Debug("container synthesized",
		zap.Int("bytes", len(src)),
		zap.String("package", c.pkgName))
	return src, nil
}

// generator holds the synthesis state: import aliasing and the rendered
// sections. All iteration follows the container's deterministic orders.
type generator struct {
	c *Container

	aliases    map[string]string // package path -> import alias
	aliasOrder []string          // package paths in first-use order
	aliasTaken map[string]bool
}

func newGenerator(c *Container) *generator {
	return &generator{
		c:          c,
		aliases:    make(map[string]string),
		aliasTaken: make(map[string]bool),
	}
}

func (g *generator) render() (string, error) {
	// Methods and fields are rendered first so imports are known before the
	// header is assembled.
	fields, err := g.collectFields()
	if err != nil {
		return "", err
	}

	var methods strings.Builder
	for _, node := range g.c.order {
		m, err := g.emitNode(node)
		if err != nil {
			return "", err
		}
		methods.WriteString(m)
		methods.WriteString("\n")
	}

	table, err := g.emitServiceTable()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("// Code generated by figh. DO NOT EDIT.\n\n")
	b.WriteString("package " + g.c.pkgName + "\n\n")

	if len(g.aliasOrder) > 0 {
		b.WriteString("import (\n")
		for _, p := range g.aliasOrder {
			b.WriteString("\t" + g.aliases[p] + " " + strconv.Quote(p) + "\n")
		}
		b.WriteString(")\n\n")
	}

	name := g.c.containerName
	b.WriteString("// " + name + " holds the declared field values of the composition graph.\n")
	b.WriteString("// Field order is the loader contract: New" + name + " assigns them in declared order.\n")
	b.WriteString("type " + name + " struct {\n")
	for _, f := range fields {
		b.WriteString("\t" + f.name + " " + f.typ + "\n")
	}
	b.WriteString("}\n\n")

	b.WriteString("// New" + name + " wires the declared field values in declared order.\n")
	var params, assigns []string
	for _, f := range fields {
		if !f.param {
			continue
		}
		params = append(params, f.name+" "+f.typ)
		assigns = append(assigns, "\t\t"+f.name+": "+f.name+",")
	}
	b.WriteString("func New" + name + "(" + strings.Join(params, ", ") + ") *" + name + " {\n")
	b.WriteString("\treturn &" + name + "{\n")
	for _, a := range assigns {
		b.WriteString(a + "\n")
	}
	b.WriteString("\t}\n}\n\n")

	b.WriteString(methods.String())
	b.WriteString(table)
	return b.String(), nil
}

// collectFields walks the nodes in dependency order and gathers the container
// struct fields: prebuilt values, injected values, construction delegates,
// then singleton storage.
func (g *generator) collectFields() ([]fieldDecl, error) {
	var fields []fieldDecl
	for _, node := range g.c.order {
		fields = append(fields, node.containerFields(g)...)
		if node.lifetime() == LifetimeSingleton && storesSingleton(node) {
			fields = append(fields, fieldDecl{
				name: "sgl" + g.ident(node),
				typ:  g.typeRef(node.implType()),
			})
		}
	}
	return fields, nil
}

// storesSingleton reports whether a node needs generated singleton storage.
// Prebuilt and injected values are already container fields.
func storesSingleton(node composition) bool {
	s := node.strategy()
	return s != strategyValue && s != strategyInjected
}

// emitNode renders one construction method.
func (g *generator) emitNode(node composition) (string, error) {
	impl := node.implType()
	name := g.c.names[impl]
	if name == "" {
		return "", &SynthesisError{Reason: fmt.Sprintf("node %v has no generated identifier", impl)}
	}

	needsCtx := g.c.ctxNeeded[impl]
	ret := g.typeRef(impl)

	sig := "func (c *" + g.c.containerName + ") new" + name + "("
	if needsCtx {
		sig += "ctx " + g.typeRef(resolveContextType)
	}
	sig += ") " + ret + " {\n"

	expr, fallible, err := node.instanceExpr(g)
	if err != nil {
		return "", err
	}
	post, err := node.postStatements(g)
	if err != nil {
		return "", err
	}
	post = append(post, g.initStatements(node)...)

	// Trivial body: no assignments, no error handling, no storage.
	if len(post) == 0 && !fallible &&
		(node.lifetime() != LifetimeSingleton || !storesSingleton(node)) {
		return sig + "\treturn " + expr + "\n}\n", nil
	}

	var body []string
	if fallible {
		body = append(body,
			"inst, err := "+expr,
			"if err != nil {",
			"\tpanic(err)",
			"}")
	} else {
		body = append(body, "inst := "+expr)
	}
	body = append(body, post...)

	var b strings.Builder
	b.WriteString(sig)

	if node.lifetime() == LifetimeSingleton && storesSingleton(node) {
		sgl := "c.sgl" + name
		b.WriteString("\tif " + sgl + " == nil {\n")
		for _, line := range body {
			b.WriteString("\t\t" + line + "\n")
		}
		b.WriteString("\t\t" + sgl + " = inst\n")
		b.WriteString("\t}\n")
		b.WriteString("\treturn " + sgl + "\n}\n")
		return b.String(), nil
	}

	for _, line := range body {
		b.WriteString("\t" + line + "\n")
	}
	b.WriteString("\treturn inst\n}\n")
	return b.String(), nil
}

// initStatements renders the post-construction initializer call for types
// the engine constructs itself.
func (g *generator) initStatements(node composition) []string {
	s := node.strategy()
	if s != strategyConstructor && s != strategyProperty {
		return nil
	}
	if !node.implType().Implements(initializableType) {
		return nil
	}
	return []string{
		"if err := inst.Initialize(); err != nil {",
		"\tpanic(err)",
		"}",
	}
}

// emitServiceTable renders the lookup structure from each externally visible
// service type to its ordered construction entry points.
func (g *generator) emitServiceTable() (string, error) {
	var b strings.Builder
	b.WriteString("// ServiceTable maps each exported service type to its ordered construction\n")
	b.WriteString("// entry points.\n")
	b.WriteString("func (c *" + g.c.containerName + ") ServiceTable() map[string][]interface{} {\n")
	b.WriteString("\treturn map[string][]interface{}{\n")
	for _, svc := range g.c.serviceOrder {
		b.WriteString("\t\t" + strconv.Quote(serviceKey(svc)) + ": {\n")
		for _, node := range g.c.lookup[svc] {
			name := g.c.names[node.implType()]
			if name == "" {
				return "", &SynthesisError{Reason: fmt.Sprintf("service entry %v has no generated identifier", node.implType())}
			}
			b.WriteString("\t\t\tc.new" + name + ",\n")
		}
		b.WriteString("\t\t},\n")
	}
	b.WriteString("\t}\n}\n")
	return b.String(), nil
}

// methodCall renders a call to another node's construction method, passing
// the context through when the callee requires it.
func (g *generator) methodCall(node composition) (string, error) {
	impl := node.implType()
	name := g.c.names[impl]
	if name == "" {
		return "", &SynthesisError{Reason: fmt.Sprintf("dependency %v has no generated identifier", impl)}
	}
	call := "c.new" + name + "("
	if g.c.ctxNeeded[impl] {
		call += "ctx"
	}
	return call + ")", nil
}

// depExpr renders the expression that satisfies one dependency edge.
func (g *generator) depExpr(dep *dependency) (string, error) {
	switch dep.kind {
	case depContext:
		return "ctx", nil

	case depDirect:
		return g.methodCall(dep.target)

	case depCollection:
		var b strings.Builder
		b.WriteString(g.typeRef(dep.sliceType) + "{")
		for i, m := range dep.members {
			if i > 0 {
				b.WriteString(", ")
			}
			call, err := g.methodCall(m)
			if err != nil {
				return "", err
			}
			b.WriteString(call)
		}
		b.WriteString("}")
		return b.String(), nil

	case depLazy:
		call, err := g.methodCall(dep.target)
		if err != nil {
			return "", err
		}
		return "func() " + g.typeRef(dep.funcType.Out(0)) + " { return " + call + " }", nil
	}
	return "", &SynthesisError{Reason: fmt.Sprintf("unknown dependency kind %d at %s", dep.kind, dep.site)}
}

// ident returns the generated identifier for a node.
func (g *generator) ident(node composition) string {
	return g.c.names[node.implType()]
}

// delegateField names the container field storing a node's construction
// delegate.
func (g *generator) delegateField(node composition) string {
	if node.strategy() == strategyFactory {
		return "fac" + g.ident(node)
	}
	return "ctor" + g.ident(node)
}

// storageField names the container field storing a node's value.
func (g *generator) storageField(prefix string, node composition) string {
	return prefix + g.ident(node)
}

// factoryType renders the delegate type of a factory field.
func (g *generator) factoryType(fn *factoryInfo) string {
	return g.typeRef(fn.fnType)
}

// typeRef renders a type reference, assigning import aliases on first use.
func (g *generator) typeRef(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Ptr:
		return "*" + g.typeRef(t.Elem())
	case reflect.Slice:
		return "[]" + g.typeRef(t.Elem())
	case reflect.Func:
		return g.funcTypeRef(t)
	default:
		if t.PkgPath() != "" {
			return g.alias(t.PkgPath(), shortPkgOf(t)) + "." + t.Name()
		}
		return t.String()
	}
}

func (g *generator) funcTypeRef(t reflect.Type) string {
	var b strings.Builder
	b.WriteString("func(")
	for i := 0; i < t.NumIn(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(g.typeRef(t.In(i)))
	}
	b.WriteString(")")
	switch t.NumOut() {
	case 0:
	case 1:
		b.WriteString(" " + g.typeRef(t.Out(0)))
	default:
		b.WriteString(" (")
		for i := 0; i < t.NumOut(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(g.typeRef(t.Out(i)))
		}
		b.WriteString(")")
	}
	return b.String()
}

// alias returns the import alias for a package path, assigning one on first
// use. hint is the package's short name when known.
func (g *generator) alias(pkgPath, hint string) string {
	if a, ok := g.aliases[pkgPath]; ok {
		return a
	}

	base := hint
	if base == "" {
		base = sanitizeIdent(path.Base(pkgPath))
	}
	if base == "" {
		base = "pkg"
	}

	a := base
	for i := 2; g.aliasTaken[a]; i++ {
		a = base + strconv.Itoa(i)
	}
	g.aliasTaken[a] = true
	g.aliases[pkgPath] = a
	g.aliasOrder = append(g.aliasOrder, pkgPath)
	return a
}

// shortPkgOf recovers a type's short package name from its string form.
func shortPkgOf(t reflect.Type) string {
	s := t.String()
	if i := strings.Index(s, "."); i > 0 {
		return sanitizeIdent(s[:i])
	}
	return ""
}

// sanitizeIdent strips characters that cannot appear in an identifier.
func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
