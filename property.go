package figh

import (
	"fmt"
	"reflect"
	"strings"
)

// tagOptions represents parsed options from an inject tag.
type tagOptions struct {
	skip     bool // never inject this field
	optional bool // skip silently when no registration exists
}

// parseInjectTag parses an inject struct tag.
// Supported formats:
//   - `inject:""` - required injection
//   - `inject:"optional"` - optional injection
//   - `inject:"-"` - excluded from injection
func parseInjectTag(tag string) tagOptions {
	opts := tagOptions{}

	if tag == "" {
		return opts
	}
	if tag == "-" {
		opts.skip = true
		return opts
	}

	for _, part := range strings.Split(tag, ",") {
		if strings.TrimSpace(part) == "optional" {
			opts.optional = true
		}
	}
	return opts
}

// propertyInjection is one property to set after construction.
type propertyInjection struct {
	name string
	dep  *dependency
}

// propertyComposition decorates an inner strategy with property assignments
// discovered from inject-tagged exported struct fields. Assignments run in
// field declaration order, after the inner instantiation.
type propertyComposition struct {
	inner composition
	props []propertyInjection
}

func (p *propertyComposition) implType() reflect.Type { return p.inner.implType() }
func (p *propertyComposition) strategy() string       { return strategyProperty }
func (p *propertyComposition) lifetime() Lifetime     { return p.inner.lifetime() }

func (p *propertyComposition) dependencies() []*dependency {
	deps := append([]*dependency(nil), p.inner.dependencies()...)
	for _, prop := range p.props {
		deps = append(deps, prop.dep)
	}
	return deps
}

func (p *propertyComposition) directRequiresContext() bool {
	return p.inner.directRequiresContext()
}

func (p *propertyComposition) construct(rt *Runtime, ctx *ResolveContext) (interface{}, error) {
	inst, err := p.inner.construct(rt, ctx)
	if err != nil {
		return nil, err
	}

	elem := reflect.ValueOf(inst).Elem()
	for _, prop := range p.props {
		val, err := rt.depValue(prop.dep, ctx)
		if err != nil {
			return nil, err
		}

		field := elem.FieldByName(prop.name)
		if !field.IsValid() || !field.CanSet() {
			return nil, &SynthesisError{Reason: fmt.Sprintf("property %s of %v is not settable", prop.name, p.implType())}
		}
		if !val.Type().AssignableTo(field.Type()) {
			return nil, &SynthesisError{Reason: fmt.Sprintf("resolved type %v is not assignable to property %s of %v",
				val.Type(), prop.name, p.implType())}
		}
		field.Set(val)
	}
	return inst, nil
}

func (p *propertyComposition) instanceExpr(g *generator) (string, bool, error) {
	return p.inner.instanceExpr(g)
}

func (p *propertyComposition) postStatements(g *generator) ([]string, error) {
	stmts := make([]string, 0, len(p.props))
	for _, prop := range p.props {
		expr, err := g.depExpr(prop.dep)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, "inst."+prop.name+" = "+expr)
	}
	return stmts, nil
}

func (p *propertyComposition) containerFields(g *generator) []fieldDecl {
	return p.inner.containerFields(g)
}
