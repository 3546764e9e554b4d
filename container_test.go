package figh

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toutaio/toutago-figh-composition-engine/internal/testtypes/ns1"
	"github.com/toutaio/toutago-figh-composition-engine/internal/testtypes/ns2"
)

func TestGeneratedNamesUseShortFormWhenUnique(t *testing.T) {
	b := New()
	require.NoError(t, b.Register((*ns1.MyClass1)(nil), &ns1.MyClass1{}))
	require.NoError(t, b.Constructor((*ns1.MyClass2)(nil), ns1.NewMyClass2))

	c, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "MyClass1", c.identifierFor(reflect.TypeOf(&ns1.MyClass1{})))
	assert.Equal(t, "MyClass2", c.identifierFor(reflect.TypeOf(&ns1.MyClass2{})))
}

func TestGeneratedNamesQualifiedOnSimpleNameCollision(t *testing.T) {
	b := New()
	require.NoError(t, b.Register((*ns1.MyClass1)(nil), &ns1.MyClass1{}))
	require.NoError(t, b.Register((*ns2.MyClass1)(nil), &ns2.MyClass1{}))
	require.NoError(t, b.Constructor((*ns1.MyClass2)(nil), ns1.NewMyClass2))

	c, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "Ns1MyClass1", c.identifierFor(reflect.TypeOf(&ns1.MyClass1{})))
	assert.Equal(t, "Ns2MyClass1", c.identifierFor(reflect.TypeOf(&ns2.MyClass1{})))
	// Unaffected types keep the short form.
	assert.Equal(t, "MyClass2", c.identifierFor(reflect.TypeOf(&ns1.MyClass2{})))
}

func TestContextRequirementPropagatesToDependents(t *testing.T) {
	b := New()
	require.NoError(t, b.Constructor((*TenantAuditor)(nil), NewTenantAuditor))
	require.NoError(t, b.Constructor((*AuditedService)(nil), NewAuditedService))
	require.NoError(t, b.Register((*Logger)(nil), &ConsoleLogger{}))

	c, err := b.Build()
	require.NoError(t, err)
	assert.True(t, c.NeedsContext())

	auditor := reflect.TypeOf(&TenantAuditor{})
	dependent := reflect.TypeOf(&AuditedService{})
	bystander := reflect.TypeOf(&ConsoleLogger{})
	assert.True(t, c.ctxNeeded[auditor])
	assert.True(t, c.ctxNeeded[dependent])
	assert.False(t, c.ctxNeeded[bystander])
}

func TestContextFlowsThroughResolution(t *testing.T) {
	b := New()
	require.NoError(t, b.Constructor((*TenantAuditor)(nil), NewTenantAuditor))
	require.NoError(t, b.Constructor((*AuditedService)(nil), NewAuditedService))

	c, err := b.Build()
	require.NoError(t, err)
	rt, err := c.Materialize()
	require.NoError(t, err)

	ctx := NewResolveContext().WithExtra("tenant", "acme")
	got, err := rt.ResolveWithContext(ctx, (*AuditedService)(nil))
	require.NoError(t, err)
	assert.Equal(t, "acme", got.(*AuditedService).Auditor.Tenant)

	// A nil context is replaced by an empty one.
	got, err = rt.ResolveWithContext(nil, (*AuditedService)(nil))
	require.NoError(t, err)
	assert.Equal(t, "", got.(*AuditedService).Auditor.Tenant)
}

func TestNoContextWithoutContextAwareNodes(t *testing.T) {
	b := New()
	require.NoError(t, b.Register((*Logger)(nil), &ConsoleLogger{}))

	c, err := b.Build()
	require.NoError(t, err)
	assert.False(t, c.NeedsContext())
}

func TestServicesInFirstRegistrationOrder(t *testing.T) {
	b := New()
	require.NoError(t, b.Register((*Handler)(nil), &UserHandler{}))
	require.NoError(t, b.Register((*Logger)(nil), &ConsoleLogger{}))
	require.NoError(t, b.Register((*Handler)(nil), &AdminHandler{}))

	c, err := b.Build()
	require.NoError(t, err)

	services := c.Services()
	require.Len(t, services, 2)
	assert.Equal(t, reflect.TypeOf((*Handler)(nil)).Elem(), services[0])
	assert.Equal(t, reflect.TypeOf((*Logger)(nil)).Elem(), services[1])
}

func TestResolveContextExtrasAndPath(t *testing.T) {
	ctx := NewResolveContext().WithExtra("k", 7)
	assert.Equal(t, 7, ctx.Extra("k"))
	assert.True(t, ctx.HasExtra("k"))
	assert.Nil(t, ctx.Extra("missing"))
	assert.False(t, ctx.HasExtra("missing"))

	assert.Nil(t, ctx.Path())
	ctx.push("a")
	ctx.push("b")
	assert.Equal(t, []string{"a", "b"}, ctx.Path())
	ctx.pop()
	assert.Equal(t, []string{"a"}, ctx.Path())
}

func TestExportIdent(t *testing.T) {
	assert.Equal(t, "Ns1", exportIdent("ns1"))
	assert.Equal(t, "MyClass1", exportIdent("MyClass1"))
	assert.Equal(t, "MyPkg", exportIdent("my-pkg"))
	assert.Equal(t, "V2Beta", exportIdent("v2.beta"))
}
