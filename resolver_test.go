package figh

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toutaio/toutago-figh-composition-engine/registry"
)

func TestSharedImplementationComposedOnce(t *testing.T) {
	b := New()
	require.NoError(t, b.Register((*Logger)(nil), &ConsoleLogger{}))
	require.NoError(t, b.Register((*ConsoleLogger)(nil), &ConsoleLogger{}))

	c, err := b.Build()
	require.NoError(t, err)

	// Two services, one implementation type, one composition node.
	assert.Equal(t, 1, c.NodeCount())
	assert.Len(t, c.Services(), 2)
}

func TestCycleDetectedWithPath(t *testing.T) {
	b := New()
	require.NoError(t, b.Constructor((*CycleA)(nil), NewCycleA))
	require.NoError(t, b.Constructor((*CycleB)(nil), NewCycleB))

	_, err := b.Build()
	var cyc *CircularDependencyError
	require.ErrorAs(t, err, &cyc)
	require.GreaterOrEqual(t, len(cyc.Path), 3)
	assert.Equal(t, cyc.Path[0], cyc.Path[len(cyc.Path)-1])
	assert.Contains(t, err.Error(), " -> ")
	assert.Contains(t, err.Error(), "figh.CycleA")
	assert.Contains(t, err.Error(), "figh.CycleB")
}

func TestLazyEdgeBreaksCycle(t *testing.T) {
	b := New()
	require.NoError(t, b.Constructor((*LoopA)(nil), NewLoopA))
	require.NoError(t, b.Constructor((*LoopB)(nil), NewLoopB))

	c, err := b.Build()
	require.NoError(t, err)
	rt, err := c.Materialize()
	require.NoError(t, err)

	got, err := rt.Resolve((*LoopA)(nil))
	require.NoError(t, err)
	a := got.(*LoopA)
	require.NotNil(t, a.B)
	require.NotNil(t, a.B.A)

	// Invoking the deferred edge constructs the target on demand.
	deferred := a.B.A()
	require.NotNil(t, deferred)
	assert.NotSame(t, a, deferred)
}

func TestLazyEdgeOverUnregisteredServiceFailsBuild(t *testing.T) {
	b := New()
	require.NoError(t, b.Constructor((*LoopB)(nil), NewLoopB))

	_, err := b.Build()
	var unresolved *UnresolvedDependencyError
	require.ErrorAs(t, err, &unresolved)
	assert.Contains(t, err.Error(), "figh.LoopA")
}

func TestCollectionIncludesInternalRegistrations(t *testing.T) {
	b := New()
	require.NoError(t, b.Register((*Handler)(nil), &UserHandler{}))
	require.NoError(t, b.Register((*Handler)(nil), &AdminHandler{}))
	require.NoError(t, b.RegisterInternal((*Handler)(nil), &AuditHandler{}))
	require.NoError(t, b.Constructor((*Mux)(nil), NewMux))

	c, err := b.Build()
	require.NoError(t, err)
	rt, err := c.Materialize()
	require.NoError(t, err)

	got, err := rt.Resolve((*Mux)(nil))
	require.NoError(t, err)
	mux := got.(*Mux)
	require.Len(t, mux.Handlers, 3)
	assert.Equal(t, "user", mux.Handlers[0].Handle())
	assert.Equal(t, "admin", mux.Handlers[1].Handle())
	assert.Equal(t, "audit", mux.Handlers[2].Handle())

	// The service table excludes internal registrations.
	all, err := rt.ResolveAll((*Handler)(nil))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "user", all[0].(Handler).Handle())
	assert.Equal(t, "admin", all[1].(Handler).Handle())
}

func TestEmptyCollectionIsNeverNil(t *testing.T) {
	b := New()
	require.NoError(t, b.Constructor((*Mux)(nil), NewMux))

	c, err := b.Build()
	require.NoError(t, err)
	rt, err := c.Materialize()
	require.NoError(t, err)

	got, err := rt.Resolve((*Mux)(nil))
	require.NoError(t, err)
	mux := got.(*Mux)
	require.NotNil(t, mux.Handlers)
	assert.Empty(t, mux.Handlers)
}

func TestConstructorSelectionPrefersMostSatisfiableParams(t *testing.T) {
	b := New()
	require.NoError(t, b.Register((*Logger)(nil), &ConsoleLogger{}))
	require.NoError(t, b.Register((*Store)(nil), &MemStore{}))
	require.NoError(t, b.Constructor((*ReportService)(nil), NewReportServiceLite, NewReportService))

	c, err := b.Build()
	require.NoError(t, err)
	rt, err := c.Materialize()
	require.NoError(t, err)

	got, err := rt.Resolve((*ReportService)(nil))
	require.NoError(t, err)
	svc := got.(*ReportService)
	assert.NotNil(t, svc.Log)
	assert.NotNil(t, svc.Store)
}

func TestConstructorSelectionFallsBackWhenParamUnsatisfiable(t *testing.T) {
	b := New()
	require.NoError(t, b.Register((*Logger)(nil), &ConsoleLogger{}))
	require.NoError(t, b.Constructor((*ReportService)(nil), NewReportServiceLite, NewReportService))

	c, err := b.Build()
	require.NoError(t, err)
	rt, err := c.Materialize()
	require.NoError(t, err)

	got, err := rt.Resolve((*ReportService)(nil))
	require.NoError(t, err)
	svc := got.(*ReportService)
	assert.NotNil(t, svc.Log)
	assert.Nil(t, svc.Store)
}

func TestNoSatisfiableCandidateNamesOffendingParameter(t *testing.T) {
	b := New()
	require.NoError(t, b.Constructor((*ReportService)(nil), NewReportService))

	_, err := b.Build()
	var unresolved *UnresolvedDependencyError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "parameter 0", unresolved.Site)
	assert.Contains(t, err.Error(), "figh.Logger")
	assert.Contains(t, err.Error(), "figh.ReportService")
}

func TestConstructorRegistrationWithoutCandidatesFailsBuild(t *testing.T) {
	// Added to the model directly, bypassing the builder's candidate check.
	b := New()
	require.NoError(t, b.Model().Add(&registry.Registration{
		ServiceType: reflect.TypeOf(&ReportService{}),
		ImplType:    reflect.TypeOf(&ReportService{}),
		Kind:        registry.KindConstructor,
		Lifetime:    string(LifetimeTransient),
	}))

	_, err := b.Build()
	var invalid *InvalidRegistrationError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, err.Error(), "no constructor supplied")
}

func TestFirstRegistrationWinsForDirectDependencies(t *testing.T) {
	b := New()
	require.NoError(t, b.Register((*Logger)(nil), &ConsoleLogger{}))
	require.NoError(t, b.Register((*Logger)(nil), &FileLogger{}))
	require.NoError(t, b.Constructor((*ReportService)(nil), NewReportServiceLite))

	c, err := b.Build()
	require.NoError(t, err)
	rt, err := c.Materialize()
	require.NoError(t, err)

	got, err := rt.Resolve((*ReportService)(nil))
	require.NoError(t, err)
	_, ok := got.(*ReportService).Log.(*ConsoleLogger)
	assert.True(t, ok)
}
