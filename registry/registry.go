// Package registry provides the immutable registration model consumed by the
// composition engine: an ordered record of service-to-implementation bindings.
package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// Registration kinds. The set is open: the resolver dispatches on Kind
// through capability-based builders, so new kinds can be added without
// touching existing strategy code.
const (
	// KindStruct binds a service to a concrete struct type constructed from
	// its zero value, with inject-tagged fields satisfied from the graph.
	KindStruct = "struct"

	// KindConstructor binds a service to one or more candidate constructor
	// functions; the resolver picks the one with the most satisfiable
	// parameters.
	KindConstructor = "constructor"

	// KindFactory binds a service to an opaque caller-supplied delegate.
	KindFactory = "factory"

	// KindValue binds a service to a pre-constructed instance supplied at
	// registration time.
	KindValue = "value"

	// KindInjected binds a service to a late-bound singleton supplied when
	// the container is materialized.
	KindInjected = "injected"
)

// Registration is one declared binding from a requested service type to an
// implementation, value, or factory.
type Registration struct {
	// ServiceType is the requested contract (interface type, or the concrete
	// pointer type when a concrete type is registered directly).
	ServiceType reflect.Type

	// ImplType identifies the implementation this binding composes. Exactly
	// one composition node exists per ImplType regardless of how many
	// registrations reference it.
	ImplType reflect.Type

	// Kind selects the composition strategy. One of the Kind constants.
	Kind string

	// Value is the pre-constructed instance for KindValue bindings.
	Value interface{}

	// Constructors holds the candidate constructor functions for
	// KindConstructor bindings, in declaration order.
	Constructors []interface{}

	// Factory is the construction delegate for KindFactory bindings.
	Factory interface{}

	// Lifetime is the lifecycle policy ("transient", "singleton", "injected").
	Lifetime string

	// Internal bindings participate in the graph and in collection
	// injection but are excluded from the externally visible service table.
	Internal bool
}

// Model is the ordered registration record. It is mutable until Freeze is
// called, after which every write is rejected; the resolver only ever sees a
// frozen model.
type Model struct {
	mu        sync.RWMutex
	ordered   []*Registration
	byService map[reflect.Type][]*Registration
	frozen    bool
}

// ErrFrozen is returned when a registration is added after Freeze.
var ErrFrozen = fmt.Errorf("registration model is frozen")

// New creates an empty registration model.
func New() *Model {
	return &Model{
		byService: make(map[reflect.Type][]*Registration),
	}
}

// Add appends a registration. Registrations for the same service type
// accumulate in declaration order (collection semantics).
//
// This method is goroutine-safe.
func (m *Model) Add(reg *Registration) error {
	if reg == nil {
		return fmt.Errorf("registration cannot be nil")
	}
	if reg.ServiceType == nil {
		return fmt.Errorf("registration service type cannot be nil")
	}
	if reg.ImplType == nil {
		return fmt.Errorf("registration implementation type cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frozen {
		return ErrFrozen
	}

	m.ordered = append(m.ordered, reg)
	m.byService[reg.ServiceType] = append(m.byService[reg.ServiceType], reg)
	return nil
}

// Freeze makes the model immutable. Freezing twice is a no-op.
func (m *Model) Freeze() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frozen = true
}

// Frozen reports whether the model has been frozen.
func (m *Model) Frozen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frozen
}

// ForService returns the registrations declared for a service type, in
// declaration order. The returned slice is a copy.
func (m *Model) ForService(service reflect.Type) []*Registration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	regs := m.byService[service]
	if len(regs) == 0 {
		return nil
	}
	cp := make([]*Registration, len(regs))
	copy(cp, regs)
	return cp
}

// Has reports whether at least one registration exists for the service type.
func (m *Model) Has(service reflect.Type) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byService[service]) > 0
}

// All returns every registration in declaration order. The returned slice is
// a copy.
func (m *Model) All() []*Registration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp := make([]*Registration, len(m.ordered))
	copy(cp, m.ordered)
	return cp
}

// Len returns the number of registrations.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ordered)
}

// Services returns the distinct service types in first-registration order.
func (m *Model) Services() []reflect.Type {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[reflect.Type]bool, len(m.byService))
	var services []reflect.Type
	for _, reg := range m.ordered {
		if !seen[reg.ServiceType] {
			seen[reg.ServiceType] = true
			services = append(services, reg.ServiceType)
		}
	}
	return services
}
