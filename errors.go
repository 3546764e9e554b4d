package figh

import (
	"fmt"
	"reflect"
	"strings"
)

// InvalidRegistrationError is returned when a registration has invalid
// parameters. It is raised at the builder boundary, before anything reaches
// the graph.
type InvalidRegistrationError struct {
	Reason string
}

func (e *InvalidRegistrationError) Error() string {
	return fmt.Sprintf("invalid registration: %s", e.Reason)
}

// UnresolvedDependencyError is returned when a constructor parameter or an
// injected property has no matching registration and is not a collection
// shape. It carries the requesting implementation type and the parameter or
// property name so the caller can fix the registration.
type UnresolvedDependencyError struct {
	// Requested is the dependency type that could not be satisfied.
	Requested reflect.Type

	// Owner is the implementation type whose construction needed the dependency.
	Owner reflect.Type

	// Site names the constructor parameter or property, e.g. "parameter 1"
	// or "Logger".
	Site string
}

func (e *UnresolvedDependencyError) Error() string {
	requested := "unknown"
	if e.Requested != nil {
		requested = e.Requested.String()
	}
	owner := "unknown"
	if e.Owner != nil {
		owner = e.Owner.String()
	}
	return fmt.Sprintf("no registration satisfies %s required by %s (%s). Did you forget to register it?",
		requested, owner, e.Site)
}

// CircularDependencyError indicates a true construction cycle: every edge on
// the cycle is a direct reference, with no factory or lazy edge to break it.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return "circular dependency detected"
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

// SynthesisError indicates that a node reference escaped resolution and was
// first noticed during code synthesis. It is an internal invariant violation:
// the build is aborted, there is no partial container.
type SynthesisError struct {
	Reason string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis invariant violated: %s", e.Reason)
}

// ResolutionError is returned when a top-level resolution against a
// materialized container fails.
type ResolutionError struct {
	Type    reflect.Type
	Cause   error
	Context string
}

func (e *ResolutionError) Error() string {
	typeStr := "unknown"
	if e.Type != nil {
		typeStr = e.Type.String()
	}

	contextStr := ""
	if e.Context != "" {
		contextStr = fmt.Sprintf(": %s", e.Context)
	}

	causeStr := ""
	if e.Cause != nil {
		causeStr = fmt.Sprintf(": %v", e.Cause)
	}

	return fmt.Sprintf("failed to resolve %s%s%s", typeStr, contextStr, causeStr)
}

// Unwrap returns the underlying cause error.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// CompileError is returned when the loader cannot turn the synthesized
// program into an invokable container, for example because an injected value
// declared by the graph was not supplied. Since the generated text is not
// visible to the caller any other way, the full source is attached.
type CompileError struct {
	Diagnostics []string
	Source      string
	Cause       error
}

func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("failed to load synthesized container")
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	for _, d := range e.Diagnostics {
		b.WriteString("\n  ")
		b.WriteString(d)
	}
	if e.Source != "" {
		b.WriteString("\n--- generated source ---\n")
		b.WriteString(e.Source)
	}
	return b.String()
}

// Unwrap returns the underlying cause error.
func (e *CompileError) Unwrap() error {
	return e.Cause
}
