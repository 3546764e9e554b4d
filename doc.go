// Package figh provides an ahead-of-time dependency composition engine for Go.
//
// Figh (Old Irish: "weave") takes a declarative set of service registrations,
// resolves them once into an immutable composition graph, and synthesizes the
// construction code for that graph. Resolution work happens at build time;
// resolving an object afterwards only walks pre-computed composition nodes.
//
// # Features
//
//   - One composition node per implementation type, shared by every service
//     that references it
//   - Constructor injection with candidate selection (most satisfiable
//     parameters wins)
//   - Property injection through inject struct tags
//   - Prebuilt and late-bound singleton values
//   - Opaque factory delegates
//   - Collection injection: a []T dependency receives every registration
//     for T, in declaration order
//   - Lazy (func() T) edges that break construction cycles
//   - Transitive per-resolution context propagation
//   - Deterministic code synthesis with collision-free naming
//   - Typed errors carrying the offending type and parameter/property
//
// # Quick Start
//
// Declare registrations, build the graph, materialize, resolve:
//
//	builder := figh.New()
//	builder.Register((*Logger)(nil), &ConsoleLogger{})
//	builder.SingletonConstructor((*Database)(nil), NewDatabase)
//
//	container, err := builder.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rt, err := container.Materialize()
//	logger, err := rt.Resolve((*Logger)(nil))
//
// # Code Synthesis
//
// The same container renders itself as Go source, byte-identical for an
// unchanged registration model:
//
//	src, err := container.Synthesize()
//	fmt.Println(src)
//
// # Collections
//
// Register multiple implementations and resolve them together:
//
//	builder.Register((*Handler)(nil), &UserHandler{})
//	builder.Register((*Handler)(nil), &AdminHandler{})
//
//	handlers, err := rt.ResolveAll((*Handler)(nil))
//
// A constructor parameter or inject-tagged field of type []Handler receives
// the same ordered set.
//
// # Resolution Context
//
// Factories and constructors may accept a *figh.ResolveContext. The
// requirement propagates transitively: every construction method on the path
// to a context-aware node accepts the context parameter.
//
//	ctx := figh.NewResolveContext().WithExtra("tenant", "acme")
//	svc, err := rt.ResolveWithContext(ctx, (*Service)(nil))
//
// # Error Handling
//
// Misconfiguration fails at build time with typed errors:
//
//	container, err := builder.Build()
//	var unresolved *figh.UnresolvedDependencyError
//	if errors.As(err, &unresolved) {
//	    log.Fatalf("missing registration for %v", unresolved.Requested)
//	}
//
// # Concurrency
//
// Building is single-threaded and one-shot. The finalized container and its
// materialized runtimes are safe for concurrent use.
package figh
