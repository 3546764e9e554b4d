package figh

// ResolveContext is the optional per-resolution payload threaded into every
// context-aware construction. It carries caller-supplied extras plus a record
// of the in-progress resolution path.
//
// A ResolveContext is created fresh for each top-level resolution, passed by
// pointer down the construction chain, and discarded when the resolution
// completes. No composition stores it.
//
// Example:
//
//	ctx := figh.NewResolveContext().WithExtra("tenant", "acme")
//	svc, err := runtime.ResolveWithContext(ctx, (*Service)(nil))
type ResolveContext struct {
	extras map[string]interface{}
	path   []string
}

// NewResolveContext creates an empty resolution context.
func NewResolveContext() *ResolveContext {
	return &ResolveContext{extras: make(map[string]interface{})}
}

// WithExtra stores a caller-supplied value under a key and returns the
// context for chaining.
func (c *ResolveContext) WithExtra(key string, val interface{}) *ResolveContext {
	if c.extras == nil {
		c.extras = make(map[string]interface{})
	}
	c.extras[key] = val
	return c
}

// Extra returns the value stored under key, or nil if absent.
func (c *ResolveContext) Extra(key string) interface{} {
	if c == nil || c.extras == nil {
		return nil
	}
	return c.extras[key]
}

// HasExtra reports whether a value exists for the key.
func (c *ResolveContext) HasExtra(key string) bool {
	if c == nil || c.extras == nil {
		return false
	}
	_, ok := c.extras[key]
	return ok
}

// Path returns a copy of the in-progress resolution path, outermost first.
func (c *ResolveContext) Path() []string {
	if c == nil || len(c.path) == 0 {
		return nil
	}
	cp := make([]string, len(c.path))
	copy(cp, c.path)
	return cp
}

// fork returns an independent context sharing the caller extras. Deferred
// constructions that may outlive the originating resolution build on a fork,
// so the original's path is never touched after it completes.
func (c *ResolveContext) fork() *ResolveContext {
	if c == nil {
		return NewResolveContext()
	}
	return &ResolveContext{extras: c.extras, path: c.Path()}
}

// push records entry into a construction method.
func (c *ResolveContext) push(name string) {
	c.path = append(c.path, name)
}

// pop records return from a construction method.
func (c *ResolveContext) pop() {
	if len(c.path) > 0 {
		c.path = c.path[:len(c.path)-1]
	}
}
