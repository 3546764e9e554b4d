package figh

import (
	"reflect"
	"sync"
)

// singletonInstance holds a singleton value and ensures it's created only once.
type singletonInstance struct {
	value interface{}
	err   error
	once  sync.Once
}

// singletonCache manages singleton instances with thread-safe lazy
// initialization and tracks creation order for reverse disposal.
type singletonCache struct {
	instances map[reflect.Type]*singletonInstance
	order     []*singletonInstance
	mu        sync.RWMutex
}

// newSingletonCache creates a new singleton cache.
func newSingletonCache() *singletonCache {
	return &singletonCache{
		instances: make(map[reflect.Type]*singletonInstance),
	}
}

// getOrCreate retrieves an existing singleton or creates it using the provided
// factory. The factory is called exactly once per implementation type, even
// under concurrent access.
//
// This method is goroutine-safe.
func (sc *singletonCache) getOrCreate(impl reflect.Type, factory func() (interface{}, error)) (interface{}, error) {
	// Fast path: check if instance exists (read lock)
	sc.mu.RLock()
	instance, exists := sc.instances[impl]
	sc.mu.RUnlock()

	if !exists {
		// Slow path: create instance holder (write lock)
		sc.mu.Lock()
		// Double-check after acquiring write lock (another goroutine might have created it)
		instance, exists = sc.instances[impl]
		if !exists {
			instance = &singletonInstance{}
			sc.instances[impl] = instance
			sc.order = append(sc.order, instance)
		}
		sc.mu.Unlock()
	}

	// Use sync.Once to ensure factory is called exactly once
	instance.once.Do(func() {
		instance.value, instance.err = factory()
	})

	return instance.value, instance.err
}

// dispose calls Dispose on every singleton implementing Disposable, in
// reverse creation order (dependents before their dependencies).
func (sc *singletonCache) dispose() []error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var errs []error
	for i := len(sc.order) - 1; i >= 0; i-- {
		instance := sc.order[i]
		if instance.err != nil || instance.value == nil {
			continue
		}
		if disposable, ok := instance.value.(Disposable); ok {
			if err := disposable.Dispose(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	sc.order = nil
	sc.instances = make(map[reflect.Type]*singletonInstance)
	return errs
}
