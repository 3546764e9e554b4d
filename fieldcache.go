package figh

import (
	"reflect"
	"sync"
)

// fieldCache caches struct field metadata so property scanning analyzes each
// implementation type at most once per build.
type fieldCache struct {
	mu sync.RWMutex

	fields map[reflect.Type][]fieldInfo
}

// fieldInfo stores metadata about a struct field considered for property
// injection.
type fieldInfo struct {
	index        int
	name         string
	typ          reflect.Type
	options      tagOptions
	isInjectable bool
}

// newFieldCache creates a new field cache.
func newFieldCache() *fieldCache {
	return &fieldCache{
		fields: make(map[reflect.Type][]fieldInfo),
	}
}

// getFieldInfo retrieves or computes field information for a struct type.
func (fc *fieldCache) getFieldInfo(typ reflect.Type) []fieldInfo {
	key := typ

	// Fast path: check cache with read lock
	fc.mu.RLock()
	fields, exists := fc.fields[key]
	fc.mu.RUnlock()

	if exists {
		return fields
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Double-check after acquiring write lock
	fields, exists = fc.fields[key]
	if exists {
		return fields
	}

	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		fc.fields[key] = nil
		return nil
	}

	numFields := typ.NumField()
	fields = make([]fieldInfo, 0, numFields)

	for i := 0; i < numFields; i++ {
		field := typ.Field(i)

		tag, hasInjectTag := field.Tag.Lookup("inject")
		opts := parseInjectTag(tag)
		isInjectable := field.PkgPath == "" && hasInjectTag && !opts.skip

		fields = append(fields, fieldInfo{
			index:        i,
			name:         field.Name,
			typ:          field.Type,
			options:      opts,
			isInjectable: isInjectable,
		})
	}

	fc.fields[key] = fields
	return fields
}
