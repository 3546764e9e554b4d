package figh

import (
	"fmt"

	"go.uber.org/zap"
)

// Option is a function that configures a Builder.
type Option func(*Builder) error

// WithLogger routes build diagnostics (resolution steps, graph metadata,
// synthesis sizes) through the supplied logger. The default is a no-op
// logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) error {
		if log == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		b.log = log
		return nil
	}
}

// WithPackageName sets the package clause of the synthesized program.
// The default is "container".
func WithPackageName(name string) Option {
	return func(b *Builder) error {
		if !isLowerIdent(name) {
			return fmt.Errorf("package name %q is not a valid identifier", name)
		}
		b.pkgName = name
		return nil
	}
}

// WithContainerName sets the synthesized container type's name. The default
// is "Container".
func WithContainerName(name string) Option {
	return func(b *Builder) error {
		if !isExportedIdent(name) {
			return fmt.Errorf("container name %q is not an exported identifier", name)
		}
		b.containerName = name
		return nil
	}
}

// isLowerIdent reports whether s is a plain lower-case Go identifier.
func isLowerIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if r < 'a' || r > 'z' {
				return false
			}
			continue
		}
		if r != '_' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
