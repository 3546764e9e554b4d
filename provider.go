package figh

import (
	"fmt"
	"reflect"
)

// Provider is the interface implemented by registration providers.
// Providers encapsulate related registrations so an application can assemble
// its graph from reusable modules.
//
// Example:
//
//	type LoggingProvider struct{}
//
//	func (p *LoggingProvider) Register(b *figh.Builder) error {
//	    if err := b.RegisterSingleton((*Logger)(nil), &ConsoleLogger{}); err != nil {
//	        return err
//	    }
//	    return b.RegisterInternal((*Sink)(nil), &FileSink{})
//	}
type Provider interface {
	Register(b *Builder) error
}

// ConditionalProvider is an optional interface for providers that should be
// applied conditionally.
type ConditionalProvider interface {
	Provider
	ShouldRegister(b *Builder) bool
}

// Use applies providers in order. A provider type already applied to this
// builder is skipped, so modules can depend on each other without double
// registration.
//
// Example:
//
//	builder.Use(&LoggingProvider{}, &StorageProvider{})
func (b *Builder) Use(providers ...Provider) error {
	for _, provider := range providers {
		if provider == nil {
			return &InvalidRegistrationError{Reason: "provider cannot be nil"}
		}

		if conditional, ok := provider.(ConditionalProvider); ok {
			if !conditional.ShouldRegister(b) {
				continue
			}
		}

		providerType := reflect.TypeOf(provider)
		if b.providerSeen[providerType] {
			continue
		}

		if err := provider.Register(b); err != nil {
			return fmt.Errorf("provider registration failed: %w", err)
		}
		b.providerSeen[providerType] = true
	}
	return nil
}
