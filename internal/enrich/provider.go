// Package enrich resolves external location-risk context for supplier
// locations and guarantees at most one provider fetch per (country, city)
// key per process lifetime.
package enrich

import "context"

// RawContext is the loosely-typed payload a provider returns. Field types
// are whatever the provider emitted; the cache owns validation and clamping,
// and raw values never leak past it.
type RawContext map[string]any

// Provider fetches contextual risk data for one location. Implementations
// may fail freely; the cache converts every failure into the fixed fallback.
type Provider interface {
	Fetch(ctx context.Context, country, city string) (RawContext, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, country, city string) (RawContext, error)

func (f ProviderFunc) Fetch(ctx context.Context, country, city string) (RawContext, error) {
	return f(ctx, country, city)
}
