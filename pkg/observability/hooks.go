// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional and carries no dependency on a specific
// backend. Consumers register hooks at startup and receive events about
// metadata loading, artifact resolution and installation.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetMetadataHooks(&myMetadataHooks{})
//	    observability.SetResolverHooks(&myResolverHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Metadata().OnFragmentLoaded(ctx, path, artifacts)
//	observability.Resolver().OnResolve(ctx, coord, found, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Metadata Hooks
// =============================================================================

// MetadataHooks receives events from metadata store loading.
type MetadataHooks interface {
	// OnFragmentLoaded records a successfully parsed metadata fragment.
	OnFragmentLoaded(ctx context.Context, path string, artifacts int)

	// OnFragmentSkipped records a fragment that could not be read.
	OnFragmentSkipped(ctx context.Context, path string, err error)

	// OnDuplicate records a coordinate claimed by two records.
	OnDuplicate(ctx context.Context, coord string)

	// OnLoadComplete records the end of a full load.
	OnLoadComplete(ctx context.Context, fragments, entries int, duration time.Duration, err error)
}

// =============================================================================
// Resolver Hooks
// =============================================================================

// ResolverHooks receives events from artifact resolution.
type ResolverHooks interface {
	// OnResolve records the outcome of one resolution request.
	OnResolve(ctx context.Context, coord string, found bool, duration time.Duration)

	// OnProvision records a call to the provisioning agent.
	OnProvision(ctx context.Context, descriptor string, ok bool)
}

// =============================================================================
// Install Hooks
// =============================================================================

// InstallHooks receives events from the installation reactor.
type InstallHooks interface {
	// OnArtifactInstalled records an artifact placed into a package.
	OnArtifactInstalled(ctx context.Context, coord, pkg, installer string)

	// OnDependencyResolved records a dependency resolution result.
	// version is "UNKNOWN" for unresolved dependencies.
	OnDependencyResolved(ctx context.Context, coord, version string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopMetadataHooks is a no-op implementation of MetadataHooks.
type NoopMetadataHooks struct{}

func (NoopMetadataHooks) OnFragmentLoaded(context.Context, string, int)    {}
func (NoopMetadataHooks) OnFragmentSkipped(context.Context, string, error) {}
func (NoopMetadataHooks) OnDuplicate(context.Context, string)              {}
func (NoopMetadataHooks) OnLoadComplete(context.Context, int, int, time.Duration, error) {
}

// NoopResolverHooks is a no-op implementation of ResolverHooks.
type NoopResolverHooks struct{}

func (NoopResolverHooks) OnResolve(context.Context, string, bool, time.Duration) {}
func (NoopResolverHooks) OnProvision(context.Context, string, bool)              {}

// NoopInstallHooks is a no-op implementation of InstallHooks.
type NoopInstallHooks struct{}

func (NoopInstallHooks) OnArtifactInstalled(context.Context, string, string, string) {}
func (NoopInstallHooks) OnDependencyResolved(context.Context, string, string)        {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	metadataHooks MetadataHooks = NoopMetadataHooks{}
	resolverHooks ResolverHooks = NoopResolverHooks{}
	installHooks  InstallHooks  = NoopInstallHooks{}
	hooksMu       sync.RWMutex
)

// SetMetadataHooks registers custom metadata hooks.
// This should be called once at application startup before any store is loaded.
func SetMetadataHooks(h MetadataHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		metadataHooks = h
	}
}

// SetResolverHooks registers custom resolver hooks.
func SetResolverHooks(h ResolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolverHooks = h
	}
}

// SetInstallHooks registers custom install hooks.
func SetInstallHooks(h InstallHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		installHooks = h
	}
}

// Metadata returns the registered metadata hooks.
func Metadata() MetadataHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return metadataHooks
}

// Resolver returns the registered resolver hooks.
func Resolver() ResolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolverHooks
}

// Install returns the registered install hooks.
func Install() InstallHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return installHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	metadataHooks = NoopMetadataHooks{}
	resolverHooks = NoopResolverHooks{}
	installHooks = NoopInstallHooks{}
}
