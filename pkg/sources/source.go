package sources

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/de-tools/cost-radar/pkg/models/domain"
	"golang.org/x/exp/maps"
)

// DefaultFetchTimeout bounds a single provider fetch. Retry and backoff are
// the caller's concern, not the adapter's.
const DefaultFetchTimeout = 30 * time.Second

// Source fetches one provider's native query result as loosely-typed raw
// records. Sources are the only components in the pipeline that perform I/O.
type Source interface {
	Provider() domain.Provider
	Fetch(ctx context.Context) ([]domain.RawRecord, error)
}

// Factory creates a Source from a config/profile path.
type Factory func(ctx context.Context, profilePath string) (Source, error)

// Registry manages source factories per provider.
type Registry interface {
	Register(provider domain.Provider, factory Factory) error
	Create(ctx context.Context, provider domain.Provider, profilePath string) (Source, error)
	ListProviders() []domain.Provider
}

type registry struct {
	mu        sync.RWMutex
	factories map[domain.Provider]Factory
}

func NewRegistry() Registry {
	return &registry{
		factories: make(map[domain.Provider]Factory),
	}
}

func (r *registry) Register(provider domain.Provider, factory Factory) error {
	if provider == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[provider]; exists {
		return fmt.Errorf("provider %q is already registered", provider)
	}

	r.factories[provider] = factory
	return nil
}

func (r *registry) Create(ctx context.Context, provider domain.Provider, profilePath string) (Source, error) {
	r.mu.RLock()
	factory, exists := r.factories[provider]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("provider %q is not registered", provider)
	}

	return factory(ctx, profilePath)
}

// ListProviders returns the registered providers in a stable order so
// fetch scheduling and warning output stay deterministic.
func (r *registry) ListProviders() []domain.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := maps.Keys(r.factories)
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}
