package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/XavierBriggs/Ares/pkg/contracts"
)

// SourceRegistry manages registered source connectors
type SourceRegistry struct {
	sources map[string]contracts.SourceConnector
	mu      sync.RWMutex
}

// NewSourceRegistry creates a new source registry
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{
		sources: make(map[string]contracts.SourceConnector),
	}
}

// Register adds a source connector to the registry
func (r *SourceRegistry) Register(source contracts.SourceConnector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sourceID := source.SourceID()
	if _, exists := r.sources[sourceID]; exists {
		return fmt.Errorf("source %s is already registered", sourceID)
	}

	r.sources[sourceID] = source
	return nil
}

// Get retrieves a source connector by ID
func (r *SourceRegistry) Get(sourceID string) (contracts.SourceConnector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, exists := r.sources[sourceID]
	return source, exists
}

// GetAll returns all registered sources ordered by ID
func (r *SourceRegistry) GetAll() []contracts.SourceConnector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]contracts.SourceConnector, 0, len(r.sources))
	for _, source := range r.sources {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].SourceID() < sources[j].SourceID()
	})
	return sources
}

// Count returns the number of registered sources
func (r *SourceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sources)
}
