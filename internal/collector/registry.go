package collector

import (
	"errors"
	"sort"
	"sync"

	"github.com/playok/metricd/internal/store"
)

// ErrCollectorNotFound is returned for operations on an unknown collector ID.
var ErrCollectorNotFound = errors.New("collector not found")

// Info describes a registered collector for the API.
type Info struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Enabled     bool     `json:"enabled"`
	Metrics     []string `json:"metrics"`
}

// Registry manages collector registration and enabled state. State
// survives restarts through the store.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
	enabled    map[string]bool
	store      *store.Store
}

// NewRegistry creates an empty collector registry.
func NewRegistry(s *store.Store) *Registry {
	return &Registry{
		collectors: make(map[string]Collector),
		enabled:    make(map[string]bool),
		store:      s,
	}
}

// Register adds a collector, enabled by default.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.ID()] = c
	if _, ok := r.enabled[c.ID()]; !ok {
		r.enabled[c.ID()] = true
	}
}

// RestoreState loads saved enabled states from the store.
func (r *Registry) RestoreState() error {
	states, err := r.store.CollectorStates()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, enabled := range states {
		r.enabled[id] = enabled
	}
	return nil
}

// Enable enables a collector and saves the state.
func (r *Registry) Enable(id string) error { return r.setEnabled(id, true) }

// Disable disables a collector and saves the state.
func (r *Registry) Disable(id string) error { return r.setEnabled(id, false) }

func (r *Registry) setEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.collectors[id]; !ok {
		return ErrCollectorNotFound
	}
	r.enabled[id] = enabled
	return r.store.SetCollectorEnabled(id, enabled)
}

// IsEnabled returns whether a collector is enabled.
func (r *Registry) IsEnabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[id]
}

// Get returns a collector by ID.
func (r *Registry) Get(id string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[id]
	return c, ok
}

// List returns info about all registered collectors, sorted by ID.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Info, 0, len(r.collectors))
	for id, c := range r.collectors {
		result = append(result, Info{
			ID:          id,
			Name:        c.Name(),
			Description: c.Description(),
			Enabled:     r.enabled[id],
			Metrics:     c.MetricNames(),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// EnabledCollectors returns all currently enabled collectors.
func (r *Registry) EnabledCollectors() []Collector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Collector
	for id, c := range r.collectors {
		if r.enabled[id] {
			result = append(result, c)
		}
	}
	return result
}
