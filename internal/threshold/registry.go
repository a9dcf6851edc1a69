package threshold

import (
	"sync"

	"github.com/google/btree"

	"github.com/playok/metricd/internal/metric"
)

type node struct {
	key string
	th  *Threshold
}

func nodeLess(a, b node) bool { return a.key < b.key }

// Registry is an ordered map from composite match key to threshold
// configuration. All access goes through one mutex; critical sections
// are short and never span I/O.
type Registry struct {
	mu   sync.Mutex
	tree *btree.BTreeG[node]
}

func NewRegistry() *Registry {
	return &Registry{tree: btree.NewG(8, nodeLess)}
}

// Insert stores a copy of th under its composite key, replacing any
// record with the identical key.
func (r *Registry) Insert(th *Threshold) {
	cp := *th
	cp.next = nil

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.ReplaceOrInsert(node{key: cp.Key(), th: &cp})
}

// Get retrieves the record stored under exactly (host, plugin, typ, ds).
// For cascade matching against a metric see Search.
func (r *Registry) Get(host, plugin, typ, ds string) (*Threshold, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(host, plugin, typ, ds)
}

// get must be called with r.mu held.
func (r *Registry) get(host, plugin, typ, ds string) (*Threshold, bool) {
	n, ok := r.tree.Get(node{key: host + "/" + plugin + "/" + typ + "/" + ds})
	if !ok {
		return nil, false
	}
	return n.th, true
}

// Search resolves the threshold for a metric by probing eight keys from
// most to least specific: host and plugin degrade together while the
// type stays concrete and the data source is independently wildcarded
// at each tier. The first hit wins. A metric without the canonical host
// label is a miss, not an error.
func (r *Registry) Search(m *metric.Metric) (*Threshold, bool) {
	if m == nil {
		return nil, false
	}
	host, ok := m.Host()
	if !ok {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.search(host, m)
}

// search must be called with r.mu held. The probe order is fixed; do
// not reorder or extend it.
func (r *Registry) search(host string, m *metric.Metric) (*Threshold, bool) {
	if th, ok := r.get(host, m.Plugin, m.Type, m.DSName); ok {
		return th, true
	}
	if th, ok := r.get(host, m.Plugin, m.Type, ""); ok {
		return th, true
	}
	if th, ok := r.get(host, "", m.Type, m.DSName); ok {
		return th, true
	}
	if th, ok := r.get(host, "", m.Type, ""); ok {
		return th, true
	}
	if th, ok := r.get("", m.Plugin, m.Type, m.DSName); ok {
		return th, true
	}
	if th, ok := r.get("", m.Plugin, m.Type, ""); ok {
		return th, true
	}
	if th, ok := r.get("", "", m.Type, m.DSName); ok {
		return th, true
	}
	if th, ok := r.get("", "", m.Type, ""); ok {
		return th, true
	}
	return nil, false
}

// Snapshot resolves the threshold for a metric and returns an owned
// value copy that cannot alias the registry's storage; the internal
// linkage field is cleared on the copy. A nil metric fails with
// ErrInvalidMetric before the lock is taken; a miss is ErrNoThreshold.
func (r *Registry) Snapshot(m *metric.Metric) (Threshold, error) {
	if m == nil {
		return Threshold{}, ErrInvalidMetric
	}
	host, ok := m.Host()
	if !ok {
		return Threshold{}, ErrNoThreshold
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	th, ok := r.search(host, m)
	if !ok {
		return Threshold{}, ErrNoThreshold
	}
	cp := *th
	cp.next = nil
	return cp, nil
}

// Len returns the number of stored records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.Len()
}

// Each calls fn for every record in key order with a defensive copy.
func (r *Registry) Each(fn func(Threshold) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.Ascend(func(n node) bool {
		cp := *n.th
		cp.next = nil
		return fn(cp)
	})
}

// Clear removes every stored record.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.Clear(false)
}

// Remove deletes the record stored under the exact composite key.
func (r *Registry) Remove(host, plugin, typ, ds string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tree.Delete(node{key: host + "/" + plugin + "/" + typ + "/" + ds})
	return ok
}
