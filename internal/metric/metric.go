// Package metric defines the identity model of the pipeline: a labeled,
// uniquely named metric stream and the timestamped samples that flow
// through it.
package metric

// HostLabel is the canonical identity label holding the originating
// hostname. Both the converter (which stamps it) and the threshold
// search (which extracts it) reference this constant.
const HostLabel = "_host"

// Identity distinguishes one metric stream from another: a name plus the
// labels that qualify it. An Identity is exclusively owned by one Metric
// unless explicitly cloned.
type Identity struct {
	Name   string
	Labels *LabelStore
}

// NewIdentity returns an Identity with an empty label store.
func NewIdentity(name string) *Identity {
	return &Identity{Name: name, Labels: NewLabelStore()}
}

// Clone returns a deep copy. The copy's labels never alias the
// original's storage.
func (id *Identity) Clone() *Identity {
	if id == nil {
		return nil
	}
	cp := &Identity{Name: id.Name}
	if id.Labels != nil {
		cp.Labels = id.Labels.Clone()
	} else {
		cp.Labels = NewLabelStore()
	}
	return cp
}

// Metric is a single timestamped sample tied to exactly one Identity.
// Time and Interval are in nanoseconds since the unix epoch.
type Metric struct {
	Value    Value
	Kind     ValueKind
	Plugin   string
	Type     string
	DSName   string
	Time     uint64
	Interval uint64
	Meta     map[string]string
	Identity *Identity
}

// Clone returns a deep copy; the Identity and metadata are cloned
// transitively.
func (m *Metric) Clone() *Metric {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Identity = m.Identity.Clone()
	if m.Meta != nil {
		cp.Meta = make(map[string]string, len(m.Meta))
		for k, v := range m.Meta {
			cp.Meta[k] = v
		}
	}
	return &cp
}

// Host returns the value of the canonical host label, if set.
func (m *Metric) Host() (string, bool) {
	if m.Identity == nil || m.Identity.Labels == nil {
		return "", false
	}
	return m.Identity.Labels.Get(HostLabel)
}

// Sample is one multi-value reading handed in by a collection source.
// Values are ordered to match the data sources the sample's type
// declares in the schema database.
type Sample struct {
	Host           string
	Plugin         string
	PluginInstance string
	Type           string
	TypeInstance   string
	Values         []Value
	Time           uint64
	Interval       uint64
	Meta           map[string]string
}

// PluginPath returns the plugin segment of the identity name, with the
// instance joined by a dash when present ("interface-eth0").
func (s *Sample) PluginPath() string {
	if s.PluginInstance == "" {
		return s.Plugin
	}
	return s.Plugin + "-" + s.PluginInstance
}

// TypePath returns the type segment of the identity name, with the
// instance joined by a dash when present ("memory-used").
func (s *Sample) TypePath() string {
	if s.TypeInstance == "" {
		return s.Type
	}
	return s.Type + "-" + s.TypeInstance
}
