// Package pipeline turns raw collection samples into labeled metrics and
// moves them through a shared write queue to the configured sinks.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/playok/metricd/internal/metric"
	"github.com/playok/metricd/internal/schema"
)

// ErrValueCountMismatch is returned when a sample carries a different
// number of values than its type schema declares.
var ErrValueCountMismatch = errors.New("sample value count does not match type schema")

// ErrInvalidSample is returned for a nil or unusable input sample.
var ErrInvalidSample = errors.New("invalid sample")

// Convert expands one multi-value sample into one Metric per value slot,
// in schema order. Each metric gets its own Identity: named
// "plugin/type/dsname" when the type has more than one data source,
// "plugin/type" otherwise, with the sample host stamped as the canonical
// host label. Plugin and type instances, when set, are folded into their
// segment with a dash ("interface-eth0/if_octets/rx"). On any failure no
// metrics are returned.
func Convert(db *schema.DB, s *metric.Sample) ([]*metric.Metric, error) {
	if s == nil {
		return nil, ErrInvalidSample
	}

	sources, err := db.Lookup(s.Type)
	if err != nil {
		return nil, fmt.Errorf("convert %s/%s: %w", s.Plugin, s.Type, err)
	}
	if len(s.Values) != len(sources) {
		return nil, fmt.Errorf("convert %s/%s: got %d values, schema wants %d: %w",
			s.Plugin, s.Type, len(s.Values), len(sources), ErrValueCountMismatch)
	}

	metrics := make([]*metric.Metric, 0, len(sources))
	for i, ds := range sources {
		name := s.PluginPath() + "/" + s.TypePath()
		if len(sources) > 1 {
			name += "/" + ds.Name
		}

		id := metric.NewIdentity(name)
		id.Labels.Set(metric.HostLabel, s.Host)

		m := &metric.Metric{
			Value:    s.Values[i],
			Kind:     ds.Kind,
			Plugin:   s.Plugin,
			Type:     s.Type,
			DSName:   ds.Name,
			Time:     s.Time,
			Interval: s.Interval,
			Identity: id,
		}
		if s.Meta != nil {
			m.Meta = make(map[string]string, len(s.Meta))
			for k, v := range s.Meta {
				m.Meta[k] = v
			}
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}
