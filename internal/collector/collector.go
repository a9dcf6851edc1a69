// Package collector gathers raw samples from the local system and from
// cloud metadata, to be expanded into metrics by the pipeline.
package collector

import (
	"context"

	"github.com/playok/metricd/internal/metric"
)

// Collector defines the interface for all sample collectors.
type Collector interface {
	// ID returns the unique identifier for this collector.
	ID() string
	// Name returns a human-readable name.
	Name() string
	// Description returns a description of what this collector reads.
	Description() string
	// MetricNames returns the identity names this collector produces.
	// Dynamic segments (per-interface instances) use "*".
	MetricNames() []string
	// Collect gathers samples. Host, time and interval are stamped by
	// the scheduler; collectors fill in plugin, type and values.
	Collect(ctx context.Context) ([]metric.Sample, error)
}

func makeSample(plugin, typ string, values ...metric.Value) metric.Sample {
	return metric.Sample{
		Plugin: plugin,
		Type:   typ,
		Values: values,
	}
}

func instanceSample(plugin, pluginInstance, typ, typeInstance string, values ...metric.Value) metric.Sample {
	return metric.Sample{
		Plugin:         plugin,
		PluginInstance: pluginInstance,
		Type:           typ,
		TypeInstance:   typeInstance,
		Values:         values,
	}
}
