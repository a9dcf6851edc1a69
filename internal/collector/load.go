package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/load"

	"github.com/playok/metricd/internal/metric"
)

type loadCollector struct{}

func NewLoadCollector() Collector { return &loadCollector{} }

func (c *loadCollector) ID() string          { return "load" }
func (c *loadCollector) Name() string        { return "Load" }
func (c *loadCollector) Description() string { return "System load averages over 1, 5 and 15 minutes" }

func (c *loadCollector) MetricNames() []string {
	return []string{"load/load/shortterm", "load/load/midterm", "load/load/longterm"}
}

func (c *loadCollector) Collect(ctx context.Context) ([]metric.Sample, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return []metric.Sample{
		makeSample("load", "load",
			metric.Gauge(avg.Load1), metric.Gauge(avg.Load5), metric.Gauge(avg.Load15)),
	}, nil
}
