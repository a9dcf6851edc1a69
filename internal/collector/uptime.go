package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/playok/metricd/internal/metric"
)

type uptimeCollector struct{}

func NewUptimeCollector() Collector { return &uptimeCollector{} }

func (c *uptimeCollector) ID() string          { return "uptime" }
func (c *uptimeCollector) Name() string        { return "Uptime" }
func (c *uptimeCollector) Description() string { return "Seconds since system boot" }

func (c *uptimeCollector) MetricNames() []string {
	return []string{"uptime/uptime"}
}

func (c *uptimeCollector) Collect(ctx context.Context) ([]metric.Sample, error) {
	up, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return []metric.Sample{
		makeSample("uptime", "uptime", metric.Gauge(float64(up))),
	}, nil
}
