package collector

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/playok/metricd/internal/metric"
)

type dfCollector struct{}

func NewDFCollector() Collector { return &dfCollector{} }

func (c *dfCollector) ID() string          { return "df" }
func (c *dfCollector) Name() string        { return "Filesystems" }
func (c *dfCollector) Description() string { return "Per-mountpoint filesystem usage in bytes" }

func (c *dfCollector) MetricNames() []string {
	return []string{
		"df-*/df_complex-used", "df-*/df_complex-free", "df-*/df_complex-reserved",
	}
}

func (c *dfCollector) Collect(ctx context.Context) ([]metric.Sample, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	var samples []metric.Sample
	seen := map[string]bool{}
	for _, p := range partitions {
		mount := mountInstance(p.Mountpoint)
		if seen[mount] {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		seen[mount] = true

		// Space the superuser keeps for itself, not visible as free or used.
		reserved := float64(usage.Total) - float64(usage.Used) - float64(usage.Free)
		if reserved < 0 {
			reserved = 0
		}
		samples = append(samples,
			instanceSample("df", mount, "df_complex", "used", metric.Gauge(float64(usage.Used))),
			instanceSample("df", mount, "df_complex", "free", metric.Gauge(float64(usage.Free))),
			instanceSample("df", mount, "df_complex", "reserved", metric.Gauge(reserved)),
		)
	}
	return samples, nil
}

// mountInstance folds a mountpoint path into an instance name: "/" becomes
// "root", other separators become dashes.
func mountInstance(mountpoint string) string {
	s := strings.Trim(mountpoint, "/")
	if s == "" {
		return "root"
	}
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
