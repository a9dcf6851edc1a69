package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/playok/metricd/internal/metric"
)

type memoryCollector struct {
	virtual func(context.Context) (*mem.VirtualMemoryStat, error)
	swap    func(context.Context) (*mem.SwapMemoryStat, error)
}

func NewMemoryCollector() Collector {
	return &memoryCollector{
		virtual: mem.VirtualMemoryWithContext,
		swap:    mem.SwapMemoryWithContext,
	}
}

func (c *memoryCollector) ID() string          { return "memory" }
func (c *memoryCollector) Name() string        { return "Memory" }
func (c *memoryCollector) Description() string { return "Memory and swap usage in bytes" }

func (c *memoryCollector) MetricNames() []string {
	return []string{
		"memory/memory-used", "memory/memory-free", "memory/memory-cached", "memory/memory-buffered",
		"swap/swap-used", "swap/swap-free",
	}
}

func (c *memoryCollector) Collect(ctx context.Context) ([]metric.Sample, error) {
	var samples []metric.Sample

	vm, vmErr := c.virtual(ctx)
	if vmErr == nil {
		samples = append(samples,
			instanceSample("memory", "", "memory", "used", metric.Gauge(float64(vm.Used))),
			instanceSample("memory", "", "memory", "free", metric.Gauge(float64(vm.Free))),
			instanceSample("memory", "", "memory", "cached", metric.Gauge(float64(vm.Cached))),
			instanceSample("memory", "", "memory", "buffered", metric.Gauge(float64(vm.Buffers))),
		)
	}

	sw, swErr := c.swap(ctx)
	if swErr == nil {
		samples = append(samples,
			instanceSample("swap", "", "swap", "used", metric.Gauge(float64(sw.Used))),
			instanceSample("swap", "", "swap", "free", metric.Gauge(float64(sw.Free))),
		)
	}

	// One source failing still yields the other's samples; both failing
	// must surface, not look like an idle host.
	if len(samples) == 0 {
		if vmErr != nil {
			return nil, vmErr
		}
		return nil, swErr
	}
	return samples, nil
}
