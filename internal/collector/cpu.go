package collector

import (
	"context"
	"strconv"

	"github.com/shirou/gopsutil/v4/cpu"

	"github.com/playok/metricd/internal/metric"
)

// cpu time is reported per core and per state as a derive counter in
// USER_HZ ticks, so sinks can turn it into a rate.
const ticksPerSecond = 100

type cpuCollector struct{}

func NewCPUCollector() Collector { return &cpuCollector{} }

func (c *cpuCollector) ID() string          { return "cpu" }
func (c *cpuCollector) Name() string        { return "CPU" }
func (c *cpuCollector) Description() string { return "Per-core CPU time by state" }

func (c *cpuCollector) MetricNames() []string {
	return []string{"cpu-*/cpu-user", "cpu-*/cpu-system", "cpu-*/cpu-idle",
		"cpu-*/cpu-wait", "cpu-*/cpu-nice", "cpu-*/cpu-interrupt"}
}

func (c *cpuCollector) Collect(ctx context.Context) ([]metric.Sample, error) {
	times, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return nil, err
	}

	var samples []metric.Sample
	for i, t := range times {
		core := strconv.Itoa(i)
		for _, s := range []struct {
			state   string
			seconds float64
		}{
			{"user", t.User},
			{"system", t.System},
			{"idle", t.Idle},
			{"wait", t.Iowait},
			{"nice", t.Nice},
			{"interrupt", t.Irq},
		} {
			samples = append(samples,
				instanceSample("cpu", core, "cpu", s.state,
					metric.Derive(int64(s.seconds*ticksPerSecond))))
		}
	}
	return samples, nil
}
