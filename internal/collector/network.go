package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/net"

	"github.com/playok/metricd/internal/metric"
)

type networkCollector struct{}

func NewNetworkCollector() Collector { return &networkCollector{} }

func (c *networkCollector) ID() string          { return "interface" }
func (c *networkCollector) Name() string        { return "Network interfaces" }
func (c *networkCollector) Description() string { return "Per-interface traffic, packet and error counters" }

func (c *networkCollector) MetricNames() []string {
	return []string{
		"interface-*/if_octets/rx", "interface-*/if_octets/tx",
		"interface-*/if_packets/rx", "interface-*/if_packets/tx",
		"interface-*/if_errors/rx", "interface-*/if_errors/tx",
		"interface-*/if_dropped/rx", "interface-*/if_dropped/tx",
	}
}

func (c *networkCollector) Collect(ctx context.Context) ([]metric.Sample, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, err
	}

	var samples []metric.Sample
	for _, io := range counters {
		if io.Name == "lo" {
			continue
		}
		samples = append(samples,
			instanceSample("interface", io.Name, "if_octets", "",
				metric.Derive(int64(io.BytesRecv)), metric.Derive(int64(io.BytesSent))),
			instanceSample("interface", io.Name, "if_packets", "",
				metric.Derive(int64(io.PacketsRecv)), metric.Derive(int64(io.PacketsSent))),
			instanceSample("interface", io.Name, "if_errors", "",
				metric.Derive(int64(io.Errin)), metric.Derive(int64(io.Errout))),
			instanceSample("interface", io.Name, "if_dropped", "",
				metric.Derive(int64(io.Dropin)), metric.Derive(int64(io.Dropout))),
		)
	}
	return samples, nil
}
