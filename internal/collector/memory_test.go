package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCollectBothSourcesFail(t *testing.T) {
	errVM := errors.New("proc not mounted")
	c := &memoryCollector{
		virtual: func(context.Context) (*mem.VirtualMemoryStat, error) { return nil, errVM },
		swap: func(context.Context) (*mem.SwapMemoryStat, error) {
			return nil, errors.New("no swap info")
		},
	}

	samples, err := c.Collect(context.Background())
	assert.Nil(t, samples)
	assert.ErrorIs(t, err, errVM)
}

func TestMemoryCollectPartial(t *testing.T) {
	c := &memoryCollector{
		virtual: func(context.Context) (*mem.VirtualMemoryStat, error) {
			return &mem.VirtualMemoryStat{Used: 100, Free: 200, Cached: 50, Buffers: 25}, nil
		},
		swap: func(context.Context) (*mem.SwapMemoryStat, error) {
			return nil, errors.New("no swap info")
		},
	}

	samples, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 4)
	for _, s := range samples {
		assert.Equal(t, "memory", s.Plugin)
	}
	assert.Equal(t, 100.0, samples[0].Values[0].Gauge)
}
