package collector

import (
	"context"
	"sync"
	"time"

	"github.com/playok/metricd/internal/logger"
	"github.com/playok/metricd/internal/pipeline"
)

// Scheduler runs enabled collectors at a fixed interval and hands their
// samples to the write queue.
type Scheduler struct {
	registry *Registry
	queue    *pipeline.WriteQueue
	host     string
	log      *logger.Logger

	mu         sync.Mutex
	interval   time.Duration
	cancel     context.CancelFunc
	done       chan struct{}
	intervalCh chan time.Duration // signals the loop to reset the ticker
}

// NewScheduler creates a scheduler that stamps samples with the given host.
func NewScheduler(registry *Registry, queue *pipeline.WriteQueue, host string, interval time.Duration) *Scheduler {
	return &Scheduler{
		registry:   registry,
		queue:      queue,
		host:       host,
		log:        logger.New().With("component", "scheduler"),
		interval:   interval,
		intervalCh: make(chan time.Duration, 1),
	}
}

// Start begins the collection loop.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(ctx)
}

// Stop halts the scheduler and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// UpdateInterval changes the collection interval at runtime.
func (s *Scheduler) UpdateInterval(d time.Duration) {
	if d < time.Second {
		d = time.Second
	}
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()

	// Non-blocking send to notify the loop
	select {
	case s.intervalCh <- d:
	default:
	}
	s.log.Infof("interval updated to %v", d)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	s.mu.Lock()
	interval := s.interval
	s.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once immediately
	s.collectAll(ctx, interval)

	for {
		select {
		case <-ctx.Done():
			return
		case newInterval := <-s.intervalCh:
			interval = newInterval
			ticker.Reset(newInterval)
		case <-ticker.C:
			s.collectAll(ctx, interval)
		}
	}
}

func (s *Scheduler) collectAll(ctx context.Context, interval time.Duration) {
	now := uint64(time.Now().UnixNano())

	for _, c := range s.registry.EnabledCollectors() {
		samples, err := c.Collect(ctx)
		if err != nil {
			s.log.Warningf("collector %s: %v", c.ID(), err)
			continue
		}
		for i := range samples {
			samples[i].Host = s.host
			samples[i].Time = now
			samples[i].Interval = uint64(interval)
			if err := s.queue.Dispatch(&samples[i]); err != nil {
				s.log.Warningf("dispatch %s/%s: %v", samples[i].Plugin, samples[i].Type, err)
			}
		}
	}
}
