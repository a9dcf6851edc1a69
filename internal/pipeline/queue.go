package pipeline

import (
	"errors"
	"sync"

	"github.com/playok/metricd/internal/logger"
	"github.com/playok/metricd/internal/metric"
	"github.com/playok/metricd/internal/schema"
)

// ErrWorkersRunning is returned by StartWorkers when the pool is already
// running; it must be stopped before it can be started again.
var ErrWorkersRunning = errors.New("write workers already running")

// WriteFunc receives one dequeued metric. The function owns the metric
// for the duration of the call; the queue never hands the same metric to
// two workers.
type WriteFunc func(*metric.Metric)

// WriteQueue is the process-wide FIFO between sample producers and the
// write worker pool. One mutex and one condition variable guard the
// list; producers only splice and signal, consumers only pop or sleep.
type WriteQueue struct {
	db *schema.DB

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*metric.Metric
	stopped bool

	drainOnStop bool
	running     bool
	wg          sync.WaitGroup

	log *logger.Logger
}

// NewWriteQueue creates a queue backed by the given schema database.
// With drainOnStop, StopWorkers lets workers empty the queue before they
// exit; otherwise queued metrics are abandoned at shutdown.
func NewWriteQueue(db *schema.DB, drainOnStop bool) *WriteQueue {
	q := &WriteQueue{
		db:          db,
		drainOnStop: drainOnStop,
		log:         logger.With("component", "writequeue"),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Dispatch converts a sample and enqueues every resulting metric at the
// tail, waking one worker per metric. On a conversion failure nothing is
// enqueued.
func (q *WriteQueue) Dispatch(s *metric.Sample) error {
	metrics, err := Convert(q.db, s)
	if err != nil {
		return err
	}
	for _, m := range metrics {
		q.Enqueue(m)
	}
	return nil
}

// Enqueue appends one metric and signals one waiting worker. Ownership
// of the metric transfers to the queue.
func (q *WriteQueue) Enqueue(m *metric.Metric) {
	q.mu.Lock()
	q.queue = append(q.queue, m)
	q.mu.Unlock()
	q.cond.Signal()
}

// Dequeue blocks until a metric is available or the queue shuts down.
// ok is false only at end of stream: the queue is stopped and, under the
// drain policy, empty. Each metric is returned to exactly one caller.
func (q *WriteQueue) Dequeue() (*metric.Metric, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.queue) == 0 && !q.stopped {
		q.cond.Wait()
	}
	if q.stopped && (len(q.queue) == 0 || !q.drainOnStop) {
		return nil, false
	}

	m := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	return m, true
}

// Len returns the number of queued metrics.
func (q *WriteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// StartWorkers spawns n workers, each looping dequeue → sink. It is an
// error to start an already running pool; a stopped pool may be started
// again.
func (q *WriteQueue) StartWorkers(n int, sink WriteFunc) error {
	if n < 1 {
		n = 1
	}
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return ErrWorkersRunning
	}
	q.running = true
	q.stopped = false
	q.mu.Unlock()

	q.log.Debugf("starting %d write workers", n)
	q.wg.Add(n)
	for i := 0; i < n; i++ {
		go q.worker(sink)
	}
	return nil
}

func (q *WriteQueue) worker(sink WriteFunc) {
	defer q.wg.Done()
	for {
		m, ok := q.Dequeue()
		if !ok {
			return
		}
		sink(m)
	}
}

// StopWorkers signals shutdown, wakes every blocked worker and waits
// for them to exit. Under the drain policy workers finish the remaining
// queue first; otherwise leftover metrics are dropped.
func (q *WriteQueue) StopWorkers() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	dropped := 0
	if !q.drainOnStop {
		dropped = len(q.queue)
	}
	q.mu.Unlock()

	q.cond.Broadcast()
	q.wg.Wait()

	q.mu.Lock()
	q.running = false
	if !q.drainOnStop {
		q.queue = nil
	}
	q.mu.Unlock()

	if dropped > 0 {
		q.log.Warningf("abandoned %d queued metrics at shutdown", dropped)
	}
}
