package threshold

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/playok/metricd/internal/metric"
)

// State classifies a metric value against its threshold.
type State int

const (
	StateOkay State = iota
	StateWarning
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateWarning:
		return "warning"
	case StateFailure:
		return "failure"
	default:
		return "okay"
	}
}

// Event is one state transition (or, for persistent thresholds, one
// continued breach) produced by the evaluator.
type Event struct {
	Time       int64   `json:"time"`
	MetricName string  `json:"metric"`
	Host       string  `json:"host,omitempty"`
	State      State   `json:"-"`
	StateText  string  `json:"state"`
	Value      float64 `json:"value"`
	Message    string  `json:"message"`
}

type metricState struct {
	state State
	hits  int
}

// Evaluator checks metrics against the registry and tracks per-metric
// state so repeated breaches are deduplicated.
type Evaluator struct {
	registry *Registry

	mu     sync.Mutex
	states map[string]metricState
}

// NewEvaluator creates an evaluator backed by the given registry.
func NewEvaluator(registry *Registry) *Evaluator {
	return &Evaluator{
		registry: registry,
		states:   make(map[string]metricState),
	}
}

// Check evaluates one metric. It returns an event when the metric
// transitions state, or on every breach for thresholds marked persist.
func (e *Evaluator) Check(m *metric.Metric) (Event, bool) {
	th, err := e.registry.Snapshot(m)
	if err != nil {
		return Event{}, false
	}

	name := ""
	if m.Identity != nil {
		name = m.Identity.Name
	}
	value := m.Value.Float(m.Kind)

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.states[name]
	raw := classify(&th, value, prev.state)

	// A threshold with a hit count only raises after that many
	// consecutive breaches.
	next := raw
	hits := 0
	if raw != StateOkay && th.Hits > 1 {
		hits = prev.hits + 1
		if hits < th.Hits {
			next = prev.state
		}
	}
	e.states[name] = metricState{state: next, hits: hits}

	changed := next != prev.state
	if !changed && !(th.Persist && next != StateOkay) {
		return Event{}, false
	}

	host, _ := m.Host()
	ev := Event{
		Time:       time.Now().Unix(),
		MetricName: name,
		Host:       host,
		State:      next,
		StateText:  next.String(),
		Value:      value,
	}
	switch next {
	case StateOkay:
		ev.Message = fmt.Sprintf("%s is back to normal (%g)", name, value)
	default:
		ev.Message = fmt.Sprintf("%s is in %s state (%g)", name, next, value)
	}
	return ev, true
}

// Active returns the metrics currently in a raised state.
func (e *Evaluator) Active() map[string]State {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make(map[string]State)
	for name, st := range e.states {
		if st.state != StateOkay {
			result[name] = st.state
		}
	}
	return result
}

// classify compares a value against the threshold bounds. Failure bounds
// win over warning bounds. With invert set, a value inside the range
// breaches instead of one outside it. Hysteresis widens the matching
// range while the metric is already in that state, so a value has to
// clear the bound by the hysteresis margin before it recovers.
func classify(th *Threshold, value float64, current State) (s State) {
	if breaches(value, th.FailureMin, th.FailureMax, th.Invert,
		hysteresisFor(th, current == StateFailure)) {
		return StateFailure
	}
	if breaches(value, th.WarningMin, th.WarningMax, th.Invert,
		hysteresisFor(th, current == StateWarning)) {
		return StateWarning
	}
	return StateOkay
}

func hysteresisFor(th *Threshold, active bool) float64 {
	if active {
		return th.Hysteresis
	}
	return 0
}

func breaches(value, min, max float64, invert bool, hysteresis float64) bool {
	if math.IsNaN(min) && math.IsNaN(max) {
		return false
	}
	below := !math.IsNaN(min) && value < min+hysteresis
	above := !math.IsNaN(max) && value > max-hysteresis

	if invert {
		// Inverted thresholds breach while the value stays inside the range.
		return !below && !above
	}
	return below || above
}
