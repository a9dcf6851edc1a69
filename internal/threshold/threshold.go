// Package threshold matches alerting bounds against metrics. Records are
// keyed by host/plugin/type/data-source, where any field may be the
// empty-string wildcard; Search walks a fixed cascade from the most
// specific key to the most generic.
package threshold

import "errors"

var (
	// ErrNoThreshold is the ordinary miss outcome of a lookup.
	ErrNoThreshold = errors.New("no threshold configured")
	// ErrInvalidMetric is returned for a nil metric handed to Snapshot.
	ErrInvalidMetric = errors.New("invalid metric")
)

// Threshold holds the alerting configuration for one match key. Min/Max
// pairs of NaN mean the bound is absent.
type Threshold struct {
	Host       string  `yaml:"host" json:"host"`
	Plugin     string  `yaml:"plugin" json:"plugin"`
	Type       string  `yaml:"type" json:"type"`
	DataSource string  `yaml:"data_source" json:"data_source"`
	WarningMin float64 `yaml:"warning_min" json:"warning_min"`
	WarningMax float64 `yaml:"warning_max" json:"warning_max"`
	FailureMin float64 `yaml:"failure_min" json:"failure_min"`
	FailureMax float64 `yaml:"failure_max" json:"failure_max"`
	Hysteresis float64 `yaml:"hysteresis" json:"hysteresis"`
	Hits       int     `yaml:"hits" json:"hits"`
	Invert     bool    `yaml:"invert" json:"invert"`
	Persist    bool    `yaml:"persist" json:"persist"`

	// next chains records inside the registry's storage; it is cleared
	// on every snapshot copy handed out of the package.
	next *Threshold
}

// Key returns the literal composite match key. Empty fields stay empty,
// they are not omitted.
func (t *Threshold) Key() string {
	return t.Host + "/" + t.Plugin + "/" + t.Type + "/" + t.DataSource
}
