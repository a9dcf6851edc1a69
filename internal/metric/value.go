package metric

// ValueKind identifies which member of a Value is meaningful.
type ValueKind int

const (
	KindGauge ValueKind = iota
	KindCounter
	KindDerive
	KindAbsolute
)

func (k ValueKind) String() string {
	switch k {
	case KindGauge:
		return "gauge"
	case KindCounter:
		return "counter"
	case KindDerive:
		return "derive"
	case KindAbsolute:
		return "absolute"
	}
	return "unknown"
}

// ParseKind maps a types.db kind name to a ValueKind.
func ParseKind(s string) (ValueKind, bool) {
	switch s {
	case "GAUGE", "gauge":
		return KindGauge, true
	case "COUNTER", "counter":
		return KindCounter, true
	case "DERIVE", "derive":
		return KindDerive, true
	case "ABSOLUTE", "absolute":
		return KindAbsolute, true
	}
	return 0, false
}

// Value holds one typed sample value. Only the member matching the
// owning Metric's Kind is meaningful.
type Value struct {
	Gauge    float64
	Counter  uint64
	Derive   int64
	Absolute uint64
}

func Gauge(v float64) Value { return Value{Gauge: v} }
func Counter(v uint64) Value { return Value{Counter: v} }
func Derive(v int64) Value { return Value{Derive: v} }
func Absolute(v uint64) Value { return Value{Absolute: v} }

// Float returns the value as a float64 according to kind. Used by sinks
// that store every kind in one numeric column.
func (v Value) Float(kind ValueKind) float64 {
	switch kind {
	case KindGauge:
		return v.Gauge
	case KindCounter:
		return float64(v.Counter)
	case KindDerive:
		return float64(v.Derive)
	case KindAbsolute:
		return float64(v.Absolute)
	}
	return 0
}
