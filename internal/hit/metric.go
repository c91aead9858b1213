package hit

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Metric is a numeric field reported by a detection tool (identity or coverage).
// It starts as raw cell text and becomes either a valid number or absent once
// coerced. The zero value is absent.
type Metric struct {
	Raw   string  // Cell text as read from the tool output, empty once coerced
	Value float64 // Parsed value, meaningful only when Valid
	Valid bool    // Value holds a number
}

// Text returns an uncoerced metric holding raw cell text.
func Text(raw string) Metric {
	return Metric{Raw: raw}
}

// Number returns a valid metric.
func Number(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// Absent returns a metric with no value.
func Absent() Metric {
	return Metric{}
}

// Float returns the value and whether it is present.
func (m Metric) Float() (float64, bool) {
	return m.Value, m.Valid
}

// IsAbsent reports whether the metric carries neither a value nor raw text.
func (m Metric) IsAbsent() bool {
	return !m.Valid && m.Raw == ""
}

// Coerce parses raw text into a number. Text that is not a finite number
// becomes absent. Already valid metrics are returned unchanged.
func (m Metric) Coerce() Metric {
	if m.Valid {
		return Metric{Value: m.Value, Valid: true}
	}
	s := strings.TrimSpace(m.Raw)
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return Absent()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Absent()
	}
	return Number(v)
}

// Equal reports whether two metrics hold the same value (or are both absent).
func (m Metric) Equal(o Metric) bool {
	if m.Valid != o.Valid {
		return false
	}
	if m.Valid {
		return m.Value == o.Value
	}
	return m.Raw == o.Raw
}

// String formats the metric for delimited output. Absent metrics are empty.
func (m Metric) String() string {
	if !m.Valid {
		return m.Raw
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// MarshalJSON encodes valid metrics as numbers and everything else as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts a number, a numeric string or null.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Absent()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*m = Number(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = Text(s).Coerce()
	return nil
}

// Max returns the larger of two metrics, ignoring absent ones.
func Max(a, b Metric) Metric {
	switch {
	case !a.Valid:
		return Metric{Value: b.Value, Valid: b.Valid}
	case !b.Valid:
		return a
	case b.Value > a.Value:
		return b
	}
	return a
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
