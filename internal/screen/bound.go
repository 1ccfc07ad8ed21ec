package screen

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Bound is an optional [Min, Max] range. A nil side is unbounded.
type Bound struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Active reports whether either side constrains anything
func (b Bound) Active() bool {
	return b.Min != nil || b.Max != nil
}

// Contains reports whether v satisfies the bound.
// A missing value satisfies only an inactive bound.
func (b Bound) Contains(v *float64) bool {
	if !b.Active() {
		return true
	}
	if v == nil || math.IsNaN(*v) {
		return false
	}
	if b.Min != nil && *v < *b.Min {
		return false
	}
	if b.Max != nil && *v > *b.Max {
		return false
	}
	return true
}

// FilterState maps metric keys to bounds. Metrics without an entry are unbounded.
type FilterState map[string]Bound

// Get returns the bound of a metric
func (fs FilterState) Get(metric string) Bound {
	return fs[metric]
}

// SetMin sets or clears (v == nil) the lower bound of a metric
func (fs FilterState) SetMin(metric string, v *float64) {
	b := fs[metric]
	b.Min = v
	fs.put(metric, b)
}

// SetMax sets or clears (v == nil) the upper bound of a metric
func (fs FilterState) SetMax(metric string, v *float64) {
	b := fs[metric]
	b.Max = v
	fs.put(metric, b)
}

func (fs FilterState) put(metric string, b Bound) {
	if b.Active() {
		fs[metric] = b
		return
	}
	delete(fs, metric)
}

// Active reports whether any bound is set
func (fs FilterState) Active() bool {
	for _, b := range fs {
		if b.Active() {
			return true
		}
	}
	return false
}

// Clone returns an independent copy
func (fs FilterState) Clone() FilterState {
	out := make(FilterState, len(fs))
	for k, b := range fs {
		out[k] = Bound{Min: copyFloat(b.Min), Max: copyFloat(b.Max)}
	}
	return out
}

// Values renders the active bounds back into legacy filter keys
func (fs FilterState) Values() map[string]float64 {
	out := make(map[string]float64)
	for _, m := range Registry {
		b := fs[m.Key]
		if b.Min != nil {
			out[m.MinKey] = *b.Min
		}
		if b.Max != nil {
			out[m.MaxKey] = *b.Max
		}
	}
	return out
}

// ParseFilterState reads legacy filter keys (minPrice, maxDebtToEquity, ...).
// Input is never rejected: empty, non-numeric, infinite or sentinel-valued entries leave the
// bound unset, and unknown keys are ignored.
func ParseFilterState(values map[string]string) FilterState {
	fs := make(FilterState)
	for key, raw := range values {
		m, isMin, ok := metricForFilterKey(key)
		if !ok {
			continue
		}

		sentinel := math.Inf(1)
		if isMin {
			sentinel = m.MinSentinel
		}

		v := parseBoundValue(raw, sentinel)
		if v == nil {
			continue
		}
		if isMin {
			fs.SetMin(m.Key, v)
		} else {
			fs.SetMax(m.Key, v)
		}
	}
	return fs
}

// ParseFilterQuery reads filter keys from a URL query
func ParseFilterQuery(q url.Values) FilterState {
	values := make(map[string]string, len(q))
	for k := range q {
		values[k] = q.Get(k)
	}
	return ParseFilterState(values)
}

func parseBoundValue(raw string, sentinel float64) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v == sentinel {
		return nil
	}
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
