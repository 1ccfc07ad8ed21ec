package screen

import (
	"strings"

	"github.com/wonny/screener/backend/internal/contracts"
)

// Engine applies a FilterState to enriched records
type Engine struct {
	metrics []Metric
}

// NewEngine creates an engine over the given registry (nil means Registry)
func NewEngine(metrics []Metric) *Engine {
	if metrics == nil {
		metrics = Registry
	}
	return &Engine{metrics: metrics}
}

// Apply returns the records passing every active bound, in input order.
// The input slice is not modified.
func (e *Engine) Apply(records []contracts.EnrichedStock, state FilterState) []contracts.EnrichedStock {
	active := e.activeMetrics(state)
	out := make([]contracts.EnrichedStock, 0, len(records))

	for i := range records {
		if _, failed := e.firstFailure(&records[i], state, active); !failed {
			out = append(out, records[i])
		}
	}

	return out
}

// Explain counts excluded records by the filter key that first rejected them
func (e *Engine) Explain(records []contracts.EnrichedStock, state FilterState) map[string]int {
	active := e.activeMetrics(state)
	reasons := make(map[string]int)

	for i := range records {
		if reason, failed := e.firstFailure(&records[i], state, active); failed {
			reasons[reason]++
		}
	}

	return reasons
}

func (e *Engine) activeMetrics(state FilterState) []Metric {
	var active []Metric
	for _, m := range e.metrics {
		if state.Get(m.Key).Active() {
			active = append(active, m)
		}
	}
	return active
}

// firstFailure reports the filter key of the first bound the record violates
func (e *Engine) firstFailure(rec *contracts.EnrichedStock, state FilterState, active []Metric) (string, bool) {
	for _, m := range active {
		b := state.Get(m.Key)
		v, ok := rec.Number(m.Field)
		if !ok {
			v = nil
		}
		if b.Contains(v) {
			continue
		}

		if v == nil {
			return m.Key + ":missing", true
		}
		if b.Min != nil && *v < *b.Min {
			return m.MinKey, true
		}
		return m.MaxKey, true
	}
	return "", false
}

// MatchQuery keeps records whose symbol or name contains q, case-insensitively.
// An empty query keeps everything.
func MatchQuery(records []contracts.EnrichedStock, q string) []contracts.EnrichedStock {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		out := make([]contracts.EnrichedStock, len(records))
		copy(out, records)
		return out
	}

	out := make([]contracts.EnrichedStock, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Symbol), q) || strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}
