package screen

import (
	"sort"
	"strings"

	"github.com/wonny/screener/backend/internal/contracts"
)

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc"/"desc" in any case and defaults to ascending
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// SortState is the active sort column and direction
type SortState struct {
	Key       string    `json:"key" yaml:"key"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// DefaultSort orders by price, highest first
func DefaultSort() SortState {
	return SortState{Key: contracts.FieldPrice, Direction: Desc}
}

// Toggle applies a header click: the active ascending column flips to descending,
// anything else becomes the ascending sort.
func (s SortState) Toggle(key string) SortState {
	if s.Key == key && s.Direction == Asc {
		return SortState{Key: key, Direction: Desc}
	}
	return SortState{Key: key, Direction: Asc}
}

// Sortable reports whether key names a text or numeric record field
func Sortable(key string) bool {
	var rec contracts.EnrichedStock
	if _, ok := rec.Text(key); ok {
		return true
	}
	_, ok := rec.Number(key)
	return ok
}

// Sort returns a sorted copy. Missing numeric values go last ascending and first descending;
// ties keep their input order. An unknown key returns the records in input order.
func Sort(records []contracts.EnrichedStock, state SortState) []contracts.EnrichedStock {
	out := make([]contracts.EnrichedStock, len(records))
	copy(out, records)
	if len(out) < 2 {
		return out
	}

	desc := state.Direction == Desc
	var rec contracts.EnrichedStock

	if _, ok := rec.Text(state.Key); ok {
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := out[i].Text(state.Key)
			b, _ := out[j].Text(state.Key)
			a, b = strings.ToLower(a), strings.ToLower(b)
			if desc {
				return a > b
			}
			return a < b
		})
		return out
	}

	if _, ok := rec.Number(state.Key); !ok {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Number(state.Key)
		b, _ := out[j].Number(state.Key)
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return desc
		case b == nil:
			return !desc
		case desc:
			return *a > *b
		default:
			return *a < *b
		}
	})
	return out
}
