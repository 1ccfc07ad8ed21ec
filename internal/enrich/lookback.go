package enrich

import (
	"sort"
	"time"

	"github.com/wonny/screener/backend/internal/contracts"
)

const day = 24 * time.Hour

// Lookback returns the close price roughly periodDays before the newest point of a newest-first series.
//
// Dated series are searched by date: the point nearest to newest.Date - periodDays wins,
// provided it lies within the period's tolerance. Undated series fall back to the
// conventional sparse offsets of the stock service (see contracts.Periods).
// A nil result means "no data"; it is never substituted with 0.
func Lookback(series []contracts.PricePoint, periodDays int) *float64 {
	if len(series) < 2 || periodDays <= 0 {
		return nil
	}

	if series[0].Date.IsZero() {
		return indexLookback(series, periodDays)
	}

	target := series[0].Date.AddDate(0, 0, -periodDays)
	older := series[1:]

	// older is sorted by date descending: find the first point at or before target
	i := sort.Search(len(older), func(i int) bool {
		return !older[i].Date.After(target)
	})

	best := -1
	for _, c := range []int{i - 1, i} {
		if c < 0 || c >= len(older) {
			continue
		}
		if best < 0 || distance(older[c].Date, target) < distance(older[best].Date, target) {
			best = c
		}
	}

	if best < 0 || distance(older[best].Date, target) > tolerance(periodDays) {
		return nil
	}
	return older[best].Close
}

// tolerance is how far the nearest point may sit from the target date
func tolerance(periodDays int) time.Duration {
	return time.Duration(max(3, periodDays/4)) * day
}

func distance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

func indexLookback(series []contracts.PricePoint, periodDays int) *float64 {
	p, ok := contracts.PeriodByDays(periodDays)
	if !ok || p.Index >= len(series) {
		return nil
	}
	return series[p.Index].Close
}
