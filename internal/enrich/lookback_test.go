package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/internal/contracts"
)

func point(date string, close float64) contracts.PricePoint {
	d, err := time.Parse(contracts.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return contracts.PricePoint{Symbol: "AGHOL", Date: d, Close: contracts.Float(close)}
}

// sparseSeries mirrors the predefined-range payload of the stock service:
// one point per lookback window plus a six month point.
func sparseSeries() []contracts.PricePoint {
	return []contracts.PricePoint{
		point("2025-01-24", 315),
		point("2025-01-17", 300),
		point("2024-12-26", 280),
		point("2024-10-28", 250),
		point("2024-07-29", 350), // six months
		point("2024-01-26", 210),
		point("2022-01-26", 105),
		point("2020-01-27", 30),
	}
}

func TestLookback_DateBased(t *testing.T) {
	series := sparseSeries()

	tests := []struct {
		days int
		want float64
	}{
		{7, 300},
		{30, 280},
		{90, 250},
		{365, 210}, // the one-year point, not the six-month one
		{1095, 105},
		{1825, 30},
	}

	for _, tt := range tests {
		got := Lookback(series, tt.days)
		require.NotNil(t, got, "days=%d", tt.days)
		assert.Equal(t, tt.want, *got, "days=%d", tt.days)
	}
}

func TestLookback_PicksNearestNeighbour(t *testing.T) {
	series := []contracts.PricePoint{
		point("2025-01-24", 100),
		point("2025-01-18", 90), // 6 days back
		point("2025-01-15", 80), // 9 days back
	}

	got := Lookback(series, 7)
	require.NotNil(t, got)
	assert.Equal(t, 90.0, *got)

	// target 2025-01-16 lies between both points and is one day from the older one
	got = Lookback(series, 8)
	require.NotNil(t, got)
	assert.Equal(t, 80.0, *got)
}

func TestLookback_OutsideToleranceIsNil(t *testing.T) {
	// only three years of history: a five year lookback must not reuse the three year point
	series := sparseSeries()[:7]
	assert.Nil(t, Lookback(series, 1825))

	// a gap around the one week target
	gappy := []contracts.PricePoint{point("2025-01-24", 100), point("2024-12-26", 90)}
	assert.Nil(t, Lookback(gappy, 7))
	assert.NotNil(t, Lookback(gappy, 30))
}

func TestLookback_DegenerateSeries(t *testing.T) {
	assert.Nil(t, Lookback(nil, 7))
	assert.Nil(t, Lookback([]contracts.PricePoint{point("2025-01-24", 315)}, 7))
	assert.Nil(t, Lookback(sparseSeries(), 0))

	missingClose := []contracts.PricePoint{point("2025-01-24", 315), {Date: time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)}}
	assert.Nil(t, Lookback(missingClose, 7))
}

func TestLookback_UndatedFallsBackToOffsets(t *testing.T) {
	series := sparseSeries()
	for i := range series {
		series[i].Date = time.Time{}
	}

	got := Lookback(series, 365)
	require.NotNil(t, got)
	assert.Equal(t, 210.0, *got, "one year uses offset 5 for both ends of the return")

	got = Lookback(series, 7)
	require.NotNil(t, got)
	assert.Equal(t, 300.0, *got)

	assert.Nil(t, Lookback(series[:4], 1095), "offset beyond the series")
	assert.Nil(t, Lookback(series, 45), "no conventional offset for 45 days")
}
