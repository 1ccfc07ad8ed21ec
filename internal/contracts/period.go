package contracts

// Period is a named lookback window used for percentage returns
type Period struct {
	Key   string
	Label string
	Days  int

	// Index is the conventional position of this window in a sparse newest-first series.
	// Only used for undated series.
	Index int
}

// Periods lists the lookback windows in display order
var Periods = []Period{
	{Key: "1_week", Label: "1 Week %", Days: 7, Index: 1},
	{Key: "1_month", Label: "1 Month %", Days: 30, Index: 2},
	{Key: "3_months", Label: "3 Months %", Days: 90, Index: 3},
	{Key: "1_year", Label: "1 Year %", Days: 365, Index: 5},
	{Key: "3_years", Label: "3 Years %", Days: 3 * 365, Index: 6},
	{Key: "5_years", Label: "5 Years %", Days: 5 * 365, Index: 7},
}

// MaxLookbackDays is the longest window, used to size price history requests
const MaxLookbackDays = 5 * 365

// PeriodByKey finds a period by its key
func PeriodByKey(key string) (Period, bool) {
	for _, p := range Periods {
		if p.Key == key {
			return p, true
		}
	}
	return Period{}, false
}

// PeriodByDays finds a period by its length in days
func PeriodByDays(days int) (Period, bool) {
	for _, p := range Periods {
		if p.Days == days {
			return p, true
		}
	}
	return Period{}, false
}
