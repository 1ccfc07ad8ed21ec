package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/screener/backend/internal/contracts"
)

func TestSort_NumericDirections(t *testing.T) {
	records := []contracts.EnrichedStock{stock("B", f(20)), stock("A", f(5)), stock("C", f(50))}

	asc := Sort(records, SortState{Key: contracts.FieldPrice, Direction: Asc})
	desc := Sort(records, SortState{Key: contracts.FieldPrice, Direction: Desc})

	assert.Equal(t, []string{"A", "B", "C"}, symbols(asc))
	assert.Equal(t, []string{"C", "B", "A"}, symbols(desc))
	assert.Equal(t, []string{"B", "A", "C"}, symbols(records))
}

func TestSort_MissingValues(t *testing.T) {
	records := []contracts.EnrichedStock{stock("N1", nil), stock("X", f(3)), stock("N2", nil), stock("Y", f(1))}

	asc := Sort(records, SortState{Key: contracts.FieldPrice, Direction: Asc})
	desc := Sort(records, SortState{Key: contracts.FieldPrice, Direction: Desc})

	assert.Equal(t, []string{"Y", "X", "N1", "N2"}, symbols(asc))
	assert.Equal(t, []string{"N1", "N2", "X", "Y"}, symbols(desc))
}

func TestSort_TextCaseInsensitive(t *testing.T) {
	records := []contracts.EnrichedStock{stock("beta", f(1)), stock("Alpha", f(1)), stock("GAMMA", f(1))}

	got := Sort(records, SortState{Key: contracts.FieldSymbol, Direction: Asc})
	assert.Equal(t, []string{"Alpha", "beta", "GAMMA"}, symbols(got))

	got = Sort(records, SortState{Key: contracts.FieldSymbol, Direction: Desc})
	assert.Equal(t, []string{"GAMMA", "beta", "Alpha"}, symbols(got))
}

func TestSort_StableOnTies(t *testing.T) {
	records := []contracts.EnrichedStock{stock("A", f(1)), stock("B", f(1)), stock("C", f(1))}
	got := Sort(records, SortState{Key: contracts.FieldPrice, Direction: Desc})
	assert.Equal(t, []string{"A", "B", "C"}, symbols(got))
}

func TestSort_PeriodKeyAndUnknownKey(t *testing.T) {
	a := stock("A", f(1))
	a.Returns["1_year"] = f(30)
	b := stock("B", f(1))
	b.Returns["1_year"] = f(-10)
	records := []contracts.EnrichedStock{a, b}

	assert.Equal(t, []string{"B", "A"}, symbols(Sort(records, SortState{Key: "1_year", Direction: Asc})))
	assert.Equal(t, []string{"A", "B"}, symbols(Sort(records, SortState{Key: "bogus", Direction: Desc})))
}

func TestSortState_Toggle(t *testing.T) {
	tests := []struct {
		name  string
		state SortState
		click string
		want  SortState
	}{
		{"active asc flips", SortState{"name", Asc}, "name", SortState{"name", Desc}},
		{"active desc goes asc", SortState{"name", Desc}, "name", SortState{"name", Asc}},
		{"other column asc", SortState{"name", Desc}, "market_cap", SortState{"market_cap", Asc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Toggle(tt.click))
		})
	}
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Desc, ParseDirection("DESC"))
	assert.Equal(t, Asc, ParseDirection("asc"))
	assert.Equal(t, Asc, ParseDirection(""))
	assert.Equal(t, Asc, ParseDirection("sideways"))
}

func TestSortable(t *testing.T) {
	for _, key := range []string{"name", "stock_symbol", "currentPrice", "5_years", "quickRatio"} {
		assert.True(t, Sortable(key), key)
	}
	assert.False(t, Sortable("sector"))
}
