package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Symbol   string
	Mentions int
	Change   *float64
	SeenAt   *time.Time
}

func f(v float64) *float64 { return &v }

func symbols(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Symbol
	}
	return out
}

var columns = map[string]Column[row]{
	"symbol":   Text(func(r row) string { return r.Symbol }),
	"mentions": Value(func(r row) int { return r.Mentions }),
	"change":   Nullable(func(r row) *float64 { return r.Change }),
	"seen_at":  Time(func(r row) *time.Time { return r.SeenAt }),
}

func TestToggle_ThreeStateCycle(t *testing.T) {
	var s SortState
	assert.False(t, s.Active())

	s = s.Toggle("mentions")
	assert.Equal(t, SortState{Column: "mentions", Direction: Descending}, s)

	s = s.Toggle("mentions")
	assert.Equal(t, SortState{Column: "mentions", Direction: Ascending}, s)

	s = s.Toggle("mentions")
	assert.Equal(t, SortState{}, s)
	assert.False(t, s.Active())

	s = s.Toggle("mentions")
	assert.Equal(t, Descending, s.Direction)
}

func TestToggle_OtherColumnRestartsDescending(t *testing.T) {
	s := SortState{Column: "mentions", Direction: Ascending}
	assert.Equal(t, SortState{Column: "change", Direction: Descending}, s.Toggle("change"))
}

func TestSort_DuplicatesAndNulls(t *testing.T) {
	sample := []row{
		{Symbol: "A", Change: f(1.5)},
		{Symbol: "B", Change: nil},
		{Symbol: "C", Change: f(-2)},
		{Symbol: "D", Change: f(1.5)},
		{Symbol: "E", Change: nil},
		{Symbol: "F", Change: f(3)},
	}
	original := symbols(sample)

	var state SortState
	state = state.Toggle("change")
	assert.Equal(t, []string{"F", "A", "D", "C", "B", "E"}, symbols(Sort(sample, state, columns)))

	state = state.Toggle("change")
	assert.Equal(t, []string{"C", "A", "D", "F", "B", "E"}, symbols(Sort(sample, state, columns)))

	state = state.Toggle("change")
	assert.Equal(t, original, symbols(Sort(sample, state, columns)))

	assert.Equal(t, original, symbols(sample), "input must not be reordered")
}

func TestSort_TrendingMentionsScenario(t *testing.T) {
	stocks := []row{{Symbol: "AAPL", Mentions: 5}, {Symbol: "TSLA", Mentions: 12}}

	var state SortState
	state = state.Toggle("mentions")
	assert.Equal(t, []string{"TSLA", "AAPL"}, symbols(Sort(stocks, state, columns)))

	state = state.Toggle("mentions")
	assert.Equal(t, []string{"AAPL", "TSLA"}, symbols(Sort(stocks, state, columns)))
}

func TestSort_TextAndTime(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)
	sample := []row{
		{Symbol: "msft", SeenAt: &earlier},
		{Symbol: "", SeenAt: nil},
		{Symbol: "AMZN", SeenAt: &now},
	}

	asc := Sort(sample, SortState{Column: "symbol", Direction: Ascending}, columns)
	assert.Equal(t, []string{"AMZN", "msft", ""}, symbols(asc))

	desc := Sort(sample, SortState{Column: "seen_at", Direction: Descending}, columns)
	assert.Equal(t, []string{"AMZN", "msft", ""}, symbols(desc))
}

func TestSort_UnknownColumnKeepsOrder(t *testing.T) {
	sample := []row{{Symbol: "B"}, {Symbol: "A"}}
	out := Sort(sample, SortState{Column: "nope", Direction: Descending}, columns)
	assert.Equal(t, []string{"B", "A"}, symbols(out))
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Descending, ParseDirection("DESC"))
	assert.Equal(t, Ascending, ParseDirection(" asc "))
	assert.Equal(t, Unsorted, ParseDirection(""))
	assert.Equal(t, Unsorted, ParseDirection("sideways"))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Paginate(items, 2, 2)
	assert.Equal(t, []int{3, 4}, p.Items)
	assert.Equal(t, 5, p.Total)

	p = Paginate(items, 3, 2)
	assert.Equal(t, []int{5}, p.Items)

	p = Paginate(items, 9, 2)
	require.NotNil(t, p.Items)
	assert.Empty(t, p.Items)

	assert.Equal(t, []int{1, 2}, Window(items, -3, 2))
	assert.Empty(t, Window(items, 0, 0))
}

func TestFilter(t *testing.T) {
	out := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4}, out)
}
