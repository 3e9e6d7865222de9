package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/ucomparison/model"
)

func TestParseRoute(t *testing.T) {
	r := ParseRoute(map[string]string{
		"search":    "lang:Go:Rust;year:2018-2020; :x;empty:",
		"filter":    "3, 1,x,-2",
		"columns":   "id,lang,",
		"order":     "-id, lang,+year,bad",
		"maximized": "",
	})

	assert.Equal(t, map[string][]string{"lang": {"Go", "Rust"}, "year": {"2018-2020"}}, r.Search)
	assert.Equal(t, []int{3, 1}, r.Filter)
	assert.True(t, r.FilterSet)
	assert.Equal(t, []string{"id", "lang"}, r.Columns)
	assert.Equal(t, []string{"-id", "+lang", "+year"}, r.Order)
	assert.True(t, r.Maximized)
}

func TestParseRoute_empty(t *testing.T) {
	r := ParseRoute(nil)
	assert.Empty(t, r.Search)
	assert.Nil(t, r.Filter)
	assert.False(t, r.FilterSet)
	assert.Nil(t, r.Columns)
	assert.Equal(t, []string{"+id"}, r.Order)
	assert.False(t, r.Maximized)

	r = ParseRoute(map[string]string{"order": ""})
	assert.Equal(t, []string{"+id"}, r.Order)
}

func TestParseRoute_emptyFilterIsExplicit(t *testing.T) {
	r := ParseRoute(QueryParams("filter=&order=-id"))
	assert.True(t, r.FilterSet)
	assert.Empty(t, r.Filter)
}

func TestParseRoute_blankSearchTerms(t *testing.T) {
	r := ParseRoute(QueryParams("search=lang:+:Go;year:"))
	assert.Equal(t, map[string][]string{"lang": {"Go"}}, r.Search)
}

func TestEncode_leavesOutDefaults(t *testing.T) {
	ds := newDataset(
		[]model.Criteria{model.NewCriteria("id", model.CriteriaOptions{})},
		entity("Alpha", map[string]model.CellValue{"id": labels("Alpha")}),
		entity("Template", map[string]model.CellValue{"id": labels("Template")}),
	)
	s := Reduce(loaded(t, ds), RouteChanged{QueryParams: QueryParams("")})

	assert.Equal(t, []string{"+id"}, s.CurrentOrder)
	assert.Equal(t, []int{1}, s.CurrentFilter)
	assert.Equal(t, "columns=id", Encode(s))
}

func TestQueryParams_plusIsAscending(t *testing.T) {
	r := ParseRoute(QueryParams("?order=+id"))
	assert.Equal(t, []string{"+id"}, r.Order)
}

func TestURLRoundTrip(t *testing.T) {
	raw := "search=lang:Go,Rust&order=-id&columns=id,lang"

	s := Reduce(loaded(t, langDataset()), RouteChanged{QueryParams: QueryParams(raw)})
	require.Equal(t, []string{"Go,Rust"}, s.CurrentSearch["lang"])

	encoded := Encode(s)
	assert.Equal(t, "search=lang:Go,Rust&columns=id,lang&order=-id", encoded)

	again := Reduce(loaded(t, langDataset()), RouteChanged{QueryParams: QueryParams(encoded)})
	assert.Equal(t, s.CurrentSearch, again.CurrentSearch)
	assert.Equal(t, s.CurrentFilter, again.CurrentFilter)
	assert.Equal(t, s.CurrentColumns, again.CurrentColumns)
	assert.Equal(t, s.CurrentOrder, again.CurrentOrder)
	assert.Equal(t, s.RowIndexes, again.RowIndexes)
}

func TestEncode_reservedCharacters(t *testing.T) {
	s := New()
	s.CurrentSearch = map[string][]string{
		"notes": {"a:b", "c;d", "50%"},
		"lang":  {"C++"},
	}
	s.CurrentFilter = []int{4, 1, 4}
	s.RequestedColumns = []string{"a,b", "id"}
	s.CurrentOrder = []string{"+a,b", "-id"}
	s.CurrentlyMaximized = true

	encoded := Encode(s)
	r := ParseRoute(QueryParams(encoded))

	assert.Equal(t, s.CurrentSearch, r.Search)
	assert.Equal(t, []int{1, 4}, r.Filter)
	assert.Equal(t, []string{"a,b", "id"}, r.Columns)
	assert.Equal(t, []string{"+a,b", "-id"}, r.Order)
	assert.True(t, r.Maximized)
	assert.Contains(t, encoded, "&maximized&")
}

func TestEncode_emptyState(t *testing.T) {
	assert.Equal(t, "", Encode(New()))
}
