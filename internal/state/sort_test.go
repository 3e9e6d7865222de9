package state

import (
	"slices"
	"testing"

	"github.com/pitabwire/ucomparison/model"
)

func textRow(values ...string) []model.CellValue {
	row := make([]model.CellValue, len(values))
	for i, v := range values {
		if v == "" {
			continue
		}
		row[i] = model.Text{Content: v}
	}
	return row
}

func TestSortRows_noKeysIsIdentity(t *testing.T) {
	rows := [][]model.CellValue{textRow("b"), textRow("a")}
	got := SortRows(rows, []model.CriteriaType{model.CriteriaTypeText}, nil, nil)
	if !slices.Equal(got, []int{0, 1}) {
		t.Errorf("SortRows() = %v, want [0 1]", got)
	}
}

func TestSortRows_caseInsensitive(t *testing.T) {
	rows := [][]model.CellValue{textRow("beta"), textRow("Alpha"), textRow("alpha"), textRow("Gamma")}
	types := []model.CriteriaType{model.CriteriaTypeText}

	got := SortRows(rows, types, []int{0}, []int{1})
	// "Alpha" and "alpha" tie and keep input order.
	if want := []int{1, 2, 0, 3}; !slices.Equal(got, want) {
		t.Errorf("ascending = %v, want %v", got, want)
	}

	got = SortRows(rows, types, []int{0}, []int{-1})
	if want := []int{3, 0, 1, 2}; !slices.Equal(got, want) {
		t.Errorf("descending = %v, want %v", got, want)
	}
}

func TestSortRows_stable(t *testing.T) {
	rows := [][]model.CellValue{textRow("x", "1"), textRow("x", "2"), textRow("x", "3")}
	types := []model.CriteriaType{model.CriteriaTypeText, model.CriteriaTypeText}
	got := SortRows(rows, types, []int{0}, []int{-1})
	if !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("SortRows() = %v, want [0 1 2]", got)
	}
}

func TestSortRows_multiKey(t *testing.T) {
	rows := [][]model.CellValue{
		textRow("b", "1"),
		textRow("a", "2"),
		textRow("b", "3"),
		textRow("a", "1"),
	}
	types := []model.CriteriaType{model.CriteriaTypeText, model.CriteriaTypeText}
	got := SortRows(rows, types, []int{0, 1}, []int{1, -1})
	if want := []int{1, 3, 2, 0}; !slices.Equal(got, want) {
		t.Errorf("SortRows() = %v, want %v", got, want)
	}
}

func TestSortRows_nullsLastEitherDirection(t *testing.T) {
	rows := [][]model.CellValue{textRow(""), textRow("b"), textRow(""), textRow("a")}
	types := []model.CriteriaType{model.CriteriaTypeText}

	asc := SortRows(rows, types, []int{0}, []int{1})
	if want := []int{3, 1, 0, 2}; !slices.Equal(asc, want) {
		t.Errorf("ascending = %v, want %v", asc, want)
	}
	desc := SortRows(rows, types, []int{0}, []int{-1})
	if want := []int{1, 3, 0, 2}; !slices.Equal(desc, want) {
		t.Errorf("descending = %v, want %v", desc, want)
	}
}

func TestSortRows_labelUsesFirstLabel(t *testing.T) {
	rows := [][]model.CellValue{
		{labels("zeta", "alpha")},
		{labels("beta")},
		{labels()},
	}
	got := SortRows(rows, []model.CriteriaType{model.CriteriaTypeLabel}, []int{0}, []int{1})
	if want := []int{1, 0, 2}; !slices.Equal(got, want) {
		t.Errorf("SortRows() = %v, want %v", got, want)
	}
}

func TestSortRows_rating(t *testing.T) {
	rows := [][]model.CellValue{
		{AverageRating(2)},
		{AverageRating(4.5)},
		{AverageRating(3)},
	}
	got := SortRows(rows, []model.CriteriaType{model.CriteriaTypeRating}, []int{0}, []int{-1})
	if want := []int{1, 2, 0}; !slices.Equal(got, want) {
		t.Errorf("SortRows() = %v, want %v", got, want)
	}
}

func TestSortRows_urlAndMarkdown(t *testing.T) {
	rows := [][]model.CellValue{
		{model.URL{Text: "b", Link: "a"}, model.Markdown{Content: "Y"}},
		{model.URL{Text: "A", Link: "z"}, model.Markdown{Content: "x"}},
	}
	types := []model.CriteriaType{model.CriteriaTypeURL, model.CriteriaTypeMarkdown}

	if got := SortRows(rows, types, []int{0}, []int{1}); !slices.Equal(got, []int{1, 0}) {
		t.Errorf("by url = %v, want [1 0]", got)
	}
	if got := SortRows(rows, types, []int{1}, []int{-1}); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("by markdown desc = %v, want [0 1]", got)
	}
}

func TestSortRows_unknownTypeTies(t *testing.T) {
	rows := [][]model.CellValue{textRow("b"), textRow("a")}
	got := SortRows(rows, []model.CriteriaType{model.CriteriaType(42)}, []int{0}, []int{1})
	if !slices.Equal(got, []int{0, 1}) {
		t.Errorf("SortRows() = %v, want [0 1]", got)
	}
}

func TestToggleOrder(t *testing.T) {
	tests := []struct {
		name     string
		order    []string
		key      string
		modifier bool
		want     []string
	}{
		{"first click ascending", nil, "id", false, []string{"+id"}},
		{"second click descending", []string{"+id"}, "id", false, []string{"-id"}},
		{"third click ascending", []string{"-id"}, "id", false, []string{"+id"}},
		{"plain click replaces others", []string{"+a", "-b"}, "c", false, []string{"+c"}},
		{"modifier appends", []string{"+a"}, "b", true, []string{"+a", "+b"}},
		{"modifier flips in place", []string{"+a", "+b", "-c"}, "b", true, []string{"+a", "-b", "-c"}},
		{"modifier flips descending back", []string{"-a", "+b"}, "a", true, []string{"+a", "+b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToggleOrder(tt.order, tt.key, tt.modifier)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ToggleOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProject(t *testing.T) {
	criterias := model.NewCriteriaSet(
		model.NewCriteria("id", model.CriteriaOptions{}),
		model.NewCriteria("hidden", model.CriteriaOptions{Table: boolPtr(false)}),
		model.NewCriteria("lang", model.CriteriaOptions{Name: strPtr("Language")}),
		model.NewCriteria("year", model.CriteriaOptions{}),
	)

	p := Project(criterias, map[string]bool{"year": false}, []string{"-lang", "+hidden", "+id", "bogus"})

	if want := []string{"id", "lang"}; !slices.Equal(p.Columns, want) {
		t.Errorf("Columns = %v, want %v", p.Columns, want)
	}
	if want := []string{"id", "Language"}; !slices.Equal(p.Names, want) {
		t.Errorf("Names = %v, want %v", p.Names, want)
	}
	if want := []bool{true, false, true, false}; !slices.Equal(p.Enabled, want) {
		t.Errorf("Enabled = %v, want %v", p.Enabled, want)
	}
	if want := []int{1, 0}; !slices.Equal(p.OrderKeys, want) {
		t.Errorf("OrderKeys = %v, want %v", p.OrderKeys, want)
	}
	if want := []int{-1, 1}; !slices.Equal(p.Directions, want) {
		t.Errorf("Directions = %v, want %v", p.Directions, want)
	}
	if want := []int{1, -1}; !slices.Equal(p.OrderMarker, want) {
		t.Errorf("OrderMarker = %v, want %v", p.OrderMarker, want)
	}
}

func strPtr(s string) *string { return &s }
