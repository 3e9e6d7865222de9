package state

import (
	"sort"
	"strings"

	"github.com/pitabwire/ucomparison/model"
)

// SortRows returns the stable permutation of rows ordered by the given
// column keys. rows[i][col] is the projected cell of row i in visible
// column col; rating columns hold an AverageRating.
//
// Keys are compared in order until one differs; that key's direction is
// applied to the result. A missing value always sorts after a present one,
// whatever the direction.
func SortRows(rows [][]model.CellValue, types []model.CriteriaType, orderKeys, directions []int) []int {
	perm := make([]int, len(rows))
	for i := range perm {
		perm[i] = i
	}
	if len(orderKeys) == 0 {
		return perm
	}

	sort.SliceStable(perm, func(a, b int) bool {
		return compareRows(rows[perm[a]], rows[perm[b]], types, orderKeys, directions) < 0
	})
	return perm
}

func compareRows(a, b []model.CellValue, types []model.CriteriaType, orderKeys, directions []int) int {
	for k, col := range orderKeys {
		if col < 0 || col >= len(types) {
			continue
		}
		res, null := compareCells(types[col], cellAt(a, col), cellAt(b, col))
		if res == 0 {
			continue
		}
		if null {
			return res
		}
		return res * directions[k]
	}
	return 0
}

// compareCells returns -1, 0 or 1 and whether the result came from the
// missing-value rule.
func compareCells(typ model.CriteriaType, l, r model.CellValue) (int, bool) {
	switch typ {
	case model.CriteriaTypeURL, model.CriteriaTypeText, model.CriteriaTypeMarkdown, model.CriteriaTypeLabel, model.CriteriaTypeRating:
	default:
		return 0, false
	}

	lNull, rNull := isNull(l), isNull(r)
	switch {
	case lNull && rNull:
		return 0, true
	case lNull:
		return 1, true
	case rNull:
		return -1, true
	}

	if typ == model.CriteriaTypeRating {
		lr, rr := ratingOf(l), ratingOf(r)
		switch {
		case lr < rr:
			return -1, false
		case lr > rr:
			return 1, false
		default:
			return 0, false
		}
	}
	return compareFold(sortKey(l), sortKey(r)), false
}

func isNull(cell model.CellValue) bool {
	switch c := cell.(type) {
	case nil:
		return true
	case model.LabelSet:
		return c.Len() == 0
	default:
		return false
	}
}

// sortKey returns the string a present cell sorts by.
func sortKey(cell model.CellValue) string {
	switch c := cell.(type) {
	case model.LabelSet:
		first, _ := c.First()
		return first.Name
	case model.Text:
		return c.Content
	case model.Markdown:
		return c.Content
	case model.URL:
		return c.Text
	default:
		terms := cell.Terms()
		if len(terms) == 0 {
			return ""
		}
		return terms[0]
	}
}

func ratingOf(cell model.CellValue) float64 {
	switch c := cell.(type) {
	case AverageRating:
		return float64(c)
	case model.RatingList:
		return c.Average()
	default:
		return 0
	}
}

func compareFold(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	switch {
	case a == b:
		return 0
	case a > b:
		return 1
	default:
		return -1
	}
}

func cellAt(row []model.CellValue, col int) model.CellValue {
	if col >= len(row) {
		return nil
	}
	return row[col]
}
