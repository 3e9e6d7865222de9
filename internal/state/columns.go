package state

import "github.com/pitabwire/ucomparison/model"

// Projection is the visible column layout derived from the criteria and the
// column visibility flags.
type Projection struct {
	Columns     []string             // visible criteria keys, declaration order
	Names       []string             // display names, parallel to Columns
	Types       []model.CriteriaType // criteria types, parallel to Columns
	Enabled     []bool               // visibility flag for every criteria, declaration order
	OrderKeys   []int                // column indexes named by the sort order
	Directions  []int                // +1 or -1, parallel to OrderKeys
	OrderMarker []int                // per visible column: 1 ascending, -1 descending, 0 unsorted
}

// ColumnVisible resolves one criteria's visibility: an explicit flag when
// present, the criteria's table default otherwise.
func ColumnVisible(c model.Criteria, columnsEnabled map[string]bool) bool {
	if enabled, ok := columnsEnabled[c.Key]; ok {
		return enabled
	}
	return c.Table
}

// Project computes the visible columns and the sort keys that refer to them.
// Order entries naming a hidden or unknown column are skipped.
func Project(criterias *model.CriteriaSet, columnsEnabled map[string]bool, order []string) Projection {
	var p Projection
	index := make(map[string]int)

	for _, c := range criterias.All() {
		visible := ColumnVisible(c, columnsEnabled)
		p.Enabled = append(p.Enabled, visible)
		if !visible {
			continue
		}
		index[c.Key] = len(p.Columns)
		p.Columns = append(p.Columns, c.Key)
		p.Names = append(p.Names, c.Name)
		p.Types = append(p.Types, c.Type)
	}

	p.OrderMarker = make([]int, len(p.Columns))
	for _, entry := range order {
		dir, key, ok := ParseOrderEntry(entry)
		if !ok {
			continue
		}
		col, ok := index[key]
		if !ok {
			continue
		}
		p.OrderKeys = append(p.OrderKeys, col)
		p.Directions = append(p.Directions, dir)
		if p.OrderMarker[col] == 0 {
			p.OrderMarker[col] = dir
		}
	}
	return p
}

// ParseOrderEntry splits "+key" or "-key" into direction and key. A leading
// space is read as "+", which is what a form-decoded "+" turns into.
func ParseOrderEntry(entry string) (int, string, bool) {
	if len(entry) < 2 {
		return 0, "", false
	}
	switch entry[0] {
	case '+', ' ':
		return 1, entry[1:], true
	case '-':
		return -1, entry[1:], true
	default:
		return 0, "", false
	}
}
