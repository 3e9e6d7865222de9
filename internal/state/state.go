// Package state derives the visible comparison table from the loaded
// criteria and entities and the user's search, column, row and order
// choices. Every transition returns a new State; a State is never modified
// after it has been returned.
package state

import (
	"slices"
	"strconv"

	"github.com/pitabwire/ucomparison/model"
)

// AverageRating is the projected cell of a rating column.
type AverageRating float64

func (a AverageRating) Type() model.CriteriaType { return model.CriteriaTypeRating }

func (a AverageRating) Terms() []string {
	return []string{strconv.FormatFloat(float64(a), 'f', -1, 64)}
}

// Display holds presentation flags that never affect which rows are shown.
type Display struct {
	LatexTable     bool `json:"latex_table"`
	LatexEnumerate bool `json:"latex_enumerate"`
	LatexTooltips  bool `json:"latex_tooltips"`
}

// State is one snapshot of the comparison view.
type State struct {
	// Dataset is nil until DataLoaded has been applied.
	Dataset *model.Dataset

	CurrentSearch map[string][]string
	CurrentFilter []int
	CurrentOrder  []string

	// ElementsEnabled is indexed by entity.
	ElementsEnabled []bool
	// ColumnsEnabled holds explicit column flags keyed by criteria key.
	// Criteria without a flag fall back to their table default.
	ColumnsEnabled      map[string]bool
	ColumnsEnabledCache map[string]bool

	CurrentColumns     []string
	CurrentColumnNames []string
	ColumnTypes        []model.CriteriaType
	ColumnOrder        []int

	CurrentElements [][]model.CellValue
	RowIndexes      []int

	CurrentlyMaximized bool
	CurrentDetails     int
	Display            Display

	// RequestedColumns keeps a route's column list until data arrives.
	RequestedColumns []string
	// RequestedFilter marks CurrentFilter as set by a route before data
	// arrived, so loading does not add the default hidden rows to it.
	RequestedFilter bool

	// Changed reports whether the last transition changed the visible rows.
	Changed bool
}

// New returns the empty state a session starts from.
func New() *State {
	return &State{
		CurrentSearch:  map[string][]string{},
		ColumnsEnabled: map[string]bool{},
		CurrentDetails: -1,
	}
}

// Loaded reports whether criteria have been loaded.
func (s *State) Loaded() bool {
	return s != nil && s.Dataset != nil && s.Dataset.Criteria() != nil
}

// Criteria returns the loaded criteria set, or nil before loading.
func (s *State) Criteria() *model.CriteriaSet {
	if s == nil {
		return nil
	}
	return s.Dataset.Criteria()
}

// Entities returns the loaded entities.
func (s *State) Entities() []model.Entity {
	if s == nil || s.Dataset == nil {
		return nil
	}
	return s.Dataset.Entities
}

// ColumnsVisibility returns the effective visibility of every criteria in
// declaration order.
func (s *State) ColumnsVisibility() []bool {
	all := s.Criteria().All()
	out := make([]bool, len(all))
	for i, c := range all {
		out[i] = ColumnVisible(c, s.ColumnsEnabled)
	}
	return out
}

// clone returns a copy that shares nothing mutable with s.
func (s *State) clone() *State {
	c := *s
	c.CurrentSearch = make(map[string][]string, len(s.CurrentSearch))
	for k, v := range s.CurrentSearch {
		c.CurrentSearch[k] = slices.Clone(v)
	}
	c.CurrentFilter = slices.Clone(s.CurrentFilter)
	c.CurrentOrder = slices.Clone(s.CurrentOrder)
	c.ElementsEnabled = slices.Clone(s.ElementsEnabled)
	c.ColumnsEnabled = cloneFlags(s.ColumnsEnabled)
	if s.ColumnsEnabledCache != nil {
		c.ColumnsEnabledCache = cloneFlags(s.ColumnsEnabledCache)
	}
	c.RequestedColumns = slices.Clone(s.RequestedColumns)
	c.Changed = false
	return &c
}

func cloneFlags(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// project refreshes the column layout from the column flags and order.
func (s *State) project() Projection {
	p := Project(s.Criteria(), s.ColumnsEnabled, s.CurrentOrder)
	s.CurrentColumns = p.Columns
	s.CurrentColumnNames = p.Names
	s.ColumnTypes = p.Types
	s.ColumnOrder = p.OrderMarker
	return p
}

// refresh re-runs projection, filter and sort and sets Changed relative to
// prev. It is a no-op before data has loaded.
func (s *State) refresh(prev *State) {
	if !s.Loaded() {
		return
	}
	p := s.project()

	indexes, rows := Filter(s.Entities(), s.Criteria(), s.CurrentColumns, s.CurrentFilter, s.ElementsEnabled, s.CurrentSearch)
	perm := SortRows(rows, s.ColumnTypes, p.OrderKeys, p.Directions)

	s.RowIndexes = make([]int, len(perm))
	s.CurrentElements = make([][]model.CellValue, len(perm))
	for i, j := range perm {
		s.RowIndexes[i] = indexes[j]
		s.CurrentElements[i] = rows[j]
	}
	s.Changed = !slices.Equal(prev.RowIndexes, s.RowIndexes) || !slices.Equal(prev.CurrentColumns, s.CurrentColumns)
}

// Filter selects the entities that are not hidden and pass every active
// search, in entity order, and projects them onto columns.
func Filter(entities []model.Entity, criterias *model.CriteriaSet, columns []string, hidden []int, enabled []bool, search map[string][]string) ([]int, [][]model.CellValue) {
	hiddenSet := make(map[int]struct{}, len(hidden))
	for _, i := range hidden {
		hiddenSet[i] = struct{}{}
	}

	var indexes []int
	var rows [][]model.CellValue
	for i, e := range entities {
		if _, ok := hiddenSet[i]; ok {
			continue
		}
		if i < len(enabled) && !enabled[i] {
			continue
		}
		if !MatchesAll(e, criterias, search) {
			continue
		}
		indexes = append(indexes, i)
		rows = append(rows, ProjectRow(e, criterias, columns))
	}
	return indexes, rows
}

// ProjectRow maps an entity onto the visible columns. Rating columns carry
// the entity's average rating; missing cells are nil.
func ProjectRow(e model.Entity, criterias *model.CriteriaSet, columns []string) []model.CellValue {
	row := make([]model.CellValue, len(columns))
	for i, key := range columns {
		c, ok := criterias.Get(key)
		if ok && c.Type == model.CriteriaTypeRating {
			row[i] = AverageRating(e.AverageRating)
			continue
		}
		row[i] = e.Cell(key)
	}
	return row
}
