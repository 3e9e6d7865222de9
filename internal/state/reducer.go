package state

import (
	"slices"
	"strings"

	"github.com/pitabwire/ucomparison/model"
)

// Reduce applies action to prev and returns the next state. prev is never
// modified. Actions that cannot apply (unknown operation, stale index, data
// not loaded yet) return prev unchanged.
func Reduce(prev *State, action Action) *State {
	if prev == nil {
		prev = New()
	}

	switch a := action.(type) {
	case DataLoaded:
		return reduceDataLoaded(prev, a)
	case SearchUpdated:
		return reduceSearch(prev, a)
	case OrderChanged:
		return reduceOrder(prev, a)
	case SettingsChanged:
		return reduceSettings(prev, a)
	case RouteChanged:
		return reduceRoute(prev, a)
	default:
		return prev
	}
}

func reduceDataLoaded(prev *State, a DataLoaded) *State {
	if a.Dataset == nil || a.Dataset.Criteria() == nil {
		return prev
	}
	next := prev.clone()
	next.Dataset = a.Dataset

	next.ColumnsEnabled = map[string]bool{}
	next.ColumnsEnabledCache = nil
	if next.RequestedColumns != nil {
		applyColumns(next, next.RequestedColumns)
		next.RequestedColumns = nil
	}

	if !next.RequestedFilter {
		for _, i := range DefaultFilter(a.Dataset.Entities) {
			if !slices.Contains(next.CurrentFilter, i) {
				next.CurrentFilter = append(next.CurrentFilter, i)
			}
		}
		slices.Sort(next.CurrentFilter)
	}
	next.RequestedFilter = false
	syncElements(next)

	next.refresh(prev)
	return next
}

func reduceSearch(prev *State, a SearchUpdated) *State {
	next := prev.clone()
	for key, terms := range a.Search {
		kept := slices.DeleteFunc(slices.Clone(terms), blankTerm)
		if len(kept) == 0 {
			delete(next.CurrentSearch, key)
			continue
		}
		next.CurrentSearch[key] = kept
	}
	next.refresh(prev)
	return next
}

func reduceOrder(prev *State, a OrderChanged) *State {
	if !prev.Loaded() || a.ColumnIndex < 0 || a.ColumnIndex >= len(prev.CurrentColumns) {
		return prev
	}
	key := prev.CurrentColumns[a.ColumnIndex]

	next := prev.clone()
	next.CurrentOrder = ToggleOrder(prev.CurrentOrder, key, a.ModifierHeld)
	next.refresh(prev)
	return next
}

// ToggleOrder applies a header click on key to order. A click sorts
// ascending, a repeated click descending. Without the modifier the result
// holds only key; with it, key's existing entry is flipped in place or key
// is appended as the lowest priority.
func ToggleOrder(order []string, key string, modifier bool) []string {
	prefix, opposite := "+", "-"
	if slices.Contains(order, "+"+key) {
		prefix, opposite = "-", "+"
	}

	if !modifier {
		return []string{prefix + key}
	}

	out := slices.Clone(order)
	if i := slices.Index(out, opposite+key); i >= 0 {
		out[i] = prefix + key
		return out
	}
	return append(out, prefix+key)
}

func reduceSettings(prev *State, a SettingsChanged) *State {
	switch a.Operation {
	case OpColumn:
		c, ok := prev.Criteria().At(intValue(a.Value, -1))
		if !ok {
			return prev
		}
		next := prev.clone()
		next.ColumnsEnabled[c.Key] = boolValue(a.Enable, !ColumnVisible(c, prev.ColumnsEnabled))
		next.refresh(prev)
		return next

	case OpColumnsAll:
		if !prev.Loaded() {
			return prev
		}
		next := prev.clone()
		if boolValue(a.Enable, true) {
			if next.ColumnsEnabledCache == nil {
				next.ColumnsEnabledCache = effectiveFlags(prev)
			}
			for _, key := range prev.Criteria().Keys() {
				next.ColumnsEnabled[key] = true
			}
		} else {
			if next.ColumnsEnabledCache != nil {
				next.ColumnsEnabled = next.ColumnsEnabledCache
			} else {
				next.ColumnsEnabled = map[string]bool{}
			}
			next.ColumnsEnabledCache = nil
		}
		next.refresh(prev)
		return next

	case OpElement:
		i := intValue(a.Value, -1)
		if !prev.Loaded() || i < 0 || i >= len(prev.ElementsEnabled) {
			return prev
		}
		next := prev.clone()
		setElement(next, i, boolValue(a.Enable, !prev.elementVisible(i)))
		next.refresh(prev)
		return next

	case OpElementsAll:
		if !prev.Loaded() {
			return prev
		}
		next := prev.clone()
		enable := boolValue(a.Enable, true)
		for i := range next.ElementsEnabled {
			setElement(next, i, enable)
		}
		next.refresh(prev)
		return next

	case OpMaximize:
		next := prev.clone()
		next.CurrentlyMaximized = boolValue(a.Enable, !prev.CurrentlyMaximized)
		return next

	case OpDetails:
		i := intValue(a.Value, -1)
		if i >= len(prev.Entities()) {
			return prev
		}
		next := prev.clone()
		if i < 0 {
			i = -1
		}
		next.CurrentDetails = i
		return next

	case OpLatexTable:
		next := prev.clone()
		next.Display.LatexTable = boolValue(a.Enable, !prev.Display.LatexTable)
		return next

	case OpLatexEnumerate:
		next := prev.clone()
		next.Display.LatexEnumerate = boolValue(a.Enable, !prev.Display.LatexEnumerate)
		return next

	case OpLatexTooltips:
		next := prev.clone()
		next.Display.LatexTooltips = boolValue(a.Enable, !prev.Display.LatexTooltips)
		return next

	default:
		return prev
	}
}

func reduceRoute(prev *State, a RouteChanged) *State {
	route := ParseRoute(a.QueryParams)

	next := prev.clone()
	next.CurrentElements = nil
	next.RowIndexes = nil
	next.CurrentSearch = route.Search
	next.CurrentOrder = route.Order
	next.CurrentlyMaximized = route.Maximized
	next.CurrentDetails = -1

	if route.Columns != nil {
		if next.Loaded() {
			applyColumns(next, route.Columns)
		} else {
			next.RequestedColumns = route.Columns
		}
	}

	// Without a filter parameter the default hidden rows apply; with one,
	// even an empty one, the route lists exactly the hidden rows.
	next.CurrentFilter = route.Filter
	next.RequestedFilter = false
	if next.Loaded() {
		if !route.FilterSet {
			next.CurrentFilter = DefaultFilter(next.Entities())
		}
		syncElements(next)
	} else {
		next.RequestedFilter = route.FilterSet
	}

	next.refresh(prev)
	return next
}

// syncElements derives the row flags from the hidden-row list.
func syncElements(s *State) {
	s.ElementsEnabled = make([]bool, len(s.Entities()))
	for i := range s.ElementsEnabled {
		s.ElementsEnabled[i] = !slices.Contains(s.CurrentFilter, i)
	}
}

// applyColumns makes exactly the listed criteria visible.
func applyColumns(s *State, keys []string) {
	s.ColumnsEnabled = map[string]bool{}
	s.ColumnsEnabledCache = nil
	for _, key := range s.Criteria().Keys() {
		s.ColumnsEnabled[key] = slices.Contains(keys, key)
	}
}

func effectiveFlags(s *State) map[string]bool {
	flags := make(map[string]bool, s.Criteria().Len())
	for _, c := range s.Criteria().All() {
		flags[c.Key] = ColumnVisible(c, s.ColumnsEnabled)
	}
	return flags
}

func (s *State) elementVisible(i int) bool {
	return s.ElementsEnabled[i] && !slices.Contains(s.CurrentFilter, i)
}

// setElement shows or hides one entity and keeps the filter list, which is
// what the query string carries, in step.
func setElement(s *State, i int, enable bool) {
	s.ElementsEnabled[i] = enable
	s.CurrentFilter = slices.DeleteFunc(s.CurrentFilter, func(n int) bool { return n == i })
	if !enable {
		s.CurrentFilter = append(s.CurrentFilter, i)
		slices.Sort(s.CurrentFilter)
	}
}

// DefaultFilter lists the rows hidden until a user enables them: the sample
// "Template" row.
func DefaultFilter(entities []model.Entity) []int {
	var hidden []int
	for i, e := range entities {
		if e.Name == model.TemplateEntityName {
			hidden = append(hidden, i)
		}
	}
	return hidden
}

func blankTerm(t string) bool {
	return strings.TrimSpace(t) == ""
}

func intValue(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func boolValue(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}
