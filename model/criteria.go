package model

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// CriteriaType determines how a criteria's cells are stored, matched, and sorted.
type CriteriaType int

// Supported criteria types. The numeric values are stable.
const (
	CriteriaTypeURL CriteriaType = iota
	CriteriaTypeLabel
	CriteriaTypeText
	CriteriaTypeMarkdown
	CriteriaTypeRating
)

var criteriaTypeNames = [...]string{"url", "label", "text", "markdown", "rating"}

// String returns the lowercase configuration name of the type.
func (t CriteriaType) String() string {
	if t < 0 || int(t) >= len(criteriaTypeNames) {
		return "label"
	}
	return criteriaTypeNames[t]
}

// ParseCriteriaType maps a configuration name to a type. Unknown or empty
// names yield CriteriaTypeLabel.
func ParseCriteriaType(s string) CriteriaType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "url":
		return CriteriaTypeURL
	case "text":
		return CriteriaTypeText
	case "markdown":
		return CriteriaTypeMarkdown
	case "rating":
		return CriteriaTypeRating
	default:
		return CriteriaTypeLabel
	}
}

// MarshalJSON encodes the type as its name.
func (t CriteriaType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a type name.
func (t *CriteriaType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseCriteriaType(s)
	return nil
}

// MarshalYAML encodes the type as its name.
func (t CriteriaType) MarshalYAML() (any, error) {
	return t.String(), nil
}

// UnmarshalYAML decodes a type name.
func (t *CriteriaType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	*t = ParseCriteriaType(s)
	return nil
}

// Search indicator texts shown next to a criteria's search box.
const (
	IndicatorMatchAll   = "match all"
	IndicatorMatchRange = "match range"
	IndicatorMatchOne   = "match one"
)

// Criteria is one configurable column/search dimension.
type Criteria struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Search      bool            `json:"search"`
	Table       bool            `json:"table"`
	Detail      bool            `json:"detail"`
	Type        CriteriaType    `json:"type"`
	Description string          `json:"description"`
	Placeholder string          `json:"placeholder"`
	AndSearch   bool            `json:"and_search"`
	RangeSearch bool            `json:"range_search"`
	Values      []CriteriaValue `json:"values,omitempty"`
}

// CriteriaOptions carries the optional fields of a criteria declaration.
// Nil fields take their defaults.
type CriteriaOptions struct {
	Name        *string
	Search      *bool
	Table       *bool
	Detail      *bool
	Type        *CriteriaType
	Description *string
	Placeholder *string
	AndSearch   *bool
	RangeSearch *bool
	Values      []CriteriaValue
}

// NewCriteria builds a criteria from key and options. Name defaults to the
// key, search/table/detail and andSearch to true, type to label.
func NewCriteria(key string, opts CriteriaOptions) Criteria {
	c := Criteria{
		Key:       key,
		Name:      key,
		Search:    true,
		Table:     true,
		Detail:    true,
		Type:      CriteriaTypeLabel,
		AndSearch: true,
	}
	if opts.Name != nil && *opts.Name != "" {
		c.Name = *opts.Name
	}
	if opts.Search != nil {
		c.Search = *opts.Search
	}
	if opts.Table != nil {
		c.Table = *opts.Table
	}
	if opts.Detail != nil {
		c.Detail = *opts.Detail
	}
	if opts.Type != nil {
		c.Type = *opts.Type
	}
	if opts.AndSearch != nil {
		c.AndSearch = *opts.AndSearch
	}
	if opts.RangeSearch != nil {
		c.RangeSearch = *opts.RangeSearch
	}

	c.Description = Capitalize(c.Name) + " of entry."
	if opts.Description != nil && *opts.Description != "" {
		c.Description = *opts.Description
	}
	c.Placeholder = "Select " + c.Name + " of ..."
	if opts.Placeholder != nil && *opts.Placeholder != "" {
		c.Placeholder = *opts.Placeholder
	}

	c.Values = append([]CriteriaValue(nil), opts.Values...)
	return c
}

// Items returns the value names in declaration order.
func (c Criteria) Items() []string {
	items := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		items = append(items, v.Name)
	}
	return items
}

// Value returns the value with the given name.
func (c Criteria) Value(name string) (CriteriaValue, bool) {
	for _, v := range c.Values {
		if v.Name == name {
			return v, true
		}
	}
	return CriteriaValue{}, false
}

// SearchIndicator describes how terms entered for this criteria combine.
func (c Criteria) SearchIndicator() string {
	switch {
	case c.AndSearch:
		return IndicatorMatchAll
	case c.RangeSearch:
		return IndicatorMatchRange
	default:
		return IndicatorMatchOne
	}
}

// CriteriaValue is one allowed label value of a criteria.
type CriteriaValue struct {
	Criteria        string `json:"criteria"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Class           string `json:"class,omitempty"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	Weight          int    `json:"weight"`
	MinAge          int    `json:"min_age"`
	MaxAge          int    `json:"max_age"`
	MinAgeUnit      string `json:"min_age_unit"`
	MaxAgeUnit      string `json:"max_age_unit"`
}

// CriteriaValueOptions carries the optional fields of a value declaration.
type CriteriaValueOptions struct {
	Description     *string
	Class           *string
	Color           *string
	BackgroundColor *string
	Weight          *int
	MinAge          *int
	MaxAge          *int
	MinAgeUnit      *string
	MaxAgeUnit      *string
}

// DefaultBackgroundColor applies to values that declare no styling at all.
const DefaultBackgroundColor = "#777"

// NewCriteriaValue builds a value of the named criteria.
func NewCriteriaValue(criteria, name string, opts CriteriaValueOptions) CriteriaValue {
	v := CriteriaValue{
		Criteria:   criteria,
		Name:       name,
		Weight:     1,
		MinAge:     -1,
		MaxAge:     -1,
		MinAgeUnit: "months",
		MaxAgeUnit: "months",
	}
	if criteria != "" && name != "" {
		v.Description = Capitalize(criteria) + " is " + name
	}
	if opts.Description != nil && *opts.Description != "" {
		v.Description = *opts.Description
	}
	if opts.Class != nil {
		v.Class = *opts.Class
	}
	if opts.Color != nil {
		v.Color = *opts.Color
	}
	if opts.BackgroundColor != nil {
		v.BackgroundColor = *opts.BackgroundColor
	}
	if opts.Class == nil && opts.Color == nil && opts.BackgroundColor == nil {
		v.BackgroundColor = DefaultBackgroundColor
	}
	if opts.Weight != nil {
		v.Weight = *opts.Weight
	}
	if opts.MinAge != nil {
		v.MinAge = *opts.MinAge
	}
	if opts.MaxAge != nil {
		v.MaxAge = *opts.MaxAge
	}
	if opts.MinAgeUnit != nil && *opts.MinAgeUnit != "" {
		v.MinAgeUnit = *opts.MinAgeUnit
	}
	if opts.MaxAgeUnit != nil && *opts.MaxAgeUnit != "" {
		v.MaxAgeUnit = *opts.MaxAgeUnit
	}
	return v
}

// CriteriaSet is an ordered key to criteria mapping. Iteration order is
// declaration order, which is also the column order of the table.
type CriteriaSet struct {
	keys  []string
	index map[string]int
	items []Criteria
}

// NewCriteriaSet builds a set from criteria in order. A repeated key
// replaces the earlier entry in place.
func NewCriteriaSet(criteria ...Criteria) *CriteriaSet {
	s := &CriteriaSet{index: make(map[string]int, len(criteria))}
	for _, c := range criteria {
		s.Put(c)
	}
	return s
}

// Put appends c, or replaces the criteria with the same key in place.
func (s *CriteriaSet) Put(c Criteria) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[c.Key]; ok {
		s.items[i] = c
		return
	}
	s.index[c.Key] = len(s.items)
	s.keys = append(s.keys, c.Key)
	s.items = append(s.items, c)
}

// Get returns the criteria with the given key.
func (s *CriteriaSet) Get(key string) (Criteria, bool) {
	if s == nil {
		return Criteria{}, false
	}
	i, ok := s.index[key]
	if !ok {
		return Criteria{}, false
	}
	return s.items[i], true
}

// Has reports whether key is declared.
func (s *CriteriaSet) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns the criteria keys in declaration order.
func (s *CriteriaSet) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// All returns the criteria in declaration order.
func (s *CriteriaSet) All() []Criteria {
	if s == nil {
		return nil
	}
	return append([]Criteria(nil), s.items...)
}

// At returns the criteria at declaration index i.
func (s *CriteriaSet) At(i int) (Criteria, bool) {
	if s == nil || i < 0 || i >= len(s.items) {
		return Criteria{}, false
	}
	return s.items[i], true
}

// Len returns the number of criteria.
func (s *CriteriaSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// MarshalJSON encodes the set as an ordered array.
func (s *CriteriaSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.All())
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
