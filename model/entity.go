package model

import (
	"encoding/json"
	"strconv"
)

// TemplateEntityName is the name of the sample row shipped with every data
// file. It starts out hidden.
const TemplateEntityName = "Template"

// Entity is one compared item (one table row).
type Entity struct {
	Name          string               `json:"name"`
	URL           string               `json:"url"`
	AverageRating float64              `json:"average_rating"`
	Cells         map[string]CellValue `json:"cells"`
}

// Cell returns the cell for a criteria key, or nil when absent.
func (e Entity) Cell(key string) CellValue {
	if e.Cells == nil {
		return nil
	}
	return e.Cells[key]
}

// CellValue is the typed content of one entity/criteria cell.
type CellValue interface {
	// Type reports the criteria type the cell was built for.
	Type() CriteriaType
	// Terms returns the values a search query is matched against.
	Terms() []string
}

// Tooltip is the explanatory text attached to a label.
type Tooltip struct {
	Text  string `json:"text,omitempty"`
	HTML  string `json:"html,omitempty"`
	Latex string `json:"latex,omitempty"`
}

// Label is one label of a label cell, styled from its criteria value.
type Label struct {
	Name            string  `json:"name"`
	Tooltip         Tooltip `json:"tooltip"`
	Class           string  `json:"class,omitempty"`
	Color           string  `json:"color,omitempty"`
	BackgroundColor string  `json:"background_color,omitempty"`
}

// LabelSet is an ordered set of labels keyed by name. The first label is the
// one used for sorting.
type LabelSet struct {
	labels []Label
}

// NewLabelSet builds a set; later labels with a duplicate name are ignored.
func NewLabelSet(labels ...Label) LabelSet {
	var s LabelSet
	for _, l := range labels {
		s = s.With(l)
	}
	return s
}

// With returns a set with l appended unless its name is already present.
func (s LabelSet) With(l Label) LabelSet {
	if s.Has(l.Name) {
		return s
	}
	out := make([]Label, len(s.labels), len(s.labels)+1)
	copy(out, s.labels)
	return LabelSet{labels: append(out, l)}
}

// Has reports whether a label with name is present.
func (s LabelSet) Has(name string) bool {
	for _, l := range s.labels {
		if l.Name == name {
			return true
		}
	}
	return false
}

// Labels returns the labels in insertion order.
func (s LabelSet) Labels() []Label { return append([]Label(nil), s.labels...) }

// Len returns the number of labels.
func (s LabelSet) Len() int { return len(s.labels) }

// First returns the first label.
func (s LabelSet) First() (Label, bool) {
	if len(s.labels) == 0 {
		return Label{}, false
	}
	return s.labels[0], true
}

func (s LabelSet) Type() CriteriaType { return CriteriaTypeLabel }

func (s LabelSet) Terms() []string {
	names := make([]string, 0, len(s.labels))
	for _, l := range s.labels {
		names = append(names, l.Name)
	}
	return names
}

// MarshalJSON encodes the labels as an array.
func (s LabelSet) MarshalJSON() ([]byte, error) {
	if s.labels == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.labels)
}

// Text is a plain text cell.
type Text struct {
	Content string `json:"content"`
}

func (t Text) Type() CriteriaType { return CriteriaTypeText }
func (t Text) Terms() []string    { return []string{t.Content} }

// Markdown is a markdown cell with its rendered HTML.
type Markdown struct {
	Content string `json:"content"`
	HTML    string `json:"html"`
}

func (m Markdown) Type() CriteriaType { return CriteriaTypeMarkdown }
func (m Markdown) Terms() []string    { return []string{m.Content} }

// URL is a link cell.
type URL struct {
	Text string `json:"text"`
	Link string `json:"link"`
}

func (u URL) Type() CriteriaType { return CriteriaTypeURL }
func (u URL) Terms() []string    { return []string{u.Text} }

// Rating is a single star rating with an optional comment.
type Rating struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment,omitempty"`
}

// RatingList is a rating cell.
type RatingList []Rating

func (r RatingList) Type() CriteriaType { return CriteriaTypeRating }

func (r RatingList) Terms() []string {
	terms := make([]string, 0, len(r))
	for _, rt := range r {
		terms = append(terms, strconv.Itoa(rt.Stars))
	}
	return terms
}

// Average returns the mean star count, or 0 for an empty list.
func (r RatingList) Average() float64 {
	if len(r) == 0 {
		return 0
	}
	sum := 0
	for _, rt := range r {
		sum += rt.Stars
	}
	return float64(sum) / float64(len(r))
}
