package model

// ViewDescriptor is the resolved comparison table sent to the client.
type ViewDescriptor struct {
	SessionID string              `json:"session_id,omitempty"`
	Title     string              `json:"title"`
	Subtitle  string              `json:"subtitle,omitempty"`
	Columns   []ColumnDescriptor  `json:"columns"`
	Rows      []RowDescriptor     `json:"rows"`
	Search    map[string][]string `json:"search"`
	Order     []string            `json:"order"`
	Filter    []int               `json:"filter"`
	Maximized bool                `json:"maximized"`
	Details   int                 `json:"details"`
	Display   DisplayDescriptor   `json:"display"`
	Query     string              `json:"query"`
	Changed   bool                `json:"changed"`
	Loaded    bool                `json:"loaded"`
}

// ColumnDescriptor describes a visible table column.
type ColumnDescriptor struct {
	Key             string       `json:"key"`
	Name            string       `json:"name"`
	Type            CriteriaType `json:"type"`
	Order           int          `json:"order"`
	Description     string       `json:"description,omitempty"`
	Placeholder     string       `json:"placeholder,omitempty"`
	SearchIndicator string       `json:"search_indicator,omitempty"`
	Searchable      bool         `json:"searchable"`
}

// RowDescriptor is one visible row.
type RowDescriptor struct {
	Index int              `json:"index"`
	Name  string           `json:"name"`
	Cells []CellDescriptor `json:"cells"`
}

// CellDescriptor is the render-ready content of one cell. Empty cells have
// only Type set.
type CellDescriptor struct {
	Type   CriteriaType `json:"type"`
	Text   string       `json:"text,omitempty"`
	Link   string       `json:"link,omitempty"`
	HTML   string       `json:"html,omitempty"`
	Labels []Label      `json:"labels,omitempty"`
	Rating *float64     `json:"rating,omitempty"`
	Empty  bool         `json:"empty,omitempty"`
}

// DisplayDescriptor carries the presentation toggles.
type DisplayDescriptor struct {
	LatexTable     bool `json:"latex_table"`
	LatexEnumerate bool `json:"latex_enumerate"`
	LatexTooltips  bool `json:"latex_tooltips"`
}

// CriteriaDescriptor describes one criteria for the settings and search UI.
type CriteriaDescriptor struct {
	Key             string       `json:"key"`
	Name            string       `json:"name"`
	Type            CriteriaType `json:"type"`
	Description     string       `json:"description"`
	Placeholder     string       `json:"placeholder"`
	SearchIndicator string       `json:"search_indicator"`
	Search          bool         `json:"search"`
	Table           bool         `json:"table"`
	Detail          bool         `json:"detail"`
	Enabled         bool         `json:"enabled"`
	Items           []string     `json:"items,omitempty"`
}

// ConfigurationDescriptor is the configuration as exposed to clients.
type ConfigurationDescriptor struct {
	Title       string               `json:"title"`
	Subtitle    string               `json:"subtitle"`
	SelectTitle string               `json:"select_title"`
	TableTitle  string               `json:"table_title"`
	Repository  string               `json:"repository,omitempty"`
	Description string               `json:"description,omitempty"`
	Details     Details              `json:"details"`
	Criteria    []CriteriaDescriptor `json:"criteria"`
	Citations   []Citation           `json:"citations,omitempty"`
	Entities    int                  `json:"entities"`
}

// EntityDescriptor is the detail view of one entity.
type EntityDescriptor struct {
	Index  int                     `json:"index"`
	Name   string                  `json:"name"`
	URL    string                  `json:"url,omitempty"`
	Rating float64                 `json:"average_rating"`
	Body   *CellDescriptor         `json:"body,omitempty"`
	Fields []EntityFieldDescriptor `json:"fields"`
}

// EntityFieldDescriptor is one criteria cell in an entity detail view.
type EntityFieldDescriptor struct {
	Key  string         `json:"key"`
	Name string         `json:"name"`
	Cell CellDescriptor `json:"cell"`
}
