package model

// Configuration is the loaded comparison configuration: page texts, detail
// layout, criteria, and bibliography.
type Configuration struct {
	Title       string              `json:"title"`
	Subtitle    string              `json:"subtitle"`
	SelectTitle string              `json:"select_title"`
	TableTitle  string              `json:"table_title"`
	Repository  string              `json:"repository"`
	Details     Details             `json:"details"`
	Criteria    *CriteriaSet        `json:"criteria"`
	Citations   map[string]Citation `json:"citations,omitempty"`
	Description string              `json:"description,omitempty"`
}

// Details describes the entity detail view.
type Details struct {
	Header DetailsHeader `json:"header"`
	Body   DetailsBody   `json:"body"`
}

// DetailsHeader names the criteria shown in the detail header.
type DetailsHeader struct {
	NameRef  string `json:"name_ref"`
	LabelRef string `json:"label_ref"`
	URLRef   string `json:"url_ref"`
}

// DetailsBody names the criteria rendered as the detail body.
type DetailsBody struct {
	Title   string `json:"title"`
	BodyRef string `json:"body_ref"`
}

// Citation is one bibliography entry referenced as [@key].
type Citation struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
	Text  string `json:"text"`
}

// DefaultConfiguration returns a configuration with every text at its default
// and no criteria.
func DefaultConfiguration() Configuration {
	return Configuration{
		Title:       "Ultimate-X-Comparison",
		Subtitle:    "Ultimate X configuration framework",
		SelectTitle: "Criteria",
		TableTitle:  "Comparison of ...",
		Details: Details{
			Header: DetailsHeader{NameRef: "id", URLRef: "inline"},
			Body:   DetailsBody{Title: "Description", BodyRef: "Description"},
		},
		Criteria:  NewCriteriaSet(),
		Citations: map[string]Citation{},
	}
}

// Dataset is an immutable snapshot of a loaded configuration and its rows.
type Dataset struct {
	Configuration Configuration
	Entities      []Entity
	Checksum      string
}

// Criteria returns the dataset's criteria set.
func (d *Dataset) Criteria() *CriteriaSet {
	if d == nil {
		return nil
	}
	return d.Configuration.Criteria
}
