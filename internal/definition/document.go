package definition

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a parsed comparison.yml before defaults and merging are
// applied. Criteria and value mappings stay as YAML nodes so that their
// declaration order survives.
type Document struct {
	Title        *string                             `yaml:"title"`
	Subtitle     *string                             `yaml:"subtitle"`
	SelectTitle  *string                             `yaml:"selectTitle"`
	TableTitle   *string                             `yaml:"tableTitle"`
	Repository   *string                             `yaml:"repository"`
	Details      DetailsDocument                     `yaml:"details"`
	Criteria     []yaml.Node                         `yaml:"criteria"`
	AutoCriteria yaml.Node                           `yaml:"autoCriteria"`
	AutoColor    map[string]map[string]ColorDocument `yaml:"autoColor"`
	AutoBibtex   map[string]CitationDocument         `yaml:"autoBibtex"`

	Checksum   string `yaml:"-"`
	SourceFile string `yaml:"-"`
}

// DetailsDocument is the details section.
type DetailsDocument struct {
	Header struct {
		NameRef  *string `yaml:"nameRef"`
		LabelRef *string `yaml:"labelRef"`
		URLRef   *string `yaml:"urlRef"`
	} `yaml:"header"`
	Body struct {
		Title   *string `yaml:"title"`
		BodyRef *string `yaml:"bodyRef"`
	} `yaml:"body"`
}

// CriteriaDocument is one criteria declaration. Every field is optional.
type CriteriaDocument struct {
	Name        *string   `yaml:"name"`
	Search      *bool     `yaml:"search"`
	Table       *bool     `yaml:"table"`
	Detail      *bool     `yaml:"detail"`
	Type        *string   `yaml:"type"`
	Description *string   `yaml:"description"`
	Placeholder *string   `yaml:"placeholder"`
	AndSearch   *bool     `yaml:"andSearch"`
	RangeSearch *bool     `yaml:"rangeSearch"`
	Values      yaml.Node `yaml:"values"`
}

// ValueDocument is one label value declaration.
type ValueDocument struct {
	Description     *string `yaml:"description"`
	Class           *string `yaml:"class"`
	Color           *string `yaml:"color"`
	BackgroundColor *string `yaml:"backgroundColor"`
	Weight          *int    `yaml:"weight"`
	MinAge          *int    `yaml:"minAge"`
	MaxAge          *int    `yaml:"maxAge"`
	MinAgeUnit      *string `yaml:"minAgeUnit"`
	MaxAgeUnit      *string `yaml:"maxAgeUnit"`
}

// ColorDocument is an autoColor entry.
type ColorDocument struct {
	Color           string `yaml:"color"`
	BackgroundColor string `yaml:"backgroundColor"`
}

// CitationDocument is an autoBibtex entry.
type CitationDocument struct {
	Index *int   `yaml:"index"`
	Value string `yaml:"value"`
}

// pair is one key/value entry of a YAML mapping, in document order.
type pair struct {
	Key   string
	Value *yaml.Node
}

// mappingPairs returns the entries of a mapping node in order. An absent or
// null node yields no entries.
func mappingPairs(node *yaml.Node) ([]pair, error) {
	if node == nil || node.Kind == 0 || isNull(node) {
		return nil, nil
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	pairs := make([]pair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		pairs = append(pairs, pair{Key: node.Content[i].Value, Value: node.Content[i+1]})
	}
	return pairs, nil
}

func isNull(node *yaml.Node) bool {
	return node == nil || node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

// decodeOptional decodes node into out unless it is null.
func decodeOptional(node *yaml.Node, out any) (bool, error) {
	if isNull(node) {
		return false, nil
	}
	if err := node.Decode(out); err != nil {
		return false, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return true, nil
}
