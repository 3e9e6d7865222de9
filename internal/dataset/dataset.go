// Package dataset turns data.json rows into typed entities according to the
// loaded criteria.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pitabwire/ucomparison/internal/markdown"
	"github.com/pitabwire/ucomparison/model"
)

// Reserved row fields that are not ordinary criteria.
const (
	FieldTag         = "tag"
	FieldDescription = "descr"
	CriteriaID       = "id"
	CriteriaDescr    = "description"
)

var (
	tagPattern = regexp.MustCompile(`(?i)^((?:(?:\w+\s*)(?:-?\s*\w+.)*)+)\s*-?\s*((?:(?:http|ftp|https)(?:://)(?:[\w_-]+(?:(?:\.[\w_-]+)+))|(?:www.))(?:[\w.,@?^=%&:/~+#-]*[\w@?^=%&/~+#-])?)$`)

	ratingStars   = regexp.MustCompile(`\[(\d*)\]`)
	ratingComment = regexp.MustCompile(`\[\d*\]((?:.|\n)*)`)

	leadingIndent = regexp.MustCompile(`(?m)^\s{3}`)
	doubleSpace   = regexp.MustCompile(`\s{2}`)
	anySpace      = regexp.MustCompile(`\s`)
)

// rawCell is one criteria entry of a row.
type rawCell struct {
	Plain  string          `json:"plain"`
	Childs json.RawMessage `json:"childs"`
}

// rawChild is one list item below a criteria entry.
type rawChild struct {
	Content     string `json:"content"`
	Plain       string `json:"plain"`
	PlainChilds string `json:"plainChilds"`
	Childs      []struct {
		Plain string `json:"plain"`
	} `json:"childs"`
}

// Parse decodes data.json into entities. Rows keep their file order; cell
// types follow cfg's criteria, defaulting to label for undeclared keys.
func Parse(data []byte, cfg model.Configuration, r *markdown.Renderer) ([]model.Entity, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}

	p := &parser{cfg: cfg, renderer: r}
	entities := make([]model.Entity, 0, len(rows))
	for i, row := range rows {
		e, err := p.entity(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

type parser struct {
	cfg      model.Configuration
	renderer *markdown.Renderer
}

func (p *parser) criteria(key string) model.Criteria {
	if c, ok := p.cfg.Criteria.Get(key); ok {
		return c
	}
	return model.NewCriteria(key, model.CriteriaOptions{})
}

// scalarType is the declared type of key, or url when undeclared.
func (p *parser) scalarType(key string) model.CriteriaType {
	if c, ok := p.cfg.Criteria.Get(key); ok {
		return c.Type
	}
	return model.CriteriaTypeURL
}

func (p *parser) entity(row map[string]json.RawMessage) (model.Entity, error) {
	e := model.Entity{Cells: make(map[string]model.CellValue, len(row))}

	var tag, descr string
	if err := decodeString(row[FieldTag], &tag); err != nil {
		return e, fmt.Errorf("%s: %w", FieldTag, err)
	}
	if err := decodeString(row[FieldDescription], &descr); err != nil {
		return e, fmt.Errorf("%s: %w", FieldDescription, err)
	}

	e.Name, e.URL = SplitTag(tag)
	id, err := p.scalar(p.scalarType(CriteriaID), e.Name, e.URL)
	if err != nil {
		return e, fmt.Errorf("%s: %w", CriteriaID, err)
	}
	e.Cells[CriteriaID] = id

	if descr != "" {
		d, err := p.scalar(p.scalarType(CriteriaDescr), descr, e.URL)
		if err != nil {
			return e, fmt.Errorf("%s: %w", FieldDescription, err)
		}
		e.Cells[CriteriaDescr] = d
	}

	keys := make([]string, 0, len(row))
	for k := range row {
		if k != FieldTag && k != FieldDescription {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var ratings model.RatingList
	for _, key := range keys {
		raw := row[key]
		if isNullJSON(raw) {
			continue
		}
		cell, err := decodeCell(raw)
		if err != nil {
			return e, fmt.Errorf("%s: %w", key, err)
		}
		c := p.criteria(key)

		switch c.Type {
		case model.CriteriaTypeText:
			e.Cells[key] = model.Text{Content: cell.Plain}
		case model.CriteriaTypeMarkdown:
			html, err := p.renderer.Render(cell.Plain)
			if err != nil {
				return e, fmt.Errorf("%s: %w", key, err)
			}
			e.Cells[key] = model.Markdown{Content: cell.Plain, HTML: html}
		case model.CriteriaTypeURL:
			e.Cells[key] = model.URL{Text: cell.Plain, Link: cell.Plain}
		case model.CriteriaTypeRating:
			list := parseRatings(children(cell.Childs))
			ratings = append(ratings, list...)
			e.Cells[key] = list
		default:
			labels, err := p.labels(c, children(cell.Childs))
			if err != nil {
				return e, fmt.Errorf("%s: %w", key, err)
			}
			e.Cells[key] = labels
		}
	}
	e.AverageRating = ratings.Average()

	return e, nil
}

// scalar builds the cell for the tag-derived id and the description, whose
// type comes from their criteria declaration.
func (p *parser) scalar(t model.CriteriaType, text, link string) (model.CellValue, error) {
	switch t {
	case model.CriteriaTypeText:
		return model.Text{Content: text}, nil
	case model.CriteriaTypeMarkdown:
		html, err := p.renderer.Render(text)
		if err != nil {
			return nil, err
		}
		return model.Markdown{Content: text, HTML: html}, nil
	case model.CriteriaTypeLabel:
		return model.NewLabelSet(model.Label{Name: text}), nil
	default:
		return model.URL{Text: text, Link: link}, nil
	}
}

func (p *parser) labels(c model.Criteria, childs []rawChild) (model.LabelSet, error) {
	set := model.NewLabelSet()
	for _, ch := range childs {
		conf, ok := c.Value(ch.Content)
		if !ok {
			conf = model.NewCriteriaValue("", "", model.CriteriaValueOptions{})
		}

		var tooltipSrc string
		if len(ch.Childs) == 1 {
			tooltipSrc = strings.TrimSpace(ch.Childs[0].Plain)
		} else {
			tooltipSrc = leadingIndent.ReplaceAllString(ch.PlainChilds, "")
		}
		html, err := p.renderer.Render(tooltipSrc)
		if err != nil {
			return set, err
		}

		set = set.With(model.Label{
			Name: ch.Content,
			Tooltip: model.Tooltip{
				Text:  conf.Description,
				HTML:  html,
				Latex: anySpace.ReplaceAllString(doubleSpace.ReplaceAllString(tooltipSrc, " "), " "),
			},
			Class:           conf.Class,
			Color:           conf.Color,
			BackgroundColor: conf.BackgroundColor,
		})
	}
	return set, nil
}

// SplitTag splits a row tag into display name and link. A tag that does not
// end with a link is used for both.
func SplitTag(tag string) (name, link string) {
	m := tagPattern.FindStringSubmatch(tag)
	if m == nil {
		return tag, tag
	}
	name, link = strings.TrimSpace(m[1]), m[2]
	if strings.HasPrefix(strings.ToLower(link), "www") {
		link = "http://" + link
	}
	return name, link
}

func parseRatings(childs []rawChild) model.RatingList {
	var list model.RatingList
	for _, ch := range childs {
		m := ratingStars.FindStringSubmatch(ch.Content)
		if m == nil {
			continue
		}
		stars, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		var comment string
		if cm := ratingComment.FindStringSubmatch(ch.Content); cm != nil {
			comment = cm[1]
		}
		list = append(list, model.Rating{Stars: stars, Comment: comment})
	}
	return list
}

// children unwraps childs["0"][0], accepting either an object or an array at
// the first level. Anything else yields no children.
func children(raw json.RawMessage) []rawChild {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	var first json.RawMessage
	switch raw[0] {
	case '{':
		var obj map[string]json.RawMessage
		if json.Unmarshal(raw, &obj) != nil {
			return nil
		}
		first = obj["0"]
	case '[':
		var arr []json.RawMessage
		if json.Unmarshal(raw, &arr) != nil || len(arr) == 0 {
			return nil
		}
		first = arr[0]
	default:
		return nil
	}

	var level []json.RawMessage
	if json.Unmarshal(first, &level) != nil || len(level) == 0 {
		return nil
	}
	var items []json.RawMessage
	if json.Unmarshal(level[0], &items) != nil {
		return nil
	}

	out := make([]rawChild, 0, len(items))
	for _, it := range items {
		var ch rawChild
		if json.Unmarshal(it, &ch) != nil || ch.Content == "" {
			continue
		}
		out = append(out, ch)
	}
	return out
}

func decodeCell(raw json.RawMessage) (rawCell, error) {
	var cell rawCell
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		err := json.Unmarshal(trimmed, &cell.Plain)
		return cell, err
	}
	err := json.Unmarshal(trimmed, &cell)
	return cell, err
}

func decodeString(raw json.RawMessage, out *string) error {
	if isNullJSON(raw) {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func isNullJSON(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
