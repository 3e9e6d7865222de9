package state

import (
	"sort"

	"github.com/pitabwire/ucomparison/model"
)

// View renders s into the descriptor returned to clients.
func View(s *State) model.ViewDescriptor {
	v := model.ViewDescriptor{
		Search:    map[string][]string{},
		Order:     append([]string{}, s.CurrentOrder...),
		Filter:    append([]int{}, s.CurrentFilter...),
		Maximized: s.CurrentlyMaximized,
		Details:   s.CurrentDetails,
		Display: model.DisplayDescriptor{
			LatexTable:     s.Display.LatexTable,
			LatexEnumerate: s.Display.LatexEnumerate,
			LatexTooltips:  s.Display.LatexTooltips,
		},
		Query:   Encode(s),
		Changed: s.Changed,
		Loaded:  s.Loaded(),
		Columns: []model.ColumnDescriptor{},
		Rows:    []model.RowDescriptor{},
	}
	for k, terms := range s.CurrentSearch {
		v.Search[k] = append([]string(nil), terms...)
	}
	if !s.Loaded() {
		return v
	}

	cfg := s.Dataset.Configuration
	v.Title = cfg.Title
	v.Subtitle = cfg.Subtitle

	for i, key := range s.CurrentColumns {
		c, _ := s.Criteria().Get(key)
		v.Columns = append(v.Columns, model.ColumnDescriptor{
			Key:             key,
			Name:            s.CurrentColumnNames[i],
			Type:            s.ColumnTypes[i],
			Order:           s.ColumnOrder[i],
			Description:     c.Description,
			Placeholder:     c.Placeholder,
			SearchIndicator: c.SearchIndicator(),
			Searchable:      c.Search,
		})
	}

	entities := s.Entities()
	for r, row := range s.CurrentElements {
		idx := s.RowIndexes[r]
		rd := model.RowDescriptor{Index: idx, Cells: make([]model.CellDescriptor, len(row))}
		if idx < len(entities) {
			rd.Name = entities[idx].Name
		}
		for c, cell := range row {
			rd.Cells[c] = DescribeCell(cell, s.ColumnTypes[c])
		}
		v.Rows = append(v.Rows, rd)
	}
	return v
}

// DescribeCell converts a cell into its render-ready form.
func DescribeCell(cell model.CellValue, typ model.CriteriaType) model.CellDescriptor {
	d := model.CellDescriptor{Type: typ}
	switch c := cell.(type) {
	case nil:
		d.Empty = true
	case model.LabelSet:
		d.Labels = c.Labels()
		d.Empty = c.Len() == 0
	case model.Text:
		d.Text = c.Content
	case model.Markdown:
		d.Text = c.Content
		d.HTML = c.HTML
	case model.URL:
		d.Text = c.Text
		d.Link = c.Link
	case AverageRating:
		r := float64(c)
		d.Rating = &r
	case model.RatingList:
		r := c.Average()
		d.Rating = &r
	}
	return d
}

// DescribeConfiguration lists the configuration and each criteria's
// visibility in s.
func DescribeConfiguration(ds *model.Dataset, s *State) model.ConfigurationDescriptor {
	cfg := ds.Configuration
	d := model.ConfigurationDescriptor{
		Title:       cfg.Title,
		Subtitle:    cfg.Subtitle,
		SelectTitle: cfg.SelectTitle,
		TableTitle:  cfg.TableTitle,
		Repository:  cfg.Repository,
		Description: cfg.Description,
		Details:     cfg.Details,
		Entities:    len(ds.Entities),
	}

	var flags map[string]bool
	if s != nil {
		flags = s.ColumnsEnabled
	}
	for _, c := range cfg.Criteria.All() {
		d.Criteria = append(d.Criteria, model.CriteriaDescriptor{
			Key:             c.Key,
			Name:            c.Name,
			Type:            c.Type,
			Description:     c.Description,
			Placeholder:     c.Placeholder,
			SearchIndicator: c.SearchIndicator(),
			Search:          c.Search,
			Table:           c.Table,
			Detail:          c.Detail,
			Enabled:         ColumnVisible(c, flags),
			Items:           c.Items(),
		})
	}

	for _, cite := range cfg.Citations {
		d.Citations = append(d.Citations, cite)
	}
	sort.Slice(d.Citations, func(i, j int) bool {
		if d.Citations[i].Index != d.Citations[j].Index {
			return d.Citations[i].Index < d.Citations[j].Index
		}
		return d.Citations[i].Key < d.Citations[j].Key
	})
	return d
}

// DescribeEntity builds the detail view of entity i from its detail
// criteria. The configured body criteria is split out of the field list.
func DescribeEntity(ds *model.Dataset, i int) (model.EntityDescriptor, bool) {
	if ds == nil || i < 0 || i >= len(ds.Entities) {
		return model.EntityDescriptor{}, false
	}
	e := ds.Entities[i]
	cfg := ds.Configuration
	d := model.EntityDescriptor{
		Index:  i,
		Name:   e.Name,
		URL:    e.URL,
		Rating: e.AverageRating,
		Fields: []model.EntityFieldDescriptor{},
	}

	bodyKey := ""
	for _, c := range cfg.Criteria.All() {
		if c.Key == cfg.Details.Body.BodyRef || c.Name == cfg.Details.Body.BodyRef {
			bodyKey = c.Key
			break
		}
	}

	for _, c := range cfg.Criteria.All() {
		if !c.Detail {
			continue
		}
		cell := DescribeCell(e.Cell(c.Key), c.Type)
		if c.Key == bodyKey {
			d.Body = &cell
			continue
		}
		d.Fields = append(d.Fields, model.EntityFieldDescriptor{Key: c.Key, Name: c.Name, Cell: cell})
	}
	return d, true
}
