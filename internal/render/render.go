// Package render draws a comparison view as a terminal table.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pitabwire/ucomparison/model"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorBorder = lipgloss.Color("#16858E")
	colorMuted  = lipgloss.Color("#6C7A80")
)

// Styles groups the styles used by Table.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
	Muted  lipgloss.Style
}

// DefaultStyles is the colored theme.
func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Header: lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Border: lipgloss.NewStyle().Foreground(colorBorder),
		Muted:  lipgloss.NewStyle().Foreground(colorMuted),
	}
}

// PlainStyles renders without color or emphasis, for pipes and tests.
func PlainStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle(),
		Header: lipgloss.NewStyle().Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Border: lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle(),
	}
}

// MaxCellWidth truncates long cell text.
const MaxCellWidth = 40

// Table renders v: the title, the table of visible rows and columns, a row
// count, and the canonical query string.
func Table(v model.ViewDescriptor, st Styles) string {
	var b strings.Builder

	if v.Title != "" {
		b.WriteString(st.Title.Render(v.Title))
		b.WriteString("\n")
	}
	if v.Subtitle != "" {
		b.WriteString(st.Muted.Render(v.Subtitle))
		b.WriteString("\n")
	}

	headers := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		headers[i] = c.Name + orderMarker(c.Order)
	}

	rows := make([][]string, len(v.Rows))
	for i, row := range v.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = truncate(CellText(cell), MaxCellWidth)
		}
		rows[i] = cells
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.Header
			}
			return st.Cell
		})
	b.WriteString(t.String())
	b.WriteString("\n")

	b.WriteString(st.Muted.Render(fmt.Sprintf("%d rows", len(v.Rows))))
	b.WriteString("\n")
	if v.Query != "" {
		b.WriteString(st.Muted.Render("?" + v.Query))
		b.WriteString("\n")
	}
	return b.String()
}

// CellText flattens a cell to one line of plain text.
func CellText(c model.CellDescriptor) string {
	switch {
	case c.Empty:
		return ""
	case c.Rating != nil:
		return fmt.Sprintf("%.1f", *c.Rating)
	case len(c.Labels) > 0:
		names := make([]string, len(c.Labels))
		for i, l := range c.Labels {
			names[i] = l.Name
		}
		return strings.Join(names, ", ")
	case c.Text != "":
		return strings.Join(strings.Fields(c.Text), " ")
	default:
		return c.Link
	}
}

// orderMarker shows sort direction: order is positive for ascending,
// negative for descending, zero when unsorted.
func orderMarker(order int) string {
	switch {
	case order > 0:
		return " ▲"
	case order < 0:
		return " ▼"
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
