// Package markdown renders configuration and cell markdown to HTML and
// resolves [@key] bibliography references.
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pitabwire/ucomparison/model"
)

// ErrMissingCitation is returned when a [@key] reference has no
// bibliography entry.
var ErrMissingCitation = errors.New("missing citation")

var citationPattern = regexp.MustCompile(`\[@([^\]]*)\]`)

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md        goldmark.Markdown
	citations map[string]model.Citation
}

// NewRenderer returns a renderer that resolves references against citations.
func NewRenderer(citations map[string]model.Citation) *Renderer {
	return &Renderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		citations: citations,
	}
}

// Render converts src to HTML and replaces every [@key] with a numbered
// link to the citation anchor.
func (r *Renderer) Render(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markdown: converting: %w", err)
	}
	return r.ResolveCitations(buf.String())
}

// ResolveCitations replaces [@key] references in already rendered HTML.
func (r *Renderer) ResolveCitations(rendered string) (string, error) {
	var missing []string
	out := citationPattern.ReplaceAllStringFunc(rendered, func(match string) string {
		key := citationPattern.FindStringSubmatch(match)[1]
		cite, ok := r.citations[key]
		if !ok {
			missing = append(missing, key)
			return match
		}
		return `<a class="cite-link" href="#` + html.EscapeString(key) + `">[` + strconv.Itoa(cite.Index) + `]</a>`
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %q", ErrMissingCitation, missing)
	}
	return out, nil
}
