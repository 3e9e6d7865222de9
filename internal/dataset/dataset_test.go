package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/ucomparison/internal/markdown"
	"github.com/pitabwire/ucomparison/model"
)

func testConfig() model.Configuration {
	cfg := model.DefaultConfiguration()
	rating := model.CriteriaTypeRating
	text := model.CriteriaTypeText
	md := model.CriteriaTypeMarkdown
	green := "#0f0"
	desc := "Runs on the JVM"

	cfg.Criteria.Put(model.NewCriteria("Platform", model.CriteriaOptions{
		Values: []model.CriteriaValue{
			model.NewCriteriaValue("Platform", "JVM", model.CriteriaValueOptions{Color: &green, Description: &desc}),
		},
	}))
	cfg.Criteria.Put(model.NewCriteria("Rating", model.CriteriaOptions{Type: &rating}))
	cfg.Criteria.Put(model.NewCriteria("License", model.CriteriaOptions{Type: &text}))
	cfg.Criteria.Put(model.NewCriteria("Notes", model.CriteriaOptions{Type: &md}))
	cfg.Citations["fowler"] = model.Citation{Index: 1, Key: "fowler", Text: "Patterns"}
	return cfg
}

const rows = `[
  {
    "tag": "Hibernate - http://hibernate.org",
    "descr": "ORM for Java",
    "Platform": {"plain": "", "childs": {"0": [[
      {"content": "JVM", "plain": "JVM\n", "plainChilds": "", "childs": [{"plain": "  Java 8 [@fowler]\n"}]},
      {"content": "Android", "plain": "Android\n", "plainChilds": "   first\n   second", "childs": [{"plain": "first"}, {"plain": "second"}]}
    ]]}},
    "Rating": {"plain": "", "childs": {"0": [[
      {"content": "[4] solid", "plain": "", "plainChilds": "", "childs": []},
      {"content": "[2]", "plain": "", "plainChilds": "", "childs": []},
      {"content": "no stars", "plain": "", "plainChilds": "", "childs": []}
    ]]}},
    "License": {"plain": "LGPL", "childs": []},
    "Notes": {"plain": "*fast*", "childs": []},
    "Extra": null
  },
  {
    "tag": "Plain Name",
    "Platform": "unused"
  }
]`

func TestParse(t *testing.T) {
	cfg := testConfig()
	entities, err := Parse([]byte(rows), cfg, markdown.NewRenderer(cfg.Citations))
	require.NoError(t, err)
	require.Len(t, entities, 2)

	e := entities[0]
	assert.Equal(t, "Hibernate", e.Name)
	assert.Equal(t, "http://hibernate.org", e.URL)
	assert.Equal(t, model.URL{Text: "Hibernate", Link: "http://hibernate.org"}, e.Cells["id"])
	assert.Equal(t, model.URL{Text: "ORM for Java", Link: "http://hibernate.org"}, e.Cells["description"])
	assert.Equal(t, model.Text{Content: "LGPL"}, e.Cells["License"])

	notes, ok := e.Cells["Notes"].(model.Markdown)
	require.True(t, ok)
	assert.Contains(t, notes.HTML, "<em>fast</em>")

	labels, ok := e.Cells["Platform"].(model.LabelSet)
	require.True(t, ok)
	require.Equal(t, 2, labels.Len())
	jvm := labels.Labels()[0]
	assert.Equal(t, "JVM", jvm.Name)
	assert.Equal(t, "#0f0", jvm.Color)
	assert.Equal(t, "Runs on the JVM", jvm.Tooltip.Text)
	assert.Contains(t, jvm.Tooltip.HTML, `href="#fowler">[1]</a>`)
	assert.Equal(t, "Java 8 [@fowler]", jvm.Tooltip.Latex)

	android := labels.Labels()[1]
	assert.Equal(t, model.DefaultBackgroundColor, android.BackgroundColor)
	assert.Equal(t, "first second", android.Tooltip.Latex)

	ratings, ok := e.Cells["Rating"].(model.RatingList)
	require.True(t, ok)
	require.Len(t, ratings, 2)
	assert.Equal(t, model.Rating{Stars: 4, Comment: " solid"}, ratings[0])
	assert.InDelta(t, 3.0, e.AverageRating, 0.0001)
	assert.NotContains(t, e.Cells, "Extra")

	plain := entities[1]
	assert.Equal(t, "Plain Name", plain.Name)
	assert.Equal(t, "Plain Name", plain.URL)
	assert.Equal(t, 0, plain.Cells["Platform"].(model.LabelSet).Len())
	assert.NotContains(t, plain.Cells, "description")
}

func TestParse_averagePoolsRatingCriteria(t *testing.T) {
	cfg := model.DefaultConfiguration()
	rating := model.CriteriaTypeRating
	cfg.Criteria.Put(model.NewCriteria("Docs", model.CriteriaOptions{Type: &rating}))
	cfg.Criteria.Put(model.NewCriteria("Speed", model.CriteriaOptions{Type: &rating}))

	data := `[{
	  "tag": "Dapper",
	  "Speed": {"plain": "", "childs": {"0": [[{"content": "[5]", "plain": "", "plainChilds": "", "childs": []}]]}},
	  "Docs": {"plain": "", "childs": {"0": [[
	    {"content": "[1]", "plain": "", "plainChilds": "", "childs": []},
	    {"content": "[3]", "plain": "", "plainChilds": "", "childs": []}
	  ]]}}
	}]`
	entities, err := Parse([]byte(data), cfg, markdown.NewRenderer(cfg.Citations))
	require.NoError(t, err)
	require.Len(t, entities, 1)

	// (1 + 3 + 5) / 3 across both criteria, not the last criteria alone.
	assert.InDelta(t, 3.0, entities[0].AverageRating, 0.0001)
}

func TestParse_idType(t *testing.T) {
	cfg := testConfig()
	label := model.CriteriaTypeLabel
	cfg.Criteria.Put(model.NewCriteria("id", model.CriteriaOptions{Type: &label}))

	entities, err := Parse([]byte(`[{"tag": "Go http://go.dev"}]`), cfg, markdown.NewRenderer(nil))
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, []string{"Go"}, entities[0].Cells["id"].Terms())
}

func TestParse_missingCitation(t *testing.T) {
	cfg := testConfig()
	_, err := Parse([]byte(`[{"tag": "X", "Notes": {"plain": "see [@nobody]"}}]`), cfg, markdown.NewRenderer(cfg.Citations))
	require.ErrorIs(t, err, markdown.ErrMissingCitation)
	assert.Contains(t, err.Error(), "row 0")
}

func TestParse_empty(t *testing.T) {
	entities, err := Parse(nil, model.DefaultConfiguration(), markdown.NewRenderer(nil))
	require.NoError(t, err)
	assert.Empty(t, entities)

	_, err = Parse([]byte(`{"not": "a list"}`), model.DefaultConfiguration(), markdown.NewRenderer(nil))
	assert.Error(t, err)
}

func TestSplitTag(t *testing.T) {
	tests := []struct {
		tag      string
		wantName string
		wantLink string
	}{
		{"Hibernate - http://hibernate.org", "Hibernate", "http://hibernate.org"},
		{"Spring Data https://spring.io/projects", "Spring Data", "https://spring.io/projects"},
		{"jOOQ - www.jooq.org", "jOOQ", "http://www.jooq.org"},
		{"Just a name", "Just a name", "Just a name"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			name, link := SplitTag(tt.tag)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantLink, link)
		})
	}
}
