// Package definition loads the comparison configuration, its data file and
// description, validates them, and publishes the result through a registry
// with atomic pointer swap.
package definition

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/pitabwire/ucomparison/internal/dataset"
	"github.com/pitabwire/ucomparison/internal/markdown"
	"github.com/pitabwire/ucomparison/model"
)

// Source names the files that make up one comparison. DescriptionFile is
// optional.
type Source struct {
	ConfigFile      string
	DataFile        string
	DescriptionFile string
}

// Loader reads comparison sources and builds datasets from them.
type Loader struct {
	validator *Validator
}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{validator: NewValidator()}
}

// ValidationError wraps the structural problems found in a document.
type ValidationError struct {
	Errors []VError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		msgs = append(msgs, ve.Error())
	}
	return "invalid comparison: " + strings.Join(msgs, "; ")
}

// Load reads the configuration, data, and description files concurrently,
// validates the configuration, and builds a dataset.
func (l *Loader) Load(ctx context.Context, src Source) (*model.Dataset, error) {
	var (
		doc         Document
		data        []byte
		description []byte
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doc, err = l.LoadFile(src.ConfigFile)
		return err
	})
	g.Go(func() error {
		var err error
		data, err = os.ReadFile(src.DataFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", src.DataFile, err)
		}
		return nil
	})
	if src.DescriptionFile != "" {
		g.Go(func() error {
			var err error
			description, err = os.ReadFile(src.DescriptionFile)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("reading %s: %w", src.DescriptionFile, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if errs := l.validator.Validate(doc); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	cfg, err := l.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", src.ConfigFile, err)
	}

	renderer := markdown.NewRenderer(cfg.Citations)
	cfg.Description, err = renderer.Render(string(description))
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", src.DescriptionFile, err)
	}

	entities, err := dataset.Parse(data, cfg, renderer)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src.DataFile, err)
	}

	return &model.Dataset{
		Configuration: cfg,
		Entities:      entities,
		Checksum:      checksum(doc.Checksum, data, description),
	}, nil
}

// LoadFile loads and parses a single comparison.yml. It computes the SHA-256
// checksum and records the source file path.
func (l *Loader) LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return Document{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	doc.SourceFile = path
	return doc, nil
}

// ParseDocument decodes comparison.yml content.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	doc.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))
	return doc, nil
}

// Build applies defaults and merges the auto sections into a configuration.
func (l *Loader) Build(doc Document) (model.Configuration, error) {
	cfg := model.DefaultConfiguration()
	setString(&cfg.Title, doc.Title)
	setString(&cfg.Subtitle, doc.Subtitle)
	setString(&cfg.SelectTitle, doc.SelectTitle)
	setString(&cfg.TableTitle, doc.TableTitle)
	setString(&cfg.Repository, doc.Repository)
	setString(&cfg.Details.Header.NameRef, doc.Details.Header.NameRef)
	setString(&cfg.Details.Header.LabelRef, doc.Details.Header.LabelRef)
	setString(&cfg.Details.Header.URLRef, doc.Details.Header.URLRef)
	setString(&cfg.Details.Body.Title, doc.Details.Body.Title)
	setString(&cfg.Details.Body.BodyRef, doc.Details.Body.BodyRef)

	for i := range doc.Criteria {
		pairs, err := mappingPairs(&doc.Criteria[i])
		if err != nil {
			return model.Configuration{}, fmt.Errorf("criteria[%d]: %w", i, err)
		}
		for _, p := range pairs {
			c, err := buildCriteria(p.Key, p.Value, doc.AutoColor[p.Key])
			if err != nil {
				return model.Configuration{}, fmt.Errorf("criteria %q: %w", p.Key, err)
			}
			cfg.Criteria.Put(c)
		}
	}

	autos, err := mappingPairs(&doc.AutoCriteria)
	if err != nil {
		return model.Configuration{}, fmt.Errorf("autoCriteria: %w", err)
	}
	for _, p := range autos {
		values, err := buildValues(p.Key, p.Value, doc.AutoColor[p.Key])
		if err != nil {
			return model.Configuration{}, fmt.Errorf("autoCriteria %q: %w", p.Key, err)
		}
		if existing, ok := cfg.Criteria.Get(p.Key); ok {
			existing.Values = mergeValues(existing.Values, values)
			cfg.Criteria.Put(existing)
			continue
		}
		cfg.Criteria.Put(model.NewCriteria(p.Key, model.CriteriaOptions{Values: values}))
	}

	for key, c := range doc.AutoBibtex {
		idx := 0
		if c.Index != nil {
			idx = *c.Index
		}
		cfg.Citations[key] = model.Citation{Index: idx, Key: key, Text: c.Value}
	}

	return cfg, nil
}

func buildCriteria(key string, node *yaml.Node, colors map[string]ColorDocument) (model.Criteria, error) {
	var cd CriteriaDocument
	ok, err := decodeOptional(node, &cd)
	if err != nil {
		return model.Criteria{}, err
	}
	if !ok {
		return model.NewCriteria(key, model.CriteriaOptions{}), nil
	}

	values, err := buildValues(key, &cd.Values, colors)
	if err != nil {
		return model.Criteria{}, err
	}

	opts := model.CriteriaOptions{
		Name:        cd.Name,
		Search:      cd.Search,
		Table:       cd.Table,
		Detail:      cd.Detail,
		Description: cd.Description,
		Placeholder: cd.Placeholder,
		AndSearch:   cd.AndSearch,
		RangeSearch: cd.RangeSearch,
		Values:      values,
	}
	if cd.Type != nil {
		t := model.ParseCriteriaType(*cd.Type)
		opts.Type = &t
	}
	return model.NewCriteria(key, opts), nil
}

func buildValues(criteria string, node *yaml.Node, colors map[string]ColorDocument) ([]model.CriteriaValue, error) {
	pairs, err := mappingPairs(node)
	if err != nil {
		return nil, fmt.Errorf("values: %w", err)
	}
	values := make([]model.CriteriaValue, 0, len(pairs))
	for _, p := range pairs {
		var vd ValueDocument
		if _, err := decodeOptional(p.Value, &vd); err != nil {
			return nil, fmt.Errorf("value %q: %w", p.Key, err)
		}
		if auto, ok := colors[p.Key]; ok {
			if vd.Color == nil && auto.Color != "" {
				vd.Color = &auto.Color
			}
			if vd.BackgroundColor == nil && auto.BackgroundColor != "" {
				vd.BackgroundColor = &auto.BackgroundColor
			}
		}
		values = append(values, model.NewCriteriaValue(criteria, p.Key, model.CriteriaValueOptions{
			Description:     vd.Description,
			Class:           vd.Class,
			Color:           vd.Color,
			BackgroundColor: vd.BackgroundColor,
			Weight:          vd.Weight,
			MinAge:          vd.MinAge,
			MaxAge:          vd.MaxAge,
			MinAgeUnit:      vd.MinAgeUnit,
			MaxAgeUnit:      vd.MaxAgeUnit,
		}))
	}
	return values, nil
}

// mergeValues keeps declared values in order and appends generated values
// that were not declared.
func mergeValues(declared, generated []model.CriteriaValue) []model.CriteriaValue {
	seen := make(map[string]bool, len(declared))
	out := append([]model.CriteriaValue(nil), declared...)
	for _, v := range declared {
		seen[v.Name] = true
	}
	for _, v := range generated {
		if !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v)
		}
	}
	return out
}

func setString(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

// checksum combines the configuration checksum with the data and description
// contents.
func checksum(configSum string, data, description []byte) string {
	parts := []string{
		configSum,
		fmt.Sprintf("%x", sha256.Sum256(data)),
		fmt.Sprintf("%x", sha256.Sum256(description)),
	}
	h := sha256.Sum256([]byte(strings.Join(parts, ",")))
	return fmt.Sprintf("%x", h)
}
