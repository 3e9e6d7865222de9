package definition

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pitabwire/ucomparison/model"
)

// VError describes a single validation error in a comparison document.
type VError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e VError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator checks comparison documents structurally and referentially.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

var validTypes = map[string]bool{
	"url": true, "label": true, "text": true, "markdown": true, "rating": true,
}

// Validate checks a parsed document. A nil result means the document can be
// built.
func (v *Validator) Validate(doc Document) []VError {
	var errs []VError

	keys := make(map[string]bool)
	for i := range doc.Criteria {
		prefix := fmt.Sprintf("criteria[%d]", i)
		node := &doc.Criteria[i]
		if node.Kind != yaml.MappingNode {
			errs = append(errs, VError{Path: prefix, Code: "INVALID_TYPE", Message: "criteria entry must be a mapping"})
			continue
		}
		pairs, _ := mappingPairs(node)
		for _, p := range pairs {
			cp := prefix + "." + p.Key
			if keys[p.Key] {
				errs = append(errs, VError{Path: cp, Code: "DUPLICATE", Message: fmt.Sprintf("criteria %q declared more than once", p.Key)})
			}
			keys[p.Key] = true
			errs = append(errs, v.validateCriteria(cp, p.Value)...)
		}
	}

	autos, err := mappingPairs(&doc.AutoCriteria)
	if err != nil {
		errs = append(errs, VError{Path: "autoCriteria", Code: "INVALID_TYPE", Message: err.Error()})
	}
	for _, p := range autos {
		keys[p.Key] = true
		errs = append(errs, v.validateValues("autoCriteria."+p.Key, p.Value)...)
	}

	for key := range doc.AutoColor {
		if !keys[key] {
			errs = append(errs, VError{Path: "autoColor." + key, Code: "UNKNOWN_REFERENCE", Message: fmt.Sprintf("criteria %q is not declared", key)})
		}
	}

	indexes := make(map[int]string)
	for key, c := range doc.AutoBibtex {
		bp := "autoBibtex." + key
		if c.Index == nil {
			errs = append(errs, VError{Path: bp + ".index", Code: "REQUIRED", Message: "index is required"})
			continue
		}
		if other, ok := indexes[*c.Index]; ok {
			a, b := other, key
			if b < a {
				a, b = b, a
			}
			errs = append(errs, VError{Path: bp + ".index", Code: "DUPLICATE", Message: fmt.Sprintf("citations %q and %q share index %d", a, b, *c.Index)})
		}
		indexes[*c.Index] = key
	}

	if ref := doc.Details.Header.LabelRef; ref != nil && *ref != "" && !keys[*ref] {
		errs = append(errs, VError{Path: "details.header.labelRef", Code: "UNKNOWN_REFERENCE", Message: fmt.Sprintf("criteria %q is not declared", *ref)})
	}

	return errs
}

func (v *Validator) validateCriteria(prefix string, node *yaml.Node) []VError {
	var cd CriteriaDocument
	ok, err := decodeOptional(node, &cd)
	if err != nil {
		return []VError{{Path: prefix, Code: "INVALID_TYPE", Message: err.Error()}}
	}
	if !ok {
		return nil
	}

	var errs []VError
	if cd.Type != nil && !validTypes[strings.ToLower(*cd.Type)] {
		errs = append(errs, VError{Path: prefix + ".type", Code: "INVALID_ENUM", Message: fmt.Sprintf("invalid type %q", *cd.Type)})
	}
	if cd.AndSearch != nil && *cd.AndSearch && cd.RangeSearch != nil && *cd.RangeSearch {
		errs = append(errs, VError{Path: prefix + ".rangeSearch", Code: "CONFLICT", Message: "rangeSearch has no effect while andSearch is true"})
	}
	if cd.Type != nil && model.ParseCriteriaType(*cd.Type) != model.CriteriaTypeLabel && !isNull(&cd.Values) {
		errs = append(errs, VError{Path: prefix + ".values", Code: "CONFLICT", Message: "values are only used by label criteria"})
	}
	errs = append(errs, v.validateValues(prefix+".values", &cd.Values)...)
	return errs
}

func (v *Validator) validateValues(prefix string, node *yaml.Node) []VError {
	pairs, err := mappingPairs(node)
	if err != nil {
		return []VError{{Path: prefix, Code: "INVALID_TYPE", Message: err.Error()}}
	}

	var errs []VError
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		vp := prefix + "." + p.Key
		if seen[p.Key] {
			errs = append(errs, VError{Path: vp, Code: "DUPLICATE", Message: fmt.Sprintf("value %q declared more than once", p.Key)})
		}
		seen[p.Key] = true

		var vd ValueDocument
		if _, err := decodeOptional(p.Value, &vd); err != nil {
			errs = append(errs, VError{Path: vp, Code: "INVALID_TYPE", Message: err.Error()})
			continue
		}
		if vd.MinAge != nil && vd.MaxAge != nil && *vd.MaxAge >= 0 && *vd.MinAge > *vd.MaxAge {
			errs = append(errs, VError{Path: vp + ".minAge", Code: "RANGE", Message: "minAge must not exceed maxAge"})
		}
	}
	return errs
}
