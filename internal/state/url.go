package state

import (
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Query parameter names.
const (
	ParamSearch    = "search"
	ParamFilter    = "filter"
	ParamColumns   = "columns"
	ParamMaximized = "maximized"
	ParamOrder     = "order"
)

// DefaultOrder applies when a query carries no order.
var DefaultOrder = []string{"+id"}

// Route is the decoded form of a view query string.
type Route struct {
	Search map[string][]string
	Filter []int
	// FilterSet reports whether the filter parameter was present at all.
	FilterSet bool
	Columns   []string
	Order     []string
	Maximized bool
}

// QueryParams decodes a raw query string into first-value parameters.
// Malformed pairs are dropped.
func QueryParams(rawQuery string) map[string]string {
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	params := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

// ParseRoute reads the view parameters. Unparseable entries are skipped.
//
//	search=<crit>:<term>[:<term>]*[;<crit>:<term>...]*
//	filter=<idx>[,<idx>]*
//	columns=<key>[,<key>]*
//	order=<±key>[,<±key>]*
//	maximized
func ParseRoute(params map[string]string) Route {
	r := Route{Search: map[string][]string{}}

	if raw := params[ParamSearch]; raw != "" {
		for _, block := range strings.Split(raw, ";") {
			tokens := strings.Split(block, ":")
			key := unescapeComponent(strings.TrimSpace(tokens[0]))
			if key == "" {
				continue
			}
			var terms []string
			for _, t := range tokens[1:] {
				if t = unescapeComponent(t); blankTerm(t) {
					continue
				}
				terms = append(terms, t)
			}
			if len(terms) > 0 {
				r.Search[key] = append(r.Search[key], terms...)
			}
		}
	}

	rawFilter, ok := params[ParamFilter]
	r.FilterSet = ok
	if rawFilter != "" {
		for _, part := range strings.Split(rawFilter, ",") {
			i, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || i < 0 {
				continue
			}
			r.Filter = append(r.Filter, i)
		}
	}

	if raw := params[ParamColumns]; raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if key := unescapeComponent(strings.TrimSpace(part)); key != "" {
				r.Columns = append(r.Columns, key)
			}
		}
	}

	if raw := params[ParamOrder]; raw != "" {
		for _, part := range strings.Split(raw, ",") {
			dir, key, ok := ParseOrderEntry(strings.TrimRight(part, " "))
			if !ok {
				continue
			}
			r.Order = append(r.Order, orderEntry(dir, unescapeComponent(key)))
		}
	} else {
		r.Order = slices.Clone(DefaultOrder)
	}

	_, r.Maximized = params[ParamMaximized]
	return r
}

// Encode serializes the route-relevant parts of s. Parsing the result with
// QueryParams and ParseRoute yields the same search, filter, columns, order
// and maximized flag. A filter equal to the default hidden rows and the
// default order are left out.
func Encode(s *State) string {
	var parts []string

	if len(s.CurrentSearch) > 0 {
		keys := make([]string, 0, len(s.CurrentSearch))
		for k, terms := range s.CurrentSearch {
			if len(terms) > 0 {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		blocks := make([]string, 0, len(keys))
		for _, k := range keys {
			tokens := []string{escapeComponent(k, ":;")}
			for _, t := range s.CurrentSearch[k] {
				tokens = append(tokens, escapeComponent(t, ":;"))
			}
			blocks = append(blocks, strings.Join(tokens, ":"))
		}
		if len(blocks) > 0 {
			parts = append(parts, ParamSearch+"="+escapeValue(strings.Join(blocks, ";")))
		}
	}

	idx := slices.Compact(slices.Sorted(slices.Values(s.CurrentFilter)))
	if !slices.Equal(idx, DefaultFilter(s.Entities())) {
		strs := make([]string, 0, len(idx))
		for _, n := range idx {
			strs = append(strs, strconv.Itoa(n))
		}
		parts = append(parts, ParamFilter+"="+escapeValue(strings.Join(strs, ",")))
	}

	columns := s.CurrentColumns
	if !s.Loaded() {
		columns = s.RequestedColumns
	}
	if len(columns) > 0 {
		keys := make([]string, 0, len(columns))
		for _, k := range columns {
			keys = append(keys, escapeComponent(k, ","))
		}
		parts = append(parts, ParamColumns+"="+escapeValue(strings.Join(keys, ",")))
	}

	if s.CurrentlyMaximized {
		parts = append(parts, ParamMaximized)
	}

	if len(s.CurrentOrder) > 0 && !slices.Equal(s.CurrentOrder, DefaultOrder) {
		entries := make([]string, 0, len(s.CurrentOrder))
		for _, e := range s.CurrentOrder {
			dir, key, ok := ParseOrderEntry(e)
			if !ok {
				continue
			}
			entries = append(entries, orderEntry(dir, escapeComponent(key, ",")))
		}
		if len(entries) > 0 {
			parts = append(parts, ParamOrder+"="+escapeValue(strings.Join(entries, ",")))
		}
	}

	return strings.Join(parts, "&")
}

func orderEntry(dir int, key string) string {
	if dir < 0 {
		return "-" + key
	}
	return "+" + key
}

// escapeComponent percent-encodes '%' and the given structural characters.
func escapeComponent(s, reserved string) string {
	if !strings.ContainsAny(s, "%"+reserved) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r == '%' || strings.ContainsRune(reserved, r) {
			b.WriteString("%" + strings.ToUpper(strconv.FormatInt(int64(r), 16)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unescapeComponent(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}

var valueReplacer = strings.NewReplacer("%3A", ":", "%2C", ",")

// escapeValue form-encodes a parameter value but keeps ':' and ',' readable.
func escapeValue(s string) string {
	return valueReplacer.Replace(url.QueryEscape(s))
}
