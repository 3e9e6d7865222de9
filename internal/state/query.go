package state

import (
	"strconv"
	"strings"

	"github.com/pitabwire/ucomparison/model"
)

// Matches reports whether entity satisfies the search terms of one criteria.
// For andSearch criteria every term must match, otherwise any term must.
// Terms are compared to the cell vocabulary by exact string equality, or by
// the range language when the criteria has rangeSearch enabled. An empty term
// list matches everything.
func Matches(entity model.Entity, criteria model.Criteria, terms []string) bool {
	if len(terms) == 0 {
		return true
	}

	var vocabulary []string
	if cell := entity.Cell(criteria.Key); cell != nil {
		vocabulary = cell.Terms()
	}

	fulfills := criteria.AndSearch
	for _, term := range terms {
		hit := termMatches(term, vocabulary, criteria.RangeSearch)
		if criteria.AndSearch {
			fulfills = fulfills && hit
		} else {
			fulfills = fulfills || hit
		}
	}
	return fulfills
}

// MatchesAll applies Matches to every searched field and requires all of
// them. Fields naming an unknown criteria are ignored.
func MatchesAll(entity model.Entity, criterias *model.CriteriaSet, search map[string][]string) bool {
	for key, terms := range search {
		criteria, ok := criterias.Get(key)
		if !ok {
			continue
		}
		if !Matches(entity, criteria, terms) {
			return false
		}
	}
	return true
}

func termMatches(term string, vocabulary []string, rangeSearch bool) bool {
	for _, v := range vocabulary {
		if rangeSearch {
			if RangeContains(term, v) {
				return true
			}
			continue
		}
		if v == term {
			return true
		}
	}
	return false
}

// RangeContains evaluates the numeric range query against value.
//
// The query is a comma separated list of segments, any of which may match:
// a single integer ("5", "-3"), an inclusive range in either order ("1-10",
// "10-1"), a range with one negative bound ("-5-3", "3--5") or with two
// negative bounds ("-10--1"). Anything else, and any non-numeric value, never
// matches.
func RangeContains(query, value string) bool {
	v, ok := parseIntPrefix(value)
	if !ok {
		return false
	}
	for _, segment := range strings.Split(query, ",") {
		if segmentContains(strings.TrimSpace(segment), v) {
			return true
		}
	}
	return false
}

func segmentContains(q string, v int) bool {
	parts := strings.Split(q, "-")
	blank := func(i int) bool { return strings.TrimSpace(parts[i]) == "" }

	switch len(parts) {
	case 1:
		n, ok := parseIntPrefix(strings.ReplaceAll(q, " ", ""))
		return ok && n == v
	case 2:
		if blank(0) || blank(1) {
			n, ok := parseIntPrefix(strings.ReplaceAll(q, " ", ""))
			return ok && n == v
		}
		n1, ok1 := parseIntPrefix(parts[0])
		n2, ok2 := parseIntPrefix(parts[1])
		return ok1 && ok2 && between(v, n1, n2)
	case 3:
		var n1, n2 int
		var ok1, ok2 bool
		switch {
		case blank(0):
			n1, ok1 = parseIntPrefix(parts[1])
			n1 = -n1
			n2, ok2 = parseIntPrefix(parts[2])
		case blank(1):
			n2, ok2 = parseIntPrefix(parts[0])
			n1, ok1 = parseIntPrefix(parts[2])
			n1 = -n1
		default:
			return false
		}
		return ok1 && ok2 && n1 <= v && v <= n2
	case 4:
		if !blank(0) || !blank(2) {
			return false
		}
		n1, ok1 := parseIntPrefix(parts[1])
		n2, ok2 := parseIntPrefix(parts[3])
		return ok1 && ok2 && between(v, -n1, -n2)
	default:
		return false
	}
}

func between(v, a, b int) bool {
	if a > b {
		a, b = b, a
	}
	return a <= v && v <= b
}

// parseIntPrefix reads a leading base-10 integer the way a lenient
// browser parser does: leading spaces and a sign are allowed, trailing
// garbage is ignored, and no digits at all is a failure.
func parseIntPrefix(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
