package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns the entries matching query, in catalog order.
//
// An empty query returns entries itself. Otherwise an entry matches when its
// identifier contains the query, or when details holds a resolved record whose
// display name contains it. Both comparisons are case-insensitive.
// Filter has no hidden state; details may be nil.
func Filter(entries []Entry, query string, details DetailLookup) []Entry {
	if query == "" {
		return entries
	}

	folder := cases.Fold()
	needle := folder.String(query)

	matched := make([]Entry, 0)
	for _, e := range entries {
		if strings.Contains(folder.String(e.Identifier), needle) {
			matched = append(matched, e)
			continue
		}
		if details == nil {
			continue
		}
		rec, ok := details.Lookup(e.Identifier)
		if ok && rec.State == StateResolved && strings.Contains(folder.String(rec.DisplayName), needle) {
			matched = append(matched, e)
		}
	}
	return matched
}
