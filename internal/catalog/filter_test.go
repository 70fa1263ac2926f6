package catalog

import (
	"strings"
	"testing"
)

func TestFilter_EmptyQueryIsIdentity(t *testing.T) {
	entries := entriesOf("730", "570", "440")
	got := Filter(entries, "", NewDetailCache())

	if len(got) != len(entries) {
		t.Fatalf("Filter() returned %d entries, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], entries[i])
		}
	}
}

func TestFilter(t *testing.T) {
	cache := NewDetailCache()
	cache.Store(DetailRecord{Identifier: "730", DisplayName: "Counter-Strike 2", State: StateResolved})
	cache.Store(DetailRecord{Identifier: "570", DisplayName: "Dota 2", State: StateResolved})
	cache.Store(DetailRecord{Identifier: "440", DisplayName: "Team Fortress 2", State: StateFailed})

	entries := entriesOf("730", "570", "440", "252490")

	tests := []struct {
		name    string
		query   string
		details DetailLookup
		want    []string
	}{
		{
			name:  "identifier substring",
			query: "73",
			want:  []string{"730"},
		},
		{
			name:    "display name case-insensitive",
			query:   "DOTA",
			details: cache,
			want:    []string{"570"},
		},
		{
			name:    "failed record name ignored",
			query:   "fortress",
			details: cache,
			want:    []string{},
		},
		{
			name:    "identifier or name, catalog order",
			query:   "2",
			details: cache,
			want:    []string{"730", "570", "252490"},
		},
		{
			name:    "no matches",
			query:   "zzz",
			details: cache,
			want:    []string{},
		},
		{
			name:  "nil details uses identifiers only",
			query: "counter",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(entries, tt.query, tt.details)
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q) returned %v, want %v", tt.query, identifiers(got), tt.want)
			}
			for i, id := range tt.want {
				if got[i].Identifier != id {
					t.Errorf("Filter(%q)[%d] = %s, want %s", tt.query, i, got[i].Identifier, id)
				}
			}
		})
	}
}

// TestFilter_SoundAndComplete checks every entry against the match rule.
func TestFilter_SoundAndComplete(t *testing.T) {
	cache := NewDetailCache()
	cache.Store(DetailRecord{Identifier: "10", DisplayName: "Counter-Strike", State: StateResolved})
	cache.Store(DetailRecord{Identifier: "20", DisplayName: "Team Fortress Classic", State: StateResolved})
	cache.Store(DetailRecord{Identifier: "30", DisplayName: "Day of Defeat", State: StateFailed})
	entries := entriesOf("10", "20", "30", "40", "400", "1040")

	matches := func(e Entry, q string) bool {
		q = strings.ToLower(q)
		if strings.Contains(strings.ToLower(e.Identifier), q) {
			return true
		}
		rec, ok := cache.Lookup(e.Identifier)
		return ok && rec.State == StateResolved && strings.Contains(strings.ToLower(rec.DisplayName), q)
	}

	for _, q := range []string{"0", "40", "strike", "CLASSIC", "day", "t", "xyz"} {
		got := Filter(entries, q, cache)
		inResult := make(map[string]bool)
		for _, e := range got {
			inResult[e.Identifier] = true
			if !matches(e, q) {
				t.Errorf("query %q: %s in result but does not match", q, e.Identifier)
			}
		}
		for _, e := range entries {
			if matches(e, q) && !inResult[e.Identifier] {
				t.Errorf("query %q: %s matches but is missing from result", q, e.Identifier)
			}
		}
	}
}

func identifiers(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Identifier
	}
	return ids
}
