package filter

import "strings"

// typeSynonyms maps the plural labels used by the filter UI to the singular
// spellings hosts enter for their property type.
var typeSynonyms = map[string][]string{
	"hotels":      {"hotel"},
	"resorts":     {"resort"},
	"guesthouses": {"guesthouse", "guest house"},
	"farmstays":   {"farmstay", "farm stay"},
	"apartments":  {"apartment"},
}

// TypeMatches compares case-insensitively, honoring typeSynonyms.
func TypeMatches(filterType, hotelType string) bool {
	want := strings.ToLower(strings.TrimSpace(filterType))
	got := strings.ToLower(strings.TrimSpace(hotelType))
	if got == want {
		return true
	}
	for _, s := range typeSynonyms[want] {
		if got == s {
			return true
		}
	}
	return false
}
