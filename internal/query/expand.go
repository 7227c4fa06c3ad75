package query

import "strings"

type expansion struct {
	phrase string
	terms  string
}

var expansions = []expansion{
	{"software engineer", "developer programmer coder"},
	{"fresh graduate", "entry level junior new grad"},
	{"manager", "supervisor team lead leadership"},
	{"sales", "business development account manager"},
	{"customer service", "support client relations"},
	{"data", "analytics analysis scientist"},
}

// Expand appends related terms for every known phrase the query contains.
// It is not applied on the default retrieval path.
func Expand(query string) string {
	lower := strings.ToLower(query)
	var b strings.Builder
	b.WriteString(query)
	for _, e := range expansions {
		if strings.Contains(lower, e.phrase) {
			b.WriteByte(' ')
			b.WriteString(e.terms)
		}
	}
	return b.String()
}
