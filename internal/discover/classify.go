package discover

import (
	"regexp"
	"strings"

	"github.com/atelierlab/archharvest/internal/ledger"
	"github.com/atelierlab/archharvest/internal/status"
)

// artVenueSubstrings flag projects that are art museums or galleries rather
// than the science venues this harvest targets.
var artVenueSubstrings = []string{
	"-art-museum",
	"-art-gallery",
	"-contemporary-art",
}

// researchTerms flag pure research facilities. Matched as whole words so that
// e.g. "searchlight" never trips on "search".
var researchTerms = []string{
	"laboratory",
	"institute",
	"foundation",
	"skylab",
	"research",
	"biocenter",
	"bioengineering",
	"tech-center",
	"school",
}

var researchPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(escapeAll(researchTerms), "|") + `)\b`)

func escapeAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = regexp.QuoteMeta(t)
	}
	return out
}

// Classify applies the deterministic filtering rules in fixed priority order
// to rows that are not already marked. Rule 1 (art venues) wins over rule 2
// (research facilities); a row marked by rule 1 is never re-evaluated.
// Returns the counts marked by each rule.
func Classify(rows []ledger.Row) (artMarked, researchMarked int) {
	for i := range rows {
		if rows[i].Status != status.Empty {
			continue
		}
		if matchesArtVenue(rows[i].Link) {
			rows[i].Status = status.Delete
			artMarked++
			continue
		}
		if researchPattern.MatchString(rows[i].Link) {
			rows[i].Status = status.Delete
			researchMarked++
		}
	}
	return artMarked, researchMarked
}

func matchesArtVenue(link string) bool {
	lower := strings.ToLower(link)
	for _, sub := range artVenueSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// Dedupe keeps the first-seen row per project id, preserving append order.
// First-seen depends on worker completion order and is accepted as
// non-deterministic across runs; duplicate rows are equivalent.
func Dedupe(rows []ledger.Row) []ledger.Row {
	seen := make(map[string]struct{}, len(rows))
	out := make([]ledger.Row, 0, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.ProjectID]; dup {
			continue
		}
		seen[row.ProjectID] = struct{}{}
		out = append(out, row)
	}
	return out
}
