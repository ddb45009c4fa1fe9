// Package metadata defines the bibliographic record extracted from a paper
// and the parser that recovers it from raw model output.
package metadata

import "regexp"

// Record is the canonical extraction output. Every field is always defined:
// absence is an empty string or empty slice, never a missing key, so
// consumers never branch on field presence.
type Record struct {
	DOI     string   `json:"doi"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Summary string   `json:"summary"`
}

// doiRe matches the standard DOI shape: "10." followed by a 4-9 digit
// registrant code, a slash, and a suffix token.
var doiRe = regexp.MustCompile(`(?i)\b10\.\d{4,9}/[-._;()/:A-Z0-9]+\b`)

// ExtractDOI returns the first DOI-shaped token in text, or "". The DOI is
// recovered from the document text rather than trusted from the model: the
// pattern is well-defined and regex beats the model at it.
func ExtractDOI(text string) string {
	return doiRe.FindString(text)
}

// ValidDOI reports whether s looks like a DOI.
func ValidDOI(s string) bool {
	return doiRe.MatchString(s)
}
