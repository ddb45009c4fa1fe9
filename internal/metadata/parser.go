package metadata

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/paperdesk/papermeta/internal/prompt"
)

// ErrNoStructuredResult reports that no usable JSON block or salvageable
// fields were found in the model output.
var ErrNoStructuredResult = eris.New("metadata: no structured result in model output")

// rawRecord tolerates the shapes models actually emit: authors may come back
// as a list or as a single comma-joined string.
type rawRecord struct {
	DOI     string `json:"doi"`
	Title   string `json:"title"`
	Authors any    `json:"authors"`
	Summary string `json:"summary"`
}

// ParseModelOutput recovers a Record from raw model output. docText is the
// original document text, used to recover the DOI independently of whatever
// the model claims. The function never panics on malformed input; when
// nothing usable is found it returns ErrNoStructuredResult.
func ParseModelOutput(raw, docText string) (Record, error) {
	candidates := jsonCandidates(raw)

	// Last block first: instruction-following models tend to restate the
	// schema example before answering, so the final block is the most
	// likely real answer.
	for i := len(candidates) - 1; i >= 0; i-- {
		rec, ok := parseCandidate(candidates[i])
		if !ok || isPlaceholderEcho(rec) {
			continue
		}
		return finalize(rec, docText), nil
	}

	if rec, ok := salvage(raw); ok {
		return finalize(rec, docText), nil
	}

	return Record{}, ErrNoStructuredResult
}

// parseCandidate unmarshals one candidate block, retrying once after a light
// repair pass. A block that parses but carries no content is rejected.
func parseCandidate(s string) (Record, bool) {
	var rr rawRecord
	if err := json.Unmarshal([]byte(s), &rr); err != nil {
		if err := json.Unmarshal([]byte(repairJSON(s)), &rr); err != nil {
			return Record{}, false
		}
	}
	rec := Record{
		DOI:     strings.TrimSpace(rr.DOI),
		Title:   strings.TrimSpace(rr.Title),
		Authors: normalizeAuthors(rr.Authors),
		Summary: strings.TrimSpace(rr.Summary),
	}
	hasContent := rec.DOI != "" || rec.Title != "" || rec.Summary != "" || len(rec.Authors) > 0
	return rec, hasContent
}

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	curlyQuotes     = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// repairJSON fixes the mistakes models make most often: trailing commas
// before a closing bracket and typographic quotes.
func repairJSON(s string) string {
	s = curlyQuotes.Replace(s)
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// authorSplitRe separates a single authors string on commas or " and ".
// Known limitation: "Smith, J." style names split badly; list-shaped
// authors are always preferred.
var authorSplitRe = regexp.MustCompile(`\s*,\s*|\s+and\s+`)

func normalizeAuthors(v any) []string {
	switch vv := v.(type) {
	case []any:
		out := make([]string, 0, len(vv))
		for _, a := range vv {
			s, ok := a.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		out := []string{}
		for _, a := range authorSplitRe.Split(vv, -1) {
			if a = strings.TrimSpace(a); a != "" {
				out = append(out, a)
			}
		}
		return out
	default:
		return []string{}
	}
}

// isPlaceholderEcho reports whether the record merely repeats the example
// values from the prompt schema.
func isPlaceholderEcho(r Record) bool {
	if strings.EqualFold(r.Title, prompt.PlaceholderString) {
		return true
	}
	if strings.EqualFold(r.Summary, prompt.PlaceholderString) {
		return true
	}
	if len(r.Authors) == len(prompt.PlaceholderAuthors) {
		echo := true
		for i, a := range r.Authors {
			if !strings.EqualFold(a, prompt.PlaceholderAuthors[i]) {
				echo = false
				break
			}
		}
		if echo && len(r.Authors) > 0 {
			return true
		}
	}
	return false
}

var (
	titleFieldRe   = regexp.MustCompile(`"title"\s*:\s*"([^"]+)"`)
	summaryFieldRe = regexp.MustCompile(`"summary"\s*:\s*"([^"]+)"`)
	authorsFieldRe = regexp.MustCompile(`"authors"\s*:\s*\[([^\]]*)\]`)
	quotedItemRe   = regexp.MustCompile(`"([^"]+)"`)
)

// salvage pulls individual fields out of output whose JSON framing is too
// broken to parse. Placeholder values are skipped so an echoed schema
// example never masquerades as a result.
func salvage(raw string) (Record, bool) {
	rec := Record{Authors: []string{}}

	if m := titleFieldRe.FindStringSubmatch(raw); m != nil && !strings.EqualFold(m[1], prompt.PlaceholderString) {
		rec.Title = strings.TrimSpace(m[1])
	}
	if m := summaryFieldRe.FindStringSubmatch(raw); m != nil && !strings.EqualFold(m[1], prompt.PlaceholderString) {
		rec.Summary = strings.TrimSpace(m[1])
	}
	if m := authorsFieldRe.FindStringSubmatch(raw); m != nil {
		for _, item := range quotedItemRe.FindAllStringSubmatch(m[1], -1) {
			a := strings.TrimSpace(item[1])
			if a == "" || (strings.HasPrefix(a, "author") && len(a) <= len("authorN")) {
				continue
			}
			rec.Authors = append(rec.Authors, a)
		}
	}

	ok := rec.Title != "" || rec.Summary != "" || len(rec.Authors) > 0
	return rec, ok
}

// finalize applies the field-totality guarantee and resolves the DOI.
// A missing or garbled model DOI is replaced by one recovered from the
// document text.
func finalize(rec Record, docText string) Record {
	if rec.Authors == nil {
		rec.Authors = []string{}
	}
	if !ValidDOI(rec.DOI) {
		rec.DOI = ExtractDOI(docText)
	}
	return rec
}
