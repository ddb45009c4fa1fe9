// Package prompt builds the metadata-extraction instruction sent to the
// generation backend.
package prompt

import (
	"fmt"
	"unicode/utf8"
)

// DefaultMaxChars bounds how much document text is embedded in the prompt.
// The observed upstream variants used 4000 and 12000; it is a knob, not a
// constant worth guessing.
const DefaultMaxChars = 4000

// Placeholder values used in the JSON example below. The response parser
// rejects candidate blocks that merely echo these back.
const (
	PlaceholderString = "string"
)

// PlaceholderAuthors is the example authors value as it appears in the prompt.
var PlaceholderAuthors = []string{"author1", "author2", "..."}

// defaultTemplate is the metadata extraction instruction. It takes two
// fmt arguments: the JSON example and the (truncated) document text.
const defaultTemplate = `Extract the following information from this research paper content:
1. DOI (if present)
2. Title of the paper
3. List of authors
4. A brief summary (3-5 sentences)

Return the result strictly in this JSON format:
%s

Text:
%s`

// jsonExample is the fixed schema example embedded in every prompt.
const jsonExample = `{
  "doi": "string",
  "title": "string",
  "authors": ["author1", "author2", ...],
  "summary": "string"
}`

// Builder constructs metadata prompts with a bounded document excerpt.
type Builder struct {
	maxChars int
	template string
}

// NewBuilder creates a Builder. A non-positive maxChars falls back to
// DefaultMaxChars.
func NewBuilder(maxChars int) *Builder {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Builder{maxChars: maxChars, template: defaultTemplate}
}

// Metadata returns the complete instruction for the given document text,
// truncated to the builder's character budget.
func (b *Builder) Metadata(docText string) string {
	return fmt.Sprintf(b.template, jsonExample, Truncate(docText, b.maxChars))
}

// Truncate cuts s to at most maxChars bytes without splitting a UTF-8
// sequence mid-rune.
func Truncate(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	cut := s[:maxChars]
	// Back off over a trailing partial rune (at most 3 continuation bytes).
	for i := 0; i < 3 && len(cut) > 0; i++ {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r == utf8.RuneError && size == 1 {
			cut = cut[:len(cut)-1]
			continue
		}
		break
	}
	return cut
}
