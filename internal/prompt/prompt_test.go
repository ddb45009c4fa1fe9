package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_ContainsSchemaAndText(t *testing.T) {
	b := NewBuilder(4000)
	p := b.Metadata("The quick brown paper.")

	assert.Contains(t, p, "DOI (if present)")
	assert.Contains(t, p, `"doi": "string"`)
	assert.Contains(t, p, `"authors": ["author1", "author2", ...]`)
	assert.Contains(t, p, "The quick brown paper.")
}

func TestMetadata_TruncatesDocument(t *testing.T) {
	b := NewBuilder(100)
	doc := strings.Repeat("a", 500)
	p := b.Metadata(doc)

	assert.Contains(t, p, strings.Repeat("a", 100))
	assert.NotContains(t, p, strings.Repeat("a", 101))
}

func TestMetadata_Deterministic(t *testing.T) {
	b := NewBuilder(4000)
	assert.Equal(t, b.Metadata("same text"), b.Metadata("same text"))
}

func TestNewBuilder_DefaultMaxChars(t *testing.T) {
	b := NewBuilder(0)
	assert.Equal(t, DefaultMaxChars, b.maxChars)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abcd", 2))
	assert.Equal(t, "", Truncate("", 5))
}

func TestTruncate_NoSplitRune(t *testing.T) {
	// "é" is two bytes; cutting at 3 would split the second "é".
	s := "aéé"
	got := Truncate(s, 4)
	assert.Equal(t, "aé", got)
}

func TestLoadBuilder_Override(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.yaml")
	content := `
instruction: |
  Custom instruction.
  Schema: %s
  Document: %s
max_chars: 1234
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	b, err := LoadBuilder(path, 4000)
	require.NoError(t, err)
	assert.Equal(t, 1234, b.maxChars)

	p := b.Metadata("doc body")
	assert.Contains(t, p, "Custom instruction.")
	assert.Contains(t, p, "doc body")
	assert.Contains(t, p, `"doi": "string"`)
}

func TestLoadBuilder_EmptyInstructionKeepsDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_chars: 12000\n"), 0644))

	b, err := LoadBuilder(path, 4000)
	require.NoError(t, err)
	assert.Equal(t, 12000, b.maxChars)
	assert.Contains(t, b.Metadata("x"), "Extract the following information")
}

func TestLoadBuilder_BadSlotCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instruction: 'only one %s slot'\n"), 0644))

	_, err := LoadBuilder(path, 4000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly two")
}

func TestLoadBuilder_MissingFile(t *testing.T) {
	_, err := LoadBuilder("/nonexistent/template.yaml", 4000)
	require.Error(t, err)
}
