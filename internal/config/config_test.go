package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "tesseract", cfg.OCR.Provider)
	assert.Equal(t, "pdftoppm", cfg.OCR.PdfToPpmPath)
	assert.Equal(t, "tesseract", cfg.OCR.TesseractPath)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, "pixtral-large-latest", cfg.OCR.MistralModel)
	assert.Equal(t, 4, cfg.Extract.PageConcurrency)
	assert.Equal(t, 4000, cfg.Prompt.MaxChars)
	assert.Equal(t, "huggingface", cfg.LLM.Provider)
	assert.Contains(t, cfg.LLM.BaseURL, "api-inference.huggingface.co")
	assert.Equal(t, 512, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 0.001)
	assert.Equal(t, 90, cfg.LLM.TimeoutSecs)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrent)
	assert.InDelta(t, 2.0, cfg.Batch.RequestsPerSec, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
  format: console
ocr:
  provider: mistral
  mistral_api_key: test-key
prompt:
  max_chars: 12000
llm:
  provider: anthropic
  anthropic_key: sk-test
  timeout_secs: 30
batch:
  max_concurrent: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "mistral", cfg.OCR.Provider)
	assert.Equal(t, "test-key", cfg.OCR.MistralKey)
	assert.Equal(t, 12000, cfg.Prompt.MaxChars)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.AnthropicKey)
	assert.Equal(t, 30, cfg.LLM.TimeoutSecs)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrent)

	// Unset values keep their defaults.
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 512, cfg.LLM.MaxTokens)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("PAPERMETA_LLM_KEY", "hf-token")
	t.Setenv("PAPERMETA_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "hf-token", cfg.LLM.Key)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
