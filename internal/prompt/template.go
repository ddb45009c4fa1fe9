package prompt

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// TemplateConfig is the YAML shape of a prompt template override file.
// Instruction must contain exactly two %s verbs: the first receives the
// JSON schema example, the second the truncated document text.
type TemplateConfig struct {
	Instruction string `yaml:"instruction"`
	MaxChars    int    `yaml:"max_chars"`
}

// LoadBuilder reads a template override file and returns a Builder using it.
// Fields left empty in the file keep their defaults; maxChars from the file
// wins over the passed-in value.
func LoadBuilder(path string, maxChars int) (*Builder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "prompt: read template %s", path)
	}

	var tc TemplateConfig
	if err := yaml.Unmarshal(data, &tc); err != nil {
		return nil, eris.Wrapf(err, "prompt: parse template %s", path)
	}

	if tc.MaxChars > 0 {
		maxChars = tc.MaxChars
	}
	b := NewBuilder(maxChars)

	if tc.Instruction != "" {
		if strings.Count(tc.Instruction, "%s") != 2 {
			return nil, eris.Errorf("prompt: template %s must contain exactly two %%s slots (schema, text)", path)
		}
		b.template = tc.Instruction
	}

	return b, nil
}
