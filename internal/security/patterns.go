package security

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Signature is one abuse pattern. Patterns are matched
// case-insensitively against the raw query text; they cover both the
// deployment language and English because abuse attempts are not
// confined to one language.
type Signature struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

type signatureFile struct {
	Signatures []Signature `yaml:"signatures"`
}

// DefaultSignatures are the compiled-in abuse patterns: instruction
// override phrases (English and Vietnamese) and SQL-destructive
// statements. Repeated-character spam is handled separately because RE2
// has no backreferences.
func DefaultSignatures() []Signature {
	return []Signature{
		{Name: "instruction_override_en", Pattern: `(?i)ignore\s+(all\s+)?(previous|prior)\s+instructions`},
		{Name: "instruction_override_en_alt", Pattern: `(?i)disregard\s+(all\s+)?(previous|prior)\s+(instructions|rules)`},
		{Name: "instruction_override_vi", Pattern: `(?i)bỏ qua\s+(tất cả\s+)?(các\s+)?hướng dẫn`},
		{Name: "instruction_override_vi_alt", Pattern: `(?i)quên\s+(hết\s+)?(các\s+)?(chỉ dẫn|hướng dẫn)`},
		{Name: "sql_destructive", Pattern: `(?i)(drop|truncate|delete)\s+(table|from)\s+`},
		{Name: "sql_select", Pattern: `(?i)select\s+.+\s+from\s+\w+`},
	}
}

// LoadSignatures reads a YAML signature file. An empty path returns the
// defaults.
func LoadSignatures(path string) ([]Signature, error) {
	if path == "" {
		return DefaultSignatures(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signature file: %w", err)
	}
	var file signatureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse signature file: %w", err)
	}
	if len(file.Signatures) == 0 {
		return DefaultSignatures(), nil
	}
	return file.Signatures, nil
}

type compiledSignature struct {
	name    string
	pattern *regexp.Regexp
}

func compileSignatures(signatures []Signature) ([]compiledSignature, error) {
	out := make([]compiledSignature, 0, len(signatures))
	for _, sig := range signatures {
		re, err := regexp.Compile(sig.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile signature %q: %w", sig.Name, err)
		}
		out = append(out, compiledSignature{name: sig.Name, pattern: re})
	}
	return out, nil
}
