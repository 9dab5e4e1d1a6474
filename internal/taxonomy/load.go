package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config with optional sections so a rules file only
// needs to spell out what it changes.
type fileConfig struct {
	Weights           *Weights          `yaml:"weights"`
	SemanticThreshold *float64          `yaml:"semantic_threshold"`
	NoiseChars        *string           `yaml:"noise_chars"`
	MCC               map[string]string `yaml:"mcc"`
	Keywords          []KeywordRule     `yaml:"keywords"`
	ExtendDefaults    bool              `yaml:"extend_defaults"`
}

// Load reads a YAML rules file and returns the resulting rule set. Sections
// missing from the file keep their built-in values. With extend_defaults set,
// the file's MCC entries and keyword rules are added to the built-in ones
// instead of replacing them.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	return Parse(data)
}

// Parse builds a rule set from YAML data.
func Parse(data []byte) (*RuleSet, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}

	cfg := DefaultConfig()
	if fc.Weights != nil {
		cfg.Weights = *fc.Weights
	}
	if fc.SemanticThreshold != nil {
		cfg.SemanticThreshold = *fc.SemanticThreshold
	}
	if fc.NoiseChars != nil {
		cfg.NoiseChars = *fc.NoiseChars
	}

	if fc.MCC != nil {
		if !fc.ExtendDefaults {
			cfg.MCC = make(map[string]string, len(fc.MCC))
		}
		for code, category := range fc.MCC {
			cfg.MCC[code] = category
		}
	}

	if fc.Keywords != nil {
		if fc.ExtendDefaults {
			cfg.Keywords = append(cfg.Keywords, fc.Keywords...)
		} else {
			cfg.Keywords = fc.Keywords
		}
	}

	return New(cfg)
}
