// Package taxonomy holds the static rule tables used to classify transactions:
// signal weights, the merchant-category-code map and the ordered keyword rules.
package taxonomy

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Default weights and thresholds.
const (
	DefaultMerchantWeight    = 0.6
	DefaultSemanticWeight    = 0.2
	DefaultRuleWeight        = 0.2
	DefaultSemanticThreshold = 0.8
	DefaultNoiseChars        = "*"
)

// ErrInvalidRules is returned when a rule configuration fails validation.
var ErrInvalidRules = errors.New("invalid rule configuration")

var mccPattern = regexp.MustCompile(`^[0-9]{4}$`)

// Weights scales the contribution of each signal family.
type Weights struct {
	Merchant float64 `yaml:"merchant"`
	Semantic float64 `yaml:"semantic"`
	Rule     float64 `yaml:"rule"`
}

// KeywordRule maps a keyword found in a normalized description to a category.
type KeywordRule struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
	Reason   string `yaml:"reason"`
}

// Config is the mutable description of a rule set. It is turned into an
// immutable RuleSet by New.
type Config struct {
	MCC               map[string]string `yaml:"mcc"`
	NoiseChars        string            `yaml:"noise_chars"`
	Keywords          []KeywordRule     `yaml:"keywords"`
	Weights           Weights           `yaml:"weights"`
	SemanticThreshold float64           `yaml:"semantic_threshold"`
}

// RuleSet is the read-only rule configuration shared by every classification.
// It is safe for concurrent use.
type RuleSet struct {
	mcc               map[string]string
	noiseChars        string
	keywords          []KeywordRule
	weights           Weights
	semanticThreshold float64
}

// New validates cfg and builds a RuleSet from a private copy of it.
func New(cfg Config) (*RuleSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mcc := make(map[string]string, len(cfg.MCC))
	for code, category := range cfg.MCC {
		mcc[code] = category
	}

	keywords := make([]KeywordRule, len(cfg.Keywords))
	for i, rule := range cfg.Keywords {
		keywords[i] = KeywordRule{
			Keyword:  strings.ToLower(rule.Keyword),
			Category: rule.Category,
			Reason:   rule.Reason,
		}
		if keywords[i].Reason == "" {
			keywords[i].Reason = fmt.Sprintf("Keyword rule: '%s'", keywords[i].Keyword)
		}
	}

	return &RuleSet{
		weights:           cfg.Weights,
		semanticThreshold: cfg.SemanticThreshold,
		noiseChars:        cfg.NoiseChars,
		mcc:               mcc,
		keywords:          keywords,
	}, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config) *RuleSet {
	rs, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return rs
}

// Validate checks that the configuration can be used for classification.
func (c *Config) Validate() error {
	for name, w := range map[string]float64{
		"merchant": c.Weights.Merchant,
		"semantic": c.Weights.Semantic,
		"rule":     c.Weights.Rule,
	} {
		if !(w >= 0 && w <= 1) {
			return fmt.Errorf("%w: %s weight must be between 0 and 1, got %.2f", ErrInvalidRules, name, w)
		}
	}

	if t := c.SemanticThreshold; !(t > 0 && t <= 1) {
		return fmt.Errorf("%w: semantic threshold must be in (0, 1], got %.2f", ErrInvalidRules, c.SemanticThreshold)
	}

	for code, category := range c.MCC {
		if !mccPattern.MatchString(code) {
			return fmt.Errorf("%w: MCC %q must be four digits", ErrInvalidRules, code)
		}
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("%w: MCC %s has no category", ErrInvalidRules, code)
		}
	}

	for i, rule := range c.Keywords {
		if strings.TrimSpace(rule.Keyword) == "" {
			return fmt.Errorf("%w: keyword rule %d has no keyword", ErrInvalidRules, i)
		}
		if strings.TrimSpace(rule.Category) == "" {
			return fmt.Errorf("%w: keyword rule %q has no category", ErrInvalidRules, rule.Keyword)
		}
	}

	return nil
}

// Weights returns the signal weights.
func (r *RuleSet) Weights() Weights {
	return r.weights
}

// SemanticThreshold returns the minimum similarity for a semantic signal.
func (r *RuleSet) SemanticThreshold() float64 {
	return r.semanticThreshold
}

// NoiseChars returns the characters the normalizer replaces with spaces.
func (r *RuleSet) NoiseChars() string {
	return r.noiseChars
}

// LookupMCC returns the category mapped to a merchant category code.
func (r *RuleSet) LookupMCC(code string) (string, bool) {
	category, ok := r.mcc[code]
	return category, ok
}

// MatchKeywords returns, in rule order, every keyword rule whose keyword
// occurs in the normalized description.
func (r *RuleSet) MatchKeywords(normalized string) []KeywordRule {
	if normalized == "" {
		return nil
	}
	var matched []KeywordRule
	for _, rule := range r.keywords {
		if strings.Contains(normalized, rule.Keyword) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// MCCCount returns the number of entries in the MCC table.
func (r *RuleSet) MCCCount() int {
	return len(r.mcc)
}

// KeywordCount returns the number of keyword rules.
func (r *RuleSet) KeywordCount() int {
	return len(r.keywords)
}
