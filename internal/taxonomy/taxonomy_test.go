package taxonomy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	rs := Default()

	assert.Equal(t, Weights{Merchant: 0.6, Semantic: 0.2, Rule: 0.2}, rs.Weights())
	assert.InDelta(t, 0.8, rs.SemanticThreshold(), 1e-9)
	assert.Equal(t, "*", rs.NoiseChars())
	assert.Equal(t, 29, rs.MCCCount())
	assert.GreaterOrEqual(t, rs.KeywordCount(), 35)

	category, ok := rs.LookupMCC("5811")
	require.True(t, ok)
	assert.Equal(t, "Food & Drink > Coffee Shop", category)

	_, ok = rs.LookupMCC("0000")
	assert.False(t, ok)
}

func TestRuleSet_MatchKeywords(t *testing.T) {
	rs := Default()

	tests := []struct {
		name        string
		description string
		want        []string
	}{
		{
			name:        "single keyword",
			description: "starbucks store #123",
			want:        []string{"starbucks"},
		},
		{
			name:        "multiple keywords fire in rule order",
			description: "interest charge",
			want:        []string{"charge", "interest charge"},
		},
		{
			name:        "no match",
			description: "random store xyz",
			want:        nil,
		},
		{
			name:        "empty description",
			description: "",
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := rs.MatchKeywords(tt.description)
			var got []string
			for _, rule := range matched {
				got = append(got, rule.Keyword)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_CopiesConfig(t *testing.T) {
	cfg := DefaultConfig()
	rs, err := New(cfg)
	require.NoError(t, err)

	cfg.MCC["5811"] = "Changed"
	cfg.Keywords[0].Category = "Changed"

	category, ok := rs.LookupMCC("5811")
	require.True(t, ok)
	assert.Equal(t, "Food & Drink > Coffee Shop", category)
	assert.Equal(t, "Transport > Rideshare", rs.MatchKeywords("uber")[0].Category)
}

func TestNew_LowercasesKeywordsAndFillsReason(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Keywords = []KeywordRule{{Keyword: "WHOLE FOODS", Category: "Food & Drink > Grocery"}}

	rs, err := New(cfg)
	require.NoError(t, err)

	matched := rs.MatchKeywords("whole foods market")
	require.Len(t, matched, 1)
	assert.Equal(t, "whole foods", matched[0].Keyword)
	assert.Equal(t, "Keyword rule: 'whole foods'", matched[0].Reason)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(*Config)
		name    string
		wantErr bool
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{name: "negative weight", mutate: func(c *Config) { c.Weights.Merchant = -0.1 }, wantErr: true},
		{name: "weight above one", mutate: func(c *Config) { c.Weights.Rule = 1.5 }, wantErr: true},
		{name: "zero threshold", mutate: func(c *Config) { c.SemanticThreshold = 0 }, wantErr: true},
		{name: "NaN weight", mutate: func(c *Config) { c.Weights.Semantic = math.NaN() }, wantErr: true},
		{name: "NaN threshold", mutate: func(c *Config) { c.SemanticThreshold = math.NaN() }, wantErr: true},
		{name: "bad mcc code", mutate: func(c *Config) { c.MCC["58A1"] = "Food" }, wantErr: true},
		{name: "mcc without category", mutate: func(c *Config) { c.MCC["1234"] = " " }, wantErr: true},
		{
			name:    "keyword without category",
			mutate:  func(c *Config) { c.Keywords = append(c.Keywords, KeywordRule{Keyword: "foo"}) },
			wantErr: true,
		},
		{
			name:    "empty keyword",
			mutate:  func(c *Config) { c.Keywords = append(c.Keywords, KeywordRule{Category: "Foo"}) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRules)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("replaces sections", func(t *testing.T) {
		rs, err := Parse([]byte(`
weights:
  merchant: 0.5
  semantic: 0.3
  rule: 0.2
mcc:
  "5999": "Shopping > Misc"
keywords:
  - keyword: costco
    category: "Shopping > Warehouse"
    reason: "Keyword rule: 'costco'"
`))
		require.NoError(t, err)

		assert.Equal(t, Weights{Merchant: 0.5, Semantic: 0.3, Rule: 0.2}, rs.Weights())
		assert.Equal(t, 1, rs.MCCCount())
		assert.Equal(t, 1, rs.KeywordCount())
		assert.InDelta(t, DefaultSemanticThreshold, rs.SemanticThreshold(), 1e-9)
		assert.Equal(t, DefaultNoiseChars, rs.NoiseChars())
	})

	t.Run("extends defaults", func(t *testing.T) {
		rs, err := Parse([]byte(`
extend_defaults: true
noise_chars: "*#"
mcc:
  "5999": "Shopping > Misc"
keywords:
  - keyword: costco
    category: "Shopping > Warehouse"
`))
		require.NoError(t, err)

		assert.Equal(t, Default().MCCCount()+1, rs.MCCCount())
		assert.Equal(t, Default().KeywordCount()+1, rs.KeywordCount())
		assert.Equal(t, "*#", rs.NoiseChars())

		_, ok := rs.LookupMCC("5811")
		assert.True(t, ok)
	})

	t.Run("rejects invalid rules", func(t *testing.T) {
		_, err := Parse([]byte(`semantic_threshold: 2`))
		assert.ErrorIs(t, err, ErrInvalidRules)
	})

	t.Run("rejects NaN from yaml", func(t *testing.T) {
		_, err := Parse([]byte(`
weights:
  merchant: .nan
  semantic: 0.3
  rule: 0.2
`))
		assert.ErrorIs(t, err, ErrInvalidRules)

		_, err = Parse([]byte(`semantic_threshold: .NaN`))
		assert.ErrorIs(t, err, ErrInvalidRules)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("weights: ["))
		assert.Error(t, err)
	})
}
