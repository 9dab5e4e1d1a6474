package classify

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spicecat/internal/model"
	"github.com/Veraticus/spicecat/internal/taxonomy"
)

// Rule-family multipliers applied on top of the rule weight.
const (
	mccFactor     = 0.8
	keywordFactor = 0.7
)

// Source identifies which generator emitted a signal.
type Source string

// Signal sources, in evaluation order.
const (
	SourceMerchant Source = "merchant"
	SourceSemantic Source = "semantic"
	SourceMCC      Source = "mcc"
	SourceKeyword  Source = "keyword"
)

// Signal is one piece of evidence for a category.
type Signal struct {
	Category string
	Reason   string
	Source   Source
	Weight   float64
}

// merchantSignals emits evidence from the merchant record. The default
// category match and each alias match are evaluated independently, so a
// merchant can contribute several signals to the same category.
func merchantSignals(normalized string, merchant *model.Merchant, rules *taxonomy.RuleSet) []Signal {
	if merchant == nil || normalized == "" {
		return nil
	}

	weight := rules.Weights().Merchant
	noise := rules.NoiseChars()
	var signals []Signal

	if merchant.DefaultCategory != "" {
		folded := NormalizeWith(merchant.DefaultCategory, noise)
		if folded != "" && strings.Contains(normalized, folded) {
			signals = append(signals, Signal{
				Category: merchant.DefaultCategory,
				Weight:   weight,
				Reason:   fmt.Sprintf("Default category from merchant: %s", merchant.DefaultCategory),
				Source:   SourceMerchant,
			})
		}
	}

	category := merchant.CategoryOrUncategorized()
	for _, alias := range merchant.Aliases {
		folded := NormalizeWith(alias, noise)
		if folded == "" || !strings.Contains(normalized, folded) {
			continue
		}
		signals = append(signals, Signal{
			Category: category,
			Weight:   weight,
			Reason:   fmt.Sprintf("Matched alias '%s' → %s", alias, merchant.DisplayName),
			Source:   SourceMerchant,
		})
	}

	return signals
}

func semanticSignal(normalized string, merchant *model.Merchant, rules *taxonomy.RuleSet) (Signal, bool) {
	if merchant == nil {
		return Signal{}, false
	}

	name, score := bestCandidate(normalized, merchant.Names(), rules.NoiseChars())
	if name == "" || score < rules.SemanticThreshold() {
		return Signal{}, false
	}

	return Signal{
		Category: merchant.CategoryOrUncategorized(),
		Weight:   score * rules.Weights().Semantic,
		Reason:   fmt.Sprintf("Semantic similarity %.2f with '%s'", score, name),
		Source:   SourceSemantic,
	}, true
}

func mccSignal(mcc string, rules *taxonomy.RuleSet) (Signal, bool) {
	if mcc == "" {
		return Signal{}, false
	}
	category, ok := rules.LookupMCC(mcc)
	if !ok {
		return Signal{}, false
	}
	return Signal{
		Category: category,
		Weight:   mccFactor * rules.Weights().Rule,
		Reason:   fmt.Sprintf("MCC %s aligns with %s", mcc, category),
		Source:   SourceMCC,
	}, true
}

func keywordSignals(normalized string, rules *taxonomy.RuleSet) []Signal {
	matched := rules.MatchKeywords(normalized)
	if len(matched) == 0 {
		return nil
	}
	weight := keywordFactor * rules.Weights().Rule
	signals := make([]Signal, 0, len(matched))
	for _, rule := range matched {
		signals = append(signals, Signal{
			Category: rule.Category,
			Weight:   weight,
			Reason:   rule.Reason,
			Source:   SourceKeyword,
		})
	}
	return signals
}

// Signals runs every generator against an already backfilled request and
// returns their output in evaluation order: merchant, semantic, MCC, keyword.
func Signals(req model.ClassificationRequest, merchant *model.Merchant, rules *taxonomy.RuleSet) []Signal {
	normalized := NormalizeWith(req.RawDescription, rules.NoiseChars())

	signals := merchantSignals(normalized, merchant, rules)
	if s, ok := semanticSignal(normalized, merchant, rules); ok {
		signals = append(signals, s)
	}
	if s, ok := mccSignal(req.MCC, rules); ok {
		signals = append(signals, s)
	}
	return append(signals, keywordSignals(normalized, rules)...)
}
