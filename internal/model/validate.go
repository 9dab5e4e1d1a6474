package model

import "fmt"

// Validate ensures the result has valid data.
func (r *ClassificationResult) Validate() error {
	if r.TransactionID == "" {
		return fmt.Errorf("transaction ID is required")
	}

	if r.Category == "" {
		return fmt.Errorf("category name is required")
	}

	if r.Confidence < 0.0 || r.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %.2f", r.Confidence)
	}

	if len(r.Why) == 0 {
		return fmt.Errorf("at least one reason is required")
	}

	seen := map[string]bool{r.Category: true}
	for i, alt := range r.Alternatives {
		if alt.Category == "" {
			return fmt.Errorf("invalid alternative at index %d: category name is required", i)
		}
		if alt.Confidence < 0.0 || alt.Confidence > 1.0 {
			return fmt.Errorf("invalid alternative at index %d: confidence must be between 0.0 and 1.0, got %.2f", i, alt.Confidence)
		}
		if seen[alt.Category] {
			return fmt.Errorf("duplicate category %q in alternatives", alt.Category)
		}
		seen[alt.Category] = true
	}

	return nil
}
