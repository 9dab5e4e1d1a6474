package model

import "time"

// Merchant is a known merchant record used as classification evidence.
type Merchant struct {
	CreatedAt       time.Time `json:"created_at" yaml:"-"`
	ID              string    `json:"merchant_id" yaml:"merchant_id"`
	DisplayName     string    `json:"display_name" yaml:"display_name"`
	DefaultCategory string    `json:"default_category,omitempty" yaml:"default_category,omitempty"`
	Aliases         []string  `json:"aliases" yaml:"aliases"`
	TypicalMCCs     []string  `json:"typical_mccs" yaml:"typical_mccs"`
}

// CategoryOrUncategorized returns the merchant's default category, or
// Uncategorized when the merchant has none.
func (m *Merchant) CategoryOrUncategorized() string {
	if m == nil || m.DefaultCategory == "" {
		return Uncategorized
	}
	return m.DefaultCategory
}

// Names returns the display name followed by every alias.
func (m *Merchant) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.Aliases)+1)
	names = append(names, m.DisplayName)
	names = append(names, m.Aliases...)
	return names
}
