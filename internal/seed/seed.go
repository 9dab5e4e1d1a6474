// Package seed provides the demo merchant catalogue and sample transactions,
// and loads merchant catalogues from YAML.
package seed

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/spicecat/internal/model"
)

// Demo data constants.
const (
	UncategorizedMerchantID = "m_uncategorized"
	DemoUserID              = "user_42"
	DemoCurrency            = "INR"
)

// Store is the persistence needed to apply seed data.
type Store interface {
	SaveMerchants(ctx context.Context, merchants []model.Merchant) error
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
}

// Merchants returns the demo merchant catalogue, including the fallback
// merchant used for transactions no other merchant claims.
func Merchants() []model.Merchant {
	return []model.Merchant{
		{ID: "m_amazon", DisplayName: "Amazon", Aliases: []string{"AMZN", "Amazon Mktp", "AMAZON.COM"}, TypicalMCCs: []string{"5942", "4899"}, DefaultCategory: "Shopping > Online Marketplace"},
		{ID: "m_starbucks", DisplayName: "Starbucks", Aliases: []string{"STARBUCKS", "SBX", "STARBUCKS STORE"}, TypicalMCCs: []string{"5814", "5811"}, DefaultCategory: "Food & Drink > Coffee Shop"},
		{ID: "m_uber", DisplayName: "Uber", Aliases: []string{"UBER", "UBER TRIP"}, TypicalMCCs: []string{"4121"}, DefaultCategory: "Transport > Rideshare"},
		{ID: "m_mcd", DisplayName: "McDonalds", Aliases: []string{"MCDONALDS", "MCD"}, TypicalMCCs: []string{"5814"}, DefaultCategory: "Food & Drink > Fast Food"},
		{ID: "m_netflix", DisplayName: "Netflix", Aliases: []string{"NETFLIX"}, TypicalMCCs: []string{"7841", "4899"}, DefaultCategory: "Subscriptions > Streaming"},
		{ID: "m_airbnb", DisplayName: "Airbnb", Aliases: []string{"AIRBNB"}, TypicalMCCs: []string{"6513"}, DefaultCategory: "Travel > Short-term Rental"},
		{ID: "m_cvs", DisplayName: "CVS Pharmacy", Aliases: []string{"CVS", "CVS PHARMACY"}, TypicalMCCs: []string{"5912"}, DefaultCategory: "Healthcare > Pharmacy"},
		{ID: "m_att", DisplayName: "AT&T", Aliases: []string{"AT&T", "ATT WIRELESS"}, TypicalMCCs: []string{"4814"}, DefaultCategory: "Bills & Utilities > Internet/Mobile"},
		{ID: UncategorizedMerchantID, DisplayName: "Uncategorized", Aliases: []string{}, TypicalMCCs: []string{}, DefaultCategory: model.Uncategorized},
	}
}

type sample struct {
	id          string
	description string
	amount      string
	mcc         string
}

var samples = []sample{
	{"t1", "AMZN Mktp purchase", "120.50", "5942"},
	{"t2", "STARBUCKS STORE #123", "6.75", "5811"},
	{"t3", "UBER*TRIP 987654", "18.20", "4121"},
	{"t4", "MCDONALDS #5555", "9.99", "5814"},
	{"t5", "NETFLIX.COM Monthly Subscription", "15.49", "7841"},
	{"t6", "AIRBNB PAYMENTS PARIS", "250.00", "6513"},
	{"t7", "CVS PHARMACY #1200", "32.40", "5912"},
	{"t8", "AT&T Wireless Bill", "89.99", "4814"},
	{"t9", "ATM Withdrawal - NYC", "200.00", "6011"},
	{"t10", "Spotify Subscription", "9.99", "4899"},
	{"t11", "Electricity Bill Payment", "120.00", "4900"},
	{"t12", "Internal Transfer", "500.00", "4829"},
	{"t13", "Bank Fee", "2.50", "6012"},
	{"t14", "Pharmacy POS", "25.00", "5912"},
	{"t15", "Water Bill Payment", "45.00", "4931"},
	{"t16", "NETFLIX Subscription Shopping", "15.49", "5942"},
	{"t17", "UBER TRIP Fast Food", "18.20", "5814"},
	{"t18", "STARBUCKS STORE #123 Fast Food", "6.75", "5814"},
}

// Transactions returns the demo transactions posted at postedAt. Each is
// assigned to the first merchant whose alias appears in its description or
// whose typical MCCs include its MCC.
func Transactions(postedAt time.Time) []model.Transaction {
	merchants := Merchants()
	txns := make([]model.Transaction, 0, len(samples))
	for _, s := range samples {
		txns = append(txns, model.Transaction{
			ID:             s.id,
			UserID:         DemoUserID,
			MerchantID:     AssignMerchant(merchants, s.description, s.mcc),
			PostedAt:       postedAt,
			Amount:         decimal.RequireFromString(s.amount),
			Currency:       DemoCurrency,
			RawDescription: s.description,
			MCC:            s.mcc,
			Geo:            map[string]any{},
		})
	}
	return txns
}

// AssignMerchant picks the merchant for a description and MCC, falling back
// to the uncategorized merchant.
func AssignMerchant(merchants []model.Merchant, description, mcc string) string {
	lower := strings.ToLower(description)
	for _, m := range merchants {
		for _, alias := range m.Aliases {
			if strings.Contains(lower, strings.ToLower(alias)) {
				return m.ID
			}
		}
		for _, code := range m.TypicalMCCs {
			if mcc != "" && code == mcc {
				return m.ID
			}
		}
	}
	return UncategorizedMerchantID
}

// Apply stores the demo merchants and transactions. Existing rows with the
// same ids are overwritten.
func Apply(ctx context.Context, store Store, postedAt time.Time) error {
	if err := store.SaveMerchants(ctx, Merchants()); err != nil {
		return fmt.Errorf("failed to seed merchants: %w", err)
	}
	if err := store.SaveTransactions(ctx, Transactions(postedAt)); err != nil {
		return fmt.Errorf("failed to seed transactions: %w", err)
	}
	return nil
}

type catalogue struct {
	Merchants []model.Merchant `yaml:"merchants"`
}

// LoadMerchants decodes a YAML merchant catalogue of the form
// `merchants: [{merchant_id, display_name, aliases, typical_mccs, default_category}]`.
func LoadMerchants(r io.Reader) ([]model.Merchant, error) {
	var c catalogue
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("merchant catalogue is empty")
		}
		return nil, fmt.Errorf("failed to parse merchant catalogue: %w", err)
	}

	seen := make(map[string]bool, len(c.Merchants))
	for i := range c.Merchants {
		m := &c.Merchants[i]
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return nil, fmt.Errorf("merchant %d: merchant_id is required", i)
		}
		if m.DisplayName == "" {
			return nil, fmt.Errorf("merchant %s: display_name is required", m.ID)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("merchant %s: duplicate merchant_id", m.ID)
		}
		seen[m.ID] = true
		if m.Aliases == nil {
			m.Aliases = []string{}
		}
		if m.TypicalMCCs == nil {
			m.TypicalMCCs = []string{}
		}
	}
	return c.Merchants, nil
}
