package classify

import (
	"fmt"
	"maps"
	"reflect"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spicecat/internal/model"
)

// needsBackfill reports whether any optional field of req is absent.
func needsBackfill(req model.ClassificationRequest) bool {
	return req.UserID == "" ||
		req.MerchantID == "" ||
		req.PostedAt == nil ||
		!req.Amount.Valid ||
		req.Currency == "" ||
		req.RawDescription == "" ||
		req.MCC == "" ||
		req.Channel == "" ||
		len(req.Geo) == 0 ||
		req.AccountID == ""
}

// backfill fills every absent field of req from the stored transaction.
// Present fields are never overwritten.
func backfill(req model.ClassificationRequest, stored *model.Transaction) model.ClassificationRequest {
	if stored == nil {
		return req
	}

	fill(&req.UserID, stored.UserID)
	fill(&req.MerchantID, stored.MerchantID)
	fill(&req.Currency, stored.Currency)
	fill(&req.RawDescription, stored.RawDescription)
	fill(&req.MCC, stored.MCC)
	fill(&req.Channel, stored.Channel)
	fill(&req.AccountID, stored.AccountID)

	if req.PostedAt == nil && !stored.PostedAt.IsZero() {
		posted := stored.PostedAt
		req.PostedAt = &posted
	}
	if !req.Amount.Valid {
		req.Amount = decimal.NewNullDecimal(stored.Amount)
	}
	if len(req.Geo) == 0 && len(stored.Geo) > 0 {
		req.Geo = maps.Clone(stored.Geo)
	}
	return req
}

func fill(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

// strictMismatches lists every field the request provides that disagrees with
// the stored transaction. A missing stored transaction is itself a mismatch.
func strictMismatches(req model.ClassificationRequest, stored *model.Transaction) []string {
	if stored == nil {
		return []string{fmt.Sprintf("transaction not found: %s", req.ID)}
	}

	var out []string
	check := func(field string, provided bool, equal bool, reqValue, dbValue any) {
		if provided && !equal {
			out = append(out, fmt.Sprintf("attribute mismatch for %s: request=%v, db=%v", field, reqValue, dbValue))
		}
	}

	check("user_id", req.UserID != "", req.UserID == stored.UserID, req.UserID, stored.UserID)
	check("merchant_id", req.MerchantID != "", req.MerchantID == stored.MerchantID, req.MerchantID, stored.MerchantID)
	if req.PostedAt != nil {
		check("posted_at", true, req.PostedAt.Equal(stored.PostedAt), req.PostedAt.UTC(), stored.PostedAt.UTC())
	}
	check("amount", req.Amount.Valid, req.Amount.Decimal.Equal(stored.Amount), req.Amount.Decimal, stored.Amount)
	check("currency", req.Currency != "", req.Currency == stored.Currency, req.Currency, stored.Currency)
	check("raw_description", req.RawDescription != "", req.RawDescription == stored.RawDescription, req.RawDescription, stored.RawDescription)
	check("mcc", req.MCC != "", req.MCC == stored.MCC, req.MCC, stored.MCC)
	check("channel", req.Channel != "", req.Channel == stored.Channel, req.Channel, stored.Channel)
	check("geo", len(req.Geo) > 0, reflect.DeepEqual(req.Geo, stored.Geo), req.Geo, stored.Geo)
	check("account_id", req.AccountID != "", req.AccountID == stored.AccountID, req.AccountID, stored.AccountID)

	return out
}
