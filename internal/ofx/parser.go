// Package ofx converts OFX/QFX bank and credit card statements into stored
// transactions that later classification requests can be backfilled from.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spicecat/internal/classify"
	"github.com/Veraticus/spicecat/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags missing their closing bracket in SGML-style files.
	unclosedTagRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Channels derived from the OFX transaction type.
var channelsByType = map[string]string{
	"ATM":         "atm",
	"POS":         "pos",
	"CHECK":       "check",
	"XFER":        "transfer",
	"DIRECTDEBIT": "ach",
	"DIRECTDEP":   "ach",
	"FEE":         "fee",
	"SRVCHG":      "fee",
}

// Parser converts OFX documents into transactions.
type Parser struct {
	userID string
}

// NewParser creates a parser that stamps every transaction with userID.
func NewParser(userID string) *Parser {
	return &Parser{userID: userID}
}

func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTagRegex.ReplaceAllString(content, "$1>")
}

func parseResponse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX document and returns its transactions.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	resp, err := parseResponse(reader)
	if err != nil {
		return nil, err
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		for _, ofxTx := range stmt.BankTranList.Transactions {
			txn, err := p.convert(ofxTx, string(stmt.BankAcctFrom.AcctID), currencyCode(stmt.CurDef))
			if err != nil {
				slog.Warn("Skipping bank transaction", "account", stmt.BankAcctFrom.AcctID, "error", err)
				continue
			}
			transactions = append(transactions, txn)
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		for _, ofxTx := range stmt.BankTranList.Transactions {
			txn, err := p.convert(ofxTx, string(stmt.CCAcctFrom.AcctID), currencyCode(stmt.CurDef))
			if err != nil {
				slog.Warn("Skipping credit card transaction", "account", stmt.CCAcctFrom.AcctID, "error", err)
				continue
			}
			transactions = append(transactions, txn)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

func currencyCode(symbol ofxgo.CurrSymbol) string {
	code := symbol.String()
	if code == "XXX" {
		return ""
	}
	return code
}

// convert maps an OFX transaction onto the stored model. Debits are negative
// in OFX; stored amounts are magnitudes.
func (p *Parser) convert(ofxTx ofxgo.Transaction, accountID, currency string) (model.Transaction, error) {
	raw := ofxTx.TrnAmt.FloatString(8)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: invalid amount %q: %w", ofxTx.FiTID, raw, err)
	}

	description := extractDescription(ofxTx)
	trnType := ofxTx.TrnType.String()

	return model.Transaction{
		ID:                    string(ofxTx.FiTID),
		UserID:                p.userID,
		PostedAt:              ofxTx.DtPosted.Time,
		Amount:                amount.Abs(),
		Currency:              currency,
		RawDescription:        description,
		NormalizedDescription: classify.Normalize(description),
		Channel:               channelsByType[trnType],
		AccountID:             accountID,
	}, nil
}

// extractDescription picks the most informative description field and strips
// bank-added prefixes.
func extractDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading MM/DD dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// Accounts returns the distinct account ids in an OFX document.
func (p *Parser) Accounts(reader io.Reader) ([]string, error) {
	resp, err := parseResponse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			accounts = append(accounts, id)
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			add(string(stmt.BankAcctFrom.AcctID))
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			add(string(stmt.CCAcctFrom.AcctID))
		}
	}
	return accounts, nil
}
