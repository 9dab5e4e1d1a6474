package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spicecat/internal/model"
)

// maxIDsPerQuery keeps IN clauses under SQLite's bound parameter limit.
const maxIDsPerQuery = 500

const transactionColumns = `
	id, user_id, merchant_id, posted_at, amount, currency,
	raw_description, normalized_description, mcc, channel, geo,
	account_id, created_at`

// SaveTransactions inserts or replaces transactions in one database
// transaction.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				user_id = excluded.user_id,
				merchant_id = excluded.merchant_id,
				posted_at = excluded.posted_at,
				amount = excluded.amount,
				currency = excluded.currency,
				raw_description = excluded.raw_description,
				normalized_description = excluded.normalized_description,
				mcc = excluded.mcc,
				channel = excluded.channel,
				geo = excluded.geo,
				account_id = excluded.account_id
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		now := time.Now().UTC()
		for i := range transactions {
			txn := &transactions[i]
			if txn.CreatedAt.IsZero() {
				txn.CreatedAt = now
			}

			geo, err := json.Marshal(txn.Geo)
			if err != nil {
				return fmt.Errorf("failed to encode geo for transaction %s: %w", txn.ID, err)
			}
			if txn.Geo == nil {
				geo = []byte("{}")
			}

			var posted any
			if !txn.PostedAt.IsZero() {
				posted = txn.PostedAt.UTC()
			}

			if _, err := stmt.ExecContext(ctx,
				txn.ID, txn.UserID, txn.MerchantID, posted, txn.Amount.String(), txn.Currency,
				txn.RawDescription, txn.NormalizedDescription, txn.MCC, txn.Channel, string(geo),
				txn.AccountID, txn.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
			}
		}
		return nil
	})
}

// GetTransaction retrieves a stored transaction. A missing transaction is
// (nil, nil).
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactionsByIDs retrieves every stored transaction among ids, keyed by
// id. Missing ids are absent from the result.
func (s *SQLiteStorage) GetTransactionsByIDs(ctx context.Context, ids []string) (map[string]*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	result := make(map[string]*model.Transaction, len(ids))
	for start := 0; start < len(ids); start += maxIDsPerQuery {
		chunk := ids[start:min(start+maxIDsPerQuery, len(ids))]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := s.db.QueryContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query transactions: %w", err)
		}
		if err := collectTransactions(rows, func(txn *model.Transaction) { result[txn.ID] = txn }); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ListTransactions returns stored transactions ordered by posting date,
// newest first. A non-positive limit returns all of them.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY posted_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	var transactions []model.Transaction
	err = collectTransactions(rows, func(txn *model.Transaction) { transactions = append(transactions, *txn) })
	return transactions, err
}

func collectTransactions(rows *sql.Rows, yield func(*model.Transaction)) error {
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return fmt.Errorf("failed to scan transaction: %w", err)
		}
		yield(txn)
	}
	return rows.Err()
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var (
		txn       model.Transaction
		postedAt  sql.NullTime
		createdAt sql.NullTime
		amount    string
		geo       string
	)
	if err := row.Scan(
		&txn.ID, &txn.UserID, &txn.MerchantID, &postedAt, &amount, &txn.Currency,
		&txn.RawDescription, &txn.NormalizedDescription, &txn.MCC, &txn.Channel, &geo,
		&txn.AccountID, &createdAt,
	); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q for transaction %s: %w", amount, txn.ID, err)
	}
	txn.Amount = parsed

	if geo != "" && geo != "{}" && geo != "null" {
		if err := json.Unmarshal([]byte(geo), &txn.Geo); err != nil {
			return nil, fmt.Errorf("failed to decode geo for transaction %s: %w", txn.ID, err)
		}
	}
	if postedAt.Valid {
		txn.PostedAt = postedAt.Time
	}
	if createdAt.Valid {
		txn.CreatedAt = createdAt.Time
	}
	return &txn, nil
}
