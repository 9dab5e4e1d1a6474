package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/spicecat/internal/common"
	"github.com/Veraticus/spicecat/internal/model"
)

// GetMerchant retrieves a merchant by id. A missing merchant is (nil, nil).
func (s *SQLiteStorage) GetMerchant(ctx context.Context, id string) (*model.Merchant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	if merchant := s.getCachedMerchant(id); merchant != nil {
		return cloneMerchant(merchant), nil
	}

	merchant, err := s.getMerchantTx(ctx, s.db, id)
	if err != nil || merchant == nil {
		return nil, err
	}
	s.cacheMerchant(merchant)
	return cloneMerchant(merchant), nil
}

func (s *SQLiteStorage) getMerchantTx(ctx context.Context, q queryable, id string) (*model.Merchant, error) {
	row := q.QueryRowContext(ctx, `
		SELECT merchant_id, display_name, default_category, aliases, typical_mccs, created_at
		FROM merchants
		WHERE merchant_id = ?
	`, id)

	merchant, err := scanMerchant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return merchant, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMerchant(row scanner) (*model.Merchant, error) {
	var (
		merchant    model.Merchant
		aliases     string
		typicalMCCs string
		createdAt   sql.NullTime
	)
	if err := row.Scan(
		&merchant.ID,
		&merchant.DisplayName,
		&merchant.DefaultCategory,
		&aliases,
		&typicalMCCs,
		&createdAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(aliases), &merchant.Aliases); err != nil {
		return nil, fmt.Errorf("failed to decode aliases for merchant %s: %w", merchant.ID, err)
	}
	if err := json.Unmarshal([]byte(typicalMCCs), &merchant.TypicalMCCs); err != nil {
		return nil, fmt.Errorf("failed to decode typical MCCs for merchant %s: %w", merchant.ID, err)
	}
	if createdAt.Valid {
		merchant.CreatedAt = createdAt.Time
	}
	return &merchant, nil
}

// SaveMerchant inserts or replaces a merchant.
func (s *SQLiteStorage) SaveMerchant(ctx context.Context, merchant *model.Merchant) error {
	if err := validateMerchant(merchant); err != nil {
		return err
	}
	return s.SaveMerchants(ctx, []model.Merchant{*merchant})
}

// SaveMerchants inserts or replaces merchants in one transaction.
func (s *SQLiteStorage) SaveMerchants(ctx context.Context, merchants []model.Merchant) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(merchants) == 0 {
		return fmt.Errorf("%w: merchants", ErrEmptySlice)
	}
	for i := range merchants {
		if err := validateMerchant(&merchants[i]); err != nil {
			return fmt.Errorf("merchant at index %d: %w", i, err)
		}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range merchants {
			if err := saveMerchantTx(ctx, tx, &merchants[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateMerchants(merchants)
	return nil
}

func saveMerchantTx(ctx context.Context, q queryable, merchant *model.Merchant) error {
	if merchant.CreatedAt.IsZero() {
		merchant.CreatedAt = time.Now().UTC()
	}

	aliases, err := json.Marshal(nonNil(merchant.Aliases))
	if err != nil {
		return fmt.Errorf("failed to encode aliases: %w", err)
	}
	typicalMCCs, err := json.Marshal(nonNil(merchant.TypicalMCCs))
	if err != nil {
		return fmt.Errorf("failed to encode typical MCCs: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO merchants (merchant_id, display_name, default_category, aliases, typical_mccs, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(merchant_id) DO UPDATE SET
			display_name = excluded.display_name,
			default_category = excluded.default_category,
			aliases = excluded.aliases,
			typical_mccs = excluded.typical_mccs
	`, merchant.ID, merchant.DisplayName, merchant.DefaultCategory, string(aliases), string(typicalMCCs), merchant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save merchant %s: %w", merchant.ID, err)
	}
	return nil
}

// GetMerchantsByIDs retrieves every known merchant among ids, keyed by id.
// Cached merchants are served from the cache; the rest are read in chunked
// IN queries. Missing ids are absent from the result.
func (s *SQLiteStorage) GetMerchantsByIDs(ctx context.Context, ids []string) (map[string]*model.Merchant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	result := make(map[string]*model.Merchant, len(ids))
	var missing []string
	for _, id := range ids {
		if _, done := result[id]; done {
			continue
		}
		if merchant := s.getCachedMerchant(id); merchant != nil {
			result[id] = cloneMerchant(merchant)
			continue
		}
		missing = append(missing, id)
	}
	missing = slices.Compact(slices.Sorted(slices.Values(missing)))

	for start := 0; start < len(missing); start += maxIDsPerQuery {
		chunk := missing[start:min(start+maxIDsPerQuery, len(missing))]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := s.db.QueryContext(ctx, `
			SELECT merchant_id, display_name, default_category, aliases, typical_mccs, created_at
			FROM merchants
			WHERE merchant_id IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query merchants: %w", err)
		}
		err = func() error {
			defer func() { _ = rows.Close() }()
			for rows.Next() {
				merchant, err := scanMerchant(rows)
				if err != nil {
					return fmt.Errorf("failed to scan merchant: %w", err)
				}
				s.cacheMerchant(merchant)
				result[merchant.ID] = cloneMerchant(merchant)
			}
			return rows.Err()
		}()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ListMerchants returns every merchant ordered by id.
func (s *SQLiteStorage) ListMerchants(ctx context.Context) ([]model.Merchant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant_id, display_name, default_category, aliases, typical_mccs, created_at
		FROM merchants
		ORDER BY merchant_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var merchants []model.Merchant
	for rows.Next() {
		merchant, err := scanMerchant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan merchant: %w", err)
		}
		merchants = append(merchants, *merchant)
	}
	return merchants, rows.Err()
}

// DeleteMerchant removes a merchant.
func (s *SQLiteStorage) DeleteMerchant(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM merchants WHERE merchant_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete merchant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	s.cacheMutex.Lock()
	delete(s.merchantCache, id)
	s.cacheMutex.Unlock()
	return nil
}

// WarmMerchantCache loads every merchant into the cache.
func (s *SQLiteStorage) WarmMerchantCache(ctx context.Context) error {
	merchants, err := s.ListMerchants(ctx)
	if err != nil {
		return err
	}

	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.merchantCache = make(map[string]*model.Merchant, len(merchants))
	for i := range merchants {
		s.merchantCache[merchants[i].ID] = &merchants[i]
	}
	s.cacheExpiry = time.Now().Add(merchantCacheTTL)
	return nil
}

func (s *SQLiteStorage) getCachedMerchant(id string) *model.Merchant {
	s.cacheMutex.RLock()
	expired := time.Now().After(s.cacheExpiry)
	merchant := s.merchantCache[id]
	s.cacheMutex.RUnlock()

	if !expired {
		return merchant
	}

	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	// Double-check after acquiring the write lock.
	if time.Now().After(s.cacheExpiry) {
		s.merchantCache = make(map[string]*model.Merchant)
	}
	return nil
}

func (s *SQLiteStorage) cacheMerchant(merchant *model.Merchant) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if len(s.merchantCache) == 0 {
		s.cacheExpiry = time.Now().Add(merchantCacheTTL)
	}
	s.merchantCache[merchant.ID] = merchant
}

func (s *SQLiteStorage) invalidateMerchants(merchants []model.Merchant) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	for i := range merchants {
		delete(s.merchantCache, merchants[i].ID)
	}
}

func cloneMerchant(m *model.Merchant) *model.Merchant {
	out := *m
	out.Aliases = slices.Clone(m.Aliases)
	out.TypicalMCCs = slices.Clone(m.TypicalMCCs)
	return &out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
