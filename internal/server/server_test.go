package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spicecat/internal/classify"
	"github.com/Veraticus/spicecat/internal/model"
	"github.com/Veraticus/spicecat/internal/storage"
	"github.com/Veraticus/spicecat/internal/testutil"
)

func newTestServer(t *testing.T, cfg classify.Config) (*httptest.Server, *storage.SQLiteStorage) {
	t.Helper()
	store := testutil.SetupTestDB(t, testutil.TestDBOptions{})
	engine := classify.NewWithConfig(nil, store, store, cfg)
	srv := httptest.NewServer(New(engine, store).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, classify.DefaultConfig())

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decodeBody[map[string]string](t, resp))
}

func TestClassifyBackfillsFromStore(t *testing.T) {
	srv, _ := newTestServer(t, classify.DefaultConfig())

	resp := post(t, srv.URL+"/classify", `{"id":"t3"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	result := decodeBody[model.ClassificationResult](t, resp)
	assert.Equal(t, "t3", result.TransactionID)
	assert.Equal(t, "Transport > Rideshare", result.Category)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	assert.Len(t, result.Why, 5)
	assert.Empty(t, result.Alternatives)
}

func TestClassifyNoEvidence(t *testing.T) {
	srv, _ := newTestServer(t, classify.DefaultConfig())

	resp := post(t, srv.URL+"/classify", `{"id":"unknown","raw_description":"qqq zzz"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[model.ClassificationResult](t, resp)
	assert.Equal(t, model.Uncategorized, result.Category)
	assert.InDelta(t, 0.5, result.Confidence, 1e-9)
	assert.Equal(t, []string{"No strong signals"}, result.Why)
}

func TestClassifyErrors(t *testing.T) {
	srv, _ := newTestServer(t, classify.Config{Workers: 2, MaxBulkSize: 3, Strict: true})

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "malformed json", path: "/classify", body: `{"id":`, wantStatus: http.StatusBadRequest, wantError: "invalid request: malformed JSON"},
		{name: "missing id", path: "/classify", body: `{"raw_description":"x"}`, wantStatus: http.StatusBadRequest, wantError: "invalid request: transaction id is required"},
		{name: "bad mcc", path: "/classify", body: `{"id":"t1","mcc":"41"}`, wantStatus: http.StatusBadRequest, wantError: "mcc must be 4 digits"},
		{name: "strict mismatch", path: "/classify", body: `{"id":"t1","mcc":"4121"}`, wantStatus: http.StatusBadRequest, wantError: "attribute mismatch for mcc"},
		{name: "strict missing", path: "/classify", body: `{"id":"nope"}`, wantStatus: http.StatusBadRequest, wantError: "transaction not found: nope"},
		{name: "empty bulk", path: "/classify/bulk", body: `[]`, wantStatus: http.StatusBadRequest, wantError: "between 1 and 3 items, got 0"},
		{name: "oversized bulk", path: "/classify/bulk", body: `[{"id":"t1"},{"id":"t2"},{"id":"t3"},{"id":"t4"}]`, wantStatus: http.StatusBadRequest, wantError: "got 4"},
		{name: "oversized stream", path: "/classify/bulk/stream", body: `[{"id":"t1"},{"id":"t2"},{"id":"t3"},{"id":"t4"}]`, wantStatus: http.StatusBadRequest, wantError: "got 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeBody[errorResponse](t, resp)
			assert.Contains(t, body.Error, tt.wantError)
		})
	}
}

type failingLookup struct{}

func (failingLookup) GetMerchant(context.Context, string) (*model.Merchant, error) {
	return nil, errors.New("connection reset by peer")
}

func (failingLookup) GetMerchantsByIDs(context.Context, []string) (map[string]*model.Merchant, error) {
	return nil, errors.New("connection reset by peer")
}

func TestClassifyLookupFaultIsGeneric(t *testing.T) {
	engine := classify.New(nil, failingLookup{}, nil)
	srv := httptest.NewServer(New(engine, nil).Handler())
	defer srv.Close()

	resp := post(t, srv.URL+"/classify", `{"id":"t1","merchant_id":"m_uber","raw_description":"UBER"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody[errorResponse](t, resp)
	assert.Equal(t, "classification failed", body.Error)
	assert.NotContains(t, body.Error, "connection reset")

	// Store endpoints are not mounted without a store.
	getResp, err := http.Get(srv.URL + "/merchants")
	require.NoError(t, err)
	defer func() { _ = getResp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestBulkPreservesOrder(t *testing.T) {
	srv, _ := newTestServer(t, classify.Config{Workers: 4, MaxBulkSize: 100})

	var b strings.Builder
	b.WriteString("[")
	for i, id := range []string{"t1", "t2", "t3", "", "t5", "t9"} {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"id":"` + id + `"}`)
	}
	b.WriteString("]")

	resp := post(t, srv.URL+"/classify/bulk", b.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := decodeBody[[]model.BulkItem](t, resp)
	require.Len(t, items, 6)
	for i, item := range items {
		assert.Equal(t, i, item.Index)
	}
	assert.Equal(t, "Shopping > Online Marketplace", items[0].Result.Category)
	assert.True(t, items[3].Failed())
	assert.Equal(t, "invalid request: transaction id is required", items[3].Error)
	assert.Equal(t, "Cash & ATM > Withdrawal", items[5].Result.Category)
}

func TestBulkStream(t *testing.T) {
	srv, _ := newTestServer(t, classify.Config{Workers: 3, MaxBulkSize: 100})

	resp := post(t, srv.URL+"/classify/bulk/stream", `[{"id":"t1"},{"id":"t2"},{"id":"t3"},{"id":"t4"}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	seen := make(map[int]bool)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var item model.BulkItem
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &item))
		assert.False(t, item.Failed())
		seen[item.Index] = true
	}
	require.NoError(t, scanner.Err())
	assert.Len(t, seen, 4)
}

func TestMerchantEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, classify.DefaultConfig())

	resp, err := http.Get(srv.URL + "/merchants")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Len(t, decodeBody[[]model.Merchant](t, resp), 9)

	created := post(t, srv.URL+"/merchants", `{"merchant_id":"m_lyft","display_name":"Lyft","aliases":["LYFT"],"typical_mccs":["4121"],"default_category":"Transport > Rideshare"}`)
	assert.Equal(t, http.StatusCreated, created.StatusCode)

	got, err := http.Get(srv.URL + "/merchants/m_lyft")
	require.NoError(t, err)
	defer func() { _ = got.Body.Close() }()
	require.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, []string{"LYFT"}, decodeBody[model.Merchant](t, got).Aliases)

	missing, err := http.Get(srv.URL + "/merchants/m_nope")
	require.NoError(t, err)
	defer func() { _ = missing.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	invalid := post(t, srv.URL+"/merchants", `{"merchant_id":"m_x"}`)
	assert.Equal(t, http.StatusBadRequest, invalid.StatusCode)
}

func TestTransactionEndpoints(t *testing.T) {
	srv, store := newTestServer(t, classify.DefaultConfig())

	resp := post(t, srv.URL+"/transactions", `[{"id":"t100","merchant_id":"m_lyft","raw_description":"LYFT *RIDE","amount":"12.40","currency":"USD"}]`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, map[string]int{"saved": 1}, decodeBody[map[string]int](t, resp))

	stored, err := store.GetTransaction(context.Background(), "t100")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "lyft ride", stored.NormalizedDescription)

	got, err := http.Get(srv.URL + "/transactions/t100")
	require.NoError(t, err)
	defer func() { _ = got.Body.Close() }()
	require.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "LYFT *RIDE", decodeBody[model.ClassificationRequest](t, got).RawDescription)

	bad := post(t, srv.URL+"/transactions", `[{"id":"t101","currency":"DOLLARS"}]`)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}
