package classify

import (
	"context"
	"errors"
	"sync"

	"github.com/Veraticus/spicecat/internal/model"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory MerchantLookup and TransactionLookup.
type memStore struct {
	merchants          map[string]*model.Merchant
	transactions       map[string]*model.Transaction
	failMerchants      map[string]bool
	panicOn            map[string]bool
	merchantCalls      map[string]int
	failBatch          bool
	panicStored        bool
	singleCalls        int
	batchCalls         int
	batchMerchantCalls int
	mu                 sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		merchants:     map[string]*model.Merchant{},
		transactions:  map[string]*model.Transaction{},
		failMerchants: map[string]bool{},
		panicOn:       map[string]bool{},
		merchantCalls: map[string]int{},
	}
}

func (s *memStore) addMerchant(m *model.Merchant) *memStore {
	s.merchants[m.ID] = m
	return s
}

func (s *memStore) addTransaction(t *model.Transaction) *memStore {
	s.transactions[t.ID] = t
	return s
}

func (s *memStore) GetMerchant(_ context.Context, id string) (*model.Merchant, error) {
	s.mu.Lock()
	s.merchantCalls[id]++
	s.mu.Unlock()

	if s.panicOn[id] {
		panic("corrupt merchant record")
	}
	if s.failMerchants[id] {
		return nil, errStoreDown
	}
	return s.merchants[id], nil
}

func (s *memStore) GetMerchantsByIDs(_ context.Context, ids []string) (map[string]*model.Merchant, error) {
	s.mu.Lock()
	s.batchMerchantCalls++
	s.mu.Unlock()

	out := make(map[string]*model.Merchant, len(ids))
	for _, id := range ids {
		if s.panicOn[id] {
			panic("corrupt merchant record")
		}
		if s.failMerchants[id] {
			return nil, errStoreDown
		}
		if m, ok := s.merchants[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (s *memStore) GetTransaction(_ context.Context, id string) (*model.Transaction, error) {
	s.mu.Lock()
	s.singleCalls++
	s.mu.Unlock()

	if s.panicStored {
		panic("corrupt transaction record")
	}
	return s.transactions[id], nil
}

func (s *memStore) GetTransactionsByIDs(_ context.Context, ids []string) (map[string]*model.Transaction, error) {
	s.mu.Lock()
	s.batchCalls++
	s.mu.Unlock()

	if s.failBatch {
		return nil, errStoreDown
	}
	out := make(map[string]*model.Transaction, len(ids))
	for _, id := range ids {
		if t, ok := s.transactions[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func uberMerchant() *model.Merchant {
	return &model.Merchant{
		ID:              "m_uber",
		DisplayName:     "Uber",
		DefaultCategory: "Transport > Rideshare",
		Aliases:         []string{"UBER", "UBER TRIP"},
		TypicalMCCs:     []string{"4121"},
	}
}

func amazonMerchant() *model.Merchant {
	return &model.Merchant{
		ID:              "m_amazon",
		DisplayName:     "Amazon",
		DefaultCategory: "Shopping > Online Marketplace",
		Aliases:         []string{"AMAZON", "AMZN"},
		TypicalMCCs:     []string{"5942"},
	}
}
