package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"ledgerview/internal/core"
	"ledgerview/internal/source"
)

// Store keeps raw transactions in memory. It is the default backend for local
// runs and tests.
type Store struct {
	mu    sync.Mutex
	items []core.RawTransaction
	index map[string]int // id -> position in items, for records that carry one
}

var _ source.TransactionStore = (*Store)(nil)

func New(raws ...core.RawTransaction) *Store {
	s := &Store{index: map[string]int{}}
	for _, r := range raws {
		s.add(r)
	}
	return s
}

// NewFromCSV seeds a store from a CSV file. An empty path yields an empty store.
func NewFromCSV(path string) (*Store, error) {
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	raws, err := source.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return New(raws...), nil
}

// Add appends a raw record. A record whose ID is already present replaces it
// in place.
func (s *Store) Add(r core.RawTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(r)
}

func (s *Store) add(r core.RawTransaction) {
	if r.ID != "" {
		if i, ok := s.index[r.ID]; ok {
			s.items[i] = r
			return
		}
		s.index[r.ID] = len(s.items)
	}
	s.items = append(s.items, r)
}

// ReadTransactions returns a copy of the stored records in insertion order.
func (s *Store) ReadTransactions(ctx context.Context) ([]core.RawTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RawTransaction{}, s.items...), nil
}

func (s *Store) UpsertTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %q: %w", t.ID, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txs {
		s.add(t.Raw())
	}
	return len(txs), nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
