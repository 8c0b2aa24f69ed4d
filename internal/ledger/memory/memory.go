// Package memory is an in-process ledger store: the default backend when
// no SQLite path is configured, and the test double everywhere else.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/llabyellov/LouerSimple/internal/core"
)

type Store struct {
	mu        sync.Mutex
	rows      []core.Transaction
	appendErr error
}

func New() *Store {
	return &Store{}
}

// Seed replaces the stored rows, bypassing Append. Test helper.
func (s *Store) Seed(rows []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]core.Transaction(nil), rows...)
}

// FailAppends makes every subsequent Append return err. Pass nil to heal.
func (s *Store) FailAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return "", s.appendErr
	}
	s.rows = append(s.rows, t)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// LoadAll returns a copy of every stored row. Order is insertion order;
// callers re-sort as needed.
func (s *Store) LoadAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.rows))
	copy(out, s.rows)
	return out, nil
}
