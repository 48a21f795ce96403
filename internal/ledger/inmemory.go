package ledger

import (
	"context"
	"sync"

	"github.com/jambo-bank/jambo_bank/internal/address"
)

type inMemoryStore struct {
	mu      sync.RWMutex
	records map[address.Pubkey]Record
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit
// tests and development. Update holds the write lock for the whole unit of
// work and stages every write until fn succeeds.
func NewInMemory() Store {
	return &inMemoryStore{records: make(map[address.Pubkey]Record)}
}

func (s *inMemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &stagedTx{base: s.records, writes: make(map[address.Pubkey]*Record)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for key, rec := range tx.writes {
		if rec == nil {
			delete(s.records, key)
			continue
		}
		s.records[key] = *rec
	}
	return nil
}

func (s *inMemoryStore) View(_ context.Context, fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&stagedTx{base: s.records, readOnly: true})
}

// stagedTx overlays pending writes on the committed map. A nil entry in
// writes marks a staged delete.
type stagedTx struct {
	base     map[address.Pubkey]Record
	writes   map[address.Pubkey]*Record
	readOnly bool
}

func (t *stagedTx) Get(_ context.Context, key address.Pubkey) (Record, error) {
	if rec, staged := t.writes[key]; staged {
		if rec == nil {
			return Record{}, ErrRecordNotFound
		}
		return cloneRecord(*rec), nil
	}
	rec, ok := t.base[key]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (t *stagedTx) Put(_ context.Context, key address.Pubkey, rec Record) error {
	if t.readOnly {
		return ErrReadOnly
	}
	c := cloneRecord(rec)
	t.writes[key] = &c
	return nil
}

func (t *stagedTx) Delete(_ context.Context, key address.Pubkey) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.writes[key] = nil
	return nil
}

func cloneRecord(rec Record) Record {
	return Record{Data: append([]byte(nil), rec.Data...), Payer: rec.Payer}
}
