package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jambo-bank/jambo_bank/internal/address"
)

const (
	serializationFailure = "40001"
	uniqueViolation      = "23505"
)

// PostgresStore persists records in PostgreSQL. Each Update runs in a single
// serializable transaction and locks every row it reads.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed record store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Update runs fn in a serializable transaction and commits only on success.
func (s *PostgresStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgTx{tx: tx, forUpdate: true}); err != nil {
		return mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// View runs fn in a read-only transaction.
func (s *PostgresStore) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx        pgx.Tx
	forUpdate bool
}

func (t *pgTx) Get(ctx context.Context, key address.Pubkey) (Record, error) {
	query := `SELECT payer, data FROM records WHERE address = $1`
	if t.forUpdate {
		query += ` FOR UPDATE`
	}
	var payer, data []byte
	if err := t.tx.QueryRow(ctx, query, key[:]).Scan(&payer, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	pk, err := address.PubkeyFromBytes(payer)
	if err != nil {
		return Record{}, fmt.Errorf("%w: payer of %s: %v", ErrCorruptRecord, key, err)
	}
	return Record{Data: data, Payer: pk}, nil
}

func (t *pgTx) Put(ctx context.Context, key address.Pubkey, rec Record) error {
	if !t.forUpdate {
		return ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO records (address, payer, data) VALUES ($1, $2, $3)
        ON CONFLICT (address) DO UPDATE SET payer = EXCLUDED.payer, data = EXCLUDED.data, updated_at = now()`,
		key[:], rec.Payer[:], rec.Data)
	return err
}

func (t *pgTx) Delete(ctx context.Context, key address.Pubkey) error {
	if !t.forUpdate {
		return ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `DELETE FROM records WHERE address = $1`, key[:])
	return err
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case serializationFailure, uniqueViolation:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}
