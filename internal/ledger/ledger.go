package ledger

import (
	"context"
	"errors"

	"github.com/jambo-bank/jambo_bank/internal/address"
)

var (
	// ErrInsufficientBalance occurs when a debit exceeds the available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrArithmeticOverflow indicates a checked operation would exceed the
	// largest representable value.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrArithmeticUnderflow indicates a checked operation would go below zero.
	ErrArithmeticUnderflow = errors.New("arithmetic underflow")

	// ErrRecordNotFound is returned by Tx.Get for an unallocated address.
	ErrRecordNotFound = errors.New("record not found")

	// ErrAccountNotFound is returned when no bank account lives at an address.
	ErrAccountNotFound = errors.New("bank account not found")

	// ErrCorruptRecord indicates stored bytes that do not decode as expected.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrReadOnly is returned by writes attempted inside View.
	ErrReadOnly = errors.New("read-only transaction")

	// ErrConflict indicates a concurrent writer touched the same records and
	// the unit of work was rolled back.
	ErrConflict = errors.New("conflicting concurrent update")
)

// Record is the stored form of any addressed account: bank accounts, token
// accounts, mints and the vault authority marker.
type Record struct {
	Data []byte
	// Payer funded the storage and receives it back when the record is closed.
	Payer address.Pubkey
}

// Tx reads and writes records inside one indivisible unit of work.
type Tx interface {
	Get(ctx context.Context, key address.Pubkey) (Record, error)
	Put(ctx context.Context, key address.Pubkey, rec Record) error
	Delete(ctx context.Context, key address.Pubkey) error
}

// Store defines the contract implemented by record backends (e.g. Postgres).
//
// Update runs fn with exclusive access to the records it touches. Writes
// become visible only when fn returns nil; any error discards all of them.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}
