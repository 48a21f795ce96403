package custody

import (
	"context"
	"errors"

	"github.com/jambo-bank/jambo_bank/internal/address"
	"github.com/jambo-bank/jambo_bank/internal/ledger"
)

// ErrExternalTransferFailed wraps every refusal from the custody subsystem.
var ErrExternalTransferFailed = errors.New("external token transfer failed")

// Authority proves the right to move tokens out of a token account.
//
// A human authority sets Signed after its signature was verified. A derived
// authority leaves Signed false and supplies the seeds, bump included, that
// recreate Key under the program id.
type Authority struct {
	Key    address.Pubkey
	Signed bool
	Seeds  [][]byte
}

// Movement is one requested token transfer.
type Movement struct {
	From      address.Pubkey
	To        address.Pubkey
	Mint      address.Pubkey
	Amount    uint64
	Authority Authority
}

// Custodian represents the token-custody subsystem. It runs inside the
// caller's unit of work so a refused movement rolls back the caller's writes.
type Custodian interface {
	// EnsureAccount opens an empty token account at addr unless one with the
	// same mint and owner already exists. It reports whether it created one.
	EnsureAccount(ctx context.Context, tx ledger.Tx, addr, mint, owner, payer address.Pubkey) (bool, error)
	Decimals(ctx context.Context, tx ledger.Tx, mint address.Pubkey) (uint8, error)
	MoveTokens(ctx context.Context, tx ledger.Tx, mv Movement) error
}

// BalanceReader is implemented by custodians that can report the token
// balance held at an address.
type BalanceReader interface {
	Balance(ctx context.Context, tx ledger.Tx, addr address.Pubkey) (uint64, error)
}
