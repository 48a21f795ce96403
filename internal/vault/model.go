package vault

import (
	"errors"

	"github.com/jambo-bank/jambo_bank/internal/address"
	"github.com/jambo-bank/jambo_bank/internal/ledger"
)

var (
	// ErrAmountTooSmall is returned for a zero deposit.
	ErrAmountTooSmall = errors.New("amount too small")
	// ErrAmountTooBig is returned when a withdrawal exceeds the balance.
	ErrAmountTooBig = errors.New("amount too big")
	// ErrVaultNotInitialized is returned when no vault exists for a mint.
	ErrVaultNotInitialized = errors.New("vault not initialized")
)

var authorityDiscriminator = ledger.Discriminator("account:VaultAuthority")

// Status describes the vault of one mint.
type Status struct {
	Mint         address.Pubkey
	Vault        address.Pubkey
	Authority    address.Pubkey
	Bump         uint8
	Decimals     uint8
	TokenBalance uint64
	Created      bool
}

// Result reports a completed deposit or withdrawal.
type Result struct {
	TransactionID string
	Amount        uint64
	TokenUnits    uint64
	Remainder     uint64
	Balance       uint64
	Decimals      uint8
}

func authorityRecord(bump uint8) []byte {
	data := make([]byte, 0, len(authorityDiscriminator)+1)
	data = append(data, authorityDiscriminator[:]...)
	return append(data, bump)
}
