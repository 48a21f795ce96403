package accounts

import (
    "errors"

    "github.com/jambo-bank/jambo_bank/internal/address"
)

var (
    // ErrAccountExists is returned by Create under CreateReject when the
    // derived address is already occupied.
    ErrAccountExists = errors.New("bank account already exists")
    // ErrBalanceNotZero is returned by Remove while funds remain.
    ErrBalanceNotZero = errors.New("balance is not zero")
)

// CreateMode selects what Create does when the account already exists.
type CreateMode string

const (
    CreateReject CreateMode = "reject"
    CreateNoop   CreateMode = "noop"
)

// Account is the read model of a bank account.
type Account struct {
    Owner   address.Pubkey
    ID      []byte
    Address address.Pubkey
    Balance uint64
    Payer   address.Pubkey
}
