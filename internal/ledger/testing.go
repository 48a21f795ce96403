package ledger

import (
    "context"

    "github.com/jambo-bank/jambo_bank/internal/address"
)

// SeedAccount is a test helper that writes a bank account with the given
// balance directly into any store.
func SeedAccount(s Store, addr address.Pubkey, id []byte, balance uint64) error {
    return s.Update(context.Background(), func(tx Tx) error {
        return PutAccount(context.Background(), tx, &Account{
            BankAccount: BankAccount{ID: append([]byte(nil), id...), Balance: balance},
            Address:     addr,
        })
    })
}
