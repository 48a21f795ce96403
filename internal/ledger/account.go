package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jambo-bank/jambo_bank/internal/address"
)

// AccountDiscriminator prefixes every stored BankAccount.
var AccountDiscriminator = Discriminator("account:BankAccount")

// Discriminator derives the 8-byte type tag stored ahead of a record body.
func Discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte(name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// BankAccount is one custodial sub-ledger entry.
type BankAccount struct {
	ID      []byte
	Balance uint64
}

// Credit adds amount to the balance. On overflow the balance is unchanged.
func (a *BankAccount) Credit(amount uint64) error {
	next, err := AddUint64(a.Balance, amount)
	if err != nil {
		return err
	}
	a.Balance = next
	return nil
}

// Debit removes amount from the balance. It fails without mutating when
// amount exceeds the balance.
func (a *BankAccount) Debit(amount uint64) error {
	if amount > a.Balance {
		return ErrInsufficientBalance
	}
	next, err := SubUint64(a.Balance, amount)
	if err != nil {
		return err
	}
	a.Balance = next
	return nil
}

// MarshalBinary encodes the record as discriminator, u32 LE id length, id,
// u64 LE balance.
func (a BankAccount) MarshalBinary() ([]byte, error) {
	if uint64(len(a.ID)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("%w: id too long", ErrCorruptRecord)
	}
	buf := make([]byte, 0, 8+4+len(a.ID)+8)
	buf = append(buf, AccountDiscriminator[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(a.ID)))
	buf = append(buf, a.ID...)
	buf = binary.LittleEndian.AppendUint64(buf, a.Balance)
	return buf, nil
}

// UnmarshalBinary decodes a record written by MarshalBinary.
func (a *BankAccount) UnmarshalBinary(data []byte) error {
	if len(data) < 8+4+8 {
		return fmt.Errorf("%w: %d bytes", ErrCorruptRecord, len(data))
	}
	if [8]byte(data[:8]) != AccountDiscriminator {
		return fmt.Errorf("%w: not a bank account", ErrCorruptRecord)
	}
	n := binary.LittleEndian.Uint32(data[8:12])
	rest := data[12:]
	if uint64(len(rest)) != uint64(n)+8 {
		return fmt.Errorf("%w: id length %d does not match payload", ErrCorruptRecord, n)
	}
	a.ID = append([]byte(nil), rest[:n]...)
	a.Balance = binary.LittleEndian.Uint64(rest[n:])
	return nil
}

// Account is a BankAccount bound to its storage slot.
type Account struct {
	BankAccount
	Address address.Pubkey
	Payer   address.Pubkey
}

// GetAccount loads the bank account stored at addr.
func GetAccount(ctx context.Context, tx Tx, addr address.Pubkey) (*Account, error) {
	rec, err := tx.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	acc := &Account{Address: addr, Payer: rec.Payer}
	if err := acc.UnmarshalBinary(rec.Data); err != nil {
		return nil, err
	}
	return acc, nil
}

// PutAccount writes acc back to its slot.
func PutAccount(ctx context.Context, tx Tx, acc *Account) error {
	data, err := acc.MarshalBinary()
	if err != nil {
		return err
	}
	return tx.Put(ctx, acc.Address, Record{Data: data, Payer: acc.Payer})
}
