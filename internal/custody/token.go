package custody

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jambo-bank/jambo_bank/internal/address"
	"github.com/jambo-bank/jambo_bank/internal/ledger"
)

var (
	mintDiscriminator    = ledger.Discriminator("token:Mint")
	accountDiscriminator = ledger.Discriminator("token:Account")

	// ErrMintNotFound is returned when no mint lives at an address.
	ErrMintNotFound = errors.New("mint not found")
	// ErrTokenAccountNotFound is returned when no token account lives at an address.
	ErrTokenAccountNotFound = errors.New("token account not found")
	// ErrAccountInUse is returned when initializing an occupied address.
	ErrAccountInUse = errors.New("address already in use")
)

const (
	mintSize    = 8 + 1 + 8 + address.Size
	accountSize = 8 + address.Size + address.Size + 8
)

// Mint describes a token type.
type Mint struct {
	Decimals  uint8
	Supply    uint64
	Authority address.Pubkey
}

// TokenAccount holds token units of one mint on behalf of Owner.
type TokenAccount struct {
	Mint   address.Pubkey
	Owner  address.Pubkey
	Amount uint64
}

// TokenProgram is a token-custody subsystem whose mints and token accounts
// are records in the same store as the bank accounts.
type TokenProgram struct {
	deriver address.Deriver
}

// NewTokenProgram builds a token program that verifies derived authorities
// against deriver's program id.
func NewTokenProgram(deriver address.Deriver) *TokenProgram {
	return &TokenProgram{deriver: deriver}
}

// CreateMint allocates a mint record.
func (p *TokenProgram) CreateMint(ctx context.Context, tx ledger.Tx, addr address.Pubkey, m Mint, payer address.Pubkey) error {
	if err := ensureVacant(ctx, tx, addr); err != nil {
		return err
	}
	return putMint(ctx, tx, addr, m, payer)
}

// CreateAccount allocates an empty token account for mint owned by owner.
func (p *TokenProgram) CreateAccount(ctx context.Context, tx ledger.Tx, addr, mint, owner, payer address.Pubkey) error {
	if _, _, err := p.getMint(ctx, tx, mint); err != nil {
		return err
	}
	if err := ensureVacant(ctx, tx, addr); err != nil {
		return err
	}
	return putAccount(ctx, tx, addr, TokenAccount{Mint: mint, Owner: owner}, payer)
}

// MintTo issues amount new units into the token account at to. The caller
// asserts that authority signed.
func (p *TokenProgram) MintTo(ctx context.Context, tx ledger.Tx, mint, to, authority address.Pubkey, amount uint64) error {
	m, mintPayer, err := p.getMint(ctx, tx, mint)
	if err != nil {
		return err
	}
	if m.Authority != authority {
		return fmt.Errorf("%w: mint authority mismatch", ErrExternalTransferFailed)
	}
	acc, accPayer, err := p.getAccount(ctx, tx, to)
	if err != nil {
		return err
	}
	if acc.Mint != mint {
		return fmt.Errorf("%w: account belongs to mint %s", ErrExternalTransferFailed, acc.Mint)
	}
	if m.Supply, err = ledger.AddUint64(m.Supply, amount); err != nil {
		return err
	}
	if acc.Amount, err = ledger.AddUint64(acc.Amount, amount); err != nil {
		return err
	}
	if err := putMint(ctx, tx, mint, m, mintPayer); err != nil {
		return err
	}
	return putAccount(ctx, tx, to, acc, accPayer)
}

// EnsureAccount implements Custodian.
func (p *TokenProgram) EnsureAccount(ctx context.Context, tx ledger.Tx, addr, mint, owner, payer address.Pubkey) (bool, error) {
	existing, _, err := p.getAccount(ctx, tx, addr)
	switch {
	case err == nil:
		if existing.Mint != mint || existing.Owner != owner {
			return false, fmt.Errorf("%w: %s holds another token account", ErrAccountInUse, addr)
		}
		return false, nil
	case errors.Is(err, ErrTokenAccountNotFound):
		if err := p.CreateAccount(ctx, tx, addr, mint, owner, payer); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}

// Mint reads the mint at addr.
func (p *TokenProgram) Mint(ctx context.Context, tx ledger.Tx, addr address.Pubkey) (Mint, error) {
	m, _, err := p.getMint(ctx, tx, addr)
	return m, err
}

// Account reads the token account at addr.
func (p *TokenProgram) Account(ctx context.Context, tx ledger.Tx, addr address.Pubkey) (TokenAccount, error) {
	acc, _, err := p.getAccount(ctx, tx, addr)
	return acc, err
}

// Balance implements BalanceReader.
func (p *TokenProgram) Balance(ctx context.Context, tx ledger.Tx, addr address.Pubkey) (uint64, error) {
	acc, _, err := p.getAccount(ctx, tx, addr)
	return acc.Amount, err
}

// Decimals implements Custodian.
func (p *TokenProgram) Decimals(ctx context.Context, tx ledger.Tx, mint address.Pubkey) (uint8, error) {
	m, _, err := p.getMint(ctx, tx, mint)
	if err != nil {
		return 0, err
	}
	return m.Decimals, nil
}

// MoveTokens implements Custodian. It checks ownership, authority, mint and
// funds before writing anything.
func (p *TokenProgram) MoveTokens(ctx context.Context, tx ledger.Tx, mv Movement) error {
	from, fromPayer, err := p.getAccount(ctx, tx, mv.From)
	if err != nil {
		return refuse(err.Error())
	}
	to, toPayer, err := p.getAccount(ctx, tx, mv.To)
	if err != nil {
		return refuse(err.Error())
	}
	if from.Mint != to.Mint || (!mv.Mint.IsZero() && from.Mint != mv.Mint) {
		return refuse("mint mismatch")
	}
	if from.Owner != mv.Authority.Key {
		return refuse(fmt.Sprintf("%s is not the owner of %s", mv.Authority.Key, mv.From))
	}
	if !p.authorized(mv.Authority) {
		return refuse(fmt.Sprintf("missing authority proof for %s", mv.Authority.Key))
	}
	if from.Amount < mv.Amount {
		return refuse(fmt.Sprintf("insufficient funds: have %d, need %d", from.Amount, mv.Amount))
	}
	if mv.From == mv.To {
		return nil
	}

	if from.Amount, err = ledger.SubUint64(from.Amount, mv.Amount); err != nil {
		return refuse(err.Error())
	}
	if to.Amount, err = ledger.AddUint64(to.Amount, mv.Amount); err != nil {
		return refuse(err.Error())
	}
	if err := putAccount(ctx, tx, mv.From, from, fromPayer); err != nil {
		return err
	}
	return putAccount(ctx, tx, mv.To, to, toPayer)
}

func (p *TokenProgram) authorized(a Authority) bool {
	if a.Signed {
		return true
	}
	return len(a.Seeds) > 0 && p.deriver.Verify(a.Key, a.Seeds)
}

func refuse(reason string) error {
	return fmt.Errorf("%w: %s", ErrExternalTransferFailed, reason)
}

func ensureVacant(ctx context.Context, tx ledger.Tx, addr address.Pubkey) error {
	_, err := tx.Get(ctx, addr)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrAccountInUse, addr)
	case errors.Is(err, ledger.ErrRecordNotFound):
		return nil
	default:
		return err
	}
}

func (p *TokenProgram) getMint(ctx context.Context, tx ledger.Tx, addr address.Pubkey) (Mint, address.Pubkey, error) {
	rec, err := tx.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, ledger.ErrRecordNotFound) {
			return Mint{}, address.Zero, fmt.Errorf("%w: %s", ErrMintNotFound, addr)
		}
		return Mint{}, address.Zero, err
	}
	d := rec.Data
	if len(d) != mintSize || [8]byte(d[:8]) != mintDiscriminator {
		return Mint{}, address.Zero, fmt.Errorf("%w: %s is not a mint", ErrMintNotFound, addr)
	}
	m := Mint{
		Decimals: d[8],
		Supply:   binary.LittleEndian.Uint64(d[9:17]),
	}
	copy(m.Authority[:], d[17:])
	return m, rec.Payer, nil
}

func putMint(ctx context.Context, tx ledger.Tx, addr address.Pubkey, m Mint, payer address.Pubkey) error {
	buf := make([]byte, 0, mintSize)
	buf = append(buf, mintDiscriminator[:]...)
	buf = append(buf, m.Decimals)
	buf = binary.LittleEndian.AppendUint64(buf, m.Supply)
	buf = append(buf, m.Authority[:]...)
	return tx.Put(ctx, addr, ledger.Record{Data: buf, Payer: payer})
}

func (p *TokenProgram) getAccount(ctx context.Context, tx ledger.Tx, addr address.Pubkey) (TokenAccount, address.Pubkey, error) {
	rec, err := tx.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, ledger.ErrRecordNotFound) {
			return TokenAccount{}, address.Zero, fmt.Errorf("%w: %s", ErrTokenAccountNotFound, addr)
		}
		return TokenAccount{}, address.Zero, err
	}
	d := rec.Data
	if len(d) != accountSize || [8]byte(d[:8]) != accountDiscriminator {
		return TokenAccount{}, address.Zero, fmt.Errorf("%w: %s is not a token account", ErrTokenAccountNotFound, addr)
	}
	var acc TokenAccount
	copy(acc.Mint[:], d[8:40])
	copy(acc.Owner[:], d[40:72])
	acc.Amount = binary.LittleEndian.Uint64(d[72:80])
	return acc, rec.Payer, nil
}

func putAccount(ctx context.Context, tx ledger.Tx, addr address.Pubkey, acc TokenAccount, payer address.Pubkey) error {
	buf := make([]byte, 0, accountSize)
	buf = append(buf, accountDiscriminator[:]...)
	buf = append(buf, acc.Mint[:]...)
	buf = append(buf, acc.Owner[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, acc.Amount)
	return tx.Put(ctx, addr, ledger.Record{Data: buf, Payer: payer})
}
