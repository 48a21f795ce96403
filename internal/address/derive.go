package address

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Namespace tags mixed into every derivation. They match the seeds used by
// the on-chain deployment so addresses stay compatible.
var (
	BankAccountSeed    = []byte("jambo_bank_account")
	VaultSeed          = []byte("jambo_vault")
	VaultAuthoritySeed = []byte("jambo_vault_authority")
)

// ErrInvalidID is returned when an account identifier cannot be used as a seed.
var ErrInvalidID = errors.New("account id must be between 1 and 32 bytes")

// Derived is a derived address together with the seeds that prove it.
type Derived struct {
	Address Pubkey
	Bump    uint8
	seeds   [][]byte
}

// SignerSeeds returns the seeds, bump included, that recreate Address.
// Custody uses them to check a derived authority without any private key.
func (d Derived) SignerSeeds() [][]byte {
	out := make([][]byte, 0, len(d.seeds)+1)
	for _, s := range d.seeds {
		out = append(out, append([]byte(nil), s...))
	}
	return append(out, []byte{d.Bump})
}

// Deriver computes record addresses for one program id.
type Deriver struct {
	program Pubkey
}

// NewDeriver binds derivations to program.
func NewDeriver(program Pubkey) Deriver {
	return Deriver{program: program}
}

// Program returns the program id used as derivation domain.
func (d Deriver) Program() Pubkey {
	return d.program
}

// BankAccount derives the record address for (owner, id).
func (d Deriver) BankAccount(owner Pubkey, id []byte) (Derived, error) {
	if err := ValidateID(id); err != nil {
		return Derived{}, err
	}
	return d.derive(BankAccountSeed, owner[:], id)
}

// Vault derives the pooled token account for mint.
func (d Deriver) Vault(mint Pubkey) (Derived, error) {
	return d.derive(VaultSeed, mint[:])
}

// VaultAuthority derives the credential that owns every vault of owner.
func (d Deriver) VaultAuthority(owner Pubkey) (Derived, error) {
	return d.derive(VaultAuthoritySeed, owner[:])
}

// Verify reports whether seeds (bump included) recreate addr under the program.
func (d Deriver) Verify(addr Pubkey, seeds [][]byte) bool {
	got, err := CreateProgramAddress(seeds, d.program)
	return err == nil && got == addr
}

func (d Deriver) derive(seeds ...[]byte) (Derived, error) {
	addr, bump, err := FindProgramAddress(seeds, d.program)
	if err != nil {
		return Derived{}, fmt.Errorf("derive address: %w", err)
	}
	return Derived{Address: addr, Bump: bump, seeds: seeds}, nil
}

// ValidateID checks that id fits in a single derivation seed.
func ValidateID(id []byte) error {
	if len(id) == 0 || len(id) > MaxSeedLen {
		return ErrInvalidID
	}
	return nil
}

// ParseHexID decodes an account identifier from its hex text form.
func ParseHexID(s string) ([]byte, error) {
	id, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	return id, nil
}
