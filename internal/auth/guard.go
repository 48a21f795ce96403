package auth

import (
	"errors"

	"github.com/jambo-bank/jambo_bank/internal/address"
)

// ErrUnauthorized indicates the designated owner did not sign the request.
var ErrUnauthorized = errors.New("unauthorized: owner signature required")

// Signers is the set of keys that produced a verified signature on a request.
type Signers map[address.Pubkey]struct{}

// NewSigners builds a signer set.
func NewSigners(keys ...address.Pubkey) Signers {
	s := make(Signers, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Contains reports whether key signed.
func (s Signers) Contains(key address.Pubkey) bool {
	_, ok := s[key]
	return ok
}

// Guard gates every mutating operation on the configured owner.
type Guard struct {
	owner address.Pubkey
}

// NewGuard builds a guard for owner.
func NewGuard(owner address.Pubkey) *Guard {
	return &Guard{owner: owner}
}

// Owner returns the designated owner.
func (g *Guard) Owner() address.Pubkey {
	return g.owner
}

// Authorize succeeds only when claimed is the designated owner and the owner
// is among signers.
func (g *Guard) Authorize(claimed address.Pubkey, signers Signers) error {
	if g == nil || g.owner.IsZero() {
		return ErrUnauthorized
	}
	if claimed != g.owner || !signers.Contains(g.owner) {
		return ErrUnauthorized
	}
	return nil
}

// SignersLocalKey is the request-local slot holding the verified Signers.
const SignersLocalKey = "auth.signers"

// SignersFromLocal converts a request-local value back into Signers. A
// missing or foreign value yields an empty set.
func SignersFromLocal(v interface{}) Signers {
	s, _ := v.(Signers)
	if s == nil {
		return Signers{}
	}
	return s
}
