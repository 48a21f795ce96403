package address

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Size is the length of a public key or derived address in bytes.
const Size = 32

const (
	// MaxSeeds bounds the number of seeds accepted by a derivation.
	MaxSeeds = 16
	// MaxSeedLen bounds the length of a single seed.
	MaxSeedLen = 32

	derivedMarker = "ProgramDerivedAddress"
)

var (
	// ErrInvalidPubkey is returned when a textual or raw key is malformed.
	ErrInvalidPubkey = errors.New("invalid public key")
	// ErrMaxSeedLength indicates a seed longer than MaxSeedLen or too many seeds.
	ErrMaxSeedLength = errors.New("derivation seed exceeds limits")
	// ErrOnCurve indicates the candidate address is a valid ed25519 point and
	// could therefore have a private key.
	ErrOnCurve = errors.New("derived address lies on the ed25519 curve")
	// ErrNoViableBump is returned when every bump yields an on-curve candidate.
	ErrNoViableBump = errors.New("unable to find a viable derivation bump")
)

// Pubkey identifies principals, records and token accounts.
type Pubkey [Size]byte

// Zero is the all-zero key.
var Zero Pubkey

// ParsePubkey decodes the base58 text form of a key.
func ParsePubkey(s string) (Pubkey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %v", ErrInvalidPubkey, err)
	}
	return PubkeyFromBytes(raw)
}

// MustParsePubkey is ParsePubkey for constants and tests.
func MustParsePubkey(s string) Pubkey {
	pk, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// PubkeyFromBytes copies a raw 32-byte key.
func PubkeyFromBytes(raw []byte) (Pubkey, error) {
	var pk Pubkey
	if len(raw) != Size {
		return Zero, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidPubkey, Size, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// String returns the base58 form.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// Bytes returns a copy of the raw key.
func (p Pubkey) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, p[:])
	return out
}

// IsZero reports whether p is the zero key.
func (p Pubkey) IsZero() bool {
	return p == Zero
}

// MarshalText implements encoding.TextMarshaler.
func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pubkey) UnmarshalText(text []byte) error {
	pk, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*p = pk
	return nil
}

// IsOnCurve reports whether the bytes decode to an ed25519 point.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// CreateProgramAddress hashes seeds under program into an off-curve address.
// The bump, when used, must already be the last seed.
func CreateProgramAddress(seeds [][]byte, program Pubkey) (Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return Zero, ErrMaxSeedLength
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Zero, ErrMaxSeedLength
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte(derivedMarker))

	var out Pubkey
	copy(out[:], h.Sum(nil))
	if IsOnCurve(out[:]) {
		return Zero, ErrOnCurve
	}
	return out, nil
}

// FindProgramAddress searches bumps from 255 down and returns the first
// off-curve address with its bump.
func FindProgramAddress(seeds [][]byte, program Pubkey) (Pubkey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Zero, 0, ErrMaxSeedLength
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, program)
		switch {
		case err == nil:
			return addr, uint8(bump), nil
		case errors.Is(err, ErrOnCurve):
			continue
		default:
			return Zero, 0, err
		}
	}
	return Zero, 0, ErrNoViableBump
}
