package auth

import (
    "crypto/ed25519"
    "errors"
    "fmt"
    "strconv"
    "strings"
    "time"

    "github.com/mr-tron/base58"

    "github.com/jambo-bank/jambo_bank/internal/address"
)

var (
    // ErrMalformedSignature indicates a signature header that cannot be parsed.
    ErrMalformedSignature = errors.New("malformed signature header")
    // ErrBadSignature indicates a signature that does not verify.
    ErrBadSignature = errors.New("signature verification failed")
    // ErrStaleRequest indicates a timestamp outside the accepted skew.
    ErrStaleRequest = errors.New("request timestamp outside accepted window")
)

// Request holds the parts of an HTTP request covered by a signature. Nonce
// is the request's Idempotency-Key, so a signature authorizes exactly one
// logical operation.
type Request struct {
    Timestamp int64
    Nonce     string
    Method    string
    Path      string
    Body      []byte
}

// Message returns the canonical bytes that signers sign.
func (r Request) Message() []byte {
    var b strings.Builder
    b.WriteString(strconv.FormatInt(r.Timestamp, 10))
    b.WriteByte('\n')
    b.WriteString(r.Nonce)
    b.WriteByte('\n')
    b.WriteString(strings.ToUpper(r.Method))
    b.WriteByte('\n')
    b.WriteString(r.Path)
    b.WriteByte('\n')
    b.Write(r.Body)
    return []byte(b.String())
}

// Sign produces a header entry "<pubkey>=<signature>" for r.
func Sign(r Request, key ed25519.PrivateKey) string {
    pub := key.Public().(ed25519.PublicKey)
    sig := ed25519.Sign(key, r.Message())
    return base58.Encode(pub) + "=" + base58.Encode(sig)
}

// CheckFresh rejects timestamps further than maxSkew from now.
func CheckFresh(ts int64, now time.Time, maxSkew time.Duration) error {
    delta := now.Sub(time.Unix(ts, 0))
    if delta < 0 {
        delta = -delta
    }
    if delta > maxSkew {
        return ErrStaleRequest
    }
    return nil
}

// SignatureValues returns the encoded signatures of a header accepted by
// VerifyHeader, in header order.
func SignatureValues(header string) []string {
    var out []string
    for _, entry := range strings.Split(header, ",") {
        if _, sig, ok := strings.Cut(strings.TrimSpace(entry), "="); ok && sig != "" {
            out = append(out, sig)
        }
    }
    return out
}

// VerifyHeader parses a comma separated list of "<pubkey>=<signature>"
// entries and returns the set of keys whose signature over r verifies.
// Any entry that fails to verify rejects the whole header.
func VerifyHeader(header string, r Request) (Signers, error) {
    signers := NewSigners()
    header = strings.TrimSpace(header)
    if header == "" {
        return signers, nil
    }
    msg := r.Message()
    for _, entry := range strings.Split(header, ",") {
        key, sig, ok := strings.Cut(strings.TrimSpace(entry), "=")
        if !ok {
            return nil, ErrMalformedSignature
        }
        pk, err := address.ParsePubkey(key)
        if err != nil {
            return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
        }
        rawSig, err := base58.Decode(sig)
        if err != nil || len(rawSig) != ed25519.SignatureSize {
            return nil, ErrMalformedSignature
        }
        if !ed25519.Verify(ed25519.PublicKey(pk[:]), msg, rawSig) {
            return nil, fmt.Errorf("%w for %s", ErrBadSignature, pk)
        }
        signers[pk] = struct{}{}
    }
    return signers, nil
}
