package middleware

import (
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/gofiber/fiber/v2"

    "github.com/jambo-bank/jambo_bank/internal/auth"
)

const (
    SignatureHeader = "X-Signature"
    TimestampHeader = "X-Timestamp"
)

// SignatureAuth verifies the ed25519 signatures carried in X-Signature over
// the canonical request message and stores the resulting signer set in
// locals. Safe methods and unsigned requests continue with an empty set so
// the authorization guard makes the final decision.
//
// Signed requests must carry an Idempotency-Key, which is part of the signed
// message, and each signature is accepted once: replays inside the skew
// window are rejected with 409. A client retrying an operation re-signs it
// with a fresh timestamp and the same Idempotency-Key.
func SignatureAuth(maxSkew time.Duration, replays ReplayStore, now func() time.Time) fiber.Handler {
    if now == nil {
        now = time.Now
    }
    if replays == nil {
        replays = NewMemoryReplayStore(now)
    }
    // A timestamp is accepted from maxSkew before to maxSkew after now.
    window := 2 * maxSkew
    if window < time.Minute {
        window = time.Minute
    }
    return func(c *fiber.Ctx) error {
        c.Locals(auth.SignersLocalKey, auth.Signers{})
        switch c.Method() {
        case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
            return c.Next()
        }

        header := strings.TrimSpace(c.Get(SignatureHeader))
        if header == "" {
            return c.Next()
        }
        ts, err := strconv.ParseInt(c.Get(TimestampHeader), 10, 64)
        if err != nil {
            return fiber.NewError(http.StatusUnauthorized, "missing or invalid "+TimestampHeader)
        }
        if err := auth.CheckFresh(ts, now(), maxSkew); err != nil {
            return fiber.NewError(http.StatusUnauthorized, err.Error())
        }
        nonce := strings.TrimSpace(c.Get(idempotencyKeyHeader))
        if nonce == "" {
            return fiber.NewError(http.StatusUnauthorized, "signed requests must carry "+idempotencyKeyHeader)
        }

        signers, err := auth.VerifyHeader(header, auth.Request{
            Timestamp: ts,
            Nonce:     nonce,
            Method:    c.Method(),
            Path:      c.Path(),
            Body:      c.Body(),
        })
        if err != nil {
            msg := "invalid signature"
            if errors.Is(err, auth.ErrMalformedSignature) {
                msg = "malformed " + SignatureHeader
            }
            return fiber.NewError(http.StatusUnauthorized, msg)
        }
        for _, sig := range auth.SignatureValues(header) {
            fresh, err := replays.Claim(c.UserContext(), sig, window)
            if err != nil {
                return fiber.NewError(http.StatusServiceUnavailable, "signature replay check unavailable")
            }
            if !fresh {
                return fiber.NewError(http.StatusConflict, "signature already used")
            }
        }
        c.Locals(auth.SignersLocalKey, signers)
        return c.Next()
    }
}
