package middleware

import (
    "context"
    "crypto/ed25519"
    "crypto/rand"
    "net/http"
    "net/http/httptest"
    "strconv"
    "strings"
    "testing"
    "time"

    miniredis "github.com/alicebob/miniredis/v2"
    "github.com/gofiber/fiber/v2"
    "github.com/redis/go-redis/v9"

    "github.com/jambo-bank/jambo_bank/internal/address"
    "github.com/jambo-bank/jambo_bank/internal/auth"
)

var fixedNow = time.Unix(1_700_000_000, 0)

func signedApp(t *testing.T) (*fiber.App, *auth.Signers) {
    t.Helper()
    return signedAppWith(t, NewMemoryReplayStore(func() time.Time { return fixedNow }))
}

func signedAppWith(t *testing.T, replays ReplayStore) (*fiber.App, *auth.Signers) {
    t.Helper()
    seen := &auth.Signers{}
    app := fiber.New()
    app.Use(SignatureAuth(time.Minute, replays, func() time.Time { return fixedNow }))
    app.Post("/accounts", func(c *fiber.Ctx) error {
        *seen = auth.SignersFromLocal(c.Locals(auth.SignersLocalKey))
        return c.SendStatus(fiber.StatusNoContent)
    })
    return app, seen
}

func newKey(t *testing.T) (address.Pubkey, ed25519.PrivateKey) {
    t.Helper()
    pub, priv, err := ed25519.GenerateKey(rand.Reader)
    if err != nil {
        t.Fatalf("generate key: %v", err)
    }
    pk, err := address.PubkeyFromBytes(pub)
    if err != nil {
        t.Fatalf("pubkey: %v", err)
    }
    return pk, priv
}

func accountsRequest(body string, ts int64, nonce, signature string) *http.Request {
    req := httptest.NewRequest(fiber.MethodPost, "/accounts", strings.NewReader(body))
    req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
    req.Header.Set(TimestampHeader, strconv.FormatInt(ts, 10))
    if nonce != "" {
        req.Header.Set(idempotencyKeyHeader, nonce)
    }
    if signature != "" {
        req.Header.Set(SignatureHeader, signature)
    }
    return req
}

func TestSignatureAuthCollectsSigners(t *testing.T) {
    app, seen := signedApp(t)
    owner, ownerKey := newKey(t)
    payer, payerKey := newKey(t)

    body := `{"id":"61"}`
    msg := auth.Request{Timestamp: fixedNow.Unix(), Nonce: "create-1", Method: fiber.MethodPost, Path: "/accounts", Body: []byte(body)}
    header := auth.Sign(msg, ownerKey) + "," + auth.Sign(msg, payerKey)

    resp, err := app.Test(accountsRequest(body, fixedNow.Unix(), "create-1", header))
    if err != nil {
        t.Fatalf("app.Test: %v", err)
    }
    if resp.StatusCode != fiber.StatusNoContent {
        t.Fatalf("expected %d got %d", fiber.StatusNoContent, resp.StatusCode)
    }
    if !seen.Contains(owner) || !seen.Contains(payer) || len(*seen) != 2 {
        t.Fatalf("unexpected signers %v", *seen)
    }
}

func TestSignatureAuthRejectsBadRequests(t *testing.T) {
    _, key := newKey(t)
    body := `{"id":"61"}`
    msg := auth.Request{Timestamp: fixedNow.Unix(), Nonce: "k1", Method: fiber.MethodPost, Path: "/accounts", Body: []byte(body)}
    good := auth.Sign(msg, key)

    stale := msg
    stale.Timestamp = fixedNow.Add(-time.Hour).Unix()

    cases := map[string]*http.Request{
        "tampered body": accountsRequest(`{"id":"62"}`, fixedNow.Unix(), "k1", good),
        "other nonce":   accountsRequest(body, fixedNow.Unix(), "k2", good),
        "missing nonce": accountsRequest(body, fixedNow.Unix(), "", good),
        "stale":         accountsRequest(body, stale.Timestamp, "k1", auth.Sign(stale, key)),
        "malformed":     accountsRequest(body, fixedNow.Unix(), "k1", "not-a-signature"),
    }
    for name, req := range cases {
        t.Run(name, func(t *testing.T) {
            app, _ := signedApp(t)
            resp, err := app.Test(req)
            if err != nil {
                t.Fatalf("app.Test: %v", err)
            }
            if resp.StatusCode != fiber.StatusUnauthorized {
                t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
            }
        })
    }
}

func TestSignatureAuthUnsignedPassesEmptySet(t *testing.T) {
    app, seen := signedApp(t)
    resp, err := app.Test(accountsRequest("{}", fixedNow.Unix(), "", ""))
    if err != nil {
        t.Fatalf("app.Test: %v", err)
    }
    if resp.StatusCode != fiber.StatusNoContent || len(*seen) != 0 {
        t.Fatalf("unsigned request: status %d signers %v", resp.StatusCode, *seen)
    }
}

func TestSignatureAuthRejectsReplayedSignature(t *testing.T) {
    mr, err := miniredis.Run()
    if err != nil {
        t.Fatalf("start miniredis: %v", err)
    }
    defer mr.Close()
    cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer cache.Close()

    stores := map[string]ReplayStore{
        "memory": NewMemoryReplayStore(func() time.Time { return fixedNow }),
        "redis":  NewRedisReplayStore(cache),
    }
    for name, replays := range stores {
        t.Run(name, func(t *testing.T) {
            app, _ := signedAppWith(t, replays)
            _, key := newKey(t)
            body := `{"amount":100}`
            msg := auth.Request{Timestamp: fixedNow.Unix(), Nonce: name + "-w1", Method: fiber.MethodPost, Path: "/accounts", Body: []byte(body)}
            captured := auth.Sign(msg, key)

            send := func(nonce string) int {
                resp, err := app.Test(accountsRequest(body, fixedNow.Unix(), nonce, captured))
                if err != nil {
                    t.Fatalf("app.Test: %v", err)
                }
                return resp.StatusCode
            }
            if status := send(msg.Nonce); status != fiber.StatusNoContent {
                t.Fatalf("first use: got %d", status)
            }
            if status := send(msg.Nonce); status != fiber.StatusConflict {
                t.Fatalf("same request again: expected %d got %d", fiber.StatusConflict, status)
            }
            if status := send(name + "-fresh"); status != fiber.StatusUnauthorized {
                t.Fatalf("fresh key on captured signature: expected %d got %d", fiber.StatusUnauthorized, status)
            }

            resigned := msg
            resigned.Timestamp++
            resp, err := app.Test(accountsRequest(body, resigned.Timestamp, msg.Nonce, auth.Sign(resigned, key)))
            if err != nil {
                t.Fatalf("app.Test: %v", err)
            }
            if resp.StatusCode != fiber.StatusNoContent {
                t.Fatalf("re-signed retry: got %d", resp.StatusCode)
            }
        })
    }
}

func TestMemoryReplayStoreExpires(t *testing.T) {
    now := fixedNow
    store := NewMemoryReplayStore(func() time.Time { return now })
    ctx := context.Background()

    if ok, _ := store.Claim(ctx, "sig", time.Minute); !ok {
        t.Fatalf("first claim must succeed")
    }
    if ok, _ := store.Claim(ctx, "sig", time.Minute); ok {
        t.Fatalf("second claim must fail")
    }
    now = now.Add(time.Minute)
    if ok, _ := store.Claim(ctx, "sig", time.Minute); !ok {
        t.Fatalf("claim after expiry must succeed")
    }
}

func TestRateLimitPerSigner(t *testing.T) {
    mr, err := miniredis.Run()
    if err != nil {
        t.Fatalf("start miniredis: %v", err)
    }
    defer mr.Close()
    cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer cache.Close()

    app := fiber.New()
    app.Use(RateLimit(cache, 2))
    app.Post("/transfers", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

    send := func(signature string) int {
        req := httptest.NewRequest(fiber.MethodPost, "/transfers", nil)
        req.Header.Set(SignatureHeader, signature)
        resp, err := app.Test(req)
        if err != nil {
            t.Fatalf("app.Test: %v", err)
        }
        return resp.StatusCode
    }

    for i := 0; i < 2; i++ {
        if status := send("alice=sig"); status != fiber.StatusNoContent {
            t.Fatalf("request %d: got %d", i, status)
        }
    }
    if status := send("alice=sig"); status != fiber.StatusTooManyRequests {
        t.Fatalf("expected %d got %d", fiber.StatusTooManyRequests, status)
    }
    if status := send("bob=sig"); status != fiber.StatusNoContent {
        t.Fatalf("other signer throttled: %d", status)
    }
}
