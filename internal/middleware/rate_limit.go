package middleware

import (
    "net/http"
    "strings"
    "time"

    "github.com/gofiber/fiber/v2"
    "github.com/redis/go-redis/v9"
)

// RateLimit caps mutating requests per signing key (or per IP for unsigned
// requests) using Redis if available.
func RateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
    if maxPerMin <= 0 {
        maxPerMin = 60
    }
    return func(c *fiber.Ctx) error {
        if cache == nil {
            return c.Next() // no-op without Redis
        }
        switch c.Method() {
        case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
            return c.Next()
        }
        key := "rl:mutations:" + rateLimitSubject(c)
        cnt, err := cache.Incr(c.UserContext(), key).Result()
        if err != nil {
            return c.Next() // fail-open on cache errors
        }
        if cnt == 1 {
            cache.Expire(c.UserContext(), key, time.Minute)
        }
        if cnt > int64(maxPerMin) {
            return fiber.NewError(http.StatusTooManyRequests, "too many requests, try again later")
        }
        return c.Next()
    }
}

func rateLimitSubject(c *fiber.Ctx) string {
    header := c.Get(SignatureHeader)
    if i := strings.IndexAny(header, "=,"); i > 0 {
        return strings.TrimSpace(header[:i])
    }
    return c.IP()
}
