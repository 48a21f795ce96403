package routes

import (
    "fmt"
    "log/slog"

    "github.com/gofiber/fiber/v2"
    "github.com/gofiber/fiber/v2/middleware/logger"
    "github.com/gofiber/fiber/v2/middleware/recover"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/redis/go-redis/v9"
    "github.com/segmentio/kafka-go"

    "github.com/jambo-bank/jambo_bank/internal/accounts"
    "github.com/jambo-bank/jambo_bank/internal/address"
    "github.com/jambo-bank/jambo_bank/internal/auth"
    "github.com/jambo-bank/jambo_bank/internal/config"
    "github.com/jambo-bank/jambo_bank/internal/custody"
    "github.com/jambo-bank/jambo_bank/internal/events"
    "github.com/jambo-bank/jambo_bank/internal/ledger"
    "github.com/jambo-bank/jambo_bank/internal/middleware"
    "github.com/jambo-bank/jambo_bank/internal/transfers"
    "github.com/jambo-bank/jambo_bank/internal/vault"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
    Cfg    config.Config
    DB     *pgxpool.Pool
    Cache  *redis.Client
    Kafka  *kafka.Writer
    Logger *slog.Logger

    // Store and Custodian override the backends derived from DB.
    Store     ledger.Store
    Custodian custody.Custodian
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
    // Enforce DB/Redis presence outside of dev, even though config also checks.
    if !d.Cfg.IsDev() {
        if d.DB == nil && d.Store == nil {
            return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
        }
        if d.Cache == nil {
            return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
        }
    }
    if d.Cfg.Owner.IsZero() {
        return fmt.Errorf("owner key is required")
    }

    // Middlewares
    app.Use(recover.New())
    app.Use(middleware.RequestID())
    // Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
    app.Use(logger.New(logger.Config{
        Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
        TimeFormat: "15:04:05",
        TimeZone:   "Local",
    }))
    app.Use(middleware.Audit(d.Logger))
    var replays middleware.ReplayStore = middleware.NewMemoryReplayStore(nil)
    if d.Cache != nil {
        replays = middleware.NewRedisReplayStore(d.Cache)
    }
    app.Use(middleware.SignatureAuth(d.Cfg.SignatureMaxSkew, replays, nil))
    app.Use(middleware.RateLimit(d.Cache, d.Cfg.RateLimitPerMin))
    if d.Cache != nil {
        app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
    }

    // Health
    RegisterHealthRoutes(app, d)

    // Services and handlers
    store := d.Store
    if store == nil {
        if d.DB != nil {
            store = ledger.NewPostgresStore(d.DB)
        } else {
            store = ledger.NewInMemory()
        }
    }
    deriver := address.NewDeriver(d.Cfg.ProgramID)
    guard := auth.NewGuard(d.Cfg.Owner)
    custodian := d.Custodian
    if custodian == nil {
        custodian = custody.NewTokenProgram(deriver)
    }
    var stream events.MessageWriter
    if d.Kafka != nil {
        stream = d.Kafka
    }
    publisher := newPublisher(d.Logger, stream)

    accountSvc := accounts.NewService(store, guard, deriver, publisher, accounts.CreateMode(d.Cfg.AccountCreateMode), d.Logger)
    transferSvc := transfers.NewService(store, guard, deriver, publisher, d.Logger)
    vaultSvc, err := vault.NewService(store, guard, deriver, custodian, publisher, d.Cfg.UnitScale, d.Logger)
    if err != nil {
        return err
    }

    // API routes
    api := app.Group("/api/v1")
    RegisterAccountRoutes(api, accounts.NewHandler(accountSvc))
    RegisterTransferRoutes(api, transfers.NewHandler(transferSvc))
    RegisterVaultRoutes(api, vault.NewHandler(vaultSvc))
    if program, ok := custodian.(*custody.TokenProgram); ok && d.Cfg.TokenAdmin {
        RegisterTokenRoutes(api, custody.NewHandler(store, program))
    }

    return nil
}

// newPublisher always logs events and, when a stream is configured, also
// sends them to Kafka.
func newPublisher(logger *slog.Logger, stream events.MessageWriter) events.Publisher {
    logged := events.NewLoggerPublisher(logger)
    if stream == nil {
        return logged
    }
    return events.Multi{logged, events.NewKafkaPublisher(stream, "", logger)}
}
