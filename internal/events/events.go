package events

import (
    "context"
    "encoding/hex"
    "log/slog"
    "time"

    "github.com/google/uuid"

    "github.com/jambo-bank/jambo_bank/internal/address"
)

const (
    KindAccountCreated = "account_created"
    KindAccountRemoved = "account_removed"
    KindTransfer       = "transfer"
    KindDeposit        = "deposit"
    KindWithdraw       = "withdraw"
    KindVaultReady     = "vault_initialized"
)

// Event describes a committed balance change.
type Event struct {
    ID         string         `json:"id"`
    Kind       string         `json:"kind"`
    Owner      address.Pubkey `json:"owner"`
    FromID     string         `json:"from_id,omitempty"`
    ToID       string         `json:"to_id,omitempty"`
    Amount     uint64         `json:"amount"`
    TokenUnits uint64         `json:"token_units,omitempty"`
    OccurredAt time.Time      `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time. Ids are hex
// encoded the same way they appear in request paths.
func New(kind string, owner address.Pubkey, fromID, toID []byte, amount uint64) Event {
    ev := Event{
        ID:         uuid.NewString(),
        Kind:       kind,
        Owner:      owner,
        Amount:     amount,
        OccurredAt: time.Now().UTC(),
    }
    if len(fromID) > 0 {
        ev.FromID = hex.EncodeToString(fromID)
    }
    if len(toID) > 0 {
        ev.ToID = hex.EncodeToString(toID)
    }
    return ev
}

// Publisher delivers events to downstream systems.
type Publisher interface {
    Publish(ctx context.Context, ev Event) error
}

// LoggerPublisher writes events to the structured logger.
type LoggerPublisher struct {
    logger *slog.Logger
}

// NewLoggerPublisher constructs a logging publisher.
func NewLoggerPublisher(logger *slog.Logger) *LoggerPublisher {
    return &LoggerPublisher{logger: logger}
}

// Publish writes the event to the structured logger.
func (p *LoggerPublisher) Publish(_ context.Context, ev Event) error {
    if p == nil || p.logger == nil {
        return nil
    }
    p.logger.Info("event",
        "id", ev.ID,
        "kind", ev.Kind,
        "owner", ev.Owner.String(),
        "from_id", ev.FromID,
        "to_id", ev.ToID,
        "amount", ev.Amount,
        "token_units", ev.TokenUnits,
    )
    return nil
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }
