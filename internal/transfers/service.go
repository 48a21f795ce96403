package transfers

import (
    "bytes"
    "context"
    "log/slog"
    "time"

    "github.com/jambo-bank/jambo_bank/internal/address"
    "github.com/jambo-bank/jambo_bank/internal/auth"
    "github.com/jambo-bank/jambo_bank/internal/events"
    "github.com/jambo-bank/jambo_bank/internal/ledger"
)

// Service moves internal balance between accounts of the same owner.
type Service struct {
    store     ledger.Store
    guard     *auth.Guard
    deriver   address.Deriver
    publisher events.Publisher
    logger    *slog.Logger
}

// NewService constructs a transfer service.
func NewService(store ledger.Store, guard *auth.Guard, deriver address.Deriver, publisher events.Publisher, logger *slog.Logger) *Service {
    if publisher == nil {
        publisher = events.Nop{}
    }
    return &Service{store: store, guard: guard, deriver: deriver, publisher: publisher, logger: logger}
}

// TransferInput captures the data needed to move balance.
type TransferInput struct {
    Owner   address.Pubkey
    FromID  []byte
    ToID    []byte
    Amount  uint64
    Signers auth.Signers
}

// TransferResult describes the balances after a transfer.
type TransferResult struct {
    TransactionID string
    FromBalance   uint64
    ToBalance     uint64
    CompletedAt   time.Time
}

// Transfer debits FromID and credits ToID in one unit of work. A transfer
// to the same account succeeds and leaves the balance unchanged.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (TransferResult, error) {
    if err := s.guard.Authorize(in.Owner, in.Signers); err != nil {
        return TransferResult{}, err
    }
    from, err := s.deriver.BankAccount(in.Owner, in.FromID)
    if err != nil {
        return TransferResult{}, err
    }
    to, err := s.deriver.BankAccount(in.Owner, in.ToID)
    if err != nil {
        return TransferResult{}, err
    }
    self := bytes.Equal(in.FromID, in.ToID)

    var res TransferResult
    err = s.store.Update(ctx, func(tx ledger.Tx) error {
        src, err := ledger.GetAccount(ctx, tx, from.Address)
        if err != nil {
            return err
        }
        dst := src
        if !self {
            if dst, err = ledger.GetAccount(ctx, tx, to.Address); err != nil {
                return err
            }
        }

        if err := src.Debit(in.Amount); err != nil {
            return err
        }
        if err := dst.Credit(in.Amount); err != nil {
            return err
        }

        if err := ledger.PutAccount(ctx, tx, src); err != nil {
            return err
        }
        if !self {
            if err := ledger.PutAccount(ctx, tx, dst); err != nil {
                return err
            }
        }
        res.FromBalance = src.Balance
        res.ToBalance = dst.Balance
        return nil
    })
    if err != nil {
        return TransferResult{}, err
    }

    ev := events.New(events.KindTransfer, in.Owner, in.FromID, in.ToID, in.Amount)
    if err := s.publisher.Publish(ctx, ev); err != nil && s.logger != nil {
        s.logger.WarnContext(ctx, "publish event", "kind", ev.Kind, "error", err)
    }
    res.TransactionID = ev.ID
    res.CompletedAt = ev.OccurredAt
    return res, nil
}
