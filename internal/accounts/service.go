package accounts

import (
    "context"
    "errors"
    "fmt"
    "log/slog"

    "github.com/jambo-bank/jambo_bank/internal/address"
    "github.com/jambo-bank/jambo_bank/internal/auth"
    "github.com/jambo-bank/jambo_bank/internal/events"
    "github.com/jambo-bank/jambo_bank/internal/ledger"
)

// Service manages the lifecycle of bank accounts.
type Service struct {
    store     ledger.Store
    guard     *auth.Guard
    deriver   address.Deriver
    publisher events.Publisher
    mode      CreateMode
    logger    *slog.Logger
}

// NewService builds an account service. An empty mode means CreateReject.
func NewService(store ledger.Store, guard *auth.Guard, deriver address.Deriver, publisher events.Publisher, mode CreateMode, logger *slog.Logger) *Service {
    if mode == "" {
        mode = CreateReject
    }
    if publisher == nil {
        publisher = events.Nop{}
    }
    return &Service{store: store, guard: guard, deriver: deriver, publisher: publisher, mode: mode, logger: logger}
}

// CreateInput captures data required to open an account.
type CreateInput struct {
    Owner   address.Pubkey
    Payer   address.Pubkey
    ID      []byte
    Signers auth.Signers
}

// CreateResult reports the account and whether it was already present.
type CreateResult struct {
    Account Account
    Existed bool
}

// Create opens a zero-balance account at the address derived from (owner, id).
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
    if err := s.guard.Authorize(in.Owner, in.Signers); err != nil {
        return CreateResult{}, err
    }
    payer := in.Payer
    if payer.IsZero() {
        payer = in.Owner
    }
    if !in.Signers.Contains(payer) {
        return CreateResult{}, fmt.Errorf("%w: payer %s did not sign", auth.ErrUnauthorized, payer)
    }
    derived, err := s.deriver.BankAccount(in.Owner, in.ID)
    if err != nil {
        return CreateResult{}, err
    }

    var res CreateResult
    err = s.store.Update(ctx, func(tx ledger.Tx) error {
        existing, err := ledger.GetAccount(ctx, tx, derived.Address)
        switch {
        case err == nil:
            if s.mode == CreateNoop {
                res = CreateResult{Account: view(in.Owner, existing), Existed: true}
                return nil
            }
            return fmt.Errorf("%w: %s", ErrAccountExists, derived.Address)
        case !errors.Is(err, ledger.ErrAccountNotFound):
            return err
        }

        acc := &ledger.Account{
            BankAccount: ledger.BankAccount{ID: append([]byte(nil), in.ID...)},
            Address:     derived.Address,
            Payer:       payer,
        }
        if err := ledger.PutAccount(ctx, tx, acc); err != nil {
            return err
        }
        res = CreateResult{Account: view(in.Owner, acc)}
        return nil
    })
    if err != nil {
        return CreateResult{}, err
    }

    if !res.Existed {
        s.publish(ctx, events.New(events.KindAccountCreated, in.Owner, nil, in.ID, 0))
    }
    return res, nil
}

// RemoveInput identifies the account to close.
type RemoveInput struct {
    Owner   address.Pubkey
    ID      []byte
    Signers auth.Signers
}

// Remove closes an empty account. The returned account carries the payer
// that receives the reclaimed storage deposit.
func (s *Service) Remove(ctx context.Context, in RemoveInput) (Account, error) {
    if err := s.guard.Authorize(in.Owner, in.Signers); err != nil {
        return Account{}, err
    }
    derived, err := s.deriver.BankAccount(in.Owner, in.ID)
    if err != nil {
        return Account{}, err
    }

    var removed Account
    err = s.store.Update(ctx, func(tx ledger.Tx) error {
        acc, err := ledger.GetAccount(ctx, tx, derived.Address)
        if err != nil {
            return err
        }
        if acc.Balance > 0 {
            return fmt.Errorf("%w: %d remaining", ErrBalanceNotZero, acc.Balance)
        }
        removed = view(in.Owner, acc)
        return tx.Delete(ctx, derived.Address)
    })
    if err != nil {
        return Account{}, err
    }

    s.publish(ctx, events.New(events.KindAccountRemoved, in.Owner, in.ID, nil, 0))
    return removed, nil
}

// Get reads the account for (owner, id).
func (s *Service) Get(ctx context.Context, owner address.Pubkey, id []byte) (Account, error) {
    derived, err := s.deriver.BankAccount(owner, id)
    if err != nil {
        return Account{}, err
    }
    var out Account
    err = s.store.View(ctx, func(tx ledger.Tx) error {
        acc, err := ledger.GetAccount(ctx, tx, derived.Address)
        if err != nil {
            return err
        }
        out = view(owner, acc)
        return nil
    })
    return out, err
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
    if err := s.publisher.Publish(ctx, ev); err != nil && s.logger != nil {
        s.logger.WarnContext(ctx, "publish event", "kind", ev.Kind, "error", err)
    }
}

func view(owner address.Pubkey, acc *ledger.Account) Account {
    return Account{
        Owner:   owner,
        ID:      append([]byte(nil), acc.ID...),
        Address: acc.Address,
        Balance: acc.Balance,
        Payer:   acc.Payer,
    }
}
