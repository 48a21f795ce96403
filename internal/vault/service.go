package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jambo-bank/jambo_bank/internal/address"
	"github.com/jambo-bank/jambo_bank/internal/auth"
	"github.com/jambo-bank/jambo_bank/internal/custody"
	"github.com/jambo-bank/jambo_bank/internal/events"
	"github.com/jambo-bank/jambo_bank/internal/ledger"
)

// Service exchanges internal balance for tokens held in the pooled vault.
type Service struct {
	store     ledger.Store
	guard     *auth.Guard
	deriver   address.Deriver
	custodian custody.Custodian
	publisher events.Publisher
	scale     uint64
	logger    *slog.Logger
}

// NewService builds a vault service. A zero scale falls back to DefaultScale.
func NewService(store ledger.Store, guard *auth.Guard, deriver address.Deriver, custodian custody.Custodian, publisher events.Publisher, scale uint64, logger *slog.Logger) (*Service, error) {
	if custodian == nil {
		return nil, fmt.Errorf("custodian is required")
	}
	if scale == 0 {
		scale = DefaultScale
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		store:     store,
		guard:     guard,
		deriver:   deriver,
		custodian: custodian,
		publisher: publisher,
		scale:     scale,
		logger:    logger,
	}, nil
}

// Scale returns the number of internal units per whole token.
func (s *Service) Scale() uint64 {
	return s.scale
}

// InitializeInput captures the data required to open a vault.
type InitializeInput struct {
	Owner   address.Pubkey
	Payer   address.Pubkey
	Mint    address.Pubkey
	Signers auth.Signers
}

// Initialize provisions the vault authority and the vault token account for
// mint. Calling it again for the same mint changes nothing.
func (s *Service) Initialize(ctx context.Context, in InitializeInput) (Status, error) {
	if err := s.guard.Authorize(in.Owner, in.Signers); err != nil {
		return Status{}, err
	}
	payer := in.Payer
	if payer.IsZero() {
		payer = in.Owner
	}
	if !in.Signers.Contains(payer) {
		return Status{}, fmt.Errorf("%w: payer %s did not sign", auth.ErrUnauthorized, payer)
	}
	authority, err := s.deriver.VaultAuthority(in.Owner)
	if err != nil {
		return Status{}, err
	}
	vault, err := s.deriver.Vault(in.Mint)
	if err != nil {
		return Status{}, err
	}

	var st Status
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		if _, err := tx.Get(ctx, authority.Address); errors.Is(err, ledger.ErrRecordNotFound) {
			rec := ledger.Record{Data: authorityRecord(authority.Bump), Payer: payer}
			if err := tx.Put(ctx, authority.Address, rec); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		created, err := s.custodian.EnsureAccount(ctx, tx, vault.Address, in.Mint, authority.Address, payer)
		if err != nil {
			return err
		}
		decimals, err := s.custodian.Decimals(ctx, tx, in.Mint)
		if err != nil {
			return err
		}
		st = Status{
			Mint:      in.Mint,
			Vault:     vault.Address,
			Authority: authority.Address,
			Bump:      authority.Bump,
			Decimals:  decimals,
			Created:   created,
		}
		return nil
	})
	if err != nil {
		return Status{}, err
	}

	if st.Created {
		s.publish(ctx, events.New(events.KindVaultReady, in.Owner, nil, nil, 0))
	}
	return st, nil
}

// Inspect reports the vault of mint under the configured owner. TokenBalance
// is filled when the custodian is a BalanceReader.
func (s *Service) Inspect(ctx context.Context, mint address.Pubkey) (Status, error) {
	authority, err := s.deriver.VaultAuthority(s.guard.Owner())
	if err != nil {
		return Status{}, err
	}
	vault, err := s.deriver.Vault(mint)
	if err != nil {
		return Status{}, err
	}
	st := Status{Mint: mint, Vault: vault.Address, Authority: authority.Address, Bump: authority.Bump}
	err = s.store.View(ctx, func(tx ledger.Tx) error {
		if _, err := tx.Get(ctx, vault.Address); err != nil {
			if errors.Is(err, ledger.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrVaultNotInitialized, mint)
			}
			return err
		}
		if st.Decimals, err = s.custodian.Decimals(ctx, tx, mint); err != nil {
			return err
		}
		if r, ok := s.custodian.(custody.BalanceReader); ok {
			if st.TokenBalance, err = r.Balance(ctx, tx, vault.Address); err != nil {
				return err
			}
		}
		return nil
	})
	return st, err
}

// DepositInput captures a deposit of tokens from wallet into the vault.
type DepositInput struct {
	Owner           address.Pubkey
	ID              []byte
	Mint            address.Pubkey
	Wallet          address.Pubkey
	WalletAuthority address.Pubkey
	Amount          uint64
	Signers         auth.Signers
}

// Deposit credits amount to the account and moves the converted tokens from
// the wallet into the vault. Both happen or neither does.
func (s *Service) Deposit(ctx context.Context, in DepositInput) (Result, error) {
	if err := s.guard.Authorize(in.Owner, in.Signers); err != nil {
		return Result{}, err
	}
	if in.Amount == 0 {
		return Result{}, ErrAmountTooSmall
	}
	account, err := s.deriver.BankAccount(in.Owner, in.ID)
	if err != nil {
		return Result{}, err
	}
	vault, err := s.deriver.Vault(in.Mint)
	if err != nil {
		return Result{}, err
	}
	if err := checkWallet(in.Wallet, vault); err != nil {
		return Result{}, err
	}

	var res Result
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		acc, err := ledger.GetAccount(ctx, tx, account.Address)
		if err != nil {
			return err
		}
		if err := acc.Credit(in.Amount); err != nil {
			return err
		}
		if err := ledger.PutAccount(ctx, tx, acc); err != nil {
			return err
		}

		if res, err = s.convert(ctx, tx, in.Mint, in.Amount); err != nil {
			return err
		}
		res.Balance = acc.Balance

		return s.custodian.MoveTokens(ctx, tx, custody.Movement{
			From:   in.Wallet,
			To:     vault.Address,
			Mint:   in.Mint,
			Amount: res.TokenUnits,
			Authority: custody.Authority{
				Key:    in.WalletAuthority,
				Signed: in.Signers.Contains(in.WalletAuthority),
			},
		})
	})
	if err != nil {
		return Result{}, err
	}

	ev := events.New(events.KindDeposit, in.Owner, nil, in.ID, in.Amount)
	ev.TokenUnits = res.TokenUnits
	s.publish(ctx, ev)
	res.TransactionID = ev.ID
	return res, nil
}

// WithdrawInput captures a withdrawal of tokens from the vault into wallet.
type WithdrawInput struct {
	Owner   address.Pubkey
	ID      []byte
	Mint    address.Pubkey
	Wallet  address.Pubkey
	Amount  uint64
	Signers auth.Signers
}

// Withdraw debits amount from the account and moves the converted tokens
// from the vault to the wallet under the derived vault authority.
func (s *Service) Withdraw(ctx context.Context, in WithdrawInput) (Result, error) {
	if err := s.guard.Authorize(in.Owner, in.Signers); err != nil {
		return Result{}, err
	}
	account, err := s.deriver.BankAccount(in.Owner, in.ID)
	if err != nil {
		return Result{}, err
	}
	vault, err := s.deriver.Vault(in.Mint)
	if err != nil {
		return Result{}, err
	}
	if err := checkWallet(in.Wallet, vault); err != nil {
		return Result{}, err
	}
	authority, err := s.deriver.VaultAuthority(in.Owner)
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		acc, err := ledger.GetAccount(ctx, tx, account.Address)
		if err != nil {
			return err
		}
		if in.Amount > acc.Balance {
			return fmt.Errorf("%w: balance %d, requested %d", ErrAmountTooBig, acc.Balance, in.Amount)
		}
		if err := acc.Debit(in.Amount); err != nil {
			return err
		}
		if err := ledger.PutAccount(ctx, tx, acc); err != nil {
			return err
		}

		if res, err = s.convert(ctx, tx, in.Mint, in.Amount); err != nil {
			return err
		}
		res.Balance = acc.Balance

		return s.custodian.MoveTokens(ctx, tx, custody.Movement{
			From:   vault.Address,
			To:     in.Wallet,
			Mint:   in.Mint,
			Amount: res.TokenUnits,
			Authority: custody.Authority{
				Key:   authority.Address,
				Seeds: authority.SignerSeeds(),
			},
		})
	})
	if err != nil {
		return Result{}, err
	}

	ev := events.New(events.KindWithdraw, in.Owner, in.ID, nil, in.Amount)
	ev.TokenUnits = res.TokenUnits
	s.publish(ctx, ev)
	res.TransactionID = ev.ID
	return res, nil
}

// checkWallet refuses the vault itself as the counterparty wallet; a
// vault-to-vault movement would change the balance without moving tokens.
func checkWallet(wallet address.Pubkey, vault address.Derived) error {
	if wallet == vault.Address {
		return fmt.Errorf("%w: wallet is the vault %s", custody.ErrExternalTransferFailed, vault.Address)
	}
	return nil
}

func (s *Service) convert(ctx context.Context, tx ledger.Tx, mint address.Pubkey, amount uint64) (Result, error) {
	decimals, err := s.custodian.Decimals(ctx, tx, mint)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", custody.ErrExternalTransferFailed, err)
	}
	units, rem, err := ToTokenUnits(amount, decimals, s.scale)
	if err != nil {
		return Result{}, err
	}
	return Result{Amount: amount, TokenUnits: units, Remainder: rem, Decimals: decimals}, nil
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "publish event", "kind", ev.Kind, "error", err)
	}
}
