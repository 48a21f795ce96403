package custody

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jambo-bank/jambo_bank/internal/address"
	"github.com/jambo-bank/jambo_bank/internal/auth"
	"github.com/jambo-bank/jambo_bank/internal/ledger"
)

// Handler exposes token administration over the built-in token program:
// creating mints and token accounts and issuing units. It is meant for
// development deployments that have no external token system.
type Handler struct {
	store   ledger.Store
	program *TokenProgram
}

// NewHandler builds a token administration handler.
func NewHandler(store ledger.Store, program *TokenProgram) *Handler {
	return &Handler{store: store, program: program}
}

type createMintRequest struct {
	Mint      address.Pubkey `json:"mint"`
	Decimals  uint8          `json:"decimals"`
	Authority address.Pubkey `json:"authority"`
	Payer     address.Pubkey `json:"payer"`
}

type createAccountRequest struct {
	Address address.Pubkey `json:"address"`
	Mint    address.Pubkey `json:"mint"`
	Owner   address.Pubkey `json:"owner"`
	Payer   address.Pubkey `json:"payer"`
}

type issueRequest struct {
	To        address.Pubkey `json:"to"`
	Authority address.Pubkey `json:"authority"`
	Amount    uint64         `json:"amount"`
}

type tokenAccountResponse struct {
	Address string `json:"address"`
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
	Amount  uint64 `json:"amount"`
}

func toAccountResponse(addr address.Pubkey, acc TokenAccount) tokenAccountResponse {
	return tokenAccountResponse{
		Address: addr.String(),
		Mint:    acc.Mint.String(),
		Owner:   acc.Owner.String(),
		Amount:  acc.Amount,
	}
}

// CreateMint allocates a mint paid for by a signing payer. The payer
// defaults to the mint authority.
func (h *Handler) CreateMint(c *fiber.Ctx) error {
	var req createMintRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Mint.IsZero() || req.Authority.IsZero() {
		return fiber.NewError(http.StatusBadRequest, "mint and authority are required")
	}
	payer := req.Payer
	if payer.IsZero() {
		payer = req.Authority
	}
	if err := requireSigner(c, payer); err != nil {
		return err
	}

	m := Mint{Decimals: req.Decimals, Authority: req.Authority}
	ctx := c.UserContext()
	if err := h.store.Update(ctx, func(tx ledger.Tx) error {
		return h.program.CreateMint(ctx, tx, req.Mint, m, payer)
	}); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"mint":      req.Mint.String(),
		"decimals":  m.Decimals,
		"supply":    m.Supply,
		"authority": m.Authority.String(),
	})
}

// CreateAccount opens an empty token account paid for by a signing payer.
// The payer defaults to the account owner.
func (h *Handler) CreateAccount(c *fiber.Ctx) error {
	var req createAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Address.IsZero() || req.Owner.IsZero() {
		return fiber.NewError(http.StatusBadRequest, "address and owner are required")
	}
	payer := req.Payer
	if payer.IsZero() {
		payer = req.Owner
	}
	if err := requireSigner(c, payer); err != nil {
		return err
	}

	ctx := c.UserContext()
	if err := h.store.Update(ctx, func(tx ledger.Tx) error {
		return h.program.CreateAccount(ctx, tx, req.Address, req.Mint, req.Owner, payer)
	}); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toAccountResponse(req.Address, TokenAccount{Mint: req.Mint, Owner: req.Owner}))
}

// Issue mints new units of :mint into a token account. The mint authority
// must sign.
func (h *Handler) Issue(c *fiber.Ctx) error {
	mint, err := address.ParsePubkey(c.Params("mint"))
	if err != nil {
		return err
	}
	var req issueRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := requireSigner(c, req.Authority); err != nil {
		return err
	}

	ctx := c.UserContext()
	var acc TokenAccount
	if err := h.store.Update(ctx, func(tx ledger.Tx) error {
		if err := h.program.MintTo(ctx, tx, mint, req.To, req.Authority, req.Amount); err != nil {
			return err
		}
		acc, err = h.program.Account(ctx, tx, req.To)
		return err
	}); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toAccountResponse(req.To, acc))
}

// Account returns a token account and its holdings.
func (h *Handler) Account(c *fiber.Ctx) error {
	addr, err := address.ParsePubkey(c.Params("address"))
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	var acc TokenAccount
	if err := h.store.View(ctx, func(tx ledger.Tx) error {
		acc, err = h.program.Account(ctx, tx, addr)
		return err
	}); err != nil {
		return err
	}
	return c.JSON(toAccountResponse(addr, acc))
}

func requireSigner(c *fiber.Ctx, key address.Pubkey) error {
	if !auth.SignersFromLocal(c.Locals(auth.SignersLocalKey)).Contains(key) {
		return fmt.Errorf("%w: %s must sign", auth.ErrUnauthorized, key)
	}
	return nil
}
