package vault

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jambo-bank/jambo_bank/internal/accounts"
	"github.com/jambo-bank/jambo_bank/internal/address"
	"github.com/jambo-bank/jambo_bank/internal/auth"
)

// Handler exposes vault endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a vault handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type initializeRequest struct {
	Owner address.Pubkey `json:"owner"`
	Payer address.Pubkey `json:"payer"`
	Mint  address.Pubkey `json:"mint"`
}

type depositRequest struct {
	Mint            address.Pubkey `json:"mint"`
	Wallet          address.Pubkey `json:"wallet"`
	WalletAuthority address.Pubkey `json:"wallet_authority"`
	Amount          uint64         `json:"amount"`
}

type withdrawRequest struct {
	Mint   address.Pubkey `json:"mint"`
	Wallet address.Pubkey `json:"wallet"`
	Amount uint64         `json:"amount"`
}

type statusResponse struct {
	Mint         string `json:"mint"`
	Vault        string `json:"vault"`
	Authority    string `json:"authority"`
	Bump         uint8  `json:"bump"`
	Decimals     uint8  `json:"decimals"`
	TokenBalance uint64 `json:"token_balance"`
	Tokens       string `json:"tokens"`
	Created      bool   `json:"created"`
}

type resultResponse struct {
	TransactionID string `json:"transaction_id"`
	Amount        uint64 `json:"amount"`
	TokenUnits    uint64 `json:"token_units"`
	Tokens        string `json:"tokens"`
	Remainder     uint64 `json:"remainder"`
	Balance       uint64 `json:"balance"`
	BalanceTokens string `json:"balance_tokens"`
}

func toStatus(st Status) statusResponse {
	return statusResponse{
		Mint:         st.Mint.String(),
		Vault:        st.Vault.String(),
		Authority:    st.Authority.String(),
		Bump:         st.Bump,
		Decimals:     st.Decimals,
		TokenBalance: st.TokenBalance,
		Tokens:       FormatUnits(st.TokenBalance, st.Decimals),
		Created:      st.Created,
	}
}

func (h *Handler) toResult(r Result) resultResponse {
	return resultResponse{
		TransactionID: r.TransactionID,
		Amount:        r.Amount,
		TokenUnits:    r.TokenUnits,
		Tokens:        FormatUnits(r.TokenUnits, r.Decimals),
		Remainder:     r.Remainder,
		Balance:       r.Balance,
		BalanceTokens: FormatInternal(r.Balance, h.service.Scale()),
	}
}

// Initialize provisions the vault of a mint.
func (h *Handler) Initialize(c *fiber.Ctx) error {
	var req initializeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	st, err := h.service.Initialize(c.UserContext(), InitializeInput{
		Owner:   req.Owner,
		Payer:   req.Payer,
		Mint:    req.Mint,
		Signers: auth.SignersFromLocal(c.Locals(auth.SignersLocalKey)),
	})
	if err != nil {
		return err
	}
	status := http.StatusOK
	if st.Created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(toStatus(st))
}

// Status reports a vault.
func (h *Handler) Status(c *fiber.Ctx) error {
	mint, err := address.ParsePubkey(c.Params("mint"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	st, err := h.service.Inspect(c.UserContext(), mint)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toStatus(st))
}

// Deposit exchanges wallet tokens for internal balance.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	owner, id, err := accounts.PathKey(c)
	if err != nil {
		return err
	}
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Deposit(c.UserContext(), DepositInput{
		Owner:           owner,
		ID:              id,
		Mint:            req.Mint,
		Wallet:          req.Wallet,
		WalletAuthority: req.WalletAuthority,
		Amount:          req.Amount,
		Signers:         auth.SignersFromLocal(c.Locals(auth.SignersLocalKey)),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(h.toResult(res))
}

// Withdraw exchanges internal balance for vault tokens.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	owner, id, err := accounts.PathKey(c)
	if err != nil {
		return err
	}
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Withdraw(c.UserContext(), WithdrawInput{
		Owner:   owner,
		ID:      id,
		Mint:    req.Mint,
		Wallet:  req.Wallet,
		Amount:  req.Amount,
		Signers: auth.SignersFromLocal(c.Locals(auth.SignersLocalKey)),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(h.toResult(res))
}
