package accounts

import (
	"encoding/hex"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jambo-bank/jambo_bank/internal/address"
	"github.com/jambo-bank/jambo_bank/internal/auth"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Owner address.Pubkey `json:"owner"`
	Payer address.Pubkey `json:"payer"`
	ID    string         `json:"id"`
}

type accountResponse struct {
	Owner   string `json:"owner"`
	ID      string `json:"id"`
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Payer   string `json:"payer"`
}

func toResponse(a Account) accountResponse {
	return accountResponse{
		Owner:   a.Owner.String(),
		ID:      hex.EncodeToString(a.ID),
		Address: a.Address.String(),
		Balance: a.Balance,
		Payer:   a.Payer.String(),
	}
}

// Create opens an account for the configured owner.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	id, err := address.ParseHexID(req.ID)
	if err != nil {
		return err
	}
	res, err := h.service.Create(c.UserContext(), CreateInput{
		Owner:   req.Owner,
		Payer:   req.Payer,
		ID:      id,
		Signers: auth.SignersFromLocal(c.Locals(auth.SignersLocalKey)),
	})
	if err != nil {
		return err
	}
	status := http.StatusCreated
	if res.Existed {
		status = http.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"account": toResponse(res.Account),
		"existed": res.Existed,
	})
}

// Get returns the account balance.
func (h *Handler) Get(c *fiber.Ctx) error {
	owner, id, err := PathKey(c)
	if err != nil {
		return err
	}
	acc, err := h.service.Get(c.UserContext(), owner, id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(acc))
}

// Remove closes an empty account.
func (h *Handler) Remove(c *fiber.Ctx) error {
	owner, id, err := PathKey(c)
	if err != nil {
		return err
	}
	acc, err := h.service.Remove(c.UserContext(), RemoveInput{
		Owner:   owner,
		ID:      id,
		Signers: auth.SignersFromLocal(c.Locals(auth.SignersLocalKey)),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"removed":   toResponse(acc),
		"refund_to": acc.Payer.String(),
	})
}

// PathKey parses the :owner and :id route parameters.
func PathKey(c *fiber.Ctx) (address.Pubkey, []byte, error) {
	owner, err := address.ParsePubkey(c.Params("owner"))
	if err != nil {
		return address.Zero, nil, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	id, err := address.ParseHexID(c.Params("id"))
	if err != nil {
		return address.Zero, nil, err
	}
	return owner, id, nil
}
