package transfers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jambo-bank/jambo_bank/internal/address"
	"github.com/jambo-bank/jambo_bank/internal/auth"
)

// Handler exposes transfer endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	Owner  address.Pubkey `json:"owner"`
	FromID string         `json:"from_id"`
	ToID   string         `json:"to_id"`
	Amount uint64         `json:"amount"`
}

// Transfer moves balance between two accounts of the owner.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	fromID, err := address.ParseHexID(req.FromID)
	if err != nil {
		return err
	}
	toID, err := address.ParseHexID(req.ToID)
	if err != nil {
		return err
	}

	res, err := h.service.Transfer(c.UserContext(), TransferInput{
		Owner:   req.Owner,
		FromID:  fromID,
		ToID:    toID,
		Amount:  req.Amount,
		Signers: auth.SignersFromLocal(c.Locals(auth.SignersLocalKey)),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"from_balance":   res.FromBalance,
		"to_balance":     res.ToBalance,
		"completed_at":   res.CompletedAt,
	})
}
