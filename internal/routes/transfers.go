package routes

import (
    "github.com/gofiber/fiber/v2"

    "github.com/jambo-bank/jambo_bank/internal/transfers"
)

// RegisterTransferRoutes wires balance transfer endpoints.
func RegisterTransferRoutes(r fiber.Router, h *transfers.Handler) {
    r.Post("/transfers", h.Transfer)
}
