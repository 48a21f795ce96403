package routes

import (
    "github.com/gofiber/fiber/v2"

    "github.com/jambo-bank/jambo_bank/internal/accounts"
)

// RegisterAccountRoutes wires account lifecycle endpoints.
func RegisterAccountRoutes(r fiber.Router, h *accounts.Handler) {
    r.Post("/accounts", h.Create)
    r.Get("/accounts/:owner/:id", h.Get)
    r.Delete("/accounts/:owner/:id", h.Remove)
}
