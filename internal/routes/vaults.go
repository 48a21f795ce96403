package routes

import (
    "github.com/gofiber/fiber/v2"

    "github.com/jambo-bank/jambo_bank/internal/custody"
    "github.com/jambo-bank/jambo_bank/internal/vault"
)

// RegisterVaultRoutes wires vault and token exchange endpoints.
func RegisterVaultRoutes(r fiber.Router, h *vault.Handler) {
    r.Post("/vaults", h.Initialize)
    r.Get("/vaults/:mint", h.Status)
    r.Post("/accounts/:owner/:id/deposit", h.Deposit)
    r.Post("/accounts/:owner/:id/withdraw", h.Withdraw)
}

// RegisterTokenRoutes wires the development token administration endpoints.
func RegisterTokenRoutes(r fiber.Router, h *custody.Handler) {
    tokens := r.Group("/tokens")
    tokens.Post("/mints", h.CreateMint)
    tokens.Post("/mints/:mint/issue", h.Issue)
    tokens.Post("/accounts", h.CreateAccount)
    tokens.Get("/accounts/:address", h.Account)
}
