package routes

import (
    "errors"
    "log/slog"
    "net/http"
    "strings"

    "github.com/gofiber/fiber/v2"

    "github.com/jambo-bank/jambo_bank/internal/accounts"
    "github.com/jambo-bank/jambo_bank/internal/address"
    "github.com/jambo-bank/jambo_bank/internal/auth"
    "github.com/jambo-bank/jambo_bank/internal/custody"
    "github.com/jambo-bank/jambo_bank/internal/ledger"
    "github.com/jambo-bank/jambo_bank/internal/vault"
)

type errorKind struct {
    err    error
    status int
    code   string
}

// Checked in order; the first match wins.
var errorKinds = []errorKind{
    {custody.ErrExternalTransferFailed, http.StatusUnprocessableEntity, "external_transfer_failed"},
    {auth.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
    {vault.ErrAmountTooSmall, http.StatusBadRequest, "amount_too_small"},
    {vault.ErrAmountTooBig, http.StatusUnprocessableEntity, "amount_too_big"},
    {ledger.ErrInsufficientBalance, http.StatusUnprocessableEntity, "insufficient_balance"},
    {accounts.ErrBalanceNotZero, http.StatusConflict, "balance_not_zero"},
    {ledger.ErrArithmeticOverflow, http.StatusUnprocessableEntity, "arithmetic_overflow"},
    {ledger.ErrArithmeticUnderflow, http.StatusUnprocessableEntity, "arithmetic_underflow"},
    {ledger.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
    {accounts.ErrAccountExists, http.StatusConflict, "account_exists"},
    {address.ErrInvalidID, http.StatusBadRequest, "invalid_id"},
    {address.ErrInvalidPubkey, http.StatusBadRequest, "invalid_request"},
    {vault.ErrVaultNotInitialized, http.StatusNotFound, "vault_not_initialized"},
    {custody.ErrMintNotFound, http.StatusNotFound, "mint_not_found"},
    {custody.ErrTokenAccountNotFound, http.StatusNotFound, "token_account_not_found"},
    {custody.ErrAccountInUse, http.StatusConflict, "address_in_use"},
    {ledger.ErrConflict, http.StatusConflict, "conflict"},
}

// ErrorHandler renders every error as {"error": {"code", "message"}} with a
// status chosen by error kind.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
    return func(c *fiber.Ctx, err error) error {
        status, code := classify(err)
        if status >= http.StatusInternalServerError && logger != nil {
            logger.ErrorContext(c.UserContext(), "request error", "path", c.Path(), "error", err)
        }
        message := err.Error()
        if status == http.StatusInternalServerError {
            message = "internal error"
        }
        return c.Status(status).JSON(fiber.Map{
            "error": fiber.Map{"code": code, "message": message},
        })
    }
}

func classify(err error) (int, string) {
    for _, k := range errorKinds {
        if errors.Is(err, k.err) {
            return k.status, k.code
        }
    }
    var fe *fiber.Error
    if errors.As(err, &fe) {
        if fe.Code == http.StatusBadRequest {
            return fe.Code, "invalid_request"
        }
        return fe.Code, strings.ReplaceAll(strings.ToLower(http.StatusText(fe.Code)), " ", "_")
    }
    return http.StatusInternalServerError, "internal"
}
