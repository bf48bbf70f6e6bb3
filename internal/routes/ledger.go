package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fintrack/fintrack/internal/ledger"
)

// RegisterLedgerRoutes wires account, transaction, loan and dashboard endpoints.
func RegisterLedgerRoutes(r fiber.Router, h *ledger.Handler) {
	r.Get("/accounts", h.ListAccounts)
	r.Post("/accounts", h.CreateAccount)
	r.Patch("/accounts/:id", h.UpdateAccount)
	r.Delete("/accounts/:id", h.DeleteAccount)
	r.Get("/accounts/:id/transactions", h.AccountTransactions)

	r.Get("/transactions", h.ListTransactions)
	r.Post("/transactions", h.CreateTransaction)

	r.Get("/loans", h.ListLoans)
	r.Post("/loans", h.ApplyLoan)
	r.Patch("/loans/:id", h.UpdateLoan)
	r.Delete("/loans/:id", h.DeleteLoan)

	r.Get("/dashboard", h.Dashboard)
}
