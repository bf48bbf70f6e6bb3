package ledger

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/countries"
)

const recentTransactions = 5

// Handler exposes ledger HTTP endpoints for the authenticated session.
type Handler struct {
	service *Service
	now     func() time.Time
	loc     *time.Location
}

// NewHandler builds a ledger HTTP handler. Weekly buckets use loc.
func NewHandler(service *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, now: time.Now, loc: loc}
}

type accountRequest struct {
	Name           string          `json:"name"`
	Kind           AccountKind     `json:"kind"`
	Balance        decimal.Decimal `json:"balance"`
	Currency       string          `json:"currency"`
	Color          string          `json:"color"`
	LastFourDigits string          `json:"last_four_digits"`
	IsDefault      bool            `json:"is_default"`
}

type accountPatchRequest struct {
	Name           *string          `json:"name"`
	Kind           *AccountKind     `json:"kind"`
	Balance        *decimal.Decimal `json:"balance"`
	Currency       *string          `json:"currency"`
	Color          *string          `json:"color"`
	LastFourDigits *string          `json:"last_four_digits"`
	IsDefault      *bool            `json:"is_default"`
}

type transactionRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Date        *time.Time      `json:"date"`
	Kind        TransactionKind `json:"kind"`
}

type loanRequest struct {
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Purpose  string          `json:"purpose"`
	Months   int             `json:"months"`
	Currency string          `json:"currency"`
}

type loanPatchRequest struct {
	Name           *string          `json:"name"`
	Balance        *decimal.Decimal `json:"balance"`
	Purpose        *string          `json:"purpose"`
	APR            *decimal.Decimal `json:"apr"`
	NextPaymentDue *time.Time       `json:"next_payment_due"`
}

// ListAccounts returns the caller's accounts.
func (h *Handler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.service.Accounts(c.UserContext(), auth.SessionFrom(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"accounts": accounts, "total_balance": TotalBalance(accounts)})
}

// CreateAccount adds an account.
func (h *Handler) CreateAccount(c *fiber.Ctx) error {
	var req accountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct, err := h.service.AddAccount(c.UserContext(), auth.SessionFrom(c), AccountInput{
		Name:           req.Name,
		Kind:           req.Kind,
		Balance:        req.Balance,
		Currency:       req.Currency,
		Color:          req.Color,
		LastFourDigits: req.LastFourDigits,
		IsDefault:      req.IsDefault,
	}).Await(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(acct)
}

// UpdateAccount patches an account.
func (h *Handler) UpdateAccount(c *fiber.Ctx) error {
	var req accountPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct, err := h.service.UpdateAccount(c.UserContext(), auth.SessionFrom(c), c.Params("id"), AccountPatch(req)).Await(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(acct)
}

// DeleteAccount removes an account and its transactions.
func (h *Handler) DeleteAccount(c *fiber.Ctx) error {
	if _, err := h.service.DeleteAccount(c.UserContext(), auth.SessionFrom(c), c.Params("id")).Await(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AccountTransactions lists the transactions posted against one account.
func (h *Handler) AccountTransactions(c *fiber.Ctx) error {
	txs, err := h.service.TransactionsForAccount(c.UserContext(), auth.SessionFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": txs})
}

// ListTransactions returns the caller's transactions, newest first.
func (h *Handler) ListTransactions(c *fiber.Ctx) error {
	txs, err := h.service.Transactions(c.UserContext(), auth.SessionFrom(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": txs})
}

// CreateTransaction posts a transaction.
func (h *Handler) CreateTransaction(c *fiber.Ctx) error {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	in := TransactionInput{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Kind:        req.Kind,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}
	tx, err := h.service.AddTransaction(c.UserContext(), auth.SessionFrom(c), in).Await(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(tx)
}

// ListLoans returns the caller's loans.
func (h *Handler) ListLoans(c *fiber.Ctx) error {
	loans, err := h.service.Loans(c.UserContext(), auth.SessionFrom(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"loans": loans})
}

// ApplyLoan quotes terms for the application and records the loan.
func (h *Handler) ApplyLoan(c *fiber.Ctx) error {
	var req loanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Months <= 0 {
		return fiber.NewError(http.StatusBadRequest, "months must be positive")
	}
	in := PrepareLoan(LoanApplication{
		Name:     req.Name,
		Amount:   req.Amount,
		Purpose:  req.Purpose,
		Months:   req.Months,
		Currency: req.Currency,
	}, h.now(), nil)
	loan, err := h.service.ApplyLoan(c.UserContext(), auth.SessionFrom(c), in).Await(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(loan)
}

// UpdateLoan patches a loan.
func (h *Handler) UpdateLoan(c *fiber.Ctx) error {
	var req loanPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	loan, err := h.service.UpdateLoan(c.UserContext(), auth.SessionFrom(c), c.Params("id"), LoanPatch{
		Name:           req.Name,
		Balance:        req.Balance,
		Purpose:        req.Purpose,
		APR:            req.APR,
		NextPaymentDue: req.NextPaymentDue,
	}).Await(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(loan)
}

// DeleteLoan removes a loan.
func (h *Handler) DeleteLoan(c *fiber.Ctx) error {
	if _, err := h.service.DeleteLoan(c.UserContext(), auth.SessionFrom(c), c.Params("id")).Await(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

type dayResponse struct {
	Label   string          `json:"label"`
	Day     string          `json:"day"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Dashboard summarises balances, the trailing week and recent activity.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	sess := auth.SessionFrom(c)
	user, _ := sess.Current()

	accounts, err := h.service.Accounts(ctx, sess)
	if err != nil {
		return err
	}
	txs, err := h.service.Transactions(ctx, sess)
	if err != nil {
		return err
	}
	loans, err := h.service.Loans(ctx, sess)
	if err != nil {
		return err
	}

	weekly := Weekly(txs, h.now(), h.loc)
	days := make([]dayResponse, 0, len(weekly))
	for _, d := range weekly {
		days = append(days, dayResponse{Label: d.Label(), Day: d.Day.Format(time.DateOnly), Income: d.Income, Expense: d.Expense})
	}
	income, expense := weekly.Totals()

	recent := txs
	if len(recent) > recentTransactions {
		recent = recent[:recentTransactions]
	}
	outstanding := decimal.Zero
	for _, l := range loans {
		outstanding = outstanding.Add(l.Balance)
	}

	currency := countries.CurrencyFor(user.Country)
	total := TotalBalance(accounts)
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"currency":          currency,
		"total_balance":     total,
		"total_formatted":   countries.FormatMoney(total, currency),
		"accounts":          len(accounts),
		"loans_outstanding": outstanding,
		"week": fiber.Map{
			"days":    days,
			"income":  income,
			"expense": expense,
		},
		"recent_transactions": recent,
	})
}
