package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies an account.
type AccountKind string

const (
	AccountChecking   AccountKind = "checking"
	AccountSavings    AccountKind = "savings"
	AccountCredit     AccountKind = "credit"
	AccountInvestment AccountKind = "investment"
)

// Valid reports whether k is a known account kind.
func (k AccountKind) Valid() bool {
	switch k {
	case AccountChecking, AccountSavings, AccountCredit, AccountInvestment:
		return true
	}
	return false
}

// TransactionKind is the direction of a transaction.
type TransactionKind string

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

// Valid reports whether k is income or expense.
func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

// Category is the closed set of transaction categories.
type Category string

const (
	CategoryFood           Category = "food"
	CategoryShopping       Category = "shopping"
	CategoryHousing        Category = "housing"
	CategoryTransportation Category = "transportation"
	CategoryEntertainment  Category = "entertainment"
	CategoryUtilities      Category = "utilities"
	CategoryHealthcare     Category = "healthcare"
	CategoryEducation      Category = "education"
	CategoryTravel         Category = "travel"
	CategorySalary         Category = "salary"
	CategoryInvestment     Category = "investment"
	CategoryOther          Category = "other"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryFood, CategoryShopping, CategoryHousing, CategoryTransportation,
		CategoryEntertainment, CategoryUtilities, CategoryHealthcare, CategoryEducation,
		CategoryTravel, CategorySalary, CategoryInvestment, CategoryOther,
	}
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Account is a bank, card or investment record with a running balance.
type Account struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	Name           string          `json:"name"`
	Kind           AccountKind     `json:"kind"`
	Balance        decimal.Decimal `json:"balance"`
	Currency       string          `json:"currency"`
	Color          string          `json:"color,omitempty"`
	LastFourDigits string          `json:"last_four_digits,omitempty"`
	IsDefault      bool            `json:"is_default,omitempty"`
}

// Transaction is a dated, signed movement against one account.
// Income amounts are positive and expense amounts negative.
type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Date        time.Time       `json:"date"`
	Kind        TransactionKind `json:"kind"`
}

// Loan is a borrowing record tracked independently of accounts.
type Loan struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	Name           string          `json:"name"`
	Principal      decimal.Decimal `json:"principal"`
	Balance        decimal.Decimal `json:"balance"`
	Purpose        string          `json:"purpose"`
	DurationLabel  string          `json:"duration_label"`
	APR            decimal.Decimal `json:"apr"`
	NextPaymentDue time.Time       `json:"next_payment_due"`
	Currency       string          `json:"currency"`
}

// AccountInput carries the fields of a new account.
type AccountInput struct {
	Name           string
	Kind           AccountKind
	Balance        decimal.Decimal
	Currency       string
	Color          string
	LastFourDigits string
	IsDefault      bool
}

// AccountPatch overwrites the non-nil fields of an account.
type AccountPatch struct {
	Name           *string
	Kind           *AccountKind
	Balance        *decimal.Decimal
	Currency       *string
	Color          *string
	LastFourDigits *string
	IsDefault      *bool
}

// TransactionInput carries the fields of a new transaction. A zero Date means now.
type TransactionInput struct {
	AccountID   string
	Amount      decimal.Decimal
	Description string
	Category    Category
	Date        time.Time
	Kind        TransactionKind
}

// LoanInput carries the fields of a new loan.
type LoanInput struct {
	Name           string
	Principal      decimal.Decimal
	Balance        decimal.Decimal
	Purpose        string
	DurationLabel  string
	APR            decimal.Decimal
	NextPaymentDue time.Time
	Currency       string
}

// LoanPatch overwrites the non-nil fields of a loan.
type LoanPatch struct {
	Name           *string
	Principal      *decimal.Decimal
	Balance        *decimal.Decimal
	Purpose        *string
	DurationLabel  *string
	APR            *decimal.Decimal
	NextPaymentDue *time.Time
	Currency       *string
}

func (p AccountPatch) apply(a *Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Kind != nil {
		a.Kind = *p.Kind
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	if p.Currency != nil {
		a.Currency = *p.Currency
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.LastFourDigits != nil {
		a.LastFourDigits = *p.LastFourDigits
	}
	if p.IsDefault != nil {
		a.IsDefault = *p.IsDefault
	}
}

func (p LoanPatch) apply(l *Loan) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Principal != nil {
		l.Principal = *p.Principal
	}
	if p.Balance != nil {
		l.Balance = *p.Balance
	}
	if p.Purpose != nil {
		l.Purpose = *p.Purpose
	}
	if p.DurationLabel != nil {
		l.DurationLabel = *p.DurationLabel
	}
	if p.APR != nil {
		l.APR = *p.APR
	}
	if p.NextPaymentDue != nil {
		l.NextPaymentDue = *p.NextPaymentDue
	}
	if p.Currency != nil {
		l.Currency = *p.Currency
	}
}
