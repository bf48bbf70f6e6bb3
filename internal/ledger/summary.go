package ledger

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

// WeekDays is the length of the trailing window used by Weekly.
const WeekDays = 7

// DayTotals is one calendar day of the weekly series. Both totals are non-negative.
type DayTotals struct {
	Day     time.Time       `json:"day"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Label is the short weekday name of the bucket, e.g. "Mon".
func (d DayTotals) Label() string {
	return d.Day.Format("Mon")
}

// WeeklySeries holds the buckets of the trailing week, oldest first.
type WeeklySeries []DayTotals

// Weekly buckets txs into the seven calendar days ending on now's day in loc.
// Income is summed as is; expense is summed as the absolute amount. Transactions
// outside the window are ignored.
func Weekly(txs []Transaction, now time.Time, loc *time.Location) WeeklySeries {
	if loc == nil {
		loc = time.Local
	}
	today := startOfDay(now, loc)

	series := make(WeeklySeries, WeekDays)
	index := make(map[time.Time]int, WeekDays)
	for i := range series {
		day := startOfDay(today.AddDate(0, 0, i-(WeekDays-1)), loc)
		series[i] = DayTotals{Day: day, Income: decimal.Zero, Expense: decimal.Zero}
		index[day] = i
	}

	for _, tx := range txs {
		i, ok := index[startOfDay(tx.Date, loc)]
		if !ok {
			continue
		}
		switch tx.Kind {
		case Income:
			series[i].Income = series[i].Income.Add(tx.Amount)
		case Expense:
			series[i].Expense = series[i].Expense.Add(tx.Amount.Abs())
		}
	}
	return series
}

// Totals sums the series.
func (w WeeklySeries) Totals() (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, d := range w {
		income = income.Add(d.Income)
		expense = expense.Add(d.Expense)
	}
	return income, expense
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// TotalBalance sums the balances of accounts. Currencies are not converted.
func TotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// LoanApplication is what a borrower fills in before the terms are quoted.
type LoanApplication struct {
	Name     string
	Amount   decimal.Decimal
	Purpose  string
	Months   int
	Currency string
}

var (
	minAPR  = decimal.NewFromInt(5)
	aprSpan = decimal.NewFromInt(10)
)

// PrepareLoan quotes terms for app: the balance starts at the amount, the APR is
// drawn from [5, 15) with two decimals and the first payment is due in 30 days.
// A nil rnd uses the shared generator.
func PrepareLoan(app LoanApplication, now time.Time, rnd *rand.Rand) LoanInput {
	draw := rand.Float64
	if rnd != nil {
		draw = rnd.Float64
	}
	apr := minAPR.Add(aprSpan.Mul(decimal.NewFromFloat(draw()))).Truncate(2)

	return LoanInput{
		Name:           app.Name,
		Principal:      app.Amount,
		Balance:        app.Amount,
		Purpose:        app.Purpose,
		DurationLabel:  fmt.Sprintf("%d months", app.Months),
		APR:            apr,
		NextPaymentDue: now.AddDate(0, 0, 30),
		Currency:       app.Currency,
	}
}
