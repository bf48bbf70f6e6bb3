// Package countries holds the static country table used for default currencies,
// phone prefixes and money formatting.
package countries

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a country is unknown.
const DefaultCurrency = "USD"

// Country describes a supported country of residence.
type Country struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currency_symbol"`
	PhoneCode      string `json:"phone_code"`
}

var all = []Country{
	{Code: "US", Name: "United States", Currency: "USD", CurrencySymbol: "$", PhoneCode: "+1"},
	{Code: "GB", Name: "United Kingdom", Currency: "GBP", CurrencySymbol: "£", PhoneCode: "+44"},
	{Code: "CA", Name: "Canada", Currency: "CAD", CurrencySymbol: "$", PhoneCode: "+1"},
	{Code: "AU", Name: "Australia", Currency: "AUD", CurrencySymbol: "$", PhoneCode: "+61"},
	{Code: "DE", Name: "Germany", Currency: "EUR", CurrencySymbol: "€", PhoneCode: "+49"},
	{Code: "FR", Name: "France", Currency: "EUR", CurrencySymbol: "€", PhoneCode: "+33"},
	{Code: "IT", Name: "Italy", Currency: "EUR", CurrencySymbol: "€", PhoneCode: "+39"},
	{Code: "ES", Name: "Spain", Currency: "EUR", CurrencySymbol: "€", PhoneCode: "+34"},
	{Code: "JP", Name: "Japan", Currency: "JPY", CurrencySymbol: "¥", PhoneCode: "+81"},
	{Code: "CN", Name: "China", Currency: "CNY", CurrencySymbol: "¥", PhoneCode: "+86"},
	{Code: "IN", Name: "India", Currency: "INR", CurrencySymbol: "₹", PhoneCode: "+91"},
	{Code: "BR", Name: "Brazil", Currency: "BRL", CurrencySymbol: "R$", PhoneCode: "+55"},
	{Code: "ZA", Name: "South Africa", Currency: "ZAR", CurrencySymbol: "R", PhoneCode: "+27"},
	{Code: "NG", Name: "Nigeria", Currency: "NGN", CurrencySymbol: "₦", PhoneCode: "+234"},
	{Code: "KE", Name: "Kenya", Currency: "KES", CurrencySymbol: "KSh", PhoneCode: "+254"},
	{Code: "EG", Name: "Egypt", Currency: "EGP", CurrencySymbol: "E£", PhoneCode: "+20"},
	{Code: "SA", Name: "Saudi Arabia", Currency: "SAR", CurrencySymbol: "﷼", PhoneCode: "+966"},
	{Code: "AE", Name: "United Arab Emirates", Currency: "AED", CurrencySymbol: "د.إ", PhoneCode: "+971"},
	{Code: "SG", Name: "Singapore", Currency: "SGD", CurrencySymbol: "$", PhoneCode: "+65"},
	{Code: "MY", Name: "Malaysia", Currency: "MYR", CurrencySymbol: "RM", PhoneCode: "+60"},
}

// All returns a copy of the country table.
func All() []Country {
	out := make([]Country, len(all))
	copy(out, all)
	return out
}

// ByCode looks a country up by its ISO code, case-insensitively.
func ByCode(code string) (Country, bool) {
	for _, c := range all {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Country{}, false
}

// ByCurrency returns the first country using currency.
func ByCurrency(currency string) (Country, bool) {
	for _, c := range all {
		if strings.EqualFold(c.Currency, currency) {
			return c, true
		}
	}
	return Country{}, false
}

// CurrencyFor returns the currency of the country code, or DefaultCurrency.
func CurrencyFor(code string) string {
	if c, ok := ByCode(code); ok {
		return c.Currency
	}
	return DefaultCurrency
}

// Symbol returns the display symbol of currency, "$" when unknown.
func Symbol(currency string) string {
	if c, ok := ByCurrency(currency); ok {
		return c.CurrencySymbol
	}
	return "$"
}

// FormatMoney renders amount with two decimals, thousands separators and the
// currency symbol, e.g. "$1,234.56" or "-$432.19".
func FormatMoney(amount decimal.Decimal, currency string) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + Symbol(currency) + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
