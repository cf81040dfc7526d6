package utils

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// defaultPrecision is used for codes go-money does not know.
const defaultPrecision = 2

// CurrencyPrecision returns the number of minor-unit digits of an ISO 4217 code.
// Example: USD -> 2, JPY -> 0, BHD -> 3
func CurrencyPrecision(code string) int32 {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return defaultPrecision
	}
	return int32(cur.Fraction)
}

// IsKnownCurrency reports whether code is a currency go-money knows about.
func IsKnownCurrency(code string) bool {
	return money.GetCurrency(strings.ToUpper(code)) != nil
}

// RoundToCurrency rounds amount half away from zero to the minor unit of code.
// Example: 12.3456 USD -> 12.35, 12.5 JPY -> 13
func RoundToCurrency(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(CurrencyPrecision(code))
}

// MinorUnit is the smallest representable amount of code (0.01 for USD).
func MinorUnit(code string) decimal.Decimal {
	return decimal.New(1, -CurrencyPrecision(code))
}

// FormatWithCurrencyPrecision formats an amount with the precision of code.
// Example: amount 12.3456 with USD returns "12.35"
func FormatWithCurrencyPrecision(amount decimal.Decimal, code string) string {
	return amount.StringFixed(CurrencyPrecision(code))
}

// FormatMoney renders amount with go-money's display template, e.g. "$1,000.00".
// The amount is rounded to the currency's minor unit first.
func FormatMoney(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	if !IsKnownCurrency(code) {
		return FormatWithCurrencyPrecision(amount, code) + " " + code
	}
	minor := RoundToCurrency(amount, code).Shift(CurrencyPrecision(code)).IntPart()
	return money.New(minor, code).Display()
}
