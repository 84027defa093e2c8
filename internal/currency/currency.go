// Package currency converts and formats display prices. Everything here is
// presentation only: Midtrans always settles in MXN, the base currency.
package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Base is the settlement currency. All stored prices are MXN cents.
const Base = "MXN"

// rates are fixed display multipliers anchored to one MXN.
var rates = map[string]float64{
	"MXN": 1.0,
	"USD": 0.058,
	"EUR": 0.053,
}

var printer = message.NewPrinter(language.MustParse("es-MX"))

// Supported reports whether a currency code has a conversion rate.
func Supported(code string) bool {
	_, ok := rates[code]
	return ok
}

// ConvertPrice converts a whole-unit MXN amount into the display currency.
// Unknown codes fall back to the base rate.
func ConvertPrice(amount float64, code string) float64 {
	rate, ok := rates[code]
	if !ok {
		rate = rates[Base]
	}
	return amount * rate
}

// FormatPrice converts and renders an amount with locale-aware grouping.
// MXN shows no decimals, every other currency shows two.
func FormatPrice(amount float64, code string) string {
	if !Supported(code) {
		code = Base
	}
	converted := ConvertPrice(amount, code)

	decimals := 2
	if code == Base {
		decimals = 0
	}

	formatted := printer.Sprintf("%v", number.Decimal(converted,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals)))

	return "$" + formatted + " " + code
}
