package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatINR renders an amount with the rupee symbol and en-IN grouping.
func FormatINR(amount float64) string {
	p := message.NewPrinter(language.MustParse("en-IN"))
	return p.Sprintf("%v%.2f", currency.Symbol(currency.INR), amount)
}

// FormatAmount prints an amount with two decimals and en-IN grouping but no
// currency symbol, for outputs limited to Latin-1 such as PDF core fonts.
func FormatAmount(amount float64) string {
	p := message.NewPrinter(language.MustParse("en-IN"))
	return p.Sprintf("%.2f", amount)
}

// NormalizePhone keeps only the digits of a phone number. WhatsApp ids are
// digits-only international numbers, so "+91 98765-43210" becomes
// "919876543210".
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
