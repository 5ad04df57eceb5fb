package consol

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatAmount renders an amount with en-US digit grouping, e.g. -2,400,000.
func FormatAmount(v decimal.Decimal) string {
	if v.IsInteger() {
		return amountPrinter.Sprintf("%d", v.IntPart())
	}
	f, _ := v.Round(2).Float64()
	return amountPrinter.Sprintf("%.2f", f)
}
