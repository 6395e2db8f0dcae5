package chart

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders tick and value labels with locale grouping.
type Formatter struct {
	p      *message.Printer
	suffix string
}

// NewFormatter builds a formatter for a BCP 47 locale. Unknown locales fall
// back to English.
func NewFormatter(locale, suffix string) Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return Formatter{p: message.NewPrinter(tag), suffix: suffix}
}

// Format prints v with at most one fraction digit followed by the suffix.
func (f Formatter) Format(v float64) string {
	return f.p.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(1))) + f.suffix
}
