package quote

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders whole-peso amounts for display, e.g. "$315.000".
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter creates a formatter for the BCP 47 tag lang. An unparseable
// tag falls back to es-CL.
func NewFormatter(lang, symbol string) *Formatter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.MustParse("es-CL")
	}
	if symbol == "" {
		symbol = "$"
	}
	return &Formatter{printer: message.NewPrinter(tag), symbol: symbol}
}

var defaultFormatter = NewFormatter("es-CL", "$")

// DefaultFormatter returns the es-CL peso formatter.
func DefaultFormatter() *Formatter {
	return defaultFormatter
}

// Format renders amount with locale grouping and the currency symbol.
func (f *Formatter) Format(amount int64) string {
	if amount < 0 {
		return "-" + f.symbol + f.printer.Sprintf("%d", -amount)
	}
	return f.symbol + f.printer.Sprintf("%d", amount)
}

// FormatCLP renders amount as Chilean pesos.
func FormatCLP(amount int64) string {
	return defaultFormatter.Format(amount)
}
