package dashboard

import (
	"fmt"
	"html"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sabarim/cryptodash/internal/market"
)

var printer = message.NewPrinter(language.English)

// FormatValue renders a number with thousands separators, or N/A when unset
func FormatValue(v market.Float, prefix, suffix string, decimals int) string {
	if !v.Valid {
		return "N/A"
	}
	return prefix + printer.Sprintf("%.*f", decimals, v.Value) + suffix
}

// FormatMetric is FormatValue for metric cards; percentages are wrapped in a
// span colored by sign
func FormatMetric(v market.Float, prefix, suffix string, decimals int) string {
	s := FormatValue(v, prefix, suffix, decimals)
	if !v.Valid || suffix != "%" {
		return html.EscapeString(s)
	}
	color := "green"
	if v.Value < 0 {
		color = "red"
	}
	return fmt.Sprintf("<span style='color:%s'>%s</span>", color, html.EscapeString(s))
}

// orNA substitutes N/A for empty strings
func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
