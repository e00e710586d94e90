package templates

import (
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FuncMap is available to every template in the registry
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"truncate": Truncate,
		"price":    Price,
		"ratio":    Ratio,
		"signed":   Signed,
		"decimal":  func(d decimal.Decimal) string { return d.StringFixed(2) },
		"date":     func(t time.Time) string { return t.UTC().Format("2006-01-02") },
		"upper":    strings.ToUpper,
		"join":     strings.Join,
		"add":      func(a, b int) int { return a + b },
	}
}

// Truncate cuts s to at most n runes, marking the cut with "..."
func Truncate(n int, s string) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}

// Price formats a price with thousands separators and two decimals
func Price(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// Ratio renders a fraction as a signed percentage: 0.1 -> "+10.00%"
func Ratio(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}

// Signed renders a value with an explicit sign
func Signed(v float64) string {
	return fmt.Sprintf("%+.2f", v)
}
