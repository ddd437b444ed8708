package normalize

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"
)

// displayPrinter renders amounts in the canonical display locale.
var displayPrinter = message.NewPrinter(language.English)

// clean folds OCR text into a comparable form: NFKC turns non-breaking
// spaces and full-width digits into their ASCII counterparts.
func clean(raw string) string {
	return strings.TrimSpace(norm.NFKC.String(raw))
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ParseCurrency converts an OCR amount into a number, returning 0 when
// nothing numeric survives the cleanup. Amounts are never negative: a
// leading minus yields 0 like any other unparseable input.
func ParseCurrency(raw string) float64 {
	v, ok := ParseAmount(raw)
	if !ok {
		return 0
	}
	return v
}

// ParseAmount is ParseCurrency with the failure reported instead of
// replaced by 0. A negative value is a failure.
func ParseAmount(raw string) (float64, bool) {
	s := clean(raw)

	// OCR reads the dollar glyph as an 8.
	if len(s) > 1 && s[0] == '8' && isDigit(s[1]) {
		s = s[1:]
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i+1] + strings.ReplaceAll(s[i+1:], ".", "")
	}

	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// FormatCurrency renders an amount with a dollar glyph, grouped digits
// and exactly two fraction digits, e.g. "$1,234.50".
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		v = 0
	}
	if v < 0 {
		return "-" + displayPrinter.Sprintf("$%.2f", -v)
	}
	return displayPrinter.Sprintf("$%.2f", v)
}

// FormatAmount formats a raw field value. Blank input stays blank rather
// than rendering as "$0.00".
func FormatAmount(raw string) string {
	if clean(raw) == "" {
		return ""
	}
	return FormatCurrency(ParseCurrency(raw))
}
