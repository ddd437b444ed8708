package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// LineItem is one purchased item recovered from free item text.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// lineBreak marks where OCR dropped a line break: after a number of two or
// more digits followed by whitespace.
var lineBreak = regexp.MustCompile(`\d{2,}\s+`)

// itemRule recovers a LineItem from one candidate line.
type itemRule struct {
	Name    string
	Pattern *regexp.Regexp
	// Index of the name, quantity and price groups. A zero quantity index
	// means the rule carries no quantity.
	NameGroup, QuantityGroup, PriceGroup int
}

var itemRules = []itemRule{
	{
		Name:          "name quantity price",
		Pattern:       regexp.MustCompile(`^(.+?)\s+(\d+)\s+([8$]?\d[\d.,]*)$`),
		NameGroup:     1,
		QuantityGroup: 2,
		PriceGroup:    3,
	},
	{
		Name:       "name price",
		Pattern:    regexp.MustCompile(`^(.+?)\s+([8$]?\d[\d.,]*)$`),
		NameGroup:  1,
		PriceGroup: 2,
	},
}

// SplitItemLines cuts an item blob into candidate lines.
func SplitItemLines(raw string) []string {
	s := spaces.ReplaceAllString(clean(raw), " ")
	var lines []string
	start := 0
	for _, loc := range lineBreak.FindAllStringIndex(s, -1) {
		if line := strings.TrimSpace(s[start:loc[1]]); line != "" {
			lines = append(lines, line)
		}
		start = loc[1]
	}
	if line := strings.TrimSpace(s[start:]); line != "" {
		lines = append(lines, line)
	}
	return lines
}

// ParseLineItems extracts what matches the item rules and drops the rest.
func ParseLineItems(raw string) []LineItem {
	var items []LineItem
	for _, line := range SplitItemLines(raw) {
		if item, ok := parseItemLine(line); ok {
			items = append(items, item)
		}
	}
	return items
}

func parseItemLine(line string) (LineItem, bool) {
	for _, rule := range itemRules {
		m := rule.Pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty := 1
		if rule.QuantityGroup > 0 {
			if n, err := strconv.Atoi(m[rule.QuantityGroup]); err == nil && n >= 1 {
				qty = n
			}
		}
		return LineItem{
			Name:     strings.TrimSpace(m[rule.NameGroup]),
			Quantity: qty,
			Price:    ParseCurrency(priceToken(m[rule.PriceGroup])),
		}, true
	}
	return LineItem{}, false
}

// priceToken restores the dollar glyph OCR misreads as a leading 8.
func priceToken(tok string) string {
	if len(tok) > 1 && tok[0] == '8' && isDigit(tok[1]) {
		return "$" + tok[1:]
	}
	return tok
}
