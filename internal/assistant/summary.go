package assistant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zombor/expense-tracker/internal/normalize"
	"github.com/zombor/expense-tracker/internal/record"
)

const topVendors = 5

// Scope narrows the receipts a summary covers. An empty Month covers all
// time; an empty Category or General covers every category.
type Scope struct {
	Category string
	Month    string
	General  bool
}

type total struct {
	name   string
	amount float64
}

// Summarize renders the receipts inside scope as the plain-text context
// handed to the model. It returns "" when nothing matches.
func Summarize(receipts []*record.StoredReceipt, scope Scope) string {
	var (
		lines      strings.Builder
		sum        float64
		count      int
		vendors    = map[string]float64{}
		categories = map[string]float64{}
	)

	for _, r := range receipts {
		date, ok := normalize.ParseDate(r.Date)
		if scope.Month != "" && (!ok || date.Format(monthLayout) != scope.Month) {
			continue
		}
		if !scope.General && scope.Category != "" && !strings.EqualFold(strings.TrimSpace(r.Category), scope.Category) {
			continue
		}

		vendor := strings.TrimSpace(r.SellerName)
		if vendor == "" {
			vendor = "Unknown vendor"
		}
		category := strings.TrimSpace(r.Category)
		if category == "" {
			category = "Uncategorized"
		}
		day := strings.TrimSpace(r.Date)
		if ok {
			day = date.Format("2006-01-02")
		}

		fmt.Fprintf(&lines, "- %s: %s at %s items %s (Category: %s)\n",
			day, normalize.FormatCurrency(r.TotalPrice), vendor, itemList(r.Items), category)
		vendors[vendor] += r.TotalPrice
		categories[category] += r.TotalPrice
		sum += r.TotalPrice
		count++
	}

	if count == 0 {
		return ""
	}

	if !scope.General && scope.Category != "" {
		fmt.Fprintf(&lines, "\nTotal: %s (%d transactions in %s category)", normalize.FormatCurrency(sum), count, scope.Category)
		return lines.String()
	}

	fmt.Fprintf(&lines, "\nTotal: %s (%d transactions across all categories)\n", normalize.FormatCurrency(sum), count)

	lines.WriteString("\nTop vendors by spending:\n")
	for i, v := range ranked(vendors) {
		if i == topVendors {
			break
		}
		fmt.Fprintf(&lines, "- %s: %s\n", v.name, normalize.FormatCurrency(v.amount))
	}

	lines.WriteString("\nSpending by category:\n")
	for _, c := range ranked(categories) {
		pct := 0.0
		if sum > 0 {
			pct = c.amount / sum * 100
		}
		fmt.Fprintf(&lines, "- %s: %s (%.1f%%)\n", c.name, normalize.FormatCurrency(c.amount), pct)
	}
	return lines.String()
}

// ranked sorts totals by amount, largest first, breaking ties by name
func ranked(m map[string]float64) []total {
	out := make([]total, 0, len(m))
	for name, amount := range m {
		out = append(out, total{name: name, amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].amount != out[j].amount {
			return out[i].amount > out[j].amount
		}
		return out[i].name < out[j].name
	})
	return out
}

func itemList(items []record.Item) string {
	if len(items) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x%d %s", it.Name, it.Quantity, it.Price))
	}
	return "[" + strings.Join(parts, "; ") + "]"
}
