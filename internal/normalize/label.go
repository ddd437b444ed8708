package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FieldLabel turns a field key into a display label: "invoice_total" becomes
// "Invoice Total" and "TotalPrice" stays "TotalPrice".
func FieldLabel(key string) string {
	return cases.Title(language.English, cases.NoLower).String(strings.ReplaceAll(key, "_", " "))
}
