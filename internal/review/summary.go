package review

import (
	"strings"

	"github.com/zombor/expense-tracker/internal/draft"
	"github.com/zombor/expense-tracker/internal/normalize"
)

type valueFormat int

const (
	formatText valueFormat = iota
	formatAmount
	formatDate
	formatAddress
)

var fieldFormats = map[string]valueFormat{
	draft.FieldSubtotal:        formatAmount,
	draft.FieldTax:             formatAmount,
	draft.FieldTotalPrice:      formatAmount,
	draft.FieldInvoiceSubtotal: formatAmount,
	draft.FieldInvoiceTotal:    formatAmount,
	draft.FieldTaxAmount:       formatAmount,
	draft.FieldItemUnitPrice:   formatAmount,
	draft.FieldItemTotalPrice:  formatAmount,

	draft.FieldDate:        formatDate,
	draft.FieldInvoiceDate: formatDate,
	draft.FieldDueDate:     formatDate,

	draft.FieldAddress:         formatAddress,
	draft.FieldCustomerAddress: formatAddress,
	draft.FieldSupplierAddress: formatAddress,
}

// SummaryField is one normalized line of the confirmation recap.
type SummaryField struct {
	Key   string
	Label string
	Value string
	Extra bool
}

// Summary is the read-only recap shown before anything is written.
type Summary struct {
	Kind       draft.Kind
	Category   string
	Fields     []SummaryField
	Items      []normalize.LineItem
	ItemsTotal float64
	Subtotal   float64
	Tax        float64
	Total      float64
}

// BuildSummary normalizes every visible field of d.
func BuildSummary(d *draft.Draft) *Summary {
	s := &Summary{
		Kind:     d.Kind(),
		Category: d.ExpenseType(),
		Items:    d.LineItems(),
	}

	for _, key := range d.KnownKeys() {
		s.Fields = append(s.Fields, SummaryField{
			Key:   key,
			Label: normalize.FieldLabel(key),
			Value: formatField(d, key),
		})
	}
	for _, key := range d.ExtraKeys() {
		s.Fields = append(s.Fields, SummaryField{
			Key:   key,
			Label: normalize.FieldLabel(key) + " (Extra)",
			Value: strings.TrimSpace(d.Get(key)),
			Extra: true,
		})
	}

	for _, item := range s.Items {
		s.ItemsTotal += float64(item.Quantity) * item.Price
	}

	switch d.Kind() {
	case draft.Invoice:
		s.Subtotal = normalize.ParseCurrency(d.Get(draft.FieldInvoiceSubtotal))
		s.Tax = normalize.ParseCurrency(d.Get(draft.FieldTaxAmount))
	default:
		s.Subtotal = normalize.ParseCurrency(d.Get(draft.FieldSubtotal))
		s.Tax = normalize.ParseCurrency(d.Get(draft.FieldTax))
	}
	s.Total = normalize.ParseCurrency(d.Amount())

	return s
}

func formatField(d *draft.Draft, key string) string {
	raw := d.Get(key)
	switch fieldFormats[key] {
	case formatAmount:
		return normalize.FormatAmount(raw)
	case formatDate:
		// The invoice due date shows the effective date, which falls back
		// to the other date fields.
		if key == draft.FieldDueDate {
			raw = d.Date()
		}
		return normalize.FormatDate(raw)
	case formatAddress:
		return normalize.JoinAddress(normalize.ParseAddress(raw))
	default:
		return strings.TrimSpace(raw)
	}
}

// Field returns the recap line for key.
func (s *Summary) Field(key string) (SummaryField, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return SummaryField{}, false
}
