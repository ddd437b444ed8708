package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zombor/expense-tracker/internal/draft"
	"github.com/zombor/expense-tracker/internal/record"
)

// ReceiptFields turns a stored receipt back into draft fields so it can be
// edited with the same pipeline as a fresh extraction.
func ReceiptFields(r *record.Receipt) draft.RawFields {
	return draft.RawFields{
		draft.FieldDocumentType: ptr(draft.Receipt.String()),
		draft.FieldExpenseType:  ptr(r.Category),
		draft.FieldTitle:        ptr(r.SellerName),
		draft.FieldOrderID:      ptr(r.OrderID),
		draft.FieldDate:         ptr(r.Date),
		draft.FieldAddress:      ptr(r.Address),
		draft.FieldItem:         ptr(itemText(r.Items)),
		draft.FieldSubtotal:     ptr(amount(r.Subtotal)),
		draft.FieldTax:          ptr(amount(r.Tax)),
		draft.FieldTotalPrice:   ptr(amount(r.TotalPrice)),
	}
}

// InvoiceFields turns a stored invoice back into draft fields.
func InvoiceFields(inv *record.Invoice) draft.RawFields {
	description := inv.Item
	if description == "" {
		description = itemText(inv.Items)
	}
	return draft.RawFields{
		draft.FieldDocumentType:    ptr(draft.Invoice.String()),
		draft.FieldExpenseType:     ptr(inv.Category),
		draft.FieldSupplierName:    ptr(inv.SellerName),
		draft.FieldSupplierAddress: ptr(inv.SellerAddress),
		draft.FieldCustomerName:    ptr(inv.CustomerName),
		draft.FieldCustomerAddress: ptr(inv.CustomerAddress),
		draft.FieldInvoiceNumber:   ptr(inv.InvoiceNumber),
		draft.FieldInvoiceDate:     ptr(inv.InvoiceDate),
		draft.FieldDueDate:         ptr(inv.DueDate),
		draft.FieldItemDescription: ptr(description),
		draft.FieldInvoiceTotal:    ptr(amount(inv.TotalAmount)),
	}
}

// itemText writes items one per line in the "name quantity price" shape
// the line item rules read back.
func itemText(items []record.Item) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s %d %s", it.Name, it.Quantity, it.Price))
	}
	return strings.Join(lines, "\n")
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func ptr(s string) *string { return &s }
