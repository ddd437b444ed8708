package draft

import "strings"

// Kind distinguishes the two document shapes the extractor produces.
type Kind int

const (
	Receipt Kind = iota
	Invoice
)

func (k Kind) String() string {
	if k == Invoice {
		return "invoice"
	}
	return "receipt"
}

// ParseKind reads a DocumentType value. Anything that is not an invoice is
// treated as a receipt.
func ParseKind(s string) Kind {
	if strings.EqualFold(strings.TrimSpace(s), "invoice") {
		return Invoice
	}
	return Receipt
}

// Field keys shared by both kinds.
const (
	FieldDocumentType = "DocumentType"
	FieldExpenseType  = "ExpenseType"

	// internalLabelPrefix marks extractor bookkeeping keys that are never
	// shown to the user.
	internalLabelPrefix = "model_label_"
)

// Receipt field keys.
const (
	FieldAddress    = "Address"
	FieldDate       = "Date"
	FieldItem       = "Item"
	FieldOrderID    = "OrderId"
	FieldSubtotal   = "Subtotal"
	FieldTax        = "Tax"
	FieldTitle      = "Title"
	FieldTotalPrice = "TotalPrice"
)

// Invoice field keys.
const (
	FieldCustomerAddress = "customer_address"
	FieldCustomerName    = "customer_name"
	FieldDueDate         = "due_date"
	FieldInvoiceDate     = "invoice_date"
	FieldInvoiceNumber   = "invoice_number"
	FieldInvoiceSubtotal = "invoice_subtotal"
	FieldInvoiceTotal    = "invoice_total"
	FieldItemDescription = "item_description"
	FieldItemQuantity    = "item_quantity"
	FieldItemTotalPrice  = "item_total_price"
	FieldItemUnitPrice   = "item_unit_price"
	FieldSupplierAddress = "supplier_address"
	FieldSupplierName    = "supplier_name"
	FieldTaxAmount       = "tax_amount"
	FieldTaxRate         = "tax_rate"

	// fieldPlainDate is an alternate date key some extractions use for
	// invoices.
	fieldPlainDate = "date"
)

// Schema describes where the gated and derived values live for a kind.
type Schema struct {
	Kind  Kind
	Known []string
	// DateFields are consulted in order; the first non-empty one is the
	// document's date.
	DateFields  []string
	AmountField string
	ItemField   string
}

var receiptSchema = Schema{
	Kind: Receipt,
	Known: []string{
		FieldTitle, FieldOrderID, FieldDate, FieldAddress,
		FieldItem, FieldSubtotal, FieldTax, FieldTotalPrice,
	},
	DateFields:  []string{FieldDate},
	AmountField: FieldTotalPrice,
	ItemField:   FieldItem,
}

var invoiceSchema = Schema{
	Kind: Invoice,
	Known: []string{
		FieldInvoiceNumber, FieldSupplierName, FieldSupplierAddress,
		FieldCustomerName, FieldCustomerAddress, FieldInvoiceDate, FieldDueDate,
		FieldItemDescription, FieldItemQuantity, FieldItemUnitPrice, FieldItemTotalPrice,
		FieldInvoiceSubtotal, FieldTaxRate, FieldTaxAmount, FieldInvoiceTotal,
	},
	DateFields:  []string{FieldDueDate, fieldPlainDate, FieldInvoiceDate},
	AmountField: FieldInvoiceTotal,
	ItemField:   FieldItemDescription,
}

// SchemaFor returns the schema of a kind.
func SchemaFor(k Kind) Schema {
	if k == Invoice {
		return invoiceSchema
	}
	return receiptSchema
}

// IsKnown reports whether key is one of the schema's named fields.
func (s Schema) IsKnown(key string) bool {
	for _, k := range s.Known {
		if k == key {
			return true
		}
	}
	return false
}

// hidden reports whether a key is bookkeeping that never appears in a
// field listing.
func hidden(key string) bool {
	return key == FieldDocumentType || key == FieldExpenseType || strings.HasPrefix(key, internalLabelPrefix)
}
