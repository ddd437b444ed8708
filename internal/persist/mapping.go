package persist

import (
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/draft"
	"github.com/zombor/expense-tracker/internal/normalize"
	"github.com/zombor/expense-tracker/internal/record"
)

// DueDateGrace is added to the submission time when an invoice has no
// usable due date.
const DueDateGrace = 5 * 24 * time.Hour

// receiptField copies one draft field into a receipt record.
type receiptField struct {
	From string
	To   string
	Set  func(r *record.Receipt, value string, now time.Time)
}

// receiptFields is the rename table from draft keys to receipt record keys.
var receiptFields = []receiptField{
	{draft.FieldTitle, "seller_name", func(r *record.Receipt, v string, _ time.Time) {
		r.SellerName = strings.TrimSpace(v)
	}},
	{draft.FieldOrderID, "order_id", func(r *record.Receipt, v string, _ time.Time) {
		r.OrderID = strings.TrimSpace(v)
	}},
	{draft.FieldTotalPrice, "total_price", func(r *record.Receipt, v string, _ time.Time) {
		r.TotalPrice = normalize.ParseCurrency(v)
	}},
	{draft.FieldSubtotal, "subtotal", func(r *record.Receipt, v string, _ time.Time) {
		r.Subtotal = normalize.ParseCurrency(v)
	}},
	{draft.FieldTax, "tax", func(r *record.Receipt, v string, _ time.Time) {
		r.Tax = normalize.ParseCurrency(v)
	}},
	// An unparseable date silently becomes the save time. An empty Date
	// never gets here: the review gate blocks it.
	{draft.FieldDate, "date", func(r *record.Receipt, v string, now time.Time) {
		r.Date = normalize.ISO(normalize.DateOrNow(v, now))
	}},
	{draft.FieldAddress, "address", func(r *record.Receipt, v string, _ time.Time) {
		r.Address = normalize.JoinAddress(normalize.ParseAddress(v))
	}},
	{draft.FieldItem, "items", func(r *record.Receipt, v string, _ time.Time) {
		r.Items = items(normalize.ParseLineItems(v))
	}},
	{draft.FieldExpenseType, "category", func(r *record.Receipt, v string, _ time.Time) {
		r.Category = strings.TrimSpace(v)
	}},
}

// invoiceField copies one draft value into an invoice record. Value, when
// set, reads the draft instead of the From field.
type invoiceField struct {
	From  string
	To    string
	Value func(d *draft.Draft) string
	Set   func(r *record.Invoice, value string, now time.Time)
}

// invoiceFields is the rename table from draft keys to invoice record keys.
var invoiceFields = []invoiceField{
	{From: draft.FieldExpenseType, To: "category", Set: func(r *record.Invoice, v string, _ time.Time) {
		r.Category = strings.TrimSpace(v)
	}},
	{From: draft.FieldCustomerAddress, To: "customer_address", Set: func(r *record.Invoice, v string, _ time.Time) {
		r.CustomerAddress = strings.TrimSpace(v)
	}},
	{From: draft.FieldCustomerName, To: "customer_name", Set: func(r *record.Invoice, v string, _ time.Time) {
		r.CustomerName = strings.TrimSpace(v)
	}},
	{From: draft.FieldDueDate, To: "due_date", Value: (*draft.Draft).Date, Set: func(r *record.Invoice, v string, now time.Time) {
		r.DueDate = normalize.ISO(dueDate(v, now))
	}},
	{From: draft.FieldInvoiceDate, To: "invoice_date", Set: func(r *record.Invoice, v string, _ time.Time) {
		if t, ok := normalize.ParseDate(v); ok {
			r.InvoiceDate = normalize.ISO(t)
		}
	}},
	{From: draft.FieldInvoiceNumber, To: "invoice_number", Set: func(r *record.Invoice, v string, _ time.Time) {
		r.InvoiceNumber = strings.TrimSpace(v)
	}},
	{From: draft.FieldItemDescription, To: "item", Set: func(r *record.Invoice, v string, _ time.Time) {
		r.Item = strings.TrimSpace(v)
		r.Items = items(normalize.ParseLineItems(v))
	}},
	{From: draft.FieldSupplierAddress, To: "seller_address", Set: func(r *record.Invoice, v string, _ time.Time) {
		r.SellerAddress = strings.TrimSpace(v)
	}},
	{From: draft.FieldSupplierName, To: "seller_name", Set: func(r *record.Invoice, v string, _ time.Time) {
		r.SellerName = strings.TrimSpace(v)
	}},
	{From: draft.FieldInvoiceTotal, To: "total_amount", Set: func(r *record.Invoice, v string, _ time.Time) {
		r.TotalAmount = normalize.ParseCurrency(v)
	}},
}

func dueDate(v string, now time.Time) time.Time {
	if t, ok := normalize.ParseDate(v); ok {
		return t
	}
	return now.Add(DueDateGrace)
}

func items(parsed []normalize.LineItem) []record.Item {
	out := make([]record.Item, 0, len(parsed))
	for _, it := range parsed {
		out = append(out, record.Item{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    normalize.FormatCurrency(it.Price),
		})
	}
	return out
}

// ReceiptRecord builds the receipt record for d as of now.
func ReceiptRecord(d *draft.Draft, session Session, now time.Time) *record.Receipt {
	r := &record.Receipt{Items: []record.Item{}}
	for _, f := range receiptFields {
		f.Set(r, d.Get(f.From), now)
	}
	r.UploadedDate = normalize.ISO(now)
	r.UserID = session.OwnerRef()
	return r
}

// InvoiceRecord builds the invoice record for d as of now.
func InvoiceRecord(d *draft.Draft, session Session, now time.Time) *record.Invoice {
	r := &record.Invoice{Items: []record.Item{}}
	for _, f := range invoiceFields {
		v := d.Get(f.From)
		if f.Value != nil {
			v = f.Value(d)
		}
		f.Set(r, v, now)
	}
	// the backend's reminder check sets this once a reminder goes out
	r.SentEmail = false
	r.UploadedDate = normalize.ISO(now)
	r.UserID = session.OwnerRef()
	return r
}

// Renames returns the draft key to record key table for a kind.
func Renames(k draft.Kind) map[string]string {
	out := make(map[string]string)
	if k == draft.Invoice {
		for _, f := range invoiceFields {
			out[f.From] = f.To
		}
		return out
	}
	for _, f := range receiptFields {
		out[f.From] = f.To
	}
	return out
}
