package receipt

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/normalize"
	"github.com/zombor/expense-tracker/internal/record"
)

var (
	// ErrNotFound is returned when no record matches the owner and key
	ErrNotFound = errors.New("record not found")
	// ErrNoOwner is returned for account operations on an anonymous request
	ErrNoOwner = errors.New("a user id is required")
	// ErrInvalidEmail is returned for a profile email that is not an address
	ErrInvalidEmail = errors.New("invalid email address")
)

// MonthFilter selects receipts dated within one calendar month, optionally
// narrowed to a category.
type MonthFilter struct {
	Year     int
	Month    time.Month
	Category string
}

// Matches reports whether a receipt falls inside the filter. Receipts whose
// date cannot be read never match.
func (f MonthFilter) Matches(r *record.StoredReceipt) bool {
	date, ok := normalize.ParseDate(r.Date)
	if !ok {
		return false
	}
	if date.Year() != f.Year || date.Month() != f.Month {
		return false
	}
	return f.Category == "" || strings.EqualFold(strings.TrimSpace(r.Category), strings.TrimSpace(f.Category))
}

// sortReceipts orders receipts newest first by document date, falling back
// to creation time for undated ones.
func sortReceipts(receipts []*record.StoredReceipt) {
	sort.SliceStable(receipts, func(i, j int) bool {
		return receiptTime(receipts[i]).After(receiptTime(receipts[j]))
	})
}

func receiptTime(r *record.StoredReceipt) time.Time {
	if date, ok := normalize.ParseDate(r.Date); ok {
		return date
	}
	return r.CreatedAt
}

// sortInvoices orders invoices by due date, soonest first
func sortInvoices(invoices []*record.StoredInvoice) {
	sort.SliceStable(invoices, func(i, j int) bool {
		return invoiceTime(invoices[i]).Before(invoiceTime(invoices[j]))
	})
}

func invoiceTime(inv *record.StoredInvoice) time.Time {
	if date, ok := normalize.ParseDate(inv.DueDate); ok {
		return date
	}
	return inv.CreatedAt
}
