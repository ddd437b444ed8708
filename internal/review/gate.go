package review

import (
	"github.com/zombor/expense-tracker/internal/draft"
	"github.com/zombor/expense-tracker/internal/normalize"
)

// Messages shown next to a blocked field.
const (
	DateRequiredMessage  = "Date is required before saving."
	AmountInvalidMessage = "Total amount must be a number."
)

// ValidationState holds the field errors of the last save attempt.
type ValidationState struct {
	DateError        string
	TotalAmountError string
	// Focus names the field the user should be taken to, if any.
	Focus string
}

// OK reports whether no error is set.
func (v ValidationState) OK() bool {
	return v.DateError == "" && v.TotalAmountError == ""
}

// Check runs the pre-save checks in order and stops at the first failure.
// A failure switches the draft into edit mode.
//
// The date check blocks an empty date outright, while the record mapper
// substitutes the current time for a date it cannot parse. Both behaviours
// are kept on purpose and are not to be merged.
func Check(d *draft.Draft) ValidationState {
	var v ValidationState

	if d.Date() == "" {
		v.DateError = DateRequiredMessage
		// drafts reach the gate before they are saved, so never read-only
		_ = d.SetEditing(true)
		return v
	}

	if _, ok := normalize.ParseAmount(d.Amount()); !ok {
		v.TotalAmountError = AmountInvalidMessage
		v.Focus = d.Schema().AmountField
		_ = d.SetEditing(true)
		return v
	}

	return v
}
