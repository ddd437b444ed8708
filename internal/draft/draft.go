package draft

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zombor/expense-tracker/internal/normalize"
)

var (
	// ErrUnknownField is returned when an edit names a key the draft does
	// not carry. Edits never add or remove keys.
	ErrUnknownField = errors.New("unknown field")
	// ErrReadOnly is returned for any change to a draft that has been saved.
	ErrReadOnly = errors.New("draft is read-only")
)

// DefaultExpenseType is used when no category was chosen.
const DefaultExpenseType = "other"

// RawFields is the extractor's output for one document. A nil value is a
// field the extractor reported as null.
type RawFields map[string]*string

// Get returns the value of key, treating null and missing alike.
func (r RawFields) Get(key string) string {
	if v := r[key]; v != nil {
		return *v
	}
	return ""
}

// Draft is the editable copy of one extracted document. It is not safe for
// concurrent use.
type Draft struct {
	kind    Kind
	schema  Schema
	raw     map[string]string
	fields  map[string]string
	editing bool
	savedID string
}

// New builds a draft from an extraction result. The field set is every raw
// key plus ExpenseType, and it never changes afterwards.
func New(raw RawFields, expenseType string) *Draft {
	kind := ParseKind(raw.Get(FieldDocumentType))
	d := &Draft{
		kind:   kind,
		schema: SchemaFor(kind),
		raw:    make(map[string]string, len(raw)+1),
		fields: make(map[string]string, len(raw)+1),
	}
	for k := range raw {
		v := raw.Get(k)
		d.raw[k] = v
		d.fields[k] = v
	}

	if expenseType = strings.TrimSpace(expenseType); expenseType == "" {
		expenseType = strings.TrimSpace(raw.Get(FieldExpenseType))
	}
	if expenseType == "" {
		expenseType = DefaultExpenseType
	}
	d.raw[FieldExpenseType] = expenseType
	d.fields[FieldExpenseType] = expenseType
	return d
}

// Kind returns the document kind.
func (d *Draft) Kind() Kind { return d.kind }

// Schema returns the field layout for the draft's kind.
func (d *Draft) Schema() Schema { return d.schema }

// Value returns the current value of a field.
func (d *Draft) Value(field string) (string, bool) {
	v, ok := d.fields[field]
	return v, ok
}

// Get returns the current value of a field, or "" when absent.
func (d *Draft) Get(field string) string {
	return d.fields[field]
}

// Original returns the value the extractor produced for a field.
func (d *Draft) Original(field string) string {
	return d.raw[field]
}

// Edit replaces exactly one field.
func (d *Draft) Edit(field, value string) error {
	if d.ReadOnly() {
		return ErrReadOnly
	}
	if _, ok := d.fields[field]; !ok {
		return fmt.Errorf("editing %q: %w", field, ErrUnknownField)
	}
	d.fields[field] = value
	return nil
}

// Edited lists the fields whose value differs from the extraction, sorted.
func (d *Draft) Edited() []string {
	var keys []string
	for k, v := range d.fields {
		if d.raw[k] != v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Fields returns a copy of the current field values.
func (d *Draft) Fields() map[string]string {
	out := make(map[string]string, len(d.fields))
	for k, v := range d.fields {
		out[k] = v
	}
	return out
}

// Keys returns every field key, sorted.
func (d *Draft) Keys() []string {
	keys := make([]string, 0, len(d.fields))
	for k := range d.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KnownKeys returns the schema fields the draft carries, in schema order.
func (d *Draft) KnownKeys() []string {
	var keys []string
	for _, k := range d.schema.Known {
		if _, ok := d.fields[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// ExtraKeys returns keys outside the schema that are still shown to the
// user, sorted. Internal label keys and the discriminators are left out.
func (d *Draft) ExtraKeys() []string {
	var keys []string
	for k := range d.fields {
		if d.schema.IsKnown(k) || hidden(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ExpenseType returns the chosen category.
func (d *Draft) ExpenseType() string {
	return d.fields[FieldExpenseType]
}

// Date returns the document's date: the first non-empty date field of the
// schema, or "".
func (d *Draft) Date() string {
	for _, k := range d.schema.DateFields {
		if v := strings.TrimSpace(d.fields[k]); v != "" {
			return v
		}
	}
	return ""
}

// Amount returns the raw value of the total amount field.
func (d *Draft) Amount() string {
	return d.fields[d.schema.AmountField]
}

// LineItems parses the item field. Items are recomputed on every call and
// never written back into the fields.
func (d *Draft) LineItems() []normalize.LineItem {
	return normalize.ParseLineItems(d.fields[d.schema.ItemField])
}

// Editing reports whether the draft is in edit mode.
func (d *Draft) Editing() bool { return d.editing }

// SetEditing switches edit mode. A saved draft cannot enter edit mode.
func (d *Draft) SetEditing(on bool) error {
	if on && d.ReadOnly() {
		return ErrReadOnly
	}
	d.editing = on
	return nil
}

// MarkSaved records the backend id and makes the draft read-only.
func (d *Draft) MarkSaved(id string) {
	d.savedID = id
	d.editing = false
}

// SavedID returns the backend id, or "" before the draft is saved.
func (d *Draft) SavedID() string { return d.savedID }

// ReadOnly reports whether the draft has been saved.
func (d *Draft) ReadOnly() bool { return d.savedID != "" }

func (d *Draft) snapshot() map[string]string {
	return d.Fields()
}

func (d *Draft) restore(snap map[string]string) {
	for k, v := range snap {
		if _, ok := d.fields[k]; ok {
			d.fields[k] = v
		}
	}
}
