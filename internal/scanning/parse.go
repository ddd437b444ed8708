package scanning

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zombor/expense-tracker/internal/draft"
)

// parseDocumentJSON parses the JSON object returned by a model into raw
// fields. Values are kept as printed; numbers and booleans are rendered back
// to strings and null stays absent-valued.
func parseDocumentJSON(text string) (draft.RawFields, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var decoded map[string]any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	fields := make(draft.RawFields, len(decoded))
	for key, value := range decoded {
		fields[key] = stringValue(value)
	}

	fields[draft.FieldDocumentType] = ptr(documentType(fields))
	return fields, nil
}

func stringValue(value any) *string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(v)
		return &s
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s
	case bool:
		s := strconv.FormatBool(v)
		return &s
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		s := string(encoded)
		return &s
	}
}

// documentType trusts the model's answer when it is one we know. Otherwise
// the key set decides, and the keyword classifier over the printed values
// breaks a tie.
func documentType(fields draft.RawFields) string {
	switch strings.ToLower(fields.Get(draft.FieldDocumentType)) {
	case DocumentReceipt:
		return DocumentReceipt
	case DocumentInvoice:
		return DocumentInvoice
	}

	receipt, invoice := draft.SchemaFor(draft.Receipt), draft.SchemaFor(draft.Invoice)
	var receiptKeys, invoiceKeys int
	keys := make([]string, 0, len(fields))
	for key := range fields {
		switch {
		case receipt.IsKnown(key):
			receiptKeys++
		case invoice.IsKnown(key):
			invoiceKeys++
		}
		if key != draft.FieldDocumentType {
			keys = append(keys, key)
		}
	}
	if receiptKeys > invoiceKeys {
		return DocumentReceipt
	}
	if invoiceKeys > receiptKeys {
		return DocumentInvoice
	}

	sort.Strings(keys)
	var text strings.Builder
	for _, key := range keys {
		text.WriteString(fields.Get(key))
		text.WriteString("\n")
	}
	return Classify(text.String())
}

func ptr(s string) *string { return &s }
