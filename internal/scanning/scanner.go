package scanning

import "github.com/zombor/expense-tracker/internal/draft"

// Document kinds reported in the DocumentType field
const (
	DocumentReceipt = "receipt"
	DocumentInvoice = "invoice"
	DocumentUnknown = "unknown"
)

// Scanner defines the interface for document extraction
type Scanner interface {
	// ScanDocument analyzes a receipt or invoice image/PDF and returns the
	// extracted fields, including DocumentType
	ScanDocument(imageData []byte, contentType string) (draft.RawFields, error)
	// Close closes the scanner and releases resources
	Close() error
}
