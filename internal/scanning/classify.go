package scanning

import (
	"regexp"
	"strings"
)

var (
	invoiceKeywords = []string{"invoice", "bill to", "invoice #", "invoice number", "amount due", "due date"}
	receiptKeywords = []string{"subtotal", "receipt", "order id", "total", "cash", "card", "tax", "thank you", "qty"}

	priceToken = regexp.MustCompile(`\$?\d{1,3}(?:[,.]\d{2,3})?(?:[,.]\d{2})?`)
	priceLine  = regexp.MustCompile(`\$?\d+[.,]\d{2}`)
	phoneToken = regexp.MustCompile(`\b\d{3}[-\s]?\d{3}[-\s]?\d{4}\b`)
)

// Classify labels OCR or extracted text as a receipt, an invoice or unknown
// using keyword and layout scoring. Invoice keywords win when they outnumber
// receipt keywords; otherwise price-heavy text is a receipt.
func Classify(text string) string {
	lower := strings.ToLower(text)

	invoiceScore := countKeywords(lower, invoiceKeywords)
	receiptScore := countKeywords(lower, receiptKeywords)
	if invoiceScore >= 1 && invoiceScore > receiptScore {
		return DocumentInvoice
	}

	prices := len(priceToken.FindAllString(text, -1))
	pricedLines := 0
	for _, line := range strings.Split(text, "\n") {
		if priceLine.MatchString(strings.TrimSpace(line)) {
			pricedLines++
		}
	}
	phone := 0
	if phoneToken.MatchString(text) {
		phone = 1
	}

	if receiptScore+prices*2+pricedLines*2+phone >= 3 {
		return DocumentReceipt
	}
	switch {
	case receiptScore > invoiceScore:
		return DocumentReceipt
	case invoiceScore > receiptScore:
		return DocumentInvoice
	}
	return DocumentUnknown
}

func countKeywords(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}
