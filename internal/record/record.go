// Package record holds the shapes exchanged with the expense backend.
package record

import (
	"strings"
	"time"
)

// Item is a purchased item as the backend stores it. Price is a display
// string such as "$500.00".
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Receipt is the backend record for a receipt.
type Receipt struct {
	Category     string  `json:"category"`
	SellerName   string  `json:"seller_name"`
	OrderID      string  `json:"order_id"`
	TotalPrice   float64 `json:"total_price"`
	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	Date         string  `json:"date"`
	Address      string  `json:"address"`
	Items        []Item  `json:"items"`
	UploadedDate string  `json:"uploaded_date"`
	UserID       string  `json:"user_id"`
}

// Invoice is the backend record for an invoice.
type Invoice struct {
	Category        string  `json:"category"`
	CustomerAddress string  `json:"customer_address"`
	CustomerName    string  `json:"customer_name"`
	DueDate         string  `json:"due_date"`
	InvoiceDate     string  `json:"invoice_date,omitempty"`
	InvoiceNumber   string  `json:"invoice_number"`
	Item            string  `json:"item"`
	Items           []Item  `json:"items"`
	SellerAddress   string  `json:"seller_address"`
	SellerName      string  `json:"seller_name"`
	SentEmail       bool    `json:"sent_email"`
	TotalAmount     float64 `json:"total_amount"`
	UploadedDate    string  `json:"uploaded_date"`
	UserID          string  `json:"user_id"`
}

// Created is the backend's reply to a create request.
type Created struct {
	DocID string `json:"doc_id"`
}

const ownerPrefix = "/Users/"

// OwnerRef is the owner reference stored on every record. An empty uid
// yields an empty reference.
func OwnerRef(uid string) string {
	if uid == "" {
		return ""
	}
	return ownerPrefix + uid
}

// OwnerUID reverses OwnerRef. A bare uid is returned unchanged.
func OwnerUID(ref string) string {
	return strings.TrimPrefix(ref, ownerPrefix)
}

// StoredReceipt is a receipt as the backend returns it.
type StoredReceipt struct {
	ID string `json:"id"`
	Receipt
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredInvoice is an invoice as the backend returns it.
type StoredInvoice struct {
	ID string `json:"id"`
	Invoice
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatDetails is what the assistant read out of a question.
type ChatDetails struct {
	Category          string `json:"category,omitempty"`
	Month             string `json:"month,omitempty"`
	Confidence        string `json:"confidence,omitempty"`
	IsGeneralQuestion bool   `json:"is_general_question"`
	IsCasualGreeting  bool   `json:"is_casual_greeting,omitempty"`
}

// ChatAnswer is the assistant's reply.
type ChatAnswer struct {
	Answer           string       `json:"answer"`
	Suggestions      []string     `json:"suggestions,omitempty"`
	ExtractedDetails *ChatDetails `json:"extracted_details,omitempty"`
}

// Profile is the account details a user keeps on the profile screen. The
// email address is where invoice reminders go.
type Profile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Occupation string `json:"occupation,omitempty"`
	HomeTown   string `json:"home_town,omitempty"`
	UserID     string `json:"user_id"`
}

// StoredProfile is a profile as the backend returns it.
type StoredProfile struct {
	Profile
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReminderResult reports one run of the invoice reminder check.
type ReminderResult struct {
	Status     string `json:"status"`
	Due        int    `json:"due"`
	EmailsSent int    `json:"emails_sent"`
}
