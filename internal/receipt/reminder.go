package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/normalize"
	"github.com/zombor/expense-tracker/internal/record"
)

// DefaultReminderDays is how far ahead due dates are checked when the
// caller does not say.
const DefaultReminderDays = 14

// ErrNoRecipient is returned when invoices are due but the owner's profile
// has no email address to remind.
var ErrNoRecipient = errors.New("profile has no email address")

// Notifier delivers a reminder that an invoice falls due soon
type Notifier interface {
	InvoiceDue(ctx context.Context, to *record.StoredProfile, inv *record.StoredInvoice) error
}

// LogNotifier writes reminders to the log instead of sending them
type LogNotifier struct{}

func (LogNotifier) InvoiceDue(ctx context.Context, to *record.StoredProfile, inv *record.StoredInvoice) error {
	slog.InfoContext(ctx, "Invoice due soon",
		"to", to.Email,
		"invoice", inv.InvoiceNumber,
		"seller", inv.SellerName,
		"due", dueDay(inv),
		"amount", normalize.FormatCurrency(inv.TotalAmount))
	return nil
}

// sendMailFunc matches smtp.SendMail
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier mails reminders through an SMTP relay
type SMTPNotifier struct {
	addr string
	from string
	auth smtp.Auth
	send sendMailFunc
}

// NewSMTPNotifier creates a notifier for the relay at addr (host:port).
// Without a username the relay is used unauthenticated.
func NewSMTPNotifier(addr, from, username, password string) (*SMTPNotifier, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("parsing smtp address: %w", err)
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return nil, fmt.Errorf("parsing sender address: %w", err)
	}

	n := &SMTPNotifier{addr: addr, from: from, send: smtp.SendMail}
	if username != "" {
		n.auth = smtp.PlainAuth("", username, password, host)
	}
	return n, nil
}

func (n *SMTPNotifier) InvoiceDue(ctx context.Context, to *record.StoredProfile, inv *record.StoredInvoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.send(n.addr, n.auth, n.from, []string{to.Email}, reminderMessage(n.from, to, inv)); err != nil {
		return fmt.Errorf("sending reminder for invoice %s: %w", inv.InvoiceNumber, err)
	}
	return nil
}

var headerValue = strings.NewReplacer("\r", " ", "\n", " ")

func reminderMessage(from string, to *record.StoredProfile, inv *record.StoredInvoice) []byte {
	name := to.Name
	if name == "" {
		name = "there"
	}
	seller := inv.SellerName
	if seller == "" {
		seller = "Unknown"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", headerValue.Replace(from))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue.Replace(to.Email))
	fmt.Fprintf(&b, "Subject: Invoice Reminder: %s Due Soon\r\n", headerValue.Replace(inv.InvoiceNumber))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", name)
	fmt.Fprintf(&b, "This is a friendly reminder that your invoice from %s is due on %s.\r\n\r\n", seller, dueDay(inv))
	b.WriteString("Invoice Details:\r\n")
	fmt.Fprintf(&b, "- Invoice Number: %s\r\n", inv.InvoiceNumber)
	fmt.Fprintf(&b, "- Amount Due: %s\r\n\r\n", normalize.FormatCurrency(inv.TotalAmount))
	b.WriteString("Please pay before the due date to avoid late fees.\r\n")
	return b.Bytes()
}

func dueDay(inv *record.StoredInvoice) string {
	if due, ok := normalize.ParseDate(inv.DueDate); ok {
		return due.Format(time.DateOnly)
	}
	return inv.DueDate
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RemindDueInvoices sends a reminder for every invoice of owner that has
// not been reminded yet and falls due between today and days from now.
// Reminded invoices are marked sent. One that fails to send stays unsent
// and is picked up again on the next run.
func (s *Service) RemindDueInvoices(ctx context.Context, owner string, days int) (*record.ReminderResult, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}
	if days < 0 {
		return nil, fmt.Errorf("days must not be negative, got %d", days)
	}

	invoices, err := s.db.ListInvoices(owner)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}

	now := s.timeSource.Now()
	today := startOfDay(now)
	due := make([]*record.StoredInvoice, 0)
	for _, inv := range invoices {
		if inv.SentEmail {
			continue
		}
		date, ok := normalize.ParseDate(inv.DueDate)
		if !ok {
			continue
		}
		left := int(startOfDay(date).Sub(today).Hours() / 24)
		if left >= 0 && left <= days {
			due = append(due, inv)
		}
	}

	result := &record.ReminderResult{Status: "done", Due: len(due)}
	if len(due) == 0 {
		return result, nil
	}
	sortInvoices(due)

	profile, err := s.db.GetProfile(owner)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	if profile == nil || profile.Email == "" {
		return nil, ErrNoRecipient
	}

	for _, inv := range due {
		if err := s.notifier.InvoiceDue(ctx, profile, inv); err != nil {
			slog.Error("Failed to send invoice reminder", "invoice", inv.InvoiceNumber, "error", err)
			continue
		}

		reminded := *inv
		reminded.SentEmail = true
		reminded.UpdatedAt = now
		if err := s.db.SaveInvoice(&reminded); err != nil {
			return result, fmt.Errorf("marking invoice %s reminded: %w", inv.InvoiceNumber, err)
		}
		result.EmailsSent++
		slog.Info("Invoice reminder sent", "invoice", inv.InvoiceNumber, "due", dueDay(inv))
	}
	return result, nil
}
