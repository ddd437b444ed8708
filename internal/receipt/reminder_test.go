package receipt

import (
	"context"
	"errors"
	"net/smtp"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/expense-tracker/internal/record"
)

var _ = Describe("SMTPNotifier", func() {
	var (
		notifier *SMTPNotifier
		sentTo   []string
		sentFrom string
		message  string
		sendErr  error
		to       *record.StoredProfile
		inv      *record.StoredInvoice
	)

	BeforeEach(func() {
		var err error
		notifier, err = NewSMTPNotifier("mail.example.com:587", "reminders@example.com", "", "")
		Expect(err).NotTo(HaveOccurred())
		sentTo, sentFrom, message, sendErr = nil, "", "", nil
		notifier.send = func(addr string, a smtp.Auth, from string, rcpt []string, msg []byte) error {
			Expect(addr).To(Equal("mail.example.com:587"))
			Expect(a).To(BeNil())
			sentFrom = from
			sentTo = rcpt
			message = string(msg)
			return sendErr
		}

		to = &record.StoredProfile{Profile: record.Profile{Name: "Ann", Email: "ann@example.com"}}
		inv = &record.StoredInvoice{ID: "i1", Invoice: record.Invoice{
			InvoiceNumber: "INV-7",
			SellerName:    "Acme",
			DueDate:       "2024-03-25T00:00:00.000Z",
			TotalAmount:   1234.5,
		}}
	})

	It("mails the reminder to the profile address", func() {
		Expect(notifier.InvoiceDue(context.Background(), to, inv)).To(Succeed())
		Expect(sentFrom).To(Equal("reminders@example.com"))
		Expect(sentTo).To(Equal([]string{"ann@example.com"}))
		Expect(message).To(ContainSubstring("Subject: Invoice Reminder: INV-7 Due Soon\r\n"))
		Expect(message).To(ContainSubstring("Hello Ann,"))
		Expect(message).To(ContainSubstring("your invoice from Acme is due on 2024-03-25."))
		Expect(message).To(ContainSubstring("- Amount Due: $1,234.50"))
	})

	It("keeps header values on one line", func() {
		inv.InvoiceNumber = "INV-7\r\nBcc: someone@example.com"
		Expect(notifier.InvoiceDue(context.Background(), to, inv)).To(Succeed())
		headers, _, _ := strings.Cut(message, "\r\n\r\n")
		Expect(headers).NotTo(ContainSubstring("\r\nBcc:"))
		Expect(headers).To(ContainSubstring("Subject: Invoice Reminder: INV-7  Bcc: someone@example.com Due Soon"))
	})

	It("wraps send failures", func() {
		sendErr = errors.New("connection refused")
		err := notifier.InvoiceDue(context.Background(), to, inv)
		Expect(err).To(MatchError(ContainSubstring("INV-7")))
		Expect(errors.Is(err, sendErr)).To(BeTrue())
	})

	It("does not send once the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(notifier.InvoiceDue(ctx, to, inv)).To(MatchError(context.Canceled))
		Expect(sentTo).To(BeNil())
	})

	It("uses plain auth when a username is given", func() {
		n, err := NewSMTPNotifier("mail.example.com:587", "reminders@example.com", "user", "pass")
		Expect(err).NotTo(HaveOccurred())
		Expect(n.auth).NotTo(BeNil())
	})

	It("rejects a bad relay or sender", func() {
		_, err := NewSMTPNotifier("mail.example.com", "reminders@example.com", "", "")
		Expect(err).To(HaveOccurred())
		_, err = NewSMTPNotifier("mail.example.com:25", "not an address", "", "")
		Expect(err).To(HaveOccurred())
	})
})
