package receipt

import (
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/expense-tracker/internal/draft"
	"github.com/zombor/expense-tracker/internal/normalize"
	"github.com/zombor/expense-tracker/internal/record"
	"github.com/zombor/expense-tracker/internal/scanning"
)

// ErrUnsupportedType is returned for uploads that are not images or PDFs
var ErrUnsupportedType = errors.New("unsupported file type")

// IDGenerator generates unique document ids
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// supportedTypes maps upload extensions to the content type used when the
// client did not send one
var supportedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".heic": "image/heic",
	".heif": "image/heif",
}

// Upload is one file of an extraction request
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service handles document extraction and the receipt and invoice history
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	notifier    Notifier
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with uuid document ids and the wall clock
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return NewServiceWithDeps(db, scanner, storage, uuidGenerator{}, defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		notifier:    LogNotifier{},
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// SetNotifier replaces the log-only notifier used for invoice reminders
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// contentType resolves the type of an upload, rejecting anything that is
// not an image or PDF
func contentType(u Upload) (string, error) {
	declared := strings.ToLower(strings.TrimSpace(u.ContentType))
	if declared == "application/pdf" || strings.HasPrefix(declared, "image/") {
		return declared, nil
	}
	if ct, ok := supportedTypes[strings.ToLower(filepath.Ext(u.Filename))]; ok {
		return ct, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, u.Filename)
}

// Extract scans every upload and returns one field set per file, in order.
// The original is archived when storage is configured. Any failure aborts
// the whole batch.
func (s *Service) Extract(uploads []Upload) ([]draft.RawFields, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("at least one file is required")
	}

	results := make([]draft.RawFields, 0, len(uploads))
	for _, u := range uploads {
		ct, err := contentType(u)
		if err != nil {
			return nil, err
		}

		var saved string
		if s.storage != nil {
			saved, err = s.storage.Save(s.idGenerator.Generate()+"_"+sanitizeFilename(u.Filename), u.Data)
			if err != nil {
				return nil, fmt.Errorf("saving file: %w", err)
			}
		}

		fields, err := s.scanner.ScanDocument(u.Data, ct)
		if err != nil {
			slog.Error("Failed to scan document",
				"filename", u.Filename,
				"content_type", ct,
				"file_size", len(u.Data),
				"error", err,
			)
			if saved != "" {
				if delErr := s.storage.Delete(saved); delErr != nil {
					slog.Warn("Failed to delete file", "filename", saved, "error", delErr)
				}
			}
			return nil, fmt.Errorf("scanning %s: %w", u.Filename, err)
		}

		slog.Info("Extracted document",
			"filename", u.Filename,
			"document_type", fields.Get(draft.FieldDocumentType),
			"fields", len(fields),
		)
		results = append(results, fields)
	}
	return results, nil
}

// stamp fills the owner and upload date. An authenticated owner always
// wins over whatever the client put in user_id.
func (s *Service) stamp(owner string, userID, uploaded *string, now time.Time) {
	if owner != "" {
		*userID = owner
	}
	if strings.TrimSpace(*uploaded) == "" {
		*uploaded = normalize.ISO(now)
	}
}

// CreateReceipt stores a new receipt and returns its document id
func (s *Service) CreateReceipt(owner string, r *record.Receipt) (string, error) {
	if r == nil {
		return "", fmt.Errorf("receipt is required")
	}
	now := s.timeSource.Now()
	stored := &record.StoredReceipt{
		ID:        s.idGenerator.Generate(),
		Receipt:   *r,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.stamp(owner, &stored.UserID, &stored.UploadedDate, now)
	if stored.Items == nil {
		stored.Items = []record.Item{}
	}

	if err := s.db.SaveReceipt(stored); err != nil {
		return "", fmt.Errorf("saving receipt to database: %w", err)
	}
	return stored.ID, nil
}

// ListReceipts returns the owner's receipts, newest first
func (s *Service) ListReceipts(owner string) ([]*record.StoredReceipt, error) {
	receipts, err := s.db.ListReceipts(owner)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	sortReceipts(receipts)
	return receipts, nil
}

// ReceiptsByMonth returns the owner's receipts that match the filter
func (s *Service) ReceiptsByMonth(owner string, filter MonthFilter) ([]*record.StoredReceipt, error) {
	if filter.Month < time.January || filter.Month > time.December {
		return nil, fmt.Errorf("month must be between 1 and 12, got %d", filter.Month)
	}
	receipts, err := s.ListReceipts(owner)
	if err != nil {
		return nil, err
	}
	out := make([]*record.StoredReceipt, 0, len(receipts))
	for _, r := range receipts {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// UpdateReceipt replaces the owner's receipt with the given order id
func (s *Service) UpdateReceipt(owner, orderID string, r *record.Receipt) (*record.StoredReceipt, error) {
	if r == nil {
		return nil, fmt.Errorf("receipt is required")
	}
	existing, err := s.db.FindReceipt(owner, orderID)
	if err != nil {
		return nil, fmt.Errorf("getting receipt for update: %w", err)
	}

	updated := *existing
	updated.Receipt = *r
	updated.UserID = existing.UserID
	if updated.OrderID == "" {
		updated.OrderID = orderID
	}
	if updated.UploadedDate == "" {
		updated.UploadedDate = existing.UploadedDate
	}
	if updated.Items == nil {
		updated.Items = []record.Item{}
	}
	updated.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveReceipt(&updated); err != nil {
		return nil, fmt.Errorf("updating receipt: %w", err)
	}
	saved, err := s.db.GetReceipt(updated.ID)
	if err != nil {
		return nil, fmt.Errorf("reloading updated receipt: %w", err)
	}
	return saved, nil
}

// DeleteReceipt removes the owner's receipt with the given order id
func (s *Service) DeleteReceipt(owner, orderID string) error {
	existing, err := s.db.FindReceipt(owner, orderID)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}
	if err := s.db.DeleteReceipt(existing.ID); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// CreateInvoice stores a new invoice and returns its document id
func (s *Service) CreateInvoice(owner string, inv *record.Invoice) (string, error) {
	if inv == nil {
		return "", fmt.Errorf("invoice is required")
	}
	now := s.timeSource.Now()
	stored := &record.StoredInvoice{
		ID:        s.idGenerator.Generate(),
		Invoice:   *inv,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.stamp(owner, &stored.UserID, &stored.UploadedDate, now)
	if stored.Items == nil {
		stored.Items = []record.Item{}
	}

	if err := s.db.SaveInvoice(stored); err != nil {
		return "", fmt.Errorf("saving invoice to database: %w", err)
	}
	return stored.ID, nil
}

// ListInvoices returns the owner's invoices, soonest due first
func (s *Service) ListInvoices(owner string) ([]*record.StoredInvoice, error) {
	invoices, err := s.db.ListInvoices(owner)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	sortInvoices(invoices)
	return invoices, nil
}

// UpdateInvoice replaces the owner's invoice with the given number. The
// reminder flag is never cleared.
func (s *Service) UpdateInvoice(owner, invoiceNumber string, inv *record.Invoice) (*record.StoredInvoice, error) {
	if inv == nil {
		return nil, fmt.Errorf("invoice is required")
	}
	existing, err := s.db.FindInvoice(owner, invoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("getting invoice for update: %w", err)
	}

	updated := *existing
	updated.Invoice = *inv
	updated.UserID = existing.UserID
	// a reminder that went out stays sent
	updated.SentEmail = inv.SentEmail || existing.SentEmail
	if updated.InvoiceNumber == "" {
		updated.InvoiceNumber = invoiceNumber
	}
	if updated.UploadedDate == "" {
		updated.UploadedDate = existing.UploadedDate
	}
	if updated.Items == nil {
		updated.Items = []record.Item{}
	}
	updated.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveInvoice(&updated); err != nil {
		return nil, fmt.Errorf("updating invoice: %w", err)
	}
	saved, err := s.db.GetInvoice(updated.ID)
	if err != nil {
		return nil, fmt.Errorf("reloading updated invoice: %w", err)
	}
	return saved, nil
}

// DeleteInvoice removes the owner's invoice with the given number
func (s *Service) DeleteInvoice(owner, invoiceNumber string) error {
	existing, err := s.db.FindInvoice(owner, invoiceNumber)
	if err != nil {
		return fmt.Errorf("getting invoice for deletion: %w", err)
	}
	if err := s.db.DeleteInvoice(existing.ID); err != nil {
		return fmt.Errorf("deleting invoice from database: %w", err)
	}
	return nil
}

// GetProfile returns the owner's profile
func (s *Service) GetProfile(owner string) (*record.StoredProfile, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}
	profile, err := s.db.GetProfile(owner)
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile creates or replaces the owner's profile. A non-empty email
// must be a bare address.
func (s *Service) UpdateProfile(owner string, p *record.Profile) (*record.StoredProfile, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}
	if p == nil {
		return nil, fmt.Errorf("profile is required")
	}

	profile := *p
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Email = strings.TrimSpace(profile.Email)
	profile.UserID = owner
	if profile.Email != "" {
		addr, err := mail.ParseAddress(profile.Email)
		if err != nil || addr.Address != profile.Email {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, profile.Email)
		}
	}

	now := s.timeSource.Now()
	stored := &record.StoredProfile{Profile: profile, CreatedAt: now, UpdatedAt: now}
	existing, err := s.db.GetProfile(owner)
	switch {
	case err == nil:
		stored.CreatedAt = existing.CreatedAt
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("getting profile for update: %w", err)
	}

	if err := s.db.SaveProfile(stored); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return stored, nil
}
