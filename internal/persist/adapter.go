package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zombor/expense-tracker/internal/draft"
	"github.com/zombor/expense-tracker/internal/record"
)

// ErrNoRecordID is returned when the backend accepts a write but does not
// say which record it created.
var ErrNoRecordID = errors.New("backend returned no record id")

// Backend creates records. Each call is one network write.
type Backend interface {
	CreateReceipt(ctx context.Context, token string, r *record.Receipt) (string, error)
	CreateInvoice(ctx context.Context, token string, inv *record.Invoice) (string, error)
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Adapter maps confirmed drafts to backend records and writes them.
type Adapter struct {
	backend    Backend
	session    Session
	timeSource TimeSource
}

// NewAdapter creates an Adapter that stamps records with the wall clock
func NewAdapter(backend Backend, session Session) *Adapter {
	return NewAdapterWithDeps(backend, session, defaultTimeSource{})
}

// NewAdapterWithDeps creates an Adapter with a custom time source for testing
func NewAdapterWithDeps(backend Backend, session Session, timeSrc TimeSource) *Adapter {
	return &Adapter{
		backend:    backend,
		session:    session,
		timeSource: timeSrc,
	}
}

// Persist writes d once and returns the new record id. There is no retry
// and no idempotency key.
func (a *Adapter) Persist(ctx context.Context, d *draft.Draft) (string, error) {
	now := a.timeSource.Now()

	var (
		id  string
		err error
	)
	switch d.Kind() {
	case draft.Invoice:
		id, err = a.backend.CreateInvoice(ctx, a.session.IDToken, InvoiceRecord(d, a.session, now))
	default:
		id, err = a.backend.CreateReceipt(ctx, a.session.IDToken, ReceiptRecord(d, a.session, now))
	}
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", d.Kind(), err)
	}
	if id == "" {
		return "", fmt.Errorf("creating %s: %w", d.Kind(), ErrNoRecordID)
	}
	return id, nil
}
