package receipt

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/zombor/expense-tracker/internal/record"
)

const (
	receiptBucketName = "receipts"
	invoiceBucketName = "invoices"
	profileBucketName = "profiles"
)

// DB defines the interface for database operations. List and Find calls
// are scoped to an owner reference; records with another owner are never
// returned.
type DB interface {
	// SaveReceipt inserts or replaces a receipt by ID
	SaveReceipt(receipt *record.StoredReceipt) error

	// GetReceipt retrieves a receipt by ID
	GetReceipt(id string) (*record.StoredReceipt, error)

	// ListReceipts returns the owner's receipts
	ListReceipts(owner string) ([]*record.StoredReceipt, error)

	// FindReceipt returns the owner's receipt with the given order id
	FindReceipt(owner, orderID string) (*record.StoredReceipt, error)

	// DeleteReceipt removes a receipt by ID
	DeleteReceipt(id string) error

	// SaveInvoice inserts or replaces an invoice by ID
	SaveInvoice(invoice *record.StoredInvoice) error

	// GetInvoice retrieves an invoice by ID
	GetInvoice(id string) (*record.StoredInvoice, error)

	// ListInvoices returns the owner's invoices
	ListInvoices(owner string) ([]*record.StoredInvoice, error)

	// FindInvoice returns the owner's invoice with the given invoice number
	FindInvoice(owner, invoiceNumber string) (*record.StoredInvoice, error)

	// DeleteInvoice removes an invoice by ID
	DeleteInvoice(id string) error

	// SaveProfile inserts or replaces the profile of its owner
	SaveProfile(profile *record.StoredProfile) error

	// GetProfile retrieves the owner's profile
	GetProfile(owner string) (*record.StoredProfile, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB. Records are stored as
// JSON keyed by document id, one bucket per kind. Profiles are keyed by
// owner reference.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{receiptBucketName, invoiceBucketName, profileBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func put(db *bbolt.DB, bucket, id string, v any) error {
	return db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", bucket, err)
		}
		return tx.Bucket([]byte(bucket)).Put([]byte(id), data)
	})
}

func get[T any](db *bbolt.DB, bucket, id string) (*T, error) {
	var out *T
	err := db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s %s", ErrNotFound, bucket, id)
		}
		return json.Unmarshal(data, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// scan decodes every record in a bucket and keeps those keep accepts
func scan[T any](db *bbolt.DB, bucket string, keep func(*T) bool) ([]*T, error) {
	out := make([]*T, 0)
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucket)).ForEach(func(k, v []byte) error {
			var item T
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("unmarshaling %s %s: %w", bucket, k, err)
			}
			if keep(&item) {
				out = append(out, &item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func remove(db *bbolt.DB, bucket, id string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s %s", ErrNotFound, bucket, id)
		}
		return b.Delete([]byte(id))
	})
}

// SaveReceipt saves a receipt to the database
func (b *BoltDB) SaveReceipt(receipt *record.StoredReceipt) error {
	return put(b.db, receiptBucketName, receipt.ID, receipt)
}

// GetReceipt retrieves a receipt by ID
func (b *BoltDB) GetReceipt(id string) (*record.StoredReceipt, error) {
	return get[record.StoredReceipt](b.db, receiptBucketName, id)
}

// ListReceipts returns all receipts belonging to owner
func (b *BoltDB) ListReceipts(owner string) ([]*record.StoredReceipt, error) {
	return scan(b.db, receiptBucketName, func(r *record.StoredReceipt) bool {
		return r.UserID == owner
	})
}

// FindReceipt looks a receipt up by its order id
func (b *BoltDB) FindReceipt(owner, orderID string) (*record.StoredReceipt, error) {
	found, err := scan(b.db, receiptBucketName, func(r *record.StoredReceipt) bool {
		return r.UserID == owner && r.OrderID == orderID
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: receipt %s", ErrNotFound, orderID)
	}
	return found[0], nil
}

// DeleteReceipt removes a receipt from the database
func (b *BoltDB) DeleteReceipt(id string) error {
	return remove(b.db, receiptBucketName, id)
}

// SaveInvoice saves an invoice to the database
func (b *BoltDB) SaveInvoice(invoice *record.StoredInvoice) error {
	return put(b.db, invoiceBucketName, invoice.ID, invoice)
}

// GetInvoice retrieves an invoice by ID
func (b *BoltDB) GetInvoice(id string) (*record.StoredInvoice, error) {
	return get[record.StoredInvoice](b.db, invoiceBucketName, id)
}

// ListInvoices returns all invoices belonging to owner
func (b *BoltDB) ListInvoices(owner string) ([]*record.StoredInvoice, error) {
	return scan(b.db, invoiceBucketName, func(inv *record.StoredInvoice) bool {
		return inv.UserID == owner
	})
}

// FindInvoice looks an invoice up by its number
func (b *BoltDB) FindInvoice(owner, invoiceNumber string) (*record.StoredInvoice, error) {
	found, err := scan(b.db, invoiceBucketName, func(inv *record.StoredInvoice) bool {
		return inv.UserID == owner && inv.InvoiceNumber == invoiceNumber
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, invoiceNumber)
	}
	return found[0], nil
}

// DeleteInvoice removes an invoice from the database
func (b *BoltDB) DeleteInvoice(id string) error {
	return remove(b.db, invoiceBucketName, id)
}

// SaveProfile saves a profile under its owner
func (b *BoltDB) SaveProfile(profile *record.StoredProfile) error {
	if profile.UserID == "" {
		return fmt.Errorf("saving profile: owner is required")
	}
	return put(b.db, profileBucketName, profile.UserID, profile)
}

// GetProfile retrieves the profile of owner
func (b *BoltDB) GetProfile(owner string) (*record.StoredProfile, error) {
	return get[record.StoredProfile](b.db, profileBucketName, owner)
}

// Close closes the database connection() error {
	return b.db.Close()
}
