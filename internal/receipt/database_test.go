package receipt

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/expense-tracker/internal/record"
)

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
		now    time.Time
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
		now = time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("receipts", func() {
		BeforeEach(func() {
			for _, r := range []*record.StoredReceipt{
				{ID: "r1", Receipt: record.Receipt{OrderID: "ORD1", SellerName: "Cafe X", TotalPrice: 8.17, UserID: "/Users/u1", Items: []record.Item{{Name: "Latte", Quantity: 1, Price: "$4.50"}}}, CreatedAt: now},
				{ID: "r2", Receipt: record.Receipt{OrderID: "ORD2", UserID: "/Users/u1"}, CreatedAt: now},
				{ID: "r3", Receipt: record.Receipt{OrderID: "ORD1", UserID: "/Users/u2"}, CreatedAt: now},
			} {
				Expect(db.SaveReceipt(r)).To(Succeed())
			}
		})

		It("round trips a receipt", func() {
			saved, err := db.GetReceipt("r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.SellerName).To(Equal("Cafe X"))
			Expect(saved.TotalPrice).To(Equal(8.17))
			Expect(saved.Items).To(ConsistOf(record.Item{Name: "Latte", Quantity: 1, Price: "$4.50"}))
			Expect(saved.CreatedAt.Equal(now)).To(BeTrue())
		})

		It("returns ErrNotFound for a missing id", func() {
			_, err := db.GetReceipt("missing")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})

		It("lists by owner", func() {
			receipts, err := db.ListReceipts("/Users/u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(2))

			receipts, err = db.ListReceipts("/Users/nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(BeEmpty())
		})

		It("finds by owner and order id", func() {
			found, err := db.FindReceipt("/Users/u2", "ORD1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal("r3"))

			_, err = db.FindReceipt("/Users/u2", "ORD2")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})

		It("replaces on save with the same id", func() {
			Expect(db.SaveReceipt(&record.StoredReceipt{ID: "r2", Receipt: record.Receipt{OrderID: "ORD2", SellerName: "New", UserID: "/Users/u1"}})).To(Succeed())
			saved, err := db.GetReceipt("r2")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.SellerName).To(Equal("New"))
		})

		It("deletes", func() {
			Expect(db.DeleteReceipt("r2")).To(Succeed())
			_, err := db.GetReceipt("r2")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
			Expect(errors.Is(db.DeleteReceipt("r2"), ErrNotFound)).To(BeTrue())
		})
	})

	Describe("invoices", func() {
		BeforeEach(func() {
			Expect(db.SaveInvoice(&record.StoredInvoice{ID: "i1", Invoice: record.Invoice{InvoiceNumber: "INV-7", TotalAmount: 350, UserID: "/Users/u1"}})).To(Succeed())
		})

		It("lists, finds and deletes", func() {
			invoices, err := db.ListInvoices("/Users/u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(invoices).To(HaveLen(1))
			Expect(invoices[0].TotalAmount).To(Equal(350.0))

			found, err := db.FindInvoice("/Users/u1", "INV-7")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal("i1"))

			got, err := db.GetInvoice("i1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.InvoiceNumber).To(Equal("INV-7"))

			Expect(db.DeleteInvoice("i1")).To(Succeed())
			_, err = db.FindInvoice("/Users/u1", "INV-7")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
			_, err = db.GetInvoice("i1")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})
	})

	Describe("profiles", func() {
		It("stores one profile per owner", func() {
			Expect(db.SaveProfile(&record.StoredProfile{
				Profile:   record.Profile{Name: "Ann", Email: "ann@example.com", UserID: "/Users/u1"},
				CreatedAt: now,
			})).To(Succeed())
			Expect(db.SaveProfile(&record.StoredProfile{
				Profile: record.Profile{Name: "Ann B", Email: "ann@example.com", UserID: "/Users/u1"},
			})).To(Succeed())

			saved, err := db.GetProfile("/Users/u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Name).To(Equal("Ann B"))

			_, err = db.GetProfile("/Users/u2")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})

		It("requires an owner", func() {
			Expect(db.SaveProfile(&record.StoredProfile{Profile: record.Profile{Name: "Nobody"}})).To(HaveOccurred())
		})
	})

	Describe("reopening", func() {
		It("keeps stored records", func() {
			Expect(db.SaveReceipt(&record.StoredReceipt{ID: "r1", Receipt: record.Receipt{UserID: "/Users/u1"}})).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			receipts, err := db.ListReceipts("/Users/u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(1))
		})
	})
})
