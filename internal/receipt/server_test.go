package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/expense-tracker/internal/auth"
	"github.com/zombor/expense-tracker/internal/record"
)

// mockAssistant is a mock implementation of Assistant
type mockAssistant struct {
	answer   *record.ChatAnswer
	err      error
	question string
	receipts []*record.StoredReceipt
}

func (m *mockAssistant) Answer(ctx context.Context, question string, receipts []*record.StoredReceipt) (*record.ChatAnswer, error) {
	m.question = question
	m.receipts = receipts
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		scanner     *mockScanner
		service     *Service
		assistant   *mockAssistant
		issuer      *auth.Issuer
		server      *Server
		ghttpServer *ghttp.Server
	)

	BeforeEach(func() {
		db = newMockDB()
		scanner = newMockScanner()
		service = NewServiceWithDeps(db, scanner, newMockStorage(), &mockIDGenerator{}, &mockTimeSource{
			now: time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC),
		})
		assistant = &mockAssistant{answer: &record.ChatAnswer{Answer: "You spent $10.00"}}
		issuer = nil
		ghttpServer = ghttp.NewServer()
	})

	JustBeforeEach(func() {
		var a Assistant
		if assistant != nil {
			a = assistant
		}
		server = NewServerWithMux(service, a, issuer, http.NewServeMux())
	})

	AfterEach(func() {
		ghttpServer.Close()
	})

	do := func(method, path string, body io.Reader, header http.Header) *http.Response {
		ghttpServer.AppendHandlers(server.ServeHTTP)
		req, err := http.NewRequest(method, ghttpServer.URL()+path, body)
		Expect(err).NotTo(HaveOccurred())
		for k, v := range header {
			req.Header[k] = v
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(resp.Body.Close)
		return resp
	}

	jsonBody := func(v any) io.Reader {
		data, err := json.Marshal(v)
		Expect(err).NotTo(HaveOccurred())
		return bytes.NewReader(data)
	}

	decode := func(resp *http.Response, v any) {
		Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
	}

	Describe("CORS", func() {
		It("answers preflight requests", func() {
			resp := do(http.MethodOptions, "/api/receipts", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("PUT"))
		})

		It("sets headers on normal responses", func() {
			resp := do(http.MethodGet, "/health", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	When("no token issuer is configured", func() {
		It("scopes records to the user_id query parameter", func() {
			resp := do(http.MethodPost, "/api/receipt?user_id=u1", jsonBody(record.Receipt{OrderID: "ORD1"}), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var created record.Created
			decode(resp, &created)
			Expect(created.DocID).To(Equal("id-1"))
			Expect(db.receipts["id-1"].UserID).To(Equal("/Users/u1"))

			var mine []record.StoredReceipt
			decode(do(http.MethodGet, "/api/receipts?user_id=u1", nil, nil), &mine)
			Expect(mine).To(HaveLen(1))

			var anonymous []record.StoredReceipt
			decode(do(http.MethodGet, "/api/receipts", nil, nil), &anonymous)
			Expect(anonymous).To(BeEmpty())
		})
	})

	When("a token issuer is configured", func() {
		var token string

		BeforeEach(func() {
			var err error
			issuer, err = auth.NewIssuer("secret", "expense-tracker", time.Hour)
			Expect(err).NotTo(HaveOccurred())
			token, err = issuer.Sign("u1", "u1@example.com")
			Expect(err).NotTo(HaveOccurred())
			db.receipts["r1"] = &record.StoredReceipt{ID: "r1", Receipt: record.Receipt{OrderID: "ORD1", UserID: "/Users/u1"}}
		})

		It("rejects requests without a token", func() {
			resp := do(http.MethodGet, "/api/receipts?user_id=u1", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})

		It("rejects bad tokens", func() {
			resp := do(http.MethodGet, "/api/receipts", nil, http.Header{"Authorization": {"Bearer nope"}})
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("serves the token's owner", func() {
			resp := do(http.MethodGet, "/api/receipts", nil, http.Header{"Authorization": {"Bearer " + token}})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var receipts []record.StoredReceipt
			decode(resp, &receipts)
			Expect(receipts).To(HaveLen(1))
			Expect(receipts[0].ID).To(Equal("r1"))
		})

		It("ignores a user_id in the body", func() {
			resp := do(http.MethodPost, "/api/invoice", jsonBody(record.Invoice{InvoiceNumber: "INV-1", UserID: "/Users/u2"}),
				http.Header{"Authorization": {"Bearer " + token}})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(db.invoices["id-1"].UserID).To(Equal("/Users/u1"))
		})
	})

	Describe("POST /api/upload", func() {
		multipartBody := func(files map[string]string) (io.Reader, http.Header) {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			for name, ct := range files {
				h := make(textproto.MIMEHeader)
				h.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
				h.Set("Content-Type", ct)
				part, err := mw.CreatePart(h)
				Expect(err).NotTo(HaveOccurred())
				part.Write([]byte("data"))
			}
			Expect(mw.Close()).To(Succeed())
			return &buf, http.Header{"Content-Type": {mw.FormDataContentType()}}
		}

		It("returns one field set per file", func() {
			body, header := multipartBody(map[string]string{"a.png": "image/png", "b.pdf": "application/pdf"})
			resp := do(http.MethodPost, "/api/upload", body, header)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var fields []map[string]*string
			decode(resp, &fields)
			Expect(fields).To(HaveLen(2))
			Expect(*fields[0]["Title"]).To(Equal("Cafe X"))
			Expect(fields[0]).To(HaveKey("Tax"))
			Expect(fields[0]["Tax"]).To(BeNil())
		})

		It("rejects unsupported files", func() {
			body, header := multipartBody(map[string]string{"notes.txt": "text/plain"})
			resp := do(http.MethodPost, "/api/upload", body, header)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects a form without files", func() {
			body, header := multipartBody(map[string]string{})
			resp := do(http.MethodPost, "/api/upload", body, header)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("reports scanner failures as a bad gateway", func() {
			scanner.scanErr = errors.New("model unavailable")
			body, header := multipartBody(map[string]string{"a.png": "image/png"})
			resp := do(http.MethodPost, "/api/upload", body, header)
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
			var detail map[string]string
			decode(resp, &detail)
			Expect(detail["detail"]).To(ContainSubstring("model unavailable"))
		})
	})

	Describe("receipt history", func() {
		BeforeEach(func() {
			db.receipts["r1"] = &record.StoredReceipt{ID: "r1", Receipt: record.Receipt{OrderID: "ORD1", Category: "Food", Date: "2024-03-02T10:00:00.000Z", UserID: "/Users/u1"}}
			db.receipts["r2"] = &record.StoredReceipt{ID: "r2", Receipt: record.Receipt{OrderID: "ORD2", Category: "Fuel", Date: "2024-03-05T10:00:00.000Z", UserID: "/Users/u1"}}
		})

		It("lists by month and category", func() {
			resp := do(http.MethodGet, "/api/receipts/by-month?user_id=u1&month=3&year=2024&category=food", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var receipts []record.StoredReceipt
			decode(resp, &receipts)
			Expect(receipts).To(HaveLen(1))
			Expect(receipts[0].OrderID).To(Equal("ORD1"))
		})

		It("defaults the year to the current one", func() {
			var receipts []record.StoredReceipt
			decode(do(http.MethodGet, "/api/receipts/by-month?user_id=u1&month=3", nil, nil), &receipts)
			Expect(receipts).To(HaveLen(2))
		})

		It("rejects a bad month", func() {
			resp := do(http.MethodGet, "/api/receipts/by-month?user_id=u1&month=13", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("updates by order id", func() {
			resp := do(http.MethodPut, "/api/receipts/ORD1?user_id=u1", jsonBody(record.Receipt{SellerName: "Cafe Y"}), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(db.receipts["r1"].SellerName).To(Equal("Cafe Y"))
		})

		It("returns 404 for an unknown order id", func() {
			resp := do(http.MethodPut, "/api/receipts/NOPE?user_id=u1", jsonBody(record.Receipt{}), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("rejects malformed bodies", func() {
			resp := do(http.MethodPut, "/api/receipts/ORD1?user_id=u1", bytes.NewReader([]byte("{")), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("deletes by order id", func() {
			resp := do(http.MethodDelete, "/api/receipts/ORD2?user_id=u1", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.receipts).NotTo(HaveKey("r2"))
		})
	})

	Describe("invoice history", func() {
		BeforeEach(func() {
			db.invoices["i1"] = &record.StoredInvoice{ID: "i1", Invoice: record.Invoice{InvoiceNumber: "INV-7", UserID: "/Users/u1"}}
		})

		It("lists, updates and deletes", func() {
			var invoices []record.StoredInvoice
			decode(do(http.MethodGet, "/api/invoices?user_id=u1", nil, nil), &invoices)
			Expect(invoices).To(HaveLen(1))

			resp := do(http.MethodPut, "/api/invoices/INV-7?user_id=u1", jsonBody(record.Invoice{SentEmail: true}), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(db.invoices["i1"].SentEmail).To(BeTrue())

			resp = do(http.MethodDelete, "/api/invoices/INV-7?user_id=u1", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp = do(http.MethodDelete, "/api/invoices/INV-7?user_id=u1", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("/api/profile", func() {
		It("saves and returns the caller's profile", func() {
			resp := do(http.MethodGet, "/api/profile?user_id=u1", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			resp = do(http.MethodPut, "/api/profile?user_id=u1", jsonBody(record.Profile{Name: "Ann", Email: "ann@example.com"}), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(db.profiles).To(HaveKey("/Users/u1"))

			var profile record.StoredProfile
			decode(do(http.MethodGet, "/api/profile?user_id=u1", nil, nil), &profile)
			Expect(profile.Name).To(Equal("Ann"))
			Expect(profile.UserID).To(Equal("/Users/u1"))

			resp = do(http.MethodGet, "/api/profile?user_id=u2", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("rejects an invalid email", func() {
			resp := do(http.MethodPut, "/api/profile?user_id=u1", jsonBody(record.Profile{Email: "nope"}), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("requires a user", func() {
			resp := do(http.MethodGet, "/api/profile", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			resp = do(http.MethodPut, "/api/profile", jsonBody(record.Profile{Name: "Ann"}), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /api/invoices/reminders", func() {
		var notifier *mockNotifier

		BeforeEach(func() {
			notifier = &mockNotifier{}
			service.SetNotifier(notifier)
			db.invoices["i1"] = &record.StoredInvoice{ID: "i1", Invoice: record.Invoice{InvoiceNumber: "INV-7", DueDate: "2024-03-25T00:00:00.000Z", UserID: "/Users/u1"}}
		})

		When("the caller has an email address", func() {
			BeforeEach(func() {
				db.profiles["/Users/u1"] = &record.StoredProfile{Profile: record.Profile{Email: "ann@example.com", UserID: "/Users/u1"}}
			})

			It("reminds and reports the count", func() {
				resp := do(http.MethodPost, "/api/invoices/reminders?user_id=u1&days=7", nil, nil)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				var result record.ReminderResult
				decode(resp, &result)
				Expect(result).To(Equal(record.ReminderResult{Status: "done", Due: 1, EmailsSent: 1}))
				Expect(db.invoices["i1"].SentEmail).To(BeTrue())
			})

			It("skips invoices outside the window", func() {
				var result record.ReminderResult
				decode(do(http.MethodPost, "/api/invoices/reminders?user_id=u1&days=2", nil, nil), &result)
				Expect(result.Due).To(BeZero())
				Expect(notifier.sent).To(BeEmpty())
			})

			It("rejects a bad window", func() {
				resp := do(http.MethodPost, "/api/invoices/reminders?user_id=u1&days=-3", nil, nil)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the caller has no profile", func() {
			It("returns a conflict", func() {
				resp := do(http.MethodPost, "/api/invoices/reminders?user_id=u1", nil, nil)
				Expect(resp.StatusCode).To(Equal(http.StatusConflict))
				var detail map[string]string
				decode(resp, &detail)
				Expect(detail["detail"]).To(ContainSubstring("email address"))
			})
		})
	})

	Describe("GET /api/chat", func() {
		BeforeEach(func() {
			db.receipts["r1"] = &record.StoredReceipt{ID: "r1", Receipt: record.Receipt{UserID: "/Users/u1"}}
			db.receipts["r2"] = &record.StoredReceipt{ID: "r2", Receipt: record.Receipt{UserID: "/Users/u2"}}
		})

		It("answers over the caller's receipts", func() {
			resp := do(http.MethodGet, "/api/chat?user_id=u1&question=how+much+on+food", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var answer record.ChatAnswer
			decode(resp, &answer)
			Expect(answer.Answer).To(Equal("You spent $10.00"))
			Expect(assistant.question).To(Equal("how much on food"))
			Expect(assistant.receipts).To(HaveLen(1))
		})

		It("requires a question", func() {
			resp := do(http.MethodGet, "/api/chat?user_id=u1", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("reports assistant failures in the detail field", func() {
			assistant.err = errors.New("quota")
			resp := do(http.MethodGet, "/api/chat?user_id=u1&question=hi", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
			var detail map[string]string
			decode(resp, &detail)
			Expect(detail).To(HaveKey("detail"))
		})

		When("no assistant is configured", func() {
			BeforeEach(func() {
				assistant = nil
			})

			It("returns service unavailable", func() {
				resp := do(http.MethodGet, "/api/chat?user_id=u1&question=hi", nil, nil)
				Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
			})
		})
	})
})
