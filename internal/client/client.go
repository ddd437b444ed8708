package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/draft"
	"github.com/zombor/expense-tracker/internal/record"
)

// ChatTimeout bounds a chat question from the moment it is sent.
const ChatTimeout = 15 * time.Second

// ChatTimeoutMessage is shown to the user when a chat question times out.
const ChatTimeoutMessage = "The request timed out. Please check your connection and try again."

// ErrChatTimeout is returned when the assistant does not answer in time.
var ErrChatTimeout = errors.New("chat request timed out")

// StatusError is a non-success reply from the backend.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: backend error (status %d): %s", e.Op, e.StatusCode, strings.TrimSpace(e.Body))
}

// Client talks to the expense backend over HTTP. Requests are made once;
// nothing is retried.
type Client struct {
	baseURL     string
	userID      string
	chatTimeout time.Duration
	client      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithUserID sends the user id as a query parameter. Used against a
// backend that runs without token verification.
func WithUserID(uid string) Option {
	return func(c *Client) { c.userID = uid }
}

// WithChatTimeout overrides ChatTimeout.
func WithChatTimeout(d time.Duration) Option {
	return func(c *Client) { c.chatTimeout = d }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		chatTimeout: ChatTimeout,
		client: &http.Client{
			Timeout: 120 * time.Second, // uploads wait on the extractor
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UploadFile is one document sent for extraction.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Upload sends documents for extraction and returns one field set per
// document.
func (c *Client) Upload(ctx context.Context, token string, files []UploadFile) ([]draft.RawFields, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(f.Name)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("creating form part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("writing form part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	var out []draft.RawFields
	if err := c.do(ctx, "uploading documents", http.MethodPost, "/api/upload", nil, token, mw.FormDataContentType(), &body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateReceipt stores a receipt and returns its record id.
func (c *Client) CreateReceipt(ctx context.Context, token string, r *record.Receipt) (string, error) {
	var created record.Created
	if err := c.doJSON(ctx, "creating receipt", http.MethodPost, "/api/receipt", nil, token, r, &created); err != nil {
		return "", err
	}
	return created.DocID, nil
}

// CreateInvoice stores an invoice and returns its record id.
func (c *Client) CreateInvoice(ctx context.Context, token string, inv *record.Invoice) (string, error) {
	var created record.Created
	if err := c.doJSON(ctx, "creating invoice", http.MethodPost, "/api/invoice", nil, token, inv, &created); err != nil {
		return "", err
	}
	return created.DocID, nil
}

// ListReceipts returns every receipt of the caller.
func (c *Client) ListReceipts(ctx context.Context, token string) ([]record.StoredReceipt, error) {
	var out []record.StoredReceipt
	if err := c.doJSON(ctx, "listing receipts", http.MethodGet, "/api/receipts", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReceiptsByMonth returns the caller's receipts dated in the given month,
// optionally limited to one category.
func (c *Client) ReceiptsByMonth(ctx context.Context, token string, year int, month time.Month, category string) ([]record.StoredReceipt, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(int(month)))
	if category != "" {
		q.Set("category", category)
	}
	var out []record.StoredReceipt
	if err := c.doJSON(ctx, "listing receipts by month", http.MethodGet, "/api/receipts/by-month", q, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateReceipt replaces the receipt with the given order id.
func (c *Client) UpdateReceipt(ctx context.Context, token, orderID string, r *record.Receipt) error {
	return c.doJSON(ctx, "updating receipt", http.MethodPut, "/api/receipts/"+url.PathEscape(orderID), nil, token, r, nil)
}

// DeleteReceipt removes the receipt with the given order id.
func (c *Client) DeleteReceipt(ctx context.Context, token, orderID string) error {
	return c.doJSON(ctx, "deleting receipt", http.MethodDelete, "/api/receipts/"+url.PathEscape(orderID), nil, token, nil, nil)
}

// ListInvoices returns every invoice of the caller.
func (c *Client) ListInvoices(ctx context.Context, token string) ([]record.StoredInvoice, error) {
	var out []record.StoredInvoice
	if err := c.doJSON(ctx, "listing invoices", http.MethodGet, "/api/invoices", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInvoice replaces the invoice with the given number.
func (c *Client) UpdateInvoice(ctx context.Context, token, number string, inv *record.Invoice) error {
	return c.doJSON(ctx, "updating invoice", http.MethodPut, "/api/invoices/"+url.PathEscape(number), nil, token, inv, nil)
}

// DeleteInvoice removes the invoice with the given number.
func (c *Client) DeleteInvoice(ctx context.Context, token, number string) error {
	return c.doJSON(ctx, "deleting invoice", http.MethodDelete, "/api/invoices/"+url.PathEscape(number), nil, token, nil, nil)
}

// RemindDueInvoices asks the backend to send reminders for unsent invoices
// due within days.
func (c *Client) RemindDueInvoices(ctx context.Context, token string, days int) (*record.ReminderResult, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	var out record.ReminderResult
	if err := c.doJSON(ctx, "checking invoice reminders", http.MethodPost, "/api/invoices/reminders", q, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProfile returns the caller's profile.
func (c *Client) GetProfile(ctx context.Context, token string) (*record.StoredProfile, error) {
	var out record.StoredProfile
	if err := c.doJSON(ctx, "getting profile", http.MethodGet, "/api/profile", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile replaces the caller's profile and returns what was stored.
func (c *Client) UpdateProfile(ctx context.Context, token string, p *record.Profile) (*record.StoredProfile, error) {
	var out record.StoredProfile
	if err := c.doJSON(ctx, "updating profile", http.MethodPut, "/api/profile", nil, token, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ask sends a question to the spending assistant. The request is abandoned
// after the chat timeout and ErrChatTimeout is returned.
func (c *Client) Ask(ctx context.Context, token, question string) (*record.ChatAnswer, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("question", question)
	var out record.ChatAnswer
	err := c.doJSON(ctx, "asking assistant", http.MethodGet, "/api/chat", q, token, nil, &out)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrChatTimeout
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, q url.Values, token string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshaling request: %w", op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, q, token, contentType, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, token, contentType string, body io.Reader, out any) error {
	if c.userID != "" {
		if q == nil {
			q = url.Values{}
		}
		q.Set("user_id", c.userID)
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: calling backend: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
