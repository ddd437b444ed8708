package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/draft"
	"github.com/zombor/expense-tracker/internal/record"
)

const (
	maxUploadSize = 50 << 20
	maxBodySize   = 1 << 20
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes {"detail": message} with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"detail": message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// decodeBody reads a JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		slog.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// notFoundOr writes 404 for ErrNotFound and 500 otherwise
func notFoundOr(w http.ResponseWriter, err error, notFound, logMsg string) {
	if errors.Is(err, ErrNotFound) {
		jsonError(w, notFound, http.StatusNotFound)
		return
	}
	slog.Error(logMsg, "error", err)
	jsonError(w, "Internal server error", http.StatusInternalServerError)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload extracts fields from every file in the "files" form field
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, owner string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "Upload is too large. Maximum size is 50MB.", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "No files were provided", http.StatusBadRequest)
		return
	}

	uploads := make([]Upload, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			slog.Error("Error opening upload", "filename", header.Filename, "error", err)
			jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			slog.Error("Error reading file data", "filename", header.Filename, "error", err)
			jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
			return
		}
		uploads = append(uploads, Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	fields, err := s.service.Extract(uploads)
	if err != nil {
		slog.Error("Error extracting documents", "owner", owner, "files", len(uploads), "error", err)
		code := http.StatusBadGateway
		if errors.Is(err, ErrUnsupportedType) {
			code = http.StatusBadRequest
		}
		jsonError(w, err.Error(), code)
		return
	}
	if fields == nil {
		fields = []draft.RawFields{}
	}
	writeJSON(w, http.StatusOK, fields)
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request, owner string) {
	var body record.Receipt
	if !decodeBody(w, r, &body) {
		return
	}
	id, err := s.service.CreateReceipt(owner, &body)
	if err != nil {
		slog.Error("Error creating receipt", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, record.Created{DocID: id})
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request, owner string) {
	receipts, err := s.service.ListReceipts(owner)
	if err != nil {
		slog.Error("Error listing receipts", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

// handleReceiptsByMonth lists receipts for ?month=&year=&category=. The year
// defaults to the current one.
func (s *Server) handleReceiptsByMonth(w http.ResponseWriter, r *http.Request, owner string) {
	q := r.URL.Query()
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		jsonError(w, "month must be a number between 1 and 12", http.StatusBadRequest)
		return
	}
	year := s.service.timeSource.Now().Year()
	if raw := q.Get("year"); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil {
			jsonError(w, "year must be a number", http.StatusBadRequest)
			return
		}
	}

	receipts, err := s.service.ReceiptsByMonth(owner, MonthFilter{
		Year:     year,
		Month:    time.Month(month),
		Category: q.Get("category"),
	})
	if err != nil {
		slog.Error("Error listing receipts by month", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request, owner string) {
	orderID := r.PathValue("order_id")
	var body record.Receipt
	if !decodeBody(w, r, &body) {
		return
	}
	updated, err := s.service.UpdateReceipt(owner, orderID, &body)
	if err != nil {
		notFoundOr(w, err, "Receipt not found", "Error updating receipt")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.service.DeleteReceipt(owner, r.PathValue("order_id")); err != nil {
		notFoundOr(w, err, "Receipt not found", "Error deleting receipt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request, owner string) {
	var body record.Invoice
	if !decodeBody(w, r, &body) {
		return
	}
	id, err := s.service.CreateInvoice(owner, &body)
	if err != nil {
		slog.Error("Error creating invoice", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, record.Created{DocID: id})
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request, owner string) {
	invoices, err := s.service.ListInvoices(owner)
	if err != nil {
		slog.Error("Error listing invoices", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request, owner string) {
	var body record.Invoice
	if !decodeBody(w, r, &body) {
		return
	}
	updated, err := s.service.UpdateInvoice(owner, r.PathValue("invoice_number"), &body)
	if err != nil {
		notFoundOr(w, err, "Invoice not found", "Error updating invoice")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.service.DeleteInvoice(owner, r.PathValue("invoice_number")); err != nil {
		notFoundOr(w, err, "Invoice not found", "Error deleting invoice")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInvoiceReminders reminds the caller of invoices due within ?days=
func (s *Server) handleInvoiceReminders(w http.ResponseWriter, r *http.Request, owner string) {
	days := DefaultReminderDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			jsonError(w, "days must be a non-negative number", http.StatusBadRequest)
			return
		}
		days = n
	}

	result, err := s.service.RemindDueInvoices(r.Context(), owner, days)
	switch {
	case errors.Is(err, ErrNoOwner):
		jsonError(w, "A user id is required", http.StatusBadRequest)
	case errors.Is(err, ErrNoRecipient):
		jsonError(w, "Add an email address to your profile to receive reminders", http.StatusConflict)
	case err != nil:
		slog.Error("Error sending invoice reminders", "owner", owner, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, owner string) {
	profile, err := s.service.GetProfile(owner)
	if errors.Is(err, ErrNoOwner) {
		jsonError(w, "A user id is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		notFoundOr(w, err, "Profile not found", "Error getting profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, owner string) {
	var body record.Profile
	if !decodeBody(w, r, &body) {
		return
	}
	profile, err := s.service.UpdateProfile(owner, &body)
	switch {
	case errors.Is(err, ErrNoOwner):
		jsonError(w, "A user id is required", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidEmail):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		slog.Error("Error updating profile", "owner", owner, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, profile)
	}
}

// handleChat answers ?question= over the caller's receipts
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, owner string) {
	question := strings.TrimSpace(r.URL.Query().Get("question"))
	if question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}
	if s.assistant == nil {
		jsonError(w, "Chat is not available", http.StatusServiceUnavailable)
		return
	}

	receipts, err := s.service.ListReceipts(owner)
	if err != nil {
		slog.Error("Error listing receipts for chat", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	answer, err := s.assistant.Answer(r.Context(), question, receipts)
	if err != nil {
		slog.Error("Error answering question", "owner", owner, "error", err)
		jsonError(w, "Could not answer the question right now", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}
