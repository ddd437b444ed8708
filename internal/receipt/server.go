package receipt

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/zombor/expense-tracker/internal/auth"
	"github.com/zombor/expense-tracker/internal/record"
)

// Assistant answers spending questions over a user's receipts
type Assistant interface {
	Answer(ctx context.Context, question string, receipts []*record.StoredReceipt) (*record.ChatAnswer, error)
}

// Server handles HTTP requests for receipts, invoices, profiles and chat
type Server struct {
	service   *Service
	assistant Assistant
	issuer    *auth.Issuer
	mux       *http.ServeMux
}

// ownerHandler receives the owner reference resolved for the request
type ownerHandler func(w http.ResponseWriter, r *http.Request, owner string)

// NewServer creates a new Server with default mux. A nil issuer turns off
// token checks and the owner is taken from the user_id query parameter.
func NewServer(service *Service, assistant Assistant, issuer *auth.Issuer) *Server {
	return NewServerWithMux(service, assistant, issuer, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, assistant Assistant, issuer *auth.Issuer, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		assistant: assistant,
		issuer:    issuer,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// owner resolves the caller's owner reference
func (s *Server) owner(r *http.Request) (string, error) {
	if s.issuer == nil {
		return record.OwnerRef(r.URL.Query().Get("user_id")), nil
	}
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return "", err
	}
	id, err := s.issuer.Verify(token)
	if err != nil {
		return "", err
	}
	return record.OwnerRef(id.UID), nil
}

// requireOwner middleware
func (s *Server) requireOwner(next ownerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := s.owner(r)
		if err != nil {
			slog.Warn("Rejected request", "path", r.URL.Path, "error", err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="Expense Tracker"`)
			jsonError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r, owner)
	}
}

// corsMiddleware adds CORS headers to responses and answers preflights
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/upload", s.requireOwner(s.handleUpload))

	s.mux.HandleFunc("POST /api/receipt", s.requireOwner(s.handleCreateReceipt))
	s.mux.HandleFunc("GET /api/receipts/by-month", s.requireOwner(s.handleReceiptsByMonth))
	s.mux.HandleFunc("PUT /api/receipts/{order_id}", s.requireOwner(s.handleUpdateReceipt))
	s.mux.HandleFunc("DELETE /api/receipts/{order_id}", s.requireOwner(s.handleDeleteReceipt))
	s.mux.HandleFunc("GET /api/receipts", s.requireOwner(s.handleListReceipts))

	s.mux.HandleFunc("POST /api/invoice", s.requireOwner(s.handleCreateInvoice))
	s.mux.HandleFunc("PUT /api/invoices/{invoice_number}", s.requireOwner(s.handleUpdateInvoice))
	s.mux.HandleFunc("DELETE /api/invoices/{invoice_number}", s.requireOwner(s.handleDeleteInvoice))
	s.mux.HandleFunc("GET /api/invoices", s.requireOwner(s.handleListInvoices))
	s.mux.HandleFunc("POST /api/invoices/reminders", s.requireOwner(s.handleInvoiceReminders))

	s.mux.HandleFunc("GET /api/profile", s.requireOwner(s.handleGetProfile))
	s.mux.HandleFunc("PUT /api/profile", s.requireOwner(s.handleUpdateProfile))

	s.mux.HandleFunc("GET /api/chat", s.requireOwner(s.handleChat))
}

// Start serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(s.mux).ServeHTTP(w, r)
}
