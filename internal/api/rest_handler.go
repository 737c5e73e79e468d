package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"retail_bank/internal/domain"
	"retail_bank/internal/processor"
	"retail_bank/internal/repository"
	"retail_bank/pkg/crypto"
	"retail_bank/pkg/metrics"
	"retail_bank/pkg/validator"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

type APIHandler struct {
	processor      *processor.AccountProcessor
	metrics        *metrics.MetricsCollector
	signer         *crypto.Signer
	logger         *slog.Logger
	requestTimeout time.Duration
}

// NewAPIHandler builds the handler. signer and metrics may be nil.
func NewAPIHandler(
	processor *processor.AccountProcessor,
	metrics *metrics.MetricsCollector,
	signer *crypto.Signer,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		processor:      processor,
		metrics:        metrics,
		signer:         signer,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

func (h *APIHandler) WithRequestTimeout(d time.Duration) *APIHandler {
	if d > 0 {
		h.requestTimeout = d
	}
	return h
}

type OpenAccountRequest struct {
	Type      string          `json:"type"`
	Branch    string          `json:"branch"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	DOB       string          `json:"dob"`
	Amount    decimal.Decimal `json:"amount"`
	Campus    string          `json:"campus,omitempty"`
	Term      int             `json:"term,omitempty"`
	OpenDate  string          `json:"open_date,omitempty"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date,omitempty"`
	Branch string          `json:"branch,omitempty"`
}

type CloseRequest struct {
	Date string `json:"date,omitempty"`
}

type CloseHolderRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DOB       string `json:"dob"`
	Date      string `json:"date,omitempty"`
}

type WithdrawalResponse struct {
	Account    *domain.Account `json:"account"`
	Downgraded bool            `json:"downgraded"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func invalid(err error) error { return badRequest{err: err} }

func (r OpenAccountRequest) toDomain() (domain.OpenRequest, error) {
	typ, err := domain.ParseAccountType(r.Type)
	if err != nil {
		return domain.OpenRequest{}, invalid(err)
	}
	branch, err := domain.ParseBranch(r.Branch)
	if err != nil {
		return domain.OpenRequest{}, invalid(err)
	}
	dob, err := domain.ParseDate(r.DOB)
	if err != nil {
		return domain.OpenRequest{}, invalid(err)
	}

	req := domain.OpenRequest{
		Type:   typ,
		Branch: branch,
		Holder: domain.NewProfile(r.FirstName, r.LastName, dob),
		Amount: r.Amount,
		Term:   r.Term,
	}
	if typ == domain.CollegeChecking {
		if req.Campus, err = domain.ParseCampus(r.Campus); err != nil {
			return domain.OpenRequest{}, invalid(err)
		}
	}
	if r.OpenDate != "" {
		if req.OpenDate, err = domain.ParseDate(r.OpenDate); err != nil {
			return domain.OpenRequest{}, invalid(err)
		}
	}
	return req, nil
}

func optionalDate(s string) (domain.Date, error) {
	if s == "" {
		return domain.Date{}, nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return domain.Date{}, invalid(err)
	}
	return d, nil
}

func (r AmountRequest) posting() (domain.Posting, error) {
	date, err := optionalDate(r.Date)
	if err != nil {
		return domain.Posting{}, err
	}
	at := domain.Posting{Date: date}
	if r.Branch != "" {
		if at.Location, err = domain.ParseBranch(r.Branch); err != nil {
			return domain.Posting{}, invalid(err)
		}
	}
	return at, nil
}

func (h *APIHandler) OpenAccountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var body OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	req, err := body.toDomain()
	if err != nil {
		h.handleError(w, err)
		return
	}

	account, err := h.processor.Open(ctx, req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.sendJSON(w, account, http.StatusCreated)
}

func (h *APIHandler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	order, err := domain.ParseOrder(r.URL.Query().Get("order"))
	if err != nil {
		h.handleError(w, invalid(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	groups, err := h.processor.List(ctx, order)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	h.sendJSON(w, groups, http.StatusOK)
}

func (h *APIHandler) numberParam(r *http.Request) (domain.AccountNumber, error) {
	number, err := domain.ParseAccountNumber(chi.URLParam(r, "number"))
	if err != nil {
		return "", invalid(err)
	}
	return number, nil
}

func (h *APIHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	number, err := h.numberParam(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	account, err := h.processor.Find(ctx, number)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.sendJSON(w, account, http.StatusOK)
}

func (h *APIHandler) DepositHandler(w http.ResponseWriter, r *http.Request) {
	number, err := h.numberParam(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	var body AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	at, err := body.posting()
	if err != nil {
		h.handleError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	account, err := h.processor.Deposit(ctx, number, body.Amount, at)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.sendJSON(w, account, http.StatusOK)
}

func (h *APIHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	number, err := h.numberParam(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	var body AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	at, err := body.posting()
	if err != nil {
		h.handleError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	res, err := h.processor.Withdraw(ctx, number, body.Amount, at)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.sendJSON(w, WithdrawalResponse{Account: res.Account, Downgraded: res.Downgraded}, http.StatusOK)
}

func (h *APIHandler) CloseAccountHandler(w http.ResponseWriter, r *http.Request) {
	number, err := h.numberParam(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	var body CloseRequest
	if err := decodeOptional(r, &body); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	date, err := optionalDate(body.Date)
	if err != nil {
		h.handleError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	entry, err := h.processor.Close(ctx, number, date)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.sendJSON(w, entry, http.StatusOK)
}

func (h *APIHandler) CloseHolderHandler(w http.ResponseWriter, r *http.Request) {
	var body CloseHolderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	dob, err := domain.ParseDate(body.DOB)
	if err != nil {
		h.handleError(w, invalid(err))
		return
	}
	date, err := optionalDate(body.Date)
	if err != nil {
		h.handleError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	closed, err := h.processor.CloseHolder(ctx, domain.NewProfile(body.FirstName, body.LastName, dob), date)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.sendJSON(w, closed, http.StatusOK)
}

func (h *APIHandler) ArchiveHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	entries, err := h.processor.Archive(ctx)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.ArchivedAccount{}
	}
	h.sendJSON(w, entries, http.StatusOK)
}

func (h *APIHandler) StatementsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	statements, err := h.processor.Statements(ctx)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if statements == nil {
		statements = []domain.Statement{}
	}
	h.sendJSON(w, statements, http.StatusOK)
}

func (h *APIHandler) MetricsSummaryHandler(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, h.processor.GetMetrics(), http.StatusOK)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, http.StatusOK)
}

// decodeOptional decodes a JSON body when one was sent.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// handleError maps domain and repository errors to HTTP statuses.
func (h *APIHandler) handleError(w http.ResponseWriter, err error) {
	var bad badRequest
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.sendError(w, "Account not found", http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, repository.ErrDuplicate):
		h.sendError(w, "Account already exists", http.StatusConflict, "DUPLICATE", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		h.sendError(w, "Insufficient funds", http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, domain.ErrWithdrawalNotAllowed):
		h.sendError(w, "Withdrawal not allowed", http.StatusUnprocessableEntity, "WITHDRAWAL_NOT_ALLOWED", err.Error())
	case errors.As(err, &bad), isValidation(err):
		h.sendError(w, "Validation failed", http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		h.logger.Error("Request processing failed", slog.String("error", err.Error()))
		h.sendError(w, "Internal server error", http.StatusInternalServerError, "SERVER_ERROR", "")
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidAmount,
		domain.ErrInvalidTerm,
		domain.ErrInvalidAccountType,
		domain.ErrInvalidAccountNumber,
		domain.ErrInvalidBranch,
		domain.ErrInvalidCampus,
		domain.ErrCloseBeforeOpen,
		domain.ErrMalformedDate,
		validator.ErrInvalidName,
		validator.ErrInvalidDate,
		validator.ErrFutureDate,
		validator.ErrCloseDate,
		validator.ErrUnderage,
		validator.ErrOverage,
		validator.ErrBelowMinimum,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// VerifySignature rejects a mutating request whose X-Signature header does
// not match its body. Requests without the header pass through.
func (h *APIHandler) VerifySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature := r.Header.Get(crypto.SignatureHeader)
		if h.signer == nil || signature == "" || r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		r.Body.Close()

		if err := h.signer.Verify(body, signature); err != nil {
			h.sendError(w, "Invalid signature", http.StatusUnauthorized, "INVALID_SIGNATURE", "")
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// observe records the duration of every API call by route pattern.
func (h *APIHandler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if h.metrics == nil {
			return
		}
		route := r.Method
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route += " " + rctx.RoutePattern()
		}
		h.metrics.ObserveCommand(route, time.Since(start))
	})
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code, details string) {
	errorResponse := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

// Routes builds the chi router with every endpoint mounted.
func (h *APIHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", crypto.SignatureHeader},
		MaxAge:         300,
	}))
	r.Use(h.observe)

	r.Get("/api/health", h.HealthCheckHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.VerifySignature)

		r.Post("/accounts", h.OpenAccountHandler)
		r.Get("/accounts", h.ListAccountsHandler)
		r.Get("/accounts/{number}", h.GetAccountHandler)
		r.Post("/accounts/{number}/deposits", h.DepositHandler)
		r.Post("/accounts/{number}/withdrawals", h.WithdrawHandler)
		r.Post("/accounts/{number}/close", h.CloseAccountHandler)
		r.Post("/holders/close", h.CloseHolderHandler)
		r.Get("/archive", h.ArchiveHandler)
		r.Post("/statements", h.StatementsHandler)
		r.Get("/metrics/summary", h.MetricsSummaryHandler)
	})

	return r
}
