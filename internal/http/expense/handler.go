package expense

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barangaylink/treasury/internal/budget"
	"github.com/barangaylink/treasury/internal/expense"
	"github.com/barangaylink/treasury/internal/http/middleware"
	"github.com/barangaylink/treasury/internal/ledger"
)

type Handler struct {
	svc *expense.Service
}

func NewHandler(svc *expense.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/release", h.release)
	r.Post("/{id}/cancel", h.cancel)
}

type submitExpenseRequest struct {
	CategoryID    uuid.UUID       `json:"category_id"`
	AllocationID  *uuid.UUID      `json:"allocation_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Payee         string          `json:"payee"`
	Description   string          `json:"description"`
	ExpenseDate   time.Time       `json:"expense_date"`
	PaymentMethod string          `json:"payment_method"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := h.svc.Submit(r.Context(), expense.SubmitParams{
		CategoryID:    req.CategoryID,
		AllocationID:  req.AllocationID,
		Amount:        req.Amount,
		Payee:         req.Payee,
		Description:   req.Description,
		ExpenseDate:   req.ExpenseDate,
		PaymentMethod: req.PaymentMethod,
		ActedBy:       middleware.ActorFrom(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, expense.ErrInvalidAmount):
			http.Error(w, "amount must be positive", http.StatusBadRequest)
		case errors.Is(err, budget.ErrNotFound):
			http.Error(w, "allocation not found", http.StatusNotFound)
		case errors.Is(err, expense.ErrAllocationNotApproved):
			http.Error(w, "allocation is not approved", http.StatusConflict)
		case errors.Is(err, expense.ErrAllocationExceeded):
			http.Error(w, "amount exceeds allocation remaining", http.StatusUnprocessableEntity)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	writeJSON(w, http.StatusCreated, toResponse(e))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := expense.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := expense.Status(s)
		filter.Status = &status
	}

	if s := r.URL.Query().Get("category_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.CategoryID = &id
		}
	}

	if s := r.URL.Query().Get("allocation_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.AllocationID = &id
		}
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = &t
		}
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = &t
		}
	}

	expenses, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(expenses))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			http.Error(w, "expense not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Reject)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Release(r.Context(), id, middleware.ActorFrom(r.Context())); err != nil {
		switch {
		case errors.Is(err, expense.ErrNotFound):
			http.Error(w, "expense not found", http.StatusNotFound)
		case errors.Is(err, expense.ErrInvalidTransition):
			http.Error(w, "expense is not approved", http.StatusConflict)
		case errors.Is(err, ledger.ErrNotFound):
			http.Error(w, "no fund balance set", http.StatusUnprocessableEntity)
		case errors.Is(err, ledger.ErrInsufficientFunds):
			http.Error(w, "insufficient funds", http.StatusUnprocessableEntity)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID, actor string) error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := fn(r.Context(), id, middleware.ActorFrom(r.Context())); err != nil {
		switch {
		case errors.Is(err, expense.ErrNotFound):
			http.Error(w, "expense not found", http.StatusNotFound)
		case errors.Is(err, expense.ErrInvalidTransition):
			http.Error(w, "expense is not in the required status", http.StatusConflict)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
