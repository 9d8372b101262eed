package budget

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barangaylink/treasury/internal/budget"
	"github.com/barangaylink/treasury/internal/http/middleware"
	"github.com/barangaylink/treasury/internal/ledger"
)

type Handler struct {
	svc *budget.Service
}

func NewHandler(svc *budget.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/approve", h.approve)
}

type allocationResponse struct {
	ID           uuid.UUID       `json:"id"`
	FiscalYear   int             `json:"fiscal_year"`
	CategoryID   uuid.UUID       `json:"category_id"`
	Allocated    decimal.Decimal `json:"allocated_amount"`
	Spent        decimal.Decimal `json:"spent_amount"`
	Remaining    decimal.Decimal `json:"remaining_amount"`
	Status       budget.Status   `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	CreatedBy    string          `json:"created_by"`
	ApprovedBy   *string         `json:"approved_by,omitempty"`
	ApprovalDate *time.Time      `json:"approval_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toResponse(a *budget.Allocation) allocationResponse {
	return allocationResponse{
		ID:           a.ID,
		FiscalYear:   a.FiscalYear,
		CategoryID:   a.CategoryID,
		Allocated:    a.Allocated,
		Spent:        a.Spent,
		Remaining:    a.Remaining,
		Status:       a.Status,
		Notes:        a.Notes,
		CreatedBy:    a.CreatedBy,
		ApprovedBy:   a.ApprovedBy,
		ApprovalDate: a.ApprovalDate,
		CreatedAt:    a.CreatedAt,
	}
}

type createAllocationRequest struct {
	FiscalYear int             `json:"fiscal_year"`
	CategoryID uuid.UUID       `json:"category_id"`
	Allocated  decimal.Decimal `json:"allocated_amount"`
	Notes      string          `json:"notes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a, err := h.svc.Create(r.Context(), budget.CreateParams{
		FiscalYear: req.FiscalYear,
		CategoryID: req.CategoryID,
		Allocated:  req.Allocated,
		Notes:      req.Notes,
		ActedBy:    middleware.ActorFrom(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, budget.ErrInvalidAmount):
			http.Error(w, "allocated amount must be positive", http.StatusBadRequest)
		case errors.Is(err, budget.ErrDuplicateCategory):
			http.Error(w, "category already allocated for fiscal year", http.StatusConflict)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	writeJSON(w, http.StatusCreated, toResponse(a))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := budget.ListFilter{}

	if s := r.URL.Query().Get("fiscal_year"); s != "" {
		if year, err := strconv.Atoi(s); err == nil {
			filter.FiscalYear = &year
		}
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := budget.Status(s)
		filter.Status = &status
	}

	allocations, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]allocationResponse, 0, len(allocations))
	for _, a := range allocations {
		resp = append(resp, toResponse(a))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			http.Error(w, "allocation not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(a))
}

type updateAllocationRequest struct {
	Allocated decimal.Decimal `json:"allocated_amount"`
	Notes     string          `json:"notes"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.Update(r.Context(), id, req.Allocated, req.Notes); err != nil {
		switch {
		case errors.Is(err, budget.ErrInvalidAmount):
			http.Error(w, "allocated amount must be positive", http.StatusBadRequest)
		case errors.Is(err, budget.ErrNotFound):
			http.Error(w, "allocation not found", http.StatusNotFound)
		case errors.Is(err, budget.ErrNotDraft):
			http.Error(w, "only draft allocations can be edited", http.StatusConflict)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, budget.ErrNotFound):
			http.Error(w, "allocation not found", http.StatusNotFound)
		case errors.Is(err, budget.ErrNotDraft):
			http.Error(w, "only draft allocations can be deleted", http.StatusConflict)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Approve(r.Context(), id, middleware.ActorFrom(r.Context())); err != nil {
		switch {
		case errors.Is(err, budget.ErrNotFound):
			http.Error(w, "allocation not found", http.StatusNotFound)
		case errors.Is(err, budget.ErrAlreadyApproved):
			http.Error(w, "allocation already approved", http.StatusConflict)
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
