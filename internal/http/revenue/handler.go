package revenue

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barangaylink/treasury/internal/http/middleware"
	"github.com/barangaylink/treasury/internal/ledger"
	"github.com/barangaylink/treasury/internal/revenue"
)

type Handler struct {
	svc *revenue.Service
}

func NewHandler(svc *revenue.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.record)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type revenueResponse struct {
	ID          uuid.UUID       `json:"id"`
	ORNumber    string          `json:"or_number"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Payer       string          `json:"payer,omitempty"`
	Description string          `json:"description,omitempty"`
	ReceivedAt  time.Time       `json:"received_at"`
	RecordedBy  string          `json:"recorded_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toResponse(r *revenue.Revenue) revenueResponse {
	return revenueResponse{
		ID:          r.ID,
		ORNumber:    r.ORNumber,
		CategoryID:  r.CategoryID,
		Amount:      r.Amount,
		Payer:       r.Payer,
		Description: r.Description,
		ReceivedAt:  r.ReceivedAt,
		RecordedBy:  r.RecordedBy,
		CreatedAt:   r.CreatedAt,
	}
}

type recordRevenueRequest struct {
	ORNumber    string          `json:"or_number"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Payer       string          `json:"payer"`
	Description string          `json:"description"`
	ReceivedAt  time.Time       `json:"received_at"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.ORNumber == "" {
		http.Error(w, "or_number is required", http.StatusBadRequest)
		return
	}

	rev, err := h.svc.Record(r.Context(), revenue.RecordParams{
		ORNumber:    req.ORNumber,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Payer:       req.Payer,
		Description: req.Description,
		ReceivedAt:  req.ReceivedAt,
		ActedBy:     middleware.ActorFrom(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, revenue.ErrInvalidAmount):
			http.Error(w, "amount must be positive", http.StatusBadRequest)
		case errors.Is(err, revenue.ErrDuplicateORNumber):
			http.Error(w, "official receipt number already recorded", http.StatusConflict)
		case errors.Is(err, ledger.ErrNotFound):
			http.Error(w, "no fund balance set", http.StatusUnprocessableEntity)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	writeJSON(w, http.StatusCreated, toResponse(rev))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := revenue.ListFilter{}

	if s := r.URL.Query().Get("category_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.CategoryID = &id
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

	revenues, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]revenueResponse, 0, len(revenues))
	for _, rev := range revenues {
		resp = append(resp, toResponse(rev))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rev, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, revenue.ErrNotFound) {
			http.Error(w, "revenue not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(rev))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
