package ledger

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
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/balance", h.getBalance)
	r.Put("/balance", h.setBalance)
	r.Post("/balance/adjust", h.adjust)
	r.Get("/history", h.history)
}

type balanceResponse struct {
	CurrentBalance decimal.Decimal `json:"current_balance"`
	UpdatedAt      time.Time       `json:"updated_at"`
	UpdatedBy      string          `json:"updated_by"`
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	fb, err := h.svc.Current(r.Context())
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			http.Error(w, "no fund balance set", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		CurrentBalance: fb.Current,
		UpdatedAt:      fb.UpdatedAt,
		UpdatedBy:      fb.UpdatedBy,
	})
}

type setBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

func (h *Handler) setBalance(w http.ResponseWriter, r *http.Request) {
	var req setBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.svc.SetBalance(r.Context(), ledger.SetParams{
		Amount:  req.Amount,
		Notes:   req.Notes,
		ActedBy: middleware.ActorFrom(r.Context()),
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			http.Error(w, "amount must not be negative", http.StatusBadRequest)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type adjustRequest struct {
	Delta     decimal.Decimal  `json:"delta"`
	Direction ledger.Direction `json:"direction"`
	Notes     string           `json:"notes"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.svc.Adjust(r.Context(), ledger.AdjustParams{
		Delta:     req.Delta,
		Direction: req.Direction,
		Notes:     req.Notes,
		ActedBy:   middleware.ActorFrom(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			http.Error(w, "delta must be positive", http.StatusBadRequest)
		case errors.Is(err, ledger.ErrInvalidDirection):
			http.Error(w, "direction must be add or deduct", http.StatusBadRequest)
		case errors.Is(err, ledger.ErrNotFound):
			http.Error(w, "no fund balance set", http.StatusNotFound)
		case errors.Is(err, ledger.ErrInsufficientFunds):
			http.Error(w, "insufficient funds", http.StatusUnprocessableEntity)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type entryResponse struct {
	ID            uuid.UUID         `json:"id"`
	Action        ledger.ActionType `json:"action"`
	OldBalance    decimal.Decimal   `json:"old_balance"`
	NewBalance    decimal.Decimal   `json:"new_balance"`
	AmountChanged decimal.Decimal   `json:"amount_changed"`
	Notes         string            `json:"notes"`
	CreatedBy     string            `json:"created_by"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	filter := ledger.HistoryFilter{}

	if s := r.URL.Query().Get("action"); s != "" {
		action := ledger.ActionType(s)
		filter.Action = &action
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

	entries, err := h.svc.History(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, entryResponse{
			ID:            e.ID,
			Action:        e.Action,
			OldBalance:    e.OldBalance,
			NewBalance:    e.NewBalance,
			AmountChanged: e.AmountChanged,
			Notes:         e.Notes,
			CreatedBy:     e.CreatedBy,
			CreatedAt:     e.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
