package category

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/barangaylink/treasury/internal/category"
)

type Handler struct {
	svc *category.Service
}

func NewHandler(svc *category.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type categoryResponse struct {
	ID        uuid.UUID     `json:"id"`
	Kind      category.Kind `json:"kind"`
	Code      string        `json:"code"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
}

func toResponse(c *category.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Kind:      c.Kind,
		Code:      c.Code,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
}

type createCategoryRequest struct {
	Kind category.Kind `json:"kind"`
	Code string        `json:"code"`
	Name string        `json:"name"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Kind != category.KindExpense && req.Kind != category.KindRevenue {
		http.Error(w, "kind must be expense or revenue", http.StatusBadRequest)
		return
	}

	if req.Code == "" || req.Name == "" {
		http.Error(w, "code and name are required", http.StatusBadRequest)
		return
	}

	c, err := h.svc.Create(r.Context(), category.CreateParams{
		Kind: req.Kind,
		Code: req.Code,
		Name: req.Name,
	})
	if err != nil {
		if errors.Is(err, category.ErrDuplicateCode) {
			http.Error(w, "category code already exists", http.StatusConflict)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind := category.Kind(r.URL.Query().Get("kind"))
	if kind != category.KindExpense && kind != category.KindRevenue {
		http.Error(w, "kind query parameter must be expense or revenue", http.StatusBadRequest)
		return
	}

	categories, err := h.svc.List(r.Context(), kind)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, toResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(c))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
