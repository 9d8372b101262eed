package report

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/barangaylink/treasury/internal/expense"
	"github.com/barangaylink/treasury/internal/ledger"
	"github.com/barangaylink/treasury/internal/report"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/balance-history", h.balanceHistory)
	r.Get("/expense-register", h.expenseRegister)
	r.Get("/budget-utilization", h.budgetUtilization)
}

func (h *Handler) balanceHistory(w http.ResponseWriter, r *http.Request) {
	filter := ledger.HistoryFilter{}

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

	serveCSV(w, "balance-history.csv")

	if err := h.svc.WriteBalanceHistory(r.Context(), w, filter); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) expenseRegister(w http.ResponseWriter, r *http.Request) {
	filter := expense.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := expense.Status(s)
		filter.Status = &status
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

	serveCSV(w, "expense-register.csv")

	if err := h.svc.WriteExpenseRegister(r.Context(), w, filter); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) budgetUtilization(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("fiscal_year"))
	if err != nil {
		http.Error(w, "fiscal_year query parameter is required", http.StatusBadRequest)
		return
	}

	serveCSV(w, "budget-utilization.csv")

	if err := h.svc.WriteBudgetUtilization(r.Context(), w, year); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func serveCSV(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}
