package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	budgetHandler "github.com/barangaylink/treasury/internal/http/budget"
	categoryHandler "github.com/barangaylink/treasury/internal/http/category"
	expenseHandler "github.com/barangaylink/treasury/internal/http/expense"
	importHandler "github.com/barangaylink/treasury/internal/http/importcsv"
	ledgerHandler "github.com/barangaylink/treasury/internal/http/ledger"
	"github.com/barangaylink/treasury/internal/http/middleware"
	reportHandler "github.com/barangaylink/treasury/internal/http/report"
	revenueHandler "github.com/barangaylink/treasury/internal/http/revenue"
)

func New(
	authSecret string,
	ledgerV1 *ledgerHandler.Handler,
	budgetV1 *budgetHandler.Handler,
	expenseV1 *expenseHandler.Handler,
	revenueV1 *revenueHandler.Handler,
	categoryV1 *categoryHandler.Handler,
	importV1 *importHandler.Handler,
	reportV1 *reportHandler.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(authSecret))

		r.Route("/ledger", func(r chi.Router) {
			r.Use(chimiddleware.AllowContentType("application/json"))
			ledgerV1.Routes(r)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Use(chimiddleware.AllowContentType("application/json"))
			budgetV1.Routes(r)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Use(chimiddleware.AllowContentType("application/json"))
			expenseV1.Routes(r)
		})

		r.Route("/revenues", func(r chi.Router) {
			r.Use(chimiddleware.AllowContentType("application/json"))
			revenueV1.Routes(r)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(chimiddleware.AllowContentType("application/json"))
			categoryV1.Routes(r)
		})

		r.Route("/import", importV1.Routes)

		r.Route("/reports", reportV1.Routes)
	})

	return router
}
