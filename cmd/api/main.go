package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/barangaylink/treasury/internal/budget"
	budgetStore "github.com/barangaylink/treasury/internal/budget/store"
	"github.com/barangaylink/treasury/internal/category"
	categoryStore "github.com/barangaylink/treasury/internal/category/store"
	"github.com/barangaylink/treasury/internal/config"
	"github.com/barangaylink/treasury/internal/database"
	"github.com/barangaylink/treasury/internal/expense"
	expenseStore "github.com/barangaylink/treasury/internal/expense/store"
	treasuryHttp "github.com/barangaylink/treasury/internal/http"
	budgetHandler "github.com/barangaylink/treasury/internal/http/budget"
	categoryHandler "github.com/barangaylink/treasury/internal/http/category"
	expenseHandler "github.com/barangaylink/treasury/internal/http/expense"
	importHandler "github.com/barangaylink/treasury/internal/http/importcsv"
	ledgerHandler "github.com/barangaylink/treasury/internal/http/ledger"
	reportHandler "github.com/barangaylink/treasury/internal/http/report"
	revenueHandler "github.com/barangaylink/treasury/internal/http/revenue"
	"github.com/barangaylink/treasury/internal/importer"
	"github.com/barangaylink/treasury/internal/ledger"
	ledgerStore "github.com/barangaylink/treasury/internal/ledger/store"
	"github.com/barangaylink/treasury/internal/report"
	"github.com/barangaylink/treasury/internal/revenue"
	revenueStore "github.com/barangaylink/treasury/internal/revenue/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		ledgerService   = ledger.NewService(ledgerStore.New(db))
		budgetService   = budget.NewService(budgetStore.New(db))
		expenseService  = expense.NewService(expenseStore.New(db), budgetService)
		categoryService = category.NewService(categoryStore.New(db))
		revenueService  = revenue.NewService(revenueStore.New(db))
		importService   = importer.NewService(categoryService, expenseService)
		reportService   = report.NewService(ledgerService, budgetService, expenseService, categoryService)
	)

	var (
		ledgerH   = ledgerHandler.NewHandler(ledgerService)
		budgetH   = budgetHandler.NewHandler(budgetService)
		expenseH  = expenseHandler.NewHandler(expenseService)
		revenueH  = revenueHandler.NewHandler(revenueService)
		categoryH = categoryHandler.NewHandler(categoryService)
		importH   = importHandler.NewHandler(importService)
		reportH   = reportHandler.NewHandler(reportService)
	)

	router := treasuryHttp.New(cfg.Auth.Secret, ledgerH, budgetH, expenseH, revenueH, categoryH, importH, reportH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
