package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/barangaylink/treasury/cmd/tui/internal/view"
	"github.com/barangaylink/treasury/internal/budget"
	budgetStore "github.com/barangaylink/treasury/internal/budget/store"
	"github.com/barangaylink/treasury/internal/category"
	categoryStore "github.com/barangaylink/treasury/internal/category/store"
	"github.com/barangaylink/treasury/internal/config"
	"github.com/barangaylink/treasury/internal/database"
	"github.com/barangaylink/treasury/internal/expense"
	expenseStore "github.com/barangaylink/treasury/internal/expense/store"
	"github.com/barangaylink/treasury/internal/importer"
	"github.com/barangaylink/treasury/internal/ledger"
	ledgerStore "github.com/barangaylink/treasury/internal/ledger/store"
)

type model struct {
	currentView View

	dashboardView   view.DashboardModel
	allocationsView view.AllocationsModel
	expensesView    view.ExpensesModel
	importView      view.ImportModel

	ledgerService   *ledger.Service
	budgetService   *budget.Service
	expenseService  *expense.Service
	categoryService *category.Service
	importService   *importer.Service
	actor           string
}

type View int

const (
	ViewMenu        View = 0
	ViewDashboard   View = 1
	ViewAllocations View = 2
	ViewExpenses    View = 3
	ViewImport      View = 4
)

func initialModel() model {
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

	ledgerSvc := ledger.NewService(ledgerStore.New(db))
	budgetSvc := budget.NewService(budgetStore.New(db))
	expenseSvc := expense.NewService(expenseStore.New(db), budgetSvc)
	categorySvc := category.NewService(categoryStore.New(db))
	importSvc := importer.NewService(categorySvc, expenseSvc)

	actor := cfg.TUI.Actor

	return model{
		currentView:     ViewMenu,
		dashboardView:   view.NewDashboardModel(ledgerSvc, actor),
		allocationsView: view.NewAllocationsModel(budgetSvc, categorySvc, actor),
		expensesView:    view.NewExpensesModel(expenseSvc, budgetSvc, categorySvc, actor),
		importView:      view.NewImportModel(importSvc, actor),
		ledgerService:   ledgerSvc,
		budgetService:   budgetSvc,
		expenseService:  expenseSvc,
		categoryService: categorySvc,
		importService:   importSvc,
		actor:           actor,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewDashboard
				m.dashboardView = view.NewDashboardModel(m.ledgerService, m.actor)

				return m, m.dashboardView.Init()
			case "2":
				m.currentView = ViewAllocations
				m.allocationsView = view.NewAllocationsModel(m.budgetService, m.categoryService, m.actor)

				return m, m.allocationsView.Init()
			case "3":
				m.currentView = ViewExpenses
				m.expensesView = view.NewExpensesModel(m.expenseService, m.budgetService, m.categoryService, m.actor)

				return m, m.expensesView.Init()
			case "4":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.importService, m.actor)

				return m, m.importView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewAllocations:
		var newModel tea.Model
		newModel, cmd = m.allocationsView.Update(msg)
		m.allocationsView = newModel.(view.AllocationsModel)
	case ViewExpenses:
		var newModel tea.Model
		newModel, cmd = m.expensesView.Update(msg)
		m.expensesView = newModel.(view.ExpensesModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Barangay Treasury\n\n" +
				"1. Fund Dashboard\n" +
				"2. Budget Allocations\n" +
				"3. Expenses\n" +
				"4. Import Legacy Expenses\n\n" +
				"q. Quit",
		)
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewAllocations:
		return m.allocationsView.View()
	case ViewExpenses:
		return m.expensesView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
