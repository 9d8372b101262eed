package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barangaylink/treasury/internal/budget"
	"github.com/barangaylink/treasury/internal/category"
	"github.com/barangaylink/treasury/internal/expense"
)

type expensesState int

const (
	expensesStateBrowse expensesState = iota
	expensesStateSubmit
)

type ExpensesModel struct {
	expenseService  *expense.Service
	budgetService   *budget.Service
	categoryService *category.Service
	actor           string

	state    expensesState
	table    table.Model
	expenses []*expense.Expense
	form     *huh.Form

	statusFilterIdx int
	filter          expense.ListFilter

	loading bool
	err     error
	status  string

	// Form bindings
	formCategoryID   string
	formAllocationID string
	formAmount       string
	formPayee        string
	formDesc         string
	formDate         string
	formMethod       string
}

func NewExpensesModel(expenseSvc *expense.Service, budgetSvc *budget.Service, categorySvc *category.Service, actor string) ExpensesModel {
	columns := []table.Column{
		{Title: "Reference", Width: 16},
		{Title: "Date", Width: 12},
		{Title: "Payee", Width: 24},
		{Title: "Amount", Width: 12},
		{Title: "Status", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ExpensesModel{
		expenseService:  expenseSvc,
		budgetService:   budgetSvc,
		categoryService: categorySvc,
		actor:           actor,
		table:           t,
	}
}

func (m ExpensesModel) Title() string { return "Expenses" }

func (m ExpensesModel) ShortHelp() string {
	if m.state == expensesStateSubmit {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: new | a: approve | x: reject | l: release | c: cancel | s: status filter | r: refresh"
}

func (m ExpensesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ExpensesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case expensesLoadMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.expenses = msg.expenses
		m.refreshTable()

		return m, nil

	case expenseActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.status
		}

		m.state = expensesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case submitFormMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		return m.enterSubmitMode(msg.categories, msg.allocations)

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case expensesStateBrowse:
		return m.updateBrowse(msg)
	case expensesStateSubmit:
		return m.updateSubmit(msg)
	}

	return m, nil
}

func (m ExpensesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "n":
			return m, m.submitFormCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % 6
			m.applyFilter()

			return m, m.loadCmd()
		case "a":
			return m.transition("approved", m.expenseService.Approve)
		case "x":
			return m.transition("rejected", m.expenseService.Reject)
		case "l":
			return m.transition("released", m.expenseService.Release)
		case "c":
			return m.transition("cancelled", m.expenseService.Cancel)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

type transitionFunc func(ctx context.Context, id uuid.UUID, actor string) error

func (m ExpensesModel) transition(label string, fn transitionFunc) (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.expenses) {
		return m, nil
	}

	id := m.expenses[idx].ID
	ref := m.expenses[idx].ReferenceNumber

	return m, func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := fn(ctx, id, m.actor); err != nil {
			return expenseActionMsg{err: err}
		}

		return expenseActionMsg{status: fmt.Sprintf("%s %s", ref, label)}
	}
}

func (m ExpensesModel) enterSubmitMode(categories []*category.Category, allocations []*budget.Allocation) (tea.Model, tea.Cmd) {
	if len(categories) == 0 {
		m.status = "No expense categories defined yet."
		return m, nil
	}

	m.formCategoryID = categories[0].ID.String()
	m.formAllocationID = ""
	m.formAmount = ""
	m.formPayee = ""
	m.formDesc = ""
	m.formDate = FormatDate(time.Now())
	m.formMethod = "cash"

	categoryOptions := make([]huh.Option[string], 0, len(categories))
	for _, c := range categories {
		categoryOptions = append(categoryOptions, huh.NewOption(c.Code, c.ID.String()))
	}

	allocationOptions := []huh.Option[string]{huh.NewOption("(none)", "")}
	for _, a := range allocations {
		if a.Status != budget.StatusApproved {
			continue
		}

		label := fmt.Sprintf("FY%d %s (₱%s left)", a.FiscalYear, a.CategoryID.String()[:8], FormatAmount(a.Remaining))
		allocationOptions = append(allocationOptions, huh.NewOption(label, a.ID.String()))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("category").
				Title("Category").
				Options(categoryOptions...).
				Value(&m.formCategoryID),

			huh.NewSelect[string]().
				Key("allocation").
				Title("Budget Allocation").
				Options(allocationOptions...).
				Value(&m.formAllocationID),

			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("500.00").
				Value(&m.formAmount).
				Validate(validatePositiveAmount),

			huh.NewInput().
				Key("payee").
				Title("Payee").
				Value(&m.formPayee).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("payee cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.formDesc),

			huh.NewInput().
				Key("date").
				Title("Expense Date").
				Placeholder("YYYY-MM-DD").
				Value(&m.formDate).
				Validate(func(s string) error {
					if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("invalid date format (YYYY-MM-DD)")
					}
					return nil
				}),

			huh.NewInput().
				Key("method").
				Title("Payment Method").
				Value(&m.formMethod),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = expensesStateSubmit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ExpensesModel) updateSubmit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = expensesStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.submitCmd()
}

func (m ExpensesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading expenses...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	statusLabels := []string{"All", "Pending", "Approved", "Released", "Rejected", "Cancelled"}

	header := fmt.Sprintf("Filter: [s] Status: %s", activeStyle(statusLabels[m.statusFilterIdx]))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == expensesStateSubmit && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(fmt.Sprintf("New Expense\n\n%s", m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ExpensesModel) applyFilter() {
	statuses := []expense.Status{
		"",
		expense.StatusPending,
		expense.StatusApproved,
		expense.StatusReleased,
		expense.StatusRejected,
		expense.StatusCancelled,
	}

	if m.statusFilterIdx == 0 {
		m.filter.Status = nil
		return
	}

	status := statuses[m.statusFilterIdx]
	m.filter.Status = &status
}

func (m *ExpensesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.expenses))
	for _, e := range m.expenses {
		rows = append(rows, table.Row{
			e.ReferenceNumber,
			FormatDate(e.ExpenseDate),
			e.Payee,
			FormatAmount(e.Amount),
			string(e.Status),
		})
	}
	m.table.SetRows(rows)
}

// Messages

type expensesLoadMsg struct {
	expenses []*expense.Expense
	err      error
}

func (m ExpensesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		expenses, err := m.expenseService.List(ctx, m.filter)

		return expensesLoadMsg{expenses: expenses, err: err}
	}
}

type expenseActionMsg struct {
	status string
	err    error
}

type submitFormMsg struct {
	categories  []*category.Category
	allocations []*budget.Allocation
	err         error
}

func (m ExpensesModel) submitFormCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		categories, err := m.categoryService.List(ctx, category.KindExpense)
		if err != nil {
			return submitFormMsg{err: err}
		}

		allocations, err := m.budgetService.List(ctx, budget.ListFilter{})
		if err != nil {
			return submitFormMsg{err: err}
		}

		return submitFormMsg{categories: categories, allocations: allocations}
	}
}

func (m ExpensesModel) submitCmd() tea.Cmd {
	categoryID, err := uuid.Parse(m.formCategoryID)
	if err != nil {
		return func() tea.Msg { return expenseActionMsg{err: err} }
	}

	var allocationID *uuid.UUID
	if m.formAllocationID != "" {
		id, err := uuid.Parse(m.formAllocationID)
		if err != nil {
			return func() tea.Msg { return expenseActionMsg{err: err} }
		}
		allocationID = &id
	}

	amount, _ := decimal.NewFromString(strings.TrimSpace(m.formAmount))
	date, _ := time.Parse("2006-01-02", strings.TrimSpace(m.formDate))

	params := expense.SubmitParams{
		CategoryID:    categoryID,
		AllocationID:  allocationID,
		Amount:        amount,
		Payee:         m.formPayee,
		Description:   m.formDesc,
		ExpenseDate:   date,
		PaymentMethod: m.formMethod,
		ActedBy:       m.actor,
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		e, err := m.expenseService.Submit(ctx, params)
		if err != nil {
			return expenseActionMsg{err: err}
		}

		return expenseActionMsg{status: fmt.Sprintf("%s submitted", e.ReferenceNumber)}
	}
}
