package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/barangaylink/treasury/internal/budget"
	"github.com/barangaylink/treasury/internal/category"
)

type AllocationsModel struct {
	budgetService   *budget.Service
	categoryService *category.Service
	actor           string

	table       table.Model
	allocations []*budget.Allocation
	categories  map[uuid.UUID]string

	statusFilterIdx int
	filter          budget.ListFilter

	loading bool
	err     error
	status  string
}

func NewAllocationsModel(budgetSvc *budget.Service, categorySvc *category.Service, actor string) AllocationsModel {
	columns := []table.Column{
		{Title: "FY", Width: 6},
		{Title: "Category", Width: 16},
		{Title: "Allocated", Width: 12},
		{Title: "Spent", Width: 12},
		{Title: "Remaining", Width: 12},
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

	return AllocationsModel{
		budgetService:   budgetSvc,
		categoryService: categorySvc,
		actor:           actor,
		table:           t,
		categories:      make(map[uuid.UUID]string),
	}
}

func (m AllocationsModel) Title() string { return "Budget Allocations" }

func (m AllocationsModel) ShortHelp() string {
	return "Esc: back | a: approve | s: status filter | r: refresh"
}

func (m AllocationsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m AllocationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case allocationsLoadMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.allocations = msg.allocations
		m.categories = msg.categories
		m.refreshTable()

		return m, nil

	case allocationActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = "Allocation approved."
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % 3
			m.applyFilter()

			return m, m.loadCmd()
		case "a":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.allocations) {
				return m, nil
			}

			return m, m.approveCmd(m.allocations[idx].ID)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m AllocationsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading allocations...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	statusLabels := []string{"All", "Draft", "Approved"}

	header := fmt.Sprintf("Filter: [s] Status: %s", activeStyle(statusLabels[m.statusFilterIdx]))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *AllocationsModel) applyFilter() {
	switch m.statusFilterIdx {
	case 1:
		status := budget.StatusDraft
		m.filter.Status = &status
	case 2:
		status := budget.StatusApproved
		m.filter.Status = &status
	default:
		m.filter.Status = nil
	}
}

func (m *AllocationsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.allocations))
	for _, a := range m.allocations {
		code := m.categories[a.CategoryID]
		if code == "" {
			code = a.CategoryID.String()[:8]
		}

		rows = append(rows, table.Row{
			strconv.Itoa(a.FiscalYear),
			code,
			FormatAmount(a.Allocated),
			FormatAmount(a.Spent),
			FormatAmount(a.Remaining),
			string(a.Status),
		})
	}
	m.table.SetRows(rows)
}

// Messages

type allocationsLoadMsg struct {
	allocations []*budget.Allocation
	categories  map[uuid.UUID]string
	err         error
}

func (m AllocationsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		allocations, err := m.budgetService.List(ctx, m.filter)
		if err != nil {
			return allocationsLoadMsg{err: err}
		}

		categories, err := m.categoryService.List(ctx, category.KindExpense)
		if err != nil {
			return allocationsLoadMsg{err: err}
		}

		codes := make(map[uuid.UUID]string, len(categories))
		for _, c := range categories {
			codes[c.ID] = c.Code
		}

		return allocationsLoadMsg{allocations: allocations, categories: codes}
	}
}

type allocationActionMsg struct {
	err error
}

func (m AllocationsModel) approveCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return allocationActionMsg{err: m.budgetService.Approve(ctx, id, m.actor)}
	}
}
