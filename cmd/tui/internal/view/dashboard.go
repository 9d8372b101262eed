package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/barangaylink/treasury/internal/ledger"
)

const historyLimit = 12

type dashboardState int

const (
	dashboardStateBrowse dashboardState = iota
	dashboardStateSet
	dashboardStateAdjust
)

type DashboardModel struct {
	ledgerService *ledger.Service
	actor         string

	state   dashboardState
	balance *ledger.FundBalance
	entries []*ledger.Entry
	form    *huh.Form

	loading bool
	err     error
	status  string

	// Form bindings
	formAmount    string
	formNotes     string
	formDirection string
}

func NewDashboardModel(ledgerSvc *ledger.Service, actor string) DashboardModel {
	return DashboardModel{
		ledgerService: ledgerSvc,
		actor:         actor,
	}
}

func (m DashboardModel) Title() string { return "Fund Dashboard" }

func (m DashboardModel) ShortHelp() string {
	if m.state != dashboardStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | b: set balance | a: adjust | r: refresh"
}

func (m DashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.balance = msg.balance
		m.entries = msg.entries

		return m, nil

	case dashboardSaveMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = ""
		}

		m.state = dashboardStateBrowse
		m.form = nil

		return m, m.loadCmd()
	}

	if m.state == dashboardStateBrowse {
		return m.updateBrowse(msg)
	}

	return m.updateForm(msg)
}

func (m DashboardModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, Back
	case "r":
		m.loading = true
		return m, m.loadCmd()
	case "b":
		return m.enterSetMode()
	case "a":
		return m.enterAdjustMode()
	}

	return m, nil
}

func (m DashboardModel) enterSetMode() (tea.Model, tea.Cmd) {
	m.formAmount = ""
	m.formNotes = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("New Balance").
				Placeholder("100000.00").
				Value(&m.formAmount).
				Validate(validateNonNegativeAmount),

			huh.NewInput().
				Key("notes").
				Title("Notes").
				Value(&m.formNotes),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = dashboardStateSet

	return m, m.form.Init()
}

func (m DashboardModel) enterAdjustMode() (tea.Model, tea.Cmd) {
	m.formAmount = ""
	m.formNotes = ""
	m.formDirection = string(ledger.DirectionAdd)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("direction").
				Title("Direction").
				Options(
					huh.NewOption("Add", string(ledger.DirectionAdd)),
					huh.NewOption("Deduct", string(ledger.DirectionDeduct)),
				).
				Value(&m.formDirection),

			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("500.00").
				Value(&m.formAmount).
				Validate(validatePositiveAmount),

			huh.NewInput().
				Key("notes").
				Title("Notes").
				Value(&m.formNotes),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = dashboardStateAdjust

	return m, m.form.Init()
}

func (m DashboardModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = dashboardStateBrowse
			m.form = nil

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

	if m.state == dashboardStateSet {
		return m, m.setCmd()
	}

	return m, m.adjustCmd()
}

func (m DashboardModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading fund balance...")
	}

	if m.err != nil && m.err != ledger.ErrNotFound {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	balanceLine := "No balance set yet. Press b to set the starting balance."
	if m.balance != nil {
		balanceLine = fmt.Sprintf("Current Balance: ₱%s  (updated %s by %s)",
			FormatAmount(m.balance.Current),
			FormatDate(m.balance.UpdatedAt),
			m.balance.UpdatedBy,
		)
	}

	balancePanel := lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(balanceLine)

	var b strings.Builder
	b.WriteString("Recent Activity:\n\n")

	if len(m.entries) == 0 {
		b.WriteString("  (no history)\n")
	}

	for i, e := range m.entries {
		if i >= historyLimit {
			break
		}

		fmt.Fprintf(&b, "  %s  %-18s  %10s  →  %s\n",
			FormatDate(e.CreatedAt),
			e.Action,
			FormatAmount(e.AmountChanged),
			FormatAmount(e.NewBalance),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		balancePanel,
		lipgloss.NewStyle().PaddingTop(1).Render(b.String()),
	)

	if m.state != dashboardStateBrowse && m.form != nil {
		title := "Set Balance"
		if m.state == dashboardStateAdjust {
			title = "Adjust Balance"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("%s\n\n%s", title, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func validatePositiveAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid amount")
	}

	if !d.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}

	return nil
}

func validateNonNegativeAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid amount")
	}

	if d.IsNegative() {
		return fmt.Errorf("amount cannot be negative")
	}

	return nil
}

// Messages

type dashboardLoadMsg struct {
	balance *ledger.FundBalance
	entries []*ledger.Entry
	err     error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		balance, err := m.ledgerService.Current(ctx)
		if err != nil && err != ledger.ErrNotFound {
			return dashboardLoadMsg{err: err}
		}

		entries, err := m.ledgerService.History(ctx, ledger.HistoryFilter{})
		if err != nil {
			return dashboardLoadMsg{err: err}
		}

		return dashboardLoadMsg{balance: balance, entries: entries}
	}
}

type dashboardSaveMsg struct {
	err error
}

func (m DashboardModel) setCmd() tea.Cmd {
	amount, _ := decimal.NewFromString(strings.TrimSpace(m.formAmount))
	notes := m.formNotes

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		err := m.ledgerService.SetBalance(ctx, ledger.SetParams{
			Amount:  amount,
			Notes:   notes,
			ActedBy: m.actor,
		})

		return dashboardSaveMsg{err: err}
	}
}

func (m DashboardModel) adjustCmd() tea.Cmd {
	amount, _ := decimal.NewFromString(strings.TrimSpace(m.formAmount))
	notes := m.formNotes
	direction := ledger.Direction(m.formDirection)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		err := m.ledgerService.Adjust(ctx, ledger.AdjustParams{
			Delta:     amount,
			Direction: direction,
			Notes:     notes,
			ActedBy:   m.actor,
		})

		return dashboardSaveMsg{err: err}
	}
}
