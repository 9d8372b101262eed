package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/barangaylink/treasury/internal/expense"
	"github.com/barangaylink/treasury/internal/importer"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStateImporting
	importStateResult
)

type ImportModel struct {
	importService *importer.Service
	actor         string

	state      importState
	filePicker filepicker.Model

	result *expense.ImportResult
	status string
	err    error
}

func NewImportModel(importSvc *importer.Service, actor string) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.Height = 15
	fp.AutoHeight = false

	return ImportModel{
		importService: importSvc,
		actor:         actor,
		filePicker:    fp,
	}
}

func (m ImportModel) Title() string { return "Import Legacy Expenses" }

func (m ImportModel) ShortHelp() string { return "Esc: back | Enter: select" }

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			if m.state == importStateResult {
				m.state = importStateFilePick
				m.result = nil
				m.err = nil
				m.status = ""

				return m, nil
			}

			return m, Back
		}

	case importResultMsg:
		m.state = importStateResult
		m.result = msg.result
		m.err = msg.err

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else if len(msg.result.Conflicts) > 0 {
			m.status = fmt.Sprintf("Nothing imported: %d reference numbers already exist.", len(msg.result.Conflicts))
		} else {
			m.status = fmt.Sprintf("Imported %d expenses as pending.", len(msg.result.Imported))
		}

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select an expense log export:\n\n%s", m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)

	if m.err != nil {
		return style.Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.status) +
				"\n\n(Esc to go back)",
		)
	}

	body := lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(m.status)

	if m.result != nil && len(m.result.Conflicts) > 0 {
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(m.status) +
			"\n\nConflicting references:\n  " + strings.Join(m.result.Conflicts, "\n  ")
	}

	return style.Render(body + "\n\n(Esc to go back)")
}

// Messages

type importResultMsg struct {
	result *expense.ImportResult
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.importService.Import(ctx, f, m.actor)
		if err != nil {
			return importResultMsg{err: err}
		}

		return importResultMsg{result: result}
	}
}
