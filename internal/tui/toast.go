package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// toastType selects the style of a toast.
type toastType int

const (
	toastSuccess toastType = iota
	toastError
	toastWarning
	toastLoading // spinner, stays until replaced or dismissed
)

// toastAutoDismiss is how long non-loading toasts stay up.
const toastAutoDismiss = 3 * time.Second

// toastModel is the one-line notice that replaces the help bar after an
// action ("Switched Claude Code to \"work\""). A new toast replaces the old.
type toastModel struct {
	active  bool
	message string
	kind    toastType
	id      int // matched against toastDismissMsg so old timers are ignored

	spinner spinner.Model
	nextID  int
}

// toastDismissMsg is sent by the auto-dismiss timer.
type toastDismissMsg struct {
	id int
}

func newToastModel() toastModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(spinnerStyle),
	)
	return toastModel{
		spinner: s,
	}
}

// show replaces the current toast and returns the spinner tick or the
// dismiss timer.
func (m toastModel) show(message string, kind toastType) (toastModel, tea.Cmd) {
	m.active = true
	m.message = message
	m.kind = kind
	m.id = m.nextID
	m.nextID++

	var cmds []tea.Cmd

	switch kind {
	case toastLoading:
		cmds = append(cmds, m.spinner.Tick)
	case toastSuccess, toastError, toastWarning:
		id := m.id
		cmds = append(cmds, tea.Tick(toastAutoDismiss, func(_ time.Time) tea.Msg {
			return toastDismissMsg{id: id}
		}))
	}

	return m, tea.Batch(cmds...)
}

// dismiss hides the toast immediately.
func (m toastModel) dismiss() toastModel {
	m.active = false
	m.message = ""
	return m
}

// update handles spinner ticks and auto-dismiss messages.
func (m toastModel) update(msg tea.Msg) (toastModel, tea.Cmd) {
	switch msg := msg.(type) {
	case toastDismissMsg:
		if msg.id == m.id {
			m = m.dismiss()
		}
		return m, nil

	case spinner.TickMsg:
		if m.active && m.kind == toastLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// view renders the toast indented one column, or "" when inactive.
func (m toastModel) view() string {
	if !m.active {
		return ""
	}

	var style lipgloss.Style

	switch m.kind {
	case toastSuccess:
		style = currentStyle
	case toastError:
		style = errorStyle
	case toastWarning:
		style = warningStyle
	case toastLoading:
		return " " + m.spinner.View() + mutedStyle.Render(m.message)
	}

	return " " + style.Render(m.message)
}
