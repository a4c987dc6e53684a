package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// confirmRequest describes the profile action a dialog guards.
type confirmRequest struct {
	message     string
	busy        string // loading toast shown once confirmed, e.g. "Switching to \"work\"..."
	destructive bool   // focus starts on No and Yes is drawn in the danger color
	onConfirm   tea.Cmd
}

// confirmModel is the modal Yes/No dialog shown before switching or deleting
// a profile. While active it takes every key.
//
// left/right/tab/shift+tab move focus, enter activates the focused button
// and y/n/esc answer directly:
//
//	a.confirm = a.confirm.show(confirmRequest{
//		message:     "Delete profile \"work\"?",
//		busy:        "Deleting \"work\"...",
//		destructive: true,
//		onConfirm:   a.deleteCmd("work"),
//	})
//
// Confirming runs the stored command, sends confirmResultMsg and leaves the
// busy text in accepted for the app to pick up.
type confirmModel struct {
	active      bool
	message     string
	busy        string
	destructive bool
	onConfirm   tea.Cmd
	focusYes    bool

	// accepted is the busy text of the request just confirmed.
	accepted string

	// Area the dialog is centered in.
	width  int
	height int
}

// confirmResultMsg is sent after the user responds to a confirmation dialog.
type confirmResultMsg struct {
	confirmed bool
}

func newConfirmModel() confirmModel {
	return confirmModel{}
}

// show opens the dialog. Switching is backed up and reversible, so it
// starts on Yes; deleting starts on No.
func (m confirmModel) show(req confirmRequest) confirmModel {
	m.active = true
	m.message = req.message
	m.busy = req.busy
	m.destructive = req.destructive
	m.onConfirm = req.onConfirm
	m.focusYes = !req.destructive
	m.accepted = ""
	return m
}

// setSize updates the available area for centering the dialog.
func (m confirmModel) setSize(width, height int) confirmModel {
	m.width = width
	m.height = height
	return m
}

// dismiss hides the confirmation dialog without executing anything.
func (m confirmModel) dismiss() confirmModel {
	m.active = false
	m.message = ""
	m.busy = ""
	m.destructive = false
	m.onConfirm = nil
	m.focusYes = false
	return m
}

// confirm executes the stored action and dismisses the dialog.
func (m confirmModel) confirm() (confirmModel, tea.Cmd) {
	cmd, busy := m.onConfirm, m.busy
	m = m.dismiss()
	m.accepted = busy
	return m, tea.Batch(cmd, func() tea.Msg {
		return confirmResultMsg{confirmed: true}
	})
}

// cancel dismisses the dialog without executing anything.
func (m confirmModel) cancel() (confirmModel, tea.Cmd) {
	m = m.dismiss()
	return m, func() tea.Msg {
		return confirmResultMsg{confirmed: false}
	}
}

// update handles a message while the dialog is open. consumed reports
// whether the message was a key the dialog took.
func (m confirmModel) update(msg tea.Msg) (confirmModel, tea.Cmd, bool) {
	if !m.active {
		return m, nil, false
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil, false
	}

	switch {
	case key.Matches(keyMsg, confirmYesKey):
		m, cmd := m.confirm()
		return m, cmd, true

	case key.Matches(keyMsg, confirmNoKey):
		m, cmd := m.cancel()
		return m, cmd, true

	case key.Matches(keyMsg, keys.Back):
		m, cmd := m.cancel()
		return m, cmd, true

	case key.Matches(keyMsg, keys.Enter):
		if m.focusYes {
			m, cmd := m.confirm()
			return m, cmd, true
		}
		m, cmd := m.cancel()
		return m, cmd, true

	case key.Matches(keyMsg, confirmLeft), key.Matches(keyMsg, confirmRight),
		key.Matches(keyMsg, confirmTab), key.Matches(keyMsg, confirmShiftTab):
		m.focusYes = !m.focusYes
		return m, nil, true
	}

	return m, nil, true
}

// view renders the dialog centered in the area given to setSize.
func (m confirmModel) view() string {
	if !m.active {
		return ""
	}

	question := lipgloss.NewStyle().
		Width(40).
		Align(lipgloss.Center).
		Render(m.message)

	var yesBtn, noBtn string
	yesActive := dialogActiveButtonStyle
	if m.destructive {
		yesActive = dialogDangerButtonStyle
	}
	if m.focusYes {
		yesBtn = yesActive.Render("Yes")
		noBtn = dialogButtonStyle.Render("No")
	} else {
		yesBtn = dialogButtonStyle.Render("Yes")
		noBtn = dialogActiveButtonStyle.Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, yesBtn, "  ", noBtn)
	ui := lipgloss.JoinVertical(lipgloss.Center, question, "", buttons)
	dialog := dialogBoxStyle.Render(ui)

	if m.width <= 0 || m.height <= 0 {
		return dialog
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}

// Dialog-only bindings.
var (
	confirmYesKey = key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "confirm"),
	)
	confirmNoKey = key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "cancel"),
	)
	confirmLeft = key.NewBinding(
		key.WithKeys("left", "h"),
	)
	confirmRight = key.NewBinding(
		key.WithKeys("right", "l"),
	)
	confirmTab = key.NewBinding(
		key.WithKeys("tab"),
	)
	confirmShiftTab = key.NewBinding(
		key.WithKeys("shift+tab"),
	)
)
