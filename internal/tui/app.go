// Package tui is the interactive profile switcher started by a bare "crs"
// in a terminal.
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/barysiuk/crs/internal/core"
	"github.com/barysiuk/crs/internal/core/system"
)

// Options configures the switcher.
type Options struct {
	Tool       string // tool shown first; empty means the first registered
	MaxBackups int
	Logger     *slog.Logger
}

// Run starts the switcher and blocks until the user quits.
func Run(paths *core.Paths, opts Options) error {
	app, err := NewApp(paths, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}

type appView int

const (
	viewProfiles appView = iota // Profile list (default)
	viewPreview                 // Root document preview overlay
)

// App is the root Bubbletea model.
type App struct {
	paths   *core.Paths
	opts    Options
	systems []system.System
	toolIdx int
	stores  map[string]*core.ProfileStore

	activeView appView
	width      int
	height     int
	ready      bool

	list     list.Model
	profiles []core.ProfileSummary

	previewViewport viewport.Model
	previewTitle    string
	previewLoading  bool
	previewSpinner  spinner.Model

	// Cached glamour renderer (lazy-initialized on first preview).
	glamourRenderer *glamour.TermRenderer

	help    help.Model
	toast   toastModel
	confirm confirmModel
}

// NewApp creates the switcher model. Stores are opened lazily per tool.
func NewApp(paths *core.Paths, opts Options) (App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	systems := system.All()
	idx := 0
	if opts.Tool != "" {
		sys, err := system.Lookup(opts.Tool)
		if err != nil {
			return App{}, err
		}
		for i, s := range systems {
			if s.Name() == sys.Name() {
				idx = i
			}
		}
	}

	l := list.New(nil, newProfileDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	h := help.New()
	h.ShortSeparator = "  |  "

	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(spinnerStyle),
	)

	return App{
		paths:          paths,
		opts:           opts,
		systems:        systems,
		toolIdx:        idx,
		stores:         make(map[string]*core.ProfileStore),
		list:           l,
		help:           h,
		previewSpinner: s,
		toast:          newToastModel(),
		confirm:        newConfirmModel(),
	}, nil
}

// --- Messages ---

type profilesLoadedMsg struct {
	tool     string
	store    *core.ProfileStore
	profiles []core.ProfileSummary
	err      error
}

type switchDoneMsg struct {
	name string
	err  error
}

type deleteDoneMsg struct {
	name string
	err  error
}

type openPreviewMsg struct {
	title   string
	content string
	err     error
}

// previewRenderedMsg is sent when background glamour rendering completes.
type previewRenderedMsg struct {
	content  string
	renderer *glamour.TermRenderer
}

// --- Init / Update / View ---

func (a App) Init() tea.Cmd {
	return a.loadProfilesCmd()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.help.Width = msg.Width
		a.propagateSize()
		return a, nil

	case profilesLoadedMsg:
		if msg.err != nil {
			var cmd tea.Cmd
			a.toast, cmd = a.toast.show(fmt.Sprintf("Error: %v", msg.err), toastError)
			return a, cmd
		}
		if msg.tool != a.tool().Name() {
			// Stale load for a tool the user has already tabbed away from.
			return a, nil
		}
		a.stores[msg.tool] = msg.store
		a.profiles = msg.profiles
		cmd := a.list.SetItems(profilesToItems(msg.profiles))
		return a, cmd

	case switchDoneMsg:
		if msg.err != nil {
			return a.showError(msg.err)
		}
		var cmd tea.Cmd
		a.toast, cmd = a.toast.show(fmt.Sprintf("Switched %s to %q", a.tool().DisplayName(), msg.name), toastSuccess)
		return a, tea.Batch(cmd, a.loadProfilesCmd())

	case deleteDoneMsg:
		if msg.err != nil {
			return a.showError(msg.err)
		}
		var cmd tea.Cmd
		a.toast, cmd = a.toast.show(fmt.Sprintf("Deleted profile %q", msg.name), toastSuccess)
		return a, tea.Batch(cmd, a.loadProfilesCmd())

	case openPreviewMsg:
		if msg.err != nil {
			return a.showError(msg.err)
		}
		a.activeView = viewPreview
		a.previewTitle = msg.title
		a.previewLoading = true
		w, h := a.innerContentSize()
		// -4 for the preview's title, footer and the blank lines between.
		a.previewViewport = viewport.New(w, max(0, h-4))

		// Render markdown in the background so the UI stays responsive.
		rawContent := msg.content
		cachedRenderer := a.glamourRenderer
		renderCmd := func() tea.Msg {
			r := cachedRenderer
			if r == nil {
				var err error
				r, err = glamour.NewTermRenderer(
					glamour.WithAutoStyle(),
					glamour.WithWordWrap(w),
				)
				if err != nil {
					return previewRenderedMsg{content: rawContent}
				}
			}
			rendered, err := r.Render(rawContent)
			if err != nil {
				rendered = rawContent
			}
			return previewRenderedMsg{
				content:  strings.TrimRight(rendered, "\n"),
				renderer: r,
			}
		}
		return a, tea.Batch(a.previewSpinner.Tick, renderCmd)

	case previewRenderedMsg:
		a.previewLoading = false
		a.previewViewport.SetContent(msg.content)
		if msg.renderer != nil {
			a.glamourRenderer = msg.renderer
		}
		return a, nil

	case spinner.TickMsg:
		if a.toast.active && a.toast.kind == toastLoading {
			var cmd tea.Cmd
			a.toast, cmd = a.toast.update(msg)
			return a, cmd
		}
		if a.previewLoading {
			var cmd tea.Cmd
			a.previewSpinner, cmd = a.previewSpinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case toastDismissMsg:
		var cmd tea.Cmd
		a.toast, cmd = a.toast.update(msg)
		return a, cmd

	case confirmResultMsg:
		return a, nil
	}

	// The confirm dialog swallows every key while it is open.
	if m, cmd, consumed := a.confirm.update(msg); consumed {
		busy := m.accepted
		m.accepted = ""
		a.confirm = m
		if busy != "" {
			var toastCmd tea.Cmd
			a.toast, toastCmd = a.toast.show(busy, toastLoading)
			cmd = tea.Batch(toastCmd, cmd)
		}
		return a, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if a.activeView == viewPreview {
			switch {
			case key.Matches(keyMsg, keys.Back):
				a.activeView = viewProfiles
				return a, nil
			case key.Matches(keyMsg, keys.Quit):
				return a, tea.Quit
			}
			var cmd tea.Cmd
			a.previewViewport, cmd = a.previewViewport.Update(msg)
			return a, cmd
		}

		// While typing a filter, keys belong to the list.
		if !a.list.SettingFilter() {
			switch {
			case key.Matches(keyMsg, keys.Quit):
				return a, tea.Quit
			case key.Matches(keyMsg, keys.Enter):
				return a.requestSwitch()
			case key.Matches(keyMsg, keys.Delete):
				return a.requestDelete()
			case key.Matches(keyMsg, keys.Preview):
				if p, ok := a.selected(); ok {
					return a, a.previewCmd(p.Name)
				}
				return a, nil
			case key.Matches(keyMsg, keys.SwitchTool):
				if len(a.systems) > 1 {
					a.toolIdx = (a.toolIdx + 1) % len(a.systems)
					a.list.ResetFilter()
					// Nothing is selectable until the new tool's profiles arrive.
					a.profiles = nil
					a.list.SetItems(nil)
					return a, a.loadProfilesCmd()
				}
				return a, nil
			case key.Matches(keyMsg, keys.Refresh):
				return a, a.loadProfilesCmd()
			}
		}
	}

	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := a.renderHeader()
	helpBar := a.renderHelpBar()
	if a.toast.active {
		helpBar = a.toast.view()
	}

	// JoinVertical puts a newline between header, box and help bar.
	chromeH := lipgloss.Height(header) + lipgloss.Height(helpBar) + 2

	borderV := contentStyle.GetVerticalBorderSize()
	borderH := contentStyle.GetHorizontalBorderSize()
	innerW := max(0, a.width-borderH)
	innerH := max(0, a.height-chromeH-borderV)
	textW, textH := a.innerContentSize()

	var content string
	switch a.activeView {
	case viewProfiles:
		content = a.renderProfiles()
	case viewPreview:
		content = a.renderPreview()
	}
	if a.confirm.active {
		content = a.confirm.view()
	}

	// Clamp so long lines cannot wrap and inflate the box.
	content = clampWidth(content, textW)
	content = clampHeight(content, textH)

	styled := contentStyle.
		Width(innerW).
		Height(innerH).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, styled, helpBar)
}

func (a App) renderHeader() string {
	sys := a.tool()
	logo := logoStyle.Render("crs")
	tool := headerToolStyle.Render(sys.DisplayName())
	dir := mutedStyle.Render(a.liveDir())

	var hints string
	switch a.activeView {
	case viewProfiles:
		if name, ok := a.currentName(); ok {
			hints = headerHintStyle.Render("current: " + name)
		} else {
			hints = headerHintStyle.Render("no active profile")
		}
	case viewPreview:
		hints = headerHintStyle.Render(a.previewTitle)
	}

	left := lipgloss.JoinHorizontal(lipgloss.Top, " ", logo, " ", tool, dir)
	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(hints)-1)
	return left + strings.Repeat(" ", gap) + hints
}

func (a App) renderHelpBar() string {
	var km help.KeyMap
	switch a.activeView {
	case viewProfiles:
		km = profilesHelpKeyMap{multiTool: len(a.systems) > 1}
	case viewPreview:
		km = previewHelpKeyMap{}
	}
	return " " + helpStyle.Render(a.help.View(km))
}

func (a App) renderProfiles() string {
	if len(a.profiles) == 0 {
		return mutedStyle.Render(fmt.Sprintf(
			"No %s profiles yet.\n\nCreate one with \"crs save <name>\", \"crs create <name>\"\nor \"crs template install <template> <name>\".",
			a.tool().DisplayName()))
	}
	return a.list.View()
}

func (a App) renderPreview() string {
	w, _ := a.innerContentSize()
	title := viewportTitleStyle.Render(" " + a.previewTitle + " ")
	line := strings.Repeat("─", max(0, w-lipgloss.Width(title)))
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, mutedStyle.Render(line))

	if a.previewLoading {
		return header + "\n\n" + a.previewSpinner.View() + " Rendering preview..."
	}

	pct := fmt.Sprintf(" %3.0f%% ", a.previewViewport.ScrollPercent()*100)
	return header + "\n\n" + a.previewViewport.View() + "\n\n" + previewPctStyle.Render(pct)
}

// --- Actions ---

func (a App) requestSwitch() (tea.Model, tea.Cmd) {
	p, ok := a.selected()
	if !ok {
		return a, nil
	}
	if p.IsCurrent {
		var cmd tea.Cmd
		a.toast, cmd = a.toast.show(fmt.Sprintf("Already using %q", p.Name), toastWarning)
		return a, cmd
	}
	a.confirm = a.confirm.show(confirmRequest{
		message:   fmt.Sprintf("Switch %s to %q?\nThe live configuration is backed up first.", a.tool().DisplayName(), p.Name),
		busy:      fmt.Sprintf("Switching to %q...", p.Name),
		onConfirm: a.switchCmd(p.Name),
	})
	return a, nil
}

func (a App) requestDelete() (tea.Model, tea.Cmd) {
	p, ok := a.selected()
	if !ok {
		return a, nil
	}
	if p.IsCurrent {
		var cmd tea.Cmd
		a.toast, cmd = a.toast.show("Cannot delete the current profile; switch to another first", toastError)
		return a, cmd
	}
	a.confirm = a.confirm.show(confirmRequest{
		message:     fmt.Sprintf("Delete profile %q?\nThis cannot be undone.", p.Name),
		busy:        fmt.Sprintf("Deleting %q...", p.Name),
		destructive: true,
		onConfirm:   a.deleteCmd(p.Name),
	})
	return a, nil
}

func (a App) showError(err error) (tea.Model, tea.Cmd) {
	a.opts.Logger.Debug("tui action failed", "error", err)
	var cmd tea.Cmd
	a.toast, cmd = a.toast.show(fmt.Sprintf("Error: %v", err), toastError)
	return a, cmd
}

// --- Commands ---

// loadProfilesCmd opens the active tool's store and lists its profiles.
func (a App) loadProfilesCmd() tea.Cmd {
	sys := a.tool()
	store := a.stores[sys.Name()]
	paths, opts := a.paths, a.opts
	return func() tea.Msg {
		if store == nil {
			s := core.NewProfileStore(paths, sys, core.StoreOptions{
				MaxBackups: opts.MaxBackups,
				Logger:     opts.Logger,
			})
			if err := s.Initialize(); err != nil {
				return profilesLoadedMsg{tool: sys.Name(), err: err}
			}
			store = s
		}
		profiles, err := store.ListProfiles()
		return profilesLoadedMsg{tool: sys.Name(), store: store, profiles: profiles, err: err}
	}
}

func (a App) switchCmd(name string) tea.Cmd {
	store := a.stores[a.tool().Name()]
	return func() tea.Msg {
		if store == nil {
			return switchDoneMsg{name: name, err: errors.New("profiles not loaded")}
		}
		_, err := store.SwitchTo(name)
		return switchDoneMsg{name: name, err: err}
	}
}

func (a App) deleteCmd(name string) tea.Cmd {
	store := a.stores[a.tool().Name()]
	return func() tea.Msg {
		if store == nil {
			return deleteDoneMsg{name: name, err: errors.New("profiles not loaded")}
		}
		return deleteDoneMsg{name: name, err: store.DeleteProfile(name)}
	}
}

// previewCmd loads a profile and hands its root document to the preview.
func (a App) previewCmd(name string) tea.Cmd {
	sys := a.tool()
	store := a.stores[sys.Name()]
	return func() tea.Msg {
		if store == nil {
			return openPreviewMsg{err: errors.New("profiles not loaded")}
		}
		p, err := store.LoadProfile(name)
		if err != nil {
			return openPreviewMsg{err: err}
		}
		title := name + " · " + sys.RootDocument()
		for _, f := range p.Bundle.Files() {
			if f.Path == sys.RootDocument() {
				return openPreviewMsg{title: title, content: f.Content}
			}
		}
		return openPreviewMsg{title: title, content: fmt.Sprintf("_%s has no %s._", name, sys.RootDocument())}
	}
}

// --- Helpers ---

func (a App) tool() system.System { return a.systems[a.toolIdx] }

func (a App) selected() (core.ProfileSummary, bool) {
	item, ok := a.list.SelectedItem().(profileItem)
	if !ok {
		return core.ProfileSummary{}, false
	}
	return item.profile, true
}

func (a App) currentName() (string, bool) {
	for _, p := range a.profiles {
		if p.IsCurrent {
			return p.Name, true
		}
	}
	return "", false
}

func (a App) liveDir() string {
	if s, ok := a.stores[a.tool().Name()]; ok {
		return s.LiveDir()
	}
	return a.tool().ConfigDir()
}

func (a *App) propagateSize() {
	w, h := a.innerContentSize()
	a.list.SetSize(w, max(1, h))
	a.confirm = a.confirm.setSize(w, h)
	if a.activeView == viewPreview {
		a.previewViewport.Width = w
		a.previewViewport.Height = max(0, h-4)
	}
}

// innerContentSize returns the text area inside the content box.
func (a App) innerContentSize() (width, height int) {
	chromeH := lipgloss.Height(a.renderHeader()) + lipgloss.Height(a.renderHelpBar()) + 2
	width = max(0, a.width-contentStyle.GetHorizontalFrameSize())
	height = max(0, a.height-chromeH-contentStyle.GetVerticalFrameSize())
	return width, height
}

func clampHeight(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) <= maxLines {
		return content
	}
	return strings.Join(lines[:maxLines], "\n")
}

// clampWidth truncates each line to maxWidth visible characters, ANSI
// aware, so lipgloss never wraps inside a fixed-width box.
func clampWidth(content string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > maxWidth {
			lines[i] = ansi.Truncate(line, maxWidth, "")
		}
	}
	return strings.Join(lines, "\n")
}
