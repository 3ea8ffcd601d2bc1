package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/requestwave/soundcheck/internal/checks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SuiteListView ViewState = iota
	RunView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *checks.Engine
	width        int
	height       int
	suiteList    list.Model
	selected     []string // suite names to run, empty means all
	progressChan chan checks.ProgressUpdate
	progress     checks.ProgressUpdate
	report       *checks.RunReport
	err          error
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up    key.Binding
	down  key.Binding
	enter key.Binding
	all   key.Binding
	back  key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run suite")),
		all:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "run all")),
		back:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.all, k.back, k.quit},
	}
}

// suiteItem wraps [checks.Suite] to implement list.Item.
type suiteItem struct {
	suite checks.Suite
}

func (i suiteItem) FilterValue() string { return i.suite.Name }
func (i suiteItem) Title() string       { return i.suite.Name }
func (i suiteItem) Description() string {
	desc := fmt.Sprintf("%d checks", len(i.suite.Checks))
	if i.suite.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.suite.Description)
	}
	return desc
}

type progressUpdateMsg checks.ProgressUpdate

type runCompleteMsg struct {
	report *checks.RunReport
	err    error
}

// NewModel creates a new TUI model around a check engine.
func NewModel(ctx context.Context, engine *checks.Engine) *Model {
	suites := engine.Suites()
	items := make([]list.Item, len(suites))
	for i, suite := range suites {
		items[i] = suiteItem{suite: suite}
	}

	suiteList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	suiteList.Title = "Check Suites"

	return &Model{
		ctx:       ctx,
		view:      SuiteListView,
		engine:    engine,
		suiteList: suiteList,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.suiteList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SuiteListView:
			return m.handleSuiteListKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case RunView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

	case progressUpdateMsg:
		m.progress = checks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.report = msg.report
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	var cmd tea.Cmd
	if m.view == SuiteListView {
		m.suiteList, cmd = m.suiteList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case SuiteListView:
		return m.renderSuiteList()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Report returns the completed run report, nil before a run finishes.
func (m *Model) Report() *checks.RunReport {
	return m.report
}

func (m *Model) handleSuiteListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.suiteList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(suiteItem); ok {
				m.selected = []string{item.suite.Name}
				m.view = RunView
				return m, m.startRun()
			}
		}
	case "a":
		m.selected = nil
		m.view = RunView
		return m, m.startRun()
	}

	var cmd tea.Cmd
	m.suiteList, cmd = m.suiteList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	case "esc":
		m.view = SuiteListView
		m.report = nil
		m.err = nil
		m.progress = checks.ProgressUpdate{}
		return m, nil
	}
	return m, nil
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan checks.ProgressUpdate, 50)
	progressChan := m.progressChan

	go func() {
		report, err := m.engine.Run(m.ctx, progressChan, m.selected...)
		m.report = report
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return runCompleteMsg{report: m.report, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return runCompleteMsg{report: m.report, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderSuiteList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.all, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.suiteList.View(), helpView)
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Running Checks")

	var phase string
	switch m.progress.Phase {
	case checks.SuiteStart:
		phase = m.progress.Message
	case checks.CheckStart, checks.CheckPassed, checks.CheckFailed:
		phase = m.progress.Message
	case checks.ProbeDispatch, checks.ProbeCollect:
		phase = fmt.Sprintf("Probe (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s", title, phase)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\nPress esc to go back, q to quit", m.err))
	}

	if m.report == nil {
		return styles.err.Render("No report available\n\nPress esc to go back, q to quit")
	}

	var title string
	if m.report.Failed == 0 {
		title = styles.ok.Render("✓ " + m.report.Verdict())
	} else {
		title = styles.err.Render("✗ " + m.report.Verdict())
	}

	body := fmt.Sprintf("\nTarget: %s\nPassed: %d\nFailed: %d\n", m.report.BaseURL, m.report.Passed, m.report.Failed)

	var failures string
	if m.report.Failed > 0 {
		failures = "\n" + styles.warn.Render("Failures:")
		for _, result := range m.report.Results {
			if !result.Success {
				failures += fmt.Sprintf("\n  • [%s] %s: %s", result.Suite, result.Name, result.Message)
			}
		}
		failures += "\n"
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n%s", title, body, failures, helpView)
}
