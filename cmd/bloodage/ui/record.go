package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bloodage/internal/calculator"
	"bloodage/internal/history"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Notes written for manually recorded rows.
const (
	NoteManualEntry = "Manual entry"
	NoteSkipped     = "Skipped"
)

// readyMsg reports that the page for entry index has been opened and the
// load delay has passed.
type readyMsg struct{ index int }

// RecordModel walks the user through the calculator pages one at a time and
// collects the ages they read off each page.
type RecordModel struct {
	entries []calculator.Entry
	index   int
	ready   bool

	input   textinput.Model
	warning string

	results []history.Result
	stopped bool

	open  func(url string)
	delay time.Duration

	styles Styles
}

// NewRecordModel creates the recording screen. open is called with each URL
// and delay is the time given to the page before prompting.
func NewRecordModel(entries []calculator.Entry, open func(url string), delay time.Duration) RecordModel {
	styles := DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "age, skip or quit"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 32
	ti.Width = 40
	ti.PromptStyle = styles.Prompt

	return RecordModel{
		entries: entries,
		input:   ti,
		open:    open,
		delay:   delay,
		styles:  styles,
	}
}

// Init opens the first page.
func (m RecordModel) Init() tea.Cmd {
	if len(m.entries) == 0 {
		return tea.Quit
	}
	return tea.Batch(textinput.Blink, m.openCurrent())
}

func (m RecordModel) openCurrent() tea.Cmd {
	idx, url, open, delay := m.index, m.entries[m.index].URL, m.open, m.delay
	return func() tea.Msg {
		if open != nil {
			open(url)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		return readyMsg{index: idx}
	}
}

// Update handles page readiness and keyboard input.
func (m RecordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case readyMsg:
		if msg.index == m.index {
			m.ready = true
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.stopped = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m RecordModel) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	date := m.entries[m.index].Date

	switch strings.ToLower(value) {
	case "quit":
		m.stopped = true
		return m, tea.Quit
	case "skip":
		m.results = append(m.results, history.Result{Date: date, Notes: NoteSkipped})
	default:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			m.warning = "Invalid input. Please enter a number, 'skip', or 'quit'."
			m.input.Reset()
			return m, nil
		}
		m.results = append(m.results, history.Result{Date: date, Age: value, Notes: NoteManualEntry})
	}

	m.index++
	m.ready = false
	m.warning = ""
	m.input.Reset()
	if m.Done() {
		return m, tea.Quit
	}
	return m, m.openCurrent()
}

// Results returns the rows recorded so far.
func (m RecordModel) Results() []history.Result {
	return m.results
}

// Done reports whether every entry has been answered.
func (m RecordModel) Done() bool {
	return m.index >= len(m.entries)
}

// Stopped reports whether the user quit before the end.
func (m RecordModel) Stopped() bool {
	return m.stopped
}

// View renders the screen.
func (m RecordModel) View() string {
	if m.Done() {
		return m.styles.Success.Render(fmt.Sprintf("Recorded %d of %d date(s).", len(m.results), len(m.entries))) + "\n"
	}

	var sb strings.Builder
	e := m.entries[m.index]
	sb.WriteString(m.styles.Title.Render(fmt.Sprintf("[%d/%d] %s", m.index+1, len(m.entries), e.Date)))
	sb.WriteString("\n")
	if m.ready {
		sb.WriteString(m.styles.Body.Render("Read the age from the browser and enter it below."))
	} else {
		sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("Opening URL in browser, waiting %s...", m.delay)))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	if m.warning != "" {
		sb.WriteString(m.styles.Warning.Render(m.warning))
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Muted.Render("enter: save • skip: leave blank • quit/esc: stop and save"))
	sb.WriteString("\n")
	return sb.String()
}
