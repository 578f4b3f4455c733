package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the Bubble Tea model of the progress view.
type Model struct {
	title   string
	plan    Plan
	notices []NoticeEvent
	spinner spinner.Model
	bar     progress.Model
	events  <-chan Event
	done    bool
}

// closedMsg reports that the event channel was closed.
type closedMsg struct{}

// NewModel creates the view for plan. The plan is copied.
func NewModel(events <-chan Event, title string, plan Plan) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		title:   title,
		plan:    slices.Clone(plan),
		spinner: s,
		bar: progress.New(
			progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
			progress.WithWidth(20),
			progress.WithoutPercentage(),
		),
		events: events,
	}
}

// Init starts the spinner and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, next(m.events))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case StageEvent:
		m.plan = slices.Clone(m.plan)
		m.plan.apply(msg)
		return m, next(m.events)
	case NoticeEvent:
		m.notices = append(m.notices, msg)
		return m, next(m.events)
	case DoneEvent, closedMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the title, one line per stage and the notices.
func (m Model) View() string {
	var b strings.Builder

	if m.title != "" {
		b.WriteString(titleStyle.Render("  "+m.title) + "\n")
	}
	for _, r := range m.plan {
		b.WriteString(r.view(m.spinner.View(), m.bar) + "\n")
	}
	for _, n := range m.notices {
		style := noteStyle
		if n.Warn {
			style = warnStyle
		}
		b.WriteString("\n" + style.Render("  "+n.Text) + "\n")
	}
	if !m.done {
		b.WriteString(hintStyle.Render("  Press Ctrl+C to cancel") + "\n")
	}
	return b.String()
}

// next waits for the following event.
func next(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return e
	}
}
