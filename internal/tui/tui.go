// Package tui renders the inline progress view of an evidence run.
package tui

import (
	"os"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// ciEnv lists variables set by CI systems, where nobody watches the view.
var ciEnv = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILDKITE",
}

// Run renders plan inline until events is closed or a DoneEvent arrives.
func Run(events <-chan Event, title string, plan Plan) error {
	_, err := tea.NewProgram(NewModel(events, title, plan)).Run()
	return err
}

// Interactive reports whether stdout is a terminal outside CI.
func Interactive() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return !slices.ContainsFunc(ciEnv, func(k string) bool {
		return os.Getenv(k) != ""
	})
}

// Send delivers e without blocking; the event is dropped when ch is nil
// or full.
func Send(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
	}
}
