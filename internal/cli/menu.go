package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"live-watcher/internal/output"
)

// Menu is the interactive numbered menu shown when no subcommand is given.
type Menu struct {
	deps    *Dependencies
	scanner *bufio.Scanner
	f       *output.Formatter
}

func NewMenu(deps *Dependencies, in io.Reader, out io.Writer) *Menu {
	return &Menu{deps: deps, scanner: bufio.NewScanner(in), f: output.NewFormatter(out)}
}

// Run loops until the user chooses exit or input ends.
func (m *Menu) Run(ctx context.Context) error {
	for {
		recording := m.deps.App.Preferences.RecordingEnabled()
		m.f.MenuHeader(recording, len(m.deps.App.Watchlist.List()))
		m.f.MenuOptions(recording)

		choice, ok := m.ask("Choose an option: ")
		if !ok {
			return nil
		}

		var err error
		switch choice {
		case "1":
			err = m.add()
		case "2":
			err = m.remove()
		case "3":
			err = m.monitor(ctx)
		case "4":
			err = m.toggle()
		case "5":
			m.f.DiagnosticReport(m.deps.App.RefreshDiagnostics())
		case "0", "q", "exit":
			m.f.Info("Bye")
			return nil
		default:
			m.f.Warning(fmt.Sprintf("Unknown option %q", choice))
		}
		if err != nil {
			m.f.Error(err.Error())
		}
	}
}

func (m *Menu) ask(prompt string) (string, bool) {
	m.f.Prompt(prompt)
	if !m.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.scanner.Text()), true
}

func (m *Menu) add() error {
	raw, ok := m.ask("Username to add: ")
	if !ok || raw == "" {
		return nil
	}
	return addUsername(m.deps, m.f, raw)
}

func (m *Menu) remove() error {
	names := m.deps.App.Watchlist.List()
	if len(names) == 0 {
		m.f.Info("No usernames saved yet")
		return nil
	}
	m.f.UsernameList(names)
	username, ok := m.pick(names, "Username or number to remove: ")
	if !ok {
		return nil
	}
	return removeUsername(m.deps, m.f, username)
}

func (m *Menu) monitor(ctx context.Context) error {
	names := m.deps.App.Watchlist.List()
	if len(names) == 0 {
		m.f.Info("No usernames saved yet. Add one first.")
		return nil
	}
	m.f.UsernameList(names)
	username, ok := m.pick(names, "Username or number to monitor: ")
	if !ok {
		return nil
	}

	m.f.Info(fmt.Sprintf("Monitoring @%s. Press Ctrl+C to return to the menu.", username))
	return watch(ctx, m.deps, m.f, func(ctx context.Context) error {
		return m.deps.App.Monitor(ctx, username)
	})
}

func (m *Menu) toggle() error {
	enabled, err := m.deps.App.Preferences.ToggleRecording()
	if err != nil {
		return err
	}
	m.f.RecordingSetting(enabled)
	return nil
}

// pick accepts a 1-based index into names or a handle typed out in full.
func (m *Menu) pick(names []string, prompt string) (string, bool) {
	answer, ok := m.ask(prompt)
	if !ok || answer == "" {
		return "", false
	}
	if n, err := strconv.Atoi(answer); err == nil {
		if n < 1 || n > len(names) {
			m.f.Warning(fmt.Sprintf("No entry %d", n))
			return "", false
		}
		return names[n-1], true
	}
	return answer, true
}
