package tui

import (
	"fmt"
	"strings"

	"taskdeck/internal/output"
)

func (m model) View() string {
	var body string
	switch m.screen() {
	case loginScreen:
		body = m.loginView()
	case registerScreen:
		body = m.registerView()
	default:
		body = m.dashboardView()
	}
	return frameStyle.Render(body)
}

func (m model) status() string {
	if m.loading {
		return m.spinner.View() + " working...\n"
	}
	return ""
}

func (m model) loginView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Log in") + "\n\n")
	s.WriteString(m.login.view())
	if m.authErr != "" {
		s.WriteString(errorStyle.Render(m.authErr) + "\n")
	}
	s.WriteString(m.status())
	s.WriteString(helpStyle.Render("enter: log in • tab: next field • ctrl+r: create account • esc: quit"))
	return s.String()
}

func (m model) registerView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Create account") + "\n\n")
	s.WriteString(m.register.view())
	if m.authErr != "" {
		s.WriteString(errorStyle.Render(m.authErr) + "\n")
	}
	s.WriteString(m.status())
	s.WriteString(helpStyle.Render("enter: register • tab: next field • esc: back to login"))
	return s.String()
}

func (m model) greeting() string {
	name := "User"
	if m.session != nil && strings.TrimSpace(m.session.Name) != "" {
		name = m.session.Name
	}
	return "Hello, " + name
}

func (m model) dashboardView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(m.greeting()) + "\n\n")

	switch {
	case len(m.tasks) == 0 && m.loadFailed:
		s.WriteString(labelStyle.Render("Tasks could not be loaded. Press r to retry.") + "\n")
	case len(m.tasks) == 0 && !m.loading:
		s.WriteString(labelStyle.Render("No tasks yet. Press a to add one.") + "\n")
	}

	for i, task := range m.tasks {
		line := fmt.Sprintf("%s %s", output.Checkbox(task.Done), output.NormalizeTitle(task.Title))
		if task.Done {
			line = doneStyle.Render(line)
		}
		if i == m.cursor {
			s.WriteString(selectedStyle.Render("> ") + line + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
		if task.ID == m.expanded {
			if d := output.Description(task); d != "" {
				for _, l := range strings.Split(d, "\n") {
					s.WriteString(detailStyle.Render(l) + "\n")
				}
			}
			s.WriteString(detailStyle.Render(output.Timestamps(task)) + "\n")
		}
	}

	if m.adding {
		s.WriteString("\n" + titleStyle.Render("New task") + "\n\n")
		s.WriteString(m.add.view())
	}

	s.WriteString("\n")
	if m.dashErr != "" {
		s.WriteString(errorStyle.Render(m.dashErr) + "\n")
	}
	s.WriteString(m.status())
	if m.adding {
		s.WriteString(helpStyle.Render("enter: save • tab: next field • esc: cancel"))
	} else {
		s.WriteString(helpStyle.Render("j/k: move • space: done • enter: details • a: add • d: delete • r: refresh • L: log out • q: quit"))
	}
	return s.String()
}
