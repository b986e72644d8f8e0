package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/service"
	"taskdeck/internal/tracker"
	"taskdeck/internal/validate"
)

type screen int

const (
	loginScreen screen = iota
	registerScreen
	dashboardScreen
)

const (
	loginEmail = iota
	loginPassword
)

const (
	registerName = iota
	registerEmail
	registerPassword
	registerConfirm
)

const (
	addTitle = iota
	addDescription
)

// model is the navigation shell. It shows the dashboard while the tracker
// holds a session and the login or register screen otherwise.
type model struct {
	ctx context.Context
	t   *tracker.Tracker

	// Mirrors of tracker state, replaced on every snapshot.
	session *service.Session
	tasks   []service.Task

	public   screen
	login    form
	register form
	authErr  string
	authOp   string

	cursor     int
	expanded   int64
	adding     bool
	add        form
	dashErr    string
	loadFailed bool

	loading bool
	spinner spinner.Model
	width   int
}

func newModel(ctx context.Context, t *tracker.Tracker) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := model{
		ctx:    ctx,
		t:      t,
		public: loginScreen,
		login: newForm(
			field{label: "Email", placeholder: "you@example.com"},
			field{label: "Password", secret: true},
		),
		register: newForm(
			field{label: "Name", placeholder: "Your name"},
			field{label: "Email", placeholder: "you@example.com"},
			field{label: "Password", placeholder: "at least 6 characters", secret: true},
			field{label: "Confirm password", secret: true},
		),
		add: newForm(
			field{label: "Title", placeholder: "New task"},
			field{label: "Description", placeholder: "optional"},
		),
		spinner: sp,
	}
	m.sync()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) screen() screen {
	if m.session != nil {
		return dashboardScreen
	}
	return m.public
}

// sync copies the tracker state into the model.
func (m *model) sync() {
	if sess, ok := m.t.Session(); ok {
		m.session = &sess
	} else {
		m.session = nil
	}
	m.tasks = m.t.Tasks()
	m.clamp()
}

func (m *model) apply(snap tracker.Snapshot) {
	m.session = snap.Session
	m.tasks = snap.Tasks
	m.clamp()
}

func (m *model) clamp() {
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.expanded != 0 {
		found := false
		for _, task := range m.tasks {
			if task.ID == m.expanded {
				found = true
				break
			}
		}
		if !found {
			m.expanded = 0
		}
	}
}

func (m *model) startLoading(cmd tea.Cmd) tea.Cmd {
	m.loading = true
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m model) selected() (service.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return service.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.apply(tracker.Snapshot(msg))
		return m, nil

	case authDoneMsg:
		return m.authDone(msg)

	case loggedOutMsg:
		m.loading = false
		m.sync()
		m.resetDashboard()
		m.public = loginScreen
		if msg.err != nil {
			m.authErr = "logged out, but " + msg.err.Error()
		}
		return m, nil

	case taskOpDoneMsg:
		return m.taskOpDone(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen() {
		case loginScreen:
			return m.updateLogin(msg)
		case registerScreen:
			return m.updateRegister(msg)
		default:
			return m.updateDashboard(msg)
		}
	}

	// Cursor blink and other input messages go to the focused field.
	var cmd tea.Cmd
	switch m.screen() {
	case loginScreen:
		cmd = m.login.update(msg)
	case registerScreen:
		cmd = m.register.update(msg)
	default:
		if m.adding {
			cmd = m.add.update(msg)
		}
	}
	return m, cmd
}

func (m model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "down":
		return m, m.login.next()
	case "shift+tab", "up":
		return m, m.login.prev()
	case "ctrl+r":
		m.public = registerScreen
		m.authErr = ""
		return m, m.register.focusField(registerName)
	case "enter":
		if m.loading {
			return m, nil
		}
		email := strings.TrimSpace(m.login.value(loginEmail))
		password := m.login.value(loginPassword)
		if err := validate.Login(email, password); err != nil {
			m.authErr = service.Message(err)
			return m, nil
		}
		m.authErr = ""
		m.authOp = "login"
		return m, m.startLoading(loginCmd(m.ctx, m.t, email, password))
	}
	return m, m.login.update(msg)
}

func (m model) updateRegister(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.public = loginScreen
		m.authErr = ""
		return m, m.login.focusField(loginEmail)
	case "tab", "down":
		return m, m.register.next()
	case "shift+tab", "up":
		return m, m.register.prev()
	case "enter":
		if m.loading {
			return m, nil
		}
		name := strings.TrimSpace(m.register.value(registerName))
		email := strings.TrimSpace(m.register.value(registerEmail))
		password := m.register.value(registerPassword)
		confirm := m.register.value(registerConfirm)
		if err := validate.Registration(name, email, password, confirm); err != nil {
			m.authErr = service.Message(err)
			return m, nil
		}
		m.authErr = ""
		m.authOp = "register"
		return m, m.startLoading(registerCmd(m.ctx, m.t, name, email, password))
	}
	return m, m.register.update(msg)
}

func (m model) authDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.sync()

	if msg.err != nil {
		if m.session != nil {
			// Registered and logged in; only loading the tasks failed.
			m.dashErr = failureText(opFetch, msg.err)
			m.loadFailed = len(m.tasks) == 0
			m.clearAuthForms()
			return m, nil
		}
		m.authErr = service.Message(msg.err)
		return m, nil
	}

	m.authErr = ""
	m.clearAuthForms()
	m.resetDashboard()
	if m.authOp == "login" {
		return m, m.startLoading(fetchCmd(m.ctx, m.t))
	}
	return m, nil
}

func (m *model) clearAuthForms() {
	m.login.reset()
	m.register.reset()
	m.public = loginScreen
}

func (m *model) resetDashboard() {
	m.cursor = 0
	m.expanded = 0
	m.adding = false
	m.add.reset()
	m.dashErr = ""
	m.loadFailed = false
}

func (m model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.adding {
		return m.updateAdd(msg)
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if task, ok := m.selected(); ok {
			if m.expanded == task.ID {
				m.expanded = 0
			} else {
				m.expanded = task.ID
			}
		}
	case "a":
		m.adding = true
		m.dashErr = ""
		return m, m.add.reset()
	case "r":
		if m.loading {
			return m, nil
		}
		return m, m.startLoading(fetchCmd(m.ctx, m.t))
	case " ", "space", "x":
		if task, ok := m.selected(); ok && !m.loading {
			return m, m.startLoading(toggleCmd(m.ctx, m.t, task.ID))
		}
	case "d":
		if task, ok := m.selected(); ok && !m.loading {
			return m, m.startLoading(deleteCmd(m.ctx, m.t, task.ID))
		}
	case "L":
		if m.loading {
			return m, nil
		}
		return m, m.startLoading(logoutCmd(m.ctx, m.t))
	}
	return m, nil
}

func (m model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.adding = false
		m.dashErr = ""
		return m, nil
	case "tab", "down":
		return m, m.add.next()
	case "shift+tab", "up":
		return m, m.add.prev()
	case "enter":
		if m.loading {
			return m, nil
		}
		title := m.add.value(addTitle)
		if err := validate.TaskTitle(title); err != nil {
			m.dashErr = service.Message(err)
			return m, nil
		}
		var description *string
		if d := strings.TrimSpace(m.add.value(addDescription)); d != "" {
			description = &d
		}
		m.dashErr = ""
		return m, m.startLoading(createCmd(m.ctx, m.t, strings.TrimSpace(title), description))
	}
	return m, m.add.update(msg)
}

func (m model) taskOpDone(msg taskOpDoneMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.sync()

	if msg.err != nil {
		m.dashErr = failureText(msg.op, msg.err)
		if msg.op == opFetch {
			m.loadFailed = len(m.tasks) == 0
		}
		return m, nil
	}

	m.dashErr = ""
	m.loadFailed = false
	switch msg.op {
	case opCreate:
		m.adding = false
		m.add.reset()
		m.cursor = len(m.tasks) - 1
		m.clamp()
	case opToggle, opDelete:
		if m.expanded == msg.id {
			m.expanded = 0
		}
	}
	return m, nil
}
