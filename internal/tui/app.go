package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/projectdesk/internal/browser"
	"github.com/naveenspark/projectdesk/internal/logging"
	"github.com/naveenspark/projectdesk/internal/workflow"
	"github.com/naveenspark/projectdesk/pkg/client"
)

type view int

const (
	viewLogin view = iota
	viewProjects
	viewForm
	viewReports
)

// API is everything the screens call on the backend.
type API interface {
	workflow.API
	Login(ctx context.Context, email, password string) (string, error)
}

// Session persists the token between runs.
type Session interface {
	Save(token string) error
	Clear() error
	LoggedIn() bool
}

// Config wires the App to its collaborators. Session may be nil when the
// token is managed elsewhere; the App then starts logged in. Geocoder may be
// nil, in which case the address view shows the default map center.
type Config struct {
	API      API
	Session  Session
	Geocoder workflow.Geocoder
	PerPage  int
	MapZoom  int
	TileURL  string
	Version  string

	// OpenURL and Copy default to the system browser and clipboard.
	OpenURL func(url string) error
	Copy    func(text string) error
}

// failure is implemented by result messages that carry a request error.
// The App uses it to route expired sessions back to the login screen.
type failure interface {
	failed() error
}

// App is the root Bubbletea model.
type App struct {
	cfg        Config
	view       view
	login      loginModel
	list       listModel
	form       formModel
	report     reportModel
	helpOpen   bool
	helpCursor int
	update     string // newer release tag, if any
	width      int
	height     int
	frame      int // logo shimmer animation frame
}

// NewApp creates a new TUI application.
func NewApp(cfg Config) App {
	if cfg.OpenURL == nil {
		cfg.OpenURL = browser.Open
	}
	if cfg.Copy == nil {
		cfg.Copy = clipboard.WriteAll
	}
	a := App{cfg: cfg, view: viewProjects}
	a.login = newLoginModel(cfg.API, cfg.Session)
	a.list = newListModel(cfg)
	a.report = newReportModel(cfg.API)
	if cfg.Session != nil && !cfg.Session.LoggedIn() {
		a.view = viewLogin
	}
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{shimmerTickCmd(), checkVersion(a.cfg.Version)}
	if a.view == viewProjects {
		cmds = append(cmds, a.list.Init())
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if f, ok := msg.(failure); ok && a.view != viewLogin && client.IsUnauthorized(f.failed()) {
		return a.expire("session expired, log in again")
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + status(1) + help(1) = 5 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5}
		a.login, _ = a.login.Update(bodyMsg)
		a.list, _ = a.list.Update(bodyMsg)
		a.form, _ = a.form.Update(bodyMsg)
		a.report, _ = a.report.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		a.login.frame, a.form.frame, a.report.frame = a.frame, a.frame, a.frame
		return a, shimmerTickCmd()

	case releaseMsg:
		if msg.tag != "" {
			a.update = msg.tag
		}
		return a, nil

	case loggedInMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		if msg.err != nil {
			return a, cmd
		}
		a.list = newListModel(a.cfg)
		a.list.width, a.list.height = a.width, a.height-5
		a.view = viewProjects
		return a, a.list.Init()

	case editLoadedMsg:
		if msg.err != nil {
			var cmd tea.Cmd
			a.list, cmd = a.list.Update(msg)
			return a, cmd
		}
		a.form = newEditFormModel(a.cfg.API, msg.form)
		a.form.width, a.form.height = a.width, a.height-5
		a.view = viewForm
		return a, nil

	case formSavedMsg:
		if msg.err != nil {
			var cmd tea.Cmd
			a.form, cmd = a.form.Update(msg)
			return a, cmd
		}
		a.view = viewProjects
		a.list.toast = msg.toast()
		return a, a.list.reload()

	// Results go to the screen that asked for them, whichever is showing.
	case projectsLoadedMsg, projectDeletedMsg, addressDetailMsg, copyMsg:
		var cmd tea.Cmd
		a.list, cmd = a.list.Update(msg)
		return a, cmd
	case cepResolvedMsg:
		var cmd tea.Cmd
		a.form, cmd = a.form.Update(msg)
		return a, cmd
	case reportLoadedMsg:
		var cmd tea.Cmd
		a.report, cmd = a.report.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		// Help overlay captures all keys when open
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc":
				a.helpOpen = false
			case "q", "ctrl+c":
				return a, tea.Quit
			case "j", "down":
				if a.helpCursor < len(helpItems)-1 {
					a.helpCursor++
				}
			case "k", "up":
				if a.helpCursor > 0 {
					a.helpCursor--
				}
			case "enter":
				item := helpItems[a.helpCursor]
				if item.url != "" {
					a.cfg.OpenURL(item.url) //nolint:errcheck // best-effort browser open
				}
			}
			return a, nil
		}

		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Global keys (only when not editing)
		if !a.isEditing() {
			switch msg.String() {
			case "h":
				a.helpOpen = true
				a.helpCursor = 0
				return a, nil
			case "q":
				return a, tea.Quit
			case "1":
				if a.view != viewProjects {
					a.view = viewProjects
					return a, a.list.reload()
				}
				return a, nil
			case "2", "n":
				return a.openCreate()
			case "3":
				if a.view != viewReports {
					a.view = viewReports
					a.report.loading = true
					return a, a.report.Init()
				}
				return a, nil
			case "L":
				return a.logout()
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewProjects:
		a.list, cmd = a.list.Update(msg)
	case viewForm:
		a.form, cmd = a.form.Update(msg)
		if a.form.closed {
			a.view = viewProjects
			return a, a.list.reload()
		}
	case viewReports:
		a.report, cmd = a.report.Update(msg)
	}
	return a, cmd
}

// openCreate shows a fresh create form.
func (a App) openCreate() (tea.Model, tea.Cmd) {
	a.form = newCreateFormModel(a.cfg.API)
	a.form.width, a.form.height = a.width, a.height-5
	a.view = viewForm
	return a, nil
}

// logout drops the stored token and shows the login screen.
func (a App) logout() (tea.Model, tea.Cmd) {
	return a.expire("logged out")
}

func (a App) expire(notice string) (tea.Model, tea.Cmd) {
	if a.cfg.Session != nil {
		if err := a.cfg.Session.Clear(); err != nil {
			logging.Get().Warn("clear session failed", "err", err)
		}
	}
	a.login = newLoginModel(a.cfg.API, a.cfg.Session)
	a.login.notice = notice
	a.login.width, a.login.height = a.width, a.height-5
	a.view = viewLogin
	a.helpOpen = false
	return a, nil
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin, viewForm:
		return true
	case viewProjects:
		return a.list.state == lsConfirmDelete
	case viewReports:
		return a.report.editing
	}
	return false
}

func (a App) View() string {
	// Header: centered shimmer logo
	logo := renderShimmerLogo(a.frame)

	var parts []string
	if me := a.list.list.Me(); me != nil && a.view != viewLogin {
		parts = append(parts, "welcome, "+me.Name)
	}
	if a.update != "" {
		parts = append(parts, warnStyle.Render(a.update+" available"))
	}
	statsLine := metaStyle.Render(strings.Join(parts, " . "))

	header := center(logo, a.width) + "\n"
	if len(parts) > 0 {
		header += center(statsLine, a.width)
	}

	// Tab bar: 1 Projects  2 New  3 Reports
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Projects", viewProjects},
		{"2", "New", viewForm},
		{"3", "Reports", viewReports},
	}
	var tabBar string
	if a.view != viewLogin {
		colWidth := a.width / len(tabs)
		var b strings.Builder
		for _, t := range tabs {
			name := t.name
			if t.v == viewForm && a.view == viewForm && a.form.editing() {
				name = "Edit"
			}
			var label string
			if t.v == a.view {
				label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(name)
			} else {
				label = metaStyle.Render(t.key) + " " + dimStyle.Render(name)
			}
			labelWidth := lipgloss.Width(label)
			leftPad := max((colWidth-labelWidth)/2, 0)
			rightPad := max(colWidth-labelWidth-leftPad, 0)
			b.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
		}
		tabBar = b.String()
	}

	var body, status, help string
	switch a.view {
	case viewLogin:
		body = a.login.View()
		status = a.login.statusLine()
		help = helpBar(helpEntry("tab", "next"), helpEntry("enter", "log in"), helpEntry("ctrl+c", "quit"))
	case viewProjects:
		body = a.list.View()
		status = a.list.statusLine()
		help = helpBar(append([]string{helpEntry("1-3", "tabs")}, a.list.helpKeys()...)...)
	case viewForm:
		body = a.form.View()
		status = a.form.statusLine()
		help = helpBar(a.form.helpKeys()...)
	case viewReports:
		body = a.report.View()
		status = a.report.statusLine()
		help = helpBar(append([]string{helpEntry("1-3", "tabs")}, a.report.helpKeys()...)...)
	}

	if a.helpOpen {
		body = helpView(a.helpCursor)
		status = ""
		help = helpBar(helpEntry("j/k", "nav"), helpEntry("enter", "open"), helpEntry("esc", "close"))
	}

	// Chrome budget: header(2) + tabs(1) + status(1) + help(1) = 5 lines + body
	chrome := 5
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar, body, status, help)
}

// center pads s with spaces so it sits in the middle of width columns.
func center(s string, width int) string {
	pad := max((width-lipgloss.Width(s))/2, 0)
	return strings.Repeat(" ", pad) + s
}
