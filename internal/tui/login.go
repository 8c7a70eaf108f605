package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/projectdesk/internal/logging"
	"github.com/naveenspark/projectdesk/pkg/client"
)

const (
	loginEmail = iota
	loginPassword
)

// loggedInMsg carries the result of a login attempt.
type loggedInMsg struct {
	err error
}

type loginModel struct {
	api        API
	sess       Session
	email      string
	password   string
	focus      int
	submitting bool
	err        error
	notice     string // shown above the form, e.g. after an expired session
	width      int
	height     int
	frame      int
}

func newLoginModel(api API, sess Session) loginModel {
	return loginModel{api: api, sess: sess}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loggedInMsg:
		m.submitting = false
		m.err = msg.err
		if msg.err == nil {
			m.password = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = 1 - m.focus
			return m, nil
		case "enter":
			if m.focus == loginEmail {
				m.focus = loginPassword
				return m, nil
			}
			return m.submit()
		}
		if m.focus == loginEmail {
			m.email = editRune(m.email, keyText(msg))
		} else {
			m.password = editRune(m.password, keyText(msg))
		}
		m.err = nil
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.email)
	if email == "" || m.password == "" {
		m.err = errors.New("enter your email and password")
		return m, nil
	}
	m.submitting = true
	m.err = nil
	m.notice = ""
	api, sess, password := m.api, m.sess, m.password
	return m, func() tea.Msg {
		token, err := api.Login(context.Background(), email, password)
		if err != nil {
			logging.Get().Warn("login failed", "email", email, "err", err)
			return loggedInMsg{err: err}
		}
		if sess != nil {
			if err := sess.Save(token); err != nil {
				return loggedInMsg{err: fmt.Errorf("save session: %w", err)}
			}
		}
		logging.Get().Info("logged in", "email", email)
		return loggedInMsg{}
	}
}

// loginError turns a failed login into a message for the form.
func loginError(err error) string {
	switch {
	case client.IsUnauthorized(err):
		return "invalid email or password"
	case err != nil:
		return client.Message(err)
	}
	return ""
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + sectionHeaderStyle.Render("Log in to your projects") + "\n\n")
	b.WriteString(renderField("Email", m.email, "you@example.com", m.focus == loginEmail, m.frame) + "\n")
	b.WriteString(renderField("Password", mask(m.password), "password", m.focus == loginPassword, m.frame) + "\n")
	return b.String()
}

func (m loginModel) statusLine() string {
	switch {
	case m.submitting:
		return " " + dimStyle.Render("logging in...")
	case m.err != nil:
		return " " + rejectStyle.Render(loginError(m.err))
	case m.notice != "":
		return " " + warnStyle.Render(m.notice)
	}
	return ""
}
