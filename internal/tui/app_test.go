package tui

import (
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/projectdesk/internal/fakeapi"
	"github.com/naveenspark/projectdesk/pkg/client"
	"github.com/naveenspark/projectdesk/pkg/domain"
)

// memSession is an in-memory Session that also feeds the client its token.
type memSession struct {
	token   string
	cleared int
}

func (s *memSession) Token() string        { return s.token }
func (s *memSession) Save(tok string) error { s.token = tok; return nil }
func (s *memSession) Clear() error          { s.token = ""; s.cleared++; return nil }
func (s *memSession) LoggedIn() bool        { return s.token != "" }

// testBackend starts a fake API with two users and one known CEP.
func testBackend(t *testing.T) *fakeapi.Server {
	t.Helper()
	s := fakeapi.New()
	s.AddUser(1, "Ana", "ana@example.com", "secret")
	s.AddUser(2, "Bruno", "bruno@example.com", "secret")
	s.AddCEP(domain.Address{CEP: "01310-100", Logradouro: "Avenida Paulista", Localidade: "São Paulo", Estado: "São Paulo", UF: "SP"})
	return s
}

// newBackendApp returns an App logged in as user 1 against a fake API.
func newBackendApp(t *testing.T) (App, *fakeapi.Server, *memSession) {
	t.Helper()
	s := testBackend(t)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	sess := &memSession{token: s.IssueToken(1)}
	a := NewApp(Config{
		API:     client.New(srv.URL, sess),
		Session: sess,
		PerPage: 5,
		MapZoom: 13,
		OpenURL: func(string) error { return nil },
		Copy:    func(string) error { return nil },
	})
	a.width = 100
	a.height = 40
	return a, s, sess
}

func newTestApp() App {
	a := NewApp(Config{})
	a.width = 80
	a.height = 30
	return a
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends one key and runs every command it triggers, feeding the
// results back, until the App goes idle.
func press(t *testing.T, a App, k tea.KeyMsg) App {
	t.Helper()
	model, cmd := a.Update(k)
	return drain(t, model.(App), cmd)
}

func drain(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		if i > 20 {
			t.Fatal("command chain did not settle")
		}
		var model tea.Model
		model, cmd = a.Update(cmd())
		a = model.(App)
	}
	return a
}

func TestAppTabSwitching(t *testing.T) {
	tests := []struct {
		key      string
		wantView view
	}{
		{"1", viewProjects},
		{"2", viewForm},
		{"3", viewReports},
		{"n", viewForm},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			app := newTestApp()
			model, _ := app.Update(runes(tc.key))
			a := model.(App)
			if a.view != tc.wantView {
				t.Errorf("after key %q: expected view=%d, got %d", tc.key, tc.wantView, a.view)
			}
		})
	}
}

func TestAppStartsOnLoginWithoutSession(t *testing.T) {
	a := NewApp(Config{Session: &memSession{}})
	if a.view != viewLogin {
		t.Errorf("expected viewLogin without a token, got %d", a.view)
	}
	a = NewApp(Config{Session: &memSession{token: "tok"}})
	if a.view != viewProjects {
		t.Errorf("expected viewProjects with a token, got %d", a.view)
	}
}

func TestAppGlobalQuitOnQ(t *testing.T) {
	a := newTestApp()
	_, cmd := a.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command on 'q', got nil")
	}
}

func TestAppQDoesNotQuitWhileTyping(t *testing.T) {
	a := newTestApp()
	model, _ := a.Update(runes("2"))
	a = model.(App)
	model, cmd := a.Update(runes("q"))
	a = model.(App)
	if cmd != nil {
		t.Fatal("'q' in a form field should not quit")
	}
	if a.form.create.Name != "q" {
		t.Errorf("expected 'q' typed into the name, got %q", a.form.create.Name)
	}
}

func TestAppEscFromFormReturnsToProjects(t *testing.T) {
	a := newTestApp()
	model, _ := a.Update(runes("2"))
	a = model.(App)
	if a.view != viewForm {
		t.Fatalf("expected viewForm after '2', got %d", a.view)
	}

	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	a = model.(App)
	if a.view != viewProjects {
		t.Errorf("expected viewProjects after Esc from the form, got %d", a.view)
	}
}

func TestAppIsEditing(t *testing.T) {
	a := newTestApp()
	if a.isEditing() {
		t.Error("project list should not capture global keys")
	}
	a.view = viewLogin
	if !a.isEditing() {
		t.Error("expected isEditing=true on the login screen")
	}
	a.view = viewForm
	if !a.isEditing() {
		t.Error("expected isEditing=true in the form")
	}
	a.view = viewProjects
	a.list.state = lsConfirmDelete
	if !a.isEditing() {
		t.Error("expected isEditing=true while a delete awaits confirmation")
	}
	a.list.state = lsNormal
	a.view = viewReports
	a.report.editing = true
	if !a.isEditing() {
		t.Error("expected isEditing=true while editing report filters")
	}
}

func TestAppHelpOverlayOpenAndClose(t *testing.T) {
	a := newTestApp()
	model, _ := a.Update(runes("h"))
	a = model.(App)
	if !a.helpOpen {
		t.Fatal("expected helpOpen=true after 'h'")
	}
	if !strings.Contains(a.View(), "Links") {
		t.Error("help overlay should be rendered")
	}
	model, _ = a.Update(runes("j"))
	a = model.(App)
	if a.helpCursor != 1 {
		t.Errorf("expected helpCursor=1, got %d", a.helpCursor)
	}
	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	a = model.(App)
	if a.helpOpen {
		t.Error("expected helpOpen=false after Esc")
	}
}

func TestAppLoginFlow(t *testing.T) {
	a, s, sess := newBackendApp(t)
	sess.token = ""
	a = NewApp(a.cfg)
	a.width, a.height = 100, 40
	if a.view != viewLogin {
		t.Fatalf("expected viewLogin, got %d", a.view)
	}

	a = press(t, a, runes("ana@example.com"))
	a = press(t, a, tea.KeyMsg{Type: tea.KeyTab})
	a = press(t, a, runes("wrong"))
	a = press(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.view != viewLogin {
		t.Fatalf("bad password should stay on login, got view %d", a.view)
	}
	if !strings.Contains(a.View(), "invalid email or password") {
		t.Errorf("expected credential error in view:\n%s", a.View())
	}

	for range "wrong" {
		a = press(t, a, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	a = press(t, a, runes("secret"))
	a = press(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.view != viewProjects {
		t.Fatalf("expected viewProjects after login, got %d", a.view)
	}
	if !sess.LoggedIn() {
		t.Error("token should be saved after login")
	}
	if s.Calls("GET /projects") != 1 {
		t.Errorf("expected the list to load once, got %d", s.Calls("GET /projects"))
	}
	if !strings.Contains(a.View(), "welcome, Ana") {
		t.Errorf("expected welcome line:\n%s", a.View())
	}
}

func TestAppPasswordIsMasked(t *testing.T) {
	a := NewApp(Config{Session: &memSession{}})
	a.width, a.height = 80, 30
	a = press(t, a, tea.KeyMsg{Type: tea.KeyTab})
	a = press(t, a, runes("hunter2"))
	if strings.Contains(a.View(), "hunter2") {
		t.Error("password must not be rendered")
	}
}

func TestAppUnauthorizedRoutesToLogin(t *testing.T) {
	sess := &memSession{token: "tok"}
	a := NewApp(Config{Session: sess})
	a.width, a.height = 80, 30

	model, _ := a.Update(projectsLoadedMsg{page: 1, err: &client.HTTPError{StatusCode: 401, Message: "Unauthenticated."}})
	a = model.(App)
	if a.view != viewLogin {
		t.Fatalf("expected viewLogin after 401, got %d", a.view)
	}
	if sess.cleared != 1 {
		t.Errorf("expected the session to be cleared once, got %d", sess.cleared)
	}
	if !strings.Contains(a.View(), "session expired") {
		t.Errorf("expected expiry notice:\n%s", a.View())
	}
}

func TestAppRevokedTokenDuringUseRoutesToLogin(t *testing.T) {
	a, s, sess := newBackendApp(t)
	a = drain(t, a, a.list.Init())
	s.RevokeAll()

	a = press(t, a, runes("r"))
	if a.view != viewLogin {
		t.Fatalf("expected viewLogin after revoked token, got %d", a.view)
	}
	if sess.LoggedIn() {
		t.Error("session should be cleared")
	}
}

func TestAppLogout(t *testing.T) {
	sess := &memSession{token: "tok"}
	a := NewApp(Config{Session: sess})
	model, _ := a.Update(runes("L"))
	a = model.(App)
	if a.view != viewLogin || sess.LoggedIn() {
		t.Errorf("expected logout to clear the session and show login, view=%d", a.view)
	}
}

func TestAppFormSavedSwitchesToListWithToast(t *testing.T) {
	a := newTestApp()
	model, _ := a.Update(runes("2"))
	a = model.(App)

	model, cmd := a.Update(formSavedMsg{project: &domain.Project{ID: 7, Name: "Casa"}, created: true})
	a = model.(App)
	if a.view != viewProjects {
		t.Errorf("expected viewProjects after save, got %d", a.view)
	}
	if cmd == nil {
		t.Error("expected a list reload after save")
	}
	if !strings.Contains(a.list.toast, "created") {
		t.Errorf("expected created toast, got %q", a.list.toast)
	}
}

func TestAppVersionNotice(t *testing.T) {
	a := newTestApp()
	model, _ := a.Update(releaseMsg{tag: "v1.2.0"})
	a = model.(App)
	if !strings.Contains(a.View(), "v1.2.0 available") {
		t.Errorf("expected update notice in header:\n%s", a.View())
	}
}

func TestAppViewFitsHeight(t *testing.T) {
	a, _, _ := newBackendApp(t)
	a.height = 12
	model, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 12})
	a = model.(App)
	a = press(t, a, runes("2"))
	if n := strings.Count(a.View(), "\n") + 1; n > 12 {
		t.Errorf("view has %d lines, want <= 12", n)
	}
}
