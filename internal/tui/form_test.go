package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/projectdesk/internal/editor"
	"github.com/naveenspark/projectdesk/pkg/domain"
)

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyAdd   = tea.KeyMsg{Type: tea.KeyCtrlA}
	keyDrop  = tea.KeyMsg{Type: tea.KeyCtrlD}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
)

func TestCreateFormStartsWithOneBlankTask(t *testing.T) {
	m := newCreateFormModel(nil)
	if m.tasks().Len() != 1 {
		t.Fatalf("expected one task row, got %d", m.tasks().Len())
	}
	if m.current().kind != fkName {
		t.Errorf("expected focus on name, got %d", m.current().kind)
	}
	for _, k := range m.helpKeys() {
		if strings.Contains(k, "remove task") {
			t.Error("remove control should be hidden with a single task")
		}
	}
}

func TestCreateProjectEndToEnd(t *testing.T) {
	a, s, _ := newBackendApp(t)
	a = press(t, a, runes("2"))
	a = press(t, a, runes("Casa nova"))
	a = press(t, a, keyTab)
	a = press(t, a, runes("reforma completa"))
	a = press(t, a, keyTab)
	a = press(t, a, runes("01310100"))
	a = press(t, a, keyTab) // leaving the CEP field validates it
	if !a.form.validator().Valid() {
		t.Fatalf("expected CEP to validate, message %q", a.form.validator().Message())
	}
	if !strings.Contains(a.View(), "São Paulo - SP") {
		t.Errorf("expected resolved address in form:\n%s", a.View())
	}
	a = press(t, a, runes("Fundação"))
	a = press(t, a, keyTab)
	a = press(t, a, keyTab)
	a = press(t, a, keyRight)

	a = press(t, a, keySave)
	if a.view != viewProjects {
		t.Fatalf("expected list after save, got view %d (status %q)", a.view, a.form.statusLine())
	}
	p, ok := s.Project(1)
	if !ok {
		t.Fatal("project was not created")
	}
	if p.Name != "Casa nova" || p.Description != "reforma completa" {
		t.Errorf("unexpected project %+v", p)
	}
	if len(p.Tasks) != 1 || p.Tasks[0].Title != "Fundação" || p.Tasks[0].Status != domain.TaskInProgress {
		t.Errorf("unexpected tasks %+v", p.Tasks)
	}
	if !strings.Contains(a.View(), "created") {
		t.Errorf("expected toast in list view:\n%s", a.View())
	}
	if !strings.Contains(a.View(), "Casa nova") {
		t.Errorf("expected the new project listed:\n%s", a.View())
	}
}

func TestCreateBlockedUntilCEPValidated(t *testing.T) {
	a, s, _ := newBackendApp(t)
	a = press(t, a, runes("2"))
	a = press(t, a, runes("Casa"))
	a = press(t, a, keySave)
	if a.view != viewForm {
		t.Fatal("save without a CEP should stay in the form")
	}
	if !strings.Contains(a.form.statusLine(), "validate the CEP") {
		t.Errorf("expected CEP hint, got %q", a.form.statusLine())
	}
	if s.Calls("POST /projects") != 0 {
		t.Error("no request should be sent before the CEP is validated")
	}
}

func TestUnknownCEPShowsError(t *testing.T) {
	a, _, _ := newBackendApp(t)
	a = press(t, a, runes("2"))
	a = press(t, a, keyTab)
	a = press(t, a, keyTab)
	a = press(t, a, runes("99999-999"))
	a = press(t, a, keyEnter)
	if a.form.validator().Valid() {
		t.Fatal("unknown CEP should not validate")
	}
	if !strings.Contains(a.View(), "invalid or unknown CEP") {
		t.Errorf("expected lookup error in view:\n%s", a.View())
	}
}

func TestEmptyCEPRejectedWithoutRequest(t *testing.T) {
	a, s, _ := newBackendApp(t)
	a = press(t, a, runes("2"))
	a = press(t, a, keyTab)
	a = press(t, a, keyTab)
	a = press(t, a, keyEnter)
	if !strings.Contains(a.View(), "enter a CEP") {
		t.Errorf("expected empty CEP message:\n%s", a.View())
	}
	if s.Calls("GET /cep/{code}") != 0 {
		t.Error("empty CEP should not be looked up")
	}
}

func TestStaleCEPResultIgnored(t *testing.T) {
	m := newCreateFormModel(nil)
	v := m.validator()
	first, _ := v.Begin("01310-100")
	second, _ := v.Begin("20040-002")

	m, _ = m.Update(cepResolvedMsg{seq: first, addr: &domain.Address{CEP: "01310-100", Localidade: "São Paulo", UF: "SP"}})
	if v.Valid() || !v.Loading() {
		t.Fatal("an older lookup must not resolve the field")
	}
	m, _ = m.Update(cepResolvedMsg{seq: second, addr: &domain.Address{CEP: "20040-002", Localidade: "Rio de Janeiro", UF: "RJ"}})
	if !v.Valid() || v.Address().UF != "RJ" {
		t.Errorf("latest lookup should win, got %+v", v.Address())
	}
}

func TestCreateAddTwoRemoveFirst(t *testing.T) {
	m := newCreateFormModel(nil)
	m.focus = 3 // first task title
	m, _ = m.Update(runes("primeira"))
	m, _ = m.Update(keyAdd)
	m, _ = m.Update(runes("segunda"))
	if m.tasks().Len() != 2 {
		t.Fatalf("expected 2 tasks, got %d", m.tasks().Len())
	}

	m.focus = 3
	m, _ = m.Update(keyDrop)
	tasks := m.tasks().Tasks()
	if len(tasks) != 1 || tasks[0].Title != "segunda" {
		t.Fatalf("expected only the second task left, got %+v", tasks)
	}

	m, _ = m.Update(keyDrop)
	if m.tasks().Len() != 1 {
		t.Error("the last task must not be removed")
	}
	if m.err != editor.ErrLastTask {
		t.Errorf("expected ErrLastTask, got %v", m.err)
	}
}

func TestEditRemovalNeedsConfirmation(t *testing.T) {
	a, s, _ := newBackendApp(t)
	p := s.AddProject(domain.Project{
		Name:    "Reforma",
		Status:  domain.ProjectPlanned,
		Address: &domain.Address{CEP: "01310-100", Localidade: "São Paulo", UF: "SP"},
		Tasks:   []domain.Task{{Title: "Pintura"}, {Title: "Piso"}},
		UserID:  1,
	})
	a = drain(t, a, a.list.Init())

	a = press(t, a, runes("e"))
	if a.view != viewForm || !a.form.editing() {
		t.Fatalf("expected edit form, got view %d", a.view)
	}
	if !a.form.validator().Valid() {
		t.Error("stored address should count as validated")
	}

	a.form.focus = 4 // name, description, status, cep, then the first task title
	a = press(t, a, keyDrop)
	if _, pending := a.form.tasks().Pending(); !pending {
		t.Fatal("expected a pending removal")
	}
	if !strings.Contains(a.View(), `Remove task "Pintura"?`) {
		t.Errorf("expected removal prompt:\n%s", a.View())
	}

	a = press(t, a, runes("n"))
	if a.form.tasks().Len() != 2 {
		t.Fatal("cancel should keep the task")
	}

	a = press(t, a, keyDrop)
	a = press(t, a, runes("y"))
	if a.form.tasks().Len() != 1 {
		t.Fatalf("expected 1 task after confirm, got %d", a.form.tasks().Len())
	}

	a = press(t, a, keySave)
	if a.view != viewProjects {
		t.Fatalf("expected list after save, status %q", a.form.statusLine())
	}
	got, _ := s.Project(p.ID)
	if len(got.Tasks) != 1 || got.Tasks[0].Title != "Piso" {
		t.Errorf("expected only Piso left, got %+v", got.Tasks)
	}
}

func TestEditStatusCycles(t *testing.T) {
	a, s, _ := newBackendApp(t)
	p := s.AddProject(domain.Project{
		Name:    "Reforma",
		Status:  domain.ProjectPlanned,
		Address: &domain.Address{CEP: "01310-100", UF: "SP"},
		Tasks:   []domain.Task{{Title: "Pintura"}},
		UserID:  1,
	})
	a = drain(t, a, a.list.Init())
	a = press(t, a, runes("e"))
	a.form.focus = 2
	a = press(t, a, keyRight)
	a = press(t, a, keyRight)
	if a.form.edit.Status != domain.ProjectDone {
		t.Fatalf("expected %q, got %q", domain.ProjectDone, a.form.edit.Status)
	}
	a = press(t, a, keySave)
	got, _ := s.Project(p.ID)
	if got.Status != domain.ProjectDone {
		t.Errorf("expected saved status %q, got %q", domain.ProjectDone, got.Status)
	}
}

func TestFormEscCloses(t *testing.T) {
	m := newCreateFormModel(nil)
	m, _ = m.Update(keyEsc)
	if !m.closed {
		t.Error("expected esc to close the form")
	}
}

func TestClosedFormIgnoresKeys(t *testing.T) {
	var m formModel
	m, cmd := m.Update(runes("x"))
	if cmd != nil || m.open() {
		t.Error("a form that was never opened should ignore keys")
	}
	if m.View() != "" {
		t.Error("a form that was never opened renders nothing")
	}
}
