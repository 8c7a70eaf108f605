package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/projectdesk/internal/address"
	"github.com/naveenspark/projectdesk/internal/editor"
	"github.com/naveenspark/projectdesk/internal/workflow"
	"github.com/naveenspark/projectdesk/pkg/client"
	"github.com/naveenspark/projectdesk/pkg/domain"
)

type fieldKind int

const (
	fkName fieldKind = iota
	fkDescription
	fkStatus
	fkCEP
	fkTaskTitle
	fkTaskDescription
	fkTaskStatus
)

// target is one focusable input. row is the task index for task fields.
type target struct {
	kind fieldKind
	row  int
}

// cepResolvedMsg carries a postal code lookup started with sequence seq.
type cepResolvedMsg struct {
	seq  uint64
	addr *domain.Address
	err  error
}

func (m cepResolvedMsg) failed() error { return m.err }

// formSavedMsg carries the outcome of a create or update.
type formSavedMsg struct {
	project *domain.Project
	created bool
	err     error
}

func (m formSavedMsg) failed() error { return m.err }

func (m formSavedMsg) toast() string {
	name := ""
	if m.project != nil {
		name = m.project.Name
	}
	if m.created {
		return fmt.Sprintf("project %q created", name)
	}
	return fmt.Sprintf("project %q saved", name)
}

// formModel drives either a CreateForm or an EditForm. Exactly one of
// create and edit is set once the form is open.
type formModel struct {
	api        API
	create     *workflow.CreateForm
	edit       *workflow.EditForm
	focus      int
	submitting bool
	closed     bool
	err        error
	width      int
	height     int
	frame      int
}

func newCreateFormModel(api API) formModel {
	f := workflow.NewCreateForm()
	f.Tasks = editor.NewWithTask()
	return formModel{api: api, create: f}
}

func newEditFormModel(api API, f *workflow.EditForm) formModel {
	return formModel{api: api, edit: f}
}

func (m formModel) open() bool { return m.create != nil || m.edit != nil }

func (m formModel) editing() bool { return m.edit != nil }

func (m formModel) validator() *address.Validator {
	if m.edit != nil {
		return m.edit.Address
	}
	return m.create.Address
}

func (m formModel) tasks() *editor.Editor {
	if m.edit != nil {
		return m.edit.Tasks
	}
	return m.create.Tasks
}

// targets lists the focusable inputs top to bottom.
func (m formModel) targets() []target {
	ts := []target{{kind: fkName}, {kind: fkDescription}}
	if m.editing() {
		ts = append(ts, target{kind: fkStatus})
	}
	ts = append(ts, target{kind: fkCEP})
	for i := 0; i < m.tasks().Len(); i++ {
		ts = append(ts,
			target{kind: fkTaskTitle, row: i},
			target{kind: fkTaskDescription, row: i},
			target{kind: fkTaskStatus, row: i})
	}
	return ts
}

func (m formModel) current() target {
	ts := m.targets()
	if m.focus < 0 || m.focus >= len(ts) {
		return ts[0]
	}
	return ts[m.focus]
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case cepResolvedMsg:
		if m.open() {
			m.validator().Resolve(msg.seq, msg.addr, msg.err)
		}
		return m, nil

	case formSavedMsg:
		m.submitting = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if !m.open() || m.submitting {
			return m, nil
		}
		if _, pending := m.tasks().Pending(); pending {
			return m.handleKeyRemoval(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m formModel) handleKeyRemoval(msg tea.KeyMsg) (formModel, tea.Cmd) {
	switch msg.String() {
	case "y":
		if err := m.tasks().ConfirmRemoval(); err != nil {
			m.err = err
		}
		m.clampFocus()
	case "n", "esc":
		m.tasks().CancelRemoval() //nolint:errcheck // a removal is pending
	}
	return m, nil
}

func (m formModel) handleKey(msg tea.KeyMsg) (formModel, tea.Cmd) {
	cur := m.current()
	switch msg.String() {
	case "esc":
		m.closed = true
		return m, nil
	case "ctrl+s":
		return m.submit()
	case "tab", "down":
		return m.move(1)
	case "shift+tab", "up":
		return m.move(-1)
	case "enter":
		if cur.kind == fkCEP {
			return m, m.lookup()
		}
		return m.move(1)
	case "left", "right":
		step := 1
		if msg.String() == "left" {
			step = -1
		}
		m.cycleStatus(cur, step)
		return m, nil
	case "ctrl+a":
		m.tasks().Add()
		ts := m.targets()
		m.focus = len(ts) - 3
		return m, nil
	case "ctrl+d":
		return m.removeTask(cur)
	}

	key := keyText(msg)
	switch cur.kind {
	case fkName:
		m.setName(editRune(m.name(), key))
	case fkDescription:
		m.setDescription(editRune(m.description(), key))
	case fkCEP:
		v := m.validator()
		v.SetCEP(editRune(v.CEP(), key))
	case fkTaskTitle, fkTaskDescription:
		row, err := m.tasks().Row(cur.row)
		if err != nil {
			return m, nil
		}
		field, text := editor.FieldTitle, row.Task.Title
		if cur.kind == fkTaskDescription {
			field, text = editor.FieldDescription, row.Task.Description
		}
		if err := m.tasks().Update(cur.row, field, editRune(text, key)); err != nil {
			m.err = err
		}
	}
	return m, nil
}

// move shifts focus by delta. Leaving the postal code field re-validates it
// when the code changed since the last lookup.
func (m formModel) move(delta int) (formModel, tea.Cmd) {
	leaving := m.current()
	n := len(m.targets())
	m.focus = (m.focus + delta + n) % n
	if leaving.kind == fkCEP && m.validator().NeedsLookup() {
		return m, m.lookup()
	}
	return m, nil
}

// lookup starts a postal code lookup for the field's current value.
func (m formModel) lookup() tea.Cmd {
	v := m.validator()
	seq, err := v.Begin(v.CEP())
	if err != nil {
		return nil
	}
	api, cep := m.api, v.Normalized()
	return func() tea.Msg {
		addr, err := api.LookupCEP(context.Background(), cep)
		return cepResolvedMsg{seq: seq, addr: addr, err: err}
	}
}

func (m formModel) cycleStatus(cur target, step int) {
	switch cur.kind {
	case fkStatus:
		m.edit.Status = domain.NextStatus(domain.ProjectStatuses, m.edit.Status, step)
	case fkTaskStatus:
		row, err := m.tasks().Row(cur.row)
		if err != nil {
			return
		}
		next := domain.NextStatus(domain.TaskStatuses, row.Task.Status, step)
		m.tasks().Update(cur.row, editor.FieldStatus, next) //nolint:errcheck // next is a known status
	}
}

// removeTask drops the focused task. On a saved project the removal waits
// for y/n confirmation.
func (m formModel) removeTask(cur target) (formModel, tea.Cmd) {
	switch cur.kind {
	case fkTaskTitle, fkTaskDescription, fkTaskStatus:
	default:
		return m, nil
	}
	if !m.tasks().CanRemove() {
		m.err = editor.ErrLastTask
		return m, nil
	}
	if m.editing() {
		row, err := m.tasks().Row(cur.row)
		if err == nil {
			err = m.tasks().RequestRemoval(row.Key)
		}
		m.err = err
		return m, nil
	}
	if err := m.tasks().Remove(cur.row); err != nil {
		m.err = err
	}
	m.clampFocus()
	return m, nil
}

func (m *formModel) clampFocus() {
	if n := len(m.targets()); m.focus >= n {
		m.focus = n - 1
	}
}

func (m formModel) submit() (formModel, tea.Cmd) {
	api := m.api
	var err error
	var cmd tea.Cmd
	if m.editing() {
		if _, err = m.edit.Request(); err == nil {
			f := m.edit
			cmd = func() tea.Msg {
				p, err := f.Submit(context.Background(), api)
				return formSavedMsg{project: p, err: err}
			}
		}
	} else {
		if _, err = m.create.Request(); err == nil {
			f := m.create
			cmd = func() tea.Msg {
				p, err := f.Submit(context.Background(), api)
				return formSavedMsg{project: p, created: true, err: err}
			}
		}
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.submitting = true
	return m, cmd
}

func (m formModel) name() string {
	if m.editing() {
		return m.edit.Name
	}
	return m.create.Name
}

func (m formModel) setName(s string) {
	if m.editing() {
		m.edit.Name = s
	} else {
		m.create.Name = s
	}
}

func (m formModel) description() string {
	if m.editing() {
		return m.edit.Description
	}
	return m.create.Description
}

func (m formModel) setDescription(s string) {
	if m.editing() {
		m.edit.Description = s
	} else {
		m.create.Description = s
	}
}

func (m formModel) View() string {
	if !m.open() {
		return ""
	}
	cur := m.current()
	focused := func(kind fieldKind, row int) bool {
		return cur.kind == kind && cur.row == row
	}

	var b strings.Builder
	title := "New project"
	if m.editing() {
		title = fmt.Sprintf("Edit project #%d", m.edit.ID)
	}
	b.WriteString(" " + sectionHeaderStyle.Render(title) + "\n\n")
	b.WriteString(renderField("Name", m.name(), "project name", focused(fkName, 0), m.frame) + "\n")
	b.WriteString(renderField("Description", m.description(), "what is it about", focused(fkDescription, 0), m.frame) + "\n")
	if m.editing() {
		b.WriteString(renderStatus("Status", m.edit.Status, focused(fkStatus, 0)) + "\n")
	}
	v := m.validator()
	b.WriteString(renderField("CEP", v.CEP(), "00000-000", focused(fkCEP, 0), m.frame) + "  " + cepState(v) + "\n")

	tasks := m.tasks()
	b.WriteString("\n " + sectionHeaderStyle.Render(fmt.Sprintf("Tasks (%d)", tasks.Len())) + "\n")
	if tasks.Len() == 0 {
		b.WriteString("  " + dimStyle.Render("No tasks. ctrl+a adds one.") + "\n")
	}
	pendingKey, pending := tasks.Pending()
	for i, row := range tasks.Rows() {
		marker := metaStyle.Render(fmt.Sprintf("  %d.", i+1))
		if row.Task.Persisted() {
			marker += metaStyle.Render(fmt.Sprintf(" #%d", row.Task.ID))
		}
		b.WriteString(marker + "\n")
		b.WriteString("  " + renderField("Title", row.Task.Title, "task title", focused(fkTaskTitle, i), m.frame) + "\n")
		b.WriteString("  " + renderField("Description", row.Task.Description, "optional", focused(fkTaskDescription, i), m.frame) + "\n")
		b.WriteString("  " + renderStatus("Status", row.Task.Status, focused(fkTaskStatus, i)) + "\n")
		if pending && row.Key == pendingKey {
			b.WriteString("    " + warnStyle.Render(fmt.Sprintf("Remove task %q?", orNA(row.Task.Title))) + "  " +
				helpEntry("y", "remove") + "  " + helpEntry("n", "keep") + "\n")
		}
	}
	return truncateToHeight(m.scrolled(b.String()), m.height)
}

// scrolled drops leading lines so the focused input stays on screen.
func (m formModel) scrolled(s string) string {
	if m.height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	at := 0
	for i, l := range lines {
		if strings.Contains(l, "> ") {
			at = i
		}
	}
	if at < m.height-2 {
		return s
	}
	start := at - m.height + 3
	return strings.Join(lines[start:], "\n")
}

func renderStatus(label, status string, focused bool) string {
	prefix := "  "
	lbl := dimStyle.Render(label + ":")
	hint := ""
	if focused {
		prefix = accentStyle.Render("> ")
		lbl = inputPromptStyle.Render(label + ":")
		hint = " " + metaStyle.Render("←/→")
	}
	return prefix + lbl + " " + StatusBadge(status) + hint
}

func cepState(v *address.Validator) string {
	switch {
	case v.Loading():
		return dimStyle.Render("checking...")
	case v.Valid():
		return successStyle.Render("✓ " + v.Address().Summary())
	case v.Err() != nil:
		return rejectStyle.Render(v.Message())
	}
	return ""
}

func (m formModel) statusLine() string {
	switch {
	case m.submitting:
		return " " + dimStyle.Render("saving...")
	case m.err != nil:
		var verr *workflow.ValidationError
		if errors.As(m.err, &verr) {
			return " " + warnStyle.Render(verr.Message)
		}
		return " " + rejectStyle.Render(client.Message(m.err))
	}
	return ""
}

func (m formModel) helpKeys() []string {
	if !m.open() {
		return []string{helpEntry("esc", "cancel")}
	}
	if _, pending := m.tasks().Pending(); pending {
		return []string{helpEntry("y", "remove task"), helpEntry("n", "keep")}
	}
	keys := []string{helpEntry("tab", "next"), helpEntry("←/→", "status"), helpEntry("ctrl+a", "add task")}
	if m.tasks().CanRemove() {
		keys = append(keys, helpEntry("ctrl+d", "remove task"))
	}
	return append(keys, helpEntry("ctrl+s", "save"), helpEntry("esc", "cancel"))
}
