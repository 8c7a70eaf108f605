package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/projectdesk/internal/geocode"
	"github.com/naveenspark/projectdesk/internal/workflow"
	"github.com/naveenspark/projectdesk/pkg/client"
	"github.com/naveenspark/projectdesk/pkg/domain"
)

type listState int

const (
	lsNormal listState = iota
	lsConfirmDelete
	lsAddress
	lsTasks
)

// projectsLoadedMsg carries one fetched page. me is nil when the user was
// already known.
type projectsLoadedMsg struct {
	page int
	me   *domain.User
	data *domain.Page
	err  error
}

func (m projectsLoadedMsg) failed() error { return m.err }

type projectDeletedMsg struct {
	id  int64
	err error
}

func (m projectDeletedMsg) failed() error { return m.err }

type addressDetailMsg struct {
	detail workflow.AddressDetail
}

// editLoadedMsg carries a freshly fetched project ready for editing.
type editLoadedMsg struct {
	form *workflow.EditForm
	err  error
}

func (m editLoadedMsg) failed() error { return m.err }

type copyMsg struct {
	err error
}

type listModel struct {
	api      API
	geo      workflow.Geocoder
	tileURL  string
	openURL  func(string) error
	copy     func(string) error
	list     *workflow.ProjectList
	cursor   int
	state    listState
	loading  bool
	err      error
	toast    string
	detail   workflow.AddressDetail
	locating bool
	tasksOf  domain.Project
	width    int
	height   int
}

func newListModel(cfg Config) listModel {
	return listModel{
		api:     cfg.API,
		geo:     cfg.Geocoder,
		tileURL: cfg.TileURL,
		openURL: cfg.OpenURL,
		copy:    cfg.Copy,
		list:    workflow.NewProjectList(cfg.PerPage, cfg.MapZoom),
	}
}

func (m listModel) Init() tea.Cmd {
	return m.reload()
}

// reload fetches the current page again.
func (m listModel) reload() tea.Cmd {
	return m.fetch(m.list.Page())
}

func (m listModel) fetch(page int) tea.Cmd {
	api, perPage, known := m.api, m.list.PerPage, m.list.Me() != nil
	return func() tea.Msg {
		ctx := context.Background()
		msg := projectsLoadedMsg{page: page}
		if !known {
			me, err := api.GetMe(ctx)
			if err != nil {
				msg.err = err
				return msg
			}
			msg.me = me
		}
		msg.data, msg.err = api.ListProjects(ctx, page, perPage)
		return msg
	}
}

func (m listModel) Update(msg tea.Msg) (listModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case projectsLoadedMsg:
		m.loading = false
		if msg.me != nil {
			m.list.SetMe(msg.me)
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if m.list.ApplyPage(msg.page, msg.data) {
			m.err = nil
			m.clampCursor()
		}
		return m, nil

	case projectDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.list.Deleted(msg.id)
		m.clampCursor()
		m.toast = "project deleted"
		return m, nil

	case editLoadedMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case addressDetailMsg:
		if m.state == lsAddress && m.detail.ProjectID == msg.detail.ProjectID {
			m.detail = msg.detail
			m.locating = false
		}
		return m, nil

	case copyMsg:
		if msg.err != nil {
			m.toast = "copy failed: " + msg.err.Error()
		} else {
			m.toast = "address copied"
		}
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case lsConfirmDelete:
			return m.handleKeyConfirm(msg)
		case lsAddress:
			return m.handleKeyAddress(msg)
		case lsTasks:
			if s := msg.String(); s == "esc" || s == "t" {
				m.state = lsNormal
			}
			return m, nil
		}
		return m.handleKeyNormal(msg)
	}
	return m, nil
}

func (m listModel) handleKeyNormal(msg tea.KeyMsg) (listModel, tea.Cmd) {
	projects := m.list.Projects()
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(projects)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "l", "]", "right", "pgdown":
		if m.list.ChangePage(1) {
			m.cursor = 0
			m.loading = true
			return m, m.reload()
		}
	case "[", "left", "pgup":
		if m.list.ChangePage(-1) {
			m.cursor = 0
			m.loading = true
			return m, m.reload()
		}
	case "r":
		m.loading = true
		m.toast = ""
		return m, m.reload()
	case "enter":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.state = lsAddress
		m.detail = workflow.AddressDetail{ProjectID: p.ID, Name: p.Name, Address: p.Address, Zoom: m.list.MapZoom}
		m.locating = true
		list, geo := m.list, m.geo
		return m, func() tea.Msg {
			return addressDetailMsg{detail: list.AddressDetail(context.Background(), geo, p)}
		}
	case "t":
		if p, ok := m.selected(); ok {
			m.tasksOf = p
			m.state = lsTasks
		}
	case "e":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !m.list.CanModify(p) {
			m.toast = "only the owner can edit this project"
			return m, nil
		}
		m.loading = true
		api, id := m.api, p.ID
		return m, func() tea.Msg {
			f, err := workflow.LoadEditForm(context.Background(), api, id)
			return editLoadedMsg{form: f, err: err}
		}
	case "d":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !m.list.CanModify(p) {
			m.toast = "only the owner can delete this project"
			return m, nil
		}
		if err := m.list.RequestDelete(p.ID); err != nil {
			m.err = err
			return m, nil
		}
		m.state = lsConfirmDelete
	}
	return m, nil
}

func (m listModel) handleKeyConfirm(msg tea.KeyMsg) (listModel, tea.Cmd) {
	switch msg.String() {
	case "y":
		id, err := m.list.ConfirmDelete()
		m.state = lsNormal
		if err != nil {
			m.err = err
			return m, nil
		}
		api := m.api
		return m, func() tea.Msg {
			return projectDeletedMsg{id: id, err: api.DeleteProject(context.Background(), id)}
		}
	case "n", "esc":
		m.list.CancelDelete() //nolint:errcheck // state says a delete is pending
		m.state = lsNormal
	}
	return m, nil
}

func (m listModel) handleKeyAddress(msg tea.KeyMsg) (listModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.state = lsNormal
	case "m":
		if err := m.openURL(m.detail.MapURL()); err != nil {
			m.toast = "could not open the map: " + err.Error()
		}
	case "c":
		text := addressText(m.detail)
		copyFn := m.copy
		return m, func() tea.Msg {
			return copyMsg{err: copyFn(text)}
		}
	}
	return m, nil
}

func (m listModel) selected() (domain.Project, bool) {
	projects := m.list.Projects()
	if m.cursor < 0 || m.cursor >= len(projects) {
		return domain.Project{}, false
	}
	return projects[m.cursor], true
}

func (m *listModel) clampCursor() {
	n := len(m.list.Projects())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// addressText is the plain-text address copied to the clipboard.
func addressText(d workflow.AddressDetail) string {
	var b strings.Builder
	for _, f := range d.Fields() {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m listModel) View() string {
	switch m.state {
	case lsAddress:
		return m.viewAddress()
	case lsTasks:
		return m.viewTasks()
	}

	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Projects") + "  " + metaStyle.Render(pageLabel(m.list.Page(), m.list.TotalPages())) + "\n\n")

	projects := m.list.Projects()
	if len(projects) == 0 {
		if m.loading {
			b.WriteString("  " + dimStyle.Render("loading...") + "\n")
		} else {
			b.WriteString("  " + dimStyle.Render("No projects yet. Press 2 to create one.") + "\n")
		}
		return b.String()
	}

	nameWidth := max(m.width-48, 16)
	for i, p := range projects {
		cursor := "  "
		name := normalStyle.Render(truncStr(oneLine(p.Name), nameWidth))
		if i == m.cursor {
			cursor = accentStyle.Render("> ")
			name = selectedStyle.Render(truncStr(oneLine(p.Name), nameWidth))
		}
		place := "no address"
		if p.Address != nil {
			place = p.Address.Summary()
		}
		line := fmt.Sprintf("%s%s  %s  %s  %s",
			cursor, name, StatusBadge(p.Status),
			dimStyle.Render(orNA(p.DisplayStartDate())), metaStyle.Render(place))
		if !m.list.CanModify(p) {
			line += " " + metaStyle.Render("(read only)")
		}
		if i == m.cursor {
			line = selectedRowBg.Render(line)
		}
		b.WriteString(line + "\n")
		if i == m.cursor && p.Description != "" {
			b.WriteString("    " + dimStyle.Render(truncStr(oneLine(p.Description), max(m.width-6, 20))) + "\n")
		}
	}

	if id, ok := m.list.PendingDelete(); ok && m.state == lsConfirmDelete {
		p, _ := m.list.Find(id)
		b.WriteString("\n  " + warnStyle.Render(fmt.Sprintf("Delete %q? This cannot be undone.", p.Name)) + "\n")
		b.WriteString("  " + helpEntry("y", "confirm") + "  " + helpEntry("n", "cancel") + "\n")
	}
	return b.String()
}

func (m listModel) viewAddress() string {
	d := m.detail
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Address") + "  " + selectedStyle.Render(d.Name) + "\n\n")

	var card strings.Builder
	for _, f := range d.Fields() {
		fmt.Fprintf(&card, "%s %s\n", dimStyle.Render(fmt.Sprintf("%-11s", f.Label)), normalStyle.Render(f.Value))
	}
	b.WriteString(cardStyle.Render(strings.TrimRight(card.String(), "\n")) + "\n\n")

	c := d.Center()
	switch {
	case m.locating:
		b.WriteString("  " + dimStyle.Render("locating...") + "\n")
	case d.Located:
		b.WriteString("  " + accentStyle.Render("map") + "  " + normalStyle.Render(c.String()) + "\n")
	default:
		reason := "not located"
		if d.GeocodeErr != nil {
			reason = d.GeocodeErr.Error()
		}
		b.WriteString("  " + accentStyle.Render("map") + "  " + normalStyle.Render(c.String()) + "  " + metaStyle.Render("default center ("+reason+")") + "\n")
	}
	if !m.locating {
		b.WriteString("  " + metaStyle.Render(d.MapURL()) + "\n")
		if m.tileURL != "" {
			b.WriteString("  " + metaStyle.Render("tile "+geocode.TileURL(m.tileURL, c, d.Zoom)) + "\n")
		}
	}
	return b.String()
}

func (m listModel) viewTasks() string {
	p := m.tasksOf
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Tasks") + "  " + selectedStyle.Render(p.Name) + "\n\n")
	tasks := m.list.TasksDetail(p)
	if len(tasks) == 0 {
		b.WriteString("  " + dimStyle.Render("This project has no tasks.") + "\n")
		return b.String()
	}
	for i, t := range tasks {
		fmt.Fprintf(&b, "  %s %s %s\n", metaStyle.Render(fmt.Sprintf("%2d.", i+1)), normalStyle.Render(orNA(oneLine(t.Title))), StatusBadge(t.Status))
		if t.Description != "" {
			b.WriteString("      " + dimStyle.Render(truncStr(oneLine(t.Description), max(m.width-8, 20))) + "\n")
		}
	}
	return b.String()
}

func (m listModel) statusLine() string {
	switch {
	case m.err != nil:
		return " " + rejectStyle.Render(client.Message(m.err))
	case m.loading:
		return " " + dimStyle.Render("loading...")
	case m.toast != "":
		return " " + successStyle.Render(m.toast)
	}
	return ""
}

func (m listModel) helpKeys() []string {
	switch m.state {
	case lsConfirmDelete:
		return []string{helpEntry("y", "delete"), helpEntry("n", "cancel")}
	case lsAddress:
		return []string{helpEntry("m", "open map"), helpEntry("c", "copy"), helpEntry("esc", "back")}
	case lsTasks:
		return []string{helpEntry("esc", "back")}
	}
	keys := []string{helpEntry("j/k", "nav"), helpEntry("[/]", "page"), helpEntry("enter", "address"), helpEntry("t", "tasks")}
	if p, ok := m.selected(); ok && m.list.CanModify(p) {
		keys = append(keys, helpEntry("e", "edit"), helpEntry("d", "delete"))
	}
	return append(keys, helpEntry("n", "new"), helpEntry("h", "help"), helpEntry("q", "quit"))
}
