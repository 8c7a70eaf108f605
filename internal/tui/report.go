package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/projectdesk/internal/workflow"
	"github.com/naveenspark/projectdesk/pkg/client"
	"github.com/naveenspark/projectdesk/pkg/domain"
)

const dateLayout = "2006-01-02"

// reportLoadedMsg carries the result of a report query.
type reportLoadedMsg struct {
	result workflow.ReportResult
	err    error
}

func (m reportLoadedMsg) failed() error { return m.err }

type reportModel struct {
	api     API
	from    string
	to      string
	focus   int // 0 from, 1 to
	editing bool
	loading bool
	loaded  bool
	result  workflow.ReportResult
	err     error
	width   int
	height  int
	frame   int
}

func newReportModel(api API) reportModel {
	return reportModel{api: api}
}

func (m reportModel) Init() tea.Cmd {
	return m.run(workflow.ReportQuery{From: m.from, To: m.to})
}

func (m reportModel) run(q workflow.ReportQuery) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		r, err := q.Run(context.Background(), api)
		return reportLoadedMsg{result: r, err: err}
	}
}

// query checks the date filters; blank bounds are left open.
func (m reportModel) query() (workflow.ReportQuery, error) {
	q := workflow.ReportQuery{From: strings.TrimSpace(m.from), To: strings.TrimSpace(m.to)}
	var from, to time.Time
	var err error
	if q.From != "" {
		if from, err = time.Parse(dateLayout, q.From); err != nil {
			return q, errors.New("from must be a date like 2024-01-31")
		}
	}
	if q.To != "" {
		if to, err = time.Parse(dateLayout, q.To); err != nil {
			return q, errors.New("to must be a date like 2024-12-31")
		}
	}
	if q.From != "" && q.To != "" && to.Before(from) {
		return q, errors.New("from must not be after to")
	}
	return q, nil
}

func (m reportModel) Update(msg tea.Msg) (reportModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case reportLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.result = msg.result
			m.loaded = true
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.handleKeyEditing(msg)
		}
		switch msg.String() {
		case "/", "f":
			m.editing = true
			m.focus = 0
		case "r":
			return m.submit()
		case "c":
			m.from, m.to = "", ""
			return m.submit()
		}
	}
	return m, nil
}

func (m reportModel) handleKeyEditing(msg tea.KeyMsg) (reportModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.focus = 1 - m.focus
		return m, nil
	case "enter":
		m.editing = false
		return m.submit()
	}
	if m.focus == 0 {
		m.from = editRune(m.from, keyText(msg))
	} else {
		m.to = editRune(m.to, keyText(msg))
	}
	return m, nil
}

func (m reportModel) submit() (reportModel, tea.Cmd) {
	q, err := m.query()
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.loading = true
	return m, m.run(q)
}

func (m reportModel) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Reports") + "\n\n")
	b.WriteString(renderField("From", m.from, "YYYY-MM-DD", m.editing && m.focus == 0, m.frame) + "\n")
	b.WriteString(renderField("To", m.to, "YYYY-MM-DD", m.editing && m.focus == 1, m.frame) + "\n\n")

	if !m.loaded {
		if m.loading {
			b.WriteString("  " + dimStyle.Render("loading...") + "\n")
		}
		return b.String()
	}
	barWidth := max(min(m.width-40, 40), 10)
	b.WriteString(renderDistribution("Projects by status", m.result.Projects, barWidth))
	b.WriteString("\n")
	b.WriteString(renderDistribution("Tasks by status", m.result.Tasks, barWidth))
	return b.String()
}

// renderDistribution draws one horizontal bar per status, scaled to the
// largest count, with the count and its share of the total.
func renderDistribution(title string, dist []domain.StatusCount, barWidth int) string {
	var b strings.Builder
	total := domain.Total(dist)
	b.WriteString(" " + sectionHeaderStyle.Render(title) + "  " + metaStyle.Render(fmt.Sprintf("%d total", total)) + "\n")
	if total == 0 {
		b.WriteString("  " + dimStyle.Render("nothing to show") + "\n")
		return b.String()
	}
	peak := 0
	for _, d := range dist {
		peak = max(peak, d.Count)
	}
	for _, d := range dist {
		n := d.Count * barWidth / peak
		if d.Count > 0 && n == 0 {
			n = 1
		}
		bar := StatusStyle(d.Status).Render(strings.Repeat("█", n)) + metaStyle.Render(strings.Repeat("·", barWidth-n))
		pct := float64(d.Count) * 100 / float64(total)
		fmt.Fprintf(&b, "  %s %s %s\n",
			normalStyle.Render(fmt.Sprintf("%-13s", d.Status)), bar,
			dimStyle.Render(fmt.Sprintf("%3d  %5.1f%%", d.Count, pct)))
	}
	return b.String()
}

func (m reportModel) statusLine() string {
	switch {
	case m.err != nil:
		return " " + rejectStyle.Render(client.Message(m.err))
	case m.loading:
		return " " + dimStyle.Render("loading...")
	}
	return ""
}

func (m reportModel) helpKeys() []string {
	if m.editing {
		return []string{helpEntry("tab", "switch"), helpEntry("enter", "run"), helpEntry("esc", "done")}
	}
	return []string{helpEntry("/", "filter dates"), helpEntry("r", "refresh"), helpEntry("c", "clear"), helpEntry("h", "help"), helpEntry("q", "quit")}
}
