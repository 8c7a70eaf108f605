package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/projectdesk/pkg/domain"
)

// Shimmer animation for the header logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

const logoText = "PROJECTDESK"

// renderShimmerLogo renders the logo as a slow wave of blue light.
// Deep navy (#1a2a44) -> bright sky (#60a5fa).
func renderShimmerLogo(frame int) string {
	n := len(logoText)
	t := float64(frame)

	var out string
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		phase := t*0.1 - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)
		b = b*0.75 + math.Sin(t*0.035)*0.12 + 0.18

		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		r := clampByte(26 + b*(96-26))
		g := clampByte(42 + b*(165-42))
		bl := clampByte(68 + b*(250-68))

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
		out += s.Render(string(logoText[i]))

		if i < n-1 {
			out += " "
		}
	}
	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8b93a7"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e6e8ef")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c3c8d4"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#545c6e"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8b93a7"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#545c6e"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60a5fa"))

	// Toasts
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34d399"))

	rejectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c05656"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0b04a"))

	borderColor = lipgloss.Color("#1c2333")

	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1c2333"))

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#667085"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#60a5fa")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#3a4354"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	// Status colors, shared by project and task statuses that mean the same.
	statusColors = map[string]lipgloss.Color{
		domain.ProjectPlanned:    lipgloss.Color("#8b93a7"),
		domain.TaskPending:       lipgloss.Color("#8b93a7"),
		domain.ProjectInProgress: lipgloss.Color("#f0944a"),
		domain.ProjectDone:       lipgloss.Color("#34d399"),
		domain.TaskDone:          lipgloss.Color("#34d399"),
	}
)

// StatusStyle returns a bold style colored for a project or task status.
func StatusStyle(status string) lipgloss.Style {
	if c, ok := statusColors[status]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#667085")).Bold(true)
}

// StatusBadge renders "[status]" in the status color.
func StatusBadge(status string) string {
	if status == "" {
		return ""
	}
	return StatusStyle(status).Render("[" + status + "]")
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins help entries with the standard spacing.
func helpBar(entries ...string) string {
	return " " + strings.Join(entries, "  ")
}

// helpItem is a selectable link in the help overlay.
type helpItem struct {
	label string
	desc  string
	url   string
}

var helpItems = []helpItem{
	{"OpenStreetMap", "map data © OpenStreetMap contributors", "https://www.openstreetmap.org/copyright"},
	{"OpenCage", "geocoding by OpenCage", "https://opencagedata.com"},
	{"ViaCEP", "postal code reference", "https://viacep.com.br"},
}

// helpView renders the interactive help overlay with a cursor.
func helpView(cursor int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#60a5fa")).
		Bold(true).
		Render("P R O J E C T D E S K")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#60a5fa"))
	linkDescStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

	keys := []struct{ key, desc string }{
		{"1 / 2 / 3", "projects, new project, reports"},
		{"j / k", "move the cursor"},
		{"[ / ]", "previous / next page"},
		{"enter", "address and map of a project"},
		{"t", "tasks of a project"},
		{"e / d", "edit / delete (owner only)"},
		{"ctrl+s", "save a form"},
		{"L", "log out"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", title)

	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Keys"))
	for _, k := range keys {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-12s", k.key)), descStyle.Render(k.desc))
	}

	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Links (enter to open)"))
	for i, item := range helpItems {
		label := cmdStyle.Render(fmt.Sprintf("%-20s", item.label))
		prefix := "    "
		if i == cursor {
			label = selectedStyle.Render(fmt.Sprintf("%-20s", item.label))
			prefix = "  > "
		}
		fmt.Fprintf(&b, "%s%s  %s\n", prefix, label, linkDescStyle.Render(item.desc))
	}
	return b.String()
}
