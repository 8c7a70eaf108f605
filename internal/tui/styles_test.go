package tui

import (
	"strings"
	"testing"

	"github.com/naveenspark/projectdesk/pkg/domain"
)

func TestStatusStyleKnownStatuses(t *testing.T) {
	statuses := append(append([]string{}, domain.ProjectStatuses...), domain.TaskStatuses...)
	for _, st := range statuses {
		t.Run(st, func(t *testing.T) {
			rendered := StatusStyle(st).Render(st)
			if !strings.Contains(rendered, st) {
				t.Errorf("StatusStyle(%q).Render = %q, want to contain %q", st, rendered, st)
			}
		})
	}
}

func TestStatusStyleUnknownFallback(t *testing.T) {
	rendered := StatusStyle("arquivado").Render("arquivado")
	if !strings.Contains(rendered, "arquivado") {
		t.Errorf("StatusStyle fallback did not render text: %q", rendered)
	}
}

func TestStatusBadge(t *testing.T) {
	if got := StatusBadge(""); got != "" {
		t.Errorf("StatusBadge(\"\") = %q, want empty", got)
	}
	if got := StatusBadge(domain.ProjectDone); !strings.Contains(got, "[concluído]") {
		t.Errorf("StatusBadge = %q, want bracketed status", got)
	}
}

func TestHelpEntryContainsKeyAndLabel(t *testing.T) {
	got := helpEntry("ctrl+s", "save")
	if !strings.Contains(got, "ctrl+s") || !strings.Contains(got, "save") {
		t.Errorf("helpEntry = %q", got)
	}
}

func TestHelpViewMarksCursor(t *testing.T) {
	v := helpView(1)
	if !strings.Contains(v, "> ") {
		t.Errorf("helpView should mark the cursor row: %q", v)
	}
	for _, item := range helpItems {
		if !strings.Contains(v, item.label) {
			t.Errorf("helpView missing link %q", item.label)
		}
	}
}

func TestRenderShimmerLogoAllFrames(t *testing.T) {
	for frame := 0; frame < 200; frame += 17 {
		out := renderShimmerLogo(frame)
		for _, r := range logoText {
			if !strings.ContainsRune(out, r) {
				t.Fatalf("frame %d: logo missing %q", frame, r)
			}
		}
	}
}
