package tui

import (
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 2000

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and printable text, including pastes.
// Returns the text unchanged for named keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	if key == "backspace" {
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	}
	if !printable(key) {
		return text
	}
	room := maxInputLen - utf8.RuneCountInString(text)
	if room <= 0 {
		return text
	}
	runes := []rune(key)
	if len(runes) > room {
		runes = runes[:room]
	}
	return text + string(runes)
}

// printable reports whether a key string is typed text rather than a named
// key like "enter", "ctrl+c" or "f1".
func printable(key string) bool {
	if key == "" {
		return false
	}
	if utf8.RuneCountInString(key) == 1 {
		return key != "\x00"
	}
	switch {
	case strings.HasPrefix(key, "ctrl+"), strings.HasPrefix(key, "alt+"),
		strings.HasPrefix(key, "shift+"):
		return false
	}
	switch key {
	case "enter", "esc", "up", "down", "left", "right", "tab", "backspace",
		"delete", "pgup", "pgdown", "home", "end", "insert", "space":
		return false
	}
	if len(key) <= 3 && key[0] == 'f' && key[1] >= '0' && key[1] <= '9' {
		return false
	}
	return true
}

// keyText returns the string editRune should see for a key press. Pasted
// text arrives as runes and is passed through without the bracket wrapping
// that KeyMsg.String adds.
func keyText(msg tea.KeyMsg) string {
	if msg.Type == tea.KeyRunes {
		return string(msg.Runes)
	}
	return msg.String()
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// mask hides a secret behind bullets, one per rune.
func mask(s string) string {
	return strings.Repeat("•", utf8.RuneCountInString(s))
}

// renderField renders a labelled single-line input. The focused field shows
// a blinking cursor; an empty unfocused field shows its placeholder.
func renderField(label, value, placeholder string, focused bool, animFrame int) string {
	prefix := "  "
	lbl := dimStyle.Render(label + ":")
	if focused {
		prefix = accentStyle.Render("> ")
		lbl = inputPromptStyle.Render(label + ":")
	}
	var body string
	switch {
	case focused:
		cursor := " "
		if (animFrame/4)%2 == 0 {
			cursor = accentStyle.Render("█")
		}
		body = selectedStyle.Render(value) + cursor
	case value == "":
		body = inputPlaceholderStyle.Render(placeholder)
	default:
		body = normalStyle.Render(value)
	}
	return prefix + lbl + " " + body
}
