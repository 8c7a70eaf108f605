package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// oneLine collapses newlines and runs of whitespace so free text fits a row.
func oneLine(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// orNA renders blank values as "N/A".
func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// pageLabel renders "page 2/5".
func pageLabel(page, total int) string {
	if total < 1 {
		total = 1
	}
	return fmt.Sprintf("page %d/%d", page, total)
}
